package viewer

import (
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/peruse/internal/keys"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/markup"
)

var (
	headingStyle  = lipgloss.NewStyle().Bold(true)
	strongStyle   = lipgloss.NewStyle().Bold(true)
	emphasisStyle = lipgloss.NewStyle().Italic(true)
	statusStyle   = lipgloss.NewStyle().Reverse(true)
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
)

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting || m.width == 0 || m.height == 0 {
		return ""
	}

	var lines []string
	if m.mode == modeRead {
		lines = m.pageLines()
	} else {
		lines = m.listLines()
	}
	body := m.bodyHeight()
	for len(lines) < body {
		lines = append(lines, "")
	}

	out := strings.Join(lines[:body], "\n")
	if footer := m.footer(); footer != "" {
		out += "\n" + footer
	}
	return out
}

// bodyHeight is the number of rows left for the page after the status bar
// and help.
func (m Model) bodyHeight() int {
	h := m.height
	if m.cfg.ShowStatusBar {
		h--
	}
	if m.help.ShowAll {
		h -= lipgloss.Height(m.helpView())
	}
	return max(1, h)
}

func (m Model) pageLines() []string {
	lines := make([]string, len(m.page))
	for i, r := range m.page {
		lines[i] = m.renderRow(r)
	}
	return lines
}

func (m Model) renderRow(r layout.Row) string {
	var b strings.Builder
	b.WriteString(strings.Repeat(" ", r.Offset(m.rowWidth())))
	for i, it := range r.Items {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(itemStyle(r.Style, it).Render(it.Text))
	}
	return ansi.Truncate(b.String(), m.width, "…")
}

func itemStyle(block markup.Style, it layout.Item) lipgloss.Style {
	switch {
	case it.Strong:
		return strongStyle
	case it.Emphasis:
		return emphasisStyle
	}
	switch block {
	case markup.Title, markup.SubTitle,
		markup.Heading1, markup.Heading2, markup.Heading3, markup.Heading4, markup.Heading5:
		return headingStyle
	}
	return lipgloss.NewStyle()
}

func (m Model) listLines() []string {
	title := "Contents"
	if m.mode == modeBookmarks {
		title = "Bookmarks"
	}
	lines := []string{titleStyle.Render(title)}

	visible := max(1, m.bodyHeight()-1)
	end := min(len(m.entries), m.offset+visible)
	for i := m.offset; i < end; i++ {
		e := m.entries[i]
		label := strings.ReplaceAll(e.b.Label, "\n", " / ")
		line := ansi.Truncate(strings.Repeat("  ", e.depth+1)+label, m.width, "…")
		if i == m.selected {
			line = selectedStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return lines
}

func (m Model) helpView() string {
	if m.mode == modeRead {
		return m.help.View(keys.Reader)
	}
	return m.help.View(keys.List)
}

func (m Model) footer() string {
	var parts []string
	if m.help.ShowAll {
		parts = append(parts, m.helpView())
	}
	if m.cfg.ShowStatusBar {
		parts = append(parts, m.statusBar())
	}
	return strings.Join(parts, "\n")
}

func (m Model) statusBar() string {
	left := " " + m.book.Name()
	if m.status != "" {
		left += " · " + m.status
	}
	right := ""
	if !m.help.ShowAll {
		right = m.help.ShortHelpView(m.shortHelp()) + " "
	}

	if ansi.StringWidth(left)+ansi.StringWidth(right)+1 > m.width {
		right = ""
	}
	left = ansi.Truncate(left, m.width, "…")
	gap := max(0, m.width-ansi.StringWidth(left)-ansi.StringWidth(right))
	bar := left + strings.Repeat(" ", gap) + right
	return statusStyle.Render(bar)
}

func (m Model) shortHelp() []key.Binding {
	if m.mode == modeRead {
		return keys.Reader.ShortHelp()
	}
	return keys.List.ShortHelp()
}
