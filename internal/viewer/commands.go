package viewer

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/peruse/internal/book"
	"github.com/zjrosen/peruse/internal/bookmark"
	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/watcher"
)

type tocMsg struct {
	toc []bookmark.Bookmark
	err error
}

type changedMsg watcher.Change

type reloadFailedMsg struct{ err error }

type prefetchedMsg struct {
	ran bool
	err error
}

func buildTOC(b *book.Book) tea.Cmd {
	return func() tea.Msg {
		toc, err := b.TOC()
		return tocMsg{toc: toc, err: err}
	}
}

func waitForChange(ch <-chan watcher.Change) tea.Cmd {
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		c, ok := <-ch
		if !ok {
			return nil
		}
		return changedMsg(c)
	}
}

// reload reopens the book. Success is reported through the book's events.
func reload(b *book.Book) tea.Cmd {
	return func() tea.Msg {
		if err := b.Reload(); err != nil {
			return reloadFailedMsg{err: err}
		}
		return nil
	}
}

// prefetch walks n rows past the skip rows that follow the top row, then
// returns to the top row. It gives up when the viewer holds the cursor.
func prefetch(rows *cursor.Shared[layout.Row], skip, n int) tea.Cmd {
	return func() tea.Msg {
		ran, err := rows.TryWith(func(c cursor.Cursor[layout.Row]) error {
			pos := c.Position()
			moved, err := cursor.Skip(c, skip+n)
			if err != nil {
				_ = c.SetPosition(pos)
				return err
			}
			_, err = cursor.Skip(c, -moved)
			return err
		})
		return prefetchedMsg{ran: ran, err: err}
	}
}

// warning extracts the message of a WARN or ERROR log line.
func warning(line string) (string, bool) {
	for _, level := range []string{"[WARN] ", "[ERROR] "} {
		i := strings.Index(line, level)
		if i < 0 {
			continue
		}
		rest := line[i+len(level):]
		if j := strings.Index(rest, "] "); j >= 0 && strings.HasPrefix(rest, "[") {
			rest = rest[j+2:]
		}
		return strings.TrimSpace(rest), true
	}
	return "", false
}
