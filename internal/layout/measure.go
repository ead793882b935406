package layout

import (
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"
)

// StringWidth returns the number of terminal cells s occupies.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// ExpandTabs replaces tabs with spaces up to the next multiple of tabSize,
// counting columns in terminal cells.
func ExpandTabs(s string, tabSize int) string {
	if !strings.ContainsRune(s, '\t') {
		return s
	}
	if tabSize < 1 {
		tabSize = DefaultTabSize
	}
	var b strings.Builder
	col := 0
	for _, r := range s {
		if r == '\t' {
			n := tabSize - col%tabSize
			b.WriteString(strings.Repeat(" ", n))
			col += n
			continue
		}
		b.WriteRune(r)
		col += runewidth.RuneWidth(r)
	}
	return b.String()
}

// fitPrefix returns the longest prefix of s made of whole grapheme clusters
// that fits in width cells. The prefix always holds at least one cluster.
func fitPrefix(s string, width int) string {
	g := uniseg.NewGraphemes(s)
	end, used := 0, 0
	for g.Next() {
		w := runewidth.StringWidth(g.Str())
		_, to := g.Positions()
		if end > 0 && used+w > width {
			break
		}
		end, used = to, used+w
	}
	return s[:end]
}
