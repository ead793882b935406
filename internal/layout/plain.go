package layout

import (
	"unicode"
	"unicode/utf8"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/markup"
)

// Reflow breaks one plain text paragraph into rows at most width cells wide.
// Whitespace between words is kept as written. Leading whitespace survives
// only at the start of the paragraph. Words wider than a row are split
// between grapheme clusters. An empty paragraph yields one empty row.
func Reflow(line string, width, tabSize int) []Row {
	if width < 1 {
		width = 1
	}
	var rows []Row
	for i := 0; i < len(line); {
		text, next := fillRow(line, i, width, tabSize)
		rows = append(rows, plainRow(text, len(rows) == 0))
		i = next
	}
	if len(rows) == 0 {
		rows = append(rows, plainRow("", true))
	}
	return rows
}

func plainRow(text string, first bool) Row {
	return Row{
		Items: []Item{{Text: text}},
		Style: markup.Normal,
		First: first,
		Width: StringWidth(text),
	}
}

// fillRow fills one row starting at byte offset start and returns its text
// and the offset the next row starts at.
func fillRow(line string, start, width, tabSize int) (string, int) {
	text := ""
	i := start
	for {
		j := skip(line, i, true)
		if i > 0 && text == "" {
			i = j
		}
		k := skip(line, j, false)
		if i == k {
			return text, k
		}
		if j == k {
			return text, len(line)
		}

		candidate := ExpandTabs(text+line[i:k], tabSize)
		if StringWidth(candidate) <= width {
			text, i = candidate, k
			continue
		}
		if text != "" {
			return text, i
		}
		if i < j {
			// Paragraph indentation that does not fit next to the word is dropped.
			i = j
			continue
		}
		head := fitPrefix(line[j:k], width)
		return head, j + len(head)
	}
}

// skip advances from i over whitespace, or over non-whitespace when space is
// false.
func skip(line string, i int, space bool) int {
	for i < len(line) {
		r, size := utf8.DecodeRuneInString(line[i:])
		if unicode.IsSpace(r) != space {
			break
		}
		i += size
	}
	return i
}

// PlainRows lays out plain text, one paragraph per token.
type PlainRows struct {
	*cursor.Splitting[Row]
	paragraphs *cursor.CachedMapping[[]Row, markup.Token]
	width      int
	tabSize    int
}

var _ Rows = (*PlainRows)(nil)

// NewPlainRows creates a row cursor over tokens produced by markup.NewPlain.
func NewPlainRows(tokens cursor.Cursor[markup.Token], width, tabSize int) (*PlainRows, error) {
	p := &PlainRows{width: width, tabSize: tabSize}
	p.paragraphs = cursor.NewCachedMapping(tokens, func(t markup.Token) []Row {
		return Reflow(t.Text, p.width, p.tabSize)
	})
	s, err := cursor.NewSplitting[Row](p.paragraphs)
	if err != nil {
		return nil, err
	}
	p.Splitting = s
	return p, nil
}

// Width implements Rows.
func (p *PlainRows) Width() int { return p.width }

// SetWidth implements Rows. The cursor stays in the same paragraph.
func (p *PlainRows) SetWidth(width int) error {
	p.width = width
	p.paragraphs.Invalidate()
	p.Splitting.Invalidate()
	return nil
}
