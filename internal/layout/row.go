// Package layout turns token streams into rows that fit a terminal of a
// given width.
package layout

import (
	"strings"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/markup"
)

// Align is the horizontal alignment of a paragraph.
type Align int

const (
	AlignLeft Align = iota
	AlignRight
	AlignCenter
)

// IndentCells is the width of one indentation step.
const IndentCells = 4

// DefaultTabSize is the tab stop distance used when none is configured.
const DefaultTabSize = 4

// Item is a run of text drawn in a single character style.
type Item struct {
	Text     string
	Emphasis bool
	Strong   bool
}

// Row is one line of laid out text.
type Row struct {
	Items  []Item
	Style  markup.Style
	Align  Align
	Indent int  // cells before the first item for left aligned rows
	First  bool // first row of its paragraph
	Width  int  // cells taken by the items and the spaces between them
}

// Text returns the row's items separated by single spaces.
func (r Row) Text() string {
	parts := make([]string, len(r.Items))
	for i, it := range r.Items {
		parts[i] = it.Text
	}
	return strings.Join(parts, " ")
}

// Offset returns the number of blank cells to draw before the row in a view
// that is width cells wide.
func (r Row) Offset(width int) int {
	switch r.Align {
	case AlignCenter:
		return max(0, (width-r.Width)/2)
	case AlignRight:
		return max(0, width-r.Width)
	default:
		return r.Indent
	}
}

// Rows is a cursor over laid out rows whose width can change in place.
type Rows interface {
	cursor.Cursor[Row]
	Width() int
	SetWidth(width int) error
}

// ParagraphStyle describes how paragraphs of a block style are laid out.
type ParagraphStyle struct {
	Name            markup.Style
	Align           Align
	Indent          int
	FirstLineIndent int
}

// StyleFor returns the layout of paragraphs in style s.
func StyleFor(s markup.Style) ParagraphStyle {
	ps := ParagraphStyle{Name: s}
	switch s {
	case markup.Title, markup.SubTitle,
		markup.Heading1, markup.Heading2, markup.Heading3, markup.Heading4, markup.Heading5:
		ps.Align = AlignCenter
	case markup.Author, markup.Sign:
		ps.Align = AlignRight
	case markup.Annotation, markup.Citation, markup.Dedication, markup.Epigraph,
		markup.Information, markup.Letter, markup.Poem:
		ps.Indent = 1
		ps.FirstLineIndent = 1
	case markup.Preformatted, markup.Table, markup.TableHeading:
	default:
		ps.FirstLineIndent = 1
	}
	return ps
}
