package presentation

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/muesli/reflow/indent"
	"github.com/muesli/reflow/wordwrap"
)

// Formatter writes command output as text or JSON.
type Formatter struct {
	writer io.Writer
	json   bool
	width  int
}

// NewFormatter creates a formatter. Text output wraps at width cells; zero
// disables wrapping.
func NewFormatter(writer io.Writer, asJSON bool, width int) *Formatter {
	return &Formatter{
		writer: writer,
		json:   asJSON,
		width:  width,
	}
}

func (f *Formatter) encode(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

// FormatBooks writes the recent list, newest first.
func (f *Formatter) FormatBooks(books []BookDTO) error {
	if f.json {
		return f.encode(books)
	}
	for _, b := range books {
		if _, err := fmt.Fprintf(f.writer, "%s  %-9s  %s\n", b.OpenedAt.Local().Format("2006-01-02 15:04"), b.Kind, b.Path); err != nil {
			return err
		}
	}
	return nil
}

// FormatBookmarks writes bookmarks, nested entries indented under their
// parent. Long labels wrap inside their indentation.
func (f *Formatter) FormatBookmarks(list []BookmarkDTO) error {
	if f.json {
		if list == nil {
			list = []BookmarkDTO{}
		}
		return f.encode(list)
	}
	var b strings.Builder
	f.writeBookmarks(&b, list, 0)
	_, err := io.WriteString(f.writer, b.String())
	return err
}

func (f *Formatter) writeBookmarks(b *strings.Builder, list []BookmarkDTO, depth int) {
	const step = 2
	for _, bm := range list {
		pad := uint(depth * step)
		text := bm.Label
		if f.width > 0 {
			text = wordwrap.String(text, max(1, f.width-int(pad)))
		}
		b.WriteString(indent.String(text, pad))
		b.WriteByte('\n')
		f.writeBookmarks(b, bm.Children, depth+1)
	}
}

// FormatStats writes book statistics.
func (f *Formatter) FormatStats(s StatsDTO) error {
	if f.json {
		return f.encode(s)
	}
	_, err := fmt.Fprintf(f.writer, "%s\n  lines  %d\n  words  %d\n  chars  %d\n", s.Path, s.Lines, s.Words, s.Chars)
	return err
}
