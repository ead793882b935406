package testutil

import (
	"fmt"
	"strings"
)

// Numbered returns n lines "line 1" to "line n".
func Numbered(n int) string {
	var b strings.Builder
	for i := 1; i <= n; i++ {
		fmt.Fprintf(&b, "line %d\n", i)
	}
	return b.String()
}

// WithStandardNovel adds a small novel with two parts, nested chapters and
// a skipped heading level.
func (b *Builder) WithStandardNovel() *Builder {
	return b.
		Title("The Book").
		Heading(1, "Part One").
		Heading(2, "Chapter 1").
		Paragraph("It was the best of times.").
		Heading(2, "Chapter 2").
		Heading(2, "In Which Nothing Happens").
		Paragraph("It was the worst of times.").
		Heading(1, "Part Two").
		Heading(3, "A Deep Scene").
		Paragraph("The end.")
}
