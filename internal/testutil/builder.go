// Package testutil builds book files and libraries for tests.
package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Builder accumulates the lines of an .sfb book.
type Builder struct {
	t     *testing.T
	lines []string
}

// NewBuilder creates an empty book builder.
func NewBuilder(t *testing.T) *Builder {
	t.Helper()
	return &Builder{t: t}
}

// Title adds a title row.
func (b *Builder) Title(text string) *Builder { return b.Row('|', text) }

// Heading adds a heading of level 1 to 5.
func (b *Builder) Heading(level int, text string) *Builder {
	b.t.Helper()
	require.True(b.t, level >= 1 && level <= 5, "heading level %d", level)
	return b.Line(strings.Repeat(">", level) + "\t" + text)
}

// Row adds a paragraph wrapped in the row style of marker.
func (b *Builder) Row(marker byte, text string) *Builder {
	return b.Line(string(marker) + "\t" + text)
}

// Paragraph adds plain paragraphs, one per argument.
func (b *Builder) Paragraph(texts ...string) *Builder {
	b.lines = append(b.lines, texts...)
	return b
}

// Block adds lines inside a block style such as 'P' for a poem.
func (b *Builder) Block(style byte, lines ...string) *Builder {
	b.Line(string(style) + ">")
	b.lines = append(b.lines, lines...)
	return b.Line(string(style) + "$")
}

// Line adds a raw line.
func (b *Builder) Line(raw string) *Builder {
	b.lines = append(b.lines, raw)
	return b
}

// String returns the book text with a trailing newline.
func (b *Builder) String() string {
	if len(b.lines) == 0 {
		return ""
	}
	return strings.Join(b.lines, "\n") + "\n"
}

// Write writes the book to name inside a temporary directory and returns its
// path.
func (b *Builder) Write(name string, opts ...FileOption) string {
	b.t.Helper()
	return WriteFile(b.t, name, b.String(), opts...)
}

// WriteFile writes content to name inside a temporary directory and returns
// its path.
func WriteFile(t *testing.T, name, content string, opts ...FileOption) string {
	t.Helper()
	data := []byte(content)
	for _, opt := range opts {
		data = opt(t, data)
	}
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, data, 0o600))
	return path
}
