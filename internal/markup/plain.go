package markup

import "github.com/zjrosen/peruse/internal/cursor"

// NewPlain creates a token cursor over plain text lines. Every line becomes a
// single Word token holding the raw line, which the plain layout reflows as
// one paragraph.
func NewPlain(lines cursor.Cursor[string]) *cursor.Mapping[Token, string] {
	return cursor.NewMapping(lines, func(line string) Token {
		return Token{Text: line, Kind: Word}
	})
}
