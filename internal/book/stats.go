package book

import (
	"errors"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/tokenize"
)

// Counts summarizes the text of a document.
type Counts struct {
	Lines int64
	Words int64
	Chars int64
}

// Count walks the document at path once per unit. It does not depend on
// the document's kind.
func Count(path string, opts Options) (Counts, error) {
	var c Counts

	lines, err := countGroups(path, opts, tokenize.NewLines)
	if err != nil {
		return c, err
	}
	c.Lines = lines

	c.Words, err = countGroups(path, opts, tokenize.NewWords)
	if errors.Is(err, cursor.ErrEmptyInput) {
		err = nil
	}
	if err != nil {
		return c, err
	}

	chars, err := openChars(path, opts)
	if err != nil {
		return c, err
	}
	defer func() { _ = chars.Close() }()
	n, err := count[rune](chars)
	c.Chars = n
	return c, err
}

func countGroups(path string, opts Options, group func(cursor.Cursor[rune]) (*cursor.Aggregating[string, rune], error)) (int64, error) {
	chars, err := openChars(path, opts)
	if err != nil {
		return 0, err
	}
	defer func() { _ = chars.Close() }()
	g, err := group(chars)
	if err != nil {
		return 0, err
	}
	return count[string](g)
}

func count[T any](c cursor.Cursor[T]) (int64, error) {
	n := int64(1)
	for !c.IsLast() {
		if err := c.Next(); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}
