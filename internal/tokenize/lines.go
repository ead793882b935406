// Package tokenize provides groupers that turn a character cursor into
// cursors over lines and words.
package tokenize

import (
	"github.com/zjrosen/peruse/internal/cursor"
)

// Lines groups characters into lines. A line ends at "\n", "\r" or "\r\n".
// A terminator at the end of the stream does not start another line, and an
// empty line starts at its own terminator.
type Lines struct{}

var _ cursor.Grouper[string, rune] = Lines{}

// NewLines creates a cursor over the lines of u, standing on the line that
// contains u's current character.
func NewLines(u cursor.Cursor[rune]) (*cursor.Aggregating[string, rune], error) {
	return cursor.NewAggregating[string, rune](u, Lines{})
}

func isTerminator(r rune) bool { return r == '\n' || r == '\r' }

// Align implements cursor.Grouper.
func (Lines) Align(u cursor.Cursor[rune]) error {
	if u.Current() == '\n' && !u.IsFirst() {
		if err := u.Prev(); err != nil {
			return err
		}
		if u.Current() != '\r' {
			if err := u.Next(); err != nil {
				return err
			}
		}
	}
	if isTerminator(u.Current()) {
		if u.IsFirst() {
			return nil
		}
		if err := u.Prev(); err != nil {
			return err
		}
		if isTerminator(u.Current()) {
			return u.Next()
		}
	}
	for !u.IsFirst() {
		if err := u.Prev(); err != nil {
			return err
		}
		if isTerminator(u.Current()) {
			return u.Next()
		}
	}
	return nil
}

// SkipForward implements cursor.Grouper.
func (Lines) SkipForward(u cursor.Cursor[rune]) error {
	r := u.Current()
	if err := u.Next(); err != nil {
		return err
	}
	if r == '\r' && u.Current() == '\n' {
		return u.Next()
	}
	return nil
}

// SkipBackward implements cursor.Grouper.
func (Lines) SkipBackward(u cursor.Cursor[rune]) error {
	if err := u.Prev(); err != nil {
		return err
	}
	if u.Current() != '\n' || u.IsFirst() {
		return nil
	}
	if err := u.Prev(); err != nil {
		return err
	}
	if u.Current() == '\r' {
		return nil
	}
	return u.Next()
}

// FetchForward implements cursor.Grouper.
// A start that does not follow a terminator, or that splits "\r\n", is
// rejected with cursor.ErrMalformedInput.
func (Lines) FetchForward(u cursor.Cursor[rune]) (string, bool, error) {
	if !u.IsFirst() {
		prev, err := peekPrev(u)
		if err != nil {
			return "", false, err
		}
		if !isTerminator(prev) || prev == '\r' && u.Current() == '\n' {
			return "", false, cursor.ErrMalformedInput
		}
	}
	var line []rune
	for {
		r := u.Current()
		if isTerminator(r) {
			more, err := lineAfter(u)
			return string(line), !more, err
		}
		line = append(line, r)
		if u.IsLast() {
			return string(line), true, nil
		}
		if err := u.Next(); err != nil {
			return "", false, err
		}
	}
}

// lineAfter reports whether anything follows the terminator starting at u.
// It leaves u where it found it.
func lineAfter(u cursor.Cursor[rune]) (bool, error) {
	if u.IsLast() {
		return false, nil
	}
	if u.Current() != '\r' {
		return true, nil
	}
	if err := u.Next(); err != nil {
		return false, err
	}
	more := u.Current() != '\n' || !u.IsLast()
	return more, u.Prev()
}

// FetchBackward implements cursor.Grouper.
func (Lines) FetchBackward(u cursor.Cursor[rune]) (string, bool, error) {
	if isTerminator(u.Current()) {
		if u.IsFirst() {
			return "", true, nil
		}
		if err := u.Prev(); err != nil {
			return "", false, err
		}
		if isTerminator(u.Current()) {
			return "", false, u.Next()
		}
	}
	var line []rune
	for {
		line = append(line, u.Current())
		if u.IsFirst() {
			return reverse(line), true, nil
		}
		if err := u.Prev(); err != nil {
			return "", false, err
		}
		if isTerminator(u.Current()) {
			return reverse(line), false, u.Next()
		}
	}
}

// CheckFirst implements cursor.Grouper.
func (Lines) CheckFirst(u cursor.Cursor[rune]) (bool, error) {
	return u.IsFirst(), nil
}

func reverse(rs []rune) string {
	for i, j := 0, len(rs)-1; i < j; i, j = i+1, j-1 {
		rs[i], rs[j] = rs[j], rs[i]
	}
	return string(rs)
}
