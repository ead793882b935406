package tokenize

import (
	"unicode"

	"github.com/zjrosen/peruse/internal/cursor"
)

// Words groups characters into whitespace-delimited words. Leading and
// trailing whitespace belongs to no word.
type Words struct{}

var _ cursor.Grouper[string, rune] = Words{}

// NewWords creates a cursor over the words of u. Returns
// cursor.ErrEmptyInput if u holds only whitespace.
func NewWords(u cursor.Cursor[rune]) (*cursor.Aggregating[string, rune], error) {
	return cursor.NewAggregating[string, rune](u, Words{})
}

// Align implements cursor.Grouper. From whitespace it moves to the next
// word, or to the previous one when only whitespace follows.
func (Words) Align(u cursor.Cursor[rune]) error {
	if unicode.IsSpace(u.Current()) {
		start := u.Position()
		for unicode.IsSpace(u.Current()) && !u.IsLast() {
			if err := u.Next(); err != nil {
				return err
			}
		}
		if !unicode.IsSpace(u.Current()) {
			return nil
		}
		if err := u.SetPosition(start); err != nil {
			return err
		}
		for unicode.IsSpace(u.Current()) {
			if u.IsFirst() {
				return cursor.ErrEmptyInput
			}
			if err := u.Prev(); err != nil {
				return err
			}
		}
	}
	for !u.IsFirst() {
		if err := u.Prev(); err != nil {
			return err
		}
		if unicode.IsSpace(u.Current()) {
			return u.Next()
		}
	}
	return nil
}

// SkipForward implements cursor.Grouper.
func (Words) SkipForward(u cursor.Cursor[rune]) error {
	for unicode.IsSpace(u.Current()) {
		if err := u.Next(); err != nil {
			return err
		}
	}
	return nil
}

// SkipBackward implements cursor.Grouper.
func (Words) SkipBackward(u cursor.Cursor[rune]) error {
	if err := u.Prev(); err != nil {
		return err
	}
	for unicode.IsSpace(u.Current()) {
		if err := u.Prev(); err != nil {
			return err
		}
	}
	return u.Next()
}

// FetchForward implements cursor.Grouper.
func (Words) FetchForward(u cursor.Cursor[rune]) (string, bool, error) {
	if unicode.IsSpace(u.Current()) {
		return "", false, cursor.ErrMalformedInput
	}
	if !u.IsFirst() {
		prev, err := peekPrev(u)
		if err != nil {
			return "", false, err
		}
		if !unicode.IsSpace(prev) {
			return "", false, cursor.ErrMalformedInput
		}
	}
	var word []rune
	for {
		word = append(word, u.Current())
		if u.IsLast() {
			return string(word), true, nil
		}
		if err := u.Next(); err != nil {
			return "", false, err
		}
		if unicode.IsSpace(u.Current()) {
			more, err := wordAround(u, forward)
			return string(word), !more, err
		}
	}
}

// peekPrev returns the character before u's current one, leaving u in place.
func peekPrev(u cursor.Cursor[rune]) (rune, error) {
	if err := u.Prev(); err != nil {
		return 0, err
	}
	r := u.Current()
	return r, u.Next()
}

// FetchBackward implements cursor.Grouper.
func (Words) FetchBackward(u cursor.Cursor[rune]) (string, bool, error) {
	if unicode.IsSpace(u.Current()) {
		if err := u.Prev(); err != nil {
			return "", false, err
		}
	}
	var word []rune
	for {
		word = append(word, u.Current())
		if u.IsFirst() {
			return reverse(word), true, nil
		}
		if err := u.Prev(); err != nil {
			return "", false, err
		}
		if unicode.IsSpace(u.Current()) {
			more, err := wordAround(u, backward)
			if err != nil {
				return "", false, err
			}
			return reverse(word), !more, u.Next()
		}
	}
}

// CheckFirst implements cursor.Grouper.
func (Words) CheckFirst(u cursor.Cursor[rune]) (bool, error) {
	if u.IsFirst() {
		return true, nil
	}
	if err := u.Prev(); err != nil {
		return false, err
	}
	more, err := wordAround(u, backward)
	if err != nil {
		return false, err
	}
	return !more, u.Next()
}

type direction struct {
	step  func(cursor.Cursor[rune]) error
	atEnd func(cursor.Cursor[rune]) bool
}

var (
	forward = direction{
		step:  func(u cursor.Cursor[rune]) error { return u.Next() },
		atEnd: func(u cursor.Cursor[rune]) bool { return u.IsLast() },
	}
	backward = direction{
		step:  func(u cursor.Cursor[rune]) error { return u.Prev() },
		atEnd: func(u cursor.Cursor[rune]) bool { return u.IsFirst() },
	}
)

// wordAround reports whether a word lies past the whitespace run at u in
// direction d. It leaves u where it found it.
func wordAround(u cursor.Cursor[rune], d direction) (bool, error) {
	start := u.Position()
	found := false
	for {
		if !unicode.IsSpace(u.Current()) {
			found = true
			break
		}
		if d.atEnd(u) {
			break
		}
		if err := d.step(u); err != nil {
			return false, err
		}
	}
	return found, u.SetPosition(start)
}
