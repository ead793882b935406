package cursor

import (
	"errors"
	"io"
)

// runeSource is an in-memory CharSource. Every rune is encoded as its own
// UTF-8 width so offsets behave like a real variable-width stream.
type runeSource struct {
	runes   []rune
	offsets []int64 // byte offset of runes[i]; len(runes)+1 entries
	pos     int
	seeks   []int64
	reads   int
	noSeek  bool
	closed  bool
}

func newRuneSource(s string) *runeSource {
	src := &runeSource{runes: []rune(s)}
	for i := range s {
		src.offsets = append(src.offsets, int64(i))
	}
	src.offsets = append(src.offsets, int64(len(s)))
	return src
}

func (s *runeSource) Offset() int64 { return s.offsets[s.pos] }

func (s *runeSource) Seek(offset int64) error {
	if s.noSeek {
		return errors.New("pipe")
	}
	s.seeks = append(s.seeks, offset)
	for i, o := range s.offsets {
		if o == offset {
			s.pos = i
			return nil
		}
	}
	return errors.New("offset is not a rune boundary")
}

func (s *runeSource) ReadRunes(buf []rune) (int, error) {
	s.reads++
	if s.pos >= len(s.runes) {
		return 0, io.EOF
	}
	n := copy(buf, s.runes[s.pos:])
	s.pos += n
	return n, nil
}

func (s *runeSource) Close() error {
	s.closed = true
	return nil
}

// resetLog forgets seeks recorded so far.
func (s *runeSource) resetLog() {
	s.seeks = nil
	s.reads = 0
}

// sepGrouper groups runs of runes separated by a single sep rune. Input
// must not start or end with sep and must not hold two seps in a row.
type sepGrouper struct {
	sep rune
}

func (g sepGrouper) Align(Cursor[rune]) error { return nil }

func (g sepGrouper) SkipForward(u Cursor[rune]) error { return u.Next() }

func (g sepGrouper) SkipBackward(u Cursor[rune]) error { return u.Prev() }

func (g sepGrouper) FetchForward(u Cursor[rune]) (string, bool, error) {
	if u.Current() == g.sep {
		return "", false, ErrMalformedInput
	}
	var buf []rune
	for {
		buf = append(buf, u.Current())
		if u.IsLast() {
			return string(buf), true, nil
		}
		if err := u.Next(); err != nil {
			return "", false, err
		}
		if u.Current() == g.sep {
			return string(buf), false, nil
		}
	}
}

func (g sepGrouper) FetchBackward(u Cursor[rune]) (string, bool, error) {
	if u.Current() == g.sep {
		if err := u.Prev(); err != nil {
			return "", false, err
		}
	}
	var buf []rune
	for {
		buf = append([]rune{u.Current()}, buf...)
		if u.IsFirst() {
			return string(buf), true, nil
		}
		if err := u.Prev(); err != nil {
			return "", false, err
		}
		if u.Current() == g.sep {
			if err := u.Next(); err != nil {
				return "", false, err
			}
			return string(buf), false, nil
		}
	}
}

func (g sepGrouper) CheckFirst(u Cursor[rune]) (bool, error) { return u.IsFirst(), nil }

// counting wraps a cursor and counts navigation calls reaching it.
type counting[T any] struct {
	Cursor[T]
	moves int
	sets  int
}

func (c *counting[T]) Next() error {
	c.moves++
	return c.Cursor.Next()
}

func (c *counting[T]) Prev() error {
	c.moves++
	return c.Cursor.Prev()
}

func (c *counting[T]) SetPosition(p Position) error {
	c.sets++
	return c.Cursor.SetPosition(p)
}

func runes(s string) *Array[rune] {
	a, err := NewArray([]rune(s))
	if err != nil {
		panic(err)
	}
	return a
}

func ints(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
