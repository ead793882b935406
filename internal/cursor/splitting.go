package cursor

import (
	"fmt"
	"math/rand/v2"

	"github.com/zjrosen/peruse/internal/log"
)

// SplitPosition is the position of a Splitting cursor.
//
// Ordinal counts groups relative to a base and Epoch identifies that base.
// Epoch zero is the base the cursor was constructed at; every other base
// gets a random epoch, so positions taken against different bases never
// alias.
type SplitPosition struct {
	Inner   Position
	Index   int
	Ordinal int64
	Epoch   uint64
}

// Kind implements Position.
func (SplitPosition) Kind() string { return "split" }

// Splitting flattens a cursor over groups into a cursor over their members.
// It is the inverse of Aggregating. Groups must not be empty.
type Splitting[T any] struct {
	underlying Cursor[[]T]
	origin     Position

	index   int
	ordinal int64
	epoch   uint64
}

// NewSplitting creates a cursor standing on the first member of the
// underlying cursor's current group.
func NewSplitting[T any](underlying Cursor[[]T]) (*Splitting[T], error) {
	if len(underlying.Current()) == 0 {
		return nil, fmt.Errorf("empty group: %w", ErrMalformedInput)
	}
	return &Splitting[T]{underlying: underlying, origin: underlying.Position()}, nil
}

// Current implements Cursor.
func (s *Splitting[T]) Current() T { return s.underlying.Current()[s.index] }

// IsFirst implements Cursor.
func (s *Splitting[T]) IsFirst() bool {
	return s.index == 0 && s.underlying.IsFirst()
}

// IsLast implements Cursor.
func (s *Splitting[T]) IsLast() bool {
	return s.index == len(s.underlying.Current())-1 && s.underlying.IsLast()
}

// Next implements Cursor.
func (s *Splitting[T]) Next() error {
	if s.index+1 < len(s.underlying.Current()) {
		s.index++
		return nil
	}
	if s.underlying.IsLast() {
		return ErrOutOfRange
	}
	if err := s.underlying.Next(); err != nil {
		return err
	}
	if len(s.underlying.Current()) == 0 {
		return fmt.Errorf("empty group: %w", ErrMalformedInput)
	}
	s.ordinal++
	s.index = 0
	return nil
}

// Prev implements Cursor.
func (s *Splitting[T]) Prev() error {
	if s.index > 0 {
		s.index--
		return nil
	}
	if s.underlying.IsFirst() {
		return ErrOutOfRange
	}
	if err := s.underlying.Prev(); err != nil {
		return err
	}
	n := len(s.underlying.Current())
	if n == 0 {
		return fmt.Errorf("empty group: %w", ErrMalformedInput)
	}
	s.ordinal--
	s.index = n - 1
	return nil
}

// Position implements Cursor.
func (s *Splitting[T]) Position() Position {
	return SplitPosition{
		Inner:   s.underlying.Position(),
		Index:   s.index,
		Ordinal: s.ordinal,
		Epoch:   s.epoch,
	}
}

// SetPosition implements Cursor. A position taken in the current group is
// restored without touching the underlying cursor. A position of another
// shape is treated as a position of the underlying cursor.
func (s *Splitting[T]) SetPosition(p Position) error {
	sp, ok := p.(SplitPosition)
	if !ok {
		if err := s.underlying.SetPosition(p); err != nil {
			return s.reset(err)
		}
		s.index = 0
		s.rebase()
		return nil
	}
	if sp.Epoch == s.epoch && sp.Ordinal == s.ordinal {
		s.index = s.clamp(sp.Index)
		return nil
	}
	if err := s.underlying.SetPosition(sp.Inner); err != nil {
		return s.reset(err)
	}
	s.index = s.clamp(sp.Index)
	s.ordinal = sp.Ordinal
	s.epoch = sp.Epoch
	return nil
}

// Invalidate re-bases the cursor after the underlying groups changed shape
// in place, for example after a width change. Positions taken before the
// call take the slow restore path.
func (s *Splitting[T]) Invalidate() {
	s.rebase()
	s.index = s.clamp(s.index)
}

func (s *Splitting[T]) rebase() {
	s.ordinal = 0
	s.epoch = newEpoch()
}

func (s *Splitting[T]) clamp(i int) int {
	n := len(s.underlying.Current())
	if i >= n {
		i = n - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}

func (s *Splitting[T]) reset(cause error) error {
	if !IsRecoverable(cause) {
		return cause
	}
	log.Warn(log.CatCursor, "stale position, resetting split", "cause", cause)
	if err := s.underlying.SetPosition(s.origin); err != nil {
		return fmt.Errorf("resetting to origin: %w", err)
	}
	s.index = 0
	s.ordinal = 0
	s.epoch = 0
	return nil
}

func newEpoch() uint64 {
	for {
		if e := rand.Uint64(); e != 0 {
			return e
		}
	}
}
