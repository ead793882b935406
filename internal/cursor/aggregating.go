package cursor

import (
	"fmt"

	"github.com/zjrosen/peruse/internal/log"
)

// Grouper supplies the delimiter rules for an Aggregating cursor.
//
// A group occupies a contiguous run of underlying elements. Its start is the
// position of its first element. Its forward end is the first delimiter
// element after the run, or the run's final element when nothing follows.
// Both fetch directions agree on these two edges.
type Grouper[T, U any] interface {
	// Align moves u onto the start of the group it stands in or before.
	// It is called at construction and when resetting.
	Align(u Cursor[U]) error

	// SkipForward moves u from a group's forward end to the next group's start.
	SkipForward(u Cursor[U]) error

	// SkipBackward moves u from a group's start to the previous group's forward end.
	SkipBackward(u Cursor[U]) error

	// FetchForward consumes one group from its start, leaving u on the
	// group's forward end. It reports whether the group is the last one.
	// It returns ErrMalformedInput when it can tell u is not on a group start.
	FetchForward(u Cursor[U]) (T, bool, error)

	// FetchBackward consumes one group from its forward end, leaving u on
	// the group's start. It reports whether the group is the first one.
	FetchBackward(u Cursor[U]) (T, bool, error)

	// CheckFirst reports whether the group starting at u is the first one.
	// It must leave u where it found it.
	CheckFirst(u Cursor[U]) (bool, error)
}

// Resetter is implemented by groupers that carry state from group to group.
// Reset returns that state to what it was when the cursor was constructed.
type Resetter interface {
	Reset()
}

// AggregatePosition is the position of an Aggregating cursor: the start of
// the current group in the underlying sequence.
type AggregatePosition struct {
	Begin Position
}

// Kind implements Position.
func (AggregatePosition) Kind() string { return "aggregate" }

// Aggregating groups runs of underlying elements into single elements.
// Positions hold only the group start, so capturing is cheap and restoring
// costs one group fetch.
type Aggregating[T, U any] struct {
	underlying Cursor[U]
	grouper    Grouper[T, U]

	current T
	isFirst bool
	isLast  bool

	// atLeft is true when the underlying cursor stands on begin rather than end.
	atLeft bool
	begin  Position
	end    Position
	origin Position
}

// NewAggregating creates a cursor standing on the first group at or after
// the underlying cursor's current element.
func NewAggregating[T, U any](underlying Cursor[U], grouper Grouper[T, U]) (*Aggregating[T, U], error) {
	a := &Aggregating[T, U]{underlying: underlying, grouper: grouper}
	if err := grouper.Align(underlying); err != nil {
		return nil, err
	}
	a.origin = underlying.Position()
	if err := a.fetch(); err != nil {
		return nil, err
	}
	return a, nil
}

// Current implements Cursor.
func (a *Aggregating[T, U]) Current() T { return a.current }

// IsFirst implements Cursor.
func (a *Aggregating[T, U]) IsFirst() bool { return a.isFirst }

// IsLast implements Cursor.
func (a *Aggregating[T, U]) IsLast() bool { return a.isLast }

// Next implements Cursor.
func (a *Aggregating[T, U]) Next() error {
	if a.isLast {
		return ErrOutOfRange
	}
	if a.atLeft {
		if err := a.underlying.SetPosition(a.end); err != nil {
			return err
		}
		a.atLeft = false
	}
	if err := a.grouper.SkipForward(a.underlying); err != nil {
		return a.restore(a.end, false, err)
	}
	begin := a.underlying.Position()
	current, isLast, err := a.grouper.FetchForward(a.underlying)
	if err != nil {
		return a.restore(a.end, false, err)
	}
	a.begin = begin
	a.end = a.underlying.Position()
	a.current = current
	a.isLast = isLast
	a.isFirst = false
	return nil
}

// Prev implements Cursor.
func (a *Aggregating[T, U]) Prev() error {
	if a.isFirst {
		return ErrOutOfRange
	}
	if !a.atLeft {
		if err := a.underlying.SetPosition(a.begin); err != nil {
			return err
		}
		a.atLeft = true
	}
	if err := a.grouper.SkipBackward(a.underlying); err != nil {
		return a.restore(a.begin, true, err)
	}
	end := a.underlying.Position()
	current, isFirst, err := a.grouper.FetchBackward(a.underlying)
	if err != nil {
		return a.restore(a.begin, true, err)
	}
	a.end = end
	a.begin = a.underlying.Position()
	a.current = current
	a.isFirst = isFirst
	a.isLast = false
	return nil
}

// Position implements Cursor.
func (a *Aggregating[T, U]) Position() Position {
	return AggregatePosition{Begin: a.begin}
}

// SetPosition implements Cursor. A position of another shape is treated as
// a position of the underlying cursor. If the underlying cursor rejects it,
// the cursor resets to where it was constructed.
func (a *Aggregating[T, U]) SetPosition(p Position) error {
	if ap, ok := p.(AggregatePosition); ok {
		if err := a.underlying.SetPosition(ap.Begin); err != nil {
			return a.reset(err)
		}
		return a.refresh()
	}
	if err := a.underlying.SetPosition(p); err != nil {
		return a.reset(err)
	}
	return a.Sync()
}

// Sync re-derives the cursor from wherever the underlying cursor stands now,
// aligning to a group start first. On failure the cursor stays on the group
// it held before.
func (a *Aggregating[T, U]) Sync() error {
	if err := a.grouper.Align(a.underlying); err != nil {
		return a.restoreCurrent(err)
	}
	return a.refresh()
}

// Refetch re-derives the current group from its start. Use it after the
// grouper's parameters changed.
func (a *Aggregating[T, U]) Refetch() error {
	if err := a.underlying.SetPosition(a.begin); err != nil {
		return a.restoreCurrent(err)
	}
	a.atLeft = true
	return a.refresh()
}

// fetch derives the group starting at the underlying cursor's position.
func (a *Aggregating[T, U]) fetch() error {
	isFirst, err := a.grouper.CheckFirst(a.underlying)
	if err != nil {
		return err
	}
	begin := a.underlying.Position()
	current, isLast, err := a.grouper.FetchForward(a.underlying)
	if err != nil {
		return err
	}
	a.begin = begin
	a.end = a.underlying.Position()
	a.current = current
	a.isFirst = isFirst
	a.isLast = isLast
	a.atLeft = false
	return nil
}

func (a *Aggregating[T, U]) reset(cause error) error {
	if !IsRecoverable(cause) {
		return cause
	}
	log.Warn(log.CatCursor, "stale position, resetting aggregate", "cause", cause)
	if err := a.underlying.SetPosition(a.origin); err != nil {
		return fmt.Errorf("resetting to origin: %w", err)
	}
	if r, ok := a.grouper.(Resetter); ok {
		r.Reset()
	}
	return a.refresh()
}

// refresh is fetch for a cursor that already holds a group: a failed fetch
// leaves the underlying cursor back on that group.
func (a *Aggregating[T, U]) refresh() error {
	if err := a.fetch(); err != nil {
		return a.restoreCurrent(err)
	}
	return nil
}

func (a *Aggregating[T, U]) restoreCurrent(cause error) error {
	if a.atLeft {
		return a.restore(a.begin, true, cause)
	}
	return a.restore(a.end, false, cause)
}

// restore puts the underlying cursor back on the current group after a
// failed transition.
func (a *Aggregating[T, U]) restore(p Position, atLeft bool, cause error) error {
	if err := a.underlying.SetPosition(p); err != nil {
		log.ErrorErr(log.CatCursor, "restoring after failed transition", err)
		return cause
	}
	a.atLeft = atLeft
	return cause
}
