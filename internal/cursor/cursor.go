// Package cursor provides composable bidirectional cursors over lazily derived
// sequences.
//
// Every layer implements the same Cursor contract: it stands on exactly one
// element, can step forward and backward, and can capture and restore its
// traversal state through an opaque Position. Pipelines are built purely by
// composition: a leaf reads from memory or from a seekable character stream,
// combinators map, group and flatten elements, and a window cache sits on top.
//
// Cursors are not safe for concurrent use. Wrap a cursor in Shared when more
// than one goroutine needs it.
package cursor

// Position is an opaque capture of a cursor's traversal state. A position is
// only meaningful to the cursor that produced it, or to a structurally
// equivalent cursor over the same source.
type Position interface {
	// Kind names the layer that produced the position.
	Kind() string
}

// Cursor is a bidirectional, position-addressable view over an ordered
// sequence. A freshly constructed cursor stands on the first element of the
// sequence it was built over.
type Cursor[T any] interface {
	// Current returns the element the cursor stands on.
	Current() T

	// IsFirst reports whether the cursor stands on the first element.
	IsFirst() bool

	// IsLast reports whether the cursor stands on the last element.
	IsLast() bool

	// Next advances to the following element. Returns ErrOutOfRange at the last element.
	Next() error

	// Prev retreats to the preceding element. Returns ErrOutOfRange at the first element.
	Prev() error

	// Position captures the current traversal state.
	Position() Position

	// SetPosition restores a state previously returned by Position.
	SetPosition(p Position) error
}

// Collect walks c forward from its current element to the end and returns
// the visited elements. The cursor is left on the last element.
func Collect[T any](c Cursor[T]) ([]T, error) {
	out := []T{c.Current()}
	for !c.IsLast() {
		if err := c.Next(); err != nil {
			return out, err
		}
		out = append(out, c.Current())
	}
	return out, nil
}

// CollectBackward walks c backward from its current element to the start and
// returns the visited elements in visiting order.
func CollectBackward[T any](c Cursor[T]) ([]T, error) {
	out := []T{c.Current()}
	for !c.IsFirst() {
		if err := c.Prev(); err != nil {
			return out, err
		}
		out = append(out, c.Current())
	}
	return out, nil
}

// Rewind moves c back to its first element.
func Rewind[T any](c Cursor[T]) error {
	for !c.IsFirst() {
		if err := c.Prev(); err != nil {
			return err
		}
	}
	return nil
}

// Skip moves c by n elements, forward for positive n and backward for
// negative n. It stops early at either end and returns how many steps were
// taken.
func Skip[T any](c Cursor[T], n int) (int, error) {
	moved := 0
	for n > 0 && !c.IsLast() {
		if err := c.Next(); err != nil {
			return moved, err
		}
		n--
		moved++
	}
	for n < 0 && !c.IsFirst() {
		if err := c.Prev(); err != nil {
			return moved, err
		}
		n++
		moved--
	}
	return moved, nil
}
