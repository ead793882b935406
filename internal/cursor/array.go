package cursor

import "fmt"

// ArrayPosition is the position of an Array cursor.
type ArrayPosition struct {
	Index int
}

// Kind implements Position.
func (ArrayPosition) Kind() string { return "array" }

// Array is a leaf cursor over a fixed, non-empty slice.
type Array[T any] struct {
	items []T
	index int
}

// NewArray creates a cursor standing on items[0].
// Returns ErrEmptyInput if items is empty.
func NewArray[T any](items []T) (*Array[T], error) {
	if len(items) == 0 {
		return nil, ErrEmptyInput
	}
	return &Array[T]{items: items}, nil
}

// Current implements Cursor.
func (a *Array[T]) Current() T { return a.items[a.index] }

// IsFirst implements Cursor.
func (a *Array[T]) IsFirst() bool { return a.index == 0 }

// IsLast implements Cursor.
func (a *Array[T]) IsLast() bool { return a.index == len(a.items)-1 }

// Next implements Cursor.
func (a *Array[T]) Next() error {
	if a.IsLast() {
		return ErrOutOfRange
	}
	a.index++
	return nil
}

// Prev implements Cursor.
func (a *Array[T]) Prev() error {
	if a.IsFirst() {
		return ErrOutOfRange
	}
	a.index--
	return nil
}

// Position implements Cursor.
func (a *Array[T]) Position() Position { return ArrayPosition{Index: a.index} }

// SetPosition implements Cursor. Positions of any other shape are rejected.
func (a *Array[T]) SetPosition(p Position) error {
	ap, ok := p.(ArrayPosition)
	if !ok {
		return fmt.Errorf("array cursor given %T: %w", p, ErrForeignPosition)
	}
	if ap.Index < 0 || ap.Index >= len(a.items) {
		return fmt.Errorf("array index %d of %d: %w", ap.Index, len(a.items), ErrOutOfRange)
	}
	a.index = ap.Index
	return nil
}

// Len returns the number of elements.
func (a *Array[T]) Len() int { return len(a.items) }
