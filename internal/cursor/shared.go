package cursor

import "sync"

// Shared serializes access to a cursor that more than one goroutine uses,
// such as a viewer and its background prefetcher.
type Shared[T any] struct {
	mu sync.Mutex
	c  Cursor[T]
}

// NewShared guards c.
func NewShared[T any](c Cursor[T]) *Shared[T] {
	return &Shared[T]{c: c}
}

// With runs fn while holding exclusive access to the cursor. The cursor must
// not escape fn.
func (s *Shared[T]) With(fn func(Cursor[T]) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.c)
}

// TryWith is With that gives up immediately when another goroutine holds the
// cursor. It reports whether fn ran.
func (s *Shared[T]) TryWith(fn func(Cursor[T]) error) (bool, error) {
	if !s.mu.TryLock() {
		return false, nil
	}
	defer s.mu.Unlock()
	return true, fn(s.c)
}
