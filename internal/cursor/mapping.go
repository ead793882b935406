package cursor

// Mapping is a stateless one-to-one transform over an underlying cursor.
// Navigation and positions are delegated unchanged.
type Mapping[T, U any] struct {
	underlying Cursor[U]
	fn         func(U) T
}

// NewMapping creates a cursor yielding fn(u) for each element u of underlying.
func NewMapping[T, U any](underlying Cursor[U], fn func(U) T) *Mapping[T, U] {
	return &Mapping[T, U]{underlying: underlying, fn: fn}
}

// Current implements Cursor.
func (m *Mapping[T, U]) Current() T { return m.fn(m.underlying.Current()) }

// IsFirst implements Cursor.
func (m *Mapping[T, U]) IsFirst() bool { return m.underlying.IsFirst() }

// IsLast implements Cursor.
func (m *Mapping[T, U]) IsLast() bool { return m.underlying.IsLast() }

// Next implements Cursor.
func (m *Mapping[T, U]) Next() error { return m.underlying.Next() }

// Prev implements Cursor.
func (m *Mapping[T, U]) Prev() error { return m.underlying.Prev() }

// Position implements Cursor.
func (m *Mapping[T, U]) Position() Position { return m.underlying.Position() }

// SetPosition implements Cursor.
func (m *Mapping[T, U]) SetPosition(p Position) error { return m.underlying.SetPosition(p) }

// CachedMapping is a Mapping that memoizes the result for the most recent
// underlying element. Call Invalidate when fn depends on external state that
// changed without the cursor moving.
type CachedMapping[T any, U comparable] struct {
	underlying Cursor[U]
	fn         func(U) T

	key   U
	value T
	valid bool
}

// NewCachedMapping creates a memoizing cursor yielding fn(u) for each element
// u of underlying.
func NewCachedMapping[T any, U comparable](underlying Cursor[U], fn func(U) T) *CachedMapping[T, U] {
	return &CachedMapping[T, U]{underlying: underlying, fn: fn}
}

// Current implements Cursor.
func (m *CachedMapping[T, U]) Current() T {
	u := m.underlying.Current()
	if !m.valid || u != m.key {
		m.key = u
		m.value = m.fn(u)
		m.valid = true
	}
	return m.value
}

// Invalidate forces fn to be recomputed on the next read.
func (m *CachedMapping[T, U]) Invalidate() {
	m.valid = false
}

// IsFirst implements Cursor.
func (m *CachedMapping[T, U]) IsFirst() bool { return m.underlying.IsFirst() }

// IsLast implements Cursor.
func (m *CachedMapping[T, U]) IsLast() bool { return m.underlying.IsLast() }

// Next implements Cursor.
func (m *CachedMapping[T, U]) Next() error { return m.underlying.Next() }

// Prev implements Cursor.
func (m *CachedMapping[T, U]) Prev() error { return m.underlying.Prev() }

// Position implements Cursor.
func (m *CachedMapping[T, U]) Position() Position { return m.underlying.Position() }

// SetPosition implements Cursor.
func (m *CachedMapping[T, U]) SetPosition(p Position) error { return m.underlying.SetPosition(p) }
