package cursor

import "github.com/zjrosen/peruse/internal/log"

// Logged writes a debug line for every navigation call on the wrapped
// cursor. Failed calls are logged at warn level.
type Logged[T any] struct {
	underlying Cursor[T]
	layer      string
}

// NewLogged wraps underlying, tagging its lines with layer.
func NewLogged[T any](underlying Cursor[T], layer string) *Logged[T] {
	return &Logged[T]{underlying: underlying, layer: layer}
}

func (l *Logged[T]) Current() T         { return l.underlying.Current() }
func (l *Logged[T]) IsFirst() bool      { return l.underlying.IsFirst() }
func (l *Logged[T]) IsLast() bool       { return l.underlying.IsLast() }
func (l *Logged[T]) Position() Position { return l.underlying.Position() }

func (l *Logged[T]) Next() error {
	return l.logged("next", l.underlying.Next())
}

func (l *Logged[T]) Prev() error {
	return l.logged("prev", l.underlying.Prev())
}

func (l *Logged[T]) SetPosition(p Position) error {
	return l.logged("set_position", l.underlying.SetPosition(p), "position", p)
}

func (l *Logged[T]) logged(op string, err error, fields ...any) error {
	fields = append([]any{"layer", l.layer, "op", op}, fields...)
	if err != nil {
		log.Warn(log.CatCursor, "cursor call failed", append(fields, "error", err)...)
		return err
	}
	log.Debug(log.CatCursor, "cursor call", fields...)
	return nil
}
