package cursor

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span attribute keys recorded by Traced.
const (
	AttrLayer     = "cursor.layer"
	AttrOperation = "cursor.operation"
	AttrIsFirst   = "cursor.is_first"
	AttrIsLast    = "cursor.is_last"
)

// Stats counts the navigation calls that reached a layer and the time
// spent in them.
type Stats struct {
	Next        int64
	Prev        int64
	SetPosition int64
	Errors      int64
	Elapsed     time.Duration
}

// Traced records an OpenTelemetry span for every navigation call that
// reaches the wrapped cursor. Placed between layers it shows how much work a
// cache or grouper pushes down the stack.
type Traced[T any] struct {
	underlying Cursor[T]
	tracer     trace.Tracer
	ctx        context.Context
	layer      string

	next, prev, set, errs atomic.Int64
	elapsed               atomic.Int64
}

// NewTraced wraps underlying. Spans are children of any span carried by ctx.
func NewTraced[T any](ctx context.Context, underlying Cursor[T], tracer trace.Tracer, layer string) *Traced[T] {
	return &Traced[T]{underlying: underlying, tracer: tracer, ctx: ctx, layer: layer}
}

// Current implements Cursor.
func (t *Traced[T]) Current() T { return t.underlying.Current() }

// IsFirst implements Cursor.
func (t *Traced[T]) IsFirst() bool { return t.underlying.IsFirst() }

// IsLast implements Cursor.
func (t *Traced[T]) IsLast() bool { return t.underlying.IsLast() }

// Position implements Cursor.
func (t *Traced[T]) Position() Position { return t.underlying.Position() }

// Next implements Cursor.
func (t *Traced[T]) Next() error {
	t.next.Add(1)
	return t.record("next", t.underlying.Next)
}

// Prev implements Cursor.
func (t *Traced[T]) Prev() error {
	t.prev.Add(1)
	return t.record("prev", t.underlying.Prev)
}

// SetPosition implements Cursor.
func (t *Traced[T]) SetPosition(p Position) error {
	t.set.Add(1)
	return t.record("set_position", func() error { return t.underlying.SetPosition(p) })
}

// Stats returns the calls counted so far.
func (t *Traced[T]) Stats() Stats {
	return Stats{
		Next:        t.next.Load(),
		Prev:        t.prev.Load(),
		SetPosition: t.set.Load(),
		Errors:      t.errs.Load(),
		Elapsed:     time.Duration(t.elapsed.Load()),
	}
}

func (t *Traced[T]) record(op string, fn func() error) error {
	_, span := t.tracer.Start(t.ctx, "cursor."+t.layer+"."+op,
		trace.WithAttributes(
			attribute.String(AttrLayer, t.layer),
			attribute.String(AttrOperation, op),
		),
	)
	defer span.End()

	start := time.Now()
	err := fn()
	t.elapsed.Add(int64(time.Since(start)))
	if err != nil {
		t.errs.Add(1)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	span.SetAttributes(
		attribute.Bool(AttrIsFirst, t.underlying.IsFirst()),
		attribute.Bool(AttrIsLast, t.underlying.IsLast()),
	)
	return nil
}
