package cursor

import (
	"container/list"
	"sync/atomic"
	"time"

	"github.com/zjrosen/peruse/internal/log"
)

// DefaultCacheSize is the window size used when none is given.
const DefaultCacheSize = 300

// CachePosition is the position of a Caching cursor. It is only honored
// against a window still at Generation; otherwise the cursor repositions the
// underlying cursor from Inner.
type CachePosition struct {
	Inner      Position
	Index      int64
	Generation uint64
}

// Kind implements Position.
func (CachePosition) Kind() string { return "cache" }

var generations atomic.Uint64

func init() {
	generations.Store(uint64(time.Now().UnixNano()))
}

func nextGeneration() uint64 {
	return generations.Add(1)
}

type entry[T any] struct {
	pos   Position
	value T
	index int64
	first bool
	last  bool
}

// Caching keeps a bounded sliding window of recently visited elements over
// an underlying cursor. Moving inside the window and restoring positions
// that fall inside it cost no underlying navigation.
type Caching[T any] struct {
	underlying Cursor[T]
	size       int
	origin     Position

	window *list.List
	cur    *list.Element

	// atLeft is true when the underlying cursor stands on the window's
	// first entry rather than its last.
	atLeft     bool
	generation uint64
}

// NewCaching wraps underlying with a window of at most size entries.
func NewCaching[T any](underlying Cursor[T], size int) *Caching[T] {
	if size < 1 {
		size = 1
	}
	c := &Caching[T]{
		underlying: underlying,
		size:       size,
		origin:     underlying.Position(),
		window:     list.New(),
	}
	c.ensure()
	return c
}

// Current implements Cursor.
func (c *Caching[T]) Current() T {
	return c.entry().value
}

// IsFirst implements Cursor.
func (c *Caching[T]) IsFirst() bool {
	e := c.entry()
	return c.cur.Prev() == nil && e.first
}

// IsLast implements Cursor.
func (c *Caching[T]) IsLast() bool {
	e := c.entry()
	return c.cur.Next() == nil && e.last
}

// Next implements Cursor.
func (c *Caching[T]) Next() error {
	e := c.entry()
	if next := c.cur.Next(); next != nil {
		c.cur = next
		return nil
	}
	if e.last {
		return ErrOutOfRange
	}
	if c.atLeft {
		if err := c.underlying.SetPosition(c.window.Back().Value.(*entry[T]).pos); err != nil {
			return err
		}
		c.atLeft = false
	}
	if err := c.underlying.Next(); err != nil {
		return err
	}
	c.cur = c.window.PushBack(c.capture(e.index + 1))
	if c.window.Len() > c.size {
		c.window.Remove(c.window.Front())
	}
	return nil
}

// Prev implements Cursor.
func (c *Caching[T]) Prev() error {
	e := c.entry()
	if prev := c.cur.Prev(); prev != nil {
		c.cur = prev
		return nil
	}
	if e.first {
		return ErrOutOfRange
	}
	if !c.atLeft {
		if err := c.underlying.SetPosition(c.window.Front().Value.(*entry[T]).pos); err != nil {
			return err
		}
		c.atLeft = true
	}
	if err := c.underlying.Prev(); err != nil {
		return err
	}
	c.cur = c.window.PushFront(c.capture(e.index - 1))
	if c.window.Len() > c.size {
		c.window.Remove(c.window.Back())
	}
	return nil
}

// Position implements Cursor.
func (c *Caching[T]) Position() Position {
	e := c.entry()
	return CachePosition{Inner: e.pos, Index: e.index, Generation: c.generation}
}

// SetPosition implements Cursor. Positions inside the live window are
// restored by walking the window. Anything else clears the window and
// repositions the underlying cursor; a position of another shape is handed
// to the underlying cursor as is.
func (c *Caching[T]) SetPosition(p Position) error {
	inner := p
	if cp, ok := p.(CachePosition); ok {
		if c.walk(cp) {
			return nil
		}
		inner = cp.Inner
	}
	c.clear()
	if err := c.underlying.SetPosition(inner); err != nil {
		if !IsRecoverable(err) {
			return err
		}
		log.Warn(log.CatCursor, "stale position, resetting cache", "cause", err)
		if err := c.underlying.SetPosition(c.origin); err != nil {
			return err
		}
	}
	c.ensure()
	return nil
}

// Invalidate discards the window. When contentChanged is false the
// underlying cursor is first moved back to the current element so traversal
// resumes where it was. Positions issued before the call become stale either
// way.
func (c *Caching[T]) Invalidate(contentChanged bool) error {
	if !contentChanged && c.cur != nil {
		if err := c.underlying.SetPosition(c.cur.Value.(*entry[T]).pos); err != nil {
			return err
		}
	}
	c.clear()
	c.generation = nextGeneration()
	return nil
}

// Generation returns the current window generation.
func (c *Caching[T]) Generation() uint64 {
	c.entry()
	return c.generation
}

// Len returns the number of entries in the window.
func (c *Caching[T]) Len() int {
	c.entry()
	return c.window.Len()
}

func (c *Caching[T]) walk(cp CachePosition) bool {
	if c.cur == nil || cp.Generation != c.generation {
		return false
	}
	first := c.window.Front().Value.(*entry[T]).index
	last := c.window.Back().Value.(*entry[T]).index
	if cp.Index < first || cp.Index > last {
		return false
	}
	for diff := cp.Index - c.cur.Value.(*entry[T]).index; diff != 0; {
		if diff > 0 {
			c.cur = c.cur.Next()
			diff--
		} else {
			c.cur = c.cur.Prev()
			diff++
		}
	}
	return true
}

func (c *Caching[T]) entry() *entry[T] {
	c.ensure()
	return c.cur.Value.(*entry[T])
}

// ensure builds a one-entry window at the underlying cursor's element with a
// fresh zero point.
func (c *Caching[T]) ensure() {
	if c.cur != nil {
		return
	}
	c.generation = nextGeneration()
	c.cur = c.window.PushBack(c.capture(0))
	c.atLeft = false
}

func (c *Caching[T]) capture(index int64) *entry[T] {
	return &entry[T]{
		pos:   c.underlying.Position(),
		value: c.underlying.Current(),
		index: index,
		first: c.underlying.IsFirst(),
		last:  c.underlying.IsLast(),
	}
}

func (c *Caching[T]) clear() {
	c.window.Init()
	c.cur = nil
}
