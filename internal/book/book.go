// Package book opens documents and assembles the cursor pipeline that lays
// them out as rows.
package book

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/log"
	"github.com/zjrosen/peruse/internal/markup"
	"github.com/zjrosen/peruse/internal/pubsub"
	"github.com/zjrosen/peruse/internal/source"
	"github.com/zjrosen/peruse/internal/tokenize"
)

// ErrEmptyBook is returned when a document holds no characters.
var ErrEmptyBook = errors.New("book is empty")

// Kind selects the grammar a document is read with.
type Kind int

const (
	Plain Kind = iota
	Formatted
)

func (k Kind) String() string {
	if k == Formatted {
		return "formatted"
	}
	return "plain"
}

// KindOf returns the kind of the document at path, judged by its extension.
func KindOf(path string) Kind {
	if strings.EqualFold(filepath.Ext(path), ".sfb") {
		return Formatted
	}
	return Plain
}

// Options configures how a book is read and laid out.
type Options struct {
	Encoding   string
	Width      int
	TabSize    int
	CacheSize  int
	BlockSize  int
	BlockCount int

	// Tracer, when set, wraps the top-level cursor in cursor.Traced.
	Tracer trace.Tracer

	// LogCursors logs every call the row cache makes to the layout layer.
	LogCursors bool
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() Options {
	return Options{
		Encoding:   source.UTF8,
		Width:      80,
		TabSize:    layout.DefaultTabSize,
		CacheSize:  cursor.DefaultCacheSize,
		BlockSize:  cursor.DefaultBlockSize,
		BlockCount: cursor.DefaultBlockCount,
	}
}

// Change is published when the document behind a book changes.
type Change struct {
	Path string
}

// Book is an open document. Its rows are reached through a Shared handle so
// a background goroutine can walk them alongside the UI.
type Book struct {
	path   string
	kind   Kind
	opts   Options
	p      *pipeline
	rows   *cursor.Shared[layout.Row]
	events *pubsub.Broker[Change]
}

type pipeline struct {
	chars  *cursor.Buffered
	rows   layout.Rows
	cache  *cursor.Caching[layout.Row]
	traced *cursor.Traced[layout.Row]
	top    cursor.Cursor[layout.Row]
}

// Open opens the document at path read-only and positions it on its first
// row.
func Open(path string, opts Options) (*Book, error) {
	b := &Book{
		path:   path,
		kind:   KindOf(path),
		opts:   opts,
		events: pubsub.NewBroker[Change](),
	}
	p, err := b.build()
	if err != nil {
		return nil, err
	}
	b.p = p
	b.rows = cursor.NewShared[layout.Row](&handle{b})
	log.Info(log.CatBook, "opened book", "path", path, "kind", b.kind, "width", opts.Width)
	return b, nil
}

func (b *Book) build() (*pipeline, error) {
	chars, err := openChars(b.path, b.opts)
	if err != nil {
		return nil, err
	}
	p, err := b.layout(chars)
	if err != nil {
		_ = chars.Close()
		return nil, err
	}
	return p, nil
}

func (b *Book) layout(chars *cursor.Buffered) (*pipeline, error) {
	lines, err := tokenize.NewLines(chars)
	if err != nil {
		return nil, fmt.Errorf("splitting lines of %s: %w", b.path, err)
	}

	var rows layout.Rows
	switch b.kind {
	case Formatted:
		tokens, err := markup.NewSFB(lines)
		if err != nil {
			return nil, fmt.Errorf("parsing %s: %w", b.path, err)
		}
		if rows, err = layout.NewFormattedRows(tokens, b.opts.Width, b.opts.TabSize); err != nil {
			return nil, fmt.Errorf("laying out %s: %w", b.path, err)
		}
	default:
		if rows, err = layout.NewPlainRows(markup.NewPlain(lines), b.opts.Width, b.opts.TabSize); err != nil {
			return nil, fmt.Errorf("laying out %s: %w", b.path, err)
		}
	}

	p := &pipeline{chars: chars, rows: rows}
	var under cursor.Cursor[layout.Row] = rows
	if b.opts.LogCursors {
		under = cursor.NewLogged[layout.Row](rows, "layout")
	}
	p.cache = cursor.NewCaching[layout.Row](under, b.opts.CacheSize)
	p.top = p.cache
	if b.opts.Tracer != nil {
		p.traced = cursor.NewTraced[layout.Row](context.Background(), p.cache, b.opts.Tracer, "rows")
		p.top = p.traced
	}
	return p, nil
}

// openChars opens path as a character cursor. The file handle is owned by
// the returned cursor and released by its Close.
func openChars(path string, opts Options) (*cursor.Buffered, error) {
	dec, err := source.OpenFile(path, opts.Encoding)
	if err != nil {
		return nil, err
	}
	chars, err := cursor.NewBuffered(dec, cursor.BufferedOptions{
		BlockSize:  opts.BlockSize,
		BlockCount: opts.BlockCount,
	})
	if err != nil {
		_ = dec.Close()
		if errors.Is(err, cursor.ErrEmptyInput) {
			return nil, fmt.Errorf("%s: %w", path, ErrEmptyBook)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return chars, nil
}

// Path returns the document path.
func (b *Book) Path() string { return b.path }

// Kind returns the grammar the book is read with.
func (b *Book) Kind() Kind { return b.kind }

// Name returns the document's base name.
func (b *Book) Name() string { return filepath.Base(b.path) }

// Rows returns the handle to the book's top-level row cursor.
func (b *Book) Rows() *cursor.Shared[layout.Row] { return b.rows }

// Events returns the broker on which content changes are published.
func (b *Book) Events() *pubsub.Broker[Change] { return b.events }

// Width returns the current row width.
func (b *Book) Width() int {
	var w int
	_ = b.rows.With(func(cursor.Cursor[layout.Row]) error {
		w = b.p.rows.Width()
		return nil
	})
	return w
}

// SetWidth lays the book out again at a new width, keeping the reader in
// the same paragraph.
func (b *Book) SetWidth(width int) error {
	return b.rows.With(func(cursor.Cursor[layout.Row]) error {
		if width == b.p.rows.Width() {
			return nil
		}
		if err := b.p.cache.Invalidate(false); err != nil {
			return fmt.Errorf("invalidating cache: %w", err)
		}
		b.opts.Width = width
		log.Debug(log.CatBook, "width changed", "width", width)
		return b.p.rows.SetWidth(width)
	})
}

// Reload reopens the document after its content changed and returns to the
// previous position, or to the start when that position no longer exists.
func (b *Book) Reload() error {
	err := b.rows.With(func(cursor.Cursor[layout.Row]) error {
		pos := b.p.top.Position()
		p, err := b.build()
		if err != nil {
			return err
		}
		if err := p.top.SetPosition(pos); err != nil {
			log.Warn(log.CatBook, "could not restore position after reload", "path", b.path, "error", err)
			_ = p.chars.Close()
			if p, err = b.build(); err != nil {
				return err
			}
		}
		old := b.p
		b.p = p
		return old.chars.Close()
	})
	if err != nil {
		return fmt.Errorf("reloading %s: %w", b.path, err)
	}
	log.Info(log.CatBook, "reloaded book", "path", b.path)
	b.events.Publish(pubsub.Reloaded, Change{Path: b.path})
	return nil
}

// Stats returns call statistics of the top-level cursor. It reports false
// when tracing is off.
func (b *Book) Stats() (cursor.Stats, bool) {
	var (
		s  cursor.Stats
		ok bool
	)
	_ = b.rows.With(func(cursor.Cursor[layout.Row]) error {
		if b.p.traced != nil {
			s, ok = b.p.traced.Stats(), true
		}
		return nil
	})
	return s, ok
}

// Close releases the document's file handle.
func (b *Book) Close() error {
	b.events.Close()
	return b.rows.With(func(cursor.Cursor[layout.Row]) error {
		return b.p.chars.Close()
	})
}

// handle is the cursor guarded by Book.Rows. It follows the book's current
// pipeline across reloads.
type handle struct{ b *Book }

func (h *handle) Current() layout.Row                 { return h.b.p.top.Current() }
func (h *handle) IsFirst() bool                       { return h.b.p.top.IsFirst() }
func (h *handle) IsLast() bool                        { return h.b.p.top.IsLast() }
func (h *handle) Next() error                         { return h.b.p.top.Next() }
func (h *handle) Prev() error                         { return h.b.p.top.Prev() }
func (h *handle) Position() cursor.Position           { return h.b.p.top.Position() }
func (h *handle) SetPosition(p cursor.Position) error { return h.b.p.top.SetPosition(p) }

// Key returns the index key of the document at path. It changes when the
// file is modified.
func Key(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", err
	}
	var dir uint32
	for _, c := range filepath.Dir(abs) {
		dir = dir<<1 ^ uint32(c)
	}
	l := uint64(info.ModTime().UnixMilli()) ^ uint64(info.Size())
	return fmt.Sprintf("%08X-%08X-%s", dir, uint32(l>>32^l), info.Name()), nil
}
