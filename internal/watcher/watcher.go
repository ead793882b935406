// Package watcher notices when the open book changes on disk.
package watcher

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/zjrosen/peruse/internal/log"
)

// Change is delivered after a burst of file events settles.
type Change struct {
	// Removed is set when the last event seen removed or renamed the file.
	Removed bool
}

// Config holds watcher options.
type Config struct {
	Path     string
	Debounce time.Duration
}

// DefaultConfig watches path with a 300ms debounce.
func DefaultConfig(path string) Config {
	return Config{Path: path, Debounce: 300 * time.Millisecond}
}

// Watcher watches a single file through its parent directory, so editors
// that save by rename are still seen.
type Watcher struct {
	fs       *fsnotify.Watcher
	path     string
	base     string
	debounce time.Duration
	changes  chan Change
	done     chan struct{}
}

// New creates a watcher for cfg.Path. Call Start to begin watching.
func New(cfg Config) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating fsnotify watcher: %w", err)
	}
	path, err := filepath.Abs(cfg.Path)
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("resolving %s: %w", cfg.Path, err)
	}
	return &Watcher{
		fs:       fsw,
		path:     path,
		base:     filepath.Base(path),
		debounce: cfg.Debounce,
		changes:  make(chan Change, 1),
		done:     make(chan struct{}),
	}, nil
}

// Start begins watching. The returned channel holds at most one pending
// change; further changes coalesce until it is read.
func (w *Watcher) Start() (<-chan Change, error) {
	dir := filepath.Dir(w.path)
	if err := w.fs.Add(dir); err != nil {
		return nil, fmt.Errorf("watching directory %s: %w", dir, err)
	}
	go w.loop()
	return w.changes, nil
}

// Stop ends watching and releases the fsnotify handle.
func (w *Watcher) Stop() error {
	close(w.done)
	return w.fs.Close()
}

func (w *Watcher) loop() {
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	var (
		pending bool
		removed bool
	)
	for {
		select {
		case event, ok := <-w.fs.Events:
			if !ok {
				return
			}
			if !w.relevant(event) {
				continue
			}
			removed = event.Op&(fsnotify.Remove|fsnotify.Rename) != 0
			if pending && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(w.debounce)
			pending = true

		case <-timer.C:
			if !pending {
				continue
			}
			pending = false
			w.send(Change{Removed: removed})

		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			log.ErrorErr(log.CatWatcher, "watch error", err, "path", w.path)

		case <-w.done:
			return
		}
	}
}

// send replaces an unread change with the newer one.
func (w *Watcher) send(c Change) {
	for {
		select {
		case w.changes <- c:
			log.Debug(log.CatWatcher, "book changed", "path", w.path, "removed", c.Removed)
			return
		default:
		}
		select {
		case <-w.changes:
		default:
		}
	}
}

func (w *Watcher) relevant(event fsnotify.Event) bool {
	if filepath.Base(event.Name) != w.base {
		return false
	}
	return event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) != 0
}
