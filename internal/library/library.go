package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/zjrosen/peruse/internal/bookmark"
	"github.com/zjrosen/peruse/internal/cachemanager"
	"github.com/zjrosen/peruse/internal/log"
)

// MaxRecent is the number of books kept in the recent list.
const MaxRecent = 20

// FileName is the database file name inside the data directory.
const FileName = "library.db"

// indexTTL bounds how long a loaded index is served from memory.
const indexTTL = 10 * time.Minute

// ErrUnknownBook is returned when bookmarks are saved for a book that was
// never touched.
var ErrUnknownBook = errors.New("unknown book")

// Bookmark kinds stored in the kind column.
const (
	kindAutosave = "autosave"
	kindUser     = "user"
	kindTOC      = "toc"
)

// Book is an entry of the recent list.
type Book struct {
	Key      string
	Path     string
	Kind     string
	OpenedAt time.Time
}

// Library is the reader's persistent memory.
type Library struct {
	db      *DB
	indexes *cachemanager.ReadThroughCache[string, bookmark.Index, string]
	now     func() time.Time
}

// Open opens the library in dir.
func Open(dir string) (*Library, error) {
	db, err := NewDB(filepath.Join(dir, FileName))
	if err != nil {
		return nil, err
	}
	return New(db), nil
}

// New creates a Library over an open database.
func New(db *DB) *Library {
	l := &Library{db: db, now: time.Now}
	l.indexes = cachemanager.NewReadThroughCache[string, bookmark.Index, string](
		cachemanager.NewInMemoryCacheManager[string, bookmark.Index]("indexes", indexTTL, cachemanager.DefaultCleanupInterval),
		l.loadIndex,
		false,
	)
	return l
}

// Close closes the database.
func (l *Library) Close() error { return l.db.Close() }

// Touch records that the book was opened now, then trims the recent list.
func (l *Library) Touch(ctx context.Context, key, path, kind string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	_, err = l.db.conn.ExecContext(ctx,
		`INSERT INTO books (key, path, kind, opened_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (key) DO UPDATE SET path = excluded.path, kind = excluded.kind, opened_at = excluded.opened_at`,
		key, abs, kind, l.now().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to record book: %w", err)
	}
	return l.trim(ctx)
}

// trim forgets books beyond the newest MaxRecent paths, with their
// bookmarks.
func (l *Library) trim(ctx context.Context) error {
	res, err := l.db.conn.ExecContext(ctx,
		`DELETE FROM books WHERE path NOT IN (
			SELECT path FROM books GROUP BY path ORDER BY MAX(opened_at) DESC LIMIT ?
		)`, MaxRecent)
	if err != nil {
		return fmt.Errorf("failed to trim recent books: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		log.Debug(log.CatLibrary, "trimmed recent books", "removed", n)
		return l.indexes.InvalidateAll(ctx)
	}
	return nil
}

// Recent returns recently opened books, newest first, one entry per path.
// Books whose file is gone are forgotten.
func (l *Library) Recent(ctx context.Context) ([]Book, error) {
	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT key, path, kind, MAX(opened_at) AS last_opened FROM books
		GROUP BY path ORDER BY last_opened DESC LIMIT ?`, MaxRecent)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent books: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var books, missing []Book
	for rows.Next() {
		var b Book
		var openedAt int64
		if err := rows.Scan(&b.Key, &b.Path, &b.Kind, &openedAt); err != nil {
			return nil, fmt.Errorf("failed to scan book: %w", err)
		}
		b.OpenedAt = time.UnixMilli(openedAt)
		if _, err := os.Stat(b.Path); errors.Is(err, os.ErrNotExist) {
			missing = append(missing, b)
			continue
		}
		books = append(books, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	_ = rows.Close()

	for _, b := range missing {
		log.Info(log.CatLibrary, "forgetting missing book", "path", b.Path)
		if _, err := l.db.conn.ExecContext(ctx, `DELETE FROM books WHERE path = ?`, b.Path); err != nil {
			return nil, fmt.Errorf("failed to forget book: %w", err)
		}
	}
	if len(missing) > 0 {
		if err := l.indexes.InvalidateAll(ctx); err != nil {
			return nil, err
		}
	}
	return books, nil
}

// LoadIndex returns the bookmarks saved for the book with the given key. A
// book with nothing saved has an empty index. Each load keeps the cached
// index alive for another indexTTL.
func (l *Library) LoadIndex(ctx context.Context, key string) (bookmark.Index, error) {
	return l.indexes.GetWithRefresh(ctx, key, key, indexTTL)
}

// SaveAutosave replaces the book's autosave bookmark.
func (l *Library) SaveAutosave(ctx context.Context, key string, b bookmark.Bookmark) error {
	return l.write(ctx, key, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks WHERE book_key = ? AND kind = ?`, key, kindAutosave); err != nil {
			return err
		}
		return insert(ctx, tx, key, kindAutosave, nil, 0, b)
	})
}

// AddBookmark appends a user bookmark.
func (l *Library) AddBookmark(ctx context.Context, key string, b bookmark.Bookmark) error {
	return l.write(ctx, key, func(tx *sql.Tx) error {
		var n int
		err := tx.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM bookmarks WHERE book_key = ? AND kind = ?`, key, kindUser,
		).Scan(&n)
		if err != nil {
			return err
		}
		return insert(ctx, tx, key, kindUser, nil, n, b)
	})
}

// DeleteBookmark removes a user bookmark. It reports whether one was found.
func (l *Library) DeleteBookmark(ctx context.Context, key string, id bookmark.ID) (bool, error) {
	var found bool
	err := l.write(ctx, key, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`DELETE FROM bookmarks WHERE book_key = ? AND kind = ? AND id = ?`, key, kindUser, string(id))
		if err != nil {
			return err
		}
		n, err := res.RowsAffected()
		found = n > 0
		return err
	})
	return found, err
}

// SaveTOC replaces the book's table of contents.
func (l *Library) SaveTOC(ctx context.Context, key string, toc []bookmark.Bookmark) error {
	return l.write(ctx, key, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bookmarks WHERE book_key = ? AND kind = ?`, key, kindTOC); err != nil {
			return err
		}
		var save func(parent *string, list []bookmark.Bookmark) error
		save = func(parent *string, list []bookmark.Bookmark) error {
			for i, b := range list {
				if err := insert(ctx, tx, key, kindTOC, parent, i, b); err != nil {
					return err
				}
				id := string(b.ID)
				if err := save(&id, b.Children); err != nil {
					return err
				}
			}
			return nil
		}
		return save(nil, toc)
	})
}

// write runs fn in a transaction and drops the book's cached index.
func (l *Library) write(ctx context.Context, key string, fn func(tx *sql.Tx) error) error {
	var exists bool
	if err := l.db.conn.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM books WHERE key = ?)`, key).Scan(&exists); err != nil {
		return fmt.Errorf("failed to look up book: %w", err)
	}
	if !exists {
		return fmt.Errorf("book %s: %w", key, ErrUnknownBook)
	}

	tx, err := l.db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to save bookmarks: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit bookmarks: %w", err)
	}
	return l.indexes.Invalidate(ctx, key)
}

func insert(ctx context.Context, tx *sql.Tx, key, kind string, parent *string, ord int, b bookmark.Bookmark) error {
	pos, err := bookmark.Encode(b.Position)
	if err != nil {
		return err
	}
	if !b.ID.IsValid() {
		b.ID = bookmark.NewID()
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO bookmarks (id, book_key, kind, label, position, parent_id, ord, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		string(b.ID), key, kind, b.Label, pos, parent, ord, time.Now().UnixMilli(),
	)
	return err
}

type bookmarkRow struct {
	id       string
	kind     string
	label    string
	position []byte
	parent   *string
}

func (l *Library) loadIndex(ctx context.Context, key string) (bookmark.Index, error) {
	var ix bookmark.Index
	rows, err := l.db.conn.QueryContext(ctx,
		`SELECT id, kind, label, position, parent_id FROM bookmarks
		WHERE book_key = ? ORDER BY kind, ord`, key)
	if err != nil {
		return ix, fmt.Errorf("failed to load bookmarks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var loaded []bookmarkRow
	for rows.Next() {
		var r bookmarkRow
		if err := rows.Scan(&r.id, &r.kind, &r.label, &r.position, &r.parent); err != nil {
			return ix, fmt.Errorf("failed to scan bookmark: %w", err)
		}
		loaded = append(loaded, r)
	}
	if err := rows.Err(); err != nil {
		return ix, err
	}

	children := make(map[string][]bookmark.Bookmark)
	var toc []string
	tocByID := make(map[string]bookmark.Bookmark)
	for _, r := range loaded {
		pos, err := bookmark.Decode(r.position)
		if err != nil {
			log.Warn(log.CatLibrary, "skipping unreadable bookmark", "book", key, "id", r.id, "error", err)
			continue
		}
		b := bookmark.Bookmark{ID: bookmark.ID(r.id), Label: r.label, Position: pos}
		switch r.kind {
		case kindAutosave:
			ix.Autosave = &b
		case kindUser:
			ix.User = append(ix.User, b)
		case kindTOC:
			tocByID[r.id] = b
			if r.parent == nil {
				toc = append(toc, r.id)
			} else {
				children[*r.parent] = append(children[*r.parent], b)
			}
		}
	}

	var build func(b bookmark.Bookmark) bookmark.Bookmark
	build = func(b bookmark.Bookmark) bookmark.Bookmark {
		for _, c := range children[string(b.ID)] {
			b.Children = append(b.Children, build(c))
		}
		return b
	}
	for _, id := range toc {
		ix.TOC = append(ix.TOC, build(tocByID[id]))
	}
	return ix, nil
}
