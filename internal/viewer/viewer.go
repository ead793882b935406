// Package viewer is the terminal reader. It draws a page of rows from the
// book's top-level cursor and maps keys to cursor moves and bookmark
// operations.
package viewer

import (
	"context"
	"errors"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/peruse/internal/book"
	"github.com/zjrosen/peruse/internal/bookmark"
	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/keys"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/log"
	"github.com/zjrosen/peruse/internal/pubsub"
	"github.com/zjrosen/peruse/internal/watcher"
)

// Store keeps a book's bookmarks between sessions.
type Store interface {
	LoadIndex(ctx context.Context, key string) (bookmark.Index, error)
	SaveAutosave(ctx context.Context, key string, b bookmark.Bookmark) error
	AddBookmark(ctx context.Context, key string, b bookmark.Bookmark) error
	DeleteBookmark(ctx context.Context, key string, id bookmark.ID) (bool, error)
	SaveTOC(ctx context.Context, key string, toc []bookmark.Bookmark) error
}

// Config holds viewer options.
type Config struct {
	// Key is the library key of the book. It stays fixed for the session
	// even when the file changes on disk.
	Key string

	// Width fixes the row width. Zero follows the terminal.
	Width int

	ShowStatusBar bool

	// Prefetch walks the next page in the background after each move.
	Prefetch bool

	// Changes delivers file changes. Nil disables reloading.
	Changes <-chan watcher.Change

	// SaveSetting persists a toggled UI setting under a config key. It may
	// be nil.
	SaveSetting func(key, value string) error
}

type mode int

const (
	modeRead mode = iota
	modeTOC
	modeBookmarks
)

// entry is one line of the contents or bookmark list.
type entry struct {
	b        bookmark.Bookmark
	depth    int
	autosave bool
}

// Model is the reader state.
type Model struct {
	ctx   context.Context
	book  *book.Book
	store Store
	cfg   Config
	index bookmark.Index
	start cursor.Position

	width  int
	height int
	page   []layout.Row
	atEnd  bool

	mode     mode
	entries  []entry
	selected int
	offset   int

	help     help.Model
	status   string
	events   *pubsub.ContinuousListener[book.Change]
	logs     *log.LogListener
	quitting bool
}

// New creates the reader for b, restoring the autosaved position when there
// is one. ctx bounds the background listeners.
func New(ctx context.Context, b *book.Book, store Store, cfg Config) (Model, error) {
	index, err := store.LoadIndex(ctx, cfg.Key)
	if err != nil {
		return Model{}, fmt.Errorf("loading bookmarks: %w", err)
	}
	m := Model{
		ctx:    ctx,
		book:   b,
		store:  store,
		cfg:    cfg,
		index:  index,
		help:   help.New(),
		events: pubsub.NewContinuousListener(ctx, b.Events()),
		logs:   log.NewListener(ctx),
	}
	err = b.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		m.start = c.Position()
		if index.Autosave == nil {
			return nil
		}
		return c.SetPosition(index.Autosave.Position)
	})
	if err != nil {
		log.Warn(log.CatViewer, "autosave position not restored", "book", b.Name(), "error", err)
		if err := b.Rows().With(func(c cursor.Cursor[layout.Row]) error { return c.SetPosition(m.start) }); err != nil {
			return Model{}, err
		}
	}
	return m, nil
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.events.Listen(), waitForChange(m.cfg.Changes)}
	if m.logs != nil {
		cmds = append(cmds, m.logs.Listen())
	}
	if len(m.index.TOC) == 0 && m.book.Kind() == book.Formatted {
		cmds = append(cmds, buildTOC(m.book))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		if err := m.book.SetWidth(m.rowWidth()); err != nil {
			return m.fail(err)
		}
		return m.refresh()

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m.quit()
		}
		if m.mode != modeRead {
			return m.updateList(msg)
		}
		return m.updateRead(msg)

	case tocMsg:
		if msg.err != nil {
			m.status = "contents: " + msg.err.Error()
			return m, nil
		}
		m.index.TOC = msg.toc
		if err := m.store.SaveTOC(m.ctx, m.cfg.Key, msg.toc); err != nil {
			log.ErrorErr(log.CatViewer, "saving contents failed", err, "book", m.book.Name())
		}
		if m.mode == modeTOC {
			m.entries = tocEntries(m.index.TOC)
			m.selected, m.offset = 0, 0
		}
		return m, nil

	case changedMsg:
		next := waitForChange(m.cfg.Changes)
		if msg.Removed {
			m.status = m.book.Name() + " was removed from disk"
			return m, next
		}
		return m, tea.Batch(next, reload(m.book))

	case reloadFailedMsg:
		m.status = msg.err.Error()
		return m, nil

	case pubsub.Event[book.Change]:
		cmds := []tea.Cmd{m.events.Listen()}
		if msg.Type == pubsub.Reloaded {
			m.status = "reloaded " + m.book.Name()
			if m.book.Kind() == book.Formatted {
				cmds = append(cmds, buildTOC(m.book))
			}
			next, cmd := m.refresh()
			return next, tea.Batch(append(cmds, cmd)...)
		}
		return m, tea.Batch(cmds...)

	case log.LogEvent:
		if text, ok := warning(msg.Payload); ok {
			m.status = text
		}
		return m, m.logs.Listen()

	case prefetchedMsg:
		if msg.err != nil {
			log.ErrorErr(log.CatViewer, "prefetch failed", msg.err)
		}
		return m, nil
	}
	return m, nil
}

func (m Model) updateRead(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := keys.Reader
	switch {
	case key.Matches(msg, k.Quit):
		return m.quit()
	case key.Matches(msg, k.Down):
		return m.move(1)
	case key.Matches(msg, k.Up):
		return m.move(-1)
	case key.Matches(msg, k.PageDown):
		if m.atEnd {
			return m, nil
		}
		return m.move(len(m.page))
	case key.Matches(msg, k.PageUp):
		return m.move(-m.bodyHeight())
	case key.Matches(msg, k.Home):
		return m.jump(m.start)
	case key.Matches(msg, k.TOC):
		return m.openTOC(), nil
	case key.Matches(msg, k.Bookmarks):
		return m.openBookmarks(), nil
	case key.Matches(msg, k.AddBookmark):
		return m.addBookmark(), nil
	case key.Matches(msg, k.ToggleStatus):
		m.cfg.ShowStatusBar = !m.cfg.ShowStatusBar
		if m.cfg.SaveSetting != nil {
			if err := m.cfg.SaveSetting("ui.show_status_bar", fmt.Sprint(m.cfg.ShowStatusBar)); err != nil {
				log.ErrorErr(log.CatViewer, "saving setting failed", err)
			}
		}
		return m.refresh()
	case key.Matches(msg, k.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m.refresh()
	}
	return m, nil
}

func (m Model) updateList(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := keys.List
	switch {
	case key.Matches(msg, k.Close):
		m.mode = modeRead
	case key.Matches(msg, k.Up):
		if m.selected > 0 {
			m.selected--
		}
	case key.Matches(msg, k.Down):
		if m.selected < len(m.entries)-1 {
			m.selected++
		}
	case key.Matches(msg, k.Select):
		if len(m.entries) == 0 {
			return m, nil
		}
		m.mode = modeRead
		return m.jump(m.entries[m.selected].b.Position)
	case key.Matches(msg, k.Delete):
		if m.mode != modeBookmarks || len(m.entries) == 0 || m.entries[m.selected].autosave {
			return m, nil
		}
		return m.deleteBookmark(m.entries[m.selected].b), nil
	}
	m.scrollList()
	return m, nil
}

// move steps the top row by n rows, stopping at either end.
func (m Model) move(n int) (tea.Model, tea.Cmd) {
	err := m.book.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		_, err := cursor.Skip(c, n)
		return err
	})
	if err != nil {
		return m.fail(err)
	}
	return m.refresh()
}

func (m Model) jump(p cursor.Position) (tea.Model, tea.Cmd) {
	if err := m.book.Rows().With(func(c cursor.Cursor[layout.Row]) error { return c.SetPosition(p) }); err != nil {
		return m.fail(err)
	}
	return m.refresh()
}

// refresh reads the page starting at the top row and schedules a prefetch
// of the page after it.
func (m Model) refresh() (tea.Model, tea.Cmd) {
	if err := m.load(); err != nil {
		return m.fail(err)
	}
	if !m.cfg.Prefetch || m.atEnd {
		return m, nil
	}
	return m, prefetch(m.book.Rows(), len(m.page), m.bodyHeight())
}

func (m *Model) load() error {
	body := m.bodyHeight()
	return m.book.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		rows := []layout.Row{c.Current()}
		for len(rows) < body && !c.IsLast() {
			if err := c.Next(); err != nil {
				return err
			}
			rows = append(rows, c.Current())
		}
		m.page = rows
		m.atEnd = c.IsLast()
		_, err := cursor.Skip(c, 1-len(rows))
		return err
	})
}

// current returns the top row's text and position.
func (m Model) current() (string, cursor.Position) {
	var (
		text string
		pos  cursor.Position
	)
	_ = m.book.Rows().With(func(c cursor.Cursor[layout.Row]) error {
		text, pos = c.Current().Text(), c.Position()
		return nil
	})
	return text, pos
}

func (m Model) quit() (tea.Model, tea.Cmd) {
	text, pos := m.current()
	b := m.index.SetAutosave(text, pos)
	if err := m.store.SaveAutosave(m.ctx, m.cfg.Key, b); err != nil {
		log.ErrorErr(log.CatViewer, "autosave failed", err, "book", m.book.Name())
	}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) addBookmark() Model {
	text, pos := m.current()
	b := m.index.Add(text, pos)
	if err := m.store.AddBookmark(m.ctx, m.cfg.Key, b); err != nil {
		m.index.Remove(b.ID)
		m.status = "bookmark not saved: " + err.Error()
		return m
	}
	m.status = "added " + b.Label
	return m
}

func (m Model) deleteBookmark(b bookmark.Bookmark) Model {
	if _, err := m.store.DeleteBookmark(m.ctx, m.cfg.Key, b.ID); err != nil {
		m.status = "bookmark not deleted: " + err.Error()
		return m
	}
	m.index.Remove(b.ID)
	m.status = "deleted " + b.Label
	m.entries = bookmarkEntries(m.index)
	if len(m.entries) == 0 {
		m.mode = modeRead
		return m
	}
	m.selected = min(m.selected, len(m.entries)-1)
	m.scrollList()
	return m
}

func (m Model) openTOC() Model {
	if len(m.index.TOC) == 0 {
		if m.book.Kind() == book.Formatted {
			m.status = "contents are still being built"
		} else {
			m.status = "plain text has no contents"
		}
		return m
	}
	m.mode = modeTOC
	m.entries = tocEntries(m.index.TOC)
	m.selected, m.offset = 0, 0
	return m
}

func (m Model) openBookmarks() Model {
	m.entries = bookmarkEntries(m.index)
	if len(m.entries) == 0 {
		m.status = "no bookmarks"
		return m
	}
	m.mode = modeBookmarks
	m.selected, m.offset = 0, 0
	return m
}

// scrollList keeps the selected entry inside the visible part of the list.
func (m *Model) scrollList() {
	visible := max(1, m.bodyHeight()-1)
	if m.selected < m.offset {
		m.offset = m.selected
	}
	if m.selected >= m.offset+visible {
		m.offset = m.selected - visible + 1
	}
}

func (m Model) fail(err error) (tea.Model, tea.Cmd) {
	if errors.Is(err, cursor.ErrMalformedInput) || errors.Is(err, cursor.ErrOutOfRange) {
		log.ErrorErr(log.CatViewer, "navigation failed", err, "book", m.book.Name())
	}
	m.status = err.Error()
	return m, nil
}

func tocEntries(toc []bookmark.Bookmark) []entry {
	var out []entry
	bookmark.Walk(toc, func(b bookmark.Bookmark, depth int) {
		out = append(out, entry{b: b, depth: depth})
	})
	return out
}

func bookmarkEntries(ix bookmark.Index) []entry {
	var out []entry
	if ix.Autosave != nil {
		out = append(out, entry{b: *ix.Autosave, autosave: true})
	}
	for _, b := range ix.User {
		out = append(out, entry{b: b})
	}
	return out
}

// rowWidth is the width rows are laid out at.
func (m Model) rowWidth() int {
	if m.cfg.Width > 0 {
		return m.cfg.Width
	}
	return max(1, m.width)
}
