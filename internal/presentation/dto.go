package presentation

import (
	"time"

	"github.com/zjrosen/peruse/internal/book"
	"github.com/zjrosen/peruse/internal/bookmark"
	"github.com/zjrosen/peruse/internal/library"
)

// BookDTO is a recent book as printed by the CLI.
type BookDTO struct {
	Path     string    `json:"path"`
	Kind     string    `json:"kind"`
	Key      string    `json:"key"`
	OpenedAt time.Time `json:"opened_at"`
}

// BookmarkDTO is a bookmark or contents entry as printed by the CLI.
type BookmarkDTO struct {
	ID       string        `json:"id"`
	Kind     string        `json:"kind"`
	Label    string        `json:"label"`
	Children []BookmarkDTO `json:"children,omitempty"`
}

// StatsDTO is the output of the stats command.
type StatsDTO struct {
	Path  string `json:"path"`
	Lines int64  `json:"lines"`
	Words int64  `json:"words"`
	Chars int64  `json:"chars"`
}

// FromBooks converts library entries.
func FromBooks(books []library.Book) []BookDTO {
	out := make([]BookDTO, len(books))
	for i, b := range books {
		out[i] = BookDTO{Path: b.Path, Kind: b.Kind, Key: b.Key, OpenedAt: b.OpenedAt}
	}
	return out
}

// FromTOC converts a table of contents, keeping its nesting.
func FromTOC(toc []bookmark.Bookmark) []BookmarkDTO {
	out := make([]BookmarkDTO, 0, len(toc))
	for _, b := range toc {
		out = append(out, BookmarkDTO{
			ID:       b.ID.String(),
			Kind:     "toc",
			Label:    b.Label,
			Children: FromTOC(b.Children),
		})
	}
	return out
}

// FromIndex converts the autosave and user bookmarks of an index.
func FromIndex(ix bookmark.Index) []BookmarkDTO {
	var out []BookmarkDTO
	if ix.Autosave != nil {
		out = append(out, BookmarkDTO{ID: ix.Autosave.ID.String(), Kind: "autosave", Label: ix.Autosave.Label})
	}
	for _, b := range ix.User {
		out = append(out, BookmarkDTO{ID: b.ID.String(), Kind: "user", Label: b.Label})
	}
	return out
}

// FromCounts converts book statistics.
func FromCounts(path string, c book.Counts) StatsDTO {
	return StatsDTO{Path: path, Lines: c.Lines, Words: c.Words, Chars: c.Chars}
}
