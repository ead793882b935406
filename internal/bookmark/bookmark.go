// Package bookmark models saved reading positions and their stored form.
package bookmark

import (
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/zjrosen/peruse/internal/cursor"
)

// LabelRunes is the number of row characters kept in a generated label.
const LabelRunes = 40

// ID identifies a bookmark.
type ID string

// NewID returns a fresh random ID.
func NewID() ID {
	return ID(uuid.New().String())
}

// IsValid reports whether id is a well-formed UUID.
func (id ID) IsValid() bool {
	_, err := uuid.Parse(string(id))
	return err == nil
}

func (id ID) String() string { return string(id) }

// Bookmark is a named position in a book. Table of contents entries nest
// through Children.
type Bookmark struct {
	ID       ID
	Label    string
	Position cursor.Position
	Children []Bookmark
}

// New creates a bookmark with a fresh ID.
func New(label string, pos cursor.Position) Bookmark {
	return Bookmark{ID: NewID(), Label: label, Position: pos}
}

// Index holds everything saved for one book.
type Index struct {
	Autosave *Bookmark
	User     []Bookmark
	TOC      []Bookmark
}

// Add appends a user bookmark labeled after the row it points at and
// returns it.
func (ix *Index) Add(rowText string, pos cursor.Position) Bookmark {
	b := New(UserLabel(len(ix.User)+1, rowText), pos)
	ix.User = append(ix.User, b)
	return b
}

// Remove deletes the user bookmark with the given ID. It reports whether one
// was found.
func (ix *Index) Remove(id ID) bool {
	i := slices.IndexFunc(ix.User, func(b Bookmark) bool { return b.ID == id })
	if i < 0 {
		return false
	}
	ix.User = slices.Delete(ix.User, i, i+1)
	return true
}

// SetAutosave replaces the autosave bookmark.
func (ix *Index) SetAutosave(rowText string, pos cursor.Position) Bookmark {
	b := New(AutosaveLabel(rowText), pos)
	ix.Autosave = &b
	return b
}

// UserLabel returns the label of the n-th user bookmark.
func UserLabel(n int, rowText string) string {
	return fmt.Sprintf("%d: %s", n, excerpt(rowText))
}

// AutosaveLabel returns the label of an autosave bookmark.
func AutosaveLabel(rowText string) string {
	return "A: " + excerpt(rowText)
}

func excerpt(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) > LabelRunes {
		r = r[:LabelRunes]
	}
	return string(r) + "…"
}

// Walk calls fn for each bookmark in list and their children, depth first,
// with the nesting depth starting at zero.
func Walk(list []Bookmark, fn func(b Bookmark, depth int)) {
	var walk func([]Bookmark, int)
	walk = func(list []Bookmark, depth int) {
		for _, b := range list {
			fn(b, depth)
			walk(b.Children, depth+1)
		}
	}
	walk(list, 0)
}
