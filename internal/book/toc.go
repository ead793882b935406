package book

import (
	"github.com/zjrosen/peruse/internal/bookmark"
	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/layout"
	"github.com/zjrosen/peruse/internal/log"
	"github.com/zjrosen/peruse/internal/markup"
	"github.com/zjrosen/peruse/internal/tokenize"
)

// tocNode is a table of contents entry under construction.
type tocNode struct {
	parent   *tocNode
	children []*tocNode
	text     string
	pos      cursor.Position
	level    int
}

// TOC builds the table of contents of the open book. It reads the file
// through its own handle and does not move the book's rows.
func (b *Book) TOC() ([]bookmark.Bookmark, error) {
	var opts Options
	_ = b.rows.With(func(cursor.Cursor[layout.Row]) error {
		opts = b.opts
		return nil
	})
	return BuildTOC(b.path, opts)
}

// BuildTOC scans the headings of a formatted document through its own file
// handle. Consecutive headings of one level merge into a single entry and
// deeper levels nest under the entry before them. Entries hold line
// positions, which the row pipeline accepts. Plain documents have no table
// of contents.
func BuildTOC(path string, opts Options) ([]bookmark.Bookmark, error) {
	if KindOf(path) != Formatted {
		return nil, nil
	}
	chars, err := openChars(path, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = chars.Close() }()

	lines, err := tokenize.NewLines(chars)
	if err != nil {
		return nil, err
	}

	root := &tocNode{}
	current := root
	merge := false
	for {
		line := lines.Current()
		if level := markup.HeadingLevel(line); level > 0 {
			current = current.add(markup.HeadingText(line), lines.Position(), level, merge)
			merge = true
		} else {
			merge = false
		}
		if lines.IsLast() {
			break
		}
		if err := lines.Next(); err != nil {
			return nil, err
		}
	}
	toc := root.bookmarks()
	log.Debug(log.CatBook, "built table of contents", "path", path, "entries", len(toc))
	return toc, nil
}

// add places a heading relative to the last one and returns the entry that
// received it. Missing intermediate levels are filled with the same text.
func (n *tocNode) add(text string, pos cursor.Position, level int, merge bool) *tocNode {
	if merge && level == n.level {
		n.text += "\n" + text
		return n
	}
	for level < n.level {
		n = n.parent
	}
	if level == n.level {
		sibling := &tocNode{parent: n.parent, text: text, pos: pos, level: level}
		n.parent.children = append(n.parent.children, sibling)
		return sibling
	}
	for level > n.level {
		sub := &tocNode{parent: n, text: text, pos: pos, level: n.level + 1}
		n.children = append(n.children, sub)
		n = sub
	}
	return n
}

func (n *tocNode) bookmarks() []bookmark.Bookmark {
	var out []bookmark.Bookmark
	for _, c := range n.children {
		b := bookmark.New(c.text, c.pos)
		b.Children = c.bookmarks()
		out = append(out, b)
	}
	return out
}
