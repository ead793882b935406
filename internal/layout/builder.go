package layout

import (
	"fmt"
	"slices"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/log"
	"github.com/zjrosen/peruse/internal/markup"
)

// BuilderPosition is the position of a Builder: the position of its
// paragraph plus the block styles open at that paragraph.
type BuilderPosition struct {
	Inner  cursor.Position
	Styles []markup.Style
}

// Kind implements cursor.Position.
func (BuilderPosition) Kind() string { return "builder" }

// Builder lays out formatted paragraphs. Each element is the list of rows of
// one paragraph. Block styles opened and closed between paragraphs are
// tracked on a stack that travels with the cursor's position.
type Builder struct {
	tokens cursor.Cursor[markup.Token]
	agg    *cursor.Aggregating[[]Row, markup.Token]
	g      *paragraphs
	origin cursor.Position
}

var _ cursor.Cursor[[]Row] = (*Builder)(nil)

// NewBuilder creates a Builder standing on the first paragraph at or after
// the tokens cursor.
func NewBuilder(tokens cursor.Cursor[markup.Token], width, tabSize int) (*Builder, error) {
	g := &paragraphs{width: width, tabSize: tabSize}
	agg, err := cursor.NewAggregating[[]Row, markup.Token](tokens, g)
	if err != nil {
		return nil, err
	}
	g.origin = slices.Clone(g.styles)
	return &Builder{tokens: tokens, agg: agg, g: g, origin: agg.Position()}, nil
}

// Current implements cursor.Cursor.
func (b *Builder) Current() []Row { return b.agg.Current() }

// IsFirst implements cursor.Cursor.
func (b *Builder) IsFirst() bool { return b.agg.IsFirst() }

// IsLast implements cursor.Cursor.
func (b *Builder) IsLast() bool { return b.agg.IsLast() }

// Next implements cursor.Cursor.
func (b *Builder) Next() error {
	saved := slices.Clone(b.g.styles)
	if err := b.agg.Next(); err != nil {
		b.g.styles = saved
		return err
	}
	return nil
}

// Prev implements cursor.Cursor.
func (b *Builder) Prev() error {
	saved := slices.Clone(b.g.styles)
	if err := b.agg.Prev(); err != nil {
		b.g.styles = saved
		return err
	}
	return nil
}

// Position implements cursor.Cursor.
func (b *Builder) Position() cursor.Position {
	return BuilderPosition{Inner: b.agg.Position(), Styles: slices.Clone(b.g.styles)}
}

// SetPosition implements cursor.Cursor. A position of another shape is
// handed to the token cursor, and layout resumes at the next paragraph with
// the block styles open at that point. On failure the builder stays on the
// paragraph it held.
func (b *Builder) SetPosition(p cursor.Position) error {
	saved := slices.Clone(b.g.styles)
	if bp, ok := p.(BuilderPosition); ok {
		b.g.styles = slices.Clone(bp.Styles)
		if err := b.agg.SetPosition(bp.Inner); err != nil {
			b.g.styles = saved
			return err
		}
		return nil
	}
	if err := b.tokens.SetPosition(p); err != nil {
		if !cursor.IsRecoverable(err) {
			return err
		}
		log.Warn(log.CatLayout, "stale position, resetting layout", "cause", err)
		b.g.Reset()
		return b.agg.SetPosition(b.origin)
	}
	styles, err := openStyles(b.tokens)
	if err == nil {
		b.g.styles = styles
		err = b.agg.Sync()
	}
	if err != nil {
		b.g.styles = saved
		if rerr := b.agg.Refetch(); rerr != nil {
			log.ErrorErr(log.CatLayout, "returning to paragraph", rerr)
		}
		return err
	}
	return nil
}

// openStyles returns the block styles open before u's position, innermost
// last. It scans back to the start of the stream and leaves u where it found
// it.
func openStyles(u cursor.Cursor[markup.Token]) ([]markup.Style, error) {
	start := u.Position()
	var open, closed []markup.Style
	for !u.IsFirst() {
		if err := u.Prev(); err != nil {
			return nil, err
		}
		t := u.Current()
		if t.Kind == markup.Word || t.Text == markup.Paragraph || t.Text == markup.Document {
			continue
		}
		style, ok := markup.ParseStyle(t.Text)
		if !ok || style.IsCharacter() {
			continue
		}
		if t.Kind == markup.End {
			closed = append(closed, style)
			continue
		}
		if n := len(closed); n > 0 {
			if closed[n-1] != style {
				return nil, fmt.Errorf("unbalanced %s before %s: %w", t, closed[n-1], cursor.ErrMalformedInput)
			}
			closed = closed[:n-1]
			continue
		}
		open = append(open, style)
	}
	slices.Reverse(open)
	return open, u.SetPosition(start)
}

// Width returns the row width in cells.
func (b *Builder) Width() int { return b.g.width }

// SetWidth lays the current paragraph out again at a new width.
func (b *Builder) SetWidth(width int) error {
	pos := b.Position()
	b.g.width = width
	return b.SetPosition(pos)
}

// paragraphs is the grouper behind Builder. Groups run from a paragraph
// begin token to its paragraph end token.
type paragraphs struct {
	styles  []markup.Style // open block styles, innermost last
	origin  []markup.Style
	width   int
	tabSize int
}

var (
	_ cursor.Grouper[[]Row, markup.Token] = (*paragraphs)(nil)
	_ cursor.Resetter                     = (*paragraphs)(nil)
)

// Reset implements cursor.Resetter.
func (g *paragraphs) Reset() {
	g.styles = slices.Clone(g.origin)
}

func (g *paragraphs) Align(u cursor.Cursor[markup.Token]) error {
	for u.Current() != markup.ParagraphBegin {
		if err := g.cross(u.Current(), true); err != nil {
			return err
		}
		if u.IsLast() {
			return fmt.Errorf("no paragraph follows: %w", cursor.ErrMalformedInput)
		}
		if err := u.Next(); err != nil {
			return err
		}
	}
	return nil
}

func (g *paragraphs) SkipForward(u cursor.Cursor[markup.Token]) error {
	if err := u.Next(); err != nil {
		return err
	}
	return g.Align(u)
}

func (g *paragraphs) SkipBackward(u cursor.Cursor[markup.Token]) error {
	for {
		if u.IsFirst() {
			return fmt.Errorf("no paragraph precedes: %w", cursor.ErrMalformedInput)
		}
		if err := u.Prev(); err != nil {
			return err
		}
		if u.Current() == markup.ParagraphEnd {
			return nil
		}
		if err := g.cross(u.Current(), false); err != nil {
			return err
		}
	}
}

func (g *paragraphs) FetchForward(u cursor.Cursor[markup.Token]) ([]Row, bool, error) {
	if u.Current() != markup.ParagraphBegin {
		return nil, false, fmt.Errorf("paragraph start expected, got %s: %w", u.Current(), cursor.ErrMalformedInput)
	}
	rows, err := g.build(u)
	if err != nil {
		return nil, false, err
	}
	more, err := probe(u, markup.ParagraphBegin, true)
	return rows, !more, err
}

func (g *paragraphs) FetchBackward(u cursor.Cursor[markup.Token]) ([]Row, bool, error) {
	for u.Current() != markup.ParagraphBegin {
		if u.IsFirst() {
			return nil, false, fmt.Errorf("paragraph start missing: %w", cursor.ErrMalformedInput)
		}
		if err := u.Prev(); err != nil {
			return nil, false, err
		}
	}
	begin := u.Position()
	first, err := g.CheckFirst(u)
	if err != nil {
		return nil, false, err
	}
	rows, err := g.build(u)
	if err != nil {
		return nil, false, err
	}
	return rows, first, u.SetPosition(begin)
}

func (g *paragraphs) CheckFirst(u cursor.Cursor[markup.Token]) (bool, error) {
	more, err := probe(u, markup.ParagraphEnd, false)
	return !more, err
}

// cross applies a block style token passed over in the given direction.
func (g *paragraphs) cross(t markup.Token, forward bool) error {
	if t.Kind == markup.Word || t.Text == markup.Paragraph || t.Text == markup.Document {
		return nil
	}
	style, ok := markup.ParseStyle(t.Text)
	if !ok {
		log.Debug(log.CatLayout, "unknown style", "style", t.Text)
		return nil
	}
	if style.IsCharacter() {
		return fmt.Errorf("character style %s outside paragraph: %w", style, cursor.ErrMalformedInput)
	}
	if (t.Kind == markup.Begin) == forward {
		g.styles = append(g.styles, style)
		return nil
	}
	if n := len(g.styles); n == 0 || g.styles[n-1] != style {
		return fmt.Errorf("unbalanced %s in %v: %w", t, g.styles, cursor.ErrMalformedInput)
	}
	g.styles = g.styles[:len(g.styles)-1]
	return nil
}

func (g *paragraphs) paragraphStyle() ParagraphStyle {
	if len(g.styles) == 0 {
		return StyleFor(markup.Normal)
	}
	return StyleFor(g.styles[len(g.styles)-1])
}

// build lays out the paragraph starting at u, leaving u on its end token.
func (g *paragraphs) build(u cursor.Cursor[markup.Token]) ([]Row, error) {
	var rows []Row
	var chars []markup.Style
	row := newRowBuilder(g.paragraphStyle(), true, g.width)
	for {
		if u.IsLast() {
			return nil, fmt.Errorf("stream ends inside paragraph: %w", cursor.ErrMalformedInput)
		}
		if err := u.Next(); err != nil {
			return nil, err
		}
		t := u.Current()
		switch t.Kind {
		case markup.Word:
			item := Item{
				Text:     ExpandTabs(t.Text, g.tabSize),
				Emphasis: slices.Contains(chars, markup.Emphasis),
				Strong:   slices.Contains(chars, markup.Strong),
			}
			if !row.fits(item) {
				rows = append(rows, row.row())
				row = newRowBuilder(row.style, false, g.width)
			}
			row.add(item)
		case markup.Begin:
			if t.Text == markup.Paragraph {
				return nil, fmt.Errorf("paragraph inside paragraph: %w", cursor.ErrMalformedInput)
			}
			style, ok := markup.ParseStyle(t.Text)
			if !ok {
				continue
			}
			if !style.IsCharacter() {
				return nil, fmt.Errorf("block style %s inside paragraph: %w", style, cursor.ErrMalformedInput)
			}
			chars = append(chars, style)
		case markup.End:
			if t.Text == markup.Paragraph {
				if len(chars) > 0 {
					return nil, fmt.Errorf("unclosed %v at paragraph end: %w", chars, cursor.ErrMalformedInput)
				}
				return append(rows, row.row()), nil
			}
			style, ok := markup.ParseStyle(t.Text)
			if !ok {
				continue
			}
			if n := len(chars); n == 0 || chars[n-1] != style {
				return nil, fmt.Errorf("unbalanced %s: %w", t, cursor.ErrMalformedInput)
			}
			chars = chars[:len(chars)-1]
		}
	}
}

// probe reports whether target occurs past u in the given direction. It
// leaves u where it found it.
func probe(u cursor.Cursor[markup.Token], target markup.Token, forward bool) (bool, error) {
	start := u.Position()
	found := false
	for {
		if (forward && u.IsLast()) || (!forward && u.IsFirst()) {
			break
		}
		var err error
		if forward {
			err = u.Next()
		} else {
			err = u.Prev()
		}
		if err != nil {
			return false, err
		}
		if u.Current() == target {
			found = true
			break
		}
	}
	return found, u.SetPosition(start)
}

type rowBuilder struct {
	style ParagraphStyle
	first bool
	limit int
	items []Item
	width int
}

func newRowBuilder(style ParagraphStyle, first bool, limit int) *rowBuilder {
	return &rowBuilder{style: style, first: first, limit: limit}
}

func (r *rowBuilder) indent() int {
	if r.style.Align != AlignLeft {
		return 0
	}
	if r.first {
		return IndentCells * r.style.FirstLineIndent
	}
	return IndentCells * r.style.Indent
}

func (r *rowBuilder) fits(it Item) bool {
	if len(r.items) == 0 {
		return true
	}
	return r.indent()+r.width+1+StringWidth(it.Text) <= r.limit
}

func (r *rowBuilder) add(it Item) {
	w := StringWidth(it.Text)
	if len(r.items) == 0 {
		r.width = w
	} else {
		r.width += 1 + w
	}
	r.items = append(r.items, it)
}

func (r *rowBuilder) row() Row {
	return Row{
		Items:  r.items,
		Style:  r.style.Name,
		Align:  r.style.Align,
		Indent: r.indent(),
		First:  r.first,
		Width:  r.width,
	}
}

// FormattedRows lays out formatted text one row at a time.
type FormattedRows struct {
	*cursor.Splitting[Row]
	builder *Builder
}

var _ Rows = (*FormattedRows)(nil)

// NewFormattedRows creates a row cursor over tokens produced by
// markup.NewSFB.
func NewFormattedRows(tokens cursor.Cursor[markup.Token], width, tabSize int) (*FormattedRows, error) {
	b, err := NewBuilder(tokens, width, tabSize)
	if err != nil {
		return nil, err
	}
	s, err := cursor.NewSplitting[Row](b)
	if err != nil {
		return nil, err
	}
	return &FormattedRows{Splitting: s, builder: b}, nil
}

// Width implements Rows.
func (f *FormattedRows) Width() int { return f.builder.Width() }

// SetWidth implements Rows. The cursor stays in the same paragraph.
func (f *FormattedRows) SetWidth(width int) error {
	if err := f.builder.SetWidth(width); err != nil {
		return err
	}
	f.Splitting.Invalidate()
	return nil
}
