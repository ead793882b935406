// Package markup parses lines of a book into a flat stream of structural
// tokens.
package markup

// Kind classifies a Token.
type Kind int

const (
	Word Kind = iota
	Begin
	End
)

func (k Kind) String() string {
	switch k {
	case Word:
		return "word"
	case Begin:
		return "begin"
	case End:
		return "end"
	default:
		return "unknown"
	}
}

// Well-known structural token texts.
const (
	Document  = "doc"
	Paragraph = "p"
)

// Token is one element of a parsed document. Begin and End tokens carry a
// style name or Paragraph in Text.
type Token struct {
	Text string
	Kind Kind
}

// Paragraph boundary tokens.
var (
	ParagraphBegin = Token{Text: Paragraph, Kind: Begin}
	ParagraphEnd   = Token{Text: Paragraph, Kind: End}
)

func (t Token) String() string {
	if t.Kind == End {
		return "/" + t.Text
	}
	return t.Text
}

// Style names a paragraph or character style.
type Style string

// Block and row styles.
const (
	Normal       Style = "Normal"
	Annotation   Style = "Annotation"
	Citation     Style = "Citation"
	Dedication   Style = "Dedication"
	Epigraph     Style = "Epigraph"
	Preformatted Style = "Preformatted"
	Information  Style = "Information"
	Letter       Style = "Letter"
	Poem         Style = "Poem"
	Sign         Style = "Sign"
	Table        Style = "Table"
	Title        Style = "Title"
	Heading1     Style = "Heading1"
	Heading2     Style = "Heading2"
	Heading3     Style = "Heading3"
	Heading4     Style = "Heading4"
	Heading5     Style = "Heading5"
	SubTitle     Style = "SubTitle"
	Author       Style = "Author"
	TableHeading Style = "TableHeading"
)

// Character styles.
const (
	Emphasis Style = "Emphasis"
	Strong   Style = "Strong"
)

var known = map[Style]bool{
	Normal: true, Annotation: true, Citation: true, Dedication: true,
	Epigraph: true, Preformatted: true, Information: true, Letter: true,
	Poem: true, Sign: true, Table: true, Title: true, Heading1: true,
	Heading2: true, Heading3: true, Heading4: true, Heading5: true,
	SubTitle: true, Author: true, TableHeading: true, Emphasis: true,
	Strong: true,
}

// ParseStyle returns the style named s.
func ParseStyle(s string) (Style, bool) {
	st := Style(s)
	return st, known[st]
}

// IsCharacter reports whether s applies to words rather than paragraphs.
func (s Style) IsCharacter() bool {
	return s == Emphasis || s == Strong
}
