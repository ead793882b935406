package markup

import (
	"slices"
	"strings"

	"github.com/zjrosen/peruse/internal/cursor"
)

type marker struct {
	prefix string
	style  Style
}

// Block markers occupy a whole line: "P>" opens a poem, "P$" closes it.
var blockMarkers = []marker{
	{"A", Annotation},
	{"C", Citation},
	{"D", Dedication},
	{"E", Epigraph},
	{"F", Preformatted},
	{"I", Information},
	{"L", Letter},
	{"P", Poem},
	{"S", Sign},
	{"T", Table},
}

// Row markers prefix a line and are followed by a tab.
var rowMarkers = []marker{
	{"|", Title},
	{">>>>>", Heading5},
	{">>>>", Heading4},
	{">>>", Heading3},
	{">>", Heading2},
	{">", Heading1},
	{"#", SubTitle},
	{"@", Author},
	{"!", TableHeading},
	{"F", Preformatted},
	{"S", Sign},
}

// NewSFB creates a token cursor over lines written in the SFB markup.
func NewSFB(lines cursor.Cursor[string]) (*cursor.Splitting[Token], error) {
	return cursor.NewSplitting[Token](cursor.NewCachedMapping(lines, ParseSFBLine))
}

// ParseSFBLine parses one SFB line. The result is never empty.
func ParseSFBLine(line string) []Token {
	for _, m := range blockMarkers {
		switch line {
		case m.prefix + ">":
			return []Token{{Text: string(m.style), Kind: Begin}}
		case m.prefix + "$":
			return []Token{{Text: string(m.style), Kind: End}}
		}
	}

	for _, m := range rowMarkers {
		if rest, ok := strings.CutPrefix(line, m.prefix+"\t"); ok {
			out := []Token{{Text: string(m.style), Kind: Begin}, ParagraphBegin}
			out = append(out, words(rest)...)
			return append(out, ParagraphEnd, Token{Text: string(m.style), Kind: End})
		}
	}

	out := []Token{ParagraphBegin}
	out = append(out, words(line)...)
	return append(out, ParagraphEnd)
}

// words splits a paragraph into Word tokens, turning _emphasis_ and
// __strong__ markers into style tokens. Styles left open are closed at the
// end of the paragraph.
func words(line string) []Token {
	var out []Token
	var open []Style
	for _, w := range strings.Fields(line) {
		switch {
		case strings.HasPrefix(w, "__"):
			open = append(open, Strong)
			out = append(out, Token{Text: string(Strong), Kind: Begin})
			w = w[2:]
		case strings.HasPrefix(w, "_"):
			open = append(open, Emphasis)
			out = append(out, Token{Text: string(Emphasis), Kind: Begin})
			w = w[1:]
		}

		var closing Style
		switch {
		case strings.HasSuffix(w, "__"):
			w, closing = w[:len(w)-2], Strong
		case strings.HasSuffix(w, "_"):
			w, closing = w[:len(w)-1], Emphasis
		}

		if w != "" {
			out = append(out, Token{Text: w, Kind: Word})
		}
		if closing != "" && slices.Contains(open, closing) {
			for {
				top := open[len(open)-1]
				open = open[:len(open)-1]
				out = append(out, Token{Text: string(top), Kind: End})
				if top == closing {
					break
				}
			}
		}
	}
	for i := len(open) - 1; i >= 0; i-- {
		out = append(out, Token{Text: string(open[i]), Kind: End})
	}
	return out
}

// HeadingLevel returns the heading level of an SFB line: the number of
// leading '>' characters, at most five, or zero when the line is not a
// heading.
func HeadingLevel(line string) int {
	level := 0
	for level < len(line) && level < 5 && line[level] == '>' {
		level++
	}
	return level
}

// HeadingText returns the text of a heading line without its marker.
func HeadingText(line string) string {
	return strings.TrimSpace(line[HeadingLevel(line):])
}
