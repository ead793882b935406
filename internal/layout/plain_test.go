package layout

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/peruse/internal/cursor"
	"github.com/zjrosen/peruse/internal/markup"
)

func texts(rows []Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r.Text()
	}
	return out
}

func TestReflow(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		width int
		want  []string
	}{
		{"fits", "hello world", 20, []string{"hello world"}},
		{"wraps", "hello brave new world", 11, []string{"hello brave", "new world"}},
		{"keeps inner spacing", "a  b", 10, []string{"a  b"}},
		{"keeps paragraph indent", "   a b", 10, []string{"   a b"}},
		{"drops indent on later rows", "aaa    bbb", 4, []string{"aaa", "bbb"}},
		{"empty", "", 10, []string{""}},
		{"whitespace only", "   ", 10, []string{""}},
		{"long word split", "abcdefghij", 4, []string{"abcd", "efgh", "ij"}},
		{"long word after text", "xy abcdefgh", 5, []string{"xy", "abcde", "fgh"}},
		{"wide runes", "日本語テキスト", 6, []string{"日本語", "テキス", "ト"}},
		{"wide rune wider than row", "日", 1, []string{"日"}},
		{"tab stops", "a\tb", 10, []string{"a   b"}},
		{"trailing whitespace", "ab   ", 3, []string{"ab"}},
		{"indent too wide for word", "      word", 6, []string{"word"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := Reflow(tt.line, tt.width, 4)
			require.Equal(t, tt.want, texts(rows))
			require.True(t, rows[0].First)
			for _, r := range rows[1:] {
				require.False(t, r.First)
			}
		})
	}
}

func TestReflow_NeverLosesText(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		line := rapid.StringMatching(`[a-z ]{0,40}`).Draw(t, "line")
		width := rapid.IntRange(1, 12).Draw(t, "width")

		rows := Reflow(line, width, 4)
		require.NotEmpty(t, rows)
		var words []string
		for _, r := range rows {
			require.LessOrEqual(t, r.Width, max(width, 1))
			words = append(words, strings.Fields(r.Text())...)
		}
		require.Equal(t, strings.Join(strings.Fields(line), ""), strings.Join(words, ""))
	})
}

func newPlain(t *testing.T, width int, lines ...string) *PlainRows {
	t.Helper()
	lc, err := cursor.NewArray(lines)
	require.NoError(t, err)
	p, err := NewPlainRows(markup.NewPlain(lc), width, 4)
	require.NoError(t, err)
	return p
}

func TestPlainRows_Walk(t *testing.T) {
	p := newPlain(t, 5, "one two", "", "three")

	rows, err := cursor.Collect[Row](p)
	require.NoError(t, err)
	require.Equal(t, []string{"one", "two", "", "three"}, texts(rows))

	back, err := cursor.CollectBackward[Row](p)
	require.NoError(t, err)
	require.Equal(t, []string{"three", "", "two", "one"}, texts(back))
}

func TestPlainRows_SetWidthStaysInParagraph(t *testing.T) {
	p := newPlain(t, 5, "first", "aa bb cc dd")
	_, err := cursor.Skip[Row](p, 2)
	require.NoError(t, err)
	require.Equal(t, "cc dd", p.Current().Text())

	require.NoError(t, p.SetWidth(40))
	require.Equal(t, 40, p.Width())
	require.Equal(t, "aa bb cc dd", p.Current().Text())
	require.True(t, p.IsLast())

	require.NoError(t, p.Prev())
	require.Equal(t, "first", p.Current().Text())
}

func TestPlainRows_PositionClampedAfterResize(t *testing.T) {
	p := newPlain(t, 3, "aa bb cc", "dd")
	_, err := cursor.Skip[Row](p, 2)
	require.NoError(t, err)
	pos := p.Position()
	require.Equal(t, "cc", p.Current().Text())

	require.NoError(t, p.SetWidth(80))
	require.NoError(t, p.SetPosition(pos))
	require.Equal(t, "aa bb cc", p.Current().Text())
}
