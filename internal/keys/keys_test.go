package keys

import (
	"testing"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"
)

func press(s string) tea.KeyMsg {
	switch s {
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "pgdown":
		return tea.KeyMsg{Type: tea.KeyPgDown}
	case "home":
		return tea.KeyMsg{Type: tea.KeyHome}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestReader_Matches(t *testing.T) {
	tests := []struct {
		key     string
		binding key.Binding
	}{
		{"j", Reader.Down},
		{"down", Reader.Down},
		{"k", Reader.Up},
		{"pgdown", Reader.PageDown},
		{" ", Reader.PageDown},
		{"u", Reader.PageUp},
		{"home", Reader.Home},
		{"t", Reader.TOC},
		{"b", Reader.AddBookmark},
		{"B", Reader.Bookmarks},
		{"q", Reader.Quit},
	}
	for _, tt := range tests {
		require.True(t, key.Matches(press(tt.key), tt.binding), tt.key)
	}
	require.False(t, key.Matches(press("b"), Reader.Bookmarks))
	require.False(t, key.Matches(press("B"), Reader.AddBookmark))
}

func TestReader_NoDuplicateKeys(t *testing.T) {
	seen := map[string]string{}
	for _, group := range Reader.FullHelp() {
		for _, b := range group {
			for _, k := range b.Keys() {
				prev, dup := seen[k]
				require.False(t, dup, "key %q bound to %q and %q", k, prev, b.Help().Desc)
				seen[k] = b.Help().Desc
			}
		}
	}
}

func TestReader_HelpTextComplete(t *testing.T) {
	for _, group := range Reader.FullHelp() {
		for _, b := range group {
			require.NotEmpty(t, b.Help().Key)
			require.NotEmpty(t, b.Help().Desc)
		}
	}
	require.Len(t, Reader.ShortHelp(), 5)
}

func TestList_Matches(t *testing.T) {
	require.True(t, key.Matches(press("enter"), List.Select))
	require.True(t, key.Matches(press("esc"), List.Close))
	require.True(t, key.Matches(press("d"), List.Delete))
	require.True(t, key.Matches(press("j"), List.Down))
	require.Len(t, List.FullHelp(), 1)
}
