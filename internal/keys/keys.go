// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// ReaderKeyMap defines the keybindings used while reading.
type ReaderKeyMap struct {
	// Navigation
	Down     key.Binding
	Up       key.Binding
	PageDown key.Binding
	PageUp   key.Binding
	Home     key.Binding

	// Bookmarks
	TOC         key.Binding
	AddBookmark key.Binding
	Bookmarks   key.Binding

	// General
	ToggleStatus key.Binding
	Help         key.Binding
	Quit         key.Binding
}

// DefaultReaderKeyMap returns the default reading keybindings.
func DefaultReaderKeyMap() ReaderKeyMap {
	return ReaderKeyMap{
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "next row"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "previous row"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", " ", "f"),
			key.WithHelp("pgdn/space", "next page"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "u"),
			key.WithHelp("pgup/u", "previous page"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first page"),
		),

		TOC: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "contents"),
		),
		AddBookmark: key.NewBinding(
			key.WithKeys("b"),
			key.WithHelp("b", "add bookmark"),
		),
		Bookmarks: key.NewBinding(
			key.WithKeys("B"),
			key.WithHelp("B", "bookmarks"),
		),

		ToggleStatus: key.NewBinding(
			key.WithKeys("w"),
			key.WithHelp("w", "toggle status bar"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k ReaderKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.PageDown, k.TOC, k.Bookmarks, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k ReaderKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Down, k.Up, k.PageDown, k.PageUp, k.Home}, // Navigation
		{k.TOC, k.AddBookmark, k.Bookmarks},          // Bookmarks
		{k.ToggleStatus, k.Help, k.Quit},             // General
	}
}

// ListKeyMap defines the keybindings for the contents and bookmark lists.
type ListKeyMap struct {
	Up     key.Binding
	Down   key.Binding
	Select key.Binding
	Delete key.Binding
	Close  key.Binding
}

// DefaultListKeyMap returns the default list keybindings.
func DefaultListKeyMap() ListKeyMap {
	return ListKeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "move down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "go to"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete"),
			key.WithHelp("d", "delete bookmark"),
		),
		Close: key.NewBinding(
			key.WithKeys("esc", "q"),
			key.WithHelp("esc", "back"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k ListKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Up, k.Down, k.Select, k.Delete, k.Close}
}

// FullHelp returns keybindings for the full help view.
func (k ListKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

// Reader and List are the default keymaps shared by the viewer.
var (
	Reader = DefaultReaderKeyMap()
	List   = DefaultListKeyMap()
)
