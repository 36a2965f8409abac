// Package keymap holds the TUI key bindings, grouped by the screen that
// reads them. Several bindings share a key on different screens.
package keymap

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
)

// Screen selects the bindings that are live.
type Screen int

// Screens with their own bindings.
const (
	ScreenCollections Screen = iota
	ScreenQuery
	ScreenResults
	ScreenDocument
)

// KeyMap holds every binding used by the TUI.
type KeyMap struct {
	Up        key.Binding
	Down      key.Binding
	Help      key.Binding
	ForceQuit key.Binding

	// Collection picker.
	Pick   key.Binding
	Reload key.Binding
	Exit   key.Binding

	// Query input.
	Submit key.Binding
	Cancel key.Binding

	// Result list.
	PageUp   key.Binding
	PageDown key.Binding
	Open     key.Binding
	NewQuery key.Binding
	Quit     key.Binding

	// Document viewer.
	Close  key.Binding
	Top    key.Binding
	Bottom key.Binding
}

var _ help.KeyMap = (*KeyMap)(nil)

func bind(hint, desc string, keys ...string) key.Binding {
	return key.NewBinding(key.WithKeys(keys...), key.WithHelp(hint, desc))
}

// DefaultKeyMap returns the default bindings.
func DefaultKeyMap() *KeyMap {
	return &KeyMap{
		Up:        bind("↑/k", "up", "up", "k"),
		Down:      bind("↓/j", "down", "down", "j"),
		Help:      bind("?", "help", "?"),
		ForceQuit: bind("ctrl+c", "quit", "ctrl+c"),

		Pick:   bind("enter", "search", "enter"),
		Reload: bind("r", "reload", "r"),
		Exit:   bind("q", "quit", "q", "esc"),

		Submit: bind("enter", "submit", "enter"),
		Cancel: bind("esc", "collections", "esc"),

		PageUp:   bind("pgup", "prev page", "pgup", "left", "h"),
		PageDown: bind("pgdn", "next page", "pgdown", "right", "l"),
		Open:     bind("enter", "open", "enter"),
		NewQuery: bind("n", "new query", "n", "/"),
		Quit:     bind("q", "quit", "q"),

		Close:  bind("esc", "results", "esc", "q"),
		Top:    bind("g", "top", "g", "home"),
		Bottom: bind("G", "bottom", "G", "end"),
	}
}

// For returns the hints shown in the status bar on screen.
func (k *KeyMap) For(screen Screen) []key.Binding {
	switch screen {
	case ScreenQuery:
		return []key.Binding{k.Submit, k.Cancel}
	case ScreenResults:
		return []key.Binding{k.NewQuery, k.Up, k.Open, k.Cancel}
	case ScreenDocument:
		return []key.Binding{k.Up, k.Top, k.Bottom, k.Close}
	default:
		return []key.Binding{k.Up, k.Pick, k.Reload, k.Exit}
	}
}

// ShortHelp implements help.KeyMap.
func (k *KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.ForceQuit}
}

// FullHelp implements help.KeyMap with one column per screen.
func (k *KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Pick, k.Reload, k.Exit},
		{k.Submit, k.Cancel},
		{k.PageUp, k.PageDown, k.Open, k.NewQuery, k.Quit},
		{k.Top, k.Bottom, k.Close, k.ForceQuit},
	}
}
