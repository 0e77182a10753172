package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	// Composer
	Submit   key.Binding
	Newline  key.Binding
	NextTone key.Binding

	// History list
	Up         key.Binding
	Down       key.Binding
	Play       key.Binding
	Favorite   key.Binding
	Delete     key.Binding
	Copy       key.Binding
	Filter     key.Binding
	ToneFilter key.Binding
	Sort       key.Binding

	// Everywhere
	SwitchFocus key.Binding
	Cancel      key.Binding
	Help        key.Binding
	Quit        key.Binding
	ForceQuit   key.Binding

	historyFocused bool
}

func newKeyMap() keyMap {
	return keyMap{
		Submit:   key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "rewrite")),
		Newline:  key.NewBinding(key.WithKeys("alt+enter", "ctrl+j"), key.WithHelp("alt+enter", "newline")),
		NextTone: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "next tone")),

		Up:         key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:       key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Play:       key.NewBinding(key.WithKeys("p", "enter"), key.WithHelp("p", "play")),
		Favorite:   key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "favorite")),
		Delete:     key.NewBinding(key.WithKeys("d", "x"), key.WithHelp("d", "delete")),
		Copy:       key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "copy")),
		Filter:     key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		ToneFilter: key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "tone filter")),
		Sort:       key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "sort")),

		SwitchFocus: key.NewBinding(key.WithKeys("tab", "shift+tab"), key.WithHelp("tab", "switch pane")),
		Cancel:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		Help:        key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Quit:        key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
		ForceQuit:   key.NewBinding(key.WithKeys("ctrl+c")),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	if k.historyFocused {
		return []key.Binding{k.Play, k.Favorite, k.Delete, k.Filter, k.SwitchFocus, k.Help}
	}
	return []key.Binding{k.Submit, k.NextTone, k.SwitchFocus, k.Cancel}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Submit, k.Newline, k.NextTone, k.SwitchFocus},
		{k.Up, k.Down, k.Play, k.Favorite, k.Delete, k.Copy},
		{k.Filter, k.ToneFilter, k.Sort, k.Cancel, k.Help, k.Quit},
	}
}
