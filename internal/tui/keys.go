package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Select   key.Binding
	Shortcut key.Binding
	Hide     key.Binding
	DevTools key.Binding
	Quit     key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select item"),
		),
		Shortcut: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "simulate shortcut"),
		),
		Hide: key.NewBinding(
			key.WithKeys("esc", "h"),
			key.WithHelp("esc/h", "hide"),
		),
		DevTools: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "dev tools"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "detach"),
		),
	}
}

// ShortHelp implements help.KeyMap.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Select, k.Shortcut, k.Hide, k.DevTools, k.Quit}
}

// FullHelp implements help.KeyMap.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
