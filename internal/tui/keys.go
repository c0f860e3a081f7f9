package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up      key.Binding
	Down    key.Binding
	Open    key.Binding
	Flip    key.Binding
	Next    key.Binding
	Prev    key.Binding
	Star    key.Binding
	Delete  key.Binding
	Refresh key.Binding
	Dismiss key.Binding
	Back    key.Binding
	Quit    key.Binding

	reviewing bool
}

func defaultKeys() keyMap {
	return keyMap{
		Up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "study")),
		Flip:    key.NewBinding(key.WithKeys(" ", "enter"), key.WithHelp("space", "flip")),
		Next:    key.NewBinding(key.WithKeys("right", "l"), key.WithHelp("→/l", "next")),
		Prev:    key.NewBinding(key.WithKeys("left", "h"), key.WithHelp("←/h", "previous")),
		Star:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "star")),
		Delete:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete set")),
		Refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		Dismiss: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "dismiss notice")),
		Back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	if k.reviewing {
		return []key.Binding{k.Flip, k.Next, k.Prev, k.Star, k.Delete, k.Back, k.Quit}
	}
	return []key.Binding{k.Up, k.Down, k.Open, k.Delete, k.Refresh, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp(), {k.Dismiss}}
}
