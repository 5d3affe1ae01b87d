package ui

import "github.com/charmbracelet/bubbles/key"

type KeyMap struct {
	Up, Down, Open, Back key.Binding
	Pause, Quit, Yank    key.Binding
}

var Keys = KeyMap{
	Up:    key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:  key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	Open:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "open")),
	Back:  key.NewBinding(key.WithKeys("esc", "backspace"), key.WithHelp("esc", "back")),
	Pause: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "pause")),
	Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Yank:  key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yank to clipboard")),
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Up,
		k.Down,
		k.Open,
		k.Back,
		k.Pause,
		k.Yank,
		k.Quit,
	}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{
			k.Up,
			k.Down,
			k.Open,
			k.Back,
		},
		{
			k.Pause,
			k.Yank,
			k.Quit,
		},
	}
}
