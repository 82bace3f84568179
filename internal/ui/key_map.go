package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up     key.Binding
	down   key.Binding
	side   key.Binding
	start  key.Binding
	enter  key.Binding
	cancel key.Binding
	hover  key.Binding
	remove key.Binding
	reset  key.Binding
	save   key.Binding
	yes    key.Binding
	no     key.Binding
	help   key.Binding
	quit   key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		side:   key.NewBinding(key.WithKeys("tab", "left", "right", "h", "l"), key.WithHelp("tab", "switch side")),
		start:  key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "start link")),
		enter:  key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "connect/fold")),
		cancel: key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),
		hover:  key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "cycle links")),
		remove: key.NewBinding(key.WithKeys("x", "delete"), key.WithHelp("x", "delete link")),
		reset:  key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reset")),
		save:   key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "save")),
		yes:    key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "yes")),
		no:     key.NewBinding(key.WithKeys("n", "esc"), key.WithHelp("n", "no")),
		help:   key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		quit:   key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.start, k.enter, k.side, k.save, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.side},
		{k.start, k.enter, k.cancel},
		{k.hover, k.remove},
		{k.reset, k.save, k.help, k.quit},
	}
}
