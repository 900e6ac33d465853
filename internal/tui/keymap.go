package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	NextField key.Binding
	PrevField key.Binding
	Up        key.Binding
	Down      key.Binding

	// Actions
	Add            key.Binding
	Delete         key.Binding
	CategoryNext   key.Binding
	CategoryPrev   key.Binding
	DismissMessage key.Binding

	// Application
	Quit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextField: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next field"),
		),
		PrevField: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("Shift+Tab", "previous field"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Add: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "add expense"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d", "delete", "x"),
			key.WithHelp("d", "delete expense"),
		),
		CategoryNext: key.NewBinding(
			key.WithKeys("right", "l", " "),
			key.WithHelp("→", "next category"),
		),
		CategoryPrev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←", "previous category"),
		),
		DismissMessage: key.NewBinding(
			key.WithKeys("enter", "esc", " "),
			key.WithHelp("Enter/Esc", "dismiss"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "ctrl+q"),
			key.WithHelp("Ctrl+C", "quit"),
		),
	}
}
