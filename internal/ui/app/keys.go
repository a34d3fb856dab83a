package app

import (
	"github.com/charmbracelet/bubbles/key"
)

type KeyMap struct {
	// global
	Quit key.Binding
	Help key.Binding

	// browse
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Add     key.Binding
	Edit    key.Binding
	Delete  key.Binding
	Search  key.Binding
	Sort    key.Binding
	Save    key.Binding
	Reload  key.Binding
	Attach  key.Binding
	Files   key.Binding
	Copy    key.Binding
	Preview key.Binding
	Color   key.Binding

	// modals
	Tab       key.Binding
	ShiftTab  key.Binding
	Confirm   key.Binding
	Cancel    key.Binding
	Yes       key.Binding
	No        key.Binding
	External  key.Binding
	Toggle    key.Binding
	Increase  key.Binding
	Decrease  key.Binding
	PrevMatch key.Binding
	NextMatch key.Binding
	Open      key.Binding
	Remove    key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),

		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("←/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("→/l", "right"),
		),

		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e", "enter"),
			key.WithHelp("e", "edit"),
		),
		Delete: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "delete"),
		),
		Search: key.NewBinding(
			key.WithKeys("s", "/"),
			key.WithHelp("s", "search"),
		),
		Sort: key.NewBinding(
			key.WithKeys("o"),
			key.WithHelp("o", "sort"),
		),
		Save: key.NewBinding(
			key.WithKeys("ctrl+s"),
			key.WithHelp("ctrl+s", "save"),
		),
		Reload: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "reload"),
		),
		Attach: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "attach file"),
		),
		Files: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "files"),
		),
		Copy: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "copy content"),
		),
		Preview: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "preview"),
		),
		Color: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9", "0"),
			key.WithHelp("1-9", "color (0 resets)"),
		),

		Tab: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next field"),
		),
		ShiftTab: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev field"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "confirm"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
		Yes: key.NewBinding(
			key.WithKeys("y", "Y", "enter"),
			key.WithHelp("y", "yes"),
		),
		No: key.NewBinding(
			key.WithKeys("n", "N", "esc"),
			key.WithHelp("n", "no"),
		),
		External: key.NewBinding(
			key.WithKeys("ctrl+e"),
			key.WithHelp("ctrl+e", "$EDITOR"),
		),
		Toggle: key.NewBinding(
			key.WithKeys(" ", "enter"),
			key.WithHelp("space", "toggle"),
		),
		Increase: key.NewBinding(
			key.WithKeys("right", "+", "l"),
			key.WithHelp("→/+", "raise"),
		),
		Decrease: key.NewBinding(
			key.WithKeys("left", "-", "h"),
			key.WithHelp("←/-", "lower"),
		),
		PrevMatch: key.NewBinding(
			key.WithKeys("up", "ctrl+p"),
			key.WithHelp("↑", "prev match"),
		),
		NextMatch: key.NewBinding(
			key.WithKeys("down", "ctrl+n"),
			key.WithHelp("↓", "next match"),
		),
		Open: key.NewBinding(
			key.WithKeys("o", "enter"),
			key.WithHelp("o", "open"),
		),
		Remove: key.NewBinding(
			key.WithKeys("x", "delete"),
			key.WithHelp("x", "detach"),
		),
	}
}

func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{
		k.Help,
		k.Add,
		k.Edit,
		k.Delete,
		k.Search,
		k.Quit,
	}
}

func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.Left, k.Right},
		{k.Add, k.Edit, k.Delete},
		{k.Search, k.Sort, k.Color},
		{k.Attach, k.Files, k.Copy, k.Preview},
		{k.Save, k.Reload},
		{k.Help, k.Quit},
	}
}

func (k KeyMap) EditShortHelp() []key.Binding {
	return []key.Binding{
		k.Tab,
		k.Save,
		k.Cancel,
		k.External,
	}
}

func (k KeyMap) SearchShortHelp() []key.Binding {
	return []key.Binding{
		k.PrevMatch,
		k.NextMatch,
		k.Confirm,
		k.Cancel,
	}
}

func (k KeyMap) ConfirmShortHelp() []key.Binding {
	return []key.Binding{
		k.Yes,
		k.No,
	}
}

func (k KeyMap) FilesShortHelp() []key.Binding {
	return []key.Binding{
		k.PrevMatch,
		k.NextMatch,
		k.Open,
		k.Remove,
		k.Cancel,
	}
}

func (k KeyMap) InputShortHelp() []key.Binding {
	return []key.Binding{
		k.Confirm,
		k.Cancel,
	}
}

type modeKeyMap struct {
	KeyMap
	short func() []key.Binding
}

func (k modeKeyMap) ShortHelp() []key.Binding { return k.short() }
