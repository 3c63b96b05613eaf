package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	NextTab   key.Binding
	PrevTab   key.Binding
	Toggle    key.Binding
	Select    key.Binding
	Up        key.Binding
	Down      key.Binding
	SendText  key.Binding
	Back      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

var defaultKeyMap = keyMap{
	NextTab:   key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next tab")),
	PrevTab:   key.NewBinding(key.WithKeys("shift+tab"), key.WithHelp("shift+tab", "prev tab")),
	Toggle:    key.NewBinding(key.WithKeys("d", " "), key.WithHelp("d/space", "toggle discovery")),
	Select:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose target")),
	Up:        key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	Down:      key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	SendText:  key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "send text")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back to devices")),
	Quit:      key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	ForceQuit: key.NewBinding(key.WithKeys("ctrl+c"), key.WithHelp("ctrl+c", "quit")),
}

// tabKeys is the help.KeyMap shown in the footer for the active tab.
type tabKeys struct {
	keys keyMap
	tab  tab
}

func (k tabKeys) ShortHelp() []key.Binding {
	switch k.tab {
	case tabText:
		return []key.Binding{k.keys.SendText, k.keys.NextTab, k.keys.Back, k.keys.ForceQuit}
	case tabFiles:
		return []key.Binding{k.keys.NextTab, k.keys.ForceQuit}
	default:
		return []key.Binding{k.keys.Up, k.keys.Down, k.keys.Select, k.keys.Toggle, k.keys.NextTab, k.keys.Quit}
	}
}

func (k tabKeys) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}
