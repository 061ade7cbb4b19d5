package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines all keyboard shortcuts.
type KeyMap struct {
	// Navigation
	Up       key.Binding
	Down     key.Binding
	NextPage key.Binding
	PrevPage key.Binding
	Home     key.Binding

	// Sorting
	NextColumn key.Binding
	PrevColumn key.Binding
	CycleSort  key.Binding

	// Filters
	FilterStore    key.Binding
	FilterDate     key.Binding
	FilterAmount   key.Binding
	FilterCategory key.Binding
	CycleStatus    key.Binding
	NextBadge      key.Binding
	PrevBadge      key.Binding
	ResetBadge     key.Binding
	ResetAll       key.Binding

	// Input
	Submit key.Binding
	Cancel key.Binding

	// Application
	Refresh   key.Binding
	Help      key.Binding
	Quit      key.Binding
	ForceQuit key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("↑/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("↓/j", "down"),
		),
		NextPage: key.NewBinding(
			key.WithKeys("l", "right", "pgdown"),
			key.WithHelp("→/l", "next page"),
		),
		PrevPage: key.NewBinding(
			key.WithKeys("h", "left", "pgup"),
			key.WithHelp("←/h", "previous page"),
		),
		Home: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "first page"),
		),

		NextColumn: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("Tab", "next column"),
		),
		PrevColumn: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("S-Tab", "previous column"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort column"),
		),

		FilterStore: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter store"),
		),
		FilterDate: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "filter dates"),
		),
		FilterAmount: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "filter amount"),
		),
		FilterCategory: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "filter categories"),
		),
		CycleStatus: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "cycle status"),
		),
		NextBadge: key.NewBinding(
			key.WithKeys("]"),
			key.WithHelp("]", "next badge"),
		),
		PrevBadge: key.NewBinding(
			key.WithKeys("["),
			key.WithHelp("[", "previous badge"),
		),
		ResetBadge: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear badge"),
		),
		ResetAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear all"),
		),

		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("Enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("Esc", "cancel"),
		),

		Refresh: key.NewBinding(
			key.WithKeys("r", "ctrl+r"),
			key.WithHelp("r", "refresh"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		ForceQuit: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("Ctrl+C", "force quit"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextPage, k.PrevPage, k.CycleSort, k.FilterStore, k.Help, k.Quit}
}

// FullHelp returns all key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Up, k.Down, k.NextPage, k.PrevPage, k.Home},
		{k.NextColumn, k.PrevColumn, k.CycleSort},
		{k.FilterStore, k.FilterDate, k.FilterAmount, k.FilterCategory, k.CycleStatus},
		{k.NextBadge, k.PrevBadge, k.ResetBadge, k.ResetAll},
		{k.Refresh, k.Help, k.Quit},
	}
}
