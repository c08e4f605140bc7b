package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Quit             key.Binding
	Search           key.Binding
	FilterSeverity   key.Binding
	FilterProvenance key.Binding
	FilterRule       key.Binding
	Sort             key.Binding
	Copy             key.Binding
	ClearFilter      key.Binding
}

var keys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	Search: key.NewBinding(
		key.WithKeys("/"),
		key.WithHelp("/", "search"),
	),
	FilterSeverity: key.NewBinding(
		key.WithKeys("f"),
		key.WithHelp("f", "cycle severity"),
	),
	FilterProvenance: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "cycle source"),
	),
	FilterRule: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "filter rule"),
	),
	Sort: key.NewBinding(
		key.WithKeys("s"),
		key.WithHelp("s", "cycle sort"),
	),
	Copy: key.NewBinding(
		key.WithKeys("c"),
		key.WithHelp("c", "copy"),
	),
	ClearFilter: key.NewBinding(
		key.WithKeys("esc"),
		key.WithHelp("esc", "clear"),
	),
}
