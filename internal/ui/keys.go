package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"xref-tui/internal/graph"
	"xref-tui/internal/tree"
)

type keyMap struct {
	Quit      key.Binding
	Tab       key.Binding
	Back      key.Binding
	Forward   key.Binding
	Filter    key.Binding
	Suggested key.Binding
	GoTo      key.Binding
	Copy      key.Binding
	Theme     key.Binding
	Help      key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	Tab:       key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next pane")),
	Back:      key.NewBinding(key.WithKeys("[", "backspace"), key.WithHelp("[", "back")),
	Forward:   key.NewBinding(key.WithKeys("]"), key.WithHelp("]", "forward")),
	Filter:    key.NewBinding(key.WithKeys("f"), key.WithHelp("f", "filter mode")),
	Suggested: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "suggested")),
	GoTo:      key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "go to verse")),
	Copy:      key.NewBinding(key.WithKeys("y"), key.WithHelp("y", "copy link")),
	Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Tab, k.Back, k.Forward, k.GoTo, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Tab, k.Back, k.Forward, k.GoTo, k.Copy},
		{k.Filter, k.Suggested, k.Theme, k.Help, k.Quit},
		{graph.Keys.Up, graph.Keys.Down, graph.Keys.Left, graph.Keys.Right, graph.Keys.Open, graph.Keys.Expand},
		{tree.Keys.Collapse, tree.Keys.Expand, tree.Keys.Activate},
	}
}
