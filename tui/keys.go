// client/tui/keys.go
package tui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	quit   key.Binding
	up     key.Binding
	down   key.Binding
	create key.Binding
	edit   key.Binding
	delete key.Binding
	reload key.Binding
	health key.Binding

	next      key.Binding
	prev      key.Binding
	important key.Binding
	toggle    key.Binding
	submit    key.Binding
	cancel    key.Binding

	yes key.Binding
	no  key.Binding
}

var keys = keyMap{
	quit:   key.NewBinding(key.WithKeys("q"), key.WithHelp("q", "quit")),
	up:     key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
	down:   key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
	create: key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new")),
	edit:   key.NewBinding(key.WithKeys("e", "enter"), key.WithHelp("e", "edit")),
	delete: key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete")),
	reload: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "reload")),
	health: key.NewBinding(key.WithKeys("h"), key.WithHelp("h", "health")),

	next:      key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "next")),
	prev:      key.NewBinding(key.WithKeys("shift+tab")),
	important: key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("ctrl+t", "important")),
	toggle:    key.NewBinding(key.WithKeys(" ", "enter")),
	submit:    key.NewBinding(key.WithKeys("ctrl+s"), key.WithHelp("ctrl+s", "save")),
	cancel:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "cancel")),

	yes: key.NewBinding(key.WithKeys("y", "Y", "enter")),
	no:  key.NewBinding(key.WithKeys("n", "N", "esc")),
}

func helpLine(bindings ...key.Binding) string {
	var s string
	for i, b := range bindings {
		if i > 0 {
			s += " • "
		}
		h := b.Help()
		s += h.Key + " " + h.Desc
	}
	return s
}
