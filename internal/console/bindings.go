package console

import "github.com/charmbracelet/bubbles/key"

// Bindings are the editor's key bindings. Each Editor owns its own copy.
type Bindings struct {
	ToggleMultiline  key.Binding
	Submit           key.Binding
	SubmitMultiline  key.Binding
	EOF              key.Binding
	Interrupt        key.Binding
	HistoryPrev      key.Binding
	HistoryNext      key.Binding
	AcceptSuggestion key.Binding
}

// DefaultBindings returns Ctrl-T to toggle multiline, Enter to submit
// (Alt/Esc+Enter in multiline mode), Ctrl-D for end of input, Ctrl-C to
// interrupt, Up/Down for history and Right/Ctrl-E to accept a suggestion.
func DefaultBindings() Bindings {
	return Bindings{
		ToggleMultiline: key.NewBinding(
			key.WithKeys("ctrl+t"),
			key.WithHelp("ctrl+t", "toggle multiline"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "run"),
		),
		SubmitMultiline: key.NewBinding(
			key.WithKeys("alt+enter"),
			key.WithHelp("esc enter", "run block"),
		),
		EOF: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "exit"),
		),
		Interrupt: key.NewBinding(
			key.WithKeys("ctrl+c"),
			key.WithHelp("ctrl+c", "exit"),
		),
		HistoryPrev: key.NewBinding(
			key.WithKeys("up"),
			key.WithHelp("↑", "previous"),
		),
		HistoryNext: key.NewBinding(
			key.WithKeys("down"),
			key.WithHelp("↓", "next"),
		),
		AcceptSuggestion: key.NewBinding(
			key.WithKeys("right", "ctrl+e"),
			key.WithHelp("→", "accept suggestion"),
		),
	}
}
