// client/tui/prompt.go
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

type confirmMsg struct{ text string }

type alertMsg string

// prompter turns the form's blocking dialogs into program messages. Confirm
// is only ever called from a command goroutine, never from Update, so
// waiting on the answer does not stall the event loop.
type prompter struct {
	send    func(tea.Msg)
	answers chan bool
	done    chan struct{}
}

func newPrompter() *prompter {
	return &prompter{
		answers: make(chan bool, 1),
		done:    make(chan struct{}),
	}
}

func (p *prompter) Confirm(msg string) bool {
	p.send(confirmMsg{text: msg})
	select {
	case ok := <-p.answers:
		return ok
	case <-p.done:
		return false
	}
}

func (p *prompter) Alert(msg string) {
	p.send(alertMsg(msg))
}

// answer is called from Update; the buffer keeps it from blocking.
func (p *prompter) answer(ok bool) {
	select {
	case p.answers <- ok:
	default:
	}
}

func (p *prompter) close() {
	select {
	case <-p.done:
	default:
		close(p.done)
	}
}
