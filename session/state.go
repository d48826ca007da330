// client/session/state.go
package session

import "github.com/ViniZap4/lumi-client/domain"

// State is a snapshot of the session as seen by views. Empty Error and
// Success mean no banner; a nil Editing means the form is in create mode.
type State struct {
	Notes   []domain.Note        `json:"notes"`
	Loading bool                 `json:"loading"`
	Error   string               `json:"error,omitempty"`
	Success string               `json:"success,omitempty"`
	Editing *domain.Note         `json:"editing_note,omitempty"`
	Health  *domain.HealthStatus `json:"health_status,omitempty"`
}

// clone returns a deep copy so subscribers never share memory with the controller.
func (s State) clone() State {
	out := s
	out.Notes = make([]domain.Note, len(s.Notes))
	copy(out.Notes, s.Notes)
	if s.Editing != nil {
		n := *s.Editing
		out.Editing = &n
	}
	if s.Health != nil {
		h := *s.Health
		out.Health = &h
	}
	return out
}

// Find returns the note with the given id from the snapshot.
func (s State) Find(id domain.NoteID) (domain.Note, bool) {
	for _, n := range s.Notes {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Note{}, false
}

// Notifier receives a snapshot after every state transition.
type Notifier interface {
	Notify(State)
}

// NotifyFunc adapts a function to Notifier.
type NotifyFunc func(State)

func (f NotifyFunc) Notify(s State) { f(s) }
