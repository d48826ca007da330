// client/session/form.go
package session

import (
	"context"
	"errors"
	"sync"

	"github.com/ViniZap4/lumi-client/domain"
)

const (
	PromptIncomplete    = "Please fill in all fields"
	PromptConfirmDelete = "Are you sure you want to delete this note?"
)

// ErrBusy is returned when a submission is already in flight.
var ErrBusy = errors.New("session: submission in progress")

// Prompter is the view's blocking dialog surface.
type Prompter interface {
	// Confirm blocks until the user answers yes or no.
	Confirm(msg string) bool
	Alert(msg string)
}

// Form is the submission step in front of the controller. It validates
// input, rejects double submits and asks for delete confirmation.
type Form struct {
	ctrl   *Controller
	prompt Prompter

	mu       sync.Mutex
	inFlight bool
}

func NewForm(ctrl *Controller, prompt Prompter) *Form {
	return &Form{ctrl: ctrl, prompt: prompt}
}

// Busy reports whether a submission is outstanding, so views can disable
// their submit control.
func (f *Form) Busy() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight
}

// Submit creates a note, or updates the one being edited. reset is true
// when the caller should clear its fields, which only happens after a
// successful create.
func (f *Form) Submit(ctx context.Context, data domain.NoteData) (reset bool, err error) {
	if err := data.Validate(); err != nil {
		f.prompt.Alert(PromptIncomplete)
		return false, err
	}
	if !f.acquire() {
		return false, ErrBusy
	}
	defer f.release()

	if f.ctrl.State().Editing != nil {
		_, err = f.ctrl.UpdateNote(ctx, data)
		return false, err
	}
	if _, err = f.ctrl.CreateNote(ctx, data); err != nil {
		return false, err
	}
	return true, nil
}

// Delete asks for confirmation and removes the note. A declined prompt is
// a no-op and reports deleted=false with a nil error.
func (f *Form) Delete(ctx context.Context, id domain.NoteID) (deleted bool, err error) {
	if !f.prompt.Confirm(PromptConfirmDelete) {
		return false, nil
	}
	if err := f.ctrl.DeleteNote(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (f *Form) acquire() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.inFlight {
		return false
	}
	f.inFlight = true
	return true
}

func (f *Form) release() {
	f.mu.Lock()
	f.inFlight = false
	f.mu.Unlock()
}
