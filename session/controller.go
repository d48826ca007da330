// client/session/controller.go

// Package session owns the client's in-memory note state and drives it in
// response to user actions, calling the remote gateway and notifying views.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-client/domain"
	"github.com/ViniZap4/lumi-client/gateway"
)

const (
	// DefaultSuccessTTL is how long a success banner stays visible.
	DefaultSuccessTTL = 3000 * time.Millisecond

	MsgCreated = "Note created successfully!"
	MsgUpdated = "Note updated successfully!"
	MsgDeleted = "Note deleted successfully!"
)

// ErrNotEditing is returned by UpdateNote when no note is loaded in the form.
var ErrNotEditing = errors.New("session: no note is being edited")

// Gateway is the subset of the remote API the controller needs.
type Gateway interface {
	ListNotes(ctx context.Context) ([]domain.Note, error)
	CreateNote(ctx context.Context, data domain.NoteData) (*domain.Note, error)
	UpdateNote(ctx context.Context, id domain.NoteID, data domain.NoteData) (*domain.Note, error)
	DeleteNote(ctx context.Context, id domain.NoteID) error
	HealthCheck(ctx context.Context) (*domain.HealthStatus, error)
}

// Scheduler runs f once after d and returns a function that cancels it.
// f must not run before the Scheduler returns.
type Scheduler func(d time.Duration, f func()) (stop func() bool)

func afterFunc(d time.Duration, f func()) func() bool {
	return time.AfterFunc(d, f).Stop
}

type Option func(*Controller)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

func WithSuccessTTL(d time.Duration) Option {
	return func(c *Controller) {
		if d > 0 {
			c.successTTL = d
		}
	}
}

// WithNotifier registers a subscriber. It may be given more than once.
func WithNotifier(n Notifier) Option {
	return func(c *Controller) {
		if n != nil {
			c.notifiers = append(c.notifiers, n)
		}
	}
}

func WithScheduler(s Scheduler) Option {
	return func(c *Controller) {
		if s != nil {
			c.schedule = s
		}
	}
}

// Controller mediates between user actions and the Gateway.
//
// Actions are not de-duplicated: callers are expected to disable the
// triggering control while an action is in flight. Two different actions
// may overlap; whichever finishes last writes last. The mutex only keeps
// the state consistent in memory and is never held across a gateway call.
type Controller struct {
	gw         Gateway
	log        zerolog.Logger
	successTTL time.Duration
	schedule   Scheduler
	notifiers  []Notifier

	// notifyMu serialises transitions with their notifications so
	// subscribers observe snapshots in order. Notifiers must not call back
	// into the controller synchronously.
	notifyMu sync.Mutex
	mu       sync.Mutex
	state    State

	// successEpoch identifies the success message a pending timer may clear.
	successEpoch uint64
	stopSuccess  func() bool
}

func New(gw Gateway, opts ...Option) *Controller {
	c := &Controller{
		gw:         gw,
		log:        zerolog.Nop(),
		successTTL: DefaultSuccessTTL,
		schedule:   afterFunc,
		state: State{
			Notes:   []domain.Note{},
			Loading: true,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Subscribe adds a notifier after construction.
func (c *Controller) Subscribe(n Notifier) {
	if n == nil {
		return
	}
	c.mu.Lock()
	c.notifiers = append(c.notifiers, n)
	c.mu.Unlock()
}

// State returns a snapshot of the current session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.clone()
}

// Start performs the initial list fetch and health probe.
func (c *Controller) Start(ctx context.Context) {
	_ = c.LoadNotes(ctx)
	c.CheckHealth(ctx)
}

func (c *Controller) LoadNotes(ctx context.Context) error {
	c.update(func(s *State) {
		s.Loading = true
		s.Error = ""
	})

	notes, err := c.gw.ListNotes(ctx)
	if err != nil {
		c.log.Error().Err(err).Msg("load notes")
		c.update(func(s *State) {
			s.Loading = false
			s.Error = gateway.Message(err)
		})
		return err
	}

	c.log.Debug().Int("count", len(notes)).Msg("notes loaded")
	c.update(func(s *State) {
		s.Loading = false
		s.Notes = append([]domain.Note{}, notes...)
	})
	return nil
}

// CheckHealth never fails; a failed probe is recorded as disconnected.
func (c *Controller) CheckHealth(ctx context.Context) {
	status, err := c.gw.HealthCheck(ctx)
	if err != nil {
		c.log.Warn().Err(err).Msg("health check failed")
		disconnected := domain.Disconnected()
		status = &disconnected
	}
	health := *status
	c.update(func(s *State) {
		s.Health = &health
	})
}

// CreateNote submits data and prepends the created note. The error is
// returned so the form can keep its fields.
func (c *Controller) CreateNote(ctx context.Context, data domain.NoteData) (*domain.Note, error) {
	c.clearError()

	note, err := c.gw.CreateNote(ctx, data)
	if err != nil {
		c.fail("create note", err)
		return nil, err
	}

	created := *note
	c.log.Info().Str("id", created.ID.String()).Msg("note created")
	c.update(func(s *State) {
		s.Notes = append([]domain.Note{created}, s.Notes...)
		c.setSuccessLocked(s, MsgCreated)
	})
	return note, nil
}

// EditNote loads note into the form.
func (c *Controller) EditNote(note domain.Note) {
	c.update(func(s *State) {
		n := note
		s.Editing = &n
		s.Error = ""
	})
}

func (c *Controller) CancelEdit() {
	c.update(func(s *State) {
		s.Editing = nil
		s.Error = ""
	})
}

// UpdateNote sends data for the note being edited. On failure the note
// stays loaded in the form.
func (c *Controller) UpdateNote(ctx context.Context, data domain.NoteData) (*domain.Note, error) {
	var id domain.NoteID
	editing := c.transition(func(s *State) bool {
		if s.Editing == nil {
			return false
		}
		id = s.Editing.ID
		s.Error = ""
		return true
	})
	if !editing {
		return nil, ErrNotEditing
	}

	note, err := c.gw.UpdateNote(ctx, id, data)
	if err != nil {
		c.fail("update note", err)
		return nil, err
	}

	updated := *note
	c.log.Info().Str("id", id.String()).Msg("note updated")
	c.update(func(s *State) {
		for i := range s.Notes {
			if s.Notes[i].ID == id {
				s.Notes[i] = updated
			}
		}
		s.Editing = nil
		c.setSuccessLocked(s, MsgUpdated)
	})
	return note, nil
}

func (c *Controller) DeleteNote(ctx context.Context, id domain.NoteID) error {
	c.clearError()

	if err := c.gw.DeleteNote(ctx, id); err != nil {
		c.fail("delete note", err)
		return err
	}

	c.log.Info().Str("id", id.String()).Msg("note deleted")
	c.update(func(s *State) {
		kept := s.Notes[:0:0]
		for _, n := range s.Notes {
			if n.ID != id {
				kept = append(kept, n)
			}
		}
		s.Notes = kept
		c.setSuccessLocked(s, MsgDeleted)
	})
	return nil
}

func (c *Controller) clearError() {
	c.update(func(s *State) {
		s.Error = ""
	})
}

func (c *Controller) fail(action string, err error) {
	c.log.Error().Err(err).Msg(action)
	c.update(func(s *State) {
		s.Error = gateway.Message(err)
	})
}

// setSuccessLocked shows msg and re-arms the single auto-clear timer.
// The timer only clears the message it was armed for.
func (c *Controller) setSuccessLocked(s *State, msg string) {
	s.Success = msg
	if c.stopSuccess != nil {
		c.stopSuccess()
	}
	c.successEpoch++
	epoch := c.successEpoch
	c.stopSuccess = c.schedule(c.successTTL, func() {
		c.clearSuccess(epoch)
	})
}

func (c *Controller) clearSuccess(epoch uint64) {
	c.transition(func(s *State) bool {
		if epoch != c.successEpoch || s.Success == "" {
			return false
		}
		s.Success = ""
		c.stopSuccess = nil
		return true
	})
}

func (c *Controller) update(fn func(s *State)) {
	c.transition(func(s *State) bool {
		fn(s)
		return true
	})
}

// transition applies fn under the state lock. When fn reports a change,
// subscribers get the resulting snapshot after the lock is released.
func (c *Controller) transition(fn func(s *State) bool) bool {
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()

	c.mu.Lock()
	changed := fn(&c.state)
	if !changed {
		c.mu.Unlock()
		return false
	}
	snapshot := c.state.clone()
	notifiers := append([]Notifier(nil), c.notifiers...)
	c.mu.Unlock()

	for _, n := range notifiers {
		n.Notify(snapshot)
	}
	return true
}
