// client/http/handlers.go
package http

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"

	"github.com/ViniZap4/lumi-client/domain"
	"github.com/ViniZap4/lumi-client/events"
	"github.com/ViniZap4/lumi-client/gateway"
	"github.com/ViniZap4/lumi-client/session"
)

const keepAliveInterval = 15 * time.Second

// NoteFetcher reads a single note straight from the backend.
type NoteFetcher interface {
	GetNote(ctx context.Context, id domain.NoteID) (*domain.Note, error)
}

type Server struct {
	ctrl  *session.Controller
	notes NoteFetcher
	hub   *events.Hub
	form  *session.Form
	log   zerolog.Logger
}

func NewServer(ctrl *session.Controller, notes NoteFetcher, hub *events.Hub, log zerolog.Logger) *Server {
	s := &Server{ctrl: ctrl, notes: notes, hub: hub, log: log}
	s.form = session.NewForm(ctrl, loggingPrompter{log: log})
	return s
}

type actionResponse struct {
	Reset   bool          `json:"reset,omitempty"`
	Deleted bool          `json:"deleted,omitempty"`
	State   session.State `json:"state"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) HandleState(c *fiber.Ctx) error {
	return c.JSON(s.ctrl.State())
}

func (s *Server) HandleReload(c *fiber.Ctx) error {
	if err := s.ctrl.LoadNotes(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(s.ctrl.State())
}

func (s *Server) HandleHealth(c *fiber.Ctx) error {
	s.ctrl.CheckHealth(c.UserContext())
	return c.JSON(s.ctrl.State())
}

// HandleSubmit creates a note, or updates the one loaded for editing.
func (s *Server) HandleSubmit(c *fiber.Ctx) error {
	var data domain.NoteData
	if err := c.BodyParser(&data); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	reset, err := s.form.Submit(c.UserContext(), data)
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Reset: reset, State: s.ctrl.State()})
}

func (s *Server) HandleGetNote(c *fiber.Ctx) error {
	id := domain.NoteID(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Note ID required")
	}

	note, err := s.notes.GetNote(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(note)
}

func (s *Server) HandleEdit(c *fiber.Ctx) error {
	id := domain.NoteID(c.Params("id"))
	note, ok := s.ctrl.State().Find(id)
	if !ok {
		return fiber.NewError(fiber.StatusNotFound, "Note not found")
	}

	s.ctrl.EditNote(note)
	return c.JSON(s.ctrl.State())
}

func (s *Server) HandleCancelEdit(c *fiber.Ctx) error {
	s.ctrl.CancelEdit()
	return c.JSON(s.ctrl.State())
}

// HandleDelete takes the user's answer to the confirmation prompt from the
// confirm query parameter; anything but true declines.
func (s *Server) HandleDelete(c *fiber.Ctx) error {
	id := domain.NoteID(c.Params("id"))
	if id == "" {
		return fiber.NewError(fiber.StatusBadRequest, "Note ID required")
	}

	form := session.NewForm(s.ctrl, answeredPrompter(c.QueryBool("confirm", false)))
	deleted, err := form.Delete(c.UserContext(), id)
	if err != nil {
		return err
	}
	return c.JSON(actionResponse{Deleted: deleted, State: s.ctrl.State()})
}

// HandleEvents streams state snapshots as server-sent events, starting
// with the current one.
func (s *Server) HandleEvents(c *fiber.Ctx) error {
	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")

	ctx, cancel := context.WithCancel(context.Background())
	ch, unsubscribe := s.hub.Subscribe(ctx)
	initial := events.Message{Type: events.TypeState, State: s.ctrl.State()}

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer cancel()
		defer unsubscribe()

		if err := writeEvent(w, initial); err != nil {
			return
		}

		ticker := time.NewTicker(keepAliveInterval)
		defer ticker.Stop()
		for {
			select {
			case msg, ok := <-ch:
				if !ok {
					return
				}
				if err := writeEvent(w, msg); err != nil {
					s.log.Debug().Err(err).Msg("event stream closed")
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil {
					return
				}
				if err := w.Flush(); err != nil {
					return
				}
			}
		}
	}))
	return nil
}

func writeEvent(w *bufio.Writer, msg events.Message) error {
	data, err := json.Marshal(msg.State)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", msg.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

// handleError maps domain and gateway failures onto HTTP statuses.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	msg := err.Error()

	var fe *fiber.Error
	var gwErr *gateway.Error
	switch {
	case errors.As(err, &fe):
		status = fe.Code
		msg = fe.Message
	case errors.Is(err, domain.ErrIncomplete):
		status = fiber.StatusBadRequest
		msg = session.PromptIncomplete
	case errors.Is(err, session.ErrNotEditing), errors.Is(err, session.ErrBusy):
		status = fiber.StatusConflict
	case errors.Is(err, gateway.ErrNotFound):
		status = fiber.StatusNotFound
		msg = gateway.Message(err)
	case errors.As(err, &gwErr):
		status = fiber.StatusBadGateway
		msg = gwErr.Error()
	}

	if status >= fiber.StatusInternalServerError {
		s.log.Error().Err(err).Str("path", c.Path()).Int("status", status).Msg("request failed")
	}
	return c.Status(status).JSON(errorResponse{Error: msg})
}

// loggingPrompter backs the shared web form. Validation failures already
// reach the browser as a 400, so alerts are only logged.
type loggingPrompter struct {
	log zerolog.Logger
}

func (p loggingPrompter) Confirm(string) bool { return false }

func (p loggingPrompter) Alert(msg string) {
	p.log.Debug().Str("alert", msg).Msg("form rejected")
}

// answeredPrompter replays an answer the browser already collected.
type answeredPrompter bool

func (a answeredPrompter) Confirm(string) bool { return bool(a) }

func (a answeredPrompter) Alert(string) {}
