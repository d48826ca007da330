// client/mock/backend.go

// Package mock serves an in-memory rendition of the notes integration API.
// It backs the client's mock mode and the package tests.
package mock

import (
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ViniZap4/lumi-client/domain"
	"github.com/ViniZap4/lumi-client/gateway"
)

var errMissingFields = errors.New("title, desc and note are required")

// Option configures a Backend.
type Option func(*Backend)

// WithClock overrides the time source used for created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(b *Backend) {
		if now != nil {
			b.now = now
		}
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(b *Backend) {
		b.log = l
	}
}

// WithNotes seeds the store.
func WithNotes(notes ...domain.Note) Option {
	return func(b *Backend) {
		for _, n := range notes {
			b.insertLocked(n)
		}
	}
}

// Backend holds notes in memory and answers the integration routes.
type Backend struct {
	mu    sync.RWMutex
	notes map[domain.NoteID]domain.Note
	seq   map[domain.NoteID]uint64
	next  uint64
	now   func() time.Time
	log   zerolog.Logger

	// calls counts requests per "METHOD path-pattern" for tests.
	calls map[string]int
}

func New(opts ...Option) *Backend {
	b := &Backend{
		notes: make(map[domain.NoteID]domain.Note),
		seq:   make(map[domain.NoteID]uint64),
		now:   time.Now,
		log:   zerolog.Nop(),
		calls: make(map[string]int),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// App builds a fiber application serving the integration API.
func (b *Backend) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "lumi-mock-backend",
	})

	api := app.Group(gateway.BasePath, b.count)
	api.Get("/health", b.handleHealth)
	api.Get("/notes", b.handleList)
	api.Post("/notes", b.handleCreate)
	api.Get("/notes/:id", b.handleGet)
	api.Put("/notes/:id", b.handleUpdate)
	api.Delete("/notes/:id", b.handleDelete)
	return app
}

// Calls returns how many requests hit the route identified by key,
// e.g. "POST /notes" or "DELETE /notes/:id".
func (b *Backend) Calls(key string) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.calls[key]
}

// TotalCalls returns the number of requests served.
func (b *Backend) TotalCalls() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	total := 0
	for _, n := range b.calls {
		total += n
	}
	return total
}

// Notes returns the stored notes, newest first.
func (b *Backend) Notes() []domain.Note {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sortedLocked()
}

func (b *Backend) count(c *fiber.Ctx) error {
	rel := strings.TrimPrefix(c.Path(), gateway.BasePath)
	if strings.HasPrefix(rel, "/notes/") {
		rel = "/notes/:id"
	}
	b.mu.Lock()
	b.calls[c.Method()+" "+rel]++
	b.mu.Unlock()
	b.log.Debug().Str("method", c.Method()).Str("path", c.Path()).Msg("mock request")
	return c.Next()
}

func (b *Backend) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"fastapi_status":        "healthy",
		"django_backend_status": "connected",
		"message":               "Mock integration layer is running",
	})
}

func (b *Backend) handleList(c *fiber.Ctx) error {
	b.mu.RLock()
	notes := b.sortedLocked()
	b.mu.RUnlock()
	return c.JSON(notes)
}

func (b *Backend) handleGet(c *fiber.Ctx) error {
	b.mu.RLock()
	note, ok := b.notes[domain.NoteID(c.Params("id"))]
	b.mu.RUnlock()
	if !ok {
		return notFound(c)
	}
	return c.JSON(note)
}

func (b *Backend) handleCreate(c *fiber.Ctx) error {
	data, err := parseData(c)
	if err != nil {
		return detail(c, fiber.StatusBadRequest, err.Error())
	}

	now := domain.Timestamp{Time: b.now().UTC()}
	note := domain.Note{
		ID:        domain.NoteID(uuid.NewString()),
		Title:     data.Title,
		Desc:      data.Desc,
		Note:      data.Note,
		Important: data.Important,
		CreatedAt: now,
		UpdatedAt: now,
	}

	b.mu.Lock()
	b.insertLocked(note)
	b.mu.Unlock()

	return c.Status(fiber.StatusCreated).JSON(note)
}

func (b *Backend) handleUpdate(c *fiber.Ctx) error {
	id := domain.NoteID(c.Params("id"))
	data, err := parseData(c)
	if err != nil {
		return detail(c, fiber.StatusBadRequest, err.Error())
	}

	b.mu.Lock()
	note, ok := b.notes[id]
	if !ok {
		b.mu.Unlock()
		return notFound(c)
	}
	note.Title = data.Title
	note.Desc = data.Desc
	note.Note = data.Note
	note.Important = data.Important
	note.UpdatedAt = domain.Timestamp{Time: b.now().UTC()}
	b.notes[id] = note
	b.mu.Unlock()

	return c.JSON(note)
}

func (b *Backend) handleDelete(c *fiber.Ctx) error {
	id := domain.NoteID(c.Params("id"))

	b.mu.Lock()
	_, ok := b.notes[id]
	delete(b.notes, id)
	delete(b.seq, id)
	b.mu.Unlock()

	if !ok {
		return notFound(c)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (b *Backend) insertLocked(n domain.Note) {
	b.next++
	b.notes[n.ID] = n
	b.seq[n.ID] = b.next
}

// sortedLocked orders by created_at descending, newer inserts first on ties.
func (b *Backend) sortedLocked() []domain.Note {
	notes := make([]domain.Note, 0, len(b.notes))
	for _, n := range b.notes {
		notes = append(notes, n)
	}
	sort.Slice(notes, func(i, j int) bool {
		ci, cj := notes[i].CreatedAt.Time, notes[j].CreatedAt.Time
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return b.seq[notes[i].ID] > b.seq[notes[j].ID]
	})
	return notes
}

func parseData(c *fiber.Ctx) (domain.NoteData, error) {
	var data domain.NoteData
	if err := c.BodyParser(&data); err != nil {
		return data, err
	}
	if err := data.Validate(); err != nil {
		return data, errMissingFields
	}
	return data, nil
}

func notFound(c *fiber.Ctx) error {
	return detail(c, fiber.StatusNotFound, "Note not found")
}

func detail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{"detail": msg})
}
