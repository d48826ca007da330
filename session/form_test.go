package session_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/ViniZap4/lumi-client/domain"
	"github.com/ViniZap4/lumi-client/gateway"
	"github.com/ViniZap4/lumi-client/mock"
	"github.com/ViniZap4/lumi-client/session"
)

type scriptedPrompter struct {
	mu       sync.Mutex
	answer   bool
	alerts   []string
	confirms []string
}

func (p *scriptedPrompter) Confirm(msg string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.confirms = append(p.confirms, msg)
	return p.answer
}

func (p *scriptedPrompter) Alert(msg string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.alerts = append(p.alerts, msg)
}

// steppingClock advances by one second on every read so updated_at always
// differs from created_at.
type steppingClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *steppingClock) now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(time.Second)
	return c.t
}

func newLiveSession(t *testing.T) (*session.Controller, *mock.Backend, *manualTimers) {
	t.Helper()
	clock := &steppingClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	backend := mock.New(mock.WithClock(clock.now))
	srv := httptest.NewServer(adaptor.FiberApp(backend.App()))
	t.Cleanup(srv.Close)

	gw, err := gateway.New(srv.URL)
	if err != nil {
		t.Fatalf("gateway.New: %v", err)
	}
	ctrl, timers := newController(gw)
	ctrl.Start(context.Background())
	return ctrl, backend, timers
}

func TestCreateThenLoadAddsExactlyOneFrontNote(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newLiveSession(t)

	seed := []domain.NoteData{
		{Title: "one", Desc: "d", Note: "n"},
		{Title: "two", Desc: "d", Note: "n", Important: true},
	}
	for _, d := range seed {
		if _, err := ctrl.CreateNote(ctx, d); err != nil {
			t.Fatalf("CreateNote: %v", err)
		}
	}
	_ = ctrl.LoadNotes(ctx)
	before := len(ctrl.State().Notes)

	data := domain.NoteData{Title: "A", Desc: "B", Note: "C"}
	created, err := ctrl.CreateNote(ctx, data)
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	if err := ctrl.LoadNotes(ctx); err != nil {
		t.Fatalf("LoadNotes: %v", err)
	}

	st := ctrl.State()
	if len(st.Notes) != before+1 {
		t.Fatalf("notes = %d, want %d", len(st.Notes), before+1)
	}
	front := st.Notes[0]
	if front.ID != created.ID || front.Data() != data {
		t.Fatalf("front note = %+v, want fields %+v", front, data)
	}
}

func TestUpdateThenLoadReflectsNewData(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newLiveSession(t)

	n, err := ctrl.CreateNote(ctx, domain.NoteData{Title: "A", Desc: "B", Note: "C"})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}

	ctrl.EditNote(*n)
	newData := domain.NoteData{Title: "A2", Desc: "B2", Note: "C2", Important: true}
	if _, err := ctrl.UpdateNote(ctx, newData); err != nil {
		t.Fatalf("UpdateNote: %v", err)
	}
	if err := ctrl.LoadNotes(ctx); err != nil {
		t.Fatalf("LoadNotes: %v", err)
	}

	got, ok := ctrl.State().Find(n.ID)
	if !ok {
		t.Fatalf("note %s missing after update", n.ID)
	}
	if got.Data() != newData {
		t.Fatalf("fields = %+v, want %+v", got.Data(), newData)
	}
	if got.UpdatedAt.Equal(got.CreatedAt.Time) {
		t.Fatal("updated_at should differ from created_at")
	}
	if !got.CreatedAt.Equal(n.CreatedAt.Time) {
		t.Fatal("created_at changed on update")
	}
}

func TestDeleteThenLoadRemovesNote(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newLiveSession(t)
	form := session.NewForm(ctrl, &scriptedPrompter{answer: true})

	n, err := ctrl.CreateNote(ctx, domain.NoteData{Title: "A", Desc: "B", Note: "C"})
	if err != nil {
		t.Fatalf("CreateNote: %v", err)
	}
	deleted, err := form.Delete(ctx, n.ID)
	if err != nil || !deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	if err := ctrl.LoadNotes(ctx); err != nil {
		t.Fatalf("LoadNotes: %v", err)
	}
	if _, ok := ctrl.State().Find(n.ID); ok {
		t.Fatal("deleted note still listed")
	}
}

func TestDeleteOfVanishedNoteReportsNotFound(t *testing.T) {
	ctx := context.Background()
	ctrl, _, _ := newLiveSession(t)

	err := ctrl.DeleteNote(ctx, "gone")
	if !errors.Is(err, gateway.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if ctrl.State().Error != "Failed to delete note: Note not found" {
		t.Fatalf("error banner = %q", ctrl.State().Error)
	}
}

func TestSubmitIncompleteNeverCallsGateway(t *testing.T) {
	ctx := context.Background()
	ctrl, backend, _ := newLiveSession(t)
	prompt := &scriptedPrompter{}
	form := session.NewForm(ctrl, prompt)

	callsBefore := backend.TotalCalls()
	before := ctrl.State()

	inputs := []domain.NoteData{
		{Title: " ", Desc: "B", Note: "C"},
		{Title: "A", Desc: "", Note: "C"},
		{Title: "A", Desc: "B", Note: "\t\n"},
	}
	for _, in := range inputs {
		reset, err := form.Submit(ctx, in)
		if !errors.Is(err, domain.ErrIncomplete) || reset {
			t.Fatalf("Submit(%+v) = %v, %v", in, reset, err)
		}
	}

	if backend.TotalCalls() != callsBefore {
		t.Fatal("gateway was called for invalid input")
	}
	after := ctrl.State()
	if len(after.Notes) != len(before.Notes) || after.Error != "" {
		t.Fatalf("state changed: %+v", after)
	}
	if len(prompt.alerts) != 3 || prompt.alerts[0] != session.PromptIncomplete {
		t.Fatalf("alerts = %v", prompt.alerts)
	}
}

func TestSubmitCreatesOrUpdates(t *testing.T) {
	ctx := context.Background()
	ctrl, backend, _ := newLiveSession(t)
	form := session.NewForm(ctrl, &scriptedPrompter{})

	reset, err := form.Submit(ctx, domain.NoteData{Title: "A", Desc: "B", Note: "C"})
	if err != nil || !reset {
		t.Fatalf("create Submit = %v, %v", reset, err)
	}
	if backend.Calls("POST /notes") != 1 {
		t.Fatalf("POST calls = %d", backend.Calls("POST /notes"))
	}

	ctrl.EditNote(ctrl.State().Notes[0])
	reset, err = form.Submit(ctx, domain.NoteData{Title: "A2", Desc: "B", Note: "C"})
	if err != nil || reset {
		t.Fatalf("update Submit = %v, %v", reset, err)
	}
	if backend.Calls("PUT /notes/:id") != 1 {
		t.Fatalf("PUT calls = %d", backend.Calls("PUT /notes/:id"))
	}
	if ctrl.State().Notes[0].Title != "A2" {
		t.Fatal("update not applied")
	}
}

func TestDeclinedDeleteIsNoop(t *testing.T) {
	ctx := context.Background()
	ctrl, backend, timers := newLiveSession(t)
	if _, err := ctrl.CreateNote(ctx, domain.NoteData{Title: "A", Desc: "B", Note: "C"}); err != nil {
		t.Fatal(err)
	}

	// Let the create banner expire so a stray success would be visible.
	for _, tm := range timers.pending() {
		timers.fire(tm)
	}
	st := ctrl.State()
	if st.Success != "" {
		t.Fatalf("success = %q before delete", st.Success)
	}
	prompt := &scriptedPrompter{answer: false}
	form := session.NewForm(ctrl, prompt)
	callsBefore := backend.TotalCalls()

	deleted, err := form.Delete(ctx, st.Notes[0].ID)
	if err != nil || deleted {
		t.Fatalf("Delete = %v, %v", deleted, err)
	}
	if backend.TotalCalls() != callsBefore {
		t.Fatal("gateway called after declined confirmation")
	}
	after := ctrl.State()
	if len(after.Notes) != 1 || after.Error != "" || after.Success != st.Success {
		t.Fatalf("state changed: %+v", after)
	}
	if len(prompt.confirms) != 1 || prompt.confirms[0] != session.PromptConfirmDelete {
		t.Fatalf("confirms = %v", prompt.confirms)
	}
}

func TestSubmitRejectsDoubleSubmit(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	gw := &stubGateway{
		create: func(context.Context, domain.NoteData) (*domain.Note, error) {
			close(started)
			<-release
			n := sampleNote("1", "a")
			return &n, nil
		},
	}
	ctrl, _ := newController(gw)
	form := session.NewForm(ctrl, &scriptedPrompter{})
	data := domain.NoteData{Title: "A", Desc: "B", Note: "C"}

	done := make(chan error, 1)
	go func() {
		_, err := form.Submit(context.Background(), data)
		done <- err
	}()

	<-started
	if !form.Busy() {
		t.Fatal("form should report busy while submitting")
	}
	if _, err := form.Submit(context.Background(), data); !errors.Is(err, session.ErrBusy) {
		t.Fatalf("second Submit error = %v, want ErrBusy", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first Submit: %v", err)
	}
	if form.Busy() {
		t.Fatal("form still busy after completion")
	}
	if gw.count("create") != 1 {
		t.Fatalf("create calls = %d", gw.count("create"))
	}
}
