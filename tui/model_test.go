package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ViniZap4/lumi-client/domain"
	"github.com/ViniZap4/lumi-client/session"
)

type fakeGateway struct {
	created []domain.NoteData
}

func (f *fakeGateway) ListNotes(context.Context) ([]domain.Note, error) { return nil, nil }

func (f *fakeGateway) CreateNote(_ context.Context, d domain.NoteData) (*domain.Note, error) {
	f.created = append(f.created, d)
	return &domain.Note{ID: "new", Title: d.Title, Desc: d.Desc, Note: d.Note}, nil
}

func (f *fakeGateway) UpdateNote(_ context.Context, id domain.NoteID, d domain.NoteData) (*domain.Note, error) {
	return &domain.Note{ID: id, Title: d.Title, Desc: d.Desc, Note: d.Note}, nil
}

func (f *fakeGateway) DeleteNote(context.Context, domain.NoteID) error { return nil }

func (f *fakeGateway) HealthCheck(context.Context) (*domain.HealthStatus, error) {
	return &domain.HealthStatus{FastAPIStatus: "healthy", DjangoBackendStatus: "connected"}, nil
}

type harness struct {
	model Model
	gw    *fakeGateway
	sent  []tea.Msg
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{gw: &fakeGateway{}}
	prompt := newPrompter()
	prompt.send = func(msg tea.Msg) { h.sent = append(h.sent, msg) }
	t.Cleanup(prompt.close)

	ctrl := session.New(h.gw, session.WithScheduler(func(time.Duration, func()) func() bool {
		return func() bool { return true }
	}))
	h.model = newModel(context.Background(), ctrl, prompt)
	return h
}

func (h *harness) send(msg tea.Msg) tea.Cmd {
	next, cmd := h.model.Update(msg)
	h.model = next.(Model)
	return cmd
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleState() session.State {
	created := time.Date(2024, 3, 5, 14, 7, 0, 0, time.Local)
	return session.State{
		Notes: []domain.Note{
			{ID: "1", Title: "Groceries", Desc: "weekly", Note: "milk", Important: true,
				CreatedAt: domain.Timestamp{Time: created}, UpdatedAt: domain.Timestamp{Time: created.Add(time.Hour)}},
			{ID: "2", Title: "Ideas", Desc: "misc", Note: "none",
				CreatedAt: domain.Timestamp{Time: created}, UpdatedAt: domain.Timestamp{Time: created}},
		},
		Health: &domain.HealthStatus{FastAPIStatus: "healthy", DjangoBackendStatus: "connected"},
	}
}

func TestViewRendersListAndHealth(t *testing.T) {
	h := newHarness(t)
	h.send(stateMsg(sampleState()))

	view := h.model.View()
	for _, want := range []string{
		"FastAPI: healthy | Django: connected",
		"Groceries",
		"Ideas",
		"Created: Mar 5, 2024, 02:07 PM",
		"Updated: Mar 5, 2024, 03:07 PM",
	} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
	if strings.Count(view, "Updated:") != 1 {
		t.Errorf("only the edited note should show an update time")
	}
}

func TestViewBeforeFirstProbe(t *testing.T) {
	h := newHarness(t)
	view := h.model.View()
	if !strings.Contains(view, "Checking backend...") || !strings.Contains(view, "Loading notes...") {
		t.Fatalf("unexpected initial view:\n%s", view)
	}
}

func TestCursorMovement(t *testing.T) {
	h := newHarness(t)
	h.send(stateMsg(sampleState()))

	h.send(runes("j"))
	h.send(runes("j"))
	if h.model.cursor != 1 {
		t.Fatalf("cursor = %d, want clamp at 1", h.model.cursor)
	}
	h.send(runes("k"))
	if h.model.cursor != 0 {
		t.Fatalf("cursor = %d", h.model.cursor)
	}

	st := sampleState()
	st.Notes = st.Notes[:1]
	h.model.cursor = 1
	h.send(stateMsg(st))
	if h.model.cursor != 0 {
		t.Fatalf("cursor not clamped after shrink: %d", h.model.cursor)
	}
}

func TestEditingStateDrivesForm(t *testing.T) {
	h := newHarness(t)
	st := sampleState()
	h.send(stateMsg(st))

	editing := st.Notes[0]
	st.Editing = &editing
	h.send(stateMsg(st))

	if h.model.mode != modeForm {
		t.Fatal("form not opened for editing")
	}
	if got := h.model.data(); got != editing.Data() {
		t.Fatalf("form fields = %+v, want %+v", got, editing.Data())
	}
	if !strings.Contains(h.model.View(), "Edit note") {
		t.Fatal("edit heading missing")
	}

	st.Editing = nil
	h.send(stateMsg(st))
	if h.model.mode != modeList || h.model.data() != (domain.NoteData{}) {
		t.Fatalf("form not reset after edit ended: mode=%d data=%+v", h.model.mode, h.model.data())
	}
}

func TestSubmitIncompleteAlerts(t *testing.T) {
	h := newHarness(t)
	h.send(stateMsg(sampleState()))
	h.send(runes("n"))
	if h.model.mode != modeForm {
		t.Fatal("n should open the form")
	}

	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	if cmd == nil {
		t.Fatal("expected submit command")
	}
	done, ok := cmd().(submitDoneMsg)
	if !ok || !errors.Is(done.err, domain.ErrIncomplete) {
		t.Fatalf("submit result = %+v", done)
	}
	if len(h.gw.created) != 0 {
		t.Fatal("gateway called for incomplete form")
	}
	if len(h.sent) != 1 || h.sent[0] != alertMsg(session.PromptIncomplete) {
		t.Fatalf("sent = %#v", h.sent)
	}

	h.send(h.sent[0])
	h.send(done)
	if !strings.Contains(h.model.View(), session.PromptIncomplete) {
		t.Fatal("alert not rendered")
	}
	if h.model.submitting {
		t.Fatal("submitting flag not cleared")
	}
}

func TestSubmitCreateResetsForm(t *testing.T) {
	h := newHarness(t)
	h.send(runes("n"))
	h.model = h.model.fill(domain.NoteData{Title: "A", Desc: "B", Note: "C"})

	cmd := h.send(tea.KeyMsg{Type: tea.KeyCtrlS})
	if again := h.send(tea.KeyMsg{Type: tea.KeyCtrlS}); again != nil {
		t.Fatal("second submit should be ignored while saving")
	}
	done := cmd().(submitDoneMsg)
	if done.err != nil || !done.reset {
		t.Fatalf("submit result = %+v", done)
	}
	h.send(done)

	if h.model.mode != modeList || h.model.data() != (domain.NoteData{}) {
		t.Fatal("form not reset after create")
	}
	if len(h.gw.created) != 1 {
		t.Fatalf("created = %d", len(h.gw.created))
	}
}

func TestDeleteWaitsForConfirmation(t *testing.T) {
	h := newHarness(t)
	h.send(stateMsg(sampleState()))

	cmd := h.send(runes("d"))
	if cmd == nil {
		t.Fatal("expected delete command")
	}

	prompts := make(chan tea.Msg, 1)
	h.model.prompt.send = func(msg tea.Msg) { prompts <- msg }

	result := make(chan tea.Msg, 1)
	go func() { result <- cmd() }()

	msg := <-prompts
	if msg != (confirmMsg{text: session.PromptConfirmDelete}) {
		t.Fatalf("prompt = %#v", msg)
	}
	h.send(msg)
	if !strings.Contains(h.model.View(), session.PromptConfirmDelete) {
		t.Fatal("confirmation not rendered")
	}

	h.send(runes("n"))
	done := (<-result).(deleteDoneMsg)
	if done.deleted || done.err != nil {
		t.Fatalf("declined delete = %+v", done)
	}
	if h.model.confirm != "" {
		t.Fatal("confirmation still showing")
	}
}

func TestQuitClosesPrompter(t *testing.T) {
	h := newHarness(t)
	cmd := h.send(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("q should quit")
	}
	if h.model.prompt.Confirm("ignored") {
		t.Fatal("closed prompter must decline")
	}
}
