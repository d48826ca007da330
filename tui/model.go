// client/tui/model.go

// Package tui is the terminal view over a session controller.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ViniZap4/lumi-client/domain"
	"github.com/ViniZap4/lumi-client/session"
)

type mode int

const (
	modeList mode = iota
	modeForm
)

const (
	focusTitle = iota
	focusDesc
	focusBody
	focusImportant
	focusCount
)

type stateMsg session.State

type submitDoneMsg struct {
	reset bool
	err   error
}

type deleteDoneMsg struct {
	deleted bool
	err     error
}

type Model struct {
	ctx    context.Context
	ctrl   *session.Controller
	form   *session.Form
	prompt *prompter

	state   session.State
	editing domain.NoteID
	mode    mode
	cursor  int

	title      textinput.Model
	desc       textinput.Model
	body       textarea.Model
	important  bool
	focus      int
	submitting bool

	confirm string
	alert   string
	width   int
	height  int
}

func newModel(ctx context.Context, ctrl *session.Controller, prompt *prompter) Model {
	title := textinput.New()
	title.Placeholder = "Title"
	title.CharLimit = 200
	title.Width = 50

	desc := textinput.New()
	desc.Placeholder = "Description"
	desc.CharLimit = 500
	desc.Width = 50

	body := textarea.New()
	body.Placeholder = "Write your note..."
	body.SetWidth(60)
	body.SetHeight(8)

	return Model{
		ctx:    ctx,
		ctrl:   ctrl,
		form:   session.NewForm(ctrl, prompt),
		prompt: prompt,
		state:  ctrl.State(),
		title:  title,
		desc:   desc,
		body:   body,
	}
}

func (m Model) Init() tea.Cmd {
	ctx, ctrl := m.ctx, m.ctrl
	return tea.Batch(textinput.Blink, func() tea.Msg {
		ctrl.Start(ctx)
		return nil
	})
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		if msg.Width > 10 {
			m.body.SetWidth(min(msg.Width-6, 100))
		}
		return m, nil

	case stateMsg:
		return m.applyState(session.State(msg)), nil

	case confirmMsg:
		m.confirm = msg.text
		return m, nil

	case alertMsg:
		m.alert = string(msg)
		return m, nil

	case submitDoneMsg:
		m.submitting = false
		if msg.reset {
			m = m.resetFields()
			m.mode = modeList
		}
		return m, nil

	case deleteDoneMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	if m.mode == modeForm {
		return m.updateInputs(msg)
	}
	return m, nil
}

// applyState takes a new snapshot and keeps the form in step with the
// note being edited.
func (m Model) applyState(s session.State) Model {
	m.state = s
	if m.cursor >= len(s.Notes) {
		m.cursor = max(len(s.Notes)-1, 0)
	}

	var id domain.NoteID
	if s.Editing != nil {
		id = s.Editing.ID
	}
	if id == m.editing {
		return m
	}
	m.editing = id

	if s.Editing != nil {
		m = m.fill(s.Editing.Data())
		m.mode = modeForm
		return m
	}
	m = m.resetFields()
	m.mode = modeList
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.prompt.close()
		return m, tea.Quit
	}

	if m.confirm != "" {
		switch {
		case key.Matches(msg, keys.yes):
			m.prompt.answer(true)
			m.confirm = ""
		case key.Matches(msg, keys.no):
			m.prompt.answer(false)
			m.confirm = ""
		}
		return m, nil
	}
	m.alert = ""

	if m.mode == modeForm {
		return m.handleFormKey(msg)
	}
	return m.handleListKey(msg)
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	ctx, ctrl := m.ctx, m.ctrl

	switch {
	case key.Matches(msg, keys.quit):
		m.prompt.close()
		return m, tea.Quit
	case key.Matches(msg, keys.up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.down):
		if m.cursor < len(m.state.Notes)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.create):
		m = m.resetFields()
		m.mode = modeForm
		if m.state.Editing != nil {
			return m, func() tea.Msg {
				ctrl.CancelEdit()
				return nil
			}
		}
	case key.Matches(msg, keys.edit):
		note, ok := m.selected()
		if !ok {
			return m, nil
		}
		return m, func() tea.Msg {
			ctrl.EditNote(note)
			return nil
		}
	case key.Matches(msg, keys.delete):
		note, ok := m.selected()
		if !ok {
			return m, nil
		}
		form := m.form
		return m, func() tea.Msg {
			deleted, err := form.Delete(ctx, note.ID)
			return deleteDoneMsg{deleted: deleted, err: err}
		}
	case key.Matches(msg, keys.reload):
		return m, func() tea.Msg {
			_ = ctrl.LoadNotes(ctx)
			ctrl.CheckHealth(ctx)
			return nil
		}
	case key.Matches(msg, keys.health):
		return m, func() tea.Msg {
			ctrl.CheckHealth(ctx)
			return nil
		}
	}
	return m, nil
}

func (m Model) handleFormKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.cancel):
		if m.state.Editing != nil {
			ctrl := m.ctrl
			return m, func() tea.Msg {
				ctrl.CancelEdit()
				return nil
			}
		}
		m.mode = modeList
		return m, nil
	case key.Matches(msg, keys.next):
		return m.setFocus((m.focus + 1) % focusCount), nil
	case key.Matches(msg, keys.prev):
		return m.setFocus((m.focus + focusCount - 1) % focusCount), nil
	case key.Matches(msg, keys.important):
		m.important = !m.important
		return m, nil
	case m.focus == focusImportant && key.Matches(msg, keys.toggle):
		m.important = !m.important
		return m, nil
	case key.Matches(msg, keys.submit):
		if m.submitting {
			return m, nil
		}
		m.submitting = true
		ctx, form, data := m.ctx, m.form, m.data()
		return m, func() tea.Msg {
			reset, err := form.Submit(ctx, data)
			return submitDoneMsg{reset: reset, err: err}
		}
	}
	return m.updateInputs(msg)
}

func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.focus {
	case focusTitle:
		m.title, cmd = m.title.Update(msg)
	case focusDesc:
		m.desc, cmd = m.desc.Update(msg)
	case focusBody:
		m.body, cmd = m.body.Update(msg)
	}
	return m, cmd
}

func (m Model) setFocus(f int) Model {
	m.focus = f
	m.title.Blur()
	m.desc.Blur()
	m.body.Blur()
	switch f {
	case focusTitle:
		m.title.Focus()
	case focusDesc:
		m.desc.Focus()
	case focusBody:
		m.body.Focus()
	}
	return m
}

func (m Model) fill(d domain.NoteData) Model {
	m.title.SetValue(d.Title)
	m.desc.SetValue(d.Desc)
	m.body.SetValue(d.Note)
	m.important = d.Important
	return m.setFocus(focusTitle)
}

func (m Model) resetFields() Model {
	return m.fill(domain.NoteData{})
}

func (m Model) data() domain.NoteData {
	return domain.NoteData{
		Title:     m.title.Value(),
		Desc:      m.desc.Value(),
		Note:      m.body.Value(),
		Important: m.important,
	}
}

func (m Model) selected() (domain.Note, bool) {
	if m.cursor < 0 || m.cursor >= len(m.state.Notes) {
		return domain.Note{}, false
	}
	return m.state.Notes[m.cursor], true
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("lumi notes"))
	b.WriteString("  ")
	b.WriteString(mutedStyle.Render(healthLine(m.state.Health)))
	b.WriteString("\n\n")

	if m.state.Error != "" {
		b.WriteString(errorStyle.Render(m.state.Error) + "\n")
	}
	if m.state.Success != "" {
		b.WriteString(successStyle.Render(m.state.Success) + "\n")
	}
	if m.alert != "" {
		b.WriteString(alertStyle.Render("! "+m.alert) + "\n")
	}
	if m.confirm != "" {
		b.WriteString(confirmStyle.Render(m.confirm+"\n\n[y] yes   [n] no") + "\n")
		return b.String()
	}

	if m.mode == modeForm {
		b.WriteString(m.formView())
	} else {
		b.WriteString(m.listView())
	}
	return b.String()
}

func healthLine(h *domain.HealthStatus) string {
	if h == nil {
		return "Checking backend..."
	}
	return fmt.Sprintf("FastAPI: %s | Django: %s", h.FastAPIStatus, h.DjangoBackendStatus)
}

func (m Model) listView() string {
	var b strings.Builder

	switch {
	case m.state.Loading:
		b.WriteString("Loading notes...\n")
	case len(m.state.Notes) == 0:
		b.WriteString(mutedStyle.Render("No notes yet. Press n to create one.") + "\n")
	default:
		for i, n := range m.state.Notes {
			b.WriteString(m.noteView(i, n))
		}
	}

	b.WriteString("\n" + mutedStyle.Render(helpLine(keys.up, keys.down, keys.create, keys.edit, keys.delete, keys.reload, keys.health, keys.quit)))
	return b.String()
}

func (m Model) noteView(i int, n domain.Note) string {
	marker := "  "
	title := n.Title
	if i == m.cursor {
		marker = "> "
		title = selectedStyle.Render(title)
	}
	if n.Important {
		title = importantStyle.Render("★ ") + title
	}

	dates := "Created: " + n.CreatedAt.Display()
	if n.Edited() {
		dates += " • Updated: " + n.UpdatedAt.Display()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		marker+title,
		"    "+n.Desc,
		"    "+mutedStyle.Render(dates),
	) + "\n"
}

func (m Model) formView() string {
	heading := "New note"
	if m.state.Editing != nil {
		heading = "Edit note"
	}

	check := "[ ]"
	if m.important {
		check = "[x]"
	}
	important := check + " Important"
	if m.focus == focusImportant {
		important = selectedStyle.Render(important)
	}

	fields := lipgloss.JoinVertical(lipgloss.Left,
		selectedStyle.Render(heading),
		"",
		"Title", m.title.View(),
		"Description", m.desc.View(),
		"Note", m.body.View(),
		important,
	)

	help := helpLine(keys.next, keys.important, keys.submit, keys.cancel)
	if m.submitting {
		help = "Saving..."
	}
	return panelStyle.Render(fields) + "\n" + mutedStyle.Render(help)
}

// Run drives the terminal UI until the user quits or ctx is cancelled.
func Run(ctx context.Context, ctrl *session.Controller) error {
	prompt := newPrompter()
	defer prompt.close()

	program := tea.NewProgram(newModel(ctx, ctrl, prompt), tea.WithAltScreen(), tea.WithContext(ctx))
	prompt.send = program.Send
	ctrl.Subscribe(session.NotifyFunc(func(s session.State) {
		program.Send(stateMsg(s))
	}))

	if _, err := program.Run(); err != nil {
		if ctx.Err() != nil && errors.Is(err, tea.ErrProgramKilled) {
			return nil
		}
		return err
	}
	return nil
}
