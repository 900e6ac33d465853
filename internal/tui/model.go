package tui

import (
	"context"
	"errors"
	"time"

	"expenses/internal/core"
	"expenses/internal/services"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// Field identifies which part of the screen receives keys.
type Field int

const (
	FieldName Field = iota
	FieldAmount
	FieldCategory
	FieldList
	fieldCount
)

const opTimeout = 5 * time.Second

// Config holds what the terminal UI needs to run.
type Config struct {
	Context  context.Context
	Tracker  *services.Tracker
	Currency string
	Width    int
	Height   int
}

// Model holds the terminal UI state. The ledger itself lives in the tracker;
// the model keeps the last snapshot it rendered.
type Model struct {
	ctx      context.Context
	tracker  *services.Tracker
	keymap   KeyMap
	currency string

	name   textinput.Model
	amount textinput.Model

	categories []core.Category
	category   int

	snapshot services.Snapshot
	focus    Field
	cursor   int

	// message is shown in a blocking box until dismissed.
	message   string
	lastError error

	width    int
	height   int
	quitting bool
}

// New creates a model over cfg.Tracker, restoring any stored draft.
func New(cfg Config) Model {
	ctx := cfg.Context
	if ctx == nil {
		ctx = context.Background()
	}

	name := textinput.New()
	name.Placeholder = "Название траты"
	name.CharLimit = 120
	amount := textinput.New()
	amount.Placeholder = "Сумма"
	amount.CharLimit = 32

	m := Model{
		ctx:        ctx,
		tracker:    cfg.Tracker,
		keymap:     DefaultKeyMap(),
		currency:   cfg.Currency,
		name:       name,
		amount:     amount,
		categories: core.Categories(),
		width:      cfg.Width,
		height:     cfg.Height,
	}

	d := cfg.Tracker.Draft()
	m.name.SetValue(d.Name)
	m.amount.SetValue(d.Amount)
	m.selectCategory(d.Category)
	m.name.Focus()
	return m
}

// Init loads the ledger.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.loadLedger())
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case ledgerLoadedMsg:
		if msg.err != nil {
			m.lastError = msg.err
			return m, nil
		}
		m.lastError = nil
		m.setSnapshot(msg.snapshot)
		return m, nil

	case addResultMsg:
		return m.handleAddResult(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m.updateInputs(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keymap.Quit) {
		m.quitting = true
		return m, tea.Quit
	}

	if m.message != "" {
		if key.Matches(msg, m.keymap.DismissMessage) {
			m.message = ""
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keymap.NextField):
		return m, m.setFocus((m.focus + 1) % fieldCount)
	case key.Matches(msg, m.keymap.PrevField):
		return m, m.setFocus((m.focus + fieldCount - 1) % fieldCount)
	}

	switch m.focus {
	case FieldName, FieldAmount:
		if key.Matches(msg, m.keymap.Add) {
			return m, m.addExpense()
		}
		return m.updateInputs(msg)

	case FieldCategory:
		switch {
		case key.Matches(msg, m.keymap.Add):
			return m, m.addExpense()
		case key.Matches(msg, m.keymap.CategoryNext):
			m.category = (m.category + 1) % len(m.categories)
			m.storeDraft()
		case key.Matches(msg, m.keymap.CategoryPrev):
			m.category = (m.category + len(m.categories) - 1) % len(m.categories)
			m.storeDraft()
		}
		return m, nil

	case FieldList:
		switch {
		case key.Matches(msg, m.keymap.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keymap.Down):
			if m.cursor < len(m.snapshot.Expenses)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keymap.Delete):
			if e, ok := m.Selected(); ok {
				return m, m.deleteExpense(e.ID)
			}
		}
		return m, nil
	}

	return m, nil
}

// updateInputs forwards msg to the focused text input and records the new
// draft when its value changed.
func (m Model) updateInputs(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	before := m.draft()
	switch m.focus {
	case FieldName:
		m.name, cmd = m.name.Update(msg)
	case FieldAmount:
		m.amount, cmd = m.amount.Update(msg)
	default:
		return m, nil
	}
	if m.draft() != before {
		m.storeDraft()
	}
	return m, cmd
}

func (m Model) handleAddResult(msg addResultMsg) Model {
	var verr *core.ValidationError
	switch {
	case errors.As(msg.err, &verr):
		m.message = verr.Message()
		return m
	case msg.err != nil:
		m.lastError = msg.err
		return m
	}

	m.lastError = nil
	m.setSnapshot(msg.snapshot)
	m.name.SetValue(msg.snapshot.Draft.Name)
	m.amount.SetValue(msg.snapshot.Draft.Amount)
	m.cursor = len(msg.snapshot.Expenses) - 1
	if m.cursor < 0 {
		m.cursor = 0
	}
	return m
}

func (m *Model) setSnapshot(snap services.Snapshot) {
	m.snapshot = snap
	if m.cursor >= len(snap.Expenses) {
		m.cursor = len(snap.Expenses) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) setFocus(f Field) tea.Cmd {
	m.focus = f
	m.name.Blur()
	m.amount.Blur()
	switch f {
	case FieldName:
		return m.name.Focus()
	case FieldAmount:
		return m.amount.Focus()
	}
	return nil
}

func (m *Model) selectCategory(c core.Category) {
	for i, known := range m.categories {
		if known == c {
			m.category = i
			return
		}
	}
}

func (m Model) draft() core.Draft {
	return core.Draft{
		Name:     m.name.Value(),
		Amount:   m.amount.Value(),
		Category: m.categories[m.category],
	}
}

func (m Model) storeDraft() {
	m.tracker.SetDraft(m.draft())
}

func (m Model) loadLedger() tea.Cmd {
	ctx, t := m.ctx, m.tracker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		snap, err := t.Snapshot(ctx)
		return ledgerLoadedMsg{snapshot: snap, err: err}
	}
}

func (m Model) addExpense() tea.Cmd {
	ctx, t, d := m.ctx, m.tracker, m.draft()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		if _, err := t.AddExpense(ctx, d); err != nil {
			return addResultMsg{err: err}
		}
		snap, err := t.Snapshot(ctx)
		return addResultMsg{snapshot: snap, err: err}
	}
}

func (m Model) deleteExpense(id int64) tea.Cmd {
	ctx, t := m.ctx, m.tracker
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(ctx, opTimeout)
		defer cancel()
		if _, err := t.DeleteExpense(ctx, id); err != nil {
			return ledgerLoadedMsg{err: err}
		}
		snap, err := t.Snapshot(ctx)
		return ledgerLoadedMsg{snapshot: snap, err: err}
	}
}

// Selected returns the entry under the list cursor.
func (m Model) Selected() (core.Expense, bool) {
	if m.cursor < 0 || m.cursor >= len(m.snapshot.Expenses) {
		return core.Expense{}, false
	}
	return m.snapshot.Expenses[m.cursor], true
}

// Message returns the blocking message, empty when none is shown.
func (m Model) Message() string {
	return m.message
}

// Focus returns the focused field.
func (m Model) Focus() Field {
	return m.focus
}
