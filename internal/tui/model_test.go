package tui

import (
	"context"
	"math"
	"testing"

	"expenses/internal/core"
	"expenses/internal/services"
	"expenses/internal/store/memory"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, seed ...core.Expense) (Model, *services.Tracker) {
	t.Helper()
	tracker := services.NewTracker(memory.New(seed...), nil, core.Entertainment)
	m := New(Config{Tracker: tracker, Currency: "тг"})
	m = apply(t, m, m.loadLedger()())
	return m, tracker
}

func apply(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model
}

func press(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, _ := m.Update(k)
	return next.(Model)
}

// submit sends k and feeds the message produced by the resulting ledger
// command back into the model.
func submit(t *testing.T, m Model, k tea.KeyMsg) Model {
	t.Helper()
	next, cmd := m.Update(k)
	require.NotNil(t, cmd)
	return apply(t, next.(Model), cmd())
}

func typeText(t *testing.T, m Model, s string) Model {
	t.Helper()
	for _, r := range s {
		m = press(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return m
}

var (
	keyTab   = tea.KeyMsg{Type: tea.KeyTab}
	keyEnter = tea.KeyMsg{Type: tea.KeyEnter}
	keyRight = tea.KeyMsg{Type: tea.KeyRight}
	keyLeft  = tea.KeyMsg{Type: tea.KeyLeft}
	keyDown  = tea.KeyMsg{Type: tea.KeyDown}
)

func TestNewRestoresDraft(t *testing.T) {
	tracker := services.NewTracker(memory.New(), nil, core.Entertainment)
	tracker.SetDraft(core.Draft{Name: "Fuel", Amount: "70", Category: core.Car})

	m := New(Config{Tracker: tracker})

	assert.Equal(t, core.Draft{Name: "Fuel", Amount: "70", Category: core.Car}, m.draft())
	assert.Equal(t, FieldName, m.Focus())
}

func TestTypingUpdatesDraft(t *testing.T) {
	m, tracker := newTestModel(t)

	m = typeText(t, m, "Bus")
	m = press(t, m, keyTab)
	m = typeText(t, m, "1.5")

	assert.Equal(t, FieldAmount, m.Focus())
	assert.Equal(t, core.Draft{Name: "Bus", Amount: "1.5", Category: core.Entertainment}, tracker.Draft())
}

func TestAddExpense(t *testing.T) {
	m, tracker := newTestModel(t)

	m = typeText(t, m, "Fuel")
	m = press(t, m, keyTab)
	m = typeText(t, m, "70")
	m = press(t, m, keyTab)
	m = press(t, m, keyRight)
	m = submit(t, m, keyEnter)

	require.Len(t, m.snapshot.Expenses, 1)
	e := m.snapshot.Expenses[0]
	assert.Equal(t, "Fuel", e.Name)
	assert.Equal(t, 70.0, e.Amount)
	assert.Equal(t, core.Car, e.Category)

	assert.Empty(t, m.name.Value())
	assert.Empty(t, m.amount.Value())
	assert.Equal(t, core.Draft{Category: core.Car}, tracker.Draft())
	assert.Empty(t, m.Message())
}

func TestAddRejectedShowsMessage(t *testing.T) {
	m, tracker := newTestModel(t)

	m = typeText(t, m, "Fuel")
	m = submit(t, m, keyEnter)

	assert.Equal(t, core.EmptyInputMessage, m.Message())
	assert.Contains(t, m.View(), core.EmptyInputMessage)
	assert.Empty(t, m.snapshot.Expenses)

	// The message blocks all other input until dismissed.
	m = typeText(t, m, "x")
	assert.Equal(t, "Fuel", m.name.Value())
	assert.Equal(t, core.EmptyInputMessage, m.Message())

	m = press(t, m, keyEnter)
	assert.Empty(t, m.Message())
	assert.Equal(t, "Fuel", tracker.Draft().Name)
	assert.Empty(t, m.snapshot.Expenses)
}

func TestCategoryCycling(t *testing.T) {
	m, tracker := newTestModel(t)
	m = press(t, m, keyTab)
	m = press(t, m, keyTab)
	require.Equal(t, FieldCategory, m.Focus())

	m = press(t, m, keyRight)
	assert.Equal(t, core.Car, tracker.Draft().Category)
	m = press(t, m, keyRight)
	assert.Equal(t, core.Food, tracker.Draft().Category)
	m = press(t, m, keyRight)
	assert.Equal(t, core.Entertainment, tracker.Draft().Category)
	m = press(t, m, keyLeft)
	assert.Equal(t, core.Food, tracker.Draft().Category)

	assert.Contains(t, m.View(), "‹ Food ›")
}

func TestDeleteSelected(t *testing.T) {
	m, _ := newTestModel(t,
		core.Expense{ID: 1, Name: "Fuel", Amount: 70, Category: core.Car},
		core.Expense{ID: 2, Name: "Bread", Amount: 30, Category: core.Food},
	)
	require.Len(t, m.snapshot.Expenses, 2)

	for i := 0; i < 3; i++ {
		m = press(t, m, keyTab)
	}
	require.Equal(t, FieldList, m.Focus())

	m = press(t, m, keyDown)
	e, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(2), e.ID)

	m = submit(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})
	require.Len(t, m.snapshot.Expenses, 1)
	assert.Equal(t, int64(1), m.snapshot.Expenses[0].ID)

	e, ok = m.Selected()
	require.True(t, ok)
	assert.Equal(t, int64(1), e.ID)
}

func TestViewRendersLedger(t *testing.T) {
	m, _ := newTestModel(t,
		core.Expense{ID: 1, Name: "Fuel", Amount: 70, Category: core.Car},
		core.Expense{ID: 2, Name: "Bread", Amount: 30, Category: core.Food},
	)

	view := m.View()
	assert.Contains(t, view, "Fuel - 70 тг (Car)")
	assert.Contains(t, view, "Bread - 30 тг (Food)")
	assert.Contains(t, view, "Общая сумма: 100 тг")
	assert.Contains(t, view, "Car (70%)")
	assert.Contains(t, view, "Food (30%)")
}

func TestViewHidesBarForEmptyLedger(t *testing.T) {
	m, _ := newTestModel(t)

	view := m.View()
	assert.Contains(t, view, "Общая сумма: 0 тг")
	assert.Contains(t, view, "Нет затрат")
	assert.NotContains(t, view, "Распределение по категориям")
}

func TestSegmentWidths(t *testing.T) {
	seg := func(p float64) core.Segment { return core.Segment{Category: core.Food, Percent: p} }

	assert.Equal(t, []int{7, 3}, segmentWidths([]core.Segment{seg(70), seg(30)}, 10))
	assert.Equal(t, []int{42, 18}, segmentWidths([]core.Segment{seg(70), seg(30)}, 60))

	total := 0
	for _, w := range segmentWidths([]core.Segment{seg(33.4), seg(33.3), seg(33.3)}, 20) {
		total += w
	}
	assert.LessOrEqual(t, total, 20)
}

func TestSegmentWidthsEdgeCases(t *testing.T) {
	seg := func(p float64) core.Segment { return core.Segment{Category: core.Food, Percent: p} }

	widths := segmentWidths([]core.Segment{seg(99.6), seg(0.4)}, 10)
	assert.Equal(t, []int{10, 0}, widths)

	widths = segmentWidths([]core.Segment{seg(0.4), seg(99.6)}, 10)
	assert.Equal(t, []int{1, 9}, widths)

	widths = segmentWidths([]core.Segment{seg(math.NaN()), seg(-20), seg(120)}, 10)
	assert.Equal(t, []int{0, 0, 10}, widths)
}

func TestQuit(t *testing.T) {
	m, _ := newTestModel(t)
	next, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, next.View())
}

func TestRunRequiresTracker(t *testing.T) {
	assert.Error(t, Run(context.Background(), Config{}))
}
