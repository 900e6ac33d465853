package services

import (
	"context"
	"errors"
	"math"
	"sync"
	"testing"

	"expenses/internal/amqp"
	"expenses/internal/core"
	"expenses/internal/store/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
	closed bool
}

func (f *fakePublisher) PublishEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, ev)
	return f.err
}

func (f *fakePublisher) Close() error {
	f.closed = true
	return nil
}

type failingBackend struct {
	*memory.Store
}

func (failingBackend) Append(context.Context, core.Expense) (string, error) {
	return "", errors.New("disk on fire")
}

func newTracker(t *testing.T) (*Tracker, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	return NewTracker(memory.New(), pub, core.Entertainment), pub
}

func add(t *testing.T, tr *Tracker, name, amount string, c core.Category) core.Expense {
	t.Helper()
	e, err := tr.AddExpense(context.Background(), core.Draft{Name: name, Amount: amount, Category: c})
	require.NoError(t, err)
	return e
}

func TestTracker_InitialState(t *testing.T) {
	tr, _ := newTracker(t)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Expenses)
	assert.Equal(t, 0.0, snap.Summary.Total)
	assert.True(t, snap.Summary.Empty())
	assert.Nil(t, snap.Segments)
	assert.Equal(t, core.Draft{Category: core.Entertainment}, snap.Draft)
}

func TestTracker_AddSingle(t *testing.T) {
	tr, pub := newTracker(t)

	e := add(t, tr, "Coffee", "500", core.Food)
	assert.Equal(t, "Coffee", e.Name)
	assert.Equal(t, 500.0, e.Amount)
	assert.NotZero(t, e.ID)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 1)
	assert.Equal(t, 500.0, snap.Summary.Total)
	assert.Equal(t, []core.CategoryAmount{{Category: core.Food, Amount: 500}}, snap.Summary.ByCategory)

	// Name and amount reset, category kept.
	assert.Equal(t, core.Draft{Category: core.Food}, snap.Draft)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventExpenseAdded, pub.events[0].Type)
	assert.Equal(t, e.ID, pub.events[0].ID)
}

func TestTracker_TwoCategories(t *testing.T) {
	tr, _ := newTracker(t)

	add(t, tr, "Taxi", "200", core.Car)
	add(t, tr, "Movie", "300", core.Entertainment)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 500.0, snap.Summary.Total)
	assert.Equal(t, []core.CategoryAmount{
		{Category: core.Car, Amount: 200},
		{Category: core.Entertainment, Amount: 300},
	}, snap.Summary.ByCategory)

	require.Len(t, snap.Segments, 2)
	assert.Equal(t, "40%", snap.Segments[0].Width())
	assert.Equal(t, "60%", snap.Segments[1].Width())
	assert.Equal(t, "Car (40%)", snap.Segments[0].Label())
}

func TestTracker_AddThenDelete(t *testing.T) {
	tr, pub := newTracker(t)

	e := add(t, tr, "Coffee", "500", core.Food)
	removed, err := tr.DeleteExpense(context.Background(), e.ID)
	require.NoError(t, err)
	assert.True(t, removed)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Expenses)
	assert.Equal(t, 0.0, snap.Summary.Total)
	assert.True(t, snap.Summary.Empty())
	assert.Nil(t, snap.Segments)

	require.Len(t, pub.events, 2)
	assert.Equal(t, amqp.EventExpenseDeleted, pub.events[1].Type)
	assert.Equal(t, "Coffee", pub.events[1].Name)
}

func TestTracker_DeleteUnknownIsNoop(t *testing.T) {
	tr, pub := newTracker(t)
	add(t, tr, "Coffee", "500", core.Food)
	before := tr.Version()

	removed, err := tr.DeleteExpense(context.Background(), 12345)
	require.NoError(t, err)
	assert.False(t, removed)
	assert.Equal(t, before, tr.Version())

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Expenses, 1)
	assert.Len(t, pub.events, 1, "no event for a no-op delete")
}

func TestTracker_ValidationFailures(t *testing.T) {
	tests := []struct {
		name  string
		draft core.Draft
		field string
		want  error
	}{
		{"empty name", core.Draft{Amount: "100", Category: core.Car}, "name", core.ErrEmptyName},
		{"empty amount", core.Draft{Name: "Lunch", Category: core.Food}, "amount", core.ErrEmptyAmount},
		{"both empty", core.Draft{}, "name", core.ErrEmptyName},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr, pub := newTracker(t)

			_, err := tr.AddExpense(context.Background(), tt.draft)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var verr *core.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)

			snap, err := tr.Snapshot(context.Background())
			require.NoError(t, err)
			assert.Empty(t, snap.Expenses)
			assert.Zero(t, snap.Version)
			assert.Empty(t, pub.events)

			// The submitted inputs stay in the form.
			assert.Equal(t, tt.draft.Name, snap.Draft.Name)
			assert.Equal(t, tt.draft.Amount, snap.Draft.Amount)
		})
	}
}

func TestTracker_UnparseableAmountIsNaN(t *testing.T) {
	tr, pub := newTracker(t)

	e := add(t, tr, "Mystery", "abc", core.Car)
	assert.True(t, math.IsNaN(e.Amount))

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.True(t, math.IsNaN(snap.Summary.Total))
	assert.Nil(t, snap.Segments, "non-finite total hides the bar")

	require.Len(t, pub.events, 1)
	assert.Nil(t, pub.events[0].Amount)
}

func TestTracker_ZeroTotalHidesBar(t *testing.T) {
	tr, _ := newTracker(t)
	add(t, tr, "Refund", "-50", core.Food)
	add(t, tr, "Dinner", "50", core.Food)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0.0, snap.Summary.Total)
	assert.Len(t, snap.Expenses, 2)
	assert.Nil(t, snap.Segments)
}

func TestTracker_TotalMatchesEntries(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	ids := []int64{
		add(t, tr, "a", "10.5", core.Food).ID,
		add(t, tr, "b", "20", core.Car).ID,
		add(t, tr, "c", "30", core.Entertainment).ID,
		add(t, tr, "d", "1e2", core.Food).ID,
	}
	_, err := tr.DeleteExpense(ctx, ids[1])
	require.NoError(t, err)

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)

	var sum, dist float64
	for _, e := range snap.Expenses {
		sum += e.Amount
	}
	for _, ca := range snap.Summary.ByCategory {
		dist += ca.Amount
	}
	assert.InDelta(t, sum, snap.Summary.Total, 1e-9)
	assert.InDelta(t, snap.Summary.Total, dist, 1e-9)
	assert.Equal(t, 140.5, snap.Summary.Total)
}

func TestTracker_UniqueIDsUnderConcurrency(t *testing.T) {
	tr, _ := newTracker(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = tr.AddExpense(ctx, core.Draft{Name: "x", Amount: "1", Category: core.Car})
		}()
	}
	wg.Wait()

	snap, err := tr.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Expenses, 50)

	seen := make(map[int64]bool)
	for _, e := range snap.Expenses {
		assert.False(t, seen[e.ID], "duplicate id %d", e.ID)
		seen[e.ID] = true
	}
	assert.Equal(t, uint64(50), snap.Version)
}

func TestTracker_PublishFailureDoesNotFailAdd(t *testing.T) {
	tr, pub := newTracker(t)
	pub.err = errors.New("broker down")

	_, err := tr.AddExpense(context.Background(), core.Draft{Name: "Coffee", Amount: "5", Category: core.Food})
	require.NoError(t, err)

	snap, err := tr.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, snap.Expenses, 1)
}

func TestTracker_BackendFailure(t *testing.T) {
	tr := NewTracker(failingBackend{memory.New()}, nil, core.Car)

	_, err := tr.AddExpense(context.Background(), core.Draft{Name: "Coffee", Amount: "5"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "append expense")
	assert.Zero(t, tr.Version())
	assert.Equal(t, "Coffee", tr.Draft().Name, "draft kept when the add fails")
}

func TestTracker_Drafts(t *testing.T) {
	tr, _ := newTracker(t)

	tr.SetDraft(core.Draft{Name: "Tea", Amount: "3"})
	assert.Equal(t, core.Draft{Name: "Tea", Amount: "3", Category: core.Entertainment}, tr.Draft())

	tr.SetDraft(core.Draft{Name: "Tea", Amount: "3", Category: core.Food})
	assert.Equal(t, core.Food, tr.Draft().Category)

	// An add with no category uses the selected one.
	e, err := tr.AddExpense(context.Background(), core.Draft{Name: "Tea", Amount: "3"})
	require.NoError(t, err)
	assert.Equal(t, core.Food, e.Category)
}

func TestTracker_NilPublisherAndClose(t *testing.T) {
	tr := NewTracker(memory.New(), nil, "")
	add(t, tr, "Coffee", "5", core.Food)
	assert.NoError(t, tr.Close())

	withPub, pub := newTracker(t)
	assert.NoError(t, withPub.Close())
	assert.True(t, pub.closed)
}
