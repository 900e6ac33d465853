package services

import (
	"context"
	"fmt"
	"io"
	"sync"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/core"
	"expenses/internal/log"
)

// EventPublisher receives ledger events after successful mutations.
type EventPublisher interface {
	PublishEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

// Snapshot is an immutable view of the tracker state at one instant.
type Snapshot struct {
	Expenses []core.Expense
	Draft    core.Draft
	Summary  core.Summary
	Segments []core.Segment
	Version  uint64
}

// Tracker owns the ledger and the pending form inputs. Every operation holds
// one mutex so concurrent callers observe the same ordering a single user
// would.
type Tracker struct {
	mu        sync.Mutex
	backend   backend.Backend
	publisher EventPublisher
	ids       *core.IDGenerator
	draft     core.Draft
	version   uint64
}

// NewTracker creates a tracker over b. publisher may be nil.
func NewTracker(b backend.Backend, publisher EventPublisher, defaultCategory core.Category) *Tracker {
	return &Tracker{
		backend:   b,
		publisher: publisher,
		ids:       core.NewIDGenerator(),
		draft:     core.NewDraft(defaultCategory),
	}
}

// AddExpense validates d and appends a new entry. On validation failure the
// draft is kept as submitted and the ledger is untouched. On success name and
// amount drafts are cleared and the category is kept.
func (t *Tracker) AddExpense(ctx context.Context, d core.Draft) (core.Expense, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentTracker)

	t.mu.Lock()
	if d.Category == "" {
		d.Category = t.draft.Category
	}
	t.draft = d

	if err := d.Validate(); err != nil {
		t.mu.Unlock()
		logger.DebugContext(ctx, "Rejected expense",
			log.NewFields().WithOperation(log.OpValidate).WithError(err).WithErrorType(log.ErrorTypeValidation).ToSlice()...)
		return core.Expense{}, err
	}

	e := core.Expense{
		ID:       t.ids.Next(),
		Name:     d.Name,
		Amount:   core.ParseAmount(d.Amount),
		Category: d.Category,
	}

	ref, err := t.backend.Append(ctx, e)
	if err != nil {
		t.mu.Unlock()
		return core.Expense{}, fmt.Errorf("append expense: %w", err)
	}
	t.draft = d.Cleared()
	t.version++
	t.mu.Unlock()

	logger.InfoContext(ctx, "Expense added",
		log.NewFields().
			WithOperation(log.OpAdd).
			WithExpense(e.ID, e.Name, core.FormatAmount(e.Amount), e.Category.String()).
			ToSlice()...)
	logger.DebugContext(ctx, "Expense stored", log.FieldBackendRef, ref)

	t.publish(ctx, amqp.NewAddedEvent(e))
	return e, nil
}

// DeleteExpense removes the entry with id. An unknown id is a no-op and
// reports false.
func (t *Tracker) DeleteExpense(ctx context.Context, id int64) (bool, error) {
	logger := log.FromContext(ctx).WithComponent(log.ComponentTracker)

	t.mu.Lock()
	entries, err := t.backend.List(ctx)
	if err != nil {
		t.mu.Unlock()
		return false, fmt.Errorf("list expenses: %w", err)
	}

	var (
		target core.Expense
		found  bool
	)
	for _, e := range entries {
		if e.ID == id {
			target, found = e, true
			break
		}
	}
	if !found {
		t.mu.Unlock()
		logger.DebugContext(ctx, "Delete of unknown expense ignored", log.FieldExpenseID, id)
		return false, nil
	}

	removed, err := t.backend.Delete(ctx, id)
	if err != nil {
		t.mu.Unlock()
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	if removed {
		t.version++
	}
	t.mu.Unlock()

	if !removed {
		return false, nil
	}

	logger.InfoContext(ctx, "Expense deleted",
		log.NewFields().
			WithOperation(log.OpDelete).
			WithExpense(target.ID, target.Name, core.FormatAmount(target.Amount), target.Category.String()).
			ToSlice()...)

	t.publish(ctx, amqp.NewDeletedEvent(target))
	return true, nil
}

// SetDraft records in-progress form inputs. An empty category keeps the
// current selection.
func (t *Tracker) SetDraft(d core.Draft) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if d.Category == "" {
		d.Category = t.draft.Category
	}
	t.draft = d
}

// Draft returns the current form inputs.
func (t *Tracker) Draft() core.Draft {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.draft
}

// Version increases on every successful mutation.
func (t *Tracker) Version() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.version
}

// Snapshot returns the entries together with everything derived from them.
func (t *Tracker) Snapshot(ctx context.Context) (Snapshot, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	entries, err := t.backend.List(ctx)
	if err != nil {
		return Snapshot{}, fmt.Errorf("list expenses: %w", err)
	}

	summary := core.Summarize(entries)
	return Snapshot{
		Expenses: entries,
		Draft:    t.draft,
		Summary:  summary,
		Segments: summary.Segments(),
		Version:  t.version,
	}, nil
}

func (t *Tracker) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if t.publisher == nil {
		return
	}
	if err := t.publisher.PublishEvent(ctx, ev); err != nil {
		// The ledger change already happened; events are best effort.
		log.FromContext(ctx).WithComponent(log.ComponentAMQP).WarnContext(ctx, "Failed to publish ledger event",
			log.NewFields().
				WithOperation(log.OpPublish).
				WithError(err).
				ToSlice()...)
	}
}

// Close releases the event publisher when it holds a connection.
func (t *Tracker) Close() error {
	if c, ok := t.publisher.(io.Closer); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close tracker: amqp: %w", err)
		}
	}
	return nil
}
