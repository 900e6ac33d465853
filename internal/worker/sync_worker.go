package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"expenses/internal/amqp"
	"expenses/internal/backend"
	"expenses/internal/core"
	"expenses/internal/log"
)

// EventSource delivers ledger events. *amqp.Client implements it.
type EventSource interface {
	ConsumeEvents(ctx context.Context, handler func(context.Context, *amqp.LedgerEvent) error) error
	Reconnect() error
}

// SyncWorker mirrors published ledger events into a replica backend and logs
// the running summary after each change.
type SyncWorker struct {
	replica backend.Backend
	logger  *log.Logger
	sleep   func(context.Context, time.Duration) error

	processed atomic.Int64
	skipped   atomic.Int64
}

func NewSyncWorker(replica backend.Backend, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &SyncWorker{
		replica: replica,
		logger:  logger.WithComponent(log.ComponentWorker),
		sleep:   sleepContext,
	}
}

// HandleEvent applies one event to the replica. Replays are harmless: an add
// for an id already present and a delete for an unknown id are skipped.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.LedgerEvent) error {
	entries, err := w.replica.List(ctx)
	if err != nil {
		return fmt.Errorf("list replica: %w", err)
	}
	present := false
	for _, e := range entries {
		if e.ID == ev.ID {
			present = true
			break
		}
	}

	fields := log.NewFields().
		WithOperation(log.OpConsume).
		WithExpense(ev.ID, ev.Name, amountText(ev), ev.Category)

	switch ev.Type {
	case amqp.EventExpenseAdded:
		if present {
			w.skipped.Add(1)
			w.logger.DebugContext(ctx, "Duplicate add event skipped", fields.ToSlice()...)
			return nil
		}
		if _, err := w.replica.Append(ctx, ev.Expense()); err != nil {
			return fmt.Errorf("append to replica: %w", err)
		}
		entries = append(entries, ev.Expense())

	case amqp.EventExpenseDeleted:
		if !present {
			w.skipped.Add(1)
			w.logger.DebugContext(ctx, "Delete for unknown expense skipped", fields.ToSlice()...)
			return nil
		}
		if _, err := w.replica.Delete(ctx, ev.ID); err != nil {
			return fmt.Errorf("delete from replica: %w", err)
		}
		entries = removeID(entries, ev.ID)

	default:
		w.skipped.Add(1)
		w.logger.WarnContext(ctx, "Unknown ledger event type", "type", ev.Type, log.FieldExpenseID, ev.ID)
		return nil
	}

	w.processed.Add(1)
	summary := core.Summarize(entries)
	args := append(fields.ToSlice(),
		"type", ev.Type,
		log.FieldEntries, len(entries),
		"total", core.FormatAmount(summary.Total))
	if amount, ok := summary.Amount(core.Category(ev.Category)); ok {
		args = append(args, "category_total", core.FormatAmount(amount))
	}
	for _, sg := range summary.Segments() {
		args = append(args, "share_"+sg.Category.String(), sg.RoundedPercent())
	}
	w.logger.InfoContext(ctx, "Ledger event applied", args...)
	return nil
}

// Run consumes from src until ctx is done, reconnecting with backoff when
// the broker connection drops.
func (w *SyncWorker) Run(ctx context.Context, src EventSource) error {
	attempt := 0
	for {
		err := src.ConsumeEvents(ctx, w.HandleEvent)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			err = errors.New("consumer stopped")
		}

		delay := amqp.Backoff(attempt)
		w.logger.WarnContext(ctx, "Event consumption interrupted, reconnecting",
			log.NewFields().
				WithOperation(log.OpConsume).
				WithError(err).
				WithErrorType(errorType(err)).
				ToSlice()...)
		if err := w.sleep(ctx, delay); err != nil {
			return nil
		}

		if err := src.Reconnect(); err != nil {
			attempt++
			w.logger.ErrorContext(ctx, "Reconnect failed",
				log.NewFields().WithError(err).ToSlice()...)
			continue
		}
		attempt = 0
		w.logger.InfoContext(ctx, "Reconnected to broker")
	}
}

// Stats reports how many events were applied and skipped.
func (w *SyncWorker) Stats() (processed, skipped int64) {
	return w.processed.Load(), w.skipped.Load()
}

func errorType(err error) string {
	if amqp.IsConnectionError(err) {
		return log.ErrorTypeNetwork
	}
	return log.ErrorTypeInternal
}

func amountText(ev *amqp.LedgerEvent) string {
	if ev.Amount == nil {
		return "null"
	}
	return core.FormatAmount(*ev.Amount)
}

func removeID(entries []core.Expense, id int64) []core.Expense {
	for i, e := range entries {
		if e.ID == id {
			return append(entries[:i:i], entries[i+1:]...)
		}
	}
	return entries
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
