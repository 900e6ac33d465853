package store

import (
	"context"

	"expenses/internal/core"
)

// Ports for ledger backends. Implementations keep entries in insertion order.
type (
	ExpenseWriter interface {
		Append(ctx context.Context, e core.Expense) (ref string, err error)
	}

	ExpenseDeleter interface {
		// Delete removes the entry with the given id. A missing id is not an
		// error; removed reports whether anything matched.
		Delete(ctx context.Context, id int64) (removed bool, err error)
	}

	ExpenseLister interface {
		// List returns all entries in insertion order.
		List(ctx context.Context) ([]core.Expense, error)
	}
)
