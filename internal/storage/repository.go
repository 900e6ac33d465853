package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"math"
	"strconv"

	"expenses/internal/core"

	_ "modernc.org/sqlite"
)

// MemoryDSN returns a shared-cache in-memory database name. Every connection
// opened with the same name sees the same tables until the last one closes.
func MemoryDSN(name string) string {
	return "file:" + name + "?mode=memory&cache=shared"
}

type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository opens an in-memory ledger database and applies the
// schema. Entries live only as long as the repository stays open.
func NewSQLiteRepository(name string) (*SQLiteRepository, error) {
	dsn := MemoryDSN(name)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single long-lived connection pins the memory database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Append implements store.ExpenseWriter
func (r *SQLiteRepository) Append(ctx context.Context, e core.Expense) (string, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, name, amount, category) VALUES (?, ?, ?, ?)`,
		e.ID, e.Name, amountParam(e.Amount), string(e.Category))
	if err != nil {
		return "", fmt.Errorf("insert expense: %w", err)
	}
	seq, err := res.LastInsertId()
	if err != nil {
		return "", fmt.Errorf("last insert id: %w", err)
	}

	slog.DebugContext(ctx, "Expense saved to SQLite",
		"seq", seq,
		"id", e.ID,
		"name", e.Name,
		"category", e.Category)

	return strconv.FormatInt(seq, 10), nil
}

// Delete implements store.ExpenseDeleter
func (r *SQLiteRepository) Delete(ctx context.Context, id int64) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE seq = (SELECT seq FROM expenses WHERE id = ? ORDER BY seq LIMIT 1)`, id)
	if err != nil {
		return false, fmt.Errorf("delete expense %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// List implements store.ExpenseLister
func (r *SQLiteRepository) List(ctx context.Context) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, amount, category FROM expenses ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		var (
			e        core.Expense
			amount   sql.NullFloat64
			category string
		)
		if err := rows.Scan(&e.ID, &e.Name, &amount, &category); err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		e.Amount = math.NaN()
		if amount.Valid {
			e.Amount = amount.Float64
		}
		e.Category = core.Category(category)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

// SQLite has no NaN; it is stored as NULL and read back as NaN.
func amountParam(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}
