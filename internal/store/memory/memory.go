package memory

import (
	"context"
	"fmt"
	"sync"

	"expenses/internal/core"
)

type Store struct {
	mu    sync.Mutex
	seq   int
	items []core.Expense
}

func New(seed ...core.Expense) *Store {
	return &Store{items: append([]core.Expense(nil), seed...)}
}

// Append stores the expense and returns a synthetic row reference.
func (s *Store) Append(_ context.Context, e core.Expense) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, e)
	s.seq++
	return fmt.Sprintf("mem:%d", s.seq), nil
}

// Delete drops the first entry whose id matches.
func (s *Store) Delete(_ context.Context, id int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, e := range s.items {
		if e.ID == id {
			s.items = append(s.items[:i:i], s.items[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

// List returns a copy of the entries.
func (s *Store) List(_ context.Context) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.items...), nil
}
