// Package memory is an in-process Store, partitioned by owner.
package memory

import (
	"context"
	"slices"
	"sync"

	"fintrack/internal/core"
)

type bucket struct {
	txs    []core.Transaction
	goals  []core.Goal
	limits []core.BudgetLimit
}

type Store struct {
	mu     sync.Mutex
	owners map[string]*bucket
}

func New() *Store {
	return &Store{owners: make(map[string]*bucket)}
}

// owner returns the owner's bucket, creating it when create is set.
// Callers hold s.mu.
func (s *Store) owner(id string, create bool) *bucket {
	b, ok := s.owners[id]
	if !ok && create {
		b = &bucket{}
		s.owners[id] = b
	}
	return b
}

func (s *Store) ListTransactions(_ context.Context, ownerID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.owner(ownerID, false)
	if b == nil {
		return []core.Transaction{}, nil
	}
	return append([]core.Transaction{}, b.txs...), nil
}

func (s *Store) GetTransaction(_ context.Context, ownerID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.txs, func(t core.Transaction) bool { return t.ID == id }); i >= 0 {
			return b.txs[i], nil
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) CreateTransaction(_ context.Context, ownerID string, tx core.Transaction) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.owner(ownerID, true)
	b.txs = append(b.txs, tx)
	return nil
}

func (s *Store) UpdateTransaction(_ context.Context, ownerID string, tx core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.txs, func(t core.Transaction) bool { return t.ID == tx.ID }); i >= 0 {
			b.txs[i] = tx
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) DeleteTransaction(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.txs, func(t core.Transaction) bool { return t.ID == id }); i >= 0 {
			b.txs = append(b.txs[:i], b.txs[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, ownerID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.owner(ownerID, false)
	if b == nil {
		return []core.Goal{}, nil
	}
	return append([]core.Goal{}, b.goals...), nil
}

func (s *Store) GetGoal(_ context.Context, ownerID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.goals, func(g core.Goal) bool { return g.ID == id }); i >= 0 {
			return b.goals[i], nil
		}
	}
	return core.Goal{}, core.ErrNotFound
}

func (s *Store) CreateGoal(_ context.Context, ownerID string, g core.Goal) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.owner(ownerID, true)
	b.goals = append(b.goals, g)
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, ownerID string, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.goals, func(x core.Goal) bool { return x.ID == g.ID }); i >= 0 {
			b.goals[i] = g
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) DeleteGoal(_ context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.goals, func(g core.Goal) bool { return g.ID == id }); i >= 0 {
			b.goals = append(b.goals[:i], b.goals[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (s *Store) ListBudgetLimits(_ context.Context, ownerID string) ([]core.BudgetLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.owner(ownerID, false)
	if b == nil {
		return []core.BudgetLimit{}, nil
	}
	return append([]core.BudgetLimit{}, b.limits...), nil
}

func (s *Store) GetBudgetLimit(_ context.Context, ownerID, category string) (core.BudgetLimit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.limits, byCategory(category)); i >= 0 {
			return b.limits[i], nil
		}
	}
	return core.BudgetLimit{}, core.ErrNotFound
}

func (s *Store) PutBudgetLimit(_ context.Context, ownerID string, l core.BudgetLimit) (core.BudgetLimit, error) {
	if ownerID == "" {
		return core.BudgetLimit{}, core.ErrUnauthenticated
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.owner(ownerID, true)
	if i := indexOf(b.limits, byCategory(l.CategoryName)); i >= 0 {
		cur := b.limits[i]
		cur.MonthlyLimit = l.MonthlyLimit
		cur.UpdatedAt = l.UpdatedAt
		b.limits[i] = cur
		return cur, nil
	}
	b.limits = append(b.limits, l)
	return l, nil
}

func (s *Store) DeleteBudgetLimit(_ context.Context, ownerID, category string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if b := s.owner(ownerID, false); b != nil {
		if i := indexOf(b.limits, byCategory(category)); i >= 0 {
			b.limits = append(b.limits[:i], b.limits[i+1:]...)
		}
	}
	return nil
}

func (s *Store) ListRecurringOwners(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	owners := []string{}
	for id, b := range s.owners {
		if indexOf(b.txs, func(t core.Transaction) bool { return t.Recurring }) >= 0 {
			owners = append(owners, id)
		}
	}
	slices.Sort(owners)
	return owners, nil
}

func byCategory(category string) func(core.BudgetLimit) bool {
	return func(l core.BudgetLimit) bool { return l.CategoryName == category }
}

func indexOf[T any](items []T, match func(T) bool) int {
	for i, it := range items {
		if match(it) {
			return i
		}
	}
	return -1
}
