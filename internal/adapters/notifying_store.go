// Package adapters wraps record stores with the side effects the HTTP and
// worker layers expect.
package adapters

import (
	"context"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// NotifyingStore adapts a store.Store so that every successful write tells
// the change notifier which owner collection changed. Reads pass through.
//
// A failed notification is logged and swallowed: the write already happened
// and readers will still see it on their next cache miss.
type NotifyingStore struct {
	store.Store
	notifier store.ChangeNotifier
}

var _ store.Store = (*NotifyingStore)(nil)

func NewNotifyingStore(s store.Store, notifier store.ChangeNotifier) *NotifyingStore {
	return &NotifyingStore{Store: s, notifier: notifier}
}

// Unwrap returns the decorated store.
func (s *NotifyingStore) Unwrap() store.Store {
	return s.Store
}

func (s *NotifyingStore) notify(ctx context.Context, ownerID string, c core.Collection) {
	if s.notifier == nil {
		return
	}
	if err := s.notifier.NotifyChange(ctx, ownerID, c); err != nil {
		slog.WarnContext(ctx, "Failed to publish change notification",
			log.FieldOwnerID, ownerID,
			log.FieldCollection, string(c),
			log.FieldError, err)
	}
}

// done notifies after a successful write and returns err unchanged.
func (s *NotifyingStore) done(ctx context.Context, ownerID string, c core.Collection, err error) error {
	if err == nil {
		s.notify(ctx, ownerID, c)
	}
	return err
}

func (s *NotifyingStore) CreateTransaction(ctx context.Context, ownerID string, tx core.Transaction) error {
	return s.done(ctx, ownerID, core.CollectionTransactions, s.Store.CreateTransaction(ctx, ownerID, tx))
}

func (s *NotifyingStore) UpdateTransaction(ctx context.Context, ownerID string, tx core.Transaction) error {
	return s.done(ctx, ownerID, core.CollectionTransactions, s.Store.UpdateTransaction(ctx, ownerID, tx))
}

func (s *NotifyingStore) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	return s.done(ctx, ownerID, core.CollectionTransactions, s.Store.DeleteTransaction(ctx, ownerID, id))
}

func (s *NotifyingStore) CreateGoal(ctx context.Context, ownerID string, g core.Goal) error {
	return s.done(ctx, ownerID, core.CollectionGoals, s.Store.CreateGoal(ctx, ownerID, g))
}

func (s *NotifyingStore) UpdateGoal(ctx context.Context, ownerID string, g core.Goal) error {
	return s.done(ctx, ownerID, core.CollectionGoals, s.Store.UpdateGoal(ctx, ownerID, g))
}

func (s *NotifyingStore) DeleteGoal(ctx context.Context, ownerID, id string) error {
	return s.done(ctx, ownerID, core.CollectionGoals, s.Store.DeleteGoal(ctx, ownerID, id))
}

func (s *NotifyingStore) PutBudgetLimit(ctx context.Context, ownerID string, l core.BudgetLimit) (core.BudgetLimit, error) {
	stored, err := s.Store.PutBudgetLimit(ctx, ownerID, l)
	return stored, s.done(ctx, ownerID, core.CollectionBudgetLimits, err)
}

func (s *NotifyingStore) DeleteBudgetLimit(ctx context.Context, ownerID, category string) error {
	return s.done(ctx, ownerID, core.CollectionBudgetLimits, s.Store.DeleteBudgetLimit(ctx, ownerID, category))
}
