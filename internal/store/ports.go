// Package store defines the owner-scoped record store boundary.
//
// Every method takes the owner explicitly. Implementations never derive it
// from ambient state. An empty owner reads as an empty collection.
package store

import (
	"context"
	"errors"

	"fintrack/internal/core"
)

// Ports for record persistence.
type (
	TransactionStore interface {
		ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error)
		GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error)
		CreateTransaction(ctx context.Context, ownerID string, tx core.Transaction) error
		// UpdateTransaction replaces the record with tx.ID; core.ErrNotFound if absent.
		UpdateTransaction(ctx context.Context, ownerID string, tx core.Transaction) error
		DeleteTransaction(ctx context.Context, ownerID, id string) error
	}

	GoalStore interface {
		ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error)
		GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error)
		CreateGoal(ctx context.Context, ownerID string, g core.Goal) error
		UpdateGoal(ctx context.Context, ownerID string, g core.Goal) error
		DeleteGoal(ctx context.Context, ownerID, id string) error
	}

	// BudgetLimitStore keys limits by category: at most one per owner and category.
	BudgetLimitStore interface {
		ListBudgetLimits(ctx context.Context, ownerID string) ([]core.BudgetLimit, error)
		GetBudgetLimit(ctx context.Context, ownerID, category string) (core.BudgetLimit, error)
		// PutBudgetLimit inserts l or, when the category already has a limit,
		// updates it in place keeping its ID and CreatedAt. It returns the stored record.
		PutBudgetLimit(ctx context.Context, ownerID string, l core.BudgetLimit) (core.BudgetLimit, error)
		// DeleteBudgetLimit is a no-op when the category has no limit.
		DeleteBudgetLimit(ctx context.Context, ownerID, category string) error
	}

	// Store is the full record store.
	Store interface {
		TransactionStore
		GoalStore
		BudgetLimitStore
	}

	// RecurringOwnerLister lists owners holding at least one recurring
	// transaction, in a stable order.
	RecurringOwnerLister interface {
		ListRecurringOwners(ctx context.Context) ([]string, error)
	}

	// ChangeNotifier is told after an owner's collection changed.
	ChangeNotifier interface {
		NotifyChange(ctx context.Context, ownerID string, c core.Collection) error
	}
)

// NotifierFunc adapts a function to ChangeNotifier.
type NotifierFunc func(ctx context.Context, ownerID string, c core.Collection) error

func (f NotifierFunc) NotifyChange(ctx context.Context, ownerID string, c core.Collection) error {
	return f(ctx, ownerID, c)
}

// MultiNotifier fans a change out to every notifier and joins their errors.
type MultiNotifier []ChangeNotifier

func (m MultiNotifier) NotifyChange(ctx context.Context, ownerID string, c core.Collection) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.NotifyChange(ctx, ownerID, c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
