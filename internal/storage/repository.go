// Package storage is the SQLite-backed record store.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"fintrack/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return core.ErrNotFound
	}
	return err
}

func affected(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	items, err := r.queries.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	t, err := r.queries.GetTransaction(ctx, ownerID, id)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction %s: %w", id, notFound(err))
	}
	return t, nil
}

func (r *SQLiteRepository) CreateTransaction(ctx context.Context, ownerID string, t core.Transaction) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	if err := r.queries.CreateTransaction(ctx, ownerID, t); err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"owner_id", ownerID,
		"kind", t.Kind,
		"amount_cents", t.Amount.Cents,
		"category", t.Category)
	return nil
}

func (r *SQLiteRepository) UpdateTransaction(ctx context.Context, ownerID string, t core.Transaction) error {
	if err := affected(r.queries.UpdateTransaction(ctx, ownerID, t)); err != nil {
		return fmt.Errorf("update transaction %s: %w", t.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if err := affected(r.queries.DeleteTransaction(ctx, ownerID, id)); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListRecurringOwners(ctx context.Context) ([]string, error) {
	owners, err := r.queries.ListRecurringOwners(ctx)
	if err != nil {
		return nil, fmt.Errorf("list recurring owners: %w", err)
	}
	return owners, nil
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	items, err := r.queries.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	g, err := r.queries.GetGoal(ctx, ownerID, id)
	if err != nil {
		return core.Goal{}, fmt.Errorf("get goal %s: %w", id, notFound(err))
	}
	return g, nil
}

func (r *SQLiteRepository) CreateGoal(ctx context.Context, ownerID string, g core.Goal) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	if err := r.queries.CreateGoal(ctx, ownerID, g); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	slog.InfoContext(ctx, "Goal saved to SQLite", "id", g.ID, "owner_id", ownerID, "target_cents", g.TargetAmount.Cents)
	return nil
}

func (r *SQLiteRepository) UpdateGoal(ctx context.Context, ownerID string, g core.Goal) error {
	if err := affected(r.queries.UpdateGoal(ctx, ownerID, g)); err != nil {
		return fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, ownerID, id string) error {
	if err := affected(r.queries.DeleteGoal(ctx, ownerID, id)); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

func (r *SQLiteRepository) ListBudgetLimits(ctx context.Context, ownerID string) ([]core.BudgetLimit, error) {
	items, err := r.queries.ListBudgetLimits(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budget limits: %w", err)
	}
	return items, nil
}

func (r *SQLiteRepository) GetBudgetLimit(ctx context.Context, ownerID, category string) (core.BudgetLimit, error) {
	l, err := r.queries.GetBudgetLimit(ctx, ownerID, category)
	if err != nil {
		return core.BudgetLimit{}, fmt.Errorf("get budget limit %q: %w", category, notFound(err))
	}
	return l, nil
}

func (r *SQLiteRepository) PutBudgetLimit(ctx context.Context, ownerID string, l core.BudgetLimit) (core.BudgetLimit, error) {
	if ownerID == "" {
		return core.BudgetLimit{}, core.ErrUnauthenticated
	}
	stored, err := r.queries.UpsertBudgetLimit(ctx, ownerID, l)
	if err != nil {
		return core.BudgetLimit{}, fmt.Errorf("put budget limit %q: %w", l.CategoryName, err)
	}
	slog.InfoContext(ctx, "Budget limit saved to SQLite",
		"id", stored.ID,
		"owner_id", ownerID,
		"category", stored.CategoryName,
		"limit_cents", stored.MonthlyLimit.Cents)
	return stored, nil
}

func (r *SQLiteRepository) DeleteBudgetLimit(ctx context.Context, ownerID, category string) error {
	if err := r.queries.DeleteBudgetLimit(ctx, ownerID, category); err != nil {
		return fmt.Errorf("delete budget limit %q: %w", category, err)
	}
	return nil
}
