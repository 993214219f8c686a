package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL for the three collections.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const timeLayout = time.RFC3339Nano

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse stored time %q: %w", s, err)
	}
	return t, nil
}

type scanner interface {
	Scan(dest ...interface{}) error
}

// Transactions

const transactionColumns = `id, amount_cents, description, category, occurred_at, kind, recurring, recurring_period`

const listTransactions = `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = ? ORDER BY rowid`

const getTransaction = `SELECT ` + transactionColumns + ` FROM transactions WHERE owner_id = ? AND id = ?`

const createTransaction = `INSERT INTO transactions (owner_id, ` + transactionColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateTransaction = `UPDATE transactions
SET amount_cents = ?, description = ?, category = ?, occurred_at = ?, kind = ?, recurring = ?, recurring_period = ?
WHERE owner_id = ? AND id = ?`

const deleteTransaction = `DELETE FROM transactions WHERE owner_id = ? AND id = ?`

func scanTransaction(row scanner) (core.Transaction, error) {
	var (
		t        core.Transaction
		occurred string
		kind     string
		period   string
	)
	if err := row.Scan(&t.ID, &t.Amount.Cents, &t.Description, &t.Category, &occurred, &kind, &t.Recurring, &period); err != nil {
		return core.Transaction{}, err
	}
	at, err := parseTime(occurred)
	if err != nil {
		return core.Transaction{}, err
	}
	t.OccurredAt = at
	t.Kind = core.Kind(kind)
	t.RecurringPeriod = core.RecurringPeriod(period)
	return t, nil
}

func (q *Queries) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	rows, err := q.db.QueryContext(ctx, listTransactions, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Transaction{}
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, t)
	}
	return items, rows.Err()
}

func (q *Queries) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	return scanTransaction(q.db.QueryRowContext(ctx, getTransaction, ownerID, id))
}

func (q *Queries) CreateTransaction(ctx context.Context, ownerID string, t core.Transaction) error {
	_, err := q.db.ExecContext(ctx, createTransaction, ownerID,
		t.ID, t.Amount.Cents, t.Description, t.Category, formatTime(t.OccurredAt), string(t.Kind), t.Recurring, string(t.RecurringPeriod))
	return err
}

func (q *Queries) UpdateTransaction(ctx context.Context, ownerID string, t core.Transaction) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateTransaction,
		t.Amount.Cents, t.Description, t.Category, formatTime(t.OccurredAt), string(t.Kind), t.Recurring, string(t.RecurringPeriod),
		ownerID, t.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteTransaction(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteTransaction, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const listRecurringOwners = `SELECT DISTINCT owner_id FROM transactions WHERE recurring = 1 ORDER BY owner_id`

func (q *Queries) ListRecurringOwners(ctx context.Context) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, listRecurringOwners)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	owners := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		owners = append(owners, id)
	}
	return owners, rows.Err()
}

// Goals

const goalColumns = `id, title, description, target_cents, current_cents, target_date, category, priority, is_active, created_at, updated_at`

const listGoals = `SELECT ` + goalColumns + ` FROM goals WHERE owner_id = ? ORDER BY rowid`

const getGoal = `SELECT ` + goalColumns + ` FROM goals WHERE owner_id = ? AND id = ?`

const createGoal = `INSERT INTO goals (owner_id, ` + goalColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

const updateGoal = `UPDATE goals
SET title = ?, description = ?, target_cents = ?, current_cents = ?, target_date = ?, category = ?, priority = ?, is_active = ?, updated_at = ?
WHERE owner_id = ? AND id = ?`

const deleteGoal = `DELETE FROM goals WHERE owner_id = ? AND id = ?`

func scanGoal(row scanner) (core.Goal, error) {
	var (
		g                        core.Goal
		target, created, updated string
		priority                 string
	)
	if err := row.Scan(&g.ID, &g.Title, &g.Description, &g.TargetAmount.Cents, &g.CurrentAmount.Cents,
		&target, &g.Category, &priority, &g.IsActive, &created, &updated); err != nil {
		return core.Goal{}, err
	}
	var err error
	if g.TargetDate, err = parseTime(target); err != nil {
		return core.Goal{}, err
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return core.Goal{}, err
	}
	if g.UpdatedAt, err = parseTime(updated); err != nil {
		return core.Goal{}, err
	}
	g.Priority = core.Priority(priority)
	return g, nil
}

func (q *Queries) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	rows, err := q.db.QueryContext(ctx, listGoals, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.Goal{}
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	return items, rows.Err()
}

func (q *Queries) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	return scanGoal(q.db.QueryRowContext(ctx, getGoal, ownerID, id))
}

func (q *Queries) CreateGoal(ctx context.Context, ownerID string, g core.Goal) error {
	_, err := q.db.ExecContext(ctx, createGoal, ownerID,
		g.ID, g.Title, g.Description, g.TargetAmount.Cents, g.CurrentAmount.Cents, formatTime(g.TargetDate),
		g.Category, string(g.Priority), g.IsActive, formatTime(g.CreatedAt), formatTime(g.UpdatedAt))
	return err
}

func (q *Queries) UpdateGoal(ctx context.Context, ownerID string, g core.Goal) (int64, error) {
	res, err := q.db.ExecContext(ctx, updateGoal,
		g.Title, g.Description, g.TargetAmount.Cents, g.CurrentAmount.Cents, formatTime(g.TargetDate),
		g.Category, string(g.Priority), g.IsActive, formatTime(g.UpdatedAt),
		ownerID, g.ID)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func (q *Queries) DeleteGoal(ctx context.Context, ownerID, id string) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteGoal, ownerID, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Budget limits

const limitColumns = `id, category_name, monthly_limit_cents, created_at, updated_at`

const listBudgetLimits = `SELECT ` + limitColumns + ` FROM budget_limits WHERE owner_id = ? ORDER BY rowid`

const getBudgetLimit = `SELECT ` + limitColumns + ` FROM budget_limits WHERE owner_id = ? AND category_name = ?`

const upsertBudgetLimit = `INSERT INTO budget_limits (owner_id, ` + limitColumns + `) VALUES (?, ?, ?, ?, ?, ?)
ON CONFLICT (owner_id, category_name) DO UPDATE
SET monthly_limit_cents = excluded.monthly_limit_cents, updated_at = excluded.updated_at
RETURNING ` + limitColumns

const deleteBudgetLimit = `DELETE FROM budget_limits WHERE owner_id = ? AND category_name = ?`

func scanBudgetLimit(row scanner) (core.BudgetLimit, error) {
	var (
		l                core.BudgetLimit
		created, updated string
	)
	if err := row.Scan(&l.ID, &l.CategoryName, &l.MonthlyLimit.Cents, &created, &updated); err != nil {
		return core.BudgetLimit{}, err
	}
	var err error
	if l.CreatedAt, err = parseTime(created); err != nil {
		return core.BudgetLimit{}, err
	}
	if l.UpdatedAt, err = parseTime(updated); err != nil {
		return core.BudgetLimit{}, err
	}
	return l, nil
}

func (q *Queries) ListBudgetLimits(ctx context.Context, ownerID string) ([]core.BudgetLimit, error) {
	rows, err := q.db.QueryContext(ctx, listBudgetLimits, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []core.BudgetLimit{}
	for rows.Next() {
		l, err := scanBudgetLimit(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, l)
	}
	return items, rows.Err()
}

func (q *Queries) GetBudgetLimit(ctx context.Context, ownerID, category string) (core.BudgetLimit, error) {
	return scanBudgetLimit(q.db.QueryRowContext(ctx, getBudgetLimit, ownerID, category))
}

func (q *Queries) UpsertBudgetLimit(ctx context.Context, ownerID string, l core.BudgetLimit) (core.BudgetLimit, error) {
	return scanBudgetLimit(q.db.QueryRowContext(ctx, upsertBudgetLimit, ownerID,
		l.ID, l.CategoryName, l.MonthlyLimit.Cents, formatTime(l.CreatedAt), formatTime(l.UpdatedAt)))
}

func (q *Queries) DeleteBudgetLimit(ctx context.Context, ownerID, category string) error {
	_, err := q.db.ExecContext(ctx, deleteBudgetLimit, ownerID, category)
	return err
}
