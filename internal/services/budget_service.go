package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// BudgetService manages per-category monthly limits.
type BudgetService struct {
	store store.BudgetLimitStore
	now   func() time.Time
	newID func() string
}

func NewBudgetService(s store.BudgetLimitStore) *BudgetService {
	return &BudgetService{store: s, now: time.Now, newID: uuid.NewString}
}

func (s *BudgetService) ListBudgetLimits(ctx context.Context, ownerID string) ([]core.BudgetLimit, error) {
	if ownerID == "" {
		return []core.BudgetLimit{}, nil
	}
	limits, err := s.store.ListBudgetLimits(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list budget limits: %w", err)
	}
	return limits, nil
}

// SetBudgetLimit creates the category's limit or updates it in place.
func (s *BudgetService) SetBudgetLimit(ctx context.Context, ownerID, category string, limit core.Money) (core.BudgetLimit, error) {
	if ownerID == "" {
		return core.BudgetLimit{}, core.ErrUnauthenticated
	}
	ts := s.now()
	l := core.BudgetLimit{
		ID:           s.newID(),
		CategoryName: strings.TrimSpace(category),
		MonthlyLimit: limit,
		CreatedAt:    ts,
		UpdatedAt:    ts,
	}
	if err := l.Validate(); err != nil {
		return core.BudgetLimit{}, err
	}
	stored, err := s.store.PutBudgetLimit(ctx, ownerID, l)
	if err != nil {
		return core.BudgetLimit{}, fmt.Errorf("set budget limit: %w", err)
	}

	slog.InfoContext(ctx, "Budget limit set",
		log.FieldComponent, log.ComponentBudgets,
		log.FieldOwnerID, ownerID,
		log.FieldCategory, stored.CategoryName,
		"limit_cents", stored.MonthlyLimit.Cents)
	return stored, nil
}

// DeleteBudgetLimit removes the category's limit; absent limits are a no-op.
func (s *BudgetService) DeleteBudgetLimit(ctx context.Context, ownerID, category string) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	if err := s.store.DeleteBudgetLimit(ctx, ownerID, strings.TrimSpace(category)); err != nil {
		return fmt.Errorf("delete budget limit: %w", err)
	}
	return nil
}
