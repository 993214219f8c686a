package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"fintrack/internal/analytics"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// GoalService manages savings goals and their progress.
type GoalService struct {
	store store.GoalStore
	now   func() time.Time
	newID func() string
}

func NewGoalService(s store.GoalStore) *GoalService {
	return &GoalService{store: s, now: time.Now, newID: uuid.NewString}
}

func (s *GoalService) ListGoals(ctx context.Context, ownerID string) ([]core.Goal, error) {
	if ownerID == "" {
		return []core.Goal{}, nil
	}
	goals, err := s.store.ListGoals(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *GoalService) GetGoal(ctx context.Context, ownerID, id string) (core.Goal, error) {
	if ownerID == "" {
		return core.Goal{}, core.ErrNotFound
	}
	return s.store.GetGoal(ctx, ownerID, id)
}

// AddGoal creates a goal. The target date must fall after creation so the
// on-track heuristic always has a positive lifespan.
func (s *GoalService) AddGoal(ctx context.Context, ownerID string, g core.Goal) (core.Goal, error) {
	if ownerID == "" {
		return core.Goal{}, core.ErrUnauthenticated
	}
	ts := s.now()
	g.ID = s.newID()
	g.Title = strings.TrimSpace(g.Title)
	g.CreatedAt = ts
	g.UpdatedAt = ts
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if !g.TargetDate.After(g.CreatedAt) {
		return core.Goal{}, core.ErrInvalidTargetDate
	}

	if err := s.store.CreateGoal(ctx, ownerID, g); err != nil {
		return core.Goal{}, fmt.Errorf("create goal: %w", err)
	}

	slog.InfoContext(ctx, "Goal created",
		log.FieldComponent, log.ComponentGoals,
		log.FieldOwnerID, ownerID,
		log.FieldGoalID, g.ID,
		"target_cents", g.TargetAmount.Cents,
		"target_date", g.TargetDate.Format(time.DateOnly))
	return g, nil
}

// UpdateGoal replaces the editable fields of an existing goal. CreatedAt is
// kept from the stored record.
func (s *GoalService) UpdateGoal(ctx context.Context, ownerID string, g core.Goal) (core.Goal, error) {
	if ownerID == "" {
		return core.Goal{}, core.ErrUnauthenticated
	}
	cur, err := s.store.GetGoal(ctx, ownerID, g.ID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	g.Title = strings.TrimSpace(g.Title)
	g.CreatedAt = cur.CreatedAt
	g.UpdatedAt = s.now()
	if err := g.Validate(); err != nil {
		return core.Goal{}, err
	}
	if !g.TargetDate.After(g.CreatedAt) {
		return core.Goal{}, core.ErrInvalidTargetDate
	}
	if err := s.store.UpdateGoal(ctx, ownerID, g); err != nil {
		return core.Goal{}, fmt.Errorf("update goal %s: %w", g.ID, err)
	}
	return g, nil
}

func (s *GoalService) DeleteGoal(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	if err := s.store.DeleteGoal(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete goal %s: %w", id, err)
	}
	return nil
}

// UpdateGoalProgress adds amount to the goal's current amount. The result is
// clamped to [0, target], so a negative amount never drops progress below zero.
func (s *GoalService) UpdateGoalProgress(ctx context.Context, ownerID, goalID string, amount core.Money) (core.Goal, error) {
	if ownerID == "" {
		return core.Goal{}, core.ErrUnauthenticated
	}
	g, err := s.store.GetGoal(ctx, ownerID, goalID)
	if err != nil {
		return core.Goal{}, fmt.Errorf("goal progress %s: %w", goalID, err)
	}
	before := g.CurrentAmount
	g = analytics.ApplyProgress(g, amount, s.now())
	if err := s.store.UpdateGoal(ctx, ownerID, g); err != nil {
		return core.Goal{}, fmt.Errorf("goal progress %s: %w", goalID, err)
	}

	slog.InfoContext(ctx, "Goal progress updated",
		log.FieldComponent, log.ComponentGoals,
		log.FieldOwnerID, ownerID,
		log.FieldGoalID, goalID,
		log.FieldAmountCents, amount.Cents,
		"before_cents", before.Cents,
		"after_cents", g.CurrentAmount.Cents)
	return g, nil
}

// GoalProgress derives progress for one goal. Unknown goals and missing
// owners yield core.ErrNotFound.
func (s *GoalService) GoalProgress(ctx context.Context, ownerID, goalID string) (core.GoalProgress, error) {
	if ownerID == "" {
		return core.GoalProgress{}, core.ErrNotFound
	}
	g, err := s.store.GetGoal(ctx, ownerID, goalID)
	if err != nil {
		return core.GoalProgress{}, err
	}
	return analytics.Progress(g, s.now()), nil
}
