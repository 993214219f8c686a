package services

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store/memory"
)

func newGoals(s *memory.Store) *GoalService {
	g := NewGoalService(s)
	g.now = fixedNow
	g.newID = sequentialIDs("goal")
	return g
}

func trip() core.Goal {
	return core.Goal{
		Title:        "Viagem",
		TargetAmount: core.Cents(1500000),
		TargetDate:   testNow.AddDate(0, 0, 180),
		Category:     "Lazer",
		Priority:     core.PriorityHigh,
		IsActive:     true,
	}
}

func TestGoalService_AddGoal(t *testing.T) {
	ctx := context.Background()
	goals := newGoals(memory.New())

	tests := []struct {
		name    string
		owner   string
		mutate  func(*core.Goal)
		wantErr error
	}{
		{name: "valid goal", owner: "alice", mutate: func(*core.Goal) {}},
		{name: "missing owner", owner: "", mutate: func(*core.Goal) {}, wantErr: core.ErrUnauthenticated},
		{name: "target date equals creation", owner: "alice", mutate: func(g *core.Goal) { g.TargetDate = testNow }, wantErr: core.ErrInvalidTargetDate},
		{name: "target date in the past", owner: "alice", mutate: func(g *core.Goal) { g.TargetDate = testNow.AddDate(0, -1, 0) }, wantErr: core.ErrInvalidArgument},
		{name: "non-positive target", owner: "alice", mutate: func(g *core.Goal) { g.TargetAmount = core.Money{} }, wantErr: core.ErrInvalidArgument},
		{name: "blank title", owner: "alice", mutate: func(g *core.Goal) { g.Title = "  " }, wantErr: core.ErrInvalidArgument},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := trip()
			tt.mutate(&g)
			got, err := goals.AddGoal(ctx, tt.owner, g)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("AddGoal() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("AddGoal() error = %v", err)
			}
			if got.ID == "" || !got.CreatedAt.Equal(testNow) || !got.UpdatedAt.Equal(testNow) {
				t.Errorf("unexpected stamps: %+v", got)
			}
		})
	}
}

func TestGoalService_UpdateGoalProgressClamps(t *testing.T) {
	ctx := context.Background()
	goals := newGoals(memory.New())
	g, err := goals.AddGoal(ctx, "alice", trip())
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	later := testNow.Add(time.Hour)
	goals.now = func() time.Time { return later }

	steps := []struct {
		amount int64
		want   int64
	}{
		{350000, 350000},
		{-500000, 0},
		{2000000, 1500000},
		{100, 1500000},
	}
	for _, st := range steps {
		got, err := goals.UpdateGoalProgress(ctx, "alice", g.ID, core.Cents(st.amount))
		if err != nil {
			t.Fatalf("progress %d: %v", st.amount, err)
		}
		if got.CurrentAmount.Cents != st.want {
			t.Errorf("after %+d current = %d, want %d", st.amount, got.CurrentAmount.Cents, st.want)
		}
		if !got.UpdatedAt.Equal(later) {
			t.Errorf("UpdatedAt not refreshed: %v", got.UpdatedAt)
		}
	}

	if _, err := goals.UpdateGoalProgress(ctx, "alice", "missing", core.Cents(100)); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown goal: expected ErrNotFound, got %v", err)
	}
}

func TestGoalService_GoalProgress(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	goals := newGoals(s)

	g := trip()
	g.ID = "g1"
	g.CurrentAmount = core.Cents(350000)
	g.CreatedAt = testNow.AddDate(0, 0, -30)
	g.UpdatedAt = g.CreatedAt
	if err := s.CreateGoal(ctx, "alice", g); err != nil {
		t.Fatalf("seed: %v", err)
	}

	p, err := goals.GoalProgress(ctx, "alice", "g1")
	if err != nil {
		t.Fatalf("GoalProgress() error = %v", err)
	}
	if math.Abs(p.Percentage-23.333333) > 1e-4 {
		t.Errorf("percentage = %v, want ~23.33", p.Percentage)
	}
	if p.RemainingAmount != core.Cents(1150000) || p.MonthlyRequiredSaving != core.Cents(191667) {
		t.Errorf("unexpected progress: %+v", p)
	}

	if _, err := goals.GoalProgress(ctx, "alice", "nope"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown goal: expected ErrNotFound, got %v", err)
	}
	if _, err := goals.GoalProgress(ctx, "", "g1"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("missing owner: expected ErrNotFound, got %v", err)
	}
}

func TestGoalService_UpdateGoalKeepsCreatedAt(t *testing.T) {
	ctx := context.Background()
	goals := newGoals(memory.New())
	g, _ := goals.AddGoal(ctx, "alice", trip())

	goals.now = func() time.Time { return testNow.Add(24 * time.Hour) }
	edit := g
	edit.Title = "Viagem ao Japão"
	edit.CreatedAt = time.Time{}
	got, err := goals.UpdateGoal(ctx, "alice", edit)
	if err != nil {
		t.Fatalf("UpdateGoal() error = %v", err)
	}
	if !got.CreatedAt.Equal(testNow) || got.Title != "Viagem ao Japão" {
		t.Errorf("unexpected goal after update: %+v", got)
	}

	if err := goals.DeleteGoal(ctx, "alice", g.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := goals.UpdateGoal(ctx, "alice", edit); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update after delete: expected ErrNotFound, got %v", err)
	}
}
