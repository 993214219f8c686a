package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store/memory"
)

func TestBudgetService_SetBudgetLimitUpserts(t *testing.T) {
	ctx := context.Background()
	budgets := NewBudgetService(memory.New())
	budgets.now = fixedNow
	budgets.newID = sequentialIDs("limit")

	first, err := budgets.SetBudgetLimit(ctx, "alice", "Alimentação", core.Cents(80000))
	if err != nil {
		t.Fatalf("first set: %v", err)
	}

	later := testNow.Add(time.Hour)
	budgets.now = func() time.Time { return later }
	second, err := budgets.SetBudgetLimit(ctx, "alice", " Alimentação ", core.Cents(90000))
	if err != nil {
		t.Fatalf("second set: %v", err)
	}
	if second.ID != first.ID || !second.CreatedAt.Equal(testNow) || !second.UpdatedAt.Equal(later) {
		t.Errorf("expected in-place update, got first=%+v second=%+v", first, second)
	}

	limits, _ := budgets.ListBudgetLimits(ctx, "alice")
	if len(limits) != 1 || limits[0].MonthlyLimit != core.Cents(90000) {
		t.Fatalf("unexpected limits: %+v", limits)
	}
}

func TestBudgetService_Validation(t *testing.T) {
	ctx := context.Background()
	budgets := NewBudgetService(memory.New())

	tests := []struct {
		name     string
		owner    string
		category string
		limit    core.Money
		wantErr  error
	}{
		{"missing owner", "", "Transporte", core.Cents(40000), core.ErrUnauthenticated},
		{"blank category", "alice", " ", core.Cents(40000), core.ErrInvalidArgument},
		{"zero limit", "alice", "Transporte", core.Money{}, core.ErrInvalidArgument},
		{"negative limit", "alice", "Transporte", core.Cents(-1), core.ErrInvalidArgument},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := budgets.SetBudgetLimit(ctx, tt.owner, tt.category, tt.limit); !errors.Is(err, tt.wantErr) {
				t.Errorf("SetBudgetLimit() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestBudgetService_DeleteBudgetLimit(t *testing.T) {
	ctx := context.Background()
	budgets := NewBudgetService(memory.New())

	if err := budgets.DeleteBudgetLimit(ctx, "alice", "Pets"); err != nil {
		t.Fatalf("deleting an absent limit should be a no-op: %v", err)
	}
	if _, err := budgets.SetBudgetLimit(ctx, "alice", "Pets", core.Cents(10000)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := budgets.DeleteBudgetLimit(ctx, "alice", "Pets"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	limits, _ := budgets.ListBudgetLimits(ctx, "alice")
	if len(limits) != 0 {
		t.Fatalf("expected no limits, got %+v", limits)
	}
	if lims, _ := budgets.ListBudgetLimits(ctx, ""); lims == nil || len(lims) != 0 {
		t.Fatalf("missing owner should list nothing, got %#v", lims)
	}
}
