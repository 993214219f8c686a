package adapters

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
	"fintrack/internal/store/memory"
)

type change struct {
	owner      string
	collection core.Collection
}

func recorder(out *[]change, err error) store.ChangeNotifier {
	return store.NotifierFunc(func(_ context.Context, ownerID string, c core.Collection) error {
		*out = append(*out, change{ownerID, c})
		return err
	})
}

func TestNotifyingStoreNotifiesOnWrites(t *testing.T) {
	ctx := context.Background()
	var got []change
	s := NewNotifyingStore(memory.New(), recorder(&got, nil))
	when := time.Date(2026, 1, 25, 0, 0, 0, 0, time.UTC)

	tx := core.Transaction{ID: "t1", Amount: core.Cents(4590), Category: "Alimentação", OccurredAt: when, Kind: core.KindExpense}
	g := core.Goal{ID: "g1", Title: "Viagem", TargetAmount: core.Cents(1500000), TargetDate: when, Priority: core.PriorityHigh}
	l := core.BudgetLimit{ID: "l1", CategoryName: "Alimentação", MonthlyLimit: core.Cents(80000)}

	steps := []error{
		s.CreateTransaction(ctx, "alice", tx),
		s.UpdateTransaction(ctx, "alice", tx),
		s.DeleteTransaction(ctx, "alice", "t1"),
		s.CreateGoal(ctx, "alice", g),
		s.UpdateGoal(ctx, "alice", g),
		s.DeleteGoal(ctx, "alice", "g1"),
		s.DeleteBudgetLimit(ctx, "alice", "Alimentação"),
	}
	if _, err := s.PutBudgetLimit(ctx, "alice", l); err != nil {
		t.Fatalf("put limit: %v", err)
	}
	for i, err := range steps {
		if err != nil {
			t.Fatalf("step %d: %v", i, err)
		}
	}

	want := []core.Collection{
		core.CollectionTransactions, core.CollectionTransactions, core.CollectionTransactions,
		core.CollectionGoals, core.CollectionGoals, core.CollectionGoals,
		core.CollectionBudgetLimits, core.CollectionBudgetLimits,
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d notifications, got %d: %+v", len(want), len(got), got)
	}
	for i, c := range got {
		if c.owner != "alice" || c.collection != want[i] {
			t.Errorf("notification %d = %+v, want alice/%s", i, c, want[i])
		}
	}
}

func TestNotifyingStoreSkipsFailedWrites(t *testing.T) {
	ctx := context.Background()
	var got []change
	s := NewNotifyingStore(memory.New(), recorder(&got, nil))

	if err := s.DeleteTransaction(ctx, "alice", "missing"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("failed write must not notify: %+v", got)
	}
}

func TestNotifyingStoreSwallowsNotifierErrors(t *testing.T) {
	ctx := context.Background()
	var got []change
	s := NewNotifyingStore(memory.New(), recorder(&got, errors.New("broker down")))

	l := core.BudgetLimit{ID: "l1", CategoryName: "Transporte", MonthlyLimit: core.Cents(40000)}
	if _, err := s.PutBudgetLimit(ctx, "alice", l); err != nil {
		t.Fatalf("write should succeed despite notifier error: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one notification attempt, got %d", len(got))
	}
	limits, _ := s.ListBudgetLimits(ctx, "alice")
	if len(limits) != 1 {
		t.Fatalf("limit not stored: %+v", limits)
	}
}
