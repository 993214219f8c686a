package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store/memory"
)

var testNow = time.Date(2026, 1, 25, 12, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

// sequentialIDs returns an id generator yielding prefix-1, prefix-2, ...
func sequentialIDs(prefix string) func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("%s-%d", prefix, n)
	}
}

func newLedger(s *memory.Store) *LedgerService {
	l := NewLedgerService(s)
	l.newID = sequentialIDs("tx")
	return l
}

func TestLedgerService_CreateTransaction(t *testing.T) {
	ctx := context.Background()
	s := memory.New()
	ledger := newLedger(s)

	tests := []struct {
		name    string
		owner   string
		tx      core.Transaction
		wantErr error
	}{
		{
			name:  "valid expense",
			owner: "alice",
			tx:    core.Transaction{Amount: core.Cents(4590), Description: " Mercado ", Category: " Alimentação ", OccurredAt: testNow, Kind: core.KindExpense},
		},
		{
			name:    "missing owner",
			owner:   "",
			tx:      core.Transaction{Amount: core.Cents(4590), Category: "Alimentação", OccurredAt: testNow, Kind: core.KindExpense},
			wantErr: core.ErrUnauthenticated,
		},
		{
			name:    "zero amount",
			owner:   "alice",
			tx:      core.Transaction{Category: "Alimentação", OccurredAt: testNow, Kind: core.KindExpense},
			wantErr: core.ErrInvalidArgument,
		},
		{
			name:    "period without recurring flag",
			owner:   "alice",
			tx:      core.Transaction{Amount: core.Cents(100), Category: "Moradia", OccurredAt: testNow, Kind: core.KindExpense, RecurringPeriod: core.Monthly},
			wantErr: core.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ledger.CreateTransaction(ctx, tt.owner, tt.tx)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("CreateTransaction() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("CreateTransaction() error = %v", err)
			}
			if got.ID == "" {
				t.Fatal("expected an id to be assigned")
			}
			if got.Description != "Mercado" || got.Category != "Alimentação" {
				t.Errorf("fields not trimmed: %+v", got)
			}
			stored, err := s.GetTransaction(ctx, tt.owner, got.ID)
			if err != nil || stored != got {
				t.Errorf("stored = %+v err=%v, want %+v", stored, err, got)
			}
		})
	}
}

func TestLedgerService_MissingOwnerReadsEmpty(t *testing.T) {
	ledger := newLedger(memory.New())

	txs, err := ledger.ListTransactions(context.Background(), "")
	if err != nil {
		t.Fatalf("ListTransactions() error = %v", err)
	}
	if txs == nil || len(txs) != 0 {
		t.Fatalf("expected empty non-nil list, got %#v", txs)
	}
	if _, err := ledger.GetTransaction(context.Background(), "", "x"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLedgerService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger(memory.New())

	tx, err := ledger.CreateTransaction(ctx, "alice", core.Transaction{Amount: core.Cents(4590), Category: "Alimentação", OccurredAt: testNow, Kind: core.KindExpense})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	tx.Amount = core.Cents(5000)
	if _, err := ledger.UpdateTransaction(ctx, "alice", tx); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ := ledger.GetTransaction(ctx, "alice", tx.ID)
	if got.Amount != core.Cents(5000) {
		t.Errorf("update not applied: %+v", got)
	}

	if _, err := ledger.UpdateTransaction(ctx, "alice", core.Transaction{Amount: core.Cents(1), Category: "x", OccurredAt: testNow, Kind: core.KindIncome}); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("update without id: expected ErrInvalidArgument, got %v", err)
	}
	if _, err := ledger.UpdateTransaction(ctx, "bob", tx); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("update across owners: expected ErrNotFound, got %v", err)
	}

	if err := ledger.DeleteTransaction(ctx, "alice", tx.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := ledger.DeleteTransaction(ctx, "alice", tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: expected ErrNotFound, got %v", err)
	}
	if err := ledger.DeleteTransaction(ctx, "", tx.ID); !errors.Is(err, core.ErrUnauthenticated) {
		t.Errorf("delete without owner: expected ErrUnauthenticated, got %v", err)
	}
}
