package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/store"
)

// LedgerService manages an owner's income and expense transactions.
type LedgerService struct {
	store store.TransactionStore
	newID func() string
}

func NewLedgerService(s store.TransactionStore) *LedgerService {
	return &LedgerService{store: s, newID: uuid.NewString}
}

// ListTransactions returns the owner's transactions; an empty owner has none.
func (s *LedgerService) ListTransactions(ctx context.Context, ownerID string) ([]core.Transaction, error) {
	if ownerID == "" {
		return []core.Transaction{}, nil
	}
	txs, err := s.store.ListTransactions(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	return txs, nil
}

func (s *LedgerService) GetTransaction(ctx context.Context, ownerID, id string) (core.Transaction, error) {
	if ownerID == "" {
		return core.Transaction{}, core.ErrNotFound
	}
	return s.store.GetTransaction(ctx, ownerID, id)
}

// CreateTransaction validates tx, assigns it a fresh id and stores it.
func (s *LedgerService) CreateTransaction(ctx context.Context, ownerID string, tx core.Transaction) (core.Transaction, error) {
	if ownerID == "" {
		return core.Transaction{}, core.ErrUnauthenticated
	}
	tx = normalizeTransaction(tx)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	tx.ID = s.newID()

	if err := s.store.CreateTransaction(ctx, ownerID, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	slog.InfoContext(ctx, "Transaction created",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOwnerID, ownerID,
		log.FieldTransactionID, tx.ID,
		log.FieldCategory, tx.Category,
		log.FieldAmountCents, tx.Amount.Cents,
		"kind", tx.Kind)
	return tx, nil
}

// UpdateTransaction replaces the transaction with tx.ID.
func (s *LedgerService) UpdateTransaction(ctx context.Context, ownerID string, tx core.Transaction) (core.Transaction, error) {
	if ownerID == "" {
		return core.Transaction{}, core.ErrUnauthenticated
	}
	if tx.ID == "" {
		return core.Transaction{}, fmt.Errorf("%w: missing transaction id", core.ErrInvalidArgument)
	}
	tx = normalizeTransaction(tx)
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	if err := s.store.UpdateTransaction(ctx, ownerID, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", tx.ID, err)
	}
	return tx, nil
}

func (s *LedgerService) DeleteTransaction(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return core.ErrUnauthenticated
	}
	if err := s.store.DeleteTransaction(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete transaction %s: %w", id, err)
	}
	slog.InfoContext(ctx, "Transaction deleted",
		log.FieldComponent, log.ComponentLedger,
		log.FieldOwnerID, ownerID,
		log.FieldTransactionID, id)
	return nil
}

func normalizeTransaction(tx core.Transaction) core.Transaction {
	tx.Description = strings.TrimSpace(tx.Description)
	tx.Category = strings.TrimSpace(tx.Category)
	return tx
}
