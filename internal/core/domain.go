package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	KindIncome  Kind = "income"
	KindExpense Kind = "expense"
)

const (
	Weekly  RecurringPeriod = "weekly"
	Monthly RecurringPeriod = "monthly"
	Yearly  RecurringPeriod = "yearly"
)

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

// Collections a change notification may refer to.
const (
	CollectionTransactions Collection = "transactions"
	CollectionGoals        Collection = "goals"
	CollectionBudgetLimits Collection = "budget_limits"
)

const maxTextLength = 200

type (
	Kind            string
	RecurringPeriod string
	Priority        string
	Collection      string

	Transaction struct {
		ID              string          `json:"id"`
		Amount          Money           `json:"amount"`
		Description     string          `json:"description"`
		Category        string          `json:"category"`
		OccurredAt      time.Time       `json:"occurredAt"`
		Kind            Kind            `json:"kind"`
		Recurring       bool            `json:"recurring,omitempty"`
		RecurringPeriod RecurringPeriod `json:"recurringPeriod,omitempty"`
	}

	Goal struct {
		ID            string    `json:"id"`
		Title         string    `json:"title"`
		Description   string    `json:"description,omitempty"`
		TargetAmount  Money     `json:"targetAmount"`
		CurrentAmount Money     `json:"currentAmount"`
		TargetDate    time.Time `json:"targetDate"`
		Category      string    `json:"category"`
		Priority      Priority  `json:"priority"`
		IsActive      bool      `json:"isActive"`
		CreatedAt     time.Time `json:"createdAt"`
		UpdatedAt     time.Time `json:"updatedAt"`
	}

	// BudgetLimit is unique per category for an owner.
	BudgetLimit struct {
		ID           string    `json:"id"`
		CategoryName string    `json:"categoryName"`
		MonthlyLimit Money     `json:"monthlyLimit"`
		CreatedAt    time.Time `json:"createdAt"`
		UpdatedAt    time.Time `json:"updatedAt"`
	}
)

var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthenticated = errors.New("no owner in context")

	ErrInvalidAmount     = fmt.Errorf("%w: invalid amount", ErrInvalidArgument)
	ErrEmptyCategory     = fmt.Errorf("%w: empty category", ErrInvalidArgument)
	ErrEmptyTitle        = fmt.Errorf("%w: empty title", ErrInvalidArgument)
	ErrTextTooLong       = fmt.Errorf("%w: text too long (max %d characters)", ErrInvalidArgument, maxTextLength)
	ErrInvalidKind       = fmt.Errorf("%w: kind must be income or expense", ErrInvalidArgument)
	ErrInvalidPeriod     = fmt.Errorf("%w: invalid recurring period", ErrInvalidArgument)
	ErrInvalidPriority   = fmt.Errorf("%w: invalid priority", ErrInvalidArgument)
	ErrInvalidDate       = fmt.Errorf("%w: date cannot be zero", ErrInvalidArgument)
	ErrInvalidTargetDate = fmt.Errorf("%w: target date must be after creation", ErrInvalidArgument)
)

func (k Kind) IsValid() bool {
	return k == KindIncome || k == KindExpense
}

func (p RecurringPeriod) IsValid() bool {
	switch p {
	case Weekly, Monthly, Yearly:
		return true
	}
	return false
}

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Rank orders priorities so that high sorts above medium above low.
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 3
	case PriorityMedium:
		return 2
	case PriorityLow:
		return 1
	}
	return 0
}

// Signed returns the amount with the sign implied by the kind:
// positive for income, negative for expense, zero for anything else.
func (t Transaction) Signed() Money {
	switch t.Kind {
	case KindIncome:
		return t.Amount
	case KindExpense:
		return t.Amount.Neg()
	}
	return Money{}
}

func (t Transaction) Validate() error {
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if len(t.Description) > maxTextLength {
		return ErrTextTooLong
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if t.OccurredAt.IsZero() {
		return ErrInvalidDate
	}
	if !t.Kind.IsValid() {
		return ErrInvalidKind
	}
	if t.Recurring && !t.RecurringPeriod.IsValid() {
		return ErrInvalidPeriod
	}
	if !t.Recurring && t.RecurringPeriod != "" {
		return fmt.Errorf("%w: period set on a non-recurring transaction", ErrInvalidPeriod)
	}
	return nil
}

func (g Goal) Validate() error {
	if strings.TrimSpace(g.Title) == "" {
		return ErrEmptyTitle
	}
	if len(g.Title) > maxTextLength || len(g.Description) > maxTextLength {
		return ErrTextTooLong
	}
	if err := g.TargetAmount.Validate(); err != nil {
		return fmt.Errorf("target amount: %w", err)
	}
	if g.CurrentAmount.Cents < 0 || g.CurrentAmount.Cents > g.TargetAmount.Cents {
		return fmt.Errorf("current amount: %w", ErrInvalidAmount)
	}
	if g.TargetDate.IsZero() {
		return ErrInvalidDate
	}
	if !g.Priority.IsValid() {
		return ErrInvalidPriority
	}
	return nil
}

func (b BudgetLimit) Validate() error {
	if strings.TrimSpace(b.CategoryName) == "" {
		return ErrEmptyCategory
	}
	if err := b.MonthlyLimit.Validate(); err != nil {
		return fmt.Errorf("monthly limit: %w", err)
	}
	return nil
}
