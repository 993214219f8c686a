package core

import "time"

const (
	SpendingCut        SuggestionType = "spending_cut"
	SavingOpportunity  SuggestionType = "saving_opportunity"
	BudgetAdjustment   SuggestionType = "budget_adjustment"
	GoalRecommendation SuggestionType = "goal_recommendation"
)

type SuggestionType string

// MonthAmount is the net amount of one calendar month.
// Month is a sortable YYYY-MM key; Label is for display only.
type MonthAmount struct {
	Month  string `json:"month"`
	Label  string `json:"label"`
	Amount Money  `json:"amount"`
}

// ExpenseSummary aggregates an owner's transactions.
// ExpensesByCategory holds net signed amounts: income positive, expense negative.
type ExpenseSummary struct {
	TotalExpenses      Money            `json:"totalExpenses"`
	TotalIncome        Money            `json:"totalIncome"`
	Balance            Money            `json:"balance"`
	ExpensesByCategory map[string]Money `json:"expensesByCategory"`
	MonthlyTrend       []MonthAmount    `json:"monthlyTrend"`
}

// CategoryBudget is the derived status of one budget limit.
type CategoryBudget struct {
	CategoryName    string  `json:"categoryName"`
	CurrentSpent    Money   `json:"currentSpent"`
	MonthlyLimit    Money   `json:"monthlyLimit"`
	RemainingBudget Money   `json:"remainingBudget"`
	PercentageUsed  float64 `json:"percentageUsed"`
	IsOverBudget    bool    `json:"isOverBudget"`
}

type GoalProgress struct {
	GoalID                string  `json:"goalId"`
	Percentage            float64 `json:"percentage"`
	RemainingAmount       Money   `json:"remainingAmount"`
	DaysRemaining         int     `json:"daysRemaining"`
	MonthlyRequiredSaving Money   `json:"monthlyRequiredSaving"`
	OnTrack               bool    `json:"onTrack"`
}

// Suggestion is an advisory item. It is regenerated on every analysis and
// never persisted.
type Suggestion struct {
	ID             string         `json:"id"`
	Type           SuggestionType `json:"type"`
	Title          string         `json:"title"`
	Description    string         `json:"description"`
	Impact         Money          `json:"impact"`
	Priority       Priority       `json:"priority"`
	Category       string         `json:"category,omitempty"`
	ActionRequired string         `json:"actionRequired,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
}
