package analytics

import (
	"sort"

	"fintrack/internal/core"
)

// Built-in monthly limits used by the suggestion rules when the owner has not
// configured a limit for the category. They are never persisted.
var defaultLimits = map[string]core.Money{
	"Alimentação":    core.Cents(80000),
	"Transporte":     core.Cents(40000),
	"Entretenimento": core.Cents(20000),
	"Moradia":        core.Cents(120000),
	"Saúde":          core.Cents(30000),
}

// DefaultLimits returns a copy of the built-in limit table.
func DefaultLimits() map[string]core.Money {
	out := make(map[string]core.Money, len(defaultLimits))
	for k, v := range defaultLimits {
		out[k] = v
	}
	return out
}

// MergedLimits overlays explicit limits on top of the defaults.
func MergedLimits(explicit []core.BudgetLimit) map[string]core.Money {
	out := DefaultLimits()
	for _, l := range explicit {
		out[l.CategoryName] = l.MonthlyLimit
	}
	return out
}

// Spent is the magnitude of a category's net amount. Budgets track how much
// moved through a category, not its sign.
func Spent(summary core.ExpenseSummary, category string) core.Money {
	return summary.ExpensesByCategory[category].Abs()
}

// EvaluateBudgets derives the status of each limit, preserving input order.
func EvaluateBudgets(limits []core.BudgetLimit, summary core.ExpenseSummary) []core.CategoryBudget {
	out := make([]core.CategoryBudget, 0, len(limits))
	for _, l := range limits {
		out = append(out, Evaluate(l.CategoryName, l.MonthlyLimit, Spent(summary, l.CategoryName)))
	}
	return out
}

// Evaluate builds the status of one category. A zero limit yields 0% used.
func Evaluate(category string, limit, spent core.Money) core.CategoryBudget {
	return core.CategoryBudget{
		CategoryName:    category,
		CurrentSpent:    spent,
		MonthlyLimit:    limit,
		RemainingBudget: limit.Sub(spent),
		PercentageUsed:  spent.Percent(limit),
		IsOverBudget:    spent.Cents > limit.Cents,
	}
}

func sortedKeys(m map[string]core.Money) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
