// Package analytics holds the pure computations behind fintrack reports:
// aggregation, budget status, goal progress and the suggestion rules.
//
// Nothing here performs I/O or keeps state between calls; the same inputs
// always produce the same outputs.
package analytics

import (
	"fmt"
	"time"

	"fintrack/internal/core"
)

// TrendMonths is the width of ExpenseSummary.MonthlyTrend.
const TrendMonths = 6

var monthAbbrev = [12]string{
	"jan.", "fev.", "mar.", "abr.", "mai.", "jun.",
	"jul.", "ago.", "set.", "out.", "nov.", "dez.",
}

// MonthLabel formats the month of t the way pt-BR displays it, e.g. "jan. de 2026".
func MonthLabel(t time.Time) string {
	return fmt.Sprintf("%s de %d", monthAbbrev[t.Month()-1], t.Year())
}

// MonthKey returns the sortable YYYY-MM key for t.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Summarize aggregates transactions into totals, a net per-category breakdown
// and the trailing six-month net trend ending at now's month.
//
// Transactions with an unknown kind contribute to nothing.
func Summarize(txs []core.Transaction, now time.Time) core.ExpenseSummary {
	s := core.ExpenseSummary{
		ExpensesByCategory: make(map[string]core.Money),
		MonthlyTrend:       trendSkeleton(now),
	}

	index := make(map[string]int, TrendMonths)
	for i, m := range s.MonthlyTrend {
		index[m.Month] = i
	}

	for _, tx := range txs {
		switch tx.Kind {
		case core.KindIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.KindExpense:
			s.TotalExpenses = s.TotalExpenses.Add(tx.Amount)
		default:
			continue
		}

		signed := tx.Signed()
		s.ExpensesByCategory[tx.Category] = s.ExpensesByCategory[tx.Category].Add(signed)

		// Months are bucketed in now's location so the trend matches the caller's calendar.
		if i, ok := index[MonthKey(tx.OccurredAt.In(now.Location()))]; ok {
			s.MonthlyTrend[i].Amount = s.MonthlyTrend[i].Amount.Add(signed)
		}
	}

	s.Balance = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

func trendSkeleton(now time.Time) []core.MonthAmount {
	first := time.Date(now.Year(), now.Month()-(TrendMonths-1), 1, 0, 0, 0, 0, now.Location())
	out := make([]core.MonthAmount, TrendMonths)
	for i := range out {
		m := first.AddDate(0, i, 0)
		out[i] = core.MonthAmount{Month: MonthKey(m), Label: MonthLabel(m)}
	}
	return out
}
