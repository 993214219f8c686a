package analytics

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Trend classifies how a category's spending moved between the last two
// complete months.
type Trend string

const (
	// TrendIncreasing: the last month exceeds the previous one by more than 10%.
	TrendIncreasing Trend = "increasing"
	// TrendDecreasing: the last month is more than 10% below the previous one.
	TrendDecreasing Trend = "decreasing"
	// TrendStable is anything within 10% either way.
	TrendStable Trend = "stable"
)

// TrackedCategories are the categories covered by the spending pattern.
var TrackedCategories = []string{"Alimentação", "Transporte", "Entretenimento", "Moradia"}

var (
	increaseFactor = decimal.RequireFromString("1.1")
	decreaseFactor = decimal.RequireFromString("0.9")
)

// CategoryPattern is one tracked category's average and trend.
type CategoryPattern struct {
	Category      string     `json:"category"`
	AverageAmount core.Money `json:"averageAmount"`
	Trend         Trend      `json:"trend"`
}

// Analysis is the detailed view: spending patterns plus the suggestions.
type Analysis struct {
	MonthlySpendingPattern []CategoryPattern `json:"monthlySpendingPattern"`
	Recommendations        []core.Suggestion `json:"recommendations"`
}

// Analyze builds the detailed analysis for the tracked categories.
// Recommendations are passed through unchanged.
func Analyze(txs []core.Transaction, recommendations []core.Suggestion, now time.Time) Analysis {
	if recommendations == nil {
		recommendations = []core.Suggestion{}
	}
	patterns := make([]CategoryPattern, 0, len(TrackedCategories))
	for _, c := range TrackedCategories {
		patterns = append(patterns, categoryPattern(txs, c, now))
	}
	return Analysis{MonthlySpendingPattern: patterns, Recommendations: recommendations}
}

func categoryPattern(txs []core.Transaction, category string, now time.Time) CategoryPattern {
	thisMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	last := MonthKey(thisMonth.AddDate(0, -1, 0))
	prev := MonthKey(thisMonth.AddDate(0, -2, 0))

	var (
		total, lastTotal, prevTotal core.Money
		n                           int64
	)
	for _, tx := range txs {
		if tx.Kind != core.KindExpense || tx.Category != category {
			continue
		}
		total = total.Add(tx.Amount)
		n++
		switch MonthKey(tx.OccurredAt.In(now.Location())) {
		case last:
			lastTotal = lastTotal.Add(tx.Amount)
		case prev:
			prevTotal = prevTotal.Add(tx.Amount)
		}
	}

	p := CategoryPattern{Category: category, Trend: classify(lastTotal, prevTotal)}
	if n > 0 {
		p.AverageAmount = total.Div(decimal.NewFromInt(n))
	}
	return p
}

func classify(last, prev core.Money) Trend {
	switch {
	case last.Cents > prev.Mul(increaseFactor).Cents:
		return TrendIncreasing
	case last.Cents < prev.Mul(decreaseFactor).Cents:
		return TrendDecreasing
	}
	return TrendStable
}
