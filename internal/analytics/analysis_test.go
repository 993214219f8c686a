package analytics

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestAnalyze(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	may := time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC)
	apr := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	txs := []core.Transaction{
		tx(core.KindExpense, 60000, "Alimentação", may),
		tx(core.KindExpense, 40000, "Alimentação", apr),
		tx(core.KindExpense, 5000, "Transporte", may),
		tx(core.KindExpense, 10000, "Transporte", apr),
		tx(core.KindExpense, 100000, "Moradia", may),
		tx(core.KindExpense, 100000, "Moradia", apr),
		tx(core.KindIncome, 900000, "Alimentação", may), // income is ignored
	}
	recs := []core.Suggestion{{ID: "x"}}

	a := Analyze(txs, recs, now)
	if len(a.MonthlySpendingPattern) != len(TrackedCategories) {
		t.Fatalf("expected %d patterns, got %d", len(TrackedCategories), len(a.MonthlySpendingPattern))
	}

	want := map[string]struct {
		avg   int64
		trend Trend
	}{
		"Alimentação":    {50000, TrendIncreasing},
		"Transporte":     {7500, TrendDecreasing},
		"Entretenimento": {0, TrendStable},
		"Moradia":        {100000, TrendStable},
	}
	for _, p := range a.MonthlySpendingPattern {
		w := want[p.Category]
		if p.AverageAmount != core.Cents(w.avg) || p.Trend != w.trend {
			t.Errorf("%s = %+v, want avg %d trend %s", p.Category, p, w.avg, w.trend)
		}
	}
	if len(a.Recommendations) != 1 || a.Recommendations[0].ID != "x" {
		t.Errorf("recommendations not passed through: %+v", a.Recommendations)
	}
}

func TestAnalyze_NilRecommendations(t *testing.T) {
	a := Analyze(nil, nil, time.Now())
	if a.Recommendations == nil {
		t.Fatalf("recommendations should be an empty slice")
	}
}
