package analytics

import (
	"math"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

const (
	day = 24 * time.Hour

	// Fraction of the elapsed-time expectation a goal must reach to count as on track.
	onTrackFactor = 0.8
)

// Progress evaluates g at now.
func Progress(g core.Goal, now time.Time) core.GoalProgress {
	pct := g.CurrentAmount.Percent(g.TargetAmount)
	pct = math.Max(0, math.Min(100, pct))

	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	days := DaysUntil(now, g.TargetDate)

	var monthly core.Money
	if days > 0 {
		// remaining / (days/30) == remaining*30/days
		monthly = remaining.Mul(decimal.NewFromInt(30)).Div(decimal.NewFromInt(int64(days)))
	}

	return core.GoalProgress{
		GoalID:                g.ID,
		Percentage:            pct,
		RemainingAmount:       remaining,
		DaysRemaining:         days,
		MonthlyRequiredSaving: monthly,
		OnTrack:               onTrack(g, pct, now),
	}
}

// DaysUntil returns ceil((target-now)/24h). It is negative once target has passed.
func DaysUntil(now, target time.Time) int {
	d := target.Sub(now)
	days := d / day
	if d%day > 0 {
		days++
	}
	return int(days)
}

func onTrack(g core.Goal, pct float64, now time.Time) bool {
	lifespan := g.TargetDate.Sub(g.CreatedAt)
	if lifespan <= 0 {
		// No lifespan to measure against: complete goals and goals whose
		// deadline has not passed are on track.
		return pct >= 100 || !now.After(g.TargetDate)
	}
	expected := 100 * float64(now.Sub(g.CreatedAt)) / float64(lifespan)
	return pct >= onTrackFactor*expected
}

// ApplyProgress adds amount to the goal's current amount, clamped to
// [0, target], and stamps UpdatedAt.
func ApplyProgress(g core.Goal, amount core.Money, now time.Time) core.Goal {
	next := g.CurrentAmount.Add(amount)
	if next.Cents < 0 {
		next = core.Money{}
	}
	if next.Cents > g.TargetAmount.Cents {
		next = g.TargetAmount
	}
	g.CurrentAmount = next
	g.UpdatedAt = now
	return g
}
