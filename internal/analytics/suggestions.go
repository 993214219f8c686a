package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"fintrack/internal/core"
)

// Rule thresholds, in cents.
const (
	investBalanceThreshold = 50000 // R$ 500
	spikeThreshold         = 20000 // R$ 200
	smallExpenseThreshold  = 2000  // R$ 20
	smallExpenseCount      = 10
	cashbackThreshold      = 100000 // R$ 1000
	goalPlaceholderImpact  = 100000 // R$ 1000
)

var (
	investReturn   = decimal.RequireFromString("0.1")
	smallCutShare  = decimal.RequireFromString("0.3")
	cashbackReturn = decimal.RequireFromString("0.02")
	nearLimitRatio = decimal.RequireFromString("0.8")
)

// SuggestionInput is everything the rules look at.
type SuggestionInput struct {
	Transactions []core.Transaction
	Goals        []core.Goal
	Summary      core.ExpenseSummary
	// Limits are the owner's explicit limits; categories without one fall
	// back to DefaultLimits.
	Limits []core.BudgetLimit
	Now    time.Time
	// NewID generates suggestion ids. Defaults to NewSuggestionID.
	NewID func() string
}

// Rule appends zero or more suggestions derived from in.
type Rule func(in SuggestionInput, emit func(core.Suggestion))

// Rules is the battery Suggest runs, in order.
var Rules = []Rule{
	categoryLimitRule,
	noActiveGoalsRule,
	positiveBalanceRule,
	spendingSpikeRule,
	smallExpensesRule,
	cashbackRule,
}

// NewSuggestionID returns a time-ordered unique id.
func NewSuggestionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Suggest runs every rule and returns the suggestions in rule order.
// It keeps no state between calls.
func Suggest(in SuggestionInput) []core.Suggestion {
	newID := in.NewID
	if newID == nil {
		newID = NewSuggestionID
	}

	out := []core.Suggestion{}
	emit := func(s core.Suggestion) {
		s.ID = newID()
		s.CreatedAt = in.Now
		out = append(out, s)
	}
	for _, rule := range Rules {
		rule(in, emit)
	}
	return out
}

// SortSuggestions orders suggestions by priority (high first), then by
// impact descending. The sort is stable.
func SortSuggestions(s []core.Suggestion) {
	sort.SliceStable(s, func(i, j int) bool {
		ri, rj := s[i].Priority.Rank(), s[j].Priority.Rank()
		if ri != rj {
			return ri > rj
		}
		return s[i].Impact.Cents > s[j].Impact.Cents
	})
}

func brl(m core.Money) string {
	return "R$ " + m.String()
}

func categoryLimitRule(in SuggestionInput, emit func(core.Suggestion)) {
	limits := MergedLimits(in.Limits)
	for _, category := range sortedKeys(limits) {
		limit := limits[category]
		spent := Spent(in.Summary, category)
		if spent.Decimal().LessThanOrEqual(limit.Decimal().Mul(nearLimitRatio)) {
			continue
		}
		priority := core.PriorityMedium
		if spent.Cents > limit.Cents {
			priority = core.PriorityHigh
		}
		emit(core.Suggestion{
			Type:           core.SpendingCut,
			Title:          fmt.Sprintf("Atenção aos gastos em %s", category),
			Description:    fmt.Sprintf("Você já gastou %s em %s este mês, próximo ao limite de %s.", brl(spent), category, brl(limit)),
			Impact:         spent.Sub(limit),
			Priority:       priority,
			Category:       category,
			ActionRequired: fmt.Sprintf("Considere reduzir gastos em %s pelos próximos dias.", category),
		})
	}
}

func noActiveGoalsRule(in SuggestionInput, emit func(core.Suggestion)) {
	for _, g := range in.Goals {
		if g.IsActive {
			return
		}
	}
	emit(core.Suggestion{
		Type:           core.GoalRecommendation,
		Title:          "Defina suas metas financeiras",
		Description:    "Ter metas claras ajuda a manter o foco e disciplina financeira.",
		Impact:         core.Cents(goalPlaceholderImpact),
		Priority:       core.PriorityMedium,
		ActionRequired: "Crie pelo menos uma meta financeira.",
	})
}

func positiveBalanceRule(in SuggestionInput, emit func(core.Suggestion)) {
	balance := in.Summary.Balance
	if balance.Cents <= investBalanceThreshold {
		return
	}
	emit(core.Suggestion{
		Type:           core.SavingOpportunity,
		Title:          "Oportunidade de investimento",
		Description:    fmt.Sprintf("Você tem um saldo positivo de %s. Considere investir parte desse valor.", brl(balance)),
		Impact:         balance.Mul(investReturn),
		Priority:       core.PriorityMedium,
		ActionRequired: "Destine parte do saldo para suas metas ou investimentos.",
	})
}

func spendingSpikeRule(in SuggestionInput, emit func(core.Suggestion)) {
	trend := in.Summary.MonthlyTrend
	if len(trend) < 2 {
		return
	}
	delta := trend[len(trend)-1].Amount.Sub(trend[len(trend)-2].Amount)
	if delta.Cents <= spikeThreshold {
		return
	}
	emit(core.Suggestion{
		Type:           core.BudgetAdjustment,
		Title:          "Aumento nos gastos detectado",
		Description:    fmt.Sprintf("Seus gastos aumentaram %s comparado ao mês anterior.", brl(delta)),
		Impact:         delta,
		Priority:       core.PriorityHigh,
		ActionRequired: "Revise seus gastos recentes e identifique possíveis cortes.",
	})
}

func smallExpensesRule(in SuggestionInput, emit func(core.Suggestion)) {
	var (
		count int
		total core.Money
	)
	for _, tx := range in.Transactions {
		if tx.Kind == core.KindExpense && tx.Amount.Cents < smallExpenseThreshold {
			count++
			total = total.Add(tx.Amount)
		}
	}
	if count <= smallExpenseCount {
		return
	}
	emit(core.Suggestion{
		Type:           core.SpendingCut,
		Title:          "Muitos gastos pequenos",
		Description:    fmt.Sprintf("Você fez %d gastos pequenos totalizando %s.", count, brl(total)),
		Impact:         total.Mul(smallCutShare),
		Priority:       core.PriorityLow,
		ActionRequired: "Considere consolidar compras ou reduzir gastos impulsivos.",
	})
}

func cashbackRule(in SuggestionInput, emit func(core.Suggestion)) {
	total := in.Summary.TotalExpenses
	if total.Cents <= cashbackThreshold {
		return
	}
	emit(core.Suggestion{
		Type:           core.SavingOpportunity,
		Title:          "Aproveite cashback",
		Description:    "Com seus gastos mensais, você pode economizar usando apps de cashback.",
		Impact:         total.Mul(cashbackReturn),
		Priority:       core.PriorityLow,
		ActionRequired: "Instale apps como Méliuz, Ame ou similar.",
	})
}
