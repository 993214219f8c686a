package analytics

import "fintrack/internal/core"

// Category is an entry of the built-in category catalog. SuggestedBudget is
// a starting point offered to clients; the spending rules use DefaultLimits.
type Category struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Color           string     `json:"color"`
	Icon            string     `json:"icon"`
	SuggestedBudget core.Money `json:"suggestedBudget"`
}

var categories = []Category{
	{ID: "1", Name: "Alimentação", Color: "#FF6B6B", Icon: "utensils", SuggestedBudget: core.Cents(80000)},
	{ID: "2", Name: "Transporte", Color: "#4ECDC4", Icon: "car", SuggestedBudget: core.Cents(40000)},
	{ID: "3", Name: "Moradia", Color: "#45B7D1", Icon: "home", SuggestedBudget: core.Cents(120000)},
	{ID: "4", Name: "Saúde", Color: "#96CEB4", Icon: "heart", SuggestedBudget: core.Cents(30000)},
	{ID: "5", Name: "Entretenimento", Color: "#FFEAA7", Icon: "film", SuggestedBudget: core.Cents(20000)},
	{ID: "6", Name: "Educação", Color: "#DDA0DD", Icon: "book", SuggestedBudget: core.Cents(15000)},
	{ID: "7", Name: "Outros", Color: "#95A5A6", Icon: "more-horizontal", SuggestedBudget: core.Cents(10000)},
}

// Categories returns a copy of the catalog in display order.
func Categories() []Category {
	return append([]Category(nil), categories...)
}
