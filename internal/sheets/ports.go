package sheets

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// ReportRow is one owner's monthly report line as exported to a spreadsheet.
// Owner and Month together identify the row; exporting the same pair again
// overwrites it.
type ReportRow struct {
	OwnerID       string
	Month         string // YYYY-MM
	GeneratedAt   time.Time
	TotalIncome   core.Money
	TotalExpenses core.Money
	Balance       core.Money
	OverBudget    int
	GoalsOnTrack  int
	Goals         int
	Suggestions   int
	TopCategory   string
}

// Ports for outbound adapters.
type (
	ReportExporter interface {
		// Export writes row and returns a reference to where it landed.
		Export(ctx context.Context, row ReportRow) (rowRef string, err error)
	}
)
