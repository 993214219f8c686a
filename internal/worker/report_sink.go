package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/sony/gobreaker"

	"fintrack/internal/log"
	"fintrack/internal/metrics"
	"fintrack/internal/services"
	"fintrack/internal/sheets"
)

const (
	exportBreakerName = "sheets_export"
	exportMaxFailures = 3
	exportOpenTimeout = time.Minute
	exportTimeout     = 30 * time.Second
)

// ErrExportSuspended is returned while the export breaker rejects calls.
var ErrExportSuspended = errors.New("report export suspended: circuit breaker is open")

// ReportSink exports recomputed reports. It is meant to be the dispatcher's
// OnReport hook.
type ReportSink struct {
	exporter sheets.ReportExporter
	metrics  metrics.Collector
	cb       *gobreaker.CircuitBreaker
}

func NewReportSink(exporter sheets.ReportExporter, mc metrics.Collector) *ReportSink {
	if mc == nil {
		mc = metrics.NoOpCollector{}
	}
	s := &ReportSink{exporter: exporter, metrics: mc}
	s.cb = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    exportBreakerName,
		Timeout: exportOpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= exportMaxFailures
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Circuit breaker state changed",
				log.FieldComponent, log.ComponentSheets,
				"name", name, "from", from.String(), "to", to.String())
			s.metrics.RecordCircuitState(name, circuitState(to))
		},
	})
	return s
}

func circuitState(s gobreaker.State) metrics.CircuitState {
	switch s {
	case gobreaker.StateOpen:
		return metrics.CircuitOpen
	case gobreaker.StateHalfOpen:
		return metrics.CircuitHalfOpen
	}
	return metrics.CircuitClosed
}

// OnReport exports r, logging failures. It matches services.DispatcherConfig.OnReport.
func (s *ReportSink) OnReport(ctx context.Context, r *services.Report) {
	if _, err := s.Export(ctx, r); err != nil {
		slog.WarnContext(ctx, "Report export failed",
			log.FieldComponent, log.ComponentSheets,
			log.FieldOwnerID, r.OwnerID,
			log.FieldError, err)
	}
}

// Export writes the report's monthly row.
func (s *ReportSink) Export(ctx context.Context, r *services.Report) (string, error) {
	if r == nil || r.OwnerID == "" {
		return "", fmt.Errorf("report without owner")
	}
	row := RowFromReport(r)
	start := time.Now()
	ref, err := s.cb.Execute(func() (interface{}, error) {
		ectx, cancel := context.WithTimeout(ctx, exportTimeout)
		defer cancel()
		return s.exporter.Export(ectx, row)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", ErrExportSuspended
	}
	s.metrics.RecordExport(err == nil, time.Since(start))
	if err != nil {
		return "", fmt.Errorf("export report: %w", err)
	}

	slog.InfoContext(ctx, "Report exported",
		log.FieldComponent, log.ComponentSheets,
		log.FieldOwnerID, r.OwnerID,
		log.FieldGeneration, r.Generation,
		"ref", ref)
	return ref.(string), nil
}

// RowFromReport condenses a report into its spreadsheet row for the month
// it was generated in.
func RowFromReport(r *services.Report) sheets.ReportRow {
	row := sheets.ReportRow{
		OwnerID:       r.OwnerID,
		Month:         r.GeneratedAt.Format("2006-01"),
		GeneratedAt:   r.GeneratedAt,
		TotalIncome:   r.Summary.TotalIncome,
		TotalExpenses: r.Summary.TotalExpenses,
		Balance:       r.Summary.Balance,
		Goals:         len(r.Goals),
		Suggestions:   len(r.Suggestions),
		TopCategory:   topExpenseCategory(r),
	}
	for _, b := range r.Budgets {
		if b.IsOverBudget {
			row.OverBudget++
		}
	}
	for _, g := range r.Goals {
		if g.OnTrack {
			row.GoalsOnTrack++
		}
	}
	return row
}

// topExpenseCategory is the category with the most negative net amount.
// Ties resolve alphabetically; no net-negative category yields "".
func topExpenseCategory(r *services.Report) string {
	names := make([]string, 0, len(r.Summary.ExpensesByCategory))
	for name := range r.Summary.ExpensesByCategory {
		names = append(names, name)
	}
	sort.Strings(names)

	top := ""
	var lowest int64
	for _, name := range names {
		if c := r.Summary.ExpensesByCategory[name].Cents; c < lowest {
			top, lowest = name, c
		}
	}
	return top
}
