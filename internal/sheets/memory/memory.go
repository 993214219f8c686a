package memory

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"

	ports "fintrack/internal/sheets"
)

// Exporter keeps exported report rows in memory. It stands in for the
// spreadsheet when none is configured and in tests.
type Exporter struct {
	mu    sync.Mutex
	rows  []ports.ReportRow
	index map[string]int
}

var _ ports.ReportExporter = (*Exporter)(nil)

func New() *Exporter {
	return &Exporter{index: make(map[string]int)}
}

// Export upserts the row for (owner, month) and returns a synthetic reference.
func (e *Exporter) Export(_ context.Context, row ports.ReportRow) (string, error) {
	if strings.TrimSpace(row.OwnerID) == "" || row.Month == "" {
		return "", errors.New("report row needs owner and month")
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	key := row.OwnerID + "\x00" + row.Month
	if i, ok := e.index[key]; ok {
		e.rows[i] = row
		return fmt.Sprintf("mem:%d", i+1), nil
	}
	e.rows = append(e.rows, row)
	e.index[key] = len(e.rows) - 1
	return fmt.Sprintf("mem:%d", len(e.rows)), nil
}

// Rows returns a copy of the exported rows in first-export order.
func (e *Exporter) Rows() []ports.ReportRow {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.rows)
}
