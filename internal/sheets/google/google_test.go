package google

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

func sampleRow() ports.ReportRow {
	return ports.ReportRow{
		OwnerID:       "alice",
		Month:         "2026-01",
		GeneratedAt:   time.Date(2026, 1, 25, 12, 0, 0, 0, time.UTC),
		TotalIncome:   core.Cents(350000),
		TotalExpenses: core.Cents(4590),
		Balance:       core.Cents(345410),
		OverBudget:    1,
		GoalsOnTrack:  2,
		Goals:         3,
		Suggestions:   4,
		TopCategory:   "Alimentação",
	}
}

func TestNew_MissingSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), Options{})
	if err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
	if err.Error() != "missing GOOGLE_SPREADSHEET_ID" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadCredentials(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "sa.json")
	if err := os.WriteFile(file, []byte(`{"type":"service_account"}`), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	tests := []struct {
		name    string
		file    string
		inline  string
		want    string
		wantErr string
	}{
		{name: "inline wins", file: file, inline: `{"inline":true}`, want: `{"inline":true}`},
		{name: "file", file: file, want: `{"type":"service_account"}`},
		{name: "missing file", file: filepath.Join(dir, "nope.json"), wantErr: "read service account file"},
		{name: "nothing configured", wantErr: "missing service account credentials"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := loadCredentials(tt.file, tt.inline)
			if tt.wantErr != "" {
				if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
					t.Fatalf("error = %v, want containing %q", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestExport_RejectsInvalidRowsBeforeCallingSheets(t *testing.T) {
	c := &Client{spreadsheetID: "test", reportBase: "Relatório"} // svc is nil

	bad := sampleRow()
	bad.Month = "janeiro"
	if _, err := c.Export(context.Background(), bad); err == nil || !strings.Contains(err.Error(), "invalid report month") {
		t.Fatalf("expected month validation error, got %v", err)
	}

	noOwner := sampleRow()
	noOwner.OwnerID = " "
	if _, err := c.Export(context.Background(), noOwner); err == nil {
		t.Fatal("expected error for a row without owner")
	}

	if _, err := c.Export(context.Background(), sampleRow()); err == nil || err.Error() != "sheets service not initialized" {
		t.Fatalf("expected uninitialized service error, got %v", err)
	}
}

func TestRowValues(t *testing.T) {
	got := rowValues(sampleRow())
	if len(got) != len(Header) {
		t.Fatalf("row has %d columns, header has %d", len(got), len(Header))
	}
	if got[0] != "alice" || got[1] != "2026-01" {
		t.Errorf("key columns = %v %v", got[0], got[1])
	}
	if got[2] != 3500.0 || got[3] != 45.9 || got[4] != 3454.1 {
		t.Errorf("amount columns = %v %v %v", got[2], got[3], got[4])
	}
	if got[10] != "2026-01-25T12:00:00Z" {
		t.Errorf("generated at = %v", got[10])
	}
}

func TestFindRow(t *testing.T) {
	values := [][]any{
		{"Titular", "Mês"},
		{"alice", "2025-12"},
		{},
		{"bob", "2026-01"},
		{" alice ", "2026-01"},
	}

	tests := []struct {
		owner, month string
		want         int
	}{
		{"alice", "2026-01", 5},
		{"alice", "2025-12", 2},
		{"bob", "2026-01", 4},
		{"carol", "2026-01", 0},
	}
	for _, tt := range tests {
		if got := findRow(values, tt.owner, tt.month); got != tt.want {
			t.Errorf("findRow(%s, %s) = %d, want %d", tt.owner, tt.month, got, tt.want)
		}
	}
}

func TestYearPrefixedName(t *testing.T) {
	tests := []struct {
		base string
		year int
		want string
	}{
		{"Relatório", 2026, "2026 Relatório"},
		{" Relatório ", 2026, "2026 Relatório"},
		{"2025 Relatório", 2026, "2025 Relatório"},
		{"", 2026, ""},
		{"12345", 2026, "2026 12345"},
	}
	for _, tt := range tests {
		if got := yearPrefixedName(tt.base, tt.year); got != tt.want {
			t.Errorf("yearPrefixedName(%q, %d) = %q, want %q", tt.base, tt.year, got, tt.want)
		}
	}
}

func TestReportYear(t *testing.T) {
	row := sampleRow()
	row.Month = "2025-12"
	if got := reportYear(row); got != 2025 {
		t.Errorf("reportYear = %d, want 2025", got)
	}
}
