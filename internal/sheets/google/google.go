package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"fintrack/internal/log"
	ports "fintrack/internal/sheets"
)

// Header is written to an empty report sheet.
var Header = []any{"Titular", "Mês", "Receitas", "Despesas", "Saldo", "Orçamentos estourados", "Metas no prazo", "Metas", "Sugestões", "Maior categoria", "Gerado em"}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	// Base name without year (e.g. "Relatório"); the report's year is prefixed.
	reportBase string
}

var _ ports.ReportExporter = (*Client)(nil)

// Options configure the report exporter.
type Options struct {
	SpreadsheetID      string
	ReportSheetName    string
	ServiceAccountFile string
	ServiceAccountJSON string
}

// New creates a Sheets report exporter authenticated with a service account.
func New(ctx context.Context, opts Options) (*Client, error) {
	spreadsheetID := strings.TrimSpace(opts.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	base := strings.TrimSpace(opts.ReportSheetName)
	if base == "" {
		base = "Relatório"
	}

	svc, err := newSheetsService(ctx, opts.ServiceAccountFile, opts.ServiceAccountJSON)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		reportBase:    base,
	}, nil
}

// newSheetsService initializes a Sheets Service using Service Account credentials.
// Inline JSON takes precedence over the file.
func newSheetsService(ctx context.Context, file, inline string) (*gsheet.Service, error) {
	credentialsJSON, err := loadCredentials(file, inline)
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "Creating Google Sheets service with Service Account",
		log.FieldComponent, log.ComponentSheets,
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
		goption.WithHTTPClient(newHTTPClientWithPooling()))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadCredentials(file, inline string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	}
	return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
}

// newHTTPClientWithPooling creates an HTTP client tuned for the Sheets API
// with connection pooling and bounded timeouts.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          100,
		MaxIdleConnsPerHost:   10,
		MaxConnsPerHost:       50,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		ForceAttemptHTTP2:     true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Export upserts the row for (owner, month) in the year's report sheet.
func (c *Client) Export(ctx context.Context, row ports.ReportRow) (string, error) {
	if err := validateRow(row); err != nil {
		return "", err
	}
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	sheet := yearPrefixedName(c.reportBase, reportYear(row))
	keysRange := fmt.Sprintf("%s!A:B", sheet)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, keysRange).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", keysRange, err)
	}

	values := [][]any{rowValues(row)}
	target := findRow(resp.Values, row.OwnerID, row.Month)
	switch {
	case target > 0:
	case len(resp.Values) == 0:
		values = [][]any{Header, rowValues(row)}
		target = 1
	default:
		target = len(resp.Values) + 1
	}
	last := target + len(values) - 1

	rng := fmt.Sprintf("%s!A%d:K%d", sheet, target, last)
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: values}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	ref := fmt.Sprintf("%s!A%d:K%d", sheet, last, last)
	slog.DebugContext(ctx, "Report row exported",
		log.FieldComponent, log.ComponentSheets,
		log.FieldOwnerID, row.OwnerID,
		"month", row.Month,
		"ref", ref)
	return ref, nil
}

func validateRow(row ports.ReportRow) error {
	if strings.TrimSpace(row.OwnerID) == "" {
		return errors.New("report row without owner")
	}
	if _, err := time.Parse("2006-01", row.Month); err != nil {
		return fmt.Errorf("invalid report month %q: %w", row.Month, err)
	}
	return nil
}

func reportYear(row ports.ReportRow) int {
	t, err := time.Parse("2006-01", row.Month)
	if err != nil {
		return row.GeneratedAt.Year()
	}
	return t.Year()
}

// rowValues lays a report row out over columns A:K.
func rowValues(row ports.ReportRow) []any {
	return []any{
		row.OwnerID,
		row.Month,
		row.TotalIncome.Float64(),
		row.TotalExpenses.Float64(),
		row.Balance.Float64(),
		row.OverBudget,
		row.GoalsOnTrack,
		row.Goals,
		row.Suggestions,
		row.TopCategory,
		row.GeneratedAt.UTC().Format(time.RFC3339),
	}
}

// findRow returns the 1-based row holding (owner, month), or 0.
func findRow(values [][]any, ownerID, month string) int {
	for i, r := range values {
		cols := toStrings(r)
		if len(cols) < 2 {
			continue
		}
		if cols[0] == ownerID && cols[1] == month {
			return i + 1
		}
	}
	return 0
}

func toStrings(in []any) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
