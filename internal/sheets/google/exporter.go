package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"bills/internal/config"
	"bills/internal/core"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

var header = []any{"ID", "Description", "Category", "Amount", "Due Date"}

// Exporter mirrors bills into one sheet, one row per bill keyed by the id in
// column A. Amounts are written as raw text.
type Exporter struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheet         string

	mu sync.Mutex
}

// New creates an exporter for sheet in spreadsheetID. opts are passed to the
// Sheets service.
func New(ctx context.Context, spreadsheetID, sheet string, opts ...goption.ClientOption) (*Exporter, error) {
	if strings.TrimSpace(spreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if strings.TrimSpace(sheet) == "" {
		sheet = "Bills"
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Exporter{svc: svc, spreadsheetID: spreadsheetID, sheet: sheet}, nil
}

// NewFromConfig creates an exporter authenticated with the service account in
// GOOGLE_CREDENTIALS_JSON or GOOGLE_CREDENTIALS_FILE, falling back to
// application default credentials.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Exporter, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	opts := []goption.ClientOption{goption.WithScopes(gsheet.SpreadsheetsScope)}
	switch {
	case cfg.GoogleCredentialsJSON != "":
		slog.InfoContext(ctx, "Using inline JSON credentials")
		opts = append(opts, goption.WithCredentialsJSON([]byte(cfg.GoogleCredentialsJSON)))
	case cfg.GoogleCredentialsFile != "":
		creds, err := os.ReadFile(cfg.GoogleCredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read credentials from file", "path", cfg.GoogleCredentialsFile)
		opts = append(opts, goption.WithCredentialsJSON(creds))
	default:
		slog.InfoContext(ctx, "Using application default credentials")
	}

	return New(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleSheetName, opts...)
}

// EnsureHeader writes the header row when the sheet is empty.
func (e *Exporter) EnsureHeader(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	rng := fmt.Sprintf("%s!A1:E1", e.sheet)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read header: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}
	vr := &gsheet.ValueRange{Values: [][]any{header}}
	if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

// UpsertBill updates the bill's row, or appends one when the bill is new.
func (e *Exporter) UpsertBill(ctx context.Context, b core.Bill) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	row, err := e.findRow(ctx, b.ID)
	if err != nil {
		return err
	}

	vr := &gsheet.ValueRange{Values: [][]any{billRow(b)}}
	if row > 0 {
		rng := fmt.Sprintf("%s!A%d:E%d", e.sheet, row, row)
		if _, err := e.svc.Spreadsheets.Values.Update(e.spreadsheetID, rng, vr).
			ValueInputOption("RAW").Context(ctx).Do(); err != nil {
			return fmt.Errorf("update row %d: %w", row, err)
		}
		slog.InfoContext(ctx, "Updated bill in sheet", "bill_id", b.ID, "row", row)
		return nil
	}

	rng := fmt.Sprintf("%s!A:E", e.sheet)
	resp, err := e.svc.Spreadsheets.Values.Append(e.spreadsheetID, rng, vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append row: %w", err)
	}
	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Appended bill to sheet", "bill_id", b.ID, "range", updated)
	return nil
}

// DeleteBill clears the bill's row. A bill that is not in the sheet is not an
// error.
func (e *Exporter) DeleteBill(ctx context.Context, id int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	row, err := e.findRow(ctx, id)
	if err != nil {
		return err
	}
	if row == 0 {
		slog.DebugContext(ctx, "Bill not in sheet, nothing to delete", "bill_id", id)
		return nil
	}

	rng := fmt.Sprintf("%s!A%d:E%d", e.sheet, row, row)
	if _, err := e.svc.Spreadsheets.Values.Clear(e.spreadsheetID, rng, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear row %d: %w", row, err)
	}
	slog.InfoContext(ctx, "Cleared bill from sheet", "bill_id", id, "row", row)
	return nil
}

// findRow returns the 1-based row holding id in column A, or 0.
func (e *Exporter) findRow(ctx context.Context, id int64) (int, error) {
	rng := fmt.Sprintf("%s!A:A", e.sheet)
	resp, err := e.svc.Spreadsheets.Values.Get(e.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("read id column: %w", err)
	}
	want := strconv.FormatInt(id, 10)
	for i, row := range resp.Values {
		if len(row) == 0 {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(row[0])) == want {
			return i + 1, nil
		}
	}
	return 0, nil
}

func billRow(b core.Bill) []any {
	return []any{strconv.FormatInt(b.ID, 10), b.Description, b.Category, b.Amount, b.Date.String()}
}
