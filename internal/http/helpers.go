package http

import (
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"bills/internal/core"

	"github.com/shopspring/decimal"
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	result := strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
	return result
}

// wantsJSON reports whether the caller expects a JSON body rather than an
// htmx fragment.
func wantsJSON(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return true
	}
	if r.Header.Get("HX-Request") != "" {
		return false
	}
	return strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") ||
		strings.Contains(r.Header.Get("Accept"), "application/json")
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	var ve *ValidationError
	switch {
	case errors.Is(err, errMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.As(err, &ve),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrEmptyCategory),
		errors.Is(err, core.ErrDescriptionLong),
		errors.Is(err, core.ErrInvalidAmount),
		errors.Is(err, core.ErrInvalidBudget),
		errors.Is(err, core.ErrInvalidTheme),
		errors.Is(err, core.ErrInvalidMonth),
		errors.Is(err, core.ErrInvalidDay):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// clientMessage hides internal error details behind a generic message.
func clientMessage(status int, err error) string {
	switch status {
	case http.StatusInternalServerError:
		return "Something went wrong, please try again"
	case http.StatusBadRequest:
		return "Malformed request"
	case http.StatusNotFound:
		return "Bill not found"
	default:
		return "Invalid data: " + err.Error()
	}
}

var templateFuncs = template.FuncMap{
	"monthName": func(m int) string {
		if m < 1 || m > 12 {
			return ""
		}
		return time.Month(m).String()
	},
}

type billRow struct {
	ID            int64  `json:"id"`
	Description   string `json:"description"`
	Category      string `json:"category"`
	Amount        string `json:"amount"`
	AmountDisplay string `json:"-"`
	Date          string `json:"date"`
	DateDisplay   string `json:"-"`
	Affordable    bool   `json:"affordable"`
	Unparseable   bool   `json:"unparseable,omitempty"`
}

func newBillRow(b core.Bill, affordable core.IDSet) billRow {
	row := billRow{
		ID:            b.ID,
		Description:   b.Description,
		Category:      b.Category,
		Amount:        b.Amount,
		AmountDisplay: b.Amount,
		Date:          b.Date.String(),
		DateDisplay:   b.Date.Display(),
		Affordable:    affordable.Has(b.ID),
	}
	if a := b.ParsedAmount(); a.Valid {
		row.AmountDisplay = core.FormatAmount(a.Value)
	} else {
		row.Unparseable = true
	}
	return row
}

func newBillRows(bills []core.Bill, affordable core.IDSet) []billRow {
	rows := make([]billRow, 0, len(bills))
	for _, b := range bills {
		rows = append(rows, newBillRow(b, affordable))
	}
	return rows
}

type tableData struct {
	Rows            []billRow
	Categories      []string
	Category        string
	AffordableCount int
	AffordableTotal string
	Budget          string
	// OOB marks the category filter for an out of band swap.
	OOB bool
}

type chartRow struct {
	Name   string
	Amount string
	Count  int
	Width  int
}

type summaryData struct {
	Year        int
	Month       int
	Budget      string
	Total       string
	Remaining   string
	OverBudget  bool
	Bills       int
	Unparseable int
	Rows        []chartRow
}

func newSummaryData(sum core.BudgetSummary, params MonthParams) summaryData {
	data := summaryData{
		Year:        params.Year,
		Month:       params.Month,
		Budget:      core.FormatAmount(sum.Budget),
		Total:       core.FormatAmount(sum.Total),
		Remaining:   core.FormatAmount(sum.Remaining),
		OverBudget:  sum.OverBudget,
		Bills:       sum.Bills,
		Unparseable: sum.Unparseable,
	}
	maxAmount := decimal.Zero
	for _, c := range sum.ByCategory {
		if c.Amount.GreaterThan(maxAmount) {
			maxAmount = c.Amount
		}
	}
	for _, c := range sum.ByCategory {
		data.Rows = append(data.Rows, chartRow{
			Name:   c.Name,
			Amount: core.FormatAmount(c.Amount),
			Count:  c.Count,
			Width:  core.BarWidth(c.Amount, maxAmount),
		})
	}
	return data
}

type summaryJSON struct {
	Year        int            `json:"year,omitempty"`
	Month       int            `json:"month,omitempty"`
	Budget      string         `json:"budget"`
	Total       string         `json:"total"`
	Remaining   string         `json:"remaining"`
	OverBudget  bool           `json:"over_budget"`
	Bills       int            `json:"bills"`
	Unparseable int            `json:"unparseable"`
	ByCategory  []categoryJSON `json:"by_category"`
}

type categoryJSON struct {
	Name   string `json:"name"`
	Amount string `json:"amount"`
	Count  int    `json:"count"`
}

func newSummaryJSON(sum core.BudgetSummary, params MonthParams) summaryJSON {
	out := summaryJSON{
		Year:        params.Year,
		Month:       params.Month,
		Budget:      sum.Budget.String(),
		Total:       sum.Total.String(),
		Remaining:   sum.Remaining.String(),
		OverBudget:  sum.OverBudget,
		Bills:       sum.Bills,
		Unparseable: sum.Unparseable,
		ByCategory:  make([]categoryJSON, 0, len(sum.ByCategory)),
	}
	for _, c := range sum.ByCategory {
		out.ByCategory = append(out.ByCategory, categoryJSON{Name: c.Name, Amount: c.Amount.String(), Count: c.Count})
	}
	return out
}
