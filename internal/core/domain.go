package core

import (
	"errors"
	"strings"
	"time"
)

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// DateLayout is the ISO calendar date format bills are stored and exchanged in.
const DateLayout = "2006-01-02"

type (
	Theme string

	Date struct {
		time.Time
	}

	// Bill is a single recurring-expense record. Amount is kept as the text the
	// user entered and only parsed when it is used.
	Bill struct {
		ID          int64
		Description string
		Category    string
		Amount      string
		Date        Date
	}
)

var (
	ErrNotFound         = errors.New("bill not found")
	ErrInvalidDay       = errors.New("invalid day")
	ErrInvalidMonth     = errors.New("invalid month")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrInvalidBudget    = errors.New("invalid budget")
	ErrInvalidTheme     = errors.New("invalid theme")
	ErrEmptyDescription = errors.New("empty description")
	ErrEmptyCategory    = errors.New("empty category")
	ErrDescriptionLong  = errors.New("description too long (max 200 characters)")
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return errors.New("date cannot be zero")
	}
	_, month, day := d.Date()
	if day < 1 || day > 31 {
		return ErrInvalidDay
	}
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// String returns the date in YYYY-MM-DD format, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// Display returns the date in a human friendly form, e.g. "Jan 2, 2006".
func (d Date) Display() string {
	if d.IsZero() {
		return ""
	}
	return d.Format("Jan 2, 2006")
}

func (b Bill) Validate() error {
	if err := b.Date.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(b.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(b.Description) > 200 {
		return ErrDescriptionLong
	}
	if strings.TrimSpace(b.Category) == "" {
		return ErrEmptyCategory
	}
	// Amount text is not required to be numeric; unparseable amounts are
	// simply never affordable.
	if strings.TrimSpace(b.Amount) == "" {
		return ErrInvalidAmount
	}
	return nil
}

// ParsedAmount parses the bill's amount text.
func (b Bill) ParsedAmount() Amount {
	return ParseAmount(b.Amount)
}

// ParseTheme validates a theme name. An empty string maps to the light theme.
func ParseTheme(s string) (Theme, error) {
	switch Theme(strings.ToLower(strings.TrimSpace(s))) {
	case ThemeLight, "":
		return ThemeLight, nil
	case ThemeDark:
		return ThemeDark, nil
	default:
		return "", ErrInvalidTheme
	}
}

// Toggle returns the other theme.
func (t Theme) Toggle() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}
