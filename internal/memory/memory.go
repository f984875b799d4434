package memory

import (
	"bufio"
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"bills/internal/core"
	"bills/internal/ports"

	"github.com/shopspring/decimal"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	mu     sync.Mutex
	nextID int64
	bills  []core.Bill
	budget decimal.Decimal
	theme  core.Theme
}

func New(budget decimal.Decimal) *Store {
	return &Store{nextID: 1, budget: budget, theme: core.ThemeLight}
}

// NewFromFile creates a store seeded from a pipe separated file with one bill
// per line: description|category|amount|YYYY-MM-DD. Blank lines and lines
// starting with # are ignored, as are lines that do not validate.
func NewFromFile(path string, budget decimal.Decimal) *Store {
	s := New(budget)
	for _, line := range readLines(path) {
		parts := strings.Split(line, "|")
		if len(parts) != 4 {
			slog.Warn("Skipping malformed seed line", "path", path, "line", line)
			continue
		}
		date, err := core.ParseDate(parts[3])
		if err != nil {
			slog.Warn("Skipping seed line with invalid date", "path", path, "line", line)
			continue
		}
		b := core.Bill{
			Description: strings.TrimSpace(parts[0]),
			Category:    strings.TrimSpace(parts[1]),
			Amount:      strings.TrimSpace(parts[2]),
			Date:        date,
		}
		if _, err := s.CreateBill(context.Background(), b); err != nil {
			slog.Warn("Skipping invalid seed bill", "path", path, "error", err)
		}
	}
	return s
}

func (s *Store) ListBills(_ context.Context) ([]core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Bill(nil), s.bills...), nil
}

func (s *Store) GetBill(_ context.Context, id int64) (core.Bill, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(id); i >= 0 {
		return s.bills[i], nil
	}
	return core.Bill{}, core.ErrNotFound
}

func (s *Store) CreateBill(_ context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	b.ID = s.nextID
	s.nextID++
	s.bills = append(s.bills, b)
	return b, nil
}

func (s *Store) UpdateBill(_ context.Context, b core.Bill) error {
	if err := b.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(b.ID)
	if i < 0 {
		return core.ErrNotFound
	}
	s.bills[i] = b
	return nil
}

func (s *Store) DeleteBill(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.ErrNotFound
	}
	s.bills = append(s.bills[:i], s.bills[i+1:]...)
	return nil
}

func (s *Store) Budget(_ context.Context) (decimal.Decimal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.budget, nil
}

func (s *Store) SetBudget(_ context.Context, budget decimal.Decimal) error {
	if budget.IsNegative() {
		return core.ErrInvalidBudget
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.budget = budget
	return nil
}

func (s *Store) Theme(_ context.Context) (core.Theme, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.theme, nil
}

func (s *Store) SetTheme(_ context.Context, theme core.Theme) error {
	if _, err := core.ParseTheme(string(theme)); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.theme = theme
	return nil
}

// indexOf must be called with mu held.
func (s *Store) indexOf(id int64) int {
	for i, b := range s.bills {
		if b.ID == id {
			return i
		}
	}
	return -1
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out
}
