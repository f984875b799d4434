package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"bills/internal/amqp"
	"bills/internal/cache"
	"bills/internal/core"
	"bills/internal/ports"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Publisher sends bill events. *amqp.Client implements it.
type Publisher interface {
	PublishBillEvent(ctx context.Context, typ amqp.EventType, billID int64) error
	PublishReminder(ctx context.Context, billID int64, dueDate string) error
}

// Overview is everything the bill page shows at once.
type Overview struct {
	Bills      []core.Bill
	Categories []string
	Category   string
	Affordable core.Selection
	Summary    core.BudgetSummary
	Theme      core.Theme
}

// BillService orchestrates bill operations across storage, the summary cache
// and AMQP. Event publishing is best effort.
type BillService struct {
	store     ports.Store
	publisher Publisher
	summaries cache.Cache[core.BudgetSummary]
}

// NewBillService wires the service. publisher and summaries may be nil.
func NewBillService(store ports.Store, publisher Publisher, summaries cache.Cache[core.BudgetSummary]) *BillService {
	return &BillService{store: store, publisher: publisher, summaries: summaries}
}

// ListBills returns the bills in category ("" or "all" for every bill).
func (s *BillService) ListBills(ctx context.Context, category string) ([]core.Bill, error) {
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return core.FilterByCategory(bills, category), nil
}

func (s *BillService) GetBill(ctx context.Context, id int64) (core.Bill, error) {
	b, err := s.store.GetBill(ctx, id)
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %d: %w", id, err)
	}
	return b, nil
}

// Categories returns the distinct labels sorted case-insensitively.
func (s *BillService) Categories(ctx context.Context) ([]string, error) {
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return nil, fmt.Errorf("list bills: %w", err)
	}
	return sortedCategories(bills), nil
}

func (s *BillService) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	b = normalize(b)
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	warnUnparseable(ctx, b)

	created, err := s.store.CreateBill(ctx, b)
	if err != nil {
		return core.Bill{}, fmt.Errorf("save bill: %w", err)
	}
	s.invalidate(ctx)
	s.publish(ctx, amqp.EventBillUpserted, created.ID)
	return created, nil
}

func (s *BillService) UpdateBill(ctx context.Context, b core.Bill) error {
	b = normalize(b)
	if err := b.Validate(); err != nil {
		return err
	}
	warnUnparseable(ctx, b)

	if err := s.store.UpdateBill(ctx, b); err != nil {
		return fmt.Errorf("update bill %d: %w", b.ID, err)
	}
	s.invalidate(ctx)
	s.publish(ctx, amqp.EventBillUpserted, b.ID)
	return nil
}

func (s *BillService) DeleteBill(ctx context.Context, id int64) error {
	if err := s.store.DeleteBill(ctx, id); err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	s.invalidate(ctx)
	s.publish(ctx, amqp.EventBillDeleted, id)
	return nil
}

func (s *BillService) Budget(ctx context.Context) (decimal.Decimal, error) {
	return s.store.Budget(ctx)
}

// SetBudget parses raw and stores it as the monthly budget.
func (s *BillService) SetBudget(ctx context.Context, raw string) (decimal.Decimal, error) {
	budget, err := core.ParseBudget(raw)
	if err != nil {
		return decimal.Zero, err
	}
	if err := s.store.SetBudget(ctx, budget); err != nil {
		return decimal.Zero, fmt.Errorf("save budget: %w", err)
	}
	s.invalidate(ctx)
	slog.InfoContext(ctx, "Budget updated", "budget", budget.String())
	return budget, nil
}

func (s *BillService) Theme(ctx context.Context) (core.Theme, error) {
	return s.store.Theme(ctx)
}

// SetTheme stores raw as the theme. An empty value or "toggle" flips the
// current theme.
func (s *BillService) SetTheme(ctx context.Context, raw string) (core.Theme, error) {
	var theme core.Theme
	if raw = strings.TrimSpace(raw); raw == "" || raw == "toggle" {
		current, err := s.store.Theme(ctx)
		if err != nil {
			return core.ThemeLight, fmt.Errorf("load theme: %w", err)
		}
		theme = current.Toggle()
	} else {
		t, err := core.ParseTheme(raw)
		if err != nil {
			return core.ThemeLight, err
		}
		theme = t
	}
	if err := s.store.SetTheme(ctx, theme); err != nil {
		return core.ThemeLight, fmt.Errorf("save theme: %w", err)
	}
	return theme, nil
}

// Affordable runs the greedy budget fit over every bill against budget, or
// against the stored budget when budget is nil.
func (s *BillService) Affordable(ctx context.Context, budget *decimal.Decimal) (core.Selection, []core.Bill, error) {
	bills, err := s.store.ListBills(ctx)
	if err != nil {
		return core.Selection{}, nil, fmt.Errorf("list bills: %w", err)
	}
	b := decimal.Zero
	if budget != nil {
		b = *budget
	} else if b, err = s.store.Budget(ctx); err != nil {
		return core.Selection{}, nil, fmt.Errorf("load budget: %w", err)
	}
	return core.SelectAffordable(bills, b), bills, nil
}

// Summary summarizes the bills dated in year/month, or every bill when year
// is zero. Results are cached until the next write.
func (s *BillService) Summary(ctx context.Context, year, month int) (core.BudgetSummary, error) {
	if year != 0 && (month < 1 || month > 12) {
		return core.BudgetSummary{}, core.ErrInvalidMonth
	}
	key := summaryKey(year, month)
	if s.summaries != nil {
		if sum, ok := s.summaries.Get(ctx, key); ok {
			return sum, nil
		}
	}

	var (
		bills  []core.Bill
		budget decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		bills, err = s.store.ListBills(gctx)
		return err
	})
	g.Go(func() (err error) {
		budget, err = s.store.Budget(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return core.BudgetSummary{}, fmt.Errorf("load summary data: %w", err)
	}

	if year != 0 {
		bills = core.InMonth(bills, year, month)
	}
	sum := core.Summarize(bills, budget)
	if s.summaries != nil {
		s.summaries.Set(ctx, key, sum)
	}
	return sum, nil
}

// Overview loads the page state for category in one round of concurrent
// store reads.
func (s *BillService) Overview(ctx context.Context, category string) (Overview, error) {
	var (
		all    []core.Bill
		budget decimal.Decimal
		theme  core.Theme
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		all, err = s.store.ListBills(gctx)
		return err
	})
	g.Go(func() (err error) {
		budget, err = s.store.Budget(gctx)
		return err
	})
	g.Go(func() (err error) {
		theme, err = s.store.Theme(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("load overview: %w", err)
	}

	return Overview{
		Bills:      core.FilterByCategory(all, category),
		Categories: sortedCategories(all),
		Category:   category,
		Affordable: core.SelectAffordable(all, budget),
		Summary:    core.Summarize(all, budget),
		Theme:      theme,
	}, nil
}

// Ping checks the store when it supports it.
func (s *BillService) Ping(ctx context.Context) error {
	if p, ok := s.store.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (s *BillService) invalidate(ctx context.Context) {
	if s.summaries != nil {
		s.summaries.Clear(ctx)
	}
}

func (s *BillService) publish(ctx context.Context, typ amqp.EventType, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishBillEvent(ctx, typ, id); err != nil {
		slog.ErrorContext(ctx, "Failed to publish bill event",
			"type", typ,
			"bill_id", id,
			"error", err)
	}
}

func normalize(b core.Bill) core.Bill {
	b.Description = strings.TrimSpace(b.Description)
	b.Category = strings.TrimSpace(b.Category)
	b.Amount = strings.TrimSpace(b.Amount)
	return b
}

func warnUnparseable(ctx context.Context, b core.Bill) {
	if !b.ParsedAmount().Valid {
		slog.WarnContext(ctx, "Bill amount is not a number and will never be affordable",
			"bill_id", b.ID,
			"description", b.Description,
			"amount", b.Amount)
	}
}

func sortedCategories(bills []core.Bill) []string {
	cats := core.Categories(bills)
	slices.SortStableFunc(cats, func(a, b string) int {
		return strings.Compare(strings.ToLower(a), strings.ToLower(b))
	})
	return cats
}

func summaryKey(year, month int) string {
	if year == 0 {
		return "summary:all"
	}
	return fmt.Sprintf("summary:%04d-%02d", year, month)
}
