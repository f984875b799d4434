package services

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"bills/internal/amqp"
	"bills/internal/cache"
	"bills/internal/core"
	"bills/internal/memory"

	"github.com/shopspring/decimal"
)

type publishedEvent struct {
	Type    amqp.EventType
	BillID  int64
	DueDate string
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (f *fakePublisher) PublishBillEvent(_ context.Context, typ amqp.EventType, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{Type: typ, BillID: id})
	return nil
}

func (f *fakePublisher) PublishReminder(_ context.Context, id int64, due string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, publishedEvent{Type: amqp.EventBillReminder, BillID: id, DueDate: due})
	return nil
}

func (f *fakePublisher) Events() []publishedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedEvent(nil), f.events...)
}

func newTestService(t *testing.T, budget string) (*BillService, *fakePublisher) {
	t.Helper()
	pub := &fakePublisher{}
	store := memory.New(decimal.RequireFromString(budget))
	summaries := cache.NewLRUCache[core.BudgetSummary](16, time.Minute)
	return NewBillService(store, pub, summaries), pub
}

func mustCreate(t *testing.T, s *BillService, desc, category, amount string) core.Bill {
	t.Helper()
	b, err := s.CreateBill(context.Background(), core.Bill{
		Description: desc,
		Category:    category,
		Amount:      amount,
		Date:        core.NewDate(2025, 3, 1),
	})
	if err != nil {
		t.Fatalf("CreateBill(%s) error = %v", desc, err)
	}
	return b
}

func TestBillService_CRUDPublishesEvents(t *testing.T) {
	ctx := context.Background()
	s, pub := newTestService(t, "100")

	b := mustCreate(t, s, "  Power ", "Utilities", " 45.10 ")
	if b.Description != "Power" || b.Amount != "45.10" {
		t.Fatalf("input should be trimmed: %+v", b)
	}

	b.Amount = "50"
	if err := s.UpdateBill(ctx, b); err != nil {
		t.Fatalf("UpdateBill() error = %v", err)
	}
	if err := s.DeleteBill(ctx, b.ID); err != nil {
		t.Fatalf("DeleteBill() error = %v", err)
	}
	if err := s.DeleteBill(ctx, b.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("second delete error = %v, want ErrNotFound", err)
	}

	want := []publishedEvent{
		{Type: amqp.EventBillUpserted, BillID: b.ID},
		{Type: amqp.EventBillUpserted, BillID: b.ID},
		{Type: amqp.EventBillDeleted, BillID: b.ID},
	}
	if got := pub.Events(); !reflect.DeepEqual(got, want) {
		t.Fatalf("events = %+v, want %+v", got, want)
	}
}

func TestBillService_PublishFailureDoesNotFailWrite(t *testing.T) {
	s, pub := newTestService(t, "100")
	pub.err = errors.New("broker down")

	b := mustCreate(t, s, "Rent", "Housing", "900")
	if _, err := s.GetBill(context.Background(), b.ID); err != nil {
		t.Fatalf("bill should be saved even when publishing fails: %v", err)
	}
}

func TestBillService_CreateValidation(t *testing.T) {
	s, pub := newTestService(t, "100")
	_, err := s.CreateBill(context.Background(), core.Bill{
		Description: "   ",
		Category:    "Misc",
		Amount:      "1",
		Date:        core.NewDate(2025, 1, 1),
	})
	if !errors.Is(err, core.ErrEmptyDescription) {
		t.Fatalf("error = %v, want ErrEmptyDescription", err)
	}
	if len(pub.Events()) != 0 {
		t.Fatalf("no event expected for rejected bill")
	}

	// non-numeric amounts are kept
	b := mustCreate(t, s, "Gym", "Health", "thirty")
	if b.Amount != "thirty" {
		t.Fatalf("amount = %q", b.Amount)
	}
}

func TestBillService_BudgetAndAffordable(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, "0")

	a := mustCreate(t, s, "A", "X", "60")
	b := mustCreate(t, s, "B", "Y", "50")
	c := mustCreate(t, s, "C", "X", "40")

	if _, err := s.SetBudget(ctx, "-5"); !errors.Is(err, core.ErrInvalidBudget) {
		t.Fatalf("SetBudget(-5) error = %v", err)
	}
	if _, err := s.SetBudget(ctx, "abc"); !errors.Is(err, core.ErrInvalidBudget) {
		t.Fatalf("SetBudget(abc) error = %v", err)
	}
	if _, err := s.SetBudget(ctx, "100"); err != nil {
		t.Fatalf("SetBudget(100) error = %v", err)
	}

	sel, bills, err := s.Affordable(ctx, nil)
	if err != nil {
		t.Fatalf("Affordable() error = %v", err)
	}
	if len(bills) != 3 {
		t.Fatalf("expected all bills, got %d", len(bills))
	}
	if !sel.IDs.Has(b.ID) || !sel.IDs.Has(c.ID) || sel.IDs.Has(a.ID) {
		t.Fatalf("selection = %v", sel.IDs.Sorted())
	}

	override := decimal.NewFromInt(60)
	sel, _, _ = s.Affordable(ctx, &override)
	if sel.IDs.Len() != 1 || !sel.IDs.Has(c.ID) {
		t.Fatalf("override selection = %v", sel.IDs.Sorted())
	}
}

func TestBillService_SummaryCacheInvalidation(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, "100")
	mustCreate(t, s, "A", "X", "30")

	sum, err := s.Summary(ctx, 0, 0)
	if err != nil {
		t.Fatalf("Summary() error = %v", err)
	}
	if !sum.Total.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("Total = %s", sum.Total)
	}

	mustCreate(t, s, "B", "Y", "20")
	sum, _ = s.Summary(ctx, 0, 0)
	if !sum.Total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("cache should be invalidated after create, Total = %s", sum.Total)
	}

	if _, err := s.SetBudget(ctx, "40"); err != nil {
		t.Fatal(err)
	}
	sum, _ = s.Summary(ctx, 0, 0)
	if !sum.OverBudget || !sum.Remaining.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("summary after budget change = %+v", sum)
	}

	if sum, _ := s.Summary(ctx, 2025, 4); sum.Bills != 0 {
		t.Fatalf("April should have no bills, got %d", sum.Bills)
	}
	if sum, _ := s.Summary(ctx, 2025, 3); sum.Bills != 2 {
		t.Fatalf("March should have 2 bills, got %d", sum.Bills)
	}
	if _, err := s.Summary(ctx, 2025, 13); !errors.Is(err, core.ErrInvalidMonth) {
		t.Fatalf("month 13 error = %v", err)
	}
}

func TestBillService_Overview(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, "50")
	mustCreate(t, s, "Water", "utilities", "20")
	mustCreate(t, s, "Rent", "Housing", "900")
	mustCreate(t, s, "Power", "utilities", "25")

	ov, err := s.Overview(ctx, "utilities")
	if err != nil {
		t.Fatalf("Overview() error = %v", err)
	}
	if len(ov.Bills) != 2 {
		t.Fatalf("filtered bills = %d", len(ov.Bills))
	}
	if want := []string{"Housing", "utilities"}; !reflect.DeepEqual(ov.Categories, want) {
		t.Fatalf("categories = %v, want %v", ov.Categories, want)
	}
	if ov.Affordable.IDs.Len() != 2 || !ov.Affordable.Total.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("affordable = %+v", ov.Affordable)
	}
	if ov.Summary.Bills != 3 || ov.Theme != core.ThemeLight {
		t.Fatalf("overview = %+v", ov)
	}
}

func TestBillService_SetTheme(t *testing.T) {
	ctx := context.Background()
	s, _ := newTestService(t, "0")

	if th, err := s.SetTheme(ctx, ""); err != nil || th != core.ThemeDark {
		t.Fatalf("toggle from light = %q, %v", th, err)
	}
	if th, _ := s.SetTheme(ctx, "toggle"); th != core.ThemeLight {
		t.Fatalf("toggle from dark = %q", th)
	}
	if th, _ := s.SetTheme(ctx, "dark"); th != core.ThemeDark {
		t.Fatalf("explicit dark = %q", th)
	}
	if _, err := s.SetTheme(ctx, "neon"); !errors.Is(err, core.ErrInvalidTheme) {
		t.Fatalf("invalid theme error = %v", err)
	}
}
