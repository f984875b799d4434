package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"bills/internal/core"
	"bills/internal/ports"
)

// ReminderConfig holds configuration for the reminder processor
type ReminderConfig struct {
	// Interval is how often bills are scanned (default: 1h)
	Interval time.Duration

	// Window is how far ahead a bill counts as due soon (default: 72h)
	Window time.Duration
}

func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{Interval: time.Hour, Window: 72 * time.Hour}
}

// ReminderResult counts what one scan found.
type ReminderResult struct {
	DueSoon   int
	Overdue   int
	Published int
	Skipped   int
}

// ReminderProcessor publishes a bill.reminder event for every bill due soon,
// at most once per bill per day.
type ReminderProcessor struct {
	bills     ports.BillReader
	publisher Publisher
	dueSoon   DuenessChecker
	overdue   DuenessChecker
	config    ReminderConfig

	mu      sync.Mutex
	sent    map[string]struct{}
	sentDay string
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReminderProcessor(bills ports.BillReader, publisher Publisher, config ReminderConfig) *ReminderProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultReminderConfig().Interval
	}
	if config.Window <= 0 {
		config.Window = DefaultReminderConfig().Window
	}
	// Both kinds are known, so the lookups cannot fail.
	dueSoon, _ := GetDuenessChecker(ReminderDueSoon, config.Window)
	overdue, _ := GetDuenessChecker(ReminderOverdue, 0)
	return &ReminderProcessor{
		bills:     bills,
		publisher: publisher,
		dueSoon:   dueSoon,
		overdue:   overdue,
		config:    config,
		sent:      make(map[string]struct{}),
	}
}

// Process scans the bills once.
func (p *ReminderProcessor) Process(ctx context.Context, now time.Time) (ReminderResult, error) {
	var res ReminderResult

	bills, err := p.bills.ListBills(ctx)
	if err != nil {
		return res, fmt.Errorf("list bills: %w", err)
	}

	today := now.Format(core.DateLayout)
	for _, b := range bills {
		switch {
		case p.overdue.IsDue(b.Date, now):
			res.Overdue++
			slog.DebugContext(ctx, "Bill is overdue", "bill_id", b.ID, "due_date", b.Date.String())
		case p.dueSoon.IsDue(b.Date, now):
			res.DueSoon++
			if !p.markSent(today, b) {
				res.Skipped++
				continue
			}
			if p.publisher == nil {
				slog.InfoContext(ctx, "Bill due soon",
					"bill_id", b.ID,
					"description", b.Description,
					"due_date", b.Date.String())
				continue
			}
			if err := p.publisher.PublishReminder(ctx, b.ID, b.Date.String()); err != nil {
				p.unmarkSent(today, b)
				slog.ErrorContext(ctx, "Failed to publish reminder", "bill_id", b.ID, "error", err)
				continue
			}
			res.Published++
		}
	}

	slog.InfoContext(ctx, "Reminder scan completed",
		"bills", len(bills),
		"due_soon", res.DueSoon,
		"overdue", res.Overdue,
		"published", res.Published)
	return res, nil
}

// markSent records a reminder for b today and reports whether it is new.
func (p *ReminderProcessor) markSent(today string, b core.Bill) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sentDay != today {
		p.sent = make(map[string]struct{})
		p.sentDay = today
	}
	key := reminderKey(b)
	if _, ok := p.sent[key]; ok {
		return false
	}
	p.sent[key] = struct{}{}
	return true
}

func (p *ReminderProcessor) unmarkSent(today string, b core.Bill) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.sentDay == today {
		delete(p.sent, reminderKey(b))
	}
}

// the due date is part of the key so editing a bill's date re-arms it
func reminderKey(b core.Bill) string {
	return fmt.Sprintf("%d|%s", b.ID, b.Date.String())
}

// Start runs Process every Interval until Stop or ctx is done.
func (p *ReminderProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("reminder processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	p.mu.Unlock()

	go p.runLoop(ctx)

	slog.InfoContext(ctx, "Reminder processor started",
		"interval", p.config.Interval,
		"window", p.config.Window)
	return nil
}

// Stop signals the loop and waits for it or for ctx.
func (p *ReminderProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		slog.InfoContext(ctx, "Reminder processor stopped gracefully")
		return nil
	case <-ctx.Done():
		slog.WarnContext(ctx, "Reminder processor stop timed out")
		return ctx.Err()
	}
}

func (p *ReminderProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *ReminderProcessor) runLoop(ctx context.Context) {
	p.mu.Lock()
	stopCh, doneCh := p.stopCh, p.doneCh
	p.mu.Unlock()
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.scan(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.scan(ctx)
		}
	}
}

func (p *ReminderProcessor) scan(ctx context.Context) {
	if _, err := p.Process(ctx, time.Now()); err != nil {
		slog.ErrorContext(ctx, "Reminder scan failed", "error", err)
	}
}
