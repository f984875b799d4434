package services

import (
	"testing"
	"time"

	"bills/internal/core"
)

func TestDueSoonChecker_IsDue(t *testing.T) {
	checker := DueSoonChecker{Window: 72 * time.Hour}
	now := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  core.Date
		want bool
	}{
		{"due today", core.NewDate(2025, 3, 10), true},
		{"due tomorrow", core.NewDate(2025, 3, 11), true},
		{"due at window edge", core.NewDate(2025, 3, 13), true},
		{"due after window", core.NewDate(2025, 3, 14), false},
		{"due yesterday", core.NewDate(2025, 3, 9), false},
		{"zero date", core.Date{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.due, now); got != tt.want {
				t.Errorf("DueSoonChecker.IsDue(%s) = %v, want %v", tt.due, got, tt.want)
			}
		})
	}
}

func TestOverdueChecker_IsDue(t *testing.T) {
	checker := OverdueChecker{}
	now := time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		due  core.Date
		want bool
	}{
		{"due today", core.NewDate(2025, 3, 10), false},
		{"due yesterday", core.NewDate(2025, 3, 9), true},
		{"due last year", core.NewDate(2024, 12, 1), true},
		{"due next week", core.NewDate(2025, 3, 17), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := checker.IsDue(tt.due, now); got != tt.want {
				t.Errorf("OverdueChecker.IsDue(%s) = %v, want %v", tt.due, got, tt.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	if c, err := GetDuenessChecker(ReminderDueSoon, time.Hour); err != nil || c.(DueSoonChecker).Window != time.Hour {
		t.Fatalf("GetDuenessChecker(due_soon) = %v, %v", c, err)
	}
	if _, err := GetDuenessChecker(ReminderOverdue, 0); err != nil {
		t.Fatalf("GetDuenessChecker(overdue) error = %v", err)
	}
	if _, err := GetDuenessChecker("weekly", 0); err == nil {
		t.Fatal("expected error for unknown kind")
	}
}
