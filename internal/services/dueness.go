package services

import (
	"fmt"
	"time"

	"bills/internal/core"
)

// ReminderKind names a dueness strategy.
type ReminderKind string

const (
	ReminderDueSoon ReminderKind = "due_soon"
	ReminderOverdue ReminderKind = "overdue"
)

// DuenessChecker decides whether a bill dated due needs attention at now.
type DuenessChecker interface {
	IsDue(due core.Date, now time.Time) bool
}

// DueSoonChecker matches bills dated between today and now+Window.
type DueSoonChecker struct {
	Window time.Duration
}

func (c DueSoonChecker) IsDue(due core.Date, now time.Time) bool {
	if due.IsZero() || due.Before(startOfDay(now)) {
		return false
	}
	return !due.After(now.Add(c.Window))
}

// OverdueChecker matches bills dated before today.
type OverdueChecker struct{}

func (OverdueChecker) IsDue(due core.Date, now time.Time) bool {
	return !due.IsZero() && due.Before(startOfDay(now))
}

// GetDuenessChecker returns the checker for kind.
func GetDuenessChecker(kind ReminderKind, window time.Duration) (DuenessChecker, error) {
	switch kind {
	case ReminderDueSoon:
		return DueSoonChecker{Window: window}, nil
	case ReminderOverdue:
		return OverdueChecker{}, nil
	default:
		return nil, fmt.Errorf("unknown reminder kind: %s", kind)
	}
}

// startOfDay returns the calendar day of t as a UTC midnight, the form
// core.Date values are stored in.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
