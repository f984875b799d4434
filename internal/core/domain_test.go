package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false},
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("String() = %q", d.String())
	}
	if d.Display() != "Mar 9, 2025" {
		t.Fatalf("Display() = %q", d.Display())
	}
	if _, err := ParseDate("09/03/2025"); err == nil {
		t.Fatalf("expected error for non-ISO date")
	}
	if (Date{}).String() != "" {
		t.Fatalf("zero date should format as empty string")
	}
}

func TestBillValidate(t *testing.T) {
	good := Bill{
		Date:        NewDate(2025, 1, 1),
		Description: "Rent",
		Category:    "Housing",
		Amount:      "1200",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	// Non-numeric text is accepted at the boundary.
	text := good
	text.Amount = "about 50"
	if err := text.Validate(); err != nil {
		t.Fatalf("expected non-numeric amount to validate, got %v", err)
	}

	bads := []struct {
		b    Bill
		want error
	}{
		{Bill{Date: Date{}, Description: "a", Category: "c", Amount: "1"}, nil},
		{Bill{Date: NewDate(2025, 1, 1), Description: " ", Category: "c", Amount: "1"}, ErrEmptyDescription},
		{Bill{Date: NewDate(2025, 1, 1), Description: strings.Repeat("x", 201), Category: "c", Amount: "1"}, ErrDescriptionLong},
		{Bill{Date: NewDate(2025, 1, 1), Description: "a", Category: "", Amount: "1"}, ErrEmptyCategory},
		{Bill{Date: NewDate(2025, 1, 1), Description: "a", Category: "c", Amount: "  "}, ErrInvalidAmount},
	}
	for i, tc := range bads {
		err := tc.b.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if tc.want != nil && !errors.Is(err, tc.want) {
			t.Fatalf("case %d: got %v, want %v", i, err, tc.want)
		}
	}
}

func TestParseTheme(t *testing.T) {
	cases := []struct {
		in   string
		want Theme
		ok   bool
	}{
		{"", ThemeLight, true},
		{"light", ThemeLight, true},
		{" DARK ", ThemeDark, true},
		{"solarized", "", false},
	}
	for _, tc := range cases {
		got, err := ParseTheme(tc.in)
		if tc.ok && (err != nil || got != tc.want) {
			t.Fatalf("%q: got %q err=%v", tc.in, got, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("%q: expected error", tc.in)
		}
	}
	if ThemeLight.Toggle() != ThemeDark || ThemeDark.Toggle() != ThemeLight {
		t.Fatalf("Toggle did not flip theme")
	}
}
