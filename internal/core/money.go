// Package core provides money parsing and handling utilities.
//
// This file contains the late parsing of bill amounts and the currency
// formatting used by the web UI and the CLI.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// maxAmountExponent bounds the decimal exponent of a parsed amount.
const maxAmountExponent = 30

// Amount is a parsed bill amount. Valid is false when the text was not a
// number; such an amount fails every comparison, like a NaN would.
type Amount struct {
	Value decimal.Decimal
	Valid bool
}

// ParseAmount parses amount text as a decimal number.
//
// Surrounding whitespace is ignored. Anything that is not a plain decimal
// (optionally signed, optionally with an exponent) yields an invalid Amount.
//
// Examples:
//
//	ParseAmount("12.34") -> {12.34, true}
//	ParseAmount(" 50 ")  -> {50, true}
//	ParseAmount("abc")   -> {0, false}
//	ParseAmount("1e400") -> {0, false}
func ParseAmount(s string) Amount {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}
	}
	// Arithmetic rescales to the smaller exponent, so a huge exponent in
	// either direction would make every sum over the bills crawl.
	if exp := d.Exponent(); exp > maxAmountExponent || exp < -maxAmountExponent {
		return Amount{}
	}
	return Amount{Value: d, Valid: true}
}

// ParseBudget parses a budget ceiling. Budgets must be numeric and non-negative.
func ParseBudget(s string) (decimal.Decimal, error) {
	a := ParseAmount(s)
	if !a.Valid || a.Value.IsNegative() {
		return decimal.Zero, ErrInvalidBudget
	}
	return a.Value, nil
}

// FormatAmount formats a value as US dollars, e.g. "$1,234.50".
func FormatAmount(d decimal.Decimal) string {
	return FormatMoney("$", d)
}

// FormatMoney formats a value with two decimals, thousands separators and
// the given currency symbol in front.
func FormatMoney(symbol string, d decimal.Decimal) string {
	neg := d.IsNegative()
	if neg {
		d = d.Neg()
	}
	s := d.StringFixed(2)
	intPart, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	out := symbol + b.String() + "." + frac
	if neg {
		return "-" + out
	}
	return out
}
