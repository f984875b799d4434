package core

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// AllCategories is the filter value that matches every bill.
const AllCategories = "all"

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount decimal.Decimal
	Count  int
}

// BudgetSummary compares the bill list against the monthly budget.
type BudgetSummary struct {
	Budget      decimal.Decimal
	Total       decimal.Decimal
	Remaining   decimal.Decimal
	OverBudget  bool
	Bills       int
	Unparseable int
	ByCategory  []CategoryAmount
}

// Categories returns the distinct category labels in first-seen order.
func Categories(bills []Bill) []string {
	seen := make(map[string]struct{}, len(bills))
	out := make([]string, 0)
	for _, b := range bills {
		c := strings.TrimSpace(b.Category)
		if c == "" {
			continue
		}
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// FilterByCategory returns the bills labelled category. An empty category or
// AllCategories returns every bill.
func FilterByCategory(bills []Bill, category string) []Bill {
	category = strings.TrimSpace(category)
	if category == "" || strings.EqualFold(category, AllCategories) {
		return bills
	}
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if strings.TrimSpace(b.Category) == category {
			out = append(out, b)
		}
	}
	return out
}

// InMonth returns the bills dated in the given calendar month.
func InMonth(bills []Bill, year, month int) []Bill {
	out := make([]Bill, 0, len(bills))
	for _, b := range bills {
		if b.Date.Year() == year && int(b.Date.Month()) == month {
			out = append(out, b)
		}
	}
	return out
}

// Summarize totals the bills against budget. Unparseable amounts are left out
// of every sum and counted in Unparseable.
func Summarize(bills []Bill, budget decimal.Decimal) BudgetSummary {
	sum := BudgetSummary{Budget: budget, Total: decimal.Zero, Bills: len(bills)}

	byName := make(map[string]*CategoryAmount)
	order := make([]string, 0)
	for _, b := range bills {
		a := b.ParsedAmount()
		if !a.Valid {
			sum.Unparseable++
			continue
		}
		sum.Total = sum.Total.Add(a.Value)

		name := strings.TrimSpace(b.Category)
		ca, ok := byName[name]
		if !ok {
			ca = &CategoryAmount{Name: name, Amount: decimal.Zero}
			byName[name] = ca
			order = append(order, name)
		}
		ca.Amount = ca.Amount.Add(a.Value)
		ca.Count++
	}

	sum.Remaining = budget.Sub(sum.Total)
	sum.OverBudget = sum.Total.GreaterThan(budget)

	sum.ByCategory = make([]CategoryAmount, 0, len(order))
	for _, name := range order {
		sum.ByCategory = append(sum.ByCategory, *byName[name])
	}
	sort.SliceStable(sum.ByCategory, func(i, j int) bool {
		return sum.ByCategory[i].Amount.GreaterThan(sum.ByCategory[j].Amount)
	})
	return sum
}

// BarWidth scales amount against max to a percentage for chart bars.
// Non-zero values get at least 2 so they stay visible.
func BarWidth(amount, max decimal.Decimal) int {
	if !max.IsPositive() || !amount.IsPositive() {
		return 0
	}
	width := int(amount.Mul(decimal.NewFromInt(100)).Div(max).Round(0).IntPart())
	if width < 2 {
		width = 2
	}
	if width > 100 {
		width = 100
	}
	return width
}
