package core

import (
	"slices"
	"sort"

	"github.com/shopspring/decimal"
)

// IDSet is a set of bill ids.
type IDSet map[int64]struct{}

// Has reports whether id is in the set.
func (s IDSet) Has(id int64) bool {
	_, ok := s[id]
	return ok
}

// Len returns the number of ids in the set.
func (s IDSet) Len() int { return len(s) }

// Sorted returns the ids in ascending order.
func (s IDSet) Sorted() []int64 {
	out := make([]int64, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Selection is the result of SelectAffordable.
type Selection struct {
	IDs IDSet
	// Total is the sum of the selected amounts.
	Total decimal.Decimal
	// Unparseable counts bills whose amount text is not a number.
	Unparseable int
}

// SelectAffordable picks the bills that fit within budget using a greedy,
// smallest-amount-first policy.
//
// Bills are stable-sorted by amount ascending and scanned once: a bill is
// selected when the running total plus its amount does not exceed budget,
// otherwise it is skipped for good. This is not an optimal subset-sum: a
// combination of larger bills that fits better is never considered.
// Bills with an unparseable amount are always skipped.
func SelectAffordable(bills []Bill, budget decimal.Decimal) Selection {
	type entry struct {
		id     int64
		amount Amount
	}

	entries := make([]entry, len(bills))
	for i, b := range bills {
		entries[i] = entry{id: b.ID, amount: b.ParsedAmount()}
	}

	// Invalid amounts go last; they are skipped wherever they sit.
	slices.SortStableFunc(entries, func(a, b entry) int {
		switch {
		case !a.amount.Valid && !b.amount.Valid:
			return 0
		case !a.amount.Valid:
			return 1
		case !b.amount.Valid:
			return -1
		}
		return a.amount.Value.Cmp(b.amount.Value)
	})

	sel := Selection{IDs: make(IDSet), Total: decimal.Zero}
	for _, e := range entries {
		if !e.amount.Valid {
			sel.Unparseable++
			continue
		}
		next := sel.Total.Add(e.amount.Value)
		if next.LessThanOrEqual(budget) {
			sel.IDs[e.id] = struct{}{}
			sel.Total = next
		}
	}
	return sel
}
