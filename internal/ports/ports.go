package ports

import (
	"context"

	"bills/internal/core"

	"github.com/shopspring/decimal"
)

// Ports implemented by the storage backends.
type (
	BillReader interface {
		// ListBills returns every bill ordered by id.
		ListBills(ctx context.Context) ([]core.Bill, error)
		// GetBill returns core.ErrNotFound when no bill has the id.
		GetBill(ctx context.Context, id int64) (core.Bill, error)
	}

	BillWriter interface {
		// CreateBill stores b and returns it with its new id.
		CreateBill(ctx context.Context, b core.Bill) (core.Bill, error)
		// UpdateBill replaces the bill with the same id.
		UpdateBill(ctx context.Context, b core.Bill) error
		DeleteBill(ctx context.Context, id int64) error
	}

	BillStore interface {
		BillReader
		BillWriter
	}

	// SettingsStore keeps the process-wide budget and UI theme.
	SettingsStore interface {
		Budget(ctx context.Context) (decimal.Decimal, error)
		SetBudget(ctx context.Context, budget decimal.Decimal) error
		Theme(ctx context.Context) (core.Theme, error)
		SetTheme(ctx context.Context, theme core.Theme) error
	}

	Store interface {
		BillStore
		SettingsStore
	}
)
