package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bills/internal/core"
	"bills/internal/ports"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

const (
	settingBudget = "budget"
	settingTheme  = "theme"
)

var _ ports.Store = (*SQLiteRepository)(nil)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection, used by the readiness probe.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListBills implements ports.BillReader
func (r *SQLiteRepository) ListBills(ctx context.Context) ([]core.Bill, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, description, category, amount, due_date FROM bills ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query bills: %w", err)
	}
	defer rows.Close()

	var bills []core.Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, err
		}
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bills: %w", err)
	}
	return bills, nil
}

// GetBill implements ports.BillReader
func (r *SQLiteRepository) GetBill(ctx context.Context, id int64) (core.Bill, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, description, category, amount, due_date FROM bills WHERE id = ?`, id)
	b, err := scanBill(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Bill{}, core.ErrNotFound
	}
	if err != nil {
		return core.Bill{}, fmt.Errorf("get bill %d: %w", id, err)
	}
	return b, nil
}

// CreateBill implements ports.BillWriter
func (r *SQLiteRepository) CreateBill(ctx context.Context, b core.Bill) (core.Bill, error) {
	if err := b.Validate(); err != nil {
		return core.Bill{}, err
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO bills (description, category, amount, due_date) VALUES (?, ?, ?, ?)`,
		b.Description, b.Category, b.Amount, b.Date.String())
	if err != nil {
		return core.Bill{}, fmt.Errorf("insert bill: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Bill{}, fmt.Errorf("last insert id: %w", err)
	}
	b.ID = id

	slog.InfoContext(ctx, "Bill saved to SQLite",
		"id", b.ID,
		"description", b.Description,
		"amount", b.Amount,
		"due_date", b.Date.String())

	return b, nil
}

// UpdateBill implements ports.BillWriter
func (r *SQLiteRepository) UpdateBill(ctx context.Context, b core.Bill) error {
	if err := b.Validate(); err != nil {
		return err
	}
	res, err := r.db.ExecContext(ctx,
		`UPDATE bills SET description = ?, category = ?, amount = ?, due_date = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		b.Description, b.Category, b.Amount, b.Date.String(), b.ID)
	if err != nil {
		return fmt.Errorf("update bill %d: %w", b.ID, err)
	}
	return expectOneRow(res, b.ID)
}

// DeleteBill implements ports.BillWriter
func (r *SQLiteRepository) DeleteBill(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bills WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete bill %d: %w", id, err)
	}
	if err := expectOneRow(res, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Bill deleted from SQLite", "id", id)
	return nil
}

// Budget implements ports.SettingsStore
func (r *SQLiteRepository) Budget(ctx context.Context) (decimal.Decimal, error) {
	v, err := r.getSetting(ctx, settingBudget)
	if err != nil {
		return decimal.Zero, err
	}
	budget, err := core.ParseBudget(v)
	if err != nil {
		slog.WarnContext(ctx, "Stored budget is not a valid number, using zero", "value", v)
		return decimal.Zero, nil
	}
	return budget, nil
}

// SetBudget implements ports.SettingsStore
func (r *SQLiteRepository) SetBudget(ctx context.Context, budget decimal.Decimal) error {
	if budget.IsNegative() {
		return core.ErrInvalidBudget
	}
	return r.setSetting(ctx, settingBudget, budget.String())
}

// Theme implements ports.SettingsStore
func (r *SQLiteRepository) Theme(ctx context.Context) (core.Theme, error) {
	v, err := r.getSetting(ctx, settingTheme)
	if err != nil {
		return core.ThemeLight, err
	}
	theme, err := core.ParseTheme(v)
	if err != nil {
		return core.ThemeLight, nil
	}
	return theme, nil
}

// SetTheme implements ports.SettingsStore
func (r *SQLiteRepository) SetTheme(ctx context.Context, theme core.Theme) error {
	if _, err := core.ParseTheme(string(theme)); err != nil {
		return err
	}
	return r.setSetting(ctx, settingTheme, string(theme))
}

func (r *SQLiteRepository) getSetting(ctx context.Context, key string) (string, error) {
	var v string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return v, nil
}

func (r *SQLiteRepository) setSetting(ctx context.Context, key, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO settings (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	slog.InfoContext(ctx, "Setting updated", "key", key, "value", value)
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanBill(s scanner) (core.Bill, error) {
	var (
		b   core.Bill
		due string
	)
	if err := s.Scan(&b.ID, &b.Description, &b.Category, &b.Amount, &due); err != nil {
		return core.Bill{}, err
	}
	d, err := core.ParseDate(due)
	if err != nil {
		return core.Bill{}, fmt.Errorf("bill %d has invalid due date %q: %w", b.ID, due, err)
	}
	b.Date = d
	return b, nil
}

func expectOneRow(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("bill %d: %w", id, core.ErrNotFound)
	}
	return nil
}
