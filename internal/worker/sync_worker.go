package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bills/internal/amqp"
	"bills/internal/core"
	"bills/internal/ports"
)

// Exporter mirrors bills to an external destination.
type Exporter interface {
	UpsertBill(ctx context.Context, b core.Bill) error
	DeleteBill(ctx context.Context, id int64) error
}

// SyncWorker handles bill events from AMQP. Without an exporter it only logs.
type SyncWorker struct {
	bills    ports.BillReader
	exporter Exporter
}

func NewSyncWorker(bills ports.BillReader, exporter Exporter) *SyncWorker {
	return &SyncWorker{bills: bills, exporter: exporter}
}

// HandleMessage dispatches msg by type. A returned error requeues it.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.Message) error {
	switch msg.Type {
	case amqp.EventBillUpserted:
		return w.handleUpsert(ctx, msg)
	case amqp.EventBillDeleted:
		return w.handleDelete(ctx, msg)
	case amqp.EventBillReminder:
		w.handleReminder(ctx, msg)
		return nil
	default:
		slog.WarnContext(ctx, "Ignoring message with unknown type", "type", msg.Type, "message_id", msg.ID)
		return nil
	}
}

func (w *SyncWorker) handleUpsert(ctx context.Context, msg *amqp.Message) error {
	b, err := w.bills.GetBill(ctx, msg.BillID)
	if errors.Is(err, core.ErrNotFound) {
		// deleted before the event was processed, the delete event follows
		slog.InfoContext(ctx, "Bill no longer exists, skipping sync", "bill_id", msg.BillID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get bill from storage: %w", err)
	}

	if w.exporter == nil {
		slog.InfoContext(ctx, "Bill changed",
			"bill_id", b.ID,
			"description", b.Description,
			"amount", b.Amount)
		return nil
	}
	if err := w.exporter.UpsertBill(ctx, b); err != nil {
		return fmt.Errorf("export bill %d: %w", b.ID, err)
	}
	return nil
}

func (w *SyncWorker) handleDelete(ctx context.Context, msg *amqp.Message) error {
	if w.exporter == nil {
		slog.InfoContext(ctx, "Bill deleted", "bill_id", msg.BillID)
		return nil
	}
	if err := w.exporter.DeleteBill(ctx, msg.BillID); err != nil {
		return fmt.Errorf("remove exported bill %d: %w", msg.BillID, err)
	}
	return nil
}

func (w *SyncWorker) handleReminder(ctx context.Context, msg *amqp.Message) {
	attrs := []any{"bill_id", msg.BillID, "due_date", msg.DueDate}
	if b, err := w.bills.GetBill(ctx, msg.BillID); err == nil {
		attrs = append(attrs,
			"description", b.Description,
			"category", b.Category,
			"amount", b.Amount)
	}
	slog.WarnContext(ctx, "Bill due soon", attrs...)
}
