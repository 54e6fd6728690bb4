// Package worker mirrors transactions from SQLite to the spreadsheet.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"keuangan/internal/amqp"
	"keuangan/internal/gateway"
	"keuangan/internal/sheets"
	"keuangan/internal/storage"
)

// SyncWorker consumes sync messages and keeps the spreadsheet in step with
// the transactions table.
type SyncWorker struct {
	storage   *storage.Repository
	mirror    sheets.Mirror
	batchSize int
}

func NewSyncWorker(storage *storage.Repository, mirror sheets.Mirror, batchSize int) *SyncWorker {
	return &SyncWorker{
		storage:   storage,
		mirror:    mirror,
		batchSize: batchSize,
	}
}

// HandleMessage processes one sync message. Upserts fetch current row data
// from the database so the spreadsheet always reflects what was committed,
// not what the message carried.
func (w *SyncWorker) HandleMessage(ctx context.Context, msg *amqp.SyncMessage) error {
	switch msg.Op {
	case amqp.OpUpsert:
		return w.syncTransaction(ctx, msg.ID)
	case amqp.OpDelete:
		return w.deleteTransaction(ctx, msg.ID)
	default:
		return fmt.Errorf("unknown sync op %q", msg.Op)
	}
}

func (w *SyncWorker) syncTransaction(ctx context.Context, id string) error {
	tx, err := w.storage.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, gateway.ErrNotFound) {
			// Deleted before the worker got to it. The delete message
			// will clean up any row that made it to the sheet.
			slog.InfoContext(ctx, "Transaction gone before sync, skipping", "transaction_id", id)
			return nil
		}
		return fmt.Errorf("get transaction from storage: %w", err)
	}

	ref, err := w.mirror.Append(ctx, tx)
	if err != nil {
		if markErr := w.storage.MarkSyncError(ctx, id); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark sync error", "transaction_id", id, "error", markErr)
		}
		return fmt.Errorf("append to sheets: %w", err)
	}

	if err := w.storage.MarkSynced(ctx, id); err != nil {
		// The append worked; only the bookkeeping failed.
		slog.ErrorContext(ctx, "Failed to mark as synced", "transaction_id", id, "error", err)
	}

	slog.InfoContext(ctx, "Synced transaction",
		"transaction_id", id,
		"sheets_ref", ref,
		"amount_cents", tx.Amount.Cents)
	return nil
}

func (w *SyncWorker) deleteTransaction(ctx context.Context, id string) error {
	if err := w.mirror.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete from sheets: %w", err)
	}
	slog.InfoContext(ctx, "Deleted transaction from sheet", "transaction_id", id)
	return nil
}

// ProcessPending mirrors transactions whose sync message was lost. Runs
// periodically as a backstop behind the AMQP path.
func (w *SyncWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.PendingSyncTransactions(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("get pending transactions: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending transactions", "count", len(pending))
	for _, id := range pending {
		if err := w.syncTransaction(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync pending transaction", "transaction_id", id, "error", err)
		}
	}
	return nil
}

// StartupSyncCheck drains the pending backlog once at worker startup, with
// a larger batch than the periodic pass.
func (w *SyncWorker) StartupSyncCheck(ctx context.Context) error {
	pending, err := w.storage.PendingSyncTransactions(ctx, w.batchSize*5)
	if err != nil {
		return fmt.Errorf("get pending transactions for startup check: %w", err)
	}
	if len(pending) == 0 {
		slog.InfoContext(ctx, "No pending transactions found on startup")
		return nil
	}

	slog.InfoContext(ctx, "Found pending transactions on startup, processing...",
		"count", len(pending))

	synced := 0
	failed := 0
	for _, id := range pending {
		if err := w.syncTransaction(ctx, id); err != nil {
			slog.ErrorContext(ctx, "Failed to sync transaction during startup",
				"transaction_id", id, "error", err)
			failed++
			continue
		}
		synced++
	}

	slog.InfoContext(ctx, "Startup sync completed",
		"total", len(pending),
		"synced", synced,
		"errors", failed)
	return nil
}
