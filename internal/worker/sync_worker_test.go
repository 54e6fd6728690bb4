package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keuangan/internal/amqp"
	"keuangan/internal/core"
	"keuangan/internal/sheets/memory"
	"keuangan/internal/storage"
)

func newTestWorker(t *testing.T) (*SyncWorker, *storage.Repository, *memory.Mirror) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "worker.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	mirror := memory.New()
	return NewSyncWorker(repo, mirror, 10), repo, mirror
}

func seedTransaction(t *testing.T, repo *storage.Repository, desc string) core.Transaction {
	t.Helper()
	ctx := context.Background()
	userID, err := repo.CreateUser(ctx, "budi@example.com", "rahasia123")
	if err != nil {
		// Reuse the account across seeds within a test.
		userID, err = repo.UserByEmail(ctx, "budi@example.com")
		require.NoError(t, err)
	}

	cat, err := repo.InsertCategory(ctx, core.Category{
		Name: "Makan", Type: core.Expense, UserID: userID,
	})
	require.NoError(t, err)

	tx, err := repo.InsertTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: 25000_00},
		Description: desc,
		Type:        core.Expense,
		CategoryID:  cat.ID,
		UserID:      userID,
	})
	require.NoError(t, err)
	return tx
}

func TestHandleMessageUpsertMirrorsRow(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo, "Makan siang")

	require.NoError(t, w.HandleMessage(ctx, amqp.NewUpsertMessage(tx.ID)))

	rows := mirror.Rows()
	require.Len(t, rows, 1)
	assert.Equal(t, tx.ID, rows[0].ID)
	assert.Equal(t, "Makan siang", rows[0].Description)
	assert.Equal(t, "Makan", rows[0].CategoryName)

	pending, err := repo.PendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestHandleMessageUpsertMissingTransactionIsNoop(t *testing.T) {
	w, _, mirror := newTestWorker(t)
	ctx := context.Background()

	require.NoError(t, w.HandleMessage(ctx, amqp.NewUpsertMessage("missing-id")))
	assert.Empty(t, mirror.Rows())
}

func TestHandleMessageDeleteRemovesRow(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()
	tx := seedTransaction(t, repo, "Makan siang")

	require.NoError(t, w.HandleMessage(ctx, amqp.NewUpsertMessage(tx.ID)))
	require.Len(t, mirror.Rows(), 1)

	require.NoError(t, w.HandleMessage(ctx, amqp.NewDeleteMessage(tx.ID)))
	assert.Empty(t, mirror.Rows())

	// Deleting an id that never reached the sheet stays quiet.
	require.NoError(t, w.HandleMessage(ctx, amqp.NewDeleteMessage("missing-id")))
}

func TestHandleMessageUnknownOp(t *testing.T) {
	w, _, _ := newTestWorker(t)
	msg := &amqp.SyncMessage{ID: "x", Op: "rename"}
	assert.Error(t, w.HandleMessage(context.Background(), msg))
}

func TestStartupSyncCheckDrainsBacklog(t *testing.T) {
	w, repo, mirror := newTestWorker(t)
	ctx := context.Background()

	first := seedTransaction(t, repo, "Makan siang")
	second := seedTransaction(t, repo, "Kopi")

	require.NoError(t, w.StartupSyncCheck(ctx))

	rows := mirror.Rows()
	require.Len(t, rows, 2)
	ids := []string{rows[0].ID, rows[1].ID}
	assert.Contains(t, ids, first.ID)
	assert.Contains(t, ids, second.ID)

	pending, err := repo.PendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestProcessPendingEmptyBacklog(t *testing.T) {
	w, _, mirror := newTestWorker(t)
	require.NoError(t, w.ProcessPending(context.Background()))
	assert.Empty(t, mirror.Rows())
}
