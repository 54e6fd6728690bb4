package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
)

func newTestRepo(t *testing.T) (*Repository, string) {
	t.Helper()
	repo, err := NewRepository(filepath.Join(t.TempDir(), "keuangan.db"), time.Hour)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	userID, err := repo.CreateUser(context.Background(), "adri@example.com", "rahasia123")
	require.NoError(t, err)
	return repo, userID
}

func TestAuthLifecycle(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	_, err := repo.SignIn(ctx, "adri@example.com", "salah")
	assert.ErrorIs(t, err, gateway.ErrInvalidCredentials)

	sess, err := repo.SignIn(ctx, "ADRI@example.com", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, userID, sess.UserID)
	assert.Equal(t, "adri@example.com", sess.Email)

	got, err := repo.Session(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, got.UserID)

	require.NoError(t, repo.SignOut(ctx, sess.Token))
	_, err = repo.Session(ctx, sess.Token)
	assert.ErrorIs(t, err, gateway.ErrNoSession)
}

func TestSessionExpiry(t *testing.T) {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "keuangan.db"), time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })
	ctx := context.Background()

	_, err = repo.CreateUser(ctx, "adri@example.com", "rahasia123")
	require.NoError(t, err)
	sess, err := repo.SignIn(ctx, "adri@example.com", "rahasia123")
	require.NoError(t, err)

	time.Sleep(5 * time.Millisecond)
	_, err = repo.Session(ctx, sess.Token)
	assert.ErrorIs(t, err, gateway.ErrNoSession)
}

func TestCategoryCRUDAndConflict(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	makan, err := repo.InsertCategory(ctx, core.Category{Name: "Makan", Type: core.Expense, UserID: userID})
	require.NoError(t, err)
	_, err = repo.InsertCategory(ctx, core.Category{Name: "Gaji", Type: core.Income, UserID: userID})
	require.NoError(t, err)

	// Duplicate name/type pairs are allowed; there is no uniqueness rule.
	_, err = repo.InsertCategory(ctx, core.Category{Name: "Makan", Type: core.Expense, UserID: userID})
	require.NoError(t, err)

	cats, err := repo.ListCategories(ctx, userID)
	require.NoError(t, err)
	require.Len(t, cats, 3)
	assert.Equal(t, "Gaji", cats[0].Name)

	_, err = repo.InsertTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: 1500},
		Description: "nasi goreng",
		Type:        core.Expense,
		CategoryID:  makan.ID,
		UserID:      userID,
	})
	require.NoError(t, err)

	err = repo.DeleteCategory(ctx, userID, makan.ID)
	assert.ErrorIs(t, err, gateway.ErrConflict)

	after, err := repo.ListCategories(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, after, 3, "failed delete must leave the table unchanged")

	require.NoError(t, repo.DeleteCategory(ctx, userID, cats[0].ID))
	assert.ErrorIs(t, repo.DeleteCategory(ctx, userID, "missing"), gateway.ErrNotFound)
}

func TestTransactionListNewestFirstWithJoin(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	cat, err := repo.InsertCategory(ctx, core.Category{Name: "Transport", Type: core.Expense, UserID: userID})
	require.NoError(t, err)

	_, err = repo.InsertTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Description: "lama", Type: core.Expense, UserID: userID,
	})
	require.NoError(t, err)
	newest, err := repo.InsertTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 200}, Description: "baru", Type: core.Income,
		CategoryID: cat.ID, UserID: userID,
	})
	require.NoError(t, err)

	txs, err := repo.ListTransactions(ctx, userID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, newest.ID, txs[0].ID, "most recent entry first")
	assert.Equal(t, "Transport", txs[0].CategoryName)
	assert.Equal(t, core.UncategorizedLabel, txs[1].DisplayCategory())

	// Cross-typed category reference is permitted.
	assert.Equal(t, core.Income, txs[0].Type)
}

func TestTransactionDefaultDate(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	tx, err := repo.InsertTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Description: "tanpa tanggal", Type: core.Expense, UserID: userID,
	})
	require.NoError(t, err)

	today := time.Now().Format(dateLayout)
	assert.Equal(t, today, tx.Date.Format(dateLayout))
}

func TestOwnerScopedDelete(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	otherID, err := repo.CreateUser(ctx, "lain@example.com", "pw12345678")
	require.NoError(t, err)

	tx, err := repo.InsertTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Description: "punyaku", Type: core.Expense, UserID: userID,
	})
	require.NoError(t, err)

	assert.ErrorIs(t, repo.DeleteTransaction(ctx, otherID, tx.ID), gateway.ErrNotFound)
	require.NoError(t, repo.DeleteTransaction(ctx, userID, tx.ID))

	txs, err := repo.ListTransactions(ctx, otherID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestSyncStatusFlow(t *testing.T) {
	repo, userID := newTestRepo(t)
	ctx := context.Background()

	tx, err := repo.InsertTransaction(ctx, core.Transaction{
		Amount: core.Money{Cents: 100}, Description: "pending", Type: core.Expense, UserID: userID,
	})
	require.NoError(t, err)

	pending, err := repo.PendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{tx.ID}, pending)

	require.NoError(t, repo.MarkSynced(ctx, tx.ID))
	pending, err = repo.PendingSyncTransactions(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}
