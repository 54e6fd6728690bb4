package store

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
	"keuangan/internal/gateway/memory"
	"keuangan/internal/session"
)

// countingGateway wraps the memory gateway to observe and stall calls.
type countingGateway struct {
	*memory.Store

	mu          sync.Mutex
	listTxCalls int
	insertCalls int

	// beforeListTx runs before list calls are forwarded, outside any lock.
	beforeListTx func()
}

func (g *countingGateway) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	g.mu.Lock()
	g.listTxCalls++
	hook := g.beforeListTx
	g.mu.Unlock()
	if hook != nil {
		hook()
	}
	return g.Store.ListTransactions(ctx, userID)
}

func (g *countingGateway) InsertCategory(ctx context.Context, c core.Category) (core.Category, error) {
	g.mu.Lock()
	g.insertCalls++
	g.mu.Unlock()
	return g.Store.InsertCategory(ctx, c)
}

func (g *countingGateway) InsertTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	g.mu.Lock()
	g.insertCalls++
	g.mu.Unlock()
	return g.Store.InsertTransaction(ctx, t)
}

func (g *countingGateway) inserts() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.insertCalls
}

func newTestStores(t *testing.T) (*countingGateway, *session.Controller, *Categories, *Transactions) {
	t.Helper()
	gw := &countingGateway{Store: memory.New(0)}
	_, err := gw.AddUser("budi@example.com", "rahasia123")
	require.NoError(t, err)

	sessions := session.NewController(gw)
	_, err = sessions.SignIn(context.Background(), "budi@example.com", "rahasia123")
	require.NoError(t, err)

	cats := NewCategories(gw, sessions)
	txs := NewTransactions(gw, sessions)
	t.Cleanup(cats.Close)
	t.Cleanup(txs.Close)
	return gw, sessions, cats, txs
}

func TestLoadStateProgression(t *testing.T) {
	_, _, cats, txs := newTestStores(t)
	ctx := context.Background()

	assert.Equal(t, Unloaded, cats.State())
	assert.Equal(t, Unloaded, txs.State())

	require.NoError(t, cats.Refresh(ctx))
	require.NoError(t, txs.Refresh(ctx))
	assert.Equal(t, Loaded, cats.State())
	assert.Equal(t, Loaded, txs.State())
	assert.Empty(t, cats.List())
	assert.Empty(t, txs.List())
}

func TestAddCategoryValidationSkipsGateway(t *testing.T) {
	gw, _, cats, _ := newTestStores(t)
	ctx := context.Background()
	require.NoError(t, cats.Refresh(ctx))

	_, err := cats.Add(ctx, "", core.Expense)
	require.ErrorIs(t, err, core.ErrEmptyName)
	_, err = cats.Add(ctx, "Makan", "hadiah")
	require.ErrorIs(t, err, core.ErrInvalidType)

	assert.Equal(t, 0, gw.inserts())
	assert.Empty(t, cats.List())
}

func TestAddTransactionValidationSkipsGateway(t *testing.T) {
	gw, _, cats, txs := newTestStores(t)
	ctx := context.Background()

	cat, err := cats.Add(ctx, "Gaji", core.Income)
	require.NoError(t, err)
	before := gw.inserts()

	_, err = txs.Add(ctx, core.Transaction{
		Amount:      core.Money{Cents: -500},
		Description: "Gaji bulanan",
		Type:        core.Income,
		CategoryID:  cat.ID,
	})
	require.ErrorIs(t, err, core.ErrInvalidAmount)

	_, err = txs.Add(ctx, core.Transaction{
		Amount:     core.Money{Cents: 500000_00},
		Type:       core.Income,
		CategoryID: cat.ID,
	})
	require.ErrorIs(t, err, core.ErrEmptyDescription)

	assert.Equal(t, before, gw.inserts())
}

func TestAddRefreshesAndOrdersNewestFirst(t *testing.T) {
	_, _, cats, txs := newTestStores(t)
	ctx := context.Background()

	cat, err := cats.Add(ctx, "Makan", core.Expense)
	require.NoError(t, err)

	_, err = txs.Add(ctx, core.Transaction{
		Amount:      core.Money{Cents: 25000_00},
		Description: "Makan siang",
		Type:        core.Expense,
		CategoryID:  cat.ID,
	})
	require.NoError(t, err)
	_, err = txs.Add(ctx, core.Transaction{
		Amount:      core.Money{Cents: 15000_00},
		Description: "Kopi",
		Type:        core.Expense,
		CategoryID:  cat.ID,
	})
	require.NoError(t, err)

	list := txs.List()
	require.Len(t, list, 2)
	assert.Equal(t, "Kopi", list[0].Description)
	assert.Equal(t, "Makan siang", list[1].Description)
	assert.Equal(t, "Makan", list[0].CategoryName)
	assert.Equal(t, Loaded, txs.State())
}

func TestDeleteReferencedCategoryLeavesCacheUnchanged(t *testing.T) {
	_, _, cats, txs := newTestStores(t)
	ctx := context.Background()

	cat, err := cats.Add(ctx, "Transport", core.Expense)
	require.NoError(t, err)
	_, err = txs.Add(ctx, core.Transaction{
		Amount:      core.Money{Cents: 10000_00},
		Description: "Bensin",
		Type:        core.Expense,
		CategoryID:  cat.ID,
	})
	require.NoError(t, err)

	before := cats.List()
	err = cats.Delete(ctx, cat.ID)
	require.ErrorIs(t, err, gateway.ErrConflict)
	assert.Equal(t, before, cats.List())

	require.NoError(t, txs.Delete(ctx, txs.List()[0].ID))
	require.NoError(t, cats.Delete(ctx, cat.ID))
	assert.Empty(t, cats.List())
}

func TestByTypeFiltersCache(t *testing.T) {
	_, _, cats, _ := newTestStores(t)
	ctx := context.Background()

	_, err := cats.Add(ctx, "Gaji", core.Income)
	require.NoError(t, err)
	_, err = cats.Add(ctx, "Makan", core.Expense)
	require.NoError(t, err)
	_, err = cats.Add(ctx, "Bonus", core.Income)
	require.NoError(t, err)

	income := cats.ByType(core.Income)
	require.Len(t, income, 2)
	assert.Equal(t, "Bonus", income[0].Name)
	assert.Equal(t, "Gaji", income[1].Name)
	require.Len(t, cats.ByType(core.Expense), 1)
}

func TestSummaryAggregatesCache(t *testing.T) {
	_, _, cats, txs := newTestStores(t)
	ctx := context.Background()

	gaji, err := cats.Add(ctx, "Gaji", core.Income)
	require.NoError(t, err)
	makan, err := cats.Add(ctx, "Makan", core.Expense)
	require.NoError(t, err)

	_, err = txs.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 500000_00}, Description: "Gaji", Type: core.Income, CategoryID: gaji.ID,
	})
	require.NoError(t, err)
	_, err = txs.Add(ctx, core.Transaction{
		Amount: core.Money{Cents: 200000_00}, Description: "Belanja", Type: core.Expense, CategoryID: makan.ID,
	})
	require.NoError(t, err)

	sum := txs.Summary()
	assert.Equal(t, int64(500000_00), sum.Income.Cents)
	assert.Equal(t, int64(200000_00), sum.Expense.Cents)
	assert.Equal(t, int64(300000_00), sum.Balance.Cents)
}

func TestSignOutResetsCaches(t *testing.T) {
	_, sessions, cats, txs := newTestStores(t)
	ctx := context.Background()

	_, err := cats.Add(ctx, "Gaji", core.Income)
	require.NoError(t, err)
	require.NoError(t, txs.Refresh(ctx))

	require.NoError(t, sessions.SignOut(ctx))
	assert.Equal(t, Unloaded, cats.State())
	assert.Equal(t, Unloaded, txs.State())
	assert.Empty(t, cats.List())
	assert.Empty(t, txs.List())

	require.ErrorIs(t, cats.Refresh(ctx), gateway.ErrNoSession)
	_, err = txs.Add(ctx, core.Transaction{Amount: core.Money{Cents: 100}, Description: "x", Type: core.Expense})
	require.ErrorIs(t, err, gateway.ErrNoSession)
}

func TestInFlightFetchDiscardedAfterSignOut(t *testing.T) {
	gw, sessions, _, txs := newTestStores(t)
	ctx := context.Background()

	cat := core.Category{Name: "Makan", Type: core.Expense, UserID: sessions.Current().UserID}
	inserted, err := gw.Store.InsertCategory(ctx, cat)
	require.NoError(t, err)
	_, err = gw.Store.InsertTransaction(ctx, core.Transaction{
		Amount:      core.Money{Cents: 25000_00},
		Description: "Makan siang",
		Type:        core.Expense,
		CategoryID:  inserted.ID,
		UserID:      sessions.Current().UserID,
	})
	require.NoError(t, err)

	// Sign out while the fetch is between gateway call and installation.
	started := make(chan struct{})
	proceed := make(chan struct{})
	gw.beforeListTx = func() {
		close(started)
		<-proceed
	}

	done := make(chan error, 1)
	go func() { done <- txs.Refresh(ctx) }()

	<-started
	require.NoError(t, sessions.SignOut(ctx))
	close(proceed)
	require.NoError(t, <-done)

	assert.Equal(t, Unloaded, txs.State())
	assert.Empty(t, txs.List())
}
