package store

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
	"keuangan/internal/session"
)

// Transactions caches the signed-in user's transactions, newest first.
type Transactions struct {
	table    gateway.TransactionTable
	sessions *session.Controller

	mu    sync.Mutex
	state LoadState
	items []core.Transaction

	unsubscribe func()
}

func NewTransactions(table gateway.TransactionTable, sessions *session.Controller) *Transactions {
	t := &Transactions{
		table:    table,
		sessions: sessions,
	}
	t.unsubscribe = sessions.Subscribe(func(*core.Session) {
		t.mu.Lock()
		t.state = Unloaded
		t.items = nil
		t.mu.Unlock()
	})
	return t
}

func (t *Transactions) Close() {
	t.unsubscribe()
}

func (t *Transactions) State() LoadState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// List returns the cached transactions newest first. The slice is a copy.
func (t *Transactions) List() []core.Transaction {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]core.Transaction, len(t.items))
	copy(out, t.items)
	return out
}

// Summary aggregates the cached transactions into income, expense and
// balance totals.
func (t *Transactions) Summary() core.Summary {
	t.mu.Lock()
	defer t.mu.Unlock()
	return core.ComputeSummary(t.items)
}

// Refresh refetches the full transaction list for the current session. A
// result that lands after the session changed is discarded.
func (t *Transactions) Refresh(ctx context.Context) error {
	sess := t.sessions.Current()
	if sess == nil {
		return gateway.ErrNoSession
	}
	epoch := t.sessions.Epoch()

	t.mu.Lock()
	t.state = Loading
	t.mu.Unlock()

	items, err := t.table.ListTransactions(ctx, sess.UserID)

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.sessions.Epoch() != epoch {
		slog.DebugContext(ctx, "Discarding stale transaction fetch")
		return nil
	}
	if err != nil {
		t.state = Unloaded
		return err
	}
	t.items = items
	t.state = Loaded
	return nil
}

// Add validates and inserts a transaction, then refetches the list. An
// empty date defaults to today. The gateway is never called for input that
// fails validation.
func (t *Transactions) Add(ctx context.Context, tx core.Transaction) (core.Transaction, error) {
	sess := t.sessions.Current()
	if sess == nil {
		return core.Transaction{}, gateway.ErrNoSession
	}

	tx.UserID = sess.UserID
	if tx.Date.IsZero() {
		tx.Date = time.Now()
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	inserted, err := t.table.InsertTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, err
	}
	slog.InfoContext(ctx, "Transaction added",
		"transaction_id", inserted.ID,
		"type", string(inserted.Type),
		"amount_cents", inserted.Amount.Cents)
	if err := t.Refresh(ctx); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// Delete removes a transaction by id, then refetches the list.
func (t *Transactions) Delete(ctx context.Context, id string) error {
	sess := t.sessions.Current()
	if sess == nil {
		return gateway.ErrNoSession
	}
	if err := t.table.DeleteTransaction(ctx, sess.UserID, id); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Transaction deleted", "transaction_id", id)
	return t.Refresh(ctx)
}
