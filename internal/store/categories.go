package store

import (
	"context"
	"log/slog"
	"sync"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
	"keuangan/internal/session"
)

// Categories caches the signed-in user's categories. The cache resets to
// Unloaded on every session change so one user's rows never leak into the
// next session's view.
type Categories struct {
	table    gateway.CategoryTable
	sessions *session.Controller

	mu    sync.Mutex
	state LoadState
	items []core.Category

	unsubscribe func()
}

func NewCategories(table gateway.CategoryTable, sessions *session.Controller) *Categories {
	c := &Categories{
		table:    table,
		sessions: sessions,
	}
	c.unsubscribe = sessions.Subscribe(func(*core.Session) {
		c.mu.Lock()
		c.state = Unloaded
		c.items = nil
		c.mu.Unlock()
	})
	return c
}

// Close detaches the store from session changes.
func (c *Categories) Close() {
	c.unsubscribe()
}

func (c *Categories) State() LoadState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// List returns the cached categories, name-ordered as the gateway returns
// them. The slice is a copy.
func (c *Categories) List() []core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]core.Category, len(c.items))
	copy(out, c.items)
	return out
}

// ByType filters the cache to one transaction type, preserving order.
func (c *Categories) ByType(t core.TransactionType) []core.Category {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []core.Category
	for _, cat := range c.items {
		if cat.Type == t {
			out = append(out, cat)
		}
	}
	return out
}

// Name resolves a category id to its display name, falling back to the
// uncategorized label for unknown ids.
func (c *Categories) Name(id string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cat := range c.items {
		if cat.ID == id {
			return cat.Name
		}
	}
	return core.UncategorizedLabel
}

// Refresh refetches the full category list for the current session. A
// result that lands after the session changed is discarded.
func (c *Categories) Refresh(ctx context.Context) error {
	sess := c.sessions.Current()
	if sess == nil {
		return gateway.ErrNoSession
	}
	epoch := c.sessions.Epoch()

	c.mu.Lock()
	c.state = Loading
	c.mu.Unlock()

	items, err := c.table.ListCategories(ctx, sess.UserID)

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sessions.Epoch() != epoch {
		slog.DebugContext(ctx, "Discarding stale category fetch")
		return nil
	}
	if err != nil {
		c.state = Unloaded
		return err
	}
	c.items = items
	c.state = Loaded
	return nil
}

// Add validates and inserts a category, then refetches the list. The
// gateway is never called for input that fails validation.
func (c *Categories) Add(ctx context.Context, name string, t core.TransactionType) (core.Category, error) {
	sess := c.sessions.Current()
	if sess == nil {
		return core.Category{}, gateway.ErrNoSession
	}

	cat := core.Category{Name: name, Type: t, UserID: sess.UserID}
	if err := cat.Validate(); err != nil {
		return core.Category{}, err
	}

	inserted, err := c.table.InsertCategory(ctx, cat)
	if err != nil {
		return core.Category{}, err
	}
	if err := c.Refresh(ctx); err != nil {
		return inserted, err
	}
	return inserted, nil
}

// Delete removes a category by id. A category still referenced by
// transactions fails with gateway.ErrConflict and the cache stays as it
// was.
func (c *Categories) Delete(ctx context.Context, id string) error {
	sess := c.sessions.Current()
	if sess == nil {
		return gateway.ErrNoSession
	}
	if err := c.table.DeleteCategory(ctx, sess.UserID, id); err != nil {
		return err
	}
	return c.Refresh(ctx)
}
