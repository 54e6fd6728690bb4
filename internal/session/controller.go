// Package session tracks the authenticated session as a reactive store:
// dependents subscribe to sign-in/sign-out changes and must unsubscribe on
// teardown. The controller owns the session value; nothing else mutates it.
package session

import (
	"context"
	"log/slog"
	"sync"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
)

// Handler is invoked on every session change. The session is nil after a
// sign-out. Handlers run synchronously under the controller's lock order,
// so they must not call back into the controller.
type Handler func(sess *core.Session)

type Controller struct {
	auth gateway.Authenticator

	mu      sync.Mutex
	current *core.Session
	epoch   uint64
	nextID  int
	subs    map[int]Handler
}

func NewController(auth gateway.Authenticator) *Controller {
	return &Controller{
		auth: auth,
		subs: make(map[int]Handler),
	}
}

// Current returns the active session, or nil when signed out.
func (c *Controller) Current() *core.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Epoch increases on every session change. Fetches capture the epoch when
// they start; a result arriving under a different epoch belongs to a stale
// session's view and must be discarded.
func (c *Controller) Epoch() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.epoch
}

// Subscribe registers a change handler and returns its unsubscribe
// function. Unsubscribing is the caller's teardown responsibility.
func (c *Controller) Subscribe(h Handler) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = h
	c.mu.Unlock()

	return func() {
		c.mu.Lock()
		delete(c.subs, id)
		c.mu.Unlock()
	}
}

// SignIn authenticates against the gateway and publishes the new session.
func (c *Controller) SignIn(ctx context.Context, email, password string) (core.Session, error) {
	sess, err := c.auth.SignIn(ctx, email, password)
	if err != nil {
		return core.Session{}, err
	}
	c.set(&sess)
	slog.InfoContext(ctx, "Signed in", "user_id", sess.UserID)
	return sess, nil
}

// SignOut invalidates the gateway session and publishes the change. The
// local state clears even when the gateway call fails; the stale token can
// only expire server-side.
func (c *Controller) SignOut(ctx context.Context) error {
	c.mu.Lock()
	var token string
	if c.current != nil {
		token = c.current.Token
	}
	c.mu.Unlock()

	var err error
	if token != "" {
		err = c.auth.SignOut(ctx, token)
	}
	c.set(nil)
	slog.InfoContext(ctx, "Signed out")
	return err
}

// Resolve validates a token against the gateway and adopts the session as
// current when it differs from the active one. Returns gateway.ErrNoSession
// for unknown or expired tokens.
func (c *Controller) Resolve(ctx context.Context, token string) (core.Session, error) {
	sess, err := c.auth.Session(ctx, token)
	if err != nil {
		return core.Session{}, err
	}

	c.mu.Lock()
	adopted := c.current == nil || c.current.Token != sess.Token
	c.mu.Unlock()
	if adopted {
		c.set(&sess)
	}
	return sess, nil
}

func (c *Controller) set(sess *core.Session) {
	c.mu.Lock()
	c.current = sess
	c.epoch++
	handlers := make([]Handler, 0, len(c.subs))
	for _, h := range c.subs {
		handlers = append(handlers, h)
	}
	c.mu.Unlock()

	for _, h := range handlers {
		h(sess)
	}
}
