package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"keuangan/internal/core"
	"keuangan/internal/gateway"
	"keuangan/internal/gateway/memory"
)

func newTestController(t *testing.T) *Controller {
	t.Helper()
	store := memory.New(0)
	_, err := store.AddUser("budi@example.com", "rahasia123")
	require.NoError(t, err)
	return NewController(store)
}

func TestSignInPublishesSession(t *testing.T) {
	ctrl := newTestController(t)
	ctx := context.Background()

	var seen []*core.Session
	unsubscribe := ctrl.Subscribe(func(sess *core.Session) {
		seen = append(seen, sess)
	})
	defer unsubscribe()

	require.Nil(t, ctrl.Current())

	sess, err := ctrl.SignIn(ctx, "budi@example.com", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, "budi@example.com", sess.Email)

	require.NotNil(t, ctrl.Current())
	assert.Equal(t, sess.Token, ctrl.Current().Token)
	require.Len(t, seen, 1)
	assert.Equal(t, sess.Token, seen[0].Token)
}

func TestSignInFailureLeavesStateUnchanged(t *testing.T) {
	ctrl := newTestController(t)
	ctx := context.Background()

	before := ctrl.Epoch()
	_, err := ctrl.SignIn(ctx, "budi@example.com", "salah")
	require.ErrorIs(t, err, gateway.ErrInvalidCredentials)

	assert.Nil(t, ctrl.Current())
	assert.Equal(t, before, ctrl.Epoch())
}

func TestSignOutClearsSessionAndInvalidatesToken(t *testing.T) {
	ctrl := newTestController(t)
	ctx := context.Background()

	sess, err := ctrl.SignIn(ctx, "budi@example.com", "rahasia123")
	require.NoError(t, err)

	var lastSeen *core.Session = &sess
	unsubscribe := ctrl.Subscribe(func(s *core.Session) { lastSeen = s })
	defer unsubscribe()

	require.NoError(t, ctrl.SignOut(ctx))
	assert.Nil(t, ctrl.Current())
	assert.Nil(t, lastSeen)

	_, err = ctrl.Resolve(ctx, sess.Token)
	assert.ErrorIs(t, err, gateway.ErrNoSession)
}

func TestEpochAdvancesOnEveryChange(t *testing.T) {
	ctrl := newTestController(t)
	ctx := context.Background()

	start := ctrl.Epoch()

	_, err := ctrl.SignIn(ctx, "budi@example.com", "rahasia123")
	require.NoError(t, err)
	afterIn := ctrl.Epoch()
	assert.Greater(t, afterIn, start)

	require.NoError(t, ctrl.SignOut(ctx))
	assert.Greater(t, ctrl.Epoch(), afterIn)
}

func TestResolveAdoptsValidToken(t *testing.T) {
	ctrl := newTestController(t)
	ctx := context.Background()

	sess, err := ctrl.SignIn(ctx, "budi@example.com", "rahasia123")
	require.NoError(t, err)

	// A second controller sharing the gateway resolves the same token,
	// the way a restarted process re-adopts a cookie.
	other := NewController(ctrl.auth)
	resolved, err := other.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, sess.UserID, resolved.UserID)
	require.NotNil(t, other.Current())
	assert.Equal(t, sess.Token, other.Current().Token)
}

func TestResolveSameTokenDoesNotAdvanceEpoch(t *testing.T) {
	ctrl := newTestController(t)
	ctx := context.Background()

	sess, err := ctrl.SignIn(ctx, "budi@example.com", "rahasia123")
	require.NoError(t, err)

	before := ctrl.Epoch()
	_, err = ctrl.Resolve(ctx, sess.Token)
	require.NoError(t, err)
	assert.Equal(t, before, ctrl.Epoch())
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	ctrl := newTestController(t)
	ctx := context.Background()

	calls := 0
	unsubscribe := ctrl.Subscribe(func(*core.Session) { calls++ })

	_, err := ctrl.SignIn(ctx, "budi@example.com", "rahasia123")
	require.NoError(t, err)
	assert.Equal(t, 1, calls)

	unsubscribe()
	require.NoError(t, ctrl.SignOut(ctx))
	assert.Equal(t, 1, calls)
}
