package identity_test

import (
	"context"
	"errors"
	"testing"
	"time"

	identity "github.com/photoflow/go-identity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T, store identity.IdentityStore) (*identity.Service, *time.Time) {
	t.Helper()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	svc, err := identity.NewService(store, newTestConfig())
	require.NoError(t, err)

	svc.WithLogger(quietLogger{}).WithClock(func() time.Time { return now })
	t.Cleanup(func() { _ = svc.Close() })

	return svc, &now
}

func accessToken(t *testing.T, svc *identity.Service, email string) string {
	t.Helper()

	token, err := svc.Tokens().Issue(email, identity.ScopeAccess, time.Hour)
	require.NoError(t, err)
	return token
}

func TestGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("authenticated active identity passes an open guard", func(t *testing.T) {
		store := newFakeStore(newTestUser("a@b.com"))
		svc, _ := newTestService(t, store)

		snap, err := svc.Guard()(ctx, accessToken(t, svc, "a@b.com"))
		require.NoError(t, err)
		assert.Equal(t, "a@b.com", snap.Email)
	})

	t.Run("verifier failure is unauthenticated", func(t *testing.T) {
		store := newFakeStore(newTestUser("a@b.com"))
		svc, now := newTestService(t, store)

		token := accessToken(t, svc, "a@b.com")
		*now = now.Add(2 * time.Hour)

		_, err := svc.Guard()(ctx, token)
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUnauthenticated))
	})

	t.Run("non-access scope is unauthenticated", func(t *testing.T) {
		store := newFakeStore(newTestUser("a@b.com"))
		svc, _ := newTestService(t, store)

		token, err := svc.Tokens().Issue("a@b.com", identity.ScopeEmailConfirm, time.Hour)
		require.NoError(t, err)

		_, err = svc.Guard()(ctx, token)
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUnauthenticated))
	})

	t.Run("unknown subject is unauthenticated", func(t *testing.T) {
		store := newFakeStore()
		svc, _ := newTestService(t, store)

		_, err := svc.Guard()(ctx, accessToken(t, svc, "ghost@b.com"))
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUnauthenticated))
	})

	t.Run("inactive identity fails regardless of role", func(t *testing.T) {
		admin := newTestUser("admin@b.com")
		admin.Role = identity.RoleAdmin
		admin.Active = false

		store := newFakeStore(admin)
		svc, _ := newTestService(t, store)

		_, err := svc.Guard()(ctx, accessToken(t, svc, "admin@b.com"))
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeInactiveAccount))
	})

	t.Run("role outside the required set is rejected", func(t *testing.T) {
		moderator := newTestUser("mod@b.com")
		moderator.Role = identity.RoleModerator

		store := newFakeStore(moderator)
		svc, _ := newTestService(t, store)

		_, err := svc.Guard(identity.RoleAdmin)(ctx, accessToken(t, svc, "mod@b.com"))
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeInsufficientRole))
	})

	t.Run("role membership passes", func(t *testing.T) {
		moderator := newTestUser("mod@b.com")
		moderator.Role = identity.RoleModerator

		store := newFakeStore(moderator)
		svc, _ := newTestService(t, store)

		snap, err := svc.Guard(identity.RoleAdmin, identity.RoleModerator)(ctx, accessToken(t, svc, "mod@b.com"))
		require.NoError(t, err)
		assert.Equal(t, identity.RoleModerator, snap.Role)
	})

	t.Run("authentication failure never reveals account or role state", func(t *testing.T) {
		// inactive moderator with an expired token: the only thing the
		// caller may learn is that authentication failed
		moderator := newTestUser("mod@b.com")
		moderator.Role = identity.RoleModerator
		moderator.Active = false

		store := newFakeStore(moderator)
		svc, now := newTestService(t, store)

		token := accessToken(t, svc, "mod@b.com")
		*now = now.Add(2 * time.Hour)

		_, err := svc.Guard(identity.RoleAdmin)(ctx, token)
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUnauthenticated))
		assert.False(t, identity.HasTextCode(err, identity.TextCodeInactiveAccount))
		assert.False(t, identity.HasTextCode(err, identity.TextCodeInsufficientRole))
		assert.NotContains(t, err.Error(), "role")
	})

	t.Run("backing store outage is unauthenticated, not a 500", func(t *testing.T) {
		store := newFakeStore(newTestUser("a@b.com"))
		svc, _ := newTestService(t, store)

		token := accessToken(t, svc, "a@b.com")
		store.loadErr = errors.New("connection refused")

		_, err := svc.Guard()(ctx, token)
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUnauthenticated))
		assert.False(t, identity.HasTextCode(err, identity.TextCodeCacheLoadFailed))
	})

	t.Run("stale credential version is unauthenticated", func(t *testing.T) {
		user := newTestUser("a@b.com")
		store := newFakeStore(user)
		svc, _ := newTestService(t, store)

		token, err := svc.Login(ctx, "a@b.com", "password123")
		require.NoError(t, err)

		// password change bumps the stored version
		newHash := testPasswordHash()
		_, err = store.Patch(ctx, user.ID, identity.Patch{PasswordHash: &newHash})
		require.NoError(t, err)
		require.NoError(t, svc.Cache().Invalidate(ctx, "a@b.com"))

		_, err = svc.Guard()(ctx, token)
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUnauthenticated))
	})
}

func TestConfirmedGuard(t *testing.T) {
	ctx := context.Background()

	t.Run("unconfirmed identity is rejected", func(t *testing.T) {
		user := newTestUser("a@b.com")
		user.Confirmed = false

		store := newFakeStore(user)
		svc, _ := newTestService(t, store)

		_, err := svc.ConfirmedGuard()(ctx, accessToken(t, svc, "a@b.com"))
		require.Error(t, err)
		assert.True(t, identity.HasTextCode(err, identity.TextCodeUnconfirmed))
	})

	t.Run("general guard does not require confirmation", func(t *testing.T) {
		user := newTestUser("a@b.com")
		user.Confirmed = false

		store := newFakeStore(user)
		svc, _ := newTestService(t, store)

		_, err := svc.Guard()(ctx, accessToken(t, svc, "a@b.com"))
		assert.NoError(t, err)
	})
}
