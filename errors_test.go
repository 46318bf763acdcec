package identity_test

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	identity "github.com/photoflow/go-identity"
	"github.com/stretchr/testify/assert"
)

func TestHasTextCode(t *testing.T) {
	t.Run("matches the sentinel", func(t *testing.T) {
		assert.True(t, identity.HasTextCode(identity.ErrTokenExpired, identity.TextCodeTokenExpired))
		assert.False(t, identity.HasTextCode(identity.ErrTokenExpired, identity.TextCodeTokenMalformed))
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("verifying session: %w", identity.ErrTokenExpired)
		assert.True(t, identity.HasTextCode(wrapped, identity.TextCodeTokenExpired))
	})

	t.Run("nil and plain errors", func(t *testing.T) {
		assert.False(t, identity.HasTextCode(nil, identity.TextCodeTokenExpired))
		assert.False(t, identity.HasTextCode(errors.New("boom"), identity.TextCodeTokenExpired))
	})
}

func TestIsTokenError(t *testing.T) {
	tokenErrs := []error{
		identity.ErrTokenMalformed,
		identity.ErrTokenSignatureInvalid,
		identity.ErrTokenExpired,
		identity.ErrTokenScopeMismatch,
	}
	for _, err := range tokenErrs {
		assert.True(t, identity.IsTokenError(err), err.Error())
	}

	assert.False(t, identity.IsTokenError(identity.ErrCredentialMismatch))
	assert.False(t, identity.IsTokenError(identity.ErrUserNotFound))
	assert.False(t, identity.IsTokenError(nil))
}

func TestErrorStatus(t *testing.T) {
	cases := []struct {
		err    error
		status int
	}{
		{nil, http.StatusOK},
		{identity.ErrUnauthenticated, http.StatusUnauthorized},
		{identity.ErrCredentialMismatch, http.StatusUnauthorized},
		{identity.ErrTokenExpired, http.StatusUnauthorized},
		{identity.ErrTokenScopeMismatch, http.StatusUnauthorized},
		{identity.ErrStaleResetToken, http.StatusUnauthorized},
		{identity.ErrUnconfirmedAccount, http.StatusUnauthorized},
		{identity.ErrInsufficientRole, http.StatusForbidden},
		{identity.ErrInactiveAccount, http.StatusBadRequest},
		{identity.ErrUserNotFound, http.StatusNotFound},
		{identity.ErrAccountExists, http.StatusConflict},
		{identity.ErrCacheLoadFailed, http.StatusInternalServerError},
		{identity.ErrCorruptDigest, http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
		{goerrors.New("odd", goerrors.CategoryInternal), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		name := "ok"
		if tc.err != nil {
			name = tc.err.Error()
		}
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.status, identity.ErrorStatus(tc.err))
		})
	}
}
