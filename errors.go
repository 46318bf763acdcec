package identity

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeCredentialMismatch = "CREDENTIAL_MISMATCH"
	TextCodeCorruptDigest      = "CORRUPT_DIGEST"
	TextCodeTokenMalformed     = "TOKEN_MALFORMED"
	TextCodeTokenSignature     = "TOKEN_SIGNATURE_INVALID"
	TextCodeTokenExpired       = "TOKEN_EXPIRED"
	TextCodeScopeMismatch      = "TOKEN_SCOPE_MISMATCH"
	TextCodeUserNotFound       = "USER_NOT_FOUND"
	TextCodeInactiveAccount    = "INACTIVE_ACCOUNT"
	TextCodeUnconfirmed        = "UNCONFIRMED_ACCOUNT"
	TextCodeInsufficientRole   = "INSUFFICIENT_ROLE"
	TextCodeStaleResetToken    = "STALE_RESET_TOKEN"
	TextCodeCacheLoadFailed    = "CACHE_LOAD_FAILED"
	TextCodeUnauthenticated    = "UNAUTHENTICATED"
	TextCodeAccountExists      = "ACCOUNT_EXISTS"
)

// ErrCredentialMismatch is returned when a password does not match the
// stored digest. Lookup misses during login collapse into this error so
// responses never reveal whether the email exists.
var ErrCredentialMismatch = goerrors.New("the credentials provided are invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeCredentialMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrCorruptDigest is returned when a stored credential digest cannot be
// parsed. Distinct from a mismatch: the record needs repair.
var ErrCorruptDigest = goerrors.New("stored credential digest is corrupt", goerrors.CategoryInternal).
	WithTextCode(TextCodeCorruptDigest).
	WithCode(goerrors.CodeInternal)

// ErrTokenMalformed is returned for tokens that cannot be parsed.
var ErrTokenMalformed = goerrors.New("token is malformed", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenMalformed).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenSignatureInvalid is returned when the token signature does not
// verify against the configured signing key.
var ErrTokenSignatureInvalid = goerrors.New("token signature is invalid", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenSignature).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenExpired is returned for tokens at or past their expiry,
// regardless of any other claim validity.
var ErrTokenExpired = goerrors.New("token is expired", goerrors.CategoryAuth).
	WithTextCode(TextCodeTokenExpired).
	WithCode(goerrors.CodeUnauthorized)

// ErrTokenScopeMismatch is returned when a token is presented to an
// operation it was not minted for.
var ErrTokenScopeMismatch = goerrors.New("token scope does not match the requested operation", goerrors.CategoryAuth).
	WithTextCode(TextCodeScopeMismatch).
	WithCode(goerrors.CodeUnauthorized)

// ErrUserNotFound is returned when no identity matches the given key.
var ErrUserNotFound = goerrors.New("user not found", goerrors.CategoryNotFound).
	WithTextCode(TextCodeUserNotFound).
	WithCode(goerrors.CodeNotFound)

// ErrInactiveAccount is returned when the resolved identity has been
// deactivated.
var ErrInactiveAccount = goerrors.New("account is not active", goerrors.CategoryAuth).
	WithTextCode(TextCodeInactiveAccount).
	WithCode(goerrors.CodeBadRequest)

// ErrUnconfirmedAccount is returned by the confirmed-email guard and by
// login when the identity has not confirmed its email address.
var ErrUnconfirmedAccount = goerrors.New("email address has not been confirmed", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnconfirmed).
	WithCode(goerrors.CodeUnauthorized)

// ErrInsufficientRole is returned when an authenticated, active identity
// lacks membership in the guard's required role set.
var ErrInsufficientRole = goerrors.New("not enough permissions", goerrors.CategoryAuthz).
	WithTextCode(TextCodeInsufficientRole).
	WithCode(goerrors.CodeForbidden)

// ErrStaleResetToken is returned when a password-reset token is replayed
// after the credential it was minted against has already changed.
var ErrStaleResetToken = goerrors.New("password reset token is stale", goerrors.CategoryAuth).
	WithTextCode(TextCodeStaleResetToken).
	WithCode(goerrors.CodeUnauthorized)

// ErrCacheLoadFailed is returned when the backing identity store cannot
// be reached during a cache load. Guards convert it to Unauthenticated
// so callers do not learn about backing-store health.
var ErrCacheLoadFailed = goerrors.New("identity cache load failed", goerrors.CategoryInternal).
	WithTextCode(TextCodeCacheLoadFailed).
	WithCode(goerrors.CodeInternal)

// ErrUnauthenticated is the single failure guards expose for any
// authentication problem, before account state is ever inspected.
var ErrUnauthenticated = goerrors.New("could not validate credentials", goerrors.CategoryAuth).
	WithTextCode(TextCodeUnauthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrAccountExists is returned when registration hits a duplicate email.
var ErrAccountExists = goerrors.New("an account with this email already exists", goerrors.CategoryConflict).
	WithTextCode(TextCodeAccountExists).
	WithCode(goerrors.CodeConflict)

// HasTextCode reports whether err carries the given structured text code
// anywhere in its chain.
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}

	return richErr.TextCode == code
}

// IsTokenError reports whether err is one of the verifier failures.
func IsTokenError(err error) bool {
	return HasTextCode(err, TextCodeTokenMalformed) ||
		HasTextCode(err, TextCodeTokenSignature) ||
		HasTextCode(err, TextCodeTokenExpired) ||
		HasTextCode(err, TextCodeScopeMismatch)
}
