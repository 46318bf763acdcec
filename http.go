package identity

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// ErrorStatus maps a core error to the transport status a boundary layer
// should answer with. Authentication problems (including expired and
// scope-mismatched tokens) are 401, missing role membership is 403, and
// account-state problems are 400. Anything unrecognized is a 500.
func ErrorStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}

	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return http.StatusInternalServerError
	}

	switch richErr.TextCode {
	case TextCodeUnauthenticated,
		TextCodeCredentialMismatch,
		TextCodeTokenMalformed,
		TextCodeTokenSignature,
		TextCodeTokenExpired,
		TextCodeScopeMismatch,
		TextCodeStaleResetToken,
		TextCodeUnconfirmed:
		return http.StatusUnauthorized
	case TextCodeInsufficientRole:
		return http.StatusForbidden
	case TextCodeInactiveAccount:
		return http.StatusBadRequest
	case TextCodeUserNotFound:
		return http.StatusNotFound
	case TextCodeAccountExists:
		return http.StatusConflict
	case TextCodeCacheLoadFailed, TextCodeCorruptDigest:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
