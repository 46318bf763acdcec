package identity

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// HSTokenService implements TokenService with an HMAC-SHA256 signature.
// The signing key and algorithm are fixed at construction and shared for
// the life of the process.
type HSTokenService struct {
	signingKey []byte
	issuer     string
	logger     Logger
	now        func() time.Time
}

// NewTokenService creates a new TokenService instance
func NewTokenService(signingKey []byte, issuer string, logger Logger) *HSTokenService {
	if logger == nil {
		logger = defLogger{}
	}
	return &HSTokenService{
		signingKey: signingKey,
		issuer:     issuer,
		logger:     logger,
		now:        time.Now,
	}
}

// WithClock injects a custom clock (useful for tests).
func (ts *HSTokenService) WithClock(clock func() time.Time) *HSTokenService {
	if clock != nil {
		ts.now = clock
	}
	return ts
}

// Issue mints a token for the subject, valid for the given scope until
// now+ttl. Claims are immutable once signed.
func (ts *HSTokenService) Issue(subject string, scope Scope, ttl time.Duration) (string, error) {
	if subject == "" {
		return "", goerrors.New("token subject is required", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}
	if !scope.IsValid() {
		return "", goerrors.New("unknown token scope", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"scope": string(scope)})
	}
	if ttl <= 0 {
		return "", goerrors.New("token TTL must be positive", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest)
	}

	now := ts.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    ts.issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		TokenScope: scope,
	}

	return ts.SignClaims(claims)
}

// SignClaims signs arbitrary claims using the configured signing key.
// Callers that need extra claims (e.g. the credential version on reset
// tokens) build Claims themselves and sign here.
func (ts *HSTokenService) SignClaims(claims *Claims) (string, error) {
	if claims == nil {
		return "", goerrors.New("claims must not be nil", goerrors.CategoryInternal)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signedString, err := token.SignedString(ts.signingKey)
	if err != nil {
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to sign token")
	}

	return signedString, nil
}

// Verify parses the token, checks the signature and expiry, and requires
// the claims scope to exactly match expected. Failures stay distinct:
// ErrTokenMalformed, ErrTokenSignatureInvalid, ErrTokenExpired, and
// ErrTokenScopeMismatch are never collapsed, since a login caller and a
// reset caller react differently.
func (ts *HSTokenService) Verify(tokenString string, expected Scope) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			ts.logger.Error("TokenService verify encountered unexpected signing method", "alg", t.Header["alg"])
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ts.signingKey, nil
	}, jwt.WithTimeFunc(ts.now), jwt.WithExpirationRequired())

	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
			return nil, ErrTokenSignatureInvalid
		default:
			return nil, ErrTokenMalformed
		}
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		ts.logger.Error("TokenService verify could not decode claims")
		return nil, ErrTokenMalformed
	}

	// The parser leaves a small leeway window around expiry; the contract
	// here is strict: a token presented exactly at expiry is expired.
	if claims.RegisteredClaims.ExpiresAt == nil || !ts.now().Before(claims.RegisteredClaims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	if claims.RegisteredClaims.Subject == "" {
		return nil, ErrTokenMalformed
	}

	if claims.TokenScope != expected {
		return nil, ErrTokenScopeMismatch
	}

	return claims, nil
}
