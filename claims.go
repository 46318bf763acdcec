package identity

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Scope tags a token with the single operation family allowed to accept it.
type Scope string

const (
	// ScopeAccess marks bearer tokens minted at login
	ScopeAccess Scope = "access_token"
	// ScopeEmailConfirm marks email-confirmation tokens (24h default TTL)
	ScopeEmailConfirm Scope = "email_confirm"
	// ScopePasswordReset marks password-reset tokens (1h default TTL)
	ScopePasswordReset Scope = "password_reset"
)

// IsValid reports whether the scope is one the verifier recognizes.
func (s Scope) IsValid() bool {
	switch s {
	case ScopeAccess, ScopeEmailConfirm, ScopePasswordReset:
		return true
	default:
		return false
	}
}

// Claims is the signed payload of every token this core issues. The
// subject is the identity's email. CredentialVersion is set on reset and
// access tokens so credential changes retire outstanding tokens.
type Claims struct {
	jwt.RegisteredClaims
	TokenScope        Scope `json:"scope,omitempty"`
	CredentialVersion int64 `json:"cv,omitempty"`
}

// Subject returns the subject claim
func (c *Claims) Subject() string {
	return c.RegisteredClaims.Subject
}

// Scope returns the scope the token was minted with
func (c *Claims) Scope() Scope {
	return c.TokenScope
}

// Expires returns the expiration time
func (c *Claims) Expires() time.Time {
	if c.RegisteredClaims.ExpiresAt != nil {
		return c.RegisteredClaims.ExpiresAt.Time
	}
	return time.Time{}
}

// IssuedAt returns the issued at time
func (c *Claims) IssuedAt() time.Time {
	if c.RegisteredClaims.IssuedAt != nil {
		return c.RegisteredClaims.IssuedAt.Time
	}
	return time.Time{}
}
