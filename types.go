package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// IdentityStore is the backing store this core reads identities from and
// patches narrow fields on. It owns the persistence schema; the core
// never sees more of it than this.
type IdentityStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	FindByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, user *User) (*User, error)
	Patch(ctx context.Context, id uuid.UUID, patch Patch) (*User, error)
}

// Patch is the narrow set of fields the core is allowed to change.
// Setting PasswordHash also bumps the credential version, which retires
// outstanding reset tokens and, once the cache entry rolls over, access
// tokens minted against the old version.
type Patch struct {
	Confirmed    *bool
	Active       *bool
	Role         *Role
	PasswordHash *string
}

// MailSender delivers templated mail out-of-band. Implementations are
// best-effort: callers log failures and move on.
type MailSender interface {
	Send(ctx context.Context, recipient, templateID string, vars map[string]any) error
}

// CacheBackend stores serialized snapshots with a fixed TTL. The
// interface mirrors a redis-style handle so a networked backend can
// replace the in-memory default without touching the cache logic.
type CacheBackend interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// TokenService issues and verifies scope-tagged bearer tokens.
type TokenService interface {
	Issue(subject string, scope Scope, ttl time.Duration) (string, error)
	SignClaims(claims *Claims) (string, error)
	Verify(token string, expected Scope) (*Claims, error)
}

type defLogger struct{}

func (d defLogger) Error(msg string, args ...any) { d.print("ERR", msg, args) }
func (d defLogger) Warn(msg string, args ...any)  { d.print("WRN", msg, args) }
func (d defLogger) Info(msg string, args ...any)  { d.print("INF", msg, args) }
func (d defLogger) Debug(msg string, args ...any) { d.print("DBG", msg, args) }

// print renders the message followed by alternating key value pairs.
func (d defLogger) print(level, msg string, args []any) {
	var b strings.Builder
	b.WriteString("[" + level + "] IDENTITY " + msg)
	for i := 0; i+1 < len(args); i += 2 {
		fmt.Fprintf(&b, " %v=%v", args[i], args[i+1])
	}
	fmt.Println(b.String())
}
