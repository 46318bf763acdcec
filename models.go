package identity

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Role is the identity's global role
type Role string

const (
	// RoleUser is the default role (view, upload own content)
	RoleUser Role = "user"
	// RoleModerator can curate content owned by others
	RoleModerator Role = "moderator"
	// RoleAdmin can manage accounts and roles
	RoleAdmin Role = "admin"
)

// User is the store-owned identity record
type User struct {
	bun.BaseModel     `bun:"table:users,alias:usr"`
	ID                uuid.UUID  `bun:"id,pk,nullzero,type:uuid" json:"id,omitempty"`
	Username          string     `bun:"username,notnull" json:"username,omitempty"`
	Email             string     `bun:"email,notnull,unique" json:"email,omitempty"`
	PasswordHash      string     `bun:"password_hash,notnull" json:"-"`
	Role              Role       `bun:"role,notnull,default:'user'" json:"role,omitempty"`
	Confirmed         bool       `bun:"confirmed" json:"confirmed"`
	Active            bool       `bun:"is_active" json:"is_active"`
	CredentialVersion int64      `bun:"credential_version,notnull,default:1" json:"credential_version,omitempty"`
	AvatarURL         string     `bun:"avatar_url" json:"avatar_url,omitempty"`
	CreatedAt         *time.Time `bun:"created_at,nullzero,default:current_timestamp" json:"created_at,omitempty"`
	UpdatedAt         *time.Time `bun:"updated_at,nullzero,default:current_timestamp" json:"updated_at,omitempty"`
}

// Snapshot is the minimal identity view the cache and guards work with.
// It is deliberately decoupled from the User record so the store schema
// and cache payload can evolve independently.
type Snapshot struct {
	ID                string `json:"id"`
	Username          string `json:"username,omitempty"`
	Email             string `json:"email"`
	Role              Role   `json:"role"`
	Active            bool   `json:"active"`
	Confirmed         bool   `json:"confirmed"`
	CredentialVersion int64  `json:"cv"`
}

// Snapshot builds the cacheable view of the record.
func (u *User) Snapshot() *Snapshot {
	if u == nil {
		return nil
	}

	return &Snapshot{
		ID:                u.ID.String(),
		Username:          u.Username,
		Email:             u.Email,
		Role:              u.Role,
		Active:            u.Active,
		Confirmed:         u.Confirmed,
		CredentialVersion: u.CredentialVersion,
	}
}
