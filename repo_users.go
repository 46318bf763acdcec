package identity

import (
	"context"
	"database/sql"
	"errors"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunIdentityStore is the reference IdentityStore backed by a bun DB.
// Applications with their own persistence layer only need to satisfy the
// IdentityStore interface; this implementation exists so the core ships
// with runnable storage.
type BunIdentityStore struct {
	db   *bun.DB
	repo repository.Repository[*User]
}

var _ IdentityStore = (*BunIdentityStore)(nil)

// NewBunIdentityStore creates a store over the given bun handle.
func NewBunIdentityStore(db *bun.DB) *BunIdentityStore {
	repo := repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
		NewRecord: func() *User { return &User{} },
		GetID: func(u *User) uuid.UUID {
			if u == nil {
				return uuid.Nil
			}
			return u.ID
		},
		SetID: func(u *User, id uuid.UUID) {
			if u != nil {
				u.ID = id
			}
		},
		GetIdentifier: func() string {
			return "email"
		},
	})

	return &BunIdentityStore{
		db:   db,
		repo: repo,
	}
}

func (s *BunIdentityStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	user, err := s.repo.GetByIdentifier(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user by email")
	}
	return user, nil
}

func (s *BunIdentityStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("usr.username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user by username")
	}
	return user, nil
}

func (s *BunIdentityStore) Create(ctx context.Context, user *User) (*User, error) {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.CredentialVersion == 0 {
		user.CredentialVersion = 1
	}
	if user.Role == "" {
		user.Role = RoleUser
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryConflict, "failed to create user record")
	}

	return created, nil
}

func (s *BunIdentityStore) Patch(ctx context.Context, id uuid.UUID, patch Patch) (*User, error) {
	user := &User{}
	q := s.db.NewUpdate().
		Model(user).
		Where("usr.id = ?", id)

	touched := false

	if patch.Confirmed != nil {
		q = q.Set("confirmed = ?", *patch.Confirmed)
		touched = true
	}
	if patch.Active != nil {
		q = q.Set("is_active = ?", *patch.Active)
		touched = true
	}
	if patch.Role != nil {
		q = q.Set("role = ?", string(*patch.Role))
		touched = true
	}
	if patch.PasswordHash != nil {
		// the version bump is what retires outstanding reset tokens
		q = q.Set("password_hash = ?", *patch.PasswordHash).
			Set("credential_version = credential_version + 1")
		touched = true
	}

	if !touched {
		return s.getByID(ctx, id)
	}

	q = q.Set("updated_at = current_timestamp")

	res, err := q.Exec(ctx)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to patch user record")
	}

	if affected, err := res.RowsAffected(); err == nil && affected == 0 {
		return nil, ErrUserNotFound
	}

	return s.getByID(ctx, id)
}

func (s *BunIdentityStore) getByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user := &User{}
	err := s.db.NewSelect().
		Model(user).
		Where("usr.id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to query user by id")
	}
	return user, nil
}
