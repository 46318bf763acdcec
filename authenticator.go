package identity

import (
	"context"
	"io"
	"time"

	"github.com/golang-jwt/jwt/v5"
	goerrors "github.com/goliatone/go-errors"
)

// Service is the explicitly constructed root of the core: it owns the
// signing configuration, the identity cache, and the collaborator
// handles, and hands out guards and lifecycle handlers built on them.
type Service struct {
	store   IdentityStore
	cache   *Cache
	tokens  TokenService
	mailer  MailSender
	logger  Logger
	backend CacheBackend
	cfg     Config
}

// NewService wires a Service from the store and config. Collaborators
// default to in-process implementations; override them with the WithX
// builders before first use.
func NewService(store IdentityStore, cfg Config) (*Service, error) {
	if store == nil {
		return nil, goerrors.New("identity store is required", goerrors.CategoryBadInput)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := defLogger{}
	backend := NewMemoryBackend()

	return &Service{
		store:   store,
		cfg:     cfg,
		logger:  logger,
		backend: backend,
		tokens:  NewTokenService([]byte(cfg.SigningKey), cfg.Issuer, logger),
		cache:   NewCache(store, backend, cfg.CacheTTL),
		mailer:  &logMailer{logger: logger},
	}, nil
}

// WithLogger overrides the logger for the service and its cache.
func (s *Service) WithLogger(logger Logger) *Service {
	if logger != nil {
		s.logger = logger
		s.cache.WithLogger(logger)
	}
	return s
}

// WithMailer sets the outbound mail collaborator.
func (s *Service) WithMailer(mailer MailSender) *Service {
	if mailer != nil {
		s.mailer = mailer
	}
	return s
}

// WithCacheBackend replaces the cache backend (e.g. a redis handle).
func (s *Service) WithCacheBackend(backend CacheBackend) *Service {
	if backend != nil {
		s.backend = backend
		s.cache = NewCache(s.store, backend, s.cfg.CacheTTL).WithLogger(s.logger)
	}
	return s
}

// WithClock injects a custom clock into the token service.
func (s *Service) WithClock(clock func() time.Time) *Service {
	if ts, ok := s.tokens.(*HSTokenService); ok {
		ts.WithClock(clock)
	}
	return s
}

// Tokens returns the TokenService used by this Service.
func (s *Service) Tokens() TokenService {
	return s.tokens
}

// Cache returns the identity cache handle.
func (s *Service) Cache() *Cache {
	return s.cache
}

// Login verifies the credentials and mints an access token carrying the
// identity's credential version. The email lookup miss and the password
// mismatch are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if goerrors.IsNotFound(err) || HasTextCode(err, TextCodeUserNotFound) {
			return "", ErrCredentialMismatch
		}
		return "", goerrors.Wrap(err, goerrors.CategoryInternal, "failed to retrieve user during login")
	}

	if err := ComparePasswordAndHash(password, user.PasswordHash); err != nil {
		if HasTextCode(err, TextCodeCorruptDigest) {
			s.logger.Error("login hit a corrupt credential digest", "user_id", user.ID.String())
		}
		return "", err
	}

	if !user.Confirmed {
		return "", ErrUnconfirmedAccount
	}

	if !user.Active {
		return "", ErrInactiveAccount
	}

	now := time.Now()
	if ts, ok := s.tokens.(*HSTokenService); ok {
		now = ts.now()
	}

	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Subject:   user.Email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.cfg.AccessTokenTTL)),
		},
		TokenScope:        ScopeAccess,
		CredentialVersion: user.CredentialVersion,
	}

	token, err := s.tokens.SignClaims(claims)
	if err != nil {
		s.logger.Error("login failed to sign access token", "error", err)
		return "", err
	}

	return token, nil
}

// SetActive patches the active flag in the store and drops the cache
// entry so callers observe the change on their next resolution.
func (s *Service) SetActive(ctx context.Context, email string, active bool) (*Snapshot, error) {
	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return s.patchAndInvalidate(ctx, user, Patch{Active: &active})
}

// SetRole patches the role in the store and drops the cache entry.
func (s *Service) SetRole(ctx context.Context, email string, role Role) (*Snapshot, error) {
	if !role.IsValid() {
		return nil, goerrors.New("unknown role", goerrors.CategoryBadInput).
			WithCode(goerrors.CodeBadRequest).
			WithMetadata(map[string]any{"role": string(role)})
	}

	user, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	return s.patchAndInvalidate(ctx, user, Patch{Role: &role})
}

func (s *Service) patchAndInvalidate(ctx context.Context, user *User, patch Patch) (*Snapshot, error) {
	updated, err := s.store.Patch(ctx, user.ID, patch)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Invalidate(ctx, updated.Email); err != nil {
		s.logger.Warn("cache invalidation failed", "key", updated.Email, "error", err)
	}

	return updated.Snapshot(), nil
}

// sendMail delivers out-of-band mail fire-and-forget. Failures are
// logged, never propagated to the request that triggered them.
func (s *Service) sendMail(recipient, templateID string, vars map[string]any) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.mailer.Send(ctx, recipient, templateID, vars); err != nil {
			s.logger.Warn("mail delivery failed", "recipient", recipient, "template", templateID, "error", err)
		}
	}()
}

// Close releases the cache backend when it owns releasable resources.
func (s *Service) Close() error {
	if closer, ok := s.backend.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
