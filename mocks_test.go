package identity_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	identity "github.com/photoflow/go-identity"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStore implements identity.IdentityStore
type MockStore struct {
	mock.Mock
}

func (m *MockStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockStore) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockStore) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockStore) Patch(ctx context.Context, id uuid.UUID, patch identity.Patch) (*identity.User, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

// fakeStore is a mutable in-memory IdentityStore for flow and cache
// tests where testify expectations get in the way.
type fakeStore struct {
	mu    sync.Mutex
	users map[string]*identity.User

	loads   atomic.Int64
	gate    chan struct{} // when set, FindByEmail blocks until closed
	loadErr error
}

func newFakeStore(users ...*identity.User) *fakeStore {
	s := &fakeStore{users: make(map[string]*identity.User)}
	for _, u := range users {
		s.users[u.Email] = u
	}
	return s
}

func (s *fakeStore) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	if s.gate != nil {
		<-s.gate
	}

	s.loads.Add(1)

	if s.loadErr != nil {
		return nil, s.loadErr
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[email]
	if !ok {
		return nil, identity.ErrUserNotFound
	}

	clone := *user
	return &clone, nil
}

func (s *fakeStore) FindByUsername(ctx context.Context, username string) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, identity.ErrUserNotFound
}

func (s *fakeStore) Create(ctx context.Context, user *identity.User) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Email]; exists {
		return nil, identity.ErrAccountExists
	}

	clone := *user
	if clone.ID == uuid.Nil {
		clone.ID = uuid.New()
	}
	if clone.CredentialVersion == 0 {
		clone.CredentialVersion = 1
	}
	s.users[clone.Email] = &clone

	result := clone
	return &result, nil
}

func (s *fakeStore) Patch(ctx context.Context, id uuid.UUID, patch identity.Patch) (*identity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.ID != id {
			continue
		}

		if patch.Confirmed != nil {
			u.Confirmed = *patch.Confirmed
		}
		if patch.Active != nil {
			u.Active = *patch.Active
		}
		if patch.Role != nil {
			u.Role = *patch.Role
		}
		if patch.PasswordHash != nil {
			u.PasswordHash = *patch.PasswordHash
			u.CredentialVersion++
		}

		clone := *u
		return &clone, nil
	}

	return nil, identity.ErrUserNotFound
}

// captureMailer records sends on a channel so tests can wait for the
// fire-and-forget delivery goroutine.
type captureMailer struct {
	sent chan capturedMail
}

type capturedMail struct {
	Recipient  string
	TemplateID string
	Vars       map[string]any
}

func newCaptureMailer() *captureMailer {
	return &captureMailer{sent: make(chan capturedMail, 8)}
}

func (m *captureMailer) Send(ctx context.Context, recipient, templateID string, vars map[string]any) error {
	m.sent <- capturedMail{Recipient: recipient, TemplateID: templateID, Vars: vars}
	return nil
}

func (m *captureMailer) wait(timeout time.Duration) (capturedMail, bool) {
	select {
	case mail := <-m.sent:
		return mail, true
	case <-time.After(timeout):
		return capturedMail{}, false
	}
}

// quietLogger drops everything
type quietLogger struct{}

func (quietLogger) Debug(format string, args ...any) {}
func (quietLogger) Info(format string, args ...any)  {}
func (quietLogger) Warn(format string, args ...any)  {}
func (quietLogger) Error(format string, args ...any) {}

func newTestConfig() identity.Config {
	return identity.Config{
		SigningKey:      "test-signing-key-0123456789",
		Issuer:          "identity-test",
		AccessTokenTTL:  120 * time.Minute,
		ConfirmTokenTTL: 24 * time.Hour,
		ResetTokenTTL:   time.Hour,
		CacheTTL:        300 * time.Second,
	}
}

var (
	testHashOnce sync.Once
	testHash     string
)

// testPasswordHash hashes "password123" once; bcrypt at production cost
// is too slow to repeat per test.
func testPasswordHash() string {
	testHashOnce.Do(func() {
		hash, err := identity.HashPassword("password123")
		if err != nil {
			panic(err)
		}
		testHash = hash
	})
	return testHash
}

func newTestUser(email string) *identity.User {
	hash := testPasswordHash()

	return &identity.User{
		ID:                uuid.New(),
		Username:          "tester",
		Email:             email,
		PasswordHash:      hash,
		Role:              identity.RoleUser,
		Confirmed:         true,
		Active:            true,
		CredentialVersion: 1,
	}
}
