package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-api/internal/auth"
	"github.com/spec-kit/contacts-api/internal/domain"
	"github.com/spec-kit/contacts-api/internal/events"
	"github.com/spec-kit/contacts-api/internal/repository"
)

type collectedEvents struct {
	mu     sync.Mutex
	events []events.Event
}

func (c *collectedEvents) handler(_ context.Context, e events.Event) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
	return nil
}

func (c *collectedEvents) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]events.EventType, 0, len(c.events))
	for _, e := range c.events {
		out = append(out, e.Type)
	}
	return out
}

// flakyRepository fails every lookup with err when set.
type flakyRepository struct {
	repository.UserRepository
	err error
}

func (f *flakyRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.UserRepository.FindByIdentifier(ctx, identifier)
}

type serviceFixture struct {
	svc    *AuthService
	users  *flakyRepository
	hasher *auth.Argon2Hasher
	tokens *auth.TokenCodec
	seen   *collectedEvents
}

func newServiceFixture(t *testing.T) *serviceFixture {
	t.Helper()
	hasher, err := auth.NewArgon2Hasher(auth.Argon2Params{MemoryKB: 8 * 1024, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 32})
	require.NoError(t, err)
	tokens, err := auth.NewTokenCodec(auth.TokenConfig{
		Secret:          []byte(strings.Repeat("k", 32)),
		DefaultLifetime: time.Hour,
	})
	require.NoError(t, err)

	dispatcher := events.NewInMemoryDispatcher()
	seen := &collectedEvents{}
	for _, et := range []events.EventType{events.EventLoginSucceeded, events.EventLoginFailed, events.EventUserRegistered} {
		dispatcher.Subscribe(et, seen.handler)
	}

	users := &flakyRepository{UserRepository: repository.NewMemoryUserRepository()}
	svc, err := NewAuthService(AuthDependencies{
		Users:      users,
		Hasher:     hasher,
		Tokens:     tokens,
		Dispatcher: dispatcher,
		Logger:     zap.NewNop(),
	})
	require.NoError(t, err)
	return &serviceFixture{svc: svc, users: users, hasher: hasher, tokens: tokens, seen: seen}
}

func TestLoginIssuesVerifiableToken(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	user, err := f.svc.RegisterUser(ctx, NewUser{Email: " Auth_User@Example.com ", Password: "auth_password", FullName: "Auth Test User"})
	require.NoError(t, err)
	require.Equal(t, "auth_user@example.com", user.Email)
	require.NotEqual(t, "auth_password", user.PasswordHash)

	token, err := f.svc.Login(ctx, "AUTH_USER@example.com", "auth_password", "10.0.0.1")
	require.NoError(t, err)
	require.Equal(t, user.ID, token.Subject)
	require.WithinDuration(t, time.Now().Add(time.Hour), token.ExpiresAt, 5*time.Second)

	claims, err := f.tokens.Verify(token.Token)
	require.NoError(t, err)
	require.Equal(t, user.ID, claims.Subject)

	require.Equal(t, []events.EventType{events.EventUserRegistered, events.EventLoginSucceeded}, f.seen.types())
}

func TestLoginFailuresShareOneError(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()
	_, err := f.svc.RegisterUser(ctx, NewUser{Email: "auth_user@example.com", Password: "auth_password"})
	require.NoError(t, err)

	_, wrong := f.svc.Login(ctx, "auth_user@example.com", "wrong_password", "")
	_, unknown := f.svc.Login(ctx, "nonexistent@example.com", "any_password", "")
	_, blank := f.svc.Login(ctx, "", "", "")

	for _, err := range []error{wrong, unknown, blank} {
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	}
	require.Equal(t, []events.EventType{
		events.EventUserRegistered,
		events.EventLoginFailed, events.EventLoginFailed, events.EventLoginFailed,
	}, f.seen.types())
}

func TestLoginRefusesInactiveAccount(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	hash, err := f.hasher.Hash("auth_password")
	require.NoError(t, err)
	require.NoError(t, f.users.Create(ctx, &domain.User{Email: "inactive@example.com", PasswordHash: hash}))

	_, err = f.svc.Login(ctx, "inactive@example.com", "auth_password", "")
	require.ErrorIs(t, err, auth.ErrInvalidCredentials)
	require.Equal(t, "inactive_account", f.seen.events[0].Reason)
}

func TestLoginLookupFailurePropagates(t *testing.T) {
	f := newServiceFixture(t)
	dbDown := errors.New("dial tcp: connection refused")
	f.users.err = dbDown

	_, err := f.svc.Login(context.Background(), "auth_user@example.com", "auth_password", "")
	require.ErrorIs(t, err, auth.ErrLookupUnavailable)
	require.ErrorIs(t, err, dbDown)
	require.NotErrorIs(t, err, auth.ErrInvalidCredentials)
	require.Empty(t, f.seen.types())
}

func TestLoginUpgradesWeakHash(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	weak, err := auth.NewArgon2Hasher(auth.Argon2Params{MemoryKB: 8 * 1024, Time: 1, Threads: 1, SaltLength: 16, KeyLength: 16})
	require.NoError(t, err)
	oldHash, err := weak.Hash("auth_password")
	require.NoError(t, err)
	user := &domain.User{Email: "legacy@example.com", PasswordHash: oldHash, IsActive: true}
	require.NoError(t, f.users.Create(ctx, user))

	_, err = f.svc.Login(ctx, "legacy@example.com", "auth_password", "")
	require.NoError(t, err)

	stored, err := f.users.FindBySubject(ctx, user.ID)
	require.NoError(t, err)
	require.NotEqual(t, oldHash, stored.PasswordHash)
	require.False(t, f.hasher.NeedsRehash(stored.PasswordHash))
	require.True(t, f.hasher.Verify("auth_password", stored.PasswordHash))
}

func TestRegisterDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	_, err := f.svc.RegisterUser(ctx, NewUser{Email: "dup@example.com", Password: "p"})
	require.NoError(t, err)
	_, err = f.svc.RegisterUser(ctx, NewUser{Email: "DUP@example.com", Password: "p"})
	require.ErrorIs(t, err, domain.ErrAlreadyExists)
}

func TestEnsureSuperuser(t *testing.T) {
	f := newServiceFixture(t)
	ctx := context.Background()

	created, err := f.svc.EnsureSuperuser(ctx, "admin@example.com", "admin-password", "Admin")
	require.NoError(t, err)
	require.True(t, created)

	created, err = f.svc.EnsureSuperuser(ctx, "admin@example.com", "admin-password", "Admin")
	require.NoError(t, err)
	require.False(t, created)

	created, err = f.svc.EnsureSuperuser(ctx, "admin@example.com", "", "Admin")
	require.NoError(t, err)
	require.False(t, created)

	admin, err := f.users.FindByIdentifier(ctx, "admin@example.com")
	require.NoError(t, err)
	require.True(t, admin.IsSuperuser)
	require.True(t, admin.IsActive)

	got, err := f.svc.GetUser(ctx, admin.ID)
	require.NoError(t, err)
	require.Equal(t, admin.Email, got.Email)
}

func TestNewAuthServiceRequiresDependencies(t *testing.T) {
	_, err := NewAuthService(AuthDependencies{})
	require.Error(t, err)
}
