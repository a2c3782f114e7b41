package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/contacts-api/internal/auth"
	"github.com/spec-kit/contacts-api/internal/domain"
	"github.com/spec-kit/contacts-api/internal/events"
	"github.com/spec-kit/contacts-api/internal/repository"
)

// NewUser describes an account to create.
type NewUser struct {
	Email       string
	Password    string
	FullName    string
	IsSuperuser bool
}

// AuthService coordinates login, registration and bootstrap flows.
type AuthService struct {
	users         repository.UserRepository
	hasher        auth.PasswordHasher
	tokens        *auth.TokenCodec
	authenticator *auth.Authenticator
	dispatcher    events.Dispatcher
	logger        *zap.Logger
}

// AuthDependencies encapsulates requirements for the auth service. All fields
// are required.
type AuthDependencies struct {
	Users      repository.UserRepository
	Hasher     auth.PasswordHasher
	Tokens     *auth.TokenCodec
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// NewAuthService builds the service.
func NewAuthService(deps AuthDependencies) (*AuthService, error) {
	if deps.Users == nil || deps.Hasher == nil || deps.Tokens == nil || deps.Dispatcher == nil || deps.Logger == nil {
		return nil, errors.New("auth service: missing dependency")
	}
	authenticator, err := auth.NewAuthenticator(deps.Users, deps.Hasher)
	if err != nil {
		return nil, err
	}
	return &AuthService{
		users:         deps.Users,
		hasher:        deps.Hasher,
		tokens:        deps.Tokens,
		authenticator: authenticator,
		dispatcher:    deps.Dispatcher,
		logger:        deps.Logger,
	}, nil
}

// Login verifies credentials and issues an access token. Inactive accounts
// are refused with the same error as a wrong password.
func (s *AuthService) Login(ctx context.Context, identifier, password, ip string) (*domain.AccessToken, error) {
	identifier = normalizeEmail(identifier)

	principal, err := s.authenticator.Authenticate(ctx, identifier, password)
	if err != nil {
		if errors.Is(err, auth.ErrLookupUnavailable) {
			return nil, err
		}
		s.publish(ctx, events.Event{Type: events.EventLoginFailed, Identifier: identifier, IP: ip, Reason: auth.FailureKind(err)})
		return nil, err
	}
	if !principal.User.IsActive {
		s.publish(ctx, events.Event{Type: events.EventLoginFailed, Identifier: identifier, Subject: principal.Subject, IP: ip, Reason: "inactive_account"})
		return nil, auth.ErrInvalidCredentials
	}

	token, expiresAt, err := s.tokens.Issue(principal.Subject)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	s.upgradeHash(ctx, principal.User, password)
	s.publish(ctx, events.Event{Type: events.EventLoginSucceeded, Identifier: identifier, Subject: principal.Subject, IP: ip})

	return &domain.AccessToken{Token: token, Subject: principal.Subject, ExpiresAt: expiresAt}, nil
}

// RegisterUser hashes the password and stores a new account. It returns
// domain.ErrAlreadyExists when the email is taken.
func (s *AuthService) RegisterUser(ctx context.Context, in NewUser) (*domain.User, error) {
	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        normalizeEmail(in.Email),
		FullName:     strings.TrimSpace(in.FullName),
		PasswordHash: hash,
		IsActive:     true,
		IsSuperuser:  in.IsSuperuser,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	s.publish(ctx, events.Event{Type: events.EventUserRegistered, Subject: user.ID, Identifier: user.Email})
	return user, nil
}

// EnsureSuperuser creates the bootstrap superuser unless the email already
// exists. It reports whether an account was created.
func (s *AuthService) EnsureSuperuser(ctx context.Context, email, password, fullName string) (bool, error) {
	if email == "" || password == "" {
		return false, nil
	}
	_, err := s.users.FindByIdentifier(ctx, normalizeEmail(email))
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	_, err = s.RegisterUser(ctx, NewUser{Email: email, Password: password, FullName: fullName, IsSuperuser: true})
	if errors.Is(err, domain.ErrAlreadyExists) {
		return false, nil
	}
	return err == nil, err
}

// GetUser loads an account by id.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.users.FindBySubject(ctx, id)
}

func (s *AuthService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	if !s.hasher.NeedsRehash(user.PasswordHash) {
		return
	}
	hash, err := s.hasher.Hash(password)
	if err != nil {
		s.logger.Warn("rehash password", zap.String("subject", user.ID), zap.Error(err))
		return
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn("store upgraded password hash", zap.String("subject", user.ID), zap.Error(err))
		return
	}
	user.PasswordHash = hash
}

func (s *AuthService) publish(ctx context.Context, event events.Event) {
	event.ID = uuid.NewString()
	event.Timestamp = time.Now().UTC()
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("audit event not recorded", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
