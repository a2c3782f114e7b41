package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/spec-kit/contacts-api/internal/domain"
)

// CredentialStore finds stored credential records by login identifier.
// Implementations return domain.ErrNotFound when no record exists.
type CredentialStore interface {
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
}

// Authenticator turns an identifier and plaintext secret into a Principal.
type Authenticator struct {
	store  CredentialStore
	hasher PasswordHasher

	// decoy is verified when no record exists so both failure branches pay
	// for one hash verification.
	decoy string
}

// NewAuthenticator builds an Authenticator. Both dependencies are required.
func NewAuthenticator(store CredentialStore, hasher PasswordHasher) (*Authenticator, error) {
	if store == nil || hasher == nil {
		return nil, errors.New("authenticator: store and hasher are required")
	}
	decoy, err := hasher.Hash("decoy-password-for-unknown-accounts")
	if err != nil {
		return nil, fmt.Errorf("authenticator: build decoy hash: %w", err)
	}
	return &Authenticator{store: store, hasher: hasher, decoy: decoy}, nil
}

// Authenticate looks the record up, then verifies secret against its hash.
// Unknown identifiers and wrong secrets both yield ErrInvalidCredentials;
// store failures other than not-found wrap ErrLookupUnavailable.
func (a *Authenticator) Authenticate(ctx context.Context, identifier, secret string) (*Principal, error) {
	user, err := a.store.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.hasher.Verify(secret, a.decoy)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %w", ErrLookupUnavailable, err)
	}

	if !a.hasher.Verify(secret, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}
	return &Principal{Subject: user.ID, User: user}, nil
}
