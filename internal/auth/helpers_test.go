package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/spec-kit/contacts-api/internal/domain"
)

// fakeUsers is an in-memory lookup collaborator.
type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]*domain.User
	err     error
	lookups int
}

func newFakeUsers(users ...*domain.User) *fakeUsers {
	f := &fakeUsers{byID: map[string]*domain.User{}}
	for _, u := range users {
		f.byID[u.ID] = u
	}
	return f
}

func (f *fakeUsers) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.byID {
		if strings.EqualFold(u.Email, identifier) {
			return u, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeUsers) FindBySubject(_ context.Context, subject string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.byID[subject]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return u, nil
}

// countingHasher records Verify calls made through a real hasher.
type countingHasher struct {
	PasswordHasher
	mu       sync.Mutex
	verifies int
}

func (c *countingHasher) Verify(plaintext, encoded string) bool {
	c.mu.Lock()
	c.verifies++
	c.mu.Unlock()
	return c.PasswordHasher.Verify(plaintext, encoded)
}
