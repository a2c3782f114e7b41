package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/contacts-api/internal/domain"
)

// memoryUserRepository keeps accounts in process memory. It backs local runs
// without POSTGRES_DSN and tests.
type memoryUserRepository struct {
	mu    sync.RWMutex
	users map[string]domain.User
}

// NewMemoryUserRepository returns an empty in-memory store.
func NewMemoryUserRepository() UserRepository {
	return &memoryUserRepository{users: make(map[string]domain.User)}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, user.Email) {
			return domain.ErrAlreadyExists
		}
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	user.CreatedAt, user.UpdatedAt = now, now
	r.users[user.ID] = cloneUser(*user)
	return nil
}

func (r *memoryUserRepository) UpdatePasswordHash(_ context.Context, id, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok {
		return domain.ErrNotFound
	}
	user.PasswordHash = hash
	user.UpdatedAt = time.Now().UTC()
	r.users[id] = user
	return nil
}

func (r *memoryUserRepository) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, user := range r.users {
		if identifier != "" && strings.EqualFold(user.Email, identifier) {
			out := cloneUser(user)
			return &out, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *memoryUserRepository) FindBySubject(_ context.Context, subject string) (*domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.users[subject]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := cloneUser(user)
	return &out, nil
}

func cloneUser(u domain.User) domain.User {
	u.Roles = append([]string(nil), u.Roles...)
	return u
}
