package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/contacts-api/internal/domain"
)

const pgUniqueViolation = "23505"

// UserRepository defines persistence access for user accounts. Lookups return
// domain.ErrNotFound when nothing matches; any other error is a storage
// failure.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	UpdatePasswordHash(ctx context.Context, id, hash string) error
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)
	FindBySubject(ctx context.Context, subject string) (*domain.User, error)
}

type userRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository returns a Postgres-backed implementation.
func NewUserRepository(pool *pgxpool.Pool) UserRepository {
	return &userRepository{pool: pool}
}

const selectUser = `
        SELECT u.id::text, u.email, u.full_name, u.hashed_password, u.is_active, u.is_superuser,
               u.created_at, u.updated_at,
               COALESCE(array_agg(r.name ORDER BY r.name) FILTER (WHERE r.name IS NOT NULL), '{}') AS roles
        FROM users u
        LEFT JOIN user_roles ur ON ur.user_id = u.id
        LEFT JOIN roles r ON r.id = ur.role_id`

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	const query = `
        INSERT INTO users (id, email, full_name, hashed_password, is_active, is_superuser)
        VALUES ($1::uuid, $2, $3, $4, $5, $6)
        RETURNING created_at, updated_at`

	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.FullName,
		user.PasswordHash,
		user.IsActive,
		user.IsSuperuser,
	).Scan(&user.CreatedAt, &user.UpdatedAt)
	return mapError(err)
}

func (r *userRepository) UpdatePasswordHash(ctx context.Context, id, hash string) error {
	if _, err := uuid.Parse(id); err != nil {
		return domain.ErrNotFound
	}
	const query = `
        UPDATE users SET hashed_password=$1, updated_at=NOW()
        WHERE id=$2::uuid`

	cmd, err := r.pool.Exec(ctx, query, hash, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// FindByIdentifier matches the email case-insensitively.
func (r *userRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.ErrNotFound
	}
	return r.queryOne(ctx, selectUser+`
        WHERE LOWER(u.email) = LOWER($1)
        GROUP BY u.id`, identifier)
}

// FindBySubject resolves a token subject. Subjects that are not UUIDs cannot
// name a user and are reported as not found without a query.
func (r *userRepository) FindBySubject(ctx context.Context, subject string) (*domain.User, error) {
	if _, err := uuid.Parse(subject); err != nil {
		return nil, domain.ErrNotFound
	}
	return r.queryOne(ctx, selectUser+`
        WHERE u.id = $1::uuid
        GROUP BY u.id`, subject)
}

func (r *userRepository) queryOne(ctx context.Context, query string, arg string) (*domain.User, error) {
	var user domain.User
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&user.ID,
		&user.Email,
		&user.FullName,
		&user.PasswordHash,
		&user.IsActive,
		&user.IsSuperuser,
		&user.CreatedAt,
		&user.UpdatedAt,
		&user.Roles,
	); err != nil {
		return nil, mapError(err)
	}
	return &user, nil
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return domain.ErrAlreadyExists
	}
	return err
}
