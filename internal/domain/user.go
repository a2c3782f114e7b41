package domain

import (
	"errors"
	"time"
)

// ErrNotFound is returned by stores when no matching record exists.
var ErrNotFound = errors.New("not found")

// ErrAlreadyExists is returned by stores on unique constraint conflicts.
var ErrAlreadyExists = errors.New("already exists")

// User is the stored account record. PasswordHash is opaque and produced by
// the password hasher.
type User struct {
	ID           string
	Email        string
	FullName     string
	PasswordHash string
	IsActive     bool
	IsSuperuser  bool
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
