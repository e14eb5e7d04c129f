// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mvolkov/notekeeper/internal/model"
)

// UserRepository provides access to account records.
type UserRepository interface {
	// Create inserts a new user. Returns errs.ErrEmailTaken if the email
	// is already registered.
	Create(ctx context.Context, u *model.User) error
	// GetByEmail loads a user by lowercased email regardless of status,
	// including the password hash.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	// GetActiveByEmail loads an active-status user by lowercased email,
	// including the password hash.
	GetActiveByEmail(ctx context.Context, email string) (*model.User, error)
	// GetActiveByID loads an active-status user by ID.
	GetActiveByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id uuid.UUID, hash []byte) error
	// TouchLastLogin records a successful login timestamp.
	TouchLastLogin(ctx context.Context, id uuid.UUID) error
}
