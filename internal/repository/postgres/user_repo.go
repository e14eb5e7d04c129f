package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, email, password_hash, status)
VALUES ($1, $2, $3, $4)`
	_, err := r.db.Pool.Exec(ctx, q, u.ID, u.Email, u.PasswordHash, u.Status)
	if isUniqueViolation(err) {
		return errs.ErrEmailTaken
	}
	return err
}

const userColumns = `id, email, password_hash, status, last_login, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.Status, &u.LastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail selects a user by email regardless of account status.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users WHERE email=$1`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// GetActiveByEmail selects an active-status user by email.
func (r *UserRepo) GetActiveByEmail(ctx context.Context, email string) (*model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users WHERE email=$1 AND status='active'`
	return scanUser(r.db.Pool.QueryRow(ctx, q, email))
}

// GetActiveByID selects an active-status user by ID.
func (r *UserRepo) GetActiveByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT ` + userColumns + `
FROM users WHERE id=$1 AND status='active'`
	return scanUser(r.db.Pool.QueryRow(ctx, q, id))
}

// UpdatePassword replaces the stored password hash.
func (r *UserRepo) UpdatePassword(ctx context.Context, id uuid.UUID, hash []byte) error {
	const q = `
UPDATE users SET password_hash=$2, updated_at=now() WHERE id=$1`
	tag, err := r.db.Pool.Exec(ctx, q, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login timestamp.
func (r *UserRepo) TouchLastLogin(ctx context.Context, id uuid.UUID) error {
	const q = `
UPDATE users SET last_login=now() WHERE id=$1`
	_, err := r.db.Pool.Exec(ctx, q, id)
	return err
}
