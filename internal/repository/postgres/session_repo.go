package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
)

// SessionRepo implements SessionRepository using PostgreSQL.
type SessionRepo struct{ db *DB }

// NewSessionRepo constructs a session repository.
func NewSessionRepo(db *DB) *SessionRepo { return &SessionRepo{db: db} }

// Create inserts a session row.
func (r *SessionRepo) Create(ctx context.Context, s *model.Session) error {
	const q = `
INSERT INTO sessions (token, user_id, expires_at)
VALUES ($1, $2, $3)`
	_, err := r.db.Pool.Exec(ctx, q, s.Token, s.UserID, s.ExpiresAt)
	return err
}

// Get loads an unexpired session. Expiry is enforced in SQL so a destroyed
// or expired token fails even for resolutions racing a destroy.
func (r *SessionRepo) Get(ctx context.Context, token string) (*model.Session, error) {
	const q = `
SELECT token, user_id, created_at, expires_at
FROM sessions WHERE token=$1 AND expires_at > now()`
	var s model.Session
	err := r.db.Pool.QueryRow(ctx, q, token).Scan(&s.Token, &s.UserID, &s.CreatedAt, &s.ExpiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Delete destroys a session. Unknown tokens are a no-op.
func (r *SessionRepo) Delete(ctx context.Context, token string) error {
	const q = `DELETE FROM sessions WHERE token=$1`
	_, err := r.db.Pool.Exec(ctx, q, token)
	return err
}

// DeleteExpired removes all expired rows.
func (r *SessionRepo) DeleteExpired(ctx context.Context) (int64, error) {
	const q = `DELETE FROM sessions WHERE expires_at <= now()`
	tag, err := r.db.Pool.Exec(ctx, q)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
