package repository

import (
	"context"

	"github.com/mvolkov/notekeeper/internal/model"
)

// SessionRepository persists server-side sessions. The stored row is the
// single source of truth for validity; there is no client-side caching.
type SessionRepository interface {
	// Create inserts a session row.
	Create(ctx context.Context, s *model.Session) error
	// Get loads an unexpired session by token. Returns errs.ErrNotFound
	// for unknown, destroyed or expired tokens.
	Get(ctx context.Context, token string) (*model.Session, error)
	// Delete destroys a session. Deleting an unknown token is not an error.
	Delete(ctx context.Context, token string) error
	// DeleteExpired removes all expired rows and reports how many.
	DeleteExpired(ctx context.Context) (int64, error)
}
