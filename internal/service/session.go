package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	pkgcrypto "github.com/mvolkov/notekeeper/internal/crypto"
	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
	"github.com/mvolkov/notekeeper/internal/repository"
)

// DefaultSessionTTL is the fixed lifetime of a session; there is no
// renewal-on-touch.
const DefaultSessionTTL = 24 * time.Hour

// SessionService establishes and validates server-side sessions. The backing
// store is the single source of truth: once a token row is gone, every
// resolution fails, including ones racing the destroy.
type SessionService interface {
	// Create issues an opaque token bound to an authenticated identity.
	Create(ctx context.Context, identity model.Identity) (token string, err error)
	// Resolve maps a token to the identity it was issued for. Returns
	// errs.ErrUnauthenticated for missing, expired or destroyed sessions.
	Resolve(ctx context.Context, token string) (model.Identity, error)
	// Destroy invalidates a session. Destroying an unknown token is not an error.
	Destroy(ctx context.Context, token string) error
}

type SessionServiceImpl struct {
	sessions repository.SessionRepository
	users    repository.UserRepository
	ttl      time.Duration
}

// NewSessionService constructs SessionService with the given token lifetime.
func NewSessionService(sessions repository.SessionRepository, users repository.UserRepository, ttl time.Duration) *SessionServiceImpl {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionServiceImpl{sessions: sessions, users: users, ttl: ttl}
}

// Create issues a cryptographically random token and persists the session.
func (s *SessionServiceImpl) Create(ctx context.Context, identity model.Identity) (string, error) {
	token, err := pkgcrypto.NewSessionToken()
	if err != nil {
		return "", err
	}
	sess := &model.Session{
		Token:     token,
		UserID:    identity.UserID,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	if err := s.sessions.Create(ctx, sess); err != nil {
		return "", err
	}
	return token, nil
}

// Resolve validates the token against the store and re-checks that the
// account is still active, so a suspended user loses access immediately.
func (s *SessionServiceImpl) Resolve(ctx context.Context, token string) (model.Identity, error) {
	if token == "" {
		return model.Identity{}, errs.ErrUnauthenticated
	}
	sess, err := s.sessions.Get(ctx, token)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Identity{}, errs.ErrUnauthenticated
		}
		return model.Identity{}, err
	}
	u, err := s.users.GetActiveByID(ctx, sess.UserID)
	if err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return model.Identity{}, errs.ErrUnauthenticated
		}
		return model.Identity{}, err
	}
	return u.Identity(), nil
}

// Destroy removes the session row.
func (s *SessionServiceImpl) Destroy(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	return s.sessions.Delete(ctx, token)
}

// RunSweeper periodically removes expired session rows until ctx is done.
func (s *SessionServiceImpl) RunSweeper(ctx context.Context, log *zap.Logger, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			n, err := s.sessions.DeleteExpired(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Warn("session sweep failed", zap.Error(err))
				}
				continue
			}
			if n > 0 {
				log.Info("swept expired sessions", zap.Int64("count", n))
			}
		}
	}
}
