// Package service contains application services for authentication, sessions,
// folders and notes.
package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode"

	"github.com/gofrs/uuid/v5"

	pkgcrypto "github.com/mvolkov/notekeeper/internal/crypto"
	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/limiter"
	"github.com/mvolkov/notekeeper/internal/model"
	"github.com/mvolkov/notekeeper/internal/repository"
)

// Registration requires at least this many password characters; the full
// strength policy applies only when a password is changed.
const minPasswordLen = 8

var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// AuthService defines credential verification and account operations.
type AuthService interface {
	// Register creates a new account with a hashed credential.
	Register(ctx context.Context, email, password string) (model.Identity, error)
	// LoginWithIP applies rate-limiting and authenticates the user. The
	// returned identity carries no credential material.
	LoginWithIP(ctx context.Context, email, password, ip string) (model.Identity, error)
	// ChangePassword re-authenticates with the current password and replaces
	// the stored hash. Failure modes are distinguished by sentinel so the
	// boundary can direct the user to the offending field.
	ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error
}

type AuthServiceImpl struct {
	users repository.UserRepository
	lim   limiter.Limiter
}

// NewAuthService constructs AuthService with required dependencies.
func NewAuthService(users repository.UserRepository, lim limiter.Limiter) *AuthServiceImpl {
	return &AuthServiceImpl{users: users, lim: lim}
}

// NormalizeEmail lowercases and trims an email the way it is stored.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user record with a bcrypt-hashed credential.
func (s *AuthServiceImpl) Register(ctx context.Context, email, password string) (model.Identity, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return model.Identity{}, errs.NewValidation("email", "email is required")
	}
	if !emailRe.MatchString(email) {
		return model.Identity{}, errs.NewValidation("email", "email is not valid")
	}
	if len(password) < minPasswordLen {
		return model.Identity{}, errs.NewValidation("password", "password must be at least 8 characters long")
	}

	uid, err := uuid.NewV4()
	if err != nil {
		return model.Identity{}, err
	}
	hash, err := pkgcrypto.HashPassword(password)
	if err != nil {
		return model.Identity{}, err
	}

	u := &model.User{
		ID:           uid,
		Email:        email,
		PasswordHash: hash,
		Status:       model.StatusActive,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return model.Identity{}, err
	}
	return u.Identity(), nil
}

// LoginWithIP authenticates with rate limiting by (email, ip). A missing
// account and a wrong password are indistinguishable to the caller.
func (s *AuthServiceImpl) LoginWithIP(ctx context.Context, email, password, ip string) (model.Identity, error) {
	email = NormalizeEmail(email)
	ipHash := limiter.HashIP(ip)

	allowed, _, err := s.lim.Allow(ctx, email, ipHash)
	if err != nil {
		return model.Identity{}, err
	}
	if !allowed {
		return model.Identity{}, errs.ErrRateLimited
	}

	u, err := s.users.GetActiveByEmail(ctx, email)
	if err != nil && !errors.Is(err, errs.ErrNotFound) {
		// Store outage, not a bad credential; must not count toward lockout.
		return model.Identity{}, err
	}
	if err != nil || !pkgcrypto.VerifyPassword(password, u.PasswordHash) {
		if blocked, _, ferr := s.lim.Failure(ctx, email, ipHash); ferr == nil && blocked {
			return model.Identity{}, errs.ErrRateLimited
		}
		return model.Identity{}, errs.ErrInvalidCredentials
	}

	// Reset counters and record the login; both best-effort.
	_ = s.lim.Success(ctx, email, ipHash)
	_ = s.users.TouchLastLogin(ctx, u.ID)

	return u.Identity(), nil
}

// ChangePassword verifies the current credential and stores a new hash.
func (s *AuthServiceImpl) ChangePassword(ctx context.Context, email, currentPassword, newPassword string) error {
	email = NormalizeEmail(email)
	if email == "" || currentPassword == "" || newPassword == "" {
		return errs.NewValidation("form", "all fields are required")
	}

	u, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if !pkgcrypto.VerifyPassword(currentPassword, u.PasswordHash) {
		return errs.ErrCurrentPassword
	}
	if !strongPassword(newPassword) {
		return errs.ErrWeakPassword
	}

	hash, err := pkgcrypto.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, u.ID, hash)
}

// strongPassword enforces the change-password policy: at least 8 characters
// with upper, lower, digit and symbol.
func strongPassword(pw string) bool {
	if len(pw) < minPasswordLen {
		return false
	}
	var upper, lower, digit, symbol bool
	for _, r := range pw {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		default:
			symbol = true
		}
	}
	return upper && lower && digit && symbol
}
