// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Common sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist or is not
	// owned by the caller. The two cases are intentionally indistinguishable.
	ErrNotFound = errors.New("not found")

	// ErrConflict indicates a unique constraint violation
	// (duplicate folder name within an owner's namespace).
	ErrConflict = errors.New("already exists")

	// ErrEmailTaken indicates a registration attempt with an email
	// that is already registered.
	ErrEmailTaken = errors.New("email already registered")

	// ErrInvalidCredentials indicates failed authentication. It covers both
	// "no such user" and "wrong password" to resist user enumeration.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrUnauthenticated indicates a missing, expired or destroyed session.
	ErrUnauthenticated = errors.New("not authenticated")

	// ErrCurrentPassword indicates the current password supplied to a
	// password change did not verify.
	ErrCurrentPassword = errors.New("current password is incorrect")

	// ErrWeakPassword indicates a new password that fails the strength policy.
	ErrWeakPassword = errors.New("new password does not meet requirements")

	// ErrInvalidParent indicates a folder parent reference that does not
	// resolve to a folder owned by the caller.
	ErrInvalidParent = errors.New("parent folder does not exist")

	// ErrInvalidFolder indicates a note folder reference that does not
	// resolve to a folder owned by the caller.
	ErrInvalidFolder = errors.New("folder does not exist")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrCredential indicates a structural hashing failure, never a mismatch.
	ErrCredential = errors.New("credential error")
)

// ValidationError carries per-field messages so the boundary can point the
// client at the offending form field.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation error"
	}
	parts := make([]string, 0, len(e.Fields))
	for f, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", f, msg))
	}
	sort.Strings(parts)
	return "validation: " + strings.Join(parts, "; ")
}

// NewValidation builds a ValidationError for a single field.
func NewValidation(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// AsValidation extracts a *ValidationError from an error chain.
func AsValidation(err error) (*ValidationError, bool) {
	var ve *ValidationError
	ok := errors.As(err, &ve)
	return ve, ok
}
