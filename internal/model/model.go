// Package model defines domain entities used by services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Account statuses. Only active accounts may authenticate.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
	StatusDeleted   = "deleted"
)

// User represents an account. PasswordHash is the bcrypt digest of the
// password and is stripped before the record leaves the auth layer.
type User struct {
	ID           uuid.UUID // PK
	Email        string    // unique, stored lowercased
	PasswordHash []byte    // bcrypt digest, never serialized
	Status       string    // active | suspended | deleted
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity is the authenticated representation of a User with credential
// material removed. It is the only user shape that crosses the auth boundary.
type Identity struct {
	UserID uuid.UUID `json:"id"`
	Email  string    `json:"email"`
}

// Identity strips the credential fields from a User.
func (u *User) Identity() Identity {
	return Identity{UserID: u.ID, Email: u.Email}
}

// Folder groups notes within a single owner's namespace. Name is stored
// lowercased; (owner, name) is unique.
type Folder struct {
	ID          uuid.UUID  `json:"id"`
	OwnerID     uuid.UUID  `json:"-"`
	Name        string     `json:"name"`
	ParentID    *uuid.UUID `json:"parentId,omitempty"`
	Description string     `json:"description,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// Note belongs to exactly one owner. FolderID is nil for unfiled notes.
// FolderName is denormalized on read for the client's benefit.
type Note struct {
	ID         uuid.UUID  `json:"id"`
	OwnerID    uuid.UUID  `json:"-"`
	Title      string     `json:"title"`
	Body       string     `json:"body"`
	FolderID   *uuid.UUID `json:"folderId,omitempty"`
	FolderName string     `json:"folderName,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// Session maps an opaque token to an authenticated user. The stored row is
// the single source of truth for session validity.
type Session struct {
	Token     string
	UserID    uuid.UUID
	CreatedAt time.Time
	ExpiresAt time.Time
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}
