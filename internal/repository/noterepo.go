package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mvolkov/notekeeper/internal/model"
)

// NoteRepository provides owner-scoped access to notes.
type NoteRepository interface {
	// ListByOwner returns all notes owned by ownerID, with folder names
	// resolved for filed notes.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Note, error)
	// GetOwned loads a single note scoped to its owner.
	GetOwned(ctx context.Context, ownerID, noteID uuid.UUID) (*model.Note, error)
	// Create inserts a note.
	Create(ctx context.Context, n *model.Note) error
	// Update replaces title, body and folder reference of an owned note.
	// Returns errs.ErrNotFound when absent or foreign.
	Update(ctx context.Context, n *model.Note) error
	// Delete removes an owned note. Returns errs.ErrNotFound when absent
	// or foreign.
	Delete(ctx context.Context, ownerID, noteID uuid.UUID) error
}
