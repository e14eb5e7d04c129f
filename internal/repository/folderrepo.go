package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/mvolkov/notekeeper/internal/model"
)

// FolderRepository provides owner-scoped access to folders. Every operation
// that takes an ownerID filters by it; a folder belonging to someone else is
// indistinguishable from an absent one.
type FolderRepository interface {
	// ListByOwner returns all folders owned by ownerID.
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Folder, error)
	// GetOwned loads a single folder scoped to its owner.
	// Returns errs.ErrNotFound when absent or foreign.
	GetOwned(ctx context.Context, ownerID, folderID uuid.UUID) (*model.Folder, error)
	// Create inserts a folder. Returns errs.ErrConflict when (owner, name)
	// already exists.
	Create(ctx context.Context, f *model.Folder) error
	// UpdateName renames an owned folder. Returns errs.ErrNotFound when
	// absent or foreign, errs.ErrConflict on a duplicate name.
	UpdateName(ctx context.Context, ownerID, folderID uuid.UUID, name string) error
	// DeleteCascade removes every note filed under the folder and then the
	// folder itself as one transaction, reporting the number of notes removed.
	DeleteCascade(ctx context.Context, ownerID, folderID uuid.UUID) (notesDeleted int64, err error)
}
