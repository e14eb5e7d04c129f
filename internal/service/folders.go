package service

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
	"github.com/mvolkov/notekeeper/internal/repository"
)

// Folder name constraints: letters, digits and spaces, 2-50 characters.
const (
	minFolderName  = 2
	maxFolderName  = 50
	maxDescription = 200
)

var folderNameRe = regexp.MustCompile(`^[a-zA-Z0-9 ]+$`)

// FolderService provides owner-scoped folder operations. Every call takes the
// requesting identity's user ID; identifiers supplied by the client never
// widen the scope.
type FolderService interface {
	// List returns the caller's folders.
	List(ctx context.Context, owner uuid.UUID) ([]model.Folder, error)
	// Create adds a folder. Duplicate (owner, name) yields errs.ErrConflict;
	// a parent that is absent or foreign yields errs.ErrInvalidParent.
	Create(ctx context.Context, owner uuid.UUID, name string, parentID *uuid.UUID, description string) (*model.Folder, error)
	// Rename changes an owned folder's name under the same constraints.
	Rename(ctx context.Context, owner, folderID uuid.UUID, name string) (*model.Folder, error)
	// Delete removes an owned folder and every note filed under it,
	// reporting the number of notes removed.
	Delete(ctx context.Context, owner, folderID uuid.UUID) (notesDeleted int64, err error)
}

type FolderServiceImpl struct {
	folders repository.FolderRepository
}

// NewFolderService constructs FolderService.
func NewFolderService(folders repository.FolderRepository) *FolderServiceImpl {
	return &FolderServiceImpl{folders: folders}
}

// normalizeFolderName lowercases and trims a folder name the way it is stored,
// which also makes the per-owner uniqueness check case-insensitive.
func normalizeFolderName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

func validateFolderName(name string) error {
	if utf8.RuneCountInString(name) < minFolderName {
		return errs.NewValidation("name", "folder name must be at least 2 characters long")
	}
	if utf8.RuneCountInString(name) > maxFolderName {
		return errs.NewValidation("name", "folder name cannot exceed 50 characters")
	}
	if !folderNameRe.MatchString(name) {
		return errs.NewValidation("name", "folder name can only contain letters, numbers, and spaces")
	}
	return nil
}

// List returns the caller's folders.
func (s *FolderServiceImpl) List(ctx context.Context, owner uuid.UUID) ([]model.Folder, error) {
	return s.folders.ListByOwner(ctx, owner)
}

// Create validates input, checks the parent reference and inserts the folder.
func (s *FolderServiceImpl) Create(ctx context.Context, owner uuid.UUID, name string, parentID *uuid.UUID, description string) (*model.Folder, error) {
	name = normalizeFolderName(name)
	if err := validateFolderName(name); err != nil {
		return nil, err
	}
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > maxDescription {
		return nil, errs.NewValidation("description", "description cannot exceed 200 characters")
	}
	if parentID != nil {
		if _, err := s.folders.GetOwned(ctx, owner, *parentID); err != nil {
			if errors.Is(err, errs.ErrNotFound) {
				return nil, errs.ErrInvalidParent
			}
			return nil, err
		}
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	f := &model.Folder{
		ID:          id,
		OwnerID:     owner,
		Name:        name,
		ParentID:    parentID,
		Description: description,
	}
	if err := s.folders.Create(ctx, f); err != nil {
		return nil, err
	}
	return s.folders.GetOwned(ctx, owner, id)
}

// Rename validates the new name and applies it to an owned folder.
func (s *FolderServiceImpl) Rename(ctx context.Context, owner, folderID uuid.UUID, name string) (*model.Folder, error) {
	name = normalizeFolderName(name)
	if err := validateFolderName(name); err != nil {
		return nil, err
	}
	if err := s.folders.UpdateName(ctx, owner, folderID, name); err != nil {
		return nil, err
	}
	return s.folders.GetOwned(ctx, owner, folderID)
}

// Delete cascades to the folder's notes; the repository performs both
// deletions in one transaction with the notes going first.
func (s *FolderServiceImpl) Delete(ctx context.Context, owner, folderID uuid.UUID) (int64, error) {
	return s.folders.DeleteCascade(ctx, owner, folderID)
}
