package service

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
	"github.com/mvolkov/notekeeper/internal/repository"
)

// Note field constraints.
const (
	maxNoteTitle = 200
	maxNoteBody  = 10000
)

// NoteService provides owner-scoped note operations.
type NoteService interface {
	// List returns the caller's notes with folder names resolved.
	List(ctx context.Context, owner uuid.UUID) ([]model.Note, error)
	// Create adds a note; a nil folderID leaves it unfiled. A folder that is
	// absent or owned by someone else yields errs.ErrInvalidFolder.
	Create(ctx context.Context, owner uuid.UUID, title, body string, folderID *uuid.UUID) (*model.Note, error)
	// Update replaces title, body and folder reference of an owned note.
	Update(ctx context.Context, owner, noteID uuid.UUID, title, body string, folderID *uuid.UUID) (*model.Note, error)
	// Delete removes an owned note.
	Delete(ctx context.Context, owner, noteID uuid.UUID) error
}

type NoteServiceImpl struct {
	notes   repository.NoteRepository
	folders repository.FolderRepository
}

// NewNoteService constructs NoteService.
func NewNoteService(notes repository.NoteRepository, folders repository.FolderRepository) *NoteServiceImpl {
	return &NoteServiceImpl{notes: notes, folders: folders}
}

func validateNote(title, body string) (string, string, error) {
	title = strings.TrimSpace(title)
	body = strings.TrimSpace(body)
	if title == "" {
		return "", "", errs.NewValidation("title", "note title is required")
	}
	if utf8.RuneCountInString(title) > maxNoteTitle {
		return "", "", errs.NewValidation("title", "title cannot exceed 200 characters")
	}
	if utf8.RuneCountInString(body) > maxNoteBody {
		return "", "", errs.NewValidation("body", "note body cannot exceed 10,000 characters")
	}
	return title, body, nil
}

// checkFolder verifies a non-nil folder reference resolves to a folder owned
// by the caller. A note can never be filed under someone else's folder.
func (s *NoteServiceImpl) checkFolder(ctx context.Context, owner uuid.UUID, folderID *uuid.UUID) error {
	if folderID == nil {
		return nil
	}
	if _, err := s.folders.GetOwned(ctx, owner, *folderID); err != nil {
		if errors.Is(err, errs.ErrNotFound) {
			return errs.ErrInvalidFolder
		}
		return err
	}
	return nil
}

// List returns the caller's notes.
func (s *NoteServiceImpl) List(ctx context.Context, owner uuid.UUID) ([]model.Note, error) {
	return s.notes.ListByOwner(ctx, owner)
}

// Create validates input and inserts the note.
func (s *NoteServiceImpl) Create(ctx context.Context, owner uuid.UUID, title, body string, folderID *uuid.UUID) (*model.Note, error) {
	title, body, err := validateNote(title, body)
	if err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, owner, folderID); err != nil {
		return nil, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	n := &model.Note{
		ID:       id,
		OwnerID:  owner,
		Title:    title,
		Body:     body,
		FolderID: folderID,
	}
	if err := s.notes.Create(ctx, n); err != nil {
		return nil, err
	}
	return s.notes.GetOwned(ctx, owner, id)
}

// Update validates input and replaces an owned note's fields.
func (s *NoteServiceImpl) Update(ctx context.Context, owner, noteID uuid.UUID, title, body string, folderID *uuid.UUID) (*model.Note, error) {
	title, body, err := validateNote(title, body)
	if err != nil {
		return nil, err
	}
	if err := s.checkFolder(ctx, owner, folderID); err != nil {
		return nil, err
	}

	n := &model.Note{
		ID:       noteID,
		OwnerID:  owner,
		Title:    title,
		Body:     body,
		FolderID: folderID,
	}
	if err := s.notes.Update(ctx, n); err != nil {
		return nil, err
	}
	return s.notes.GetOwned(ctx, owner, noteID)
}

// Delete removes an owned note.
func (s *NoteServiceImpl) Delete(ctx context.Context, owner, noteID uuid.UUID) error {
	return s.notes.Delete(ctx, owner, noteID)
}
