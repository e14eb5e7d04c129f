package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
)

// NoteRepo implements NoteRepository using PostgreSQL.
type NoteRepo struct{ db *DB }

// NewNoteRepo constructs a note repository.
func NewNoteRepo(db *DB) *NoteRepo { return &NoteRepo{db: db} }

// ListByOwner returns all notes owned by ownerID with folder names resolved.
func (r *NoteRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Note, error) {
	const q = `
SELECT n.id, n.owner_id, n.title, n.body, n.folder_id, COALESCE(f.name, ''), n.created_at, n.updated_at
FROM notes n
LEFT JOIN folders f ON f.id = n.folder_id
WHERE n.owner_id=$1
ORDER BY n.updated_at DESC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Note{}
	for rows.Next() {
		var n model.Note
		if err := rows.Scan(&n.ID, &n.OwnerID, &n.Title, &n.Body, &n.FolderID, &n.FolderName, &n.CreatedAt, &n.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// GetOwned selects a single note scoped to its owner.
func (r *NoteRepo) GetOwned(ctx context.Context, ownerID, noteID uuid.UUID) (*model.Note, error) {
	const q = `
SELECT n.id, n.owner_id, n.title, n.body, n.folder_id, COALESCE(f.name, ''), n.created_at, n.updated_at
FROM notes n
LEFT JOIN folders f ON f.id = n.folder_id
WHERE n.id=$1 AND n.owner_id=$2`
	var n model.Note
	err := r.db.Pool.QueryRow(ctx, q, noteID, ownerID).
		Scan(&n.ID, &n.OwnerID, &n.Title, &n.Body, &n.FolderID, &n.FolderName, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &n, nil
}

// Create inserts a note row.
func (r *NoteRepo) Create(ctx context.Context, n *model.Note) error {
	const q = `
INSERT INTO notes (id, owner_id, title, body, folder_id)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, n.ID, n.OwnerID, n.Title, n.Body, n.FolderID)
	if isForeignKeyViolation(err) {
		return errs.ErrInvalidFolder
	}
	return err
}

// Update replaces title, body and folder reference of an owned note.
func (r *NoteRepo) Update(ctx context.Context, n *model.Note) error {
	const q = `
UPDATE notes SET title=$3, body=$4, folder_id=$5, updated_at=now()
WHERE id=$1 AND owner_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, n.ID, n.OwnerID, n.Title, n.Body, n.FolderID)
	if isForeignKeyViolation(err) {
		return errs.ErrInvalidFolder
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// Delete removes an owned note.
func (r *NoteRepo) Delete(ctx context.Context, ownerID, noteID uuid.UUID) error {
	const q = `DELETE FROM notes WHERE id=$1 AND owner_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, noteID, ownerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}
