package postgres

import (
	"context"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/mvolkov/notekeeper/internal/errs"
	"github.com/mvolkov/notekeeper/internal/model"
)

// FolderRepo implements FolderRepository using PostgreSQL.
type FolderRepo struct{ db *DB }

// NewFolderRepo constructs a folder repository.
func NewFolderRepo(db *DB) *FolderRepo { return &FolderRepo{db: db} }

const folderColumns = `id, owner_id, name, parent_id, description, created_at, updated_at`

// ListByOwner returns all folders owned by ownerID.
func (r *FolderRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]model.Folder, error) {
	const q = `
SELECT ` + folderColumns + `
FROM folders WHERE owner_id=$1
ORDER BY name ASC`
	rows, err := r.db.Pool.Query(ctx, q, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Folder{}
	for rows.Next() {
		var f model.Folder
		if err := rows.Scan(&f.ID, &f.OwnerID, &f.Name, &f.ParentID, &f.Description, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// GetOwned selects a single folder scoped to its owner.
func (r *FolderRepo) GetOwned(ctx context.Context, ownerID, folderID uuid.UUID) (*model.Folder, error) {
	const q = `
SELECT ` + folderColumns + `
FROM folders WHERE id=$1 AND owner_id=$2`
	var f model.Folder
	err := r.db.Pool.QueryRow(ctx, q, folderID, ownerID).
		Scan(&f.ID, &f.OwnerID, &f.Name, &f.ParentID, &f.Description, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// Create inserts a folder row.
func (r *FolderRepo) Create(ctx context.Context, f *model.Folder) error {
	const q = `
INSERT INTO folders (id, owner_id, name, parent_id, description)
VALUES ($1, $2, $3, $4, $5)`
	_, err := r.db.Pool.Exec(ctx, q, f.ID, f.OwnerID, f.Name, f.ParentID, f.Description)
	if isUniqueViolation(err) {
		return errs.ErrConflict
	}
	if isForeignKeyViolation(err) {
		return errs.ErrInvalidParent
	}
	return err
}

// UpdateName renames an owned folder.
func (r *FolderRepo) UpdateName(ctx context.Context, ownerID, folderID uuid.UUID, name string) error {
	const q = `
UPDATE folders SET name=$3, updated_at=now() WHERE id=$1 AND owner_id=$2`
	tag, err := r.db.Pool.Exec(ctx, q, folderID, ownerID, name)
	if isUniqueViolation(err) {
		return errs.ErrConflict
	}
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return errs.ErrNotFound
	}
	return nil
}

// DeleteCascade removes the folder's notes and then the folder itself inside
// a single transaction. Notes go first so a partial failure can never leave a
// note referencing a missing folder. Child folders survive with their parent
// reference cleared; the locked parent row keeps concurrent child creation
// from racing the delete.
func (r *FolderRepo) DeleteCascade(ctx context.Context, ownerID, folderID uuid.UUID) (notesDeleted int64, err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = e
		}
	}()

	const sel = `SELECT id FROM folders WHERE id=$1 AND owner_id=$2 FOR UPDATE`
	const delNotes = `DELETE FROM notes WHERE folder_id=$1 AND owner_id=$2`
	const unparent = `UPDATE folders SET parent_id=NULL, updated_at=now() WHERE parent_id=$1 AND owner_id=$2`
	const delFolder = `DELETE FROM folders WHERE id=$1 AND owner_id=$2`

	var id uuid.UUID
	if err = tx.QueryRow(ctx, sel, folderID, ownerID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, errs.ErrNotFound
		}
		return 0, err
	}

	tag, err := tx.Exec(ctx, delNotes, folderID, ownerID)
	if err != nil {
		return 0, err
	}
	notesDeleted = tag.RowsAffected()

	if _, err = tx.Exec(ctx, unparent, folderID, ownerID); err != nil {
		return 0, err
	}
	if _, err = tx.Exec(ctx, delFolder, folderID, ownerID); err != nil {
		return 0, err
	}
	return notesDeleted, nil
}
