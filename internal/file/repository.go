package file

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const fileColumns = `id, group_id, stored_name, original_name, content_type, size_bytes, uploaded_by, uploaded_at`

// Repository handles file metadata persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new file repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts f and sets its ID
func (r *Repository) Create(ctx context.Context, f *File) error {
	query := r.db.Rebind(`
		INSERT INTO group_files (group_id, stored_name, original_name, content_type, size_bytes, uploaded_by, uploaded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.GetContext(ctx, &f.ID, query,
		f.GroupID, f.StoredName, f.OriginalName, f.ContentType, f.SizeBytes, f.UploadedBy, f.UploadedAt)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	return nil
}

// GetByID retrieves a file by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*File, error) {
	query := r.db.Rebind(`SELECT ` + fileColumns + ` FROM group_files WHERE id = ?`)

	f := &File{}
	if err := r.db.GetContext(ctx, f, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get file: %w", err)
	}
	return f, nil
}

// ListByGroup retrieves a group's files, newest first
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*File, error) {
	query := r.db.Rebind(`SELECT ` + fileColumns + ` FROM group_files WHERE group_id = ? ORDER BY id DESC`)

	files := []*File{}
	if err := r.db.SelectContext(ctx, &files, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

// Delete removes a file row
func (r *Repository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM group_files WHERE id = ?`), id); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
