package task

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

const taskColumns = `id, group_id, title, description, priority, due_date, completed, created_at`

// Repository handles task data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new task repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts t and sets its ID
func (r *Repository) Create(ctx context.Context, t *Task) error {
	query := r.db.Rebind(`
		INSERT INTO tasks (group_id, title, description, priority, due_date, completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	err := r.db.GetContext(ctx, &t.ID, query,
		t.GroupID, t.Title, t.Description, string(t.Priority), t.DueDate, t.Completed, t.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetInGroup retrieves a task only if it belongs to groupID
func (r *Repository) GetInGroup(ctx context.Context, id, groupID int64) (*Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE id = ? AND group_id = ?`)

	t := &Task{}
	if err := r.db.GetContext(ctx, t, query, id, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return t, nil
}

// ListByGroup retrieves a group's tasks, newest first
func (r *Repository) ListByGroup(ctx context.Context, groupID int64) ([]*Task, error) {
	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE group_id = ? ORDER BY id DESC`)

	tasks := []*Task{}
	if err := r.db.SelectContext(ctx, &tasks, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Patch carries the columns an update touches. Nil pointers keep the stored
// value. Description and DueDate are written only when their Set flag is on,
// so they can also be cleared to NULL.
type Patch struct {
	Title          *string
	Priority       *string
	Completed      *bool
	Description    sql.NullString
	SetDescription bool
	DueDate        sql.NullTime
	SetDueDate     bool
}

// Update applies p in a single statement and reports whether the task exists
// in the group. Concurrent patches touching different columns do not
// overwrite each other.
func (r *Repository) Update(ctx context.Context, id, groupID int64, p Patch) (bool, error) {
	query := r.db.Rebind(`
		UPDATE tasks SET
			title = COALESCE(?, title),
			description = CASE WHEN ? THEN ? ELSE description END,
			priority = COALESCE(?, priority),
			due_date = CASE WHEN ? THEN ? ELSE due_date END,
			completed = COALESCE(?, completed)
		WHERE id = ? AND group_id = ?
	`)
	result, err := r.db.ExecContext(ctx, query,
		p.Title,
		p.SetDescription, p.Description,
		p.Priority,
		p.SetDueDate, p.DueDate,
		p.Completed,
		id, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to update task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}

// Delete removes a task from a group and reports whether it existed
func (r *Repository) Delete(ctx context.Context, id, groupID int64) (bool, error) {
	result, err := r.db.ExecContext(ctx, r.db.Rebind(`DELETE FROM tasks WHERE id = ? AND group_id = ?`), id, groupID)
	if err != nil {
		return false, fmt.Errorf("failed to delete task: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
