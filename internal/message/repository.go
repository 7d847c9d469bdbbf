package message

import (
	"context"
	"fmt"
	"slices"

	"github.com/jmoiron/sqlx"
)

const selectMessages = `
	SELECT m.id, m.group_id, m.user_id, u.name AS author_name, m.content, m.created_at
	FROM messages m
	LEFT JOIN users u ON u.id = m.user_id
`

// Repository handles message persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new message repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a message and returns it with its author's name
func (r *Repository) Create(ctx context.Context, m *Message) (*Message, error) {
	var id int64
	query := r.db.Rebind(`
		INSERT INTO messages (group_id, user_id, content, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	if err := r.db.GetContext(ctx, &id, query, m.GroupID, m.UserID, m.Content, m.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	created := &Message{}
	if err := r.db.GetContext(ctx, created, r.db.Rebind(selectMessages+` WHERE m.id = ?`), id); err != nil {
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return created, nil
}

// ListByGroup returns up to limit messages of a group with an id greater than
// afterID, oldest first
func (r *Repository) ListByGroup(ctx context.Context, groupID, afterID int64, limit int) ([]*Message, error) {
	query := r.db.Rebind(selectMessages + `
		WHERE m.group_id = ? AND m.id > ?
		ORDER BY m.id ASC
		LIMIT ?
	`)

	messages := []*Message{}
	if err := r.db.SelectContext(ctx, &messages, query, groupID, afterID, limit); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// ListLatest returns the newest limit messages of a group, oldest first
func (r *Repository) ListLatest(ctx context.Context, groupID int64, limit int) ([]*Message, error) {
	query := r.db.Rebind(selectMessages + `
		WHERE m.group_id = ?
		ORDER BY m.id DESC
		LIMIT ?
	`)

	messages := []*Message{}
	if err := r.db.SelectContext(ctx, &messages, query, groupID, limit); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	slices.Reverse(messages)
	return messages, nil
}
