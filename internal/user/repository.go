package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

const userColumns = `id, name, email, password_hash, placeholder, created_at`

// Repository handles user data persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new user repository with database dependency injected
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new user and returns it with its generated id
func (r *Repository) Create(ctx context.Context, name, email, passwordHash string) (*User, error) {
	u := &User{
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}

	query := r.db.Rebind(`
		INSERT INTO users (name, email, password_hash, placeholder, created_at)
		VALUES (?, ?, ?, FALSE, ?)
		RETURNING id
	`)
	if err := r.db.GetContext(ctx, &u.ID, query, u.Name, u.Email, u.PasswordHash, u.CreatedAt); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return u, nil
}

// Claim turns a placeholder account into a regular one. It returns nil when
// the row is no longer a placeholder.
func (r *Repository) Claim(ctx context.Context, id int64, name, passwordHash string) (*User, error) {
	query := r.db.Rebind(`
		UPDATE users
		SET name = ?, password_hash = ?, placeholder = FALSE
		WHERE id = ? AND placeholder = TRUE
	`)
	result, err := r.db.ExecContext(ctx, query, name, passwordHash, id)
	if err != nil {
		return nil, fmt.Errorf("failed to claim user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, nil
	}

	return r.GetByID(ctx, id)
}

// GetByID retrieves a user by their ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE id = ?`)

	u := &User{}
	if err := r.db.GetContext(ctx, u, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return u, nil
}

// GetByEmail retrieves a user by their normalized email
func (r *Repository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := r.db.Rebind(`SELECT ` + userColumns + ` FROM users WHERE email = ?`)

	u := &User{}
	if err := r.db.GetContext(ctx, u, query, email); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return u, nil
}
