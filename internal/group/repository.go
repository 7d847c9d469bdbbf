package group

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/fkhayef/studygroup/internal/database"
)

const groupColumns = `g.id, g.name, g.invite_code, g.created_by, g.created_at`

// Repository handles group and membership persistence
type Repository struct {
	db *sqlx.DB
}

// NewRepository creates a new group repository
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// CreateWithOwner inserts a group and the owner's admin membership in one
// transaction.
func (r *Repository) CreateWithOwner(ctx context.Context, name, inviteCode string, ownerID int64) (*Group, error) {
	g := &Group{
		Name:       name,
		InviteCode: inviteCode,
		CreatedBy:  ownerID,
		CreatedAt:  time.Now().UTC(),
	}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`
			INSERT INTO study_groups (name, invite_code, created_by, created_at)
			VALUES (?, ?, ?, ?)
			RETURNING id
		`)
		if err := tx.GetContext(ctx, &g.ID, query, g.Name, g.InviteCode, g.CreatedBy, g.CreatedAt); err != nil {
			return fmt.Errorf("failed to create group: %w", err)
		}

		_, err := insertMembership(ctx, tx, g.ID, ownerID, RoleAdmin, g.CreatedAt)
		return err
	})
	if err != nil {
		return nil, err
	}

	return g, nil
}

// InviteCodeExists reports whether any group already uses code
func (r *Repository) InviteCodeExists(ctx context.Context, code string) (bool, error) {
	var n int
	query := r.db.Rebind(`SELECT COUNT(*) FROM study_groups WHERE invite_code = ?`)
	if err := r.db.GetContext(ctx, &n, query, code); err != nil {
		return false, fmt.Errorf("failed to check invite code: %w", err)
	}
	return n > 0, nil
}

// GetByID retrieves a group by its ID
func (r *Repository) GetByID(ctx context.Context, id int64) (*Group, error) {
	query := r.db.Rebind(`SELECT ` + groupColumns + ` FROM study_groups g WHERE g.id = ?`)

	g := &Group{}
	if err := r.db.GetContext(ctx, g, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return g, nil
}

// GetByInviteCode retrieves a group by its invite code
func (r *Repository) GetByInviteCode(ctx context.Context, code string) (*Group, error) {
	query := r.db.Rebind(`SELECT ` + groupColumns + ` FROM study_groups g WHERE g.invite_code = ?`)

	g := &Group{}
	if err := r.db.GetContext(ctx, g, query, code); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group by invite code: %w", err)
	}
	return g, nil
}

const summarySelect = `
	SELECT ` + groupColumns + `, gm.role,
		(SELECT COUNT(*) FROM group_members c WHERE c.group_id = g.id) AS members_count
	FROM study_groups g
	JOIN group_members gm ON gm.group_id = g.id
`

// GetSummary returns the group as seen by userID, or nil if userID is not a
// member.
func (r *Repository) GetSummary(ctx context.Context, groupID, userID int64) (*Summary, error) {
	query := r.db.Rebind(summarySelect + ` WHERE g.id = ? AND gm.user_id = ?`)

	s := &Summary{}
	if err := r.db.GetContext(ctx, s, query, groupID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get group summary: %w", err)
	}
	return s, nil
}

// ListForUser retrieves every group userID belongs to, newest first
func (r *Repository) ListForUser(ctx context.Context, userID int64) ([]*Summary, error) {
	query := r.db.Rebind(summarySelect + ` WHERE gm.user_id = ? ORDER BY g.id DESC`)

	groups := []*Summary{}
	if err := r.db.SelectContext(ctx, &groups, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// Rename changes a group's name
func (r *Repository) Rename(ctx context.Context, id int64, name string) error {
	query := r.db.Rebind(`UPDATE study_groups SET name = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, name, id); err != nil {
		return fmt.Errorf("failed to rename group: %w", err)
	}
	return nil
}

// UpdateInviteCode replaces a group's invite code
func (r *Repository) UpdateInviteCode(ctx context.Context, id int64, code string) error {
	query := r.db.Rebind(`UPDATE study_groups SET invite_code = ? WHERE id = ?`)
	if _, err := r.db.ExecContext(ctx, query, code, id); err != nil {
		return fmt.Errorf("failed to update invite code: %w", err)
	}
	return nil
}

// Delete removes a group with its messages, files, tasks and memberships in
// one transaction and returns the stored names of the group's file blobs.
func (r *Repository) Delete(ctx context.Context, id int64) ([]string, error) {
	var storedNames []string

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		query := tx.Rebind(`SELECT stored_name FROM group_files WHERE group_id = ?`)
		if err := tx.SelectContext(ctx, &storedNames, query, id); err != nil {
			return fmt.Errorf("failed to list group files: %w", err)
		}

		for _, table := range []string{"messages", "group_files", "tasks", "group_members"} {
			query := tx.Rebind(`DELETE FROM ` + table + ` WHERE group_id = ?`)
			if _, err := tx.ExecContext(ctx, query, id); err != nil {
				return fmt.Errorf("failed to delete %s: %w", table, err)
			}
		}

		result, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM study_groups WHERE id = ?`), id)
		if err != nil {
			return fmt.Errorf("failed to delete group: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return ErrGroupNotFound
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return storedNames, nil
}

// GetMembership retrieves a membership row, or nil if userID is not in the group
func (r *Repository) GetMembership(ctx context.Context, groupID, userID int64) (*Membership, error) {
	query := r.db.Rebind(`
		SELECT id, group_id, user_id, role, joined_at
		FROM group_members
		WHERE group_id = ? AND user_id = ?
	`)

	m := &Membership{}
	if err := r.db.GetContext(ctx, m, query, groupID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get membership: %w", err)
	}
	return m, nil
}

// AddMembership inserts a membership row
func (r *Repository) AddMembership(ctx context.Context, groupID, userID int64, role Role) (*Membership, error) {
	return insertMembership(ctx, r.db, groupID, userID, role, time.Now().UTC())
}

func insertMembership(ctx context.Context, q sqlx.ExtContext, groupID, userID int64, role Role, joinedAt time.Time) (*Membership, error) {
	m := &Membership{
		GroupID:  groupID,
		UserID:   userID,
		Role:     role,
		JoinedAt: joinedAt,
	}

	query := q.Rebind(`
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`)
	if err := sqlx.GetContext(ctx, q, &m.ID, query, groupID, userID, string(role), joinedAt); err != nil {
		return nil, fmt.Errorf("failed to add membership: %w", err)
	}
	return m, nil
}

// AddMemberByEmail adds the user registered under email to the group. When no
// such user exists a placeholder account is created in the same transaction.
func (r *Repository) AddMemberByEmail(ctx context.Context, groupID int64, name, email, placeholderHash string) (*Member, error) {
	member := &Member{}

	err := database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var u struct {
			ID    int64  `db:"id"`
			Name  string `db:"name"`
			Email string `db:"email"`
		}

		err := tx.GetContext(ctx, &u, tx.Rebind(`SELECT id, name, email FROM users WHERE email = ?`), email)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			u.Name, u.Email = name, email
			query := tx.Rebind(`
				INSERT INTO users (name, email, password_hash, placeholder, created_at)
				VALUES (?, ?, ?, TRUE, ?)
				RETURNING id
			`)
			if err := tx.GetContext(ctx, &u.ID, query, name, email, placeholderHash, time.Now().UTC()); err != nil {
				return fmt.Errorf("failed to create placeholder user: %w", err)
			}
		case err != nil:
			return fmt.Errorf("failed to get user by email: %w", err)
		}

		var existing int
		query := tx.Rebind(`SELECT COUNT(*) FROM group_members WHERE group_id = ? AND user_id = ?`)
		if err := tx.GetContext(ctx, &existing, query, groupID, u.ID); err != nil {
			return fmt.Errorf("failed to check membership: %w", err)
		}
		if existing > 0 {
			return ErrAlreadyMember
		}

		m, err := insertMembership(ctx, tx, groupID, u.ID, RoleMember, time.Now().UTC())
		if err != nil {
			return err
		}

		member.Membership = *m
		member.Name = u.Name
		member.Email = u.Email
		return nil
	})
	if err != nil {
		return nil, err
	}

	return member, nil
}

// ListMembers retrieves the members of a group in join order
func (r *Repository) ListMembers(ctx context.Context, groupID int64) ([]*Member, error) {
	query := r.db.Rebind(`
		SELECT gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at, u.name, u.email
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ?
		ORDER BY gm.joined_at ASC, gm.id ASC
	`)

	members := []*Member{}
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	return members, nil
}

// GetMember retrieves one member with identity, or nil if absent
func (r *Repository) GetMember(ctx context.Context, groupID, userID int64) (*Member, error) {
	query := r.db.Rebind(`
		SELECT gm.id, gm.group_id, gm.user_id, gm.role, gm.joined_at, u.name, u.email
		FROM group_members gm
		JOIN users u ON u.id = gm.user_id
		WHERE gm.group_id = ? AND gm.user_id = ?
	`)

	m := &Member{}
	if err := r.db.GetContext(ctx, m, query, groupID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// UpdateRole changes a member's role
func (r *Repository) UpdateRole(ctx context.Context, groupID, userID int64, role Role) error {
	query := r.db.Rebind(`UPDATE group_members SET role = ? WHERE group_id = ? AND user_id = ?`)
	if _, err := r.db.ExecContext(ctx, query, string(role), groupID, userID); err != nil {
		return fmt.Errorf("failed to update member role: %w", err)
	}
	return nil
}

// RemoveMembership deletes a membership row and reports whether one existed
func (r *Repository) RemoveMembership(ctx context.Context, groupID, userID int64) (bool, error) {
	query := r.db.Rebind(`DELETE FROM group_members WHERE group_id = ? AND user_id = ?`)
	result, err := r.db.ExecContext(ctx, query, groupID, userID)
	if err != nil {
		return false, fmt.Errorf("failed to remove member: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return rowsAffected > 0, nil
}
