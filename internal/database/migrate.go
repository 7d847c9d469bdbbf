package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"
)

// schema is written once and specialised per dialect through the tokens
// {{pk}} and {{ts}}.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id {{pk}},
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		placeholder BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS study_groups (
		id {{pk}},
		name TEXT NOT NULL,
		invite_code TEXT NOT NULL UNIQUE,
		created_by BIGINT NOT NULL REFERENCES users(id),
		created_at {{ts}}
	)`,
	`CREATE TABLE IF NOT EXISTS group_members (
		id {{pk}},
		group_id BIGINT NOT NULL REFERENCES study_groups(id) ON DELETE CASCADE,
		user_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		role TEXT NOT NULL DEFAULT 'member' CHECK (role IN ('member', 'admin')),
		joined_at {{ts}},
		UNIQUE (group_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_group_members_user ON group_members (user_id)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id {{pk}},
		group_id BIGINT NOT NULL REFERENCES study_groups(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		priority TEXT NOT NULL DEFAULT 'normal',
		due_date DATE,
		completed BOOLEAN NOT NULL DEFAULT FALSE,
		created_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_group ON tasks (group_id)`,
	`CREATE TABLE IF NOT EXISTS group_files (
		id {{pk}},
		group_id BIGINT NOT NULL REFERENCES study_groups(id) ON DELETE CASCADE,
		stored_name TEXT NOT NULL UNIQUE,
		original_name TEXT NOT NULL,
		content_type TEXT NOT NULL DEFAULT '',
		size_bytes BIGINT NOT NULL DEFAULT 0,
		uploaded_by BIGINT REFERENCES users(id) ON DELETE SET NULL,
		uploaded_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_group_files_group ON group_files (group_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id {{pk}},
		group_id BIGINT NOT NULL REFERENCES study_groups(id) ON DELETE CASCADE,
		user_id BIGINT REFERENCES users(id) ON DELETE SET NULL,
		content TEXT NOT NULL,
		created_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_group ON messages (group_id, id)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id {{pk}},
		recipient_id BIGINT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		message TEXT NOT NULL,
		is_read BOOLEAN NOT NULL DEFAULT FALSE,
		related_entity_type TEXT,
		related_entity_id BIGINT,
		created_at {{ts}}
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications (recipient_id, is_read)`,
}

var dialects = map[string]*strings.Replacer{
	DriverPostgres: strings.NewReplacer(
		"{{pk}}", "BIGSERIAL PRIMARY KEY",
		"{{ts}}", "TIMESTAMPTZ NOT NULL DEFAULT NOW()",
	),
	DriverSQLite: strings.NewReplacer(
		"{{pk}}", "INTEGER PRIMARY KEY AUTOINCREMENT",
		"{{ts}}", "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP",
	),
}

// Migrate creates all tables and indexes that do not exist yet
func Migrate(ctx context.Context, db *sqlx.DB) error {
	dialect, ok := dialects[db.DriverName()]
	if !ok {
		return fmt.Errorf("no schema for driver %q", db.DriverName())
	}

	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, dialect.Replace(stmt)); err != nil {
			return fmt.Errorf("failed to apply migration: %w", err)
		}
	}
	return nil
}
