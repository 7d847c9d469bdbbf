package testutil

import (
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
)

// CreateUser inserts a user row directly and returns its id. The password
// hash is not a valid bcrypt digest, so these users cannot log in.
func CreateUser(t *testing.T, db *sqlx.DB, name, email string) int64 {
	t.Helper()
	var id int64
	err := db.Get(&id, db.Rebind(`
		INSERT INTO users (name, email, password_hash, placeholder, created_at)
		VALUES (?, ?, 'x', FALSE, ?)
		RETURNING id
	`), name, email, time.Now().UTC())
	if err != nil {
		t.Fatalf("create user %s: %v", email, err)
	}
	return id
}

// CreateGroup inserts a group and an admin membership for ownerID
func CreateGroup(t *testing.T, db *sqlx.DB, name, code string, ownerID int64) int64 {
	t.Helper()
	now := time.Now().UTC()
	var id int64
	err := db.Get(&id, db.Rebind(`
		INSERT INTO study_groups (name, invite_code, created_by, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), name, code, ownerID, now)
	if err != nil {
		t.Fatalf("create group %s: %v", name, err)
	}
	AddMember(t, db, id, ownerID, "admin")
	return id
}

// AddMember inserts a membership row
func AddMember(t *testing.T, db *sqlx.DB, groupID, userID int64, role string) {
	t.Helper()
	_, err := db.Exec(db.Rebind(`
		INSERT INTO group_members (group_id, user_id, role, joined_at)
		VALUES (?, ?, ?, ?)
	`), groupID, userID, role, time.Now().UTC())
	if err != nil {
		t.Fatalf("add member %d to %d: %v", userID, groupID, err)
	}
}
