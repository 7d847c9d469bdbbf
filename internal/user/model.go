package user

import "time"

// User represents an account. Placeholder accounts are created when an admin
// adds someone by email who has not registered yet; they cannot log in until
// the owner of the email registers and claims them.
type User struct {
	ID           int64     `db:"id" json:"id"`
	Name         string    `db:"name" json:"name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	Placeholder  bool      `db:"placeholder" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}
