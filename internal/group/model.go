package group

import "time"

// Role is a member's permission level inside one group
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleMember || r == RoleAdmin
}

// Group represents a study group
type Group struct {
	ID         int64     `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	InviteCode string    `db:"invite_code" json:"invite_code"`
	CreatedBy  int64     `db:"created_by" json:"created_by"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// Summary is a group as seen by one of its members
type Summary struct {
	Group
	MembersCount int  `db:"members_count"`
	Role         Role `db:"role"`
}

// Membership is a (group, user, role) row
type Membership struct {
	ID       int64     `db:"id" json:"id"`
	GroupID  int64     `db:"group_id" json:"group_id"`
	UserID   int64     `db:"user_id" json:"user_id"`
	Role     Role      `db:"role" json:"role"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`
}

// Member is a membership joined with the user's identity
type Member struct {
	Membership

	// Populated from JOIN
	Name  string `db:"name" json:"name"`
	Email string `db:"email" json:"email"`
}
