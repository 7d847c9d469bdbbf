package message

import (
	"database/sql"
	"time"
)

// Message is one entry of a group's chat log
type Message struct {
	ID         int64          `db:"id"`
	GroupID    int64          `db:"group_id"`
	UserID     sql.NullInt64  `db:"user_id"`
	AuthorName sql.NullString `db:"author_name"`
	Content    string         `db:"content"`
	CreatedAt  time.Time      `db:"created_at"`
}
