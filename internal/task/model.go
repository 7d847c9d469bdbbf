package task

import (
	"database/sql"
	"time"
)

// Priority orders tasks by urgency
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// ParsePriority maps free input to a Priority. Unknown values become normal.
func ParsePriority(s string) Priority {
	switch p := Priority(s); p {
	case PriorityLow, PriorityNormal, PriorityHigh:
		return p
	default:
		return PriorityNormal
	}
}

// Task represents a to-do item owned by a group
type Task struct {
	ID          int64          `db:"id"`
	GroupID     int64          `db:"group_id"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
	Priority    Priority       `db:"priority"`
	DueDate     sql.NullTime   `db:"due_date"`
	Completed   bool           `db:"completed"`
	CreatedAt   time.Time      `db:"created_at"`
}
