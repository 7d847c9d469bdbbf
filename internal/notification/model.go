package notification

import "time"

// EntityGroup marks notifications that point at a study group
const EntityGroup = "GROUP"

// Notification is an entry in a user's inbox
type Notification struct {
	ID                int64     `db:"id"`
	RecipientID       int64     `db:"recipient_id"`
	Message           string    `db:"message"`
	IsRead            bool      `db:"is_read"`
	RelatedEntityType *string   `db:"related_entity_type"`
	RelatedEntityID   *int64    `db:"related_entity_id"`
	CreatedAt         time.Time `db:"created_at"`
}
