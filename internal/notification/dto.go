package notification

import (
	"net/url"
	"strconv"
	"time"
)

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// ListQuery selects one page of a user's inbox
type ListQuery struct {
	Page       int
	PerPage    int
	UnreadOnly bool
}

// ParseListQuery reads page, per_page and unread_only. Missing or out of
// range values fall back to the first page of defaultPerPage entries.
func ParseListQuery(values url.Values) ListQuery {
	page, _ := strconv.Atoi(values.Get("page"))
	perPage, _ := strconv.Atoi(values.Get("per_page"))
	unreadOnly, _ := strconv.ParseBool(values.Get("unread_only"))
	return ListQuery{Page: page, PerPage: perPage, UnreadOnly: unreadOnly}.normalized()
}

func (q ListQuery) normalized() ListQuery {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 || q.PerPage > maxPerPage {
		q.PerPage = defaultPerPage
	}
	return q
}

func (q ListQuery) offset() int {
	return (q.Page - 1) * q.PerPage
}

// NotificationResponse represents a notification in API responses
type NotificationResponse struct {
	ID                int64   `json:"id"`
	Message           string  `json:"message"`
	IsRead            bool    `json:"is_read"`
	RelatedEntityType *string `json:"related_entity_type,omitempty"`
	RelatedEntityID   *int64  `json:"related_entity_id,omitempty"`
	CreatedAt         string  `json:"created_at"`
}

// UnreadCountResponse carries the number of unread notifications
type UnreadCountResponse struct {
	UnreadCount int `json:"unread_count"`
}

// ToResponse converts a Notification model to a NotificationResponse DTO
func (n *Notification) ToResponse() *NotificationResponse {
	return &NotificationResponse{
		ID:                n.ID,
		Message:           n.Message,
		IsRead:            n.IsRead,
		RelatedEntityType: n.RelatedEntityType,
		RelatedEntityID:   n.RelatedEntityID,
		CreatedAt:         n.CreatedAt.UTC().Format(time.RFC3339),
	}
}
