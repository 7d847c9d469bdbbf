package message

import "time"

// CreateMessageRequest represents the request to post a message
type CreateMessageRequest struct {
	Content string `json:"content" example:"Meet at the library at 5?"`
}

// Author identifies who posted a message. It is null once the account is gone.
type Author struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// MessageResponse represents a message in API responses
type MessageResponse struct {
	ID        int64   `json:"id"`
	GroupID   int64   `json:"group_id"`
	Content   string  `json:"content"`
	Author    *Author `json:"author"`
	CreatedAt string  `json:"created_at"`
}

// ToResponse converts a Message model to a MessageResponse DTO
func (m *Message) ToResponse() *MessageResponse {
	resp := &MessageResponse{
		ID:        m.ID,
		GroupID:   m.GroupID,
		Content:   m.Content,
		CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339),
	}
	if m.UserID.Valid {
		resp.Author = &Author{ID: m.UserID.Int64, Name: m.AuthorName.String}
	}
	return resp
}
