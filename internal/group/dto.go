package group

import "time"

// CreateGroupRequest represents the request to create a new group
type CreateGroupRequest struct {
	Name string `json:"name"`
}

// RenameGroupRequest represents the request to rename a group
type RenameGroupRequest struct {
	Name string `json:"name"`
}

// JoinRequest carries an invite code
type JoinRequest struct {
	Code string `json:"code"`
}

// AddMemberRequest represents the request to add someone by email
type AddMemberRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// UpdateRoleRequest represents the request to change a member's role
type UpdateRoleRequest struct {
	Role Role `json:"role"`
}

// GroupResponse represents a group as returned to one of its members
type GroupResponse struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	InviteCode   string `json:"invite_code"`
	MembersCount int    `json:"members_count"`
	Role         Role   `json:"role"`
	IsOwner      bool   `json:"is_owner"`
	CreatedAt    string `json:"created_at"`
}

// MemberResponse represents a member in a group response
type MemberResponse struct {
	ID       int64  `json:"id"`
	UserID   int64  `json:"user_id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     Role   `json:"role"`
	JoinedAt string `json:"joined_at"`
}

// ToResponse converts a Summary to a GroupResponse for the given viewer
func (s *Summary) ToResponse(viewerID int64) *GroupResponse {
	return &GroupResponse{
		ID:           s.ID,
		Name:         s.Name,
		InviteCode:   s.InviteCode,
		MembersCount: s.MembersCount,
		Role:         s.Role,
		IsOwner:      s.CreatedBy == viewerID,
		CreatedAt:    s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ToResponse converts a Member model to a MemberResponse DTO
func (m *Member) ToResponse() *MemberResponse {
	return &MemberResponse{
		ID:       m.ID,
		UserID:   m.UserID,
		Name:     m.Name,
		Email:    m.Email,
		Role:     m.Role,
		JoinedAt: m.JoinedAt.UTC().Format(time.RFC3339),
	}
}
