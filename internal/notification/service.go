package notification

import (
	"context"
	"fmt"

	"github.com/fkhayef/studygroup/pkg/apperror"
)

// Common errors
var (
	ErrNotificationNotFound = apperror.New(apperror.KindNotFound, "notification not found")
	ErrNotRecipient         = apperror.New(apperror.KindForbidden, "not the recipient of this notification")
)

// Service keeps each user's inbox of membership changes
type Service struct {
	repo *Repository
}

// NewService creates a new notification service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns one page of a user's notifications, newest first, and the
// total number matching the query
func (s *Service) List(ctx context.Context, recipientID int64, q ListQuery) ([]*Notification, int, error) {
	q = q.normalized()
	return s.repo.ListByRecipient(ctx, recipientID, q.PerPage, q.offset(), q.UnreadOnly)
}

// MarkAsRead marks one of the user's notifications as read
func (s *Service) MarkAsRead(ctx context.Context, id, userID int64) error {
	n, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if n == nil {
		return ErrNotificationNotFound
	}
	if n.RecipientID != userID {
		return ErrNotRecipient
	}

	return s.repo.MarkAsRead(ctx, id)
}

// MarkAllAsRead marks every notification of the user as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID int64) error {
	return s.repo.MarkAllAsRead(ctx, userID)
}

// UnreadCount returns how many notifications the user has not read
func (s *Service) UnreadCount(ctx context.Context, userID int64) (int, error) {
	return s.repo.CountUnread(ctx, userID)
}

// NotifyAddedToGroup tells a user an admin added them to a group
func (s *Service) NotifyAddedToGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) error {
	return s.notifyGroup(ctx, recipientID, groupID, "You have been added to the group: "+groupName)
}

// NotifyRemovedFromGroup tells a user an admin removed them from a group
func (s *Service) NotifyRemovedFromGroup(ctx context.Context, recipientID int64, groupName string, groupID int64) error {
	return s.notifyGroup(ctx, recipientID, groupID, "You have been removed from the group: "+groupName)
}

// NotifyRoleChanged tells a user their role in a group changed
func (s *Service) NotifyRoleChanged(ctx context.Context, recipientID int64, groupName string, groupID int64, role string) error {
	return s.notifyGroup(ctx, recipientID, groupID, fmt.Sprintf("Your role in %s is now %s", groupName, role))
}

func (s *Service) notifyGroup(ctx context.Context, recipientID, groupID int64, message string) error {
	entityType := EntityGroup
	_, err := s.repo.Create(ctx, recipientID, message, &entityType, &groupID)
	return err
}
