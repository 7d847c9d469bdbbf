package message

import (
	"context"
	"database/sql"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/fkhayef/studygroup/pkg/apperror"
)

// Paging limits for ListByGroup
const (
	DefaultLimit     = 100
	MaxLimit         = 500
	MaxContentLength = 4000
)

// Common errors
var (
	ErrContentRequired = apperror.New(apperror.KindValidation, "content is required")
	ErrContentTooLong  = apperror.New(apperror.KindValidation, "content must be at most 4000 characters")
)

// Service handles the chat log of each group. Messages are append only.
type Service struct {
	repo *Repository
}

// NewService creates a new message service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns messages in posting order. Without afterID it returns the
// newest limit messages; with afterID it returns the next limit messages
// after it. A limit outside 1..MaxLimit falls back to DefaultLimit or MaxLimit.
func (s *Service) List(ctx context.Context, groupID, afterID int64, limit int) ([]*Message, error) {
	switch {
	case limit <= 0:
		limit = DefaultLimit
	case limit > MaxLimit:
		limit = MaxLimit
	}
	if afterID <= 0 {
		return s.repo.ListLatest(ctx, groupID, limit)
	}
	return s.repo.ListByGroup(ctx, groupID, afterID, limit)
}

// Create appends a message from author to the group's log
func (s *Service) Create(ctx context.Context, groupID, author int64, content string) (*Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrContentRequired
	}
	if utf8.RuneCountInString(content) > MaxContentLength {
		return nil, ErrContentTooLong
	}

	return s.repo.Create(ctx, &Message{
		GroupID:   groupID,
		UserID:    sql.NullInt64{Int64: author, Valid: author > 0},
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})
}
