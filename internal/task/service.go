package task

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/fkhayef/studygroup/pkg/apperror"
)

// Common errors
var (
	ErrTaskNotFound  = apperror.New(apperror.KindNotFound, "task not found")
	ErrTitleRequired = apperror.New(apperror.KindValidation, "title is required")
	ErrInvalidDate   = apperror.New(apperror.KindValidation, "invalid due_date, use YYYY-MM-DD")
)

// Service handles task business logic. Callers are expected to have checked
// group membership already.
type Service struct {
	repo *Repository
}

// NewService creates a new task service
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// List returns a group's tasks, newest first
func (s *Service) List(ctx context.Context, groupID int64) ([]*Task, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// Create adds a task to a group
func (s *Service) Create(ctx context.Context, groupID int64, req *CreateTaskRequest) (*Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}

	t := &Task{
		GroupID:   groupID,
		Title:     title,
		Priority:  PriorityNormal,
		CreatedAt: time.Now().UTC(),
	}
	if req.Description != nil {
		t.Description = description(*req.Description)
	}
	if req.Priority != nil {
		t.Priority = ParsePriority(strings.ToLower(strings.TrimSpace(*req.Priority)))
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		t.DueDate = due
	}

	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Update applies the fields present in req to a task of the group
func (s *Service) Update(ctx context.Context, id, groupID int64, req *UpdateTaskRequest) (*Task, error) {
	var patch Patch
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, ErrTitleRequired
		}
		patch.Title = &title
	}
	if req.Description != nil {
		patch.Description = description(*req.Description)
		patch.SetDescription = true
	}
	if req.Priority != nil {
		priority := string(ParsePriority(strings.ToLower(strings.TrimSpace(*req.Priority))))
		patch.Priority = &priority
	}
	if req.DueDate != nil {
		due, err := parseDueDate(*req.DueDate)
		if err != nil {
			return nil, err
		}
		patch.DueDate = due
		patch.SetDueDate = true
	}
	patch.Completed = req.IsDone
	if req.Completed != nil {
		patch.Completed = req.Completed
	}

	found, err := s.repo.Update(ctx, id, groupID, patch)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrTaskNotFound
	}

	t, err := s.repo.GetInGroup(ctx, id, groupID)
	if err != nil {
		return nil, err
	}
	if t == nil {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

// Delete removes a task of the group
func (s *Service) Delete(ctx context.Context, id, groupID int64) error {
	deleted, err := s.repo.Delete(ctx, id, groupID)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrTaskNotFound
	}
	return nil
}

// description stores the text as given. Blank input maps to NULL.
func description(raw string) sql.NullString {
	if strings.TrimSpace(raw) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: raw, Valid: true}
}

// parseDueDate accepts YYYY-MM-DD. Blank input clears the date.
func parseDueDate(raw string) (sql.NullTime, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return sql.NullTime{}, nil
	}
	due, err := time.Parse(dateLayout, raw)
	if err != nil {
		return sql.NullTime{}, ErrInvalidDate
	}
	return sql.NullTime{Time: due, Valid: true}, nil
}
