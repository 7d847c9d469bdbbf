package task

import "time"

const dateLayout = "2006-01-02"

// CreateTaskRequest represents the request body for creating a task
type CreateTaskRequest struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// UpdateTaskRequest changes only the fields that are present. An empty
// due_date clears it. is_done is accepted as an alias of completed.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Completed   *bool   `json:"completed,omitempty"`
	IsDone      *bool   `json:"is_done,omitempty"`
}

// TaskResponse represents the response for a single task
type TaskResponse struct {
	ID          int64    `json:"id"`
	GroupID     int64    `json:"group_id"`
	Title       string   `json:"title"`
	Description *string  `json:"description"`
	Priority    Priority `json:"priority"`
	DueDate     *string  `json:"due_date"`
	Completed   bool     `json:"completed"`
	IsDone      bool     `json:"is_done"`
	CreatedAt   string   `json:"created_at"`
}

// ToResponse converts a Task model to a TaskResponse DTO
func (t *Task) ToResponse() *TaskResponse {
	resp := &TaskResponse{
		ID:        t.ID,
		GroupID:   t.GroupID,
		Title:     t.Title,
		Priority:  t.Priority,
		Completed: t.Completed,
		IsDone:    t.Completed,
		CreatedAt: t.CreatedAt.UTC().Format(time.RFC3339),
	}
	if t.Description.Valid {
		resp.Description = &t.Description.String
	}
	if t.DueDate.Valid {
		due := t.DueDate.Time.Format(dateLayout)
		resp.DueDate = &due
	}
	return resp
}
