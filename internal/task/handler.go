package task

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/response"
)

// Handler handles HTTP requests for a group's tasks. It is mounted under
// /groups/{id}/tasks behind the group membership check.
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates a new task handler
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes returns the router for task endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Patch("/{taskId}", h.Update)
	r.Delete("/{taskId}", h.Delete)

	return r
}

func groupID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// List handles GET /groups/{id}/tasks
// @Summary      List tasks
// @Description  Tasks of a group, newest first
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]TaskResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id}/tasks [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	tasks, err := h.service.List(r.Context(), gid)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	taskResponses := make([]*TaskResponse, len(tasks))
	for i, t := range tasks {
		taskResponses[i] = t.ToResponse()
	}

	response.JSON(w, http.StatusOK, taskResponses)
}

// Create handles POST /groups/{id}/tasks
// @Summary      Create a task
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        request body CreateTaskRequest true "Task creation request"
// @Success      201 {object} response.APIResponse{data=TaskResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups/{id}/tasks [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	var req CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.Create(r.Context(), gid, &req)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	response.JSON(w, http.StatusCreated, t.ToResponse())
}

// Update handles PATCH /groups/{id}/tasks/{taskId}
// @Summary      Update a task
// @Description  Only fields present in the body change
// @Tags         tasks
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        taskId path int true "Task ID"
// @Param        request body UpdateTaskRequest true "Fields to change"
// @Success      200 {object} response.APIResponse{data=TaskResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/tasks/{taskId} [patch]
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	taskID, err := strconv.ParseInt(chi.URLParam(r, "taskId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid task ID")
		return
	}

	var req UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	t, err := h.service.Update(r.Context(), taskID, gid, &req)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	response.JSON(w, http.StatusOK, t.ToResponse())
}

// Delete handles DELETE /groups/{id}/tasks/{taskId}
// @Summary      Delete a task
// @Tags         tasks
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        taskId path int true "Task ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/tasks/{taskId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	taskID, err := strconv.ParseInt(chi.URLParam(r, "taskId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid task ID")
		return
	}

	if err := h.service.Delete(r.Context(), taskID, gid); err != nil {
		response.FromError(w, h.log, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}
