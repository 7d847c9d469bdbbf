package message

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/middleware"
	"github.com/fkhayef/studygroup/pkg/response"
)

// Handler handles HTTP requests for a group's chat log. It is mounted under
// /groups/{id}/messages behind the group membership check.
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates a new message handler
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log}
}

// Routes returns the router for message endpoints
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Create)

	return r
}

func queryInt(r *http.Request, key string) (int64, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return 0, nil
	}
	return strconv.ParseInt(v, 10, 64)
}

// List handles GET /groups/{id}/messages
// @Summary      List messages
// @Description  Latest messages of a group, oldest first. Pass after_id to poll for newer messages.
// @Tags         messages
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        after_id query int false "Only messages with a greater id"
// @Param        limit query int false "Maximum number of messages (default 100, max 500)"
// @Success      200 {object} response.APIResponse{data=[]MessageResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id}/messages [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	gid, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	afterID, err := queryInt(r, "after_id")
	if err != nil {
		response.BadRequest(w, "Invalid after_id")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		response.BadRequest(w, "Invalid limit")
		return
	}

	messages, err := h.service.List(r.Context(), gid, afterID, int(limit))
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	messageResponses := make([]*MessageResponse, len(messages))
	for i, m := range messages {
		messageResponses[i] = m.ToResponse()
	}

	response.JSON(w, http.StatusOK, messageResponses)
}

// Create handles POST /groups/{id}/messages
// @Summary      Post a message
// @Tags         messages
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        request body CreateMessageRequest true "Message"
// @Success      201 {object} response.APIResponse{data=MessageResponse}
// @Failure      400 {object} response.APIResponse
// @Router       /groups/{id}/messages [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}
	gid, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	var req CreateMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.BadRequest(w, "Invalid request body")
		return
	}

	m, err := h.service.Create(r.Context(), gid, userID, req.Content)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	response.JSON(w, http.StatusCreated, m.ToResponse())
}
