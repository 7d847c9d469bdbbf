package file

import (
	"errors"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/middleware"
	"github.com/fkhayef/studygroup/pkg/response"
)

// multipartOverhead is the room left for form boundaries and headers on top
// of the file size limit.
const multipartOverhead = 1 << 20

// Handler handles HTTP requests for group files
type Handler struct {
	service  *Service
	maxBytes int64
	log      *zap.Logger
}

// NewHandler creates a new file handler
func NewHandler(service *Service, maxBytes int64, log *zap.Logger) *Handler {
	return &Handler{service: service, maxBytes: maxBytes, log: log}
}

// Routes returns the router mounted under /groups/{id}/files behind the group
// membership check
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.List)
	r.Post("/", h.Upload)
	r.Delete("/{fileId}", h.Delete)

	return r
}

func groupID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// List handles GET /groups/{id}/files
// @Summary      List files
// @Description  Files of a group, newest upload first
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Success      200 {object} response.APIResponse{data=[]FileResponse}
// @Failure      403 {object} response.APIResponse
// @Router       /groups/{id}/files [get]
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	files, err := h.service.List(r.Context(), gid)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	fileResponses := make([]*FileResponse, len(files))
	for i, f := range files {
		fileResponses[i] = f.ToResponse()
	}

	response.JSON(w, http.StatusOK, fileResponses)
}

// Upload handles POST /groups/{id}/files
// @Summary      Upload a file
// @Tags         files
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        file formData file true "File to upload"
// @Success      201 {object} response.APIResponse{data=FileResponse}
// @Failure      400 {object} response.APIResponse
// @Failure      413 {object} response.APIResponse
// @Router       /groups/{id}/files [post]
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}
	gid, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}

	if h.maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBytes+multipartOverhead)
	}

	part, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			response.FromError(w, h.log, ErrFileTooLarge)
		case errors.Is(err, http.ErrMissingFile):
			response.FromError(w, h.log, ErrFileRequired)
		default:
			response.BadRequest(w, "Invalid multipart form")
		}
		return
	}
	defer part.Close()

	if h.maxBytes > 0 && header.Size > h.maxBytes {
		response.FromError(w, h.log, ErrFileTooLarge)
		return
	}

	f, err := h.service.Upload(r.Context(), gid, userID, header.Filename, header.Header.Get("Content-Type"), part)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}

	response.JSON(w, http.StatusCreated, f.ToResponse())
}

// Delete handles DELETE /groups/{id}/files/{fileId}
// @Summary      Delete a file
// @Tags         files
// @Produce      json
// @Security     BearerAuth
// @Param        id path int true "Group ID"
// @Param        fileId path int true "File ID"
// @Success      200 {object} response.APIResponse
// @Failure      404 {object} response.APIResponse
// @Router       /groups/{id}/files/{fileId} [delete]
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	gid, err := groupID(r)
	if err != nil {
		response.BadRequest(w, "Invalid group ID")
		return
	}
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid file ID")
		return
	}

	if err := h.service.Delete(r.Context(), fileID, gid); err != nil {
		response.FromError(w, h.log, err)
		return
	}

	response.JSON(w, http.StatusOK, map[string]string{"message": "File deleted successfully"})
}

// Download handles GET /groups/files/{fileId}/download
// @Summary      Download a file
// @Description  Streams the file to members of its group
// @Tags         files
// @Produce      application/octet-stream
// @Security     BearerAuth
// @Param        fileId path int true "File ID"
// @Success      200 {file} file
// @Failure      404 {object} response.APIResponse
// @Router       /groups/files/{fileId}/download [get]
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		response.Unauthorized(w, "User not authenticated")
		return
	}
	fileID, err := strconv.ParseInt(chi.URLParam(r, "fileId"), 10, 64)
	if err != nil {
		response.BadRequest(w, "Invalid file ID")
		return
	}

	f, blob, err := h.service.Download(r.Context(), fileID, userID)
	if err != nil {
		response.FromError(w, h.log, err)
		return
	}
	defer blob.Close()

	w.Header().Set("Content-Type", f.ContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": f.OriginalName}))
	http.ServeContent(w, r, f.OriginalName, f.UploadedAt, blob)
}
