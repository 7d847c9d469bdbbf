package file

import (
	"strconv"
	"time"
)

// FileResponse represents a file entry in a group's shelf
type FileResponse struct {
	ID          int64  `json:"id"`
	GroupID     int64  `json:"group_id"`
	Name        string `json:"name"`
	Filename    string `json:"filename"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
	UploadedBy  *int64 `json:"uploaded_by"`
	UploadedAt  string `json:"uploaded_at"`
	DownloadURL string `json:"download_url"`
}

// DownloadPath is the route that serves a file's contents
func DownloadPath(id int64) string {
	return "/groups/files/" + strconv.FormatInt(id, 10) + "/download"
}

// ToResponse converts a File model to a FileResponse DTO
func (f *File) ToResponse() *FileResponse {
	resp := &FileResponse{
		ID:          f.ID,
		GroupID:     f.GroupID,
		Name:        f.OriginalName,
		Filename:    f.StoredName,
		ContentType: f.ContentType,
		SizeBytes:   f.SizeBytes,
		UploadedAt:  f.UploadedAt.UTC().Format(time.RFC3339),
		DownloadURL: DownloadPath(f.ID),
	}
	if f.UploadedBy.Valid {
		resp.UploadedBy = &f.UploadedBy.Int64
	}
	return resp
}
