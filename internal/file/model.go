package file

import (
	"database/sql"
	"time"
)

// File is the metadata row for an uploaded blob
type File struct {
	ID           int64         `db:"id"`
	GroupID      int64         `db:"group_id"`
	StoredName   string        `db:"stored_name"`
	OriginalName string        `db:"original_name"`
	ContentType  string        `db:"content_type"`
	SizeBytes    int64         `db:"size_bytes"`
	UploadedBy   sql.NullInt64 `db:"uploaded_by"`
	UploadedAt   time.Time     `db:"uploaded_at"`
}
