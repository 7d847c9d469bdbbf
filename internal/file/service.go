package file

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/apperror"
)

const defaultContentType = "application/octet-stream"

// Common errors
var (
	ErrFileRequired = apperror.New(apperror.KindValidation, "a file is required")
	ErrFileNotFound = apperror.New(apperror.KindNotFound, "file not found")
	ErrFileTooLarge = apperror.New(apperror.KindTooLarge, "file exceeds the upload size limit")
)

// BlobStore keeps file contents keyed by stored name
type BlobStore interface {
	Save(name string, r io.Reader) (int64, error)
	Open(name string) (*os.File, error)
	Remove(name string) error
}

// MembershipChecker decides whether a user may read a group's files
type MembershipChecker interface {
	RequireMember(ctx context.Context, groupID, userID int64) error
}

// Service handles the file shelf of each group. List, Upload and Delete
// expect membership to be checked by the caller; Download checks it itself
// because its route carries no group id.
type Service struct {
	repo     *Repository
	blobs    BlobStore
	members  MembershipChecker
	maxBytes int64
	log      *zap.Logger
}

// NewService creates a new file service. maxBytes <= 0 disables the size cap.
func NewService(repo *Repository, blobs BlobStore, members MembershipChecker, maxBytes int64, log *zap.Logger) *Service {
	return &Service{repo: repo, blobs: blobs, members: members, maxBytes: maxBytes, log: log}
}

// List returns a group's files, newest first
func (s *Service) List(ctx context.Context, groupID int64) ([]*File, error) {
	return s.repo.ListByGroup(ctx, groupID)
}

// Upload stores the contents of r under a fresh name and records its metadata.
// The blob is written before the row and removed again if the row cannot be
// inserted.
func (s *Service) Upload(ctx context.Context, groupID, uploader int64, name, contentType string, r io.Reader) (*File, error) {
	if r == nil || strings.TrimSpace(name) == "" {
		return nil, ErrFileRequired
	}

	original := SanitizeFilename(name)
	stored := uuid.NewString() + "_" + original

	src := r
	if s.maxBytes > 0 {
		src = io.LimitReader(r, s.maxBytes+1)
	}
	size, err := s.blobs.Save(stored, src)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, ErrFileTooLarge
		}
		return nil, err
	}
	if s.maxBytes > 0 && size > s.maxBytes {
		s.removeBlob(stored)
		return nil, ErrFileTooLarge
	}

	f := &File{
		GroupID:      groupID,
		StoredName:   stored,
		OriginalName: original,
		ContentType:  detectContentType(contentType, original),
		SizeBytes:    size,
		UploadedBy:   sql.NullInt64{Int64: uploader, Valid: uploader > 0},
		UploadedAt:   time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, f); err != nil {
		s.removeBlob(stored)
		return nil, err
	}

	s.log.Info("file uploaded",
		zap.Int64("group_id", groupID),
		zap.Int64("file_id", f.ID),
		zap.Int64("size_bytes", size))
	return f, nil
}

// Delete removes a file of the group. A blob that is already gone is logged
// and does not fail the deletion.
func (s *Service) Delete(ctx context.Context, fileID, groupID int64) error {
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if f == nil || f.GroupID != groupID {
		return ErrFileNotFound
	}

	if err := s.repo.Delete(ctx, f.ID); err != nil {
		return err
	}
	s.removeBlob(f.StoredName)
	return nil
}

// Download returns a file's metadata and an open handle to its contents. The
// caller must close the handle.
func (s *Service) Download(ctx context.Context, fileID, requester int64) (*File, *os.File, error) {
	f, err := s.repo.GetByID(ctx, fileID)
	if err != nil {
		return nil, nil, err
	}
	if f == nil {
		return nil, nil, ErrFileNotFound
	}

	// Outsiders get the same answer as for a missing file.
	if err := s.members.RequireMember(ctx, f.GroupID, requester); err != nil {
		if apperror.Is(err, apperror.KindForbidden) || apperror.Is(err, apperror.KindNotFound) {
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}

	blob, err := s.blobs.Open(f.StoredName)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.log.Warn("file row without blob", zap.Int64("file_id", f.ID), zap.String("stored_name", f.StoredName))
			return nil, nil, ErrFileNotFound
		}
		return nil, nil, err
	}
	return f, blob, nil
}

func (s *Service) removeBlob(name string) {
	if err := s.blobs.Remove(name); err != nil {
		s.log.Warn("failed to remove blob", zap.String("stored_name", name), zap.Error(err))
	}
}

func detectContentType(supplied, name string) string {
	if mediaType, _, err := mime.ParseMediaType(supplied); err == nil && mediaType != "" {
		return supplied
	}
	if byExt := mime.TypeByExtension(filepath.Ext(name)); byExt != "" {
		return byExt
	}
	return defaultContentType
}
