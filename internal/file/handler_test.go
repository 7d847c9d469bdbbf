package file

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/middleware"
)

func asUser(userID int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.WithUserID(r.Context(), userID)))
		})
	}
}

func newRouter(f *fixture, userID, maxBytes int64) http.Handler {
	h := NewHandler(f.svc, maxBytes, zap.NewNop())
	r := chi.NewRouter()
	r.Use(asUser(userID))
	r.Get("/groups/files/{fileId}/download", h.Download)
	r.Mount("/groups/{id}/files", h.Routes())
	return r
}

func multipartBody(t *testing.T, field, filename, content string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if filename != "" {
		part, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = io.WriteString(part, content)
		require.NoError(t, err)
	} else {
		require.NoError(t, mw.WriteField(field, content))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(t *testing.T, h http.Handler, groupID int64, field, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, field, filename, content)
	req := httptest.NewRequest(http.MethodPost, "/groups/"+strconv.FormatInt(groupID, 10)+"/files", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestUploadListDownloadDelete(t *testing.T) {
	f := newFixture(t, 0)
	h := newRouter(f, f.owner, 1<<20)

	rec := upload(t, h, f.group, "file", "week 1.txt", "hello world")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data FileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "week_1.txt", created.Data.Name)
	assert.Equal(t, DownloadPath(created.Data.ID), created.Data.DownloadURL)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/groups/"+strconv.FormatInt(f.group, 10)+"/files", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []FileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, created.Data.DownloadURL, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "week_1.txt")
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "attachment")

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete,
		"/groups/"+strconv.FormatInt(f.group, 10)+"/files/"+strconv.FormatInt(created.Data.ID, 10), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, created.Data.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUploadRejectsMissingPartAndOversize(t *testing.T) {
	f := newFixture(t, 0)
	h := newRouter(f, f.owner, 10)

	rec := upload(t, h, f.group, "note", "", "just a field")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = upload(t, h, f.group, "file", "big.bin", "this is far more than ten bytes")
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	assert.Equal(t, 0, len(f.blobs(t)))
}

func TestDownloadHiddenFromOutsider(t *testing.T) {
	f := newFixture(t, 0)

	rec := upload(t, newRouter(f, f.owner, 0), f.group, "file", "a.txt", "secret")
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data FileResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	rec = httptest.NewRecorder()
	newRouter(f, f.other, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, created.Data.DownloadURL, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	outsider := rec.Body.String()

	rec = httptest.NewRecorder()
	newRouter(f, f.other, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, DownloadPath(created.Data.ID+1000), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, rec.Body.String(), outsider)
}
