package message

import (
	"bytes"
	"encoding/json"
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

func TestMessageRoutes(t *testing.T) {
	svc, _, author, group := newTestService(t)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), author)))
		})
	})
	r.Mount("/groups/{id}/messages", NewHandler(svc, zap.NewNop()).Routes())
	base := "/groups/" + strconv.FormatInt(group, 10) + "/messages"

	post := func(body string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, base, bytes.NewBufferString(body)))
		return rec
	}

	assert.Equal(t, http.StatusBadRequest, post(`{"content":"   "}`).Code)
	assert.Equal(t, http.StatusBadRequest, post(`not json`).Code)

	rec := post(`{"content":"first"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created struct {
		Data MessageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.Equal(t, http.StatusCreated, post(`{"content":"second"}`).Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"?after_id="+strconv.FormatInt(created.Data.ID, 10), nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var listed struct {
		Data []MessageResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &listed))
	require.Len(t, listed.Data, 1)
	assert.Equal(t, "second", listed.Data[0].Content)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, base+"?limit=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
