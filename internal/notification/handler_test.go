package notification

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/internal/testutil"
	"github.com/fkhayef/studygroup/pkg/middleware"
)

func TestInboxRoutes(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewService(NewRepository(db))
	ctx, cancel := testutil.Context()
	defer cancel()

	alice := testutil.CreateUser(t, db, "Alice", "alice@example.com")
	bob := testutil.CreateUser(t, db, "Bob", "bob@example.com")
	for i := 0; i < 3; i++ {
		require.NoError(t, svc.NotifyAddedToGroup(ctx, alice, "Algebra", int64(i+1)))
	}

	routesFor := func(userID int64) http.Handler {
		r := chi.NewRouter()
		r.Use(func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
				next.ServeHTTP(w, req.WithContext(middleware.WithUserID(req.Context(), userID)))
			})
		})
		r.Mount("/notifications", NewHandler(svc, zap.NewNop()).Routes())
		return r
	}
	call := func(userID int64, method, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		routesFor(userID).ServeHTTP(rec, httptest.NewRequest(method, path, nil))
		return rec
	}

	rec := call(alice, http.MethodGet, "/notifications?per_page=2")
	require.Equal(t, http.StatusOK, rec.Code)
	var page struct {
		Data []NotificationResponse `json:"data"`
		Meta struct {
			Total      int `json:"total"`
			TotalPages int `json:"total_pages"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Data, 2)
	assert.Equal(t, 3, page.Meta.Total)
	assert.Equal(t, 2, page.Meta.TotalPages)

	first := strconv.FormatInt(page.Data[0].ID, 10)
	assert.Equal(t, http.StatusForbidden, call(bob, http.MethodPost, "/notifications/"+first+"/read").Code)
	assert.Equal(t, http.StatusNotFound, call(alice, http.MethodPost, "/notifications/999/read").Code)
	assert.Equal(t, http.StatusBadRequest, call(alice, http.MethodPost, "/notifications/abc/read").Code)
	assert.Equal(t, http.StatusOK, call(alice, http.MethodPost, "/notifications/"+first+"/read").Code)

	rec = call(alice, http.MethodGet, "/notifications/unread-count")
	require.Equal(t, http.StatusOK, rec.Code)
	var count struct {
		Data UnreadCountResponse `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &count))
	assert.Equal(t, 2, count.Data.UnreadCount)

	assert.Equal(t, http.StatusOK, call(alice, http.MethodPost, "/notifications/read-all").Code)
	n, err := svc.UnreadCount(ctx, alice)
	require.NoError(t, err)
	assert.Zero(t, n)
}
