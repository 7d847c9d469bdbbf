package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/apperror"
)

type stubAccess struct {
	members map[int64][]int64
}

func (s stubAccess) RequireMember(ctx context.Context, groupID, userID int64) error {
	users, ok := s.members[groupID]
	if !ok {
		return apperror.New(apperror.KindNotFound, "group not found")
	}
	for _, u := range users {
		if u == userID {
			return nil
		}
	}
	return apperror.New(apperror.KindForbidden, "not a member")
}

func TestRequireGroupMember(t *testing.T) {
	access := stubAccess{members: map[int64][]int64{1: {10}}}

	r := chi.NewRouter()
	r.Use(Authenticate(stubVerifier{"member": 10, "outsider": 11}))
	r.With(RequireGroupMember(access, zap.NewNop())).Get("/groups/{id}/things", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name  string
		path  string
		token string
		want  int
	}{
		{"member", "/groups/1/things", "member", http.StatusNoContent},
		{"outsider", "/groups/1/things", "outsider", http.StatusForbidden},
		{"unknown group", "/groups/2/things", "member", http.StatusNotFound},
		{"bad id", "/groups/abc/things", "member", http.StatusBadRequest},
		{"anonymous", "/groups/1/things", "", http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.token != "" {
				req.Header.Set("Authorization", "Bearer "+tt.token)
			}
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}
