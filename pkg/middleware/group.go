package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/response"
)

// GroupAccess decides whether a user may act inside a group
type GroupAccess interface {
	RequireMember(ctx context.Context, groupID, userID int64) error
}

// RequireGroupMember rejects requests whose caller is not a member of the
// group named by the {id} route parameter. It must run after Authenticate.
func RequireGroupMember(access GroupAccess, log *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserID(r.Context())
			if !ok {
				response.Unauthorized(w, "User not authenticated")
				return
			}

			groupID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
			if err != nil {
				response.BadRequest(w, "Invalid group ID")
				return
			}

			if err := access.RequireMember(r.Context(), groupID, userID); err != nil {
				response.FromError(w, log, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
