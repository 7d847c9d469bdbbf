package response

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fkhayef/studygroup/pkg/apperror"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) APIResponse {
	t.Helper()
	var body APIResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestFromErrorMapsKinds(t *testing.T) {
	cases := []struct {
		kind   apperror.Kind
		status int
	}{
		{apperror.KindValidation, http.StatusBadRequest},
		{apperror.KindUnauthenticated, http.StatusUnauthorized},
		{apperror.KindForbidden, http.StatusForbidden},
		{apperror.KindNotFound, http.StatusNotFound},
		{apperror.KindConflict, http.StatusConflict},
		{apperror.KindTooLarge, http.StatusRequestEntityTooLarge},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		err := fmt.Errorf("wrapped: %w", apperror.New(tc.kind, "boom"))
		FromError(rec, zap.NewNop(), err)

		assert.Equal(t, tc.status, rec.Code)
		body := decode(t, rec)
		assert.False(t, body.Success)
		require.NotNil(t, body.Error)
		assert.Equal(t, "boom", body.Error.Message)
		assert.Equal(t, tc.kind.String(), body.Error.Code)
	}
}

func TestFromErrorHidesUnexpectedDetails(t *testing.T) {
	rec := httptest.NewRecorder()
	FromError(rec, zap.NewNop(), errors.New("pq: relation \"users\" does not exist"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decode(t, rec)
	require.NotNil(t, body.Error)
	assert.Equal(t, "Internal server error", body.Error.Message)
}

func TestJSONWithMeta(t *testing.T) {
	rec := httptest.NewRecorder()
	JSONWithMeta(rec, http.StatusOK, []int{1, 2}, NewMeta(2, 10, 25))

	body := decode(t, rec)
	assert.True(t, body.Success)
	require.NotNil(t, body.Meta)
	assert.Equal(t, 3, body.Meta.TotalPages)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestLiteralErrorHelpersMatchKindCodes(t *testing.T) {
	rec := httptest.NewRecorder()
	BadRequest(rec, "Invalid group ID")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, apperror.KindValidation.String(), decode(t, rec).Error.Code)

	rec = httptest.NewRecorder()
	Unauthorized(rec, "User not authenticated")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, apperror.KindUnauthenticated.String(), decode(t, rec).Error.Code)
}
