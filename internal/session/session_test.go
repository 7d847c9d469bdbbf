package session

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssueAndVerify(t *testing.T) {
	iss := NewIssuer("secret", "studygroup", time.Hour)

	token, expiresAt, err := iss.Issue(42)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, 5*time.Second)

	userID, err := iss.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	token, _, err := NewIssuer("secret", "studygroup", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewIssuer("other", "studygroup", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsWrongIssuer(t *testing.T) {
	token, _, err := NewIssuer("secret", "someone-else", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewIssuer("secret", "studygroup", time.Hour).Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsExpired(t *testing.T) {
	iss := NewIssuer("secret", "studygroup", time.Minute)
	iss.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := iss.Issue(1)
	require.NoError(t, err)

	iss.now = time.Now
	_, err = iss.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerifyRejectsBadSubjects(t *testing.T) {
	iss := NewIssuer("secret", "studygroup", time.Hour)

	for _, sub := range []string{"", "abc", "0", "-5", "1.5"} {
		claims := jwt.RegisteredClaims{
			Subject:   sub,
			Issuer:    "studygroup",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
		require.NoError(t, err)

		_, err = iss.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken, "sub %q", sub)
	}
}

func TestVerifyRejectsOtherAlgorithms(t *testing.T) {
	iss := NewIssuer("secret", "studygroup", time.Hour)

	claims := jwt.RegisteredClaims{
		Subject:   "1",
		Issuer:    "studygroup",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
	hs512, err := jwt.NewWithClaims(jwt.SigningMethodHS512, claims).SignedString([]byte("secret"))
	require.NoError(t, err)
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	for _, token := range []string{hs512, none, "not-a-token", ""} {
		_, err := iss.Verify(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	}
}
