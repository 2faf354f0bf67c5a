package auth_test

import (
	"testing"
	"time"

	"college-service/internal/auth"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenService(t *testing.T) {
	base := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	now := base
	clock := func() time.Time { return now }

	tokens := auth.NewTokenService("test-secret", 0, auth.WithClock(clock))

	t.Run("IssueAndValidate", func(t *testing.T) {
		now = base
		token, expiresAt, err := tokens.Issue("admin")
		require.NoError(t, err)
		assert.NotEmpty(t, token)
		assert.Equal(t, base.Add(auth.DefaultTokenTTL), expiresAt)

		username, err := tokens.Validate(token)
		require.NoError(t, err)
		assert.Equal(t, "admin", username)
	})

	t.Run("Expired", func(t *testing.T) {
		now = base
		token, _, err := tokens.Issue("admin")
		require.NoError(t, err)

		now = base.Add(auth.DefaultTokenTTL + time.Second)
		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("CustomTTL", func(t *testing.T) {
		now = base
		token, expiresAt, err := tokens.IssueWithTTL("admin", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, base.Add(time.Minute), expiresAt)

		now = base.Add(30 * time.Second)
		_, err = tokens.Validate(token)
		assert.NoError(t, err)

		now = base.Add(2 * time.Minute)
		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("WrongSecret", func(t *testing.T) {
		now = base
		other := auth.NewTokenService("other-secret", 0, auth.WithClock(clock))
		token, _, err := other.Issue("admin")
		require.NoError(t, err)

		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("Malformed", func(t *testing.T) {
		_, err := tokens.Validate("not-a-token")
		assert.ErrorIs(t, err, auth.ErrMalformed)
	})

	t.Run("NoneAlgorithmRejected", func(t *testing.T) {
		now = base
		claims := jwt.RegisteredClaims{
			Subject:   "admin",
			ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour)),
		}
		token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)

		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("MissingExpiry", func(t *testing.T) {
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{Subject: "admin"}).
			SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		now = base
		claims := jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(base.Add(time.Hour))}
		token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
		require.NoError(t, err)

		_, err = tokens.Validate(token)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("EmptyIdentity", func(t *testing.T) {
		_, _, err := tokens.Issue("")
		assert.ErrorIs(t, err, auth.ErrEmptyIdentity)
	})
}

func TestPassword(t *testing.T) {
	hash, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, "admin123", hash)

	assert.True(t, auth.VerifyPassword("admin123", hash))
	assert.False(t, auth.VerifyPassword("admin124", hash))
	assert.False(t, auth.VerifyPassword("admin123", "not-a-hash"))

	other, err := auth.HashPassword("admin123")
	require.NoError(t, err)
	assert.NotEqual(t, hash, other, "hashes should be salted")

	_, err = auth.HashPassword("")
	assert.ErrorIs(t, err, auth.ErrEmptyPassword)
}
