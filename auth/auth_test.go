package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zemen-restaurant/zemen-backend/cache"
	"github.com/zemen-restaurant/zemen-backend/config"
	"github.com/zemen-restaurant/zemen-backend/models"
)

func newManager() *TokenManager {
	return NewTokenManager(config.AuthConfig{
		JWTSecret: "test-secret-that-is-long-enough-123",
		JWTExpiry: time.Hour,
		Issuer:    "zemen-test",
	})
}

func TestPasswordRoundTrip(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)
	assert.True(t, CheckPassword(hash, "secret123"))
	assert.False(t, CheckPassword(hash, "wrong"))
}

func TestGenerateAndParse(t *testing.T) {
	m := newManager()
	token, claims, err := m.Generate(models.User{ID: 7, Username: "admin", IsAdmin: true})
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	parsed, err := m.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, uint(7), parsed.UserID)
	assert.Equal(t, "admin", parsed.Username)
	assert.True(t, parsed.IsAdmin)
	assert.Equal(t, claims.ID, parsed.ID)
}

func TestParseRejects(t *testing.T) {
	m := newManager()
	token, _, err := m.Generate(models.User{ID: 1, Username: "admin", IsAdmin: true})
	require.NoError(t, err)

	t.Run("expired", func(t *testing.T) {
		later := newManager()
		later.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
		_, err := later.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other secret", func(t *testing.T) {
		other := NewTokenManager(config.AuthConfig{JWTSecret: "another-secret", JWTExpiry: time.Hour, Issuer: "zemen-test"})
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("other issuer", func(t *testing.T) {
		other := NewTokenManager(config.AuthConfig{JWTSecret: "test-secret-that-is-long-enough-123", JWTExpiry: time.Hour, Issuer: "someone-else"})
		_, err := other.Parse(token)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("unsigned", func(t *testing.T) {
		none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{UserID: 1})
		s, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
		require.NoError(t, err)
		_, err = m.Parse(s)
		assert.ErrorIs(t, err, ErrInvalidToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := m.Parse("not.a.token")
		assert.ErrorIs(t, err, ErrInvalidToken)
	})
}

func TestRevoker(t *testing.T) {
	ctx := context.Background()
	m := newManager()
	_, claims, err := m.Generate(models.User{ID: 3, Username: "admin", IsAdmin: true})
	require.NoError(t, err)

	r := NewRevoker(cache.NewMemoryStore())
	revoked, err := r.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.Revoke(ctx, claims))
	revoked, err = r.IsRevoked(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
}
