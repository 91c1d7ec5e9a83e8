package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestJWT(accessTTL, refreshTTL time.Duration) *JWTManager {
	return NewJWTManager("access-secret", "refresh-secret", accessTTL, refreshTTL)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	m := newTestJWT(time.Hour, 24*time.Hour)

	token, exp, err := m.GenerateAccessToken("user-1", "a@b.com", "alice", "Alice A")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, 5*time.Second)

	claims, err := m.ParseAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "a@b.com", claims.Email)
	assert.Equal(t, "alice", claims.Username)
	assert.Equal(t, "Alice A", claims.FullName)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	m := newTestJWT(time.Hour, 24*time.Hour)

	token, _, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	claims, err := m.ParseRefreshToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestTokenClassesAreNotInterchangeable(t *testing.T) {
	m := newTestJWT(time.Hour, 24*time.Hour)

	access, _, err := m.GenerateAccessToken("user-1", "a@b.com", "alice", "Alice A")
	require.NoError(t, err)
	refresh, _, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)

	// Signed with different secrets, so parsing across classes must fail.
	_, err = m.ParseRefreshToken(access)
	assert.Error(t, err)
	_, err = m.ParseAccessToken(refresh)
	assert.Error(t, err)
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newTestJWT(time.Hour, 24*time.Hour)
	token, _, err := m.GenerateAccessToken("user-1", "a@b.com", "alice", "Alice A")
	require.NoError(t, err)

	other := NewJWTManager("another-secret", "another-refresh", time.Hour, 24*time.Hour)
	_, err = other.ParseAccessToken(token)
	assert.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	m := newTestJWT(-time.Minute, -time.Minute)

	access, _, err := m.GenerateAccessToken("user-1", "a@b.com", "alice", "Alice A")
	require.NoError(t, err)
	_, err = m.ParseAccessToken(access)
	assert.Error(t, err)

	refresh, _, err := m.GenerateRefreshToken("user-1")
	require.NoError(t, err)
	_, err = m.ParseRefreshToken(refresh)
	assert.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	m := newTestJWT(time.Hour, 24*time.Hour)

	for _, tok := range []string{"", "not-a-jwt", "a.b.c"} {
		_, err := m.ParseAccessToken(tok)
		assert.Error(t, err, "token %q", tok)
	}
}
