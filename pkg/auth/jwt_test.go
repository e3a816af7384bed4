package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	token, err := NewAccessToken(42, "casey@example.com", "casey", "customer", "test-secret", time.Hour)
	require.NoError(t, err)

	claims, err := Parse(token, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.Sub)
	assert.Equal(t, "casey@example.com", claims.Email)
	assert.Equal(t, "casey", claims.Username)
	assert.Equal(t, "customer", claims.Role)
	assert.Contains(t, claims.Audience, "bookline-api")
}

func TestParseRejectsWrongSecret(t *testing.T) {
	token, err := NewAccessToken(42, "casey@example.com", "casey", "customer", "test-secret", time.Hour)
	require.NoError(t, err)

	_, err = Parse(token, "another-secret")
	require.Error(t, err)
}

func TestParseRejectsExpiredToken(t *testing.T) {
	token, err := NewAccessToken(42, "casey@example.com", "casey", "customer", "test-secret", -time.Minute)
	require.NoError(t, err)

	_, err = Parse(token, "test-secret")
	require.Error(t, err)
}

func TestParseRejectsGarbage(t *testing.T) {
	_, err := Parse("not-a-token", "test-secret")
	require.Error(t, err)
}
