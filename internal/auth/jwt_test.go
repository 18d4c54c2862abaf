package auth

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens("secret", "skillswap")
	userID := uuid.New()

	raw, err := tokens.Generate(userID, RoleAdmin, time.Minute)
	require.NoError(t, err)

	id, err := tokens.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, userID, id.UserID)
	assert.True(t, id.IsAdmin())
}

func TestTokensDefaultRole(t *testing.T) {
	tokens := NewTokens("secret", "")
	raw, err := tokens.Generate(uuid.New(), "", 0)
	require.NoError(t, err)

	id, err := tokens.Validate(raw)
	require.NoError(t, err)
	assert.Equal(t, RoleUser, id.Role)
	assert.False(t, id.IsAdmin())
}

func TestTokensRejectWrongSecret(t *testing.T) {
	raw, err := NewTokens("one", "skillswap").Generate(uuid.New(), RoleUser, time.Minute)
	require.NoError(t, err)

	_, err = NewTokens("two", "skillswap").Validate(raw)
	assert.Error(t, err)
}

func TestTokensRejectWrongIssuer(t *testing.T) {
	raw, err := NewTokens("secret", "someone-else").Generate(uuid.New(), RoleUser, time.Minute)
	require.NoError(t, err)

	_, err = NewTokens("secret", "skillswap").Validate(raw)
	assert.Error(t, err)
}

func TestTokensRejectExpired(t *testing.T) {
	tokens := NewTokens("secret", "skillswap")
	issued := time.Now().Add(-2 * time.Hour)
	tokens.now = func() time.Time { return issued }
	raw, err := tokens.Generate(uuid.New(), RoleUser, time.Minute)
	require.NoError(t, err)

	tokens.now = time.Now
	_, err = tokens.Validate(raw)
	assert.Error(t, err)
}

func TestTokensRejectGarbage(t *testing.T) {
	_, err := NewTokens("secret", "").Validate("not-a-token")
	assert.Error(t, err)
}
