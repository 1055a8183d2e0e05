package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenManager_RoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", time.Minute)
	userID := uuid.New()

	token, err := tm.GenerateAccess(userID, "admin")
	require.NoError(t, err)

	gotID, role, err := tm.ParseAccess(token)
	require.NoError(t, err)
	assert.Equal(t, userID, gotID)
	assert.Equal(t, "admin", role)
}

func TestTokenManager_RejectsForeignSecret(t *testing.T) {
	issuer := NewTokenManager("other", time.Minute)
	token, err := issuer.GenerateAccess(uuid.New(), "user")
	require.NoError(t, err)

	_, _, err = NewTokenManager("secret", time.Minute).ParseAccess(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpired(t *testing.T) {
	tm := NewTokenManager("secret", -time.Minute)
	token, err := tm.GenerateAccess(uuid.New(), "user")
	require.NoError(t, err)

	_, _, err = tm.ParseAccess(token)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_RejectsMissingSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"role": "user"})
	raw, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, _, err = NewTokenManager("secret", time.Minute).ParseAccess(raw)
	assert.ErrorIs(t, err, jwt.ErrTokenInvalidClaims)
}
