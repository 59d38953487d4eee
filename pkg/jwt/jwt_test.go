package jwt

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-0123456789abcdef-0123456789abcdef"

func newTestService() *JWTService {
	return NewJWTService(testSecret, time.Hour, 24*time.Hour)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService()

	token, err := svc.GenerateAccessToken(42, "+919876543210")
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.EqualValues(t, 42, claims.UserID)
	assert.Equal(t, "+919876543210", claims.PhoneNumber)
	assert.Equal(t, "access", claims.Subject)
}

func TestRefreshTokenSubject(t *testing.T) {
	svc := newTestService()

	access, err := svc.GenerateAccessToken(42, "+919876543210")
	require.NoError(t, err)
	refresh, err := svc.GenerateRefreshToken(42, "+919876543210")
	require.NoError(t, err)

	// An access token must not pass refresh validation.
	_, err = svc.ValidateRefreshToken(access)
	assert.ErrorIs(t, err, ErrInvalidToken)

	claims, err := svc.ValidateRefreshToken(refresh)
	require.NoError(t, err)
	assert.Equal(t, "refresh", claims.Subject)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	token, err := newTestService().GenerateAccessToken(1, "+919000000000")
	require.NoError(t, err)

	other := NewJWTService("another-secret-another-secret-12", time.Hour, 24*time.Hour)
	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateRejectsExpiredToken(t *testing.T) {
	svc := NewJWTService(testSecret, -time.Minute, 24*time.Hour)

	token, err := svc.GenerateAccessToken(1, "+919000000000")
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateRejectsGarbage(t *testing.T) {
	_, err := newTestService().ValidateToken("not.a.token")
	assert.ErrorIs(t, err, ErrInvalidToken)
}
