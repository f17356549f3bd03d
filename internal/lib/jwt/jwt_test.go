package jwt

import (
	"testing"
	"time"

	"github.com/IlyasAtabaev731/atm-server/internal/domain/models"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	token, err := NewToken(&models.User{ID: "1", Username: "rishav"}, "secret", time.Hour)
	require.NoError(t, err)

	uid, err := UserID(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "1", uid)

	claims, err := ParseToken(token, "secret")
	require.NoError(t, err)
	assert.Equal(t, "rishav", claims.Username)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestTokenRejected(t *testing.T) {
	token, err := NewToken(&models.User{ID: "1"}, "secret", time.Hour)
	require.NoError(t, err)

	_, err = UserID(token, "other-secret")
	assert.Error(t, err)

	expired, err := NewToken(&models.User{ID: "1"}, "secret", -time.Minute)
	require.NoError(t, err)
	_, err = UserID(expired, "secret")
	assert.Error(t, err)

	_, err = UserID("garbage", "secret")
	assert.Error(t, err)
}

func TestTokenWithoutUID(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "rishav",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = UserID(signed, "secret")
	assert.Error(t, err)
}

func TestNumericUIDRejected(t *testing.T) {
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"uid": 1,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = UserID(signed, "secret")
	assert.Error(t, err)
}
