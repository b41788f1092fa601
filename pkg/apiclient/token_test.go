package apiclient

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenExpiry_ReadsExpClaim(t *testing.T) {
	exp := time.Now().Add(20 * time.Minute).Truncate(time.Second)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": exp.Unix(),
	})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	assert.True(t, TokenExpiry(signed).Equal(exp))
}

func TestTokenExpiry_FallsBackToOneHour(t *testing.T) {
	// No exp claim
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "alice"})
	signed, err := token.SignedString([]byte("test-key"))
	require.NoError(t, err)

	expiry := TokenExpiry(signed)
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)

	// Not a JWT at all
	expiry = TokenExpiry("opaque-token")
	assert.WithinDuration(t, time.Now().Add(time.Hour), expiry, time.Minute)
}
