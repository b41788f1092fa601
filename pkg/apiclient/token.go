package apiclient

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// defaultTokenLifetime is assumed when a token carries no exp claim.
const defaultTokenLifetime = time.Hour

// TokenExpiry extracts the expiry time from a JWT's exp claim without
// verifying the signature; the token is only inspected to decide when to
// re-authenticate, never to grant anything. Tokens without a readable
// exp claim are assumed to last one hour.
func TokenExpiry(token string) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	return time.Now().Add(defaultTokenLifetime)
}
