package session

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiryHint extracts the expiry claim from a bearer token without
// verifying its signature. The backend is the only authority on token
// validity; this hint exists purely for logging and for the CLI's whoami
// output. Never use it for an authorization decision.
func TokenExpiryHint(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
