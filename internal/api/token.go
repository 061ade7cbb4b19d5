package api

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenExpiry reads the expiry of an access token without verifying its
// signature; only the server can do that. ok is false when the token carries
// no expiry.
func TokenExpiry(token string) (expiry time.Time, ok bool, err error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false, fmt.Errorf("parse access token: %w", err)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false, nil
	}
	return claims.ExpiresAt.Time, true, nil
}

// TokenExpired reports whether token expired before now. Tokens that cannot
// be read or carry no expiry are left for the server to judge.
func TokenExpired(token string, now time.Time) bool {
	expiry, ok, err := TokenExpiry(token)
	if err != nil || !ok {
		return false
	}
	return !now.Before(expiry)
}
