package session

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrNoExpiry is returned when the access token carries no exp claim.
var ErrNoExpiry = errors.New("session: token has no expiry claim")

// AccessTokenExpiry decodes the access token without verifying its
// signature and returns the expiry claim. Verification belongs to the
// backend; the client only needs the timestamp to schedule refreshes.
func AccessTokenExpiry(accessToken string) (time.Time, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(accessToken, claims); err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// NeedsRefresh reports whether the session's access token expires
// within the given window. Tokens that cannot be decoded count as
// expired so callers err on the side of refreshing.
func (s Session) NeedsRefresh(within time.Duration) bool {
	if s.AccessToken == "" {
		return true
	}
	exp, err := AccessTokenExpiry(s.AccessToken)
	if err != nil {
		return true
	}
	return time.Until(exp) < within
}
