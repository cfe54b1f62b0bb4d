package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/juju/errors"
)

// GenerateJWT issues an HS256 token for subject accepted by the API guard.
func GenerateJWT(subject, secret string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", errors.NotValidf("empty JWT secret")
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
	})
	return token.SignedString([]byte(secret))
}
