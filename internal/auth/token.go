package auth

import (
	"errors"
	"fmt"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/academy-portal/internal/domain"
)

// ErrOpaqueToken is returned for tokens that are not JWTs. Such tokens are
// still valid sessions; they just carry no readable claims.
var ErrOpaqueToken = errors.New("token is not a JWT")

// Introspect reads the claims of a session token without verifying its
// signature. The portal never trusts these claims for authorization; the
// backend does that. They only serve to show when the session ends.
func Introspect(token string) (domain.TokenInfo, error) {
	if token == "" {
		return domain.TokenInfo{}, ErrOpaqueToken
	}

	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return domain.TokenInfo{}, ErrOpaqueToken
		}
		return domain.TokenInfo{}, fmt.Errorf("parse token claims: %w", err)
	}

	info := domain.TokenInfo{Subject: claims.Subject}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	return info, nil
}
