package types

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenIssuer is the iss claim of every session token
const TokenIssuer = "foodflow"

// TokenClaims are the claims carried by a session token. The embedded
// RegisteredClaims satisfy jwt.Claims.
type TokenClaims struct {
	jwt.RegisteredClaims
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// NewTokenClaims builds claims for userID valid for ttl from now
func NewTokenClaims(userID uuid.UUID, username string, now time.Time, ttl time.Duration) *TokenClaims {
	return &TokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    TokenIssuer,
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:   userID,
		Username: username,
	}
}
