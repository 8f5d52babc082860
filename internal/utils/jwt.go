package utils

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// SessionClaims carries the identity embedded in a session token.
type SessionClaims struct {
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	MobileNo string `json:"mobile_no,omitempty"`
	Role     string `json:"role,omitempty"`
	IsSeller bool   `json:"is_seller,omitempty"`
	jwt.RegisteredClaims
}

// TokenPayload is what callers provide to mint a session token.
type TokenPayload struct {
	ID       uuid.UUID
	Name     string
	Email    string
	MobileNo string
	Role     string
	IsSeller bool
}

// GenerateToken creates a signed JWT for the provided actor.
func GenerateToken(secret string, payload TokenPayload, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		Name:     payload.Name,
		Email:    payload.Email,
		MobileNo: payload.MobileNo,
		Role:     payload.Role,
		IsSeller: payload.IsSeller,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.ID.String(),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseToken validates the token and returns the embedded claims.
func ParseToken(secret, tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*SessionClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, jwt.ErrTokenInvalidClaims
}

// ActorID extracts the subject UUID from parsed claims.
func (c *SessionClaims) ActorID() (uuid.UUID, error) {
	return uuid.Parse(c.Subject)
}
