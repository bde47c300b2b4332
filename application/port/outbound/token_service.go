package outbound

import (
	"errors"
	"time"
)

var (
	ErrTokenMissing          = errors.New("token missing")
	ErrTokenMalformed        = errors.New("token malformed")
	ErrTokenExpired          = errors.New("token expired")
	ErrTokenInvalidSignature = errors.New("token signature invalid")
)

// TokenClaims is the identity resolved from a verified token.
type TokenClaims struct {
	Subject   string    `json:"sub"`
	UserID    int64     `json:"-"`
	ExpiresAt time.Time `json:"exp"`
}

type IssuedToken struct {
	Token     string
	ExpiresAt time.Time
}

type TokenService interface {
	Issue(userID int64) (*IssuedToken, error)
	Verify(token string) (*TokenClaims, error)
}
