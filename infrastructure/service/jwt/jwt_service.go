package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/infrastructure/config"
)

// JWTService issues and verifies HMAC-signed bearer tokens carrying the user
// id in "sub". It holds no per-token state.
type JWTService struct {
	method jwt.SigningMethod
	secret []byte
	ttl    time.Duration
	parser *jwt.Parser
	now    func() time.Time
}

func NewJWTService(cfg *config.Config) (*JWTService, error) {
	if cfg.JWTSecret == "" {
		return nil, config.ErrMissingJWTSecret
	}
	if cfg.TokenTTL <= 0 {
		return nil, config.ErrInvalidTokenTTL
	}

	var method jwt.SigningMethod
	switch cfg.JWTAlgorithm {
	case "HS256":
		method = jwt.SigningMethodHS256
	case "HS384":
		method = jwt.SigningMethodHS384
	case "HS512":
		method = jwt.SigningMethodHS512
	default:
		return nil, fmt.Errorf("unsupported JWT algorithm: %s", cfg.JWTAlgorithm)
	}

	service := &JWTService{
		method: method,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
		now:    time.Now,
	}
	service.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return service.now() }),
	)
	return service, nil
}

func (s *JWTService) Issue(userID int64) (*outbound.IssuedToken, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(userID, 10),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	tokenString, err := jwt.NewWithClaims(s.method, claims).SignedString(s.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &outbound.IssuedToken{
		Token:     tokenString,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (s *JWTService) Verify(tokenString string) (*outbound.TokenClaims, error) {
	if tokenString == "" {
		return nil, outbound.ErrTokenMissing
	}

	claims := &jwt.RegisteredClaims{}
	token, err := s.parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, s.handleValidationError(tokenString, err)
	}
	if !token.Valid {
		return nil, outbound.ErrTokenMalformed
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: subject %q is not a user id", outbound.ErrTokenMalformed, claims.Subject)
	}

	return &outbound.TokenClaims{
		Subject:   claims.Subject,
		UserID:    userID,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

// handleValidationError maps jwt errors onto the token error taxonomy. An
// elapsed expiry wins over a bad signature, so a stale token always reads as
// expired.
func (s *JWTService) handleValidationError(tokenString string, err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return fmt.Errorf("%w: %v", outbound.ErrTokenExpired, err)
	case errors.Is(err, jwt.ErrTokenSignatureInvalid):
		if s.expiredUnverified(tokenString) {
			return fmt.Errorf("%w: %v", outbound.ErrTokenExpired, err)
		}
		return fmt.Errorf("%w: %v", outbound.ErrTokenInvalidSignature, err)
	default:
		return fmt.Errorf("%w: %v", outbound.ErrTokenMalformed, err)
	}
}

func (s *JWTService) expiredUnverified(tokenString string) bool {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return false
	}
	if claims.ExpiresAt == nil {
		return false
	}
	return !s.now().Before(claims.ExpiresAt.Time)
}
