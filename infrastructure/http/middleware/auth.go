package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/glucon/glucon-api/application/port/outbound"
	apperror "github.com/glucon/glucon-api/domain/error"
	"github.com/glucon/glucon-api/infrastructure/http/response"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

type contextKey string

const authClaimsKey contextKey = "auth_claims"

type AuthMiddleware struct {
	tokenService outbound.TokenService
	logger       logger.Logger
}

func NewAuthMiddleware(tokenService outbound.TokenService, logger logger.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		tokenService: tokenService,
		logger:       logger,
	}
}

// BearerToken extracts the token from an "Authorization: Bearer <token>"
// header value.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", outbound.ErrTokenMissing
	}

	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", outbound.ErrTokenMissing
	}
	return parts[1], nil
}

// RequireAuth verifies the bearer token before next runs. Requests without a
// valid token get a 401 and never reach next.
func (m *AuthMiddleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		token, err := BearerToken(r.Header.Get("Authorization"))
		if err == nil {
			var claims *outbound.TokenClaims
			claims, err = m.tokenService.Verify(token)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithClaims(ctx, claims)))
				return
			}
		}

		logger.LogAuthEvent(ctx, m.logger, "token_rejected", "", ClientIP(r), false, map[string]interface{}{
			"reason": err.Error(),
			"path":   r.URL.Path,
		})
		response.AppError(w, tokenError(err))
	}
}

func tokenError(err error) *apperror.AppError {
	switch {
	case errors.Is(err, outbound.ErrTokenMissing):
		return apperror.ErrMissingToken(err)
	case errors.Is(err, outbound.ErrTokenExpired):
		return apperror.ErrTokenExpired(err)
	default:
		return apperror.ErrInvalidToken(err)
	}
}

// WithClaims stores verified claims in ctx.
func WithClaims(ctx context.Context, claims *outbound.TokenClaims) context.Context {
	return context.WithValue(ctx, authClaimsKey, claims)
}

// GetUserClaims retrieves user claims from context
func GetUserClaims(ctx context.Context) *outbound.TokenClaims {
	if claims, ok := ctx.Value(authClaimsKey).(*outbound.TokenClaims); ok {
		return claims
	}
	return nil
}

// UserID returns the authenticated user id, if any.
func UserID(ctx context.Context) (int64, bool) {
	claims := GetUserClaims(ctx)
	if claims == nil {
		return 0, false
	}
	return claims.UserID, true
}
