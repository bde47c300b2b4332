package handler

import (
	"errors"
	"net/http"

	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/application/usecase"
	apperror "github.com/glucon/glucon-api/domain/error"
	"github.com/glucon/glucon-api/infrastructure/http/response"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

// toAppError maps use case and port errors onto the catalog.
func toAppError(err error) *apperror.AppError {
	var appErr *apperror.AppError
	switch {
	case errors.As(err, &appErr):
		return appErr
	case errors.Is(err, usecase.ErrInvalidPayload):
		return apperror.ErrInvalidPayload(err.Error())
	case errors.Is(err, usecase.ErrDuplicateEmail):
		return apperror.ErrEmailExists(err)
	case errors.Is(err, usecase.ErrInvalidCredentials):
		return apperror.ErrInvalidCredentials(err)
	case errors.Is(err, usecase.ErrTooManyAttempts):
		return apperror.NewAppError(apperror.ErrCodeRateLimitExceeded, http.StatusTooManyRequests, "too many requests", err.Error(), err)
	case errors.Is(err, outbound.ErrTokenMissing):
		return apperror.ErrMissingToken(err)
	case errors.Is(err, outbound.ErrTokenExpired):
		return apperror.ErrTokenExpired(err)
	case errors.Is(err, outbound.ErrTokenMalformed), errors.Is(err, outbound.ErrTokenInvalidSignature):
		return apperror.ErrInvalidToken(err)
	case errors.Is(err, outbound.ErrUserNotFound):
		return apperror.NewAppError(apperror.ErrCodeUserNotFound, http.StatusNotFound, "user not found", "", err)
	case errors.Is(err, outbound.ErrRecipeNotFound):
		return apperror.NewAppError(apperror.ErrCodeRecipeNotFound, http.StatusNotFound, "not found", "", err)
	case errors.Is(err, outbound.ErrImageNotFound):
		return apperror.NewAppError(apperror.ErrCodeImageNotFound, http.StatusNotFound, "not found", "", err)
	default:
		return apperror.ErrInternalServerError("", err)
	}
}

// writeError maps err and writes it. Server errors are logged with the
// request's correlation id.
func writeError(w http.ResponseWriter, r *http.Request, log logger.Logger, err error) {
	appErr := toAppError(err)
	if appErr.Status >= http.StatusInternalServerError {
		log.Error(r.Context(), "Request failed", err, map[string]interface{}{
			"path": r.URL.Path,
			"code": appErr.Code,
		})
	}
	response.AppError(w, appErr)
}
