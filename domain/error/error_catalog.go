package error

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unique error code
type ErrorCode string

const (
	// Authentication Errors (1xxx)
	ErrCodeInvalidCredentials ErrorCode = "AUTH_1001"
	ErrCodeUserNotFound       ErrorCode = "AUTH_1002"
	ErrCodeInvalidToken       ErrorCode = "AUTH_1003"
	ErrCodeTokenExpired       ErrorCode = "AUTH_1004"
	ErrCodeMissingToken       ErrorCode = "AUTH_1005"

	// Validation Errors (2xxx)
	ErrCodeInvalidRequest ErrorCode = "VALID_2005"
	ErrCodeInvalidID      ErrorCode = "VALID_2006"

	// Rate Limiting Errors (3xxx)
	ErrCodeRateLimitExceeded ErrorCode = "RATE_3001"

	// Resource Errors (4xxx)
	ErrCodeEmailExists    ErrorCode = "RES_4001"
	ErrCodeRecipeNotFound ErrorCode = "RES_4002"
	ErrCodeImageNotFound  ErrorCode = "RES_4003"

	// Database Errors (5xxx)
	ErrCodeDatabaseError ErrorCode = "DB_5001"

	// Server Errors (6xxx)
	ErrCodeInternalServerError ErrorCode = "SERVER_6001"
)

// AppError represents a structured application error. Message is what the
// client sees; Details and Cause stay server-side.
type AppError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Status  int       `json:"-"`
	Details string    `json:"-"`
	Cause   error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func NewAppError(code ErrorCode, status int, message string, details string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Status:  status,
		Details: details,
		Cause:   cause,
	}
}

// Authentication errors

func ErrInvalidCredentials(cause error) *AppError {
	return NewAppError(ErrCodeInvalidCredentials, http.StatusUnauthorized, "invalid credentials", "", cause)
}

func ErrUserNotFound(userID int64) *AppError {
	return NewAppError(ErrCodeUserNotFound, http.StatusNotFound, "user not found", fmt.Sprintf("User ID: %d", userID), nil)
}

func ErrMissingToken(cause error) *AppError {
	return NewAppError(ErrCodeMissingToken, http.StatusUnauthorized, "missing token", "", cause)
}

func ErrInvalidToken(cause error) *AppError {
	return NewAppError(ErrCodeInvalidToken, http.StatusUnauthorized, "invalid token", "", cause)
}

func ErrTokenExpired(cause error) *AppError {
	return NewAppError(ErrCodeTokenExpired, http.StatusUnauthorized, "token expired", "", cause)
}

// Validation errors

func ErrInvalidPayload(details string) *AppError {
	return NewAppError(ErrCodeInvalidRequest, http.StatusBadRequest, "invalid payload", details, nil)
}

func ErrInvalidID(raw string) *AppError {
	return NewAppError(ErrCodeInvalidID, http.StatusBadRequest, "invalid id", fmt.Sprintf("ID: %q", raw), nil)
}

// Rate limiting errors

func ErrRateLimitExceeded(key string) *AppError {
	return NewAppError(ErrCodeRateLimitExceeded, http.StatusTooManyRequests, "too many requests", fmt.Sprintf("Key: %s", key), nil)
}

// Resource errors

func ErrEmailExists(cause error) *AppError {
	return NewAppError(ErrCodeEmailExists, http.StatusConflict, "email exists", "", cause)
}

func ErrRecipeNotFound(recipeID int64) *AppError {
	return NewAppError(ErrCodeRecipeNotFound, http.StatusNotFound, "not found", fmt.Sprintf("Recipe ID: %d", recipeID), nil)
}

func ErrImageNotFound(name string) *AppError {
	return NewAppError(ErrCodeImageNotFound, http.StatusNotFound, "not found", fmt.Sprintf("Image: %s", name), nil)
}

// Server errors

func ErrDatabaseError(operation string, cause error) *AppError {
	return NewAppError(ErrCodeDatabaseError, http.StatusInternalServerError, "internal server error", fmt.Sprintf("Operation: %s", operation), cause)
}

func ErrInternalServerError(details string, cause error) *AppError {
	return NewAppError(ErrCodeInternalServerError, http.StatusInternalServerError, "internal server error", details, cause)
}

// GetHTTPStatusCode returns the HTTP status carried by an AppError anywhere in
// the chain, or 500.
func GetHTTPStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status != 0 {
		return appErr.Status
	}
	return http.StatusInternalServerError
}
