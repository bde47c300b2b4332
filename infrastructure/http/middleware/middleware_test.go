package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

type MockRateLimitService struct {
	mock.Mock
}

func (m *MockRateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	args := m.Called(ctx, key, limit, window)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	return m.Called(ctx, key, window).Error(0)
}

func (m *MockRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	return m.Called(ctx, key, duration, reason).Error(0)
}

func (m *MockRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockRateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	args := m.Called(ctx, key)
	return args.Int(0), args.Error(1)
}

var testPolicy = RateLimitPolicy{Limit: 3, Window: time.Minute, BlockDuration: 5 * time.Minute}

func okHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func loginRequest() *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "10.0.0.1:4242"
	return req
}

func TestRateLimit_Allows(t *testing.T) {
	svc := new(MockRateLimitService)
	svc.On("IsBlocked", mock.Anything, "login:ip:10.0.0.1").Return(false, nil)
	svc.On("CheckLimit", mock.Anything, "login:ip:10.0.0.1", 3, time.Minute).Return(true, nil)
	svc.On("Increment", mock.Anything, "login:ip:10.0.0.1", time.Minute).Return(nil)

	rec := httptest.NewRecorder()
	NewRateLimitMiddleware(svc, testPolicy, logger.NewNopLogger()).Limit("login", okHandler).ServeHTTP(rec, loginRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
	svc.AssertExpectations(t)
}

func TestRateLimit_ExceededBlocks(t *testing.T) {
	svc := new(MockRateLimitService)
	svc.On("IsBlocked", mock.Anything, "login:ip:10.0.0.1").Return(false, nil)
	svc.On("CheckLimit", mock.Anything, "login:ip:10.0.0.1", 3, time.Minute).Return(false, nil)
	svc.On("Block", mock.Anything, "login:ip:10.0.0.1", 5*time.Minute, mock.Anything).Return(nil)

	rec := httptest.NewRecorder()
	NewRateLimitMiddleware(svc, testPolicy, logger.NewNopLogger()).Limit("login", okHandler).ServeHTTP(rec, loginRequest())

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "300", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"error":"too many requests"}`, rec.Body.String())
	svc.AssertExpectations(t)
}

func TestRateLimit_Blocked(t *testing.T) {
	svc := new(MockRateLimitService)
	svc.On("IsBlocked", mock.Anything, "login:ip:10.0.0.1").Return(true, nil)

	rec := httptest.NewRecorder()
	NewRateLimitMiddleware(svc, testPolicy, logger.NewNopLogger()).Limit("login", okHandler).ServeHTTP(rec, loginRequest())

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	svc.AssertNotCalled(t, "CheckLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestRateLimit_FailsOpen(t *testing.T) {
	svc := new(MockRateLimitService)
	svc.On("IsBlocked", mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	svc.On("CheckLimit", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(false, errors.New("redis down"))
	svc.On("Increment", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("redis down"))

	rec := httptest.NewRecorder()
	NewRateLimitMiddleware(svc, testPolicy, logger.NewNopLogger()).Limit("login", okHandler).ServeHTTP(rec, loginRequest())

	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.168.1.5:5555"
	assert.Equal(t, "192.168.1.5", ClientIP(req))

	req.Header.Set("X-Real-IP", "172.16.0.9")
	assert.Equal(t, "172.16.0.9", ClientIP(req))

	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	assert.Equal(t, "203.0.113.7", ClientIP(req))
}

func TestCorrelationIDMiddleware(t *testing.T) {
	var seen string
	h := CorrelationIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationID(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(CorrelationIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(CorrelationIDHeader, "req-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "req-123", seen)
	assert.Equal(t, "req-123", rec.Header().Get(CorrelationIDHeader))
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://app.example.com"}, true)(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/login", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))

	req = httptest.NewRequest(http.MethodGet, "/recipes", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRecovery(t *testing.T) {
	h := Recovery(logger.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, rec.Body.String())
}

func TestLogging_PassesThrough(t *testing.T) {
	h := Logging(logger.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}
