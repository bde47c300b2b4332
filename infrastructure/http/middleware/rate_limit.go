package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/glucon/glucon-api/application/port/inbound"
	"github.com/glucon/glucon-api/infrastructure/http/response"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

// RateLimitPolicy bounds requests per client IP for one route.
type RateLimitPolicy struct {
	Limit         int
	Window        time.Duration
	BlockDuration time.Duration
}

type RateLimitMiddleware struct {
	rateLimitService inbound.RateLimitService
	policy           RateLimitPolicy
	logger           logger.Logger
}

func NewRateLimitMiddleware(rateLimitService inbound.RateLimitService, policy RateLimitPolicy, logger logger.Logger) *RateLimitMiddleware {
	return &RateLimitMiddleware{
		rateLimitService: rateLimitService,
		policy:           policy,
		logger:           logger,
	}
}

// Limit throttles next per client IP under the given route name. Limiter
// failures let the request through.
func (m *RateLimitMiddleware) Limit(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if m.rateLimitService == nil || m.policy.Limit <= 0 {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		clientIP := ClientIP(r)
		key := fmt.Sprintf("%s:ip:%s", route, clientIP)
		fields := map[string]interface{}{
			"ip":   clientIP,
			"key":  key,
			"path": r.URL.Path,
		}

		isBlocked, err := m.rateLimitService.IsBlocked(ctx, key)
		if err != nil {
			m.logger.Error(ctx, "Failed to check block status", err, fields)
		}
		if isBlocked {
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_blocked", "MEDIUM", fields)
			m.reject(w)
			return
		}

		allowed, err := m.rateLimitService.CheckLimit(ctx, key, m.policy.Limit, m.policy.Window)
		if err != nil {
			m.logger.Error(ctx, "Failed to check rate limit", err, fields)
			allowed = true
		}
		if !allowed {
			if err := m.rateLimitService.Block(ctx, key, m.policy.BlockDuration, "rate limit exceeded"); err != nil {
				m.logger.Error(ctx, "Failed to block client", err, fields)
			}
			logger.LogSecurityEvent(ctx, m.logger, "rate_limit_exceeded", "HIGH", fields)
			m.reject(w)
			return
		}

		if err := m.rateLimitService.Increment(ctx, key, m.policy.Window); err != nil {
			m.logger.Error(ctx, "Failed to count request", err, fields)
		}

		next.ServeHTTP(w, r)
	}
}

func (m *RateLimitMiddleware) reject(w http.ResponseWriter) {
	retry := m.policy.BlockDuration
	if retry <= 0 {
		retry = m.policy.Window
	}
	w.Header().Set("Retry-After", fmt.Sprintf("%d", int(retry.Seconds())))
	response.Error(w, http.StatusTooManyRequests, "too many requests")
}
