package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"github.com/glucon/glucon-api/application/port/inbound"
)

// redisRateLimitService keeps fixed-window counters and block markers in Redis.
type redisRateLimitService struct {
	redisClient *redis.Client
	logger      *logrus.Logger
	prefix      string
}

type RateLimitConfig struct {
	Enabled  bool
	RedisURL string
	// Prefix namespaces every key so several services can share one Redis.
	Prefix string
}

// NewRateLimitService returns a Redis-backed limiter, or a no-op limiter when
// rate limiting is disabled.
func NewRateLimitService(config RateLimitConfig, logger *logrus.Logger) (inbound.RateLimitService, error) {
	if !config.Enabled {
		logger.Info("Rate limiting disabled")
		return NewNoopRateLimitService(), nil
	}

	opt, err := redis.ParseURL(config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	redisClient := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		_ = redisClient.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	prefix := config.Prefix
	if prefix == "" {
		prefix = "glucon"
	}

	logger.WithField("prefix", prefix).Info("Rate limiting service initialized")

	return &redisRateLimitService{
		redisClient: redisClient,
		logger:      logger,
		prefix:      prefix,
	}, nil
}

func (s *redisRateLimitService) key(key string) string {
	return fmt.Sprintf("%s:rl:%s", s.prefix, key)
}

func (s *redisRateLimitService) blockKey(key string) string {
	return fmt.Sprintf("%s:blocked:%s", s.prefix, key)
}

func (s *redisRateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	currentCount, err := s.GetAttempts(ctx, key)
	if err != nil {
		return false, err
	}

	isUnderLimit := currentCount < limit

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"key":         key,
		"current":     currentCount,
		"limit":       limit,
		"under_limit": isUnderLimit,
	}).Debug("Rate limit check")

	return isUnderLimit, nil
}

// Increment bumps the counter. The window starts with the first hit; later
// hits do not extend it.
func (s *redisRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	k := s.key(key)

	count, err := s.redisClient.Incr(ctx, k).Result()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to increment rate limit counter")
		return fmt.Errorf("failed to increment rate limit: %w", err)
	}
	if count == 1 {
		if err := s.redisClient.Expire(ctx, k, window).Err(); err != nil {
			return fmt.Errorf("failed to set rate limit window: %w", err)
		}
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"key":    key,
		"count":  count,
		"window": window,
	}).Debug("Rate limit incremented")

	return nil
}

func (s *redisRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	blockKey := s.blockKey(key)

	blockData := map[string]interface{}{
		"reason":     reason,
		"blocked_at": time.Now().Unix(),
		"duration":   duration.Seconds(),
	}

	pipeline := s.redisClient.TxPipeline()
	pipeline.HSet(ctx, blockKey, blockData)
	pipeline.Expire(ctx, blockKey, duration)

	if _, err := pipeline.Exec(ctx); err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to block key")
		return fmt.Errorf("failed to block key: %w", err)
	}

	s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"key":      key,
		"duration": duration,
		"reason":   reason,
	}).Warn("Key blocked due to rate limit exceeded")

	return nil
}

func (s *redisRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	exists, err := s.redisClient.Exists(ctx, s.blockKey(key)).Result()
	if err != nil {
		s.logger.WithContext(ctx).WithError(err).Error("Failed to check block status")
		return false, fmt.Errorf("failed to check block status: %w", err)
	}

	return exists > 0, nil
}

func (s *redisRateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	count, err := s.redisClient.Get(ctx, s.key(key)).Int()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		s.logger.WithContext(ctx).WithError(err).Error("Failed to get attempts count")
		return 0, fmt.Errorf("failed to get attempts: %w", err)
	}

	return count, nil
}

// noopRateLimitService allows everything. Used when rate limiting is disabled.
type noopRateLimitService struct{}

func NewNoopRateLimitService() inbound.RateLimitService {
	return &noopRateLimitService{}
}

func (n *noopRateLimitService) CheckLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	return true, nil
}

func (n *noopRateLimitService) Increment(ctx context.Context, key string, window time.Duration) error {
	return nil
}

func (n *noopRateLimitService) Block(ctx context.Context, key string, duration time.Duration, reason string) error {
	return nil
}

func (n *noopRateLimitService) IsBlocked(ctx context.Context, key string) (bool, error) {
	return false, nil
}

func (n *noopRateLimitService) GetAttempts(ctx context.Context, key string) (int, error) {
	return 0, nil
}
