package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/glucon/glucon-api/application/port/inbound"
	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/domain/entity"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

var (
	ErrInvalidPayload     = errors.New("invalid payload")
	ErrDuplicateEmail     = errors.New("email exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many failed login attempts")
)

// dummyPassword is hashed once and compared against when the email is
// unknown, so both login failure paths pay for one bcrypt comparison.
const dummyPassword = "glucon-timing-equalizer"

// LoginThrottle limits failed logins per email. A zero Limit disables it.
type LoginThrottle struct {
	Limit         int
	Window        time.Duration
	BlockDuration time.Duration
}

type AuthUseCase struct {
	userRepository   outbound.UserRepository
	tokenService     outbound.TokenService
	passwordService  outbound.PasswordService
	rateLimitService inbound.RateLimitService
	throttle         LoginThrottle
	logger           logger.Logger

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthUseCase(
	userRepo outbound.UserRepository,
	tokenService outbound.TokenService,
	passwordService outbound.PasswordService,
	rateLimitService inbound.RateLimitService,
	throttle LoginThrottle,
	logger logger.Logger,
) *AuthUseCase {
	return &AuthUseCase{
		userRepository:   userRepo,
		tokenService:     tokenService,
		passwordService:  passwordService,
		rateLimitService: rateLimitService,
		throttle:         throttle,
		logger:           logger,
	}
}

func (uc *AuthUseCase) Register(ctx context.Context, req inbound.RegisterRequest) (*inbound.RegisterResponse, error) {
	if missing := missingFields(map[string]string{
		"first_name": req.FirstName,
		"last_name":  req.LastName,
		"email":      req.Email,
		"password":   req.Password,
	}); missing != "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidPayload, missing)
	}

	hash, err := uc.passwordService.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	user := entity.NewUser(req.FirstName, req.LastName, req.Email, hash)
	if err := uc.userRepository.Create(ctx, user); err != nil {
		if errors.Is(err, outbound.ErrEmailTaken) {
			logger.LogAuthEvent(ctx, uc.logger, "register_duplicate_email", "", "", false, nil)
			return nil, fmt.Errorf("%w: %v", ErrDuplicateEmail, err)
		}
		uc.logger.Error(ctx, "Failed to create user", err, nil)
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "register", strconv.FormatInt(user.ID, 10), "", true, nil)

	return &inbound.RegisterResponse{ID: user.ID}, nil
}

func (uc *AuthUseCase) Login(ctx context.Context, req inbound.LoginRequest) (*inbound.LoginResponse, error) {
	if missing := missingFields(map[string]string{
		"email":    req.Email,
		"password": req.Password,
	}); missing != "" {
		return nil, fmt.Errorf("%w: %s is required", ErrInvalidPayload, missing)
	}

	email := strings.TrimSpace(req.Email)
	throttleKey := "login:email:" + strings.ToLower(email)

	if uc.throttled(ctx, throttleKey) {
		logger.LogSecurityEvent(ctx, uc.logger, "blocked_login_attempt", "MEDIUM", nil)
		return nil, ErrTooManyAttempts
	}

	user, err := uc.userRepository.FindByEmail(ctx, email)
	if err != nil && !errors.Is(err, outbound.ErrUserNotFound) {
		uc.logger.Error(ctx, "Failed to find user", err, nil)
		return nil, fmt.Errorf("failed to find user: %w", err)
	}

	start := time.Now()
	if user == nil {
		_ = uc.passwordService.ComparePassword(uc.timingHash(), req.Password)
		err = outbound.ErrUserNotFound
	} else {
		err = uc.passwordService.ComparePassword(user.PasswordHash, req.Password)
	}
	logger.LogPerformance(ctx, uc.logger, "password_verification", time.Since(start), nil)

	if err != nil {
		uc.recordFailure(ctx, throttleKey)
		logger.LogAuthEvent(ctx, uc.logger, "login_failed", "", "", false, nil)
		return nil, ErrInvalidCredentials
	}

	issued, err := uc.tokenService.Issue(user.ID)
	if err != nil {
		uc.logger.Error(ctx, "Failed to issue token", err, nil)
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	logger.LogAuthEvent(ctx, uc.logger, "login", strconv.FormatInt(user.ID, 10), "", true, nil)

	return &inbound.LoginResponse{
		Token:     issued.Token,
		ExpiresAt: issued.ExpiresAt,
	}, nil
}

func (uc *AuthUseCase) Me(ctx context.Context, userID int64) (*inbound.MeResponse, error) {
	user, err := uc.userRepository.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &inbound.MeResponse{
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Email:     user.Email,
	}, nil
}

func (uc *AuthUseCase) timingHash() string {
	uc.dummyOnce.Do(func() {
		hash, err := uc.passwordService.HashPassword(dummyPassword)
		if err != nil {
			uc.logger.Warn(context.Background(), "Failed to prepare dummy password hash", map[string]interface{}{
				"error": err.Error(),
			})
			return
		}
		uc.dummyHash = hash
	})
	return uc.dummyHash
}

func (uc *AuthUseCase) throttled(ctx context.Context, key string) bool {
	if uc.rateLimitService == nil || uc.throttle.Limit <= 0 {
		return false
	}

	blocked, err := uc.rateLimitService.IsBlocked(ctx, key)
	if err != nil {
		// fail open: the limiter is an add-on, not part of authentication
		uc.logger.Error(ctx, "Failed to check login block status", err, nil)
		return false
	}
	return blocked
}

func (uc *AuthUseCase) recordFailure(ctx context.Context, key string) {
	if uc.rateLimitService == nil || uc.throttle.Limit <= 0 {
		return
	}

	if err := uc.rateLimitService.Increment(ctx, key, uc.throttle.Window); err != nil {
		uc.logger.Error(ctx, "Failed to record login failure", err, nil)
		return
	}

	allowed, err := uc.rateLimitService.CheckLimit(ctx, key, uc.throttle.Limit, uc.throttle.Window)
	if err != nil || allowed {
		return
	}

	if err := uc.rateLimitService.Block(ctx, key, uc.throttle.BlockDuration, "too many failed logins"); err != nil {
		uc.logger.Error(ctx, "Failed to block login key", err, nil)
		return
	}
	logger.LogSecurityEvent(ctx, uc.logger, "login_failure_limit_exceeded", "HIGH", nil)
}

// missingFields returns the first blank field name in a stable order, or "".
func missingFields(fields map[string]string) string {
	for _, name := range []string{"first_name", "last_name", "email", "password", "title", "content"} {
		value, ok := fields[name]
		if ok && strings.TrimSpace(value) == "" {
			return name
		}
	}
	return ""
}
