package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/glucon/glucon-api/application/port/inbound"
	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/application/usecase"
	"github.com/glucon/glucon-api/infrastructure/config"
	"github.com/glucon/glucon-api/infrastructure/http/middleware"
	"github.com/glucon/glucon-api/infrastructure/http/server"
	"github.com/glucon/glucon-api/infrastructure/persistence"
	"github.com/glucon/glucon-api/infrastructure/service/imagestore"
	"github.com/glucon/glucon-api/infrastructure/service/jwt"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
	"github.com/glucon/glucon-api/infrastructure/service/password"
	"github.com/glucon/glucon-api/infrastructure/service/ratelimit"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	structuredLogger := logger.NewStructuredLogger(logger.LoggerConfig{
		Level:       cfg.LogLevel,
		Format:      cfg.LogFormat,
		ServiceName: "glucon-api",
	})
	structuredLogger.Info(ctx, "Application starting", map[string]interface{}{
		"env":       cfg.Environment,
		"db_driver": cfg.DatabaseDriver,
	})

	stores, err := persistence.Open(ctx, cfg)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to open database", err, map[string]interface{}{
			"driver": cfg.DatabaseDriver,
		})
		log.Fatalf("Failed to open database: %v", err)
	}
	defer stores.Close()
	structuredLogger.Info(ctx, "Database connection established", map[string]interface{}{
		"driver":       cfg.DatabaseDriver,
		"auto_migrate": cfg.DBAutoMigrate,
	})

	images, err := openImageStore(ctx, cfg)
	if err != nil {
		structuredLogger.Error(ctx, "Failed to initialize image store", err, map[string]interface{}{
			"store": cfg.ImageStore,
		})
		log.Fatalf("Failed to initialize image store: %v", err)
	}

	// Redis-backed or noop based on config
	var rateLimitService inbound.RateLimitService
	{
		rlLogger := logrus.New()
		rs, err := ratelimit.NewRateLimitService(ratelimit.RateLimitConfig{
			Enabled:  cfg.RateLimitEnabled,
			RedisURL: cfg.RedisURL,
			Prefix:   "glucon",
		}, rlLogger)
		if err != nil {
			structuredLogger.Error(ctx, "Failed to initialize rate limit service, continuing without it", err, map[string]interface{}{
				"enabled": cfg.RateLimitEnabled,
			})
			rs = ratelimit.NewNoopRateLimitService()
		}
		rateLimitService = rs
		structuredLogger.Info(ctx, "Rate limiting service initialized", map[string]interface{}{
			"enabled": cfg.RateLimitEnabled,
		})
	}

	tokenService, err := jwt.NewJWTService(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize JWT service: %v", err)
	}
	passwordService := password.NewBcryptPasswordService(cfg.BcryptCost)

	authUseCase := usecase.NewAuthUseCase(
		stores.Users,
		tokenService,
		passwordService,
		rateLimitService,
		usecase.LoginThrottle{
			Limit:         cfg.LoginFailureLimit,
			Window:        cfg.LoginFailureWindow,
			BlockDuration: cfg.RateLimitBlockDuration,
		},
		structuredLogger,
	)
	recipeUseCase := usecase.NewRecipeUseCase(stores.Recipes, images, structuredLogger)

	handler := server.NewHandler(server.Dependencies{
		AuthUseCase:      authUseCase,
		RecipeUseCase:    recipeUseCase,
		TokenService:     tokenService,
		RateLimitService: rateLimitService,
		RateLimitPolicy: middleware.RateLimitPolicy{
			Limit:         cfg.RateLimitAttempts,
			Window:        cfg.RateLimitWindow,
			BlockDuration: cfg.RateLimitBlockDuration,
		},
		Logger:               structuredLogger,
		MaxUploadBytes:       cfg.MaxUploadBytes,
		CORSEnabled:          cfg.CORSEnabled,
		CORSAllowedOrigins:   cfg.CORSAllowedOrigins,
		CORSAllowCredentials: cfg.CORSAllowCredentials,
	})

	srv := server.NewServer(server.ServerConfig{
		Host:         cfg.ServerHost,
		Port:         cfg.ServerPort,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}, handler, structuredLogger)

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- srv.Start()
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		if err != nil {
			structuredLogger.Error(ctx, "Server failed", err, map[string]interface{}{
				"addr": srv.Addr(),
			})
			os.Exit(1)
		}
		return
	case <-quit:
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		structuredLogger.Error(ctx, "Server forced to shutdown", err, nil)
	}
	structuredLogger.Info(ctx, "Server exited", nil)
}

func openImageStore(ctx context.Context, cfg *config.Config) (outbound.ImageStore, error) {
	if cfg.ImageStore == config.ImageStoreS3 {
		return imagestore.NewS3ImageStore(ctx, imagestore.S3Config{
			Bucket:       cfg.S3Bucket,
			Region:       cfg.S3Region,
			Endpoint:     cfg.S3Endpoint,
			AccessKey:    cfg.S3AccessKey,
			SecretKey:    cfg.S3SecretKey,
			UsePathStyle: cfg.S3UsePathStyle,
		})
	}
	return imagestore.NewLocalImageStore(cfg.UploadDir)
}
