// Package server assembles the HTTP router and runs the listener.
package server

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/glucon/glucon-api/application/port/inbound"
	"github.com/glucon/glucon-api/application/port/outbound"
	"github.com/glucon/glucon-api/infrastructure/http/handler"
	"github.com/glucon/glucon-api/infrastructure/http/middleware"
	"github.com/glucon/glucon-api/infrastructure/http/response"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
)

// Dependencies are the collaborators the router needs.
type Dependencies struct {
	AuthUseCase      inbound.AuthUseCase
	RecipeUseCase    inbound.RecipeUseCase
	TokenService     outbound.TokenService
	RateLimitService inbound.RateLimitService
	RateLimitPolicy  middleware.RateLimitPolicy
	Logger           logger.Logger
	MaxUploadBytes   int64

	CORSEnabled          bool
	CORSAllowedOrigins   []string
	CORSAllowCredentials bool
}

// NewHandler builds the full request pipeline.
func NewHandler(deps Dependencies) http.Handler {
	log := deps.Logger
	if log == nil {
		log = logger.NewNopLogger()
	}

	authHandler := handler.NewAuthHandler(deps.AuthUseCase, log)
	recipeHandler := handler.NewRecipeHandler(deps.RecipeUseCase, deps.MaxUploadBytes, log)
	authMiddleware := middleware.NewAuthMiddleware(deps.TokenService, log)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(deps.RateLimitService, deps.RateLimitPolicy, log)

	router := mux.NewRouter()
	router.Use(middleware.CorrelationIDMiddleware)
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logging(log))

	router.HandleFunc("/register", rateLimitMiddleware.Limit("register", authHandler.Register)).Methods(http.MethodPost)
	router.HandleFunc("/login", rateLimitMiddleware.Limit("login", authHandler.Login)).Methods(http.MethodPost)
	router.HandleFunc("/me", authMiddleware.RequireAuth(authHandler.Me)).Methods(http.MethodGet)

	router.HandleFunc("/recipes", authMiddleware.RequireAuth(recipeHandler.Create)).Methods(http.MethodPost)
	router.HandleFunc("/recipes", authMiddleware.RequireAuth(recipeHandler.List)).Methods(http.MethodGet)
	router.HandleFunc("/recipes/{id}", authMiddleware.RequireAuth(recipeHandler.Get)).Methods(http.MethodGet)
	router.HandleFunc("/images/{filename}", recipeHandler.Image).Methods(http.MethodGet)
	router.HandleFunc("/admin/recipes", authMiddleware.RequireAuth(recipeHandler.AdminCreate)).Methods(http.MethodPost)

	router.HandleFunc("/health", handler.Health).Methods(http.MethodGet)

	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		response.Error(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	var h http.Handler = router
	if deps.CORSEnabled && len(deps.CORSAllowedOrigins) > 0 {
		h = middleware.CORS(deps.CORSAllowedOrigins, deps.CORSAllowCredentials)(h)
	}
	return h
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host         string
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// Server represents the HTTP server
type Server struct {
	server *http.Server
	logger logger.Logger
}

func NewServer(cfg ServerConfig, h http.Handler, log logger.Logger) *Server {
	return &Server{
		server: &http.Server{
			Addr:         net.JoinHostPort(cfg.Host, cfg.Port),
			Handler:      h,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		logger: log,
	}
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.server.Addr
}

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.logger.Info(context.Background(), "Starting HTTP server", map[string]interface{}{
		"addr": s.server.Addr,
	})
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info(ctx, "Shutting down HTTP server", nil)
	return s.server.Shutdown(ctx)
}
