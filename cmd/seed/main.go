package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/glucon/glucon-api/application/port/inbound"
	"github.com/glucon/glucon-api/application/usecase"
	"github.com/glucon/glucon-api/infrastructure/config"
	"github.com/glucon/glucon-api/infrastructure/persistence"
	"github.com/glucon/glucon-api/infrastructure/service/jwt"
	"github.com/glucon/glucon-api/infrastructure/service/logger"
	"github.com/glucon/glucon-api/infrastructure/service/password"
	"github.com/glucon/glucon-api/infrastructure/service/ratelimit"
)

var demoRecipes = []inbound.CreateRecipeRequest{
	{Title: "Overnight oats", Content: "Mix oats, milk and chia seeds. Refrigerate overnight."},
	{Title: "Lentil soup", Content: "Simmer lentils with carrots, onion and cumin for 30 minutes."},
	{Title: "Greek salad", Content: "Tomato, cucumber, red onion, feta and olives with olive oil."},
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	email := getenvDefault("SEED_USER_EMAIL", "demo@example.com")
	pw := getenvDefault("SEED_USER_PASSWORD", "Demo1234!")

	stores, err := persistence.Open(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer stores.Close()

	tokenService, err := jwt.NewJWTService(cfg)
	if err != nil {
		log.Fatalf("failed to initialize JWT service: %v", err)
	}

	seedLogger := logger.NewStructuredLogger(logger.LoggerConfig{Level: "warn", Format: "text"})
	authUseCase := usecase.NewAuthUseCase(
		stores.Users,
		tokenService,
		password.NewBcryptPasswordService(cfg.BcryptCost),
		ratelimit.NewNoopRateLimitService(),
		usecase.LoginThrottle{},
		seedLogger,
	)
	recipeUseCase := usecase.NewRecipeUseCase(stores.Recipes, nil, seedLogger)

	res, err := authUseCase.Register(ctx, inbound.RegisterRequest{
		FirstName: "Demo",
		LastName:  "User",
		Email:     email,
		Password:  pw,
	})
	switch {
	case errors.Is(err, usecase.ErrDuplicateEmail):
		fmt.Printf("User %s already exists, skipping\n", email)
		return
	case err != nil:
		fatal("failed to seed user: %v", err)
	}
	fmt.Printf("Seeded user: email=%s password=%s id=%d\n", email, pw, res.ID)

	for _, req := range demoRecipes {
		req.CreatedBy = &res.ID
		created, err := recipeUseCase.CreateRecipe(ctx, req)
		if err != nil {
			fatal("failed to seed recipe %q: %v", req.Title, err)
		}
		fmt.Printf("Seeded recipe: id=%d title=%s\n", created.ID, req.Title)
	}
}

func fatal(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func getenvDefault(k, d string) string {
	v := os.Getenv(k)
	if v == "" {
		return d
	}
	return v
}
