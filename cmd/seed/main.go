package main

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/oksasatya/streamtube-backend/config"
	"github.com/oksasatya/streamtube-backend/internal/domain/entity"
	"github.com/oksasatya/streamtube-backend/internal/domain/repository"
	pginfra "github.com/oksasatya/streamtube-backend/internal/infrastructure/postgres"
	"github.com/oksasatya/streamtube-backend/pkg/helpers"
)

// seed inserts a demo account for local development.
// Usage: go run ./cmd/seed
func main() {
	_ = godotenv.Load()

	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pginfra.NewPool(ctx, cfg.PostgresDSN(), cfg.DBMaxConns, cfg.DBMinConns, cfg.DBMaxConnLife)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()

	repo := pginfra.NewUserRepository(pool)

	const (
		username = "demo"
		email    = "demo@streamtube.local"
		password = "demo12345"
	)

	if _, err := repo.GetByUsernameOrEmail(ctx, username, email); err == nil {
		log.Printf("demo user already exists, skipping")
		return
	} else if !errors.Is(err, repository.ErrNotFound) {
		log.Fatalf("lookup demo user: %v", err)
	}

	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("hash password: %v", err)
	}

	u := &entity.User{
		Username: username,
		Email:    email,
		FullName: "Demo User",
		Password: hash,
	}
	if err := repo.Create(ctx, u); err != nil {
		log.Fatalf("create demo user: %v", err)
	}

	log.Printf("seeded demo user %s (%s) with password %q", username, email, password)
}
