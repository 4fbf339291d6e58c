package main

import (
	"context"
	"log"
	"os"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/config"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/db"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/migrate"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/seed"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[seed] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	if err := migrate.Apply(ctx, pool); err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	token, err := seed.Apply(ctx, pool, logger)
	if err != nil {
		logger.Fatalf("seed apply: %v", err)
	}

	logger.Printf("seed applied; demo customer %s token: %s", seed.DemoEmail, token)
}
