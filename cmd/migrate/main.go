package main

import (
	"context"
	"log"
	"os"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/config"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/db"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/migrate"
)

func main() {
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[migrate] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()
	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	version, err := migrate.ApplyVersion(ctx, pool)
	if err != nil {
		logger.Fatalf("apply migrations: %v", err)
	}

	logger.Printf("migrations applied, schema version %d", version)
}
