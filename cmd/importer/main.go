package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/config"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/db"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/importer"
	"github.com/phnam24/Shop-Front-End-temp-sub000/internal/repository/product"
)

func main() {
	var filePath string
	flag.StringVar(&filePath, "file", "", "Path to variant CSV export")
	flag.Parse()

	if filePath == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[importer] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	ctx := context.Background()

	pool, err := db.Connect(ctx, cfg.DBConnString)
	if err != nil {
		logger.Fatalf("connect db: %v", err)
	}
	defer pool.Close()

	f, err := os.Open(filePath)
	if err != nil {
		logger.Fatalf("open file: %v", err)
	}
	defer f.Close()

	imp := importer.NewCSVImporter(f, product.NewPostgres(pool, logger))

	start := time.Now()
	count, err := imp.Run(ctx)
	if err != nil {
		logger.Fatalf("import failed after %d variants: %v", count, err)
	}

	fmt.Printf("Imported %d variants in %s\n", count, time.Since(start).Truncate(time.Millisecond))
}
