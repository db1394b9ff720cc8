package main

import (
	"context"
	"dispatch-route-service/internal/adapters/repositories"
	"dispatch-route-service/internal/config"
	"dispatch-route-service/internal/platform/db"
	"fmt"
	"os"
	"strings"
	"time"

	"go.uber.org/zap"
)

// dbtool creates the catalog schema in Postgres and upserts the seed catalog.
func main() {
	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer log.Sync()

	if !config.LoadDotEnv() {
		log.Info("no .env file found, using environment variables")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if strings.TrimSpace(databaseURL) == "" {
		log.Fatal("DATABASE_URL is required")
	}

	conn, err := db.Open(databaseURL)
	if err != nil {
		log.Fatal("open database", zap.Error(err))
	}
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	seedPath := config.Get("SEED_PATH", "data/seeds/catalog.json")

	log.Info("initializing database schema")
	if err := repositories.InitSchema(ctx, conn); err != nil {
		log.Fatal("schema initialization failed", zap.Error(err))
	}

	log.Info("seeding catalog", zap.String("path", seedPath))
	if err := repositories.SeedFromJSON(ctx, conn, seedPath); err != nil {
		log.Fatal("seeding failed", zap.Error(err))
	}
	log.Info("seeding complete")
}
