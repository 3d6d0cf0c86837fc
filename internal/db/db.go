package db

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var Pool *pgxpool.Pool

var newPool = pgxpool.New

// InitPostgres opens the package-level pool. An empty URL leaves the pool
// nil so the server can run with static snapshots only.
func InitPostgres(ctx context.Context, databaseURL string) {
	if databaseURL == "" {
		log.Println("DATABASE_URL not set, skipping Postgres")
		return
	}

	pool, err := newPool(ctx, databaseURL)
	if err != nil {
		log.Fatalf("failed to create Postgres pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("failed to connect to Postgres: %v", err)
	}
	Pool = pool
	log.Println("Connected to Postgres")
}

// Close releases the pool if one was opened.
func Close() {
	if Pool != nil {
		Pool.Close()
		Pool = nil
	}
}
