package db

import (
	"context"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

var Pool *pgxpool.Pool

// InitPostgres connects the shared pool. The archive is optional: without a
// DATABASE_URL the agent runs with history in Redis only.
func InitPostgres(ctx context.Context) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		log.Warn().Msg("DATABASE_URL not set, post archive disabled")
		return
	}

	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create Postgres pool")
	}
	if err := pool.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Postgres")
	}

	Pool = pool
	log.Info().Msg("Connected to Postgres")
}
