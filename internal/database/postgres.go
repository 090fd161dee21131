// internal/database/postgres.go

// Package database persists match history. Only the historian process
// touches Postgres; the game server's hot path never does.
package database

import (
	"context"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DB is the global connection pool, set by ConnectDB.
var DB *pgxpool.Pool

// ConnectDB opens a pgx pool using DATABASE_URL.
func ConnectDB() error {
	pool, err := pgxpool.New(context.Background(), os.Getenv("DATABASE_URL"))
	if err != nil {
		return fmt.Errorf("create connection pool: %w", err)
	}
	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return fmt.Errorf("ping database: %w", err)
	}
	DB = pool
	return nil
}
