package db

import (
	"context"
	"time"

	"rps_arena/internal/logger"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jpillora/backoff"
)

// Connect opens a pool and waits for the database to answer a ping,
// retrying with exponential backoff. It exits the process when all
// attempts fail.
func Connect(dsn string, attempts int) *pgxpool.Pool {
	db, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		logger.Fatal("failed to create database pool", "error", err)
	}

	if attempts < 1 {
		attempts = 1
	}
	b := &backoff.Backoff{
		Min:    200 * time.Millisecond,
		Max:    5 * time.Second,
		Factor: 2,
		Jitter: true,
	}

	for {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = db.Ping(ctx)
		cancel()
		if err == nil {
			break
		}
		if int(b.Attempt())+1 >= attempts {
			logger.Fatal("failed to ping database", "error", err, "attempts", attempts)
		}
		wait := b.Duration()
		logger.Warn("database not ready, retrying", "error", err, "wait", wait.String())
		time.Sleep(wait)
	}

	logger.Info("database connected")
	return db
}
