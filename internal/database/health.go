package database

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// HealthStatus reports the reachability of the backing stores.
type HealthStatus struct {
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

// Healthy reports whether every store answered.
func (h HealthStatus) Healthy() bool {
	return h.Postgres == "ok" && h.Redis == "ok"
}

// CheckHealth pings PostgreSQL and Redis with a short timeout.
func CheckHealth(ctx context.Context, pool *pgxpool.Pool, rdb *redis.Client) HealthStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := HealthStatus{Postgres: "ok", Redis: "ok"}
	if err := pool.Ping(ctx); err != nil {
		status.Postgres = err.Error()
	}
	if err := rdb.Ping(ctx).Err(); err != nil {
		status.Redis = err.Error()
	}
	return status
}
