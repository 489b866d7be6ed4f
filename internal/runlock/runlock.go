// Package runlock guards against two refresh runs overlapping. The guard is
// best-effort: the pipeline is correct without it, it only avoids wasted
// scraping when a prior run is still active.
package runlock

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const lockKey = "tennisdata:refresh:active"

// Lock is a Redis-backed single-holder run lock with a TTL so a crashed run
// cannot wedge the schedule.
type Lock struct {
	client *redis.Client
	ttl    time.Duration
}

// Config holds Redis connection settings for the lock.
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// New connects to Redis and returns a run lock, or an error when Redis is
// unreachable.
func New(ctx context.Context, cfg Config) (*Lock, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	log.Info().Str("addr", cfg.Addr).Msg("Run lock connected")
	return &Lock{client: client, ttl: cfg.TTL}, nil
}

// Acquire attempts to take the lock. It returns false when a previous run is
// still active.
func (l *Lock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockKey, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	return ok, nil
}

// Release drops the lock. Safe to call even when the TTL already expired.
func (l *Lock) Release(ctx context.Context) {
	if err := l.client.Del(ctx, lockKey).Err(); err != nil {
		log.Warn().Err(err).Msg("Failed to release run lock")
	}
}

// Close closes the Redis connection.
func (l *Lock) Close() {
	if err := l.client.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close run lock connection")
	}
}
