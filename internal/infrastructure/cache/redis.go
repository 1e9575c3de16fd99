package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"GoreScanner/internal/ports"
)

const keyPrefix = "gorescanner:imgscore:"

// Redis stores image scores in a shared Redis instance. Errors degrade to
// cache misses.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

var _ ports.ScoreCache = (*Redis)(nil)

// NewRedis connects to addr and verifies the connection.
func NewRedis(ctx context.Context, addr string, ttl time.Duration, log *slog.Logger) (*Redis, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl, logger: log}, nil
}

// Close releases the client.
func (r *Redis) Close() error {
	return r.client.Close()
}

func (r *Redis) key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}

// Get returns the cached score for url.
func (r *Redis) Get(ctx context.Context, url string) (float64, bool) {
	val, err := r.client.Get(ctx, r.key(url)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.warn("redis get failed", "error", err)
		}
		return 0, false
	}
	score, err := strconv.ParseFloat(val, 64)
	if err != nil {
		r.warn("redis value is not a score", "value", val)
		return 0, false
	}
	return score, true
}

// Set stores score for url. A zero TTL keeps the key without expiry.
func (r *Redis) Set(ctx context.Context, url string, score float64) {
	val := strconv.FormatFloat(score, 'f', -1, 64)
	if err := r.client.Set(ctx, r.key(url), val, r.ttl).Err(); err != nil {
		r.warn("redis set failed", "error", err)
	}
}

func (r *Redis) warn(msg string, args ...interface{}) {
	if r.logger != nil {
		r.logger.Warn(msg, args...)
	}
}
