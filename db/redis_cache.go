package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-redis/redis/v8"

	"marks-quartile-server/config"
	"marks-quartile-server/models"
)

const reportKeyPrefix = "report:" // String prefix: report:{format}:{sha256} -> JSON report

// RedisCache keeps recently built reports so re-uploading the same file skips
// decoding. Entries expire after TTL; nothing is kept beyond that.
type RedisCache struct {
	Client *redis.Client
	TTL    time.Duration
}

// NewRedisCache creates a new RedisCache instance
func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{
		Client: client,
		TTL:    ttl,
	}
}

// Helper to generate the report key
func getReportKey(key string) string {
	return reportKeyPrefix + key
}

// Get returns the cached report for key, or nil if there is none.
func (c *RedisCache) Get(ctx context.Context, key string) (*models.Report, error) {
	data, err := c.Client.Get(ctx, getReportKey(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil // Not cached
		}
		return nil, fmt.Errorf("failed to get report from Redis: %w", err)
	}

	var report models.Report
	if err := json.Unmarshal(data, &report); err != nil {
		// A corrupt entry is treated as a miss and dropped.
		slog.WarnContext(ctx, "discarding unreadable cached report", slog.String("key", key), slog.Any("error", err))
		c.Client.Del(ctx, getReportKey(key))
		return nil, nil
	}
	return &report, nil
}

// Set stores report under key for the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, report *models.Report) error {
	data, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	if err := c.Client.Set(ctx, getReportKey(key), data, c.TTL).Err(); err != nil {
		return fmt.Errorf("failed to store report in Redis: %w", err)
	}
	return nil
}

// --- Utility ---

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis at %s: %w", cfg.Addr, err)
	}

	slog.Info("Successfully connected to Redis", slog.String("addr", cfg.Addr), slog.Int("db", cfg.DB))
	return rdb, nil
}
