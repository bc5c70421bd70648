// file: db/redis.go

package db

import (
	"context"
	"fmt"
	"jwt-auth-api/config"
	"jwt-auth-api/logger"
	"time"

	"github.com/redis/go-redis/v9"
)

// ConnectRedis returns a client for the Redis ledger after a successful ping.
func ConnectRedis(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		logger.Log.WithError(err).Error("Failed to ping Redis")
		rdb.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Log.WithField("address", cfg.Addr()).Info("Redis connection established successfully")
	return rdb, nil
}
