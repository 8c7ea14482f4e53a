package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/pinnlo/pinnlo-server/config"
	"github.com/pinnlo/pinnlo-server/internal/logger"
)

const keyPrefix = "pinnlo:version:"

type redisVersions struct {
	log *logger.Logger
	rdb goredis.UniversalClient
}

// NewRedis connects to redis and verifies the connection with a ping.
func NewRedis(cfg config.RedisConfig, log *logger.Logger) (Versions, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("missing redis address")
	}
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return NewRedisFromClient(rdb, log), nil
}

func NewRedisFromClient(rdb goredis.UniversalClient, log *logger.Logger) Versions {
	return &redisVersions{log: log.With("service", "RedisVersions"), rdb: rdb}
}

func (r *redisVersions) Version(ctx context.Context, key string) (int64, error) {
	v, err := r.rdb.Get(ctx, keyPrefix+key).Int64()
	if errors.Is(err, goredis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read version %s: %w", key, err)
	}
	return v, nil
}

func (r *redisVersions) Bump(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	_, err := r.rdb.Pipelined(ctx, func(pipe goredis.Pipeliner) error {
		for _, k := range keys {
			pipe.Incr(ctx, keyPrefix+k)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("bump versions: %w", err)
	}
	return nil
}

func (r *redisVersions) Close() error {
	return r.rdb.Close()
}
