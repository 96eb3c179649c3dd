// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const redisOpTimeout = 500 * time.Millisecond

// Redis is a Cache backed by Redis that falls back to an in-process
// cache whenever Redis errors.
type Redis struct {
	client   redis.Cmdable
	fallback *Memory
	logger   *zap.Logger
}

// NewRedis wraps an existing client.
func NewRedis(client redis.Cmdable, logger *zap.Logger) *Redis {
	return &Redis{
		client:   client,
		fallback: NewMemory(),
		logger:   logger.Named("redis_cache"),
	}
}

// New returns a Redis cache for redisURL, or a memory cache when the URL is
// empty or Redis is unreachable.
func New(ctx context.Context, redisURL string, logger *zap.Logger) Cache {
	if redisURL == "" {
		logger.Info("Redis URL not set, using in-memory cache")
		return NewMemory()
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		logger.Warn("Invalid Redis URL, using in-memory cache", zap.Error(err))
		return NewMemory()
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, using in-memory cache",
			zap.String("addr", opts.Addr),
			zap.Error(err))
		_ = client.Close()
		return NewMemory()
	}
	logger.Info("Connected to Redis", zap.String("addr", opts.Addr))
	return NewRedis(client, logger)
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	v, err := r.client.Get(ctx, key).Bytes()
	if err == nil {
		return v, true
	}
	if !errors.Is(err, redis.Nil) {
		r.logger.Debug("Redis get failed, trying memory", zap.String("key", key), zap.Error(err))
	}
	return r.fallback.Get(ctx, key)
}

func (r *Redis) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := r.client.Set(ctx, key, val, ttl).Err(); err != nil {
		r.logger.Debug("Redis set failed, storing in memory", zap.String("key", key), zap.Error(err))
		r.fallback.Set(ctx, key, val, ttl)
	}
}

func (r *Redis) Delete(ctx context.Context, key string) {
	ctx, cancel := context.WithTimeout(ctx, redisOpTimeout)
	defer cancel()
	if err := r.client.Del(ctx, key).Err(); err != nil {
		r.logger.Debug("Redis del failed", zap.String("key", key), zap.Error(err))
	}
	r.fallback.Delete(ctx, key)
}

// Close releases the connection pool when the wrapped client owns one.
func (r *Redis) Close() error {
	if c, ok := r.client.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
