package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/ikkim/userhub-backend/config"
	"github.com/ikkim/userhub-backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

var client *redis.Client

// Init initializes the Redis connection
func Init(cfg *config.RedisConfig) error {
	logger.Info("Initializing Redis connection", map[string]interface{}{
		"host": cfg.Host,
		"port": cfg.Port,
		"db":   cfg.DB,
	})

	c := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := c.Ping(ctx).Err(); err != nil {
		logger.Error("Failed to connect to Redis", err, map[string]interface{}{
			"host": cfg.Host,
			"port": cfg.Port,
		})
		_ = c.Close()
		return fmt.Errorf("failed to connect to Redis: %w", err)
	}

	client = c
	logger.Info("Redis connection established successfully")
	return nil
}

// GetClient returns the Redis client instance, nil when Init was not called.
func GetClient() *redis.Client {
	return client
}

// Close closes the Redis connection
func Close() error {
	if client != nil {
		logger.Info("Closing Redis connection")
		return client.Close()
	}
	return nil
}

// FixedWindow counts hits per key in windows that start with the first hit.
type FixedWindow struct {
	client redis.UniversalClient
	prefix string
}

func NewFixedWindow(client redis.UniversalClient, prefix string) *FixedWindow {
	return &FixedWindow{client: client, prefix: prefix}
}

// Allow records a hit for key and reports whether it is within limit. The
// second return value is the time left until the window resets. EXPIRE NX
// runs in the same transaction as INCR, so the key always carries a TTL.
func (w *FixedWindow) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, time.Duration, error) {
	fullKey := fmt.Sprintf("%s:%s", w.prefix, key)

	pipe := w.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, window)
	ttl := pipe.PTTL(ctx, fullKey)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Error("Failed to record rate limit hit", err, map[string]interface{}{
			"key": fullKey,
		})
		return false, 0, err
	}

	return incr.Val() <= int64(limit), ttl.Val(), nil
}
