package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisStore persists values in redis under "<namespace>:<key>".
type RedisStore struct {
	client    *redis.Client
	namespace string
	ttl       time.Duration
	logger    *zap.Logger
}

// NewRedisStore wraps client. A zero ttl keeps values until removed.
func NewRedisStore(client *redis.Client, namespace string, ttl time.Duration, logger *zap.Logger) *RedisStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStore{client: client, namespace: namespace, ttl: ttl, logger: logger}
}

func (r *RedisStore) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

func (r *RedisStore) Read(ctx context.Context, key string) (string, bool) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn("kvstore: redis read failed", zap.String("key", key), zap.Error(err))
		}
		return "", false
	}
	return val, true
}

func (r *RedisStore) Write(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, r.ttl).Err(); err != nil {
		r.logger.Error("kvstore: redis write failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (r *RedisStore) Remove(ctx context.Context, key string) {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Warn("kvstore: redis remove failed", zap.String("key", key), zap.Error(err))
	}
}
