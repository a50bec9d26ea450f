// File: utils/cache.go
package utils

import (
	"context"
	"log"
	"time"

	"senadirectory/config"

	"github.com/go-redis/redis/v8"
)

// CacheClient backs the key-value persistence store.
var CacheClient *redis.Client

// InitCache initializes the Redis client used for key-value persistence.
func InitCache() {
	CacheClient = redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisCacheDB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := CacheClient.Ping(ctx).Result(); err != nil {
		log.Fatalf("Failed to connect to Redis (Cache): %v", err)
	}
}

// GetCacheClient returns the key-value cache client.
func GetCacheClient() *redis.Client {
	if CacheClient == nil {
		InitCache()
	}
	return CacheClient
}
