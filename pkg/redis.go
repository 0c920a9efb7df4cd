package pkg

import (
	"cascade"
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisSet stores a value in Redis with a TTL. The value is JSON-serialized.
func RedisSet(key string, value any, ttl time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	return cascade.Redis.Set(ctx, key, data, ttl).Err()
}

// RedisGet retrieves a value from Redis and JSON-deserializes it into dest.
// Returns redis.Nil if the key does not exist.
func RedisGet(key string, dest any) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	data, err := cascade.Redis.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}

	return json.Unmarshal(data, dest)
}

// RedisDelete removes a key from Redis.
func RedisDelete(key string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return cascade.Redis.Del(ctx, key).Err()
}

// RedisExists checks whether a key exists in Redis.
func RedisExists(key string) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	n, err := cascade.Redis.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}

	return n > 0, nil
}

// IsRedisNil returns true if the error is a redis key-not-found error.
func IsRedisNil(err error) bool {
	return errors.Is(err, redis.Nil)
}

// DatasetCacheWrite publishes a value to a shared dataset cache partition.
// Partitions are keyed by a cache id distinct from any node id so that many
// nodes across workflows can publish to and read from one named cache.
func DatasetCacheWrite(companyID, cacheID string, value any) error {
	return RedisSet(datasetCacheKey(companyID, cacheID), value, 0)
}

// DatasetCacheRead reads a shared dataset cache partition. ok is false when
// the partition has never been written.
func DatasetCacheRead(companyID, cacheID string, dest any) (bool, error) {
	err := RedisGet(datasetCacheKey(companyID, cacheID), dest)
	if IsRedisNil(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func datasetCacheKey(companyID, cacheID string) string {
	return "dataset_cache:" + companyID + ":" + cacheID
}

// RateLimitAllow implements a fixed-window counter. The first hit in a window
// creates the key with a TTL; every hit increments it. Returns false once the
// counter exceeds limit.
func RateLimitAllow(key string, limit int, window time.Duration) (bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	count, err := cascade.Redis.Incr(ctx, key).Result()
	if err != nil {
		return false, err
	}
	if count == 1 {
		if err := cascade.Redis.Expire(ctx, key, window).Err(); err != nil {
			return false, err
		}
	}
	return count <= int64(limit), nil
}
