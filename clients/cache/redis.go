package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kava-labs/batch-api-service/logging"
)

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	// KeyPrefix namespaces every key written by this client
	KeyPrefix string
}

// RedisCache is an implementation of Cache that uses Redis as the caching backend.
type RedisCache struct {
	client    *redis.Client
	keyPrefix string
	*logging.ServiceLogger
}

var _ Cache = (*RedisCache)(nil)

func NewRedisCache(
	cfg *RedisConfig,
	logger *logging.ServiceLogger,
) (*RedisCache, error) {
	if cfg.Address == "" {
		return nil, errors.New("redis address must not be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	return &RedisCache{
		client:        client,
		keyPrefix:     cfg.KeyPrefix,
		ServiceLogger: logger,
	}, nil
}

func (rc *RedisCache) key(key string) string {
	if rc.keyPrefix == "" {
		return key
	}
	return rc.keyPrefix + ":" + key
}

// Set sets the value for the given key in the cache with the given expiration.
func (rc *RedisCache) Set(
	ctx context.Context,
	key string,
	value []byte,
	expiration time.Duration,
) error {
	rc.Logger.Trace().
		Str("key", rc.key(key)).
		Int("size", len(value)).
		Dur("expiration", expiration).
		Msg("setting value in redis")

	// -1 means cache indefinitely.
	if expiration == -1 {
		// In redis zero expiration means the key has no expiration time.
		expiration = 0
	}

	return rc.client.Set(ctx, rc.key(key), value, expiration).Err()
}

// Get gets the value for the given key in the cache.
func (rc *RedisCache) Get(
	ctx context.Context,
	key string,
) ([]byte, error) {
	rc.Logger.Trace().
		Str("key", rc.key(key)).
		Msg("getting value from redis")

	val, err := rc.client.Get(ctx, rc.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		rc.Logger.Error().
			Str("key", rc.key(key)).
			Err(err).
			Msg("error during getting value from redis")
		return nil, err
	}

	return val, nil
}

// Delete deletes the value for the given key in the cache.
func (rc *RedisCache) Delete(ctx context.Context, key string) error {
	rc.Logger.Trace().
		Str("key", rc.key(key)).
		Msg("deleting value from redis")

	return rc.client.Del(ctx, rc.key(key)).Err()
}

func (rc *RedisCache) Healthcheck(ctx context.Context) error {
	_, err := rc.client.Ping(ctx).Result()
	if err != nil {
		rc.Logger.Error().
			Err(err).
			Msg("can't ping redis")
		return fmt.Errorf("error connecting to Redis: %v", err)
	}

	return nil
}

// Close closes the underlying redis client
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}
