package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kava-labs/batch-api-service/clients/cache"
	"github.com/kava-labs/batch-api-service/logging"
)

func TestUnitTestNewRedisCacheRequiresAddress(t *testing.T) {
	_, err := cache.NewRedisCache(&cache.RedisConfig{}, logging.Nop())
	require.Error(t, err)
}

func TestUnitTestRedisCacheUnreachable(t *testing.T) {
	// nothing listens on port 1
	c, err := cache.NewRedisCache(&cache.RedisConfig{Address: "127.0.0.1:1"}, logging.Nop())
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	require.Error(t, c.Healthcheck(ctx))

	_, err = c.Get(ctx, "key")
	require.Error(t, err)
	require.NotErrorIs(t, err, cache.ErrNotFound)
}
