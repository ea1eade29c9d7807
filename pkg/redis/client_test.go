package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/pkg/config"
)

func TestNewConnectsAndPings(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := New(context.Background(), config.RedisConfig{Addr: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	assert.NoError(t, client.HealthCheck(context.Background()))
}

func TestNewFailsWithoutServer(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := New(context.Background(), config.RedisConfig{Addr: addr, MaxRetries: -1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to connect to redis")
}

func TestMetricsClient(t *testing.T) {
	mr := miniredis.RunT(t)
	client := NewMetricsClient(&Client{Client: goredis.NewClient(&goredis.Options{Addr: mr.Addr()})})
	t.Cleanup(func() { _ = client.Close() })
	ctx := context.Background()

	getsBefore := testutil.ToFloat64(redisRequestsTotal.WithLabelValues("get"))
	errorsBefore := testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get"))

	_, err := client.Get(ctx, "missing")
	require.ErrorIs(t, err, goredis.Nil)

	require.NoError(t, client.Set(ctx, "key", "value", time.Minute))
	value, err := client.Get(ctx, "key")
	require.NoError(t, err)
	assert.Equal(t, "value", value)

	ok, err := client.SetNX(ctx, "key", "other", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, client.Delete(ctx, "key"))
	assert.False(t, mr.Exists("key"))

	assert.Equal(t, getsBefore+2, testutil.ToFloat64(redisRequestsTotal.WithLabelValues("get")))
	assert.Equal(t, errorsBefore, testutil.ToFloat64(redisErrorsTotal.WithLabelValues("get")))
}

func TestAsynqOpt(t *testing.T) {
	opt := AsynqOpt(config.RedisConfig{Addr: "redis:6379", Password: "pw", DB: 2, PoolSize: 5})

	assert.Equal(t, "redis:6379", opt.Addr)
	assert.Equal(t, "pw", opt.Password)
	assert.Equal(t, 2, opt.DB)
	assert.Equal(t, 5, opt.PoolSize)
}
