package health

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Proton-105/mensa-bot/pkg/config"
	"github.com/Proton-105/mensa-bot/pkg/redis"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCheckReportsEveryComponent(t *testing.T) {
	c := NewChecker(testLogger(), time.Second)
	c.AddCheck("records", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("telegram", CheckFunc(func(context.Context) error { return errors.New("unauthorized") }))
	c.AddCheck("", CheckFunc(func(context.Context) error { return nil }))
	c.AddCheck("nil", nil)

	results := c.Check(context.Background())
	assert.Equal(t, map[string]string{"records": "OK", "telegram": "unauthorized"}, results)
	assert.False(t, Healthy(results))
}

func TestCheckAppliesTimeout(t *testing.T) {
	c := NewChecker(testLogger(), 10*time.Millisecond)
	c.AddCheck("slow", CheckFunc(func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}))

	results := c.Check(context.Background())
	assert.Equal(t, context.DeadlineExceeded.Error(), results["slow"])
}

func TestHandlerWithRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client, err := redis.New(context.Background(), config.RedisConfig{Addr: mr.Addr(), MaxRetries: -1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	c := NewChecker(testLogger(), time.Second)
	c.AddCheck("redis", client)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body response
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	assert.Equal(t, "OK", body.Components["redis"])

	mr.Close()

	rec = httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, []string{"redis"}, body.Failing)
}

func TestLivenessHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	LivenessHandler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/livez", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}
