// AngelaMos | 2026
// handler_test.go

package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

var healthy = pingFunc(func(context.Context) error { return nil })

func serve(t *testing.T, h *Handler, path string) *httptest.ResponseRecorder {
	t.Helper()
	r := chi.NewRouter()
	h.RegisterRoutes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestHealthReportsUptime(t *testing.T) {
	started := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	h := NewHandler(Config{StartedAt: started})
	h.now = func() time.Time { return started.Add(90*time.Second + 250*time.Millisecond) }

	rec := serve(t, h, "/health")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true,"uptimeSeconds":90.25}`, rec.Body.String())
}

func TestReadinessHealthy(t *testing.T) {
	h := NewHandler(Config{
		DB:      healthy,
		Redis:   healthy,
		DBStats: func() sql.DBStats { return sql.DBStats{MaxOpenConnections: 25, InUse: 2} },
	})

	rec := serve(t, h, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ok", body.Status)
	require.Len(t, body.Checks, 2)
	assert.Equal(t, "database", body.Checks[0].Name)
	assert.Equal(t, "redis", body.Checks[1].Name)
	require.NotNil(t, body.Pools)
	assert.Equal(t, 25, body.Pools.Database.MaxOpenConnections)
	assert.Nil(t, body.Pools.Redis)
}

func TestReadinessDegradedWhenDependencyFails(t *testing.T) {
	h := NewHandler(Config{
		DB:    healthy,
		Redis: pingFunc(func(context.Context) error { return errors.New("refused") }),
	})

	rec := serve(t, h, "/readyz")
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body ReadinessResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.False(t, body.Checks[1].Healthy)
	assert.Equal(t, "ping failed", body.Checks[1].Message)
	assert.Nil(t, body.Pools)
}

func TestShutdownFlipsProbes(t *testing.T) {
	h := NewHandler(Config{DB: healthy, Redis: healthy})
	h.SetShutdown(true)

	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, "/livez").Code)
	assert.Equal(t, http.StatusServiceUnavailable, serve(t, h, "/readyz").Code)
	assert.Equal(t, http.StatusOK, serve(t, h, "/health").Code)
}

func TestNotReady(t *testing.T) {
	h := NewHandler(Config{DB: healthy, Redis: healthy})
	h.SetReady(false)

	rec := serve(t, h, "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"not_ready"}`, rec.Body.String())
}
