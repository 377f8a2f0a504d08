// AngelaMos | 2026
// handler.go

package health

import (
	"context"
	"database/sql"
	"encoding/json"
	"math"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

const checkTimeout = 5 * time.Second

type Checker interface {
	Ping(ctx context.Context) error
}

type Config struct {
	DB         Checker
	Redis      Checker
	DBStats    func() sql.DBStats
	RedisStats func() *redis.PoolStats
	StartedAt  time.Time
}

type Handler struct {
	db         Checker
	redis      Checker
	dbStats    func() sql.DBStats
	redisStats func() *redis.PoolStats
	startedAt  time.Time
	now        func() time.Time
	ready      atomic.Bool
	shutdown   atomic.Bool
}

func NewHandler(cfg Config) *Handler {
	started := cfg.StartedAt
	if started.IsZero() {
		started = time.Now()
	}

	h := &Handler{
		db:         cfg.DB,
		redis:      cfg.Redis,
		dbStats:    cfg.DBStats,
		redisStats: cfg.RedisStats,
		startedAt:  started,
		now:        time.Now,
	}
	h.ready.Store(true)
	return h
}

func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Get("/health", h.Health)
	r.Get("/healthz", h.Liveness)
	r.Get("/livez", h.Liveness)
	r.Get("/readyz", h.Readiness)
}

// Health is the lightweight check the mobile app polls.
func (h *Handler) Health(w http.ResponseWriter, _ *http.Request) {
	uptime := h.now().Sub(h.startedAt).Seconds()
	h.writeStatus(w, http.StatusOK, HealthResponse{
		OK:            true,
		UptimeSeconds: math.Round(uptime*1000) / 1000,
	})
}

func (h *Handler) Liveness(w http.ResponseWriter, _ *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	h.writeStatus(w, http.StatusOK, StatusResponse{
		Status: "ok",
	})
}

func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	if h.shutdown.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "shutting_down",
		})
		return
	}

	if !h.ready.Load() {
		h.writeStatus(w, http.StatusServiceUnavailable, StatusResponse{
			Status: "not_ready",
		})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	checks := h.runChecks(ctx)

	status := "ok"
	statusCode := http.StatusOK
	for _, check := range checks {
		if !check.Healthy {
			status = "degraded"
			statusCode = http.StatusServiceUnavailable
			break
		}
	}

	h.writeStatus(w, statusCode, ReadinessResponse{
		Status: status,
		Checks: checks,
		Pools:  h.pools(),
	})
}

func (h *Handler) runChecks(ctx context.Context) []DependencyCheck {
	deps := []struct {
		name    string
		checker Checker
	}{
		{"database", h.db},
		{"redis", h.redis},
	}

	var wg sync.WaitGroup
	checks := make([]DependencyCheck, len(deps))

	for i, dep := range deps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			checks[i] = ping(ctx, dep.name, dep.checker)
		}()
	}

	wg.Wait()
	return checks
}

func ping(ctx context.Context, name string, checker Checker) DependencyCheck {
	check := DependencyCheck{Name: name, Healthy: true}

	if checker == nil {
		check.Healthy = false
		check.Message = name + " checker not configured"
		return check
	}

	start := time.Now()
	err := checker.Ping(ctx)
	check.Latency = time.Since(start).String()

	if err != nil {
		check.Healthy = false
		check.Message = "ping failed"
	}

	return check
}

func (h *Handler) pools() *PoolStats {
	if h.dbStats == nil && h.redisStats == nil {
		return nil
	}

	out := &PoolStats{}
	if h.dbStats != nil {
		stats := h.dbStats()
		out.Database = &DBPoolStats{
			MaxOpenConnections: stats.MaxOpenConnections,
			OpenConnections:    stats.OpenConnections,
			InUse:              stats.InUse,
			Idle:               stats.Idle,
			WaitCount:          stats.WaitCount,
			WaitDuration:       stats.WaitDuration.String(),
		}
	}
	if h.redisStats != nil {
		if stats := h.redisStats(); stats != nil {
			out.Redis = &RedisPoolStats{
				Hits:       stats.Hits,
				Misses:     stats.Misses,
				Timeouts:   stats.Timeouts,
				TotalConns: stats.TotalConns,
				IdleConns:  stats.IdleConns,
			}
		}
	}
	return out
}

func (h *Handler) SetReady(ready bool) {
	h.ready.Store(ready)
}

func (h *Handler) SetShutdown(shutdown bool) {
	h.shutdown.Store(shutdown)
}

func (h *Handler) writeStatus(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.WriteHeader(status)
	//nolint:errcheck // best-effort response
	_ = json.NewEncoder(w).Encode(data)
}

type HealthResponse struct {
	OK            bool    `json:"ok"`
	UptimeSeconds float64 `json:"uptimeSeconds"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks []DependencyCheck `json:"checks"`
	Pools  *PoolStats        `json:"pools,omitempty"`
}

type DependencyCheck struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

type PoolStats struct {
	Database *DBPoolStats    `json:"database,omitempty"`
	Redis    *RedisPoolStats `json:"redis,omitempty"`
}

type DBPoolStats struct {
	MaxOpenConnections int    `json:"max_open_connections"`
	OpenConnections    int    `json:"open_connections"`
	InUse              int    `json:"in_use"`
	Idle               int    `json:"idle"`
	WaitCount          int64  `json:"wait_count"`
	WaitDuration       string `json:"wait_duration"`
}

type RedisPoolStats struct {
	Hits       uint32 `json:"hits"`
	Misses     uint32 `json:"misses"`
	Timeouts   uint32 `json:"timeouts"`
	TotalConns uint32 `json:"total_conns"`
	IdleConns  uint32 `json:"idle_conns"`
}
