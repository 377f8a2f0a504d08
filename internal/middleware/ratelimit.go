// AngelaMos | 2026
// ratelimit.go

package middleware

import (
	"context"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	redis_rate "github.com/go-redis/redis_rate/v10"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/carterperez-dev/visitpro/internal/core"
)

const rateLimitKeyPrefix = "visitpro:rl:"

type RateLimitConfig struct {
	// Name namespaces the bucket keys so limiters sharing a key function
	// never drain each other.
	Name       string
	Limit      redis_rate.Limit
	KeyFunc    func(*http.Request) string
	FailOpen   bool
	BypassFunc func(*http.Request) bool
	Logger     *slog.Logger
}

type RateLimiter struct {
	limiter  *redis_rate.Limiter
	fallback *localLimiter
	config   RateLimitConfig
}

func NewRateLimiter(rdb *redis.Client, cfg RateLimitConfig) *RateLimiter {
	if cfg.KeyFunc == nil {
		cfg.KeyFunc = KeyByIP
	}
	if cfg.Name == "" {
		cfg.Name = "default"
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	return &RateLimiter{
		limiter:  redis_rate.NewLimiter(rdb),
		fallback: newLocalLimiter(),
		config:   cfg,
	}
}

func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.config.BypassFunc != nil && rl.config.BypassFunc(r) {
			next.ServeHTTP(w, r)
			return
		}

		key := rateLimitKeyPrefix + rl.config.Name + ":" + rl.config.KeyFunc(r)
		res, err := rl.allow(r.Context(), key)
		if err != nil {
			if rl.config.FailOpen {
				rl.config.Logger.Warn("rate limiter error, failing open",
					"limiter", rl.config.Name,
					"error", err,
				)
				next.ServeHTTP(w, r)
				return
			}
			core.JSONError(w, core.UnavailableError("Service unavailable"))
			return
		}

		setRateLimitHeaders(w, res, rl.config.Limit)

		if res.Allowed == 0 {
			retryAfter := max(int(res.RetryAfter.Seconds()), 1)
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			core.JSONError(w, core.TooManyRequestsError(fmt.Sprintf(
				"Rate limit exceeded. Retry after %d seconds.", retryAfter,
			)))
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow consults Redis and drops to the in-process limiter while Redis is
// unreachable.
func (rl *RateLimiter) allow(ctx context.Context, key string) (*redis_rate.Result, error) {
	res, err := rl.limiter.Allow(ctx, key, rl.config.Limit)
	if err == nil {
		return res, nil
	}

	rl.config.Logger.Debug("redis rate limit unavailable, using local bucket",
		"limiter", rl.config.Name,
		"error", err,
	)
	return rl.fallback.allow(key, rl.config.Limit), nil
}

func KeyByIP(r *http.Request) string {
	return "ip:" + ClientIP(r)
}

func KeyByUser(r *http.Request) string {
	if userID := GetUserID(r.Context()); userID != "" {
		return "user:" + userID
	}
	return KeyByIP(r)
}

func KeyByIPAndEndpoint(r *http.Request) string {
	return KeyByIP(r) + ":endpoint:" + normalizeEndpoint(r.URL.Path)
}

// ClientIP prefers the proxy-appended X-Forwarded-For entry, then
// X-Real-IP, then the socket peer.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		if ip := strings.TrimSpace(ips[len(ips)-1]); ip != "" {
			return ip
		}
	}

	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}

	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// normalizeEndpoint collapses ids and share tokens so one bucket covers
// every resource behind a route.
func normalizeEndpoint(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if isIdentifier(part) {
			parts[i] = "{id}"
		}
	}
	return "/" + strings.Join(parts, "/")
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	if uuid.Validate(s) == nil {
		return true
	}
	if _, err := strconv.ParseUint(s, 10, 64); err == nil {
		return true
	}
	if len(s) >= 32 {
		_, err := hex.DecodeString(s)
		return err == nil
	}
	return false
}

func setRateLimitHeaders(w http.ResponseWriter, res *redis_rate.Result, limit redis_rate.Limit) {
	h := w.Header()

	h.Set("X-RateLimit-Limit", strconv.Itoa(limit.Rate))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
	h.Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(res.ResetAfter).Unix(), 10))
	h.Set("RateLimit-Policy", fmt.Sprintf(`%d;w=%d`, limit.Rate, int(limit.Period.Seconds())))
	h.Set("RateLimit", fmt.Sprintf(`%d;t=%d`, res.Remaining, int(res.ResetAfter.Seconds())))
}

const (
	localEntryTTL     = 10 * time.Minute
	localPruneEvery   = 1024
	localPruneMinimum = time.Minute
)

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// localLimiter is the per-process token bucket set used while Redis is
// down. Stale buckets are pruned inline instead of by a background loop.
type localLimiter struct {
	mu        sync.Mutex
	entries   map[string]*localEntry
	calls     int
	lastPrune time.Time
	now       func() time.Time
}

func newLocalLimiter() *localLimiter {
	return &localLimiter{
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

func (l *localLimiter) allow(key string, limit redis_rate.Limit) *redis_rate.Result {
	perSecond := float64(limit.Rate) / limit.Period.Seconds()
	interval := time.Duration(float64(time.Second) / perSecond)

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.calls++
	if l.calls >= localPruneEvery && now.Sub(l.lastPrune) >= localPruneMinimum {
		l.prune(now)
	}

	entry, ok := l.entries[key]
	if !ok {
		entry = &localEntry{limiter: rate.NewLimiter(rate.Limit(perSecond), limit.Burst)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	res := &redis_rate.Result{
		Limit:      limit,
		ResetAfter: interval,
		RetryAfter: -1,
	}
	if entry.limiter.AllowN(now, 1) {
		res.Allowed = 1
	} else {
		res.RetryAfter = interval
	}
	res.Remaining = max(int(entry.limiter.TokensAt(now)), 0)

	return res
}

func (l *localLimiter) prune(now time.Time) {
	cutoff := now.Add(-localEntryTTL)
	for key, entry := range l.entries {
		if entry.lastSeen.Before(cutoff) {
			delete(l.entries, key)
		}
	}
	l.calls = 0
	l.lastPrune = now
}

func PerMinute(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Minute}
}

func PerHour(rate, burst int) redis_rate.Limit {
	return redis_rate.Limit{Rate: rate, Burst: burst, Period: time.Hour}
}
