package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"merchandiser-backend/internal/delivery/http/response"
	"merchandiser-backend/internal/domain"
	"merchandiser-backend/pkg/audit"
	"merchandiser-backend/pkg/redis"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
)

// RateLimitConfig describes one limiter.
type RateLimitConfig struct {
	Limit  int
	Window time.Duration
	// KeyFunc names the caller; see callerKey.
	KeyFunc func(*gin.Context) string
	// KeyPrefix separates the counters of different limiters.
	KeyPrefix string
	// FailClosed rejects requests when Redis errors instead of using the
	// in-process fallback.
	FailClosed bool
}

// windowHit is the state of one caller's fixed window after a request.
type windowHit struct {
	count   int
	resetAt time.Time
}

func (h windowHit) remaining(limit int) int {
	if h.count >= limit {
		return 0
	}
	return limit - h.count
}

// windowCounter counts requests per key in fixed windows.
type windowCounter interface {
	hit(ctx context.Context, key string, window time.Duration, now time.Time) (windowHit, error)
}

// incrWindowScript increments the counter, starts the window on the first
// hit and returns [count, pttl].
var incrWindowScript = goredis.NewScript(`
local count = redis.call('INCR', KEYS[1])
if count == 1 then
    redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return {count, redis.call('PTTL', KEYS[1])}
`)

type redisCounter struct {
	client *goredis.Client
}

func (r redisCounter) hit(ctx context.Context, key string, window time.Duration, now time.Time) (windowHit, error) {
	res, err := incrWindowScript.Run(ctx, r.client, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return windowHit{}, fmt.Errorf("redis rate limit: %w", err)
	}
	if len(res) < 2 {
		return windowHit{}, fmt.Errorf("redis rate limit: unexpected reply %v", res)
	}
	ttl := time.Duration(res[1]) * time.Millisecond
	if ttl < 0 {
		ttl = window
	}
	return windowHit{count: int(res[0]), resetAt: now.Add(ttl)}, nil
}

// memoryCounter is the per-process fallback. Expired windows are swept on
// write at most once per sweepEvery.
type memoryCounter struct {
	mu        sync.Mutex
	windows   map[string]windowHit
	lastSweep time.Time
}

const sweepEvery = 5 * time.Minute

func newMemoryCounter() *memoryCounter {
	return &memoryCounter{windows: make(map[string]windowHit)}
}

func (m *memoryCounter) hit(_ context.Context, key string, window time.Duration, now time.Time) (windowHit, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if now.Sub(m.lastSweep) >= sweepEvery {
		for k, w := range m.windows {
			if now.After(w.resetAt) {
				delete(m.windows, k)
			}
		}
		m.lastSweep = now
	}

	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		w = windowHit{resetAt: now.Add(window)}
	}
	w.count++
	m.windows[key] = w
	return w, nil
}

func (m *memoryCounter) size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.windows)
}

// fallbackCounter is shared by every limiter so a caller's budget survives
// Redis flapping between requests.
var fallbackCounter = newMemoryCounter()

// callerKey limits authenticated callers per user and anonymous ones per IP.
func callerKey(c *gin.Context) string {
	if userID := c.GetString(string(domain.KeyUserID)); userID != "" {
		return "user:" + userID
	}
	return "ip:" + c.ClientIP()
}

// DefaultRateLimitConfig returns sensible defaults for API rate limiting
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:      300,
		Window:     1 * time.Minute,
		KeyPrefix:  "rl:api:",
		FailClosed: false, // Fail open by default for availability
		KeyFunc:    callerKey,
	}
}

// SearchRateLimitConfig limits the search and favorite listing endpoints.
func SearchRateLimitConfig(limit int, window time.Duration) RateLimitConfig {
	return RateLimitConfig{
		Limit:      limit,
		Window:     window,
		KeyPrefix:  "rl:search:",
		FailClosed: false,
		KeyFunc:    callerKey,
	}
}

// ExportRateLimitConfig is strict: every export loads the full result set.
func ExportRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		Limit:      5,
		Window:     1 * time.Minute,
		KeyPrefix:  "rl:export:",
		FailClosed: true,
		KeyFunc:    callerKey,
	}
}

// RateLimitMiddleware limits each caller, as named by KeyFunc, to Limit
// requests per Window. Redis holds the counters when it is configured;
// otherwise, or on a Redis error when FailClosed is false, the in-process
// fallback does.
func RateLimitMiddleware(config RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := config.KeyFunc(c)
		key := config.KeyPrefix + caller
		ctx := c.Request.Context()
		now := time.Now()

		var counter windowCounter = fallbackCounter
		if client := redis.Client(); client != nil {
			counter = redisCounter{client: client}
		}

		w, err := counter.hit(ctx, key, config.Window, now)
		if err != nil {
			logRateLimitError(c, err)
			if config.FailClosed {
				response.Error(c, http.StatusServiceUnavailable, "Service temporarily unavailable. Please try again.", nil)
				c.Abort()
				return
			}
			w, _ = fallbackCounter.hit(ctx, key, config.Window, now)
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(config.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(w.remaining(config.Limit)))
		c.Header("X-RateLimit-Reset", w.resetAt.Format(time.RFC3339))

		if w.count > config.Limit {
			retryAfter := int(w.resetAt.Sub(now).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			logRateLimitTriggered(c, config, caller)

			response.Error(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil)
			c.Abort()
			return
		}

		c.Next()
	}
}

// logRateLimitTriggered records which caller hit which limiter.
func logRateLimitTriggered(c *gin.Context, config RateLimitConfig, caller string) {
	audit.Default().Log(c.Request.Context(), audit.Event{
		Event:       audit.EventRateLimitTriggered,
		ActorID:     c.GetString(string(domain.KeyUserID)),
		SubjectType: "rate_limit_caller",
		SubjectID:   caller,
		IP:          c.ClientIP(),
		RequestID:   requestID(c),
		Path:        c.FullPath(),
		Details: map[string]interface{}{
			"limiter": strings.TrimSuffix(config.KeyPrefix, ":"),
			"limit":   config.Limit,
			"window":  config.Window.String(),
		},
	})
}

// logRateLimitError logs Redis errors
func logRateLimitError(c *gin.Context, err error) {
	audit.Default().Log(c.Request.Context(), audit.Event{
		Event:     audit.EventRateLimitError,
		IP:        c.ClientIP(),
		RequestID: requestID(c),
		Path:      c.FullPath(),
		Details:   map[string]interface{}{"error": err.Error()},
	})
}

// GlobalRateLimitMiddleware applies default rate limiting to all routes
func GlobalRateLimitMiddleware() gin.HandlerFunc {
	return RateLimitMiddleware(DefaultRateLimitConfig())
}
