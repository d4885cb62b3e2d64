// internal/app/system/ratelimit/ratelimit.go
package ratelimit

import (
	"context"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Counter counts hits for a key inside a fixed window and reports the count
// after this hit. Implementations must be safe for concurrent use.
type Counter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, error)
	Reset(ctx context.Context, key string) error
}

// Limiter allows up to limit hits per key per window.
type Limiter struct {
	counter Counter
	prefix  string
	limit   int64
	window  time.Duration
	log     *zap.Logger
}

// New creates a limiter over counter. prefix namespaces the keys.
func New(counter Counter, prefix string, limit int, window time.Duration, logger *zap.Logger) *Limiter {
	return &Limiter{
		counter: counter,
		prefix:  prefix,
		limit:   int64(limit),
		window:  window,
		log:     logger,
	}
}

// Allow records a hit for key and reports whether it is within the limit.
// Counter errors fail open so an unavailable cache never locks users out.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	n, err := l.counter.Hit(ctx, l.prefix+key, l.window)
	if err != nil {
		l.log.Warn("rate limit counter unavailable; allowing request",
			zap.Error(err), zap.String("prefix", l.prefix))
		return true
	}
	return n <= l.limit
}

// Reset clears the count for key.
func (l *Limiter) Reset(ctx context.Context, key string) {
	if err := l.counter.Reset(ctx, l.prefix+key); err != nil {
		l.log.Warn("rate limit reset failed", zap.Error(err), zap.String("prefix", l.prefix))
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| In-memory counter                                                          |
*─────────────────────────────────────────────────────────────────────────────*/

type window struct {
	count     int64
	expiresAt time.Time
}

// MemoryCounter keeps windows in process. Used when Redis is not configured.
type MemoryCounter struct {
	mu        sync.Mutex
	windows   map[string]*window
	lastSweep time.Time
	now       func() time.Time
}

// NewMemoryCounter returns an empty in-process counter.
func NewMemoryCounter() *MemoryCounter {
	return &MemoryCounter{windows: make(map[string]*window), now: time.Now}
}

func (m *MemoryCounter) Hit(_ context.Context, key string, d time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.sweep(now, d)

	w, ok := m.windows[key]
	if !ok || now.After(w.expiresAt) {
		m.windows[key] = &window{count: 1, expiresAt: now.Add(d)}
		return 1, nil
	}
	w.count++
	return w.count, nil
}

func (m *MemoryCounter) Reset(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.windows, key)
	return nil
}

// sweep drops expired windows at most once per d. Caller holds mu.
func (m *MemoryCounter) sweep(now time.Time, d time.Duration) {
	if now.Sub(m.lastSweep) < d {
		return
	}
	m.lastSweep = now
	for k, w := range m.windows {
		if now.After(w.expiresAt) {
			delete(m.windows, k)
		}
	}
}

/*─────────────────────────────────────────────────────────────────────────────*
| Redis counter                                                              |
*─────────────────────────────────────────────────────────────────────────────*/

// RedisCounter shares windows across instances using INCR and PEXPIRE.
type RedisCounter struct {
	rdb redis.UniversalClient
}

// NewRedisCounter wraps a connected client.
func NewRedisCounter(rdb redis.UniversalClient) *RedisCounter {
	return &RedisCounter{rdb: rdb}
}

func (c *RedisCounter) Hit(ctx context.Context, key string, d time.Duration) (int64, error) {
	n, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	// The first hit opens the window; later hits keep its expiry.
	if n == 1 {
		if err := c.rdb.PExpire(ctx, key, d).Err(); err != nil {
			return n, err
		}
	}
	return n, nil
}

func (c *RedisCounter) Reset(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

/*─────────────────────────────────────────────────────────────────────────────*
| HTTP helpers                                                               |
*─────────────────────────────────────────────────────────────────────────────*/

// ClientIP extracts the client IP from an HTTP request.
// It checks X-Forwarded-For and X-Real-IP headers first (for proxied requests),
// then falls back to RemoteAddr.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}

// LoginLimiter tracks both IP-based and email-based limits to slow down
// credential stuffing from many IPs and guessing against one account.
type LoginLimiter struct {
	ip    *Limiter
	email *Limiter
}

// NewLoginLimiter uses the defaults: 10 attempts per IP per minute,
// 5 attempts per email per 5 minutes.
func NewLoginLimiter(counter Counter, logger *zap.Logger) *LoginLimiter {
	return NewLoginLimiterWithConfig(counter, logger, 10, time.Minute, 5, 5*time.Minute)
}

// NewLoginLimiterWithConfig creates a login limiter with custom limits.
func NewLoginLimiterWithConfig(counter Counter, logger *zap.Logger, ipLimit int, ipWindow time.Duration, emailLimit int, emailWindow time.Duration) *LoginLimiter {
	return &LoginLimiter{
		ip:    New(counter, "rl:login:ip:", ipLimit, ipWindow, logger),
		email: New(counter, "rl:login:email:", emailLimit, emailWindow, logger),
	}
}

// Check verifies if a login attempt should be allowed.
// Returns (allowed, reason) where reason explains why it was blocked.
func (ll *LoginLimiter) Check(r *http.Request, email string) (bool, string) {
	ctx := r.Context()
	if !ll.ip.Allow(ctx, ClientIP(r)) {
		return false, "Too many login attempts. Please wait a minute before trying again."
	}
	if key := emailKey(email); key != "" {
		if !ll.email.Allow(ctx, key) {
			return false, "Too many login attempts for this account. Please wait a few minutes."
		}
	}
	return true, ""
}

// ResetEmail clears the email limit after a successful login.
func (ll *LoginLimiter) ResetEmail(ctx context.Context, email string) {
	if key := emailKey(email); key != "" {
		ll.email.Reset(ctx, key)
	}
}

func emailKey(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
