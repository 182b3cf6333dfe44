// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file implements an in-memory token-bucket rate limiter with one bucket
// per player (or client IP when the request is anonymous). Every narrator
// turn may cost an LLM call, so the limiter is the first line of cost
// control. Idempotent replays, which are served from storage, bypass it.
//
// The limiter is process-local; several replicas each enforce their own
// budget.
package middleware

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"
)

var rateLimited = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "narrator_http_rate_limited_total",
		Help: "Requests rejected by the rate limiter, by bucket kind.",
	},
	[]string{"kind"},
)

func init() { prometheus.MustRegister(rateLimited) }

// keyFunc selects the identity used to key a rate-limit bucket.
type keyFunc func(*gin.Context) string

// KeyByPlayerOrIP keys buckets by resolved player ("player:<id>") and falls
// back to the client IP ("ip:<addr>") for anonymous requests.
func KeyByPlayerOrIP() keyFunc {
	return func(c *gin.Context) string {
		if id := PlayerID(c); id != AnonymousPlayer {
			return "player:" + id
		}
		return "ip:" + c.ClientIP()
	}
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter is a per-key token bucket. Idle buckets are swept every
// sweepEvery lookups. Safe for concurrent use.
type RateLimiter struct {
	rps   rate.Limit
	burst int
	keyFn keyFunc
	now   func() time.Time

	mu      sync.Mutex
	buckets map[string]*bucket
	idleTTL time.Duration
	lookups int
}

const sweepEvery = 5000

// NewRateLimiter constructs a RateLimiter. burst <= 0 is coerced to 1.
func NewRateLimiter(rps float64, burst int, keyFn keyFunc) *RateLimiter {
	return &RateLimiter{
		rps:     rate.Limit(rps),
		burst:   max(burst, 1),
		keyFn:   keyFn,
		now:     time.Now,
		buckets: make(map[string]*bucket),
		idleTTL: 10 * time.Minute,
	}
}

// limiterFor returns the bucket of key, creating it when absent. The sweep
// runs before the lookup, so an idle bucket is replaced even when it is the
// one requested.
func (rl *RateLimiter) limiterFor(key string) *rate.Limiter {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	if rl.lookups++; rl.lookups >= sweepEvery {
		rl.sweep(now)
	}
	b, ok := rl.buckets[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rl.rps, rl.burst)}
		rl.buckets[key] = b
	}
	b.lastSeen = now
	return b.limiter
}

// sweep drops idle buckets. Callers hold mu.
func (rl *RateLimiter) sweep(now time.Time) {
	for k, b := range rl.buckets {
		if now.Sub(b.lastSeen) >= rl.idleTTL {
			delete(rl.buckets, k)
		}
	}
	rl.lookups = 0
}

// retryAfter is the whole number of seconds until the bucket refills one
// token, at least 1.
func (rl *RateLimiter) retryAfter() int {
	if rl.rps <= 0 {
		return 1
	}
	return max(int(math.Ceil(1/float64(rl.rps))), 1)
}

// IsRateBypass reports whether IdempotencyValidator marked this request as a
// replay.
func IsRateBypass(c *gin.Context) bool {
	v, ok := c.Get(ctxKeyRateBypass)
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// Handler enforces the limit. Rejected requests get 429 with Retry-After and
// the standard error envelope (code "too_many_requests").
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IsRateBypass(c) {
			c.Next()
			return
		}
		key := rl.keyFn(c)
		if rl.limiterFor(key).Allow() {
			c.Next()
			return
		}
		kind, _, _ := strings.Cut(key, ":")
		rateLimited.WithLabelValues(kind).Inc()

		c.Header("Retry-After", strconv.Itoa(rl.retryAfter()))
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"request_id": c.Writer.Header().Get(requestIDHeader),
			"code":       "too_many_requests",
			"message":    "rate limit exceeded",
		})
	}
}
