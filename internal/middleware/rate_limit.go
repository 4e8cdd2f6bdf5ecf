package middleware

import (
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

const (
	// DefaultReceiptsPerMinute is how many extractions a user may start per minute
	DefaultReceiptsPerMinute = 10
	// DefaultReceiptBurst is how many extractions may run back to back
	DefaultReceiptBurst = 3

	limiterSweepInterval = 5 * time.Minute
	limiterIdleTTL       = 10 * time.Minute
)

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RateLimiter keeps one token bucket per user. Buckets idle for longer than
// limiterIdleTTL are dropped by a background sweep until Stop is called.
type RateLimiter struct {
	perMinute int
	burst     int
	every     rate.Limit

	mu      sync.Mutex
	buckets map[uuid.UUID]*bucket

	stop     chan struct{}
	stopOnce sync.Once
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter creates a RateLimiter with the receipt defaults
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithConfig(DefaultReceiptsPerMinute, DefaultReceiptBurst)
}

// NewRateLimiterWithConfig creates a RateLimiter refilling perMinute tokens a
// minute with room for burst requests at once
func NewRateLimiterWithConfig(perMinute, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	rl := &RateLimiter{
		perMinute: perMinute,
		burst:     burst,
		every:     rate.Limit(float64(perMinute) / 60),
		buckets:   make(map[uuid.UUID]*bucket),
		stop:      make(chan struct{}),
	}
	go rl.sweep()
	return rl
}

// Take consumes a token for userID. When none is left the reservation is
// given back and RetryAfter tells when the next one is due.
func (r *RateLimiter) Take(userID uuid.UUID) Decision {
	now := time.Now()

	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.buckets[userID]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(r.every, r.burst)}
		r.buckets[userID] = b
	}
	b.lastSeen = now

	res := b.limiter.ReserveN(now, 1)
	if delay := res.DelayFrom(now); delay > 0 {
		res.CancelAt(now)
		return Decision{RetryAfter: delay}
	}

	remaining := int(math.Floor(b.limiter.TokensAt(now)))
	return Decision{Allowed: true, Remaining: max(remaining, 0)}
}

// Allow reports whether userID may make another request now
func (r *RateLimiter) Allow(userID uuid.UUID) bool {
	return r.Take(userID).Allowed
}

// Len returns the number of tracked users
func (r *RateLimiter) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.buckets)
}

func (r *RateLimiter) sweep() {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			r.evictIdle(now)
		case <-r.stop:
			return
		}
	}
}

// evictIdle drops buckets not used since now minus limiterIdleTTL
func (r *RateLimiter) evictIdle(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for userID, b := range r.buckets {
		if now.Sub(b.lastSeen) > limiterIdleTTL {
			delete(r.buckets, userID)
		}
	}
}

// Stop ends the background sweep. It is safe to call more than once.
func (r *RateLimiter) Stop() {
	r.stopOnce.Do(func() { close(r.stop) })
}

// RateLimitMiddleware limits authenticated users and must run after
// AuthMiddleware.Authenticate. Anonymous requests pass through.
func RateLimitMiddleware(rl *RateLimiter) echo.MiddlewareFunc {
	limit := strconv.Itoa(rl.perMinute)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			userID := GetUserID(c)
			if userID == uuid.Nil {
				return next(c)
			}

			d := rl.Take(userID)
			header := c.Response().Header()
			header.Set("X-RateLimit-Limit", limit)

			if !d.Allowed {
				seconds := max(int(math.Ceil(d.RetryAfter.Seconds())), 1)
				header.Set("X-RateLimit-Remaining", "0")
				header.Set("Retry-After", strconv.Itoa(seconds))

				log.Warn().
					Str("user_id", userID.String()).
					Str("path", c.Request().URL.Path).
					Int("retry_after", seconds).
					Msg("Rate limit exceeded")

				return tooManyRequestsError(c, seconds)
			}

			header.Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			return next(c)
		}
	}
}
