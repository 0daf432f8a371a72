package middleware

import (
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long a limiter may go unused before the sweep drops
// it. Active limiters keep their token state across sweeps.
const limiterIdleTTL = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter implements rate limiting for API endpoints. Two legs: a
// per-IP limiter for general traffic, and an auth limiter keyed by source IP
// in the middleware and by credential via AllowCredential in the handlers.
type RateLimiter struct {
	ipLimiters      map[string]*limiterEntry
	authLimiters    map[string]*limiterEntry
	ipMutex         sync.Mutex
	authMutex       sync.Mutex
	ipLimiterRate   rate.Limit
	authLimiterRate rate.Limit
	ipBurst         int
	authBurst       int
	cleanupTicker   *time.Ticker
}

// NewRateLimiter creates a new rate limiter
func NewRateLimiter(ipRequestsPerSecond, authRequestsPerMinute float64, ipBurst, authBurst int) *RateLimiter {
	limiter := &RateLimiter{
		ipLimiters:      make(map[string]*limiterEntry),
		authLimiters:    make(map[string]*limiterEntry),
		ipLimiterRate:   rate.Limit(ipRequestsPerSecond),
		authLimiterRate: rate.Limit(authRequestsPerMinute / 60),
		ipBurst:         ipBurst,
		authBurst:       authBurst,
		cleanupTicker:   time.NewTicker(5 * time.Minute),
	}

	go limiter.cleanup()

	return limiter
}

// cleanup periodically evicts idle limiters to prevent memory leaks
func (rl *RateLimiter) cleanup() {
	for range rl.cleanupTicker.C {
		rl.evictIdle(time.Now().Add(-limiterIdleTTL))
	}
}

// evictIdle drops limiters not used since cutoff. Limiters still in use keep
// their token state so an in-flight throttle survives the sweep.
func (rl *RateLimiter) evictIdle(cutoff time.Time) {
	rl.ipMutex.Lock()
	for key, entry := range rl.ipLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.ipLimiters, key)
		}
	}
	rl.ipMutex.Unlock()

	rl.authMutex.Lock()
	for key, entry := range rl.authLimiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.authLimiters, key)
		}
	}
	rl.authMutex.Unlock()
}

// Stop stops the rate limiter cleanup
func (rl *RateLimiter) Stop() {
	rl.cleanupTicker.Stop()
}

// getIPLimiter returns the rate limiter for an IP
func (rl *RateLimiter) getIPLimiter(ip string) *rate.Limiter {
	rl.ipMutex.Lock()
	defer rl.ipMutex.Unlock()

	entry, exists := rl.ipLimiters[ip]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.ipLimiterRate, rl.ipBurst)}
		rl.ipLimiters[ip] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter
}

// getAuthLimiter returns the rate limiter for authentication attempts
func (rl *RateLimiter) getAuthLimiter(key string) *rate.Limiter {
	rl.authMutex.Lock()
	defer rl.authMutex.Unlock()

	entry, exists := rl.authLimiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.authLimiterRate, rl.authBurst)}
		rl.authLimiters[key] = entry
	}
	entry.lastSeen = time.Now()

	return entry.limiter
}

// AllowCredential reports whether another authentication attempt is allowed
// for the credential, regardless of source IP. Handlers call this after
// parsing the request body, so rotating IPs cannot bypass the throttle.
func (rl *RateLimiter) AllowCredential(credential string) bool {
	key := "cred:" + strings.ToLower(credential)
	return rl.getAuthLimiter(key).Allow()
}

// IPRateLimiterMiddleware limits requests based on IP address
func (rl *RateLimiter) IPRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := rl.getIPLimiter(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// AuthRateLimiterMiddleware limits authentication attempts per source IP.
// This is the coarse leg; the per-credential leg runs in the handlers via
// AllowCredential once the email is parsed from the body.
func (rl *RateLimiter) AuthRateLimiterMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		limiter := rl.getAuthLimiter("ip:" + ip)
		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "too many authentication attempts, please try again later",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}
