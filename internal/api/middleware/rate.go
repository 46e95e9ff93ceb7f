package middleware

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Rate limit scopes.
const (
	ScopeClient  = "ip"
	ScopeSession = "session"
	ScopeGlobal  = "global"
)

// RateLimitConfig defines rate limiting configuration.
type RateLimitConfig struct {
	RequestsPerSecond int
	Burst             int
	// Scope selects how requests share buckets: ScopeClient per remote
	// address, ScopeSession per :sessionId with the remote address as
	// fallback, ScopeGlobal one bucket for everything.
	Scope string
	// IdleTTL drops a bucket unseen for this long.
	IdleTTL time.Duration
}

// DefaultRateLimitConfig returns the default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		RequestsPerSecond: 100,
		Burst:             200,
		Scope:             ScopeClient,
		IdleTTL:           10 * time.Minute,
	}
}

const rateLimitMessage = "rate limit exceeded"

func rateKey(scope string) (func(*gin.Context) string, error) {
	switch scope {
	case ScopeClient, "":
		return func(c *gin.Context) string { return c.ClientIP() }, nil
	case ScopeSession:
		return func(c *gin.Context) string {
			if sid := c.Param("sessionId"); sid != "" {
				return "session:" + sid
			}
			return c.ClientIP()
		}, nil
	case ScopeGlobal:
		return func(*gin.Context) string { return "" }, nil
	default:
		return nil, fmt.Errorf("unknown rate limit scope %q", scope)
	}
}

// RateLimit creates a token bucket middleware. It panics on an unknown
// scope; config.Validate rejects those before the server starts.
func RateLimit(cfg RateLimitConfig) gin.HandlerFunc {
	key, err := rateKey(cfg.Scope)
	if err != nil {
		panic(err)
	}

	type bucket struct {
		limiter  *rate.Limiter
		lastSeen time.Time
	}

	var (
		mu        sync.Mutex
		buckets   = make(map[string]*bucket)
		lastSweep time.Time
	)

	return func(c *gin.Context) {
		k := key(c)
		now := time.Now()

		mu.Lock()
		if cfg.IdleTTL > 0 && now.Sub(lastSweep) > cfg.IdleTTL {
			for name, b := range buckets {
				if now.Sub(b.lastSeen) > cfg.IdleTTL {
					delete(buckets, name)
				}
			}
			lastSweep = now
		}
		b, ok := buckets[k]
		if !ok {
			b = &bucket{limiter: rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst)}
			buckets[k] = b
		}
		b.lastSeen = now
		limiter := b.limiter
		mu.Unlock()

		if !limiter.Allow() {
			abortWithError(c, http.StatusTooManyRequests, "unknown error", rateLimitMessage)
			return
		}

		c.Next()
	}
}
