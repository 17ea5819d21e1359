package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jellydator/ttlcache/v3"
	"golang.org/x/time/rate"

	"github.com/sarkuru13/homestay/internal/config"
)

// RateLimiterMiddleware manages per-client token buckets. Client entries
// expire from the cache after cfg.RateLimitClientTTL of inactivity.
type RateLimiterMiddleware struct {
	clients *ttlcache.Cache[string, *rate.Limiter]
	cfg     *config.Config
}

// NewRateLimiterMiddleware creates a new RateLimiterMiddleware and starts
// its expiry loop.
func NewRateLimiterMiddleware(cfg *config.Config) *RateLimiterMiddleware {
	clients := ttlcache.New[string, *rate.Limiter](
		ttlcache.WithTTL[string, *rate.Limiter](cfg.RateLimitClientTTL),
	)
	go clients.Start()
	return &RateLimiterMiddleware{clients: clients, cfg: cfg}
}

// Stop halts the expiry loop.
func (rm *RateLimiterMiddleware) Stop() {
	rm.clients.Stop()
}

// getClientLimiter retrieves or creates the token bucket for a client IP,
// refreshing its TTL on every hit.
func (rm *RateLimiterMiddleware) getClientLimiter(identifier string) *rate.Limiter {
	item := rm.clients.Get(identifier)
	if item != nil {
		return item.Value()
	}
	limiter := rate.NewLimiter(rate.Limit(rm.cfg.RateLimitRefillRate), rm.cfg.RateLimitBucketSize)
	rm.clients.Set(identifier, limiter, ttlcache.DefaultTTL)
	return limiter
}

// Limit creates the Gin middleware handler.
func (rm *RateLimiterMiddleware) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientKey := c.ClientIP()
		if !rm.getClientLimiter(clientKey).Allow() {
			log.Printf("Rate limit exceeded for client %s on %s", clientKey, c.FullPath())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		c.Next()
	}
}
