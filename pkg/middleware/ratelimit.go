package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"
)

// RateLimitPerIP allows limit requests per second per client IP with the
// given burst. At most cacheSize clients are tracked; idle ones are dropped
// after ttl.
func RateLimitPerIP(limit float64, burst, cacheSize int, ttl time.Duration) gin.HandlerFunc {
	visitors := lru.NewLRU[string, *rate.Limiter](cacheSize, nil, ttl)

	return func(c *gin.Context) {
		ip := c.ClientIP()

		lim, ok := visitors.Get(ip)
		if !ok {
			lim = rate.NewLimiter(rate.Limit(limit), burst)
			visitors.Add(ip, lim)
		}

		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"statusCode": http.StatusTooManyRequests,
				"message":    "Too many requests",
				"success":    false,
				"errors":     []string{},
			})
			return
		}
		c.Next()
	}
}
