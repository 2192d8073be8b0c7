package middleware

import (
	"net/http" // HTTP status codes
	"time"     // Window length

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Structured logging
)

// RateLimit allows maxRequests per client IP within each window. A nil
// client disables the limit, and Redis failures let the request through.
func RateLimit(rdb *redis.Client, maxRequests int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || maxRequests <= 0 {
			c.Next()
			return
		}
		ctx := c.Request.Context()
		key := "ratelimit:" + c.FullPath() + ":" + c.ClientIP() // Per route and client
		var incr *redis.IntCmd
		var ttl *redis.DurationCmd
		_, err := rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			incr = pipe.Incr(ctx, key)
			ttl = pipe.TTL(ctx, key)
			return nil
		})
		if err != nil {
			logrus.WithField("error", err.Error()).Warn("Rate limit check failed")
			c.Next()
			return
		}
		count := incr.Val()
		// A counter without expiry opens the window, including one left behind by a failed EXPIRE
		if ttl.Val() < 0 {
			if err := rdb.Expire(ctx, key, window).Err(); err != nil {
				logrus.WithFields(logrus.Fields{"key": key, "error": err.Error()}).Warn("Rate limit expiry failed")
			}
		}
		if count > int64(maxRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
