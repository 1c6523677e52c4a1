package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RateLimit 返回一个按客户端 IP 计数的限流中间件。
// 计数器保存在 Redis 的 <keyPrefix>ratelimit:<ip> 键上，过期时间只在窗口的第一个请求时设置 (固定窗口)。
func RateLimit(redisClient *redis.Client, keyPrefix string, maxRequests int, window time.Duration) gin.HandlerFunc {
	if redisClient == nil {
		panic("Redis client cannot be nil for RateLimit middleware")
	}
	if maxRequests <= 0 {
		panic("maxRequests must be positive for RateLimit middleware")
	}
	if window <= 0 {
		panic("window duration must be positive for RateLimit middleware")
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()
		key := keyPrefix + "ratelimit:" + c.ClientIP()

		pipe := redisClient.Pipeline()
		incrCmd := pipe.Incr(ctx, key)
		ttlCmd := pipe.TTL(ctx, key)
		if _, err := pipe.Exec(ctx); err != nil {
			logrus.WithError(err).Error("RateLimit: Redis Pipeline failed")
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Rate limiting error"})
			return
		}

		count := incrCmd.Val()
		// 新窗口或上次设置过期失败的键 (TTL 为 -1) 才设置过期时间
		if count == 1 || ttlCmd.Val() < 0 {
			if err := redisClient.Expire(ctx, key, window).Err(); err != nil {
				logrus.WithError(err).WithField("key", key).Error("RateLimit: failed to set window expiry")
			}
		}
		remaining := int64(maxRequests) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(maxRequests) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			return
		}
		c.Next()
	}
}
