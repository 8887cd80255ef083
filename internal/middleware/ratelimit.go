package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimit enforces a fixed-window per-IP limit backed by Redis INCR.
// Authenticated callers skip the limit; a nil client disables it. The
// name keeps separate surfaces (api, photos) in separate windows.
func RateLimit(rdb *redis.Client, name string, window time.Duration, max int) gin.HandlerFunc {
	if window <= 0 {
		window = time.Minute
	}
	return func(c *gin.Context) {
		if rdb == nil || max <= 0 || IsAuthenticated(c) {
			c.Next()
			return
		}

		ip := c.ClientIP()
		if ip == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		bucket := time.Now().UnixMilli() / window.Milliseconds()
		key := fmt.Sprintf("df:rate_limit:%s:%s:%d", name, ip, bucket)

		count, err := rdb.Incr(ctx, key).Result()
		if err != nil {
			// Best-effort: Redis trouble must not take the API down.
			c.Next()
			return
		}

		if count == 1 {
			rdb.PExpire(ctx, key, window+time.Second)
		}

		if count > int64(max) {
			retry := int(window.Seconds())
			if retry < 1 {
				retry = 1
			}
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":      0,
				"code":    http.StatusTooManyRequests,
				"message": "too many requests, slow down",
			})
			return
		}

		c.Next()
	}
}
