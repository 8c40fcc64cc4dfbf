package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/ratelimit"
	"github.com/wyfcoding/optionpricing/pkg/response"
)

// RateLimitMiddleware 基于客户端 IP 的 Gin 限流中间件。
// 限流器故障时放行请求，限流不能成为服务不可用的原因。
func RateLimitMiddleware(limiter ratelimit.RateLimiter, cfg config.RateLimitConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled {
			c.Next()
			return
		}

		// 目前按 IP 维度限流，后续可扩展为按 API Key
		key := fmt.Sprintf("ratelimit:%s", c.ClientIP())
		limit := ratelimit.PerSecond(cfg.QPS, cfg.Burst)

		res, err := limiter.Allow(c.Request.Context(), key, limit)
		if err != nil {
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(limit.Burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(int64(res.ResetAfter/time.Second), 10))

		if !res.Allowed {
			c.Header("Retry-After", strconv.FormatInt(int64(res.RetryAfter/time.Second), 10))
			response.ErrorWithStatus(c, http.StatusTooManyRequests, "too many requests", "RATE_LIMITED")
			c.Abort()
			return
		}

		c.Next()
	}
}
