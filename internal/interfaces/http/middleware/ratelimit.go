package middleware

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/interfaces/http/dto"
	"appendix-ai-api/pkg/errors"
	"appendix-ai-api/pkg/logger"
	"appendix-ai-api/pkg/metrics"
)

// RateLimitConfig 限流配置
type RateLimitConfig struct {
	Enabled bool
	// Requests 窗口内允许的请求数
	Requests int
	Window   time.Duration
}

// RateLimiter 限流器接口
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// KeyFunc 构建限流键
type KeyFunc func(subject, route string) string

// RateLimit 限流中间件，按会话 ID（无会话时按客户端 IP）与路由计数
// limiter 为 nil 时放行全部请求
func RateLimit(cfg RateLimitConfig, limiter RateLimiter, keyFn KeyFunc) gin.HandlerFunc {
	if !cfg.Enabled || limiter == nil {
		return func(c *gin.Context) {
			c.Next()
		}
	}

	if cfg.Requests <= 0 {
		cfg.Requests = 60
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}

	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = "unknown"
		}
		subject := c.Param("sid")
		if subject == "" {
			subject = "ip:" + c.ClientIP()
		}

		allowed, err := limiter.Allow(c.Request.Context(), keyFn(subject, route), cfg.Requests, cfg.Window)
		if err != nil {
			// 限流器故障时放行
			logger.Warn(c.Request.Context(), "rate limiter unavailable", "error", err.Error())
			c.Next()
			return
		}

		if !allowed {
			metrics.RateLimitRejected.WithLabelValues(route).Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Code:    http.StatusTooManyRequests,
				Message: "rate limit exceeded",
				Error:   &dto.ErrorDetail{ErrorCode: string(errors.CodeTooManyRequests), Retryable: true},
				TraceID: c.GetString("trace_id"),
			})
			return
		}

		c.Next()
	}
}
