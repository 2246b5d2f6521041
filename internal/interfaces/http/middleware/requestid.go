// Package middleware 提供 HTTP 中间件
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"appendix-ai-api/pkg/logger"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

// maxRequestIDLen 客户端传入的请求 ID 超过该长度时重新生成
const maxRequestIDLen = 128

// RequestID 请求 ID 注入中间件
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(RequestIDHeader)
		if requestID == "" || len(requestID) > maxRequestIDLen {
			requestID = uuid.NewString()
		}

		c.Set("request_id", requestID)
		ctx := logger.WithContext(c.Request.Context(), logger.RequestIDKey, requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Header(RequestIDHeader, requestID)

		c.Next()
	}
}

// SessionContext 将路径中的会话 ID 注入日志上下文
func SessionContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		if sid := c.Param("sid"); sid != "" {
			c.Set("session_id", sid)
			ctx := logger.WithContext(c.Request.Context(), logger.SessionIDKey, sid)
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	}
}
