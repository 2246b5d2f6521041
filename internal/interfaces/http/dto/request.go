package dto

import (
	"github.com/gin-gonic/gin"
)

// BindSessionID 从 URI 绑定会话 ID
func BindSessionID(c *gin.Context) string {
	return c.Param("sid")
}

// BindIntegrationKey 从 URI 绑定主题键
func BindIntegrationKey(c *gin.Context) string {
	return c.Param("key")
}
