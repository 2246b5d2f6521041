package router

import (
	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/interfaces/http/middleware"
)

// RegisterV1Routes 注册 v1 版本路由
// limit 只挂在调用模型或解析文件的路由上
func RegisterV1Routes(v1 *gin.RouterGroup, h *RouterHandlers, limit gin.HandlerFunc) {
	v1.GET("/catalog", h.Catalog.GetCatalog)
	v1.POST("/generate", limit, h.Generate.GenerateOnce)

	v1.POST("/sessions", h.Session.CreateSession)

	sessions := v1.Group("/sessions/:sid", middleware.SessionContext())
	{
		sessions.GET("", h.Session.GetSession)
		sessions.DELETE("", h.Session.DeleteSession)
		sessions.PATCH("/config", h.Session.UpdateConfig)
		sessions.POST("/integrations/:key/toggle", h.Session.ToggleIntegration)
		sessions.POST("/demo", h.Session.LoadDemo)
		sessions.POST("/upload", limit, h.Session.UploadFile)
		sessions.POST("/generate", limit, h.Generate.GenerateSession)
		sessions.POST("/export", h.Document.Export)
		sessions.GET("/preview", h.Document.Preview)
		sessions.GET("/print", h.Document.Print)
	}
}
