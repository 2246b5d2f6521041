// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"appendix-ai-api/internal/config"
	"appendix-ai-api/internal/infrastructure/persistence/redis"
	"appendix-ai-api/internal/interfaces/http/handler"
	"appendix-ai-api/internal/interfaces/http/middleware"
)

// Router HTTP 路由器
type Router struct {
	engine   *gin.Engine
	cfg      *config.Config
	handlers *RouterHandlers
	limiter  middleware.RateLimiter
}

// RouterHandlers 路由所需的处理器集合
type RouterHandlers struct {
	Health   *handler.HealthHandler
	Catalog  *handler.CatalogHandler
	Session  *handler.SessionHandler
	Generate *handler.GenerateHandler
	Document *handler.DocumentHandler
}

// NewWithDeps 创建路由器；limiter 为 nil 时不限流
func NewWithDeps(cfg *config.Config, handlers *RouterHandlers, limiter middleware.RateLimiter) *Router {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine:   gin.New(),
		cfg:      cfg,
		handlers: handlers,
		limiter:  limiter,
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

// Engine 返回 Gin Engine
func (r *Router) Engine() *gin.Engine {
	return r.engine
}

// setupMiddleware 配置中间件
func (r *Router) setupMiddleware() {
	r.engine.Use(middleware.Recovery())
	r.engine.Use(middleware.RequestID())

	r.engine.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins: r.cfg.Security.CORS.AllowedOrigins,
		AllowedMethods: r.cfg.Security.CORS.AllowedMethods,
		AllowedHeaders: r.cfg.Security.CORS.AllowedHeaders,
	}))

	if r.cfg.Observability.Tracing.Enabled {
		r.engine.Use(middleware.Trace(r.cfg.App.Name))
		r.engine.Use(middleware.TraceContext())
	}

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.Use(middleware.Metrics())
	}
}

// setupRoutes 配置路由
func (r *Router) setupRoutes() {
	h := r.handlers

	r.engine.GET("/health", h.Health.Health)
	r.engine.GET("/ready", h.Health.Ready)
	r.engine.GET("/live", h.Health.Live)

	if r.cfg.Observability.Metrics.Enabled {
		r.engine.GET(r.cfg.Observability.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	limit := middleware.RateLimit(middleware.RateLimitConfig{
		Enabled:  r.cfg.Security.RateLimit.Enabled,
		Requests: r.cfg.Security.RateLimit.Requests,
		Window:   r.cfg.Security.RateLimit.Window,
	}, r.limiter, redis.BuildRateLimitKey)

	RegisterV1Routes(r.engine.Group("/v1"), h, limit)
}
