// Package wire 提供依赖注入配置
package wire

import (
	"context"

	"appendix-ai-api/internal/application/appendix"
	"appendix-ai-api/internal/application/extraction"
	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/config"
	"appendix-ai-api/internal/infrastructure/persistence/redis"
	"appendix-ai-api/internal/interfaces/http/middleware"
	"appendix-ai-api/internal/interfaces/http/router"
	"appendix-ai-api/internal/workflow/port"
	"appendix-ai-api/internal/workflow/prompt"
	"appendix-ai-api/pkg/logger"
)

// App 应用根对象
type App struct {
	Router *router.Router
	Store  *workspace.Store
}

// ProvideRedisClient 提供 Redis 客户端；未启用时为 nil
func ProvideRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, func(), error) {
	client, err := redis.NewClient(&cfg.Cache.Redis)
	if err != nil {
		return nil, nil, err
	}
	if client == nil {
		logger.Info(ctx, "redis disabled, rate limiting and extraction cache are off")
		return nil, func() {}, nil
	}
	cleanup := func() {
		_ = client.Close()
	}
	return client, cleanup, nil
}

// ProvideRateLimiter 返回接口值，client 为 nil 时为无类型 nil
func ProvideRateLimiter(client *redis.Client) middleware.RateLimiter {
	if client == nil {
		return nil
	}
	return redis.NewRateLimiter(client)
}

// ProvideExtractionCache 提取结果缓存；client 为 nil 时不缓存
func ProvideExtractionCache(cfg *config.Config, client *redis.Client) extraction.Cache {
	if client == nil {
		return nil
	}
	return redis.NewTextCache(client, cfg.Extraction.CacheTTL)
}

// ProvideExtractionService 提供文件提取服务
func ProvideExtractionService(cfg *config.Config, cache extraction.Cache) *extraction.Service {
	return extraction.NewService(cfg.Extraction.MaxUploadBytes, cache)
}

// ProvideComposer 按配置的提示词版本创建组装器
func ProvideComposer(cfg *config.Config, registry *prompt.Registry) (*appendix.Composer, error) {
	return appendix.NewComposer(registry, cfg.Generation.PromptVersion)
}

// ProvideGenerator 使用默认提供商创建生成器
func ProvideGenerator(cfg *config.Config, composer *appendix.Composer, factory port.ChatModelFactory) *appendix.Generator {
	provider, _ := cfg.LLM.Provider("")
	return appendix.NewGenerator(composer, factory, appendix.GeneratorOptions{
		Model: appendix.ModelInfo{
			Provider:    cfg.LLM.DefaultProvider,
			Model:       provider.Model,
			Temperature: provider.Temperature,
		},
		MaxConcurrent: cfg.Generation.MaxConcurrent,
		Timeout:       cfg.Generation.Timeout,
	})
}

// ProvideRenderer 提供页面渲染器
func ProvideRenderer(cfg *config.Config) (*appendix.Renderer, error) {
	return appendix.NewRenderer(appendix.RendererOptions{
		Sanitize:   cfg.Render.Sanitize,
		MathJaxURL: cfg.Render.MathJaxURL,
	})
}

// ProvideSessionStore 提供会话存储
func ProvideSessionStore(cfg *config.Config) *workspace.Store {
	return workspace.NewStore(workspace.StoreOptions{
		TTL:           cfg.Sessions.TTL,
		SweepInterval: cfg.Sessions.SweepInterval,
		MaxSessions:   cfg.Sessions.MaxSessions,
	})
}

// ProvideWorkspaceService 提供工作区服务
func ProvideWorkspaceService(store *workspace.Store, extractor *extraction.Service, generator workspace.Generator, renderer *appendix.Renderer) *workspace.Service {
	return workspace.NewService(store, extractor, generator, renderer)
}
