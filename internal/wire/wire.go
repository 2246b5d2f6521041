//go:build wireinject
// +build wireinject

package wire

import (
	"context"

	"github.com/google/wire"

	"appendix-ai-api/internal/application/appendix"
	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/config"
	"appendix-ai-api/internal/infrastructure/llm"
	"appendix-ai-api/internal/interfaces/http/handler"
	"appendix-ai-api/internal/interfaces/http/router"
	"appendix-ai-api/internal/workflow/port"
	"appendix-ai-api/internal/workflow/prompt"
)

// InitializeApp 初始化整个应用（带路由器）
func InitializeApp(ctx context.Context, cfg *config.Config) (*App, func(), error) {
	wire.Build(
		RedisSet,
		GenerationSet,
		WorkspaceSet,
		RouterSet,
		wire.Struct(new(App), "*"),
	)
	return nil, nil, nil
}

// RedisSet 可选 Redis：限流与提取缓存
var RedisSet = wire.NewSet(
	ProvideRedisClient,
	ProvideRateLimiter,
	ProvideExtractionCache,
)

// GenerationSet 提示词、模型与生成器
var GenerationSet = wire.NewSet(
	prompt.NewRegistry,
	ProvideComposer,
	llm.NewEinoFactory,
	wire.Bind(new(port.ChatModelFactory), new(*llm.EinoFactory)),
	ProvideGenerator,
	ProvideRenderer,
)

// WorkspaceSet 会话存储与编排
var WorkspaceSet = wire.NewSet(
	ProvideExtractionService,
	ProvideSessionStore,
	ProvideWorkspaceService,
	wire.Bind(new(workspace.Generator), new(*appendix.Generator)),
)

// RouterSet 路由器提供者集合
var RouterSet = wire.NewSet(
	handler.NewHealthHandler,
	handler.NewCatalogHandler,
	handler.NewSessionHandler,
	handler.NewGenerateHandler,
	handler.NewDocumentHandler,
	wire.Struct(new(router.RouterHandlers), "*"),
	router.NewWithDeps,
)
