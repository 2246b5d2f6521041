package port

import (
	"context"

	"github.com/cloudwego/eino/components/model"
)

// ChatModelFactory 生成流程对 LLM ChatModel 的最小依赖（port），name 为空表示默认提供商
type ChatModelFactory interface {
	Get(ctx context.Context, name string) (model.BaseChatModel, error)
}
