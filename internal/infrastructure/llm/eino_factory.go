// Package llm 按配置创建 eino ChatModel
package llm

import (
	"context"
	"fmt"
	"sync"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"

	"appendix-ai-api/internal/config"
)

// 提供商类型
const (
	ProviderTypeGemini = "gemini"
	ProviderTypeOpenAI = "openai"
)

// EinoFactory 管理多个 Eino ChatModel 客户端实例
type EinoFactory struct {
	config *config.LLMConfig
	models map[string]model.BaseChatModel
	mu     sync.RWMutex
}

// NewEinoFactory 创建 Eino LLM 工厂
func NewEinoFactory(cfg *config.Config) *EinoFactory {
	return &EinoFactory{
		config: &cfg.LLM,
		models: make(map[string]model.BaseChatModel),
	}
}

// Get 获取指定名称的 ChatModel，如果未指定则返回默认客户端
func (f *EinoFactory) Get(ctx context.Context, name string) (model.BaseChatModel, error) {
	if name == "" {
		name = f.config.DefaultProvider
	}

	f.mu.RLock()
	m, ok := f.models[name]
	f.mu.RUnlock()
	if ok {
		return m, nil
	}

	// 惰性加载
	f.mu.Lock()
	defer f.mu.Unlock()

	if m, ok = f.models[name]; ok {
		return m, nil
	}

	providerCfg, ok := f.config.Providers[name]
	if !ok {
		return nil, fmt.Errorf("provider %s not found in LLM config", name)
	}

	chatModel, err := newChatModel(ctx, providerCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create eino chat model for %s: %w", name, err)
	}

	f.models[name] = chatModel
	return chatModel, nil
}

func newChatModel(ctx context.Context, p config.ProviderConfig) (model.BaseChatModel, error) {
	switch p.Type {
	case ProviderTypeGemini:
		return NewGeminiChatModel(ctx, GeminiConfig{
			APIKey:      p.APIKey,
			BaseURL:     p.BaseURL,
			Model:       p.Model,
			Temperature: float32Ptr(p.Temperature),
		})
	case ProviderTypeOpenAI, "":
		cfg := &openai.ChatModelConfig{
			APIKey:      p.APIKey,
			BaseURL:     p.BaseURL,
			Model:       p.Model,
			Temperature: float32Ptr(p.Temperature),
			Timeout:     p.Timeout,
		}
		if p.MaxTokens > 0 {
			cfg.MaxTokens = &p.MaxTokens
		}
		return openai.NewChatModel(ctx, cfg)
	default:
		return nil, fmt.Errorf("unsupported provider type %q", p.Type)
	}
}

func float32Ptr(f *float64) *float32 {
	if f == nil {
		return nil
	}
	v := float32(*f)
	return &v
}
