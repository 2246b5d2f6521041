package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

// GeminiConfig Gemini 适配器配置
type GeminiConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature *float32
}

// GeminiChatModel 以 eino BaseChatModel 形式封装 Gemini 流式接口
type GeminiChatModel struct {
	client      *genai.Client
	model       string
	temperature *float32
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)

// NewGeminiChatModel 创建 Gemini 模型；仅构造客户端，不发起网络请求
func NewGeminiChatModel(ctx context.Context, cfg GeminiConfig) (*GeminiChatModel, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("gemini: api key is empty")
	}
	if cfg.Model == "" {
		return nil, errors.New("gemini: model is empty")
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &GeminiChatModel{client: client, model: cfg.Model, temperature: cfg.Temperature}, nil
}

// Generate 一次性生成
func (m *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	contents, config := m.request(input, opts)
	resp, err := m.client.Models.GenerateContent(ctx, m.model, contents, config)
	if err != nil {
		return nil, convertError(err)
	}
	return toMessage(resp), nil
}

// Stream 流式生成；每个响应分片对应一条增量消息
func (m *GeminiChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	contents, config := m.request(input, opts)
	sr, sw := schema.Pipe[*schema.Message](8)

	go func() {
		defer sw.Close()
		for resp, err := range m.client.Models.GenerateContentStream(ctx, m.model, contents, config) {
			if err != nil {
				sw.Send(nil, convertError(err))
				return
			}
			if closed := sw.Send(toMessage(resp), nil); closed {
				return
			}
		}
	}()
	return sr, nil
}

func (m *GeminiChatModel) request(input []*schema.Message, opts []model.Option) ([]*genai.Content, *genai.GenerateContentConfig) {
	common := model.GetCommonOptions(&model.Options{Temperature: m.temperature}, opts...)

	system, contents := convertMessages(input)
	config := &genai.GenerateContentConfig{}
	if common.Temperature != nil {
		config.Temperature = genai.Ptr(*common.Temperature)
	}
	if system != "" {
		config.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return contents, config
}

// convertMessages 系统消息合并为 SystemInstruction，其余按角色转换
func convertMessages(input []*schema.Message) (string, []*genai.Content) {
	var system string
	contents := make([]*genai.Content, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			if system != "" {
				system += "\n\n"
			}
			system += msg.Content
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}
	return system, contents
}

func toMessage(resp *genai.GenerateContentResponse) *schema.Message {
	msg := schema.AssistantMessage(resp.Text(), nil)
	if u := resp.UsageMetadata; u != nil {
		msg.ResponseMeta = &schema.ResponseMeta{
			Usage: &schema.TokenUsage{
				PromptTokens:     int(u.PromptTokenCount),
				CompletionTokens: int(u.CandidatesTokenCount),
				TotalTokens:      int(u.TotalTokenCount),
			},
		}
	}
	return msg
}

// ProviderError 上游返回的错误，携带 HTTP 状态码
type ProviderError struct {
	Provider   string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: upstream status %d: %v", e.Provider, e.StatusCode, e.Err)
}

func (e *ProviderError) Unwrap() error { return e.Err }

// HTTPStatusCode 供生成器判断是否可重试
func (e *ProviderError) HTTPStatusCode() int { return e.StatusCode }

func convertError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &ProviderError{Provider: "gemini", StatusCode: apiErr.Code, Err: err}
	}
	return err
}
