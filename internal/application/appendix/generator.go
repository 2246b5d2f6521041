package appendix

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"appendix-ai-api/internal/domain/entity"
	"appendix-ai-api/internal/workflow/port"
	apperrors "appendix-ai-api/pkg/errors"
	"appendix-ai-api/pkg/logger"
	"appendix-ai-api/pkg/metrics"
	"appendix-ai-api/pkg/tracer"
)

// DefaultTemperature 未配置温度时使用
const DefaultTemperature = 0.1

// IncrementFunc 每收到一段增量后以累计文本回调，在生成 goroutine 中同步调用
type IncrementFunc func(cumulative string)

// ModelInfo 当前使用的模型信息，用于指标标签
type ModelInfo struct {
	Provider    string
	Model       string
	// Temperature 为 nil 时使用 DefaultTemperature；显式配置的 0 保留
	Temperature *float64
}

// GeneratorOptions 生成器参数
type GeneratorOptions struct {
	Model         ModelInfo
	MaxConcurrent int64
	Timeout       time.Duration
}

// Generator 流式生成客户端
type Generator struct {
	composer *Composer
	models   port.ChatModelFactory
	info     ModelInfo
	temp     float32
	sem      *semaphore.Weighted
	timeout  time.Duration
}

// NewGenerator 创建生成器
func NewGenerator(composer *Composer, models port.ChatModelFactory, opts GeneratorOptions) *Generator {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}
	temp := DefaultTemperature
	if opts.Model.Temperature != nil {
		temp = *opts.Model.Temperature
	}
	return &Generator{
		composer: composer,
		models:   models,
		info:     opts.Model,
		temp:     float32(temp),
		sem:      semaphore.NewWeighted(opts.MaxConcurrent),
		timeout:  opts.Timeout,
	}
}

// Generate 校验配置、打开一次流式请求，并按顺序回调累计文本
// 失败时不返回部分结果；部分结果只能通过回调获得
func (g *Generator) Generate(ctx context.Context, cfg entity.GenerationConfig, onIncrement IncrementFunc) (string, error) {
	kind := string(cfg.AppendixKind)
	if err := cfg.ValidateForGeneration(); err != nil {
		metrics.GenerationTotal.WithLabelValues(kind, "invalid").Inc()
		return "", err
	}

	ctx, span := tracer.Start(ctx, "appendix.generate")
	defer span.End()
	span.SetAttributes(
		attribute.String("appendix.kind", kind),
		attribute.String("appendix.grade", cfg.GradeLevel),
		attribute.StringSlice("appendix.integrations", cfg.SelectedIntegrationKeys),
		attribute.String("llm.provider", g.info.Provider),
		attribute.String("llm.model", g.info.Model),
	)

	start := time.Now()
	text, err := g.run(ctx, cfg, onIncrement)
	metrics.GenerationDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GenerationTotal.WithLabelValues(kind, "failed").Inc()
		tracer.RecordError(span, err)
		logger.Error(ctx, "appendix generation failed", err,
			"provider", g.info.Provider,
			"model", g.info.Model,
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return "", err
	}

	metrics.GenerationTotal.WithLabelValues(kind, "success").Inc()
	metrics.GenerationOutputBytes.Observe(float64(len(text)))
	span.SetAttributes(attribute.Int("appendix.output_bytes", len(text)))
	return text, nil
}

func (g *Generator) run(ctx context.Context, cfg entity.GenerationConfig, onIncrement IncrementFunc) (string, error) {
	p, err := g.composer.Compose(ctx, cfg)
	if err != nil {
		return "", apperrors.NewGenerationError(err, "", false)
	}

	if err := g.sem.Acquire(ctx, 1); err != nil {
		return "", apperrors.NewGenerationError(err, "", false)
	}
	defer g.sem.Release(1)
	metrics.GenerationInFlight.Inc()
	defer metrics.GenerationInFlight.Dec()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	chatModel, err := g.models.Get(ctx, g.info.Provider)
	if err != nil {
		return "", apperrors.NewGenerationError(err, "", false)
	}

	callStart := time.Now()
	text, err := g.stream(ctx, chatModel, p, onIncrement)
	metrics.LLMCallDuration.WithLabelValues(g.info.Provider, g.info.Model).Observe(time.Since(callStart).Seconds())
	if err != nil {
		metrics.LLMCallTotal.WithLabelValues(g.info.Provider, g.info.Model, "error").Inc()
		return "", wrapGenerationError(err)
	}
	metrics.LLMCallTotal.WithLabelValues(g.info.Provider, g.info.Model, "success").Inc()
	return text, nil
}

func (g *Generator) stream(ctx context.Context, chatModel model.BaseChatModel, p Prompt, onIncrement IncrementFunc) (string, error) {
	reader, err := chatModel.Stream(ctx, p.Messages(), model.WithTemperature(g.temp))
	if err != nil {
		return "", err
	}
	defer reader.Close()

	var (
		buf   strings.Builder
		usage *schema.TokenUsage
	)
	for {
		msg, err := reader.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		if msg == nil {
			continue
		}
		if msg.ResponseMeta != nil && msg.ResponseMeta.Usage != nil {
			usage = msg.ResponseMeta.Usage
		}
		if msg.Content == "" {
			continue
		}

		buf.WriteString(msg.Content)
		metrics.GenerationIncrements.Inc()
		if onIncrement != nil {
			onIncrement(buf.String())
		}
	}

	if usage != nil {
		metrics.LLMTokensUsed.WithLabelValues(g.info.Provider, g.info.Model, "prompt").Add(float64(usage.PromptTokens))
		metrics.LLMTokensUsed.WithLabelValues(g.info.Provider, g.info.Model, "completion").Add(float64(usage.CompletionTokens))
	}
	return buf.String(), nil
}

// statusCoder 由模型适配器返回的、携带上游 HTTP 状态码的错误
type statusCoder interface {
	HTTPStatusCode() int
}

// wrapGenerationError 统一转换为生成错误
// 已是 AppError 的保留其提示语
func wrapGenerationError(err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		if appErr.Code == apperrors.CodeGenerationFailed {
			return appErr
		}
		return apperrors.NewGenerationError(err, appErr.Message, IsRetryable(err))
	}
	return apperrors.NewGenerationError(err, "", IsRetryable(err))
}

// IsRetryable 判断失败是否值得用户稍后重试：网络、超时、429、5xx
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var sc statusCoder
	if errors.As(err, &sc) {
		return retryableStatus(sc.HTTPStatusCode())
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "status code: 429"), strings.Contains(msg, "too many requests"):
		return true
	case strings.Contains(msg, "resource_exhausted"), strings.Contains(msg, "unavailable"):
		return true
	case strings.Contains(msg, "status code: 5"):
		return true
	case strings.Contains(msg, "connection reset"), strings.Contains(msg, "eof"):
		return true
	default:
		return false
	}
}

func retryableStatus(code int) bool {
	return code == 429 || (code >= 500 && code <= 599)
}
