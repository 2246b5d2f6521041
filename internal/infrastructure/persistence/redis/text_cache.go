package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"

	"appendix-ai-api/pkg/logger"
)

// TextCache 以内容哈希为键缓存提取出的文本
// Redis 故障时直接调用 loader，不影响提取结果
type TextCache struct {
	client *Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewTextCache 创建文本缓存
func NewTextCache(client *Client, ttl time.Duration) *TextCache {
	return &TextCache{client: client, ttl: ttl}
}

// GetOrLoad Read-Through，singleflight 合并相同内容的并发解析
// loader 的错误不会被缓存
func (c *TextCache) GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (string, error)) (string, error) {
	ctx, span := tracer.Start(ctx, "cache.GetOrLoad",
		trace.WithAttributes(attribute.String("cache.key", key)))
	defer span.End()

	val, err := c.client.rdb.Get(ctx, key).Result()
	if err == nil {
		span.SetAttributes(attribute.Bool("cache.hit", true))
		return val, nil
	}
	if !errors.Is(err, redis.Nil) {
		span.RecordError(err)
		logger.Warn(ctx, "text cache read failed", "error", err.Error())
	}
	span.SetAttributes(attribute.Bool("cache.hit", false))

	result, err, shared := c.group.Do(key, func() (interface{}, error) {
		text, err := load(ctx)
		if err != nil {
			return "", err
		}
		if err := c.client.rdb.Set(ctx, key, text, c.ttl).Err(); err != nil {
			span.RecordError(err)
			logger.Warn(ctx, "text cache write failed", "error", err.Error())
		}
		return text, nil
	})
	span.SetAttributes(attribute.Bool("cache.shared", shared))
	if err != nil {
		return "", err
	}
	return result.(string), nil
}
