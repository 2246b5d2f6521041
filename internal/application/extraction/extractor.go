// Package extraction 将上传的教案文件转换为纯文本
package extraction

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	apperrors "appendix-ai-api/pkg/errors"
	"appendix-ai-api/pkg/logger"
	"appendix-ai-api/pkg/metrics"
	"appendix-ai-api/pkg/tracer"
)

// Format 按文件名后缀判定的解析方式
type Format string

const (
	FormatWord Format = "word"
	FormatPDF  Format = "pdf"
	FormatText Format = "text"
)

// FormatOf 仅根据小写后缀分派，不做内容嗅探
func FormatOf(filename string) Format {
	name := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(name, ".docx"), strings.HasSuffix(name, ".doc"):
		return FormatWord
	case strings.HasSuffix(name, ".pdf"):
		return FormatPDF
	default:
		return FormatText
	}
}

// Cache 提取结果缓存（按内容哈希）
type Cache interface {
	GetOrLoad(ctx context.Context, key string, load func(ctx context.Context) (string, error)) (string, error)
}

// Service 文本提取服务
type Service struct {
	maxBytes int64
	cache    Cache
}

// NewService 创建提取服务；maxBytes<=0 表示不限制，cache 可为 nil
func NewService(maxBytes int64, cache Cache) *Service {
	return &Service{maxBytes: maxBytes, cache: cache}
}

// Extract 读取文件全部内容并按格式提取文本
// 任何解析失败都归并为同一个提取错误
func (s *Service) Extract(ctx context.Context, filename string, r io.Reader) (string, error) {
	format := FormatOf(filename)
	ctx, span := tracer.Start(ctx, "extraction.Extract")
	span.SetAttributes(attribute.String("extraction.format", string(format)))
	defer span.End()

	start := time.Now()
	text, err := s.extract(ctx, format, r)
	metrics.ExtractionDuration.WithLabelValues(string(format)).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.ExtractionTotal.WithLabelValues(string(format), "failed").Inc()
		tracer.RecordError(span, err)
		logger.Debug(ctx, "file extraction failed", "filename", filename, "format", format, "error", err.Error())
		return "", err
	}

	metrics.ExtractionTotal.WithLabelValues(string(format), "success").Inc()
	span.SetAttributes(attribute.Int("extraction.chars", len(text)))
	return text, nil
}

func (s *Service) extract(ctx context.Context, format Format, r io.Reader) (string, error) {
	data, err := s.readAll(r)
	if err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", apperrors.NewExtractionError(err)
	}

	load := func(context.Context) (string, error) {
		text, err := parse(format, data)
		if err != nil {
			return "", apperrors.NewExtractionError(err)
		}
		return text, nil
	}
	if s.cache == nil {
		return load(ctx)
	}
	return s.cache.GetOrLoad(ctx, cacheKey(format, data), load)
}

func (s *Service) readAll(r io.Reader) ([]byte, error) {
	if s.maxBytes <= 0 {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, apperrors.NewExtractionError(err)
		}
		return data, nil
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return nil, apperrors.NewExtractionError(err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, apperrors.New(apperrors.CodeUploadTooLarge, apperrors.MsgExtractionFailed).
			WithDetail(fmt.Sprintf("file exceeds %d bytes", s.maxBytes))
	}
	return data, nil
}

// parse 调用第三方解析器，解析器 panic 也转换为错误
func parse(format Format, data []byte) (text string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("parser panic: %v", rec)
		}
	}()

	switch format {
	case FormatWord:
		return extractWord(bytes.NewReader(data), int64(len(data)))
	case FormatPDF:
		return extractPDF(bytes.NewReader(data), int64(len(data)))
	default:
		return decodeText(data), nil
	}
}

func cacheKey(format Format, data []byte) string {
	sum := sha256.Sum256(data)
	return "extract:" + string(format) + ":" + hex.EncodeToString(sum[:])
}
