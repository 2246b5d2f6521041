// Package handler 提供 HTTP 请求处理器
package handler

import (
	"context"
	"io"

	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/application/appendix"
	"appendix-ai-api/internal/domain/entity"
	"appendix-ai-api/internal/interfaces/http/dto"
	apperrors "appendix-ai-api/pkg/errors"
)

// generateFunc 执行一次生成，增量通过 onIncrement 回调
type generateFunc func(ctx context.Context, onIncrement appendix.IncrementFunc) (entity.GeneratedDocument, error)

func setSSEHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// streamGeneration 以 SSE 输出生成过程
// content 事件携带累计 HTML；结束时输出 done 或 error
func streamGeneration(c *gin.Context, run generateFunc) {
	ctx := c.Request.Context()
	setSSEHeaders(c)

	contentCh := make(chan string, 16)
	doneCh := make(chan entity.GeneratedDocument, 1)
	errCh := make(chan error, 1)

	go func() {
		doc, err := run(ctx, func(cumulative string) {
			select {
			case contentCh <- cumulative:
			case <-ctx.Done():
			}
		})
		if err != nil {
			errCh <- err
			return
		}
		doneCh <- doc
	}()

	index := 0
	emit := func(html string) {
		c.SSEvent("content", gin.H{"html": html, "index": index})
		index++
	}
	// 回调在 run 返回前已入队，结束事件之前先把剩余增量发完
	drain := func() {
		for {
			select {
			case html := <-contentCh:
				emit(html)
			default:
				return
			}
		}
	}

	c.Stream(func(w io.Writer) bool {
		select {
		case html := <-contentCh:
			emit(html)
			return true

		case doc := <-doneCh:
			drain()
			c.SSEvent("done", dto.GenerateDoneEvent{Document: dto.ToDocumentResponse(doc)})
			return false

		case err := <-errCh:
			drain()
			appErr := apperrors.AsAppError(err)
			c.SSEvent("error", dto.GenerateErrorEvent{
				Message:   appErr.Message,
				Code:      string(appErr.Code),
				Retryable: appErr.Retryable,
			})
			return false

		case <-ctx.Done():
			return false
		}
	})
}
