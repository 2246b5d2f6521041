package handler

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/application/appendix"
	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/domain/entity"
	"appendix-ai-api/internal/interfaces/http/dto"
)

// GenerateHandler 流式生成附录
type GenerateHandler struct {
	svc       *workspace.Service
	generator workspace.Generator
}

// NewGenerateHandler 创建生成处理器
func NewGenerateHandler(svc *workspace.Service, generator workspace.Generator) *GenerateHandler {
	return &GenerateHandler{
		svc:       svc,
		generator: generator,
	}
}

// GenerateSession 基于会话配置生成，结果写回会话
// @Summary SSE 流式生成（会话）
// @Description content 事件携带累计 HTML，结束时输出 done 或 error（message、retryable）
// @Tags Generate
// @Produce text/event-stream
// @Param sid path string true "会话 ID"
// @Success 200 "SSE stream"
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/generate [post]
func (h *GenerateHandler) GenerateSession(c *gin.Context) {
	id := dto.BindSessionID(c)
	if _, err := h.svc.Snapshot(id); err != nil {
		dto.AppError(c, err)
		return
	}

	streamGeneration(c, func(ctx context.Context, onIncrement appendix.IncrementFunc) (entity.GeneratedDocument, error) {
		snap, err := h.svc.Generate(ctx, id, onIncrement)
		if err != nil {
			return entity.GeneratedDocument{}, err
		}
		return snap.Document, nil
	})
}

// GenerateOnce 无会话的一次性生成
// @Summary SSE 流式生成（无会话）
// @Tags Generate
// @Accept json
// @Produce text/event-stream
// @Param body body dto.GenerateRequest true "完整生成配置"
// @Success 200 "SSE stream"
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/generate [post]
func (h *GenerateHandler) GenerateOnce(c *gin.Context) {
	var req dto.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	cfg := req.ToConfig()
	if err := cfg.ValidateForGeneration(); err != nil {
		dto.AppError(c, err)
		return
	}

	streamGeneration(c, func(ctx context.Context, onIncrement appendix.IncrementFunc) (entity.GeneratedDocument, error) {
		html, err := h.generator.Generate(ctx, cfg, onIncrement)
		if err != nil {
			return entity.GeneratedDocument{}, err
		}
		return entity.GeneratedDocument{HTML: entity.TrustedHTML(html), UpdatedAt: time.Now()}, nil
	})
}
