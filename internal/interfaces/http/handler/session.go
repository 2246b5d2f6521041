package handler

import (
	"errors"
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/config"
	"appendix-ai-api/internal/interfaces/http/dto"
	apperrors "appendix-ai-api/pkg/errors"
	"appendix-ai-api/pkg/logger"
)

// multipartOverhead multipart 边界与表头的额外预留
const multipartOverhead = 1 << 20

// SessionHandler 工作区会话：配置、示例数据与文件上传
type SessionHandler struct {
	svc            *workspace.Service
	maxUploadBytes int64
}

// NewSessionHandler 创建会话处理器
func NewSessionHandler(cfg *config.Config, svc *workspace.Service) *SessionHandler {
	return &SessionHandler{
		svc:            svc,
		maxUploadBytes: cfg.Extraction.MaxUploadBytes,
	}
}

// CreateSession 创建会话
// @Summary 创建会话
// @Tags Sessions
// @Produce json
// @Success 201 {object} dto.Response[dto.SessionResponse]
// @Failure 503 {object} dto.ErrorResponse
// @Router /v1/sessions [post]
func (h *SessionHandler) CreateSession(c *gin.Context) {
	snap, err := h.svc.Create(c.Request.Context())
	if err != nil {
		logger.Warn(c.Request.Context(), "failed to create session", "error", err.Error())
		dto.AppError(c, err)
		return
	}
	c.Header("Location", "/v1/sessions/"+snap.ID)
	dto.Created(c, dto.ToSessionResponse(snap))
}

// GetSession 查询会话状态
// @Summary 会话状态
// @Tags Sessions
// @Produce json
// @Param sid path string true "会话 ID"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid} [get]
func (h *SessionHandler) GetSession(c *gin.Context) {
	snap, err := h.svc.Snapshot(dto.BindSessionID(c))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToSessionResponse(snap))
}

// DeleteSession 删除会话
// @Router /v1/sessions/{sid} [delete]
func (h *SessionHandler) DeleteSession(c *gin.Context) {
	h.svc.Store().Delete(dto.BindSessionID(c))
	c.Status(http.StatusNoContent)
}

// UpdateConfig 逐字段更新配置
// @Summary 更新配置
// @Tags Sessions
// @Accept json
// @Produce json
// @Param sid path string true "会话 ID"
// @Param body body dto.UpdateConfigRequest true "配置字段"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/config [patch]
func (h *SessionHandler) UpdateConfig(c *gin.Context) {
	var req dto.UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}
	snap, err := h.svc.UpdateConfig(c.Request.Context(), dto.BindSessionID(c), req.ToPatch())
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToSessionResponse(snap))
}

// ToggleIntegration 选中/取消融合主题
// @Summary 切换融合主题
// @Tags Sessions
// @Produce json
// @Param sid path string true "会话 ID"
// @Param key path string true "主题键"
// @Success 200 {object} dto.Response[dto.ToggleResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/integrations/{key}/toggle [post]
func (h *SessionHandler) ToggleIntegration(c *gin.Context) {
	key := dto.BindIntegrationKey(c)
	snap, err := h.svc.ToggleIntegration(dto.BindSessionID(c), key)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, &dto.ToggleResponse{
		Key:      key,
		Selected: slices.Contains(snap.Config.SelectedIntegrationKeys, key),
		Session:  dto.ToSessionResponse(snap),
	})
}

// LoadDemo 载入示例课程列表
// @Router /v1/sessions/{sid}/demo [post]
func (h *SessionHandler) LoadDemo(c *gin.Context) {
	snap, err := h.svc.LoadDemo(dto.BindSessionID(c))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToSessionResponse(snap))
}

// UploadFile 上传 .docx/.doc/.pdf/文本文件并替换源文本
// @Summary 上传文件
// @Tags Sessions
// @Accept multipart/form-data
// @Produce json
// @Param sid path string true "会话 ID"
// @Param file formData file true "课程文件"
// @Success 200 {object} dto.Response[dto.SessionResponse]
// @Failure 409 {object} dto.ErrorResponse
// @Failure 413 {object} dto.ErrorResponse
// @Failure 422 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/upload [post]
func (h *SessionHandler) UploadFile(c *gin.Context) {
	ctx := c.Request.Context()
	if h.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes+multipartOverhead)
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			cause := apperrors.New(apperrors.CodeUploadTooLarge, apperrors.MsgExtractionFailed).
				WithDetail(fmt.Sprintf("file exceeds %d bytes", h.maxUploadBytes))
			_, err = h.svc.RejectUpload(dto.BindSessionID(c), cause)
			dto.AppError(c, err)
			return
		}
		dto.BadRequest(c, "missing file field: "+err.Error())
		return
	}
	defer file.Close()

	snap, err := h.svc.UploadFile(ctx, dto.BindSessionID(c), header.Filename, file)
	if err != nil {
		logger.Debug(ctx, "file extraction failed", "file", header.Filename, "error", err.Error())
		dto.AppError(c, err)
		return
	}
	dto.Success(c, dto.ToSessionResponse(snap))
}
