package handler

import (
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/interfaces/http/dto"
)

const htmlContentType = "text/html; charset=utf-8"

// DocumentHandler 预览、打印与 Word 导出
type DocumentHandler struct {
	svc *workspace.Service
}

// NewDocumentHandler 创建文档处理器
func NewDocumentHandler(svc *workspace.Service) *DocumentHandler {
	return &DocumentHandler{svc: svc}
}

// Export 导出 Word 文档
// 请求体可携带预览中已排版的标记，缺省时使用原始生成结果
// @Summary 导出 Word
// @Tags Documents
// @Accept json
// @Produce application/msword
// @Param sid path string true "会话 ID"
// @Param body body dto.ExportRequest false "已渲染标记"
// @Success 200 {file} file
// @Failure 404 {object} dto.ErrorResponse
// @Router /v1/sessions/{sid}/export [post]
func (h *DocumentHandler) Export(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		dto.BadRequest(c, "invalid request body: "+err.Error())
		return
	}

	exp, err := h.svc.Export(dto.BindSessionID(c), req.Rendered)
	if err != nil {
		dto.AppError(c, err)
		return
	}
	c.Header("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": exp.FileName}))
	c.Data(http.StatusOK, exp.ContentType, exp.Body)
}

// Preview 预览页面（含 MathJax 排版）
// @Router /v1/sessions/{sid}/preview [get]
func (h *DocumentHandler) Preview(c *gin.Context) {
	page, err := h.svc.Preview(dto.BindSessionID(c))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, page)
}

// Print 打印页面，载入后调用浏览器打印
// @Router /v1/sessions/{sid}/print [get]
func (h *DocumentHandler) Print(c *gin.Context) {
	page, err := h.svc.Print(dto.BindSessionID(c))
	if err != nil {
		dto.AppError(c, err)
		return
	}
	c.Data(http.StatusOK, htmlContentType, page)
}
