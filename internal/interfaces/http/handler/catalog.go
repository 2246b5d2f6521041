package handler

import (
	"github.com/gin-gonic/gin"

	"appendix-ai-api/internal/domain/catalog"
	"appendix-ai-api/internal/interfaces/http/dto"
)

// CatalogHandler 静态查找表
type CatalogHandler struct{}

// NewCatalogHandler 创建查找表处理器
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// GetCatalog 返回全部查找表
// @Summary 查找表
// @Description 融合主题、学科、教材系列、教研组、学年、年级与示例数据
// @Tags Catalog
// @Produce json
// @Success 200 {object} dto.Response[catalog.Snapshot]
// @Router /v1/catalog [get]
func (h *CatalogHandler) GetCatalog(c *gin.Context) {
	dto.Success(c, catalog.All())
}
