// Package appendix 实现附录生成的核心流程：提示词组装、流式生成、预览渲染与 Word 导出
package appendix

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/schema"

	"appendix-ai-api/internal/domain/catalog"
	"appendix-ai-api/internal/domain/entity"
	"appendix-ai-api/internal/workflow/prompt"
)

// Level 数字能力达标等级
type Level string

const (
	LevelTC1 Level = "TC1"
	LevelTC2 Level = "TC2"
)

// ComplianceLevel 年级含 6 或 7 为 TC1，其余（包括无法识别的年级）为 TC2
func ComplianceLevel(grade string) Level {
	if strings.Contains(grade, "6") || strings.Contains(grade, "7") {
		return LevelTC1
	}
	return LevelTC2
}

// tableColumns 各附录类型的表格列
var tableColumns = map[entity.AppendixKind][]string{
	entity.AppendixKindI: {
		"STT", "Bài học", "Số tiết", "Yêu cầu cần đạt", "Nội dung tích hợp",
	},
	entity.AppendixKindIII: {
		"STT", "Bài học", "Số tiết", "Thời điểm", "Thiết bị dạy học", "Địa điểm dạy học", "Nội dung tích hợp",
	},
}

// Prompt 发送给模型的两段指令
type Prompt struct {
	System string
	User   string
}

// Messages 转换为 eino 消息
func (p Prompt) Messages() []*schema.Message {
	return []*schema.Message{
		schema.SystemMessage(p.System),
		schema.UserMessage(p.User),
	}
}

// Composer 基于模板组装提示词，同一配置总是得到相同输出
type Composer struct {
	registry *prompt.Registry
	promptID prompt.PromptID
}

// NewComposer 创建组装器
func NewComposer(registry *prompt.Registry, version string) (*Composer, error) {
	id, err := prompt.ForVersion(version)
	if err != nil {
		return nil, err
	}
	if _, err := registry.ChatTemplate(id); err != nil {
		return nil, err
	}
	return &Composer{registry: registry, promptID: id}, nil
}

// Compose 组装系统指令与用户提示
func (c *Composer) Compose(ctx context.Context, cfg entity.GenerationConfig) (Prompt, error) {
	tpl, err := c.registry.ChatTemplate(c.promptID)
	if err != nil {
		return Prompt{}, err
	}

	msgs, err := tpl.Format(ctx, composeVars(cfg))
	if err != nil {
		return Prompt{}, fmt.Errorf("format prompt: %w", err)
	}
	if len(msgs) != 2 {
		return Prompt{}, fmt.Errorf("prompt %s: expected 2 messages, got %d", c.promptID, len(msgs))
	}
	return Prompt{System: msgs[0].Content, User: msgs[1].Content}, nil
}

func composeVars(cfg entity.GenerationConfig) map[string]any {
	return map[string]any{
		"allowed_topics":  strings.Join(catalog.Labels(cfg.SelectedIntegrationKeys), ", "),
		"textbook_series": cfg.TextbookSeries,
		"tc_level":        string(ComplianceLevel(cfg.GradeLevel)),
		"appendix_kind":   string(cfg.AppendixKind),
		"appendix_label":  cfg.AppendixKind.Label(),
		"table_columns":   strings.Join(tableColumns[cfg.AppendixKind], " | "),
		"source_text":     cfg.SourceText,
		"subject":         cfg.SubjectName,
		"grade":           cfg.GradeLevel,
	}
}
