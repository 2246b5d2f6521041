// Package entity 定义领域实体
package entity

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"appendix-ai-api/internal/domain/catalog"
	apperrors "appendix-ai-api/pkg/errors"
)

// AppendixKind 附录类型
type AppendixKind string

const (
	AppendixKindI   AppendixKind = "PHU_LUC_I"
	AppendixKindIII AppendixKind = "PHU_LUC_III"
)

// Valid 是否为已知附录类型
func (k AppendixKind) Valid() bool {
	return k == AppendixKindI || k == AppendixKindIII
}

// Label 展示名称
func (k AppendixKind) Label() string {
	switch k {
	case AppendixKindI:
		return "Phụ lục I"
	case AppendixKindIII:
		return "Phụ lục III"
	default:
		return string(k)
	}
}

// GenerationConfig 一次生成所需的全部输入
// SelectedIntegrationKeys 中的键必须存在于 catalog
type GenerationConfig struct {
	AppendixKind            AppendixKind `json:"appendix_kind"`
	SourceText              string       `json:"source_text"`
	GradeLevel              string       `json:"grade_level"`
	SchoolName              string       `json:"school_name"`
	DepartmentName          string       `json:"department_name"`
	TeacherName             string       `json:"teacher_name"`
	SubjectName             string       `json:"subject_name"`
	AcademicYear            string       `json:"academic_year"`
	SelectedIntegrationKeys []string     `json:"selected_integration_keys"`
	TextbookSeries          string       `json:"textbook_series"`
}

// DefaultGenerationConfig 新会话的初始配置
func DefaultGenerationConfig() GenerationConfig {
	return GenerationConfig{
		AppendixKind:            AppendixKindIII,
		GradeLevel:              catalog.GradeLevels()[0],
		DepartmentName:          catalog.Departments()[0],
		SubjectName:             "Tin học",
		AcademicYear:            catalog.AcademicYears()[0],
		SelectedIntegrationKeys: []string{catalog.TopicNLS},
		TextbookSeries:          catalog.TextbookSeries()[0],
	}
}

// Clone 深拷贝，避免共享 SelectedIntegrationKeys 底层数组
func (c GenerationConfig) Clone() GenerationConfig {
	c.SelectedIntegrationKeys = slices.Clone(c.SelectedIntegrationKeys)
	return c
}

// HasIntegration 是否已选中主题
func (c *GenerationConfig) HasIntegration(key string) bool {
	return slices.Contains(c.SelectedIntegrationKeys, key)
}

// ToggleIntegration 选中/取消主题，返回切换后的选中状态
func (c *GenerationConfig) ToggleIntegration(key string) (bool, error) {
	if !catalog.IsKnownTopic(key) {
		return false, apperrors.NewValidationError(apperrors.MsgUnknownTopic).WithDetail(key)
	}
	if i := slices.Index(c.SelectedIntegrationKeys, key); i >= 0 {
		c.SelectedIntegrationKeys = slices.Delete(slices.Clone(c.SelectedIntegrationKeys), i, i+1)
		return false, nil
	}
	c.SelectedIntegrationKeys = append(slices.Clone(c.SelectedIntegrationKeys), key)
	return true, nil
}

// Validate 校验结构约束：附录类型与主题键
func (c *GenerationConfig) Validate() error {
	if !c.AppendixKind.Valid() {
		return apperrors.NewValidationError("Loại phụ lục không hợp lệ.").WithDetail(string(c.AppendixKind))
	}
	for _, key := range c.SelectedIntegrationKeys {
		if !catalog.IsKnownTopic(key) {
			return apperrors.NewValidationError(apperrors.MsgUnknownTopic).WithDetail(key)
		}
	}
	return nil
}

// ValidateForGeneration 发起生成前的校验，顺序：源文本 -> 主题数量 -> 结构约束
func (c *GenerationConfig) ValidateForGeneration() error {
	if strings.TrimSpace(c.SourceText) == "" {
		return apperrors.NewValidationError(apperrors.MsgEmptySource)
	}
	if len(c.SelectedIntegrationKeys) == 0 {
		return apperrors.NewValidationError(apperrors.MsgNoIntegration)
	}
	return c.Validate()
}

// ConfigPatch 逐字段更新，nil 字段保持不变
type ConfigPatch struct {
	AppendixKind            *AppendixKind `json:"appendix_kind,omitempty"`
	SourceText              *string       `json:"source_text,omitempty"`
	GradeLevel              *string       `json:"grade_level,omitempty"`
	SchoolName              *string       `json:"school_name,omitempty"`
	DepartmentName          *string       `json:"department_name,omitempty"`
	TeacherName             *string       `json:"teacher_name,omitempty"`
	SubjectName             *string       `json:"subject_name,omitempty"`
	AcademicYear            *string       `json:"academic_year,omitempty"`
	SelectedIntegrationKeys *[]string     `json:"selected_integration_keys,omitempty"`
	TextbookSeries          *string       `json:"textbook_series,omitempty"`
}

// Apply 在副本上应用补丁，校验通过才返回新配置
func (c GenerationConfig) Apply(p ConfigPatch) (GenerationConfig, error) {
	next := c.Clone()
	if p.AppendixKind != nil {
		next.AppendixKind = *p.AppendixKind
	}
	setString(&next.SourceText, p.SourceText)
	setString(&next.GradeLevel, p.GradeLevel)
	setString(&next.SchoolName, p.SchoolName)
	setString(&next.DepartmentName, p.DepartmentName)
	setString(&next.TeacherName, p.TeacherName)
	setString(&next.SubjectName, p.SubjectName)
	setString(&next.AcademicYear, p.AcademicYear)
	setString(&next.TextbookSeries, p.TextbookSeries)
	if p.SelectedIntegrationKeys != nil {
		keys := make([]string, 0, len(*p.SelectedIntegrationKeys))
		for _, k := range *p.SelectedIntegrationKeys {
			if !slices.Contains(keys, k) {
				keys = append(keys, k)
			}
		}
		next.SelectedIntegrationKeys = keys
	}
	if err := next.Validate(); err != nil {
		return c, err
	}
	return next, nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

// TrustedHTML 由生成服务产出、按原样注入页面的标记
// 用户输入不得直接转换为该类型
type TrustedHTML string

// RenderedMarkup 客户端回传的预览标记
// 只进入 Word 下载文件，不注入任何页面，因此不是 TrustedHTML
type RenderedMarkup string

// GeneratedDocument 生成结果
// Incomplete 表示生成中断，HTML 只是部分输出
type GeneratedDocument struct {
	HTML       TrustedHTML `json:"html"`
	Incomplete bool        `json:"incomplete"`
	UpdatedAt  time.Time   `json:"updated_at"`
}

// Empty 是否尚无内容
func (d GeneratedDocument) Empty() bool {
	return d.HTML == ""
}

// UIState 会话运行状态
type UIState struct {
	IsGenerating     bool    `json:"is_generating"`
	IsExtractingFile bool    `json:"is_extracting_file"`
	LastError        *string `json:"last_error"`
}

// Busy 生成或文件提取进行中
func (s UIState) Busy() bool {
	return s.IsGenerating || s.IsExtractingFile
}

// ExportFileName 导出文件名：{kind}_{年级中空白替换为下划线}.doc
func ExportFileName(kind AppendixKind, grade string) string {
	var b strings.Builder
	for _, r := range grade {
		if isSpace(r) {
			b.WriteByte('_')
			continue
		}
		b.WriteRune(r)
	}
	return fmt.Sprintf("%s_%s.doc", kind, b.String())
}

// isSpace 与 ECMAScript \s 一致的空白集合
func isSpace(r rune) bool {
	switch r {
	case ' ', '\t', '\n', '\v', '\f', '\r',
		'\u00a0', '\u1680', '\u2028', '\u2029', '\u202f', '\u205f', '\u3000', '\ufeff':
		return true
	}
	return r >= '\u2000' && r <= '\u200a'
}
