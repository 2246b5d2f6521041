package dto

import (
	"time"

	"appendix-ai-api/internal/application/workspace"
	"appendix-ai-api/internal/domain/entity"
)

// SessionResponse 会话状态响应
type SessionResponse struct {
	ID       string                  `json:"id"`
	Config   entity.GenerationConfig `json:"config"`
	Document DocumentResponse        `json:"document"`
	UI       entity.UIState          `json:"ui"`
}

// DocumentResponse 生成结果
type DocumentResponse struct {
	HTML       string `json:"html"`
	Incomplete bool   `json:"incomplete"`
	UpdatedAt  string `json:"updated_at,omitempty"`
}

// ToSessionResponse 转换会话快照
func ToSessionResponse(s workspace.Snapshot) *SessionResponse {
	return &SessionResponse{
		ID:       s.ID,
		Config:   s.Config,
		Document: ToDocumentResponse(s.Document),
		UI:       s.UI,
	}
}

// ToDocumentResponse 转换生成结果
func ToDocumentResponse(d entity.GeneratedDocument) DocumentResponse {
	resp := DocumentResponse{
		HTML:       string(d.HTML),
		Incomplete: d.Incomplete,
	}
	if !d.UpdatedAt.IsZero() {
		resp.UpdatedAt = d.UpdatedAt.Format(time.RFC3339)
	}
	return resp
}

// UpdateConfigRequest 配置更新请求，未出现的字段保持不变
type UpdateConfigRequest struct {
	AppendixKind            *string   `json:"appendix_kind"`
	SourceText              *string   `json:"source_text"`
	GradeLevel              *string   `json:"grade_level"`
	SchoolName              *string   `json:"school_name"`
	DepartmentName          *string   `json:"department_name"`
	TeacherName             *string   `json:"teacher_name"`
	SubjectName             *string   `json:"subject_name"`
	AcademicYear            *string   `json:"academic_year"`
	SelectedIntegrationKeys *[]string `json:"selected_integration_keys"`
	TextbookSeries          *string   `json:"textbook_series"`
}

// ToPatch 转换为领域补丁
func (r *UpdateConfigRequest) ToPatch() entity.ConfigPatch {
	patch := entity.ConfigPatch{
		SourceText:              r.SourceText,
		GradeLevel:              r.GradeLevel,
		SchoolName:              r.SchoolName,
		DepartmentName:          r.DepartmentName,
		TeacherName:             r.TeacherName,
		SubjectName:             r.SubjectName,
		AcademicYear:            r.AcademicYear,
		SelectedIntegrationKeys: r.SelectedIntegrationKeys,
		TextbookSeries:          r.TextbookSeries,
	}
	if r.AppendixKind != nil {
		kind := entity.AppendixKind(*r.AppendixKind)
		patch.AppendixKind = &kind
	}
	return patch
}

// GenerateRequest 无会话的一次性生成请求
type GenerateRequest struct {
	AppendixKind            string   `json:"appendix_kind" binding:"required"`
	SourceText              string   `json:"source_text"`
	GradeLevel              string   `json:"grade_level" binding:"required"`
	SchoolName              string   `json:"school_name"`
	DepartmentName          string   `json:"department_name"`
	TeacherName             string   `json:"teacher_name"`
	SubjectName             string   `json:"subject_name"`
	AcademicYear            string   `json:"academic_year"`
	SelectedIntegrationKeys []string `json:"selected_integration_keys"`
	TextbookSeries          string   `json:"textbook_series"`
}

// ToConfig 转换为生成配置
func (r *GenerateRequest) ToConfig() entity.GenerationConfig {
	return entity.GenerationConfig{
		AppendixKind:            entity.AppendixKind(r.AppendixKind),
		SourceText:              r.SourceText,
		GradeLevel:              r.GradeLevel,
		SchoolName:              r.SchoolName,
		DepartmentName:          r.DepartmentName,
		TeacherName:             r.TeacherName,
		SubjectName:             r.SubjectName,
		AcademicYear:            r.AcademicYear,
		SelectedIntegrationKeys: r.SelectedIntegrationKeys,
		TextbookSeries:          r.TextbookSeries,
	}
}

// ExportRequest 导出请求；Rendered 为预览中已排版的标记，可省略
type ExportRequest struct {
	Rendered string `json:"rendered"`
}

// ToggleResponse 主题切换结果
type ToggleResponse struct {
	Key      string           `json:"key"`
	Selected bool             `json:"selected"`
	Session  *SessionResponse `json:"session"`
}

// GenerateDoneEvent SSE done 事件
type GenerateDoneEvent struct {
	Document DocumentResponse `json:"document"`
}

// GenerateErrorEvent SSE error 事件
type GenerateErrorEvent struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable"`
}
