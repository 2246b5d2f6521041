// Package errors 提供统一的错误定义
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// ErrorCode 错误码类型
type ErrorCode string

// 预定义错误码
const (
	// 通用错误 (1xxx)
	CodeSuccess            ErrorCode = "0"
	CodeUnknown            ErrorCode = "1000"
	CodeInvalidParam       ErrorCode = "1001"
	CodeNotFound           ErrorCode = "1004"
	CodeConflict           ErrorCode = "1005"
	CodeTooManyRequests    ErrorCode = "1006"
	CodeInternalError      ErrorCode = "1007"
	CodeServiceUnavailable ErrorCode = "1008"

	// 资源错误 (3xxx)
	CodeSessionNotFound ErrorCode = "3001"
	CodeSessionBusy     ErrorCode = "3002"

	// 业务错误 (4xxx)
	CodeGenerationFailed ErrorCode = "4001"
	CodeValidationFailed ErrorCode = "4002"
	CodeExtractionFailed ErrorCode = "4003"
	CodeUploadTooLarge   ErrorCode = "4004"

	// 外部服务错误 (5xxx)
	CodeCacheError       ErrorCode = "5002"
	CodeLLMProviderError ErrorCode = "5005"
)

// 面向用户的固定提示语
const (
	MsgExtractionFailed = "Không thể đọc tệp. Vui lòng kiểm tra định dạng .doc, .docx hoặc .pdf."
	MsgEmptySource      = "Vui lòng tải lên hoặc nhập nội dung bài dạy."
	MsgNoIntegration    = "Vui lòng chọn ít nhất một hình thức tích hợp."
	MsgUnknownTopic     = "Hình thức tích hợp không hợp lệ."
	MsgGenerationFailed = "Lỗi hệ thống AI. Vui lòng kiểm tra tài liệu hoặc thử lại."
	MsgSessionBusy      = "Hệ thống AI đang thực thi, vui lòng chờ."
)

// AppError 应用错误
type AppError struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	Detail     string    `json:"detail,omitempty"`
	Retryable  bool      `json:"retryable,omitempty"`
	HTTPStatus int       `json:"-"`
	Err        error     `json:"-"`
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回底层错误
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is 按错误码比较，便于 errors.Is(err, ErrSessionBusy)
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// WithDetail 添加详细信息
func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail
	return e
}

// WithError 添加底层错误
func (e *AppError) WithError(err error) *AppError {
	e.Err = err
	return e
}

// New 创建新的应用错误
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

// Wrap 包装错误
func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Err:        err,
	}
}

// NewExtractionError 文件读取/解析失败，不区分具体原因
func NewExtractionError(err error) *AppError {
	return Wrap(err, CodeExtractionFailed, MsgExtractionFailed)
}

// NewValidationError 生成前的输入校验失败
func NewValidationError(message string) *AppError {
	return New(CodeValidationFailed, message)
}

// NewGenerationError 生成流失败
// message 为空时使用通用提示语
func NewGenerationError(err error, message string, retryable bool) *AppError {
	if message == "" {
		message = MsgGenerationFailed
	}
	e := Wrap(err, CodeGenerationFailed, message)
	e.Retryable = retryable
	return e
}

// codeToHTTPStatus 错误码转 HTTP 状态码
func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case CodeSuccess:
		return http.StatusOK
	case CodeInvalidParam, CodeValidationFailed:
		return http.StatusBadRequest
	case CodeNotFound, CodeSessionNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeSessionBusy:
		return http.StatusConflict
	case CodeUploadTooLarge:
		return http.StatusRequestEntityTooLarge
	case CodeExtractionFailed:
		return http.StatusUnprocessableEntity
	case CodeTooManyRequests:
		return http.StatusTooManyRequests
	case CodeServiceUnavailable:
		return http.StatusServiceUnavailable
	case CodeGenerationFailed, CodeLLMProviderError:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// 预定义错误（仅用于 errors.Is 比较，不要修改其字段）
var (
	ErrInvalidParam    = New(CodeInvalidParam, "invalid parameter")
	ErrNotFound        = New(CodeNotFound, "resource not found")
	ErrInternalError   = New(CodeInternalError, "internal server error")
	ErrSessionNotFound = New(CodeSessionNotFound, "session not found")
	ErrSessionBusy     = New(CodeSessionBusy, MsgSessionBusy)
	ErrUploadTooLarge  = New(CodeUploadTooLarge, "uploaded file too large")

	ErrExtractionFailed = New(CodeExtractionFailed, MsgExtractionFailed)
	ErrValidationFailed = New(CodeValidationFailed, "validation failed")
	ErrGenerationFailed = New(CodeGenerationFailed, MsgGenerationFailed)
)

// IsAppError 检查错误链中是否有 AppError
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError 将错误转换为 AppError
func AsAppError(err error) *AppError {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr
	}
	return Wrap(err, CodeUnknown, "unknown error")
}

// HasCode 判断错误链中的 AppError 是否为指定错误码
func HasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	if !stderrors.As(err, &appErr) {
		return false
	}
	return appErr.Code == code
}
