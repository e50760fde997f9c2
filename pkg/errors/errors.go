package errors

import (
	"errors"
	"fmt"
)

// ErrorCode 错误码类型
type ErrorCode string

const (
	CodeInvalidInput       ErrorCode = "INVALID_INPUT"
	CodeChatNotFound       ErrorCode = "CHAT_NOT_FOUND"
	CodeChatIdentNotFound  ErrorCode = "CHAT_IDENTIFIER_NOT_FOUND"
	CodeMessageNotFound    ErrorCode = "MESSAGE_NOT_FOUND"
	CodeAttachmentCopyFail ErrorCode = "ATTACHMENT_COPY_FAILED"
	CodeInternal           ErrorCode = "INTERNAL_ERROR"
)

// AppError 应用错误
type AppError struct {
	Code    ErrorCode
	Message string
	Err     error
}

// Error 实现 error 接口
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 实现 errors.Unwrap
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewInvalidInputError 创建无效输入错误
func NewInvalidInputError(message string) *AppError {
	return &AppError{
		Code:    CodeInvalidInput,
		Message: message,
	}
}

// NewChatNotFoundError reports that no chat exists for a numeric row id.
func NewChatNotFoundError(chatID int64) *AppError {
	return &AppError{
		Code:    CodeChatNotFound,
		Message: fmt.Sprintf("no chat with rowid %d", chatID),
	}
}

// NewChatIdentNotFoundError reports that no chat exists for an identifier string.
// Kept distinct from NewChatNotFoundError so callers can tell which lookup failed.
func NewChatIdentNotFoundError(identifier string) *AppError {
	return &AppError{
		Code:    CodeChatIdentNotFound,
		Message: fmt.Sprintf("no chat with identifier %q", identifier),
	}
}

// NewInternalError 创建内部错误
func NewInternalError(message string) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
	}
}

// NewInternalErrorWithCause 创建带原因的内部错误
func NewInternalErrorWithCause(message string, cause error) *AppError {
	return &AppError{
		Code:    CodeInternal,
		Message: message,
		Err:     cause,
	}
}

// IsChatNotFound 判断是否为会话未找到错误
func IsChatNotFound(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeChatNotFound || appErr.Code == CodeChatIdentNotFound
	}
	return false
}

// IsInvalidInput 判断是否为无效输入错误
func IsInvalidInput(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code == CodeInvalidInput
	}
	return false
}
