// Package translation 定义批量翻译引擎共用的错误分类
package translation

import (
	"context"
	"errors"
	"fmt"
)

// 错误代码常量
const (
	ErrCodeNetwork          = "NETWORK_ERROR"
	ErrCodeResponseParse    = "RESPONSE_PARSE_ERROR"
	ErrCodeCountMismatch    = "COUNT_MISMATCH"
	ErrCodeAuth             = "AUTH_ERROR"
	ErrCodeQuota            = "QUOTA_ERROR"
	ErrCodeRateLimit        = "RATE_LIMIT_ERROR"
	ErrCodeServer           = "SERVER_ERROR"
	ErrCodeAPI              = "API_ERROR"
	ErrCodeConfig           = "CONFIG_ERROR"
	ErrCodeCachePersistence = "CACHE_PERSISTENCE_ERROR"
	ErrCodeCancelled        = "CANCELLED"
	ErrCodeUnknown          = "UNKNOWN_ERROR"
)

// Error 翻译错误
type Error struct {
	Code    string // 错误代码
	Message string // 错误消息
	Cause   error  // 原因
	Retry   bool   // 是否可重试
}

// Error 实现error接口
func (e *Error) Error() string {
	if e.Cause != nil && e.Message == "" {
		return fmt.Sprintf("[%s] %v", e.Code, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap 返回原因错误
func (e *Error) Unwrap() error {
	return e.Cause
}

// IsRetryable 是否可重试
func (e *Error) IsRetryable() bool {
	return e.Retry
}

func newError(code, message string, cause error, retry bool) *Error {
	return &Error{Code: code, Message: message, Cause: cause, Retry: retry}
}

// NewNetworkError 连接失败或超时，可重试
func NewNetworkError(message string, cause error) *Error {
	return newError(ErrCodeNetwork, message, cause, true)
}

// NewResponseParseError 响应体无法解析，可重试
func NewResponseParseError(message string, cause error) *Error {
	return newError(ErrCodeResponseParse, message, cause, true)
}

// NewCountMismatchError 译文条数与请求条数不一致
func NewCountMismatchError(expected, actual int) *Error {
	return newError(ErrCodeCountMismatch,
		fmt.Sprintf("翻译数量不匹配！请求 %d 条，实际返回 %d 条", expected, actual), nil, false)
}

// NewAuthError 认证失败 (401/403)
func NewAuthError(message string) *Error {
	return newError(ErrCodeAuth, message, nil, false)
}

// NewQuotaError 账户余额不足
func NewQuotaError(message string) *Error {
	return newError(ErrCodeQuota, message, nil, false)
}

// NewRateLimitError 请求频率超限
func NewRateLimitError(message string) *Error {
	return newError(ErrCodeRateLimit, message, nil, false)
}

// NewServerError 服务端 5xx
func NewServerError(message string) *Error {
	return newError(ErrCodeServer, message, nil, false)
}

// NewAPIError 其他非 2xx 响应
func NewAPIError(message string) *Error {
	return newError(ErrCodeAPI, message, nil, false)
}

// NewConfigError 配置错误，例如模型没有定价信息
func NewConfigError(message string, cause error) *Error {
	return newError(ErrCodeConfig, message, cause, false)
}

// NewCachePersistenceError 翻译记忆库读写失败
func NewCachePersistenceError(message string, cause error) *Error {
	return newError(ErrCodeCachePersistence, message, cause, false)
}

// NewCancelledError 任务被取消
func NewCancelledError(cause error) *Error {
	return newError(ErrCodeCancelled, "翻译任务已取消", cause, false)
}

// WrapError 在保留错误代码的前提下追加上下文
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	var te *Error
	if errors.As(err, &te) {
		return &Error{
			Code:    te.Code,
			Message: message + ": " + te.Message,
			Cause:   err,
			Retry:   te.Retry,
		}
	}
	return &Error{Code: ErrCodeUnknown, Message: message + ": " + err.Error(), Cause: err}
}

// CodeOf 返回错误链中的第一个错误代码
func CodeOf(err error) string {
	if err == nil {
		return ""
	}
	var te *Error
	if errors.As(err, &te) {
		return te.Code
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ErrCodeCancelled
	}
	return ErrCodeUnknown
}

// Is 判断错误代码
func Is(err error, code string) bool {
	return CodeOf(err) == code
}

// IsRetryable 只有网络错误和响应解析错误会被重试
func IsRetryable(err error) bool {
	var te *Error
	if errors.As(err, &te) {
		return te.Retry
	}
	return false
}
