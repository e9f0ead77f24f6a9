package openai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	goopenai "github.com/sashabaranov/go-openai"
	"github.com/tidwall/gjson"

	"github.com/nerdneilsfield/go-po-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// maxBodyInMessage 错误消息中保留的响应体长度
const maxBodyInMessage = 500

// StatusError 非 2xx 响应
type StatusError struct {
	StatusCode int
	Message    string
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// NewStatusError 从响应体中提取错误消息
//
// 依次尝试 error.message、message、error（字符串），都没有时使用截断后的响应体。
func NewStatusError(statusCode int, body []byte) *StatusError {
	return &StatusError{
		StatusCode: statusCode,
		Message:    extractMessage(body),
		Body:       string(body),
	}
}

func extractMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		for _, path := range []string{"error.message", "message", "error"} {
			v := gjson.GetBytes(body, path)
			if v.Type == gjson.String && v.String() != "" {
				return v.String()
			}
		}
		return "API请求失败"
	}
	return truncate(strings.TrimSpace(string(body)), maxBodyInMessage)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "...(已截断)"
}

// classifyStatus 按状态码生成错误
func classifyStatus(statusCode int, msg string) *translation.Error {
	switch {
	case statusCode == http.StatusUnauthorized:
		return translation.NewAuthError("API Key无效或已过期: " + msg)
	case statusCode == http.StatusForbidden:
		return translation.NewAuthError("API访问被拒绝: " + msg)
	case statusCode == http.StatusTooManyRequests:
		// 429 可能是频率超限，也可能是余额不足
		if strings.Contains(msg, "余额") || strings.Contains(msg, "资源包") {
			return translation.NewQuotaError("账户余额不足: " + msg)
		}
		return translation.NewRateLimitError("API请求频率超限: " + msg)
	case statusCode >= 500 && statusCode <= 599:
		return translation.NewServerError("AI服务器错误: " + msg)
	default:
		return translation.NewAPIError(fmt.Sprintf("API请求失败(%d): %s", statusCode, msg))
	}
}

// Classify 把任意实现返回的错误映射到统一错误分类
func Classify(err error) error {
	if err == nil {
		return nil
	}

	var te *translation.Error
	if errors.As(err, &te) {
		return err
	}

	if errors.Is(err, context.Canceled) {
		return translation.NewCancelledError(err)
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		e := classifyStatus(statusErr.StatusCode, statusErr.Message)
		e.Cause = err
		return e
	}

	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode > 0 {
		e := classifyStatus(apiErr.HTTPStatusCode, apiErr.Message)
		e.Cause = err
		return e
	}

	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode > 0 {
		msg := http.StatusText(reqErr.HTTPStatusCode)
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		e := classifyStatus(reqErr.HTTPStatusCode, msg)
		e.Cause = err
		return e
	}

	var sdkErr *oai.Error
	if errors.As(err, &sdkErr) && sdkErr.StatusCode > 0 {
		msg := sdkErr.Message
		if msg == "" && sdkErr.Response != nil && sdkErr.Response.Body != nil {
			// SDK 只解析顶层字段，{"error": {...}} 形式需要从响应体中提取
			if body, readErr := io.ReadAll(sdkErr.Response.Body); readErr == nil && len(body) > 0 {
				msg = extractMessage(body)
			}
		}
		if msg == "" {
			msg = http.StatusText(sdkErr.StatusCode)
		}
		e := classifyStatus(sdkErr.StatusCode, msg)
		e.Cause = err
		return e
	}

	if retry.IsNetworkError(err) {
		return translation.NewNetworkError("网络请求失败: "+err.Error(), err)
	}

	return translation.NewResponseParseError("无法解析AI响应: "+err.Error(), err)
}
