// Package openai 封装 OpenAI 兼容的 chat/completions 接口
//
// 提供三种可互换的实现：resty 直连（默认）、sashabaranov/go-openai、官方 openai-go SDK。
// 所有实现都返回统一的 ChatResponse，错误统一映射到 translation 错误分类。
package openai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// Message 聊天消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// 消息角色
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatRequest 聊天请求
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// Usage token 用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
	CacheReadTokens  int `json:"cache_read_tokens"`
	CacheWriteTokens int `json:"cache_write_tokens"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Content string `json:"content"`
	Model   string `json:"model,omitempty"`
	Usage   Usage  `json:"usage"`
}

// ChatClient 聊天接口，一次调用只发送一次请求，不做重试
type ChatClient interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}

// Transport 选择底层实现
type Transport string

const (
	TransportResty    Transport = "resty"
	TransportGoOpenAI Transport = "go-openai"
	TransportSDK      Transport = "openai-sdk"
)

// Config 客户端配置
type Config struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	ProxyURL  string
	Headers   map[string]string
	Transport Transport
}

// DefaultTimeout 单次请求超时
const DefaultTimeout = 120 * time.Second

// New 按 Transport 创建客户端
func New(cfg Config) (ChatClient, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, translation.NewConfigError("未配置 API 地址", nil)
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	httpClient, err := NewHTTPClient(cfg.Timeout, cfg.ProxyURL)
	if err != nil {
		return nil, err
	}

	switch cfg.Transport {
	case "", TransportResty:
		return newRestyClient(cfg, httpClient), nil
	case TransportGoOpenAI:
		return newGoOpenAIClient(cfg, httpClient), nil
	case TransportSDK:
		return newSDKClient(cfg, httpClient), nil
	default:
		return nil, translation.NewConfigError(fmt.Sprintf("未知的传输实现: %s", cfg.Transport), nil)
	}
}

// Transports 返回支持的传输实现
func Transports() []Transport {
	return []Transport{TransportResty, TransportGoOpenAI, TransportSDK}
}
