package test

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

// ChatMessage 捕获到的请求消息
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CapturedRequest 记录一次 chat/completions 请求
type CapturedRequest struct {
	Path          string
	Authorization string
	Model         string        `json:"model"`
	Messages      []ChatMessage `json:"messages"`
	Temperature   float64       `json:"temperature"`
}

// UserPrompt 返回最后一条 user 消息
func (r CapturedRequest) UserPrompt() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Reply 一次脚本化响应
type Reply struct {
	Status  int            // 默认 200
	Content string         // 成功时的 choices[0].message.content
	RawBody string         // 非空时原样返回
	Usage   map[string]any // 默认 100/50/150
	Delay   time.Duration
}

// MockChatServer 模拟 OpenAI 兼容的 chat/completions 接口
//
// 先按顺序消费脚本化响应，脚本用完后调用 Responder；两者都没有时返回默认内容。
type MockChatServer struct {
	Server *httptest.Server
	URL    string

	mu        sync.Mutex
	replies   []Reply
	responder func(req CapturedRequest) Reply
	requests  []CapturedRequest
}

// NewMockChatServer 创建模拟服务器，测试结束时自动关闭
func NewMockChatServer(t *testing.T) *MockChatServer {
	t.Helper()
	mock := &MockChatServer{}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var captured CapturedRequest
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error": {"message": "无法解析请求体", "type": "invalid_request_error"}}`))
			return
		}
		captured.Path = r.URL.Path
		captured.Authorization = r.Header.Get("Authorization")

		reply := mock.next(captured)
		if reply.Delay > 0 {
			select {
			case <-time.After(reply.Delay):
			case <-r.Context().Done():
				return
			}
		}

		status := reply.Status
		if status == 0 {
			status = http.StatusOK
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)

		if reply.RawBody != "" {
			_, _ = w.Write([]byte(reply.RawBody))
			return
		}
		if status != http.StatusOK {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"error": map[string]any{"message": reply.Content, "type": "mock_error"},
			})
			return
		}

		usage := reply.Usage
		if usage == nil {
			usage = map[string]any{
				"prompt_tokens":     100,
				"completion_tokens": 50,
				"total_tokens":      150,
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"id":      "chatcmpl-mock",
			"object":  "chat.completion",
			"created": time.Now().Unix(),
			"model":   captured.Model,
			"choices": []map[string]any{
				{
					"index":         0,
					"message":       map[string]any{"role": "assistant", "content": reply.Content},
					"finish_reason": "stop",
				},
			},
			"usage": usage,
		})
	}))

	mock.Server = server
	mock.URL = server.URL
	t.Cleanup(server.Close)
	return mock
}

func (m *MockChatServer) next(req CapturedRequest) Reply {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	if len(m.replies) > 0 {
		reply := m.replies[0]
		m.replies = m.replies[1:]
		m.mu.Unlock()
		return reply
	}
	responder := m.responder
	m.mu.Unlock()

	if responder != nil {
		return responder(req)
	}
	return Reply{Content: "这是翻译后的文本"}
}

// Enqueue 追加脚本化响应
func (m *MockChatServer) Enqueue(replies ...Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies = append(m.replies, replies...)
}

// SetResponder 设置脚本用完后的响应函数
func (m *MockChatServer) SetResponder(fn func(req CapturedRequest) Reply) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responder = fn
}

// Requests 返回已捕获的请求
func (m *MockChatServer) Requests() []CapturedRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CapturedRequest(nil), m.requests...)
}

// RequestCount 已收到的请求数
func (m *MockChatServer) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

// NumberedReply 生成 "1. xxx" 形式的多行译文
func NumberedReply(lines ...string) string {
	var sb strings.Builder
	for i, line := range lines {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, line)
	}
	return sb.String()
}

// EchoResponder 把用户提示中的每个编号条目加上前缀后原样返回
func EchoResponder(prefix string) func(req CapturedRequest) Reply {
	return func(req CapturedRequest) Reply {
		var out []string
		for _, line := range strings.Split(req.UserPrompt(), "\n") {
			dot := strings.Index(line, ". ")
			if dot <= 0 || strings.Trim(line[:dot], "0123456789") != "" {
				continue
			}
			out = append(out, prefix+line[dot+2:])
		}
		return Reply{Content: NumberedReply(out...)}
	}
}
