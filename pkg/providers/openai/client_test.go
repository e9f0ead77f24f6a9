package openai_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nerdneilsfield/go-po-translator/internal/test"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

func newClient(t *testing.T, transport openai.Transport, baseURL string) openai.ChatClient {
	t.Helper()
	client, err := openai.New(openai.Config{
		APIKey:    "test-api-key",
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
		Transport: transport,
	})
	require.NoError(t, err)
	return client
}

func sampleRequest() openai.ChatRequest {
	return openai.ChatRequest{
		Model: "gpt-4o-mini",
		Messages: []openai.Message{
			{Role: openai.RoleSystem, Content: "你是翻译"},
			{Role: openai.RoleUser, Content: "翻译为简体中文（每行一条，带序号）:\n1. Hello\n"},
		},
		Temperature: 1.0,
	}
}

func TestChatAllTransports(t *testing.T) {
	for _, transport := range openai.Transports() {
		t.Run(string(transport), func(t *testing.T) {
			server := test.NewMockChatServer(t)
			server.Enqueue(test.Reply{Content: "1. 你好"})

			resp, err := newClient(t, transport, server.URL+"/v1").Chat(context.Background(), sampleRequest())
			require.NoError(t, err)

			assert.Equal(t, "1. 你好", resp.Content)
			assert.Equal(t, 100, resp.Usage.PromptTokens)
			assert.Equal(t, 50, resp.Usage.CompletionTokens)
			assert.Equal(t, 150, resp.Usage.TotalTokens)

			reqs := server.Requests()
			require.Len(t, reqs, 1)
			assert.Equal(t, "/v1/chat/completions", reqs[0].Path)
			assert.Equal(t, "Bearer test-api-key", reqs[0].Authorization)
			assert.Equal(t, "gpt-4o-mini", reqs[0].Model)
			assert.Equal(t, 1.0, reqs[0].Temperature)
			require.Len(t, reqs[0].Messages, 2)
			assert.Equal(t, "system", reqs[0].Messages[0].Role)
			assert.Equal(t, "user", reqs[0].Messages[1].Role)
		})
	}
}

func TestChatStatusErrors(t *testing.T) {
	testCases := []struct {
		name    string
		status  int
		message string
		code    string
		prefix  string
	}{
		{"401", http.StatusUnauthorized, "bad key", translation.ErrCodeAuth, "API Key无效或已过期: bad key"},
		{"403", http.StatusForbidden, "denied", translation.ErrCodeAuth, "API访问被拒绝: denied"},
		{"429余额", http.StatusTooManyRequests, "余额不足或无可用资源包", translation.ErrCodeQuota, "账户余额不足: "},
		{"429频率", http.StatusTooManyRequests, "rate limit reached", translation.ErrCodeRateLimit, "API请求频率超限: rate limit reached"},
		{"503", http.StatusServiceUnavailable, "overloaded", translation.ErrCodeServer, "AI服务器错误: overloaded"},
		{"400", http.StatusBadRequest, "bad model", translation.ErrCodeAPI, "API请求失败(400): bad model"},
	}

	for _, transport := range openai.Transports() {
		for _, tc := range testCases {
			t.Run(string(transport)+"/"+tc.name, func(t *testing.T) {
				server := test.NewMockChatServer(t)
				server.Enqueue(test.Reply{Status: tc.status, Content: tc.message})

				_, err := newClient(t, transport, server.URL).Chat(context.Background(), sampleRequest())
				require.Error(t, err)
				assert.Equal(t, tc.code, translation.CodeOf(err))
				assert.False(t, translation.IsRetryable(err))
				assert.Contains(t, err.Error(), tc.prefix)
				assert.Equal(t, 1, server.RequestCount())
			})
		}
	}
}

func TestChatCacheTokens(t *testing.T) {
	server := test.NewMockChatServer(t)
	server.Enqueue(
		test.Reply{Content: "1. a", Usage: map[string]any{
			"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500,
			"prompt_tokens_details": map[string]any{"cached_tokens": 300},
		}},
		test.Reply{Content: "1. b", Usage: map[string]any{
			"prompt_tokens": 1000, "completion_tokens": 500, "total_tokens": 1500,
			"prompt_cache_hit_tokens": 200,
		}},
	)

	client := newClient(t, openai.TransportResty, server.URL)
	resp, err := client.Chat(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 300, resp.Usage.CacheReadTokens)

	resp, err = client.Chat(context.Background(), sampleRequest())
	require.NoError(t, err)
	assert.Equal(t, 200, resp.Usage.CacheReadTokens)
}

func TestChatMalformedBody(t *testing.T) {
	for _, transport := range openai.Transports() {
		t.Run(string(transport), func(t *testing.T) {
			server := test.NewMockChatServer(t)
			server.Enqueue(test.Reply{RawBody: "{not json"})

			_, err := newClient(t, transport, server.URL).Chat(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.True(t, translation.IsRetryable(err))
		})
	}

	server := test.NewMockChatServer(t)
	server.Enqueue(test.Reply{RawBody: `{"choices": []}`}, test.Reply{RawBody: "<html>oops"})
	client := newClient(t, openai.TransportResty, server.URL)
	for i := 0; i < 2; i++ {
		_, err := client.Chat(context.Background(), sampleRequest())
		assert.Equal(t, translation.ErrCodeResponseParse, translation.CodeOf(err))
	}
}

func TestChatNetworkErrors(t *testing.T) {
	for _, transport := range openai.Transports() {
		t.Run(string(transport)+"/refused", func(t *testing.T) {
			server := test.NewMockChatServer(t)
			url := server.URL
			server.Server.Close()

			_, err := newClient(t, transport, url).Chat(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.Equal(t, translation.ErrCodeNetwork, translation.CodeOf(err))
		})

		t.Run(string(transport)+"/timeout", func(t *testing.T) {
			server := test.NewMockChatServer(t)
			server.Enqueue(test.Reply{Content: "1. late", Delay: time.Second})

			client, err := openai.New(openai.Config{
				BaseURL:   server.URL,
				Timeout:   50 * time.Millisecond,
				Transport: transport,
			})
			require.NoError(t, err)

			_, err = client.Chat(context.Background(), sampleRequest())
			require.Error(t, err)
			assert.Equal(t, translation.ErrCodeNetwork, translation.CodeOf(err))
		})
	}
}

func TestChatCancelled(t *testing.T) {
	server := test.NewMockChatServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newClient(t, openai.TransportResty, server.URL).Chat(ctx, sampleRequest())
	require.Error(t, err)
	assert.Equal(t, translation.ErrCodeCancelled, translation.CodeOf(err))
}

func TestNewValidation(t *testing.T) {
	_, err := openai.New(openai.Config{})
	assert.Equal(t, translation.ErrCodeConfig, translation.CodeOf(err))

	_, err = openai.New(openai.Config{BaseURL: "http://x", Transport: "grpc"})
	assert.Equal(t, translation.ErrCodeConfig, translation.CodeOf(err))
}

func TestStatusErrorMessage(t *testing.T) {
	testCases := []struct {
		body     string
		expected string
	}{
		{`{"error": {"message": "nested"}}`, "nested"},
		{`{"message": "flat"}`, "flat"},
		{`{"error": "plain"}`, "plain"},
		{`{"detail": 1}`, "API请求失败"},
		{"gateway exploded", "gateway exploded"},
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.expected, openai.NewStatusError(502, []byte(tc.body)).Message)
	}
}
