package openai

import (
	"context"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// goOpenAIClient 基于 sashabaranov/go-openai
type goOpenAIClient struct {
	client *goopenai.Client
}

func newGoOpenAIClient(cfg Config, httpClient *http.Client) *goOpenAIClient {
	if len(cfg.Headers) > 0 {
		httpClient.Transport = &headerTransport{base: httpClient.Transport, headers: cfg.Headers}
	}

	config := goopenai.DefaultConfig(cfg.APIKey)
	config.BaseURL = cfg.BaseURL
	config.HTTPClient = httpClient
	return &goOpenAIClient{client: goopenai.NewClientWithConfig(config)}
}

func (c *goOpenAIClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]goopenai.ChatCompletionMessage, len(req.Messages))
	for i, msg := range req.Messages {
		messages[i] = goopenai.ChatCompletionMessage{Role: msg.Role, Content: msg.Content}
	}

	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
	})
	if err != nil {
		return nil, Classify(err)
	}
	if len(resp.Choices) == 0 {
		return nil, translation.NewResponseParseError("AI响应中没有 choices", nil)
	}

	return &ChatResponse{
		Content: resp.Choices[0].Message.Content,
		Model:   resp.Model,
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}, nil
}

// headerTransport 为每个请求附加固定头部
type headerTransport struct {
	base    http.RoundTripper
	headers map[string]string
}

func (t *headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	for k, v := range t.headers {
		req.Header.Set(k, v)
	}
	base := t.base
	if base == nil {
		base = http.DefaultTransport
	}
	return base.RoundTrip(req)
}
