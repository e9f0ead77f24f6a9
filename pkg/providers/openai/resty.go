package openai

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// restyClient 直接调用 chat/completions，保留原始响应体以便提取缓存 token
type restyClient struct {
	http *resty.Client
}

func newRestyClient(cfg Config, httpClient *http.Client) *restyClient {
	c := resty.NewWithClient(httpClient).
		SetBaseURL(cfg.BaseURL).
		SetAuthToken(cfg.APIKey).
		SetHeader("Content-Type", "application/json").
		SetHeaders(cfg.Headers)
	return &restyClient{http: c}
}

// completionBody 兼容 OpenAI / DeepSeek 等供应商的响应结构
type completionBody struct {
	Model   string `json:"model"`
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Usage *struct {
		PromptTokens        int `json:"prompt_tokens"`
		CompletionTokens    int `json:"completion_tokens"`
		TotalTokens         int `json:"total_tokens"`
		PromptTokensDetails *struct {
			CachedTokens int `json:"cached_tokens"`
		} `json:"prompt_tokens_details"`
		PromptCacheHitTokens int `json:"prompt_cache_hit_tokens"`
	} `json:"usage"`
}

func (c *restyClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	rr, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		Post("/chat/completions")
	if err != nil {
		return nil, Classify(err)
	}
	if rr.IsError() || rr.StatusCode() < 200 || rr.StatusCode() >= 300 {
		return nil, Classify(NewStatusError(rr.StatusCode(), rr.Body()))
	}

	return parseCompletion(rr.Body())
}

// parseCompletion 解析 chat/completions 成功响应
func parseCompletion(body []byte) (*ChatResponse, error) {
	var parsed completionBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, translation.NewResponseParseError(
			"无法解析AI响应格式: "+truncate(string(body), maxBodyInMessage), err)
	}
	if len(parsed.Choices) == 0 {
		return nil, translation.NewResponseParseError("AI响应中没有 choices", nil)
	}

	resp := &ChatResponse{
		Content: parsed.Choices[0].Message.Content,
		Model:   parsed.Model,
	}
	if u := parsed.Usage; u != nil {
		resp.Usage = Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
			CacheReadTokens:  u.PromptCacheHitTokens,
		}
		if u.PromptTokensDetails != nil && u.PromptTokensDetails.CachedTokens > 0 {
			resp.Usage.CacheReadTokens = u.PromptTokensDetails.CachedTokens
		}
	}
	return resp, nil
}
