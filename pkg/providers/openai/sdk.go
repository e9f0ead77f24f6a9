package openai

import (
	"context"
	"net/http"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// sdkClient 基于官方 openai-go SDK，SDK 自带重试被关闭，由调用方统一重试
type sdkClient struct {
	client oai.Client
}

func newSDKClient(cfg Config, httpClient *http.Client) *sdkClient {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithBaseURL(strings.TrimRight(cfg.BaseURL, "/") + "/"),
		option.WithHTTPClient(httpClient),
		option.WithMaxRetries(0),
	}
	for k, v := range cfg.Headers {
		opts = append(opts, option.WithHeader(k, v))
	}
	return &sdkClient{client: oai.NewClient(opts...)}
}

func (c *sdkClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	messages := make([]oai.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case RoleSystem:
			messages = append(messages, oai.SystemMessage(msg.Content))
		case RoleAssistant:
			messages = append(messages, oai.AssistantMessage(msg.Content))
		default:
			messages = append(messages, oai.UserMessage(msg.Content))
		}
	}

	completion, err := c.client.Chat.Completions.New(ctx, oai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       oai.ChatModel(req.Model),
		Temperature: oai.Float(req.Temperature),
	})
	if err != nil {
		return nil, Classify(err)
	}
	if len(completion.Choices) == 0 {
		return nil, translation.NewResponseParseError("AI响应中没有 choices", nil)
	}

	return &ChatResponse{
		Content: completion.Choices[0].Message.Content,
		Model:   completion.Model,
		Usage: Usage{
			PromptTokens:     int(completion.Usage.PromptTokens),
			CompletionTokens: int(completion.Usage.CompletionTokens),
			TotalTokens:      int(completion.Usage.TotalTokens),
			CacheReadTokens:  int(completion.Usage.PromptTokensDetails.CachedTokens),
		},
	}, nil
}
