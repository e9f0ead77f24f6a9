package stats

import (
	"context"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// StatisticsMiddleware 包装 ChatClient，每次请求（包括重试）都记录一条结果
type StatisticsMiddleware struct {
	next         openai.ChatClient
	statsManager *StatsManager
	providerName string
	modelName    string
}

// NewStatisticsMiddleware 创建统计中间件，modelName 在请求未指定模型时使用
func NewStatisticsMiddleware(next openai.ChatClient, statsManager *StatsManager, providerName, modelName string) *StatisticsMiddleware {
	return &StatisticsMiddleware{
		next:         next,
		statsManager: statsManager,
		providerName: providerName,
		modelName:    modelName,
	}
}

// Chat 带统计的请求
func (sm *StatisticsMiddleware) Chat(ctx context.Context, req openai.ChatRequest) (*openai.ChatResponse, error) {
	startTime := time.Now()
	resp, err := sm.next.Chat(ctx, req)

	result := RequestResult{
		Success: err == nil,
		Latency: time.Since(startTime),
	}
	if err != nil {
		result.ErrorCode = translation.CodeOf(err)
	} else if resp != nil {
		result.TokensIn = resp.Usage.PromptTokens
		result.TokensOut = resp.Usage.CompletionTokens
	}

	model := req.Model
	if model == "" {
		model = sm.modelName
	}
	sm.statsManager.RecordRequest(sm.providerName, model, result)

	return resp, err
}
