package translator

import (
	"context"
	"time"
)

// BatchStats 一次 Translate 调用的统计，每次调用开始时重置
//
// Total == TMHits + Deduplicated + AITranslated
type BatchStats struct {
	Total        int `json:"total"`
	TMHits       int `json:"tm_hits"`
	Deduplicated int `json:"deduplicated"`
	AITranslated int `json:"ai_translated"`
	TMLearned    int `json:"tm_learned"`
}

// TokenStats 引擎实例累计的 token 用量和费用，直到 ResetStats
type TokenStats struct {
	InputTokens     int     `json:"input_tokens"`
	OutputTokens    int     `json:"output_tokens"`
	TotalTokens     int     `json:"total_tokens"`
	CacheReadTokens int     `json:"cache_read_tokens"`
	Cost            float64 `json:"cost"`
}

// Source 译文来源
type Source string

const (
	SourceTM    Source = "tm"
	SourceAI    Source = "ai"
	SourceDedup Source = "dedup"
)

// ProgressFunc 按下标升序回调每条译文
type ProgressFunc func(index int, translated string)

// StatsFunc 统计回调：记忆库查询后、每个批次后和结束时各调用一次
type StatsFunc func(batch BatchStats, tokens TokenStats)

// CallRecord 一次成功的 AI 调用
type CallRecord struct {
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	CacheReadTokens  int
	CacheWriteTokens int
	Cost             float64
	Duration         time.Duration
	At               time.Time
}

// UsageRecorder 接收每次成功调用的用量，写入失败只记录日志
type UsageRecorder interface {
	RecordCall(ctx context.Context, record CallRecord) error
}
