package stats

import (
	"time"
)

// 翻译任务状态
const (
	StatusCompleted = "completed"
	StatusFailed    = "failed"
	StatusCancelled = "cancelled"
	StatusDryRun    = "dry-run"
)

// CallRow 用量账本中的一次 AI 调用
type CallRow struct {
	ID               int64
	Provider         string
	Model            string
	PromptTokens     int
	CompletionTokens int
	CacheReadTokens  int
	CacheWriteTokens int
	Cost             float64
	Duration         time.Duration
	CreatedAt        time.Time
}

// RunRecord 一次 translate 命令的结果
type RunRecord struct {
	ID       int64
	RunID    string
	File     string
	Language string
	Provider string
	Model    string

	// 批次统计
	Total        int
	TMHits       int
	Deduplicated int
	AITranslated int
	TMLearned    int

	// Token 统计
	InputTokens     int
	OutputTokens    int
	CacheReadTokens int
	Cost            float64

	Duration     time.Duration
	Status       string
	ErrorMessage string
	CreatedAt    time.Time
}

// ModelSummary 按供应商和模型汇总的用量
type ModelSummary struct {
	Provider         string
	Model            string
	Calls            int64
	PromptTokens     int64
	CompletionTokens int64
	CacheReadTokens  int64
	Cost             float64
	TotalDuration    time.Duration
	LastUsed         time.Time
}

// AverageLatency 平均每次调用耗时
func (s ModelSummary) AverageLatency() time.Duration {
	if s.Calls == 0 {
		return 0
	}
	return s.TotalDuration / time.Duration(s.Calls)
}

// DailyUsage 某一天（UTC）的用量
type DailyUsage struct {
	Day              string // 2006-01-02
	Calls            int64
	PromptTokens     int64
	CompletionTokens int64
	Cost             float64
}

// Overview 账本总览
type Overview struct {
	TotalCalls       int64
	TotalRuns        int64
	FailedRuns       int64
	PromptTokens     int64
	CompletionTokens int64
	CacheReadTokens  int64
	TotalCost        float64
	TotalTexts       int64
	TMHits           int64
	AITranslated     int64
	FirstCall        time.Time
	LastCall         time.Time
}

// TMHitRate 所有任务的记忆库命中率
func (o Overview) TMHitRate() float64 {
	if o.TotalTexts == 0 {
		return 0
	}
	return float64(o.TMHits) / float64(o.TotalTexts)
}
