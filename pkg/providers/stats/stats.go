// Package stats 统计供应商请求的成功率、延迟和错误类型
package stats

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ProviderStats 一个供应商/模型的请求统计
type ProviderStats struct {
	Provider           string           `json:"provider"`
	Model              string           `json:"model"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	TokensIn           int64            `json:"tokens_in"`
	TokensOut          int64            `json:"tokens_out"`
	TotalLatency       time.Duration    `json:"total_latency"`
	MinLatency         time.Duration    `json:"min_latency"`
	MaxLatency         time.Duration    `json:"max_latency"`
	ErrorCodes         map[string]int64 `json:"error_codes"` // 按错误代码统计
	FirstRequest       time.Time        `json:"first_request"`
	LastRequest        time.Time        `json:"last_request"`
}

// AverageLatency 平均延迟
func (s ProviderStats) AverageLatency() time.Duration {
	if s.TotalRequests == 0 {
		return 0
	}
	return s.TotalLatency / time.Duration(s.TotalRequests)
}

// SuccessRate 成功率 (0~1)
func (s ProviderStats) SuccessRate() float64 {
	if s.TotalRequests == 0 {
		return 0
	}
	return float64(s.SuccessfulRequests) / float64(s.TotalRequests)
}

func (s *ProviderStats) clone() ProviderStats {
	c := *s
	c.ErrorCodes = make(map[string]int64, len(s.ErrorCodes))
	for code, n := range s.ErrorCodes {
		c.ErrorCodes[code] = n
	}
	return c
}

// RequestResult 单次请求结果
type RequestResult struct {
	Success   bool
	Latency   time.Duration
	TokensIn  int
	TokensOut int
	ErrorCode string
}

// StatsManager 并发安全的统计汇总
type StatsManager struct {
	mu     sync.Mutex
	stats  map[string]*ProviderStats
	logger *zap.Logger
	now    func() time.Time
}

// NewStatsManager 创建统计管理器
func NewStatsManager(logger *zap.Logger) *StatsManager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StatsManager{
		stats:  make(map[string]*ProviderStats),
		logger: logger,
		now:    time.Now,
	}
}

func getKey(provider, model string) string {
	return provider + "/" + model
}

// RecordRequest 记录一次请求
func (sm *StatsManager) RecordRequest(provider, model string, result RequestResult) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	key := getKey(provider, model)
	s, ok := sm.stats[key]
	if !ok {
		s = &ProviderStats{
			Provider:     provider,
			Model:        model,
			ErrorCodes:   make(map[string]int64),
			FirstRequest: sm.now(),
		}
		sm.stats[key] = s
	}

	s.TotalRequests++
	s.LastRequest = sm.now()
	s.TotalLatency += result.Latency
	if s.MinLatency == 0 || result.Latency < s.MinLatency {
		s.MinLatency = result.Latency
	}
	if result.Latency > s.MaxLatency {
		s.MaxLatency = result.Latency
	}

	if result.Success {
		s.SuccessfulRequests++
		s.TokensIn += int64(result.TokensIn)
		s.TokensOut += int64(result.TokensOut)
		return
	}

	s.FailedRequests++
	s.ErrorCodes[result.ErrorCode]++
	sm.logger.Debug("请求失败",
		zap.String("provider", provider),
		zap.String("model", model),
		zap.String("code", result.ErrorCode),
		zap.Duration("latency", result.Latency))
}

// GetStats 返回统计副本
func (sm *StatsManager) GetStats(provider, model string) (ProviderStats, bool) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	s, ok := sm.stats[getKey(provider, model)]
	if !ok {
		return ProviderStats{}, false
	}
	return s.clone(), true
}

// GetAllStats 按供应商、模型排序返回所有统计
func (sm *StatsManager) GetAllStats() []ProviderStats {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	result := make([]ProviderStats, 0, len(sm.stats))
	for _, s := range sm.stats {
		result = append(result, s.clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Provider != result[j].Provider {
			return result[i].Provider < result[j].Provider
		}
		return result[i].Model < result[j].Model
	})
	return result
}
