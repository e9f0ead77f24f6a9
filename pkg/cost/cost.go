// Package cost 根据模型价格把 token 用量换算成费用
package cost

import (
	"fmt"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// perMillion 价格单位：每百万 token
const perMillion = 1_000_000.0

// charsPerToken 预估时使用的字符/token 比例
const charsPerToken = 4

// Pricing 模型价格 (USD / 1M tokens)，缓存价格为空时按输入价格计费
type Pricing struct {
	Input      float64
	Output     float64
	CacheRead  *float64
	CacheWrite *float64
}

// Price 返回指向 v 的指针，方便构造可选价格
func Price(v float64) *float64 {
	return &v
}

func (p Pricing) cacheReadPrice() float64 {
	if p.CacheRead != nil {
		return *p.CacheRead
	}
	return p.Input
}

func (p Pricing) cacheWritePrice() float64 {
	if p.CacheWrite != nil {
		return *p.CacheWrite
	}
	return p.Input
}

// Usage 一次调用的 token 用量
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	CacheWriteTokens int
	CacheReadTokens  int
}

// Breakdown 单次调用的费用明细
type Breakdown struct {
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	CacheWriteTokens int     `json:"cache_write_tokens"`
	CacheReadTokens  int     `json:"cache_read_tokens"`
	UncachedTokens   int     `json:"uncached_tokens"`
	InputCost        float64 `json:"input_cost"`
	OutputCost       float64 `json:"output_cost"`
	CacheWriteCost   float64 `json:"cache_write_cost"`
	CacheReadCost    float64 `json:"cache_read_cost"`
	TotalCost        float64 `json:"total_cost"`
	CacheSavings     float64 `json:"cache_savings"`
	CacheHitRate     float64 `json:"cache_hit_rate"` // 百分比
}

// Calculate 计算费用明细
func Calculate(p Pricing, promptTokens, completionTokens, cacheWriteTokens, cacheReadTokens int) Breakdown {
	uncached := promptTokens - cacheWriteTokens - cacheReadTokens
	if uncached < 0 {
		uncached = 0
	}

	b := Breakdown{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		CacheWriteTokens: cacheWriteTokens,
		CacheReadTokens:  cacheReadTokens,
		UncachedTokens:   uncached,
		InputCost:        float64(uncached) * p.Input / perMillion,
		OutputCost:       float64(completionTokens) * p.Output / perMillion,
		CacheWriteCost:   float64(cacheWriteTokens) * p.cacheWritePrice() / perMillion,
		CacheReadCost:    float64(cacheReadTokens) * p.cacheReadPrice() / perMillion,
		CacheSavings:     float64(cacheReadTokens) * (p.Input - p.cacheReadPrice()) / perMillion,
	}
	b.TotalCost = b.InputCost + b.OutputCost + b.CacheWriteCost + b.CacheReadCost
	if promptTokens > 0 {
		b.CacheHitRate = float64(cacheReadTokens) / float64(promptTokens) * 100
	}
	return b
}

// CalculateUsage 是 Calculate 的 Usage 版本
func CalculateUsage(p Pricing, u Usage) Breakdown {
	return Calculate(p, u.PromptTokens, u.CompletionTokens, u.CacheWriteTokens, u.CacheReadTokens)
}

// EstimateBatch 按字符数预估批量翻译费用
//
// 输入 token 约为字符数/4，输出 token 按与输入相同估算，
// cacheHitRatio (0~1) 部分按缓存读取价格计费。
func EstimateBatch(p Pricing, chars int, cacheHitRatio float64) Breakdown {
	if cacheHitRatio < 0 {
		cacheHitRatio = 0
	}
	if cacheHitRatio > 1 {
		cacheHitRatio = 1
	}
	inputTokens := chars / charsPerToken
	cacheRead := int(float64(inputTokens) * cacheHitRatio)
	return Calculate(p, inputTokens, inputTokens, 0, cacheRead)
}

// PricingSource 提供模型价格，未知模型返回错误
type PricingSource interface {
	Pricing(provider, model string) (Pricing, error)
}

// Calculator 绑定价格来源的费用计算器
type Calculator struct {
	source PricingSource
}

// NewCalculator 创建费用计算器
func NewCalculator(source PricingSource) *Calculator {
	return &Calculator{source: source}
}

// CalculateFor 按 (provider, model) 计算费用，找不到价格时返回 CONFIG_ERROR
func (c *Calculator) CalculateFor(provider, model string, u Usage) (Breakdown, error) {
	p, err := c.pricing(provider, model)
	if err != nil {
		return Breakdown{}, err
	}
	return CalculateUsage(p, u), nil
}

// EstimateFor 按 (provider, model) 预估费用
func (c *Calculator) EstimateFor(provider, model string, chars int, cacheHitRatio float64) (Breakdown, error) {
	p, err := c.pricing(provider, model)
	if err != nil {
		return Breakdown{}, err
	}
	return EstimateBatch(p, chars, cacheHitRatio), nil
}

func (c *Calculator) pricing(provider, model string) (Pricing, error) {
	if c == nil || c.source == nil {
		return Pricing{}, translation.NewConfigError("未配置模型价格来源", nil)
	}
	p, err := c.source.Pricing(provider, model)
	if err == nil {
		return p, nil
	}
	if translation.Is(err, translation.ErrCodeConfig) {
		return Pricing{}, err
	}
	return Pricing{}, translation.NewConfigError(
		fmt.Sprintf("模型信息不存在: %s/%s", provider, model), err)
}

// Format 格式化金额，小额保留更多小数位
func Format(cost float64) string {
	switch {
	case cost == 0:
		return "$0.00"
	case cost < 0.01:
		return fmt.Sprintf("$%.6f", cost)
	case cost < 1:
		return fmt.Sprintf("$%.4f", cost)
	default:
		return fmt.Sprintf("$%.2f", cost)
	}
}
