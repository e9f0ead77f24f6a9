// Package providers 维护 AI 供应商与模型的目录：内置目录 + TOML 插件
package providers

import (
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
)

// ModelInfo 模型信息，价格单位为 USD / 1M tokens
type ModelInfo struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ContextWindow   int      `json:"context_window"`
	MaxOutputTokens int      `json:"max_output_tokens"`
	InputPrice      float64  `json:"input_price"`
	OutputPrice     float64  `json:"output_price"`
	CacheReadPrice  *float64 `json:"cache_read_price,omitempty"`
	CacheWritePrice *float64 `json:"cache_write_price,omitempty"`
	SupportsCache   bool     `json:"supports_cache"`
	Recommended     bool     `json:"recommended"`
	Description     string   `json:"description,omitempty"`
}

// Pricing 转换为费用计算使用的价格
func (m ModelInfo) Pricing() cost.Pricing {
	return cost.Pricing{
		Input:      m.InputPrice,
		Output:     m.OutputPrice,
		CacheRead:  m.CacheReadPrice,
		CacheWrite: m.CacheWritePrice,
	}
}

// Descriptor 供应商描述，是值类型，注册后不再修改
type Descriptor struct {
	ID           string      `json:"id"`
	DisplayName  string      `json:"display_name"`
	DefaultURL   string      `json:"default_url"`
	DefaultModel string      `json:"default_model"`
	Models       []ModelInfo `json:"models"`
	// Source 描述来源: builtin 或插件的 id@version
	Source string `json:"source,omitempty"`
}

// Model 按 ID 查找模型
func (d Descriptor) Model(id string) (ModelInfo, bool) {
	for _, m := range d.Models {
		if m.ID == id {
			return m, true
		}
	}
	return ModelInfo{}, false
}

// RecommendedModels 返回推荐的模型
func (d Descriptor) RecommendedModels() []ModelInfo {
	var result []ModelInfo
	for _, m := range d.Models {
		if m.Recommended {
			result = append(result, m)
		}
	}
	return result
}

func (d Descriptor) clone() Descriptor {
	d.Models = append([]ModelInfo(nil), d.Models...)
	return d
}
