package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// Registry 供应商注册表
type Registry struct {
	mu        sync.RWMutex
	providers map[string]Descriptor
}

// NewRegistry 创建空注册表
func NewRegistry() *Registry {
	return &Registry{
		providers: make(map[string]Descriptor),
	}
}

// NewBuiltinRegistry 创建包含内置供应商的注册表
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, d := range Builtins() {
		// 内置目录 ID 唯一，不会冲突
		_ = r.Register(d)
	}
	return r
}

// Register 注册供应商
func (r *Registry) Register(d Descriptor) error {
	if d.ID == "" {
		return fmt.Errorf("provider id is empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[d.ID]; exists {
		return fmt.Errorf("provider %s already registered", d.ID)
	}

	r.providers[d.ID] = d.clone()
	return nil
}

// Get 获取供应商
func (r *Registry) Get(id string) (Descriptor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.providers[id]
	if !exists {
		return Descriptor{}, translation.NewConfigError(fmt.Sprintf("供应商不存在: %s", id), nil)
	}

	return d.clone(), nil
}

// List 按 ID 排序列出所有供应商
func (r *Registry) List() []Descriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]Descriptor, 0, len(r.providers))
	for _, d := range r.providers {
		result = append(result, d.clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })

	return result
}

// Remove 移除供应商
func (r *Registry) Remove(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.providers, id)
}

// Model 查找模型，供应商或模型不存在时返回 CONFIG_ERROR
func (r *Registry) Model(provider, model string) (ModelInfo, error) {
	d, err := r.Get(provider)
	if err != nil {
		return ModelInfo{}, err
	}
	m, ok := d.Model(model)
	if !ok {
		msg := fmt.Sprintf("模型信息不存在: %s/%s", provider, model)
		if suggestions := r.Suggest(provider, model); len(suggestions) > 0 {
			msg += fmt.Sprintf("，是否想使用: %v", suggestions)
		}
		return ModelInfo{}, translation.NewConfigError(msg, nil)
	}
	return m, nil
}

// Pricing 返回模型价格，实现 cost.PricingSource
func (r *Registry) Pricing(provider, model string) (cost.Pricing, error) {
	m, err := r.Model(provider, model)
	if err != nil {
		return cost.Pricing{}, err
	}
	return m.Pricing(), nil
}

// Suggest 返回与 model 相近的模型 ID；供应商不存在时返回相近的供应商 ID
func (r *Registry) Suggest(provider, model string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	d, exists := r.providers[provider]
	if !exists {
		ids := make([]string, 0, len(r.providers))
		for id := range r.providers {
			ids = append(ids, id)
		}
		return rankedMatches(provider, ids)
	}

	ids := make([]string, 0, len(d.Models))
	for _, m := range d.Models {
		ids = append(ids, m.ID)
	}
	return rankedMatches(model, ids)
}

func rankedMatches(query string, targets []string) []string {
	if query == "" {
		return nil
	}
	ranks := fuzzy.RankFindFold(query, targets)
	if len(ranks) == 0 {
		// 反向匹配: 输入比目标更长时（例如多打了后缀）
		for _, t := range targets {
			if t != "" && fuzzy.MatchFold(t, query) {
				ranks = append(ranks, fuzzy.Rank{Source: t, Target: t, Distance: len(query) - len(t)})
			}
		}
	}
	sort.Sort(ranks)

	result := make([]string, 0, len(ranks))
	for _, rank := range ranks {
		result = append(result, rank.Target)
	}
	return result
}
