// Package tm 实现翻译记忆库：按 (原文, 目标语言) 指纹缓存译文，保持插入顺序，
// 容量满时按 FIFO 淘汰非内置词条。
package tm

import (
	"sort"
	"sync"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"go.uber.org/zap"
)

// DefaultCapacity 记忆库默认容量
const DefaultCapacity = 10000

// Stats 记忆库统计
type Stats struct {
	TotalEntries int `json:"total_entries"`
	Hits         int `json:"hits"`
	Misses       int `json:"misses"`
}

// Entry 记忆库中的一条记录
type Entry struct {
	Key         string
	Translation string
	Seed        bool
}

// Memory 翻译记忆库
type Memory struct {
	mu          sync.Mutex
	entries     map[string]string
	order       []string
	capacity    int
	stats       Stats
	lastUpdated time.Time
	logger      *zap.Logger
}

// Option 记忆库选项
type Option func(*Memory)

// WithCapacity 设置容量上限
func WithCapacity(capacity int) Option {
	return func(m *Memory) {
		if capacity > 0 {
			m.capacity = capacity
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(m *Memory) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewEmpty 创建不含内置词条的空记忆库
func NewEmpty(opts ...Option) *Memory {
	m := &Memory{
		entries:     make(map[string]string),
		capacity:    DefaultCapacity,
		lastUpdated: time.Now(),
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// New 创建带内置词条的记忆库（首次使用）
func New(opts ...Option) *Memory {
	m := NewEmpty(opts...)
	for _, seed := range builtinSeeds {
		m.insertLocked(Fingerprint(seed[0], SeedLanguage), seed[1])
	}
	m.stats.TotalEntries = len(m.order)
	return m
}

// Lookup 查询译文，每次调用都会计入命中或未命中
func (m *Memory) Lookup(text, lang string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if translation, ok := m.entries[Fingerprint(text, lang)]; ok {
		m.stats.Hits++
		return translation, true
	}
	m.stats.Misses++
	return "", false
}

// Contains 判断指纹是否存在，不影响命中统计
func (m *Memory) Contains(text, lang string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.entries[Fingerprint(text, lang)]
	return ok
}

// Learn 写入一条译文。记忆库不做筛选，调用方负责判断是否值得学习
func (m *Memory) Learn(text, translation, lang string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := Fingerprint(text, lang)
	if _, exists := m.entries[key]; !exists && len(m.order) >= m.capacity {
		m.evictLocked()
	}
	m.insertLocked(key, translation)
	m.stats.TotalEntries = len(m.order)
	m.lastUpdated = time.Now()
}

// evictLocked 移除最早的非内置词条；全部是内置词条时不移除
func (m *Memory) evictLocked() {
	for i, key := range m.order {
		if IsSeed(key) {
			continue
		}
		delete(m.entries, key)
		m.order = append(m.order[:i], m.order[i+1:]...)
		m.logger.Debug("达到容量上限，移除最早的条目",
			zap.Int("capacity", m.capacity),
			zap.String("key", key))
		return
	}
}

func (m *Memory) insertLocked(key, translation string) {
	if _, exists := m.entries[key]; !exists {
		m.order = append(m.order, key)
	}
	m.entries[key] = translation
}

// MergeBuiltins 把缺失的内置词条补回记忆库，返回新增数量
func (m *Memory) MergeBuiltins() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	added := 0
	for _, seed := range builtinSeeds {
		key := Fingerprint(seed[0], SeedLanguage)
		if _, exists := m.entries[key]; exists {
			continue
		}
		m.insertLocked(key, seed[1])
		added++
	}
	if added > 0 {
		m.stats.TotalEntries = len(m.order)
		m.lastUpdated = time.Now()
	}
	return added
}

// Len 返回条目数
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.order)
}

// Capacity 返回容量上限
func (m *Memory) Capacity() int {
	return m.capacity
}

// Stats 返回统计快照
func (m *Memory) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stats
}

// LastUpdated 返回最后修改时间
func (m *Memory) LastUpdated() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastUpdated
}

// HitRate 命中率 (0~1)
func (m *Memory) HitRate() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := m.stats.Hits + m.stats.Misses
	if total == 0 {
		return 0
	}
	return float64(m.stats.Hits) / float64(total)
}

// Clear 清空记忆库和统计，内置词条也一并清除
func (m *Memory) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]string)
	m.order = nil
	m.stats = Stats{}
	m.lastUpdated = time.Now()
}

// Entries 按插入顺序返回所有条目
func (m *Memory) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	result := make([]Entry, 0, len(m.order))
	for _, key := range m.order {
		result = append(result, Entry{Key: key, Translation: m.entries[key], Seed: IsSeed(key)})
	}
	return result
}

// Search 模糊搜索键，按匹配距离排序
func (m *Memory) Search(query string, limit int) []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()

	ranks := fuzzy.RankFindFold(query, m.order)
	sort.Stable(ranks)

	result := make([]Entry, 0, len(ranks))
	for _, rank := range ranks {
		if limit > 0 && len(result) >= limit {
			break
		}
		result = append(result, Entry{
			Key:         rank.Target,
			Translation: m.entries[rank.Target],
			Seed:        IsSeed(rank.Target),
		})
	}
	return result
}
