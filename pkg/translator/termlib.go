package translator

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// 距上次总结新增多少条术语后重新总结
	styleRefreshThreshold = 5
	// 分析提示词中最多列出的术语数
	maxAnalysisTerms = 30
)

// TermEntry 用户修正过的一条术语
type TermEntry struct {
	Source          string    `json:"source"`
	UserTranslation string    `json:"user_translation"`
	AITranslation   string    `json:"ai_translation"`
	Context         string    `json:"context,omitempty"`
	Frequency       int       `json:"frequency"`
	CreatedAt       time.Time `json:"created_at"`
}

// StyleSummary AI 根据术语总结出的翻译风格
type StyleSummary struct {
	Prompt       string    `json:"prompt"`
	BasedOnTerms int       `json:"based_on_terms"`
	GeneratedAt  time.Time `json:"generated_at"`
	Version      int       `json:"version"`
}

// TermLibraryMetadata 术语库元数据
type TermLibraryMetadata struct {
	TotalTerms         int        `json:"total_terms"`
	LastTermAdded      *time.Time `json:"last_term_added"`
	LastSummaryUpdate  *time.Time `json:"last_summary_update"`
	TermsAtLastSummary int        `json:"terms_at_last_summary"`
}

// termLibraryFile 文件格式
type termLibraryFile struct {
	Terms        []TermEntry         `json:"terms"`
	StyleSummary *StyleSummary       `json:"style_summary"`
	Metadata     TermLibraryMetadata `json:"metadata"`
}

// TermLibrary 术语库
type TermLibrary struct {
	mu     sync.RWMutex
	data   termLibraryFile
	logger *zap.Logger
}

// NewTermLibrary 创建空术语库
func NewTermLibrary(logger *zap.Logger) *TermLibrary {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermLibrary{logger: logger}
}

// LoadTermLibrary 从 JSON 文件加载术语库，文件不存在时返回空术语库
func LoadTermLibrary(path string, logger *zap.Logger) (*TermLibrary, error) {
	lib := NewTermLibrary(logger)

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		lib.logger.Info("术语库文件不存在，创建新术语库", zap.String("path", path))
		return lib, nil
	}
	if err != nil {
		return nil, fmt.Errorf("读取术语库失败: %w", err)
	}
	if err := json.Unmarshal(data, &lib.data); err != nil {
		return nil, fmt.Errorf("解析术语库失败: %w", err)
	}
	return lib, nil
}

// Save 保存到 JSON 文件
func (l *TermLibrary) Save(path string) error {
	l.mu.RLock()
	data, err := json.MarshalIndent(l.data, "", "  ")
	count := len(l.data.Terms)
	hasSummary := l.data.StyleSummary != nil
	l.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("序列化术语库失败: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建术语库目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入术语库失败: %w", err)
	}

	l.logger.Info("保存术语库", zap.Int("terms", count), zap.Bool("style_summary", hasSummary))
	return nil
}

// AddTerm 添加术语；原文已存在时更新用户译文并增加频次
func (l *TermLibrary) AddTerm(source, userTranslation, aiTranslation, context string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := time.Now().UTC()
	if entry := l.findLocked(source); entry != nil {
		entry.Frequency++
		entry.UserTranslation = userTranslation
		l.logger.Debug("更新术语", zap.String("source", source), zap.String("translation", userTranslation))
	} else {
		l.data.Terms = append(l.data.Terms, TermEntry{
			Source:          source,
			UserTranslation: userTranslation,
			AITranslation:   aiTranslation,
			Context:         context,
			Frequency:       1,
			CreatedAt:       now,
		})
		l.logger.Debug("新增术语", zap.String("source", source), zap.String("translation", userTranslation))
	}

	l.data.Metadata.TotalTerms = len(l.data.Terms)
	l.data.Metadata.LastTermAdded = &now
}

// RemoveTerm 删除术语，删空时一并清除风格总结
func (l *TermLibrary) RemoveTerm(source string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	kept := l.data.Terms[:0]
	for _, term := range l.data.Terms {
		if term.Source != source {
			kept = append(kept, term)
		}
	}
	if len(kept) == len(l.data.Terms) {
		return fmt.Errorf("术语不存在: %s", source)
	}

	l.data.Terms = kept
	l.data.Metadata.TotalTerms = len(kept)
	if len(kept) == 0 {
		l.data.StyleSummary = nil
		l.data.Metadata.TermsAtLastSummary = 0
		l.logger.Info("术语库已清空，风格总结已清除")
	}
	return nil
}

// Term 按原文查找术语
func (l *TermLibrary) Term(source string) (TermEntry, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if entry := l.findLocked(source); entry != nil {
		return *entry, true
	}
	return TermEntry{}, false
}

func (l *TermLibrary) findLocked(source string) *TermEntry {
	for i := range l.data.Terms {
		if l.data.Terms[i].Source == source {
			return &l.data.Terms[i]
		}
	}
	return nil
}

// Terms 返回所有术语
func (l *TermLibrary) Terms() []TermEntry {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]TermEntry(nil), l.data.Terms...)
}

// Metadata 返回元数据
func (l *TermLibrary) Metadata() TermLibraryMetadata {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.data.Metadata
}

// StyleSummary 返回风格总结，没有时返回 nil
func (l *TermLibrary) StyleSummary() *StyleSummary {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.data.StyleSummary == nil {
		return nil
	}
	summary := *l.data.StyleSummary
	return &summary
}

// StylePrompt 返回风格总结文本
func (l *TermLibrary) StylePrompt() (string, bool) {
	summary := l.StyleSummary()
	if summary == nil {
		return "", false
	}
	return summary.Prompt, true
}

// ShouldUpdateStyleSummary 还没有总结，或距上次总结新增了至少 5 条术语
func (l *TermLibrary) ShouldUpdateStyleSummary() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.data.Terms) == 0 {
		return false
	}
	if l.data.StyleSummary == nil {
		return true
	}
	return l.data.Metadata.TotalTerms-l.data.Metadata.TermsAtLastSummary >= styleRefreshThreshold
}

// BuildAnalysisPrompt 构建风格分析提示词，按频次列出前 30 条术语
func (l *TermLibrary) BuildAnalysisPrompt() string {
	terms := l.Terms()
	sort.SliceStable(terms, func(i, j int) bool {
		return terms[i].Frequency > terms[j].Frequency
	})
	if len(terms) > maxAnalysisTerms {
		terms = terms[:maxAnalysisTerms]
	}

	var sb strings.Builder
	sb.WriteString("你是专业的翻译风格分析师。请分析用户的翻译风格偏好。\n\n")
	sb.WriteString("【术语对照】\n")
	for i, term := range terms {
		fmt.Fprintf(&sb, "%d. 原文: %s\n   AI译: %s\n   用户译: %s\n\n",
			i+1, term.Source, term.AITranslation, term.UserTranslation)
	}

	sb.WriteString("【分析任务】\n")
	sb.WriteString("对比上述每组「AI译」和「用户译」，找出用户的翻译偏好和风格特征。\n\n")
	sb.WriteString("【检查维度】\n")
	sb.WriteString("1. 词汇偏好：用户是否偏好特定词汇？（如：保留英文原词、使用简洁表达等）\n")
	sb.WriteString("2. 符号习惯：空格、下划线、标点等使用习惯\n")
	sb.WriteString("3. 整体风格：直译/意译、正式/口语、简洁/详细等\n\n")
	sb.WriteString("【输出要求】\n")
	sb.WriteString("严格按照以下格式输出两行：\n\n")
	sb.WriteString("第1行 - 风格概括（10-15字，一句话形容）：\n")
	sb.WriteString("例如：技术型翻译，保留英文术语\n")
	sb.WriteString("例如：简洁直译，下划线连接\n")
	sb.WriteString("例如：专业规范，符号统一\n\n")
	sb.WriteString("第2行 - 详细指导（不超过150字）：\n")
	sb.WriteString("例如：准确的技术翻译；词汇偏好\"debug\"（如：调试→debug）；符号：空格改为下划线（如：资产编辑器→资产_编辑器）\n\n")
	sb.WriteString("【注意】\n")
	sb.WriteString("- 必须严格输出两行，第一行风格概括，第二行详细指导\n")
	sb.WriteString("- 不要添加额外说明或编号\n")
	sb.WriteString("- 只写发现的实际差异，没有差异就不写")
	return sb.String()
}

// UpdateStyleSummary 写入新的风格总结，版本号递增
func (l *TermLibrary) UpdateStyleSummary(prompt string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	version := 1
	if l.data.StyleSummary != nil {
		version = l.data.StyleSummary.Version + 1
	}
	now := time.Now().UTC()
	l.data.StyleSummary = &StyleSummary{
		Prompt:       prompt,
		BasedOnTerms: len(l.data.Terms),
		GeneratedAt:  now,
		Version:      version,
	}
	l.data.Metadata.TermsAtLastSummary = l.data.Metadata.TotalTerms
	l.data.Metadata.LastSummaryUpdate = &now

	l.logger.Info("风格总结已更新", zap.Int("version", version), zap.Int("terms", len(l.data.Terms)))
}
