// Package translator 实现批量翻译引擎
//
// 一次 Translate 调用依次经过：记忆库查询、未命中文本去重、按批次顺序请求 AI、
// 解析校验译文、回填到所有原始位置、按下标升序上报进度，最后学习新短语。
// 任一批次失败时不返回部分结果，也不学习任何译文。
// 同一个 BatchTranslator 不支持并发调用 Translate，需要并发时使用多个实例。
package translator

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-po-translator/pkg/tm"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"go.uber.org/zap"
)

const (
	// 请求温度
	defaultTemperature = 1.0
	// 错误信息中样本文本的最大显示宽度
	sampleWidth = 40
)

// BatchTranslator 批量翻译引擎
type BatchTranslator struct {
	client       openai.ChatClient
	memory       *tm.Memory
	calculator   *cost.Calculator
	provider     string
	model        string
	targetLang   string
	customPrompt string
	termLibrary  *TermLibrary
	systemPrompt string
	chunkSize    int
	retrier      *retry.Retrier
	logger       *zap.Logger
	recorder     UsageRecorder

	history    []openai.Message
	batchStats BatchStats
	tokenStats TokenStats
}

// New 创建批量翻译引擎
func New(client openai.ChatClient, options ...Option) (*BatchTranslator, error) {
	if client == nil {
		return nil, translation.NewConfigError("未提供AI客户端", nil)
	}

	opts := &translatorOptions{
		chunkSize:   DefaultChunkSize,
		retryConfig: retry.DefaultConfig(),
		logger:      zap.NewNop(),
	}
	for _, option := range options {
		option(opts)
	}

	if opts.memory == nil {
		opts.memory = tm.New(tm.WithLogger(opts.logger))
	}

	t := &BatchTranslator{
		client:       client,
		memory:       opts.memory,
		provider:     opts.provider,
		model:        opts.model,
		targetLang:   opts.targetLang,
		customPrompt: opts.systemPrompt,
		termLibrary:  opts.termLibrary,
		chunkSize:    opts.chunkSize,
		logger:       opts.logger,
		recorder:     opts.recorder,
	}
	if opts.pricing != nil {
		t.calculator = cost.NewCalculator(opts.pricing)
	}
	t.systemPrompt = BuildSystemPrompt(t.customPrompt, t.termLibrary)
	t.retrier = retry.New(opts.retryConfig, retry.WithOnRetry(func(attempt int, delay time.Duration, err error) {
		t.logger.Warn("请求失败，稍后重试",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", opts.retryConfig.MaxAttempts),
			zap.Duration("delay", delay),
			zap.Error(err))
	}))

	t.logger.Debug("初始化批量翻译引擎",
		zap.String("provider", t.provider),
		zap.String("model", t.model),
		zap.String("target_lang", t.targetLang),
		zap.Int("chunk_size", t.chunkSize),
		zap.Bool("style_summary", t.termLibrary != nil && t.termLibrary.StyleSummary() != nil))

	return t, nil
}

// Translate 批量翻译，返回与输入等长且顺序一致的译文
//
// lang 为空时使用 WithTargetLanguage 设置的语言。任何批次失败都会让整个调用失败，
// 不返回部分结果，也不学习任何译文。
func (t *BatchTranslator) Translate(ctx context.Context, texts []string, lang string, onProgress ProgressFunc, onStats StatsFunc) ([]string, error) {
	return t.translateBatch(ctx, texts, lang, onProgress, onStats, nil)
}

// TranslateWithSources 批量翻译并返回每条译文的来源
func (t *BatchTranslator) TranslateWithSources(ctx context.Context, texts []string, lang string) ([]string, []Source, error) {
	sources := make([]Source, len(texts))
	results, err := t.translateBatch(ctx, texts, lang, nil, nil, sources)
	if err != nil {
		return nil, nil, err
	}
	return results, sources, nil
}

func (t *BatchTranslator) translateBatch(ctx context.Context, texts []string, lang string, onProgress ProgressFunc, onStats StatsFunc, sources []Source) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}
	if lang == "" {
		lang = t.targetLang
	}

	t.batchStats = BatchStats{Total: len(texts)}
	results := make([]string, len(texts))

	// 记忆库查询
	var misses []Miss
	for i, text := range texts {
		if translated, ok := t.memory.Lookup(text, lang); ok {
			results[i] = translated
			t.batchStats.TMHits++
			if sources != nil {
				sources[i] = SourceTM
			}
			continue
		}
		misses = append(misses, Miss{Index: i, Text: text})
	}

	unique, positions := Deduplicate(misses)
	t.batchStats.Deduplicated = len(misses) - len(unique)
	t.emitStats(onStats)

	var learned map[string]string
	if len(unique) > 0 {
		t.logger.Info("预处理完成",
			zap.Int("total", len(texts)),
			zap.Int("tm_hits", t.batchStats.TMHits),
			zap.Int("untranslated", len(misses)),
			zap.Int("deduplicated", t.batchStats.Deduplicated))

		translations, err := t.translateChunks(ctx, unique, lang, onStats)
		if err != nil {
			return nil, err
		}
		t.batchStats.AITranslated = len(unique)

		learned = make(map[string]string, len(unique))
		for i, text := range unique {
			for n, idx := range positions[text] {
				results[idx] = translations[i]
				if sources != nil {
					if n == 0 {
						sources[idx] = SourceAI
					} else {
						sources[idx] = SourceDedup
					}
				}
			}
			learned[text] = translations[i]
		}
	}

	if onProgress != nil {
		for i, translated := range results {
			onProgress(i, translated)
		}
	}

	for _, text := range unique {
		t.learn(text, learned[text], lang)
	}

	t.logger.Info("翻译完成",
		zap.Int("total", t.batchStats.Total),
		zap.Int("tm_hits", t.batchStats.TMHits),
		zap.Int("deduplicated", t.batchStats.Deduplicated),
		zap.Int("ai_translated", t.batchStats.AITranslated),
		zap.Int("tm_learned", t.batchStats.TMLearned))
	t.emitStats(onStats)

	return results, nil
}

// translateChunks 按批次顺序翻译去重后的文本，每个批次开始前检查取消
func (t *BatchTranslator) translateChunks(ctx context.Context, unique []string, lang string, onStats StatsFunc) ([]string, error) {
	totalChunks := (len(unique) + t.chunkSize - 1) / t.chunkSize
	translations := make([]string, 0, len(unique))

	for start, n := 0, 1; start < len(unique); start, n = start+t.chunkSize, n+1 {
		end := min(start+t.chunkSize, len(unique))
		chunk := unique[start:end]

		if err := ctx.Err(); err != nil {
			t.logger.Info("翻译任务已取消", zap.Int("chunk", n), zap.Int("total_chunks", totalChunks))
			return nil, translation.NewCancelledError(err)
		}

		t.logger.Debug("分批翻译",
			zap.Int("chunk", n),
			zap.Int("total_chunks", totalChunks),
			zap.Int("size", len(chunk)))

		chunkTranslations, err := t.translateChunk(ctx, chunk, lang)
		if err != nil {
			t.logger.Error("批次翻译失败",
				zap.Int("chunk", n),
				zap.Int("total_chunks", totalChunks),
				zap.String("sample", sample(chunk[0])),
				zap.Error(err))
			return nil, translation.WrapError(err,
				fmt.Sprintf("批次 %d/%d 翻译失败（%s）", n, totalChunks, sample(chunk[0])))
		}
		translations = append(translations, chunkTranslations...)
		t.emitStats(onStats)
	}

	return translations, nil
}

// translateChunk 请求一个批次，网络错误和响应解析错误会按退避策略重试
func (t *BatchTranslator) translateChunk(ctx context.Context, chunk []string, lang string) ([]string, error) {
	userPrompt := BuildUserPrompt(chunk, lang)

	var translations []string
	err := t.retrier.Do(ctx, func(attempt int) error {
		content, err := t.complete(ctx, userPrompt)
		if err != nil {
			return err
		}
		translations, err = ParseTranslations(content, chunk, t.logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return translations, nil
}

// TranslateWithCustomPrompt 使用完整的自定义用户提示词，返回去掉首尾空白的原始响应
//
// 与批量翻译共享对话历史和重试策略。
func (t *BatchTranslator) TranslateWithCustomPrompt(ctx context.Context, userPrompt string) (string, error) {
	var content string
	err := t.retrier.Do(ctx, func(attempt int) error {
		var err error
		content, err = t.complete(ctx, userPrompt)
		return err
	})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(content), nil
}

// complete 发送一次请求，成功后累计用量并更新对话历史
func (t *BatchTranslator) complete(ctx context.Context, userPrompt string) (string, error) {
	started := time.Now()
	resp, err := t.client.Chat(ctx, openai.ChatRequest{
		Model:       t.model,
		Messages:    t.messagesFor(userPrompt),
		Temperature: defaultTemperature,
	})
	if err != nil {
		return "", err
	}

	if err := t.account(ctx, resp.Usage, time.Since(started)); err != nil {
		return "", err
	}
	content := resp.Content
	if HasReasoningTags(content) {
		t.logger.Debug("去掉响应中的思考过程", zap.Int("length", len(content)))
		content = RemoveReasoning(content)
	}
	t.updateHistory(userPrompt, content)
	return content, nil
}

// account 累计 token 用量并计算费用；模型没有定价信息时返回 CONFIG_ERROR
func (t *BatchTranslator) account(ctx context.Context, usage openai.Usage, elapsed time.Duration) error {
	t.tokenStats.InputTokens += usage.PromptTokens
	t.tokenStats.OutputTokens += usage.CompletionTokens
	t.tokenStats.TotalTokens += usage.TotalTokens
	t.tokenStats.CacheReadTokens += usage.CacheReadTokens

	var callCost float64
	if t.calculator != nil {
		breakdown, err := t.calculator.CalculateFor(t.provider, t.model, cost.Usage{
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			CacheWriteTokens: usage.CacheWriteTokens,
			CacheReadTokens:  usage.CacheReadTokens,
		})
		if err != nil {
			return err
		}
		callCost = breakdown.TotalCost
		t.tokenStats.Cost += callCost
	}

	if t.recorder != nil {
		record := CallRecord{
			Provider:         t.provider,
			Model:            t.model,
			PromptTokens:     usage.PromptTokens,
			CompletionTokens: usage.CompletionTokens,
			CacheReadTokens:  usage.CacheReadTokens,
			CacheWriteTokens: usage.CacheWriteTokens,
			Cost:             callCost,
			Duration:         elapsed,
			At:               time.Now(),
		}
		if err := t.recorder.RecordCall(ctx, record); err != nil {
			t.logger.Warn("记录用量失败", zap.Error(err))
		}
	}
	return nil
}

// learn 把简单短语写入记忆库，已存在的键跳过
func (t *BatchTranslator) learn(text, translated, lang string) {
	if !shouldLearn(text, translated) {
		return
	}
	if t.memory.Contains(text, lang) {
		t.logger.Debug("跳过已在记忆库中的短语", zap.String("text", text))
		return
	}
	t.memory.Learn(text, translated, lang)
	t.batchStats.TMLearned++
	t.logger.Debug("记忆库学习",
		zap.String("text", text),
		zap.String("translation", translated),
		zap.String("lang", lang))
}

func (t *BatchTranslator) emitStats(onStats StatsFunc) {
	if onStats != nil {
		onStats(t.batchStats, t.tokenStats)
	}
}

// sample 截断到固定显示宽度，用于错误信息
func sample(text string) string {
	return runewidth.Truncate(strings.ReplaceAll(text, "\n", " "), sampleWidth, "...")
}

// TokenStats 返回累计用量
func (t *BatchTranslator) TokenStats() TokenStats {
	return t.tokenStats
}

// BatchStats 返回最近一次 Translate 的统计
func (t *BatchTranslator) BatchStats() BatchStats {
	return t.batchStats
}

// ResetStats 清空累计用量和批次统计
func (t *BatchTranslator) ResetStats() {
	t.tokenStats = TokenStats{}
	t.batchStats = BatchStats{}
}

// Memory 返回翻译记忆库，由调用方负责持久化
func (t *BatchTranslator) Memory() *tm.Memory {
	return t.memory
}

// SystemPrompt 返回当前系统提示词
func (t *BatchTranslator) SystemPrompt() string {
	return t.systemPrompt
}

// RefreshStyleSummary 术语足够多时请求 AI 重新总结翻译风格，并更新系统提示词
//
// 分析请求单独发送，不带对话历史；更新成功后清空历史，让后续批次使用新的系统提示词。
// 返回是否进行了更新。
func (t *BatchTranslator) RefreshStyleSummary(ctx context.Context, library *TermLibrary) (bool, error) {
	if library == nil || !library.ShouldUpdateStyleSummary() {
		return false, nil
	}

	prompt := library.BuildAnalysisPrompt()
	var content string
	err := t.retrier.Do(ctx, func(attempt int) error {
		started := time.Now()
		resp, err := t.client.Chat(ctx, openai.ChatRequest{
			Model:       t.model,
			Messages:    []openai.Message{{Role: openai.RoleUser, Content: prompt}},
			Temperature: defaultTemperature,
		})
		if err != nil {
			return err
		}
		content = RemoveReasoning(resp.Content)
		return t.account(ctx, resp.Usage, time.Since(started))
	})
	if err != nil {
		return false, translation.WrapError(err, "生成风格总结失败")
	}

	summary := strings.TrimSpace(content)
	if summary == "" {
		return false, translation.NewResponseParseError("风格总结为空", nil)
	}
	library.UpdateStyleSummary(summary)

	t.termLibrary = library
	t.systemPrompt = BuildSystemPrompt(t.customPrompt, library)
	t.ClearHistory()
	return true, nil
}
