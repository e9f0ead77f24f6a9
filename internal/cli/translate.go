package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/nerdneilsfield/go-po-translator/internal/pofile"
	"github.com/nerdneilsfield/go-po-translator/internal/stats"
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/nerdneilsfield/go-po-translator/pkg/translator"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type translateOptions struct {
	lang        string
	dryRun      bool
	showSources bool
}

func newTranslateCommand(a *app) *cobra.Command {
	opts := &translateOptions{}

	cmd := &cobra.Command{
		Use:   "translate <input.po> [output.po]",
		Short: "翻译 PO 文件中未翻译的条目",
		Long: `翻译 PO 文件中所有未翻译的单数条目，fuzzy、复数和废弃条目保持不变。

未指定输出文件时写入 <输入文件名>_translated.po。

示例:
  po-translator translate messages.po
  po-translator translate messages.po zh.po --lang zh-Hans
  po-translator translate messages.po --dry-run`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			output := generateDefaultOutputFile(args[0])
			if len(args) > 1 {
				output = args[1]
			}
			return a.runTranslate(cmd, args[0], output, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.lang, "lang", "l", "", "目标语言（默认取 PO 文件头的 Language，再取配置 target_lang）")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false, "只统计待翻译条目和预估费用，不调用 AI")
	cmd.Flags().BoolVar(&opts.showSources, "sources", false, "输出每条译文的来源 (tm/ai/dedup)")

	return cmd
}

// generateDefaultOutputFile 生成默认的输出文件名
func generateDefaultOutputFile(inputFile string) string {
	ext := filepath.Ext(inputFile)
	baseName := strings.TrimSuffix(inputFile, ext)
	return baseName + "_translated" + ext
}

// pendingEntries 返回需要翻译的单数条目
func (a *app) pendingEntries(po *pofile.File) []*pofile.Entry {
	var pending []*pofile.Entry
	for _, e := range po.UntranslatedEntries() {
		if e.IsPlural() {
			a.log.Debug("跳过复数条目", zap.String("msgid", e.MsgID), zap.Int("line", e.Line))
			continue
		}
		pending = append(pending, e)
	}
	return pending
}

// engineTexts 以 PO 转义形式交给引擎，多行消息在提示词中只占一行
func engineTexts(entries []*pofile.Entry) []string {
	texts := make([]string, len(entries))
	for i, e := range entries {
		texts[i] = pofile.Escape(e.MsgID)
	}
	return texts
}

// targetLanguage 命令行 > PO 文件头 > 配置
func targetLanguage(flag string, po *pofile.File, fallback string) string {
	if flag != "" {
		return flag
	}
	if lang := po.HeaderField("Language"); lang != "" {
		return lang
	}
	return fallback
}

func (a *app) runTranslate(cmd *cobra.Command, input, output string, opts *translateOptions) error {
	out := cmd.OutOrStdout()

	po, err := pofile.ParseFile(input)
	if err != nil {
		return fmt.Errorf("读取 PO 文件失败: %w", err)
	}
	pending := a.pendingEntries(po)

	s, err := a.openSession(!opts.dryRun)
	if err != nil {
		return err
	}
	defer s.Close()

	lang := targetLanguage(opts.lang, po, s.cfg.TargetLang)
	if po.HeaderField("Language") == "" {
		po.SetHeaderField("Language", lang)
	}

	printTitle(out, "PO 翻译")
	printKV(out, "📄 输入文件", input)
	printKV(out, "📄 输出文件", output)
	printKV(out, "🌐 目标语言", fmt.Sprintf("%s (%s)", translator.LanguageName(lang), lang))
	printKV(out, "🤖 模型", s.cfg.Provider+"/"+s.cfg.Model)
	printKV(out, "📝 待翻译条目", len(pending))

	if len(pending) == 0 {
		successColor.Fprintln(out, "\n✅ 没有需要翻译的条目")
		return nil
	}

	texts := engineTexts(pending)

	if opts.dryRun {
		return a.runDryRun(cmd, s, input, lang, texts)
	}

	tasks := translator.NewTaskManager()
	signalCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runID, ctx := tasks.Create(signalCtx)
	defer tasks.Complete(runID)

	started := time.Now()
	run := stats.RunRecord{
		RunID:    runID,
		File:     input,
		Language: lang,
		Provider: s.cfg.Provider,
		Model:    s.cfg.Model,
	}

	var (
		results []string
		sources []translator.Source
	)
	if opts.showSources {
		results, sources, err = s.engine.TranslateWithSources(ctx, texts, lang)
	} else {
		results, err = a.translateWithProgress(ctx, cmd.ErrOrStderr(), s.engine, texts, lang)
	}

	batch, tokens := s.engine.BatchStats(), s.engine.TokenStats()
	fillRun(&run, batch, tokens, time.Since(started))

	if err != nil {
		run.Status = stats.StatusFailed
		if translation.Is(err, translation.ErrCodeCancelled) || errors.Is(err, context.Canceled) {
			run.Status = stats.StatusCancelled
		}
		run.ErrorMessage = err.Error()
		a.recordRun(s, run)
		return err
	}

	for i, e := range pending {
		e.MsgStr = pofile.Unescape(results[i])
	}
	if err := po.WriteFile(output); err != nil {
		run.Status = stats.StatusFailed
		run.ErrorMessage = err.Error()
		a.recordRun(s, run)
		return fmt.Errorf("写入输出文件失败: %w", err)
	}

	if mismatched, err := pofile.VerifyFile(output, pending); err != nil {
		a.log.Warn("校验输出文件失败", zap.Error(err))
	} else if len(mismatched) > 0 {
		warnColor.Fprintf(out, "⚠️  %d 条译文在输出文件中读取结果不一致，请检查转义字符\n", len(mismatched))
		for _, e := range mismatched {
			a.log.Warn("译文校验不一致", zap.String("msgid", e.MsgID), zap.Int("line", e.Line))
		}
	}

	if !a.saveMemory(s) {
		warnColor.Fprintln(out, "⚠️  翻译记忆库保存失败，新学到的译文没有持久化")
	}
	a.refreshStyle(ctx, s)

	run.Status = stats.StatusCompleted
	fillRun(&run, s.engine.BatchStats(), s.engine.TokenStats(), time.Since(started))
	a.recordRun(s, run)

	if opts.showSources {
		printSources(out, pending, results, sources)
	}
	printRunSummary(out, run, s.pricingSource() != nil)
	printRequestStats(out, s)
	successColor.Fprintf(out, "\n✅ 翻译完成: %s\n", output)
	return nil
}

// translateWithProgress 用进度条显示翻译进度
//
// 批次完成时更新标题中的 token 和费用，译文回调时推进进度。
func (a *app) translateWithProgress(ctx context.Context, w io.Writer, engine *translator.BatchTranslator, texts []string, lang string) ([]string, error) {
	bar, err := pterm.DefaultProgressbar.
		WithTotal(len(texts)).
		WithTitle("翻译中").
		WithWriter(w).
		WithRemoveWhenDone(false).
		Start()
	if err != nil {
		a.log.Debug("无法启动进度条", zap.Error(err))
		return engine.Translate(ctx, texts, lang, nil, nil)
	}
	defer func() { _, _ = bar.Stop() }()

	onStats := func(batch translator.BatchStats, tokens translator.TokenStats) {
		bar.UpdateTitle(fmt.Sprintf("翻译中 | 记忆库命中 %d | tokens %s | %s",
			batch.TMHits, formatNumber(tokens.TotalTokens), cost.Format(tokens.Cost)))
	}
	onProgress := func(index int, translated string) {
		bar.Increment()
	}
	return engine.Translate(ctx, texts, lang, onProgress, onStats)
}

// runDryRun 统计并预估费用，记录一条 dry-run 任务
func (a *app) runDryRun(cmd *cobra.Command, s *session, input, lang string, texts []string) error {
	out := cmd.OutOrStdout()

	hits, chars := 0, 0
	for _, text := range texts {
		if s.memory.Contains(text, lang) {
			hits++
			continue
		}
		chars += len([]rune(text))
	}

	printSection(out, "🎭 dry-run（不会调用 AI）")
	printKV(out, "记忆库可命中", hits)
	printKV(out, "需要 AI 翻译", len(texts)-hits)
	printKV(out, "待翻译字符数", formatNumber(chars))

	estimated := 0.0
	if source := s.pricingSource(); source != nil {
		b, err := cost.NewCalculator(source).EstimateFor(s.cfg.Provider, s.cfg.Model, chars, 0)
		if err != nil {
			return err
		}
		estimated = b.TotalCost
		printKV(out, "预估费用", cost.Format(estimated))
	} else {
		printKV(out, "预估费用", "未知（自定义供应商没有价格信息）")
	}

	a.openUsage(s)
	a.recordRun(s, stats.RunRecord{
		File:     input,
		Language: lang,
		Provider: s.cfg.Provider,
		Model:    s.cfg.Model,
		Total:    len(texts),
		TMHits:   hits,
		Cost:     estimated,
		Status:   stats.StatusDryRun,
	})
	return nil
}

// refreshStyle 新术语足够多时更新风格总结，失败只记录警告
func (a *app) refreshStyle(ctx context.Context, s *session) {
	updated, err := s.engine.RefreshStyleSummary(ctx, s.terms)
	if err != nil {
		a.log.Warn("更新翻译风格总结失败", zap.Error(err))
		return
	}
	if !updated {
		return
	}
	if err := s.terms.Save(s.cfg.TermLibraryPath()); err != nil {
		a.log.Warn("保存术语库失败", zap.String("path", s.cfg.TermLibraryPath()), zap.Error(err))
	}
}

// recordRun 写入用量库，使用独立的 context，取消后也能记录
func (a *app) recordRun(s *session, run stats.RunRecord) {
	if s.usage == nil {
		return
	}
	if _, err := s.usage.AddRun(context.Background(), run); err != nil {
		a.log.Warn("记录翻译任务失败", zap.Error(err))
	}
}

func fillRun(run *stats.RunRecord, batch translator.BatchStats, tokens translator.TokenStats, elapsed time.Duration) {
	run.Total = batch.Total
	run.TMHits = batch.TMHits
	run.Deduplicated = batch.Deduplicated
	run.AITranslated = batch.AITranslated
	run.TMLearned = batch.TMLearned
	run.InputTokens = tokens.InputTokens
	run.OutputTokens = tokens.OutputTokens
	run.CacheReadTokens = tokens.CacheReadTokens
	run.Cost = tokens.Cost
	run.Duration = elapsed
}

// printRequestStats 输出请求次数，失败次数包含已重试成功的请求
func printRequestStats(w io.Writer, s *session) {
	for _, st := range s.requests.GetAllStats() {
		line := fmt.Sprintf("%d 次，平均 %s", st.TotalRequests, st.AverageLatency().Round(time.Millisecond))
		if st.FailedRequests > 0 {
			codes := make([]string, 0, len(st.ErrorCodes))
			for code, n := range st.ErrorCodes {
				codes = append(codes, fmt.Sprintf("%s×%d", code, n))
			}
			sort.Strings(codes)
			line += fmt.Sprintf("，失败 %d 次 (%s)", st.FailedRequests, strings.Join(codes, ", "))
		}
		printKV(w, "AI 请求", line)
	}
}

func printSources(w io.Writer, entries []*pofile.Entry, results []string, sources []translator.Source) {
	printSection(w, "📋 译文来源")
	tw := newTable(w)
	tw.AppendHeader([]any{"#", "原文", "译文", "来源"})
	for i, e := range entries {
		tw.AppendRow([]any{i + 1, e.MsgID, results[i], string(sources[i])})
	}
	tw.Render()
}

func printRunSummary(w io.Writer, run stats.RunRecord, priced bool) {
	printSection(w, "📊 统计")
	printKV(w, "条目总数", run.Total)
	printKV(w, "记忆库命中", run.TMHits)
	printKV(w, "去重复用", run.Deduplicated)
	printKV(w, "AI 翻译", run.AITranslated)
	printKV(w, "新学习", run.TMLearned)
	printKV(w, "输入 tokens", formatNumber(run.InputTokens))
	printKV(w, "输出 tokens", formatNumber(run.OutputTokens))
	if run.CacheReadTokens > 0 {
		printKV(w, "缓存命中 tokens", formatNumber(run.CacheReadTokens))
	}
	if priced {
		printKV(w, "费用", cost.Format(run.Cost))
	}
	printKV(w, "耗时", run.Duration.Round(time.Millisecond))
}
