package stats

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-runewidth"
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
)

// Visualizer 用量数据可视化器
type Visualizer struct {
	db  *Database
	out io.Writer
}

// NewVisualizer 创建可视化器，out 为空时写到标准输出
func NewVisualizer(db *Database, out io.Writer) *Visualizer {
	if out == nil {
		out = os.Stdout
	}
	return &Visualizer{db: db, out: out}
}

// ShowOverview 显示总览
func (v *Visualizer) ShowOverview(ctx context.Context) error {
	o, err := v.db.Overview(ctx)
	if err != nil {
		return err
	}

	v.printTitle(color.New(color.FgCyan, color.Bold), "📊 用量总览")
	v.printSection("🎯 调用", [][]string{
		{"调用次数", formatNumber(o.TotalCalls)},
		{"输入 Tokens", formatNumber(o.PromptTokens)},
		{"输出 Tokens", formatNumber(o.CompletionTokens)},
		{"缓存命中 Tokens", formatNumber(o.CacheReadTokens)},
		{"总花费", cost.Format(o.TotalCost)},
		{"首次调用", formatTime(o.FirstCall)},
		{"最近调用", formatTime(o.LastCall)},
	})
	fmt.Fprintln(v.out)
	v.printSection("📄 翻译任务", [][]string{
		{"任务数", formatNumber(o.TotalRuns)},
		{"失败任务", formatNumber(o.FailedRuns)},
		{"文本总数", formatNumber(o.TotalTexts)},
		{"记忆库命中", fmt.Sprintf("%s (%.1f%%)", formatNumber(o.TMHits), o.TMHitRate()*100)},
		{"AI 翻译", formatNumber(o.AITranslated)},
	})
	return nil
}

// ShowSummary 按模型汇总的表格
func (v *Visualizer) ShowSummary(ctx context.Context) error {
	summaries, err := v.db.Summary(ctx)
	if err != nil {
		return err
	}

	v.printTitle(color.New(color.FgMagenta, color.Bold), "🤖 按模型统计")
	if len(summaries) == 0 {
		fmt.Fprintln(v.out, "暂无调用记录。")
		return nil
	}

	tw := v.newTable()
	tw.AppendHeader(table.Row{"供应商", "模型", "调用", "输入", "输出", "缓存命中", "花费", "平均耗时", "最近使用"})
	var total ModelSummary
	for _, s := range summaries {
		tw.AppendRow(table.Row{
			s.Provider, s.Model, formatNumber(s.Calls),
			formatNumber(s.PromptTokens), formatNumber(s.CompletionTokens), formatNumber(s.CacheReadTokens),
			cost.Format(s.Cost), formatDuration(s.AverageLatency()), formatTime(s.LastUsed),
		})
		total.Calls += s.Calls
		total.PromptTokens += s.PromptTokens
		total.CompletionTokens += s.CompletionTokens
		total.CacheReadTokens += s.CacheReadTokens
		total.Cost += s.Cost
	}
	tw.AppendFooter(table.Row{
		"合计", "", formatNumber(total.Calls),
		formatNumber(total.PromptTokens), formatNumber(total.CompletionTokens), formatNumber(total.CacheReadTokens),
		cost.Format(total.Cost), "", "",
	})
	tw.Render()
	return nil
}

// ShowDaily 每日用量
func (v *Visualizer) ShowDaily(ctx context.Context, days int) error {
	daily, err := v.db.Daily(ctx, days)
	if err != nil {
		return err
	}

	v.printTitle(color.New(color.FgGreen, color.Bold), fmt.Sprintf("📅 最近 %d 天", days))
	if len(daily) == 0 {
		fmt.Fprintln(v.out, "这段时间没有调用记录。")
		return nil
	}

	tw := v.newTable()
	tw.AppendHeader(table.Row{"日期", "调用", "输入", "输出", "花费"})
	for _, d := range daily {
		tw.AppendRow(table.Row{d.Day, formatNumber(d.Calls), formatNumber(d.PromptTokens),
			formatNumber(d.CompletionTokens), cost.Format(d.Cost)})
	}
	tw.Render()
	return nil
}

// ShowRecentRuns 最近的翻译任务
func (v *Visualizer) ShowRecentRuns(ctx context.Context, limit int) error {
	runs, err := v.db.RecentRuns(ctx, limit)
	if err != nil {
		return err
	}

	v.printTitle(color.New(color.FgBlue, color.Bold), fmt.Sprintf("🕒 最近的任务（%d）", len(runs)))
	if len(runs) == 0 {
		fmt.Fprintln(v.out, "暂无翻译任务。")
		return nil
	}

	tw := v.newTable()
	tw.AppendHeader(table.Row{"时间", "文件", "语言", "模型", "总数", "命中", "去重", "AI", "学习", "花费", "耗时", "状态"})
	for _, r := range runs {
		tw.AppendRow(table.Row{
			formatTime(r.CreatedAt),
			runewidth.Truncate(r.File, 40, "..."),
			r.Language,
			r.Model,
			r.Total, r.TMHits, r.Deduplicated, r.AITranslated, r.TMLearned,
			cost.Format(r.Cost),
			formatDuration(r.Duration),
			statusLabel(r.Status),
		})
	}
	tw.Render()

	errorColor := color.New(color.FgRed)
	for _, r := range runs {
		if r.ErrorMessage != "" {
			errorColor.Fprintf(v.out, "  ❌ %s: %s\n", formatTime(r.CreatedAt), r.ErrorMessage)
		}
	}
	return nil
}

func (v *Visualizer) newTable() table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(v.out)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	tw.Style().Format.Footer = text.FormatDefault
	return tw
}

func (v *Visualizer) printTitle(c *color.Color, title string) {
	c.Fprintln(v.out, title)
	c.Fprintln(v.out, strings.Repeat("=", 50))
}

// printSection 打印一个统计部分
func (v *Visualizer) printSection(title string, data [][]string) {
	sectionColor := color.New(color.FgYellow, color.Bold)
	sectionColor.Fprintf(v.out, "%s\n", title)

	// 计算最大标签宽度
	maxLabelWidth := 0
	for _, row := range data {
		if w := runewidth.StringWidth(row[0]); w > maxLabelWidth {
			maxLabelWidth = w
		}
	}

	labelColor := color.New(color.FgCyan)
	valueColor := color.New(color.FgWhite, color.Bold)
	for _, row := range data {
		label := "  " + runewidth.FillRight(row[0], maxLabelWidth)
		labelColor.Fprintf(v.out, "%s: ", label)
		valueColor.Fprintln(v.out, row[1])
	}
}

func statusLabel(status string) string {
	switch status {
	case StatusCompleted:
		return "✅"
	case StatusDryRun:
		return "📝"
	case StatusCancelled:
		return "⏹"
	default:
		return "❌"
	}
}

// 辅助函数

// formatNumber 格式化数字（添加千位分隔符）
func formatNumber(n int64) string {
	if n < 0 {
		return "-" + formatNumber(-n)
	}
	str := strconv.FormatInt(n, 10)
	if len(str) <= 3 {
		return str
	}

	var result strings.Builder
	for i, char := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteString(",")
		}
		result.WriteRune(char)
	}
	return result.String()
}

// formatDuration 格式化持续时间
func formatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	if d < time.Second {
		return fmt.Sprintf("%.0fms", float64(d.Nanoseconds())/1e6)
	}

	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}

	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}

	return fmt.Sprintf("%.1fh", d.Hours())
}

// formatTime 格式化时间
func formatTime(t time.Time) string {
	if t.IsZero() {
		return "N/A"
	}

	t = t.Local()
	now := time.Now()
	if t.Year() == now.Year() && t.Month() == now.Month() && t.Day() == now.Day() {
		return t.Format("15:04:05")
	}

	if t.Year() == now.Year() {
		return t.Format("Jan 02 15:04")
	}

	return t.Format("2006-01-02 15:04")
}
