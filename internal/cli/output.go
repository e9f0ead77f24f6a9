package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var (
	titleColor   = color.New(color.FgCyan, color.Bold)
	sectionColor = color.New(color.FgYellow, color.Bold)
	successColor = color.New(color.FgGreen)
	warnColor    = color.New(color.FgYellow)
	errorColor   = color.New(color.FgRed, color.Bold)
	hintColor    = color.New(color.FgHiBlack)

	numberPrinter = message.NewPrinter(language.English)
)

// PrintError 按错误类型输出带颜色的错误和处理建议
func PrintError(w io.Writer, err error) {
	errorColor.Fprintf(w, "❌ %v\n", err)
	if hint := errorHint(translation.CodeOf(err)); hint != "" {
		hintColor.Fprintf(w, "   %s\n", hint)
	}
}

func errorHint(code string) string {
	switch code {
	case translation.ErrCodeAuth:
		return "检查 api_key 配置或环境变量 PO_TRANSLATOR_API_KEY"
	case translation.ErrCodeQuota:
		return "账户余额不足，充值后重试"
	case translation.ErrCodeRateLimit:
		return "请求过于频繁，稍后重试或减小 chunk_size"
	case translation.ErrCodeNetwork:
		return "检查网络连接、base_url 和 proxy_url"
	case translation.ErrCodeConfig:
		return "使用 po-translator config show 查看当前配置"
	case translation.ErrCodeCountMismatch, translation.ErrCodeResponseParse:
		return "模型没有按要求逐行返回译文，可以换一个模型或减小 chunk_size"
	case translation.ErrCodeCancelled:
		return "本次翻译没有写入任何结果"
	default:
		return ""
	}
}

func printTitle(w io.Writer, title string) {
	titleColor.Fprintln(w, title)
	titleColor.Fprintln(w, strings.Repeat("=", 60))
}

func printSection(w io.Writer, title string) {
	fmt.Fprintln(w)
	sectionColor.Fprintln(w, title)
}

func printKV(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "  %s: %v\n", key, value)
}

func newTable(w io.Writer) table.Writer {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleLight)
	tw.Style().Format.Header = text.FormatDefault
	return tw
}

// formatNumber 千分位格式化
func formatNumber(n int) string {
	return numberPrinter.Sprintf("%d", n)
}
