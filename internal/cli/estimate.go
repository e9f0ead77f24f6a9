package cli

import (
	"fmt"

	"github.com/nerdneilsfield/go-po-translator/internal/pofile"
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/spf13/cobra"
)

func newEstimateCommand(a *app) *cobra.Command {
	var (
		cacheRatio float64
		lang       string
	)

	cmd := &cobra.Command{
		Use:   "estimate <input.po>",
		Short: "预估翻译 PO 文件的费用",
		Long: `按待翻译文本的字符数预估费用：输入 token 约为字符数/4，输出按与输入相同估算。
记忆库已有的译文不计入。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if cacheRatio < 0 || cacheRatio > 1 {
				return translation.NewConfigError(fmt.Sprintf("--cache-ratio 必须在 0 到 1 之间，当前为 %v", cacheRatio), nil)
			}

			po, err := pofile.ParseFile(args[0])
			if err != nil {
				return fmt.Errorf("读取 PO 文件失败: %w", err)
			}

			s, err := a.openSession(false)
			if err != nil {
				return err
			}
			defer s.Close()

			source := s.pricingSource()
			if source == nil {
				return translation.NewConfigError(fmt.Sprintf("供应商 %s 不在目录中，无法预估费用", s.cfg.Provider), nil)
			}

			target := targetLanguage(lang, po, s.cfg.TargetLang)
			seen := make(map[string]bool)
			pending, hits, chars := 0, 0, 0
			for _, text := range engineTexts(a.pendingEntries(po)) {
				if seen[text] {
					continue
				}
				seen[text] = true
				if s.memory.Contains(text, target) {
					hits++
					continue
				}
				pending++
				chars += len([]rune(text))
			}

			b, err := cost.NewCalculator(source).EstimateFor(s.cfg.Provider, s.cfg.Model, chars, cacheRatio)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			printTitle(out, "费用预估")
			printKV(out, "📄 文件", args[0])
			printKV(out, "🤖 模型", s.cfg.Provider+"/"+s.cfg.Model)
			printKV(out, "🌐 目标语言", target)

			printSection(out, "📊 文本")
			printKV(out, "去重后待翻译", pending)
			printKV(out, "记忆库可命中", hits)
			printKV(out, "字符数", formatNumber(chars))

			printSection(out, "💰 费用")
			tw := newTable(out)
			tw.AppendHeader([]any{"项目", "Tokens", "费用"})
			tw.AppendRow([]any{"输入（未缓存）", formatNumber(b.UncachedTokens), cost.Format(b.InputCost)})
			tw.AppendRow([]any{"输入（缓存命中）", formatNumber(b.CacheReadTokens), cost.Format(b.CacheReadCost)})
			tw.AppendRow([]any{"输出", formatNumber(b.CompletionTokens), cost.Format(b.OutputCost)})
			tw.AppendFooter([]any{"合计", formatNumber(b.PromptTokens + b.CompletionTokens), cost.Format(b.TotalCost)})
			tw.Render()

			if b.CacheSavings > 0 {
				hintColor.Fprintf(out, "缓存节省约 %s\n", cost.Format(b.CacheSavings))
			}
			return nil
		},
	}

	cmd.Flags().Float64Var(&cacheRatio, "cache-ratio", 0, "预计输入缓存命中比例 (0~1)")
	cmd.Flags().StringVarP(&lang, "lang", "l", "", "目标语言，用于查询记忆库")

	return cmd
}
