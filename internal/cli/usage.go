package cli

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-po-translator/internal/stats"
	"github.com/spf13/cobra"
)

type usageOptions struct {
	days   int
	recent int
	reset  bool
	yes    bool
}

func newUsageCommand(a *app) *cobra.Command {
	opts := &usageOptions{}

	cmd := &cobra.Command{
		Use:   "usage",
		Short: "查看 AI 调用用量和翻译任务记录",
		Long: `查看本地用量数据库中的调用和任务记录，包括:
- 总览
- 按供应商/模型汇总的 token 和费用
- 最近几天的每日用量
- 最近的翻译任务

示例:
  po-translator usage
  po-translator usage --days 30 --recent 20
  po-translator usage --reset`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runUsage(cmd, opts)
		},
	}

	cmd.Flags().IntVar(&opts.days, "days", 7, "每日用量显示的天数")
	cmd.Flags().IntVar(&opts.recent, "recent", 10, "显示最近的翻译任务数")
	cmd.Flags().BoolVar(&opts.reset, "reset", false, "清空所有用量记录（需要确认）")
	cmd.Flags().BoolVarP(&opts.yes, "yes", "y", false, "跳过确认")

	return cmd
}

func (a *app) runUsage(cmd *cobra.Command, opts *usageOptions) error {
	cfg := a.store.Get()
	db, err := stats.NewDatabase(cfg.UsageDBPath(), a.log.Zap())
	if err != nil {
		return fmt.Errorf("打开用量数据库失败: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	if opts.reset {
		if !opts.yes && !confirm(cmd, "确定要清空所有用量记录吗？[y/N] ") {
			warnColor.Fprintln(out, "已取消")
			return nil
		}
		if err := db.Reset(ctx); err != nil {
			return fmt.Errorf("清空用量记录失败: %w", err)
		}
		successColor.Fprintln(out, "✅ 用量记录已清空")
		return nil
	}

	v := stats.NewVisualizer(db, out)
	if err := v.ShowOverview(ctx); err != nil {
		return err
	}
	if err := v.ShowSummary(ctx); err != nil {
		return err
	}
	if err := v.ShowDaily(ctx, opts.days); err != nil {
		return err
	}
	return v.ShowRecentRuns(ctx, opts.recent)
}

// confirm 从标准输入读取 y/yes
func confirm(cmd *cobra.Command, prompt string) bool {
	fmt.Fprint(cmd.OutOrStdout(), prompt)
	answer, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && answer == "" {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
