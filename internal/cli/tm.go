package cli

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
)

func newTMCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tm",
		Short: "管理翻译记忆库",
	}

	cmd.AddCommand(newTMStatsCommand(a))
	cmd.AddCommand(newTMClearCommand(a))
	cmd.AddCommand(newTMMergeCommand(a))
	cmd.AddCommand(newTMSearchCommand(a))
	return cmd
}

func newTMStatsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "显示记忆库统计",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.store.Get()
			memory, err := a.loadMemory(cfg)
			if err != nil {
				return err
			}

			st := memory.Stats()
			seeds := 0
			for _, e := range memory.Entries() {
				if e.Seed {
					seeds++
				}
			}

			out := cmd.OutOrStdout()
			printTitle(out, "翻译记忆库")
			printKV(out, "文件", cfg.TMPath())
			printKV(out, "条目", fmt.Sprintf("%s / %s", formatNumber(memory.Len()), formatNumber(memory.Capacity())))
			printKV(out, "内置词条", seeds)
			printKV(out, "命中", formatNumber(st.Hits))
			printKV(out, "未命中", formatNumber(st.Misses))
			printKV(out, "命中率", fmt.Sprintf("%.1f%%", memory.HitRate()*100))
			if updated := memory.LastUpdated(); !updated.IsZero() {
				printKV(out, "最后更新", updated.Local().Format("2006-01-02 15:04:05"))
			}
			return nil
		},
	}
}

func newTMClearCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "清空记忆库（包括内置词条）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.store.Get()
			memory, err := a.loadMemory(cfg)
			if err != nil {
				return err
			}
			removed := memory.Len()
			memory.Clear()
			if err := memory.Save(cfg.TMPath()); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✅ 已清空 %d 条记录\n", removed)
			return nil
		},
	}
}

func newTMMergeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "merge-builtins",
		Short: "把内置词条合并进记忆库，不覆盖已有译文",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.store.Get()
			memory, err := a.loadMemory(cfg)
			if err != nil {
				return err
			}
			added := memory.MergeBuiltins()
			if err := memory.Save(cfg.TMPath()); err != nil {
				return err
			}
			successColor.Fprintf(cmd.OutOrStdout(), "✅ 新增 %d 条内置词条，当前共 %d 条\n", added, memory.Len())
			return nil
		},
	}
}

func newTMSearchCommand(a *app) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "模糊搜索记忆库",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			memory, err := a.loadMemory(a.store.Get())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			results := memory.Search(args[0], limit)
			if len(results) == 0 {
				warnColor.Fprintf(out, "没有匹配 %q 的记录\n", args[0])
				return nil
			}

			tw := newTable(out)
			tw.AppendHeader([]any{"原文", "语言", "译文", "内置"})
			for _, e := range results {
				text, lang := splitKey(e.Key)
				seed := ""
				if e.Seed {
					seed = "✓"
				}
				tw.AppendRow([]any{runewidth.Truncate(text, 40, "…"), lang, runewidth.Truncate(e.Translation, 40, "…"), seed})
			}
			tw.Render()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "最多显示的条数")
	return cmd
}

// splitKey 拆分 text|lang 形式的记忆库键
func splitKey(key string) (string, string) {
	i := strings.LastIndex(key, "|")
	if i < 0 {
		return key, ""
	}
	return key[:i], key[i+1:]
}
