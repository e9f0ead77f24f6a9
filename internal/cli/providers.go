package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newProvidersCommand(a *app) *cobra.Command {
	var pluginsDir string

	cmd := &cobra.Command{
		Use:   "providers",
		Short: "列出可用的供应商和模型价格",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.store.Get()
			if pluginsDir != "" {
				cfg.PluginsDir = pluginsDir
			}
			registry := a.loadRegistry(cfg)

			out := cmd.OutOrStdout()
			printTitle(out, "供应商目录")
			hintColor.Fprintf(out, "插件目录: %s\n", cfg.PluginsPath())

			for _, d := range registry.List() {
				printSection(out, fmt.Sprintf("%s (%s)", d.DisplayName, d.ID))
				printKV(out, "地址", d.DefaultURL)
				printKV(out, "来源", d.Source)

				tw := newTable(out)
				tw.AppendHeader([]any{"模型", "输入 $/1M", "输出 $/1M", "缓存读取 $/1M", "上下文", "备注"})
				for _, m := range d.Models {
					note := ""
					if m.ID == d.DefaultModel {
						note = "默认"
					}
					if m.Recommended {
						note += " ★"
					}
					cacheRead := "-"
					if m.CacheReadPrice != nil {
						cacheRead = fmt.Sprintf("%.3f", *m.CacheReadPrice)
					}
					tw.AppendRow([]any{
						m.ID,
						fmt.Sprintf("%.3f", m.InputPrice),
						fmt.Sprintf("%.3f", m.OutputPrice),
						cacheRead,
						formatNumber(m.ContextWindow),
						note,
					})
				}
				tw.Render()
			}

			a.log.Debug("列出供应商", zap.Int("count", len(registry.List())))
			return nil
		},
	}

	cmd.Flags().StringVar(&pluginsDir, "plugins", "", "插件目录（默认使用配置 plugins_dir）")
	return cmd
}
