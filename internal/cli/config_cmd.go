package cli

import (
	"fmt"

	"github.com/nerdneilsfield/go-po-translator/internal/config"
	"github.com/nerdneilsfield/go-po-translator/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "查看和修改配置",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "显示当前生效的配置（API 密钥已隐藏）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := a.store.Get()
			out := cmd.OutOrStdout()

			printTitle(out, "当前配置")
			hintColor.Fprintf(out, "配置文件: %s\n\n", a.store.Path())

			tw := newTable(out)
			tw.AppendHeader([]any{"配置项", "值"})
			for _, key := range config.Keys() {
				value, _ := cfg.Get(key)
				if key == "api_key" {
					value = logger.MaskKey(value)
				}
				tw.AppendRow([]any{key, value})
			}
			tw.Render()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "修改一个配置项并写入配置文件",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			key, value := args[0], args[1]
			err := a.store.Update(func(draft *config.Config) error {
				return draft.Set(key, value)
			})
			if err != nil {
				return err
			}
			if err := a.store.Save(); err != nil {
				return fmt.Errorf("保存配置失败: %w", err)
			}

			shown := value
			if key == "api_key" {
				shown = logger.MaskKey(value)
			}
			a.log.Info("配置已更新", zap.String("key", key), zap.String("path", a.store.Path()))
			successColor.Fprintf(cmd.OutOrStdout(), "✅ %s = %s\n", key, shown)
			return nil
		},
	})

	return cmd
}
