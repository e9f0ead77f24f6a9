package cli

import (
	"fmt"
	"io"

	"github.com/nerdneilsfield/go-po-translator/internal/config"
	"github.com/nerdneilsfield/go-po-translator/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// app 所有子命令共享的状态，在 PersistentPreRunE 中初始化
type app struct {
	cfgFile   string
	debugMode bool

	store *config.Store
	log   logger.Logger
}

// NewRootCommand 创建根命令
func NewRootCommand(version, commit, buildDate string) *cobra.Command {
	a := &app{log: logger.NewNop()}

	rootCmd := &cobra.Command{
		Use:   "po-translator",
		Short: "使用 AI 批量翻译 gettext PO 文件",
		Long: `po-translator 使用 OpenAI 兼容的大模型批量翻译 PO 文件。

翻译流程：先查询本地翻译记忆库，再对未命中的文本去重，按批次请求 AI，
最后把译文回填到所有位置并学习简短的术语。每次调用的 token 用量和花费
会记录到本地用量数据库中。

内置供应商:
  - openai:   OpenAI GPT 模型
  - deepseek: DeepSeek
  - moonshot: Moonshot Kimi
  - zhipuai:  智谱 GLM
  - minimax:  MiniMax
  - ollama:   本地 Ollama 服务（免费）
其他供应商可以通过插件目录中的 plugin.toml 添加。`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = a.log.Zap().Sync()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "", "配置文件路径（默认 $HOME/.po-translator.yaml）")
	rootCmd.PersistentFlags().BoolVar(&a.debugMode, "debug", false, "输出调试日志")

	rootCmd.AddCommand(newTranslateCommand(a))
	rootCmd.AddCommand(newEstimateCommand(a))
	rootCmd.AddCommand(newTMCommand(a))
	rootCmd.AddCommand(newProvidersCommand(a))
	rootCmd.AddCommand(newUsageCommand(a))
	rootCmd.AddCommand(newConfigCommand(a))

	return rootCmd
}

// setup 加载配置并创建日志记录器
func (a *app) setup(cmd *cobra.Command) error {
	cfg, path, err := config.LoadConfig(a.cfgFile)
	if err != nil {
		return err
	}
	if a.debugMode {
		cfg.Debug = true
	}

	opts := logger.Options{Debug: cfg.Debug, Format: cfg.LogFormat}
	if cfg.LogFile != "" {
		opts.OutputPaths = []string{cfg.LogFile}
	}
	log, err := logger.New(opts)
	if err != nil {
		return fmt.Errorf("初始化日志系统失败: %w", err)
	}

	a.store = config.NewStore(cfg, path)
	a.log = logger.Wrap(log).With(zap.String("command", cmd.Name()))
	a.log.Debug("配置已加载",
		zap.String("path", path),
		zap.String("provider", cfg.Provider),
		zap.String("model", cfg.Model),
		logger.APIKey(cfg.APIKey))
	return nil
}

// Execute 运行根命令，出错时打印彩色错误信息并返回退出码
func Execute(rootCmd *cobra.Command, stderr io.Writer) int {
	if err := rootCmd.Execute(); err != nil {
		PrintError(stderr, err)
		return 1
	}
	return 0
}
