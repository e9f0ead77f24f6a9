package cli

import (
	"fmt"
	"strings"

	"github.com/nerdneilsfield/go-po-translator/internal/config"
	"github.com/nerdneilsfield/go-po-translator/internal/stats"
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"
	pstats "github.com/nerdneilsfield/go-po-translator/pkg/providers/stats"
	"github.com/nerdneilsfield/go-po-translator/pkg/tm"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/nerdneilsfield/go-po-translator/pkg/translator"
	"go.uber.org/zap"
)

// session 一次命令用到的引擎和本地数据
type session struct {
	cfg      *config.Config
	registry *providers.Registry
	// descriptor 为空表示供应商不在目录中（自定义 base_url）
	descriptor *providers.Descriptor
	memory     *tm.Memory
	terms      *translator.TermLibrary
	usage      *stats.Database
	requests   *pstats.StatsManager
	engine     *translator.BatchTranslator
}

// loadRegistry 内置目录加插件目录
func (a *app) loadRegistry(cfg *config.Config) *providers.Registry {
	registry := providers.NewBuiltinRegistry()
	loaded, err := registry.LoadPlugins(cfg.PluginsPath(), a.log.Zap())
	if err != nil {
		a.log.Warn("加载插件失败", zap.String("dir", cfg.PluginsPath()), zap.Error(err))
	} else if loaded > 0 {
		a.log.Info("已加载插件供应商", zap.Int("count", loaded))
	}
	return registry
}

// resolveProvider 检查供应商和模型是否在目录中
//
// 供应商不在目录中但配置了 base_url 时按自定义供应商处理，不计算费用。
func (a *app) resolveProvider(cfg *config.Config, registry *providers.Registry) (*providers.Descriptor, error) {
	d, err := registry.Get(cfg.Provider)
	if err != nil {
		if cfg.BaseURL != "" {
			a.log.Warn("供应商不在目录中，按自定义供应商处理，不计算费用",
				zap.String("provider", cfg.Provider),
				zap.String("base_url", cfg.BaseURL))
			return nil, nil
		}
		if suggestions := registry.Suggest(cfg.Provider, cfg.Model); len(suggestions) > 0 {
			return nil, translation.NewConfigError(
				fmt.Sprintf("供应商不存在: %s，是否想使用: %s", cfg.Provider, strings.Join(suggestions, ", ")), nil)
		}
		return nil, err
	}
	if _, err := registry.Model(cfg.Provider, cfg.Model); err != nil {
		return nil, err
	}
	return &d, nil
}

// pricingSource 自定义供应商没有价格
func (s *session) pricingSource() cost.PricingSource {
	if s.descriptor == nil {
		return nil
	}
	return s.registry
}

func (a *app) loadMemory(cfg *config.Config) (*tm.Memory, error) {
	return tm.Load(cfg.TMPath(), tm.WithCapacity(cfg.TMCapacity), tm.WithLogger(a.log.Zap()))
}

// openSession 校验配置并准备记忆库、术语库、用量库和翻译引擎
//
// 用量库打不开只记录警告，翻译照常进行。
func (a *app) openSession(withEngine bool) (*session, error) {
	cfg := a.store.Get()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &session{cfg: cfg, registry: a.loadRegistry(cfg)}

	descriptor, err := a.resolveProvider(cfg, s.registry)
	if err != nil {
		return nil, err
	}
	s.descriptor = descriptor

	if s.memory, err = a.loadMemory(cfg); err != nil {
		return nil, err
	}
	if s.terms, err = translator.LoadTermLibrary(cfg.TermLibraryPath(), a.log.Zap()); err != nil {
		a.log.Warn("加载术语库失败，不使用风格偏好", zap.Error(err))
		s.terms = translator.NewTermLibrary(a.log.Zap())
	}

	if !withEngine {
		return s, nil
	}

	a.openUsage(s)

	defaultURL := ""
	if descriptor != nil {
		defaultURL = descriptor.DefaultURL
	}
	client, err := openai.New(cfg.ClientConfig(defaultURL))
	if err != nil {
		s.Close()
		return nil, err
	}
	s.requests = pstats.NewStatsManager(a.log.Zap())
	client = pstats.NewStatisticsMiddleware(client, s.requests, cfg.Provider, cfg.Model)

	options := []translator.Option{
		translator.WithMemory(s.memory),
		translator.WithProviderModel(cfg.Provider, cfg.Model),
		translator.WithTargetLanguage(cfg.TargetLang),
		translator.WithSystemPrompt(cfg.SystemPrompt),
		translator.WithTermLibrary(s.terms),
		translator.WithChunkSize(cfg.ChunkSize),
		translator.WithRetryConfig(cfg.RetryConfig()),
		translator.WithLogger(a.log.Zap()),
	}
	if source := s.pricingSource(); source != nil {
		options = append(options, translator.WithPricing(source))
	}
	if s.usage != nil {
		options = append(options, translator.WithUsageRecorder(s.usage))
	}

	if s.engine, err = translator.New(client, options...); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// openUsage 打开用量数据库，失败时 s.usage 保持为空
func (a *app) openUsage(s *session) {
	if s.usage != nil {
		return
	}
	usage, err := stats.NewDatabase(s.cfg.UsageDBPath(), a.log.Zap())
	if err != nil {
		a.log.Warn("打开用量数据库失败，本次不记录用量", zap.Error(err))
		return
	}
	s.usage = usage
}

// saveMemory 保存记忆库，失败只是警告
func (a *app) saveMemory(s *session) bool {
	if err := s.memory.Save(s.cfg.TMPath()); err != nil {
		a.log.Warn("保存翻译记忆库失败", zap.String("path", s.cfg.TMPath()), zap.Error(err))
		return false
	}
	return true
}

// Close 关闭用量数据库
func (s *session) Close() {
	if s.usage != nil {
		_ = s.usage.Close()
		s.usage = nil
	}
}
