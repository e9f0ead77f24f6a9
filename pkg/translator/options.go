package translator

import (
	"github.com/nerdneilsfield/go-po-translator/pkg/cost"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-po-translator/pkg/tm"
	"go.uber.org/zap"
)

// DefaultChunkSize 每个请求最多包含的去重后文本数
const DefaultChunkSize = 25

// Option 定义翻译器选项
type Option func(*translatorOptions)

// translatorOptions 包含翻译器选项
type translatorOptions struct {
	memory       *tm.Memory
	pricing      cost.PricingSource
	provider     string
	model        string
	targetLang   string
	systemPrompt string
	termLibrary  *TermLibrary
	chunkSize    int
	retryConfig  retry.Config
	logger       *zap.Logger
	recorder     UsageRecorder
}

// WithMemory 设置翻译记忆库，未设置时使用带内置词条的新记忆库
func WithMemory(memory *tm.Memory) Option {
	return func(opts *translatorOptions) {
		opts.memory = memory
	}
}

// WithPricing 设置定价来源，设置后每次调用都会计算费用
func WithPricing(source cost.PricingSource) Option {
	return func(opts *translatorOptions) {
		opts.pricing = source
	}
}

// WithProviderModel 设置供应商和模型
func WithProviderModel(provider, model string) Option {
	return func(opts *translatorOptions) {
		opts.provider = provider
		opts.model = model
	}
}

// WithTargetLanguage 设置默认目标语言
func WithTargetLanguage(lang string) Option {
	return func(opts *translatorOptions) {
		opts.targetLang = lang
	}
}

// WithSystemPrompt 设置自定义系统提示词
func WithSystemPrompt(prompt string) Option {
	return func(opts *translatorOptions) {
		opts.systemPrompt = prompt
	}
}

// WithTermLibrary 设置术语库，其风格总结会追加到系统提示词
func WithTermLibrary(library *TermLibrary) Option {
	return func(opts *translatorOptions) {
		opts.termLibrary = library
	}
}

// WithChunkSize 设置批次大小
func WithChunkSize(size int) Option {
	return func(opts *translatorOptions) {
		if size > 0 {
			opts.chunkSize = size
		}
	}
}

// WithRetryConfig 设置重试策略
func WithRetryConfig(config retry.Config) Option {
	return func(opts *translatorOptions) {
		opts.retryConfig = config
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger *zap.Logger) Option {
	return func(opts *translatorOptions) {
		if logger != nil {
			opts.logger = logger
		}
	}
}

// WithUsageRecorder 设置用量记录器
func WithUsageRecorder(recorder UsageRecorder) Option {
	return func(opts *translatorOptions) {
		opts.recorder = recorder
	}
}
