package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options 日志选项
type Options struct {
	Debug bool
	// Format 为 "json"（默认）或 "console"
	Format string
	// OutputPaths 默认 stderr，避免与标准输出的进度条和表格混在一起
	OutputPaths []string
}

// New 按选项创建日志记录器
func New(opts Options) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	if opts.Debug {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	} else {
		config.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	if opts.Format == "console" {
		config.Encoding = "console"
	}
	if len(opts.OutputPaths) > 0 {
		config.OutputPaths = opts.OutputPaths
	}

	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeDuration = zapcore.StringDurationEncoder
	config.DisableStacktrace = true

	return config.Build()
}

// Logger 命令层使用的日志接口，Zap() 交给引擎各组件
type Logger interface {
	Debug(msg string, fields ...zapcore.Field)
	Info(msg string, fields ...zapcore.Field)
	Warn(msg string, fields ...zapcore.Field)
	Error(msg string, fields ...zapcore.Field)
	With(fields ...zapcore.Field) Logger
	Zap() *zap.Logger
}

// ZapLogger 是 Logger 接口的 Zap 实现
type ZapLogger struct {
	logger *zap.Logger
}

var _ Logger = (*ZapLogger)(nil)

// Wrap 包装已有的 zap.Logger
func Wrap(logger *zap.Logger) *ZapLogger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ZapLogger{logger: logger}
}

// NewNop 不输出任何内容的 Logger
func NewNop() *ZapLogger {
	return Wrap(zap.NewNop())
}

// Debug 记录调试级别的日志
func (l *ZapLogger) Debug(msg string, fields ...zapcore.Field) {
	l.logger.Debug(msg, fields...)
}

// Info 记录信息级别的日志
func (l *ZapLogger) Info(msg string, fields ...zapcore.Field) {
	l.logger.Info(msg, fields...)
}

// Warn 记录警告级别的日志
func (l *ZapLogger) Warn(msg string, fields ...zapcore.Field) {
	l.logger.Warn(msg, fields...)
}

// Error 记录错误级别的日志
func (l *ZapLogger) Error(msg string, fields ...zapcore.Field) {
	l.logger.Error(msg, fields...)
}

// With 返回带有附加字段的新 Logger
func (l *ZapLogger) With(fields ...zapcore.Field) Logger {
	return &ZapLogger{
		logger: l.logger.With(fields...),
	}
}

// Zap 返回底层的 zap.Logger，用于注入引擎各组件
func (l *ZapLogger) Zap() *zap.Logger {
	return l.logger
}

// MaskKey 隐藏 API Key 的中间部分：sk-1234567890abcdef → sk-1...cdef
func MaskKey(key string) string {
	if len(key) <= 8 {
		if key == "" {
			return ""
		}
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}

// APIKey 以脱敏形式记录 API Key
func APIKey(key string) zap.Field {
	return zap.String("api_key", MaskKey(key))
}
