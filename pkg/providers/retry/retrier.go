// Package retry 提供带指数退避的重试执行器
package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
)

// Config 重试配置
type Config struct {
	// 总尝试次数（包含第一次）
	MaxAttempts int `json:"max_attempts" mapstructure:"max_attempts"`

	// 第一次重试前的等待时间
	InitialDelay time.Duration `json:"initial_delay" mapstructure:"initial_delay"`

	// 退避因子（指数退避）
	BackoffFactor float64 `json:"backoff_factor" mapstructure:"backoff_factor"`

	// 最大延迟时间
	MaxDelay time.Duration `json:"max_delay" mapstructure:"max_delay"`
}

// DefaultConfig 3 次尝试，间隔 1s、2s
func DefaultConfig() Config {
	return Config{
		MaxAttempts:   3,
		InitialDelay:  1 * time.Second,
		BackoffFactor: 2.0,
		MaxDelay:      30 * time.Second,
	}
}

// Retrier 重试执行器
type Retrier struct {
	config    Config
	retryable func(error) bool
	onRetry   func(attempt int, delay time.Duration, err error)
	sleep     func(ctx context.Context, d time.Duration) error
}

// Option 重试器选项
type Option func(*Retrier)

// WithClassifier 设置可重试判定，默认使用错误分类中的 Retry 标记
func WithClassifier(fn func(error) bool) Option {
	return func(r *Retrier) {
		if fn != nil {
			r.retryable = fn
		}
	}
}

// WithOnRetry 每次重试等待前回调
func WithOnRetry(fn func(attempt int, delay time.Duration, err error)) Option {
	return func(r *Retrier) {
		r.onRetry = fn
	}
}

// New 创建重试器
func New(config Config, opts ...Option) *Retrier {
	if config.MaxAttempts <= 0 {
		config.MaxAttempts = 1
	}
	r := &Retrier{
		config:    config,
		retryable: translation.IsRetryable,
		sleep:     sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config 返回配置
func (r *Retrier) Config() Config {
	return r.config
}

// Do 执行 fn，attempt 从 1 开始
//
// 只有可重试错误才会再次尝试，等待只发生在两次尝试之间；
// 上下文取消时返回 CANCELLED 错误。
func (r *Retrier) Do(ctx context.Context, fn func(attempt int) error) error {
	var lastErr error
	for attempt := 1; attempt <= r.config.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return translation.NewCancelledError(err)
		}

		lastErr = fn(attempt)
		if lastErr == nil {
			return nil
		}
		if !r.retryable(lastErr) || attempt == r.config.MaxAttempts {
			return lastErr
		}

		delay := r.Delay(attempt)
		if r.onRetry != nil {
			r.onRetry(attempt, delay, lastErr)
		}
		if err := r.sleep(ctx, delay); err != nil {
			return translation.NewCancelledError(err)
		}
	}
	return lastErr
}

// Delay 第 attempt 次失败后的等待时间: InitialDelay × factor^(attempt-1)
func (r *Retrier) Delay(attempt int) time.Duration {
	delay := r.config.InitialDelay
	if attempt > 1 {
		backoffFactor := r.config.BackoffFactor
		if backoffFactor <= 1.0 {
			backoffFactor = 2.0
		}
		delay = time.Duration(float64(delay) * math.Pow(backoffFactor, float64(attempt-1)))
	}
	if r.config.MaxDelay > 0 && delay > r.config.MaxDelay {
		delay = r.config.MaxDelay
	}
	return delay
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// IsNetworkError 判断是否为连接失败、超时等传输层错误
func IsNetworkError(err error) bool {
	if err == nil {
		return false
	}

	// 调用方主动取消不算网络错误
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	networkPatterns := []string{
		"connection refused",
		"connection reset",
		"connection timed out",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"no such host",
		"broken pipe",
		"i/o timeout",
		"eof",
	}
	for _, pattern := range networkPatterns {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
