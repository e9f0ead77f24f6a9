package test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-po-translator/internal/config"
	"github.com/stretchr/testify/require"
)

// TestAPIKey 测试配置使用的密钥
const TestAPIKey = "sk-test-1234567890abcdef"

// CreateTestConfig 创建指向 baseURL 的测试配置，数据目录位于临时目录
func CreateTestConfig(t *testing.T, baseURL string) *config.Config {
	t.Helper()
	cfg := config.NewDefaultConfig()
	cfg.Provider = "deepseek"
	cfg.Model = "deepseek-chat"
	cfg.APIKey = TestAPIKey
	cfg.BaseURL = baseURL
	cfg.TargetLang = "zh-Hans"
	cfg.MaxAttempts = 2
	cfg.RetryInitialDelay = time.Millisecond
	cfg.DataDir = filepath.Join(t.TempDir(), "data")
	return cfg
}

// WriteTestConfig 把配置写入临时 YAML 文件并返回路径
func WriteTestConfig(t *testing.T, cfg *config.Config) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, config.SaveConfig(cfg, path))
	return path
}
