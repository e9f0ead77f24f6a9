package config

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 25, cfg.ChunkSize)
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, time.Second, cfg.RetryInitialDelay)
	assert.Equal(t, "zh-Hans", cfg.TargetLang)
}

func TestLoadConfigFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `provider: moonshot
model: kimi-k2-turbo-preview
chunk_size: 10
retry_initial_delay: 500ms
request_timeout: 30s
data_dir: /tmp/po-data
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, used, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, "moonshot", cfg.Provider)
	assert.Equal(t, "kimi-k2-turbo-preview", cfg.Model)
	assert.Equal(t, 10, cfg.ChunkSize)
	assert.Equal(t, 500*time.Millisecond, cfg.RetryInitialDelay)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	// 未出现在文件中的键使用默认值
	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, "resty", cfg.Transport)
	assert.Equal(t, filepath.Join("/tmp/po-data", "tm.json"), cfg.TMPath())
	assert.Equal(t, filepath.Join("/tmp/po-data", "plugins"), cfg.PluginsPath())
}

func TestLoadConfigEnvOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("model: deepseek-chat\n"), 0o644))
	t.Setenv("PO_TRANSLATOR_MODEL", "deepseek-reasoner")
	t.Setenv("PO_TRANSLATOR_API_KEY", "sk-env")

	cfg, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "deepseek-reasoner", cfg.Model)
	assert.Equal(t, "sk-env", cfg.APIKey)
}

func TestLoadConfigMissingExplicitFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.yaml")
	cfg, used, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, path, used)
	assert.Equal(t, NewDefaultConfig().Model, cfg.Model)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: [unclosed\n"), 0o644))

	_, _, err := LoadConfig(path)
	require.Error(t, err)
	assert.True(t, translation.Is(err, translation.ErrCodeConfig))
}

func TestSaveAndReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := NewDefaultConfig()
	cfg.Provider = "zhipuai"
	cfg.Model = "glm-4.7-flash"
	cfg.RequestTimeout = 45 * time.Second
	require.NoError(t, SaveConfig(cfg, path))

	loaded, _, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "zhipuai", loaded.Provider)
	assert.Equal(t, "glm-4.7-flash", loaded.Model)
	assert.Equal(t, 45*time.Second, loaded.RequestTimeout)
}

func TestConfigSet(t *testing.T) {
	testCases := []struct {
		key   string
		value string
		check func(t *testing.T, cfg *Config)
	}{
		{"chunk_size", "10", func(t *testing.T, cfg *Config) { assert.Equal(t, 10, cfg.ChunkSize) }},
		{"request_timeout", "1m", func(t *testing.T, cfg *Config) { assert.Equal(t, time.Minute, cfg.RequestTimeout) }},
		{"debug", "true", func(t *testing.T, cfg *Config) { assert.True(t, cfg.Debug) }},
		{"model", "gpt-4o", func(t *testing.T, cfg *Config) { assert.Equal(t, "gpt-4o", cfg.Model) }},
	}
	for _, tc := range testCases {
		t.Run(tc.key, func(t *testing.T) {
			cfg := NewDefaultConfig()
			require.NoError(t, cfg.Set(tc.key, tc.value))
			tc.check(t, cfg)

			got, ok := cfg.Get(tc.key)
			assert.True(t, ok)
			assert.NotEmpty(t, got)
		})
	}

	err := NewDefaultConfig().Set("unknown_key", "x")
	assert.True(t, translation.Is(err, translation.ErrCodeConfig))
}

func TestValidate(t *testing.T) {
	testCases := []struct {
		name   string
		mutate func(cfg *Config)
	}{
		{"空供应商", func(cfg *Config) { cfg.Provider = "" }},
		{"空模型", func(cfg *Config) { cfg.Model = " " }},
		{"批次大小", func(cfg *Config) { cfg.ChunkSize = 0 }},
		{"尝试次数", func(cfg *Config) { cfg.MaxAttempts = -1 }},
		{"传输实现", func(cfg *Config) { cfg.Transport = "grpc" }},
		{"日志格式", func(cfg *Config) { cfg.LogFormat = "xml" }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tc.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.True(t, translation.Is(err, translation.ErrCodeConfig))
		})
	}
}

func TestStoreUpdateIsAtomic(t *testing.T) {
	store := NewStore(NewDefaultConfig(), filepath.Join(t.TempDir(), "config.yaml"))

	// 校验失败时不生效
	err := store.Update(func(draft *Config) error {
		draft.Model = "changed"
		draft.ChunkSize = 0
		return nil
	})
	require.Error(t, err)
	assert.Equal(t, "deepseek-chat", store.Get().Model)

	require.NoError(t, store.Update(func(draft *Config) error {
		return draft.Set("model", "deepseek-reasoner")
	}))
	assert.Equal(t, "deepseek-reasoner", store.Get().Model)

	// 修改 Get 返回的副本不影响存储
	snapshot := store.Get()
	snapshot.Model = "mutated"
	assert.Equal(t, "deepseek-reasoner", store.Get().Model)

	require.NoError(t, store.Save())
	loaded, _, err := LoadConfig(store.Path())
	require.NoError(t, err)
	assert.Equal(t, "deepseek-reasoner", loaded.Model)
}

func TestStoreConcurrentUpdates(t *testing.T) {
	store := NewStore(NewDefaultConfig(), "")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = store.Update(func(draft *Config) error {
				draft.ChunkSize++
				return nil
			})
			_ = store.Get()
		}()
	}
	wg.Wait()
	assert.Equal(t, 25+20, store.Get().ChunkSize)
}

func TestRetryAndClientConfig(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.MaxAttempts = 5
	cfg.RetryInitialDelay = 2 * time.Second

	rc := cfg.RetryConfig()
	assert.Equal(t, 5, rc.MaxAttempts)
	assert.Equal(t, 2*time.Second, rc.InitialDelay)

	cc := cfg.ClientConfig("https://api.deepseek.com/v1")
	assert.Equal(t, "https://api.deepseek.com/v1", cc.BaseURL)
	cfg.BaseURL = "http://localhost:8080/v1"
	assert.Equal(t, "http://localhost:8080/v1", cfg.ClientConfig("https://api.deepseek.com/v1").BaseURL)
}
