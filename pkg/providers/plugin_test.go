package providers

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const samplePlugin = `
[plugin]
name = "Qwen"
id = "qianwen"
version = "1.0.0"
api_version = "1.0"
description = "通义千问"

[provider]
display_name = "通义千问"
default_url = "https://dashscope.aliyuncs.com/compatible-mode/v1"
default_model = "qwen-plus"
supports_cache = true

[[provider.models]]
id = "qwen-plus"
name = "Qwen Plus"
context_window = 131072
max_output_tokens = 8192
input_price = 0.4
output_price = 1.2
cache_reads_price = 0.16

[[provider.models]]
id = "qwen-max"
name = "Qwen Max"
context_window = 32768
max_output_tokens = 8192
input_price = 1.6
output_price = 6.4

[[provider.models]]
id = "qwen-old"
name = "Qwen Old"
input_price = 1.0
output_price = 1.0

[models]
disabled_models = ["qwen-old"]
recommended_model = "qwen-plus"

[models.overrides.qwen-max]
description = "旗舰模型"
`

func writePlugin(t *testing.T, dir, name, content string) {
	t.Helper()
	pluginDir := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(pluginDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pluginDir, PluginFileName), []byte(content), 0o644))
}

func TestParsePlugin(t *testing.T) {
	cfg, err := ParsePlugin([]byte(samplePlugin))
	require.NoError(t, err)
	assert.Equal(t, "qianwen@1.0.0", cfg.FullID())
	assert.True(t, cfg.IsAPICompatible("1.2"))
	assert.False(t, cfg.IsAPICompatible("2.0"))

	d := cfg.Descriptor()
	assert.Equal(t, "qianwen", d.ID)
	require.Len(t, d.Models, 2)

	plus, ok := d.Model("qwen-plus")
	require.True(t, ok)
	assert.True(t, plus.Recommended)
	assert.True(t, plus.SupportsCache)
	require.NotNil(t, plus.CacheReadPrice)
	assert.Equal(t, 0.16, *plus.CacheReadPrice)
	assert.Nil(t, plus.CacheWritePrice)

	flagship, ok := d.Model("qwen-max")
	require.True(t, ok)
	assert.Equal(t, "旗舰模型", flagship.Description)
	assert.False(t, flagship.Recommended)

	_, ok = d.Model("qwen-old")
	assert.False(t, ok)
}

func TestPluginValidation(t *testing.T) {
	testCases := []struct {
		name    string
		mutate  func(*PluginConfig)
		wantErr bool
	}{
		{"有效", func(*PluginConfig) {}, false},
		{"大写ID", func(c *PluginConfig) { c.Plugin.ID = "Invalid-ID" }, true},
		{"数字ID", func(c *PluginConfig) { c.Plugin.ID = "qwen2" }, true},
		{"空ID", func(c *PluginConfig) { c.Plugin.ID = "" }, true},
		{"单段版本", func(c *PluginConfig) { c.Plugin.Version = "1" }, true},
		{"四段版本", func(c *PluginConfig) { c.Plugin.Version = "1.0.0.1" }, true},
		{"非数字版本", func(c *PluginConfig) { c.Plugin.APIVersion = "1.x" }, true},
		{"空URL", func(c *PluginConfig) { c.Provider.DefaultURL = "" }, true},
		{"空模型", func(c *PluginConfig) { c.Provider.DefaultModel = "" }, true},
		{"空显示名", func(c *PluginConfig) { c.Provider.DisplayName = "" }, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := PluginConfig{
				Plugin: PluginMeta{ID: "test_provider", Name: "Test", Version: "1.0.0", APIVersion: "1.0"},
				Provider: PluginProvider{
					DisplayName:  "Test Provider",
					DefaultURL:   "https://api.test.com/v1",
					DefaultModel: "test-model",
				},
			}
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestScanPluginsSkipsInvalid(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "qianwen", samplePlugin)
	writePlugin(t, dir, "broken", "[plugin]\nid = \"BAD\"\n")
	writePlugin(t, dir, "future", `
[plugin]
name = "Future"
id = "future"
version = "1.0"
api_version = "2.0"

[provider]
display_name = "Future"
default_url = "https://future.example/v1"
default_model = "f1"
`)
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "empty"), 0o755))

	plugins, err := ScanPlugins(dir, zap.NewNop())
	require.NoError(t, err)
	require.Len(t, plugins, 1)
	assert.Equal(t, "qianwen", plugins[0].Plugin.ID)
}

func TestScanPluginsMissingDir(t *testing.T) {
	plugins, err := ScanPlugins(filepath.Join(t.TempDir(), "nope"), nil)
	require.NoError(t, err)
	assert.Empty(t, plugins)
}

func TestRegistryLoadPlugins(t *testing.T) {
	dir := t.TempDir()
	writePlugin(t, dir, "qianwen", samplePlugin)

	r := NewBuiltinRegistry()
	n, err := r.LoadPlugins(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	p, err := r.Pricing("qianwen", "qwen-max")
	require.NoError(t, err)
	assert.Equal(t, 1.6, p.Input)

	// 重复加载时 ID 冲突，不再注册
	n, err = r.LoadPlugins(dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
