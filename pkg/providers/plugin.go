package providers

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"go.uber.org/zap"
)

// SupportedAPIVersion 当前支持的插件 API 版本，插件主版本号必须一致
const SupportedAPIVersion = "1.0"

// PluginFileName 插件目录中的配置文件名
const PluginFileName = "plugin.toml"

// PluginConfig plugin.toml 的根结构
type PluginConfig struct {
	Plugin   PluginMeta     `toml:"plugin"`
	Provider PluginProvider `toml:"provider"`
	Models   ModelOverrides `toml:"models"`
}

// PluginMeta 插件元数据
type PluginMeta struct {
	ID          string `toml:"id"`
	Name        string `toml:"name"`
	Version     string `toml:"version"`
	APIVersion  string `toml:"api_version"`
	Description string `toml:"description"`
	Author      string `toml:"author"`
	Homepage    string `toml:"homepage"`
	License     string `toml:"license"`
}

// PluginProvider 插件声明的供应商
type PluginProvider struct {
	DisplayName   string        `toml:"display_name"`
	DefaultURL    string        `toml:"default_url"`
	DefaultModel  string        `toml:"default_model"`
	SupportsCache bool          `toml:"supports_cache"`
	Models        []PluginModel `toml:"models"`
}

// PluginModel 插件中的模型定义，缓存价格为 0 表示不支持
type PluginModel struct {
	ID               string  `toml:"id"`
	Name             string  `toml:"name"`
	ContextWindow    int     `toml:"context_window"`
	MaxOutputTokens  int     `toml:"max_output_tokens"`
	InputPrice       float64 `toml:"input_price"`
	OutputPrice      float64 `toml:"output_price"`
	CacheReadsPrice  float64 `toml:"cache_reads_price"`
	CacheWritesPrice float64 `toml:"cache_writes_price"`
	Recommended      bool    `toml:"recommended"`
	Description      string  `toml:"description"`
}

// ModelOverrides 模型覆盖配置
type ModelOverrides struct {
	Overrides        map[string]ModelOverride `toml:"overrides"`
	DisabledModels   []string                 `toml:"disabled_models"`
	RecommendedModel string                   `toml:"recommended_model"`
}

// ModelOverride 单个模型的覆盖项
type ModelOverride struct {
	Name        *string `toml:"name"`
	Description *string `toml:"description"`
	Recommended *bool   `toml:"recommended"`
}

// ParsePlugin 解析并校验插件配置
func ParsePlugin(data []byte) (*PluginConfig, error) {
	cfg := &PluginConfig{}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("TOML 格式解析失败: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("插件配置验证失败: %w", err)
	}
	return cfg, nil
}

// LoadPlugin 从文件加载插件配置
func LoadPlugin(path string) (*PluginConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取插件配置文件 %s: %w", path, err)
	}
	cfg, err := ParsePlugin(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Validate 校验插件配置
func (c *PluginConfig) Validate() error {
	if c.Plugin.ID == "" {
		return errors.New("插件 ID 不能为空")
	}
	for _, r := range c.Plugin.ID {
		if !(r >= 'a' && r <= 'z') && r != '_' && r != '-' {
			return errors.New("插件 ID 只能包含小写字母、下划线和连字符")
		}
	}
	if !isValidVersion(c.Plugin.Version) {
		return fmt.Errorf("插件版本格式无效: %s", c.Plugin.Version)
	}
	if !isValidVersion(c.Plugin.APIVersion) {
		return fmt.Errorf("API 版本格式无效: %s", c.Plugin.APIVersion)
	}

	if c.Provider.DisplayName == "" {
		return errors.New("供应商显示名称不能为空")
	}
	if c.Provider.DefaultURL == "" {
		return errors.New("默认 URL 不能为空")
	}
	if c.Provider.DefaultModel == "" {
		return errors.New("默认模型不能为空")
	}
	return nil
}

// isValidVersion 2~3 段数字版本号
func isValidVersion(version string) bool {
	parts := strings.Split(version, ".")
	if len(parts) < 2 || len(parts) > 3 {
		return false
	}
	for _, part := range parts {
		if _, err := strconv.ParseUint(part, 10, 32); err != nil {
			return false
		}
	}
	return true
}

// IsAPICompatible 主版本号相同即兼容
func (c *PluginConfig) IsAPICompatible(supported string) bool {
	major := func(v string) string {
		head, _, _ := strings.Cut(v, ".")
		return head
	}
	return major(c.Plugin.APIVersion) == major(supported)
}

// FullID 返回 id@version
func (c *PluginConfig) FullID() string {
	return c.Plugin.ID + "@" + c.Plugin.Version
}

// Descriptor 将插件转换为供应商描述，应用禁用和覆盖规则
func (c *PluginConfig) Descriptor() Descriptor {
	disabled := make(map[string]bool, len(c.Models.DisabledModels))
	for _, id := range c.Models.DisabledModels {
		disabled[id] = true
	}

	models := make([]ModelInfo, 0, len(c.Provider.Models))
	for _, pm := range c.Provider.Models {
		if disabled[pm.ID] {
			continue
		}
		m := ModelInfo{
			ID:              pm.ID,
			Name:            pm.Name,
			ContextWindow:   pm.ContextWindow,
			MaxOutputTokens: pm.MaxOutputTokens,
			InputPrice:      pm.InputPrice,
			OutputPrice:     pm.OutputPrice,
			SupportsCache:   c.Provider.SupportsCache,
			Recommended:     pm.Recommended,
			Description:     pm.Description,
		}
		if pm.CacheReadsPrice != 0 {
			m.CacheReadPrice = price(pm.CacheReadsPrice)
		}
		if pm.CacheWritesPrice != 0 {
			m.CacheWritePrice = price(pm.CacheWritesPrice)
		}
		if m.Name == "" {
			m.Name = m.ID
		}

		if o, ok := c.Models.Overrides[pm.ID]; ok {
			if o.Name != nil {
				m.Name = *o.Name
			}
			if o.Description != nil {
				m.Description = *o.Description
			}
			if o.Recommended != nil {
				m.Recommended = *o.Recommended
			}
		}
		if c.Models.RecommendedModel != "" && c.Models.RecommendedModel == pm.ID {
			m.Recommended = true
		}
		models = append(models, m)
	}

	return Descriptor{
		ID:           c.Plugin.ID,
		DisplayName:  c.Provider.DisplayName,
		DefaultURL:   c.Provider.DefaultURL,
		DefaultModel: c.Provider.DefaultModel,
		Models:       models,
		Source:       c.FullID(),
	}
}

// ScanPlugins 扫描插件目录下每个子目录的 plugin.toml
//
// 目录不存在时返回空列表；单个插件无效或 API 不兼容时记录日志并跳过。
func ScanPlugins(dir string, logger *zap.Logger) ([]*PluginConfig, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		logger.Debug("插件目录不存在", zap.String("dir", dir))
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("无法读取插件目录 %s: %w", dir, err)
	}

	var plugins []*PluginConfig
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name(), PluginFileName)
		if _, err := os.Stat(path); err != nil {
			continue
		}

		cfg, err := LoadPlugin(path)
		if err != nil {
			logger.Error("加载插件配置失败", zap.String("path", path), zap.Error(err))
			continue
		}
		if !cfg.IsAPICompatible(SupportedAPIVersion) {
			logger.Error("插件 API 版本不兼容",
				zap.String("plugin", cfg.Plugin.ID),
				zap.String("required", cfg.Plugin.APIVersion),
				zap.String("supported", SupportedAPIVersion))
			continue
		}

		logger.Info("发现插件", zap.String("name", cfg.Plugin.Name), zap.String("id", cfg.Plugin.ID))
		plugins = append(plugins, cfg)
	}

	logger.Info("插件扫描完成", zap.Int("count", len(plugins)))
	return plugins, nil
}

// LoadPlugins 扫描插件并注册到注册表，返回成功注册的数量
func (r *Registry) LoadPlugins(dir string, logger *zap.Logger) (int, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	plugins, err := ScanPlugins(dir, logger)
	if err != nil {
		return 0, err
	}

	loaded := 0
	for _, cfg := range plugins {
		if err := r.Register(cfg.Descriptor()); err != nil {
			logger.Warn("注册插件供应商失败", zap.String("plugin", cfg.FullID()), zap.Error(err))
			continue
		}
		loaded++
	}
	return loaded, nil
}
