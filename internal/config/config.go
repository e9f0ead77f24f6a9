package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/nerdneilsfield/go-po-translator/pkg/providers/openai"
	"github.com/nerdneilsfield/go-po-translator/pkg/providers/retry"
	"github.com/nerdneilsfield/go-po-translator/pkg/tm"
	"github.com/nerdneilsfield/go-po-translator/pkg/translation"
	"github.com/spf13/viper"
)

const (
	// ConfigName 配置文件名（不含扩展名）
	ConfigName = ".po-translator"
	// EnvPrefix 环境变量前缀，例如 PO_TRANSLATOR_API_KEY
	EnvPrefix = "PO_TRANSLATOR"
)

// Config 保存翻译器的所有配置
type Config struct {
	Provider   string `mapstructure:"provider"`
	Model      string `mapstructure:"model"`
	APIKey     string `mapstructure:"api_key"`
	BaseURL    string `mapstructure:"base_url"` // 为空时使用供应商默认地址
	TargetLang string `mapstructure:"target_lang"`
	Transport  string `mapstructure:"transport"` // resty | go-openai | openai-sdk

	ChunkSize         int           `mapstructure:"chunk_size"`
	MaxAttempts       int           `mapstructure:"max_attempts"`
	RetryInitialDelay time.Duration `mapstructure:"retry_initial_delay"`
	RequestTimeout    time.Duration `mapstructure:"request_timeout"`
	ProxyURL          string        `mapstructure:"proxy_url"`

	SystemPrompt string `mapstructure:"system_prompt"` // 为空时使用内置提示词
	TMCapacity   int    `mapstructure:"tm_capacity"`

	DataDir    string `mapstructure:"data_dir"`    // tm.json、term_library.json、usage.db
	PluginsDir string `mapstructure:"plugins_dir"` // 为空时使用 data_dir/plugins

	Debug     bool   `mapstructure:"debug"`
	LogFormat string `mapstructure:"log_format"` // json | console
	LogFile   string `mapstructure:"log_file"`
}

// NewDefaultConfig 创建一个新的默认配置
func NewDefaultConfig() *Config {
	return &Config{
		Provider:          "deepseek",
		Model:             "deepseek-chat",
		TargetLang:        "zh-Hans",
		Transport:         string(openai.TransportResty),
		ChunkSize:         25,
		MaxAttempts:       3,
		RetryInitialDelay: time.Second,
		RequestTimeout:    openai.DefaultTimeout,
		TMCapacity:        tm.DefaultCapacity,
		DataDir:           getDefaultDataDir(),
		LogFormat:         "console",
	}
}

// getDefaultDataDir 获取默认数据目录
func getDefaultDataDir() string {
	// 优先使用系统配置目录
	configDir, err := os.UserConfigDir()
	if err == nil {
		return filepath.Join(configDir, "po-translator")
	}

	// 如果无法获取系统配置目录，使用用户主目录
	homeDir, err := os.UserHomeDir()
	if err == nil {
		return filepath.Join(homeDir, ".po-translator")
	}

	// 最后的兜底方案
	return "./po-translator-data"
}

// setDefaults 设置默认值，同时让环境变量能覆盖所有键
func setDefaults(v *viper.Viper) {
	for key, value := range toMap(NewDefaultConfig()) {
		v.SetDefault(key, value)
	}
}

// Keys 返回所有可配置的键
func Keys() []string {
	keys := make([]string, 0, 16)
	for key := range toMap(NewDefaultConfig()) {
		keys = append(keys, key)
	}
	slices.Sort(keys)
	return keys
}

// toMap 将结构体转换为map
func toMap(c *Config) map[string]any {
	return map[string]any{
		"provider":            c.Provider,
		"model":               c.Model,
		"api_key":             c.APIKey,
		"base_url":            c.BaseURL,
		"target_lang":         c.TargetLang,
		"transport":           c.Transport,
		"chunk_size":          c.ChunkSize,
		"max_attempts":        c.MaxAttempts,
		"retry_initial_delay": c.RetryInitialDelay.String(),
		"request_timeout":     c.RequestTimeout.String(),
		"proxy_url":           c.ProxyURL,
		"system_prompt":       c.SystemPrompt,
		"tm_capacity":         c.TMCapacity,
		"data_dir":            c.DataDir,
		"plugins_dir":         c.PluginsDir,
		"debug":               c.Debug,
		"log_format":          c.LogFormat,
		"log_file":            c.LogFile,
	}
}

// LoadConfig 从文件加载配置，返回配置和实际使用的文件路径
//
// configPath 为空时依次在用户主目录和当前目录查找 .po-translator.yaml；
// 找不到配置文件时使用默认值，环境变量 PO_TRANSLATOR_* 始终生效。
func LoadConfig(configPath string) (*Config, string, error) {
	v := viper.New()
	setDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(home)
		}
		v.AddConfigPath(".")
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !(configPath != "" && errors.Is(err, os.ErrNotExist)) {
			return nil, "", translation.NewConfigError("读取配置文件失败", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, "", translation.NewConfigError("解析配置失败", err)
	}
	if config.DataDir == "" {
		config.DataDir = getDefaultDataDir()
	}

	used := v.ConfigFileUsed()
	if used == "" {
		used = defaultConfigPath(configPath)
	}
	return &config, used, nil
}

// defaultConfigPath 没有找到配置文件时保存的位置
func defaultConfigPath(configPath string) string {
	if configPath != "" {
		return configPath
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ConfigName + ".yaml"
	}
	return filepath.Join(home, ConfigName+".yaml")
}

// SaveConfig 将配置保存到文件
func SaveConfig(config *Config, configPath string) error {
	if configPath == "" {
		configPath = defaultConfigPath("")
	}

	v := viper.New()
	v.SetConfigFile(configPath)

	// 添加所有配置项
	if err := v.MergeConfigMap(toMap(config)); err != nil {
		return err
	}

	// 创建父目录（如果不存在）
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return err
	}

	return v.WriteConfig()
}

// Clone 深拷贝配置
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}

// Set 按键设置一个值，值按目标字段类型转换（例如 "30s"、"true"、"25"）
func (c *Config) Set(key, value string) error {
	if !slices.Contains(Keys(), key) {
		return translation.NewConfigError(fmt.Sprintf("未知的配置项: %s，可用配置项: %s", key, strings.Join(Keys(), ", ")), nil)
	}

	v := viper.New()
	if err := v.MergeConfigMap(toMap(c)); err != nil {
		return err
	}
	v.Set(key, value)

	var updated Config
	if err := v.Unmarshal(&updated); err != nil {
		return translation.NewConfigError(fmt.Sprintf("配置项 %s 的值无效: %s", key, value), err)
	}
	*c = updated
	return nil
}

// Get 按键读取配置值的字符串形式
func (c *Config) Get(key string) (string, bool) {
	value, ok := toMap(c)[key]
	if !ok {
		return "", false
	}
	return fmt.Sprint(value), true
}

// Validate 检查配置是否可用
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Provider) == "" {
		return translation.NewConfigError("未配置供应商 (provider)", nil)
	}
	if strings.TrimSpace(c.Model) == "" {
		return translation.NewConfigError("未配置模型 (model)", nil)
	}
	if c.ChunkSize <= 0 {
		return translation.NewConfigError(fmt.Sprintf("chunk_size 必须大于 0，当前为 %d", c.ChunkSize), nil)
	}
	if c.MaxAttempts <= 0 {
		return translation.NewConfigError(fmt.Sprintf("max_attempts 必须大于 0，当前为 %d", c.MaxAttempts), nil)
	}
	if c.RetryInitialDelay < 0 || c.RequestTimeout < 0 {
		return translation.NewConfigError("retry_initial_delay 和 request_timeout 不能为负数", nil)
	}
	if c.Transport != "" && !slices.Contains(openai.Transports(), openai.Transport(c.Transport)) {
		return translation.NewConfigError(fmt.Sprintf("未知的传输实现: %s", c.Transport), nil)
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "console" {
		return translation.NewConfigError(fmt.Sprintf("未知的日志格式: %s", c.LogFormat), nil)
	}
	return nil
}

// RetryConfig 返回引擎使用的重试策略
func (c *Config) RetryConfig() retry.Config {
	rc := retry.DefaultConfig()
	rc.MaxAttempts = c.MaxAttempts
	if c.RetryInitialDelay > 0 {
		rc.InitialDelay = c.RetryInitialDelay
	}
	return rc
}

// ClientConfig 返回 chat 客户端配置，BaseURL 为空时使用供应商默认地址
func (c *Config) ClientConfig(defaultURL string) openai.Config {
	baseURL := c.BaseURL
	if baseURL == "" {
		baseURL = defaultURL
	}
	return openai.Config{
		APIKey:    c.APIKey,
		BaseURL:   baseURL,
		Timeout:   c.RequestTimeout,
		ProxyURL:  c.ProxyURL,
		Transport: openai.Transport(c.Transport),
	}
}

// TMPath 翻译记忆库文件
func (c *Config) TMPath() string {
	return filepath.Join(c.DataDir, "tm.json")
}

// TermLibraryPath 术语库文件
func (c *Config) TermLibraryPath() string {
	return filepath.Join(c.DataDir, "term_library.json")
}

// UsageDBPath 用量数据库
func (c *Config) UsageDBPath() string {
	return filepath.Join(c.DataDir, "usage.db")
}

// PluginsPath 插件目录
func (c *Config) PluginsPath() string {
	if c.PluginsDir != "" {
		return c.PluginsDir
	}
	return filepath.Join(c.DataDir, "plugins")
}
