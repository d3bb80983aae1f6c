package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/nerdneilsfield/chatdoc/pkg/providers/factory"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// FileName is the config file searched for in the home and working
// directories.
const FileName = ".chatdoc"

// EnvPrefix 环境变量前缀，例如 CHATDOC_TRANSLATE_BATCH_SIZE
const EnvPrefix = "CHATDOC"

// ExportConfig 导出配置
type ExportConfig struct {
	Author   string `mapstructure:"author" yaml:"author"`
	Header   string `mapstructure:"header" yaml:"header"`
	Footer   string `mapstructure:"footer" yaml:"footer"`
	PageSize string `mapstructure:"page_size" yaml:"page_size"`
	FontPath string `mapstructure:"font_path" yaml:"font_path"`
	Math     bool   `mapstructure:"math" yaml:"math"`
}

// TranslateConfig 翻译配置
type TranslateConfig struct {
	Provider          string `mapstructure:"provider" yaml:"provider"`
	BatchSize         int    `mapstructure:"batch_size" yaml:"batch_size"`
	IncludeHeaders    bool   `mapstructure:"include_headers" yaml:"include_headers"`
	IncludeFootnotes  bool   `mapstructure:"include_footnotes" yaml:"include_footnotes"`
	IncludeComments   bool   `mapstructure:"include_comments" yaml:"include_comments"`
	Concurrency       int    `mapstructure:"concurrency" yaml:"concurrency"`
	RequestsPerMinute int    `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	GlossaryPath      string `mapstructure:"glossary_path" yaml:"glossary_path"`

	translation.Hints `mapstructure:",squash" yaml:",inline"`
}

// Config 保存所有配置
type Config struct {
	Debug     bool             `mapstructure:"debug" yaml:"debug"`
	Export    ExportConfig     `mapstructure:"export" yaml:"export"`
	Translate TranslateConfig  `mapstructure:"translate" yaml:"translate"`
	Providers factory.Settings `mapstructure:"providers" yaml:"-"`

	// File 实际读取的配置文件，未找到时为空
	File string `mapstructure:"-" yaml:"-"`
}

// LoadConfig 从文件加载配置
func LoadConfig(configPath string) (*Config, error) {
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
		v.SetConfigName(FileName)
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	config := &Config{Providers: factory.DefaultSettings()}
	if err := v.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	config.File = v.ConfigFileUsed()

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("debug", false)

	v.SetDefault("export.author", "")
	v.SetDefault("export.header", "Chat Export")
	v.SetDefault("export.footer", "Page {page} of {pages}")
	v.SetDefault("export.page_size", "A4")
	v.SetDefault("export.font_path", "")
	v.SetDefault("export.math", false)

	v.SetDefault("translate.provider", "raw")
	v.SetDefault("translate.batch_size", 50)
	v.SetDefault("translate.include_headers", true)
	v.SetDefault("translate.include_footnotes", true)
	v.SetDefault("translate.include_comments", false)
	v.SetDefault("translate.concurrency", 1)
	v.SetDefault("translate.requests_per_minute", 0)
	v.SetDefault("translate.glossary_path", "")
	v.SetDefault("translate.source_lang", "")
	v.SetDefault("translate.target_lang", "")
	v.SetDefault("translate.formality", "")
	v.SetDefault("translate.mask_profanity", false)
	v.SetDefault("translate.brevity", false)

	defaults := factory.DefaultSettings()
	v.SetDefault("providers.deepl.api_key", "")
	v.SetDefault("providers.deepl.api_endpoint", "")
	v.SetDefault("providers.deepl.use_free_api", false)
	v.SetDefault("providers.deepl.timeout", defaults.DeepL.Timeout)
	v.SetDefault("providers.deepl.max_retries", defaults.DeepL.MaxRetries)
	v.SetDefault("providers.deepl.retry_delay", defaults.DeepL.RetryDelay)
	v.SetDefault("providers.openai.api_key", "")
	v.SetDefault("providers.openai.api_endpoint", "")
	v.SetDefault("providers.openai.model", defaults.OpenAI.Model)
	v.SetDefault("providers.openai.temperature", defaults.OpenAI.Temperature)
	v.SetDefault("providers.openai.max_tokens", defaults.OpenAI.MaxTokens)
	v.SetDefault("providers.openai.timeout", defaults.OpenAI.Timeout)
	v.SetDefault("providers.openai.max_retries", defaults.OpenAI.MaxRetries)
	v.SetDefault("providers.openai.retry_delay", defaults.OpenAI.RetryDelay)
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Translate.BatchSize <= 0 {
		return fmt.Errorf("translate.batch_size must be positive, got %d", c.Translate.BatchSize)
	}
	if c.Translate.Concurrency <= 0 {
		return fmt.Errorf("translate.concurrency must be positive, got %d", c.Translate.Concurrency)
	}
	if c.Translate.RequestsPerMinute < 0 {
		return fmt.Errorf("translate.requests_per_minute must not be negative")
	}
	switch c.Translate.Formality {
	case translation.FormalityDefault, translation.FormalityMore, translation.FormalityLess,
		translation.FormalityPreferMore, translation.FormalityPreferLess:
	default:
		return fmt.Errorf("translate.formality: unknown value %q", c.Translate.Formality)
	}
	switch strings.ToLower(c.Export.PageSize) {
	case "", "a4", "a5", "letter", "legal":
	default:
		return fmt.Errorf("export.page_size: unknown value %q", c.Export.PageSize)
	}
	return nil
}

// WriteDefault writes a starter config file with the export and translate
// sections. Provider credentials are left to the environment.
func WriteDefault(path string) error {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(home, FileName+".yaml")
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file %s already exists", path)
	}

	v := viper.New()
	setDefaults(v)
	config := &Config{Providers: factory.DefaultSettings()}
	if err := v.Unmarshal(config); err != nil {
		return err
	}

	data, err := yaml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}
