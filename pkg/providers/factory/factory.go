// Package factory 根据名称创建批量翻译提供商
package factory

import (
	"fmt"
	"strings"

	"github.com/nerdneilsfield/chatdoc/pkg/providers"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/deepl"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/openai"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/raw"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"go.uber.org/zap"
)

// Settings 所有提供商的配置
type Settings struct {
	DeepL  deepl.Config  `mapstructure:"deepl"`
	OpenAI openai.Config `mapstructure:"openai"`
	Raw    raw.Config    `mapstructure:"raw"`
}

// DefaultSettings 返回默认配置
func DefaultSettings() Settings {
	return Settings{
		DeepL:  deepl.DefaultConfig(),
		OpenAI: openai.DefaultConfig(),
		Raw:    raw.DefaultConfig(),
	}
}

// New 根据名称创建提供商
func New(name string, settings Settings, logger *zap.Logger) (translation.BatchTranslator, error) {
	switch strings.ToLower(name) {
	case "deepl":
		if settings.DeepL.APIKey == "" {
			return nil, fmt.Errorf("deepl: api key is required")
		}
		return deepl.New(settings.DeepL, logger), nil
	case "openai":
		if settings.OpenAI.APIKey == "" && settings.OpenAI.APIEndpoint == "" {
			return nil, fmt.Errorf("openai: api key or endpoint is required")
		}
		return openai.New(settings.OpenAI, logger), nil
	case "raw", "none":
		return raw.New(settings.Raw), nil
	default:
		return nil, fmt.Errorf("unsupported provider type: %s", name)
	}
}

// Supported 返回支持的提供商列表
func Supported() []string {
	return []string{"deepl", "openai", "raw"}
}

// Canonical 规范化提供商名称（"none" 为 "raw" 的别名）
func Canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "none" {
		return "raw"
	}
	return name
}

// Registry 为每个支持的提供商创建注册表条目
// 缺少凭据的提供商以不可用状态登记
func Registry(settings Settings, logger *zap.Logger) (*providers.Registry, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	r := providers.NewRegistry()
	for _, name := range Supported() {
		p, err := New(name, settings, logger)
		if err != nil {
			logger.Debug("provider not available", zap.String("provider", name), zap.Error(err))
		}
		if aerr := r.Add(name, p, err); aerr != nil {
			return nil, aerr
		}
	}
	return r, nil
}
