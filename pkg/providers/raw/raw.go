// Package raw 原样返回文本的提供商
package raw

import (
	"context"

	"github.com/nerdneilsfield/chatdoc/pkg/providers"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
)

// Config Raw 提供商配置（实际上不需要任何配置）
type Config struct {
	providers.BaseConfig `mapstructure:",squash"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig: providers.DefaultConfig(),
	}
}

// Provider Raw 提供商实现（跳过翻译，直接返回原文）
type Provider struct {
	config Config
}

var _ translation.BatchTranslator = (*Provider)(nil)

// New 创建新的 Raw 提供商
func New(config Config) *Provider {
	return &Provider{config: config}
}

// Name 获取提供商名称
func (p *Provider) Name() string {
	return "raw"
}

// TranslateBatch 返回原文副本
func (p *Provider) TranslateBatch(ctx context.Context, texts []string, hints translation.Hints) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return translation.Identity(ctx, texts, hints)
}
