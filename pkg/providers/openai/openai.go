// Package openai 使用对话补全模型批量翻译
// 每个批次以 JSON 数组发送，并应返回等长数组
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/nerdneilsfield/chatdoc/pkg/providers"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/retry"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

const name = "openai"

// Config OpenAI配置
type Config struct {
	providers.BaseConfig `mapstructure:",squash"`
	Model                string  `json:"model" mapstructure:"model"`
	Temperature          float32 `json:"temperature" mapstructure:"temperature"`
	MaxTokens            int     `json:"max_tokens" mapstructure:"max_tokens"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig:  providers.DefaultConfig(),
		Model:       "gpt-4o-mini",
		Temperature: 0.3,
		MaxTokens:   4096,
	}
}

// Provider OpenAI提供商
type Provider struct {
	config Config
	client *openai.Client
	logger *zap.Logger
}

var _ translation.BatchTranslator = (*Provider)(nil)

// New 创建新的OpenAI提供商
func New(config Config, logger *zap.Logger) *Provider {
	cfg := openai.DefaultConfig(config.APIKey)
	if config.APIEndpoint != "" {
		cfg.BaseURL = strings.TrimSuffix(config.APIEndpoint, "/")
	}
	cfg.HTTPClient = &http.Client{
		Timeout:   config.Timeout,
		Transport: headerTransport{headers: config.Headers},
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		config: config,
		client: openai.NewClientWithConfig(cfg),
		logger: logger,
	}
}

// Name 获取提供商名称
func (p *Provider) Name() string {
	return name
}

// TranslateBatch 批量翻译
// 要求模型返回与输入一一对应的 JSON 数组；无法解析时返回错误，
// 长度不符的结果原样返回，由调用方处理
func (p *Provider) TranslateBatch(ctx context.Context, texts []string, hints translation.Hints) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	payload, err := json.Marshal(texts)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal batch: %w", err)
	}

	req := openai.ChatCompletionRequest{
		Model: p.config.Model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt(hints)},
			{Role: openai.ChatMessageRoleUser, Content: string(payload)},
		},
		Temperature: p.config.Temperature,
		MaxTokens:   p.config.MaxTokens,
	}

	content, err := p.complete(ctx, req)
	if err != nil {
		return nil, err
	}

	out, err := parseArray(content)
	if err != nil {
		return nil, providers.NewError(name, providers.CodeBadResponse, err.Error())
	}
	if len(out) != len(texts) {
		p.logger.Warn("model returned a different number of translations",
			zap.Int("want", len(texts)), zap.Int("got", len(out)))
	}
	return out, nil
}

func (p *Provider) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	var content string
	err := retry.Do(ctx, retry.FromConfig(p.config.BaseConfig), func() error {
		resp, err := p.client.CreateChatCompletion(ctx, req)
		if err != nil {
			return classify(err)
		}
		if len(resp.Choices) == 0 {
			return providers.NewError(name, providers.CodeBadResponse, "no choices returned")
		}
		p.logger.Debug("chat completion",
			zap.String("model", resp.Model),
			zap.Int("prompt_tokens", resp.Usage.PromptTokens),
			zap.Int("completion_tokens", resp.Usage.CompletionTokens))
		content = resp.Choices[0].Message.Content
		return nil
	}, func(attempt int, err error) {
		p.logger.Debug("retrying chat completion", zap.Int("attempt", attempt), zap.Error(err))
	})
	return content, err
}

func classify(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return providers.StatusError(name, apiErr.HTTPStatusCode, apiErr.Message)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return providers.StatusError(name, reqErr.HTTPStatusCode, reqErr.Error())
	}
	return err
}

func systemPrompt(hints translation.Hints) string {
	var b strings.Builder
	b.WriteString("You are a professional translator. ")
	if hints.SourceLang != "" {
		fmt.Fprintf(&b, "Translate from %s to %s.", hints.SourceLang, target(hints))
	} else {
		fmt.Fprintf(&b, "Translate into %s.", target(hints))
	}
	b.WriteString("\nThe user message is a JSON array of strings. Reply with a JSON array of the same length " +
		"holding the translation of each string at the same position and nothing else. " +
		"Keep line breaks inside a string exactly where they are and never merge or split entries.")

	switch hints.Formality {
	case translation.FormalityMore, translation.FormalityPreferMore:
		b.WriteString("\nUse a formal register.")
	case translation.FormalityLess, translation.FormalityPreferLess:
		b.WriteString("\nUse an informal register.")
	}
	if hints.Brevity {
		b.WriteString("\nPrefer the shortest natural phrasing.")
	}
	if hints.MaskProfanity {
		b.WriteString("\nReplace profanity with asterisks.")
	}
	if len(hints.Extra) > 0 {
		keys := make([]string, 0, len(hints.Extra))
		for k := range hints.Extra {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "\n%s: %s", k, hints.Extra[k])
		}
	}
	return b.String()
}

func target(hints translation.Hints) string {
	if hints.TargetLang == "" {
		return "English"
	}
	return hints.TargetLang
}

var reasoningTags = regexp.MustCompile(`(?s)<(think|thinking|reasoning)>.*?</(think|thinking|reasoning)>`)

// parseArray 从模型回复中提取 JSON 数组，忽略推理内容和代码块标记
func parseArray(content string) ([]string, error) {
	content = reasoningTags.ReplaceAllString(content, "")
	start := strings.IndexByte(content, '[')
	end := strings.LastIndexByte(content, ']')
	if start < 0 || end < start {
		return nil, fmt.Errorf("reply holds no JSON array")
	}

	var out []string
	if err := json.Unmarshal([]byte(content[start:end+1]), &out); err != nil {
		return nil, fmt.Errorf("failed to parse reply: %w", err)
	}
	return out, nil
}

// headerTransport 为每个请求添加自定义头
type headerTransport struct {
	headers map[string]string
}

func (t headerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if len(t.headers) > 0 {
		req = req.Clone(req.Context())
		for k, v := range t.headers {
			req.Header.Set(k, v)
		}
	}
	return http.DefaultTransport.RoundTrip(req)
}
