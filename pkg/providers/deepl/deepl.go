// Package deepl 通过 DeepL v2 表单接口批量翻译
package deepl

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/nerdneilsfield/chatdoc/pkg/providers"
	"github.com/nerdneilsfield/chatdoc/pkg/providers/retry"
	"github.com/nerdneilsfield/chatdoc/pkg/translation"
	"go.uber.org/zap"
)

const name = "deepl"

// Config DeepL配置
type Config struct {
	providers.BaseConfig `mapstructure:",squash"`
	UseFreeAPI           bool `json:"use_free_api" mapstructure:"use_free_api"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() Config {
	return Config{
		BaseConfig: providers.DefaultConfig(),
	}
}

// Provider DeepL提供商
type Provider struct {
	config     Config
	httpClient *http.Client
	logger     *zap.Logger
}

var _ translation.BatchTranslator = (*Provider)(nil)

// New 创建新的DeepL提供商
func New(config Config, logger *zap.Logger) *Provider {
	if config.APIEndpoint == "" {
		if config.UseFreeAPI {
			config.APIEndpoint = "https://api-free.deepl.com/v2"
		} else {
			config.APIEndpoint = "https://api.deepl.com/v2"
		}
	}
	config.APIEndpoint = strings.TrimSuffix(config.APIEndpoint, "/")
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Provider{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger,
	}
}

// Name 获取提供商名称
func (p *Provider) Name() string {
	return name
}

// TranslateBatch sends every text as its own text parameter of a single
// request. DeepL answers in input order.
func (p *Provider) TranslateBatch(ctx context.Context, texts []string, hints translation.Hints) ([]string, error) {
	if len(texts) == 0 {
		return []string{}, nil
	}

	params := url.Values{}
	for _, t := range texts {
		params.Add("text", t)
	}
	if hints.SourceLang != "" {
		params.Set("source_lang", normalizeLanguageCode(hints.SourceLang, true))
	}
	params.Set("target_lang", normalizeLanguageCode(hints.TargetLang, false))
	if hints.Formality != translation.FormalityDefault {
		params.Set("formality", hints.Formality)
	}
	params.Set("preserve_formatting", "1")
	for k, v := range hints.Extra {
		switch k {
		case "glossary_id", "split_sentences", "tag_handling", "context", "model_type":
			params.Set(k, v)
		}
	}

	resp, err := p.translate(ctx, params)
	if err != nil {
		return nil, err
	}

	out := make([]string, len(resp.Translations))
	for i, tr := range resp.Translations {
		out[i] = tr.Text
	}
	return out, nil
}

// translate 执行翻译请求
func (p *Provider) translate(ctx context.Context, params url.Values) (*TranslateResponse, error) {
	body := params.Encode()

	var result *TranslateResponse
	err := retry.Do(ctx, retry.FromConfig(p.config.BaseConfig), func() error {
		resp, err := p.post(ctx, body)
		if err != nil {
			return err
		}
		result = resp
		return nil
	}, func(attempt int, err error) {
		p.logger.Debug("retrying deepl request", zap.Int("attempt", attempt), zap.Error(err))
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Provider) post(ctx context.Context, body string) (*TranslateResponse, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		p.config.APIEndpoint+"/translate", strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Authorization", "DeepL-Auth-Key "+p.config.APIKey)
	for k, v := range p.config.Headers {
		httpReq.Header.Set(k, v)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("deepl request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		errBody, _ := io.ReadAll(resp.Body)
		return nil, providers.StatusError(name, resp.StatusCode, strings.TrimSpace(string(errBody)))
	}

	var translateResp TranslateResponse
	if err := json.NewDecoder(resp.Body).Decode(&translateResp); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &translateResp, nil
}

// normalizeLanguageCode 标准化语言代码为DeepL格式
func normalizeLanguageCode(lang string, isSource bool) string {
	upper := strings.ToUpper(strings.TrimSpace(lang))

	replacements := map[string]string{
		"CHINESE":    "ZH",
		"ENGLISH":    "EN",
		"SPANISH":    "ES",
		"FRENCH":     "FR",
		"GERMAN":     "DE",
		"JAPANESE":   "JA",
		"KOREAN":     "KO",
		"PORTUGUESE": "PT",
		"RUSSIAN":    "RU",
		"ITALIAN":    "IT",
	}
	if normalized, ok := replacements[upper]; ok {
		upper = normalized
	}

	upper = strings.ReplaceAll(upper, "_", "-")

	if isSource {
		// source languages never carry a variant
		if i := strings.IndexByte(upper, '-'); i > 0 {
			return upper[:i]
		}
		return upper
	}

	// 对于英语和葡萄牙语，目标语言需要指定变体
	switch upper {
	case "EN":
		return "EN-US"
	case "PT":
		return "PT-BR"
	}
	return upper
}

// TranslateResponse 翻译响应
type TranslateResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}
