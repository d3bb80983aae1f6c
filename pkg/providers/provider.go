// Package providers 定义批量翻译提供商共享的配置与错误
package providers

import (
	"fmt"
	"net/http"
	"time"
)

// BaseConfig 基础配置
type BaseConfig struct {
	// API配置
	APIKey      string `json:"api_key,omitempty" mapstructure:"api_key"`
	APIEndpoint string `json:"api_endpoint,omitempty" mapstructure:"api_endpoint"`

	// 超时和重试
	Timeout    time.Duration `json:"timeout" mapstructure:"timeout"`
	MaxRetries int           `json:"max_retries" mapstructure:"max_retries"`
	RetryDelay time.Duration `json:"retry_delay" mapstructure:"retry_delay"`

	// 自定义头部
	Headers map[string]string `json:"headers,omitempty" mapstructure:"headers"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() BaseConfig {
	return BaseConfig{
		Timeout:    2 * time.Minute,
		MaxRetries: 3,
		RetryDelay: time.Second,
		Headers:    make(map[string]string),
	}
}

// Error 提供商错误
type Error struct {
	Provider string `json:"provider"`
	Code     string `json:"code"`
	Message  string `json:"message"`
	Status   int    `json:"status,omitempty"`
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: %s (%d): %s", e.Provider, e.Code, e.Status, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s", e.Provider, e.Code, e.Message)
}

// IsRetryable 判断错误是否可重试
func (e *Error) IsRetryable() bool {
	switch e.Code {
	case CodeRateLimit, CodeTimeout, CodeServerError:
		return true
	default:
		return false
	}
}

// 错误代码
const (
	CodeRateLimit   = "rate_limit"
	CodeTimeout     = "timeout"
	CodeServerError = "server_error"
	CodeAuth        = "auth"
	CodeQuota       = "quota"
	CodeBadRequest  = "bad_request"
	CodeBadResponse = "bad_response"
)

// NewError 创建提供商错误
func NewError(provider, code, message string) *Error {
	return &Error{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// StatusError 根据 HTTP 状态码创建提供商错误
func StatusError(provider string, status int, body string) *Error {
	code := CodeBadRequest
	switch {
	case status == http.StatusTooManyRequests:
		code = CodeRateLimit
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		code = CodeAuth
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		code = CodeTimeout
	case status == 456:
		code = CodeQuota
	case status >= 500:
		code = CodeServerError
	}
	return &Error{Provider: provider, Code: code, Message: body, Status: status}
}
