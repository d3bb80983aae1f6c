// Package retry 对临时失败的提供商调用进行重试
package retry

import (
	"context"
	"errors"
	"math"
	"net"
	"net/url"
	"strings"
	"syscall"
	"time"

	"github.com/nerdneilsfield/chatdoc/pkg/providers"
)

// Policy 重试配置
type Policy struct {
	// 最大重试次数
	MaxRetries int
	// 初始延迟时间
	InitialDelay time.Duration
	// 最大延迟时间
	MaxDelay time.Duration
	// 退避因子（指数退避）
	BackoffFactor float64
}

// FromConfig 根据提供商配置创建重试策略
func FromConfig(c providers.BaseConfig) Policy {
	return Policy{
		MaxRetries:    c.MaxRetries,
		InitialDelay:  c.RetryDelay,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	}
}

// Do calls fn until it succeeds, fails permanently or the retries run out.
// onRetry, if set, is called before every wait.
func Do(ctx context.Context, p Policy, fn func() error, onRetry func(attempt int, err error)) error {
	var err error
	for attempt := 0; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}

		err = fn()
		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if attempt >= p.MaxRetries || !Retryable(err) {
			return err
		}

		if onRetry != nil {
			onRetry(attempt+1, err)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.delay(attempt)):
		}
	}
}

// delay 计算延迟时间
func (p Policy) delay(attempt int) time.Duration {
	factor := p.BackoffFactor
	if factor <= 1.0 {
		factor = 2.0
	}
	d := time.Duration(float64(p.InitialDelay) * math.Pow(factor, float64(attempt)))
	if p.MaxDelay > 0 && d > p.MaxDelay {
		d = p.MaxDelay
	}
	return d
}

// Retryable 判断错误是否可重试
// 包括标记为可重试的提供商错误和临时网络错误
func Retryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.IsRetryable()
	}
	return isNetworkError(err)
}

// isNetworkError 判断是否为网络错误
func isNetworkError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Err != err {
		if isNetworkError(urlErr.Err) {
			return true
		}
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return true
	}

	if errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) ||
		errors.Is(err, syscall.EPIPE) {
		return true
	}

	errStr := strings.ToLower(err.Error())
	for _, pattern := range []string{
		"connection refused",
		"connection reset",
		"timeout",
		"temporary failure",
		"network is unreachable",
		"no such host",
		"broken pipe",
		"eof",
	} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
