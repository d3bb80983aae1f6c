package stats

import (
	"context"
	"time"
	"unicode/utf8"

	"github.com/nerdneilsfield/chatdoc/pkg/translation"
)

// Middleware 统计中间件
type Middleware struct {
	next    translation.BatchTranslator
	manager *Manager
}

var _ translation.BatchTranslator = (*Middleware)(nil)

// Wrap 创建统计中间件
func Wrap(next translation.BatchTranslator, manager *Manager) *Middleware {
	return &Middleware{next: next, manager: manager}
}

// Name 获取提供商名称
func (m *Middleware) Name() string {
	return m.next.Name()
}

// TranslateBatch 带统计的翻译方法
func (m *Middleware) TranslateBatch(ctx context.Context, texts []string, hints translation.Hints) ([]string, error) {
	start := time.Now()
	out, err := m.next.TranslateBatch(ctx, texts, hints)

	m.manager.Record(m.next.Name(), RequestResult{
		Texts:    len(texts),
		CharsIn:  countChars(texts),
		CharsOut: countChars(out),
		Returned: len(out),
		Latency:  time.Since(start),
		Err:      err,
	})
	return out, err
}

func countChars(texts []string) int {
	n := 0
	for _, t := range texts {
		n += utf8.RuneCountInString(t)
	}
	return n
}
