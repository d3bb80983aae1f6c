// Package stats 记录各提供商的调用统计
package stats

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/nerdneilsfield/chatdoc/pkg/providers"
)

// ProviderStats Provider性能统计
type ProviderStats struct {
	ProviderName       string           `json:"provider_name"`
	TotalRequests      int64            `json:"total_requests"`
	SuccessfulRequests int64            `json:"successful_requests"`
	FailedRequests     int64            `json:"failed_requests"`
	LengthMismatches   int64            `json:"length_mismatches"`
	TextsSent          int64            `json:"texts_sent"`
	CharsIn            int64            `json:"chars_in"`
	CharsOut           int64            `json:"chars_out"`
	ErrorTypes         map[string]int64 `json:"error_types"`

	MinLatency   time.Duration `json:"min_latency"`
	MaxLatency   time.Duration `json:"max_latency"`
	TotalLatency time.Duration `json:"total_latency"`
}

// AverageLatency 平均延迟
func (ps *ProviderStats) AverageLatency() time.Duration {
	if ps.TotalRequests == 0 {
		return 0
	}
	return ps.TotalLatency / time.Duration(ps.TotalRequests)
}

// SuccessRate 成功率（百分比）
func (ps *ProviderStats) SuccessRate() float64 {
	if ps.TotalRequests == 0 {
		return 0
	}
	return float64(ps.SuccessfulRequests) / float64(ps.TotalRequests) * 100
}

// RequestResult 单次请求结果
type RequestResult struct {
	Texts    int
	CharsIn  int
	CharsOut int
	Returned int
	Latency  time.Duration
	Err      error
}

// Manager 统计管理器
type Manager struct {
	mu    sync.Mutex
	stats map[string]*ProviderStats
}

// NewManager 创建统计管理器
func NewManager() *Manager {
	return &Manager{stats: make(map[string]*ProviderStats)}
}

// Record 记录请求结果
func (m *Manager) Record(provider string, r RequestResult) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.stats[provider]
	if !ok {
		ps = &ProviderStats{ProviderName: provider, ErrorTypes: make(map[string]int64)}
		m.stats[provider] = ps
	}

	ps.TotalRequests++
	ps.TextsSent += int64(r.Texts)
	ps.CharsIn += int64(r.CharsIn)
	if r.Err != nil {
		ps.FailedRequests++
		ps.ErrorTypes[classifyError(r.Err)]++
	} else {
		ps.SuccessfulRequests++
		ps.CharsOut += int64(r.CharsOut)
		if r.Returned != r.Texts {
			ps.LengthMismatches++
		}
	}

	ps.TotalLatency += r.Latency
	if ps.TotalRequests == 1 || r.Latency < ps.MinLatency {
		ps.MinLatency = r.Latency
	}
	if r.Latency > ps.MaxLatency {
		ps.MaxLatency = r.Latency
	}
}

// Get 获取指定提供商的统计副本
func (m *Manager) Get(provider string) (ProviderStats, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	ps, ok := m.stats[provider]
	if !ok {
		return ProviderStats{}, false
	}
	return ps.clone(), true
}

// All 获取所有统计信息（按名称排序）
func (m *Manager) All() []ProviderStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]ProviderStats, 0, len(m.stats))
	for _, ps := range m.stats {
		out = append(out, ps.clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProviderName < out[j].ProviderName })
	return out
}

func (ps *ProviderStats) clone() ProviderStats {
	c := *ps
	c.ErrorTypes = make(map[string]int64, len(ps.ErrorTypes))
	for k, v := range ps.ErrorTypes {
		c.ErrorTypes[k] = v
	}
	return c
}

// Render 以表格形式输出统计信息
func (m *Manager) Render(w io.Writer) {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetTitle("Provider calls")
	tw.AppendHeader(table.Row{"Provider", "Calls", "Success", "Texts", "Chars in", "Chars out", "Avg latency", "Errors"})
	for _, ps := range m.All() {
		tw.AppendRow(table.Row{
			ps.ProviderName,
			ps.TotalRequests,
			fmt.Sprintf("%.1f%%", ps.SuccessRate()),
			ps.TextsSent,
			ps.CharsIn,
			ps.CharsOut,
			ps.AverageLatency().Round(time.Millisecond).String(),
			formatErrors(ps.ErrorTypes),
		})
	}
	tw.SetStyle(table.StyleLight)
	tw.Render()
}

func formatErrors(types map[string]int64) string {
	keys := make([]string, 0, len(types))
	for k := range types {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	s := ""
	for i, k := range keys {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("%s=%d", k, types[k])
	}
	return s
}

// classifyError 分类错误类型
func classifyError(err error) string {
	var perr *providers.Error
	if errors.As(err, &perr) {
		return perr.Code
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return providers.CodeTimeout
	}
	return "unknown"
}
