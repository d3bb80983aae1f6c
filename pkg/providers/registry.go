package providers

import (
	"fmt"
	"sort"
	"sync"

	"github.com/nerdneilsfield/chatdoc/pkg/translation"
)

// Entry 注册表条目：可用的提供商，或其不可用的原因
type Entry struct {
	Name     string
	Provider translation.BatchTranslator
	Err      error
}

// Available 提供商是否可用
func (e Entry) Available() bool {
	return e.Provider != nil && e.Err == nil
}

// Registry 提供商注册表
type Registry struct {
	mu      sync.RWMutex
	entries map[string]Entry
}

// NewRegistry 创建新的注册表
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]Entry),
	}
}

// Register 注册可用的提供商
func (r *Registry) Register(name string, provider translation.BatchTranslator) error {
	return r.Add(name, provider, nil)
}

// Add 添加条目；err 不为空时记录提供商不可用的原因
func (r *Registry) Add(name string, provider translation.BatchTranslator, err error) error {
	if err == nil && provider == nil {
		return fmt.Errorf("provider %s: nil translator", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[name]; exists {
		return fmt.Errorf("provider %s already registered", name)
	}
	if err != nil {
		provider = nil
	}
	r.entries[name] = Entry{Name: name, Provider: provider, Err: err}
	return nil
}

// Resolve 获取可用的提供商；不可用时返回记录的原因
func (r *Registry) Resolve(name string) (translation.BatchTranslator, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, exists := r.entries[name]
	if !exists {
		return nil, fmt.Errorf("unsupported provider type: %s", name)
	}
	if !e.Available() {
		return nil, e.Err
	}
	return e.Provider, nil
}

// Entries 按名称排序返回所有条目
func (r *Registry) Entries() []Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Entry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Available 按名称排序返回可用的提供商名称
func (r *Registry) Available() []string {
	var names []string
	for _, e := range r.Entries() {
		if e.Available() {
			names = append(names, e.Name)
		}
	}
	return names
}
