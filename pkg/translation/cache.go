package translation

import (
	"context"
	"crypto/md5"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// CacheStats 缓存统计
type CacheStats struct {
	Hits   int64 `json:"hits"`
	Misses int64 `json:"misses"`
	Size   int64 `json:"size"`
}

// MemoryCache 内存缓存实现
type MemoryCache struct {
	data  map[string]string
	mutex sync.RWMutex
	stats CacheStats
}

// NewMemoryCache 创建内存缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		data: make(map[string]string),
	}
}

// Get 获取缓存
func (c *MemoryCache) Get(key string) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	value, ok := c.data[key]
	if ok {
		c.stats.Hits++
	} else {
		c.stats.Misses++
	}
	return value, ok
}

// Set 设置缓存
func (c *MemoryCache) Set(key, value string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.data[key] = value
	c.stats.Size = int64(len(c.data))
}

// Stats 获取缓存统计信息
func (c *MemoryCache) Stats() CacheStats {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	return c.stats
}

// CacheKey 生成缓存键（文本与翻译提示共同决定）
func CacheKey(text string, hints Hints) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\x00%s\x00%s\x00%t\x00%t", hints.SourceLang, hints.TargetLang, hints.Formality, hints.MaskProfanity, hints.Brevity)
	keys := make([]string, 0, len(hints.Extra))
	for k := range hints.Extra {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "\x00%s=%s", k, hints.Extra[k])
	}
	b.WriteString("\x00")
	b.WriteString(text)
	return fmt.Sprintf("%x", md5.Sum([]byte(b.String())))
}

// Wrap 包装批量翻译函数：命中缓存的文本直接返回，其余文本去重后发送
// 只缓存完整的批次结果
func (c *MemoryCache) Wrap(fn BatchFunc) BatchFunc {
	return func(ctx context.Context, texts []string, hints Hints) ([]string, error) {
		out := make([]string, len(texts))
		keys := make([]string, len(texts))

		var pending []string
		slots := make(map[string][]int)
		for i, text := range texts {
			key := CacheKey(text, hints)
			keys[i] = key
			if v, ok := c.Get(key); ok {
				out[i] = v
				continue
			}
			if _, seen := slots[key]; !seen {
				pending = append(pending, text)
			}
			slots[key] = append(slots[key], i)
		}
		if len(pending) == 0 {
			return out, nil
		}

		translated, err := fn(ctx, pending, hints)
		if err != nil {
			return nil, err
		}
		if len(translated) != len(pending) {
			return nil, fmt.Errorf("%w: sent %d, received %d", ErrLengthMismatch, len(pending), len(translated))
		}

		for j, text := range pending {
			key := CacheKey(text, hints)
			c.Set(key, translated[j])
			for _, i := range slots[key] {
				out[i] = translated[j]
			}
		}
		return out, nil
	}
}
