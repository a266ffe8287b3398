// Package cache provides a thread-safe generic cache and the process-wide
// caches for rendered post content.
package cache

import (
	"html/template"
	"sync"
)

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Rendered post bodies, keyed by content hash and syntax theme. Edits change
// the hash, so entries never go stale; they are only ever superseded.
var renderedContentCache = NewCache[string, template.HTML]()

func GetRenderedContent(contentHash, syntaxTheme string) (template.HTML, bool) {
	return renderedContentCache.Get(contentHash + ":" + syntaxTheme)
}

func SetRenderedContent(contentHash, syntaxTheme string, html template.HTML) {
	renderedContentCache.Set(contentHash+":"+syntaxTheme, html)
}

func ClearRenderedContentCache() {
	renderedContentCache.Clear()
}
