package cache

import (
	"strings"

	lru "github.com/hashicorp/golang-lru"
)

// LRU is a bounded provider based on github.com/hashicorp/golang-lru.
// When the cache is full, the least recently read entries are evicted first.
type LRU struct {
	entries *lru.Cache
}

// NewLRU returns an LRU provider holding at most size entries.
// Memory usage should be considered when choosing the appropriate cache size.
// Roughly, memory = size * averageResponseSize.
func NewLRU(size int) LRU {
	entries, _ := lru.New(size)
	return LRU{entries}
}

func (c LRU) Get(key string) (Entry, bool, error) {
	value, ok := c.entries.Get(key)
	if !ok {
		return Entry{}, false, nil
	}
	entry := value.(Entry)
	if entry.Expired() {
		c.entries.Remove(key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c LRU) Put(entry Entry) error {
	c.entries.Add(entry.Key, entry)
	return nil
}

func (c LRU) Purge(key string) {
	c.entries.Remove(key)
}

func (c LRU) PurgePrefix(prefix string) {
	for _, key := range c.entries.Keys() {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Remove(key)
		}
	}
}

func (c LRU) Has(key string) bool {
	return c.entries.Contains(key)
}

func (c LRU) Keys(prefix string, cb func(string)) {
	for _, key := range c.entries.Keys() {
		if k := key.(string); strings.HasPrefix(k, prefix) {
			cb(k)
		}
	}
}

func (c LRU) Len() int {
	return c.entries.Len()
}

func (c LRU) PurgeExpired() {
	for _, key := range c.entries.Keys() {
		if value, ok := c.entries.Peek(key); ok && value.(Entry).Expired() {
			c.entries.Remove(key)
		}
	}
}
