package cache

import (
	"strings"
	"time"

	"github.com/bluele/gcache"
)

// Gcache is a bounded provider based on github.com/bluele/gcache.
// It uses an LFU eviction policy, so frequently read entries survive longest.
type Gcache struct {
	entries gcache.Cache
}

// NewGcache returns an LFU gcache provider holding at most size entries.
func NewGcache(size int) Gcache {
	return Gcache{gcache.New(size).LFU().Build()}
}

func (c Gcache) Get(key string) (Entry, bool, error) {
	value, err := c.entries.GetIFPresent(key)
	if err != nil {
		return Entry{}, false, nil
	}
	entry := value.(Entry)
	if entry.Expired() {
		c.entries.Remove(key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c Gcache) Put(entry Entry) error {
	if entry.ExpiresAt.IsZero() {
		return c.entries.Set(entry.Key, entry)
	}
	return c.entries.SetWithExpire(entry.Key, entry, time.Until(entry.ExpiresAt))
}

func (c Gcache) Purge(key string) {
	c.entries.Remove(key)
}

func (c Gcache) PurgePrefix(prefix string) {
	for _, key := range c.entries.Keys(false) {
		if strings.HasPrefix(key.(string), prefix) {
			c.entries.Remove(key)
		}
	}
}

func (c Gcache) Has(key string) bool {
	return c.entries.Has(key)
}

func (c Gcache) Keys(prefix string, cb func(string)) {
	for _, key := range c.entries.Keys(true) {
		if k := key.(string); strings.HasPrefix(k, prefix) {
			cb(k)
		}
	}
}

func (c Gcache) Len() int {
	return c.entries.Len(true)
}

func (c Gcache) PurgeExpired() {
	// gcache drops expired entries on access, a lookup per key is enough
	for _, key := range c.entries.Keys(false) {
		c.entries.GetIFPresent(key)
	}
}
