package cache

import (
	"strings"
	"sync"
	"time"
	"unsafe"

	"github.com/dgraph-io/ristretto"
)

var entrySize = int64(unsafe.Sizeof(Entry{}))

// Ristretto is a cost-based provider using github.com/dgraph-io/ristretto.
// Entries are admitted and evicted by their size in bytes, so a few huge
// responses cannot push out the whole working set.
//
// Ristretto cannot enumerate its keys, so the provider maintains its own
// key index for the prefix operations. The index can briefly list keys
// ristretto has already evicted on its own, reads heal the difference.
type Ristretto struct {
	entries *ristretto.Cache
	mutex   *sync.Mutex
	keys    map[string]struct{}
}

// NewRistretto returns the default Ristretto provider configuration.
// entries should be the number of items you expect to keep in the cache when full.
// Estimating this on the higher side is better.
// maxBytes determines the maximum number of bytes stored.
func NewRistretto(entries, maxBytes int64) Ristretto {
	if maxBytes == 0 {
		maxBytes = 1
	}
	if entries == 0 {
		entries = maxBytes
	}
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: entries * 10,
		MaxCost:     maxBytes,
		BufferItems: 64,
	})
	if err != nil {
		panic(err)
	}
	return Ristretto{
		entries: cache,
		mutex:   &sync.Mutex{},
		keys:    make(map[string]struct{}),
	}
}

func entryCost(entry Entry) int64 {
	s := entrySize

	// Estimate size of the header map itself.
	s += 5*8 + int64(len(entry.Header)*8)

	for k, vv := range entry.Header {
		s += int64(len(k))
		for _, v := range vv {
			s += int64(len(v))
		}
	}

	s += int64(cap(entry.Body))
	s += int64(len(entry.Key) + len(entry.Compression))

	return s
}

func (c Ristretto) Get(key string) (Entry, bool, error) {
	value, ok := c.entries.Get(key)
	if !ok || value == nil {
		c.forget(key)
		return Entry{}, false, nil
	}
	entry := value.(Entry)
	if entry.Expired() {
		c.Purge(key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (c Ristretto) Put(entry Entry) error {
	cost := entryCost(entry)
	var stored bool
	if entry.ExpiresAt.IsZero() {
		stored = c.entries.Set(entry.Key, entry, cost)
	} else {
		stored = c.entries.SetWithTTL(entry.Key, entry, cost, time.Until(entry.ExpiresAt))
	}
	// writes are buffered, wait so the entry is visible to the next Get
	c.entries.Wait()
	if !stored {
		return nil
	}
	c.mutex.Lock()
	c.keys[entry.Key] = struct{}{}
	c.mutex.Unlock()
	return nil
}

func (c Ristretto) Purge(key string) {
	c.entries.Del(key)
	c.forget(key)
}

func (c Ristretto) PurgePrefix(prefix string) {
	for _, key := range c.indexed(prefix) {
		c.entries.Del(key)
		c.forget(key)
	}
}

func (c Ristretto) Has(key string) bool {
	_, ok := c.entries.Get(key)
	return ok
}

func (c Ristretto) Keys(prefix string, cb func(string)) {
	for _, key := range c.indexed(prefix) {
		cb(key)
	}
}

// Len reports the number of indexed keys.
// It can overcount until reads heal the index after ristretto-side evictions.
func (c Ristretto) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return len(c.keys)
}

func (c Ristretto) PurgeExpired() {
	// ristretto expires entries on its own, this just heals the key index
	for _, key := range c.indexed("") {
		if _, ok := c.entries.Get(key); !ok {
			c.forget(key)
		}
	}
}

func (c Ristretto) indexed(prefix string) []string {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	keys := make([]string, 0, len(c.keys))
	for key := range c.keys {
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys
}

func (c Ristretto) forget(key string) {
	c.mutex.Lock()
	delete(c.keys, key)
	c.mutex.Unlock()
}
