package cache

import (
	"strings"
	"sync"
)

// Memory is the default in-process provider, a map guarded by a mutex.
// It is unbounded, use one of the size-limited providers if that matters.
type Memory struct {
	mutex   *sync.RWMutex
	entries map[string]Entry
}

func NewMemory() Memory {
	return Memory{
		mutex:   &sync.RWMutex{},
		entries: make(map[string]Entry),
	}
}

func (m Memory) Get(key string) (Entry, bool, error) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	entry, ok := m.entries[key]
	if !ok {
		return Entry{}, false, nil
	}
	if entry.Expired() {
		delete(m.entries, key)
		return Entry{}, false, nil
	}
	return entry, true, nil
}

func (m Memory) Put(entry Entry) error {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	m.entries[entry.Key] = entry
	return nil
}

func (m Memory) Purge(key string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	delete(m.entries, key)
}

func (m Memory) PurgePrefix(prefix string) {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			delete(m.entries, key)
		}
	}
}

func (m Memory) Has(key string) bool {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	_, ok := m.entries[key]
	return ok
}

func (m Memory) Keys(prefix string, cb func(string)) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	for key := range m.entries {
		if strings.HasPrefix(key, prefix) {
			cb(key)
		}
	}
}

func (m Memory) Len() int {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return len(m.entries)
}

func (m Memory) PurgeExpired() {
	m.mutex.Lock()
	defer m.mutex.Unlock()
	for key, entry := range m.entries {
		if entry.Expired() {
			delete(m.entries, key)
		}
	}
}
