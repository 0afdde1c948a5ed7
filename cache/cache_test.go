package cache

import (
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Provider = Memory{}
	_ Provider = SQLite{}
	_ Provider = LRU{}
	_ Provider = Ristretto{}
	_ Provider = Gcache{}
)

func providers(t *testing.T) map[string]Provider {
	t.Helper()
	return map[string]Provider{
		"memory":    NewMemory(),
		"sqlite":    NewSQLite(filepath.Join(t.TempDir(), "cache.db")),
		"lru":       NewLRU(64),
		"ristretto": NewRistretto(64, 1<<20),
		"gcache":    NewGcache(64),
	}
}

func testEntry(key string, ttl time.Duration) Entry {
	return Entry{
		Key:       key,
		Status:    200,
		Header:    http.Header{"Content-Type": []string{"application/json"}},
		Body:      []byte(`{"ok":true}`),
		StoredAt:  time.Now(),
		ExpiresAt: time.Now().Add(ttl),
	}
}

func TestPutGetRoundtrip(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			put := testEntry("o:GET:/api/properties", time.Minute)
			require.NoError(t, p.Put(put))

			got, ok, err := p.Get(put.Key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, put.Key, got.Key)
			assert.Equal(t, put.Status, got.Status)
			assert.Equal(t, put.Header, got.Header)
			assert.Equal(t, put.Body, got.Body)
			assert.Equal(t, put.Compression, got.Compression)
			assert.WithinDuration(t, put.StoredAt, got.StoredAt, time.Second)
			assert.WithinDuration(t, put.ExpiresAt, got.ExpiresAt, time.Second)
		})
	}
}

func TestGetMissingKey(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := p.Get("o:GET:/nothing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPutReplacesExistingEntry(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			first := testEntry("o:GET:/api/properties", time.Minute)
			second := testEntry("o:GET:/api/properties", time.Minute)
			second.Body = []byte(`{"ok":false}`)
			require.NoError(t, p.Put(first))
			require.NoError(t, p.Put(second))

			got, ok, err := p.Get(first.Key)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, second.Body, got.Body)
			assert.Equal(t, 1, p.Len())
		})
	}
}

func TestExpiredEntryIsMissed(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			entry := testEntry("o:GET:/api/properties", 20*time.Millisecond)
			require.NoError(t, p.Put(entry))
			time.Sleep(50 * time.Millisecond)

			_, ok, err := p.Get(entry.Key)
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestPurge(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			entry := testEntry("o:GET:/api/properties", time.Minute)
			require.NoError(t, p.Put(entry))
			p.Purge(entry.Key)

			_, ok, err := p.Get(entry.Key)
			require.NoError(t, err)
			assert.False(t, ok)
			// purging an absent key is a no-op
			p.Purge(entry.Key)
		})
	}
}

func TestPurgePrefix(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{
				"o:GET:/api/properties",
				"o:GET:/api/properties/123",
				"o:GET:/api/properties?archived=true",
				"o:GET:/api/tenants",
			} {
				require.NoError(t, p.Put(testEntry(key, time.Minute)))
			}

			p.PurgePrefix("o:GET:/api/properties")

			for _, key := range []string{
				"o:GET:/api/properties",
				"o:GET:/api/properties/123",
				"o:GET:/api/properties?archived=true",
			} {
				_, ok, err := p.Get(key)
				require.NoError(t, err)
				assert.False(t, ok, key)
			}
			_, ok, err := p.Get("o:GET:/api/tenants")
			require.NoError(t, err)
			assert.True(t, ok)

			// no matches, no effect
			p.PurgePrefix("o:GET:/api/nothing")
			assert.Equal(t, 1, p.Len())
		})
	}
}

func TestPurgePrefixMatchesLiterally(t *testing.T) {
	// URL-encoded keys contain % and _, which mean something in SQL LIKE
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{
				"o:GET:/files/a%20b",
				"o:GET:/files/a_b",
				"o:GET:/files/axb",
			} {
				require.NoError(t, p.Put(testEntry(key, time.Minute)))
			}

			p.PurgePrefix("o:GET:/files/a_")
			assert.False(t, p.Has("o:GET:/files/a_b"))
			assert.True(t, p.Has("o:GET:/files/axb"))
			assert.True(t, p.Has("o:GET:/files/a%20b"))

			p.PurgePrefix("o:GET:/files/a%20")
			assert.False(t, p.Has("o:GET:/files/a%20b"))
			assert.True(t, p.Has("o:GET:/files/axb"))
		})
	}
}

func TestKeysListsPrefixOnly(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			for _, key := range []string{
				"o:GET:/api/properties",
				"o:GET:/api/properties/123",
				"o:GET:/api/tenants",
			} {
				require.NoError(t, p.Put(testEntry(key, time.Minute)))
			}

			keys := make([]string, 0)
			p.Keys("o:GET:/api/properties", func(key string) {
				keys = append(keys, key)
			})
			assert.ElementsMatch(t, []string{
				"o:GET:/api/properties",
				"o:GET:/api/properties/123",
			}, keys)
		})
	}
}

func TestHas(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			entry := testEntry("o:GET:/api/properties", time.Minute)
			require.NoError(t, p.Put(entry))
			assert.True(t, p.Has(entry.Key))
			assert.False(t, p.Has("o:GET:/api/tenants"))
		})
	}
}

func TestLen(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, 0, p.Len())
			for _, key := range []string{"o:GET:/a", "o:GET:/b", "o:GET:/c"} {
				require.NoError(t, p.Put(testEntry(key, time.Minute)))
			}
			assert.Equal(t, 3, p.Len())
			p.Purge("o:GET:/a")
			assert.Equal(t, 2, p.Len())
		})
	}
}

func TestPurgeExpired(t *testing.T) {
	for name, p := range providers(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, p.Put(testEntry("o:GET:/short", 20*time.Millisecond)))
			require.NoError(t, p.Put(testEntry("o:GET:/long", time.Minute)))
			time.Sleep(50 * time.Millisecond)

			p.PurgeExpired()

			assert.Equal(t, 1, p.Len())
			_, ok, err := p.Get("o:GET:/long")
			require.NoError(t, err)
			assert.True(t, ok)
		})
	}
}
