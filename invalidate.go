package restcache

import (
	"net/http"

	cachekey "github.com/restcache/restcache/pkg/cache-key"
)

// Invalidate drops every stored response for the given resource, the
// collection or item itself and everything below it, query string
// variants included.
func (c *Client) Invalidate(resource cachekey.Resource) {
	c.InvalidatePrefix(resource.Path())
}

// InvalidatePrefix drops every stored response whose URL starts with
// the given prefix. The prefix is matched as a plain string, so
// "/api/prop" matches both "/api/properties" and "/api/props?x=1".
// A prefix that matches nothing is a no-op.
func (c *Client) InvalidatePrefix(prefix string) {
	u, err := c.resolve(prefix)
	if err != nil {
		c.log.Error().Err(err).Str("prefix", prefix).Msg("Could not resolve invalidation prefix")
		return
	}
	key := c.keyer.URIPrefix(http.MethodGet, u)
	c.log.Trace().Str("prefix", key).Msg("Invalidating stored responses")
	c.cache.PurgePrefix(key)
	c.countInvalidate()
}

// Flush drops every response stored for this client's origin.
func (c *Client) Flush() {
	c.log.Trace().Msg("Flushing cache")
	c.cache.PurgePrefix(c.keyer.OriginPrefix)
	c.countInvalidate()
}

// Keys lists the stored keys for URLs starting with the given prefix.
func (c *Client) Keys(prefix string) []string {
	u, err := c.resolve(prefix)
	if err != nil {
		return nil
	}
	keys := make([]string, 0)
	c.cache.Keys(c.keyer.URIPrefix(http.MethodGet, u), func(key string) {
		keys = append(keys, key)
	})
	return keys
}

// Len returns the number of stored responses.
func (c *Client) Len() int {
	return c.cache.Len()
}
