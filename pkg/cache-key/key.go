package cachekey

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	originSeparator = ":"
	methodSeparator = ":"
)

// CacheKeyer creates cache keys for requests and resources.
// Keys are scoped to a single origin, so that many origins
// can share the same cache storage.
type CacheKeyer struct {
	// Unique identifier for the origin.
	// Usually this is the origin itself, i.e. scheme and host.
	OriginId string
	// Cache key prefix for this origin
	OriginPrefix string
}

func NewCacheKeyer(originId string) CacheKeyer {
	return CacheKeyer{
		OriginId:     originId,
		OriginPrefix: originId + originSeparator,
	}
}

// GetKey returns the cache key for a request.
// The key consists of the origin, the request method, and the request URI
// (path and query string exactly as sent).
// Request headers are not part of the key.
func (c CacheKeyer) GetKey(r *http.Request) string {
	return c.originFor(r.URL) + originSeparator + r.Method + methodSeparator + r.URL.RequestURI()
}

// MethodPrefix gets the key prefix for the origin with the given method.
// E.g. prefix for all GET requests in the cache.
func (c CacheKeyer) MethodPrefix(method string) string {
	return c.OriginId + originSeparator + method + methodSeparator
}

// URIPrefix returns the key prefix matching all keys for the given method
// whose request URI starts with the URI of the given URL.
// Keys are plain strings, so matching the returned prefix is a plain
// string prefix test.
func (c CacheKeyer) URIPrefix(method string, u *url.URL) string {
	return c.originFor(u) + originSeparator + method + methodSeparator + u.RequestURI()
}

// GetRequestFromKey generates a caching-wise equal request to the request
// that resulted in the provided key.
// It returns an error if the request cannot for some reason be deduced.
func (c CacheKeyer) GetRequestFromKey(key string) (*http.Request, error) {
	if !strings.HasPrefix(key, c.OriginPrefix) {
		return nil, fmt.Errorf("key and origin do not match")
	}
	keyNoOrigin := strings.TrimPrefix(key, c.OriginPrefix)
	method, uri, found := strings.Cut(keyNoOrigin, methodSeparator)
	if !found {
		return nil, fmt.Errorf("malformed key: %s", key)
	}
	return http.NewRequest(method, uri, nil)
}

// originFor returns the origin component for the given URL.
// Absolute URLs pointing to some other origin get their own component,
// so that the same path on two hosts never shares a key.
func (c CacheKeyer) originFor(u *url.URL) string {
	if u.IsAbs() {
		if origin := u.Scheme + "://" + u.Host; origin != c.OriginId {
			return origin
		}
	}
	return c.OriginId
}

// Resource identifies a REST resource or collection.
// It is the structured alternative to raw URL prefixes when invalidating:
// a Resource with an empty ID targets a whole collection,
// a Resource with an ID targets a single item and everything below it.
type Resource struct {
	Type string
	ID   string
}

// Path returns the URL path targeted by the resource, e.g. "/properties/123".
func (r Resource) Path() string {
	if r.ID == "" {
		return "/" + r.Type
	}
	return "/" + r.Type + "/" + r.ID
}
