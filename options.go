package restcache

import (
	"net/http"
	"time"
)

// RequestOption customizes a single request.
type RequestOption func(*requestOptions)

type requestOptions struct {
	header  http.Header
	ttl     time.Duration
	refresh bool
}

// WithHeader adds a header to the outgoing request.
// Headers are never part of the cache key, two requests for the same
// URL share a cache entry even with different headers.
func WithHeader(name, value string) RequestOption {
	return func(o *requestOptions) {
		if o.header == nil {
			o.header = make(http.Header)
		}
		o.header.Add(name, value)
	}
}

// WithTTL overrides the client TTL for this request only.
func WithTTL(ttl time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.ttl = ttl
	}
}

// WithRefresh skips any stored response and fetches from the origin,
// storing the fresh result on success.
func WithRefresh() RequestOption {
	return func(o *requestOptions) {
		o.refresh = true
	}
}

func applyOptions(opts []RequestOption) requestOptions {
	var o requestOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
