package restcache

import (
	"encoding/json"
	"net/http"
	"time"
)

// Response is the result of a request made through the cache.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte

	// FromCache is true when the response was served from the cache
	// without contacting the origin.
	FromCache bool

	// Age is how long ago the response was stored.
	// It is zero for responses fetched from the origin.
	Age time.Duration
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// Success reports whether the response status is in the 2xx range.
// Only successful responses are stored in the cache.
func (r *Response) Success() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
