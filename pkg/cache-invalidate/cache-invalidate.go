// Package cacheinvalidate implements the `Cache-Invalidate` response header.
// Origins use it to name the URL prefixes a mutation made stale, so the
// cache can drop them as soon as the mutation succeeds.
package cacheinvalidate

import (
	"net/http"
	"net/url"
	"strings"
)

// GetInvalidations gets the URL prefixes the response wants dropped.
// The incoming request is used in order to resolve potentially relative paths.
// Responses to safe requests never invalidate anything.
func GetInvalidations(req *http.Request, header http.Header) []string {
	if !UnsafeMethod(req.Method) {
		return nil
	}
	prefixes := make([]string, 0)
	for _, value := range header.Values("Cache-Invalidate") {
		for _, field := range strings.Split(value, ",") {
			// directives after the first semicolon are reserved
			path := strings.TrimSpace(strings.Split(field, ";")[0])
			if path == "" {
				continue
			}
			prefixes = append(prefixes, getURL(req, path).Path)
		}
	}
	return prefixes
}

// UnsafeMethod reports whether the method can change state on the origin.
func UnsafeMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace:
		return false
	}
	return true
}

// getURL resolves a possibly relative invalidation path against the request URL.
func getURL(r *http.Request, path string) *url.URL {
	return r.URL.ResolveReference(&url.URL{Path: path})
}
