package restcache

import (
	"net/http"
	"path"
	"strconv"

	"github.com/rs/zerolog"

	cacheinvalidate "github.com/restcache/restcache/pkg/cache-invalidate"
)

// Proxy serves HTTP clients from the cache.
// GET requests are answered from the cache when a fresh response is
// stored. Mutating requests pass through to the origin, and when they
// succeed the affected URL prefixes are dropped so the next read sees
// the write: POST drops the request path, PUT, PATCH and DELETE drop
// the parent collection. Origins can name further prefixes with the
// `Cache-Invalidate` response header.
// Every response carries a `Cache-Status` header.
type Proxy struct {
	client *Client
	log    zerolog.Logger
}

// NewProxy wraps the given client in an http.Handler.
func NewProxy(client *Client) *Proxy {
	return &Proxy{
		client: client,
		log:    client.log,
	}
}

// ServeHTTP implements the http.Handler interface.
func (p *Proxy) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	req, err := http.NewRequestWithContext(r.Context(), r.Method, r.URL.RequestURI(), r.Body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	copyHeader(req.Header, r.Header)

	res, err := p.client.Do(req)
	if err != nil {
		p.log.Error().Err(err).Str("url", r.URL.String()).Msg("Could not reach origin")
		http.Error(w, "could not reach origin", http.StatusBadGateway)
		return
	}

	for _, prefix := range invalidations(r, res) {
		p.client.InvalidatePrefix(prefix)
	}

	cs := CacheStatus{}
	switch {
	case res.FromCache:
		cs.Hit()
	case r.Method == http.MethodGet:
		cs.Forward(CacheStatusFwdUriMiss)
	default:
		cs.Forward(CacheStatusFwdMethod)
	}
	p.send(w, r, res, cs)
}

// invalidations returns the URL prefixes a successful mutation made
// stale. POST creates inside the request path, so the path itself is
// the collection. PUT, PATCH and DELETE address a single item, their
// collection is one level up.
func invalidations(r *http.Request, res *Response) []string {
	if !cacheinvalidate.UnsafeMethod(r.Method) || res.StatusCode >= 400 {
		return nil
	}
	prefixes := []string{mutatedPrefix(r)}
	return append(prefixes, cacheinvalidate.GetInvalidations(r, res.Header)...)
}

func mutatedPrefix(r *http.Request) string {
	if r.Method == http.MethodPost {
		return r.URL.Path
	}
	if parent := path.Dir(r.URL.Path); parent != "." {
		return parent
	}
	return r.URL.Path
}

func (p *Proxy) send(w http.ResponseWriter, r *http.Request, res *Response, cs CacheStatus) {
	copyHeader(w.Header(), res.Header)
	if res.FromCache {
		w.Header().Set("Age", strconv.Itoa(int(res.Age.Seconds())))
	}
	w.Header().Add("Cache-Status", cs.String())
	w.WriteHeader(res.StatusCode)
	if _, err := w.Write(res.Body); err != nil {
		p.log.Error().Err(err).Msg("Could not write response to client")
	}
	p.logRequest(r, cs)
}

func (p *Proxy) logRequest(r *http.Request, cs CacheStatus) {
	isHit := 0
	if cs.status == CacheStatusHit {
		isHit = 1
	}
	p.log.Debug().
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("sourceIp", getRequestSourceIp(r)).
		Str("status", string(cs.status)).
		Str("fwd", string(cs.fwdReason)).
		Int("hit", isHit).
		Msg("Sending response to client")
}
