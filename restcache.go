// Package restcache is a caching HTTP client for REST APIs.
// Successful GET responses are stored for a fixed time to live and
// served from the cache while fresh. Mutations pass through to the
// origin and never touch stored responses, callers invalidate the
// affected URL prefixes explicitly.
package restcache

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/restcache/restcache/cache"
	cachekey "github.com/restcache/restcache/pkg/cache-key"
)

// DefaultTTL is how long responses stay fresh when the configuration
// does not say otherwise.
const DefaultTTL = 60 * time.Second

var ErrorNoBaseURL = fmt.Errorf("relative URL used without a base URL")

type Config struct {
	// The base URL request paths are resolved against.
	// May be empty when every request uses an absolute URL.
	BaseURL string
	// How long stored responses stay fresh. Defaults to DefaultTTL.
	TTL time.Duration
	// Storage for cached responses. Defaults to an in-process map.
	Cache cache.Provider
	// Client used for origin requests. Defaults to http.DefaultClient.
	HTTPClient *http.Client
	// Optional compressor for stored response bodies.
	Compressor Compressor
	// Optional rules to adjust caching per URL.
	Rules Rules
	// Optional monitor to report cache activity to.
	Monitor Monitor
	// Logger to use. Logging is disabled if nil.
	Logger *zerolog.Logger
	// How often to drop expired entries that are never read again.
	// Zero disables the background sweep, expired entries are then
	// dropped only when a read finds them.
	SweepInterval time.Duration
}

// Client is a caching HTTP client for one origin.
// Construct it with New, the zero value is not usable.
type Client struct {
	cache      cache.Provider
	keyer      cachekey.CacheKeyer
	ttl        time.Duration
	http       *http.Client
	compressor Compressor
	rules      Rules
	monitor    Monitor
	log        zerolog.Logger
	base       *url.URL
	stop       chan struct{}
	stopOnce   sync.Once
}

// New initializes a cache client.
// It starts the needed background processes
// and sets up the needed variables.
func New(config Config) (*Client, error) {
	var base *url.URL
	originId := ""
	if config.BaseURL != "" {
		u, err := url.Parse(config.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("parsing base URL: %w", err)
		}
		if !u.IsAbs() {
			return nil, fmt.Errorf("base URL %q is not absolute", config.BaseURL)
		}
		// the trailing slash makes relative references resolve into
		// the base path instead of replacing it
		if !strings.HasSuffix(u.Path, "/") {
			u.Path = u.Path + "/"
		}
		base = u
		originId = u.Scheme + "://" + u.Host
	}

	// logging is off if not specified in config
	var logger zerolog.Logger
	if config.Logger == nil {
		logger = zerolog.Nop()
	} else {
		logger = *config.Logger
	}
	// create a child logger and add default fields
	logger = logger.With().Str("origin", originId).Logger()

	if config.TTL == 0 {
		config.TTL = DefaultTTL
	}
	if config.Cache == nil {
		config.Cache = cache.NewMemory()
	}
	if config.HTTPClient == nil {
		config.HTTPClient = http.DefaultClient
	}

	c := &Client{
		cache:      config.Cache,
		keyer:      cachekey.NewCacheKeyer(originId),
		ttl:        config.TTL,
		http:       config.HTTPClient,
		compressor: config.Compressor,
		rules:      config.Rules,
		monitor:    config.Monitor,
		log:        logger,
		base:       base,
		stop:       make(chan struct{}),
	}

	if config.SweepInterval > 0 {
		go c.sweep(config.SweepInterval)
	}
	if c.monitor != nil && c.monitor.GetInterval() > 0 {
		go c.report()
	}

	return c, nil
}

// Close stops the background processes started by New.
// It does not drop any stored responses.
func (c *Client) Close() {
	c.stopOnce.Do(func() {
		close(c.stop)
	})
}

// Get makes a GET request, served from the cache when a fresh stored
// response exists. The cache key is the request method and URL
// including any query string, headers are not part of the key.
func (c *Client) Get(path string, opts ...RequestOption) (*Response, error) {
	o := applyOptions(opts)
	req, err := c.newRequest(http.MethodGet, path, nil, o)
	if err != nil {
		return nil, err
	}
	return c.do(req, o)
}

// GetJSON makes a cached GET request and unmarshals the response body
// into v. A non-2xx response is returned as an error.
func (c *Client) GetJSON(path string, v interface{}, opts ...RequestOption) error {
	res, err := c.Get(path, opts...)
	if err != nil {
		return err
	}
	if !res.Success() {
		return fmt.Errorf("GET %s: unexpected status %d", path, res.StatusCode)
	}
	return res.JSON(v)
}

// Head makes a HEAD request. HEAD responses are not cached.
func (c *Client) Head(path string, opts ...RequestOption) (*Response, error) {
	return c.passthrough(http.MethodHead, path, "", nil, opts)
}

// Post makes a POST request. Mutations pass through to the origin and
// have no effect on stored responses, invalidate the affected prefixes
// explicitly when the origin state changes.
func (c *Client) Post(path, contentType string, body io.Reader, opts ...RequestOption) (*Response, error) {
	return c.passthrough(http.MethodPost, path, contentType, body, opts)
}

// PostJSON makes a POST request with a JSON-encoded body.
func (c *Client) PostJSON(path string, v interface{}, opts ...RequestOption) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.Post(path, "application/json", bytes.NewReader(body), opts...)
}

// Put makes a PUT request, passed through like Post.
func (c *Client) Put(path, contentType string, body io.Reader, opts ...RequestOption) (*Response, error) {
	return c.passthrough(http.MethodPut, path, contentType, body, opts)
}

// PutJSON makes a PUT request with a JSON-encoded body.
func (c *Client) PutJSON(path string, v interface{}, opts ...RequestOption) (*Response, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return c.Put(path, "application/json", bytes.NewReader(body), opts...)
}

// Patch makes a PATCH request, passed through like Post.
func (c *Client) Patch(path, contentType string, body io.Reader, opts ...RequestOption) (*Response, error) {
	return c.passthrough(http.MethodPatch, path, contentType, body, opts)
}

// Delete makes a DELETE request, passed through like Post.
func (c *Client) Delete(path string, opts ...RequestOption) (*Response, error) {
	return c.passthrough(http.MethodDelete, path, "", nil, opts)
}

// Do executes the given request. GET requests go through the cache,
// everything else is passed through to the origin. Relative request
// URLs are resolved against the base URL. The request context is
// honored for origin requests.
func (c *Client) Do(req *http.Request) (*Response, error) {
	return c.do(req, requestOptions{})
}

func (c *Client) passthrough(method, path, contentType string, body io.Reader, opts []RequestOption) (*Response, error) {
	o := applyOptions(opts)
	req, err := c.newRequest(method, path, body, o)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return c.do(req, o)
}

func (c *Client) newRequest(method, path string, body io.Reader, o requestOptions) (*http.Request, error) {
	u, err := c.resolve(path)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequest(method, u.String(), body)
	if err != nil {
		return nil, err
	}
	for name, values := range o.header {
		for _, value := range values {
			req.Header.Add(name, value)
		}
	}
	return req, nil
}

// resolve turns a request path into an absolute URL.
// Paths are resolved against the base URL, absolute URLs are used as
// given so foreign origins can be addressed through the same client.
func (c *Client) resolve(path string) (*url.URL, error) {
	u, err := url.Parse(path)
	if err != nil {
		return nil, err
	}
	if u.IsAbs() {
		return u, nil
	}
	if c.base == nil {
		return nil, ErrorNoBaseURL
	}
	ref := *u
	ref.Path = strings.TrimPrefix(ref.Path, "/")
	if ref.RawPath != "" {
		ref.RawPath = strings.TrimPrefix(ref.RawPath, "/")
	}
	return c.base.ResolveReference(&ref), nil
}

func (c *Client) do(req *http.Request, o requestOptions) (*Response, error) {
	if !req.URL.IsAbs() {
		resolved, err := c.resolve(req.URL.String())
		if err != nil {
			return nil, err
		}
		req.URL = resolved
	}

	if req.Method != http.MethodGet {
		return c.forward(req)
	}

	rule := c.rules.find(req)
	if rule != nil && rule.Skip {
		return c.forward(req)
	}

	key := c.keyer.GetKey(req)
	if !o.refresh {
		if res, ok := c.lookup(key); ok {
			return res, nil
		}
	}
	c.countMiss()

	res, err := c.forward(req)
	if err != nil {
		// the stored response, if any, stays as it is
		return nil, err
	}
	if res.Success() {
		ttl := o.ttl
		if ttl == 0 && rule != nil && rule.TTL > 0 {
			ttl = rule.TTL
		}
		c.store(key, res, ttl)
	}
	return res, nil
}

// lookup retrieves a fresh stored response for the key.
// Read errors and undecodable bodies are treated as misses so a
// broken entry never blocks refetching.
func (c *Client) lookup(key string) (*Response, bool) {
	entry, ok, err := c.cache.Get(key)
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("Could not read from cache")
		c.countError()
		return nil, false
	}
	if !ok {
		return nil, false
	}
	if entry.Compression != c.compressorName() {
		// written with a different compressor, refetch
		return nil, false
	}
	body := entry.Body
	if c.compressor != nil {
		body, err = c.compressor.Expand(entry.Body)
		if err != nil {
			c.log.Error().Err(err).Str("key", key).Msg("Could not expand stored body")
			c.cache.Purge(key)
			c.countError()
			return nil, false
		}
	}
	c.log.Trace().Str("key", key).Msg("Serving response from cache")
	c.countHit()
	return &Response{
		StatusCode: entry.Status,
		Header:     entry.Header.Clone(),
		Body:       body,
		FromCache:  true,
		Age:        time.Since(entry.StoredAt),
	}, true
}

// store writes a response to the cache. A write error only means the
// response is not cached, the response itself is still served.
func (c *Client) store(key string, res *Response, ttl time.Duration) {
	if ttl == 0 {
		ttl = c.ttl
	}
	body := res.Body
	if c.compressor != nil {
		body = c.compressor.Compress(body)
	}
	entry := cache.Entry{
		Key:         key,
		Status:      res.StatusCode,
		Header:      res.Header.Clone(),
		Body:        body,
		Compression: c.compressorName(),
		StoredAt:    time.Now(),
		ExpiresAt:   time.Now().Add(ttl),
	}
	c.log.Trace().Str("key", key).Time("expires", entry.ExpiresAt).Msg("Storing response")
	if err := c.cache.Put(entry); err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("Could not write to cache")
		c.countError()
	}
}

func (c *Client) forward(req *http.Request) (*Response, error) {
	c.log.Trace().Str("method", req.Method).Str("url", req.URL.String()).Msg("Requesting content from origin")
	res, err := c.http.Do(req)
	if err != nil {
		c.countError()
		return nil, err
	}
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	if err != nil {
		c.countError()
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return &Response{
		StatusCode: res.StatusCode,
		Header:     res.Header.Clone(),
		Body:       body,
	}, nil
}

func (c *Client) compressorName() string {
	if c.compressor == nil {
		return ""
	}
	return c.compressor.Name()
}

// sweep runs an infinite loop to drop expired entries,
// so that entries no one reads again do not pile up.
func (c *Client) sweep(interval time.Duration) {
	c.log.Info().Msgf("Starting sweep loop with interval %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			c.cache.PurgeExpired()
			c.log.Trace().Msg("Dropped expired entries")
		case <-c.stop:
			return
		}
	}
}

// report runs an infinite loop to report stats to the monitor.
func (c *Client) report() {
	for {
		select {
		case <-time.After(c.monitor.GetInterval()):
			c.monitor.Log(Stats{Keys: c.cache.Len()})
		case <-c.stop:
			return
		}
	}
}

func (c *Client) countHit() {
	if c.monitor != nil {
		c.monitor.Hit()
	}
}

func (c *Client) countMiss() {
	if c.monitor != nil {
		c.monitor.Miss()
	}
}

func (c *Client) countError() {
	if c.monitor != nil {
		c.monitor.Error()
	}
}

func (c *Client) countInvalidate() {
	if c.monitor != nil {
		c.monitor.Invalidate()
	}
}
