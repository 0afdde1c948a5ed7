package restcache

// Refresh re-fetches every stored response whose URL starts with the
// given prefix and stores the fresh results. Use it after a bulk change
// to warm the cache instead of letting the next reader pay for the
// fetch. It returns the number of entries refreshed.
func (c *Client) Refresh(prefix string) int {
	refreshed := 0
	for _, key := range c.Keys(prefix) {
		if c.refreshEntry(key) {
			refreshed++
		}
	}
	return refreshed
}

// refreshEntry re-fetches the stored response identified by the key.
// A refresh that fails leaves the existing entry in place.
func (c *Client) refreshEntry(key string) bool {
	req, err := c.keyer.GetRequestFromKey(key)
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("Could not get request from key")
		return false
	}
	c.log.Trace().Str("key", key).Str("req.path", req.URL.Path).Msg("Updating cache")
	res, err := c.do(req, requestOptions{refresh: true})
	if err != nil {
		c.log.Error().Err(err).Str("key", key).Msg("Could not refresh stored response")
		return false
	}
	return res.Success()
}
