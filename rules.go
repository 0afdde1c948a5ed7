package restcache

import (
	"net/http"
	"strings"
	"time"
)

type Rules []Rule

// Rule adjusts caching for matching requests.
// Rules are checked in order and the first match wins.
type Rule struct {
	// Prefix matches URL paths starting with the given string.
	Prefix string
	// Path matches one URL path exactly.
	Path string
	// Query matches requests carrying the given query parameters.
	// An empty value matches any value for the parameter.
	Query map[string]string
	// TTL replaces the client TTL for matching responses.
	TTL time.Duration
	// Skip disables caching for matching requests entirely.
	Skip bool
}

func (r Rules) find(req *http.Request) *Rule {
rulesLoop:
	for _, rule := range r {
		if rule.Path != "" && rule.Path != req.URL.Path {
			continue
		}
		if rule.Prefix != "" && !strings.HasPrefix(req.URL.Path, rule.Prefix) {
			continue
		}
		if len(rule.Query) > 0 {
			qry := req.URL.Query()
			for name, value := range rule.Query {
				if value == "" && !qry.Has(name) {
					continue rulesLoop
				} else if value != "" && qry.Get(name) != value {
					continue rulesLoop
				}
			}
		}
		return &rule
	}
	return nil
}
