package main

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/restcache/restcache"
	cachekey "github.com/restcache/restcache/pkg/cache-key"
)

// handleKeys lists stored keys, optionally under ?prefix=/api/...
func handleKeys(client *restcache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		keys := client.Keys(r.URL.Query().Get("prefix"))
		writeJSON(w, map[string]interface{}{"keys": keys})
	}
}

func handleStats(client *restcache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]interface{}{"entries": client.Len()})
	}
}

// handleInvalidate drops stored responses:
//
//	POST /.restcache/invalidate?prefix=/api/properties
//	POST /.restcache/invalidate?type=properties&id=123
func handleInvalidate(client *restcache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if resourceType := r.URL.Query().Get("type"); resourceType != "" {
			client.Invalidate(cachekey.Resource{Type: resourceType, ID: r.URL.Query().Get("id")})
			w.WriteHeader(http.StatusNoContent)
			return
		}
		prefix := r.URL.Query().Get("prefix")
		if prefix == "" {
			http.Error(w, "prefix or type is required", http.StatusBadRequest)
			return
		}
		client.InvalidatePrefix(prefix)
		w.WriteHeader(http.StatusNoContent)
	}
}

// handleRefresh re-fetches the stored responses under ?prefix=/api/...
func handleRefresh(client *restcache.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		refreshed := client.Refresh(r.URL.Query().Get("prefix"))
		writeJSON(w, map[string]interface{}{"refreshed": refreshed})
	}
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Could not write response")
	}
}
