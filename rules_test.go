package restcache

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRuleFinder(t *testing.T) {
	makeReq := func(path string) *http.Request {
		req, _ := http.NewRequest("GET", path, nil)
		return req
	}

	rules := Rules{
		Rule{Prefix: "/admin", Skip: true},
		Rule{Path: "/api/stats", TTL: 10 * time.Second},
		Rule{Query: map[string]string{"draft": ""}, Skip: true},
		Rule{TTL: time.Minute},
	}

	if rule := rules.find(makeReq("/admin/users")); rule == nil || !rule.Skip {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeReq("/api/stats")); rule == nil || rule.TTL != 10*time.Second {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeReq("/api/stats/daily")); rule == nil || rule.TTL != time.Minute {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeReq("/api/pages?draft=1")); rule == nil || !rule.Skip {
		t.Fatal("Incorrect rule")
	}
	if rule := rules.find(makeReq("/api/pages")); rule == nil || rule.TTL != time.Minute {
		t.Fatal("Incorrect rule")
	}
}

func TestRuleFinderQueryValue(t *testing.T) {
	req, _ := http.NewRequest("GET", "/api/properties?archived=true", nil)
	rules := Rules{Rule{Query: map[string]string{"archived": "true"}, Skip: true}}

	if rule := rules.find(req); rule == nil || !rule.Skip {
		t.Fatal("Incorrect rule")
	}
	req, _ = http.NewRequest("GET", "/api/properties?archived=false", nil)
	if rule := rules.find(req); rule != nil {
		t.Fatal("Incorrect rule")
	}
}

func TestSkipRuleBypassesCache(t *testing.T) {
	var handleCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Write([]byte("Hello world"))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL, Config{
		Rules: Rules{Rule{Prefix: "/admin", Skip: true}},
	})

	client.Get("/admin/users")
	res, err := client.Get("/admin/users")
	if err != nil {
		t.Fatal(err)
	}
	if handleCount != 2 {
		t.Fatalf("Origin called %d times", handleCount)
	}
	if res.FromCache {
		t.Fatal("Skipped response served from cache")
	}
	if client.Len() != 0 {
		t.Fatalf("Cache holds %d entries", client.Len())
	}
}

func TestRuleTTLOverridesClientTTL(t *testing.T) {
	var handleCount int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handleCount++
		w.Write([]byte("Hello world"))
	}))
	defer srv.Close()
	client := newTestClient(t, srv.URL, Config{
		TTL:   time.Hour,
		Rules: Rules{Rule{Path: "/api/stats", TTL: 20 * time.Millisecond}},
	})

	client.Get("/api/stats")
	client.Get("/api/properties")
	time.Sleep(50 * time.Millisecond)
	client.Get("/api/stats")
	client.Get("/api/properties")

	// the stats entry expired, the properties entry did not
	if handleCount != 3 {
		t.Fatalf("Origin called %d times", handleCount)
	}
}
