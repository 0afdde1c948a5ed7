package cachekey

import (
	"net/http"
	"net/url"
	"strings"
	"testing"
)

func TestRequestFromKey(t *testing.T) {
	keygen := NewCacheKeyer("this-is-the-origin")
	r, _ := http.NewRequest("GET", "/page", nil)
	key := keygen.GetKey(r)
	req, err := keygen.GetRequestFromKey(key)
	if err != nil {
		t.Fatalf("%s: %s", key, err)
	}
	if url := req.URL.String(); url != "/page" {
		t.Fatalf("Created request url for key %s is %s", key, url)
	}
	if req.Method != "GET" {
		t.Fatalf("Created request method for key %s is %s", key, req.Method)
	}
}

func TestOriginPrefixIncludesOrigin(t *testing.T) {
	origin := "this-is-the-origin"
	keygen := NewCacheKeyer(origin)
	if !strings.Contains(keygen.OriginPrefix, origin) {
		t.Fatalf("OriginPrefix is %s", keygen.OriginPrefix)
	}
}

func TestKeyIncludesQueryString(t *testing.T) {
	keygen := NewCacheKeyer("http://h")
	one, _ := http.NewRequest("GET", "http://h/api/properties?page=1", nil)
	two, _ := http.NewRequest("GET", "http://h/api/properties?page=2", nil)
	if keygen.GetKey(one) == keygen.GetKey(two) {
		t.Fatalf("Keys for different query strings are equal: %s", keygen.GetKey(one))
	}
}

func TestKeyIgnoresHeaders(t *testing.T) {
	keygen := NewCacheKeyer("http://h")
	one, _ := http.NewRequest("GET", "http://h/api/properties", nil)
	two, _ := http.NewRequest("GET", "http://h/api/properties", nil)
	two.Header.Set("Authorization", "Bearer token")
	if keygen.GetKey(one) != keygen.GetKey(two) {
		t.Fatalf("Keys differ based on headers: %s vs %s", keygen.GetKey(one), keygen.GetKey(two))
	}
}

func TestForeignOriginGetsOwnKeySpace(t *testing.T) {
	keygen := NewCacheKeyer("http://h")
	local, _ := http.NewRequest("GET", "http://h/status", nil)
	foreign, _ := http.NewRequest("GET", "http://elsewhere/status", nil)
	if keygen.GetKey(local) == keygen.GetKey(foreign) {
		t.Fatalf("Same path on two hosts shares key %s", keygen.GetKey(local))
	}
	if !strings.HasPrefix(keygen.GetKey(local), keygen.OriginPrefix) {
		t.Fatalf("Local key %s does not have origin prefix", keygen.GetKey(local))
	}
}

func TestURIPrefixMatchesDeeperPaths(t *testing.T) {
	keygen := NewCacheKeyer("http://h")
	prefix := keygen.URIPrefix("GET", &url.URL{Path: "/api/properties"})
	for _, uri := range []string{
		"http://h/api/properties",
		"http://h/api/properties/123",
		"http://h/api/properties?archived=true",
	} {
		r, _ := http.NewRequest("GET", uri, nil)
		if !strings.HasPrefix(keygen.GetKey(r), prefix) {
			t.Fatalf("Key %s does not match prefix %s", keygen.GetKey(r), prefix)
		}
	}
	other, _ := http.NewRequest("GET", "http://h/api/tenants", nil)
	if strings.HasPrefix(keygen.GetKey(other), prefix) {
		t.Fatalf("Key %s matches prefix %s", keygen.GetKey(other), prefix)
	}
}

func TestResourcePath(t *testing.T) {
	if p := (Resource{Type: "properties"}).Path(); p != "/properties" {
		t.Fatalf("Collection path is %s", p)
	}
	if p := (Resource{Type: "properties", ID: "123"}).Path(); p != "/properties/123" {
		t.Fatalf("Item path is %s", p)
	}
}
