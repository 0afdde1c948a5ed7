package cacheinvalidate

import (
	"net/http"
	"testing"
)

func invalidationsFor(t *testing.T, method, url string, headerValues ...string) []string {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	if err != nil {
		t.Fatal(err)
	}
	header := http.Header{}
	for _, value := range headerValues {
		header.Add("Cache-Invalidate", value)
	}
	return GetInvalidations(req, header)
}

func TestAbsolutePath(t *testing.T) {
	prefixes := invalidationsFor(t, "POST", "http://example.com/api/properties", "/api/tenants")
	if len(prefixes) != 1 || prefixes[0] != "/api/tenants" {
		t.Fatalf("Prefixes are %v", prefixes)
	}
}

func TestRelativePathResolvesAgainstRequest(t *testing.T) {
	prefixes := invalidationsFor(t, "POST", "http://example.com/api/properties/123", "contracts")
	if len(prefixes) != 1 || prefixes[0] != "/api/properties/contracts" {
		t.Fatalf("Prefixes are %v", prefixes)
	}
}

func TestMultipleValues(t *testing.T) {
	prefixes := invalidationsFor(t, "DELETE", "http://example.com/api/properties/123",
		"/api/properties, /api/overview", "/api/stats")
	if len(prefixes) != 3 {
		t.Fatalf("Prefixes are %v", prefixes)
	}
}

func TestDirectivesAfterSemicolonIgnored(t *testing.T) {
	prefixes := invalidationsFor(t, "PUT", "http://example.com/api/properties/123", "/api/properties; delay=5")
	if len(prefixes) != 1 || prefixes[0] != "/api/properties" {
		t.Fatalf("Prefixes are %v", prefixes)
	}
}

func TestSafeRequestNeverInvalidates(t *testing.T) {
	prefixes := invalidationsFor(t, "GET", "http://example.com/api/properties", "/api/properties")
	if len(prefixes) != 0 {
		t.Fatalf("Prefixes are %v", prefixes)
	}
}

func TestUnsafeMethod(t *testing.T) {
	for method, unsafe := range map[string]bool{
		"GET":     false,
		"HEAD":    false,
		"OPTIONS": false,
		"POST":    true,
		"PUT":     true,
		"PATCH":   true,
		"DELETE":  true,
	} {
		if UnsafeMethod(method) != unsafe {
			t.Fatalf("UnsafeMethod(%s) is not %v", method, unsafe)
		}
	}
}
