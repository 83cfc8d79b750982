package redirect

import (
	"testing"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

func mustParse(t *testing.T, raw string) *urlmodel.URL {
	t.Helper()
	u, err := urlmodel.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return u
}

func TestNextResolvesRelativeLocation(t *testing.T) {
	c := New(mustParse(t, "http://example.test/a"), 8)
	hop, err := c.Next(302, "/b", "GET", nil, headerset.New())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if hop.URL.String() != "http://example.test/b" {
		t.Fatalf("URL = %s", hop.URL.String())
	}
}

func TestNextDetectsLoop(t *testing.T) {
	c := New(mustParse(t, "http://example.test/a"), 8)
	if _, err := c.Next(302, "/b", "GET", nil, headerset.New()); err != nil {
		t.Fatalf("Next (a->b): %v", err)
	}
	if _, err := c.Next(302, "/a", "GET", nil, headerset.New()); err == nil {
		t.Fatalf("expected RedirectLoop for a->b->a")
	}
}

func TestNextRejectsMissingLocation(t *testing.T) {
	c := New(mustParse(t, "http://example.test/a"), 8)
	_, err := c.Next(302, "", "GET", nil, headerset.New())
	if err == nil {
		t.Fatalf("expected MalformedRedirect")
	}
}

func TestNextEnforcesMaxRedirects(t *testing.T) {
	c := New(mustParse(t, "http://example.test/0"), 1)
	_, err := c.Next(302, "/1", "GET", nil, headerset.New())
	if err != nil {
		t.Fatalf("first hop: %v", err)
	}
	_, err = c.Next(302, "/2", "GET", nil, headerset.New())
	if err == nil {
		t.Fatalf("expected TooManyRedirects")
	}
}

func TestRewrite303AlwaysDowngradesToGET(t *testing.T) {
	c := New(mustParse(t, "http://example.test/a"), 8)
	hop, err := c.Next(303, "/b", "POST", []byte("payload"), headerset.New())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if hop.Method != "GET" || hop.Body != nil {
		t.Fatalf("expected GET with no body, got %s %v", hop.Method, hop.Body)
	}
}

func TestRewrite307PreservesMethodAndBody(t *testing.T) {
	c := New(mustParse(t, "http://example.test/a"), 8)
	hop, err := c.Next(307, "/b", "POST", []byte("payload"), headerset.New())
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if hop.Method != "POST" || string(hop.Body) != "payload" {
		t.Fatalf("expected method/body preserved, got %s %q", hop.Method, hop.Body)
	}
}

func TestAuthorizationStrippedOnHostChange(t *testing.T) {
	c := New(mustParse(t, "http://a.test/x"), 8)
	h := headerset.New()
	_ = h.Add("Authorization", "Bearer token")
	_, err := c.Next(302, "http://b.test/x", "GET", nil, h)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if h.Has("Authorization") {
		t.Fatalf("expected Authorization stripped on host change")
	}
}

func TestAuthorizationSurvivesSameHostRedirect(t *testing.T) {
	c := New(mustParse(t, "http://a.test/x"), 8)
	h := headerset.New()
	_ = h.Add("Authorization", "Bearer token")
	_, err := c.Next(302, "/y", "GET", nil, h)
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if !h.Has("Authorization") {
		t.Fatalf("expected Authorization preserved on same-host redirect")
	}
}
