package httpwire

import (
	"strings"
	"testing"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

func mustParseURL(t *testing.T, raw string) *urlmodel.URL {
	t.Helper()
	u, err := urlmodel.Parse(raw)
	if err != nil {
		t.Fatalf("Parse(%q): %v", raw, err)
	}
	return u
}

func TestWriteRequestOriginFormAndHost(t *testing.T) {
	u := mustParseURL(t, "http://example.test/a?b=1")
	var buf strings.Builder
	err := WriteRequest(&buf, Request{
		Method:  "GET",
		URL:     u,
		Headers: headerset.New(),
		Form:    OriginForm,
	})
	if err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	got := buf.String()
	if !strings.HasPrefix(got, "GET /a?b=1 HTTP/1.1\r\n") {
		t.Fatalf("unexpected request line: %q", got)
	}
	if strings.Count(got, "Host:") != 1 {
		t.Fatalf("expected exactly one Host header, got %q", got)
	}
	if !strings.Contains(got, "Host: example.test\r\n") {
		t.Fatalf("expected default-port host without port, got %q", got)
	}
}

func TestWriteRequestAbsoluteFormForPlaintextProxy(t *testing.T) {
	u := mustParseURL(t, "http://example.test/a")
	var buf strings.Builder
	err := WriteRequest(&buf, Request{
		Method:  "GET",
		URL:     u,
		Headers: headerset.New(),
		Form:    AbsoluteForm,
	})
	if err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if !strings.HasPrefix(buf.String(), "GET http://example.test/a HTTP/1.1\r\n") {
		t.Fatalf("expected absolute-form target, got %q", buf.String())
	}
}

func TestWriteRequestContentLengthMatchesBody(t *testing.T) {
	u := mustParseURL(t, "http://example.test/")
	var buf strings.Builder
	body := []byte("hello")
	err := WriteRequest(&buf, Request{
		Method:  "POST",
		URL:     u,
		Headers: headerset.New(),
		Body:    body,
		Form:    OriginForm,
	})
	if err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if !strings.Contains(buf.String(), "Content-Length: 5\r\n") {
		t.Fatalf("expected Content-Length: 5, got %q", buf.String())
	}
	if !strings.HasSuffix(buf.String(), "\r\n\r\nhello") {
		t.Fatalf("expected body appended after header terminator, got %q", buf.String())
	}
}

func TestWriteRequestStripsUserSuppliedHost(t *testing.T) {
	u := mustParseURL(t, "http://example.test/")
	h := headerset.New()
	_ = h.Add("Host", "evil.test")
	var buf strings.Builder
	err := WriteRequest(&buf, Request{
		Method:  "GET",
		URL:     u,
		Headers: h,
		Form:    OriginForm,
	})
	if err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if strings.Contains(buf.String(), "evil.test") {
		t.Fatalf("user-supplied Host leaked onto the wire: %q", buf.String())
	}
}

func TestWriteRequestNonDefaultPortHost(t *testing.T) {
	u := mustParseURL(t, "http://example.test:8080/")
	var buf strings.Builder
	err := WriteRequest(&buf, Request{
		Method:  "GET",
		URL:     u,
		Headers: headerset.New(),
		Form:    OriginForm,
	})
	if err != nil {
		t.Fatalf("WriteRequest: %v", err)
	}
	if !strings.Contains(buf.String(), "Host: example.test:8080\r\n") {
		t.Fatalf("expected host:port for non-default port, got %q", buf.String())
	}
}
