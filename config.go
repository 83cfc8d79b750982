package httpcore

import (
	"time"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/tlsconfig"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
	"github.com/httpcore-go/httpcore/internal/wireconn"
)

// RequestConfig is the immutable snapshot a Builder freezes at
// build_sync/build_async time. The engine reads it but never mutates it;
// every send that follows a redirect operates on a derived URL/method/
// body, never on RequestConfig itself.
type RequestConfig struct {
	Method  string
	URL     *urlmodel.URL
	Headers *headerset.Set
	Body    []byte

	Timeout    time.Duration
	BufferSize int

	RedirectEnabled bool
	MaxRedirects    int

	HTTP11Only bool

	DecodeEnabled bool
	CharsetHint   string

	Protocols []string

	Proxy wireconn.Proxy
	TLS   tlsconfig.Files

	// traceEnabled turns on nettrace collection for this request. It is
	// unexported and reachable only through withTrace, an internal
	// test-only constructor — the public Builder surface stays exactly
	// what spec.md §6 lists, with tracing kept as ambient diagnostics
	// rather than a Builder option.
	traceEnabled bool
}

// withTrace returns a copy of cfg with tracing enabled, for tests that
// need to inspect Response.Trace() without adding a public Builder
// option for it.
func withTrace(cfg *RequestConfig) *RequestConfig {
	clone := *cfg
	clone.traceEnabled = true
	return &clone
}

const defaultMaxRedirects = 8
const defaultBufferSize = 8192
