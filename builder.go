// Package httpcore is a client-side HTTP/1.1, HTTPS, and WebSocket
// engine: a byte-precise request/response codec, proxy-tunneled
// connection establishment (HTTP CONNECT, HTTPS CONNECT, SOCKS5),
// chunked transfer and content-encoding decoding, redirect-chasing with
// loop detection, and synchronous or cooperative-asynchronous execution
// sharing the same design.
//
// A Builder configures one request; build_sync/build_async freezes it
// into a RequestConfig and returns a handle whose Send performs the
// dial-write-read-redirect loop exactly once per call.
package httpcore

import (
	"context"
	"encoding/json"
	"time"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/httpwire"
	"github.com/httpcore-go/httpcore/internal/tlsconfig"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
	"github.com/httpcore-go/httpcore/internal/wireconn"
)

// Builder accumulates request options until build_sync or build_async
// freezes them. Setters return the Builder so calls chain. JSON, the one
// setter that can fail (a value that cannot be marshaled), records the
// error and is a no-op once an error is recorded; the URL is parsed only
// at build time. Build returns the first error either way, so callers
// need only check that one.
type Builder struct {
	method string
	rawURL string

	headers *headerset.Set
	body    []byte

	timeout    time.Duration
	bufferSize int

	redirectEnabled bool
	maxRedirects    int

	http11Only bool

	decodeEnabled bool
	charsetHint   string

	protocols []string

	proxy wireconn.Proxy
	tls   tlsconfig.Files

	err error
}

// New starts a fresh Builder with the engine's defaults: redirects
// disabled, an 8-hop cap once enabled, and an 8KiB read buffer.
func New() *Builder {
	return &Builder{
		headers:      headerset.New(),
		maxRedirects: defaultMaxRedirects,
		bufferSize:   defaultBufferSize,
	}
}

func (b *Builder) fail(err error) *Builder {
	if b.err == nil {
		b.err = err
	}
	return b
}

func (b *Builder) setMethod(method, url string) *Builder {
	b.method = method
	b.rawURL = url
	return b
}

func (b *Builder) Get(url string) *Builder    { return b.setMethod("GET", url) }
func (b *Builder) Post(url string) *Builder   { return b.setMethod("POST", url) }
func (b *Builder) Put(url string) *Builder    { return b.setMethod("PUT", url) }
func (b *Builder) Delete(url string) *Builder { return b.setMethod("DELETE", url) }
func (b *Builder) Head(url string) *Builder   { return b.setMethod("HEAD", url) }
func (b *Builder) Patch(url string) *Builder  { return b.setMethod("PATCH", url) }

// Connect sets a WebSocket target (ws:// or wss://); the handshake
// always issues a GET per RFC 6455 §4.1.
func (b *Builder) Connect(wsURL string) *Builder { return b.setMethod("GET", wsURL) }

// Headers replaces the header set. Managed names are still overwritten
// on send regardless of what the caller supplies here.
func (b *Builder) Headers(set *headerset.Set) *Builder {
	if set != nil {
		b.headers = set.Clone()
	}
	return b
}

// JSON sets the body to the UTF-8 JSON serialization of v and defaults
// Content-Type to application/json. JSON value construction is treated
// as an external collaborator, so marshaling itself is encoding/json.
func (b *Builder) JSON(v any) *Builder {
	if b.err != nil {
		return b
	}
	data, err := json.Marshal(v)
	if err != nil {
		return b.fail(httperr.Wrap(httperr.CodeInvalidURL, err, "marshal json body"))
	}
	b.body = data
	httpwire.WithJSONContentType(b.headers)
	return b
}

// Text sets the body to the UTF-8 bytes of s and defaults Content-Type
// to text/plain; charset=utf-8.
func (b *Builder) Text(s string) *Builder {
	b.body = []byte(s)
	httpwire.WithTextContentType(b.headers)
	return b
}

// Body sets the body to raw bytes with no Content-Type assumption.
func (b *Builder) Body(data []byte) *Builder {
	b.body = data
	return b
}

// Timeout sets the per-send wall deadline.
func (b *Builder) Timeout(d time.Duration) *Builder {
	b.timeout = d
	return b
}

// Redirect enables redirect following (disabled by default).
func (b *Builder) Redirect() *Builder {
	b.redirectEnabled = true
	return b
}

// MaxRedirectTimes caps redirect hops.
func (b *Builder) MaxRedirectTimes(n int) *Builder {
	b.maxRedirects = n
	return b
}

// HTTP11Only forces HTTP/1.1 advertisement; it is a no-op flag since
// HTTP/1.1 is the only version this engine speaks, kept for API parity
// with the option the builder must recognize.
func (b *Builder) HTTP11Only() *Builder {
	b.http11Only = true
	return b
}

// Buffer sets the read buffer byte capacity.
func (b *Builder) Buffer(n int) *Builder {
	b.bufferSize = n
	return b
}

// Decode enables automatic content-encoding decompression on response.
func (b *Builder) Decode() *Builder {
	b.decodeEnabled = true
	return b
}

// CharsetHint forces the charset used for text decoding, overriding the
// Content-Type parameter and BOM sniff.
func (b *Builder) CharsetHint(charset string) *Builder {
	b.charsetHint = charset
	return b
}

// Protocols sets the WebSocket subprotocols offered during the upgrade
// handshake.
func (b *Builder) Protocols(list []string) *Builder {
	b.protocols = list
	return b
}

// HTTPProxy routes the connection through an unauthenticated HTTP proxy.
func (b *Builder) HTTPProxy(host, port string) *Builder {
	b.proxy = wireconn.Proxy{Kind: wireconn.ProxyHTTP, Host: host, Port: port}
	return b
}

// HTTPProxyAuth routes through an HTTP proxy with Basic auth.
func (b *Builder) HTTPProxyAuth(host, port, user, pass string) *Builder {
	b.proxy = wireconn.Proxy{Kind: wireconn.ProxyHTTP, Host: host, Port: port, Username: user, Password: pass}
	return b
}

// SOCKS5Proxy routes through an unauthenticated SOCKS5 proxy.
func (b *Builder) SOCKS5Proxy(host, port string) *Builder {
	b.proxy = wireconn.Proxy{Kind: wireconn.ProxySOCKS5, Host: host, Port: port}
	return b
}

// SOCKS5ProxyAuth routes through a SOCKS5 proxy with username/password auth.
func (b *Builder) SOCKS5ProxyAuth(host, port, user, pass string) *Builder {
	b.proxy = wireconn.Proxy{Kind: wireconn.ProxySOCKS5, Host: host, Port: port, Username: user, Password: pass}
	return b
}

// TLS sets the certificate material used for TLS handshakes.
func (b *Builder) TLS(files tlsconfig.Files) *Builder {
	b.tls = files
	return b
}

func (b *Builder) freeze() (*RequestConfig, error) {
	if b.err != nil {
		return nil, b.err
	}
	if b.method == "" || b.rawURL == "" {
		return nil, httperr.New(httperr.CodeInvalidURL, "no method/url set on builder")
	}

	u, err := urlmodel.Parse(b.rawURL)
	if err != nil {
		return nil, err
	}

	maxRedirects := b.maxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}
	bufferSize := b.bufferSize
	if bufferSize <= 0 {
		bufferSize = defaultBufferSize
	}

	return &RequestConfig{
		Method:          b.method,
		URL:             u,
		Headers:         b.headers.Clone(),
		Body:            b.body,
		Timeout:         b.timeout,
		BufferSize:      bufferSize,
		RedirectEnabled: b.redirectEnabled,
		MaxRedirects:    maxRedirects,
		HTTP11Only:      b.http11Only,
		DecodeEnabled:   b.decodeEnabled,
		CharsetHint:     b.charsetHint,
		Protocols:       b.protocols,
		Proxy:           b.proxy,
		TLS:             b.tls,
	}, nil
}

// BuildSync freezes the configuration into a SyncHandle whose Send
// blocks the calling goroutine for the duration of one request.
func (b *Builder) BuildSync() (*SyncHandle, error) {
	cfg, err := b.freeze()
	if err != nil {
		return nil, err
	}
	return &SyncHandle{cfg: cfg}, nil
}

// BuildAsync freezes the configuration into an AsyncHandle whose Send
// returns a Future immediately; the request runs on its own goroutine
// and suspends the caller only at Await.
func (b *Builder) BuildAsync() (*AsyncHandle, error) {
	cfg, err := b.freeze()
	if err != nil {
		return nil, err
	}
	return &AsyncHandle{cfg: cfg}, nil
}

// DialWebSocket freezes the configuration set by Connect and performs
// the upgrade handshake, returning a live WebSocket session.
func (b *Builder) DialWebSocket(ctx context.Context) (*WebSocket, error) {
	cfg, err := b.freeze()
	if err != nil {
		return nil, err
	}
	return DialWebSocket(ctx, cfg)
}
