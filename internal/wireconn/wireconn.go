// Package wireconn is the connection substrate: it dials a raw or
// TLS-wrapped byte stream to a target host, optionally through an HTTP
// CONNECT or SOCKS5 proxy, and returns a Conn positioned at the first
// application byte. The HTTP codec and WebSocket layer are unaware of
// whether a proxy was involved except for the absolute-form
// request-target rule, which the caller (the request engine) decides
// from the same Options it passed to Dial.
package wireconn

import (
	"bufio"
	"context"
	"crypto/tls"
	"errors"
	"net"
	"strings"
	"syscall"
	"time"

	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/tlsconfig"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

// ProxyKind selects which proxy protocol, if any, Dial tunnels through.
type ProxyKind int

const (
	ProxyNone ProxyKind = iota
	ProxyHTTP
	ProxySOCKS5
)

// Proxy describes the optional proxy hop.
type Proxy struct {
	Kind     ProxyKind
	Host     string
	Port     string
	Username string
	Password string
}

func (p Proxy) hasAuth() bool {
	return p.Username != "" || p.Password != ""
}

func (p Proxy) hostPort() string {
	return net.JoinHostPort(p.Host, p.Port)
}

// Options configures one Dial call.
type Options struct {
	Proxy    Proxy
	TLS      tlsconfig.Files
	Deadline time.Time // zero means no deadline
}

// Conn is the connection substrate's lifecycle entity: a byte-stream
// endpoint plus a read buffer holding the exact unconsumed prefix of the
// server stream. It is never reused across sends.
type Conn struct {
	net.Conn
	Reader *bufio.Reader
}

// NewConn wraps raw with a read buffer of the given capacity.
func NewConn(raw net.Conn, bufSize int) *Conn {
	if bufSize <= 0 {
		bufSize = 4096
	}
	return &Conn{Conn: raw, Reader: bufio.NewReaderSize(raw, bufSize)}
}

// Dial establishes a stream to targetHost:targetPort for scheme, routing
// through opts.Proxy when set, and returns a Conn positioned at the
// first application byte (past any CONNECT/SOCKS5 handshake and TLS
// handshake).
func Dial(ctx context.Context, targetHost, targetPort string, scheme urlmodel.Scheme, opts Options, bufSize int) (*Conn, error) {
	if !opts.Deadline.IsZero() {
		var cancel context.CancelFunc
		ctx, cancel = context.WithDeadline(ctx, opts.Deadline)
		defer cancel()
	}

	var (
		raw net.Conn
		err error
	)

	switch opts.Proxy.Kind {
	case ProxyHTTP:
		raw, err = dialViaHTTPProxy(ctx, targetHost, targetPort, scheme, opts)
	case ProxySOCKS5:
		raw, err = dialViaSOCKS5(ctx, targetHost, targetPort, scheme, opts)
	default:
		raw, err = dialDirect(ctx, targetHost, targetPort, scheme, opts)
	}
	if err != nil {
		return nil, err
	}

	if !opts.Deadline.IsZero() {
		if err := raw.SetDeadline(opts.Deadline); err != nil {
			raw.Close()
			return nil, httperr.Wrap(httperr.CodeConnectTimeout, err, "set deadline")
		}
	}

	return NewConn(raw, bufSize), nil
}

func dialDirect(ctx context.Context, host, port string, scheme urlmodel.Scheme, opts Options) (net.Conn, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, port))
	if err != nil {
		return nil, classifyDialErr(err)
	}
	if scheme.Secure() {
		return tlsHandshake(ctx, conn, host, opts)
	}
	return conn, nil
}

func tlsHandshake(ctx context.Context, conn net.Conn, sni string, opts Options) (net.Conn, error) {
	cfg, err := tlsconfig.Build(sni, opts.TLS)
	if err != nil {
		conn.Close()
		return nil, err
	}
	tlsConn := tls.Client(conn, cfg)
	if err := tlsConn.HandshakeContext(ctx); err != nil {
		conn.Close()
		return nil, httperr.Wrap(httperr.CodeTLSHandshake, err, "tls handshake with %s", sni)
	}
	return tlsConn, nil
}

func classifyDialErr(err error) error {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return httperr.Wrap(httperr.CodeConnectTimeout, err, "connect timed out")
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return httperr.Wrap(httperr.CodeConnectRefused, err, "connection refused")
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return httperr.Wrap(httperr.CodeDNSFailure, err, "dns lookup failed")
	}
	if strings.Contains(err.Error(), "no such host") {
		return httperr.Wrap(httperr.CodeDNSFailure, err, "dns lookup failed")
	}
	return httperr.Wrap(httperr.CodeConnectRefused, err, "connect failed")
}
