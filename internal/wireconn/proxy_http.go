package wireconn

import (
	"bufio"
	"context"
	"encoding/base64"
	"fmt"
	"net"
	"net/textproto"
	"strconv"
	"strings"

	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

// dialViaHTTPProxy implements spec §4.1 steps 1-2: for secure schemes it
// opens a CONNECT tunnel and hands back a stream ready for a TLS
// handshake with the target as SNI; for plaintext schemes it hands back
// the raw connection to the proxy, and the caller (the HTTP codec) must
// use the absolute-form request-target since no CONNECT ever happens.
func dialViaHTTPProxy(ctx context.Context, targetHost, targetPort string, scheme urlmodel.Scheme, opts Options) (net.Conn, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", opts.Proxy.hostPort())
	if err != nil {
		return nil, classifyDialErr(err)
	}

	if !scheme.Secure() {
		// Absolute-form request-target is written by the codec; nothing
		// more to do at the connection substrate layer.
		return conn, nil
	}

	prefetched, err := sendConnect(conn, targetHost, targetPort, opts.Proxy)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return tlsHandshake(ctx, newPrefetchedConn(conn, prefetched), targetHost, opts)
}

// sendConnect writes the CONNECT request and validates the response. It
// returns any bytes the read buffer pulled in past the header
// terminator, which belong to the tunneled protocol and must not be
// dropped.
func sendConnect(conn net.Conn, host, port string, proxy Proxy) ([]byte, error) {
	target := net.JoinHostPort(host, port)

	var b strings.Builder
	fmt.Fprintf(&b, "CONNECT %s HTTP/1.1\r\n", target)
	fmt.Fprintf(&b, "Host: %s\r\n", target)
	if proxy.hasAuth() {
		token := base64.StdEncoding.EncodeToString([]byte(proxy.Username + ":" + proxy.Password))
		fmt.Fprintf(&b, "Proxy-Authorization: Basic %s\r\n", token)
	}
	b.WriteString("\r\n")

	if _, err := conn.Write([]byte(b.String())); err != nil {
		return nil, httperr.Wrap(httperr.CodeWriteFailed, err, "write CONNECT request")
	}

	reader := bufio.NewReader(conn)
	tp := textproto.NewReader(reader)

	statusLine, err := tp.ReadLine()
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeReadFailed, err, "read CONNECT response")
	}

	code, err := parseStatusCode(statusLine)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeProxyProtocol, err, "malformed CONNECT status line %q", statusLine)
	}

	if _, err := tp.ReadMIMEHeader(); err != nil {
		return nil, httperr.Wrap(httperr.CodeProxyProtocol, err, "read CONNECT response headers")
	}

	switch {
	case code == 407:
		return nil, httperr.New(httperr.CodeProxyAuthRequired, "proxy requires authentication")
	case code < 200 || code >= 300:
		return nil, httperr.New(httperr.CodeProxyRejected, "proxy rejected CONNECT with status %d", code)
	}

	n := reader.Buffered()
	if n == 0 {
		return nil, nil
	}
	pre := make([]byte, n)
	if _, err := reader.Read(pre); err != nil {
		return nil, httperr.Wrap(httperr.CodeReadFailed, err, "drain CONNECT read buffer")
	}
	return pre, nil
}

func parseStatusCode(line string) (int, error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return 0, httperr.New(httperr.CodeProxyProtocol, "malformed status line %q", line)
	}
	return strconv.Atoi(parts[1])
}
