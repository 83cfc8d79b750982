package wireconn

import (
	"context"
	"io"
	"net"
	"strings"
	"testing"

	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

func TestSendConnectSuccessCapturesPrefetchedBytes(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	type result struct {
		pre []byte
		err error
	}
	done := make(chan result, 1)
	go func() {
		pre, err := sendConnect(client, "example.test", "443", Proxy{})
		done <- result{pre, err}
	}()

	buf := make([]byte, 4096)
	if _, err := server.Read(buf); err != nil {
		t.Fatalf("read CONNECT request: %v", err)
	}
	if _, err := server.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\nPREFETCHED")); err != nil {
		t.Fatalf("write CONNECT response: %v", err)
	}

	res := <-done
	if res.err != nil {
		t.Fatalf("sendConnect returned error: %v", res.err)
	}
	if string(res.pre) != "PREFETCHED" {
		t.Fatalf("prefetched bytes = %q, want %q", res.pre, "PREFETCHED")
	}
}

func TestSendConnectRejectsProxyAuthRequired(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		_, err := sendConnect(client, "example.test", "443", Proxy{})
		done <- err
	}()

	buf := make([]byte, 4096)
	if _, err := server.Read(buf); err != nil {
		t.Fatalf("read CONNECT request: %v", err)
	}
	if _, err := server.Write([]byte("HTTP/1.1 407 Proxy Authentication Required\r\n\r\n")); err != nil {
		t.Fatalf("write CONNECT response: %v", err)
	}

	err := <-done
	if httperr.CodeOf(err) != httperr.CodeProxyAuthRequired {
		t.Fatalf("code = %v, want ProxyAuthRequired", httperr.CodeOf(err))
	}
}

func TestSendConnectRejectsNon2xx(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		_, err := sendConnect(client, "example.test", "443", Proxy{})
		done <- err
	}()

	buf := make([]byte, 4096)
	if _, err := server.Read(buf); err != nil {
		t.Fatalf("read CONNECT request: %v", err)
	}
	if _, err := server.Write([]byte("HTTP/1.1 502 Bad Gateway\r\n\r\n")); err != nil {
		t.Fatalf("write CONNECT response: %v", err)
	}

	err := <-done
	if httperr.CodeOf(err) != httperr.CodeProxyRejected {
		t.Fatalf("code = %v, want ProxyRejected", httperr.CodeOf(err))
	}
}

func TestSendConnectWritesProxyAuthorizationHeader(t *testing.T) {
	client, server := net.Pipe()
	defer client.Close()
	defer server.Close()

	done := make(chan error, 1)
	go func() {
		_, err := sendConnect(client, "example.test", "443", Proxy{Username: "alice", Password: "secret"})
		done <- err
	}()

	buf := make([]byte, 4096)
	n, err := server.Read(buf)
	if err != nil {
		t.Fatalf("read CONNECT request: %v", err)
	}
	req := string(buf[:n])
	if !strings.Contains(req, "CONNECT example.test:443 HTTP/1.1") {
		t.Fatalf("missing CONNECT line: %q", req)
	}
	if !strings.Contains(req, "Proxy-Authorization: Basic YWxpY2U6c2VjcmV0") {
		t.Fatalf("missing Proxy-Authorization header: %q", req)
	}

	if _, err := server.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n")); err != nil {
		t.Fatalf("write CONNECT response: %v", err)
	}
	if err := <-done; err != nil {
		t.Fatalf("sendConnect returned error: %v", err)
	}
}

// TestDialViaHTTPProxyPlaintextSkipsConnect exercises spec §8 scenario 5's
// plaintext leg: for a non-secure scheme, dialViaHTTPProxy hands back the
// raw proxy connection with no CONNECT tunnel, leaving the codec to write
// an absolute-form request directly to the proxy.
func TestDialViaHTTPProxyPlaintextSkipsConnect(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := ln.Accept()
		if err == nil {
			accepted <- conn
		}
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	opts := Options{Proxy: Proxy{Kind: ProxyHTTP, Host: host, Port: port}}

	conn, err := dialViaHTTPProxy(context.Background(), "example.test", "80", urlmodel.SchemeHTTP, opts)
	if err != nil {
		t.Fatalf("dialViaHTTPProxy: %v", err)
	}
	defer conn.Close()

	server := <-accepted
	defer server.Close()

	if _, err := conn.Write([]byte("ping")); err != nil {
		t.Fatalf("write: %v", err)
	}
	buf := make([]byte, 4)
	if _, err := io.ReadFull(server, buf); err != nil {
		t.Fatalf("server read: %v", err)
	}
	if string(buf) != "ping" {
		t.Fatalf("server received %q", buf)
	}
}

// TestDialViaHTTPProxySecureTunnelsConnectBeforeTLS exercises the secure
// leg: dialViaHTTPProxy must issue CONNECT and only proceed once the proxy
// answers 200, at which point it starts a TLS handshake with the target
// (which a plain TCP fake proxy cannot complete, so this only asserts the
// CONNECT exchange happened and the subsequent failure is a TLS failure,
// not a proxy-protocol failure).
func TestDialViaHTTPProxySecureTunnelsConnectBeforeTLS(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	serverDone := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			serverDone <- ""
			return
		}
		defer conn.Close()
		buf := make([]byte, 4096)
		n, _ := conn.Read(buf)
		serverDone <- string(buf[:n])
		conn.Write([]byte("HTTP/1.1 200 Connection Established\r\n\r\n"))
	}()

	host, port, err := net.SplitHostPort(ln.Addr().String())
	if err != nil {
		t.Fatalf("split addr: %v", err)
	}
	opts := Options{Proxy: Proxy{Kind: ProxyHTTP, Host: host, Port: port}}

	_, err = dialViaHTTPProxy(context.Background(), "example.test", "443", urlmodel.SchemeHTTPS, opts)
	if err == nil {
		t.Fatalf("expected TLS handshake failure against a plain TCP fake proxy")
	}
	if httperr.CodeOf(err) != httperr.CodeTLSHandshake {
		t.Fatalf("code = %v, want TLSHandshake", httperr.CodeOf(err))
	}

	connectLine := <-serverDone
	if !strings.HasPrefix(connectLine, "CONNECT example.test:443 HTTP/1.1") {
		t.Fatalf("proxy did not see CONNECT line: %q", connectLine)
	}
}
