package wireconn

import (
	"context"
	"encoding/binary"
	"net"

	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

const (
	socks5Version    = 0x05
	socks5MethodNone = 0x00
	socks5MethodUser = 0x02
	socks5MethodNack = 0xff

	socks5CmdConnect = 0x01

	socks5ATYPIPv4   = 0x01
	socks5ATYPDomain = 0x03
	socks5ATYPIPv6   = 0x04
)

// dialViaSOCKS5 implements spec §4.1 step 3: RFC 1928 greeting and
// CONNECT, with RFC 1929 username/password authentication when
// credentials are configured.
func dialViaSOCKS5(ctx context.Context, targetHost, targetPort string, scheme urlmodel.Scheme, opts Options) (net.Conn, error) {
	dialer := &net.Dialer{}
	conn, err := dialer.DialContext(ctx, "tcp", opts.Proxy.hostPort())
	if err != nil {
		return nil, classifyDialErr(err)
	}

	if err := socks5Handshake(conn, targetHost, targetPort, opts.Proxy); err != nil {
		conn.Close()
		return nil, err
	}

	if scheme.Secure() {
		return tlsHandshake(ctx, conn, targetHost, opts)
	}
	return conn, nil
}

func socks5Handshake(conn net.Conn, host, port string, proxy Proxy) error {
	methods := []byte{socks5MethodNone}
	if proxy.hasAuth() {
		methods = append(methods, socks5MethodUser)
	}

	greeting := make([]byte, 0, 2+len(methods))
	greeting = append(greeting, socks5Version, byte(len(methods)))
	greeting = append(greeting, methods...)
	if _, err := conn.Write(greeting); err != nil {
		return httperr.Wrap(httperr.CodeWriteFailed, err, "write SOCKS5 greeting")
	}

	reply := make([]byte, 2)
	if _, err := readFull(conn, reply); err != nil {
		return httperr.Wrap(httperr.CodeReadFailed, err, "read SOCKS5 method selection")
	}
	if reply[0] != socks5Version {
		return httperr.New(httperr.CodeProxyProtocol, "unexpected SOCKS version %d", reply[0])
	}

	switch reply[1] {
	case socks5MethodNone:
		// no auth required
	case socks5MethodUser:
		if err := socks5Authenticate(conn, proxy); err != nil {
			return err
		}
	case socks5MethodNack:
		return httperr.New(httperr.CodeProxyAuthRequired, "SOCKS5 proxy rejected all offered methods")
	default:
		return httperr.New(httperr.CodeProxyProtocol, "unsupported SOCKS5 method 0x%02x", reply[1])
	}

	return socks5Connect(conn, host, port)
}

func socks5Authenticate(conn net.Conn, proxy Proxy) error {
	if len(proxy.Username) > 255 || len(proxy.Password) > 255 {
		return httperr.New(httperr.CodeProxyProtocol, "SOCKS5 username/password exceeds 255 bytes")
	}

	req := make([]byte, 0, 3+len(proxy.Username)+len(proxy.Password))
	req = append(req, 0x01, byte(len(proxy.Username)))
	req = append(req, proxy.Username...)
	req = append(req, byte(len(proxy.Password)))
	req = append(req, proxy.Password...)
	if _, err := conn.Write(req); err != nil {
		return httperr.Wrap(httperr.CodeWriteFailed, err, "write SOCKS5 credentials")
	}

	reply := make([]byte, 2)
	if _, err := readFull(conn, reply); err != nil {
		return httperr.Wrap(httperr.CodeReadFailed, err, "read SOCKS5 auth response")
	}
	if reply[1] != 0x00 {
		return httperr.New(httperr.CodeProxyAuthRequired, "SOCKS5 authentication failed (status 0x%02x)", reply[1])
	}
	return nil
}

func socks5Connect(conn net.Conn, host, port string) error {
	req := []byte{socks5Version, socks5CmdConnect, 0x00}
	req = append(req, encodeSOCKS5Address(host)...)

	portNum, err := parsePort(port)
	if err != nil {
		return httperr.Wrap(httperr.CodeProxyProtocol, err, "invalid target port %q", port)
	}
	portBytes := make([]byte, 2)
	binary.BigEndian.PutUint16(portBytes, portNum)
	req = append(req, portBytes...)

	if _, err := conn.Write(req); err != nil {
		return httperr.Wrap(httperr.CodeWriteFailed, err, "write SOCKS5 connect request")
	}

	header := make([]byte, 4)
	if _, err := readFull(conn, header); err != nil {
		return httperr.Wrap(httperr.CodeReadFailed, err, "read SOCKS5 connect reply")
	}
	if header[0] != socks5Version {
		return httperr.New(httperr.CodeProxyProtocol, "unexpected SOCKS version %d in reply", header[0])
	}
	if header[1] != 0x00 {
		return httperr.New(httperr.CodeProxyRejected, "SOCKS5 CONNECT rejected (REP=0x%02x)", header[1])
	}

	// Drain the bound address per ATYP: it is not needed by the client
	// but must be consumed so the stream is left at the first
	// application byte.
	switch header[3] {
	case socks5ATYPIPv4:
		if _, err := readFull(conn, make([]byte, 4+2)); err != nil {
			return httperr.Wrap(httperr.CodeReadFailed, err, "read SOCKS5 bound IPv4 address")
		}
	case socks5ATYPIPv6:
		if _, err := readFull(conn, make([]byte, 16+2)); err != nil {
			return httperr.Wrap(httperr.CodeReadFailed, err, "read SOCKS5 bound IPv6 address")
		}
	case socks5ATYPDomain:
		lenByte := make([]byte, 1)
		if _, err := readFull(conn, lenByte); err != nil {
			return httperr.Wrap(httperr.CodeReadFailed, err, "read SOCKS5 bound domain length")
		}
		if _, err := readFull(conn, make([]byte, int(lenByte[0])+2)); err != nil {
			return httperr.Wrap(httperr.CodeReadFailed, err, "read SOCKS5 bound domain address")
		}
	default:
		return httperr.New(httperr.CodeProxyProtocol, "unsupported SOCKS5 bound address type 0x%02x", header[3])
	}

	return nil
}

func encodeSOCKS5Address(host string) []byte {
	if ip := net.ParseIP(host); ip != nil {
		if v4 := ip.To4(); v4 != nil {
			return append([]byte{socks5ATYPIPv4}, v4...)
		}
		return append([]byte{socks5ATYPIPv6}, ip.To16()...)
	}
	out := []byte{socks5ATYPDomain, byte(len(host))}
	return append(out, host...)
}

func parsePort(port string) (uint16, error) {
	var n uint16
	for _, r := range port {
		if r < '0' || r > '9' {
			return 0, httperr.New(httperr.CodeProxyProtocol, "invalid port digit %q", r)
		}
		n = n*10 + uint16(r-'0')
	}
	return n, nil
}

func readFull(conn net.Conn, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := conn.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
