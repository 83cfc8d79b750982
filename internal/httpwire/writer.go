// Package httpwire is the byte-precise HTTP/1.1 codec: it serializes a
// request line, headers, and body onto a stream, and parses a status
// line, headers, and body framing back off one. It never opens a
// connection itself — that is wireconn's job — and never decides
// whether to follow a redirect — that is the redirect controller's job.
package httpwire

import (
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

// TargetForm selects how the request-target is rendered on the wire.
type TargetForm int

const (
	// OriginForm renders "/path?query", used for direct and CONNECT-tunneled requests.
	OriginForm TargetForm = iota
	// AbsoluteForm renders "scheme://host[:port]/path?query", required by
	// RFC 7231 §5.3.4 when writing plaintext requests through an HTTP proxy.
	AbsoluteForm
)

// Request carries everything the writer needs to serialize one request.
// Headers is cloned internally: managed headers are stripped and
// recomputed there so the caller never has to reason about header
// precedence.
type Request struct {
	Method  string
	URL     *urlmodel.URL
	Headers *headerset.Set
	Body    []byte
	Form    TargetForm

	// AcceptEncoding, when non-empty, is written verbatim as the
	// Accept-Encoding header (the engine computes it from decode_enabled).
	AcceptEncoding string

	// Upgrade marks a WebSocket handshake request. Headers already carries
	// Upgrade/Connection/Sec-WebSocket-* set by wsproto.UpgradeHeaders;
	// WriteRequest must preserve them verbatim instead of stripping them
	// as managed and forcing the usual Connection: close.
	Upgrade bool
}

// upgradeManagedNames are the managed headers a WebSocket handshake sets
// itself and WriteRequest must not clobber.
var upgradeManagedNames = []string{
	"Upgrade", "Connection", "Sec-WebSocket-Key", "Sec-WebSocket-Version", "Sec-WebSocket-Protocol",
}

var bodylessMethods = map[string]bool{
	"GET": true, "HEAD": true,
}

// WriteRequest writes the full request line, headers, and body to w. It
// overlays the caller's headers first, then overwrites managed names, so
// the wire form never carries duplicate Host/Content-Length headers.
func WriteRequest(w io.Writer, req Request) error {
	target := requestTarget(req.URL, req.Form)

	var b strings.Builder
	fmt.Fprintf(&b, "%s %s HTTP/1.1\r\n", req.Method, target)

	// Accept-Encoding is a managed header (the engine computes it from
	// decode_enabled), but when decode is disabled the caller's own
	// Accept-Encoding, if any, must pass through untouched rather than
	// being silently dropped by StripManaged below.
	callerAcceptEncoding := req.Headers.Values("Accept-Encoding")

	var upgradeHeaders []headerset.Entry
	if req.Upgrade {
		for _, name := range upgradeManagedNames {
			for _, v := range req.Headers.Values(name) {
				upgradeHeaders = append(upgradeHeaders, headerset.Entry{Name: name, Value: v})
			}
		}
	}

	headers := req.Headers.Clone()
	headers.StripManaged()

	hostValue := req.URL.HostPort()
	if req.URL.IsDefaultPort() {
		hostValue = req.URL.Host
	}
	mustSet(headers, "Host", hostValue)

	switch {
	case req.AcceptEncoding != "":
		mustSet(headers, "Accept-Encoding", req.AcceptEncoding)
	case len(callerAcceptEncoding) > 0:
		for _, v := range callerAcceptEncoding {
			mustAdd(headers, "Accept-Encoding", v)
		}
	}

	if len(req.Body) > 0 {
		mustSet(headers, "Content-Length", strconv.Itoa(len(req.Body)))
	} else if !bodylessMethods[req.Method] {
		mustSet(headers, "Content-Length", "0")
	}

	if req.Upgrade {
		for _, e := range upgradeHeaders {
			mustAdd(headers, e.Name, e.Value)
		}
	} else {
		mustSet(headers, "Connection", "close")
	}

	for _, e := range headers.Entries() {
		fmt.Fprintf(&b, "%s: %s\r\n", e.Name, e.Value)
	}
	b.WriteString("\r\n")

	if _, err := io.WriteString(w, b.String()); err != nil {
		if isTimeout(err) {
			return httperr.Wrap(httperr.CodeTimeout, err, "write request head")
		}
		return httperr.Wrap(httperr.CodeWriteFailed, err, "write request head")
	}

	if len(req.Body) > 0 {
		if _, err := w.Write(req.Body); err != nil {
			if isTimeout(err) {
				return httperr.Wrap(httperr.CodeTimeout, err, "write request body")
			}
			return httperr.Wrap(httperr.CodeWriteFailed, err, "write request body")
		}
	}

	return nil
}

func mustSet(h *headerset.Set, name, value string) {
	// Managed names and Host/Content-Length/Connection are always
	// well-formed ASCII computed internally; Set only fails on CR/LF
	// injection, which cannot occur here.
	_ = h.Set(name, value)
}

func mustAdd(h *headerset.Set, name, value string) {
	// value is copied verbatim from an already-validated header set, so
	// it cannot newly fail CR/LF validation here.
	_ = h.Add(name, value)
}

func requestTarget(u *urlmodel.URL, form TargetForm) string {
	if form == AbsoluteForm {
		return u.AbsoluteRequestTarget()
	}
	return u.RequestTarget()
}

// WithJSONContentType sets Content-Type: application/json if the header
// set does not already carry a Content-Type entry.
func WithJSONContentType(h *headerset.Set) {
	if !h.Has("Content-Type") {
		_ = h.Set("Content-Type", "application/json")
	}
}

// WithTextContentType sets Content-Type: text/plain; charset=utf-8 if
// the header set does not already carry a Content-Type entry.
func WithTextContentType(h *headerset.Set) {
	if !h.Has("Content-Type") {
		_ = h.Set("Content-Type", "text/plain; charset=utf-8")
	}
}

// connectTarget renders "host:port" in CONNECT request-line form. Nothing
// in this module calls it: httpwire never issues CONNECT, and wireconn
// builds its own CONNECT target with net.JoinHostPort.
func connectTarget(host, port string) string {
	return net.JoinHostPort(host, port)
}
