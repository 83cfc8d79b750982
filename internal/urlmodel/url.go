// Package urlmodel is the normalized URL view the engine operates on.
// URL string parsing itself stays an external collaborator (net/url) —
// this package only normalizes the parsed result and adds the reference
// resolution the redirect controller needs.
package urlmodel

import (
	"net/url"
	"strings"

	"github.com/httpcore-go/httpcore/internal/httperr"
)

// Scheme is one of the four schemes this engine understands.
type Scheme string

const (
	SchemeHTTP  Scheme = "http"
	SchemeHTTPS Scheme = "https"
	SchemeWS    Scheme = "ws"
	SchemeWSS   Scheme = "wss"
)

var defaultPorts = map[Scheme]string{
	SchemeHTTP:  "80",
	SchemeHTTPS: "443",
	SchemeWS:    "80",
	SchemeWSS:   "443",
}

// Secure reports whether the scheme requires TLS.
func (s Scheme) Secure() bool {
	return s == SchemeHTTPS || s == SchemeWSS
}

// WebSocket reports whether the scheme is a WebSocket scheme.
func (s Scheme) WebSocket() bool {
	return s == SchemeWS || s == SchemeWSS
}

// URL is the normalized view described by the data model: scheme, host,
// port, path, optional query and userinfo. Scheme and Port are always
// populated after Parse succeeds.
type URL struct {
	Scheme   Scheme
	Host     string // DNS name, IPv4, or IPv6 (stored without brackets), without port
	Port     string
	Path     string
	Query    string
	Userinfo string

	raw *url.URL
}

// Parse normalizes rawURL into a URL, defaulting path and port.
func Parse(rawURL string) (*URL, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return nil, httperr.New(httperr.CodeInvalidURL, "url is empty")
	}

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeInvalidURL, err, "parse url %q", rawURL)
	}
	return fromStd(u)
}

func fromStd(u *url.URL) (*URL, error) {
	if u.Host == "" {
		return nil, httperr.New(httperr.CodeInvalidURL, "url %q has no host", u.String())
	}

	scheme := Scheme(strings.ToLower(u.Scheme))
	switch scheme {
	case SchemeHTTP, SchemeHTTPS, SchemeWS, SchemeWSS:
	default:
		return nil, httperr.New(httperr.CodeUnsupportedScheme, "unsupported scheme %q", u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return nil, httperr.New(httperr.CodeInvalidURL, "url %q has no host", u.String())
	}

	port := u.Port()
	if port == "" {
		port = defaultPorts[scheme]
	}

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	userinfo := ""
	if u.User != nil {
		userinfo = u.User.String()
	}

	return &URL{
		Scheme:   scheme,
		Host:     host,
		Port:     port,
		Path:     path,
		Query:    u.RawQuery,
		Userinfo: userinfo,
		raw:      u,
	}, nil
}

// HostPort returns host[:port], bracketing IPv6 literals as required.
func (u *URL) HostPort() string {
	return hostPort(u.Host, u.Port)
}

func hostPort(host, port string) string {
	if strings.Contains(host, ":") && !strings.HasPrefix(host, "[") {
		host = "[" + host + "]"
	}
	return host + ":" + port
}

// IsDefaultPort reports whether Port matches the scheme's default, in
// which case the wire Host header omits it.
func (u *URL) IsDefaultPort() bool {
	return defaultPorts[u.Scheme] == u.Port
}

// RequestTarget returns the origin-form request-target ("/path?query").
func (u *URL) RequestTarget() string {
	target := u.Path
	if target == "" {
		target = "/"
	}
	if u.Query != "" {
		target += "?" + u.Query
	}
	return target
}

// AbsoluteRequestTarget returns the absolute-form request-target used
// when the request travels through an HTTP proxy in plaintext.
func (u *URL) AbsoluteRequestTarget() string {
	return u.String()
}

// String renders the normalized URL back to text.
func (u *URL) String() string {
	var b strings.Builder
	b.WriteString(string(u.Scheme))
	b.WriteString("://")
	if u.Userinfo != "" {
		b.WriteString(u.Userinfo)
		b.WriteByte('@')
	}
	if u.IsDefaultPort() {
		b.WriteString(u.Host)
	} else {
		b.WriteString(hostPort(u.Host, u.Port))
	}
	if u.Path != "" {
		b.WriteString(u.Path)
	} else {
		b.WriteByte('/')
	}
	if u.Query != "" {
		b.WriteByte('?')
		b.WriteString(u.Query)
	}
	return b.String()
}

// Clone returns a value-independent copy.
func (u *URL) Clone() *URL {
	if u == nil {
		return nil
	}
	clone := *u
	return &clone
}

// Equal compares two normalized URLs for the redirect loop-detection
// visited-set check (scheme, host, port, path and query must all match).
func (u *URL) Equal(other *URL) bool {
	if u == nil || other == nil {
		return u == other
	}
	return u.Scheme == other.Scheme &&
		strings.EqualFold(u.Host, other.Host) &&
		u.Port == other.Port &&
		u.Path == other.Path &&
		u.Query == other.Query
}

// ResolveReference resolves ref (typically a Location header value)
// against u per RFC 3986, delegating the reference-resolution algorithm
// itself to net/url (an external collaborator boundary, same as parsing).
func (u *URL) ResolveReference(ref string) (*URL, error) {
	trimmed := strings.TrimSpace(ref)
	if trimmed == "" {
		return nil, httperr.New(httperr.CodeMalformedRedirect, "empty Location")
	}

	relative, err := url.Parse(trimmed)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeMalformedRedirect, err, "parse Location %q", ref)
	}

	base := u.raw
	if base == nil {
		var perr error
		base, perr = url.Parse(u.String())
		if perr != nil {
			return nil, httperr.Wrap(httperr.CodeMalformedRedirect, perr, "reparse base url")
		}
	}

	resolved := base.ResolveReference(relative)
	return fromStd(resolved)
}
