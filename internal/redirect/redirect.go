// Package redirect implements the state machine described in the
// engine's redirect controller: given a response and the URL/method/body
// that produced it, decide whether to follow, and if so, compute the
// next hop's URL, method, body, and headers.
package redirect

import (
	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

// Controller tracks the visited URLs for one send call's redirect chain.
type Controller struct {
	visited      []*urlmodel.URL
	maxRedirects int
}

// New returns a controller seeded with the initial request URL.
func New(initial *urlmodel.URL, maxRedirects int) *Controller {
	return &Controller{
		visited:      []*urlmodel.URL{initial},
		maxRedirects: maxRedirects,
	}
}

// Visited returns the ordered list of URLs seen so far, including the
// initial request URL.
func (c *Controller) Visited() []*urlmodel.URL {
	return c.visited
}

// FinalURL returns the last URL visited.
func (c *Controller) FinalURL() *urlmodel.URL {
	return c.visited[len(c.visited)-1]
}

var redirectStatuses = map[int]bool{
	301: true, 302: true, 303: true, 307: true, 308: true,
}

// IsRedirectStatus reports whether status is one the controller acts on.
func IsRedirectStatus(status int) bool {
	return redirectStatuses[status]
}

// Hop is the next request to issue after a redirect decision.
type Hop struct {
	URL    *urlmodel.URL
	Method string
	Body   []byte
}

// Next applies one redirect step: it resolves location against the
// current URL, checks the visited set and max-redirects budget, and
// computes the rewritten method/body/headers per status-code rules.
func (c *Controller) Next(status int, location string, currentMethod string, currentBody []byte, headers *headerset.Set) (*Hop, error) {
	if location == "" {
		return nil, httperr.New(httperr.CodeMalformedRedirect, "redirect status %d missing Location", status)
	}

	current := c.FinalURL()
	next, err := current.ResolveReference(location)
	if err != nil {
		return nil, err
	}

	for _, v := range c.visited {
		if v.Equal(next) {
			return nil, httperr.New(httperr.CodeRedirectLoop, "redirect loop detected at %s", next.String())
		}
	}

	if len(c.visited) >= c.maxRedirects+1 {
		return nil, httperr.New(httperr.CodeTooManyRedirects, "exceeded %d redirects", c.maxRedirects)
	}

	method, body := rewriteMethodAndBody(status, currentMethod, currentBody)

	if hostOrSchemeChanged(current, next) {
		headers.Del("Authorization")
	}

	c.visited = append(c.visited, next)

	return &Hop{URL: next, Method: method, Body: body}, nil
}

// rewriteMethodAndBody implements the method/body rewrite rules: 303
// always downgrades to GET with no body; 301/302 downgrade POST/PUT/PATCH
// to GET with no body but leave other methods untouched; 307/308 always
// preserve method and body.
func rewriteMethodAndBody(status int, method string, body []byte) (string, []byte) {
	switch status {
	case 303:
		return "GET", nil
	case 301, 302:
		if method == "POST" || method == "PUT" || method == "PATCH" {
			return "GET", nil
		}
		return method, body
	case 307, 308:
		return method, body
	default:
		return method, body
	}
}

func hostOrSchemeChanged(a, b *urlmodel.URL) bool {
	return a.Scheme != b.Scheme || !equalFoldHost(a.Host, b.Host)
}

func equalFoldHost(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
