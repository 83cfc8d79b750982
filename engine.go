package httpcore

import (
	"context"
	"time"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/httpwire"
	"github.com/httpcore-go/httpcore/internal/nettrace"
	"github.com/httpcore-go/httpcore/internal/redirect"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
	"github.com/httpcore-go/httpcore/internal/wireconn"
)

// sendOnce implements §4.5's algorithm: loop { dial; write; read head;
// read body; close; if redirect controller says follow, update
// URL/method/body and continue; else return }. Both SyncHandle and
// AsyncHandle drive this same function — sync calls it directly on the
// caller's goroutine, async calls it on a spawned goroutine, and Go's
// natural blocking I/O gives each the suspension semantics the spec
// describes without a hand-rolled coroutine scheduler.
func sendOnce(ctx context.Context, cfg *RequestConfig) (*Response, error) {
	rc := redirect.New(cfg.URL, cfg.MaxRedirects)

	method := cfg.Method
	body := cfg.Body
	headers := cfg.Headers.Clone()

	deadline := time.Time{}
	if cfg.Timeout > 0 {
		deadline = time.Now().Add(cfg.Timeout)
	}

	var collector *nettrace.Collector
	if cfg.traceEnabled {
		collector = nettrace.NewCollector(time.Now())
	}

	for {
		url := rc.FinalURL()

		conn, err := dialForSend(ctx, url, cfg, deadline, collector)
		if err != nil {
			if ctx.Err() != nil {
				return nil, httperr.Wrap(httperr.CodeCancelled, ctx.Err(), "request cancelled")
			}
			return nil, err
		}

		// ctx covers every suspension point the concurrency model names,
		// not just the dial: registering the close here means a caller
		// cancelling mid-write or mid-read shuts the socket down exactly
		// the same way as a cancellation during dial does, instead of
		// only unblocking the connect/TLS phases.
		stopOnCancel := context.AfterFunc(ctx, func() { conn.Close() })
		resp, hop, err := roundTrip(conn, url, method, headers, body, cfg, rc, collector)
		stopOnCancel()
		conn.Close()
		if err != nil {
			if ctx.Err() != nil {
				return nil, httperr.Wrap(httperr.CodeCancelled, ctx.Err(), "request cancelled")
			}
			return nil, err
		}
		if hop == nil {
			redirectHops := len(rc.Visited()) - 1
			resp.trace = nettrace.NewReport(collector.Finish(time.Now()), nettrace.Budget{}, redirectHops, rc.FinalURL().String())
			return resp, nil
		}

		method = hop.Method
		body = hop.Body
	}
}

func dialForSend(ctx context.Context, url *urlmodel.URL, cfg *RequestConfig, deadline time.Time, collector *nettrace.Collector) (*wireconn.Conn, error) {
	opts := wireconn.Options{
		Proxy:    cfg.Proxy,
		TLS:      cfg.TLS,
		Deadline: deadline,
	}

	port := url.Port
	collector.Enter(nettrace.PhaseConnect, time.Now())
	conn, err := wireconn.Dial(ctx, url.Host, port, url.Scheme, opts, cfg.BufferSize)
	if err != nil {
		return nil, err
	}
	if url.Scheme.Secure() {
		collector.Enter(nettrace.PhaseTLS, time.Now())
	}
	return conn, nil
}

// roundTrip writes one request, reads its response, and asks the
// redirect controller whether to continue. It returns (response, nil,
// nil) when the response should be returned to the caller, or (nil,
// hop, nil) when another round-trip is needed.
func roundTrip(conn *wireconn.Conn, url *urlmodel.URL, method string, headers *headerset.Set, body []byte, cfg *RequestConfig, rc *redirect.Controller, collector *nettrace.Collector) (*Response, *redirect.Hop, error) {
	form := httpwire.OriginForm
	if cfg.Proxy.Kind == wireconn.ProxyHTTP && !url.Scheme.Secure() {
		form = httpwire.AbsoluteForm
	}

	acceptEncoding := ""
	if cfg.DecodeEnabled {
		acceptEncoding = "gzip, deflate, br, zstd"
	}

	collector.Enter(nettrace.PhaseWriteReq, time.Now())
	writeReq := httpwire.Request{
		Method:         method,
		URL:            url,
		Headers:        headers,
		Body:           body,
		Form:           form,
		AcceptEncoding: acceptEncoding,
	}
	if err := httpwire.WriteRequest(conn, writeReq); err != nil {
		return nil, nil, err
	}

	collector.Enter(nettrace.PhaseTTFB, time.Now())
	head, err := httpwire.ReadResponseHead(conn.Reader, cfg.BufferSize)
	if err != nil {
		return nil, nil, err
	}

	collector.Enter(nettrace.PhaseReadBody, time.Now())
	framing, contentLength, err := httpwire.SelectFraming(head, method)
	if err != nil {
		return nil, nil, err
	}
	rawBody, err := httpwire.ReadBody(conn.Reader, framing, contentLength, nil)
	if err != nil {
		return nil, nil, err
	}

	if cfg.RedirectEnabled && redirect.IsRedirectStatus(head.StatusCode) {
		location, _ := head.Headers.Get("Location")
		hop, err := rc.Next(head.StatusCode, location, method, body, headers)
		if err != nil {
			return nil, nil, err
		}
		return nil, hop, nil
	}

	resp := &Response{
		statusCode:    head.StatusCode,
		reasonPhrase:  head.ReasonPhrase,
		headers:       head.Headers,
		bodyRaw:       rawBody,
		finalURL:      rc.FinalURL(),
		decodeEnabled: cfg.DecodeEnabled,
		charsetHint:   cfg.CharsetHint,
	}
	return resp, nil, nil
}

// SyncHandle is the handle build_sync returns: Send performs one
// blocking dial-write-read-redirect cycle on the calling goroutine.
type SyncHandle struct {
	cfg *RequestConfig
}

// Send blocks until the response is fully read or an error occurs.
func (h *SyncHandle) Send(ctx context.Context) (*Response, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	return sendOnce(ctx, h.cfg)
}
