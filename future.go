package httpcore

import (
	"context"

	"github.com/httpcore-go/httpcore/internal/httperr"
)

// AsyncHandle is the handle build_async returns: Send starts the
// dial-write-read-redirect cycle on its own goroutine and returns a
// Future immediately, giving the caller the "suspends only at I/O
// points" behavior for free — the goroutine is what suspends, not the
// caller.
type AsyncHandle struct {
	cfg *RequestConfig
}

// Send starts the request in the background and returns a Future the
// caller drives with Await.
func (h *AsyncHandle) Send(ctx context.Context) *Future {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)

	f := &Future{
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go func() {
		defer close(f.done)
		resp, err := sendOnce(runCtx, h.cfg)
		f.resp = resp
		f.err = err
	}()

	return f
}

// Future is a single-owner handle to a request running on another
// goroutine. Cancellation is dropping the handle by calling Cancel:
// sendOnce registers a context.AfterFunc against runCtx as soon as each
// connection is dialed, so cancelling reaches every suspension point the
// concurrency model names — DNS, TCP connect, TLS handshake, and each
// socket read/write — not only the ones still in progress at dial time
// (best-effort, per the concurrency model's cancellation rule).
type Future struct {
	cancel context.CancelFunc
	done   chan struct{}
	resp   *Response
	err    error
}

// Await blocks until the request completes, ctx is done, or the Future
// was cancelled, whichever happens first.
func (f *Future) Await(ctx context.Context) (*Response, error) {
	select {
	case <-f.done:
		return f.resp, f.err
	case <-ctx.Done():
		return nil, httperr.Wrap(httperr.CodeCancelled, ctx.Err(), "await cancelled")
	}
}

// Cancel shuts down the underlying connection best-effort and causes a
// pending Await to return Cancelled.
func (f *Future) Cancel() {
	f.cancel()
}
