package httpcore

import (
	"sync"

	"github.com/httpcore-go/httpcore/internal/bodycodec"
	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/nettrace"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
)

// Response is the terminal value of a send: the status line, headers,
// and body as received (bodyRaw, dechunked but not decompressed) plus a
// lazily computed decompressed/decoded view.
type Response struct {
	statusCode   int
	reasonPhrase string
	headers      *headerset.Set
	bodyRaw      []byte
	finalURL     *urlmodel.URL
	trace        *nettrace.Report

	decodeEnabled bool
	charsetHint   string

	decodeOnce     sync.Once
	decodedBody    []byte
	decodedPartial bool
	decodeErr      error
}

// StatusCode returns the response's HTTP status code.
func (r *Response) StatusCode() int { return r.statusCode }

// ReasonPhrase returns the status line's reason phrase.
func (r *Response) ReasonPhrase() string { return r.reasonPhrase }

// Headers returns the response headers in wire order.
func (r *Response) Headers() *headerset.Set { return r.headers }

// FinalURL returns the URL that produced this response, after any
// redirects were followed.
func (r *Response) FinalURL() *urlmodel.URL { return r.finalURL }

// Trace returns the per-send network timeline and budget evaluation
// collected while producing this response.
func (r *Response) Trace() *nettrace.Report { return r.trace }

// Binary applies the Content-Encoding decompression chain (if enabled)
// and returns the resulting bytes without charset decoding.
func (r *Response) Binary() ([]byte, error) {
	r.decode()
	return r.decodedBody, r.decodeErr
}

// Text applies decode() and then decodes the result as text using the
// charset priority order: explicit hint, Content-Type parameter, BOM
// sniff, UTF-8 default.
func (r *Response) Text() (string, error) {
	body, err := r.Binary()
	if err != nil {
		return "", err
	}
	contentType, _ := r.headers.Get("Content-Type")
	label := bodycodec.ChooseCharset(r.charsetHint, contentType, body)
	return bodycodec.DecodeText(body, label)
}

// Decode forces decompression with an explicit byte cap on the
// decompressed size, refusing with BodyTooLarge rather than truncating
// per the engine's resolution of the ambiguous source behavior.
func (r *Response) Decode(limitBytes int64) ([]byte, error) {
	var body []byte
	if r.decodeEnabled {
		decoded, err := r.Binary()
		if err != nil {
			return nil, err
		}
		body = decoded
	} else {
		contentEncoding, _ := r.headers.Get("Content-Encoding")
		result, err := bodycodec.Decode(r.bodyRaw, contentEncoding)
		if err != nil {
			return nil, err
		}
		body = result.Body
	}
	if limitBytes > 0 && int64(len(body)) > limitBytes {
		return nil, httperr.New(httperr.CodeBodyTooLarge, "decoded body %d bytes exceeds limit %d", len(body), limitBytes)
	}
	return body, nil
}

// DecodedPartial reports whether some Content-Encoding token was not
// recognized; when true, those codings were left applied because they
// were unknown to the decoder.
func (r *Response) DecodedPartial() bool {
	r.decode()
	return r.decodedPartial
}

func (r *Response) decode() {
	r.decodeOnce.Do(func() {
		if !r.decodeEnabled {
			r.decodedBody = r.bodyRaw
			return
		}
		contentEncoding, _ := r.headers.Get("Content-Encoding")
		result, err := bodycodec.Decode(r.bodyRaw, contentEncoding)
		if err != nil {
			r.decodeErr = err
			return
		}
		r.decodedBody = result.Body
		r.decodedPartial = result.DecodedPartial
	})
}
