package httpwire

import (
	"bufio"
	"io"
	"net"
	"strconv"
	"strings"

	"github.com/httpcore-go/httpcore/internal/httperr"
)

// isTimeout reports whether err is a net.Error reporting a deadline
// expiry, distinguishing "the caller's timeout fired at this suspension
// point" from a genuine connection failure or clean close.
func isTimeout(err error) bool {
	netErr, ok := err.(net.Error)
	return ok && netErr.Timeout()
}

// maxChunkSize enforces the codec's "a single chunk size must be < 2^31" limit.
const maxChunkSize = 1<<31 - 1

// Framing selects how ReadBody delimits the message body, chosen by the
// caller from the response head per the priority order in the codec's
// body-framing rules.
type Framing int

const (
	FramingChunked Framing = iota
	FramingContentLength
	FramingNone
	FramingUntilEOF
)

// SelectFraming implements the codec's body-framing priority: chunked
// beats Content-Length per RFC 7230 §3.3.3, then an explicit no-body
// response, then Content-Length, then read-until-EOF.
func SelectFraming(head *ResponseHead, method string) (Framing, int64, error) {
	if isChunked(head.Headers) {
		return FramingChunked, 0, nil
	}

	hasNoBody := method == "HEAD" ||
		(head.StatusCode >= 100 && head.StatusCode < 200) ||
		head.StatusCode == 204 || head.StatusCode == 304
	if hasNoBody {
		return FramingNone, 0, nil
	}

	if cl, ok := head.Headers.Get("Content-Length"); ok {
		n, err := strconv.ParseInt(strings.TrimSpace(cl), 10, 64)
		if err != nil || n < 0 {
			return 0, 0, httperr.New(httperr.CodeMalformedHeader, "malformed Content-Length %q", cl)
		}
		return FramingContentLength, n, nil
	}

	return FramingUntilEOF, 0, nil
}

func isChunked(h interface{ Get(string) (string, bool) }) bool {
	te, ok := h.Get("Transfer-Encoding")
	if !ok {
		return false
	}
	for _, tok := range strings.Split(te, ",") {
		if strings.EqualFold(strings.TrimSpace(tok), "chunked") {
			return true
		}
	}
	return false
}

// BodyLimiter caps the total bytes read from a body, per the caller's
// optional maximum (0 means unlimited).
type BodyLimiter struct {
	Max int64
	n   int64
}

func (l *BodyLimiter) charge(n int) error {
	if l.Max <= 0 {
		return nil
	}
	l.n += int64(n)
	if l.n > l.Max {
		return httperr.New(httperr.CodeBodyTooLarge, "body exceeds %d bytes", l.Max)
	}
	return nil
}

// ReadBody reads the full message body from r according to framing,
// applying an optional byte cap via limiter (nil means unlimited).
func ReadBody(r *bufio.Reader, framing Framing, contentLength int64, limiter *BodyLimiter) ([]byte, error) {
	switch framing {
	case FramingNone:
		return nil, nil
	case FramingContentLength:
		return readExactly(r, contentLength, limiter)
	case FramingChunked:
		return readChunked(r, limiter)
	case FramingUntilEOF:
		return readUntilEOF(r, limiter)
	default:
		return nil, httperr.New(httperr.CodeMalformedChunk, "unknown body framing")
	}
}

func readExactly(r *bufio.Reader, n int64, limiter *BodyLimiter) ([]byte, error) {
	if limiter != nil {
		if err := limiter.charge(int(n)); err != nil {
			return nil, err
		}
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		if isTimeout(err) {
			return nil, httperr.Wrap(httperr.CodeTimeout, err, "read body")
		}
		if err == io.ErrUnexpectedEOF || err == io.EOF {
			return nil, httperr.Wrap(httperr.CodeUnexpectedEOF, err, "body ended before Content-Length bytes were read")
		}
		return nil, httperr.Wrap(httperr.CodeReadFailed, err, "read body")
	}
	return buf, nil
}

func readUntilEOF(r *bufio.Reader, limiter *BodyLimiter) ([]byte, error) {
	var out []byte
	buf := make([]byte, 32*1024)
	for {
		n, err := r.Read(buf)
		if n > 0 {
			if limiter != nil {
				if lerr := limiter.charge(n); lerr != nil {
					return nil, lerr
				}
			}
			out = append(out, buf[:n]...)
		}
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			if isTimeout(err) {
				return nil, httperr.Wrap(httperr.CodeTimeout, err, "read body until EOF")
			}
			return nil, httperr.Wrap(httperr.CodeReadFailed, err, "read body until EOF")
		}
	}
}

// readChunked implements the chunked transfer decoder: HEXLEN [;ext]
// CRLF, LEN bytes, CRLF, repeated until a zero-length chunk, followed by
// optional trailers and a final CRLF.
func readChunked(r *bufio.Reader, limiter *BodyLimiter) ([]byte, error) {
	var out []byte
	for {
		sizeLine, err := readChunkLine(r)
		if err != nil {
			return nil, err
		}
		sizeToken := sizeLine
		if idx := strings.IndexByte(sizeToken, ';'); idx >= 0 {
			sizeToken = sizeToken[:idx]
		}
		size, err := strconv.ParseInt(strings.TrimSpace(sizeToken), 16, 64)
		if err != nil || size < 0 || size > maxChunkSize {
			return nil, httperr.New(httperr.CodeMalformedChunk, "malformed chunk size %q", sizeLine)
		}

		if size == 0 {
			if err := drainTrailers(r); err != nil {
				return nil, err
			}
			return out, nil
		}

		if limiter != nil {
			if err := limiter.charge(int(size)); err != nil {
				return nil, err
			}
		}

		chunk := make([]byte, size)
		if _, err := io.ReadFull(r, chunk); err != nil {
			if isTimeout(err) {
				return nil, httperr.Wrap(httperr.CodeTimeout, err, "read chunk data")
			}
			return nil, httperr.Wrap(httperr.CodeUnexpectedEOF, err, "connection closed mid-chunk")
		}
		out = append(out, chunk...)

		trailer := make([]byte, 2)
		if _, err := io.ReadFull(r, trailer); err != nil {
			if isTimeout(err) {
				return nil, httperr.Wrap(httperr.CodeTimeout, err, "read chunk terminator")
			}
			return nil, httperr.Wrap(httperr.CodeUnexpectedEOF, err, "missing chunk CRLF terminator")
		}
		if trailer[0] != '\r' || trailer[1] != '\n' {
			return nil, httperr.New(httperr.CodeMalformedChunk, "chunk not terminated by CRLF")
		}
	}
}

func readChunkLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil {
		if isTimeout(err) {
			return "", httperr.Wrap(httperr.CodeTimeout, err, "read chunk size")
		}
		return "", httperr.Wrap(httperr.CodeUnexpectedEOF, err, "connection closed reading chunk size")
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func drainTrailers(r *bufio.Reader) error {
	for {
		line, err := r.ReadString('\n')
		if err != nil {
			if isTimeout(err) {
				return httperr.Wrap(httperr.CodeTimeout, err, "read chunk trailers")
			}
			return httperr.Wrap(httperr.CodeUnexpectedEOF, err, "connection closed reading chunk trailers")
		}
		if strings.TrimRight(line, "\r\n") == "" {
			return nil
		}
	}
}
