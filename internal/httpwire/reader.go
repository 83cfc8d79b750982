package httpwire

import (
	"bufio"
	"strconv"
	"strings"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/httperr"
)

// ResponseHead is the parsed status line plus headers, before body
// framing is decided.
type ResponseHead struct {
	StatusCode   int
	ReasonPhrase string
	Headers      *headerset.Set
	// HTTP10 records whether the status line advertised HTTP/1.0.
	// SelectFraming does not consult it: a response with no explicit
	// length is read until EOF under either version.
	HTTP10 bool
}

// maxHeaderMultiplier bounds the header section at read_buffer_size * 16
// per the codec's HeadersTooLarge limit.
const maxHeaderMultiplier = 16

// ReadResponseHead parses the status line and headers from r, refusing
// once the header section exceeds bufSize*16 bytes.
func ReadResponseHead(r *bufio.Reader, bufSize int) (*ResponseHead, error) {
	limit := bufSize * maxHeaderMultiplier
	if limit <= 0 {
		limit = 4096 * maxHeaderMultiplier
	}

	statusLine, n, err := readLimitedLine(r, limit)
	if err != nil {
		return nil, err
	}
	consumed := n

	code, reason, http10, err := parseStatusLine(statusLine)
	if err != nil {
		return nil, err
	}

	headers := headerset.New()
	for {
		line, n, err := readLimitedLine(r, limit-consumed)
		if err != nil {
			return nil, err
		}
		consumed += n
		if consumed > limit {
			return nil, httperr.New(httperr.CodeHeadersTooLarge, "response headers exceed %d bytes", limit)
		}
		if line == "" {
			break
		}
		if line[0] == ' ' || line[0] == '\t' {
			return nil, httperr.New(httperr.CodeMalformedHeader, "obs-fold header continuation is rejected")
		}
		name, value, err := splitHeaderLine(line)
		if err != nil {
			return nil, err
		}
		if err := headers.Add(name, value); err != nil {
			return nil, err
		}
	}

	return &ResponseHead{
		StatusCode:   code,
		ReasonPhrase: reason,
		Headers:      headers,
		HTTP10:       http10,
	}, nil
}

// readLimitedLine reads one CRLF- or LF-terminated line, stripping the
// terminator, and fails with HeadersTooLarge if limit is exceeded before
// a terminator is found.
func readLimitedLine(r *bufio.Reader, limit int) (string, int, error) {
	var b strings.Builder
	for {
		chunk, err := r.ReadString('\n')
		b.WriteString(chunk)
		if b.Len() > limit && limit > 0 {
			return "", b.Len(), httperr.New(httperr.CodeHeadersTooLarge, "header line exceeds %d bytes", limit)
		}
		if err != nil {
			if isTimeout(err) {
				return "", b.Len(), httperr.Wrap(httperr.CodeTimeout, err, "read header line")
			}
			return "", b.Len(), httperr.Wrap(httperr.CodeReadFailed, err, "read header line")
		}
		if strings.HasSuffix(chunk, "\n") {
			break
		}
	}
	line := strings.TrimRight(b.String(), "\r\n")
	return line, b.Len(), nil
}

func parseStatusLine(line string) (code int, reason string, http10 bool, err error) {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return 0, "", false, httperr.New(httperr.CodeMalformedStatus, "malformed status line %q", line)
	}
	proto := parts[0]
	switch proto {
	case "HTTP/1.1":
	case "HTTP/1.0":
		http10 = true
	default:
		return 0, "", false, httperr.New(httperr.CodeMalformedStatus, "unsupported protocol %q", proto)
	}
	code, convErr := strconv.Atoi(parts[1])
	if convErr != nil || code < 100 || code > 599 {
		return 0, "", false, httperr.New(httperr.CodeMalformedStatus, "malformed status code %q", parts[1])
	}
	if len(parts) == 3 {
		reason = parts[2]
	}
	return code, reason, http10, nil
}

func splitHeaderLine(line string) (name, value string, err error) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", httperr.New(httperr.CodeMalformedHeader, "malformed header line %q", line)
	}
	name = line[:idx]
	if strings.ContainsAny(name, " \t") {
		return "", "", httperr.New(httperr.CodeMalformedHeader, "header name %q contains whitespace", name)
	}
	value = strings.TrimSpace(line[idx+1:])
	return name, value, nil
}
