// Package bodycodec applies the Content-Encoding decompression pipeline
// and charset-hinted text decoding to a response's raw body. Nothing
// here decides whether decoding happens at all — that toggle
// (decode_enabled) lives on the request engine, which calls Decode only
// when the caller asked for it.
package bodycodec

import (
	"bytes"
	"io"
	"strings"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"

	"github.com/httpcore-go/httpcore/internal/httperr"
)

// Result is what Decode returns: the fully decompressed bytes plus
// whether every coding in the chain was recognized.
type Result struct {
	Body           []byte
	DecodedPartial bool
}

// Decode applies the comma-separated Content-Encoding tokens to raw,
// right-to-left per the order the header lists them (the last-applied
// coding is the first one undone).
func Decode(raw []byte, contentEncoding string) (Result, error) {
	tokens := splitTokens(contentEncoding)
	if len(tokens) == 0 {
		return Result{Body: raw}, nil
	}

	body := raw
	partial := false
	for i := len(tokens) - 1; i >= 0; i-- {
		tok := tokens[i]
		switch tok {
		case "identity", "":
			continue
		case "gzip", "x-gzip":
			decoded, err := decodeGzip(body)
			if err != nil {
				return Result{}, err
			}
			body = decoded
		case "deflate":
			decoded, err := decodeDeflate(body)
			if err != nil {
				return Result{}, err
			}
			body = decoded
		case "br":
			decoded, err := decodeBrotli(body)
			if err != nil {
				return Result{}, err
			}
			body = decoded
		case "zstd":
			decoded, err := decodeZstd(body)
			if err != nil {
				return Result{}, err
			}
			body = decoded
		default:
			partial = true
		}
	}

	return Result{Body: body, DecodedPartial: partial}, nil
}

func splitTokens(contentEncoding string) []string {
	if strings.TrimSpace(contentEncoding) == "" {
		return nil
	}
	parts := strings.Split(contentEncoding, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(strings.TrimSpace(p)))
	}
	return out
}

func decodeGzip(body []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeDecodeFailed, err, "gzip")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeDecodeFailed, err, "gzip")
	}
	return out, nil
}

// decodeDeflate treats "deflate" as the zlib-wrapped stream that every
// mainstream HTTP client and server actually sends under that name,
// rather than a raw DEFLATE stream per the token's literal RFC 1951
// meaning. Some servers are known to send raw DEFLATE with no zlib
// header under this same token, so a failed zlib header check falls
// back to raw flate before giving up.
func decodeDeflate(body []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(body))
	if err != nil {
		return decodeRawFlate(body)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeDecodeFailed, err, "deflate")
	}
	return out, nil
}

func decodeRawFlate(body []byte) ([]byte, error) {
	r := flate.NewReader(bytes.NewReader(body))
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeDecodeFailed, err, "deflate")
	}
	return out, nil
}

func decodeBrotli(body []byte) ([]byte, error) {
	r := brotli.NewReader(bytes.NewReader(body))
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeDecodeFailed, err, "br")
	}
	return out, nil
}

func decodeZstd(body []byte) ([]byte, error) {
	r, err := zstd.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeDecodeFailed, err, "zstd")
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, httperr.Wrap(httperr.CodeDecodeFailed, err, "zstd")
	}
	return out, nil
}
