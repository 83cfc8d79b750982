package bodycodec

import (
	"bytes"
	"io"
	"mime"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/httpcore-go/httpcore/internal/httperr"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16LE = []byte{0xFF, 0xFE}
	bomUTF16BE = []byte{0xFE, 0xFF}
)

// ChooseCharset implements the priority order for text decoding: an
// explicit hint from the caller wins, then a Content-Type charset
// parameter, then a BOM sniff, defaulting to UTF-8.
func ChooseCharset(charsetHint, contentType string, body []byte) string {
	if strings.TrimSpace(charsetHint) != "" {
		return strings.ToLower(strings.TrimSpace(charsetHint))
	}
	if _, params, err := mime.ParseMediaType(contentType); err == nil {
		if cs := strings.ToLower(strings.TrimSpace(params["charset"])); cs != "" {
			return cs
		}
	}
	if label := sniffBOM(body); label != "" {
		return label
	}
	return "utf-8"
}

func sniffBOM(body []byte) string {
	switch {
	case bytes.HasPrefix(body, bomUTF8):
		return "utf-8"
	case bytes.HasPrefix(body, bomUTF16LE):
		return "utf-16le"
	case bytes.HasPrefix(body, bomUTF16BE):
		return "utf-16be"
	default:
		return ""
	}
}

// DecodeText decodes body as label, replacing invalid sequences with
// U+FFFD, and returns the resulting UTF-8 text.
func DecodeText(body []byte, label string) (string, error) {
	enc, err := encodingForLabel(label)
	if err != nil {
		return "", err
	}
	if enc == nil {
		return sanitizeUTF8(body), nil
	}

	reader := transform.NewReader(bytes.NewReader(body), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", err
	}
	return sanitizeUTF8(decoded), nil
}

func encodingForLabel(label string) (encoding.Encoding, error) {
	label = strings.ToLower(strings.TrimSpace(label))
	switch label {
	case "", "utf-8", "utf8":
		return nil, nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	default:
		enc, err := ianaEncoding(label)
		if err != nil {
			return nil, err
		}
		return enc, nil
	}
}

func ianaEncoding(label string) (encoding.Encoding, error) {
	enc, _ := charset.Lookup(label)
	if enc == nil {
		return nil, httperr.New(httperr.CodeDecodeFailed, "unknown charset %q", label)
	}
	return enc, nil
}

// sanitizeUTF8 replaces invalid byte sequences with U+FFFD, matching
// the codec's mandated behavior for undecodable input.
func sanitizeUTF8(b []byte) string {
	if utf8.Valid(b) {
		return string(b)
	}
	var out strings.Builder
	for len(b) > 0 {
		r, size := utf8.DecodeRune(b)
		out.WriteRune(r)
		b = b[size:]
	}
	return out.String()
}
