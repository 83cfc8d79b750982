package bodycodec

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
)

func gzipCompress(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}
	return buf.Bytes()
}

func TestDecodeGzip(t *testing.T) {
	raw := gzipCompress(t, []byte("hello world"))
	res, err := Decode(raw, "gzip")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(res.Body) != "hello world" {
		t.Fatalf("Body = %q", res.Body)
	}
	if res.DecodedPartial {
		t.Fatalf("expected DecodedPartial=false")
	}
}

func TestDecodeIdentityIsNoop(t *testing.T) {
	res, err := Decode([]byte("plain"), "identity")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(res.Body) != "plain" {
		t.Fatalf("Body = %q", res.Body)
	}
}

func TestDecodeUnknownTokenMarksPartial(t *testing.T) {
	res, err := Decode([]byte("plain"), "mystery-coding")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !res.DecodedPartial {
		t.Fatalf("expected DecodedPartial=true for unknown token")
	}
	if string(res.Body) != "plain" {
		t.Fatalf("expected bytes unchanged, got %q", res.Body)
	}
}

func TestDecodeChainAppliesRightToLeft(t *testing.T) {
	// "deflate, gzip": deflate was applied first and gzip last, so gzip
	// has to be undone first.
	var zbuf bytes.Buffer
	zw := zlib.NewWriter(&zbuf)
	if _, err := zw.Write([]byte("layered")); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}
	inner := gzipCompress(t, zbuf.Bytes())
	res, err := Decode(inner, "deflate, gzip")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(res.Body) != "layered" {
		t.Fatalf("Body = %q", res.Body)
	}
}

func TestDecodeEmptyContentEncodingIsNoop(t *testing.T) {
	res, err := Decode([]byte("plain"), "")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if string(res.Body) != "plain" {
		t.Fatalf("Body = %q", res.Body)
	}
}
