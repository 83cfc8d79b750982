package bodycodec

import "testing"

func TestChooseCharsetPrefersExplicitHint(t *testing.T) {
	got := ChooseCharset("iso-8859-1", "text/plain; charset=utf-8", nil)
	if got != "iso-8859-1" {
		t.Fatalf("got %q", got)
	}
}

func TestChooseCharsetFallsBackToContentType(t *testing.T) {
	got := ChooseCharset("", "text/html; charset=ISO-8859-1", nil)
	if got != "iso-8859-1" {
		t.Fatalf("got %q", got)
	}
}

func TestChooseCharsetSniffsBOM(t *testing.T) {
	got := ChooseCharset("", "", []byte{0xEF, 0xBB, 0xBF, 'h', 'i'})
	if got != "utf-8" {
		t.Fatalf("got %q", got)
	}
}

func TestChooseCharsetDefaultsToUTF8(t *testing.T) {
	got := ChooseCharset("", "", []byte("plain"))
	if got != "utf-8" {
		t.Fatalf("got %q", got)
	}
}

func TestDecodeTextUTF8Passthrough(t *testing.T) {
	text, err := DecodeText([]byte("hello"), "utf-8")
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	if text != "hello" {
		t.Fatalf("text = %q", text)
	}
}

func TestDecodeTextReplacesInvalidSequences(t *testing.T) {
	text, err := DecodeText([]byte{'a', 0xff, 'b'}, "utf-8")
	if err != nil {
		t.Fatalf("DecodeText: %v", err)
	}
	if text != "a�b" {
		t.Fatalf("text = %q", text)
	}
}
