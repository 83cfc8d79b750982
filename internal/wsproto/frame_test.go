package wsproto

import (
	"bufio"
	"bytes"
	"testing"

	"github.com/httpcore-go/httpcore/internal/headerset"
)

func newHeaders(t *testing.T, pairs map[string]string) *headerset.Set {
	t.Helper()
	h := headerset.New()
	for k, v := range pairs {
		if err := h.Add(k, v); err != nil {
			t.Fatalf("Add(%q, %q): %v", k, v, err)
		}
	}
	return h
}

func TestWriteFrameSetsMaskBit(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteFrame(&buf, OpText, []byte("hi"), true); err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	b := buf.Bytes()
	if b[1]&0x80 == 0 {
		t.Fatalf("expected mask bit set, got %08b", b[1])
	}
}

func TestWriteFrameRejectsOversizedControlFrame(t *testing.T) {
	payload := make([]byte, 200)
	if err := WriteFrame(&bytes.Buffer{}, OpPing, payload, true); err == nil {
		t.Fatalf("expected ControlFrameInvalid for oversized ping")
	}
}

// serverFrame builds an unmasked server->client frame for read-path tests.
func serverFrame(opcode Opcode, payload []byte, final bool) []byte {
	first := byte(opcode)
	if final {
		first |= 0x80
	}
	out := []byte{first}
	n := len(payload)
	switch {
	case n <= 125:
		out = append(out, byte(n))
	case n <= 0xFFFF:
		out = append(out, 126, byte(n>>8), byte(n))
	default:
		out = append(out, 127, 0, 0, 0, 0, byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	}
	out = append(out, payload...)
	return out
}

func TestReadMessageSingleFrame(t *testing.T) {
	raw := serverFrame(OpText, []byte("hello"), true)
	msg, err := ReadMessage(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if msg.Opcode != OpText || string(msg.Payload) != "hello" {
		t.Fatalf("unexpected message %+v", msg)
	}
}

func TestReadMessageReassemblesFragments(t *testing.T) {
	var raw []byte
	raw = append(raw, serverFrame(OpText, []byte("hel"), false)...)
	raw = append(raw, serverFrame(OpContinuation, []byte("lo"), true)...)
	msg, err := ReadMessage(bufio.NewReader(bytes.NewReader(raw)))
	if err != nil {
		t.Fatalf("ReadMessage: %v", err)
	}
	if string(msg.Payload) != "hello" {
		t.Fatalf("payload = %q", msg.Payload)
	}
}

func TestReadMessageRejectsMaskedServerFrame(t *testing.T) {
	raw := []byte{0x81, 0x80, 0, 0, 0, 0}
	_, err := ReadMessage(bufio.NewReader(bytes.NewReader(raw)))
	if err == nil {
		t.Fatalf("expected UnmaskedServerFrame error for masked server frame")
	}
}

func TestReadMessageRejectsControlFrameMidFragmentation(t *testing.T) {
	var raw []byte
	raw = append(raw, serverFrame(OpText, []byte("hel"), false)...)
	raw = append(raw, serverFrame(OpPing, []byte("p"), true)...)
	_, err := ReadMessage(bufio.NewReader(bytes.NewReader(raw)))
	if err == nil {
		t.Fatalf("expected ControlFrameInvalid for interleaved control frame")
	}
}

func TestParseAndEncodeClose(t *testing.T) {
	payload := EncodeClose(1000, "bye")
	code, reason, err := ParseClose(payload)
	if err != nil {
		t.Fatalf("ParseClose: %v", err)
	}
	if code != 1000 || reason != "bye" {
		t.Fatalf("code=%d reason=%q", code, reason)
	}
}
