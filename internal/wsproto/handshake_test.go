package wsproto

import "testing"

func TestAcceptForKnownVector(t *testing.T) {
	got := AcceptFor("dGhlIHNhbXBsZSBub25jZQ==")
	want := "s3pPLMBiTxaQ9kYGzzhZRbK+xOo="
	if got != want {
		t.Fatalf("AcceptFor = %q, want %q", got, want)
	}
}

func TestValidateUpgradeResponseAccepts101(t *testing.T) {
	h := newHeaders(t, map[string]string{
		"Upgrade":              "websocket",
		"Connection":           "Upgrade",
		"Sec-WebSocket-Accept": AcceptFor("dGhlIHNhbXBsZSBub25jZQ=="),
	})
	_, err := ValidateUpgradeResponse(101, h, "dGhlIHNhbXBsZSBub25jZQ==")
	if err != nil {
		t.Fatalf("ValidateUpgradeResponse: %v", err)
	}
}

func TestValidateUpgradeResponseRejectsWrongStatus(t *testing.T) {
	h := newHeaders(t, map[string]string{})
	_, err := ValidateUpgradeResponse(200, h, "key")
	if err == nil {
		t.Fatalf("expected HandshakeFailed for non-101 status")
	}
}

func TestValidateUpgradeResponseRejectsAcceptMismatch(t *testing.T) {
	h := newHeaders(t, map[string]string{
		"Upgrade":              "websocket",
		"Connection":           "Upgrade",
		"Sec-WebSocket-Accept": "wrong",
	})
	_, err := ValidateUpgradeResponse(101, h, "dGhlIHNhbXBsZSBub25jZQ==")
	if err == nil {
		t.Fatalf("expected HandshakeFailed for accept mismatch")
	}
}
