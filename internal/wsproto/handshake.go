// Package wsproto implements the RFC 6455 WebSocket upgrade handshake
// and frame codec on top of the same byte stream the HTTP codec writes
// and reads. It never dials or writes response headers for other
// methods — that stays httpwire's job; this package only speaks the
// Upgrade dialect and, once switched over, raw frames.
package wsproto

import (
	"crypto/rand"
	"crypto/sha1"
	"encoding/base64"
	"strings"

	"github.com/httpcore-go/httpcore/internal/headerset"
	"github.com/httpcore-go/httpcore/internal/httperr"
)

const acceptGUID = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// NewClientKey generates the base64-encoded 16-byte nonce for
// Sec-WebSocket-Key.
func NewClientKey() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", httperr.Wrap(httperr.CodeHandshakeFailed, err, "generate Sec-WebSocket-Key")
	}
	return base64.StdEncoding.EncodeToString(buf), nil
}

// AcceptFor computes the expected Sec-WebSocket-Accept value for a given
// client key: base64(sha1(key + GUID)).
func AcceptFor(key string) string {
	sum := sha1.Sum([]byte(key + acceptGUID))
	return base64.StdEncoding.EncodeToString(sum[:])
}

// UpgradeHeaders overlays the headers the handshake requires onto h,
// mirroring the managed-header overwrite semantics httpwire uses.
func UpgradeHeaders(h *headerset.Set, key string, protocols []string) error {
	h.StripManaged()
	if err := h.Set("Upgrade", "websocket"); err != nil {
		return err
	}
	if err := h.Set("Connection", "Upgrade"); err != nil {
		return err
	}
	if err := h.Set("Sec-WebSocket-Key", key); err != nil {
		return err
	}
	if err := h.Set("Sec-WebSocket-Version", "13"); err != nil {
		return err
	}
	if len(protocols) > 0 {
		if err := h.Set("Sec-WebSocket-Protocol", strings.Join(protocols, ", ")); err != nil {
			return err
		}
	}
	return nil
}

// ValidateUpgradeResponse checks the server's 101 response against the
// key sent, per the handshake's mismatch-means-HandshakeFailed rule.
func ValidateUpgradeResponse(status int, headers *headerset.Set, clientKey string) (subprotocol string, err error) {
	if status != 101 {
		return "", httperr.New(httperr.CodeHandshakeFailed, "expected status 101, got %d", status)
	}

	upgrade, _ := headers.Get("Upgrade")
	if !strings.EqualFold(strings.TrimSpace(upgrade), "websocket") {
		return "", httperr.New(httperr.CodeHandshakeFailed, "missing or invalid Upgrade header %q", upgrade)
	}

	connection, _ := headers.Get("Connection")
	if !containsToken(connection, "upgrade") {
		return "", httperr.New(httperr.CodeHandshakeFailed, "Connection header %q does not include Upgrade", connection)
	}

	accept, ok := headers.Get("Sec-WebSocket-Accept")
	if !ok || accept != AcceptFor(clientKey) {
		return "", httperr.New(httperr.CodeHandshakeFailed, "Sec-WebSocket-Accept mismatch")
	}

	subprotocol, _ = headers.Get("Sec-WebSocket-Protocol")
	return subprotocol, nil
}

func containsToken(header, token string) bool {
	for _, part := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(part), token) {
			return true
		}
	}
	return false
}
