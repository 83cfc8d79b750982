package httpcore

import (
	"context"
	"time"

	"github.com/httpcore-go/httpcore/internal/httperr"
	"github.com/httpcore-go/httpcore/internal/httpwire"
	"github.com/httpcore-go/httpcore/internal/urlmodel"
	"github.com/httpcore-go/httpcore/internal/wireconn"
	"github.com/httpcore-go/httpcore/internal/wsproto"
)

// MessageKind tags what Receive returns.
type MessageKind int

const (
	MessageText MessageKind = iota
	MessageBinary
	MessageClose
	MessagePing
	MessagePong
)

// Message is the tagged value WebSocket.Receive returns.
type Message struct {
	Kind       MessageKind
	Data       []byte
	CloseCode  uint16
	CloseCause string
}

// WebSocket owns a Connection that has completed the RFC 6455 upgrade
// handshake. Its lifetime ends at Close or the first stream error;
// there is no reconnect and no reuse, matching the engine's Connection
// lifecycle rules.
type WebSocket struct {
	conn        *wireconn.Conn
	subprotocol string
	closed      bool
}

// Subprotocol returns the subprotocol the server selected, or "" if none.
func (ws *WebSocket) Subprotocol() string { return ws.subprotocol }

// DialWebSocket performs the connection substrate dial, writes the
// Upgrade handshake, and validates the 101 response, per §4.6.
func DialWebSocket(ctx context.Context, cfg *RequestConfig) (*WebSocket, error) {
	if !cfg.URL.Scheme.WebSocket() {
		return nil, httperr.New(httperr.CodeInvalidURL, "DialWebSocket requires a ws:// or wss:// url")
	}

	deadline := time.Time{}
	if cfg.Timeout > 0 {
		deadline = time.Now().Add(cfg.Timeout)
	}

	dialScheme := urlmodel.SchemeHTTP
	if cfg.URL.Scheme == urlmodel.SchemeWSS {
		dialScheme = urlmodel.SchemeHTTPS
	}

	conn, err := wireconn.Dial(ctx, cfg.URL.Host, cfg.URL.Port, dialScheme, wireconn.Options{
		Proxy:    cfg.Proxy,
		TLS:      cfg.TLS,
		Deadline: deadline,
	}, cfg.BufferSize)
	if err != nil {
		return nil, err
	}

	key, err := wsproto.NewClientKey()
	if err != nil {
		conn.Close()
		return nil, err
	}

	headers := cfg.Headers.Clone()
	if err := wsproto.UpgradeHeaders(headers, key, cfg.Protocols); err != nil {
		conn.Close()
		return nil, err
	}

	form := httpwire.OriginForm
	if cfg.Proxy.Kind == wireconn.ProxyHTTP && !cfg.URL.Scheme.Secure() {
		form = httpwire.AbsoluteForm
	}

	req := httpwire.Request{
		Method:  "GET",
		URL:     httpURLForWS(cfg.URL),
		Headers: headers,
		Form:    form,
		Upgrade: true,
	}
	if err := httpwire.WriteRequest(conn, req); err != nil {
		conn.Close()
		return nil, err
	}

	head, err := httpwire.ReadResponseHead(conn.Reader, cfg.BufferSize)
	if err != nil {
		conn.Close()
		return nil, err
	}

	subprotocol, err := wsproto.ValidateUpgradeResponse(head.StatusCode, head.Headers, key)
	if err != nil {
		conn.Close()
		return nil, err
	}

	return &WebSocket{conn: conn, subprotocol: subprotocol}, nil
}

// httpURLForWS rewrites a ws/wss URL to the http/https equivalent so
// httpwire's request-target and Host computation apply unchanged.
func httpURLForWS(u *urlmodel.URL) *urlmodel.URL {
	clone := u.Clone()
	if clone.Scheme == urlmodel.SchemeWSS {
		clone.Scheme = urlmodel.SchemeHTTPS
	} else {
		clone.Scheme = urlmodel.SchemeHTTP
	}
	return clone
}

// SendText sends a single-frame text message.
func (ws *WebSocket) SendText(text string) error {
	return wsproto.WriteFrame(ws.conn, wsproto.OpText, []byte(text), true)
}

// SendBinary sends a single-frame binary message.
func (ws *WebSocket) SendBinary(data []byte) error {
	return wsproto.WriteFrame(ws.conn, wsproto.OpBinary, data, true)
}

// Receive reads the next message, auto-replying to Ping with Pong of
// identical payload before returning it to the caller.
func (ws *WebSocket) Receive() (Message, error) {
	for {
		frame, err := wsproto.ReadMessage(ws.conn.Reader)
		if err != nil {
			return Message{}, err
		}

		switch frame.Opcode {
		case wsproto.OpText:
			return Message{Kind: MessageText, Data: frame.Payload}, nil
		case wsproto.OpBinary:
			return Message{Kind: MessageBinary, Data: frame.Payload}, nil
		case wsproto.OpPing:
			if err := wsproto.WriteFrame(ws.conn, wsproto.OpPong, frame.Payload, true); err != nil {
				return Message{}, err
			}
			return Message{Kind: MessagePing, Data: frame.Payload}, nil
		case wsproto.OpPong:
			return Message{Kind: MessagePong, Data: frame.Payload}, nil
		case wsproto.OpClose:
			code, reason, err := wsproto.ParseClose(frame.Payload)
			if err != nil {
				return Message{}, err
			}
			return Message{Kind: MessageClose, CloseCode: code, CloseCause: reason}, nil
		default:
			return Message{}, httperr.New(httperr.CodeFrameProtocol, "unexpected opcode %d", frame.Opcode)
		}
	}
}

// Close sends a close frame and shuts down the connection.
func (ws *WebSocket) Close(code uint16, reason string) error {
	if ws.closed {
		return nil
	}
	ws.closed = true
	err := wsproto.WriteFrame(ws.conn, wsproto.OpClose, wsproto.EncodeClose(code, reason), true)
	closeErr := ws.conn.Close()
	if err != nil {
		return err
	}
	return closeErr
}
