// Package httperr defines the tagged error type shared by every layer of
// the engine: connection substrate, HTTP codec, body decoder, redirect
// controller, and the WebSocket layer never return a bare error — they
// wrap it with a Code so callers can branch with errors.Is/As instead of
// string matching.
package httperr

import (
	stdErrors "errors"
	"fmt"
)

// Code tags an error with the failure category from the engine's error
// handling design.
type Code string

const (
	CodeUnknown Code = "unknown"

	CodeInvalidURL         Code = "invalid_url"
	CodeUnsupportedScheme  Code = "unsupported_scheme"
	CodeDNSFailure         Code = "dns_failure"
	CodeConnectTimeout     Code = "connect_timeout"
	CodeConnectRefused     Code = "connect_refused"
	CodeTLSHandshake       Code = "tls_handshake"
	CodeProxyAuthRequired  Code = "proxy_auth_required"
	CodeProxyRejected      Code = "proxy_rejected"
	CodeProxyProtocol      Code = "proxy_protocol"
	CodeWriteFailed        Code = "write_failed"
	CodeReadFailed         Code = "read_failed"
	CodeUnexpectedEOF      Code = "unexpected_eof"
	CodeMalformedStatus    Code = "malformed_status_line"
	CodeMalformedHeader    Code = "malformed_header"
	CodeMalformedChunk     Code = "malformed_chunk"
	CodeHeadersTooLarge    Code = "headers_too_large"
	CodeBodyTooLarge       Code = "body_too_large"
	CodeDecodeFailed       Code = "decode_failed"
	CodeRedirectLoop       Code = "redirect_loop"
	CodeTooManyRedirects   Code = "too_many_redirects"
	CodeMalformedRedirect  Code = "malformed_redirect"
	CodeHandshakeFailed    Code = "handshake_failed"
	CodeFrameProtocol      Code = "frame_protocol"
	CodeControlFrameInvalid Code = "control_frame_invalid"
	CodeUnmaskedServerFrame Code = "unmasked_server_frame"
	CodeTimeout            Code = "timeout"
	CodeCancelled          Code = "cancelled"
)

// Error is the concrete error type returned across package boundaries.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	switch {
	case e == nil:
		return ""
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Code, e.Err)
	case e.Message != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	default:
		return string(e.Code)
	}
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Wrap annotates an existing error with a code, returning nil when err is nil.
func Wrap(code Code, err error, format string, args ...any) error {
	if err == nil {
		return nil
	}
	msg := ""
	if format != "" {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: ensureCode(code), Message: msg, Err: err}
}

// New creates a formatted error carrying the supplied code.
func New(code Code, format string, args ...any) error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &Error{Code: ensureCode(code), Message: msg}
}

// CodeOf extracts the code carried by err, or CodeUnknown when absent.
func CodeOf(err error) Code {
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Code
	}
	return CodeUnknown
}

// Is reports whether err carries the given code.
func Is(err error, code Code) bool {
	if err == nil {
		return false
	}
	var e *Error
	if stdErrors.As(err, &e) {
		return e.Code == code
	}
	return false
}

func ensureCode(code Code) Code {
	if code == "" {
		return CodeUnknown
	}
	return code
}
