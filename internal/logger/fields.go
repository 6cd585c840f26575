package logger

import (
	"encoding/hex"
	"log/slog"
)

// Standard field keys for structured logging, kept consistent across every
// log statement so log aggregation/querying doesn't depend on free-text.
const (
	KeyConnID  = "conn_id"  // per-connection correlation id
	KeySession = "session"  // "boot" or "auth"
	KeyMethod  = "method"   // method name being dispatched
	KeyMsgID   = "msg_id"   // request message id

	KeyClientIP = "client_ip" // client IP address

	KeyKeyName = "key_name" // key file name/identifier in the store
	KeyHandle  = "handle"   // opaque binary identifier, hex-encoded
	KeyBytes   = "bytes"    // byte count of a key file payload

	KeyDurationMs = "duration_ms"
	KeyError      = "error"
	KeyErrorCode  = "error_code"
)

// ConnID returns a slog.Attr for the connection correlation id.
func ConnID(id string) slog.Attr {
	return slog.String(KeyConnID, id)
}

// Session returns a slog.Attr for the session type (boot/auth).
func Session(kind string) slog.Attr {
	return slog.String(KeySession, kind)
}

// Method returns a slog.Attr for the dispatched method name.
func Method(name string) slog.Attr {
	return slog.String(KeyMethod, name)
}

// MsgID returns a slog.Attr for a request message id.
func MsgID(id uint32) slog.Attr {
	return slog.Any(KeyMsgID, id)
}

// ClientIP returns a slog.Attr for the client IP address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// KeyName returns a slog.Attr for the key file name.
func KeyName(name string) slog.Attr {
	return slog.String(KeyKeyName, name)
}

// Handle returns a slog.Attr for an opaque binary identifier, rendered as
// lowercase hex.
func Handle(h []byte) slog.Attr {
	return slog.String(KeyHandle, hex.EncodeToString(h))
}

// Bytes returns a slog.Attr for a byte count.
func Bytes(n int) slog.Attr {
	return slog.Int(KeyBytes, n)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}

// Err returns a slog.Attr for an error.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// ErrorCode returns a slog.Attr for a numeric error code.
func ErrorCode(code int) slog.Attr {
	return slog.Int(KeyErrorCode, code)
}
