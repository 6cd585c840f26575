package rpcmsg

import (
	"testing"

	"github.com/safesecd/safesecd/internal/rpcvalue"
)

func TestNewMessageRejectsNonArray(t *testing.T) {
	_, err := NewMessage(rpcvalue.Str("nope"))
	if err == nil {
		t.Fatal("expected an error for a non-array value")
	}
	e := err.(*Error)
	if e.Kind != InvalidMessage {
		t.Errorf("kind = %v, want InvalidMessage", e.Kind)
	}
	want := "expected array but got str"
	if e.Msg != want {
		t.Errorf("msg = %q, want %q", e.Msg, want)
	}
}

func TestNewMessageRejectsBadLength(t *testing.T) {
	_, err := NewMessage(rpcvalue.Array(rpcvalue.Uint(0), rpcvalue.Uint(1)))
	if err == nil {
		t.Fatal("expected an error for a 2-element array")
	}
	e := err.(*Error)
	if e.Kind != InvalidArrayLength {
		t.Errorf("kind = %v, want InvalidArrayLength", e.Kind)
	}
	want := "expected array length of either 3 or 4, got 2"
	if e.Msg != want {
		t.Errorf("msg = %q, want %q", e.Msg, want)
	}
}

func TestNewMessageRejectsOutOfRangeType(t *testing.T) {
	_, err := NewMessage(rpcvalue.Array(rpcvalue.Uint(999), rpcvalue.Uint(0), rpcvalue.Array()))
	if err == nil {
		t.Fatal("expected an error for a head value > 255")
	}
	e := err.(*Error)
	if e.Kind != InvalidMessageType {
		t.Errorf("kind = %v, want InvalidMessageType", e.Kind)
	}
	want := "expected value ≤ 255 but got value 999"
	if e.Msg != want {
		t.Errorf("msg = %q, want %q", e.Msg, want)
	}
}

func TestNewMessageAcceptsValidRequest(t *testing.T) {
	v := rpcvalue.Array(rpcvalue.Uint(0), rpcvalue.Uint(42), rpcvalue.Uint(6), rpcvalue.Array())
	m, err := NewMessage(v)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.MessageType() != TypeRequest {
		t.Errorf("MessageType() = %v, want Request", m.MessageType())
	}
}

func TestMessageTypeRoundTrip(t *testing.T) {
	for n := uint8(0); n < 3; n++ {
		mt, err := MessageTypeFromNumber(n)
		if err != nil {
			t.Fatalf("FromNumber(%d) error: %v", n, err)
		}
		if mt.ToNumber() != n {
			t.Errorf("ToNumber() = %d, want %d", mt.ToNumber(), n)
		}
	}
	_, err := MessageTypeFromNumber(3)
	if err == nil {
		t.Fatal("expected an error for an out-of-range message type")
	}
	if err.(*Error).Msg != "3" {
		t.Errorf("msg = %q, want %q", err.(*Error).Msg, "3")
	}
}
