package rpcmsg

import "github.com/safesecd/safesecd/internal/rpcvalue"

// MessageType is the discriminant carried in array[0] of every Message.
type MessageType uint8

const (
	TypeRequest MessageType = iota
	TypeResponse
	TypeNotification
)

func (t MessageType) ToNumber() uint8 { return uint8(t) }

func (t MessageType) String() string {
	switch t {
	case TypeRequest:
		return "Request"
	case TypeResponse:
		return "Response"
	case TypeNotification:
		return "Notification"
	default:
		return "Unknown"
	}
}

var allMessageTypes = []MessageType{TypeRequest, TypeResponse, TypeNotification}

// MessageTypeFromNumber converts a wire byte to a MessageType, failing with
// InvalidValue if n names no known type.
func MessageTypeFromNumber(n uint8) (MessageType, error) {
	return fromNumber(n, allMessageTypes)
}

// Message owns one Value, guaranteed at construction to be an array of
// length 3 or 4 whose first element is an unsigned integer <= 255.
type Message struct {
	v     rpcvalue.Value
	arr   []rpcvalue.Value
	mtype MessageType
}

// NewMessage validates v and wraps it as a Message.
func NewMessage(v rpcvalue.Value) (Message, error) {
	arr, ok := v.AsArray()
	if !ok {
		return Message{}, newErr(InvalidMessage, "expected array but got %s", v.TypeName())
	}
	if len(arr) != 3 && len(arr) != 4 {
		return Message{}, newErr(InvalidArrayLength, "expected array length of either 3 or 4, got %d", len(arr))
	}

	head := arr[0]
	u, ok := head.AsUint64()
	if !ok {
		return Message{}, newErr(InvalidMessageType, "expected value but got None")
	}
	if u > 255 {
		return Message{}, newErr(InvalidMessageType, "expected value ≤ 255 but got value %d", u)
	}
	mtype, err := MessageTypeFromNumber(uint8(u))
	if err != nil {
		return Message{}, newErr(InvalidMessageType, "%d", u)
	}

	return Message{v: v, arr: arr, mtype: mtype}, nil
}

// MessageType returns the validated message type.
func (m Message) MessageType() MessageType { return m.mtype }

// Value returns the underlying Value.
func (m Message) Value() rpcvalue.Value { return m.v }

// Array returns the underlying array view. Len() is 3 or 4.
func (m Message) Array() []rpcvalue.Value { return m.arr }

// At returns a pointer to arr[i], or nil if i is out of range. Used by
// typed-message construction to apply checkInt uniformly to present and
// absent fields.
func (m Message) At(i int) *rpcvalue.Value {
	if i < 0 || i >= len(m.arr) {
		return nil
	}
	return &m.arr[i]
}
