package rpcmsg

import "github.com/safesecd/safesecd/internal/rpcvalue"

const maxU32 = 1<<32 - 1

// RequestMessage is a Message known to have type=Request, length=4, and a
// method code drawn from C's closed vocabulary.
type RequestMessage[C CodeConvert] struct {
	ID     uint32
	Method C
	Args   []rpcvalue.Value
}

// NewRequestMessage validates m against the Request shape, parsing its
// method field with parseMethod. Checks run in the order the pinned test
// suite expects: array length, message type, id width, method validity,
// then args shape.
func NewRequestMessage[C CodeConvert](m Message, parseMethod func(uint8) (C, error)) (RequestMessage[C], error) {
	var zero RequestMessage[C]

	if len(m.Array()) != 4 {
		return zero, newErr(InvalidArrayLength, "expected array length of 4, got %d", len(m.Array()))
	}
	if m.MessageType() != TypeRequest {
		return zero, newErr(InvalidRequestType, "expected Request but got %s", m.MessageType())
	}

	idU, err := checkInt(m.At(1), maxU32, "u32")
	if err != nil {
		return zero, newErr(InvalidIDType, "%s", err.(*Error).Msg)
	}

	methodU, err := checkInt(m.At(2), 255, "u8")
	if err != nil {
		return zero, newErr(InvalidRequestType, "%s", err.(*Error).Msg)
	}
	method, err := parseMethod(uint8(methodU))
	if err != nil {
		return zero, newErr(InvalidRequestType, "%s", err)
	}

	argsField := m.At(3)
	if argsField == nil {
		return zero, newErr(InvalidRequestArgs, "expected array but got None")
	}
	args, ok := argsField.AsArray()
	if !ok {
		return zero, newErr(InvalidRequestArgs, "expected array but got %s", argsField.TypeName())
	}

	return RequestMessage[C]{ID: uint32(idU), Method: method, Args: args}, nil
}

// NewRequest builds a well-typed Request array directly; it cannot fail.
func NewRequest[C CodeConvert](id uint32, method C, args []rpcvalue.Value) rpcvalue.Value {
	return rpcvalue.Array(
		rpcvalue.Uint(uint64(TypeRequest)),
		rpcvalue.Uint(uint64(id)),
		rpcvalue.Uint(uint64(method.ToNumber())),
		rpcvalue.ArrayOf(args),
	)
}

// ToValue converts a RequestMessage back into its wire Value.
func (r RequestMessage[C]) ToValue() rpcvalue.Value {
	return NewRequest(r.ID, r.Method, r.Args)
}

// ResponseMessage is a Message known to have type=Response, length=4, and
// an error code drawn from E's closed vocabulary. Result may be any Value,
// including nil.
type ResponseMessage[E CodeConvert] struct {
	ID     uint32
	Error  E
	Result rpcvalue.Value
}

// NewResponseMessage validates m against the Response shape.
func NewResponseMessage[E CodeConvert](m Message, parseError func(uint8) (E, error)) (ResponseMessage[E], error) {
	var zero ResponseMessage[E]

	if len(m.Array()) != 4 {
		return zero, newErr(InvalidArrayLength, "expected array length of 4, got %d", len(m.Array()))
	}
	if m.MessageType() != TypeResponse {
		return zero, newErr(InvalidResponseType, "expected Response but got %s", m.MessageType())
	}

	idU, err := checkInt(m.At(1), maxU32, "u32")
	if err != nil {
		return zero, newErr(InvalidIDType, "%s", err.(*Error).Msg)
	}

	errU, err := checkInt(m.At(2), 255, "u8")
	if err != nil {
		return zero, newErr(InvalidResponseType, "%s", err.(*Error).Msg)
	}
	errCode, err := parseError(uint8(errU))
	if err != nil {
		return zero, newErr(InvalidResponseType, "%s", err)
	}

	result := m.At(3)
	if result == nil {
		return zero, newErr(InvalidResponseType, "expected result but got None")
	}

	return ResponseMessage[E]{ID: uint32(idU), Error: errCode, Result: *result}, nil
}

// NewResponse builds a well-typed Response array directly; it cannot fail.
func NewResponse[E CodeConvert](id uint32, errCode E, result rpcvalue.Value) rpcvalue.Value {
	return rpcvalue.Array(
		rpcvalue.Uint(uint64(TypeResponse)),
		rpcvalue.Uint(uint64(id)),
		rpcvalue.Uint(uint64(errCode.ToNumber())),
		result,
	)
}

// ToValue converts a ResponseMessage back into its wire Value.
func (r ResponseMessage[E]) ToValue() rpcvalue.Value {
	return NewResponse(r.ID, r.Error, r.Result)
}

// NotificationMessage is a Message known to have type=Notification,
// length=3, and a code drawn from N's closed vocabulary.
type NotificationMessage[N CodeConvert] struct {
	Code N
	Args []rpcvalue.Value
}

// NewNotificationMessage validates m against the Notification shape.
func NewNotificationMessage[N CodeConvert](m Message, parseCode func(uint8) (N, error)) (NotificationMessage[N], error) {
	var zero NotificationMessage[N]

	if len(m.Array()) != 3 {
		return zero, newErr(InvalidArrayLength, "expected array length of 3, got %d", len(m.Array()))
	}
	if m.MessageType() != TypeNotification {
		return zero, newErr(InvalidNotificationType, "expected Notification but got %s", m.MessageType())
	}

	codeU, err := checkInt(m.At(1), 255, "u8")
	if err != nil {
		return zero, newErr(InvalidNotificationType, "%s", err.(*Error).Msg)
	}
	code, err := parseCode(uint8(codeU))
	if err != nil {
		return zero, newErr(InvalidNotificationType, "%s", err)
	}

	argsField := m.At(2)
	if argsField == nil {
		return zero, newErr(InvalidNotificationArgs, "expected array but got None")
	}
	args, ok := argsField.AsArray()
	if !ok {
		return zero, newErr(InvalidNotificationArgs, "expected array but got %s", argsField.TypeName())
	}

	return NotificationMessage[N]{Code: code, Args: args}, nil
}

// NewNotification builds a well-typed Notification array directly; it
// cannot fail.
func NewNotification[N CodeConvert](code N, args []rpcvalue.Value) rpcvalue.Value {
	return rpcvalue.Array(
		rpcvalue.Uint(uint64(TypeNotification)),
		rpcvalue.Uint(uint64(code.ToNumber())),
		rpcvalue.ArrayOf(args),
	)
}

// ToValue converts a NotificationMessage back into its wire Value.
func (n NotificationMessage[N]) ToValue() rpcvalue.Value {
	return NewNotification(n.Code, n.Args)
}
