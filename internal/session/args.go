package session

import (
	"github.com/safesecd/safesecd/internal/rpcmsg"
	"github.com/safesecd/safesecd/internal/rpcvalue"
)

// binArgs validates that args has exactly want elements, each the binary
// variant, and returns their byte slices in order. A count or type
// mismatch is a protocol error (InvalidRequestArgs), not a response.
func binArgs(args []rpcvalue.Value, want int) ([][]byte, error) {
	if len(args) != want {
		return nil, rpcmsg.NewError(rpcmsg.InvalidRequestArgs,
			"expected %d argument(s), got %d", want, len(args))
	}
	out := make([][]byte, want)
	for i, a := range args {
		b, ok := a.AsBytes()
		if !ok {
			return nil, rpcmsg.NewError(rpcmsg.InvalidRequestArgs,
				"argument %d: expected bytearray but got %s", i, a.TypeName())
		}
		out[i] = b
	}
	return out, nil
}

func oneBinArg(args []rpcvalue.Value) ([]byte, error) {
	b, err := binArgs(args, 1)
	if err != nil {
		return nil, err
	}
	return b[0], nil
}

func twoBinArgs(args []rpcvalue.Value) ([]byte, []byte, error) {
	b, err := binArgs(args, 2)
	if err != nil {
		return nil, nil, err
	}
	return b[0], b[1], nil
}

func threeBinArgs(args []rpcvalue.Value) ([]byte, []byte, []byte, error) {
	b, err := binArgs(args, 3)
	if err != nil {
		return nil, nil, nil, err
	}
	return b[0], b[1], b[2], nil
}
