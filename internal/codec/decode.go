package codec

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/safesecd/safesecd/internal/rpcvalue"
)

const maxDepth = 64

// Decode attempts to read a single MessagePack-encoded value from the front
// of buf.
//
//   - If buf is empty, returns (nil, 0, nil): request more bytes.
//   - If buf holds a truncated prefix of a value, returns (nil, 0, nil) and
//     leaves buf untouched — no partial-value bytes are ever reported as
//     consumed.
//   - On success, returns the decoded value and the number of bytes
//     consumed from the front of buf; the caller is responsible for
//     splitting those bytes off.
//   - On a malformed (non-incomplete) encoding, returns a fatal *Error.
func Decode(buf []byte) (*rpcvalue.Value, int, error) {
	if len(buf) == 0 {
		return nil, 0, nil
	}
	r := bytes.NewReader(buf)
	dec := msgpack.NewDecoder(r)
	v, err := decodeValue(dec, r, 0)
	if err != nil {
		if isIncomplete(err) || looksTruncated(err) {
			return nil, 0, nil
		}
		return nil, 0, asCodecError(err)
	}
	return &v, len(buf) - r.Len(), nil
}

// looksTruncated reports whether err stems from the input ending before a
// full value could be read. The underlying decoder surfaces this as an
// io.EOF/io.ErrUnexpectedEOF (or an error wrapping one); matching on the
// message text too guards against the library not wrapping with %w.
func looksTruncated(err error) bool {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return strings.Contains(err.Error(), "EOF")
}

func asCodecError(err error) error {
	if _, ok := err.(*Error); ok {
		return err
	}
	return newErr(Syntax, "%v", err)
}

func decodeValue(dec *msgpack.Decoder, r *bytes.Reader, depth int) (rpcvalue.Value, error) {
	if depth > maxDepth {
		return rpcvalue.Value{}, newErr(DepthLimit, "exceeded max nesting depth %d", maxDepth)
	}

	code, err := dec.PeekCode()
	if err != nil {
		return rpcvalue.Value{}, err
	}

	switch {
	case code == 0xc0: // nil
		if err := dec.DecodeNil(); err != nil {
			return rpcvalue.Value{}, err
		}
		return rpcvalue.Nil(), nil

	case code == 0xc2 || code == 0xc3: // bool
		b, err := dec.DecodeBool()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		return rpcvalue.Bool(b), nil

	case code <= 0x7f, code == 0xcc, code == 0xcd, code == 0xce, code == 0xcf: // unsigned
		u, err := dec.DecodeUint64()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		return rpcvalue.Uint(u), nil

	case code >= 0xe0, code == 0xd0, code == 0xd1, code == 0xd2, code == 0xd3: // signed
		i, err := dec.DecodeInt64()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		return rpcvalue.Int(i), nil

	case code == 0xca: // float32
		f, err := dec.DecodeFloat32()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		return rpcvalue.Float32(f), nil

	case code == 0xcb: // float64
		f, err := dec.DecodeFloat64()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		return rpcvalue.Float64(f), nil

	case (code >= 0xa0 && code <= 0xbf) || code == 0xd9 || code == 0xda || code == 0xdb: // str
		s, err := dec.DecodeString()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		if !utf8.ValidString(s) {
			return rpcvalue.Value{}, newErr(InvalidUTF8, "string payload is not valid UTF-8")
		}
		return rpcvalue.Str(s), nil

	case code == 0xc4 || code == 0xc5 || code == 0xc6: // bin
		b, err := dec.DecodeBytes()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		return rpcvalue.Bytes(b), nil

	case (code >= 0x90 && code <= 0x9f) || code == 0xdc || code == 0xdd: // array
		n, err := dec.DecodeArrayLen()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		elems := make([]rpcvalue.Value, 0, n)
		for i := 0; i < n; i++ {
			e, err := decodeValue(dec, r, depth+1)
			if err != nil {
				return rpcvalue.Value{}, err
			}
			elems = append(elems, e)
		}
		return rpcvalue.ArrayOf(elems), nil

	case (code >= 0x80 && code <= 0x8f) || code == 0xde || code == 0xdf: // map
		n, err := dec.DecodeMapLen()
		if err != nil {
			return rpcvalue.Value{}, err
		}
		pairs := make([]rpcvalue.Pair, 0, n)
		for i := 0; i < n; i++ {
			k, err := decodeValue(dec, r, depth+1)
			if err != nil {
				return rpcvalue.Value{}, err
			}
			val, err := decodeValue(dec, r, depth+1)
			if err != nil {
				return rpcvalue.Value{}, err
			}
			pairs = append(pairs, rpcvalue.Pair{Key: k, Val: val})
		}
		return rpcvalue.MapOf(pairs), nil

	case code == 0xc7 || code == 0xc8 || code == 0xc9 ||
		code == 0xd4 || code == 0xd5 || code == 0xd6 || code == 0xd7 || code == 0xd8: // ext
		return decodeExt(dec, r)

	default:
		return rpcvalue.Value{}, newErr(UnrecognizedMarker, "unrecognized marker byte 0x%02x", code)
	}
}

// decodeExt reads a native MessagePack ext value. The header is consumed
// through the decoder; the payload is then read directly off the same
// bytes.Reader the decoder wraps, since DecodeExtHeader leaves the reader
// positioned exactly at the start of the payload.
func decodeExt(dec *msgpack.Decoder, r *bytes.Reader) (rpcvalue.Value, error) {
	tag, n, err := dec.DecodeExtHeader()
	if err != nil {
		return rpcvalue.Value{}, err
	}
	data := make([]byte, n)
	if _, err := io.ReadFull(r, data); err != nil {
		return rpcvalue.Value{}, err
	}
	return rpcvalue.ExtValue(tag, data), nil
}
