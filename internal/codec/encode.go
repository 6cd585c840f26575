package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/safesecd/safesecd/internal/rpcvalue"
)

// Encode serializes v as MessagePack and appends the result to buf,
// returning the extended slice. Encoding a well-formed Value never fails;
// the error return exists for symmetry with Decode and to leave room for
// pathological input (e.g. array/map sizes that overflow the wire length
// prefix) that the underlying encoder rejects.
func Encode(buf []byte, v rpcvalue.Value) ([]byte, error) {
	w := bytes.NewBuffer(buf)
	enc := msgpack.NewEncoder(w)
	if err := encodeValue(enc, w, v); err != nil {
		return buf, err
	}
	return w.Bytes(), nil
}

func encodeValue(enc *msgpack.Encoder, w *bytes.Buffer, v rpcvalue.Value) error {
	switch v.Kind() {
	case rpcvalue.KindNil:
		return enc.EncodeNil()
	case rpcvalue.KindBool:
		b, _ := v.AsBool()
		return enc.EncodeBool(b)
	case rpcvalue.KindInt:
		if u, ok := v.AsUint64(); ok {
			return enc.EncodeUint(u)
		}
		i, _ := v.AsInt64()
		return enc.EncodeInt(i)
	case rpcvalue.KindFloat32:
		f, _ := v.AsFloat32()
		return enc.EncodeFloat32(f)
	case rpcvalue.KindFloat64:
		f, _ := v.AsFloat64()
		return enc.EncodeFloat64(f)
	case rpcvalue.KindStr:
		s, _ := v.AsStr()
		return enc.EncodeString(s)
	case rpcvalue.KindBytes:
		b, _ := v.AsBytes()
		return enc.EncodeBytes(b)
	case rpcvalue.KindArray:
		elems, _ := v.AsArray()
		if err := enc.EncodeArrayLen(len(elems)); err != nil {
			return err
		}
		for _, e := range elems {
			if err := encodeValue(enc, w, e); err != nil {
				return err
			}
		}
		return nil
	case rpcvalue.KindMap:
		pairs, _ := v.AsMap()
		if err := enc.EncodeMapLen(len(pairs)); err != nil {
			return err
		}
		for _, p := range pairs {
			if err := encodeValue(enc, w, p.Key); err != nil {
				return err
			}
			if err := encodeValue(enc, w, p.Val); err != nil {
				return err
			}
		}
		return nil
	case rpcvalue.KindExt:
		return encodeExt(enc, w, v)
	default:
		return newErr(TypeMismatch, "unknown value kind %d", v.Kind())
	}
}

// encodeExt writes a native MessagePack ext value. msgpack/v5's ext support
// (RegisterExt) binds a fixed type id to a Go type at init time; our
// protocol lets a caller pick an arbitrary tag per value, so the header is
// written directly and the payload is appended to the same buffer the
// encoder is writing into rather than going through RegisterExt.
func encodeExt(enc *msgpack.Encoder, w *bytes.Buffer, v rpcvalue.Value) error {
	e, _ := v.AsExt()
	if err := enc.EncodeExtHeader(e.Tag, len(e.Data)); err != nil {
		return err
	}
	w.Write(e.Data)
	return nil
}
