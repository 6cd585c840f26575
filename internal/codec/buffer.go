package codec

import "github.com/safesecd/safesecd/internal/rpcvalue"

// Buffer is an append-only byte accumulator with cheap split-off semantics:
// decoding a value from the front advances an internal offset instead of
// copying the remaining bytes, and the buffer compacts itself only once the
// wasted prefix reaches compactThreshold bytes.
type Buffer struct {
	data []byte
	off  int
}

// Append adds b to the end of the buffer.
func (buf *Buffer) Append(b []byte) {
	buf.data = append(buf.data, b...)
}

// Bytes returns the unconsumed portion of the buffer.
func (buf *Buffer) Bytes() []byte {
	return buf.data[buf.off:]
}

// Len returns the number of unconsumed bytes.
func (buf *Buffer) Len() int {
	return len(buf.data) - buf.off
}

// Decode attempts to decode one value from the front of the buffer. On
// success it advances past the consumed bytes and returns the value. On
// Incomplete it leaves the buffer untouched and returns (nil, nil). On a
// fatal decode error it leaves the buffer untouched and returns the error.
func (buf *Buffer) Decode() (*rpcvalue.Value, error) {
	v, n, err := Decode(buf.Bytes())
	if err != nil {
		return nil, err
	}
	if v == nil {
		return nil, nil
	}
	buf.advance(n)
	return v, nil
}

// Encode serializes v and appends it to the buffer.
func (buf *Buffer) Encode(v rpcvalue.Value) error {
	extended, err := Encode(buf.data, v)
	if err != nil {
		return err
	}
	buf.data = extended
	return nil
}

// compactThreshold bounds how much consumed-but-retained slack the buffer
// tolerates before it reclaims space by copying the remainder to offset 0.
const compactThreshold = 4096

// maybeCompact reclaims the consumed prefix once it grows past
// compactThreshold, keeping long-lived connections from accumulating an
// unbounded backing array.
func (buf *Buffer) maybeCompact() {
	if buf.off < compactThreshold {
		return
	}
	n := copy(buf.data, buf.data[buf.off:])
	buf.data = buf.data[:n]
	buf.off = 0
}

// advance marks n bytes at the front as consumed.
func (buf *Buffer) advance(n int) {
	buf.off += n
	buf.maybeCompact()
}
