package rpcmsg

import "github.com/safesecd/safesecd/internal/rpcvalue"

// CodeConvert is the capability shared by every small enum that constrains
// a message field to a fixed byte vocabulary: request methods, response
// error codes, and notification codes. Each concrete enum type supplies
// its own closed set of values and its own wire number per value.
type CodeConvert interface {
	ToNumber() uint8
}

// fromNumber searches all for the member whose ToNumber() equals n. It
// does not require contiguous numbering — callers pass the full,
// explicitly-ordered set of variants, so an enum like BootNotice (whose
// single member carries discriminant 2) works the same as a densely
// numbered one.
func fromNumber[C CodeConvert](n uint8, all []C) (C, error) {
	for _, c := range all {
		if c.ToNumber() == n {
			return c, nil
		}
	}
	var zero C
	return zero, newErr(InvalidValue, "%d", n)
}

// checkInt extracts an unsigned integer no greater than max from v,
// yielding a deterministic error otherwise. v == nil models a missing
// field (e.g. reading past the end of a short array).
func checkInt(v *rpcvalue.Value, max uint64, typeName string) (uint64, error) {
	if v == nil {
		return 0, newErr(InvalidValue, "expected %s but got None", typeName)
	}
	u, ok := v.AsUint64()
	if !ok {
		return 0, newErr(InvalidValue, "expected %s but got %s", typeName, v.TypeName())
	}
	if u > max {
		return 0, newErr(InvalidValue, "expected value ≤ %d but got value %d", max, u)
	}
	return u, nil
}
