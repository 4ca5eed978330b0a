package types

import (
	"encoding/binary"
	"hash/fnv"
	"math"
)

// Hash computes the switch-dispatch hash of a scalar, string or error
// value. Present optionals hash as their wrapped value. The second
// result is false for values that have no hash.
func Hash(v Value) (uint64, bool) {
	h := fnv.New64a()
	var buf [9]byte
	switch x := v.(type) {
	case IntValue:
		buf[0] = byte(TYPE_INT)
		binary.BigEndian.PutUint64(buf[1:], uint64(x.Val))
	case UIntValue:
		buf[0] = byte(TYPE_UINT)
		binary.BigEndian.PutUint64(buf[1:], x.Val)
	case FloatValue:
		buf[0] = byte(TYPE_FLOAT)
		f := x.Val
		if f == 0 {
			f = 0 // -0 and +0 compare equal, so they must hash equal
		}
		binary.BigEndian.PutUint64(buf[1:], math.Float64bits(f))
	case BoolValue:
		buf[0] = byte(TYPE_BOOL)
		if x.Val {
			buf[1] = 1
		}
	case ErrValue:
		buf[0] = byte(TYPE_ERR)
		binary.BigEndian.PutUint64(buf[1:], uint64(x.code))
	case StrValue:
		h.Write([]byte{byte(TYPE_STR)})
		h.Write([]byte(x.val))
		return h.Sum64(), true
	case OptionalValue:
		if !x.has {
			return 0, false
		}
		return Hash(x.val)
	default:
		return 0, false
	}
	h.Write(buf[:])
	return h.Sum64(), true
}
