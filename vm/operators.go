package vm

import (
	"math"
	"strings"

	"stackc/types"
)

// Operators are typed by the numeric kind the compiler selected. A
// runtime value of another kind is E_TYPE; there is no promotion.

// ============================================================================
// ARITHMETIC OPERATORS
// ============================================================================

// arith implements + - * / % for one numeric kind
func arith(op OpCode, kind types.Kind, left, right types.Value) types.Result {
	switch kind {
	case types.KindInt:
		a, ok1 := left.(types.IntValue)
		b, ok2 := right.(types.IntValue)
		if !ok1 || !ok2 {
			return types.Fail(types.E_TYPE)
		}
		return intArith(op, a.Val, b.Val)
	case types.KindUInt:
		a, ok1 := left.(types.UIntValue)
		b, ok2 := right.(types.UIntValue)
		if !ok1 || !ok2 {
			return types.Fail(types.E_TYPE)
		}
		return uintArith(op, a.Val, b.Val)
	case types.KindFloat:
		a, ok1 := left.(types.FloatValue)
		b, ok2 := right.(types.FloatValue)
		if !ok1 || !ok2 {
			return types.Fail(types.E_TYPE)
		}
		return floatArith(op, a.Val, b.Val)
	case types.KindStr:
		if op != OP_ADD {
			return types.Fail(types.E_TYPE)
		}
		return concat(left, right)
	}
	return types.Fail(types.E_TYPE)
}

func intArith(op OpCode, a, b int64) types.Result {
	switch op {
	case OP_ADD:
		return types.Ok(types.NewInt(a + b))
	case OP_SUB:
		return types.Ok(types.NewInt(a - b))
	case OP_MUL:
		return types.Ok(types.NewInt(a * b))
	case OP_DIV:
		if b == 0 {
			return types.Fail(types.E_DIV)
		}
		return types.Ok(types.NewInt(a / b))
	case OP_MOD:
		if b == 0 {
			return types.Fail(types.E_DIV)
		}
		return types.Ok(types.NewInt(a % b))
	}
	return types.Fail(types.E_TYPE)
}

func uintArith(op OpCode, a, b uint64) types.Result {
	switch op {
	case OP_ADD:
		return types.Ok(types.NewUInt(a + b))
	case OP_SUB:
		return types.Ok(types.NewUInt(a - b))
	case OP_MUL:
		return types.Ok(types.NewUInt(a * b))
	case OP_DIV:
		if b == 0 {
			return types.Fail(types.E_DIV)
		}
		return types.Ok(types.NewUInt(a / b))
	case OP_MOD:
		if b == 0 {
			return types.Fail(types.E_DIV)
		}
		return types.Ok(types.NewUInt(a % b))
	}
	return types.Fail(types.E_TYPE)
}

// floatArith follows IEEE 754: division by zero yields an infinity
func floatArith(op OpCode, a, b float64) types.Result {
	switch op {
	case OP_ADD:
		return types.Ok(types.NewFloat(a + b))
	case OP_SUB:
		return types.Ok(types.NewFloat(a - b))
	case OP_MUL:
		return types.Ok(types.NewFloat(a * b))
	case OP_DIV:
		return types.Ok(types.NewFloat(a / b))
	case OP_MOD:
		return types.Ok(types.NewFloat(math.Mod(a, b)))
	}
	return types.Fail(types.E_TYPE)
}

func concat(left, right types.Value) types.Result {
	if types.IsNull(left) || types.IsNull(right) {
		return types.Fail(types.E_NULLREF)
	}
	a, ok1 := left.(types.StrValue)
	b, ok2 := right.(types.StrValue)
	if !ok1 || !ok2 {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewStr(a.Value() + b.Value()))
}

// negate implements unary minus
func negate(kind types.Kind, operand types.Value) types.Result {
	switch v := operand.(type) {
	case types.IntValue:
		if kind == types.KindInt {
			return types.Ok(types.NewInt(-v.Val))
		}
	case types.UIntValue:
		if kind == types.KindUInt {
			return types.Ok(types.NewUInt(-v.Val))
		}
	case types.FloatValue:
		if kind == types.KindFloat {
			return types.Ok(types.NewFloat(-v.Val))
		}
	}
	return types.Fail(types.E_TYPE)
}

// convert implements numeric conversion to kind. Float to integer
// truncates; NaN, infinities and out-of-range values are E_CAST.
func convert(kind types.Kind, operand types.Value) types.Result {
	switch kind {
	case types.KindInt:
		switch v := operand.(type) {
		case types.IntValue:
			return types.Ok(v)
		case types.UIntValue:
			return types.Ok(types.NewInt(int64(v.Val)))
		case types.FloatValue:
			if math.IsNaN(v.Val) || v.Val < math.MinInt64 || v.Val >= math.MaxInt64 {
				return types.Fail(types.E_CAST)
			}
			return types.Ok(types.NewInt(int64(v.Val)))
		}
	case types.KindUInt:
		switch v := operand.(type) {
		case types.IntValue:
			return types.Ok(types.NewUInt(uint64(v.Val)))
		case types.UIntValue:
			return types.Ok(v)
		case types.FloatValue:
			if math.IsNaN(v.Val) || v.Val <= -1 || v.Val >= math.MaxUint64 {
				return types.Fail(types.E_CAST)
			}
			return types.Ok(types.NewUInt(uint64(v.Val)))
		}
	case types.KindFloat:
		switch v := operand.(type) {
		case types.IntValue:
			return types.Ok(types.NewFloat(float64(v.Val)))
		case types.UIntValue:
			return types.Ok(types.NewFloat(float64(v.Val)))
		case types.FloatValue:
			return types.Ok(v)
		}
	case types.KindBool:
		if b, ok := operand.(types.BoolValue); ok {
			return types.Ok(b)
		}
	}
	return types.Fail(types.E_TYPE)
}

// ============================================================================
// BITWISE OPERATORS
// ============================================================================

// bitwise implements & | ^ on integers of one kind, and on booleans
// without short-circuit
func bitwise(op OpCode, left, right types.Value) types.Result {
	switch a := left.(type) {
	case types.IntValue:
		b, ok := right.(types.IntValue)
		if !ok {
			return types.Fail(types.E_TYPE)
		}
		switch op {
		case OP_BITAND:
			return types.Ok(types.NewInt(a.Val & b.Val))
		case OP_BITOR:
			return types.Ok(types.NewInt(a.Val | b.Val))
		case OP_BITXOR:
			return types.Ok(types.NewInt(a.Val ^ b.Val))
		}
	case types.UIntValue:
		b, ok := right.(types.UIntValue)
		if !ok {
			return types.Fail(types.E_TYPE)
		}
		switch op {
		case OP_BITAND:
			return types.Ok(types.NewUInt(a.Val & b.Val))
		case OP_BITOR:
			return types.Ok(types.NewUInt(a.Val | b.Val))
		case OP_BITXOR:
			return types.Ok(types.NewUInt(a.Val ^ b.Val))
		}
	case types.BoolValue:
		b, ok := right.(types.BoolValue)
		if !ok {
			return types.Fail(types.E_TYPE)
		}
		switch op {
		case OP_BITAND:
			return types.Ok(types.NewBool(a.Val && b.Val))
		case OP_BITOR:
			return types.Ok(types.NewBool(a.Val || b.Val))
		case OP_BITXOR:
			return types.Ok(types.NewBool(a.Val != b.Val))
		}
	}
	return types.Fail(types.E_TYPE)
}

// bitwiseNot implements ^x
func bitwiseNot(operand types.Value) types.Result {
	switch v := operand.(type) {
	case types.IntValue:
		return types.Ok(types.NewInt(^v.Val))
	case types.UIntValue:
		return types.Ok(types.NewUInt(^v.Val))
	}
	return types.Fail(types.E_TYPE)
}

// shift implements << and >>. The count is masked to the low six bits.
// Right shift is arithmetic for int and logical for uint.
func shift(op OpCode, left, right types.Value) types.Result {
	var count uint
	switch c := right.(type) {
	case types.IntValue:
		count = uint(c.Val) & 63
	case types.UIntValue:
		count = uint(c.Val) & 63
	default:
		return types.Fail(types.E_TYPE)
	}
	switch a := left.(type) {
	case types.IntValue:
		if op == OP_SHL {
			return types.Ok(types.NewInt(a.Val << count))
		}
		return types.Ok(types.NewInt(a.Val >> count))
	case types.UIntValue:
		if op == OP_SHL {
			return types.Ok(types.NewUInt(a.Val << count))
		}
		return types.Ok(types.NewUInt(a.Val >> count))
	}
	return types.Fail(types.E_TYPE)
}

// ============================================================================
// COMPARISON OPERATORS
// ============================================================================

// compare orders two values of one kind. Any comparison involving NaN
// is false, which the caller sees as ok == false.
func compare(kind types.Kind, left, right types.Value) (cmp int, ok bool, code types.ErrorCode) {
	switch kind {
	case types.KindInt:
		a, ok1 := left.(types.IntValue)
		b, ok2 := right.(types.IntValue)
		if !ok1 || !ok2 {
			return 0, false, types.E_TYPE
		}
		return cmp3(a.Val < b.Val, a.Val > b.Val), true, types.E_NONE
	case types.KindUInt:
		a, ok1 := left.(types.UIntValue)
		b, ok2 := right.(types.UIntValue)
		if !ok1 || !ok2 {
			return 0, false, types.E_TYPE
		}
		return cmp3(a.Val < b.Val, a.Val > b.Val), true, types.E_NONE
	case types.KindFloat:
		a, ok1 := left.(types.FloatValue)
		b, ok2 := right.(types.FloatValue)
		if !ok1 || !ok2 {
			return 0, false, types.E_TYPE
		}
		if math.IsNaN(a.Val) || math.IsNaN(b.Val) {
			return 0, false, types.E_NONE
		}
		return cmp3(a.Val < b.Val, a.Val > b.Val), true, types.E_NONE
	case types.KindStr:
		if types.IsNull(left) || types.IsNull(right) {
			return 0, false, types.E_NULLREF
		}
		a, ok1 := left.(types.StrValue)
		b, ok2 := right.(types.StrValue)
		if !ok1 || !ok2 {
			return 0, false, types.E_TYPE
		}
		return strings.Compare(a.Value(), b.Value()), true, types.E_NONE
	}
	return 0, false, types.E_TYPE
}

func cmp3(less, greater bool) int {
	switch {
	case less:
		return -1
	case greater:
		return 1
	}
	return 0
}

// ordering implements < <= > >=
func ordering(op OpCode, kind types.Kind, left, right types.Value) types.Result {
	c, ok, code := compare(kind, left, right)
	if code != types.E_NONE {
		return types.Fail(code)
	}
	if !ok {
		return types.Ok(types.False)
	}
	switch op {
	case OP_LT:
		return types.Ok(types.NewBool(c < 0))
	case OP_LE:
		return types.Ok(types.NewBool(c <= 0))
	case OP_GT:
		return types.Ok(types.NewBool(c > 0))
	case OP_GE:
		return types.Ok(types.NewBool(c >= 0))
	}
	return types.Fail(types.E_TYPE)
}

// equal implements == with value semantics for scalars, strings and
// structs, identity for objects and arrays, and structural presence for
// optionals
func equal(left, right types.Value) bool {
	return left.Equal(right)
}

// logicalNot implements !x over booleans
func logicalNot(operand types.Value) types.Result {
	b, ok := operand.(types.BoolValue)
	if !ok {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewBool(!b.Val))
}
