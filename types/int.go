package types

import "strconv"

// IntValue represents a signed 64-bit integer
type IntValue struct {
	Val int64
}

// Type returns the type code for integers
func (i IntValue) Type() TypeCode {
	return TYPE_INT
}

// String returns the literal representation
func (i IntValue) String() string {
	return strconv.FormatInt(i.Val, 10)
}

// Equal checks deep equality
func (i IntValue) Equal(other Value) bool {
	o, ok := other.(IntValue)
	return ok && i.Val == o.Val
}

// Truthy reports false; only booleans drive branches
func (i IntValue) Truthy() bool {
	return false
}

// NewInt creates a new IntValue
func NewInt(val int64) IntValue {
	return IntValue{Val: val}
}

// UIntValue represents an unsigned 64-bit integer
type UIntValue struct {
	Val uint64
}

// Type returns the type code for unsigned integers
func (u UIntValue) Type() TypeCode {
	return TYPE_UINT
}

// String returns the literal representation with a u suffix
func (u UIntValue) String() string {
	return strconv.FormatUint(u.Val, 10) + "u"
}

// Equal checks deep equality
func (u UIntValue) Equal(other Value) bool {
	o, ok := other.(UIntValue)
	return ok && u.Val == o.Val
}

// Truthy reports false; only booleans drive branches
func (u UIntValue) Truthy() bool {
	return false
}

// NewUInt creates a new UIntValue
func NewUInt(val uint64) UIntValue {
	return UIntValue{Val: val}
}
