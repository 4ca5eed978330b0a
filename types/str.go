package types

import "strconv"

// StrValue represents a non-null string. A null string is NullValue.
type StrValue struct {
	val string
}

// NewStr creates a new string value
func NewStr(s string) StrValue {
	return StrValue{val: s}
}

// String returns the quoted literal representation
func (s StrValue) String() string {
	return strconv.Quote(s.val)
}

// Type returns the type code for strings
func (s StrValue) Type() TypeCode {
	return TYPE_STR
}

// Truthy reports false; only booleans drive branches
func (s StrValue) Truthy() bool {
	return false
}

// Equal compares two strings byte-wise
func (s StrValue) Equal(other Value) bool {
	if o, ok := other.(StrValue); ok {
		return s.val == o.val
	}
	return false
}

// Value returns the internal string value
func (s StrValue) Value() string {
	return s.val
}
