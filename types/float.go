package types

import (
	"math"
	"strconv"
	"strings"
)

// FloatValue represents a 64-bit floating point number
type FloatValue struct {
	Val float64
}

// Type returns the type code for floats
func (f FloatValue) Type() TypeCode {
	return TYPE_FLOAT
}

// String returns the literal representation
func (f FloatValue) String() string {
	if math.IsNaN(f.Val) {
		return "NaN"
	}
	if math.IsInf(f.Val, 1) {
		return "Inf"
	}
	if math.IsInf(f.Val, -1) {
		return "-Inf"
	}
	// Whole numbers still show a decimal point (3.0 not 3)
	s := strconv.FormatFloat(f.Val, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Equal checks deep equality with IEEE 754 semantics (NaN != NaN)
func (f FloatValue) Equal(other Value) bool {
	o, ok := other.(FloatValue)
	if !ok {
		return false
	}
	return f.Val == o.Val
}

// Truthy reports false; only booleans drive branches
func (f FloatValue) Truthy() bool {
	return false
}

// NewFloat creates a new FloatValue
func NewFloat(val float64) FloatValue {
	return FloatValue{Val: val}
}

// IsNaN returns true if the float is NaN
func (f FloatValue) IsNaN() bool {
	return math.IsNaN(f.Val)
}
