package types

// OptionalValue is a scalar paired with a presence flag
type OptionalValue struct {
	has bool
	val Value
}

// Some wraps a present scalar
func Some(v Value) OptionalValue {
	return OptionalValue{has: true, val: v}
}

// Absent returns the absent optional
func Absent() OptionalValue {
	return OptionalValue{}
}

// Type returns TYPE_OPTIONAL
func (o OptionalValue) Type() TypeCode {
	return TYPE_OPTIONAL
}

// String renders the wrapped value or "absent"
func (o OptionalValue) String() string {
	if !o.has {
		return "absent"
	}
	return o.val.String() + "?"
}

// Equal compares presence first: two absent values are equal,
// one absent and one present are not
func (o OptionalValue) Equal(other Value) bool {
	p, ok := other.(OptionalValue)
	if !ok {
		return false
	}
	if o.has != p.has {
		return false
	}
	if !o.has {
		return true
	}
	return o.val.Equal(p.val)
}

// Truthy is true only for a present true boolean
func (o OptionalValue) Truthy() bool {
	return o.has && o.val.Truthy()
}

// HasValue reports presence
func (o OptionalValue) HasValue() bool {
	return o.has
}

// Value returns the wrapped scalar (nil when absent)
func (o OptionalValue) Value() Value {
	return o.val
}
