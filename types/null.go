package types

// NullValue is the null reference shared by every reference kind
type NullValue struct{}

// Null is the canonical null reference
var Null = NullValue{}

func (v NullValue) Type() TypeCode {
	return TYPE_NULL
}

func (v NullValue) String() string {
	return "null"
}

func (v NullValue) Equal(other Value) bool {
	_, ok := other.(NullValue)
	return ok
}

func (v NullValue) Truthy() bool {
	return false
}

// IsNull reports whether v is the null reference or an absent optional
func IsNull(v Value) bool {
	switch o := v.(type) {
	case nil:
		return true
	case NullValue:
		return true
	case OptionalValue:
		return !o.has
	}
	return false
}
