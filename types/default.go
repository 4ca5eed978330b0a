package types

import "fmt"

// Default returns the static default value of t
func Default(t *Type) Value {
	switch t.Kind {
	case KindBool:
		return False
	case KindInt:
		return IntValue{}
	case KindUInt:
		return UIntValue{}
	case KindFloat:
		return FloatValue{}
	case KindOptional:
		return Absent()
	case KindStruct:
		return NewStructValue(t)
	case KindErr:
		return NewErr(E_NONE)
	}
	return Null
}

// New runs the parameterless constructor of a Struct or Class type
func New(t *Type) (Value, error) {
	switch t.Kind {
	case KindStruct:
		return NewStructValue(t), nil
	case KindClass:
		return NewObject(t), nil
	}
	return nil, fmt.Errorf("type %s has no parameterless constructor", t)
}

// Conforms reports whether a runtime value may inhabit static type t.
// It is used to validate host arguments at invocation boundaries.
func Conforms(v Value, t *Type) bool {
	if v == nil {
		return false
	}
	if _, ok := v.(NullValue); ok {
		return t.IsReference()
	}
	switch t.Kind {
	case KindBool:
		return v.Type() == TYPE_BOOL
	case KindInt:
		return v.Type() == TYPE_INT
	case KindUInt:
		return v.Type() == TYPE_UINT
	case KindFloat:
		return v.Type() == TYPE_FLOAT
	case KindStr:
		return v.Type() == TYPE_STR
	case KindErr:
		return v.Type() == TYPE_ERR
	case KindOptional:
		o, ok := v.(OptionalValue)
		return ok && (!o.has || Conforms(o.val, t.Elem))
	case KindStruct:
		s, ok := v.(StructValue)
		return ok && s.typ == t
	case KindClass:
		o, ok := v.(*ObjectValue)
		return ok && o.class == t
	case KindArray:
		a, ok := v.(*ArrayValue)
		return ok && Identical(a.elem, t.Elem)
	case KindFunc:
		return v.Type() == TYPE_CLOSURE
	}
	return false
}
