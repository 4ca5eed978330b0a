package types

import "strings"

// StructValue is an instance of a Struct type. It has value semantics:
// every by-value load clones it, while addresses share the field cells.
type StructValue struct {
	typ    *Type
	fields []Value
}

// NewStructValue creates a struct with all fields at their defaults
func NewStructValue(t *Type) StructValue {
	fields := make([]Value, len(t.Fields))
	for i, f := range t.Fields {
		fields[i] = Default(f.Type)
	}
	return StructValue{typ: t, fields: fields}
}

// Type returns TYPE_STRUCT
func (s StructValue) Type() TypeCode {
	return TYPE_STRUCT
}

// StaticType returns the struct's descriptor
func (s StructValue) StaticType() *Type {
	return s.typ
}

// String renders Name{field: value, ...}
func (s StructValue) String() string {
	return recordString(s.typ, s.fields)
}

// Equal compares field by field
func (s StructValue) Equal(other Value) bool {
	o, ok := other.(StructValue)
	if !ok || o.typ != s.typ || len(o.fields) != len(s.fields) {
		return false
	}
	for i := range s.fields {
		if !s.fields[i].Equal(o.fields[i]) {
			return false
		}
	}
	return true
}

// Truthy reports false
func (s StructValue) Truthy() bool {
	return false
}

// Field returns field i
func (s StructValue) Field(i int) Value {
	return s.fields[i]
}

// FieldAddress returns an address of field i sharing this struct's storage
func (s StructValue) FieldAddress(i int) Address {
	return Address{cells: s.fields, index: i, kind: AddrField}
}

// Clone copies the struct, recursively copying nested structs
func (s StructValue) Clone() StructValue {
	fields := make([]Value, len(s.fields))
	for i, f := range s.fields {
		fields[i] = CopyValue(f)
	}
	return StructValue{typ: s.typ, fields: fields}
}

// CopyValue returns v with value semantics applied: structs are cloned,
// everything else is returned as is
func CopyValue(v Value) Value {
	if s, ok := v.(StructValue); ok {
		return s.Clone()
	}
	return v
}

func recordString(t *Type, fields []Value) string {
	var sb strings.Builder
	sb.WriteString(t.Name)
	sb.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(t.Fields[i].Name)
		sb.WriteString(": ")
		if f == nil {
			sb.WriteString("null")
		} else {
			sb.WriteString(f.String())
		}
	}
	sb.WriteByte('}')
	return sb.String()
}
