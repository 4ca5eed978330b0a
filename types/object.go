package types

import "fmt"

// ObjectValue is an instance of a Class type. Objects are references:
// copies share the same field storage and equality is identity.
type ObjectValue struct {
	class  *Type
	fields []Value
}

// NewObject creates an instance with every field at its default
func NewObject(class *Type) *ObjectValue {
	fields := make([]Value, len(class.Fields))
	for i, f := range class.Fields {
		fields[i] = Default(f.Type)
	}
	return &ObjectValue{class: class, fields: fields}
}

// Type returns TYPE_OBJECT
func (o *ObjectValue) Type() TypeCode {
	return TYPE_OBJECT
}

// String renders the class name and fields
func (o *ObjectValue) String() string {
	if o.class.Closure {
		return fmt.Sprintf("<env %s>", o.class.Name)
	}
	return recordString(o.class, o.fields)
}

// Equal is reference identity
func (o *ObjectValue) Equal(other Value) bool {
	p, ok := other.(*ObjectValue)
	return ok && p == o
}

// Truthy reports false
func (o *ObjectValue) Truthy() bool {
	return false
}

// Class returns the object's class descriptor
func (o *ObjectValue) Class() *Type {
	return o.class
}

// Field returns field i
func (o *ObjectValue) Field(i int) Value {
	return o.fields[i]
}

// SetField stores field i
func (o *ObjectValue) SetField(i int, v Value) {
	o.fields[i] = v
}

// FieldByName looks a field up by name
func (o *ObjectValue) FieldByName(name string) (Value, bool) {
	i, ok := o.class.FieldIndex(name)
	if !ok {
		return nil, false
	}
	return o.fields[i], true
}

// FieldAddress returns an address of field i
func (o *ObjectValue) FieldAddress(i int) Address {
	return Address{cells: o.fields, index: i, kind: AddrField}
}
