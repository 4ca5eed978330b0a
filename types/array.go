package types

import "strings"

// ArrayValue is a fixed-length array reference. Growing an array
// produces a new array; the old one is left untouched.
type ArrayValue struct {
	elem  *Type
	items []Value
}

// NewArray creates an array of n default elements
func NewArray(elem *Type, n int) *ArrayValue {
	items := make([]Value, n)
	for i := range items {
		items[i] = Default(elem)
	}
	return &ArrayValue{elem: elem, items: items}
}

// NewArrayOf creates an array holding the given elements
func NewArrayOf(elem *Type, items []Value) *ArrayValue {
	return &ArrayValue{elem: elem, items: items}
}

// String returns the literal representation
func (a *ArrayValue) String() string {
	if len(a.items) == 0 {
		return "[]"
	}
	parts := make([]string, len(a.items))
	for i, it := range a.items {
		parts[i] = it.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// Type returns TYPE_ARRAY
func (a *ArrayValue) Type() TypeCode {
	return TYPE_ARRAY
}

// Truthy reports false
func (a *ArrayValue) Truthy() bool {
	return false
}

// Equal is reference identity
func (a *ArrayValue) Equal(other Value) bool {
	o, ok := other.(*ArrayValue)
	return ok && o == a
}

// Elem returns the element type
func (a *ArrayValue) Elem() *Type {
	return a.elem
}

// Len returns the length of the array
func (a *ArrayValue) Len() int {
	return len(a.items)
}

// InRange reports whether i is a valid 0-based index
func (a *ArrayValue) InRange(i int64) bool {
	return i >= 0 && i < int64(len(a.items))
}

// Get returns element i (0-based)
func (a *ArrayValue) Get(i int) Value {
	return a.items[i]
}

// Set stores element i (0-based)
func (a *ArrayValue) Set(i int, v Value) {
	a.items[i] = v
}

// ElemAddress returns an address of element i
func (a *ArrayValue) ElemAddress(i int) Address {
	return Address{cells: a.items, index: i, kind: AddrElem}
}

// Elements returns the backing slice for iteration
func (a *ArrayValue) Elements() []Value {
	return a.items
}

// Resized returns a new array of length n holding a copy of the common
// prefix; new slots are filled with the element default
func (a *ArrayValue) Resized(n int) *ArrayValue {
	items := make([]Value, n)
	copied := copy(items, a.items)
	for i := copied; i < n; i++ {
		items[i] = Default(a.elem)
	}
	return &ArrayValue{elem: a.elem, items: items}
}
