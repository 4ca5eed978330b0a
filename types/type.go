package types

import "strings"

// Kind classifies a static type
type Kind int

const (
	KindVoid Kind = iota
	KindBool
	KindInt
	KindUInt
	KindFloat
	KindStr
	KindOptional
	KindStruct
	KindClass
	KindArray
	KindFunc
	KindErr
)

var kindNames = []string{
	KindVoid:     "void",
	KindBool:     "bool",
	KindInt:      "int",
	KindUInt:     "uint",
	KindFloat:    "float",
	KindStr:      "str",
	KindOptional: "optional",
	KindStruct:   "struct",
	KindClass:    "class",
	KindArray:    "array",
	KindFunc:     "func",
	KindErr:      "err",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// Field describes one member of a Struct or Class
type Field struct {
	Name      string
	Type      *Type
	ReadOnly  bool // No setter: stores are rejected at compile time
	WriteOnly bool // No getter: loads are rejected at compile time
}

// Type is a static type descriptor. Struct and Class types are nominal
// (compared by pointer); everything else compares structurally.
type Type struct {
	Kind    Kind
	Name    string  // Struct, Class
	Elem    *Type   // Optional, Array
	Fields  []Field // Struct, Class
	Params  []*Type // Func
	Result  *Type   // Func
	Closure bool    // Synthesized environment record
}

// Predeclared types
var (
	Void  = &Type{Kind: KindVoid}
	Bool  = &Type{Kind: KindBool}
	Int   = &Type{Kind: KindInt}
	UInt  = &Type{Kind: KindUInt}
	Float = &Type{Kind: KindFloat}
	Str   = &Type{Kind: KindStr}
	Err   = &Type{Kind: KindErr}

	OptionalBool  = &Type{Kind: KindOptional, Elem: Bool}
	OptionalInt   = &Type{Kind: KindOptional, Elem: Int}
	OptionalUInt  = &Type{Kind: KindOptional, Elem: UInt}
	OptionalFloat = &Type{Kind: KindOptional, Elem: Float}
)

// OptionalOf returns the optional wrapper of a scalar type, or nil if
// elem is not a scalar
func OptionalOf(elem *Type) *Type {
	switch elem.Kind {
	case KindBool:
		return OptionalBool
	case KindInt:
		return OptionalInt
	case KindUInt:
		return OptionalUInt
	case KindFloat:
		return OptionalFloat
	case KindOptional:
		return elem
	}
	return nil
}

// ArrayOf returns the array type with the given element type
func ArrayOf(elem *Type) *Type {
	return &Type{Kind: KindArray, Elem: elem}
}

// FuncOf returns a function type
func FuncOf(params []*Type, result *Type) *Type {
	return &Type{Kind: KindFunc, Params: params, Result: result}
}

// NewStruct declares a nominal value type
func NewStruct(name string, fields ...Field) *Type {
	return &Type{Kind: KindStruct, Name: name, Fields: fields}
}

// NewClass declares a nominal reference type. Fields may be appended
// after creation to build self-referencing classes.
func NewClass(name string, fields ...Field) *Type {
	return &Type{Kind: KindClass, Name: name, Fields: fields}
}

// IsReference reports whether values of t are nullable references
func (t *Type) IsReference() bool {
	switch t.Kind {
	case KindStr, KindClass, KindArray, KindFunc:
		return true
	}
	return false
}

// IsOptional reports whether t is an optional scalar
func (t *Type) IsOptional() bool {
	return t.Kind == KindOptional
}

// IsNullable reports whether a value of t may be absent
func (t *Type) IsNullable() bool {
	return t.IsReference() || t.IsOptional()
}

// IsScalar reports whether t may be wrapped in an optional
func (t *Type) IsScalar() bool {
	switch t.Kind {
	case KindBool, KindInt, KindUInt, KindFloat:
		return true
	}
	return false
}

// IsNumeric reports whether t supports arithmetic
func (t *Type) IsNumeric() bool {
	switch t.Kind {
	case KindInt, KindUInt, KindFloat:
		return true
	}
	return false
}

// IsIntegral reports whether t supports bitwise operations
func (t *Type) IsIntegral() bool {
	return t.Kind == KindInt || t.Kind == KindUInt
}

// IsValueRecord reports whether t is a mutable value type
func (t *Type) IsValueRecord() bool {
	return t.Kind == KindStruct
}

// HasFields reports whether t has named members
func (t *Type) HasFields() bool {
	return t.Kind == KindStruct || t.Kind == KindClass
}

// Underlying strips one optional wrapper
func (t *Type) Underlying() *Type {
	if t.Kind == KindOptional {
		return t.Elem
	}
	return t
}

// FieldIndex finds a field by name
func (t *Type) FieldIndex(name string) (int, bool) {
	for i, f := range t.Fields {
		if f.Name == name {
			return i, true
		}
	}
	return -1, false
}

// String renders the type in the notation the tree files use:
// int, int?, []int, func(int, str) bool, or the declared name
func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	switch t.Kind {
	case KindOptional:
		return t.Elem.String() + "?"
	case KindArray:
		return "[]" + t.Elem.String()
	case KindFunc:
		var sb strings.Builder
		sb.WriteString("func(")
		for i, p := range t.Params {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(p.String())
		}
		sb.WriteString(")")
		if t.Result != nil && t.Result.Kind != KindVoid {
			sb.WriteString(" ")
			sb.WriteString(t.Result.String())
		}
		return sb.String()
	case KindStruct, KindClass:
		return t.Name
	}
	return t.Kind.String()
}

// Signature is the invoker shape key of a function type
func (t *Type) Signature() string {
	return t.String()
}

// Identical reports whether two types are the same type
func Identical(a, b *Type) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindStruct, KindClass:
		return false
	case KindOptional, KindArray:
		return Identical(a.Elem, b.Elem)
	case KindFunc:
		if len(a.Params) != len(b.Params) || !Identical(a.Result, b.Result) {
			return false
		}
		for i := range a.Params {
			if !Identical(a.Params[i], b.Params[i]) {
				return false
			}
		}
		return true
	}
	return true
}

// AssignableTo reports whether a value of type v may be stored in a
// location of type t without conversion
func AssignableTo(v, t *Type) bool {
	return Identical(v, t)
}
