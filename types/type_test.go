package types

import "testing"

func TestTypeString(t *testing.T) {
	point := NewStruct("Point", Field{Name: "X", Type: Int})
	tests := []struct {
		typ  *Type
		want string
	}{
		{Int, "int"},
		{OptionalOf(Float), "float?"},
		{ArrayOf(Str), "[]str"},
		{ArrayOf(OptionalInt), "[]int?"},
		{FuncOf([]*Type{Int, Str}, Bool), "func(int, str) bool"},
		{FuncOf(nil, Void), "func()"},
		{point, "Point"},
	}
	for _, tt := range tests {
		if got := tt.typ.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}
}

func TestIdentical(t *testing.T) {
	a := NewClass("Node")
	b := NewClass("Node")
	if Identical(a, b) {
		t.Error("distinct classes with the same name must not be identical")
	}
	if !Identical(ArrayOf(a), ArrayOf(a)) {
		t.Error("array types over the same element must be identical")
	}
	if !Identical(FuncOf([]*Type{Int}, Int), FuncOf([]*Type{Int}, Int)) {
		t.Error("structurally equal func types must be identical")
	}
	if Identical(OptionalInt, Int) {
		t.Error("int? and int must differ")
	}
}

func TestOptionalOfRejectsNonScalars(t *testing.T) {
	if OptionalOf(Str) != nil {
		t.Error("str is a reference type and cannot be optional")
	}
	if OptionalOf(OptionalInt) != OptionalInt {
		t.Error("OptionalOf must not double-wrap")
	}
}

func TestReferenceClassification(t *testing.T) {
	tests := []struct {
		typ      *Type
		ref      bool
		nullable bool
	}{
		{Int, false, false},
		{OptionalInt, false, true},
		{Str, true, true},
		{NewClass("C"), true, true},
		{NewStruct("S"), false, false},
		{ArrayOf(Int), true, true},
	}
	for _, tt := range tests {
		if tt.typ.IsReference() != tt.ref {
			t.Errorf("%s: IsReference() = %v", tt.typ, tt.typ.IsReference())
		}
		if tt.typ.IsNullable() != tt.nullable {
			t.Errorf("%s: IsNullable() = %v", tt.typ, tt.typ.IsNullable())
		}
	}
}
