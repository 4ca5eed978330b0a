package tree

import (
	"testing"

	"stackc/types"
)

func TestBinaryType(t *testing.T) {
	tests := []struct {
		name string
		op   BinaryOp
		l, r *types.Type
		want *types.Type
	}{
		{"int add", OpAdd, types.Int, types.Int, types.Int},
		{"optional add", OpAdd, types.OptionalInt, types.OptionalInt, types.OptionalInt},
		{"mixed add", OpAdd, types.Int, types.OptionalInt, types.OptionalInt},
		{"float div", OpDiv, types.OptionalFloat, types.Float, types.OptionalFloat},
		{"less", OpLess, types.Int, types.Int, types.Bool},
		{"lifted less", OpLess, types.OptionalInt, types.Int, types.OptionalBool},
		{"optional equal", OpEqual, types.OptionalInt, types.OptionalInt, types.Bool},
		{"ternary and", OpAndAlso, types.OptionalBool, types.Bool, types.OptionalBool},
		{"bool or", OpOrElse, types.Bool, types.Bool, types.Bool},
		{"untyped", OpAdd, nil, types.Int, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BinaryType(tt.op, tt.l, tt.r)
			if !types.Identical(got, tt.want) {
				t.Errorf("BinaryType(%s, %s, %s) = %s, want %s", tt.op, tt.l, tt.r, got, tt.want)
			}
		})
	}
}

func TestMemberType(t *testing.T) {
	point := types.NewStruct("Point", types.Field{Name: "X", Type: types.Int})
	tests := []struct {
		name   string
		target *types.Type
		member string
		want   *types.Type
	}{
		{"struct field", point, "X", types.Int},
		{"missing field", point, "Y", nil},
		{"has value", types.OptionalFloat, "HasValue", types.Bool},
		{"value", types.OptionalFloat, "Value", types.Float},
		{"array length", types.ArrayOf(types.Str), "Length", types.Int},
		{"string length", types.Str, "Length", types.Int},
		{"int has no members", types.Int, "Length", nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MemberType(tt.target, tt.member)
			if got != tt.want {
				t.Errorf("MemberType(%s, %q) = %s, want %s", tt.target, tt.member, got, tt.want)
			}
		})
	}
}

func TestConstructorTypes(t *testing.T) {
	x := NewVar("x", types.OptionalInt)
	arr := NewVar("arr", types.ArrayOf(types.Float))
	brk := NewLabelTarget("done", types.Int)

	tests := []struct {
		name string
		node Node
		want *types.Type
	}{
		{"const int", Const(types.NewInt(1)), types.Int},
		{"const some", Const(types.Some(types.NewFloat(1))), types.OptionalFloat},
		{"var", Ref(x), types.OptionalInt},
		{"isnull", IsNull(Ref(x)), types.Bool},
		{"index", Elem(Ref(arr), Const(types.NewInt(0))), types.Float},
		{"void if", If(Const(types.True), Const(types.NewInt(1)), nil), types.Void},
		{"if", If(Const(types.True), Const(types.NewInt(1)), Const(types.NewInt(2))), types.Int},
		{"empty block", MakeBlock(nil), types.Void},
		{"block", MakeBlock(nil, Const(types.True), Const(types.NewStr("s"))), types.Str},
		{"loop", MakeLoop(Jump(brk, Const(types.NewInt(1))), brk, nil), types.Int},
		{"coalesce optional", CoalesceOf(Ref(x), Const(types.NewInt(0))), types.Int},
		{"label", Mark(brk, nil), types.Int},
		{"assign", Set(Ref(x), Default(types.OptionalInt)), types.OptionalInt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.node.Type(); !types.Identical(got, tt.want) {
				t.Errorf("%s: type = %s, want %s", Format(tt.node), got, tt.want)
			}
		})
	}
}

func TestFuncType(t *testing.T) {
	a := NewVar("a", types.Int)
	b := NewVar("b", types.Str)
	fn := Func("f", []*Var{a, b}, Ref(a))
	want := types.FuncOf([]*types.Type{types.Int, types.Str}, types.Int)
	if !types.Identical(fn.Type(), want) {
		t.Errorf("Func type = %s, want %s", fn.Type(), want)
	}
	if fn.Result() != types.Int {
		t.Errorf("Result() = %s, want int", fn.Result())
	}
	call := InvokeOf(fn, Const(types.NewInt(1)), Const(types.NewStr("x")))
	if call.Type() != types.Int {
		t.Errorf("Invoke type = %s, want int", call.Type())
	}
}

func TestOpFromString(t *testing.T) {
	for op := OpAdd; op <= OpGreaterOrEqual; op++ {
		got, ok := BinaryOpFromString(op.String())
		if !ok || got != op {
			t.Errorf("BinaryOpFromString(%q) = %v, %v", op.String(), got, ok)
		}
	}
	for op := OpNegate; op <= OpIsNull; op++ {
		got, ok := UnaryOpFromString(op.String())
		if !ok || got != op {
			t.Errorf("UnaryOpFromString(%q) = %v, %v", op.String(), got, ok)
		}
	}
	if _, ok := BinaryOpFromString("pow"); ok {
		t.Error("BinaryOpFromString accepted unknown operator")
	}
}
