package compiler

import (
	"testing"

	"stackc/tree"
	"stackc/types"
)

func someInt(n int64) types.OptionalValue { return types.Some(types.NewInt(n)) }

func someBool(b bool) types.OptionalValue { return types.Some(types.NewBool(b)) }

var absent = types.Absent()

// binaryFunc builds a two-parameter lambda applying op
func binaryFunc(op func(l, r tree.Node) *tree.Binary, lt, rt *types.Type) *tree.Lambda {
	a, b := tree.NewVar("a", lt), tree.NewVar("b", rt)
	return tree.Func("op", []*tree.Var{a, b}, op(tree.Ref(a), tree.Ref(b)))
}

func TestLiftedArithmetic(t *testing.T) {
	tests := []struct {
		name   string
		op     func(l, r tree.Node) *tree.Binary
		lt, rt *types.Type
		l, r   types.Value
		want   types.Value
	}{
		{"some plus some", tree.Add, types.OptionalInt, types.OptionalInt, someInt(2), someInt(3), someInt(5)},
		{"absent plus some", tree.Add, types.OptionalInt, types.OptionalInt, absent, someInt(3), absent},
		{"some plus absent", tree.Add, types.OptionalInt, types.OptionalInt, someInt(2), absent, absent},
		{"some plus definite", tree.Add, types.OptionalInt, types.Int, someInt(2), types.NewInt(3), someInt(5)},
		{"definite minus some", tree.Sub, types.Int, types.OptionalInt, types.NewInt(10), someInt(3), someInt(7)},
		{"definite times absent", tree.Mul, types.Int, types.OptionalInt, types.NewInt(10), absent, absent},
		{"float division", tree.Div, types.OptionalFloat, types.OptionalFloat,
			types.Some(types.NewFloat(1)), types.Some(types.NewFloat(4)), types.Some(types.NewFloat(0.25))},
		{"some less some", tree.Less, types.OptionalInt, types.OptionalInt, someInt(1), someInt(2), someBool(true)},
		{"some greater definite", tree.Greater, types.OptionalInt, types.Int, someInt(1), types.NewInt(2), someBool(false)},
		{"absent less some", tree.Less, types.OptionalInt, types.OptionalInt, absent, someInt(2), absent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compile(t, binaryFunc(tt.op, tt.lt, tt.rt), 0)
			expectValue(t, call(t, u, tt.l, tt.r), tt.want)
		})
	}
}

func TestLiftedDivisionByZeroFaults(t *testing.T) {
	u := compile(t, binaryFunc(tree.Div, types.OptionalInt, types.OptionalInt), 0)
	_, err := u.Call(someInt(1), someInt(0))
	expectFault(t, err, types.E_DIV)

	// Absent short-circuits before the division runs
	expectValue(t, call(t, u, absent, someInt(0)), absent)
}

func TestEquality(t *testing.T) {
	tests := []struct {
		name   string
		op     func(l, r tree.Node) *tree.Binary
		lt, rt *types.Type
		l, r   types.Value
		want   bool
	}{
		{"ints equal", tree.Equal, types.Int, types.Int, types.NewInt(1), types.NewInt(1), true},
		{"ints differ", tree.NotEqual, types.Int, types.Int, types.NewInt(1), types.NewInt(2), true},
		{"absent equals absent", tree.Equal, types.OptionalInt, types.OptionalInt, absent, absent, true},
		{"absent differs from some", tree.Equal, types.OptionalInt, types.OptionalInt, absent, someInt(0), false},
		{"some equals definite", tree.Equal, types.OptionalInt, types.Int, someInt(4), types.NewInt(4), true},
		{"definite differs from absent", tree.NotEqual, types.Int, types.OptionalInt, types.NewInt(4), absent, true},
		{"strings", tree.Equal, types.Str, types.Str, types.NewStr("a"), types.NewStr("a"), true},
		{"null string", tree.Equal, types.Str, types.Str, types.Null, types.NewStr("a"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compile(t, binaryFunc(tt.op, tt.lt, tt.rt), 0)
			expectValue(t, call(t, u, tt.l, tt.r), types.NewBool(tt.want))
		})
	}
}

func TestStructEqualityIsMalformed(t *testing.T) {
	pt := types.NewStruct("P", types.Field{Name: "x", Type: types.Int})
	expectMalformed(t, binaryFunc(tree.Equal, pt, pt), 0, "no equality")
}

// logicOperands lists every bool? input pair
var logicOperands = []types.Value{someBool(true), someBool(false), absent}

func showBool(v types.Value) string {
	o := v.(types.OptionalValue)
	if !o.HasValue() {
		return "absent"
	}
	return o.Value().String()
}

func TestLogicTables(t *testing.T) {
	T, F, A := someBool(true), someBool(false), absent
	tests := []struct {
		name  string
		op    func(l, r tree.Node) *tree.Binary
		opts  Options
		table [3][3]types.Value // rows: left T F A; cols: right T F A
	}{
		{"and", tree.AndAlso, 0, [3][3]types.Value{
			{T, F, A},
			{F, F, F},
			{A, A, A},
		}},
		{"or", tree.OrElse, 0, [3][3]types.Value{
			{T, T, T},
			{T, F, A},
			{A, A, A},
		}},
		{"and ternary", tree.AndAlso, UseTernaryLogic, [3][3]types.Value{
			{T, F, A},
			{F, F, F},
			{A, F, A},
		}},
		{"or ternary", tree.OrElse, UseTernaryLogic, [3][3]types.Value{
			{T, T, T},
			{T, F, A},
			{T, A, A},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compile(t, binaryFunc(tt.op, types.OptionalBool, types.OptionalBool), tt.opts)
			for i, l := range logicOperands {
				for j, r := range logicOperands {
					got := call(t, u, l, r)
					if !got.Equal(tt.table[i][j]) {
						t.Errorf("%s %s %s = %s, want %s", showBool(l), tt.name, showBool(r), showBool(got), showBool(tt.table[i][j]))
					}
				}
			}
		})
	}
}

func TestLogicShortCircuits(t *testing.T) {
	// The right side divides by zero; it must not run when the left decides
	x := tree.NewVar("x", types.Int)
	rhs := tree.Equal(tree.Div(intConst(1), tree.Ref(x)), intConst(1))
	and := compile(t, tree.Func("and", []*tree.Var{x}, tree.AndAlso(tree.Equal(tree.Ref(x), intConst(1)), rhs)), 0)
	expectValue(t, call(t, and, types.NewInt(0)), types.False)
	expectValue(t, call(t, and, types.NewInt(1)), types.True)

	or := compile(t, tree.Func("or", []*tree.Var{x}, tree.OrElse(tree.Equal(tree.Ref(x), intConst(0)), rhs)), 0)
	expectValue(t, call(t, or, types.NewInt(0)), types.True)
}

func TestMixedLogic(t *testing.T) {
	u := compile(t, binaryFunc(tree.AndAlso, types.Bool, types.OptionalBool), 0)
	expectValue(t, call(t, u, types.True, absent), absent)
	expectValue(t, call(t, u, types.False, absent), someBool(false))
}

func TestUnary(t *testing.T) {
	tests := []struct {
		name string
		op   func(tree.Node) *tree.Unary
		t    *types.Type
		arg  types.Value
		want types.Value
	}{
		{"negate int", tree.Negate, types.Int, types.NewInt(4), types.NewInt(-4)},
		{"negate float?", tree.Negate, types.OptionalFloat, types.Some(types.NewFloat(1.5)), types.Some(types.NewFloat(-1.5))},
		{"negate absent", tree.Negate, types.OptionalInt, absent, absent},
		{"not bool", tree.Not, types.Bool, types.True, types.False},
		{"not bool?", tree.Not, types.OptionalBool, someBool(false), someBool(true)},
		{"not absent", tree.Not, types.OptionalBool, absent, absent},
		{"bitnot", tree.BitNot, types.Int, types.NewInt(0), types.NewInt(-1)},
		{"isnull absent", tree.IsNull, types.OptionalInt, absent, types.True},
		{"isnull some", tree.IsNull, types.OptionalInt, someInt(0), types.False},
		{"isnull string", tree.IsNull, types.Str, types.Null, types.True},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := tree.NewVar("x", tt.t)
			u := compile(t, tree.Func("un", []*tree.Var{x}, tt.op(tree.Ref(x))), 0)
			expectValue(t, call(t, u, tt.arg), tt.want)
		})
	}

	expectMalformed(t, tree.Func("bad", nil, tree.IsNull(intConst(1))), 0, "nullable")
	expectMalformed(t, tree.Func("bad", nil, tree.Negate(strConst("a"))), 0, "numeric")
}

func TestStringOperators(t *testing.T) {
	cat := compile(t, binaryFunc(tree.Add, types.Str, types.Str), 0)
	expectValue(t, call(t, cat, types.NewStr("ab"), types.NewStr("cd")), types.NewStr("abcd"))

	less := compile(t, binaryFunc(tree.Less, types.Str, types.Str), 0)
	expectValue(t, call(t, less, types.NewStr("ab"), types.NewStr("b")), types.True)
}

func TestConditionalOnOptionalBool(t *testing.T) {
	c := tree.NewVar("c", types.OptionalBool)
	root := tree.Func("pick", []*tree.Var{c}, tree.If(tree.Ref(c), intConst(1), intConst(2)))

	u := compile(t, root, CheckNullReferences)
	expectValue(t, call(t, u, someBool(true)), types.NewInt(1))
	expectValue(t, call(t, u, someBool(false)), types.NewInt(2))
	// An absent test makes the whole conditional take its default
	expectValue(t, call(t, u, absent), types.NewInt(0))

	ternary := compile(t, root, CheckNullReferences|UseTernaryLogic)
	// Absent counts as false
	expectValue(t, call(t, ternary, absent), types.NewInt(2))
}
