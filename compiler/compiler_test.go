package compiler

import (
	"errors"
	"strings"
	"testing"

	"github.com/oklog/ulid/v2"

	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

func compile(t *testing.T, root *tree.Lambda, opts Options) *Unit {
	t.Helper()
	u, err := Compile(root, opts)
	if err != nil {
		t.Fatalf("compile %s: %v", root.Name, err)
	}
	return u
}

func call(t *testing.T, u *Unit, args ...types.Value) types.Value {
	t.Helper()
	got, err := u.Call(args...)
	if err != nil {
		t.Fatalf("call %s: %v\n%s", u.Program.Name, err, u.Disassemble())
	}
	return got
}

func expectValue(t *testing.T, got, want types.Value) {
	t.Helper()
	if got == nil || !got.Equal(want) {
		t.Errorf("got %v, want %s", got, want)
	}
}

func expectFault(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	var f vm.Fault
	if !errors.As(err, &f) {
		t.Fatalf("got %v, want fault %s", err, code)
	}
	if f.Code != code {
		t.Errorf("got fault %s, want %s", f.Code, code)
	}
}

func expectMalformed(t *testing.T, root *tree.Lambda, opts Options, fragment string) {
	t.Helper()
	_, err := Compile(root, opts)
	var mt *MalformedTreeError
	if !errors.As(err, &mt) {
		t.Fatalf("got %v, want a malformed tree error", err)
	}
	if !strings.Contains(err.Error(), fragment) {
		t.Errorf("error %q does not mention %q", err, fragment)
	}
}

func intConst(n int64) *tree.Constant { return tree.Const(types.NewInt(n)) }

func strConst(s string) *tree.Constant { return tree.Const(types.NewStr(s)) }

// linkedNode is a self-referencing class: x int, next linkedNode
func linkedNode() *types.Type {
	node := types.NewClass("Node")
	node.Fields = []types.Field{
		{Name: "x", Type: types.Int},
		{Name: "next", Type: node},
	}
	return node
}

func TestConstantBody(t *testing.T) {
	u := compile(t, tree.Func("answer", nil, intConst(42)), 0)
	expectValue(t, call(t, u), types.NewInt(42))
	if u.Program.MaxStack != 1 {
		t.Errorf("MaxStack = %d, want 1", u.Program.MaxStack)
	}
}

func TestParametersAndArithmetic(t *testing.T) {
	a, b := tree.NewVar("a", types.Int), tree.NewVar("b", types.Int)
	root := tree.Func("madd", []*tree.Var{a, b},
		tree.Add(tree.Mul(tree.Ref(a), tree.Ref(b)), intConst(1)))
	u := compile(t, root, 0)
	expectValue(t, call(t, u, types.NewInt(6), types.NewInt(7)), types.NewInt(43))
	if u.Program.MaxStack != 2 {
		t.Errorf("MaxStack = %d, want 2", u.Program.MaxStack)
	}
	if _, err := u.Call(types.NewInt(1)); err == nil {
		t.Error("call with too few arguments succeeded")
	}
}

func TestNullPathYieldsDefault(t *testing.T) {
	node := linkedNode()
	o := tree.NewVar("o", node)
	root := tree.Func("nextx", []*tree.Var{o},
		tree.Add(tree.Field(tree.Field(tree.Ref(o), "next"), "x"), intConst(1)))
	u := compile(t, root, CheckNullReferences)

	inner := types.NewObject(node)
	inner.SetField(0, types.NewInt(4))
	outer := types.NewObject(node)
	outer.SetField(1, inner)

	tests := []struct {
		name string
		arg  types.Value
		want int64
	}{
		{"null root", types.Null, 0},
		{"null link", types.NewObject(node), 0},
		{"full path", outer, 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectValue(t, call(t, u, tt.arg), types.NewInt(tt.want))
		})
	}
}

func TestNullPathFaultsWithoutChecks(t *testing.T) {
	node := linkedNode()
	o := tree.NewVar("o", node)
	u := compile(t, tree.Func("x", []*tree.Var{o}, tree.Field(tree.Ref(o), "x")), 0)
	_, err := u.Call(types.Null)
	expectFault(t, err, types.E_NULLREF)
}

func TestNullStringLength(t *testing.T) {
	s := tree.NewVar("s", types.Str)
	u := compile(t, tree.Func("len", []*tree.Var{s}, tree.Field(tree.Ref(s), "Length")), CheckNullReferences)
	expectValue(t, call(t, u, types.Null), types.NewInt(0))
	expectValue(t, call(t, u, types.NewStr("héllo")), types.NewInt(5))
}

func TestBlockStatementsAreGuardedSeparately(t *testing.T) {
	node := linkedNode()
	o := tree.NewVar("o", node)
	n := tree.NewVar("n", types.Int)
	// The first statement bails on a null o; the second still runs
	root := tree.Func("stmts", []*tree.Var{o}, tree.MakeBlock([]*tree.Var{n},
		tree.Set(tree.Ref(n), tree.Field(tree.Ref(o), "x")),
		tree.Set(tree.Ref(n), tree.Add(tree.Ref(n), intConst(10))),
		tree.Ref(n),
	))
	u := compile(t, root, CheckNullReferences)
	expectValue(t, call(t, u, types.Null), types.NewInt(10))
}

func TestConvert(t *testing.T) {
	i := tree.NewVar("i", types.Int)
	oi := tree.NewVar("oi", types.OptionalInt)
	tests := []struct {
		name string
		root *tree.Lambda
		arg  types.Value
		want types.Value
	}{
		{"int to float", tree.Func("f", []*tree.Var{i}, tree.ConvertTo(tree.Ref(i), types.Float)),
			types.NewInt(3), types.NewFloat(3)},
		{"int to float?", tree.Func("f", []*tree.Var{i}, tree.ConvertTo(tree.Ref(i), types.OptionalFloat)),
			types.NewInt(3), types.Some(types.NewFloat(3))},
		{"int? to int present", tree.Func("f", []*tree.Var{oi}, tree.ConvertTo(tree.Ref(oi), types.Int)),
			types.Some(types.NewInt(8)), types.NewInt(8)},
		{"int? to int absent", tree.Func("f", []*tree.Var{oi}, tree.ConvertTo(tree.Ref(oi), types.Int)),
			types.Absent(), types.NewInt(0)},
		{"int? to float? present", tree.Func("f", []*tree.Var{oi}, tree.ConvertTo(tree.Ref(oi), types.OptionalFloat)),
			types.Some(types.NewInt(2)), types.Some(types.NewFloat(2))},
		{"int? to float? absent", tree.Func("f", []*tree.Var{oi}, tree.ConvertTo(tree.Ref(oi), types.OptionalFloat)),
			types.Absent(), types.Absent()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := compile(t, tt.root, CheckNullReferences)
			expectValue(t, call(t, u, tt.arg), tt.want)
		})
	}

	expectMalformed(t, tree.Func("bad", []*tree.Var{i}, tree.ConvertTo(tree.Ref(i), types.Str)), 0, "cannot convert")
}

func TestCoalesce(t *testing.T) {
	s := tree.NewVar("s", types.Str)
	oi := tree.NewVar("oi", types.OptionalInt)
	us := compile(t, tree.Func("cs", []*tree.Var{s}, tree.CoalesceOf(tree.Ref(s), strConst("none"))), 0)
	expectValue(t, call(t, us, types.Null), types.NewStr("none"))
	expectValue(t, call(t, us, types.NewStr("x")), types.NewStr("x"))

	ui := compile(t, tree.Func("ci", []*tree.Var{oi}, tree.CoalesceOf(tree.Ref(oi), intConst(4))), 0)
	expectValue(t, call(t, ui, types.Absent()), types.NewInt(4))
	expectValue(t, call(t, ui, types.Some(types.NewInt(9))), types.NewInt(9))
}

func TestNewStructAndClass(t *testing.T) {
	point := types.NewStruct("Point",
		types.Field{Name: "x", Type: types.Int},
		types.Field{Name: "y", Type: types.Int})
	p := tree.NewVar("p", point)
	root := tree.Func("sum", nil, tree.MakeBlock([]*tree.Var{p},
		tree.Set(tree.Ref(p), tree.NewOf(point, tree.Bind("x", intConst(3)), tree.Bind("y", intConst(4)))),
		tree.Set(tree.Field(tree.Ref(p), "y"), intConst(10)),
		tree.Add(tree.Field(tree.Ref(p), "x"), tree.Field(tree.Ref(p), "y")),
	))
	expectValue(t, call(t, compile(t, root, 0)), types.NewInt(13))

	node := linkedNode()
	cls := tree.Func("node", nil, tree.Field(tree.NewOf(node, tree.Bind("x", intConst(7))), "x"))
	expectValue(t, call(t, compile(t, cls, 0)), types.NewInt(7))
}

func TestSameNamedClassesCompileIndependently(t *testing.T) {
	// Each compile declares its own Node class; both units accept their own instances
	for i := 0; i < 2; i++ {
		node := linkedNode()
		n := tree.NewVar("n", node)
		root := tree.Func("first", []*tree.Var{n}, tree.Field(tree.Ref(n), "x"))
		arg := types.NewObject(node)
		arg.SetField(0, types.NewInt(int64(i)))
		expectValue(t, call(t, compile(t, root, 0), arg), types.NewInt(int64(i)))
	}
}

func TestStructCopiesOnAssign(t *testing.T) {
	point := types.NewStruct("Point", types.Field{Name: "x", Type: types.Int})
	a, b := tree.NewVar("a", point), tree.NewVar("b", point)
	root := tree.Func("copy", nil, tree.MakeBlock([]*tree.Var{a, b},
		tree.Set(tree.Field(tree.Ref(a), "x"), intConst(1)),
		tree.Set(tree.Ref(b), tree.Ref(a)),
		tree.Set(tree.Field(tree.Ref(b), "x"), intConst(2)),
		tree.Field(tree.Ref(a), "x"),
	))
	expectValue(t, call(t, compile(t, root, 0)), types.NewInt(1))
}

func TestNewArray(t *testing.T) {
	sum := tree.Func("items", nil, tree.Field(tree.NewArrayInit(types.Int, intConst(1), intConst(2), intConst(3)), "Length"))
	expectValue(t, call(t, compile(t, sum, 0)), types.NewInt(3))

	n := tree.NewVar("n", types.Int)
	sized := tree.Func("sized", []*tree.Var{n}, tree.Elem(tree.NewArrayBounds(types.Float, tree.Ref(n)), intConst(1)))
	expectValue(t, call(t, compile(t, sized, 0), types.NewInt(2)), types.NewFloat(0))
}

func TestIndexChecks(t *testing.T) {
	a := tree.NewVar("a", types.ArrayOf(types.Int))
	i := tree.NewVar("i", types.Int)
	root := tree.Func("at", []*tree.Var{a, i}, tree.Elem(tree.Ref(a), tree.Ref(i)))
	arr := types.NewArrayOf(types.Int, []types.Value{types.NewInt(5), types.NewInt(6)})

	checked := compile(t, root, CheckNullReferences|CheckArrayIndexes)
	expectValue(t, call(t, checked, arr, types.NewInt(1)), types.NewInt(6))
	expectValue(t, call(t, checked, arr, types.NewInt(2)), types.NewInt(0))
	expectValue(t, call(t, checked, types.Null, types.NewInt(0)), types.NewInt(0))

	unchecked := compile(t, root, 0)
	_, err := unchecked.Call(arr, types.NewInt(2))
	expectFault(t, err, types.E_RANGE)
}

func TestHostCall(t *testing.T) {
	x := tree.NewVar("x", types.Int)
	u := compile(t, tree.Func("abs", []*tree.Var{x}, tree.HostCall("iabs", types.Int, tree.Ref(x))), 0)
	expectValue(t, call(t, u, types.NewInt(-3)), types.NewInt(3))

	s := tree.NewVar("s", types.Str)
	up := compile(t, tree.Func("up", []*tree.Var{s}, tree.MethodCall(tree.Ref(s), "upcase", types.Str)), CheckNullReferences)
	expectValue(t, call(t, up, types.NewStr("abc")), types.NewStr("ABC"))
	expectValue(t, call(t, up, types.Null), types.Null)

	expectMalformed(t, tree.Func("nope", nil, tree.HostCall("no_such_method", types.Int)), 0, "unknown host method")
	expectMalformed(t, tree.Func("arity", nil, tree.HostCall("iabs", types.Int)), 0, "arguments")
}

func TestThrowIsCatchable(t *testing.T) {
	e := tree.NewVar("e", types.Err)
	root := tree.Func("raise", nil, tree.TryCatch(
		tree.RaiseAs(tree.Const(types.NewErr(types.E_USER)), types.Err),
		tree.Catch(e, tree.Ref(e)),
	))
	expectValue(t, call(t, compile(t, root, 0)), types.NewErr(types.E_USER))
}

func TestMalformedTrees(t *testing.T) {
	i := tree.NewVar("i", types.Int)
	unbound := tree.NewVar("ghost", types.Int)
	point := types.NewStruct("Point", types.Field{Name: "x", Type: types.Int})
	frozen := types.NewClass("Frozen", types.Field{Name: "id", Type: types.Int, ReadOnly: true})
	secret := types.NewClass("Secret", types.Field{Name: "key", Type: types.Str, WriteOnly: true})
	fv := tree.NewVar("f", frozen)
	sv := tree.NewVar("s", secret)

	tests := []struct {
		name     string
		root     *tree.Lambda
		fragment string
	}{
		{"mixed operand types", tree.Func("f", nil, tree.Add(intConst(1), tree.Const(types.NewFloat(1)))), "matching numeric"},
		{"unbound variable", tree.Func("f", nil, tree.Ref(unbound)), "unbound variable"},
		{"struct constant", tree.Func("f", nil, tree.Const(types.NewStructValue(point))), "cannot be pooled"},
		{"non-logical condition", tree.Func("f", []*tree.Var{i}, tree.If(tree.Ref(i), intConst(1), intConst(2))), "logical"},
		{"read-only store", tree.Func("f", []*tree.Var{fv}, tree.Set(tree.Field(tree.Ref(fv), "id"), intConst(1))), "no setter"},
		{"write-only load", tree.Func("f", []*tree.Var{sv}, tree.Field(tree.Ref(sv), "key")), "no getter"},
		{"assign to call", tree.Func("f", nil, tree.Set(tree.HostCall("iabs", types.Int, intConst(1)), intConst(2))), "not assignable"},
		{"result type mismatch", tree.FuncOf("f", nil, types.Str, intConst(1)), "type mismatch"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectMalformed(t, tt.root, 0, tt.fragment)
		})
	}
}

func TestFingerprintIsStable(t *testing.T) {
	a, b := tree.NewVar("a", types.OptionalInt), tree.NewVar("b", types.Int)
	x := tree.NewVar("x", types.Int)
	inner := tree.Func("inner", nil, tree.Ref(x))
	build := func() *tree.Lambda {
		return tree.Func("stable", []*tree.Var{a, b}, tree.MakeBlock([]*tree.Var{x},
			tree.Set(tree.Ref(x), tree.Ref(b)),
			tree.Add(tree.Ref(a), tree.ConvertTo(tree.InvokeOf(inner), types.OptionalInt)),
		))
	}
	u1 := compile(t, build(), All)
	u2 := compile(t, build(), All)
	if u1.Fingerprint() != u2.Fingerprint() {
		t.Error("two compiles of the same tree differ")
	}
	if u1.Program.ID == u2.Program.ID {
		t.Error("two compiles share a unit identity")
	}
	expectValue(t, call(t, u1, types.Some(types.NewInt(1)), types.NewInt(2)), types.Some(types.NewInt(3)))
}

type point struct {
	unit      string
	line, col int
	ip        int
}

type recordingSink struct {
	points []point
	units  []string
}

func (s *recordingSink) SequencePoint(unit string, id ulid.ULID, line, column, ip int) {
	s.points = append(s.points, point{unit: unit, line: line, col: column, ip: ip})
}

func (s *recordingSink) UnitCompiled(unit string, id ulid.ULID, codeLen int, fingerprint string) {
	s.units = append(s.units, unit)
}

func TestDebugSinkDoesNotChangeCode(t *testing.T) {
	x := tree.NewVar("x", types.Int)
	build := func() *tree.Lambda {
		left := tree.Ref(x)
		left.Pos = tree.Position{Line: 1, Column: 5}
		sum := tree.Add(left, intConst(1))
		sum.Pos = tree.Position{Line: 1, Column: 1}
		l := tree.Func("dbg", []*tree.Var{x}, sum)
		l.Pos = tree.Position{Line: 1, Column: 1}
		return l
	}

	sink := &recordingSink{}
	with, err := (&Compiler{Options: All, Sink: sink}).Compile(build())
	if err != nil {
		t.Fatal(err)
	}
	without := compile(t, build(), All)
	if with.Fingerprint() != without.Fingerprint() {
		t.Error("debug sink changed the emitted code")
	}
	if len(sink.points) != 2 {
		t.Fatalf("got %d sequence points, want 2: %+v", len(sink.points), sink.points)
	}
	if sink.points[1].col != 5 || sink.points[1].unit != "dbg" {
		t.Errorf("second point = %+v", sink.points[1])
	}
	if len(sink.units) != 1 || sink.units[0] != "dbg" {
		t.Errorf("units compiled = %v", sink.units)
	}
	if got := with.Program.LineForIP(sink.points[1].ip); got != 1 {
		t.Errorf("LineForIP = %d, want 1", got)
	}
}
