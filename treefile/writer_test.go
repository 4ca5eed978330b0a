package treefile

import (
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"stackc/tree"
	"stackc/types"
)

func roundTrip(t *testing.T, l *tree.Lambda) *File {
	t.Helper()
	data, err := Write(l)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := Read(data, nil)
	if err != nil {
		t.Fatalf("Read back: %v\n%s", err, data)
	}
	return f
}

func TestWriteRoundTrip(t *testing.T) {
	node := types.NewClass("Node")
	node.Fields = []types.Field{{Name: "x", Type: types.Int}, {Name: "next", Type: node}}
	n := tree.NewVar("n", node)
	o := tree.NewVar("o", types.OptionalInt)
	e := tree.NewVar("e", types.Err)
	done := tree.NewLabelTarget("done", types.Int)

	trees := map[string]*tree.Lambda{
		"arith": tree.Func("arith", []*tree.Var{o}, tree.Add(tree.Ref(o), tree.ConstOf(types.NewUInt(2), types.UInt))),
		"class": tree.Func("class", []*tree.Var{n}, tree.Field(tree.Field(tree.Ref(n), "next"), "x")),
		"new": tree.Func("new", nil, tree.Field(tree.NewOf(node, tree.Bind("x", tree.Const(types.NewInt(9)))), "x")),
		"try": tree.Func("try", nil, tree.TryCatch(
			tree.RaiseAs(tree.Const(types.NewErr(types.E_DIV)), types.Int),
			tree.CatchIf(e, tree.Const(types.True), tree.HostCall("errcode", types.Int, tree.Ref(e)), types.E_DIV),
		)),
		"finally": tree.Func("finally", nil, tree.TryFinally(tree.Const(types.NewStr("E_DIV")), tree.Default(types.Int))),
		"loop": tree.Func("loop", nil, tree.MakeLoop(tree.Jump(done, tree.Const(types.NewInt(1))), done, nil)),
		"label": tree.Func("label", nil, tree.Mark(done, tree.Const(types.NewInt(3)))),
		"switch": tree.Func("switch", []*tree.Var{o}, tree.MakeSwitch(tree.Ref(o), tree.Const(types.NewStr("other")),
			tree.Case(tree.Const(types.NewStr("one")), types.NewInt(1)),
			tree.Case(tree.Const(types.NewStr("none")), types.Null),
		)),
		"closure": tree.Func("closure", []*tree.Var{o}, tree.InvokeOf(tree.Func("inner", nil, tree.Ref(o)))),
		"arrays": tree.Func("arrays", nil, tree.Elem(
			tree.NewArrayInit(types.Float, tree.Const(types.NewFloat(1)), tree.Const(types.NewFloat(2.5))),
			tree.Const(types.NewInt(1)),
		)),
		"coalesce": tree.Func("coalesce", []*tree.Var{o}, tree.CoalesceOf(tree.Ref(o), tree.Const(types.NewInt(0)))),
		"result": tree.FuncOf("result", nil, types.Void, tree.Const(types.NewInt(1))),
	}
	for name, l := range trees {
		t.Run(name, func(t *testing.T) {
			f := roundTrip(t, l)
			if got, want := tree.Format(f.Lambda), tree.Format(l); got != want {
				t.Errorf("round trip changed the tree\n got: %s\nwant: %s", got, want)
			}
			if !sameType(f.Lambda.Type(), l.Type(), nil) {
				t.Errorf("lambda type %s, want %s", f.Lambda.Type(), l.Type())
			}
		})
	}
}

// sameType compares types by structure, matching nominal types by name
// and fields since a re-read file declares fresh ones
func sameType(a, b *types.Type, seen map[[2]*types.Type]bool) bool {
	if a == b {
		return true
	}
	if a == nil || b == nil || a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case types.KindStruct, types.KindClass:
		if a.Name != b.Name || len(a.Fields) != len(b.Fields) {
			return false
		}
		if seen == nil {
			seen = make(map[[2]*types.Type]bool)
		}
		if seen[[2]*types.Type{a, b}] {
			return true
		}
		seen[[2]*types.Type{a, b}] = true
		for i, f := range a.Fields {
			g := b.Fields[i]
			if f.Name != g.Name || f.ReadOnly != g.ReadOnly || f.WriteOnly != g.WriteOnly || !sameType(f.Type, g.Type, seen) {
				return false
			}
		}
		return true
	case types.KindOptional, types.KindArray:
		return sameType(a.Elem, b.Elem, seen)
	case types.KindFunc:
		if len(a.Params) != len(b.Params) || !sameType(a.Result, b.Result, seen) {
			return false
		}
		for i := range a.Params {
			if !sameType(a.Params[i], b.Params[i], seen) {
				return false
			}
		}
		return true
	}
	return types.Identical(a, b)
}

func TestWriteDeclaresTypes(t *testing.T) {
	inner := types.NewStruct("Inner", types.Field{Name: "v", Type: types.Int, ReadOnly: true})
	outer := types.NewClass("Outer", types.Field{Name: "in", Type: inner})
	x := tree.NewVar("x", types.ArrayOf(outer))
	l := tree.Func("deep", []*tree.Var{x}, tree.Field(tree.Field(tree.Elem(tree.Ref(x), tree.Const(types.NewInt(0))), "in"), "v"))

	f := roundTrip(t, l)
	var names []string
	for _, d := range f.Types.Declared() {
		names = append(names, d.Name)
	}
	if got := strings.Join(names, ","); got != "Outer,Inner" {
		t.Errorf("declared %s, want Outer,Inner", got)
	}
	in, _ := f.Types.Lookup("Inner")
	if !in.Fields[0].ReadOnly {
		t.Error("readonly flag lost")
	}
}

func TestWriteRenamesShadowedVars(t *testing.T) {
	// The inner block's x shadows the outer one, but the body reads both
	outer, inner := tree.NewVar("x", types.Int), tree.NewVar("x", types.Int)
	l := tree.Func("shadow", []*tree.Var{outer}, tree.MakeBlock([]*tree.Var{inner},
		tree.Set(tree.Ref(inner), tree.Const(types.NewInt(10))),
		tree.Sub(tree.Ref(inner), tree.Ref(outer)),
	))
	f := roundTrip(t, l)
	if got := run(t, f.Lambda, 0, types.NewInt(3)); !got.Equal(types.NewInt(7)) {
		t.Errorf("shadow(3) = %s, want 7", got)
	}
}

func TestWriteRejectsForeignLabel(t *testing.T) {
	out := tree.NewLabelTarget("out", nil)
	inner := tree.Func("inner", nil, tree.Jump(out, nil))
	l := tree.Func("outer", nil, tree.MakeBlock(nil, tree.InvokeOf(inner), tree.Mark(out, nil)))
	if _, err := Write(l); err == nil || !strings.Contains(err.Error(), "outside its lambda") {
		t.Errorf("Write = %v, want a foreign label error", err)
	}

	// A goto to a label nothing places has no lambda to belong to
	lost := tree.NewLabelTarget("lost", nil)
	dangling := tree.Func("dangling", nil, tree.Jump(lost, nil))
	if _, err := Write(dangling); err == nil {
		t.Error("Write accepted a goto to an unplaced label")
	}
}

func TestWriteKeepsLoopLabels(t *testing.T) {
	brk, cont := tree.NewLabelTarget("brk", nil), tree.NewLabelTarget("cont", nil)
	l := tree.Func("spin", nil, tree.MakeLoop(tree.Jump(brk, nil), brk, cont))
	f := roundTrip(t, l)
	if got, want := tree.Format(f.Lambda), tree.Format(l); got != want {
		t.Errorf("round trip changed the tree\n got: %s\nwant: %s", got, want)
	}
}

func TestValueRoundTrip(t *testing.T) {
	pt := types.NewStruct("P", types.Field{Name: "x", Type: types.Int}, types.Field{Name: "s", Type: types.Str})
	p := types.NewStructValue(pt)
	p.FieldAddress(0).Store(types.NewInt(4))
	p.FieldAddress(1).Store(types.NewStr("hi"))

	tests := []struct {
		name string
		v    types.Value
		t    *types.Type
	}{
		{"struct", p, pt},
		{"array", types.NewArrayOf(types.OptionalInt, []types.Value{types.Some(types.NewInt(1)), types.Absent()}), types.ArrayOf(types.OptionalInt)},
		{"error message", types.NewErrMsg(types.E_RANGE, "too far"), types.Err},
		{"whole float", types.NewFloat(2), types.Float},
		{"numeric string", types.NewStr("42"), types.Str},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := EncodeValue(tt.v)
			if err != nil {
				t.Fatal(err)
			}
			data, err := yaml.Marshal(n)
			if err != nil {
				t.Fatal(err)
			}
			var back yaml.Node
			if err := yaml.Unmarshal(data, &back); err != nil {
				t.Fatal(err)
			}
			got, err := DecodeValue(back.Content[0], tt.t)
			if err != nil {
				t.Fatalf("decode %s: %v", data, err)
			}
			if !sameValue(got, tt.v) {
				t.Errorf("got %s, want %s (yaml %s)", got, tt.v, data)
			}
		})
	}
}

// sameValue compares arrays by content and errors by message as well
// as code
func sameValue(a, b types.Value) bool {
	switch x := a.(type) {
	case *types.ArrayValue:
		y, ok := b.(*types.ArrayValue)
		if !ok || len(x.Elements()) != len(y.Elements()) {
			return false
		}
		for i, v := range x.Elements() {
			if !sameValue(v, y.Elements()[i]) {
				return false
			}
		}
		return true
	case types.ErrValue:
		y, ok := b.(types.ErrValue)
		return ok && x.Code() == y.Code() && x.Message() == y.Message()
	}
	return a.Equal(b)
}
