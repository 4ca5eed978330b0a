package compiler

import (
	"errors"
	"testing"

	"stackc/tree"
	"stackc/types"
)

var intThunk = types.FuncOf(nil, types.Int)

func TestClosureSeesCurrentValue(t *testing.T) {
	x := tree.NewVar("x", types.Int)
	f := tree.NewVar("f", intThunk)
	get := tree.Func("get", nil, tree.Ref(x))
	root := tree.Func("outer", nil, tree.MakeBlock([]*tree.Var{x, f},
		tree.Set(tree.Ref(x), intConst(1)),
		tree.Set(tree.Ref(f), get),
		tree.Set(tree.Ref(x), intConst(5)),
		tree.InvokeOf(tree.Ref(f)),
	))
	u := compile(t, root, 0)
	expectValue(t, call(t, u), types.NewInt(5))
	if len(u.Module.Units) != 2 {
		t.Errorf("module has %d units, want 2", len(u.Module.Units))
	}
}

func TestClosureWritesBack(t *testing.T) {
	x := tree.NewVar("x", types.Int)
	f := tree.NewVar("f", intThunk)
	inc := tree.Func("inc", nil, tree.Set(tree.Ref(x), tree.Add(tree.Ref(x), intConst(1))))
	root := tree.Func("counter", nil, tree.MakeBlock([]*tree.Var{x, f},
		tree.Set(tree.Ref(f), inc),
		tree.InvokeOf(tree.Ref(f)),
		tree.InvokeOf(tree.Ref(f)),
		tree.Add(tree.InvokeOf(tree.Ref(f)), tree.Ref(x)),
	))
	expectValue(t, call(t, compile(t, root, 0)), types.NewInt(6))
}

func TestClosureCapturesParameter(t *testing.T) {
	n := tree.NewVar("n", types.Int)
	y := tree.NewVar("y", types.Int)
	adder := tree.Func("add", []*tree.Var{y}, tree.Add(tree.Ref(n), tree.Ref(y)))
	root := tree.Func("make", []*tree.Var{n}, tree.InvokeOf(adder, intConst(10)))
	expectValue(t, call(t, compile(t, root, 0), types.NewInt(32)), types.NewInt(42))
}

func TestNestedClosures(t *testing.T) {
	// outer declares a, middle declares b, inner reads both
	a, b := tree.NewVar("a", types.Int), tree.NewVar("b", types.Int)
	inner := tree.Func("inner", nil, tree.Sub(tree.Ref(a), tree.Ref(b)))
	middle := tree.Func("middle", nil, tree.MakeBlock([]*tree.Var{b},
		tree.Set(tree.Ref(b), intConst(3)),
		tree.InvokeOf(inner),
	))
	root := tree.Func("outer", nil, tree.MakeBlock([]*tree.Var{a},
		tree.Set(tree.Ref(a), intConst(10)),
		tree.InvokeOf(middle),
	))
	u := compile(t, root, 0)
	expectValue(t, call(t, u), types.NewInt(7))
	if len(u.Module.Units) != 3 {
		t.Errorf("module has %d units, want 3", len(u.Module.Units))
	}
}

func TestClosureSkipsRecordlessLevel(t *testing.T) {
	// middle captures nothing of its own, so inner reaches outer's
	// record directly
	a := tree.NewVar("a", types.Int)
	inner := tree.Func("inner", nil, tree.Ref(a))
	middle := tree.Func("middle", nil, tree.InvokeOf(inner))
	root := tree.Func("outer", []*tree.Var{a}, tree.InvokeOf(middle))
	expectValue(t, call(t, compile(t, root, 0), types.NewInt(8)), types.NewInt(8))
}

func TestLambdaWithoutCapturesNeedsNoRecord(t *testing.T) {
	y := tree.NewVar("y", types.Int)
	double := tree.Func("double", []*tree.Var{y}, tree.Mul(tree.Ref(y), intConst(2)))
	root := tree.Func("apply", nil, tree.InvokeOf(double, intConst(21)))
	u := compile(t, root, ForbidClosures)
	expectValue(t, call(t, u), types.NewInt(42))
}

func TestForbidClosures(t *testing.T) {
	x := tree.NewVar("x", types.Int)
	get := tree.Func("get", nil, tree.Ref(x))
	root := tree.Func("outer", []*tree.Var{x}, tree.InvokeOf(get))

	_, err := Compile(root, ForbidClosures)
	var cre *ClosureRequiredError
	if !errors.As(err, &cre) {
		t.Fatalf("got %v, want a closure required error", err)
	}
	if cre.Var != x || cre.Lambda != root {
		t.Errorf("error names %s in %s", cre.Var.Name, cre.Lambda.Name)
	}

	expectValue(t, call(t, compile(t, root, 0), types.NewInt(3)), types.NewInt(3))
}

func TestClosureInsideLoop(t *testing.T) {
	// A loop variable captured by a closure shares one record per
	// invocation of the enclosing lambda, so the closure sees the
	// variable's last value
	i := tree.NewVar("i", types.Int)
	f := tree.NewVar("f", intThunk)
	done := tree.NewLabelTarget("done", nil)
	body := tree.MakeBlock(nil,
		tree.If(tree.Equal(tree.Ref(i), intConst(3)), tree.Jump(done, nil), nil),
		tree.Set(tree.Ref(f), tree.Func("snap", nil, tree.Ref(i))),
		tree.Set(tree.Ref(i), tree.Add(tree.Ref(i), intConst(1))),
	)
	root := tree.Func("loop", nil, tree.MakeBlock([]*tree.Var{i, f},
		tree.MakeLoop(body, done, nil),
		tree.InvokeOf(tree.Ref(f)),
	))
	expectValue(t, call(t, compile(t, root, 0)), types.NewInt(3))
}

func TestNullClosureInvoke(t *testing.T) {
	f := tree.NewVar("f", intThunk)
	root := tree.Func("nothing", []*tree.Var{f}, tree.InvokeOf(tree.Ref(f)))

	_, err := compile(t, root, 0).Call(types.Null)
	expectFault(t, err, types.E_NULLREF)

	expectValue(t, call(t, compile(t, root, CheckNullReferences), types.Null), types.NewInt(0))
}

func TestClosureCapturesCatchVariable(t *testing.T) {
	e := tree.NewVar("e", types.Err)
	show := tree.Func("show", nil, tree.HostCall("errcode", types.Int, tree.Ref(e)))
	root := tree.Func("caught", nil, tree.TryCatch(
		tree.RaiseAs(tree.Const(types.NewErr(types.E_RANGE)), types.Int),
		tree.Catch(e, tree.InvokeOf(show)),
	))
	expectValue(t, call(t, compile(t, root, 0)), types.NewInt(int64(types.E_RANGE)))
}

func TestLambdaSharedByTwoParentsIsMalformed(t *testing.T) {
	shared := tree.Func("shared", nil, intConst(1))
	a := tree.Func("a", nil, tree.InvokeOf(shared))
	b := tree.Func("b", nil, tree.InvokeOf(shared))
	root := tree.Func("root", nil, tree.Add(tree.InvokeOf(a), tree.InvokeOf(b)))
	expectMalformed(t, root, 0, "two enclosing lambdas")
}
