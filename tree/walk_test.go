package tree

import (
	"testing"

	"stackc/types"
)

func TestInspectOrder(t *testing.T) {
	x := NewVar("x", types.Int)
	root := Func("f", []*Var{x}, Add(Ref(x), Mul(Const(types.NewInt(2)), Ref(x))))

	var kinds []Kind
	Inspect(root, func(n Node) bool {
		kinds = append(kinds, n.Kind())
		return true
	})
	want := []Kind{KindLambda, KindBinary, KindVariable, KindBinary, KindConstant, KindVariable}
	if len(kinds) != len(want) {
		t.Fatalf("visited %v, want %v", kinds, want)
	}
	for i := range want {
		if kinds[i] != want[i] {
			t.Errorf("visit %d = %s, want %s", i, kinds[i], want[i])
		}
	}
}

func TestInspectSkipsChildren(t *testing.T) {
	inner := Func("g", nil, Const(types.NewInt(1)))
	root := Func("f", nil, MakeBlock(nil, inner, Const(types.NewInt(2))))

	count := 0
	Inspect(root, func(n Node) bool {
		count++
		return n != inner
	})
	// lambda f, block, lambda g, const 2
	if count != 4 {
		t.Errorf("count = %d, want 4", count)
	}
	if got := Count(root); got != 5 {
		t.Errorf("Count = %d, want 5", got)
	}
}

func TestChildrenOfTry(t *testing.T) {
	e := NewVar("e", types.Err)
	try := &Try{
		Body:     Const(types.NewInt(1)),
		Handlers: []Handler{CatchIf(e, Const(types.True), Const(types.NewInt(2)))},
		Finally:  Default(types.Void),
		Typ:      types.Int,
	}
	if got := len(Children(try)); got != 4 {
		t.Errorf("len(Children) = %d, want 4", got)
	}
}
