package compiler

import (
	"testing"

	"stackc/builtins"
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

func TestLocalPoolLIFO(t *testing.T) {
	var p localPool
	a, _ := p.Lease(types.Int)
	b, _ := p.Lease(types.Str)
	if a.Slot != 0 || b.Slot != 1 {
		t.Fatalf("slots = %d, %d", a.Slot, b.Slot)
	}
	if err := p.Release(a); err == nil {
		t.Error("out of order release succeeded")
	}
	if err := p.Release(b); err != nil {
		t.Fatal(err)
	}
	c, _ := p.Lease(types.Bool)
	if c.Slot != 1 {
		t.Errorf("reused slot = %d, want 1", c.Slot)
	}
	p.Release(c)
	p.Release(a)
	if p.Leased() != 0 {
		t.Errorf("Leased = %d, want 0", p.Leased())
	}
	if p.HighWater() != 2 {
		t.Errorf("HighWater = %d, want 2", p.HighWater())
	}
}

func TestLocalPoolLimit(t *testing.T) {
	var p localPool
	for i := 0; i < maxLocals; i++ {
		if _, err := p.Lease(types.Int); err != nil {
			t.Fatalf("lease %d: %v", i, err)
		}
	}
	if _, err := p.Lease(types.Int); err == nil {
		t.Error("lease past the limit succeeded")
	}
}

func TestCompiledLocalsAreReused(t *testing.T) {
	// Two sibling lifted additions run in separate statements and share
	// their two scratch slots
	a := tree.NewVar("a", types.OptionalInt)
	root := tree.Func("pair", []*tree.Var{a}, tree.MakeBlock(nil,
		tree.Add(tree.Ref(a), intConst(1)),
		tree.Add(tree.Ref(a), intConst(3)),
	))
	u := compile(t, root, 0)
	if u.Program.NumLocals != 2 {
		t.Errorf("NumLocals = %d, want 2\n%s", u.Program.NumLocals, u.Disassemble())
	}
	expectValue(t, call(t, u, someInt(1)), someInt(4))
}

// emitUnit builds a unit for root with its parameters bound to argument
// slots, ready for emitting single nodes
func emitUnit(t *testing.T, root *tree.Lambda, opts Options) *unit {
	t.Helper()
	caps, err := analyze(root)
	if err != nil {
		t.Fatal(err)
	}
	host := builtins.NewRegistry()
	s := &session{
		opts:     opts,
		host:     host,
		caps:     caps,
		module:   &vm.Module{Host: host},
		compiled: make(map[*tree.Lambda]int),
		records:  make(map[*tree.Lambda]*types.Type),
	}
	u := newUnit(s, root, &vm.Program{Name: root.Name, Type: root.Typ, Module: s.module})
	for i, p := range root.Params {
		u.vars[p] = binding{kind: bindArg, slot: i}
	}
	return u
}

func TestFailedEmissionReleasesLocals(t *testing.T) {
	node := linkedNode()
	point := types.NewStruct("Point", types.Field{Name: "x", Type: types.Int})
	n := tree.NewVar("n", node)
	root := tree.Func("host", []*tree.Var{n}, intConst(0))
	// An unregistered host method fails only once its call is emitted
	broken := func(t *types.Type) tree.Node { return tree.HostCall("nosuch", t) }

	tests := []struct {
		name string
		node tree.Node
	}{
		{"assign through a nullable path", tree.Set(tree.Field(tree.Ref(n), "x"), broken(types.Int))},
		{"new struct binding", tree.NewOf(point, tree.Bind("x", broken(types.Int)))},
		{"optional and", tree.AndAlso(tree.ConstOf(types.Some(types.True), types.OptionalBool), broken(types.OptionalBool))},
		{"lifted add", tree.Add(tree.ConstOf(types.Some(types.NewInt(1)), types.OptionalInt), broken(types.OptionalInt))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := emitUnit(t, root, CheckNullReferences)
			if _, err := u.emitNode(tt.node, u.newNullLabel(), ShapeValue, false); err == nil {
				t.Fatal("emission succeeded")
			}
			if got := u.locals.Leased(); got != 0 {
				t.Errorf("%d locals still leased after a failed emission", got)
			}
		})
	}
}
