package tree

import (
	"testing"

	"stackc/types"
)

func TestFormat(t *testing.T) {
	x := NewVar("x", types.Int)
	done := NewLabelTarget("done", nil)
	point := types.NewClass("Point", types.Field{Name: "X", Type: types.Int})

	tests := []struct {
		name string
		node Node
		want string
	}{
		{"const", Const(types.NewInt(3)), "(const 3 int)"},
		{"string const", Const(types.NewStr("a")), `(const "a" str)`},
		{"binary", Add(Ref(x), Const(types.NewInt(1))), "(add x (const 1 int))"},
		{"member", Field(Default(point), "X"), "(. (default Point) X)"},
		{"lambda", Func("", []*Var{x}, Ref(x)), "(lambda [x int] x)"},
		{"goto", Jump(done, nil), "(goto done)"},
		{"void if", If(Const(types.True), Jump(done, nil), nil), "(if (const true bool) (goto done))"},
		{"switch", MakeSwitch(Ref(x), Const(types.NewInt(0)), Case(Const(types.NewInt(9)), types.NewInt(1))),
			"(switch x (case 1 (const 9 int)) (default (const 0 int)))"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Format(tt.node); got != tt.want {
				t.Errorf("Format = %q, want %q", got, tt.want)
			}
		})
	}
}
