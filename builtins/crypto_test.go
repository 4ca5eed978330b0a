package builtins

import (
	"testing"

	"stackc/types"
)

func TestDigest(t *testing.T) {
	r := NewRegistry()
	id, ok := r.GetID("digest")
	if !ok {
		t.Fatal("digest not registered")
	}

	a := r.CallByID(id, []types.Value{types.NewStr("foobar")})
	b := r.CallByID(id, []types.Value{types.NewStr("foobar")})
	if a.IsError() || b.IsError() {
		t.Fatalf("Unexpected error: %v %v", a.Error, b.Error)
	}
	if !a.Val.Equal(b.Val) {
		t.Errorf("digest not deterministic: %s vs %s", a.Val, b.Val)
	}
	if n := len(a.Val.(types.StrValue).Value()); n != 64 {
		t.Errorf("digest length = %d, expected 64 hex chars", n)
	}

	got := r.CallByID(id, []types.Value{types.Null})
	if got.Error != types.E_NULLREF {
		t.Errorf("digest(null) error = %s, expected E_NULLREF", got.Error)
	}
}
