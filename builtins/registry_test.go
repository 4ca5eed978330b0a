package builtins

import (
	"testing"

	"stackc/types"
)

func call(t *testing.T, r *Registry, name string, args ...types.Value) types.Result {
	t.Helper()
	id, ok := r.GetID(name)
	if !ok {
		t.Fatalf("%s not registered", name)
	}
	return r.CallByID(id, args)
}

func TestHostMethods(t *testing.T) {
	r := NewRegistry()
	tests := []struct {
		name   string
		method string
		args   []types.Value
		want   types.Value
		err    types.ErrorCode
	}{
		{"abs", "abs", []types.Value{types.NewFloat(-2.5)}, types.NewFloat(2.5), types.E_NONE},
		{"iabs", "iabs", []types.Value{types.NewInt(-7)}, types.NewInt(7), types.E_NONE},
		{"sqrt negative", "sqrt", []types.Value{types.NewFloat(-1)}, nil, types.E_INVARG},
		{"min", "min", []types.Value{types.NewInt(3), types.NewInt(-1)}, types.NewInt(-1), types.E_NONE},
		{"upcase", "upcase", []types.Value{types.NewStr("abc")}, types.NewStr("ABC"), types.E_NONE},
		{"upcase null", "upcase", []types.Value{types.Null}, nil, types.E_NULLREF},
		{"index", "index", []types.Value{types.NewStr("hello"), types.NewStr("ll")}, types.NewInt(2), types.E_NONE},
		{"strsub", "strsub", []types.Value{types.NewStr("a-b-c"), types.NewStr("-"), types.NewStr("+")}, types.NewStr("a+b+c"), types.E_NONE},
		{"atoi", "atoi", []types.Value{types.NewStr(" 42 ")}, types.Some(types.NewInt(42)), types.E_NONE},
		{"atoi invalid", "atoi", []types.Value{types.NewStr("x")}, types.Absent(), types.E_NONE},
		{"wrong type", "iabs", []types.Value{types.NewFloat(1)}, nil, types.E_TYPE},
		{"wrong arity", "iabs", nil, nil, types.E_ARGS},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := call(t, r, tt.method, tt.args...)
			if got.Error != tt.err {
				t.Fatalf("%s error = %s, expected %s", tt.method, got.Error, tt.err)
			}
			if tt.err == types.E_NONE && !got.Val.Equal(tt.want) {
				t.Errorf("%s = %s, expected %s", tt.method, got.Val, tt.want)
			}
		})
	}
}

func TestExplodeImplode(t *testing.T) {
	r := NewRegistry()
	parts := call(t, r, "explode", types.NewStr("a,b,c"), types.NewStr(","))
	if parts.IsError() {
		t.Fatalf("explode failed: %s", parts.Error)
	}
	arr := parts.Val.(*types.ArrayValue)
	if arr.Len() != 3 {
		t.Fatalf("explode len = %d, expected 3", arr.Len())
	}
	joined := call(t, r, "implode", arr, types.NewStr("|"))
	if !joined.Val.Equal(types.NewStr("a|b|c")) {
		t.Errorf("implode = %s", joined.Val)
	}
}

func TestRegisterKeepsID(t *testing.T) {
	r := NewRegistry()
	id, _ := r.GetID("upcase")
	r.Register("upcase", sig(types.Str, types.Str), func(args []types.Value) types.Result {
		return types.Ok(types.NewStr("replaced"))
	})
	again, _ := r.GetID("upcase")
	if id != again {
		t.Errorf("re-register changed ID %d -> %d", id, again)
	}
	if got := call(t, r, "upcase", types.NewStr("x")); !got.Val.Equal(types.NewStr("replaced")) {
		t.Errorf("replacement not used: %s", got.Val)
	}
	if rt, ok := r.MethodType("explode"); !ok || rt.String() != "[]str" {
		t.Errorf("MethodType(explode) = %v, %v", rt, ok)
	}
	m, _ := r.Lookup("concat")
	if got := m.Describe(); got != "concat(str, str) str" {
		t.Errorf("Describe = %q", got)
	}
}
