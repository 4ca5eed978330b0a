package treefile

import (
	"errors"
	"strings"
	"testing"

	"stackc/compiler"
	"stackc/tree"
	"stackc/types"
)

func mustRead(t *testing.T, src string) *File {
	t.Helper()
	f, err := Read([]byte(src), nil)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return f
}

func run(t *testing.T, l *tree.Lambda, opts compiler.Options, args ...types.Value) types.Value {
	t.Helper()
	u, err := compiler.Compile(l, opts)
	if err != nil {
		t.Fatalf("compile %s: %v", l.Name, err)
	}
	got, err := u.Call(args...)
	if err != nil {
		t.Fatalf("call %s: %v", l.Name, err)
	}
	return got
}

func TestReadLinkedList(t *testing.T) {
	f, err := ReadFile("testdata/sumlist.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}
	node, ok := f.Types.Lookup("Node")
	if !ok {
		t.Fatal("Node not declared")
	}
	if node.Fields[1].Type != node {
		t.Errorf("next has type %s, want the Node class itself", node.Fields[1].Type)
	}

	var list types.Value = types.Null
	for _, x := range []int64{3, 2, 1} {
		o := types.NewObject(node)
		o.SetField(0, types.NewInt(x))
		o.SetField(1, list)
		list = o
	}
	if got := run(t, f.Lambda, 0, list); !got.Equal(types.NewInt(6)) {
		t.Errorf("sumlist = %s, want 6", got)
	}
	if got := run(t, f.Lambda, 0, types.Null); !got.Equal(types.NewInt(0)) {
		t.Errorf("sumlist(null) = %s, want 0", got)
	}
}

func TestReadClosure(t *testing.T) {
	f, err := ReadFile("testdata/counter.yaml", nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := run(t, f.Lambda, 0, types.NewInt(4)); !got.Equal(types.NewInt(4)) {
		t.Errorf("counter(4) = %s, want 4", got)
	}
}

func TestReadConstants(t *testing.T) {
	tests := []struct {
		src  string
		want types.Value
	}{
		{"{const: 7}", types.NewInt(7)},
		{"{const: 2.5}", types.NewFloat(2.5)},
		{"{const: true}", types.True},
		{"{const: hello}", types.NewStr("hello")},
		{"{const: E_RANGE}", types.NewErr(types.E_RANGE)},
		{"{const: 7, type: uint}", types.NewUInt(7)},
		{"{const: 7, type: \"int?\"}", types.Some(types.NewInt(7))},
		{"{const: null, type: \"int?\"}", types.Absent()},
		{"{const: null, type: str}", types.Null},
		{"{const: '12', type: str}", types.NewStr("12")},
		{"{default: float}", types.NewFloat(0)},
		{"{call: iabs, args: [{const: -3}]}", types.NewInt(3)},
		{"{coalesce: [{const: null, type: str}, {const: x}]}", types.NewStr("x")},
		{"{convert: {const: 3}, to: float}", types.NewFloat(3)},
		{"{index: [{newarray: int, items: [{const: 4}, {const: 5}]}, {const: 1}]}", types.NewInt(5)},
		{"{member: {newarray: int, length: {const: 3}}, name: Length}", types.NewInt(3)},
		{"{if: [{lt: [{const: 1}, {const: 2}]}, {const: yes}, {const: no}]}", types.NewStr("yes")},
	}
	for _, tt := range tests {
		t.Run(tt.src, func(t *testing.T) {
			f := mustRead(t, "lambda: {name: c, body: "+tt.src+"}")
			if got := run(t, f.Lambda, 0); !got.Equal(tt.want) {
				t.Errorf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReadSwitchAndTry(t *testing.T) {
	src := `
lambda:
  name: classify
  params: [{name: s, type: str}]
  body:
    try:
      switch: {var: s}
      cases:
        - {values: [a, b], body: {const: 1}}
        - {values: [null], body: {const: 2}}
        - values: [boom]
          body: {throw: {const: E_INVARG}, type: int}
      default: {const: 0}
    catch:
      - codes: [E_INVARG]
        var: e
        body: {call: errcode, args: [{var: e}]}
`
	f := mustRead(t, src)
	tests := []struct {
		in   types.Value
		want int64
	}{
		{types.NewStr("a"), 1},
		{types.NewStr("b"), 1},
		{types.Null, 2},
		{types.NewStr("zzz"), 0},
		{types.NewStr("boom"), int64(types.E_INVARG)},
	}
	for _, tt := range tests {
		if got := run(t, f.Lambda, 0, tt.in); !got.Equal(types.NewInt(tt.want)) {
			t.Errorf("classify(%s) = %s, want %d", tt.in, got, tt.want)
		}
	}
}

func TestReadStructConstruction(t *testing.T) {
	src := `
types:
  - struct: Point
    fields:
      - {name: x, type: int}
      - {name: y, type: int}
      - {name: tag, type: str, readonly: true}
lambda:
  name: norm
  body:
    block:
      - assign: [{var: p}, {new: Point, set: {x: {const: 3}, y: {const: 4}}}]
      - add: [{mul: [{member: {var: p}, name: x}, {member: {var: p}, name: x}]}, {mul: [{member: {var: p}, name: y}, {member: {var: p}, name: y}]}]
    vars: [{name: p, type: Point}]
`
	f := mustRead(t, src)
	pt, _ := f.Types.Lookup("Point")
	if !pt.Fields[2].ReadOnly {
		t.Error("tag lost its readonly flag")
	}
	if got := run(t, f.Lambda, 0); !got.Equal(types.NewInt(25)) {
		t.Errorf("norm = %s, want 25", got)
	}
}

func TestReadPositions(t *testing.T) {
	src := "lambda:\n  name: p\n  body:\n    add:\n      - {const: 1}\n      - {const: 2}\n"
	f := mustRead(t, src)
	add := f.Lambda.Body.(*tree.Binary)
	if got := add.Position(); got != (tree.Position{Line: 4, Column: 5}) {
		t.Errorf("add at %s, want 4:5", got)
	}
	if got := add.Right.Position(); got != (tree.Position{Line: 6, Column: 9}) {
		t.Errorf("right operand at %s, want 6:9", got)
	}
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want string
		line int
	}{
		{"no lambda", "types: []", "no lambda", 1},
		{"unknown kind", "lambda:\n  body: {frob: 1}", "unknown node kind frob", 2},
		{"unknown key", "lambda:\n  body: {const: 1, colour: red}", "unexpected key colour", 2},
		{"undeclared var", "lambda:\n  body:\n    var: x", "undeclared variable x", 3},
		{"undeclared label", "lambda:\n  body: {goto: out}", "undeclared label out", 2},
		{"bad type", "lambda:\n  params: [{name: a, type: 'int!'}]\n  body: {var: a}", "illegal", 2},
		{"untyped null", "lambda:\n  body: {const: null}", "needs a type", 2},
		{"null int", "lambda:\n  body: {const: null, type: int}", "null is not a int", 2},
		{"operand count", "lambda:\n  body: {add: [{const: 1}]}", "two operands", 2},
		{"unknown host", "lambda:\n  body: {call: frobnicate}", "unknown host method", 2},
		{"unknown code", "lambda:\n  body: {const: E_NOPE, type: err}", "unknown error code", 2},
		{"self struct", "types:\n  - struct: S\n    fields: [{name: s, type: S}]\nlambda: {body: {const: 1}}", "contains itself", 0},
		{"both kinds", "types:\n  - {struct: S, class: C}\nlambda: {body: {const: 1}}", "exactly one", 2},
		{"duplicate var", "lambda:\n  params: [{name: a, type: int}, {name: a, type: int}]\n  body: {var: a}", "declared twice", 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read([]byte(tt.src), nil)
			if err == nil {
				t.Fatal("Read succeeded")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q, want it to mention %q", err, tt.want)
			}
			if tt.line == 0 {
				return
			}
			var fe *Error
			if !errors.As(err, &fe) {
				t.Fatalf("error %v carries no position", err)
			}
			if fe.Line != tt.line {
				t.Errorf("error on line %d, want %d", fe.Line, tt.line)
			}
		})
	}
}

func TestBlockScopesShadow(t *testing.T) {
	src := `
lambda:
  name: shadow
  body:
    block:
      - assign: [{var: x}, {const: 1}]
      - block:
          - assign: [{var: x}, {const: 10}]
        vars: [{name: x, type: int}]
      - var: x
    vars: [{name: x, type: int}]
`
	f := mustRead(t, src)
	if got := run(t, f.Lambda, 0); !got.Equal(types.NewInt(1)) {
		t.Errorf("outer x = %s, want 1", got)
	}
}
