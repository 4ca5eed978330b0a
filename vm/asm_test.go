package vm

import (
	"testing"

	"stackc/builtins"
	"stackc/types"
)

// asm assembles test programs by hand
type asm struct {
	code   []byte
	labels map[string]int
	fixups map[int]string
}

func newAsm() *asm {
	return &asm{labels: make(map[string]int), fixups: make(map[int]string)}
}

func (a *asm) op(op OpCode) *asm {
	a.code = append(a.code, byte(op))
	return a
}

func (a *asm) b(v int) *asm {
	a.code = append(a.code, byte(v))
	return a
}

func (a *asm) s(v int) *asm {
	a.code = append(a.code, byte(v>>8), byte(v))
	return a
}

func (a *asm) to(label string) *asm {
	a.fixups[len(a.code)] = label
	return a.s(0)
}

func (a *asm) mark(label string) *asm {
	a.labels[label] = len(a.code)
	return a
}

func (a *asm) assemble(t *testing.T) []byte {
	t.Helper()
	for at, label := range a.fixups {
		ip, ok := a.labels[label]
		if !ok {
			t.Fatalf("undefined label %q", label)
		}
		a.code[at] = byte(ip >> 8)
		a.code[at+1] = byte(ip)
	}
	return a.code
}

func program(t *testing.T, a *asm, consts []types.Value, pool []*types.Type, params, locals int) *Program {
	t.Helper()
	p := &Program{
		Name:      "test",
		ID:        NewID(),
		Type:      types.FuncOf(nil, types.Int),
		Code:      a.assemble(t),
		Constants: consts,
		Types:     pool,
		NumParams: params,
		NumLocals: locals,
	}
	p.Module = &Module{Units: []*Program{p}, Host: builtins.NewRegistry()}
	return p
}

func run(t *testing.T, p *Program, args ...types.Value) (types.Value, error) {
	t.Helper()
	vm := NewVM()
	return vm.Run(p, args)
}

func mustRun(t *testing.T, p *Program, args ...types.Value) types.Value {
	t.Helper()
	v, err := run(t, p, args...)
	if err != nil {
		t.Fatalf("Run: %v\n%s", err, Disassemble(p))
	}
	return v
}

func expectFault(t *testing.T, err error, code types.ErrorCode) {
	t.Helper()
	f, ok := err.(Fault)
	if !ok {
		t.Fatalf("expected Fault %s, got %v", code, err)
	}
	if f.Code != code {
		t.Fatalf("expected %s, got %s", code, f)
	}
}

func ints(vals ...int64) []types.Value {
	out := make([]types.Value, len(vals))
	for i, v := range vals {
		out[i] = types.NewInt(v)
	}
	return out
}
