package compiler

import (
	"fmt"

	"github.com/oklog/ulid/v2"

	"stackc/builtins"
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// DebugSink is notified of every sequence point as code is emitted.
// Sinks observe only; the emitted code is the same with or without one.
type DebugSink interface {
	SequencePoint(unit string, id ulid.ULID, line, column, ip int)
}

// unitObserver is implemented by sinks that also want finished units
type unitObserver interface {
	UnitCompiled(unit string, id ulid.ULID, codeLen int, fingerprint string)
}

// Compiler lowers lambda trees into callable units
type Compiler struct {
	Options Options
	Host    *builtins.Registry // Resolves Call nodes; nil means the default registry
	Sink    DebugSink          // Optional
}

// New creates a compiler with the default host registry
func New(opts Options) *Compiler {
	return &Compiler{Options: opts, Host: builtins.NewRegistry()}
}

// Compile lowers root with the default host registry
func Compile(root *tree.Lambda, opts Options) (*Unit, error) {
	return New(opts).Compile(root)
}

// Unit is the result of one top-level compile: the root program and
// every nested unit reachable from it
type Unit struct {
	Program *vm.Program
	Module  *vm.Module
	Options Options
}

// Func returns a ready-to-call handle for the root program
func (u *Unit) Func() (*vm.Func, error) {
	return vm.NewFunc(u.Program, nil)
}

// Call invokes the root program
func (u *Unit) Call(args ...types.Value) (types.Value, error) {
	f, err := u.Func()
	if err != nil {
		return nil, err
	}
	return f.Call(args...)
}

// Fingerprint digests the code of every unit
func (u *Unit) Fingerprint() string {
	return u.Program.Fingerprint()
}

// Disassemble renders every unit
func (u *Unit) Disassemble() string {
	return vm.Disassemble(u.Program)
}

// session is the state shared by all units of one top-level compile
type session struct {
	opts     Options
	host     *builtins.Registry
	sink     DebugSink
	caps     *captures
	module   *vm.Module
	compiled map[*tree.Lambda]int
	records  map[*tree.Lambda]*types.Type
}

// Compile lowers root and every lambda nested in it. Either the whole
// tree compiles or an error is returned; no partial unit escapes.
func (c *Compiler) Compile(root *tree.Lambda) (unit *Unit, err error) {
	if root == nil {
		return nil, fmt.Errorf("compile: nil root")
	}
	defer func() {
		if r := recover(); r != nil {
			unit, err = nil, fmt.Errorf("compile %s: internal error: %v", lambdaName(root), r)
		}
	}()

	caps, err := analyze(root)
	if err != nil {
		return nil, err
	}
	host := c.Host
	if host == nil {
		host = builtins.NewRegistry()
	}
	s := &session{
		opts:     c.Options,
		host:     host,
		sink:     c.Sink,
		caps:     caps,
		module:   &vm.Module{Host: host},
		compiled: make(map[*tree.Lambda]int),
		records:  make(map[*tree.Lambda]*types.Type),
	}
	s.module.Units = append(s.module.Units, nil)
	s.compiled[root] = 0
	prog, err := s.compileUnit(root, false)
	if err != nil {
		return nil, err
	}
	s.module.Units[0] = prog

	if obs, ok := c.Sink.(unitObserver); ok {
		for _, p := range s.module.Units {
			obs.UnitCompiled(p.Name, p.ID, len(p.Code), p.Fingerprint())
		}
	}
	return &Unit{Program: prog, Module: s.module, Options: c.Options}, nil
}

// unitIndex returns the module index of a nested lambda, compiling it
// the first time it is seen
func (s *session) unitIndex(l *tree.Lambda) (int, error) {
	if idx, ok := s.compiled[l]; ok {
		if s.module.Units[idx] == nil {
			return 0, malformed(l, l.Typ, "lambda %s refers to itself", lambdaName(l))
		}
		return idx, nil
	}
	idx := len(s.module.Units)
	if idx > 0xFFFF {
		return 0, malformed(l, l.Typ, "too many nested lambdas")
	}
	s.module.Units = append(s.module.Units, nil)
	s.compiled[l] = idx
	prog, err := s.compileUnit(l, true)
	if err != nil {
		return 0, err
	}
	s.module.Units[idx] = prog
	return idx, nil
}

// compileUnit emits one lambda as an independent program. Nested units
// take their environment as argument 0.
func (s *session) compileUnit(l *tree.Lambda, nested bool) (*vm.Program, error) {
	ft := l.Typ
	if ft == nil || ft.Kind != types.KindFunc {
		return nil, malformed(l, ft, "lambda must have a function type")
	}
	if len(ft.Params) != len(l.Params) {
		return nil, malformed(l, ft, "lambda declares %d parameters, type has %d", len(l.Params), len(ft.Params))
	}
	offset := 0
	if nested {
		offset = 1
	}
	if len(l.Params)+offset > maxLocals {
		return nil, malformed(l, ft, "too many parameters")
	}

	name := lambdaName(l)
	if nested {
		name = fmt.Sprintf("%s#%d", name, s.compiled[l])
	}
	prog := &vm.Program{
		Name:      name,
		ID:        vm.NewID(),
		Type:      ft,
		NumParams: len(l.Params) + offset,
		HasEnv:    nested,
		Module:    s.module,
	}
	u := newUnit(s, l, prog)

	for i, p := range l.Params {
		if !types.Identical(p.Type, ft.Params[i]) {
			return nil, malformed(l, p.Type, "parameter %s does not match the lambda type", p.Name)
		}
		if s.caps.captured[p] {
			u.vars[p] = binding{kind: bindCaptured, owner: l, field: s.caps.fieldOf(p)}
		} else {
			u.vars[p] = binding{kind: bindArg, slot: i + offset}
		}
	}
	if err := u.prologue(offset); err != nil {
		return nil, err
	}

	result := ft.Result
	if result == nil {
		result = types.Void
	}
	if err := u.body(l.Body, result); err != nil {
		return nil, err
	}
	if u.env != nil {
		u.release(u.env)
	}

	if err := u.checkTargets(); err != nil {
		return nil, err
	}
	if n := u.locals.Leased(); n != 0 && u.err == nil {
		u.fail(fmt.Errorf("%s: %d locals still leased", name, n))
	}
	if u.err != nil {
		return nil, &MalformedTreeError{Node: l, Msg: u.err.Error()}
	}
	prog.NumLocals = u.locals.HighWater()
	prog.MaxStack = u.maxDepth
	return prog, nil
}

// body emits the lambda body and the return
func (u *unit) body(b tree.Node, result *types.Type) error {
	if b == nil {
		return malformed(u.lambda, u.lambda.Typ, "lambda has no body")
	}
	if result.Kind == types.KindVoid {
		if _, err := u.guarded(b, ShapeVoid); err != nil {
			return err
		}
		u.emit(vm.OP_PUSH_NULL)
	} else {
		if err := u.expect(b, result); err != nil {
			return err
		}
		if _, err := u.guarded(b, ShapeValue); err != nil {
			return err
		}
	}
	u.emit(vm.OP_RETURN)
	return nil
}
