package compiler

import (
	"fmt"

	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

type bindingKind int

const (
	bindArg      bindingKind = iota // Argument slot
	bindLocal                       // Leased local slot
	bindCaptured                    // Field of an environment record
)

// binding says where a variable lives in the unit being emitted
type binding struct {
	kind  bindingKind
	slot  int
	owner *tree.Lambda // bindCaptured
	field int          // bindCaptured
}

// lookup resolves a variable visible at the current emission point.
// Captured variables of enclosing lambdas resolve through the record
// chain.
func (u *unit) lookup(v *tree.Var) (binding, bool) {
	if b, ok := u.vars[v]; ok {
		return b, true
	}
	caps := u.s.caps
	if !caps.captured[v] {
		return binding{}, false
	}
	owner := caps.owner[v]
	for l := caps.parent[u.lambda]; l != nil; l = caps.parent[l] {
		if l == owner {
			return binding{kind: bindCaptured, owner: owner, field: caps.fieldOf(v)}, true
		}
	}
	return binding{}, false
}

// declare binds a variable owned by the current lambda. Captured
// variables live in the environment record; the rest get a local.
// The returned local, if any, must be released by the caller.
func (u *unit) declare(v *tree.Var) *local {
	if u.s.caps.captured[v] {
		u.vars[v] = binding{kind: bindCaptured, owner: u.lambda, field: u.s.caps.fieldOf(v)}
		return nil
	}
	l := u.lease(v.Type)
	u.vars[v] = binding{kind: bindLocal, slot: l.Slot}
	return l
}

func (u *unit) undeclare(v *tree.Var) {
	delete(u.vars, v)
}

// initVar stores the default of the variable's type
func (u *unit) initVar(v *tree.Var) error {
	b := u.vars[v]
	if b.kind == bindCaptured {
		if err := u.pushRecord(b.owner); err != nil {
			return err
		}
		u.emitDefault(v.Type)
		u.emitSlot(vm.OP_STFLD, b.field)
		return nil
	}
	u.emitDefault(v.Type)
	u.emitSlot(vm.OP_STLOC, b.slot)
	return nil
}

// pushRecord pushes the environment record owned by owner, walking
// parent links from the current lambda
func (u *unit) pushRecord(owner *tree.Lambda) error {
	caps := u.s.caps
	var at *tree.Lambda
	switch {
	case u.env != nil:
		u.emitSlot(vm.OP_LDLOC, u.env.Slot)
		at = u.lambda
	case u.prog.HasEnv:
		u.emitSlot(vm.OP_LDARG, 0)
		at = caps.recordAbove(caps.parent[u.lambda])
	}
	for at != owner {
		if at == nil {
			return fmt.Errorf("%s: no environment record for %s", u.prog.Name, lambdaName(owner))
		}
		u.emitSlot(vm.OP_LDFLD, 0)
		at = caps.recordAbove(caps.parent[at])
	}
	return nil
}

// pushCurrentEnv pushes the environment that closures created here bind
func (u *unit) pushCurrentEnv() {
	switch {
	case u.env != nil:
		u.emitSlot(vm.OP_LDLOC, u.env.Slot)
	case u.prog.HasEnv:
		u.emitSlot(vm.OP_LDARG, 0)
	default:
		u.emit(vm.OP_PUSH_NULL)
	}
}

func (u *unit) load(b binding) error {
	switch b.kind {
	case bindArg:
		u.emitSlot(vm.OP_LDARG, b.slot)
	case bindLocal:
		u.emitSlot(vm.OP_LDLOC, b.slot)
	case bindCaptured:
		if err := u.pushRecord(b.owner); err != nil {
			return err
		}
		u.emitSlot(vm.OP_LDFLD, b.field)
	}
	return nil
}

func (u *unit) loadAddress(b binding) error {
	switch b.kind {
	case bindArg:
		u.emitSlot(vm.OP_LDARGA, b.slot)
	case bindLocal:
		u.emitSlot(vm.OP_LDLOCA, b.slot)
	case bindCaptured:
		if err := u.pushRecord(b.owner); err != nil {
			return err
		}
		u.emitSlot(vm.OP_LDFLDA, b.field)
	}
	return nil
}

// storeSite is the instruction completing an assignment once its
// prefix and value are on the stack
type storeSite struct {
	op         vm.OpCode
	operand    int
	hasOperand bool
}

func (s storeSite) emit(u *unit) {
	u.emit(s.op)
	if s.hasOperand {
		u.emitByte(byte(s.operand))
	}
}

// storePrefix emits what precedes the value when storing to b
func (u *unit) storePrefix(b binding) (storeSite, error) {
	switch b.kind {
	case bindArg:
		return storeSite{op: vm.OP_STARG, operand: b.slot, hasOperand: true}, nil
	case bindLocal:
		return storeSite{op: vm.OP_STLOC, operand: b.slot, hasOperand: true}, nil
	}
	if err := u.pushRecord(b.owner); err != nil {
		return storeSite{}, err
	}
	return storeSite{op: vm.OP_STFLD, operand: b.field, hasOperand: true}, nil
}

func emitVariable(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	v := n.(*tree.VariableExpr).Var
	b, ok := u.lookup(v)
	if !ok {
		return false, malformed(n, v.Type, "unbound variable %s", v.Name)
	}
	if shape == ShapeVoid {
		return false, nil
	}
	vivify := extend && shape == ShapeValue && canVivify(v.Type)
	if shape == ShapeAddress || vivify {
		if err := u.loadAddress(b); err != nil {
			return false, err
		}
		if vivify {
			u.vivify(v.Type)
			u.emit(vm.OP_LDIND)
		}
		return false, nil
	}
	return false, u.load(b)
}

// emitLambda emits a closure over the current environment. The nested
// unit is compiled once and referenced by index.
func emitLambda(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	l := n.(*tree.Lambda)
	idx, err := u.s.unitIndex(l)
	if err != nil {
		return false, err
	}
	if shape == ShapeVoid {
		return false, nil
	}
	u.pushCurrentEnv()
	u.emit(vm.OP_MAKE_CLOSURE)
	u.emitShort(idx)
	return false, nil
}

// recordClass synthesizes the environment record type of l. Field 0
// links to the record of the nearest enclosing lambda that has one.
func (s *session) recordClass(l *tree.Lambda) *types.Type {
	if cls, ok := s.records[l]; ok {
		return cls
	}
	parent := types.Void
	if above := s.caps.recordAbove(s.caps.parent[l]); above != nil {
		parent = s.recordClass(above)
	}
	fields := []types.Field{{Name: "$parent", Type: parent}}
	for _, v := range s.caps.record[l] {
		fields = append(fields, types.Field{Name: v.Name, Type: v.Type})
	}
	cls := types.NewClass(lambdaName(l)+"$env", fields...)
	cls.Closure = true
	s.records[l] = cls
	return cls
}

// prologue allocates the environment record of the unit and copies
// captured parameters into it
func (u *unit) prologue(offset int) error {
	caps := u.s.caps
	if !caps.hasRecord(u.lambda) {
		return nil
	}
	if u.s.opts.Has(ForbidClosures) {
		return &ClosureRequiredError{Lambda: u.lambda, Var: caps.record[u.lambda][0]}
	}
	cls := u.s.recordClass(u.lambda)
	u.env = u.lease(cls)
	u.emitTyped(vm.OP_NEWOBJ, cls)
	u.emitSlot(vm.OP_STLOC, u.env.Slot)

	u.emitSlot(vm.OP_LDLOC, u.env.Slot)
	if u.prog.HasEnv {
		u.emitSlot(vm.OP_LDARG, 0)
	} else {
		u.emit(vm.OP_PUSH_NULL)
	}
	u.emitSlot(vm.OP_STFLD, 0)

	for i, p := range u.lambda.Params {
		if !caps.captured[p] {
			continue
		}
		u.emitSlot(vm.OP_LDLOC, u.env.Slot)
		u.emitSlot(vm.OP_LDARG, i+offset)
		u.emitSlot(vm.OP_STFLD, caps.fieldOf(p))
	}
	return nil
}

func lambdaName(l *tree.Lambda) string {
	if l.Name != "" {
		return l.Name
	}
	return "lambda"
}
