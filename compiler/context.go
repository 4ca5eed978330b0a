package compiler

import (
	"fmt"
	"math"

	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// Shape declares what the caller needs an emitter to leave on the stack
type Shape int

const (
	ShapeValue   Shape = iota // The value itself
	ShapeAddress              // The address of the storage holding the value
	ShapeVoid                 // Nothing; the value is evaluated and dropped
)

func (s Shape) String() string {
	switch s {
	case ShapeValue:
		return "value"
	case ShapeAddress:
		return "address"
	case ShapeVoid:
		return "void"
	}
	return "shape?"
}

// label is a jump target inside one unit. Its depth is the operand
// stack height every incoming edge must agree on.
type label struct {
	ip      int
	placed  bool
	depth   int
	known   bool
	patches []int
}

// nullLabel is the shared bail-out destination of one guarded
// expression. Branches realign the stack to depth before jumping.
type nullLabel struct {
	target *label
	depth  int
	used   bool
}

// unit is the emitting context of one callable unit
type unit struct {
	s      *session
	lambda *tree.Lambda
	prog   *vm.Program

	consts  map[string]int
	typeIdx map[*types.Type]int
	locals  localPool

	depth     int
	maxDepth  int
	reachable bool

	vars    map[*tree.Var]binding
	targets map[*tree.LabelTarget]*jumpTarget
	regions []*region
	env     *local // Environment record owned by this unit, if any

	filters int
	lastPos tree.Position
	err     error
}

func newUnit(s *session, l *tree.Lambda, prog *vm.Program) *unit {
	return &unit{
		s:         s,
		lambda:    l,
		prog:      prog,
		consts:    make(map[string]int),
		typeIdx:   make(map[*types.Type]int),
		reachable: true,
		vars:      make(map[*tree.Var]binding),
		targets:   make(map[*tree.LabelTarget]*jumpTarget),
	}
}

// fail records the first internal error of the unit
func (u *unit) fail(err error) {
	if u.err == nil {
		u.err = err
	}
}

// adjust applies a stack effect to the tracked depth
func (u *unit) adjust(d int) {
	u.depth += d
	if u.depth < 0 {
		u.fail(fmt.Errorf("%s: operand stack underflow at ip %d", u.prog.Name, len(u.prog.Code)))
		u.depth = 0
	}
	if u.depth > u.maxDepth {
		u.maxDepth = u.depth
	}
}

// emit adds an opcode and applies its fixed stack effect
func (u *unit) emit(op vm.OpCode) {
	u.prog.Code = append(u.prog.Code, byte(op))
	if d, ok := vm.StackEffect(op); ok {
		u.adjust(d)
	}
	switch op {
	case vm.OP_RETURN, vm.OP_THROW:
		u.adjust(-1)
		u.reachable = false
	case vm.OP_JUMP, vm.OP_SWITCH_TABLE, vm.OP_LEAVE, vm.OP_END_FINALLY, vm.OP_END_FILTER:
		u.reachable = false
	}
}

// emitByte adds a byte operand
func (u *unit) emitByte(b byte) {
	u.prog.Code = append(u.prog.Code, b)
}

// emitShort adds a 2-byte big-endian operand
func (u *unit) emitShort(s int) {
	if s < 0 || s > math.MaxUint16 {
		u.fail(fmt.Errorf("%s: operand %d does not fit in 16 bits", u.prog.Name, s))
	}
	u.prog.Code = append(u.prog.Code, byte(s>>8), byte(s))
}

func (u *unit) offset() int {
	return len(u.prog.Code)
}

// emitSlot emits a slot instruction with its one-byte index
func (u *unit) emitSlot(op vm.OpCode, slot int) {
	u.emit(op)
	u.emitByte(byte(slot))
}

// emitConstant pushes a constant from the pool
func (u *unit) emitConstant(v types.Value) {
	if _, ok := v.(types.NullValue); ok {
		u.emit(vm.OP_PUSH_NULL)
		return
	}
	u.emit(vm.OP_PUSH)
	u.emitShort(u.addConstant(v))
}

// addConstant adds a value to the constant pool (with deduplication)
func (u *unit) addConstant(v types.Value) int {
	key := fmt.Sprintf("%d:%s", v.Type(), v)
	if f, ok := v.(types.FloatValue); ok {
		key = fmt.Sprintf("%d:%x", v.Type(), math.Float64bits(f.Val))
	}
	if idx, ok := u.consts[key]; ok {
		return idx
	}
	idx := len(u.prog.Constants)
	u.prog.Constants = append(u.prog.Constants, v)
	u.consts[key] = idx
	return idx
}

// addType adds a type to the type pool
func (u *unit) addType(t *types.Type) int {
	if idx, ok := u.typeIdx[t]; ok {
		return idx
	}
	idx := len(u.prog.Types)
	u.prog.Types = append(u.prog.Types, t)
	u.typeIdx[t] = idx
	return idx
}

// emitTyped emits an instruction with a type-pool operand
func (u *unit) emitTyped(op vm.OpCode, t *types.Type) {
	u.emit(op)
	u.emitShort(u.addType(t))
}

// emitDefault pushes the static default of t
func (u *unit) emitDefault(t *types.Type) {
	u.emitTyped(vm.OP_PUSH_DEFAULT, t)
}

func (u *unit) emitPops(n int) {
	for ; n > 0; n-- {
		u.emit(vm.OP_POP)
	}
}

func (u *unit) newLabel() *label {
	return &label{}
}

// reach records an incoming edge at depth
func (u *unit) reach(l *label, depth int) {
	if !l.known {
		l.depth = depth
		l.known = true
		return
	}
	if l.depth != depth {
		u.fail(fmt.Errorf("%s: stack depth %d does not match label depth %d", u.prog.Name, depth, l.depth))
	}
}

// target emits a 2-byte code address, patched when l is placed
func (u *unit) target(l *label) {
	if l.placed {
		u.emitShort(l.ip)
		return
	}
	l.patches = append(l.patches, u.offset())
	u.emitShort(vm.NoTarget)
}

// jump emits a branch to l
func (u *unit) jump(op vm.OpCode, l *label) {
	u.emit(op)
	u.reach(l, u.depth)
	u.target(l)
}

// leave emits LEAVE, popping count handlers on the way to l
func (u *unit) leave(count int, l *label) {
	u.emit(vm.OP_LEAVE)
	u.emitByte(byte(count))
	u.reach(l, u.depth)
	u.target(l)
}

// place binds l to the current offset
func (u *unit) place(l *label) {
	if l.placed {
		u.fail(fmt.Errorf("%s: label placed twice", u.prog.Name))
		return
	}
	switch {
	case u.reachable:
		u.reach(l, u.depth)
	case l.known:
		u.depth = l.depth
	default:
		l.depth, l.known = u.depth, true
	}
	l.ip = u.offset()
	l.placed = true
	if l.ip > math.MaxUint16 {
		u.fail(fmt.Errorf("%s: code exceeds %d bytes", u.prog.Name, math.MaxUint16))
	}
	for _, at := range l.patches {
		u.prog.Code[at] = byte(l.ip >> 8)
		u.prog.Code[at+1] = byte(l.ip)
	}
	l.patches = nil
	u.reachable = true
}

// placeAt places a label only reached through handler tables
func (u *unit) placeAt(l *label, depth int) {
	u.reach(l, depth)
	u.place(l)
}

// lease acquires a scratch local; release must follow in LIFO order
func (u *unit) lease(t *types.Type) *local {
	l, err := u.locals.Lease(t)
	if err != nil {
		u.fail(fmt.Errorf("%s: %w", u.prog.Name, err))
		return &local{Slot: maxLocals - 1, Type: t}
	}
	return l
}

func (u *unit) release(l *local) {
	if err := u.locals.Release(l); err != nil {
		u.fail(fmt.Errorf("%s: %w", u.prog.Name, err))
	}
}

func (u *unit) newNullLabel() *nullLabel {
	return &nullLabel{target: u.newLabel(), depth: u.depth}
}

// bail realigns the stack to the null label's depth and jumps to it
func (u *unit) bail(null *nullLabel) {
	u.emitPops(u.depth - null.depth)
	u.jump(vm.OP_JUMP, null.target)
	null.used = true
}

// checkNull bails when the value on top of the stack is null or
// absent. The value stays on the stack on the fall-through path.
func (u *unit) checkNull(null *nullLabel) {
	ok := u.newLabel()
	u.emit(vm.OP_DUP)
	u.emit(vm.OP_IS_NULL)
	u.jump(vm.OP_JUMP_IF_FALSE, ok)
	u.bail(null)
	u.place(ok)
}

// sequencePoint records the position of n in the line table and tells
// the debug sink. It never changes the emitted code.
func (u *unit) sequencePoint(n tree.Node) {
	pos := n.Position()
	if !pos.IsValid() || pos == u.lastPos {
		return
	}
	u.lastPos = pos
	ip := u.offset()
	u.prog.LineInfo = append(u.prog.LineInfo, vm.LineEntry{StartIP: ip, Line: pos.Line, Column: pos.Column})
	if u.s.sink != nil {
		u.s.sink.SequencePoint(u.prog.Name, u.prog.ID, pos.Line, pos.Column, ip)
	}
}
