package vm

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"stackc/trace"
	"stackc/types"
)

// Fault is a runtime error raised by compiled code
type Fault struct {
	Code types.ErrorCode
	Msg  string
}

func (e Fault) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Code.Message())
}

func faultf(code types.ErrorCode, format string, args ...any) Fault {
	return Fault{Code: code, Msg: fmt.Sprintf(format, args...)}
}

// errorCode extracts the error code carried by err
func errorCode(err error) (types.ErrorCode, string) {
	var f Fault
	if errors.As(err, &f) {
		return f.Code, f.Msg
	}
	return types.E_INVARG, err.Error()
}

// errFilterDone signals END_FILTER to the nested filter loop
var errFilterDone = errors.New("filter done")

// MaxDepth bounds closure call nesting
const MaxDepth = 256

// VM represents the bytecode virtual machine
type VM struct {
	Stack     []types.Value // Operand stack
	SP        int           // Stack pointer
	Frames    []*StackFrame // Call stack
	TickLimit int64         // Maximum ticks before E_MAXREC; 0 disables
	Ticks     int64         // Current tick count
	floor     int           // Frame depth the innermost run loop returns at
}

// StackFrame represents a call frame
type StackFrame struct {
	Program     *Program      // Bytecode program
	IP          int           // Instruction pointer
	BasePointer int           // Stack base for this frame
	Args        []types.Value // Argument slots
	Locals      []types.Value // Local slots
	Handlers    []Handler     // Protected-region handlers, innermost last
	Pending     []completion  // Completions suspended while finally blocks run
}

type completionKind int

const (
	completeLeave completionKind = iota
	completeError
)

// completion is what END_FINALLY resumes: either the rest of a LEAVE or
// the propagation of an error
type completion struct {
	kind      completionKind
	err       error
	remaining int // Handlers still to pop (leave)
	target    int // Destination IP (leave)
	level     int // Handler stack height when suspended
}

// NewVM creates a new virtual machine
func NewVM() *VM {
	return &VM{
		Stack:     make([]types.Value, 0, 64),
		Frames:    make([]*StackFrame, 0, 8),
		TickLimit: TickLimitFromEnv(),
	}
}

// Run executes a program with the given arguments and returns its result
func (vm *VM) Run(prog *Program, args []types.Value) (types.Value, error) {
	if len(args) != prog.NumParams {
		return nil, faultf(types.E_ARGS, "%s expects %d arguments, got %d", prog.Name, prog.NumParams, len(args))
	}
	floor := len(vm.Frames)
	if err := vm.pushFrame(prog, args); err != nil {
		return nil, err
	}
	return vm.run(floor)
}

func (vm *VM) run(floor int) (types.Value, error) {
	saved := vm.floor
	vm.floor = floor
	defer func() { vm.floor = saved }()

	for len(vm.Frames) > floor {
		if err := vm.Step(); err != nil {
			if !vm.HandleError(err) {
				return nil, err
			}
		}

		if vm.TickLimit > 0 && vm.Ticks >= vm.TickLimit {
			vm.Frames = vm.Frames[:floor]
			return nil, faultf(types.E_MAXREC, "tick limit %d exceeded", vm.TickLimit)
		}
	}
	return vm.Pop(), nil
}

func (vm *VM) pushFrame(prog *Program, args []types.Value) error {
	if len(vm.Frames) >= MaxDepth {
		return faultf(types.E_MAXREC, "call depth %d exceeded", MaxDepth)
	}
	frame := &StackFrame{
		Program:     prog,
		BasePointer: vm.SP,
		Args:        args,
		Locals:      make([]types.Value, prog.NumLocals),
	}
	for i := range frame.Locals {
		frame.Locals[i] = types.Null
	}
	vm.Frames = append(vm.Frames, frame)
	trace.Call(prog.Name, args)
	return nil
}

// Step executes a single instruction
func (vm *VM) Step() error {
	frame := vm.CurrentFrame()
	if frame == nil {
		return fmt.Errorf("no active frame")
	}

	if frame.IP >= len(frame.Program.Code) {
		return faultf(types.E_INVARG, "%s: fell off the end of the code", frame.Program.Name)
	}

	op := OpCode(frame.Program.Code[frame.IP])
	frame.IP++

	if CountsTick(op) {
		vm.Ticks++
	}

	return vm.Execute(op)
}

// CountsTick reports whether an opcode consumes a tick. Every loop and
// call passes through one of these.
func CountsTick(op OpCode) bool {
	switch op {
	case OP_JUMP, OP_JUMP_IF_FALSE, OP_JUMP_IF_TRUE, OP_SWITCH_TABLE,
		OP_CALL_HOST, OP_CALL_CLOSURE, OP_LEAVE:
		return true
	}
	return false
}

// Execute dispatches an opcode
func (vm *VM) Execute(op OpCode) error {
	frame := vm.CurrentFrame()
	prog := frame.Program

	switch op {
	// Stack operations
	case OP_PUSH:
		vm.Push(prog.Constants[vm.ReadShort()])
	case OP_POP:
		vm.Pop()
	case OP_DUP:
		vm.Push(types.CopyValue(vm.Peek(0)))
	case OP_SWAP:
		vm.Stack[vm.SP-1], vm.Stack[vm.SP-2] = vm.Stack[vm.SP-2], vm.Stack[vm.SP-1]
	case OP_PUSH_NULL:
		vm.Push(types.Null)
	case OP_PUSH_DEFAULT:
		vm.Push(types.Default(prog.Types[vm.ReadShort()]))

	// Slot operations
	case OP_LDARG:
		vm.Push(types.CopyValue(frame.Args[vm.ReadByte()]))
	case OP_STARG:
		frame.Args[vm.ReadByte()] = vm.Pop()
	case OP_LDARGA:
		vm.Push(types.SlotAddress(frame.Args, int(vm.ReadByte())))
	case OP_LDLOC:
		vm.Push(types.CopyValue(frame.Locals[vm.ReadByte()]))
	case OP_STLOC:
		frame.Locals[vm.ReadByte()] = vm.Pop()
	case OP_LDLOCA:
		vm.Push(types.SlotAddress(frame.Locals, int(vm.ReadByte())))

	// Members
	case OP_LDFLD:
		return vm.executeLoadField(int(vm.ReadByte()))
	case OP_LDFLDA:
		return vm.executeFieldAddress(int(vm.ReadByte()))
	case OP_STFLD:
		return vm.executeStoreField(int(vm.ReadByte()))
	case OP_LDIND:
		addr, ok := vm.Pop().(types.Address)
		if !ok {
			return faultf(types.E_TYPE, "LDIND of a non-address")
		}
		vm.Push(types.CopyValue(addr.Load()))
	case OP_STIND:
		val := vm.Pop()
		addr, ok := vm.Pop().(types.Address)
		if !ok {
			return faultf(types.E_TYPE, "STIND to a non-address")
		}
		addr.Store(val)
	case OP_NEWOBJ:
		v, err := types.New(prog.Types[vm.ReadShort()])
		if err != nil {
			return Fault{Code: types.E_TYPE, Msg: err.Error()}
		}
		vm.Push(v)

	// Arrays
	case OP_NEWARR:
		return vm.executeNewArray(prog.Types[vm.ReadShort()])
	case OP_MAKE_ARRAY:
		t := prog.Types[vm.ReadShort()]
		items := vm.PopN(int(vm.ReadShort()))
		vm.Push(types.NewArrayOf(t.Elem, items))
	case OP_LDLEN:
		return vm.executeLength()
	case OP_LDELEM, OP_LDELEMA, OP_STELEM:
		return vm.executeElement(op)
	case OP_IN_RANGE:
		idx, ok := indexValue(vm.Pop())
		arr, isArr := vm.Pop().(*types.ArrayValue)
		if !ok || !isArr {
			return faultf(types.E_TYPE, "IN_RANGE operands")
		}
		vm.Push(types.NewBool(arr.InRange(idx)))
	case OP_ARRAY_RESIZE:
		return vm.executeResize(prog.Types[vm.ReadShort()])

	// Optionals
	case OP_OPT_HAS:
		o, ok := vm.Pop().(types.OptionalValue)
		if !ok {
			return faultf(types.E_TYPE, "OPT_HAS of a non-optional")
		}
		vm.Push(types.NewBool(o.HasValue()))
	case OP_OPT_VAL:
		o, ok := vm.Pop().(types.OptionalValue)
		if !ok {
			return faultf(types.E_TYPE, "OPT_VAL of a non-optional")
		}
		if !o.HasValue() {
			return Fault{Code: types.E_ABSENT}
		}
		vm.Push(o.Value())
	case OP_OPT_WRAP:
		vm.Push(types.Some(vm.Pop()))

	// Arithmetic
	case OP_ADD, OP_SUB, OP_MUL, OP_DIV, OP_MOD:
		kind := types.Kind(vm.ReadByte())
		right := vm.Pop()
		left := vm.Pop()
		return vm.pushResult(arith(op, kind, left, right))
	case OP_NEG:
		return vm.pushResult(negate(types.Kind(vm.ReadByte()), vm.Pop()))
	case OP_CONV:
		return vm.pushResult(convert(types.Kind(vm.ReadByte()), vm.Pop()))

	// Bitwise
	case OP_BITAND, OP_BITOR, OP_BITXOR:
		right := vm.Pop()
		left := vm.Pop()
		return vm.pushResult(bitwise(op, left, right))
	case OP_BITNOT:
		return vm.pushResult(bitwiseNot(vm.Pop()))
	case OP_SHL, OP_SHR:
		right := vm.Pop()
		left := vm.Pop()
		return vm.pushResult(shift(op, left, right))

	// Comparison
	case OP_EQ:
		right := vm.Pop()
		left := vm.Pop()
		vm.Push(types.NewBool(equal(left, right)))
	case OP_NE:
		right := vm.Pop()
		left := vm.Pop()
		vm.Push(types.NewBool(!equal(left, right)))
	case OP_LT, OP_LE, OP_GT, OP_GE:
		kind := types.Kind(vm.ReadByte())
		right := vm.Pop()
		left := vm.Pop()
		return vm.pushResult(ordering(op, kind, left, right))
	case OP_NOT:
		return vm.pushResult(logicalNot(vm.Pop()))
	case OP_IS_NULL:
		vm.Push(types.NewBool(types.IsNull(vm.Pop())))

	// Control flow
	case OP_JUMP:
		frame.IP = int(vm.ReadShort())
	case OP_JUMP_IF_FALSE:
		target := int(vm.ReadShort())
		if !vm.Pop().Truthy() {
			frame.IP = target
		}
	case OP_JUMP_IF_TRUE:
		target := int(vm.ReadShort())
		if vm.Pop().Truthy() {
			frame.IP = target
		}
	case OP_RETURN:
		vm.Return(vm.Pop())
	case OP_HASH:
		h, ok := types.Hash(vm.Pop())
		if !ok {
			return faultf(types.E_TYPE, "selector is not hashable")
		}
		vm.Push(types.NewUInt(h))
	case OP_SWITCH_TABLE:
		size := int(vm.ReadShort())
		h, ok := vm.Pop().(types.UIntValue)
		if !ok || size == 0 {
			return faultf(types.E_TYPE, "SWITCH_TABLE operands")
		}
		slot := frame.IP + 2*int(h.Val%uint64(size))
		frame.IP = int(prog.Code[slot])<<8 | int(prog.Code[slot+1])

	// Calls
	case OP_CALL_HOST:
		return vm.executeCallHost()
	case OP_MAKE_CLOSURE:
		unit := prog.Module.Units[vm.ReadShort()]
		vm.Push(&ClosureValue{Program: unit, Env: vm.Pop()})
	case OP_CALL_CLOSURE:
		return vm.executeCallClosure(int(vm.ReadByte()))

	// Protected regions
	case OP_ENTER_TRY:
		vm.executeEnterTry()
	case OP_ENTER_FINALLY:
		frame.Handlers = append(frame.Handlers, Handler{Type: HandlerFinally, HandlerIP: int(vm.ReadShort()), SP: vm.SP})
	case OP_ENTER_FAULT:
		frame.Handlers = append(frame.Handlers, Handler{Type: HandlerFault, HandlerIP: int(vm.ReadShort()), SP: vm.SP})
	case OP_LEAVE:
		count := int(vm.ReadByte())
		target := int(vm.ReadShort())
		vm.leave(frame, completion{kind: completeLeave, remaining: count, target: target})
	case OP_END_FINALLY:
		return vm.executeEndFinally()
	case OP_END_FILTER:
		return errFilterDone
	case OP_THROW:
		return vm.executeThrow()

	default:
		return fmt.Errorf("unknown opcode: %s (%d)", op.String(), op)
	}

	return nil
}

func (vm *VM) pushResult(r types.Result) error {
	if r.IsError() {
		return Fault{Code: r.Error}
	}
	vm.Push(r.Val)
	return nil
}

// CurrentFrame returns the current stack frame
func (vm *VM) CurrentFrame() *StackFrame {
	if len(vm.Frames) == 0 {
		return nil
	}
	return vm.Frames[len(vm.Frames)-1]
}

// Push pushes a value onto the stack
func (vm *VM) Push(v types.Value) {
	if vm.SP >= len(vm.Stack) {
		vm.Stack = append(vm.Stack, v)
	} else {
		vm.Stack[vm.SP] = v
	}
	vm.SP++
}

// Pop pops a value from the stack
func (vm *VM) Pop() types.Value {
	if vm.SP == 0 {
		panic("stack underflow")
	}
	vm.SP--
	return vm.Stack[vm.SP]
}

// Peek peeks at a value on the stack (0 = top)
func (vm *VM) Peek(offset int) types.Value {
	if vm.SP-1-offset < 0 {
		panic("stack underflow")
	}
	return vm.Stack[vm.SP-1-offset]
}

// PopN pops N values from the stack
func (vm *VM) PopN(n int) []types.Value {
	if vm.SP < n {
		panic("stack underflow")
	}
	values := make([]types.Value, n)
	for i := n - 1; i >= 0; i-- {
		values[i] = vm.Pop()
	}
	return values
}

// ReadByte reads a byte from the current instruction stream
func (vm *VM) ReadByte() byte {
	frame := vm.CurrentFrame()
	b := frame.Program.Code[frame.IP]
	frame.IP++
	return b
}

// ReadShort reads a 2-byte short from the current instruction stream
func (vm *VM) ReadShort() uint16 {
	frame := vm.CurrentFrame()
	hi := frame.Program.Code[frame.IP]
	lo := frame.Program.Code[frame.IP+1]
	frame.IP += 2
	return uint16(hi)<<8 | uint16(lo)
}

// Return returns from the current frame
func (vm *VM) Return(value types.Value) {
	if len(vm.Frames) == 0 {
		return
	}

	frame := vm.Frames[len(vm.Frames)-1]
	vm.SP = frame.BasePointer
	vm.Frames = vm.Frames[:len(vm.Frames)-1]
	vm.Push(value)
	trace.Return(frame.Program.Name, value)
}

// ============================================================================
// MEMBERS AND ARRAYS
// ============================================================================

func (vm *VM) executeLoadField(i int) error {
	target := vm.Pop()
	if addr, ok := target.(types.Address); ok {
		target = addr.Load()
	}
	switch t := target.(type) {
	case types.StructValue:
		vm.Push(types.CopyValue(t.Field(i)))
	case *types.ObjectValue:
		vm.Push(types.CopyValue(t.Field(i)))
	case types.NullValue:
		return faultf(types.E_NULLREF, "field %d of null", i)
	default:
		return faultf(types.E_TYPE, "LDFLD of %s", target.Type())
	}
	return nil
}

func (vm *VM) executeFieldAddress(i int) error {
	target := vm.Pop()
	if addr, ok := target.(types.Address); ok {
		target = addr.Load()
	}
	switch t := target.(type) {
	case types.StructValue:
		vm.Push(t.FieldAddress(i))
	case *types.ObjectValue:
		vm.Push(t.FieldAddress(i))
	case types.NullValue:
		return faultf(types.E_NULLREF, "field %d of null", i)
	default:
		return faultf(types.E_TYPE, "LDFLDA of %s", target.Type())
	}
	return nil
}

func (vm *VM) executeStoreField(i int) error {
	val := vm.Pop()
	target := vm.Pop()
	if addr, ok := target.(types.Address); ok {
		target = addr.Load()
	}
	switch t := target.(type) {
	case types.StructValue:
		t.FieldAddress(i).Store(val)
	case *types.ObjectValue:
		t.SetField(i, val)
	case types.NullValue:
		return faultf(types.E_NULLREF, "store to field %d of null", i)
	default:
		return faultf(types.E_TYPE, "STFLD to %s", target.Type())
	}
	return nil
}

func indexValue(v types.Value) (int64, bool) {
	switch i := v.(type) {
	case types.IntValue:
		return i.Val, true
	case types.UIntValue:
		if i.Val > 1<<62 {
			return -1, true
		}
		return int64(i.Val), true
	}
	return 0, false
}

func (vm *VM) executeNewArray(t *types.Type) error {
	n, ok := indexValue(vm.Pop())
	if !ok {
		return faultf(types.E_TYPE, "array length is not an integer")
	}
	if n < 0 {
		return faultf(types.E_RANGE, "negative array length %d", n)
	}
	vm.Push(types.NewArray(t.Elem, int(n)))
	return nil
}

func (vm *VM) executeLength() error {
	switch v := vm.Pop().(type) {
	case *types.ArrayValue:
		vm.Push(types.NewInt(int64(v.Len())))
	case types.StrValue:
		vm.Push(types.NewInt(int64(utf8.RuneCountInString(v.Value()))))
	case types.NullValue:
		return faultf(types.E_NULLREF, "length of null")
	default:
		return faultf(types.E_TYPE, "length of %s", v.Type())
	}
	return nil
}

func (vm *VM) executeElement(op OpCode) error {
	var val types.Value
	if op == OP_STELEM {
		val = vm.Pop()
	}
	idx, ok := indexValue(vm.Pop())
	if !ok {
		return faultf(types.E_TYPE, "array index is not an integer")
	}
	target := vm.Pop()
	arr, isArr := target.(*types.ArrayValue)
	if !isArr {
		if types.IsNull(target) {
			return faultf(types.E_NULLREF, "index of null array")
		}
		return faultf(types.E_TYPE, "index of %s", target.Type())
	}
	if !arr.InRange(idx) {
		return faultf(types.E_RANGE, "index %d out of range [0, %d)", idx, arr.Len())
	}
	switch op {
	case OP_LDELEM:
		vm.Push(types.CopyValue(arr.Get(int(idx))))
	case OP_LDELEMA:
		vm.Push(arr.ElemAddress(int(idx)))
	case OP_STELEM:
		arr.Set(int(idx), val)
	}
	return nil
}

// executeResize makes the array stored at an address at least n long,
// allocating it when null. The grown array replaces the stored one.
func (vm *VM) executeResize(t *types.Type) error {
	n, ok := indexValue(vm.Pop())
	addr, isAddr := vm.Pop().(types.Address)
	if !ok || !isAddr {
		return faultf(types.E_TYPE, "ARRAY_RESIZE operands")
	}
	if n < 0 {
		return faultf(types.E_RANGE, "negative array length %d", n)
	}
	switch cur := addr.Load().(type) {
	case *types.ArrayValue:
		if int64(cur.Len()) < n {
			addr.Store(cur.Resized(int(n)))
		}
	case types.NullValue:
		addr.Store(types.NewArray(t.Elem, int(n)))
	default:
		return faultf(types.E_TYPE, "resize of %s", cur.Type())
	}
	return nil
}

// ============================================================================
// CALLS
// ============================================================================

func (vm *VM) executeCallHost() error {
	frame := vm.CurrentFrame()
	id := int(vm.ReadShort())
	args := vm.PopN(int(vm.ReadByte()))
	host := frame.Program.Module.Host
	if host == nil {
		return faultf(types.E_INVARG, "no host registry")
	}
	r := host.CallByID(id, args)
	if r.IsError() {
		name := fmt.Sprintf("#%d", id)
		if m, ok := host.Method(id); ok {
			name = m.Name
		}
		return faultf(r.Error, "host method %s", name)
	}
	vm.Push(r.Val)
	return nil
}

func (vm *VM) executeCallClosure(argc int) error {
	args := vm.PopN(argc)
	target := vm.Pop()
	c, ok := target.(*ClosureValue)
	if !ok {
		if types.IsNull(target) {
			return faultf(types.E_NULLREF, "invoke of null function")
		}
		return faultf(types.E_TYPE, "invoke of %s", target.Type())
	}
	return vm.pushFrame(c.Program, c.arguments(args))
}

// ============================================================================
// PROTECTED REGIONS
// ============================================================================

// executeEnterTry decodes ENTER_TRY:
// clauses:byte { codes:byte code:byte... var:byte filter:short handler:short }
// var is the local index plus one, zero for none.
func (vm *VM) executeEnterTry() {
	frame := vm.CurrentFrame()
	n := int(vm.ReadByte())
	h := Handler{Type: HandlerExcept, SP: vm.SP, Clauses: make([]Clause, n)}
	for i := range h.Clauses {
		codes := make([]types.ErrorCode, vm.ReadByte())
		for j := range codes {
			codes[j] = types.ErrorCode(vm.ReadByte())
		}
		c := Clause{Codes: codes, VarIndex: int(vm.ReadByte()) - 1, FilterIP: -1}
		if f := vm.ReadShort(); f != NoTarget {
			c.FilterIP = int(f)
		}
		c.HandlerIP = int(vm.ReadShort())
		h.Clauses[i] = c
	}
	frame.Handlers = append(frame.Handlers, h)
}

// leave pops handlers for a LEAVE, suspending into the first finally
// block it meets. END_FINALLY resumes the rest.
func (vm *VM) leave(frame *StackFrame, c completion) {
	for c.remaining > 0 {
		h := frame.Handlers[len(frame.Handlers)-1]
		frame.Handlers = frame.Handlers[:len(frame.Handlers)-1]
		c.remaining--
		if h.Type == HandlerFinally {
			c.level = len(frame.Handlers)
			frame.Pending = append(frame.Pending, c)
			frame.IP = h.HandlerIP
			return
		}
	}
	frame.IP = c.target
}

func (vm *VM) executeEndFinally() error {
	frame := vm.CurrentFrame()
	if len(frame.Pending) == 0 {
		return faultf(types.E_INVARG, "END_FINALLY without a pending completion")
	}
	c := frame.Pending[len(frame.Pending)-1]
	frame.Pending = frame.Pending[:len(frame.Pending)-1]
	if c.kind == completeError {
		return c.err
	}
	vm.leave(frame, c)
	return nil
}

func (vm *VM) executeThrow() error {
	switch v := vm.Pop().(type) {
	case types.ErrValue:
		if v.Code() == types.E_NONE {
			return faultf(types.E_INVARG, "throw of E_NONE")
		}
		return Fault{Code: v.Code(), Msg: v.Message()}
	case types.NullValue:
		return faultf(types.E_NULLREF, "throw of null")
	default:
		return faultf(types.E_TYPE, "throw of %s", v.Type())
	}
}

// HandleError looks for a handler for err, innermost first, unwinding
// frames down to the floor of the current run loop. Finally and fault
// blocks run before outer handlers are considered.
func (vm *VM) HandleError(err error) bool {
	if errors.Is(err, errFilterDone) {
		return false
	}
	code, msg := errorCode(err)

	for len(vm.Frames) > vm.floor {
		frame := vm.CurrentFrame()
		trace.Exception(frame.Program.Name, code, msg)

		for i := len(frame.Handlers) - 1; i >= 0; i-- {
			h := frame.Handlers[i]

			if h.Type == HandlerFinally || h.Type == HandlerFault {
				frame.Handlers = frame.Handlers[:i]
				vm.SP = h.SP
				frame.Pending = append(frame.Pending, completion{kind: completeError, err: err, level: i})
				frame.IP = h.HandlerIP
				return true
			}

			for _, c := range h.Clauses {
				if !c.Matches(code) {
					continue
				}
				if c.VarIndex >= 0 {
					frame.Locals[c.VarIndex] = types.NewErrMsg(code, msg)
				}
				if c.FilterIP >= 0 && !vm.runFilter(frame, c.FilterIP) {
					continue
				}
				frame.Handlers = frame.Handlers[:i]
				frame.Pending = dropPending(frame.Pending, i)
				vm.SP = h.SP
				frame.IP = c.HandlerIP
				return true
			}
		}

		// No handler in this frame
		vm.SP = frame.BasePointer
		vm.Frames = vm.Frames[:len(vm.Frames)-1]
	}

	return false
}

// dropPending discards completions of finally blocks abandoned by an
// error caught at handler level
func dropPending(pending []completion, level int) []completion {
	for len(pending) > 0 && pending[len(pending)-1].level > level {
		pending = pending[:len(pending)-1]
	}
	return pending
}

// runFilter evaluates a filter clause in a nested loop. An error raised
// while filtering makes the filter false.
func (vm *VM) runFilter(frame *StackFrame, ip int) bool {
	savedIP, savedSP := frame.IP, vm.SP
	savedHandlers := len(frame.Handlers)
	depth := len(vm.Frames)
	savedFloor := vm.floor
	vm.floor = depth

	frame.IP = ip
	result := false
	for {
		err := vm.Step()
		if errors.Is(err, errFilterDone) {
			result = vm.Pop().Truthy()
			break
		}
		if err != nil {
			if len(vm.Frames) > depth && vm.HandleError(err) {
				continue
			}
			break
		}
		if len(vm.Frames) < depth || (vm.TickLimit > 0 && vm.Ticks >= vm.TickLimit) {
			break
		}
	}

	vm.floor = savedFloor
	if len(vm.Frames) > depth {
		vm.Frames = vm.Frames[:depth]
	}
	frame.Handlers = frame.Handlers[:savedHandlers]
	frame.IP = savedIP
	vm.SP = savedSP
	return result
}
