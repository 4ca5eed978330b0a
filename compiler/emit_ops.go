package compiler

import (
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

var arithOps = map[tree.BinaryOp]vm.OpCode{
	tree.OpAdd: vm.OP_ADD,
	tree.OpSub: vm.OP_SUB,
	tree.OpMul: vm.OP_MUL,
	tree.OpDiv: vm.OP_DIV,
	tree.OpMod: vm.OP_MOD,
}

var bitwiseOps = map[tree.BinaryOp]vm.OpCode{
	tree.OpBitAnd: vm.OP_BITAND,
	tree.OpBitOr:  vm.OP_BITOR,
	tree.OpBitXor: vm.OP_BITXOR,
	tree.OpShl:    vm.OP_SHL,
	tree.OpShr:    vm.OP_SHR,
}

var orderingOps = map[tree.BinaryOp]vm.OpCode{
	tree.OpLess:           vm.OP_LT,
	tree.OpLessOrEqual:    vm.OP_LE,
	tree.OpGreater:        vm.OP_GT,
	tree.OpGreaterOrEqual: vm.OP_GE,
}

func isShift(op tree.BinaryOp) bool {
	return op == tree.OpShl || op == tree.OpShr
}

func emitUnary(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	un := n.(*tree.Unary)
	ot := un.Operand.Type()
	if ot == nil {
		return false, malformed(un.Operand, nil, "node has no type")
	}
	elem := ot.Underlying()

	var op func() error
	var result *types.Type
	switch un.Op {
	case tree.OpIsNull:
		if !ot.IsNullable() {
			return false, malformed(n, ot, "isnull needs a nullable operand")
		}
		op, result = func() error { u.emit(vm.OP_IS_NULL); return nil }, types.Bool
		ot = types.Bool // the test itself is never lifted
	case tree.OpNegate:
		if !elem.IsNumeric() {
			return false, malformed(n, ot, "negate needs a numeric operand")
		}
		op = func() error { u.emit(vm.OP_NEG); u.emitByte(byte(elem.Kind)); return nil }
		result = elem
	case tree.OpNot:
		if elem.Kind != types.KindBool {
			return false, malformed(n, ot, "not needs a logical operand")
		}
		op, result = func() error { u.emit(vm.OP_NOT); return nil }, types.Bool
	case tree.OpBitNot:
		if !elem.IsIntegral() {
			return false, malformed(n, ot, "bitnot needs an integer operand")
		}
		op, result = func() error { u.emit(vm.OP_BITNOT); return nil }, elem
	default:
		return false, malformed(n, ot, "unknown unary operator %s", un.Op)
	}
	lifted := ot.IsOptional()
	if lifted {
		result = types.OptionalOf(result)
	}
	if !types.Identical(un.Typ, result) {
		return false, malformed(n, un.Typ, "%s yields %s", un.Op, result)
	}

	used, err := u.value(un.Operand, null)
	if err != nil {
		return false, err
	}
	if lifted {
		err = u.liftUnary(un.Operand.Type(), result, op)
	} else {
		err = op()
	}
	if err != nil {
		return false, err
	}
	u.finish(result, shape)
	return used, nil
}

func emitBinary(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	b := n.(*tree.Binary)
	if b.Left == nil || b.Right == nil {
		return false, malformed(n, b.Typ, "binary operator needs two operands")
	}
	lt, rt := b.Left.Type(), b.Right.Type()
	if lt == nil || rt == nil {
		return false, malformed(n, b.Typ, "operand has no type")
	}
	var used bool
	var err error
	switch {
	case b.Op.IsLogical():
		used, err = u.logical(b, lt, rt, null)
	case b.Op.IsEquality():
		used, err = u.equality(b, lt, rt, null)
	case lt.IsOptional() || rt.IsOptional():
		used, err = u.lifted(b, lt, rt, null)
	default:
		var op func()
		var result *types.Type
		if op, result, err = u.primitive(b, lt, rt); err != nil {
			return false, err
		}
		if !types.Identical(b.Typ, result) {
			return false, malformed(n, b.Typ, "%s yields %s", b.Op, result)
		}
		if used, err = u.operands(b, null, false, false); err == nil {
			op()
		}
	}
	if err != nil {
		return false, err
	}
	u.finish(b.Typ, shape)
	return used, nil
}

// operands emits both sides in order, wrapping a definite side when
// asked so the two agree
func (u *unit) operands(b *tree.Binary, null *nullLabel, wrapLeft, wrapRight bool) (bool, error) {
	lused, err := u.value(b.Left, null)
	if err != nil {
		return false, err
	}
	if wrapLeft {
		u.emit(vm.OP_OPT_WRAP)
	}
	rused, err := u.value(b.Right, null)
	if err != nil {
		return false, err
	}
	if wrapRight {
		u.emit(vm.OP_OPT_WRAP)
	}
	return lused || rused, nil
}

// primitive selects the instruction for an operator over definite
// scalars or strings and the type it yields
func (u *unit) primitive(b *tree.Binary, lt, rt *types.Type) (func(), *types.Type, error) {
	switch {
	case b.Op.IsArithmetic():
		concat := b.Op == tree.OpAdd && lt.Kind == types.KindStr
		if !types.Identical(lt, rt) || !(lt.IsNumeric() || concat) {
			return nil, nil, malformed(b, lt, "%s needs matching numeric operands, got %s", b.Op, rt)
		}
		return func() { u.emit(arithOps[b.Op]); u.emitByte(byte(lt.Kind)) }, lt, nil
	case isShift(b.Op):
		if !lt.IsIntegral() || !rt.IsIntegral() {
			return nil, nil, malformed(b, lt, "%s needs integer operands, got %s", b.Op, rt)
		}
		return func() { u.emit(bitwiseOps[b.Op]) }, lt, nil
	case b.Op.IsBitwise():
		if !types.Identical(lt, rt) || !(lt.IsIntegral() || lt.Kind == types.KindBool) {
			return nil, nil, malformed(b, lt, "%s needs matching integer operands, got %s", b.Op, rt)
		}
		return func() { u.emit(bitwiseOps[b.Op]) }, lt, nil
	case b.Op.IsOrdering():
		if !types.Identical(lt, rt) || !(lt.IsNumeric() || lt.Kind == types.KindStr) {
			return nil, nil, malformed(b, lt, "%s needs matching ordered operands, got %s", b.Op, rt)
		}
		return func() { u.emit(orderingOps[b.Op]); u.emitByte(byte(lt.Kind)) }, types.Bool, nil
	}
	return nil, nil, malformed(b, lt, "unknown binary operator %s", b.Op)
}

// equality compares with value semantics. Optional operands compare
// structurally by presence, so the result is always a definite bool.
func (u *unit) equality(b *tree.Binary, lt, rt *types.Type, null *nullLabel) (bool, error) {
	if !types.Identical(b.Typ, types.Bool) {
		return false, malformed(b, b.Typ, "%s yields bool", b.Op)
	}
	if !types.Identical(lt.Underlying(), rt.Underlying()) {
		return false, malformed(b, lt, "%s compares %s with %s", b.Op, lt, rt)
	}
	if lt.Kind == types.KindStruct {
		return false, malformed(b, lt, "struct values have no equality")
	}
	wrapLeft := rt.IsOptional() && !lt.IsOptional()
	wrapRight := lt.IsOptional() && !rt.IsOptional()
	used, err := u.operands(b, null, wrapLeft, wrapRight)
	if err != nil {
		return false, err
	}
	if b.Op == tree.OpEqual {
		u.emit(vm.OP_EQ)
	} else {
		u.emit(vm.OP_NE)
	}
	return used, nil
}

// lifted emits an arithmetic, bitwise or ordering operator with at
// least one optional operand. Either side absent yields absent.
func (u *unit) lifted(b *tree.Binary, lt, rt *types.Type, null *nullLabel) (bool, error) {
	le, re := lt.Underlying(), rt.Underlying()
	if !le.IsScalar() || !re.IsScalar() {
		return false, malformed(b, lt, "%s cannot combine %s with %s", b.Op, lt, rt)
	}
	op, elem, err := u.primitive(b, le, re)
	if err != nil {
		return false, err
	}
	result := types.OptionalOf(elem)
	if !types.Identical(b.Typ, result) {
		return false, malformed(b, b.Typ, "%s yields %s", b.Op, result)
	}

	used, err := u.operands(b, null, false, false)
	if err != nil {
		return false, err
	}
	tl := u.lease(lt)
	tr := u.lease(rt)
	defer func() {
		u.release(tr)
		u.release(tl)
	}()
	absent, end := u.newLabel(), u.newLabel()
	u.emitSlot(vm.OP_STLOC, tr.Slot)
	u.emitSlot(vm.OP_STLOC, tl.Slot)
	for _, t := range []*local{tl, tr} {
		if t.Type.IsOptional() {
			u.emitSlot(vm.OP_LDLOC, t.Slot)
			u.emit(vm.OP_OPT_HAS)
			u.jump(vm.OP_JUMP_IF_FALSE, absent)
		}
	}
	for _, t := range []*local{tl, tr} {
		u.emitSlot(vm.OP_LDLOC, t.Slot)
		if t.Type.IsOptional() {
			u.emit(vm.OP_OPT_VAL)
		}
	}
	op()
	u.emit(vm.OP_OPT_WRAP)
	u.jump(vm.OP_JUMP, end)
	u.place(absent)
	u.emitDefault(result)
	u.place(end)
	return used, nil
}

// logical emits AndAlso and OrElse. The right operand is evaluated only
// when the left does not decide the result.
func (u *unit) logical(b *tree.Binary, lt, rt *types.Type, null *nullLabel) (bool, error) {
	if lt.Underlying().Kind != types.KindBool || rt.Underlying().Kind != types.KindBool {
		return false, malformed(b, lt, "%s needs logical operands, got %s", b.Op, rt)
	}
	if !lt.IsOptional() && !rt.IsOptional() {
		if !types.Identical(b.Typ, types.Bool) {
			return false, malformed(b, b.Typ, "%s yields bool", b.Op)
		}
		end := u.newLabel()
		used, err := u.value(b.Left, null)
		if err != nil {
			return false, err
		}
		u.emit(vm.OP_DUP)
		if b.Op == tree.OpAndAlso {
			u.jump(vm.OP_JUMP_IF_FALSE, end)
		} else {
			u.jump(vm.OP_JUMP_IF_TRUE, end)
		}
		u.emit(vm.OP_POP)
		rused, err := u.value(b.Right, null)
		if err != nil {
			return false, err
		}
		u.place(end)
		return used || rused, nil
	}

	if !types.Identical(b.Typ, types.OptionalBool) {
		return false, malformed(b, b.Typ, "%s yields bool?", b.Op)
	}
	// The deciding value: false for AndAlso, true for OrElse
	decisive := types.Some(types.NewBool(b.Op == tree.OpOrElse))
	if u.s.opts.Has(UseTernaryLogic) {
		return u.kleene(b, decisive, null)
	}

	tl := u.lease(types.OptionalBool)
	defer u.release(tl)
	absent, decided, end := u.newLabel(), u.newLabel(), u.newLabel()
	used, err := u.optionalBool(b.Left, null)
	if err != nil {
		return false, err
	}
	u.emitSlot(vm.OP_STLOC, tl.Slot)
	u.emitSlot(vm.OP_LDLOC, tl.Slot)
	u.emit(vm.OP_OPT_HAS)
	u.jump(vm.OP_JUMP_IF_FALSE, absent)
	u.emitSlot(vm.OP_LDLOC, tl.Slot)
	u.emitConstant(decisive)
	u.emit(vm.OP_EQ)
	u.jump(vm.OP_JUMP_IF_TRUE, decided)
	rused, err := u.optionalBool(b.Right, null)
	if err != nil {
		return false, err
	}
	u.jump(vm.OP_JUMP, end)
	u.place(decided)
	u.emitConstant(decisive)
	u.jump(vm.OP_JUMP, end)
	u.place(absent)
	u.emitDefault(types.OptionalBool)
	u.place(end)
	return used || rused, nil
}

// kleene emits three-valued AndAlso/OrElse: the decisive value on
// either side wins even when the other side is absent
func (u *unit) kleene(b *tree.Binary, decisive types.OptionalValue, null *nullLabel) (bool, error) {
	tl := u.lease(types.OptionalBool)
	tr := u.lease(types.OptionalBool)
	defer func() {
		u.release(tr)
		u.release(tl)
	}()
	absent, decided, end := u.newLabel(), u.newLabel(), u.newLabel()

	used, err := u.optionalBool(b.Left, null)
	if err != nil {
		return false, err
	}
	u.emitSlot(vm.OP_STLOC, tl.Slot)
	u.emitSlot(vm.OP_LDLOC, tl.Slot)
	u.emitConstant(decisive)
	u.emit(vm.OP_EQ)
	u.jump(vm.OP_JUMP_IF_TRUE, decided)

	rused, err := u.optionalBool(b.Right, null)
	if err != nil {
		return false, err
	}
	u.emitSlot(vm.OP_STLOC, tr.Slot)
	u.emitSlot(vm.OP_LDLOC, tr.Slot)
	u.emitConstant(decisive)
	u.emit(vm.OP_EQ)
	u.jump(vm.OP_JUMP_IF_TRUE, decided)

	for _, t := range []*local{tl, tr} {
		u.emitSlot(vm.OP_LDLOC, t.Slot)
		u.emit(vm.OP_OPT_HAS)
		u.jump(vm.OP_JUMP_IF_FALSE, absent)
	}
	// Both present and neither decisive
	u.emitConstant(types.Some(types.NewBool(b.Op == tree.OpAndAlso)))
	u.jump(vm.OP_JUMP, end)
	u.place(decided)
	u.emitConstant(decisive)
	u.jump(vm.OP_JUMP, end)
	u.place(absent)
	u.emitDefault(types.OptionalBool)
	u.place(end)
	return used || rused, nil
}

// optionalBool emits a logical operand as bool?
func (u *unit) optionalBool(n tree.Node, null *nullLabel) (bool, error) {
	used, err := u.value(n, null)
	if err != nil {
		return false, err
	}
	if !n.Type().IsOptional() {
		u.emit(vm.OP_OPT_WRAP)
	}
	return used, nil
}
