package compiler

import (
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// constantValue reports whether v may live in the constant pool.
// Records are mutable and must be built with New.
func constantValue(v types.Value) bool {
	switch v.(type) {
	case types.IntValue, types.UIntValue, types.FloatValue, types.BoolValue,
		types.StrValue, types.ErrValue, types.OptionalValue, types.NullValue:
		return true
	}
	return false
}

func emitConstant(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	c := n.(*tree.Constant)
	if c.Typ.Kind == types.KindVoid {
		return false, malformed(n, c.Typ, "constant cannot be void")
	}
	if c.Value == nil || !constantValue(c.Value) {
		return false, malformed(n, c.Typ, "constant %v cannot be pooled; use a new expression", c.Value)
	}
	if types.IsNull(c.Value) && c.Typ.IsOptional() {
		if shape != ShapeVoid {
			u.emitDefault(c.Typ)
		}
		return false, nil
	}
	if !types.Conforms(c.Value, c.Typ) {
		return false, malformed(n, c.Typ, "constant %s does not have the declared type", c.Value)
	}
	if shape != ShapeVoid {
		u.emitConstant(c.Value)
	}
	return false, nil
}

func emitDefaultExpr(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	if pushes(n.Type(), shape) {
		u.emitDefault(n.Type())
	}
	return false, nil
}

// convertScalar emits the conversion between two scalar types
func (u *unit) convertScalar(n tree.Node, from, to *types.Type) error {
	if types.Identical(from, to) {
		return nil
	}
	if !from.IsNumeric() || !to.IsNumeric() {
		return malformed(n, to, "cannot convert %s", from)
	}
	u.emit(vm.OP_CONV)
	u.emitByte(byte(to.Kind))
	return nil
}

// liftUnary applies op to the value of an optional on top of the stack,
// producing an optional of type out; absent stays absent
func (u *unit) liftUnary(in, out *types.Type, op func() error) error {
	t := u.lease(in)
	defer u.release(t)
	absent, end := u.newLabel(), u.newLabel()
	u.emitSlot(vm.OP_STLOC, t.Slot)
	u.emitSlot(vm.OP_LDLOC, t.Slot)
	u.emit(vm.OP_OPT_HAS)
	u.jump(vm.OP_JUMP_IF_FALSE, absent)
	u.emitSlot(vm.OP_LDLOC, t.Slot)
	u.emit(vm.OP_OPT_VAL)
	if err := op(); err != nil {
		return err
	}
	u.emit(vm.OP_OPT_WRAP)
	u.jump(vm.OP_JUMP, end)
	u.place(absent)
	u.emitDefault(out)
	u.place(end)
	return nil
}

func emitConvert(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	c := n.(*tree.Convert)
	from, to := c.Operand.Type(), c.Typ
	if from == nil {
		return false, malformed(c.Operand, nil, "node has no type")
	}
	if to.Kind == types.KindVoid {
		r, err := u.emitNode(c.Operand, null, ShapeVoid, false)
		return r.UsedNull, err
	}

	used, err := u.value(c.Operand, null)
	if err != nil {
		return false, err
	}
	switch {
	case types.Identical(from, to):
	case from.IsScalar() && to.IsScalar():
		err = u.convertScalar(n, from, to)
	case from.IsScalar() && to.IsOptional():
		if err = u.convertScalar(n, from, to.Elem); err == nil {
			u.emit(vm.OP_OPT_WRAP)
		}
	case from.IsOptional() && to.IsScalar():
		if u.s.opts.Has(CheckNullReferences) {
			u.checkNull(null)
			used = true
		}
		u.emit(vm.OP_OPT_VAL)
		err = u.convertScalar(n, from.Elem, to)
	case from.IsOptional() && to.IsOptional():
		err = u.liftUnary(from, to, func() error {
			return u.convertScalar(n, from.Elem, to.Elem)
		})
	default:
		err = malformed(n, to, "cannot convert %s", from)
	}
	if err != nil {
		return false, err
	}
	u.finish(to, shape)
	return used, nil
}

func emitCoalesce(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	c := n.(*tree.Coalesce)
	lt, t := c.Left.Type(), c.Typ
	if lt == nil || !lt.IsNullable() {
		return false, malformed(c.Left, lt, "coalesce needs a nullable left operand")
	}
	unwrap := lt.IsOptional() && !t.IsOptional()
	if unwrap && !types.Identical(lt.Elem, t) || !unwrap && !types.Identical(lt, t) {
		return false, malformed(n, t, "coalesce type does not match left operand %s", lt)
	}
	if err := u.expect(c.Right, t); err != nil {
		return false, err
	}

	used, err := u.value(c.Left, null)
	if err != nil {
		return false, err
	}
	end := u.newLabel()
	if unwrap {
		tmp := u.lease(lt)
		right := u.newLabel()
		u.emitSlot(vm.OP_STLOC, tmp.Slot)
		u.emitSlot(vm.OP_LDLOC, tmp.Slot)
		u.emit(vm.OP_OPT_HAS)
		u.jump(vm.OP_JUMP_IF_FALSE, right)
		u.emitSlot(vm.OP_LDLOC, tmp.Slot)
		u.emit(vm.OP_OPT_VAL)
		u.jump(vm.OP_JUMP, end)
		u.place(right)
		u.release(tmp)
	} else {
		u.emit(vm.OP_DUP)
		u.emit(vm.OP_IS_NULL)
		u.jump(vm.OP_JUMP_IF_FALSE, end)
		u.emit(vm.OP_POP)
	}
	rused, err := u.value(c.Right, null)
	if err != nil {
		return false, err
	}
	u.place(end)
	u.finish(t, shape)
	return used || rused, nil
}

func emitNew(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	nw := n.(*tree.New)
	t := nw.Typ
	if !t.HasFields() {
		return false, malformed(n, t, "new needs a struct or class type")
	}
	if t.Closure {
		return false, malformed(n, t, "environment records cannot be constructed")
	}
	fields := make([]int, len(nw.Bindings))
	for i, b := range nw.Bindings {
		idx, ok := t.FieldIndex(b.Name)
		if !ok {
			return false, malformed(n, t, "no member %s", b.Name)
		}
		if t.Fields[idx].ReadOnly {
			return false, malformed(n, t, "member %s has no setter", b.Name)
		}
		if err := u.expect(b.Value, t.Fields[idx].Type); err != nil {
			return false, err
		}
		fields[i] = idx
	}

	used := false
	if t.Kind == types.KindClass {
		u.emitTyped(vm.OP_NEWOBJ, t)
		for i, b := range nw.Bindings {
			u.emit(vm.OP_DUP)
			bused, err := u.value(b.Value, null)
			if err != nil {
				return false, err
			}
			used = used || bused
			u.emitSlot(vm.OP_STFLD, fields[i])
		}
	} else {
		tmp := u.lease(t)
		defer u.release(tmp)
		u.emitTyped(vm.OP_NEWOBJ, t)
		u.emitSlot(vm.OP_STLOC, tmp.Slot)
		for i, b := range nw.Bindings {
			u.emitSlot(vm.OP_LDLOCA, tmp.Slot)
			bused, err := u.value(b.Value, null)
			if err != nil {
				return false, err
			}
			used = used || bused
			u.emitSlot(vm.OP_STFLD, fields[i])
		}
		u.emitSlot(vm.OP_LDLOC, tmp.Slot)
	}
	u.finish(t, shape)
	return used, nil
}

func emitNewArray(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	na := n.(*tree.NewArray)
	t := na.Typ
	if t.Kind != types.KindArray {
		return false, malformed(n, t, "new array needs an array type")
	}
	if na.Length != nil {
		if len(na.Items) > 0 {
			return false, malformed(n, t, "new array has both a length and items")
		}
		if lt := na.Length.Type(); lt == nil || !lt.IsIntegral() {
			return false, malformed(na.Length, lt, "array length must be an integer")
		}
		used, err := u.value(na.Length, null)
		if err != nil {
			return false, err
		}
		u.emitTyped(vm.OP_NEWARR, t)
		u.finish(t, shape)
		return used, nil
	}

	used := false
	for _, it := range na.Items {
		iused, err := u.valueOf(it, t.Elem, null)
		if err != nil {
			return false, err
		}
		used = used || iused
	}
	u.emitTyped(vm.OP_MAKE_ARRAY, t)
	u.emitShort(len(na.Items))
	u.adjust(1 - len(na.Items))
	u.finish(t, shape)
	return used, nil
}

func emitThrow(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	th := n.(*tree.Throw)
	used, err := u.valueOf(th.Value, types.Err, null)
	if err != nil {
		return false, err
	}
	u.emit(vm.OP_THROW)
	if pushes(th.Typ, shape) {
		u.adjust(1)
	}
	return used, nil
}
