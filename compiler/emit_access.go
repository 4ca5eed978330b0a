package compiler

import (
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// canVivify reports whether a null location of type t can be filled
// with a fresh instance on a write path
func canVivify(t *types.Type) bool {
	return t.Kind == types.KindClass && !t.Closure || t.Kind == types.KindArray
}

// vivify fills the location whose address is on top of the stack when
// it holds null. The address stays on the stack.
func (u *unit) vivify(t *types.Type) {
	have := u.newLabel()
	u.emit(vm.OP_DUP)
	u.emit(vm.OP_LDIND)
	u.emit(vm.OP_IS_NULL)
	u.jump(vm.OP_JUMP_IF_FALSE, have)
	u.emit(vm.OP_DUP)
	if t.Kind == types.KindArray {
		u.emitConstant(types.NewInt(0))
		u.emitTyped(vm.OP_NEWARR, t)
	} else {
		u.emitTyped(vm.OP_NEWOBJ, t)
	}
	u.emit(vm.OP_STIND)
	u.place(have)
}

// nullChecked bails when the reference on top of the stack is null and
// null checks are enabled
func (u *unit) nullChecked(null *nullLabel) bool {
	if !u.s.opts.Has(CheckNullReferences) {
		return false
	}
	u.checkNull(null)
	return true
}

func emitMember(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	m := n.(*tree.Member)
	if m.Target == nil {
		return false, malformed(n, m.Typ, "member %s has no target", m.Name)
	}
	tt := m.Target.Type()
	if tt == nil {
		return false, malformed(m.Target, nil, "node has no type")
	}

	switch {
	case tt.IsOptional():
		return u.optionalMember(m, tt, null, shape)
	case m.Name == "Length" && (tt.Kind == types.KindArray || tt.Kind == types.KindStr):
		if shape == ShapeAddress {
			return false, malformed(n, m.Typ, "length is not addressable")
		}
		if !types.Identical(m.Typ, types.Int) {
			return false, malformed(n, m.Typ, "length yields int")
		}
		used, err := u.value(m.Target, null)
		if err != nil {
			return false, err
		}
		used = u.nullChecked(null) || used
		u.emit(vm.OP_LDLEN)
		u.finish(m.Typ, shape)
		return used, nil
	case !tt.HasFields():
		return false, malformed(n, tt, "no member %s", m.Name)
	}

	idx, ok := tt.FieldIndex(m.Name)
	if !ok {
		return false, malformed(n, tt, "no member %s", m.Name)
	}
	f := tt.Fields[idx]
	if !types.Identical(m.Typ, f.Type) {
		return false, malformed(n, m.Typ, "member %s has type %s", m.Name, f.Type)
	}
	if f.WriteOnly {
		return false, malformed(n, tt, "member %s has no getter", m.Name)
	}
	if shape == ShapeAddress && f.ReadOnly {
		return false, malformed(n, tt, "member %s has no setter", m.Name)
	}

	used, err := u.memberTarget(m, tt, null, shape == ShapeAddress || extend, extend)
	if err != nil {
		return false, err
	}
	switch {
	case shape == ShapeAddress:
		u.emitSlot(vm.OP_LDFLDA, idx)
	case extend && shape == ShapeValue && canVivify(f.Type) && !f.ReadOnly:
		u.emitSlot(vm.OP_LDFLDA, idx)
		u.vivify(f.Type)
		u.emit(vm.OP_LDIND)
	default:
		u.emitSlot(vm.OP_LDFLD, idx)
		u.finish(m.Typ, shape)
	}
	return used, nil
}

// memberTarget emits the record a field access reads from: the address
// of an addressable struct when wanted, otherwise the record itself
func (u *unit) memberTarget(m *tree.Member, tt *types.Type, null *nullLabel, wantAddress, extend bool) (bool, error) {
	if tt.Kind == types.KindStruct {
		shape := ShapeValue
		if wantAddress && addressable[m.Target.Kind()] {
			shape = ShapeAddress
		}
		r, err := u.emitNode(m.Target, null, shape, extend)
		return r.UsedNull, err
	}
	r, err := u.emitNode(m.Target, null, ShapeValue, extend)
	if err != nil {
		return false, err
	}
	return u.nullChecked(null) || r.UsedNull, nil
}

// optionalMember emits HasValue and Value of an optional scalar
func (u *unit) optionalMember(m *tree.Member, tt *types.Type, null *nullLabel, shape Shape) (bool, error) {
	if shape == ShapeAddress {
		return false, malformed(m, m.Typ, "%s of an optional is not addressable", m.Name)
	}
	var want *types.Type
	switch m.Name {
	case "HasValue":
		want = types.Bool
	case "Value":
		want = tt.Elem
	default:
		return false, malformed(m, tt, "no member %s", m.Name)
	}
	if !types.Identical(m.Typ, want) {
		return false, malformed(m, m.Typ, "%s yields %s", m.Name, want)
	}
	used, err := u.value(m.Target, null)
	if err != nil {
		return false, err
	}
	if m.Name == "HasValue" {
		u.emit(vm.OP_OPT_HAS)
	} else {
		used = u.nullChecked(null) || used
		u.emit(vm.OP_OPT_VAL)
	}
	u.finish(m.Typ, shape)
	return used, nil
}

// elementPrefix leaves the array and the index of an element access on
// the stack. On a write path the stored array is first grown to hold
// the index.
func (u *unit) elementPrefix(ix *tree.Index, null *nullLabel, extend bool) (bool, error) {
	if ix.Array == nil || ix.Index == nil {
		return false, malformed(ix, ix.Typ, "index needs an array and an index")
	}
	at, it := ix.Array.Type(), ix.Index.Type()
	if at == nil || at.Kind != types.KindArray {
		return false, malformed(ix, at, "index of a non-array")
	}
	if it == nil || !it.IsIntegral() {
		return false, malformed(ix.Index, it, "array index must be an integer")
	}
	if !types.Identical(ix.Typ, at.Elem) {
		return false, malformed(ix, ix.Typ, "element has type %s", at.Elem)
	}

	if extend && addressable[ix.Array.Kind()] {
		r, err := u.emitNode(ix.Array, null, ShapeAddress, true)
		if err != nil {
			return false, err
		}
		u.emit(vm.OP_DUP)
		iused, err := u.value(ix.Index, null)
		if err != nil {
			return false, err
		}
		one := types.Value(types.NewInt(1))
		if it.Kind == types.KindUInt {
			one = types.NewUInt(1)
		}
		ti := u.lease(it)
		u.emitSlot(vm.OP_STLOC, ti.Slot)
		u.emitSlot(vm.OP_LDLOC, ti.Slot)
		u.emitConstant(one)
		u.emit(vm.OP_ADD)
		u.emitByte(byte(it.Kind))
		u.emitTyped(vm.OP_ARRAY_RESIZE, at)
		u.emit(vm.OP_LDIND)
		u.emitSlot(vm.OP_LDLOC, ti.Slot)
		u.release(ti)
		return r.UsedNull || iused, nil
	}

	used, err := u.value(ix.Array, null)
	if err != nil {
		return false, err
	}
	used = u.nullChecked(null) || used
	iused, err := u.value(ix.Index, null)
	if err != nil {
		return false, err
	}
	used = used || iused
	if u.s.opts.Has(CheckArrayIndexes) {
		ti := u.lease(it)
		ok := u.newLabel()
		u.emitSlot(vm.OP_STLOC, ti.Slot)
		u.emit(vm.OP_DUP)
		u.emitSlot(vm.OP_LDLOC, ti.Slot)
		u.emit(vm.OP_IN_RANGE)
		u.jump(vm.OP_JUMP_IF_TRUE, ok)
		u.bail(null)
		u.place(ok)
		u.emitSlot(vm.OP_LDLOC, ti.Slot)
		u.release(ti)
		used = true
	}
	return used, nil
}

func emitIndex(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	ix := n.(*tree.Index)
	used, err := u.elementPrefix(ix, null, extend)
	if err != nil {
		return false, err
	}
	switch {
	case shape == ShapeAddress:
		u.emit(vm.OP_LDELEMA)
	case extend && shape == ShapeValue && canVivify(ix.Typ):
		u.emit(vm.OP_LDELEMA)
		u.vivify(ix.Typ)
		u.emit(vm.OP_LDIND)
	default:
		u.emit(vm.OP_LDELEM)
		u.finish(ix.Typ, shape)
	}
	return used, nil
}

// checkArgs validates call arguments against a function type and
// returns its result type
func (u *unit) checkArgs(n tree.Node, ft *types.Type, args []tree.Node, want *types.Type) (*types.Type, error) {
	if len(args) != len(ft.Params) {
		return nil, malformed(n, ft, "call passes %d arguments, want %d", len(args), len(ft.Params))
	}
	if len(args) > 255 {
		return nil, malformed(n, ft, "too many arguments")
	}
	for i, a := range args {
		if err := u.expect(a, ft.Params[i]); err != nil {
			return nil, err
		}
	}
	result := ft.Result
	if result == nil {
		result = types.Void
	}
	if !types.Identical(want, result) {
		return nil, malformed(n, want, "call returns %s", result)
	}
	return result, nil
}

func emitCall(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	c := n.(*tree.Call)
	m, ok := u.s.host.Lookup(c.Method)
	if !ok {
		return false, malformed(n, c.Typ, "unknown host method %s", c.Method)
	}
	args := c.Args
	if c.Receiver != nil {
		args = append([]tree.Node{c.Receiver}, c.Args...)
	}
	result, err := u.checkArgs(n, m.Type, args, c.Typ)
	if err != nil {
		return false, err
	}

	used := false
	for i, a := range args {
		aused, err := u.value(a, null)
		if err != nil {
			return false, err
		}
		used = used || aused
		if i == 0 && c.Receiver != nil && a.Type().IsReference() {
			used = u.nullChecked(null) || used
		}
	}
	u.emit(vm.OP_CALL_HOST)
	u.emitShort(m.ID)
	u.emitByte(byte(len(args)))
	u.adjust(1 - len(args))
	if result.Kind == types.KindVoid {
		u.emit(vm.OP_POP)
	}
	u.finish(result, shape)
	return used, nil
}

func emitInvoke(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	iv := n.(*tree.Invoke)
	if iv.Target == nil {
		return false, malformed(n, iv.Typ, "invoke has no target")
	}
	ft := iv.Target.Type()
	if ft == nil || ft.Kind != types.KindFunc {
		return false, malformed(iv.Target, ft, "invoke of a non-function")
	}
	result, err := u.checkArgs(n, ft, iv.Args, iv.Typ)
	if err != nil {
		return false, err
	}

	used, err := u.value(iv.Target, null)
	if err != nil {
		return false, err
	}
	used = u.nullChecked(null) || used
	for _, a := range iv.Args {
		aused, err := u.value(a, null)
		if err != nil {
			return false, err
		}
		used = used || aused
	}
	u.emit(vm.OP_CALL_CLOSURE)
	u.emitByte(byte(len(iv.Args)))
	u.adjust(-len(iv.Args))
	if result.Kind == types.KindVoid {
		u.emit(vm.OP_POP)
	}
	u.finish(result, shape)
	return used, nil
}

// storeTarget emits the prefix of a store to n and returns the
// instruction completing it and the number of stack items the prefix
// left
func (u *unit) storeTarget(n tree.Node, null *nullLabel, extend bool) (storeSite, int, bool, error) {
	before := u.depth
	switch t := n.(type) {
	case *tree.VariableExpr:
		b, ok := u.lookup(t.Var)
		if !ok {
			return storeSite{}, 0, false, malformed(n, t.Var.Type, "unbound variable %s", t.Var.Name)
		}
		site, err := u.storePrefix(b)
		return site, u.depth - before, false, err

	case *tree.Member:
		tt := t.Target.Type()
		if tt == nil || !tt.HasFields() {
			return storeSite{}, 0, false, malformed(n, tt, "member %s is not assignable", t.Name)
		}
		idx, ok := tt.FieldIndex(t.Name)
		if !ok {
			return storeSite{}, 0, false, malformed(n, tt, "no member %s", t.Name)
		}
		f := tt.Fields[idx]
		if f.ReadOnly {
			return storeSite{}, 0, false, malformed(n, tt, "member %s has no setter", t.Name)
		}
		if !types.Identical(t.Typ, f.Type) {
			return storeSite{}, 0, false, malformed(n, t.Typ, "member %s has type %s", t.Name, f.Type)
		}
		if tt.Kind == types.KindStruct && !addressable[t.Target.Kind()] {
			return storeSite{}, 0, false, malformed(n, tt, "cannot assign to a member of a temporary")
		}
		used, err := u.memberTarget(t, tt, null, true, extend)
		return storeSite{op: vm.OP_STFLD, operand: idx, hasOperand: true}, 1, used, err

	case *tree.Index:
		used, err := u.elementPrefix(t, null, extend)
		return storeSite{op: vm.OP_STELEM}, 2, used, err
	}
	return storeSite{}, 0, false, malformed(n, n.Type(), "expression is not assignable")
}

// emitAssign evaluates the value exactly once. When the target path
// turns out null, the value is still evaluated and then dropped.
func emitAssign(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	a := n.(*tree.Assign)
	if a.Target == nil {
		return false, malformed(n, nil, "assign has no target")
	}
	t := a.Target.Type()
	if t == nil || t.Kind == types.KindVoid {
		return false, malformed(a.Target, t, "target has no storage type")
	}
	if err := u.expect(a.Value, t); err != nil {
		return false, err
	}

	path := u.newNullLabel()
	site, k, pathNull, err := u.storeTarget(a.Target, path, u.s.opts.Has(ExtendOnAssign))
	if err != nil {
		return false, err
	}

	var flag *local
	skip, end := u.newLabel(), u.newLabel()
	if pathNull {
		flag = u.lease(types.Bool)
		defer u.release(flag)
		value := u.newLabel()
		u.emitConstant(types.False)
		u.emitSlot(vm.OP_STLOC, flag.Slot)
		u.jump(vm.OP_JUMP, value)
		u.place(path.target)
		for i := 0; i < k; i++ {
			u.emit(vm.OP_PUSH_NULL)
		}
		u.emitConstant(types.True)
		u.emitSlot(vm.OP_STLOC, flag.Slot)
		u.place(value)
	}

	used, err := u.value(a.Value, null)
	if err != nil {
		return false, err
	}
	var tv *local
	if shape == ShapeValue {
		tv = u.lease(t)
		defer u.release(tv)
		u.emit(vm.OP_DUP)
		u.emitSlot(vm.OP_STLOC, tv.Slot)
	}
	if pathNull {
		u.emitSlot(vm.OP_LDLOC, flag.Slot)
		u.jump(vm.OP_JUMP_IF_TRUE, skip)
	}
	site.emit(u)
	if pathNull {
		u.jump(vm.OP_JUMP, end)
		u.place(skip)
		u.emitPops(k + 1)
		u.place(end)
	}
	if tv != nil {
		u.emitSlot(vm.OP_LDLOC, tv.Slot)
	}
	return used, nil
}
