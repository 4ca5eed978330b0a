package compiler

import (
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// MaxSwitchTable bounds the number of hash buckets of one switch
var MaxSwitchTable = 64

// branchShape is the shape the arms of a control node are emitted in
func branchShape(t *types.Type, shape Shape) Shape {
	if t.Kind == types.KindVoid {
		return ShapeVoid
	}
	return shape
}

// expectArm checks one arm of a control node. Arms of a void node may
// have any type; their value is dropped.
func (u *unit) expectArm(n tree.Node, t *types.Type) error {
	if t.Kind == types.KindVoid {
		if n == nil {
			return malformed(nil, t, "missing branch")
		}
		if n.Type() == nil {
			return malformed(n, nil, "node has no type")
		}
		return nil
	}
	return u.expect(n, t)
}

func emitConditional(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	c := n.(*tree.Conditional)
	if c.Test == nil {
		return false, malformed(n, c.Typ, "conditional has no test")
	}
	tt := c.Test.Type()
	if tt == nil || tt.Underlying().Kind != types.KindBool {
		return false, malformed(c.Test, tt, "condition must be logical")
	}
	if c.Else == nil && c.Typ.Kind != types.KindVoid {
		return false, malformed(n, c.Typ, "conditional without else must be void")
	}
	if err := u.expectArm(c.Then, c.Typ); err != nil {
		return false, err
	}
	if c.Else != nil {
		if err := u.expectArm(c.Else, c.Typ); err != nil {
			return false, err
		}
	}
	arm := branchShape(c.Typ, shape)

	used, err := u.value(c.Test, null)
	if err != nil {
		return false, err
	}
	// An absent test reads as false under ternary logic
	if tt.IsOptional() && !u.s.opts.Has(UseTernaryLogic) {
		u.checkNull(null)
		used = true
	}
	elseL, end := u.newLabel(), u.newLabel()
	u.jump(vm.OP_JUMP_IF_FALSE, elseL)
	r, err := u.emitNode(c.Then, null, arm, false)
	if err != nil {
		return false, err
	}
	used = used || r.UsedNull
	if c.Else == nil {
		u.place(elseL)
		return used, nil
	}
	if u.reachable {
		u.jump(vm.OP_JUMP, end)
	}
	u.place(elseL)
	r, err = u.emitNode(c.Else, null, arm, false)
	if err != nil {
		return false, err
	}
	u.place(end)
	return used || r.UsedNull, nil
}

func emitBlock(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	b := n.(*tree.Block)
	if len(b.Body) == 0 {
		if b.Typ.Kind != types.KindVoid {
			return false, malformed(n, b.Typ, "empty block must be void")
		}
	} else if err := u.expectArm(b.Body[len(b.Body)-1], b.Typ); err != nil {
		return false, err
	}

	var leases []*local
	defer func() {
		for i := len(leases) - 1; i >= 0; i-- {
			u.release(leases[i])
		}
	}()
	for _, v := range b.Vars {
		if v == nil {
			return false, malformed(n, b.Typ, "nil block variable")
		}
		if _, dup := u.vars[v]; dup {
			return false, malformed(n, v.Type, "variable %s declared twice", v.Name)
		}
		if l := u.declare(v); l != nil {
			leases = append(leases, l)
		}
		if err := u.initVar(v); err != nil {
			return false, err
		}
	}
	defer func() {
		for _, v := range b.Vars {
			u.undeclare(v)
		}
	}()

	for _, c := range b.Body {
		if lbl, ok := c.(*tree.Label); ok && lbl.Target != nil {
			depth := u.depth
			if u.targetFor(lbl.Target, lbl).typed() {
				depth++
			}
			u.bindTarget(lbl.Target, lbl, depth)
		}
	}

	last := branchShape(b.Typ, shape)
	for i, c := range b.Body {
		s := ShapeVoid
		if i == len(b.Body)-1 {
			s = last
		}
		if _, err := u.guarded(c, s); err != nil {
			return false, err
		}
	}
	return false, nil
}

func emitLoop(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	lp := n.(*tree.Loop)
	if lp.Body == nil {
		return false, malformed(n, lp.Typ, "loop has no body")
	}
	var brk *jumpTarget
	if lp.Break != nil {
		brk = u.targetFor(lp.Break, lp)
		depth := u.depth
		if brk.typed() {
			if !types.Identical(lp.Typ, lp.Break.Type) {
				return false, malformed(n, lp.Typ, "loop type does not match its break label %s", lp.Break.Type)
			}
			depth++
		} else if lp.Typ.Kind != types.KindVoid {
			return false, malformed(n, lp.Typ, "loop with a void break label must be void")
		}
		u.bindTarget(lp.Break, lp, depth)
	} else if lp.Typ.Kind != types.KindVoid {
		return false, malformed(n, lp.Typ, "loop without a break label must be void")
	}

	var cont *jumpTarget
	if lp.Continue != nil {
		cont = u.bindTarget(lp.Continue, lp, u.depth)
		if cont.typed() {
			return false, malformed(n, lp.Continue.Type, "continue label cannot carry a value")
		}
		if err := u.placeTarget(cont, lp); err != nil {
			return false, err
		}
	}
	top := u.newLabel()
	u.place(top)

	if _, err := u.guarded(lp.Body, ShapeVoid); err != nil {
		return false, err
	}
	if u.reachable {
		u.jump(vm.OP_JUMP, top)
	}
	if brk == nil {
		return false, nil
	}
	if err := u.placeTarget(brk, lp); err != nil {
		return false, err
	}
	u.finish(lp.Typ, shape)
	return false, nil
}

func emitGoto(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	g := n.(*tree.Goto)
	if g.Target == nil {
		return false, malformed(n, g.Typ, "goto has no target")
	}
	before := u.depth
	jt := u.targetFor(g.Target, g)

	used := false
	if jt.typed() {
		var err error
		if used, err = u.valueOf(g.Value, g.Target.Type, null); err != nil {
			return false, err
		}
	} else if g.Value != nil {
		r, err := u.emitNode(g.Value, null, ShapeVoid, false)
		if err != nil {
			return false, err
		}
		used = r.UsedNull
	}

	if jt.l.known {
		extra := u.depth - jt.l.depth
		if extra < 0 {
			return false, malformed(n, g.Typ, "goto %s: label expects a deeper stack", g.Target.Name)
		}
		if extra > 0 && jt.typed() {
			tmp := u.lease(g.Target.Type)
			u.emitSlot(vm.OP_STLOC, tmp.Slot)
			u.emitPops(extra)
			u.emitSlot(vm.OP_LDLOC, tmp.Slot)
			u.release(tmp)
		} else {
			u.emitPops(extra)
		}
	}
	if err := u.emitGoto(jt, g); err != nil {
		return false, err
	}
	u.depth = before
	if pushes(g.Typ, shape) {
		u.depth++
	}
	return used, nil
}

func emitLabel(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	lb := n.(*tree.Label)
	if lb.Target == nil {
		return false, malformed(n, nil, "label has no target")
	}
	jt := u.targetFor(lb.Target, lb)

	used := false
	switch {
	case jt.typed() && lb.Default != nil:
		var err error
		if used, err = u.valueOf(lb.Default, lb.Target.Type, null); err != nil {
			return false, err
		}
	case jt.typed():
		u.emitDefault(lb.Target.Type)
	case lb.Default != nil:
		r, err := u.emitNode(lb.Default, null, ShapeVoid, false)
		if err != nil {
			return false, err
		}
		used = r.UsedNull
	}
	if err := u.placeTarget(jt, lb); err != nil {
		return false, err
	}
	u.finish(lb.Target.Type, shape)
	return used, nil
}

// switchable reports whether a selector of type t can be hashed
func switchable(t *types.Type) bool {
	e := t.Underlying()
	return e.IsScalar() || e.Kind == types.KindStr || e.Kind == types.KindErr
}

type switchEntry struct {
	value types.Value
	arm   int
}

// emitSwitch dispatches through a hash table. Every bucket re-checks the
// selector against its candidates, so a collision falls through to the
// next candidate and finally to the default arm. An absent selector
// never reaches the table.
func emitSwitch(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	sw := n.(*tree.Switch)
	if sw.Selector == nil {
		return false, malformed(n, sw.Typ, "switch has no selector")
	}
	st := sw.Selector.Type()
	if st == nil || !switchable(st) {
		return false, malformed(sw.Selector, st, "switch selector must be a scalar, string or error")
	}

	var entries []switchEntry
	nullArm := -1
	for i, c := range sw.Cases {
		if err := u.expectArm(c.Body, sw.Typ); err != nil {
			return false, err
		}
		for _, v := range c.Values {
			if types.IsNull(v) {
				if !st.IsNullable() {
					return false, malformed(n, st, "null case on a selector that cannot be null")
				}
				if nullArm >= 0 {
					return false, malformed(n, st, "duplicate null case")
				}
				nullArm = i
				continue
			}
			if !types.Conforms(v, st.Underlying()) {
				return false, malformed(n, st, "case value %s does not match the selector", v)
			}
			for _, e := range entries {
				if e.value.Equal(v) {
					return false, malformed(n, st, "duplicate case value %s", v)
				}
			}
			entries = append(entries, switchEntry{value: v, arm: i})
		}
	}
	if sw.Default != nil {
		if err := u.expectArm(sw.Default, sw.Typ); err != nil {
			return false, err
		}
	}
	arm := branchShape(sw.Typ, shape)

	used, err := u.value(sw.Selector, null)
	if err != nil {
		return false, err
	}
	ts := u.lease(st)
	u.emitSlot(vm.OP_STLOC, ts.Slot)

	arms := make([]*label, len(sw.Cases))
	for i := range arms {
		arms[i] = u.newLabel()
	}
	defL, end := u.newLabel(), u.newLabel()

	if st.IsNullable() {
		absent := defL
		if nullArm >= 0 {
			absent = arms[nullArm]
		}
		u.emitSlot(vm.OP_LDLOC, ts.Slot)
		u.emit(vm.OP_IS_NULL)
		u.jump(vm.OP_JUMP_IF_TRUE, absent)
	}

	if len(entries) == 0 {
		u.jump(vm.OP_JUMP, defL)
	} else {
		size := min(len(entries), MaxSwitchTable)
		if size < 1 {
			size = 1
		}
		buckets := make([][]switchEntry, size)
		for _, e := range entries {
			h, ok := types.Hash(e.value)
			if !ok {
				u.release(ts)
				return false, malformed(n, st, "case value %s has no hash", e.value)
			}
			buckets[h%uint64(size)] = append(buckets[h%uint64(size)], e)
		}
		bucketLabels := make([]*label, size)
		u.emitSlot(vm.OP_LDLOC, ts.Slot)
		u.emit(vm.OP_HASH)
		u.emit(vm.OP_SWITCH_TABLE)
		u.emitShort(size)
		for i, b := range buckets {
			l := defL
			if len(b) > 0 {
				l = u.newLabel()
				bucketLabels[i] = l
			}
			u.reach(l, u.depth)
			u.target(l)
		}
		for i, b := range buckets {
			if len(b) == 0 {
				continue
			}
			u.place(bucketLabels[i])
			for _, e := range b {
				v := e.value
				if st.IsOptional() {
					v = types.Some(v)
				}
				u.emitSlot(vm.OP_LDLOC, ts.Slot)
				u.emitConstant(v)
				u.emit(vm.OP_EQ)
				u.jump(vm.OP_JUMP_IF_TRUE, arms[e.arm])
			}
			u.jump(vm.OP_JUMP, defL)
		}
	}
	u.release(ts)

	for i, c := range sw.Cases {
		u.place(arms[i])
		if _, err := u.guarded(c.Body, arm); err != nil {
			return false, err
		}
		if u.reachable {
			u.jump(vm.OP_JUMP, end)
		}
	}
	u.place(defL)
	if sw.Default != nil {
		if _, err := u.guarded(sw.Default, arm); err != nil {
			return false, err
		}
	} else if pushes(sw.Typ, arm) {
		u.emitDefault(sw.Typ)
	}
	u.place(end)
	return used, nil
}
