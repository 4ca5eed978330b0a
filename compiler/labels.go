package compiler

import (
	"fmt"

	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// region is one level of protected-region nesting. A protected region
// owns one runtime handler; a barrier (finally, fault or filter body)
// cannot be left by a goto.
type region struct {
	barrier bool
}

func (u *unit) pushRegion(barrier bool) {
	u.regions = append(u.regions, &region{barrier: barrier})
}

func (u *unit) popRegion() {
	u.regions = u.regions[:len(u.regions)-1]
}

func (u *unit) regionSnapshot() []*region {
	return append([]*region(nil), u.regions...)
}

// pendingLeave is a forward goto whose LEAVE count waits for the label
type pendingLeave struct {
	at      int // Offset of the count byte
	regions []*region
	node    tree.Node
}

// jumpTarget is the label table entry of one tree.LabelTarget
type jumpTarget struct {
	sym     *tree.LabelTarget
	l       *label
	regions []*region // Region nesting where the label lives
	bound   bool      // regions is known
	defined bool      // Label node emitted
	first   tree.Node // First referencing node, for diagnostics
	pending []pendingLeave
}

func (jt *jumpTarget) typed() bool {
	return jt.sym.Type != nil && jt.sym.Type.Kind != types.KindVoid
}

// targetFor returns the label table entry for sym, creating it on first use
func (u *unit) targetFor(sym *tree.LabelTarget, ref tree.Node) *jumpTarget {
	jt, ok := u.targets[sym]
	if !ok {
		jt = &jumpTarget{sym: sym, l: u.newLabel(), first: ref}
		u.targets[sym] = jt
	}
	return jt
}

// bindTarget declares where sym will be placed before any goto is
// emitted: its stack depth and region nesting
func (u *unit) bindTarget(sym *tree.LabelTarget, ref tree.Node, depth int) *jumpTarget {
	jt := u.targetFor(sym, ref)
	if !jt.bound {
		jt.regions = u.regionSnapshot()
		jt.bound = true
	}
	if !jt.l.known {
		jt.l.depth, jt.l.known = depth, true
	}
	return jt
}

// leaveCount counts the protected regions a jump from the current
// nesting to to must leave
func leaveCount(from, to []*region) (int, error) {
	if len(to) > len(from) {
		return 0, fmt.Errorf("jump into a protected region")
	}
	for i := range to {
		if to[i] != from[i] {
			return 0, fmt.Errorf("jump into a protected region")
		}
	}
	count := 0
	for _, r := range from[len(to):] {
		if r.barrier {
			return 0, fmt.Errorf("jump out of a finally, fault or filter block")
		}
		count++
	}
	return count, nil
}

// emitGoto branches to jt from the current nesting, leaving protected
// regions as needed. The value for a typed target is already on the
// stack.
func (u *unit) emitGoto(jt *jumpTarget, n tree.Node) error {
	if len(u.regions) == 0 {
		if jt.bound && len(jt.regions) > 0 {
			return malformed(n, nil, "goto %s: jump into a protected region", jt.sym.Name)
		}
		if !jt.bound && !jt.defined {
			jt.pending = append(jt.pending, pendingLeave{at: -1, node: n})
		}
		u.jump(vm.OP_JUMP, jt.l)
		return nil
	}
	if jt.bound {
		count, err := leaveCount(u.regions, jt.regions)
		if err != nil {
			return malformed(n, nil, "goto %s: %v", jt.sym.Name, err)
		}
		u.leave(count, jt.l)
		return nil
	}
	u.emit(vm.OP_LEAVE)
	at := u.offset()
	u.emitByte(0)
	u.reach(jt.l, u.depth)
	u.target(jt.l)
	jt.pending = append(jt.pending, pendingLeave{at: at, regions: u.regionSnapshot(), node: n})
	return nil
}

// placeTarget emits the position of jt and resolves forward gotos
func (u *unit) placeTarget(jt *jumpTarget, n tree.Node) error {
	if jt.defined {
		return malformed(n, nil, "label %s defined twice", jt.sym.Name)
	}
	jt.defined = true
	if jt.bound {
		if _, err := leaveCount(u.regions, jt.regions); err != nil || len(u.regions) != len(jt.regions) {
			return malformed(n, nil, "label %s placed outside its declared region", jt.sym.Name)
		}
	} else {
		jt.regions = u.regionSnapshot()
		jt.bound = true
	}
	for _, p := range jt.pending {
		count, err := leaveCount(p.regions, jt.regions)
		if err != nil {
			return malformed(p.node, nil, "goto %s: %v", jt.sym.Name, err)
		}
		if p.at >= 0 {
			u.prog.Code[p.at] = byte(count)
		}
	}
	jt.pending = nil
	u.place(jt.l)
	return nil
}

// checkTargets reports gotos whose label never appeared in the unit
func (u *unit) checkTargets() error {
	for _, jt := range u.targets {
		if !jt.defined && (len(jt.l.patches) > 0 || len(jt.pending) > 0) {
			return malformed(jt.first, nil, "goto %s: label is not defined in this lambda", jt.sym.Name)
		}
	}
	return nil
}
