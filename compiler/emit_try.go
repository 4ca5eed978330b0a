package compiler

import (
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// emitTry lays out a protected region. Handlers are registered outermost
// first: finally, then fault, then the catch clauses, so that the VM
// tries clauses before running fault and finally blocks.
//
//	ENTER_FINALLY fin; ENTER_TRY clauses
//	body; STLOC result; LEAVE n end
//	handler_i: body_i; STLOC result; LEAVE n-1 end
//	filter_i:  test_i; END_FILTER
//	fin:       finally; END_FINALLY
//	end:       LDLOC result
func emitTry(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error) {
	tr := n.(*tree.Try)
	if u.filters > 0 {
		return false, malformed(n, tr.Typ, "try inside a filter")
	}
	if tr.Body == nil {
		return false, malformed(n, tr.Typ, "try has no body")
	}
	if len(tr.Handlers) == 0 && tr.Finally == nil && tr.Fault == nil {
		return false, malformed(n, tr.Typ, "try needs a handler, finally or fault block")
	}
	if tr.Finally != nil && tr.Fault != nil {
		return false, malformed(n, tr.Typ, "try cannot have both finally and fault blocks")
	}
	if len(tr.Handlers) > 255 {
		return false, malformed(n, tr.Typ, "too many handlers")
	}
	if err := u.expectArm(tr.Body, tr.Typ); err != nil {
		return false, err
	}
	for _, h := range tr.Handlers {
		if err := u.expectArm(h.Body, tr.Typ); err != nil {
			return false, err
		}
		if h.Var != nil && h.Var.Type.Kind != types.KindErr {
			return false, malformed(n, h.Var.Type, "catch variable %s must be an error", h.Var.Name)
		}
		if h.Filter != nil {
			if ft := h.Filter.Type(); ft == nil || ft.Underlying().Kind != types.KindBool {
				return false, malformed(h.Filter, ft, "filter must be logical")
			}
		}
		if len(h.Codes) > 255 {
			return false, malformed(n, tr.Typ, "too many error codes in one clause")
		}
	}
	arm := branchShape(tr.Typ, shape)
	keep := pushes(tr.Typ, shape)
	d0 := u.depth

	var leases []*local
	defer func() {
		for i := len(leases) - 1; i >= 0; i-- {
			u.release(leases[i])
		}
	}()
	var result *local
	if keep {
		result = u.lease(tr.Typ)
		leases = append(leases, result)
		u.emitDefault(tr.Typ)
		u.emitSlot(vm.OP_STLOC, result.Slot)
	}
	// The VM writes a caught error into a local, so every catch
	// variable gets one even when it is captured
	catchVars := make([]*local, len(tr.Handlers))
	for i, h := range tr.Handlers {
		if h.Var == nil {
			continue
		}
		if _, dup := u.vars[h.Var]; dup {
			return false, malformed(n, h.Var.Type, "variable %s declared twice", h.Var.Name)
		}
		catchVars[i] = u.lease(h.Var.Type)
		leases = append(leases, catchVars[i])
	}

	end := u.newLabel()
	pushed := 0
	var finL, faultL *label
	if tr.Finally != nil {
		finL = u.newLabel()
		u.emit(vm.OP_ENTER_FINALLY)
		u.target(finL)
		u.pushRegion(false)
		pushed++
	}
	if tr.Fault != nil {
		faultL = u.newLabel()
		u.emit(vm.OP_ENTER_FAULT)
		u.target(faultL)
		u.pushRegion(false)
		pushed++
	}
	handlerLs := make([]*label, len(tr.Handlers))
	filterLs := make([]*label, len(tr.Handlers))
	if len(tr.Handlers) > 0 {
		u.emit(vm.OP_ENTER_TRY)
		u.emitByte(byte(len(tr.Handlers)))
		for i, h := range tr.Handlers {
			u.emitByte(byte(len(h.Codes)))
			for _, c := range h.Codes {
				u.emitByte(byte(c))
			}
			if catchVars[i] != nil {
				u.emitByte(byte(catchVars[i].Slot + 1))
			} else {
				u.emitByte(0)
			}
			if h.Filter != nil {
				filterLs[i] = u.newLabel()
				u.target(filterLs[i])
			} else {
				u.emitShort(vm.NoTarget)
			}
			handlerLs[i] = u.newLabel()
			u.target(handlerLs[i])
		}
		u.pushRegion(false)
		pushed++
	}

	if _, err := u.guarded(tr.Body, arm); err != nil {
		return false, err
	}
	if keep {
		u.emitSlot(vm.OP_STLOC, result.Slot)
	}
	if u.reachable {
		u.leave(pushed, end)
	}

	if len(tr.Handlers) > 0 {
		u.popRegion()
		pushed--
		for i, h := range tr.Handlers {
			u.placeAt(handlerLs[i], d0)
			if err := u.bindCatchVar(h.Var, catchVars[i]); err != nil {
				return false, err
			}
			if _, err := u.guarded(h.Body, arm); err != nil {
				return false, err
			}
			if keep {
				u.emitSlot(vm.OP_STLOC, result.Slot)
			}
			if u.reachable {
				u.leave(pushed, end)
			}
			if h.Filter == nil {
				continue
			}
			u.placeAt(filterLs[i], d0)
			u.pushRegion(true)
			u.filters++
			if err := u.bindCatchVar(h.Var, catchVars[i]); err != nil {
				return false, err
			}
			_, err := u.guarded(h.Filter, ShapeValue)
			u.filters--
			u.popRegion()
			if err != nil {
				return false, err
			}
			u.emit(vm.OP_END_FILTER)
		}
		for _, h := range tr.Handlers {
			if h.Var != nil {
				u.undeclare(h.Var)
			}
		}
	}

	for _, blk := range []struct {
		l    *label
		body tree.Node
	}{{faultL, tr.Fault}, {finL, tr.Finally}} {
		if blk.body == nil {
			continue
		}
		u.popRegion()
		u.placeAt(blk.l, d0)
		u.pushRegion(true)
		_, err := u.guarded(blk.body, ShapeVoid)
		u.popRegion()
		if err != nil {
			return false, err
		}
		u.emit(vm.OP_END_FINALLY)
	}

	u.placeAt(end, d0)
	if keep {
		u.emitSlot(vm.OP_LDLOC, result.Slot)
	}
	return false, nil
}

// bindCatchVar makes a caught error visible under its variable. A
// captured variable is copied from the VM's local into the record.
func (u *unit) bindCatchVar(v *tree.Var, slot *local) error {
	if v == nil {
		return nil
	}
	if !u.s.caps.captured[v] {
		u.vars[v] = binding{kind: bindLocal, slot: slot.Slot}
		return nil
	}
	b := binding{kind: bindCaptured, owner: u.lambda, field: u.s.caps.fieldOf(v)}
	u.vars[v] = b
	if err := u.pushRecord(b.owner); err != nil {
		return err
	}
	u.emitSlot(vm.OP_LDLOC, slot.Slot)
	u.emitSlot(vm.OP_STFLD, b.field)
	return nil
}
