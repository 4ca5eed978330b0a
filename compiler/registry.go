package compiler

import (
	"stackc/tree"
	"stackc/types"
	"stackc/vm"
)

// emitFunc lowers one node kind. It reports whether it branched to the
// null label. A Void-typed node leaves nothing in any shape; otherwise
// the node leaves one stack item unless shape is ShapeVoid.
type emitFunc func(u *unit, n tree.Node, null *nullLabel, shape Shape, extend bool) (bool, error)

// emitters is the kind -> emitter table. Every kind has an entry.
var emitters [tree.NumKinds]emitFunc

// addressable kinds may be emitted with ShapeAddress
var addressable = [tree.NumKinds]bool{
	tree.KindVariable: true,
	tree.KindMember:   true,
	tree.KindIndex:    true,
}

func init() {
	emitters = [tree.NumKinds]emitFunc{
		tree.KindConstant:    emitConstant,
		tree.KindDefault:     emitDefaultExpr,
		tree.KindVariable:    emitVariable,
		tree.KindUnary:       emitUnary,
		tree.KindBinary:      emitBinary,
		tree.KindMember:      emitMember,
		tree.KindIndex:       emitIndex,
		tree.KindCall:        emitCall,
		tree.KindInvoke:      emitInvoke,
		tree.KindConditional: emitConditional,
		tree.KindBlock:       emitBlock,
		tree.KindLoop:        emitLoop,
		tree.KindSwitch:      emitSwitch,
		tree.KindTry:         emitTry,
		tree.KindThrow:       emitThrow,
		tree.KindConvert:     emitConvert,
		tree.KindNew:         emitNew,
		tree.KindNewArray:    emitNewArray,
		tree.KindAssign:      emitAssign,
		tree.KindLambda:      emitLambda,
		tree.KindGoto:        emitGoto,
		tree.KindLabel:       emitLabel,
		tree.KindCoalesce:    emitCoalesce,
	}
}

// emitted describes what an emission produced
type emitted struct {
	UsedNull bool
	Type     *types.Type
	Shape    Shape
}

// pushes reports whether a node of type t in shape leaves a stack item
func pushes(t *types.Type, shape Shape) bool {
	return shape != ShapeVoid && t.Kind != types.KindVoid
}

// emitNode dispatches n to its emitter and checks the stack effect
func (u *unit) emitNode(n tree.Node, null *nullLabel, shape Shape, extend bool) (emitted, error) {
	if n == nil {
		return emitted{}, malformed(nil, nil, "missing node")
	}
	k := n.Kind()
	if k < 0 || k >= tree.NumKinds || emitters[k] == nil {
		return emitted{}, malformed(n, n.Type(), "no emitter for node kind %s", k)
	}
	t := n.Type()
	if t == nil {
		return emitted{}, malformed(n, nil, "node has no type")
	}
	if shape == ShapeAddress && (!addressable[k] || t.Kind == types.KindVoid) {
		return emitted{}, malformed(n, t, "expression is not addressable")
	}

	u.sequencePoint(n)
	before := u.depth
	used, err := emitters[k](u, n, null, shape, extend)
	if err != nil {
		return emitted{}, err
	}
	if u.err != nil {
		return emitted{}, &MalformedTreeError{Node: n, Msg: u.err.Error()}
	}
	want := before
	if pushes(t, shape) {
		want++
	}
	if u.depth != want {
		return emitted{}, malformed(n, t, "emitter left stack depth %d, want %d", u.depth, want)
	}
	return emitted{UsedNull: used, Type: t, Shape: shape}, nil
}

// value emits n for its value under null
func (u *unit) value(n tree.Node, null *nullLabel) (bool, error) {
	r, err := u.emitNode(n, null, ShapeValue, false)
	return r.UsedNull, err
}

// valueOf emits n and checks it has type want
func (u *unit) valueOf(n tree.Node, want *types.Type, null *nullLabel) (bool, error) {
	if err := u.expect(n, want); err != nil {
		return false, err
	}
	return u.value(n, null)
}

// guarded emits n under its own null-propagation label. When an inner
// node bails, the stack is realigned to the label depth and the default
// of n's type stands in for its value.
func (u *unit) guarded(n tree.Node, shape Shape) (bool, error) {
	if shape == ShapeAddress {
		return false, malformed(n, n.Type(), "guarded expression cannot yield an address")
	}
	null := u.newNullLabel()
	if _, err := u.emitNode(n, null, shape, false); err != nil {
		return false, err
	}
	if !null.used {
		return false, nil
	}
	end := u.newLabel()
	u.jump(vm.OP_JUMP, end)
	u.place(null.target)
	if pushes(n.Type(), shape) {
		u.emitDefault(n.Type())
	}
	u.place(end)
	return true, nil
}

// expect checks a child's static type
func (u *unit) expect(n tree.Node, want *types.Type) error {
	if n == nil {
		return malformed(nil, want, "missing operand")
	}
	got := n.Type()
	if got == nil {
		return malformed(n, nil, "node has no type")
	}
	if !types.AssignableTo(got, want) {
		return malformed(n, got, "type mismatch: want %s", want)
	}
	return nil
}

// finish drops a pushed value the caller does not want
func (u *unit) finish(t *types.Type, shape Shape) {
	if shape == ShapeVoid && t.Kind != types.KindVoid {
		u.emit(vm.OP_POP)
	}
}
