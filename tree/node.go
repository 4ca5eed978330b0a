package tree

import (
	"fmt"

	"stackc/types"
)

// Position locates a node in whatever source the tree was built from.
// The zero Position means "no sequence point".
type Position struct {
	Line   int
	Column int
}

// IsValid reports whether the position carries a line
func (p Position) IsValid() bool {
	return p.Line > 0
}

func (p Position) String() string {
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// Kind is the closed enumeration of node kinds
type Kind int

const (
	KindConstant Kind = iota
	KindDefault
	KindVariable
	KindUnary
	KindBinary
	KindMember
	KindIndex
	KindCall
	KindInvoke
	KindConditional
	KindBlock
	KindLoop
	KindSwitch
	KindTry
	KindThrow
	KindConvert
	KindNew
	KindNewArray
	KindAssign
	KindLambda
	KindGoto
	KindLabel
	KindCoalesce

	NumKinds // Number of node kinds; sizes the emitter table
)

var kindNames = [NumKinds]string{
	KindConstant:    "const",
	KindDefault:     "default",
	KindVariable:    "var",
	KindUnary:       "unary",
	KindBinary:      "binary",
	KindMember:      "member",
	KindIndex:       "index",
	KindCall:        "call",
	KindInvoke:      "invoke",
	KindConditional: "if",
	KindBlock:       "block",
	KindLoop:        "loop",
	KindSwitch:      "switch",
	KindTry:         "try",
	KindThrow:       "throw",
	KindConvert:     "convert",
	KindNew:         "new",
	KindNewArray:    "newarray",
	KindAssign:      "assign",
	KindLambda:      "lambda",
	KindGoto:        "goto",
	KindLabel:       "label",
	KindCoalesce:    "coalesce",
}

func (k Kind) String() string {
	if k >= 0 && k < NumKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Node is one element of a computation tree. Nodes are immutable once
// built; the compiler only reads them and may visit one node many times.
type Node interface {
	Kind() Kind
	Type() *types.Type
	Position() Position
}

// Var is a variable symbol: a lambda parameter, a block variable or a
// catch variable. Identity is by pointer.
type Var struct {
	Name string
	Type *types.Type
}

// NewVar declares a variable symbol
func NewVar(name string, t *types.Type) *Var {
	return &Var{Name: name, Type: t}
}

func (v *Var) String() string {
	return v.Name
}

// LabelTarget is a jump destination symbol. A typed target receives the
// value carried by gotos.
type LabelTarget struct {
	Name string
	Type *types.Type
}

// NewLabelTarget declares a label symbol; t may be nil for void labels
func NewLabelTarget(name string, t *types.Type) *LabelTarget {
	if t == nil {
		t = types.Void
	}
	return &LabelTarget{Name: name, Type: t}
}

// UnaryOp enumerates unary operators
type UnaryOp int

const (
	OpNegate UnaryOp = iota
	OpNot
	OpBitNot
	OpIsNull
)

var unaryNames = []string{
	OpNegate: "neg",
	OpNot:    "not",
	OpBitNot: "bitnot",
	OpIsNull: "isnull",
}

func (op UnaryOp) String() string {
	if op >= 0 && int(op) < len(unaryNames) {
		return unaryNames[op]
	}
	return "unary?"
}

// BinaryOp enumerates binary operators
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpAndAlso
	OpOrElse
	OpEqual
	OpNotEqual
	OpLess
	OpLessOrEqual
	OpGreater
	OpGreaterOrEqual
)

var binaryNames = []string{
	OpAdd:            "add",
	OpSub:            "sub",
	OpMul:            "mul",
	OpDiv:            "div",
	OpMod:            "mod",
	OpBitAnd:         "bitand",
	OpBitOr:          "bitor",
	OpBitXor:         "bitxor",
	OpShl:            "shl",
	OpShr:            "shr",
	OpAndAlso:        "and",
	OpOrElse:         "or",
	OpEqual:          "eq",
	OpNotEqual:       "ne",
	OpLess:           "lt",
	OpLessOrEqual:    "le",
	OpGreater:        "gt",
	OpGreaterOrEqual: "ge",
}

func (op BinaryOp) String() string {
	if op >= 0 && int(op) < len(binaryNames) {
		return binaryNames[op]
	}
	return "binary?"
}

// BinaryOpFromString looks an operator up by its short name
func BinaryOpFromString(s string) (BinaryOp, bool) {
	for i, name := range binaryNames {
		if name == s {
			return BinaryOp(i), true
		}
	}
	return 0, false
}

// UnaryOpFromString looks an operator up by its short name
func UnaryOpFromString(s string) (UnaryOp, bool) {
	for i, name := range unaryNames {
		if name == s {
			return UnaryOp(i), true
		}
	}
	return 0, false
}

// IsArithmetic reports + - * / %
func (op BinaryOp) IsArithmetic() bool {
	return op <= OpMod
}

// IsBitwise reports & | ^ << >>
func (op BinaryOp) IsBitwise() bool {
	return op >= OpBitAnd && op <= OpShr
}

// IsLogical reports the short-circuit operators
func (op BinaryOp) IsLogical() bool {
	return op == OpAndAlso || op == OpOrElse
}

// IsEquality reports == and !=
func (op BinaryOp) IsEquality() bool {
	return op == OpEqual || op == OpNotEqual
}

// IsOrdering reports < <= > >=
func (op BinaryOp) IsOrdering() bool {
	return op >= OpLess && op <= OpGreaterOrEqual
}
