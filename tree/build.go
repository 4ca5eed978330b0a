package tree

import "stackc/types"

// Constructors compute the static result type of the node they build.
// A nil result type marks a node that cannot be typed; the compiler
// rejects it as malformed.

// Const builds a constant, inferring its type from the value
func Const(v types.Value) *Constant {
	return &Constant{Value: v, Typ: ValueType(v)}
}

// ConstOf builds a constant of an explicit type
func ConstOf(v types.Value, t *types.Type) *Constant {
	return &Constant{Value: v, Typ: t}
}

// ValueType infers the static type of a scalar or string value
func ValueType(v types.Value) *types.Type {
	switch x := v.(type) {
	case types.IntValue:
		return types.Int
	case types.UIntValue:
		return types.UInt
	case types.FloatValue:
		return types.Float
	case types.BoolValue:
		return types.Bool
	case types.StrValue:
		return types.Str
	case types.ErrValue:
		return types.Err
	case types.OptionalValue:
		if x.HasValue() {
			if inner := ValueType(x.Value()); inner != nil {
				return types.OptionalOf(inner)
			}
		}
	case types.StructValue:
		return x.StaticType()
	}
	return nil
}

// Default builds a default-value node
func Default(t *types.Type) *DefaultExpr {
	return &DefaultExpr{Typ: t}
}

// Ref builds a variable reference
func Ref(v *Var) *VariableExpr {
	return &VariableExpr{Var: v}
}

// MakeUnary builds a unary operation
func MakeUnary(op UnaryOp, x Node) *Unary {
	return &Unary{Op: op, Operand: x, Typ: UnaryType(op, x.Type())}
}

// UnaryType computes the result type of a unary operator
func UnaryType(op UnaryOp, t *types.Type) *types.Type {
	if t == nil {
		return nil
	}
	if op == OpIsNull {
		return types.Bool
	}
	return t
}

func Negate(x Node) *Unary { return MakeUnary(OpNegate, x) }
func Not(x Node) *Unary    { return MakeUnary(OpNot, x) }
func BitNot(x Node) *Unary { return MakeUnary(OpBitNot, x) }
func IsNull(x Node) *Unary { return MakeUnary(OpIsNull, x) }

// MakeBinary builds a binary operation
func MakeBinary(op BinaryOp, l, r Node) *Binary {
	return &Binary{Op: op, Left: l, Right: r, Typ: BinaryType(op, l.Type(), r.Type())}
}

// BinaryType computes the result type of a binary operator. Optional
// operands lift the result; equality always yields a definite bool.
func BinaryType(op BinaryOp, l, r *types.Type) *types.Type {
	if l == nil || r == nil {
		return nil
	}
	lifted := l.IsOptional() || r.IsOptional()
	switch {
	case op.IsEquality():
		return types.Bool
	case op.IsOrdering(), op.IsLogical():
		if lifted {
			return types.OptionalBool
		}
		return types.Bool
	}
	if lifted {
		return types.OptionalOf(l.Underlying())
	}
	return l
}

func Add(l, r Node) *Binary            { return MakeBinary(OpAdd, l, r) }
func Sub(l, r Node) *Binary            { return MakeBinary(OpSub, l, r) }
func Mul(l, r Node) *Binary            { return MakeBinary(OpMul, l, r) }
func Div(l, r Node) *Binary            { return MakeBinary(OpDiv, l, r) }
func Mod(l, r Node) *Binary            { return MakeBinary(OpMod, l, r) }
func AndAlso(l, r Node) *Binary        { return MakeBinary(OpAndAlso, l, r) }
func OrElse(l, r Node) *Binary         { return MakeBinary(OpOrElse, l, r) }
func Equal(l, r Node) *Binary          { return MakeBinary(OpEqual, l, r) }
func NotEqual(l, r Node) *Binary       { return MakeBinary(OpNotEqual, l, r) }
func Less(l, r Node) *Binary           { return MakeBinary(OpLess, l, r) }
func LessOrEqual(l, r Node) *Binary    { return MakeBinary(OpLessOrEqual, l, r) }
func Greater(l, r Node) *Binary        { return MakeBinary(OpGreater, l, r) }
func GreaterOrEqual(l, r Node) *Binary { return MakeBinary(OpGreaterOrEqual, l, r) }

// Field builds a member access
func Field(target Node, name string) *Member {
	return &Member{Target: target, Name: name, Typ: MemberType(target.Type(), name)}
}

// MemberType resolves the type of a named member, or nil if t has no
// such member
func MemberType(t *types.Type, name string) *types.Type {
	if t == nil {
		return nil
	}
	switch {
	case t.HasFields():
		if i, ok := t.FieldIndex(name); ok {
			return t.Fields[i].Type
		}
	case t.IsOptional():
		switch name {
		case "HasValue":
			return types.Bool
		case "Value":
			return t.Elem
		}
	case t.Kind == types.KindArray, t.Kind == types.KindStr:
		if name == "Length" {
			return types.Int
		}
	}
	return nil
}

// Elem builds an array element access
func Elem(array, index Node) *Index {
	n := &Index{Array: array, Index: index}
	if t := array.Type(); t != nil && t.Kind == types.KindArray {
		n.Typ = t.Elem
	}
	return n
}

// HostCall builds a host method call with a declared result type
func HostCall(method string, result *types.Type, args ...Node) *Call {
	return &Call{Method: method, Args: args, Typ: result}
}

// MethodCall builds a host method call on a receiver
func MethodCall(receiver Node, method string, result *types.Type, args ...Node) *Call {
	return &Call{Method: method, Receiver: receiver, Args: args, Typ: result}
}

// InvokeOf builds a call of a function-typed value
func InvokeOf(target Node, args ...Node) *Invoke {
	n := &Invoke{Target: target, Args: args}
	if t := target.Type(); t != nil && t.Kind == types.KindFunc {
		n.Typ = t.Result
	}
	return n
}

// If builds a conditional. A nil els makes a void conditional.
func If(test, then, els Node) *Conditional {
	n := &Conditional{Test: test, Then: then, Else: els, Typ: types.Void}
	if els != nil {
		n.Typ = then.Type()
	}
	return n
}

// MakeBlock builds a block typed by its last expression
func MakeBlock(vars []*Var, body ...Node) *Block {
	n := &Block{Vars: vars, Body: body, Typ: types.Void}
	if len(body) > 0 {
		n.Typ = body[len(body)-1].Type()
	}
	return n
}

// MakeLoop builds a loop typed by its break label
func MakeLoop(body Node, brk, cont *LabelTarget) *Loop {
	n := &Loop{Body: body, Break: brk, Continue: cont, Typ: types.Void}
	if brk != nil {
		n.Typ = brk.Type
	}
	return n
}

// Case builds a switch arm
func Case(body Node, values ...types.Value) SwitchCase {
	return SwitchCase{Values: values, Body: body}
}

// MakeSwitch builds a switch; its type is the type of the default body,
// or of the first case when there is no default
func MakeSwitch(selector Node, def Node, cases ...SwitchCase) *Switch {
	n := &Switch{Selector: selector, Cases: cases, Default: def, Typ: types.Void}
	switch {
	case def != nil:
		n.Typ = def.Type()
	case len(cases) > 0:
		n.Typ = cases[0].Body.Type()
	}
	return n
}

// Catch builds a handler for the given codes
func Catch(v *Var, body Node, codes ...types.ErrorCode) Handler {
	return Handler{Codes: codes, Var: v, Body: body}
}

// CatchIf builds a filtered handler
func CatchIf(v *Var, filter, body Node, codes ...types.ErrorCode) Handler {
	return Handler{Codes: codes, Var: v, Filter: filter, Body: body}
}

// TryCatch builds a protected region with handlers
func TryCatch(body Node, handlers ...Handler) *Try {
	return &Try{Body: body, Handlers: handlers, Typ: body.Type()}
}

// TryFinally builds a protected region with a finally block
func TryFinally(body, finally Node) *Try {
	return &Try{Body: body, Finally: finally, Typ: body.Type()}
}

// TryFault builds a protected region with a fault block
func TryFault(body, fault Node) *Try {
	return &Try{Body: body, Fault: fault, Typ: body.Type()}
}

// Raise builds a void throw
func Raise(v Node) *Throw {
	return &Throw{Value: v, Typ: types.Void}
}

// RaiseAs builds a throw occupying a position of type t
func RaiseAs(v Node, t *types.Type) *Throw {
	return &Throw{Value: v, Typ: t}
}

// ConvertTo builds a conversion
func ConvertTo(x Node, t *types.Type) *Convert {
	return &Convert{Operand: x, Typ: t}
}

// Bind builds a member binding
func Bind(name string, v Node) Binding {
	return Binding{Name: name, Value: v}
}

// NewOf builds a construction expression
func NewOf(t *types.Type, bindings ...Binding) *New {
	return &New{Typ: t, Bindings: bindings}
}

// NewArrayBounds allocates an array of default elements
func NewArrayBounds(elem *types.Type, length Node) *NewArray {
	return &NewArray{Length: length, Typ: types.ArrayOf(elem)}
}

// NewArrayInit allocates an array holding items
func NewArrayInit(elem *types.Type, items ...Node) *NewArray {
	return &NewArray{Items: items, Typ: types.ArrayOf(elem)}
}

// Set builds an assignment
func Set(target, value Node) *Assign {
	return &Assign{Target: target, Value: value}
}

// Func builds a lambda typed by its body
func Func(name string, params []*Var, body Node) *Lambda {
	return FuncOf(name, params, body.Type(), body)
}

// FuncOf builds a lambda with an explicit result type
func FuncOf(name string, params []*Var, result *types.Type, body Node) *Lambda {
	pts := make([]*types.Type, len(params))
	for i, p := range params {
		pts[i] = p.Type
	}
	return &Lambda{Name: name, Params: params, Body: body, Typ: types.FuncOf(pts, result)}
}

// Jump builds a goto; value may be nil for void targets
func Jump(target *LabelTarget, value Node) *Goto {
	return &Goto{Target: target, Value: value, Typ: types.Void}
}

// Mark builds a label
func Mark(target *LabelTarget, def Node) *Label {
	return &Label{Target: target, Default: def}
}

// CoalesceOf builds left ?? right
func CoalesceOf(l, r Node) *Coalesce {
	n := &Coalesce{Left: l, Right: r, Typ: l.Type()}
	if lt, rt := l.Type(), r.Type(); lt != nil && rt != nil && lt.IsOptional() && !rt.IsOptional() {
		n.Typ = rt
	}
	return n
}
