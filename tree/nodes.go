package tree

import "stackc/types"

// Constant is a literal value of a known static type
type Constant struct {
	Pos   Position
	Value types.Value
	Typ   *types.Type
}

func (n *Constant) Kind() Kind         { return KindConstant }
func (n *Constant) Type() *types.Type  { return n.Typ }
func (n *Constant) Position() Position { return n.Pos }

// DefaultExpr produces the static default of its type
type DefaultExpr struct {
	Pos Position
	Typ *types.Type
}

func (n *DefaultExpr) Kind() Kind         { return KindDefault }
func (n *DefaultExpr) Type() *types.Type  { return n.Typ }
func (n *DefaultExpr) Position() Position { return n.Pos }

// VariableExpr references a parameter, block variable or catch variable
type VariableExpr struct {
	Pos Position
	Var *Var
}

func (n *VariableExpr) Kind() Kind         { return KindVariable }
func (n *VariableExpr) Type() *types.Type  { return n.Var.Type }
func (n *VariableExpr) Position() Position { return n.Pos }

// Unary applies a prefix operator
type Unary struct {
	Pos     Position
	Op      UnaryOp
	Operand Node
	Typ     *types.Type
}

func (n *Unary) Kind() Kind         { return KindUnary }
func (n *Unary) Type() *types.Type  { return n.Typ }
func (n *Unary) Position() Position { return n.Pos }

// Binary applies an infix operator
type Binary struct {
	Pos   Position
	Op    BinaryOp
	Left  Node
	Right Node
	Typ   *types.Type
}

func (n *Binary) Kind() Kind         { return KindBinary }
func (n *Binary) Type() *types.Type  { return n.Typ }
func (n *Binary) Position() Position { return n.Pos }

// Member reads a named member of its target: a struct or class field,
// HasValue/Value of an optional, or Length of an array or string.
type Member struct {
	Pos    Position
	Target Node
	Name   string
	Typ    *types.Type
}

func (n *Member) Kind() Kind         { return KindMember }
func (n *Member) Type() *types.Type  { return n.Typ }
func (n *Member) Position() Position { return n.Pos }

// Index reads one array element
type Index struct {
	Pos   Position
	Array Node
	Index Node
	Typ   *types.Type
}

func (n *Index) Kind() Kind         { return KindIndex }
func (n *Index) Type() *types.Type  { return n.Typ }
func (n *Index) Position() Position { return n.Pos }

// Call invokes a host method by name. A non-nil Receiver is passed as
// the first argument and is null-checked like a member target.
type Call struct {
	Pos      Position
	Method   string
	Receiver Node
	Args     []Node
	Typ      *types.Type
}

func (n *Call) Kind() Kind         { return KindCall }
func (n *Call) Type() *types.Type  { return n.Typ }
func (n *Call) Position() Position { return n.Pos }

// Invoke calls a function-typed value
type Invoke struct {
	Pos    Position
	Target Node
	Args   []Node
	Typ    *types.Type
}

func (n *Invoke) Kind() Kind         { return KindInvoke }
func (n *Invoke) Type() *types.Type  { return n.Typ }
func (n *Invoke) Position() Position { return n.Pos }

// Conditional evaluates Then or Else depending on Test. Else may be nil
// when the conditional is void.
type Conditional struct {
	Pos  Position
	Test Node
	Then Node
	Else Node
	Typ  *types.Type
}

func (n *Conditional) Kind() Kind         { return KindConditional }
func (n *Conditional) Type() *types.Type  { return n.Typ }
func (n *Conditional) Position() Position { return n.Pos }

// Block declares scoped variables and evaluates its body in order.
// The value of the last expression is the value of the block.
type Block struct {
	Pos  Position
	Vars []*Var
	Body []Node
	Typ  *types.Type
}

func (n *Block) Kind() Kind         { return KindBlock }
func (n *Block) Type() *types.Type  { return n.Typ }
func (n *Block) Position() Position { return n.Pos }

// Loop repeats Body until a goto leaves it. Break receives the loop's
// value; Continue restarts the body.
type Loop struct {
	Pos      Position
	Body     Node
	Break    *LabelTarget
	Continue *LabelTarget
	Typ      *types.Type
}

func (n *Loop) Kind() Kind         { return KindLoop }
func (n *Loop) Type() *types.Type  { return n.Typ }
func (n *Loop) Position() Position { return n.Pos }

// SwitchCase is one arm of a Switch. A types.Null test value marks the
// case that receives an absent selector.
type SwitchCase struct {
	Values []types.Value
	Body   Node
}

// IsNullCase reports whether the case handles an absent selector
func (c SwitchCase) IsNullCase() bool {
	for _, v := range c.Values {
		if types.IsNull(v) {
			return true
		}
	}
	return false
}

// Switch dispatches on a scalar or string selector
type Switch struct {
	Pos      Position
	Selector Node
	Cases    []SwitchCase
	Default  Node
	Typ      *types.Type
}

func (n *Switch) Kind() Kind         { return KindSwitch }
func (n *Switch) Type() *types.Type  { return n.Typ }
func (n *Switch) Position() Position { return n.Pos }

// Handler is one catch clause. Empty Codes catches every error. Var,
// when set, receives the caught error; Filter, when set, must evaluate
// to true for the clause to apply.
type Handler struct {
	Codes  []types.ErrorCode
	Var    *Var
	Filter Node
	Body   Node
}

// Try runs Body in a protected region
type Try struct {
	Pos      Position
	Body     Node
	Handlers []Handler
	Finally  Node
	Fault    Node
	Typ      *types.Type
}

func (n *Try) Kind() Kind         { return KindTry }
func (n *Try) Type() *types.Type  { return n.Typ }
func (n *Try) Position() Position { return n.Pos }

// Throw raises an error value. Its type is the type of the position it
// occupies; it never completes normally.
type Throw struct {
	Pos   Position
	Value Node
	Typ   *types.Type
}

func (n *Throw) Kind() Kind         { return KindThrow }
func (n *Throw) Type() *types.Type  { return n.Typ }
func (n *Throw) Position() Position { return n.Pos }

// Convert changes the static type of its operand
type Convert struct {
	Pos     Position
	Operand Node
	Typ     *types.Type
}

func (n *Convert) Kind() Kind         { return KindConvert }
func (n *Convert) Type() *types.Type  { return n.Typ }
func (n *Convert) Position() Position { return n.Pos }

// Binding assigns one member of a New expression
type Binding struct {
	Name  string
	Value Node
}

// New constructs a struct or class with its parameterless constructor,
// then applies Bindings in order.
type New struct {
	Pos      Position
	Typ      *types.Type
	Bindings []Binding
}

func (n *New) Kind() Kind         { return KindNew }
func (n *New) Type() *types.Type  { return n.Typ }
func (n *New) Position() Position { return n.Pos }

// NewArray allocates an array by Length, or from Items when Length is nil
type NewArray struct {
	Pos    Position
	Length Node
	Items  []Node
	Typ    *types.Type
}

func (n *NewArray) Kind() Kind         { return KindNewArray }
func (n *NewArray) Type() *types.Type  { return n.Typ }
func (n *NewArray) Position() Position { return n.Pos }

// Assign stores Value into the location denoted by Target and yields it
type Assign struct {
	Pos    Position
	Target Node
	Value  Node
}

func (n *Assign) Kind() Kind         { return KindAssign }
func (n *Assign) Type() *types.Type  { return n.Target.Type() }
func (n *Assign) Position() Position { return n.Pos }

// Lambda is a callable with fixed parameters. The root of every
// compilation is a Lambda.
type Lambda struct {
	Pos    Position
	Name   string
	Params []*Var
	Body   Node
	Typ    *types.Type
}

func (n *Lambda) Kind() Kind         { return KindLambda }
func (n *Lambda) Type() *types.Type  { return n.Typ }
func (n *Lambda) Position() Position { return n.Pos }

// Result is the declared result type of the lambda
func (n *Lambda) Result() *types.Type { return n.Typ.Result }

// Goto jumps to Target, carrying Value when the target is typed
type Goto struct {
	Pos    Position
	Target *LabelTarget
	Value  Node
	Typ    *types.Type
}

func (n *Goto) Kind() Kind         { return KindGoto }
func (n *Goto) Type() *types.Type  { return n.Typ }
func (n *Goto) Position() Position { return n.Pos }

// Label marks the position of Target. Falling into the label yields
// Default (or the zero value of the target type when Default is nil).
type Label struct {
	Pos     Position
	Target  *LabelTarget
	Default Node
}

func (n *Label) Kind() Kind         { return KindLabel }
func (n *Label) Type() *types.Type  { return n.Target.Type }
func (n *Label) Position() Position { return n.Pos }

// Coalesce yields Left unless it is null or absent, else Right
type Coalesce struct {
	Pos   Position
	Left  Node
	Right Node
	Typ   *types.Type
}

func (n *Coalesce) Kind() Kind         { return KindCoalesce }
func (n *Coalesce) Type() *types.Type  { return n.Typ }
func (n *Coalesce) Position() Position { return n.Pos }
