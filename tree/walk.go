package tree

// Children returns the direct child nodes of n in evaluation order
func Children(n Node) []Node {
	var out []Node
	add := func(c Node) {
		if c != nil {
			out = append(out, c)
		}
	}
	switch n := n.(type) {
	case *Unary:
		add(n.Operand)
	case *Binary:
		add(n.Left)
		add(n.Right)
	case *Member:
		add(n.Target)
	case *Index:
		add(n.Array)
		add(n.Index)
	case *Call:
		add(n.Receiver)
		for _, a := range n.Args {
			add(a)
		}
	case *Invoke:
		add(n.Target)
		for _, a := range n.Args {
			add(a)
		}
	case *Conditional:
		add(n.Test)
		add(n.Then)
		add(n.Else)
	case *Block:
		for _, c := range n.Body {
			add(c)
		}
	case *Loop:
		add(n.Body)
	case *Switch:
		add(n.Selector)
		for _, c := range n.Cases {
			add(c.Body)
		}
		add(n.Default)
	case *Try:
		add(n.Body)
		for _, h := range n.Handlers {
			add(h.Filter)
			add(h.Body)
		}
		add(n.Finally)
		add(n.Fault)
	case *Throw:
		add(n.Value)
	case *Convert:
		add(n.Operand)
	case *New:
		for _, b := range n.Bindings {
			add(b.Value)
		}
	case *NewArray:
		add(n.Length)
		for _, it := range n.Items {
			add(it)
		}
	case *Assign:
		add(n.Target)
		add(n.Value)
	case *Lambda:
		add(n.Body)
	case *Goto:
		add(n.Value)
	case *Label:
		add(n.Default)
	case *Coalesce:
		add(n.Left)
		add(n.Right)
	}
	return out
}

// Inspect traverses the tree depth-first, calling f for each node.
// If f returns false the children of that node are skipped.
func Inspect(n Node, f func(Node) bool) {
	if n == nil || !f(n) {
		return
	}
	for _, c := range Children(n) {
		Inspect(c, f)
	}
}

// Count returns the number of nodes in the tree
func Count(n Node) int {
	count := 0
	Inspect(n, func(Node) bool {
		count++
		return true
	})
	return count
}

// SetPosition records where n came from
func SetPosition(n Node, p Position) {
	switch n := n.(type) {
	case *Constant:
		n.Pos = p
	case *DefaultExpr:
		n.Pos = p
	case *VariableExpr:
		n.Pos = p
	case *Unary:
		n.Pos = p
	case *Binary:
		n.Pos = p
	case *Member:
		n.Pos = p
	case *Index:
		n.Pos = p
	case *Call:
		n.Pos = p
	case *Invoke:
		n.Pos = p
	case *Conditional:
		n.Pos = p
	case *Block:
		n.Pos = p
	case *Loop:
		n.Pos = p
	case *Switch:
		n.Pos = p
	case *Try:
		n.Pos = p
	case *Throw:
		n.Pos = p
	case *Convert:
		n.Pos = p
	case *New:
		n.Pos = p
	case *NewArray:
		n.Pos = p
	case *Assign:
		n.Pos = p
	case *Lambda:
		n.Pos = p
	case *Goto:
		n.Pos = p
	case *Label:
		n.Pos = p
	case *Coalesce:
		n.Pos = p
	}
}
