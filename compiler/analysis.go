package compiler

import "stackc/tree"

// captures is the result of the capture analysis pre-pass: which
// lambda declares each variable, which variables are referenced from a
// nested lambda, and the environment record layout of every lambda
// that owns captured variables.
type captures struct {
	owner    map[*tree.Var]*tree.Lambda
	captured map[*tree.Var]bool
	parent   map[*tree.Lambda]*tree.Lambda
	record   map[*tree.Lambda][]*tree.Var
}

// analyze walks the tree once from root
func analyze(root *tree.Lambda) (*captures, error) {
	c := &captures{
		owner:    make(map[*tree.Var]*tree.Lambda),
		captured: make(map[*tree.Var]bool),
		parent:   make(map[*tree.Lambda]*tree.Lambda),
		record:   make(map[*tree.Lambda][]*tree.Var),
	}
	c.parent[root] = nil
	if err := c.lambda(root); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *captures) declare(v *tree.Var, l *tree.Lambda) {
	if v != nil {
		if _, ok := c.owner[v]; !ok {
			c.owner[v] = l
		}
	}
}

func (c *captures) lambda(l *tree.Lambda) error {
	for _, p := range l.Params {
		c.declare(p, l)
	}
	return c.walk(l.Body, l)
}

func (c *captures) walk(n tree.Node, cur *tree.Lambda) error {
	if n == nil {
		return nil
	}
	switch n := n.(type) {
	case *tree.Lambda:
		if p, seen := c.parent[n]; seen {
			if p != cur {
				return malformed(n, n.Typ, "lambda %q appears under two enclosing lambdas", n.Name)
			}
			return nil
		}
		c.parent[n] = cur
		return c.lambda(n)
	case *tree.VariableExpr:
		if o, ok := c.owner[n.Var]; ok && o != cur && !c.captured[n.Var] {
			c.captured[n.Var] = true
			c.record[o] = append(c.record[o], n.Var)
		}
		return nil
	case *tree.Block:
		for _, v := range n.Vars {
			c.declare(v, cur)
		}
	case *tree.Try:
		for _, h := range n.Handlers {
			c.declare(h.Var, cur)
		}
	}
	for _, child := range tree.Children(n) {
		if err := c.walk(child, cur); err != nil {
			return err
		}
	}
	return nil
}

// fieldOf returns the record field holding a captured variable
func (c *captures) fieldOf(v *tree.Var) int {
	for i, rv := range c.record[c.owner[v]] {
		if rv == v {
			return i + 1
		}
	}
	return -1
}

// hasRecord reports whether l allocates an environment record
func (c *captures) hasRecord(l *tree.Lambda) bool {
	return len(c.record[l]) > 0
}

// recordAbove returns the nearest lambda at or above l that owns a
// record, or nil
func (c *captures) recordAbove(l *tree.Lambda) *tree.Lambda {
	for ; l != nil; l = c.parent[l] {
		if c.hasRecord(l) {
			return l
		}
	}
	return nil
}
