package compiler

import (
	"fmt"
	"strings"

	"stackc/tree"
	"stackc/types"
)

// MalformedTreeError reports a tree the compiler cannot lower: an
// unsupported node kind, an operand type mismatch, a missing accessor,
// or a broken switch, try or goto structure
type MalformedTreeError struct {
	Node tree.Node
	Type *types.Type // Offending type, if any
	Msg  string
}

func (e *MalformedTreeError) Error() string {
	var sb strings.Builder
	sb.WriteString("malformed tree")
	if e.Node != nil {
		if pos := e.Node.Position(); pos.IsValid() {
			fmt.Fprintf(&sb, " at %s", pos)
		}
		fmt.Fprintf(&sb, " (%s)", e.Node.Kind())
	}
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.Type != nil {
		fmt.Fprintf(&sb, " [%s]", e.Type)
	}
	return sb.String()
}

func malformed(n tree.Node, t *types.Type, format string, args ...any) error {
	return &MalformedTreeError{Node: n, Type: t, Msg: fmt.Sprintf(format, args...)}
}

// ClosureRequiredError is returned when a tree captures variables in a
// nested lambda but ForbidClosures is set
type ClosureRequiredError struct {
	Lambda *tree.Lambda // Lambda that would own the environment record
	Var    *tree.Var    // First captured variable
}

func (e *ClosureRequiredError) Error() string {
	name := e.Lambda.Name
	if name == "" {
		name = "<lambda>"
	}
	return fmt.Sprintf("closure required: %s captures %s but closures are forbidden", name, e.Var.Name)
}
