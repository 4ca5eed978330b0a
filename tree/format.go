package tree

import (
	"fmt"
	"strings"
)

// Format renders a tree as a single-line s-expression for diagnostics
func Format(n Node) string {
	var sb strings.Builder
	format(&sb, n)
	return sb.String()
}

func format(sb *strings.Builder, n Node) {
	if n == nil {
		sb.WriteString("nil")
		return
	}
	switch n := n.(type) {
	case *Constant:
		fmt.Fprintf(sb, "(const %s %s)", n.Value, n.Typ)
	case *DefaultExpr:
		fmt.Fprintf(sb, "(default %s)", n.Typ)
	case *VariableExpr:
		sb.WriteString(n.Var.Name)
	case *Unary:
		list(sb, n.Op.String(), n.Operand)
	case *Binary:
		list(sb, n.Op.String(), n.Left, n.Right)
	case *Member:
		sb.WriteString("(. ")
		format(sb, n.Target)
		fmt.Fprintf(sb, " %s)", n.Name)
	case *Index:
		list(sb, "[]", n.Array, n.Index)
	case *Call:
		head := "call " + n.Method
		if n.Receiver != nil {
			list(sb, head, append([]Node{n.Receiver}, n.Args...)...)
		} else {
			list(sb, head, n.Args...)
		}
	case *Invoke:
		list(sb, "invoke", append([]Node{n.Target}, n.Args...)...)
	case *Conditional:
		if n.Else == nil {
			list(sb, "if", n.Test, n.Then)
		} else {
			list(sb, "if", n.Test, n.Then, n.Else)
		}
	case *Block:
		sb.WriteString("(block")
		if len(n.Vars) > 0 {
			sb.WriteString(" [")
			sb.WriteString(varList(n.Vars))
			sb.WriteString("]")
		}
		for _, c := range n.Body {
			sb.WriteByte(' ')
			format(sb, c)
		}
		sb.WriteByte(')')
	case *Loop:
		head := "loop"
		if n.Break != nil {
			head += " break:" + n.Break.Name
		}
		if n.Continue != nil {
			head += " continue:" + n.Continue.Name
		}
		list(sb, head, n.Body)
	case *Switch:
		sb.WriteString("(switch ")
		format(sb, n.Selector)
		for _, c := range n.Cases {
			sb.WriteString(" (case")
			for _, v := range c.Values {
				sb.WriteByte(' ')
				sb.WriteString(v.String())
			}
			sb.WriteByte(' ')
			format(sb, c.Body)
			sb.WriteByte(')')
		}
		if n.Default != nil {
			sb.WriteByte(' ')
			list(sb, "default", n.Default)
		}
		sb.WriteByte(')')
	case *Try:
		sb.WriteString("(try ")
		format(sb, n.Body)
		for _, h := range n.Handlers {
			sb.WriteString(" (catch")
			for _, c := range h.Codes {
				sb.WriteByte(' ')
				sb.WriteString(c.String())
			}
			if h.Var != nil {
				sb.WriteString(" " + h.Var.Name)
			}
			if h.Filter != nil {
				sb.WriteByte(' ')
				list(sb, "when", h.Filter)
			}
			sb.WriteByte(' ')
			format(sb, h.Body)
			sb.WriteByte(')')
		}
		if n.Finally != nil {
			sb.WriteByte(' ')
			list(sb, "finally", n.Finally)
		}
		if n.Fault != nil {
			sb.WriteByte(' ')
			list(sb, "fault", n.Fault)
		}
		sb.WriteByte(')')
	case *Throw:
		list(sb, "throw", n.Value)
	case *Convert:
		list(sb, "convert "+n.Typ.String(), n.Operand)
	case *New:
		fmt.Fprintf(sb, "(new %s", n.Typ)
		for _, b := range n.Bindings {
			fmt.Fprintf(sb, " (%s ", b.Name)
			format(sb, b.Value)
			sb.WriteByte(')')
		}
		sb.WriteByte(')')
	case *NewArray:
		if n.Length != nil {
			list(sb, "newarray "+n.Typ.Elem.String(), n.Length)
		} else {
			list(sb, "array "+n.Typ.Elem.String(), n.Items...)
		}
	case *Assign:
		list(sb, "=", n.Target, n.Value)
	case *Lambda:
		sb.WriteString("(lambda")
		if n.Name != "" {
			sb.WriteString(" " + n.Name)
		}
		fmt.Fprintf(sb, " [%s] ", varList(n.Params))
		format(sb, n.Body)
		sb.WriteByte(')')
	case *Goto:
		if n.Value == nil {
			fmt.Fprintf(sb, "(goto %s)", n.Target.Name)
		} else {
			list(sb, "goto "+n.Target.Name, n.Value)
		}
	case *Label:
		if n.Default == nil {
			fmt.Fprintf(sb, "(label %s)", n.Target.Name)
		} else {
			list(sb, "label "+n.Target.Name, n.Default)
		}
	case *Coalesce:
		list(sb, "??", n.Left, n.Right)
	default:
		fmt.Fprintf(sb, "(%s)", n.Kind())
	}
}

func list(sb *strings.Builder, head string, items ...Node) {
	sb.WriteByte('(')
	sb.WriteString(head)
	for _, it := range items {
		sb.WriteByte(' ')
		format(sb, it)
	}
	sb.WriteByte(')')
}

func varList(vars []*Var) string {
	parts := make([]string, len(vars))
	for i, v := range vars {
		parts[i] = v.Name + " " + v.Type.String()
	}
	return strings.Join(parts, ", ")
}

