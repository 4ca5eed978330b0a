package treefile

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"stackc/tree"
	"stackc/types"
)

// Write renders a root lambda as a tree document. Struct and class types
// the tree mentions are emitted in a types section ahead of the lambda.
func Write(l *tree.Lambda) ([]byte, error) {
	doc, err := Encode(l)
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(doc)
}

// WriteFile renders l to path
func WriteFile(path string, l *tree.Lambda) error {
	data, err := Write(l)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Encode renders l as a YAML mapping node
func Encode(l *tree.Lambda) (*yaml.Node, error) {
	e := &encoder{
		seen:  make(map[*types.Type]bool),
		vars:  make(map[*tree.Var]string),
		taken: make(map[string]bool),
	}
	body, err := e.lambda(l, false)
	if err != nil {
		return nil, err
	}
	doc := mapping()
	if len(e.nominal) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, t := range e.nominal {
			seq.Content = append(seq.Content, e.declaration(t))
		}
		doc.Content = append(doc.Content, scalar(tagStr, "types"), seq)
	}
	doc.Content = append(doc.Content, scalar(tagStr, "lambda"), body)
	return doc, nil
}

type encoder struct {
	nominal []*types.Type
	seen    map[*types.Type]bool
	vars    map[*tree.Var]string
	taken   map[string]bool
	labels  []map[*tree.LabelTarget]string
}

// use records the nominal types reachable from t
func (e *encoder) use(t *types.Type) {
	if t == nil || e.seen[t] {
		return
	}
	switch t.Kind {
	case types.KindOptional, types.KindArray:
		e.use(t.Elem)
	case types.KindFunc:
		for _, p := range t.Params {
			e.use(p)
		}
		e.use(t.Result)
	case types.KindStruct, types.KindClass:
		e.seen[t] = true
		e.nominal = append(e.nominal, t)
		for _, f := range t.Fields {
			e.use(f.Type)
		}
	}
}

func (e *encoder) typ(t *types.Type) *yaml.Node {
	e.use(t)
	return scalar(tagStr, t.String())
}

func (e *encoder) declaration(t *types.Type) *yaml.Node {
	kind := "struct"
	if t.Kind == types.KindClass {
		kind = "class"
	}
	fields := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, f := range t.Fields {
		m := mapping(scalar(tagStr, "name"), scalar(tagStr, f.Name), scalar(tagStr, "type"), scalar(tagStr, f.Type.String()))
		m.Style = yaml.FlowStyle
		if f.ReadOnly {
			m.Content = append(m.Content, scalar(tagStr, "readonly"), scalar(tagBool, "true"))
		}
		if f.WriteOnly {
			m.Content = append(m.Content, scalar(tagStr, "writeonly"), scalar(tagBool, "true"))
		}
		fields.Content = append(fields.Content, m)
	}
	return mapping(scalar(tagStr, kind), scalar(tagStr, t.Name), scalar(tagStr, "fields"), fields)
}

// varName gives every distinct variable a distinct name so that the
// reader's innermost-first lookup finds the same symbol
func (e *encoder) varName(v *tree.Var) string {
	if name, ok := e.vars[v]; ok {
		return name
	}
	name := v.Name
	for i := 2; e.taken[name]; i++ {
		name = v.Name + "_" + strconv.Itoa(i)
	}
	e.taken[name] = true
	e.vars[v] = name
	return name
}

func (e *encoder) declareVars(vs []*tree.Var) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, v := range vs {
		m := mapping(scalar(tagStr, "name"), scalar(tagStr, e.varName(v)), scalar(tagStr, "type"), e.typ(v.Type))
		m.Style = yaml.FlowStyle
		seq.Content = append(seq.Content, m)
	}
	return seq
}

func (e *encoder) labelName(t *tree.LabelTarget) (*yaml.Node, error) {
	if len(e.labels) > 0 {
		if name, ok := e.labels[len(e.labels)-1][t]; ok {
			return scalar(tagStr, name), nil
		}
	}
	return nil, fmt.Errorf("label %s is used outside its lambda", t.Name)
}

// lambdaLabels lists the label targets l's own body refers to, in order.
// Each must be placed in l itself, by a label node or a loop.
func lambdaLabels(l *tree.Lambda) ([]*tree.LabelTarget, error) {
	var out []*tree.LabelTarget
	seen := make(map[*tree.LabelTarget]bool)
	placed := make(map[*tree.LabelTarget]bool)
	add := func(t *tree.LabelTarget, place bool) {
		if t == nil {
			return
		}
		if place {
			placed[t] = true
		}
		if !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	tree.Inspect(l.Body, func(n tree.Node) bool {
		switch n := n.(type) {
		case *tree.Lambda:
			return false
		case *tree.Loop:
			add(n.Break, true)
			add(n.Continue, true)
		case *tree.Goto:
			add(n.Target, false)
		case *tree.Label:
			add(n.Target, true)
		}
		return true
	})
	for _, t := range out {
		if !placed[t] {
			return nil, fmt.Errorf("label %s is used outside its lambda", t.Name)
		}
	}
	return out, nil
}

func (e *encoder) lambda(l *tree.Lambda, nested bool) (*yaml.Node, error) {
	m := mapping()
	if nested {
		m.Content = append(m.Content, scalar(tagStr, "lambda"), scalar(tagStr, l.Name))
	} else {
		m.Content = append(m.Content, scalar(tagStr, "name"), scalar(tagStr, l.Name))
	}
	if len(l.Params) > 0 {
		m.Content = append(m.Content, scalar(tagStr, "params"), e.declareVars(l.Params))
	}
	if bt := l.Body.Type(); bt == nil || !types.Identical(l.Result(), bt) {
		m.Content = append(m.Content, scalar(tagStr, "result"), e.typ(l.Result()))
	}

	targets, err := lambdaLabels(l)
	if err != nil {
		return nil, err
	}
	names := make(map[*tree.LabelTarget]string, len(targets))
	taken := make(map[string]bool)
	if len(targets) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, t := range targets {
			name := t.Name
			for i := 2; taken[name]; i++ {
				name = t.Name + "_" + strconv.Itoa(i)
			}
			taken[name] = true
			names[t] = name
			lm := mapping(scalar(tagStr, "name"), scalar(tagStr, name))
			lm.Style = yaml.FlowStyle
			if t.Type.Kind != types.KindVoid {
				lm.Content = append(lm.Content, scalar(tagStr, "type"), e.typ(t.Type))
			}
			seq.Content = append(seq.Content, lm)
		}
		m.Content = append(m.Content, scalar(tagStr, "labels"), seq)
	}

	e.labels = append(e.labels, names)
	body, err := e.node(l.Body)
	e.labels = e.labels[:len(e.labels)-1]
	if err != nil {
		return nil, err
	}
	m.Content = append(m.Content, scalar(tagStr, "body"), body)
	return m, nil
}

func (e *encoder) nodes(ns []tree.Node) (*yaml.Node, error) {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
	for _, n := range ns {
		c, err := e.node(n)
		if err != nil {
			return nil, err
		}
		seq.Content = append(seq.Content, c)
	}
	return seq, nil
}

// head builds a node mapping whose first key is the kind
func head(kind string, arg *yaml.Node, attrs ...*yaml.Node) *yaml.Node {
	return mapping(append([]*yaml.Node{scalar(tagStr, kind), arg}, attrs...)...)
}

func (e *encoder) node(n tree.Node) (*yaml.Node, error) {
	switch n := n.(type) {
	case *tree.Constant:
		return e.constant(n)
	case *tree.DefaultExpr:
		return head("default", e.typ(n.Typ)), nil
	case *tree.VariableExpr:
		e.use(n.Var.Type)
		return head("var", scalar(tagStr, e.varName(n.Var))), nil
	case *tree.Unary:
		x, err := e.node(n.Operand)
		if err != nil {
			return nil, err
		}
		return head(n.Op.String(), x), nil
	case *tree.Binary:
		ops, err := e.nodes([]tree.Node{n.Left, n.Right})
		if err != nil {
			return nil, err
		}
		return head(n.Op.String(), ops), nil
	case *tree.Member:
		x, err := e.node(n.Target)
		if err != nil {
			return nil, err
		}
		return head("member", x, scalar(tagStr, "name"), scalar(tagStr, n.Name)), nil
	case *tree.Index:
		ops, err := e.nodes([]tree.Node{n.Array, n.Index})
		if err != nil {
			return nil, err
		}
		return head("index", ops), nil
	case *tree.Call:
		return e.call(n)
	case *tree.Invoke:
		x, err := e.node(n.Target)
		if err != nil {
			return nil, err
		}
		m := head("invoke", x)
		if len(n.Args) > 0 {
			args, err := e.nodes(n.Args)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar(tagStr, "args"), args)
		}
		return m, nil
	case *tree.Conditional:
		parts := []tree.Node{n.Test, n.Then}
		if n.Else != nil {
			parts = append(parts, n.Else)
		}
		ops, err := e.nodes(parts)
		if err != nil {
			return nil, err
		}
		return head("if", ops), nil
	case *tree.Block:
		var vars *yaml.Node
		if len(n.Vars) > 0 {
			vars = e.declareVars(n.Vars)
		}
		body, err := e.nodes(n.Body)
		if err != nil {
			return nil, err
		}
		m := head("block", body)
		if vars != nil {
			m.Content = append(m.Content, scalar(tagStr, "vars"), vars)
		}
		return m, nil
	case *tree.Loop:
		body, err := e.node(n.Body)
		if err != nil {
			return nil, err
		}
		m := head("loop", body)
		for _, l := range []struct {
			key    string
			target *tree.LabelTarget
		}{{"break", n.Break}, {"continue", n.Continue}} {
			if l.target == nil {
				continue
			}
			name, err := e.labelName(l.target)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar(tagStr, l.key), name)
		}
		return m, nil
	case *tree.Switch:
		return e.switchNode(n)
	case *tree.Try:
		return e.try(n)
	case *tree.Throw:
		v, err := e.node(n.Value)
		if err != nil {
			return nil, err
		}
		m := head("throw", v)
		if n.Typ.Kind != types.KindVoid {
			m.Content = append(m.Content, scalar(tagStr, "type"), e.typ(n.Typ))
		}
		return m, nil
	case *tree.Convert:
		x, err := e.node(n.Operand)
		if err != nil {
			return nil, err
		}
		return head("convert", x, scalar(tagStr, "to"), e.typ(n.Typ)), nil
	case *tree.New:
		m := head("new", e.typ(n.Typ))
		if len(n.Bindings) > 0 {
			set := mapping()
			for _, b := range n.Bindings {
				v, err := e.node(b.Value)
				if err != nil {
					return nil, err
				}
				set.Content = append(set.Content, scalar(tagStr, b.Name), v)
			}
			m.Content = append(m.Content, scalar(tagStr, "set"), set)
		}
		return m, nil
	case *tree.NewArray:
		m := head("newarray", e.typ(n.Typ.Elem))
		if n.Length != nil {
			length, err := e.node(n.Length)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar(tagStr, "length"), length)
			return m, nil
		}
		items, err := e.nodes(n.Items)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, scalar(tagStr, "items"), items)
		return m, nil
	case *tree.Assign:
		ops, err := e.nodes([]tree.Node{n.Target, n.Value})
		if err != nil {
			return nil, err
		}
		return head("assign", ops), nil
	case *tree.Lambda:
		return e.lambda(n, true)
	case *tree.Goto:
		name, err := e.labelName(n.Target)
		if err != nil {
			return nil, err
		}
		m := head("goto", name)
		if n.Value != nil {
			v, err := e.node(n.Value)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar(tagStr, "value"), v)
		}
		if n.Typ.Kind != types.KindVoid {
			m.Content = append(m.Content, scalar(tagStr, "type"), e.typ(n.Typ))
		}
		return m, nil
	case *tree.Label:
		name, err := e.labelName(n.Target)
		if err != nil {
			return nil, err
		}
		m := head("label", name)
		if n.Default != nil {
			def, err := e.node(n.Default)
			if err != nil {
				return nil, err
			}
			m.Content = append(m.Content, scalar(tagStr, "default"), def)
		}
		return m, nil
	case *tree.Coalesce:
		ops, err := e.nodes([]tree.Node{n.Left, n.Right})
		if err != nil {
			return nil, err
		}
		return head("coalesce", ops), nil
	}
	return nil, fmt.Errorf("cannot write %T", n)
}

func (e *encoder) constant(n *tree.Constant) (*yaml.Node, error) {
	v, err := EncodeValue(n.Value)
	if err != nil {
		return nil, err
	}
	m := head("const", v)
	if _, t, err := inferConstant(v); err != nil || !types.Identical(t, n.Typ) {
		m.Content = append(m.Content, scalar(tagStr, "type"), e.typ(n.Typ))
	}
	return m, nil
}

func (e *encoder) call(n *tree.Call) (*yaml.Node, error) {
	m := head("call", scalar(tagStr, n.Method))
	if n.Receiver != nil {
		r, err := e.node(n.Receiver)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, scalar(tagStr, "receiver"), r)
	}
	if len(n.Args) > 0 {
		args, err := e.nodes(n.Args)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, scalar(tagStr, "args"), args)
	}
	m.Content = append(m.Content, scalar(tagStr, "type"), e.typ(n.Typ))
	return m, nil
}

func (e *encoder) switchNode(n *tree.Switch) (*yaml.Node, error) {
	sel, err := e.node(n.Selector)
	if err != nil {
		return nil, err
	}
	m := head("switch", sel)
	if len(n.Cases) > 0 {
		cases := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, c := range n.Cases {
			values := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
			for _, v := range c.Values {
				vn, err := EncodeValue(v)
				if err != nil {
					return nil, err
				}
				values.Content = append(values.Content, vn)
			}
			body, err := e.node(c.Body)
			if err != nil {
				return nil, err
			}
			cases.Content = append(cases.Content, mapping(scalar(tagStr, "values"), values, scalar(tagStr, "body"), body))
		}
		m.Content = append(m.Content, scalar(tagStr, "cases"), cases)
	}
	if n.Default != nil {
		def, err := e.node(n.Default)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, scalar(tagStr, "default"), def)
	}
	m.Content = append(m.Content, scalar(tagStr, "type"), e.typ(n.Typ))
	return m, nil
}

func (e *encoder) try(n *tree.Try) (*yaml.Node, error) {
	body, err := e.node(n.Body)
	if err != nil {
		return nil, err
	}
	m := head("try", body)
	if len(n.Handlers) > 0 {
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, h := range n.Handlers {
			hm := mapping()
			if len(h.Codes) > 0 {
				codes := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
				for _, c := range h.Codes {
					codes.Content = append(codes.Content, scalar(tagStr, c.String()))
				}
				hm.Content = append(hm.Content, scalar(tagStr, "codes"), codes)
			}
			if h.Var != nil {
				hm.Content = append(hm.Content, scalar(tagStr, "var"), scalar(tagStr, e.varName(h.Var)))
			}
			if h.Filter != nil {
				f, err := e.node(h.Filter)
				if err != nil {
					return nil, err
				}
				hm.Content = append(hm.Content, scalar(tagStr, "when"), f)
			}
			b, err := e.node(h.Body)
			if err != nil {
				return nil, err
			}
			hm.Content = append(hm.Content, scalar(tagStr, "body"), b)
			seq.Content = append(seq.Content, hm)
		}
		m.Content = append(m.Content, scalar(tagStr, "catch"), seq)
	}
	for _, part := range []struct {
		key  string
		node tree.Node
	}{{"finally", n.Finally}, {"fault", n.Fault}} {
		if part.node == nil {
			continue
		}
		x, err := e.node(part.node)
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, scalar(tagStr, part.key), x)
	}
	return m, nil
}
