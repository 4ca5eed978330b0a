// Package treefile reads and writes computation trees as YAML documents.
//
// A document has an optional types section and a root lambda:
//
//	types:
//	  - class: Node
//	    fields:
//	      - {name: x, type: int}
//	      - {name: next, type: Node}
//	lambda:
//	  name: sum
//	  params: [{name: n, type: Node}]
//	  body: {member: {var: n}, name: x}
//
// Every tree node is a mapping whose first key names its kind; the
// remaining keys are that kind's attributes.
package treefile

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"stackc/builtins"
	"stackc/tree"
	"stackc/types"
)

// File is a decoded tree document
type File struct {
	Types  *Types
	Lambda *tree.Lambda
}

// ReadFile reads a tree document from disk
func ReadFile(path string, host *builtins.Registry) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	f, err := Read(data, host)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}

// Read parses a tree document. host resolves the result types of calls
// that do not declare one; nil means the default registry.
func Read(data []byte, host *builtins.Registry) (*File, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("empty tree document")
	}
	return Decode(doc.Content[0], host)
}

// Decode builds a File from an already parsed mapping with types and
// lambda keys
func Decode(n *yaml.Node, host *builtins.Registry) (*File, error) {
	attrs, err := attributes(n, "types", "lambda")
	if err != nil {
		return nil, err
	}
	ts, err := DecodeTypes(attrs["types"])
	if err != nil {
		return nil, err
	}
	if attrs["lambda"] == nil {
		return nil, nodeErrorf(n, "document has no lambda")
	}
	l, err := DecodeLambda(attrs["lambda"], ts, host)
	if err != nil {
		return nil, err
	}
	return &File{Types: ts, Lambda: l}, nil
}

// DecodeTypes reads a types section. Every name is declared before any
// field is resolved, so classes may refer to themselves and each other.
func DecodeTypes(n *yaml.Node) (*Types, error) {
	n = resolve(n)
	ts := NewTypes()
	if isNull(n) {
		return ts, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErrorf(n, "types must be a sequence")
	}

	pending := make([]*yaml.Node, len(n.Content))
	for i, c := range n.Content {
		attrs, err := attributes(c, "struct", "class", "fields")
		if err != nil {
			return nil, err
		}
		var t *types.Type
		switch {
		case attrs["struct"] != nil && attrs["class"] == nil:
			t = types.NewStruct(attrs["struct"].Value)
		case attrs["class"] != nil && attrs["struct"] == nil:
			t = types.NewClass(attrs["class"].Value)
		default:
			return nil, nodeErrorf(c, "declare exactly one of struct or class")
		}
		if err := ts.Declare(t); err != nil {
			return nil, nodeErrorf(c, "%v", err)
		}
		pending[i] = attrs["fields"]
	}

	for i, t := range ts.Declared() {
		fields, err := decodeFields(pending[i], ts)
		if err != nil {
			return nil, err
		}
		t.Fields = fields
	}
	for _, t := range ts.Declared() {
		if t.Kind == types.KindStruct && containsByValue(t, t, nil) {
			return nil, fmt.Errorf("struct %s contains itself", t.Name)
		}
	}
	return ts, nil
}

func decodeFields(n *yaml.Node, ts *Types) ([]types.Field, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErrorf(n, "fields must be a sequence")
	}
	var out []types.Field
	for _, c := range n.Content {
		var f struct {
			Name      string `yaml:"name"`
			Type      string `yaml:"type"`
			ReadOnly  bool   `yaml:"readonly"`
			WriteOnly bool   `yaml:"writeonly"`
		}
		if err := c.Decode(&f); err != nil {
			return nil, nodeErrorf(c, "%v", err)
		}
		if f.Name == "" {
			return nil, nodeErrorf(c, "field has no name")
		}
		t, err := ParseType(f.Type, ts)
		if err != nil {
			return nil, nodeErrorf(c, "%v", err)
		}
		out = append(out, types.Field{Name: f.Name, Type: t, ReadOnly: f.ReadOnly, WriteOnly: f.WriteOnly})
	}
	return out, nil
}

// containsByValue reports whether struct t embeds target through a
// chain of struct-typed fields
func containsByValue(t, target *types.Type, seen map[*types.Type]bool) bool {
	if seen == nil {
		seen = make(map[*types.Type]bool)
	}
	for _, f := range t.Fields {
		if f.Type.Kind != types.KindStruct {
			continue
		}
		if f.Type == target {
			return true
		}
		if !seen[f.Type] {
			seen[f.Type] = true
			if containsByValue(f.Type, target, seen) {
				return true
			}
		}
	}
	return false
}

// DecodeLambda reads a root lambda against the declared types ts
func DecodeLambda(n *yaml.Node, ts *Types, host *builtins.Registry) (*tree.Lambda, error) {
	if host == nil {
		host = builtins.NewRegistry()
	}
	n = resolve(n)
	d := &decoder{types: ts, host: host}
	return d.lambda(n)
}

type decoder struct {
	types  *Types
	host   *builtins.Registry
	scopes []map[string]*tree.Var
	labels []map[string]*tree.LabelTarget
}

func (d *decoder) push(vars []*tree.Var) {
	scope := make(map[string]*tree.Var, len(vars))
	for _, v := range vars {
		scope[v.Name] = v
	}
	d.scopes = append(d.scopes, scope)
}

func (d *decoder) pop() {
	d.scopes = d.scopes[:len(d.scopes)-1]
}

func (d *decoder) lookupVar(n *yaml.Node) (*tree.Var, error) {
	for i := len(d.scopes) - 1; i >= 0; i-- {
		if v, ok := d.scopes[i][n.Value]; ok {
			return v, nil
		}
	}
	return nil, nodeErrorf(n, "undeclared variable %s", n.Value)
}

func (d *decoder) lookupLabel(n *yaml.Node) (*tree.LabelTarget, error) {
	if len(d.labels) > 0 {
		if l, ok := d.labels[len(d.labels)-1][n.Value]; ok {
			return l, nil
		}
	}
	return nil, nodeErrorf(n, "undeclared label %s", n.Value)
}

func (d *decoder) typ(n *yaml.Node) (*types.Type, error) {
	if n == nil || n.Kind != yaml.ScalarNode {
		return nil, nodeErrorf(n, "want a type")
	}
	t, err := ParseType(n.Value, d.types)
	if err != nil {
		return nil, nodeErrorf(n, "%v", err)
	}
	return t, nil
}

// vars reads a sequence of {name, type} declarations
func (d *decoder) vars(n *yaml.Node) ([]*tree.Var, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErrorf(n, "want a sequence of variables")
	}
	out := make([]*tree.Var, 0, len(n.Content))
	names := make(map[string]bool)
	for _, c := range n.Content {
		attrs, err := attributes(c, "name", "type")
		if err != nil {
			return nil, err
		}
		if attrs["name"] == nil || attrs["type"] == nil {
			return nil, nodeErrorf(c, "variable needs a name and a type")
		}
		name := attrs["name"].Value
		if names[name] {
			return nil, nodeErrorf(c, "variable %s declared twice", name)
		}
		names[name] = true
		t, err := d.typ(attrs["type"])
		if err != nil {
			return nil, err
		}
		out = append(out, tree.NewVar(name, t))
	}
	return out, nil
}

// lambda reads a root lambda mapping or a nested lambda node
func (d *decoder) lambda(n *yaml.Node) (*tree.Lambda, error) {
	attrs, err := attributes(n, "lambda", "name", "params", "result", "labels", "body")
	if err != nil {
		return nil, err
	}
	params, err := d.vars(attrs["params"])
	if err != nil {
		return nil, err
	}
	labels := make(map[string]*tree.LabelTarget)
	if ln := attrs["labels"]; !isNull(ln) {
		if ln.Kind != yaml.SequenceNode {
			return nil, nodeErrorf(ln, "labels must be a sequence")
		}
		for _, c := range ln.Content {
			la, err := attributes(c, "name", "type")
			if err != nil {
				return nil, err
			}
			if la["name"] == nil {
				return nil, nodeErrorf(c, "label has no name")
			}
			var t *types.Type
			if la["type"] != nil {
				if t, err = d.typ(la["type"]); err != nil {
					return nil, err
				}
			}
			if _, dup := labels[la["name"].Value]; dup {
				return nil, nodeErrorf(c, "label %s declared twice", la["name"].Value)
			}
			labels[la["name"].Value] = tree.NewLabelTarget(la["name"].Value, t)
		}
	}
	if attrs["body"] == nil {
		return nil, nodeErrorf(n, "lambda has no body")
	}

	d.push(params)
	d.labels = append(d.labels, labels)
	body, err := d.node(attrs["body"])
	d.labels = d.labels[:len(d.labels)-1]
	d.pop()
	if err != nil {
		return nil, err
	}

	name := "lambda"
	switch {
	case attrs["name"] != nil:
		name = attrs["name"].Value
	case attrs["lambda"] != nil && attrs["lambda"].Kind == yaml.ScalarNode && !isNull(attrs["lambda"]):
		name = attrs["lambda"].Value
	}
	var l *tree.Lambda
	if r := attrs["result"]; r != nil {
		rt, err := d.typ(r)
		if err != nil {
			return nil, err
		}
		l = tree.FuncOf(name, params, rt, body)
	} else {
		l = tree.Func(name, params, body)
	}
	tree.SetPosition(l, position(n))
	return l, nil
}

func (d *decoder) nodes(n *yaml.Node) ([]tree.Node, error) {
	if isNull(n) {
		return nil, nil
	}
	if n.Kind != yaml.SequenceNode {
		return nil, nodeErrorf(n, "want a sequence of nodes")
	}
	out := make([]tree.Node, len(n.Content))
	for i, c := range n.Content {
		x, err := d.node(c)
		if err != nil {
			return nil, err
		}
		out[i] = x
	}
	return out, nil
}

// pair reads a two element operand sequence
func (d *decoder) pair(n *yaml.Node) (tree.Node, tree.Node, error) {
	xs, err := d.nodes(n)
	if err != nil {
		return nil, nil, err
	}
	if len(xs) != 2 {
		return nil, nil, nodeErrorf(n, "want two operands, got %d", len(xs))
	}
	return xs[0], xs[1], nil
}

func (d *decoder) node(n *yaml.Node) (tree.Node, error) {
	n = resolve(n)
	if n == nil || n.Kind != yaml.MappingNode || len(n.Content) == 0 {
		return nil, nodeErrorf(n, "want a node mapping")
	}
	head, arg := n.Content[0].Value, n.Content[1]
	x, err := d.decodeKind(head, arg, n)
	if err != nil {
		return nil, err
	}
	tree.SetPosition(x, position(n))
	return x, nil
}

func (d *decoder) decodeKind(head string, arg, n *yaml.Node) (tree.Node, error) {
	if op, ok := tree.UnaryOpFromString(head); ok {
		if _, err := attributes(n, head); err != nil {
			return nil, err
		}
		x, err := d.node(arg)
		if err != nil {
			return nil, err
		}
		return tree.MakeUnary(op, x), nil
	}
	if op, ok := tree.BinaryOpFromString(head); ok {
		if _, err := attributes(n, head); err != nil {
			return nil, err
		}
		l, r, err := d.pair(arg)
		if err != nil {
			return nil, err
		}
		return tree.MakeBinary(op, l, r), nil
	}

	switch head {
	case "const":
		return d.constant(n)
	case "default":
		if _, err := attributes(n, head); err != nil {
			return nil, err
		}
		t, err := d.typ(arg)
		if err != nil {
			return nil, err
		}
		return tree.Default(t), nil
	case "var":
		if _, err := attributes(n, head); err != nil {
			return nil, err
		}
		v, err := d.lookupVar(arg)
		if err != nil {
			return nil, err
		}
		return tree.Ref(v), nil
	case "member":
		return d.member(n)
	case "index":
		if _, err := attributes(n, head); err != nil {
			return nil, err
		}
		a, i, err := d.pair(arg)
		if err != nil {
			return nil, err
		}
		return tree.Elem(a, i), nil
	case "call":
		return d.call(n)
	case "invoke":
		return d.invoke(n)
	case "if":
		return d.conditional(n)
	case "block":
		return d.block(n)
	case "loop":
		return d.loop(n)
	case "switch":
		return d.switchNode(n)
	case "try":
		return d.try(n)
	case "throw":
		return d.throw(n)
	case "convert":
		return d.convert(n)
	case "new":
		return d.newNode(n)
	case "newarray":
		return d.newArray(n)
	case "assign":
		if _, err := attributes(n, head); err != nil {
			return nil, err
		}
		t, v, err := d.pair(arg)
		if err != nil {
			return nil, err
		}
		return tree.Set(t, v), nil
	case "lambda":
		return d.lambda(n)
	case "goto":
		return d.jump(n)
	case "label":
		return d.label(n)
	case "coalesce":
		if _, err := attributes(n, head); err != nil {
			return nil, err
		}
		l, r, err := d.pair(arg)
		if err != nil {
			return nil, err
		}
		return tree.CoalesceOf(l, r), nil
	}
	return nil, nodeErrorf(n.Content[0], "unknown node kind %s", head)
}

func (d *decoder) constant(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "const", "type")
	if err != nil {
		return nil, err
	}
	if tn := attrs["type"]; tn != nil {
		t, err := d.typ(tn)
		if err != nil {
			return nil, err
		}
		v, err := DecodeValue(attrs["const"], t)
		if err != nil {
			return nil, err
		}
		return tree.ConstOf(v, t), nil
	}
	v, t, err := inferConstant(attrs["const"])
	if err != nil {
		return nil, err
	}
	return tree.ConstOf(v, t), nil
}

func (d *decoder) member(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "member", "name")
	if err != nil {
		return nil, err
	}
	if attrs["name"] == nil {
		return nil, nodeErrorf(n, "member needs a name")
	}
	target, err := d.node(attrs["member"])
	if err != nil {
		return nil, err
	}
	return tree.Field(target, attrs["name"].Value), nil
}

func (d *decoder) call(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "call", "receiver", "args", "type")
	if err != nil {
		return nil, err
	}
	method := attrs["call"].Value
	var result *types.Type
	if tn := attrs["type"]; tn != nil {
		if result, err = d.typ(tn); err != nil {
			return nil, err
		}
	} else if rt, ok := d.host.MethodType(method); ok {
		result = rt
	} else {
		return nil, nodeErrorf(attrs["call"], "unknown host method %s", method)
	}
	args, err := d.nodes(attrs["args"])
	if err != nil {
		return nil, err
	}
	if rn := attrs["receiver"]; rn != nil {
		recv, err := d.node(rn)
		if err != nil {
			return nil, err
		}
		return tree.MethodCall(recv, method, result, args...), nil
	}
	return tree.HostCall(method, result, args...), nil
}

func (d *decoder) invoke(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "invoke", "args")
	if err != nil {
		return nil, err
	}
	target, err := d.node(attrs["invoke"])
	if err != nil {
		return nil, err
	}
	args, err := d.nodes(attrs["args"])
	if err != nil {
		return nil, err
	}
	return tree.InvokeOf(target, args...), nil
}

func (d *decoder) conditional(n *yaml.Node) (tree.Node, error) {
	if _, err := attributes(n, "if"); err != nil {
		return nil, err
	}
	xs, err := d.nodes(n.Content[1])
	if err != nil {
		return nil, err
	}
	switch len(xs) {
	case 2:
		return tree.If(xs[0], xs[1], nil), nil
	case 3:
		return tree.If(xs[0], xs[1], xs[2]), nil
	}
	return nil, nodeErrorf(n.Content[1], "if wants a test, a branch and an optional else")
}

func (d *decoder) block(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "block", "vars")
	if err != nil {
		return nil, err
	}
	vars, err := d.vars(attrs["vars"])
	if err != nil {
		return nil, err
	}
	d.push(vars)
	body, err := d.nodes(attrs["block"])
	d.pop()
	if err != nil {
		return nil, err
	}
	return tree.MakeBlock(vars, body...), nil
}

func (d *decoder) optionalLabel(n *yaml.Node) (*tree.LabelTarget, error) {
	if n == nil {
		return nil, nil
	}
	return d.lookupLabel(n)
}

func (d *decoder) loop(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "loop", "break", "continue")
	if err != nil {
		return nil, err
	}
	brk, err := d.optionalLabel(attrs["break"])
	if err != nil {
		return nil, err
	}
	cont, err := d.optionalLabel(attrs["continue"])
	if err != nil {
		return nil, err
	}
	body, err := d.node(attrs["loop"])
	if err != nil {
		return nil, err
	}
	return tree.MakeLoop(body, brk, cont), nil
}

func (d *decoder) switchNode(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "switch", "cases", "default", "type")
	if err != nil {
		return nil, err
	}
	sel, err := d.node(attrs["switch"])
	if err != nil {
		return nil, err
	}
	var def tree.Node
	if dn := attrs["default"]; dn != nil {
		if def, err = d.node(dn); err != nil {
			return nil, err
		}
	}
	var cases []tree.SwitchCase
	if cn := attrs["cases"]; !isNull(cn) {
		if cn.Kind != yaml.SequenceNode {
			return nil, nodeErrorf(cn, "cases must be a sequence")
		}
		vt := sel.Type()
		if vt == nil {
			return nil, nodeErrorf(attrs["switch"], "selector has no type")
		}
		for _, c := range cn.Content {
			ca, err := attributes(c, "values", "body")
			if err != nil {
				return nil, err
			}
			if ca["values"] == nil || ca["values"].Kind != yaml.SequenceNode || ca["body"] == nil {
				return nil, nodeErrorf(c, "case needs values and a body")
			}
			var values []types.Value
			for _, vn := range ca["values"].Content {
				var v types.Value
				if isNull(vn) {
					v = types.Null
				} else if v, err = DecodeValue(vn, vt.Underlying()); err != nil {
					return nil, err
				}
				values = append(values, v)
			}
			body, err := d.node(ca["body"])
			if err != nil {
				return nil, err
			}
			cases = append(cases, tree.Case(body, values...))
		}
	}
	s := tree.MakeSwitch(sel, def, cases...)
	if tn := attrs["type"]; tn != nil {
		if s.Typ, err = d.typ(tn); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (d *decoder) try(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "try", "catch", "finally", "fault")
	if err != nil {
		return nil, err
	}
	body, err := d.node(attrs["try"])
	if err != nil {
		return nil, err
	}
	t := &tree.Try{Body: body, Typ: body.Type()}
	if hn := attrs["catch"]; !isNull(hn) {
		if hn.Kind != yaml.SequenceNode {
			return nil, nodeErrorf(hn, "catch must be a sequence")
		}
		for _, c := range hn.Content {
			h, err := d.handler(c)
			if err != nil {
				return nil, err
			}
			t.Handlers = append(t.Handlers, h)
		}
	}
	if fn := attrs["finally"]; fn != nil {
		if t.Finally, err = d.node(fn); err != nil {
			return nil, err
		}
	}
	if fn := attrs["fault"]; fn != nil {
		if t.Fault, err = d.node(fn); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (d *decoder) handler(n *yaml.Node) (tree.Handler, error) {
	var h tree.Handler
	attrs, err := attributes(n, "codes", "var", "when", "body")
	if err != nil {
		return h, err
	}
	if cn := attrs["codes"]; !isNull(cn) {
		if cn.Kind != yaml.SequenceNode {
			return h, nodeErrorf(cn, "codes must be a sequence")
		}
		for _, c := range cn.Content {
			code, ok := types.ErrorFromString(c.Value)
			if !ok {
				return h, nodeErrorf(c, "unknown error code %s", c.Value)
			}
			h.Codes = append(h.Codes, code)
		}
	}
	if vn := attrs["var"]; vn != nil {
		h.Var = tree.NewVar(vn.Value, types.Err)
		d.push([]*tree.Var{h.Var})
		defer d.pop()
	}
	if wn := attrs["when"]; wn != nil {
		if h.Filter, err = d.node(wn); err != nil {
			return h, err
		}
	}
	if attrs["body"] == nil {
		return h, nodeErrorf(n, "catch needs a body")
	}
	h.Body, err = d.node(attrs["body"])
	return h, err
}

func (d *decoder) throw(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "throw", "type")
	if err != nil {
		return nil, err
	}
	v, err := d.node(attrs["throw"])
	if err != nil {
		return nil, err
	}
	if tn := attrs["type"]; tn != nil {
		t, err := d.typ(tn)
		if err != nil {
			return nil, err
		}
		return tree.RaiseAs(v, t), nil
	}
	return tree.Raise(v), nil
}

func (d *decoder) convert(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "convert", "to")
	if err != nil {
		return nil, err
	}
	x, err := d.node(attrs["convert"])
	if err != nil {
		return nil, err
	}
	t, err := d.typ(attrs["to"])
	if err != nil {
		return nil, err
	}
	return tree.ConvertTo(x, t), nil
}

func (d *decoder) newNode(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "new", "set")
	if err != nil {
		return nil, err
	}
	t, err := d.typ(attrs["new"])
	if err != nil {
		return nil, err
	}
	var bindings []tree.Binding
	if sn := attrs["set"]; !isNull(sn) {
		if sn.Kind != yaml.MappingNode {
			return nil, nodeErrorf(sn, "set must be a mapping of members")
		}
		for i := 0; i+1 < len(sn.Content); i += 2 {
			v, err := d.node(sn.Content[i+1])
			if err != nil {
				return nil, err
			}
			bindings = append(bindings, tree.Bind(sn.Content[i].Value, v))
		}
	}
	return tree.NewOf(t, bindings...), nil
}

func (d *decoder) newArray(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "newarray", "length", "items")
	if err != nil {
		return nil, err
	}
	elem, err := d.typ(attrs["newarray"])
	if err != nil {
		return nil, err
	}
	switch ln, in := attrs["length"], attrs["items"]; {
	case ln != nil && in == nil:
		length, err := d.node(ln)
		if err != nil {
			return nil, err
		}
		return tree.NewArrayBounds(elem, length), nil
	case in != nil && ln == nil:
		items, err := d.nodes(in)
		if err != nil {
			return nil, err
		}
		return tree.NewArrayInit(elem, items...), nil
	}
	return nil, nodeErrorf(n, "newarray needs exactly one of length or items")
}

func (d *decoder) jump(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "goto", "value", "type")
	if err != nil {
		return nil, err
	}
	target, err := d.lookupLabel(attrs["goto"])
	if err != nil {
		return nil, err
	}
	var value tree.Node
	if vn := attrs["value"]; vn != nil {
		if value, err = d.node(vn); err != nil {
			return nil, err
		}
	}
	g := tree.Jump(target, value)
	if tn := attrs["type"]; tn != nil {
		if g.Typ, err = d.typ(tn); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (d *decoder) label(n *yaml.Node) (tree.Node, error) {
	attrs, err := attributes(n, "label", "default")
	if err != nil {
		return nil, err
	}
	target, err := d.lookupLabel(attrs["label"])
	if err != nil {
		return nil, err
	}
	var def tree.Node
	if dn := attrs["default"]; dn != nil {
		if def, err = d.node(dn); err != nil {
			return nil, err
		}
	}
	return tree.Mark(target, def), nil
}

// attributes splits a mapping into its values by key, rejecting keys
// outside allowed
func attributes(n *yaml.Node, allowed ...string) (map[string]*yaml.Node, error) {
	if n == nil || n.Kind != yaml.MappingNode {
		return nil, nodeErrorf(n, "want a mapping")
	}
	out := make(map[string]*yaml.Node, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		ok := false
		for _, a := range allowed {
			if k.Value == a {
				ok = true
				break
			}
		}
		if !ok {
			return nil, nodeErrorf(k, "unexpected key %s", k.Value)
		}
		if _, dup := out[k.Value]; dup {
			return nil, nodeErrorf(k, "duplicate key %s", k.Value)
		}
		out[k.Value] = n.Content[i+1]
	}
	return out, nil
}

// resolve follows aliases to the anchored node
func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

func position(n *yaml.Node) tree.Position {
	return tree.Position{Line: n.Line, Column: n.Column}
}
