package treefile

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"stackc/types"
)

const (
	tagNull  = "!!null"
	tagBool  = "!!bool"
	tagInt   = "!!int"
	tagFloat = "!!float"
	tagStr   = "!!str"
)

func isNull(n *yaml.Node) bool {
	return n == nil || n.Kind == yaml.ScalarNode && n.ShortTag() == tagNull
}

// DecodeValue reads a runtime value of static type t from YAML
func DecodeValue(n *yaml.Node, t *types.Type) (types.Value, error) {
	n = resolve(n)
	if isNull(n) {
		switch {
		case t.IsOptional():
			return types.Absent(), nil
		case t.IsReference():
			return types.Null, nil
		}
		return nil, nodeErrorf(n, "null is not a %s", t)
	}

	switch t.Kind {
	case types.KindBool:
		var b bool
		if err := n.Decode(&b); err != nil {
			return nil, nodeErrorf(n, "want bool: %v", err)
		}
		return types.NewBool(b), nil
	case types.KindInt:
		var i int64
		if err := n.Decode(&i); err != nil {
			return nil, nodeErrorf(n, "want int: %v", err)
		}
		return types.NewInt(i), nil
	case types.KindUInt:
		var u uint64
		if err := n.Decode(&u); err != nil {
			return nil, nodeErrorf(n, "want uint: %v", err)
		}
		return types.NewUInt(u), nil
	case types.KindFloat:
		var f float64
		if err := n.Decode(&f); err != nil {
			return nil, nodeErrorf(n, "want float: %v", err)
		}
		return types.NewFloat(f), nil
	case types.KindStr:
		if n.Kind != yaml.ScalarNode {
			return nil, nodeErrorf(n, "want str")
		}
		return types.NewStr(n.Value), nil
	case types.KindErr:
		return decodeErr(n)
	case types.KindOptional:
		v, err := DecodeValue(n, t.Elem)
		if err != nil {
			return nil, err
		}
		return types.Some(v), nil
	case types.KindArray:
		if n.Kind != yaml.SequenceNode {
			return nil, nodeErrorf(n, "want a sequence for %s", t)
		}
		items := make([]types.Value, len(n.Content))
		for i, c := range n.Content {
			v, err := DecodeValue(c, t.Elem)
			if err != nil {
				return nil, err
			}
			items[i] = v
		}
		return types.NewArrayOf(t.Elem, items), nil
	case types.KindStruct, types.KindClass:
		return decodeRecord(n, t)
	}
	return nil, nodeErrorf(n, "no literal form for %s", t)
}

func decodeErr(n *yaml.Node) (types.Value, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		code, ok := types.ErrorFromString(n.Value)
		if !ok {
			return nil, nodeErrorf(n, "unknown error code %s", n.Value)
		}
		return types.NewErr(code), nil
	case yaml.MappingNode:
		var e struct {
			Code    string `yaml:"code"`
			Message string `yaml:"message"`
		}
		if err := n.Decode(&e); err != nil {
			return nil, nodeErrorf(n, "want an error: %v", err)
		}
		code, ok := types.ErrorFromString(e.Code)
		if !ok {
			return nil, nodeErrorf(n, "unknown error code %s", e.Code)
		}
		return types.NewErrMsg(code, e.Message), nil
	}
	return nil, nodeErrorf(n, "want an error code")
}

// decodeRecord reads a struct or object from a mapping of field names.
// Missing fields keep their defaults.
func decodeRecord(n *yaml.Node, t *types.Type) (types.Value, error) {
	if n.Kind != yaml.MappingNode {
		return nil, nodeErrorf(n, "want a mapping for %s", t)
	}
	var set func(int, types.Value)
	var out types.Value
	if t.Kind == types.KindStruct {
		s := types.NewStructValue(t)
		set = func(i int, v types.Value) { s.FieldAddress(i).Store(v) }
		out = s
	} else {
		o := types.NewObject(t)
		set = o.SetField
		out = o
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		idx, ok := t.FieldIndex(name)
		if !ok {
			return nil, nodeErrorf(n.Content[i], "%s has no field %s", t, name)
		}
		v, err := DecodeValue(n.Content[i+1], t.Fields[idx].Type)
		if err != nil {
			return nil, err
		}
		set(idx, v)
	}
	return out, nil
}

// inferConstant reads a scalar literal whose type is given only by its
// YAML tag
func inferConstant(n *yaml.Node) (types.Value, *types.Type, error) {
	if n.Kind != yaml.ScalarNode {
		return nil, nil, nodeErrorf(n, "constant needs a type")
	}
	var t *types.Type
	switch n.ShortTag() {
	case tagBool:
		t = types.Bool
	case tagInt:
		t = types.Int
	case tagFloat:
		t = types.Float
	case tagStr:
		if strings.HasPrefix(n.Value, "E_") {
			if _, ok := types.ErrorFromString(n.Value); ok {
				t = types.Err
				break
			}
		}
		t = types.Str
	default:
		return nil, nil, nodeErrorf(n, "constant %s needs a type", n.Value)
	}
	v, err := DecodeValue(n, t)
	return v, t, err
}

// EncodeValue renders a runtime value as YAML
func EncodeValue(v types.Value) (*yaml.Node, error) {
	switch v := v.(type) {
	case types.NullValue:
		return scalar(tagNull, "null"), nil
	case types.BoolValue:
		return scalar(tagBool, strconv.FormatBool(v.Val)), nil
	case types.IntValue:
		return scalar(tagInt, strconv.FormatInt(v.Val, 10)), nil
	case types.UIntValue:
		return scalar(tagInt, strconv.FormatUint(v.Val, 10)), nil
	case types.FloatValue:
		return scalar(tagFloat, formatFloat(v.Val)), nil
	case types.StrValue:
		return scalar(tagStr, v.Value()), nil
	case types.ErrValue:
		if v.Message() == "" || v.Message() == v.Code().Message() {
			return scalar(tagStr, v.Code().String()), nil
		}
		return mapping(
			scalar(tagStr, "code"), scalar(tagStr, v.Code().String()),
			scalar(tagStr, "message"), scalar(tagStr, v.Message()),
		), nil
	case types.OptionalValue:
		if !v.HasValue() {
			return scalar(tagNull, "null"), nil
		}
		return EncodeValue(v.Value())
	case *types.ArrayValue:
		seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Style: yaml.FlowStyle}
		for _, it := range v.Elements() {
			c, err := EncodeValue(it)
			if err != nil {
				return nil, err
			}
			seq.Content = append(seq.Content, c)
		}
		return seq, nil
	case types.StructValue:
		return encodeRecord(v.StaticType(), v.Field)
	case *types.ObjectValue:
		return encodeRecord(v.Class(), v.Field)
	}
	return nil, fmt.Errorf("no literal form for %s", v)
}

func encodeRecord(t *types.Type, field func(int) types.Value) (*yaml.Node, error) {
	m := mapping()
	m.Style = yaml.FlowStyle
	for i, f := range t.Fields {
		c, err := EncodeValue(field(i))
		if err != nil {
			return nil, err
		}
		m.Content = append(m.Content, scalar(tagStr, f.Name), c)
	}
	return m, nil
}

func formatFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return ".nan"
	case math.IsInf(f, 1):
		return ".inf"
	case math.IsInf(f, -1):
		return "-.inf"
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

func mapping(kv ...*yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map", Content: kv}
}
