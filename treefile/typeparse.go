package treefile

import (
	"fmt"

	"stackc/types"
)

var builtinTypes = map[string]*types.Type{
	"void":  types.Void,
	"bool":  types.Bool,
	"int":   types.Int,
	"uint":  types.UInt,
	"float": types.Float,
	"str":   types.Str,
	"err":   types.Err,
}

// Types is the set of nominal types a tree file declares, in
// declaration order
type Types struct {
	byName map[string]*types.Type
	order  []*types.Type
}

// NewTypes creates an empty declaration set
func NewTypes() *Types {
	return &Types{byName: make(map[string]*types.Type)}
}

// Declare adds a struct or class. Redeclaring a name is an error, as is
// shadowing a predeclared type.
func (ts *Types) Declare(t *types.Type) error {
	if _, ok := builtinTypes[t.Name]; ok {
		return fmt.Errorf("type %s shadows a predeclared type", t.Name)
	}
	if _, dup := ts.byName[t.Name]; dup {
		return fmt.Errorf("type %s declared twice", t.Name)
	}
	ts.byName[t.Name] = t
	ts.order = append(ts.order, t)
	return nil
}

// Lookup finds a declared or predeclared type by name
func (ts *Types) Lookup(name string) (*types.Type, bool) {
	if t, ok := builtinTypes[name]; ok {
		return t, true
	}
	if ts == nil {
		return nil, false
	}
	t, ok := ts.byName[name]
	return t, ok
}

// Declared returns the declared types in order
func (ts *Types) Declared() []*types.Type {
	return ts.order
}

// ParseType parses a type string against ts. ts may be nil when only
// predeclared types are used.
func ParseType(s string, ts *Types) (*types.Type, error) {
	p := newTypeParser(s, ts)
	t, err := p.parseType()
	if err != nil {
		return nil, fmt.Errorf("type %q: %w", s, err)
	}
	if p.current.typ != tokEOF {
		return nil, fmt.Errorf("type %q: unexpected %s at column %d", s, p.current.typ, p.current.column)
	}
	return t, nil
}

type typeParser struct {
	lexer   *lexer
	types   *Types
	current token
	peek    token
}

func newTypeParser(input string, ts *Types) *typeParser {
	p := &typeParser{lexer: newLexer(input), types: ts}
	p.nextToken()
	p.nextToken()
	return p
}

func (p *typeParser) nextToken() {
	p.current = p.peek
	p.peek = p.lexer.next()
}

func (p *typeParser) expect(tt tokenType) error {
	if p.current.typ != tt {
		return fmt.Errorf("expected %s, got %s at column %d", tt, p.current.typ, p.current.column)
	}
	p.nextToken()
	return nil
}

// parseType parses base {'?'}
func (p *typeParser) parseType() (*types.Type, error) {
	t, err := p.parseBase()
	if err != nil {
		return nil, err
	}
	for p.current.typ == tokQuestion {
		opt := types.OptionalOf(t)
		if opt == nil || t.IsOptional() {
			return nil, fmt.Errorf("%s cannot be optional", t)
		}
		t = opt
		p.nextToken()
	}
	return t, nil
}

func (p *typeParser) parseBase() (*types.Type, error) {
	switch p.current.typ {
	case tokLBracket:
		p.nextToken()
		if err := p.expect(tokRBracket); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		if elem.Kind == types.KindVoid {
			return nil, fmt.Errorf("array of void")
		}
		return types.ArrayOf(elem), nil
	case tokIdent:
		name := p.current.value
		p.nextToken()
		if name == "func" && p.current.typ == tokLParen {
			return p.parseFunc()
		}
		t, ok := p.types.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown type %s", name)
		}
		return t, nil
	}
	return nil, fmt.Errorf("unexpected %s at column %d", p.current.typ, p.current.column)
}

// parseFunc parses '(' [type {',' type}] ')' [type] after "func"
func (p *typeParser) parseFunc() (*types.Type, error) {
	if err := p.expect(tokLParen); err != nil {
		return nil, err
	}
	var params []*types.Type
	for p.current.typ != tokRParen {
		if len(params) > 0 {
			if err := p.expect(tokComma); err != nil {
				return nil, err
			}
		}
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		params = append(params, t)
	}
	p.nextToken()

	result := types.Void
	switch p.current.typ {
	case tokIdent, tokLBracket:
		t, err := p.parseType()
		if err != nil {
			return nil, err
		}
		result = t
	}
	return types.FuncOf(params, result), nil
}
