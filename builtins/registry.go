package builtins

import (
	"fmt"
	"sort"

	"stackc/types"
)

// HostFunc is the Go implementation of a host method. Arguments arrive
// already checked against the method's parameter types.
type HostFunc func(args []types.Value) types.Result

// Method is one registered host method
type Method struct {
	Name string
	ID   int
	Type *types.Type // Func type: parameter and result types
	Fn   HostFunc
}

// Registry holds the host methods that Call nodes may reference. Names
// are resolved to IDs at compile time; the VM dispatches by ID.
type Registry struct {
	byName map[string]*Method
	byID   []*Method
}

// NewRegistry creates a registry holding the default host methods
func NewRegistry() *Registry {
	r := &Registry{byName: make(map[string]*Method)}

	// Math
	r.Register("abs", sig(types.Float, types.Float), hostAbs)
	r.Register("iabs", sig(types.Int, types.Int), hostIAbs)
	r.Register("sqrt", sig(types.Float, types.Float), hostSqrt)
	r.Register("floor", sig(types.Float, types.Float), hostFloor)
	r.Register("ceil", sig(types.Float, types.Float), hostCeil)
	r.Register("round", sig(types.Float, types.Float), hostRound)
	r.Register("min", sig(types.Int, types.Int, types.Int), hostMin)
	r.Register("max", sig(types.Int, types.Int, types.Int), hostMax)
	r.Register("fmin", sig(types.Float, types.Float, types.Float), hostFMin)
	r.Register("fmax", sig(types.Float, types.Float, types.Float), hostFMax)

	// Strings
	r.Register("upcase", sig(types.Str, types.Str), hostUpcase)
	r.Register("downcase", sig(types.Str, types.Str), hostDowncase)
	r.Register("trim", sig(types.Str, types.Str), hostTrim)
	r.Register("concat", sig(types.Str, types.Str, types.Str), hostConcat)
	r.Register("index", sig(types.Int, types.Str, types.Str), hostIndex)
	r.Register("strsub", sig(types.Str, types.Str, types.Str, types.Str), hostStrsub)
	r.Register("explode", sig(types.ArrayOf(types.Str), types.Str, types.Str), hostExplode)
	r.Register("implode", sig(types.Str, types.ArrayOf(types.Str), types.Str), hostImplode)
	r.Register("itoa", sig(types.Str, types.Int), hostItoa)
	r.Register("ftoa", sig(types.Str, types.Float), hostFtoa)
	r.Register("atoi", sig(types.OptionalInt, types.Str), hostAtoi)

	// Errors
	r.Register("toerr", sig(types.Err, types.Int), hostToErr)
	r.Register("errcode", sig(types.Int, types.Err), hostErrCode)

	// Hashing
	r.Register("digest", sig(types.Str, types.Str), hostDigest)
	r.Register("cryptcheck", sig(types.Bool, types.Str, types.Str), hostCryptCheck)
	registerCrypt(r)

	return r
}

func sig(result *types.Type, params ...*types.Type) *types.Type {
	return types.FuncOf(params, result)
}

// Register adds a host method. Registering an existing name replaces
// its implementation and keeps its ID.
func (r *Registry) Register(name string, t *types.Type, fn HostFunc) {
	if m, ok := r.byName[name]; ok {
		m.Type = t
		m.Fn = fn
		return
	}
	m := &Method{Name: name, ID: len(r.byID), Type: t, Fn: fn}
	r.byName[name] = m
	r.byID = append(r.byID, m)
}

// Lookup retrieves a host method by name
func (r *Registry) Lookup(name string) (*Method, bool) {
	m, ok := r.byName[name]
	return m, ok
}

// GetID returns the ID for a host method name
func (r *Registry) GetID(name string) (int, bool) {
	m, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return m.ID, true
}

// MethodType returns the result type of a host method
func (r *Registry) MethodType(name string) (*types.Type, bool) {
	m, ok := r.byName[name]
	if !ok {
		return nil, false
	}
	return m.Type.Result, true
}

// Method returns a host method by ID
func (r *Registry) Method(id int) (*Method, bool) {
	if id < 0 || id >= len(r.byID) {
		return nil, false
	}
	return r.byID[id], true
}

// CallByID calls a host method by its ID
func (r *Registry) CallByID(id int, args []types.Value) types.Result {
	m, ok := r.Method(id)
	if !ok {
		return types.Fail(types.E_INVARG)
	}
	if len(args) != len(m.Type.Params) {
		return types.Fail(types.E_ARGS)
	}
	return m.Fn(args)
}

// Names lists the registered method names in sorted order
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Describe renders a method signature for diagnostics
func (m *Method) Describe() string {
	return fmt.Sprintf("%s%s", m.Name, m.Type.String()[len("func"):])
}
