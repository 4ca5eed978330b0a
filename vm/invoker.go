package vm

import (
	"fmt"
	"sync"
	"sync/atomic"

	"stackc/types"
)

// Invoker adapts the (environment, args) calling convention of compiled
// units to a plain call for one function shape. Invokers are shared by
// every unit of the same signature and are immutable once published.
type Invoker struct {
	Signature string
	Params    []*types.Type
	Result    *types.Type
}

// Call runs the closure with the given arguments on a fresh VM
func (inv *Invoker) Call(c *ClosureValue, args ...types.Value) (types.Value, error) {
	if c == nil {
		return nil, faultf(types.E_NULLREF, "invoke of null function")
	}
	params := inv.Params
	if c.Program.Type != nil {
		// Shapes match by name; nominal types are checked against the unit
		params = c.Program.Type.Params
	}
	if len(args) != len(params) {
		return nil, faultf(types.E_ARGS, "%s expects %d arguments, got %d", inv.Signature, len(params), len(args))
	}
	for i, a := range args {
		if !types.Conforms(a, params[i]) {
			return nil, faultf(types.E_TYPE, "argument %d: %s is not %s", i, a, params[i])
		}
	}
	vm := NewVM()
	return vm.Run(c.Program, c.arguments(args))
}

// invokerCache is the process-wide shape -> invoker map. Entries are
// inserted once per key and never replaced.
var invokerCache = struct {
	sync.RWMutex
	m       map[string]*Invoker
	created atomic.Int64
}{m: make(map[string]*Invoker)}

// InvokerFor returns the shared invoker for a function type
func InvokerFor(fn *types.Type) (*Invoker, error) {
	if fn == nil || fn.Kind != types.KindFunc {
		return nil, fmt.Errorf("invoker for non-function type %s", fn)
	}
	key := fn.Signature()

	invokerCache.RLock()
	inv, ok := invokerCache.m[key]
	invokerCache.RUnlock()
	if ok {
		return inv, nil
	}

	invokerCache.Lock()
	defer invokerCache.Unlock()
	if inv, ok := invokerCache.m[key]; ok {
		return inv, nil
	}
	inv = &Invoker{
		Signature: key,
		Params:    append([]*types.Type(nil), fn.Params...),
		Result:    fn.Result,
	}
	invokerCache.m[key] = inv
	invokerCache.created.Add(1)
	return inv, nil
}

// InvokersCreated reports how many distinct invoker shapes exist
func InvokersCreated() int64 {
	return invokerCache.created.Load()
}

// Func is a ready-to-call compiled unit paired with its invoker
type Func struct {
	Closure *ClosureValue
	Invoker *Invoker
}

// NewFunc binds a unit to its shape's invoker. env may be nil for units
// that take no environment.
func NewFunc(p *Program, env types.Value) (*Func, error) {
	inv, err := InvokerFor(p.Type)
	if err != nil {
		return nil, err
	}
	return &Func{Closure: &ClosureValue{Program: p, Env: env}, Invoker: inv}, nil
}

// FuncOf wraps a closure value returned by compiled code
func FuncOf(v types.Value) (*Func, error) {
	c, ok := v.(*ClosureValue)
	if !ok {
		return nil, fmt.Errorf("%s is not a closure", v)
	}
	return NewFunc(c.Program, c.Env)
}

// Call invokes the unit
func (f *Func) Call(args ...types.Value) (types.Value, error) {
	return f.Invoker.Call(f.Closure, args...)
}
