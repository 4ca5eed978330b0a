package vm

import (
	"fmt"

	"stackc/types"
)

// ClosureValue is the callable handle of a compiled unit: its code bound
// to an environment record. The root unit's handle has no environment.
type ClosureValue struct {
	Program *Program
	Env     types.Value
}

// Type returns TYPE_CLOSURE
func (c *ClosureValue) Type() types.TypeCode {
	return types.TYPE_CLOSURE
}

func (c *ClosureValue) String() string {
	return fmt.Sprintf("<closure %s>", c.Program.Name)
}

// Equal is identity
func (c *ClosureValue) Equal(other types.Value) bool {
	o, ok := other.(*ClosureValue)
	return ok && o == c
}

// Truthy reports false; only booleans drive branches
func (c *ClosureValue) Truthy() bool {
	return false
}

// arguments builds the argument slots for a call: the environment
// first when the unit takes one, then copies of the declared arguments
func (c *ClosureValue) arguments(args []types.Value) []types.Value {
	n := len(args)
	if c.Program.HasEnv {
		n++
	}
	out := make([]types.Value, 0, n)
	if c.Program.HasEnv {
		env := c.Env
		if env == nil {
			env = types.Null
		}
		out = append(out, env)
	}
	for _, a := range args {
		out = append(out, types.CopyValue(a))
	}
	return out
}
