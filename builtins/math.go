package builtins

import (
	"math"

	"stackc/types"
)

// ============================================================================
// MATH HOST METHODS
// ============================================================================

func floatArg(v types.Value) (float64, bool) {
	f, ok := v.(types.FloatValue)
	return f.Val, ok
}

func intArg(v types.Value) (int64, bool) {
	i, ok := v.(types.IntValue)
	return i.Val, ok
}

func floatFunc(fn func(float64) float64) HostFunc {
	return func(args []types.Value) types.Result {
		f, ok := floatArg(args[0])
		if !ok {
			return types.Fail(types.E_TYPE)
		}
		return types.Ok(types.NewFloat(fn(f)))
	}
}

// hostAbs returns absolute value
// abs(float) -> float
var hostAbs = floatFunc(math.Abs)

// hostFloor, hostCeil and hostRound round toward the named direction
var (
	hostFloor = floatFunc(math.Floor)
	hostCeil  = floatFunc(math.Ceil)
	hostRound = floatFunc(math.Round)
)

// hostIAbs returns absolute value of an integer
// iabs(int) -> int
func hostIAbs(args []types.Value) types.Result {
	i, ok := intArg(args[0])
	if !ok {
		return types.Fail(types.E_TYPE)
	}
	if i < 0 {
		return types.Ok(types.NewInt(-i))
	}
	return types.Ok(types.NewInt(i))
}

// hostSqrt returns square root
// sqrt(float) -> float, E_INVARG for negative input
func hostSqrt(args []types.Value) types.Result {
	f, ok := floatArg(args[0])
	if !ok {
		return types.Fail(types.E_TYPE)
	}
	if f < 0 {
		return types.Fail(types.E_INVARG)
	}
	return types.Ok(types.NewFloat(math.Sqrt(f)))
}

func hostMin(args []types.Value) types.Result {
	a, ok1 := intArg(args[0])
	b, ok2 := intArg(args[1])
	if !ok1 || !ok2 {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewInt(min(a, b)))
}

func hostMax(args []types.Value) types.Result {
	a, ok1 := intArg(args[0])
	b, ok2 := intArg(args[1])
	if !ok1 || !ok2 {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewInt(max(a, b)))
}

func hostFMin(args []types.Value) types.Result {
	a, ok1 := floatArg(args[0])
	b, ok2 := floatArg(args[1])
	if !ok1 || !ok2 {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewFloat(math.Min(a, b)))
}

func hostFMax(args []types.Value) types.Result {
	a, ok1 := floatArg(args[0])
	b, ok2 := floatArg(args[1])
	if !ok1 || !ok2 {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewFloat(math.Max(a, b)))
}
