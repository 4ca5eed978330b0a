package builtins

import (
	"strconv"
	"strings"

	"stackc/types"
)

// ============================================================================
// STRING HOST METHODS
// ============================================================================

// strArg unwraps a string argument. Strings are references, so a null
// argument is E_NULLREF rather than E_TYPE.
func strArg(v types.Value) (string, types.ErrorCode) {
	switch s := v.(type) {
	case types.StrValue:
		return s.Value(), types.E_NONE
	case types.NullValue:
		return "", types.E_NULLREF
	}
	return "", types.E_TYPE
}

func strFunc(fn func(string) string) HostFunc {
	return func(args []types.Value) types.Result {
		s, code := strArg(args[0])
		if code != types.E_NONE {
			return types.Fail(code)
		}
		return types.Ok(types.NewStr(fn(s)))
	}
}

var (
	hostUpcase   = strFunc(strings.ToUpper)
	hostDowncase = strFunc(strings.ToLower)
	hostTrim     = strFunc(strings.TrimSpace)
)

// hostConcat joins two strings
// concat(str, str) -> str
func hostConcat(args []types.Value) types.Result {
	a, code := strArg(args[0])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	b, code := strArg(args[1])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	return types.Ok(types.NewStr(a + b))
}

// hostIndex finds a substring
// index(str, what) -> int, 0-based, -1 when absent
func hostIndex(args []types.Value) types.Result {
	s, code := strArg(args[0])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	what, code := strArg(args[1])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	return types.Ok(types.NewInt(int64(strings.Index(s, what))))
}

// hostStrsub replaces all occurrences
// strsub(subject, what, with) -> str
func hostStrsub(args []types.Value) types.Result {
	var parts [3]string
	for i := range parts {
		s, code := strArg(args[i])
		if code != types.E_NONE {
			return types.Fail(code)
		}
		parts[i] = s
	}
	if parts[1] == "" {
		return types.Fail(types.E_INVARG)
	}
	return types.Ok(types.NewStr(strings.ReplaceAll(parts[0], parts[1], parts[2])))
}

// hostExplode splits a string on a separator
// explode(str, sep) -> []str
func hostExplode(args []types.Value) types.Result {
	s, code := strArg(args[0])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	sep, code := strArg(args[1])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	var fields []string
	if sep == "" {
		fields = strings.Fields(s)
	} else {
		fields = strings.Split(s, sep)
	}
	items := make([]types.Value, len(fields))
	for i, f := range fields {
		items[i] = types.NewStr(f)
	}
	return types.Ok(types.NewArrayOf(types.Str, items))
}

// hostImplode joins string elements
// implode([]str, sep) -> str
func hostImplode(args []types.Value) types.Result {
	arr, ok := args[0].(*types.ArrayValue)
	if !ok {
		if types.IsNull(args[0]) {
			return types.Fail(types.E_NULLREF)
		}
		return types.Fail(types.E_TYPE)
	}
	sep, code := strArg(args[1])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	parts := make([]string, arr.Len())
	for i, v := range arr.Elements() {
		s, code := strArg(v)
		if code != types.E_NONE {
			return types.Fail(code)
		}
		parts[i] = s
	}
	return types.Ok(types.NewStr(strings.Join(parts, sep)))
}

func hostItoa(args []types.Value) types.Result {
	i, ok := intArg(args[0])
	if !ok {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewStr(strconv.FormatInt(i, 10)))
}

func hostFtoa(args []types.Value) types.Result {
	f, ok := floatArg(args[0])
	if !ok {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewStr(strconv.FormatFloat(f, 'g', -1, 64)))
}

// hostAtoi parses an integer
// atoi(str) -> int?, absent when the string is not a number
func hostAtoi(args []types.Value) types.Result {
	s, code := strArg(args[0])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return types.Ok(types.Absent())
	}
	return types.Ok(types.Some(types.NewInt(i)))
}
