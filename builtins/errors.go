package builtins

import "stackc/types"

// toerr(int) -> err
func hostToErr(args []types.Value) types.Result {
	n, ok := intArg(args[0])
	if !ok {
		return types.Fail(types.E_TYPE)
	}
	if n < 0 || n > int64(types.E_MAXREC) {
		return types.Fail(types.E_INVARG)
	}
	return types.Ok(types.NewErr(types.ErrorCode(n)))
}

// errcode(err) -> int
func hostErrCode(args []types.Value) types.Result {
	e, ok := args[0].(types.ErrValue)
	if !ok {
		return types.Fail(types.E_TYPE)
	}
	return types.Ok(types.NewInt(int64(e.Code())))
}
