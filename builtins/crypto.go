package builtins

import (
	"encoding/hex"

	"golang.org/x/crypto/blake2b"

	"stackc/types"
)

// hostDigest returns the hex BLAKE2b-256 digest of a string
// digest(str) -> str
func hostDigest(args []types.Value) types.Result {
	s, code := strArg(args[0])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	sum := blake2b.Sum256([]byte(s))
	return types.Ok(types.NewStr(hex.EncodeToString(sum[:])))
}
