package builtins

import (
	gocrypt "github.com/sergeymakinen/go-crypt"
	_ "github.com/sergeymakinen/go-crypt/md5"
	_ "github.com/sergeymakinen/go-crypt/sha256"
	_ "github.com/sergeymakinen/go-crypt/sha512"

	"stackc/types"
)

// hostCryptCheck reports whether password matches a crypt(3) hash.
// Hashes of an unknown scheme never match.
// cryptcheck(str hash, str password) -> bool
func hostCryptCheck(args []types.Value) types.Result {
	hash, code := strArg(args[0])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	password, code := strArg(args[1])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	return types.Ok(types.NewBool(gocrypt.Check(hash, password) == nil))
}
