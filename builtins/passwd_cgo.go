//go:build cgo && !windows

package builtins

import (
	"strings"

	"github.com/amoghe/go-crypt"

	"stackc/types"
)

// hostCrypt hashes a password with the system crypt(3). The salt selects
// the scheme ($1$, $5$, $6$, or a two-character DES salt).
// crypt(str password, str salt) -> str
func hostCrypt(args []types.Value) types.Result {
	password, code := strArg(args[0])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	salt, code := strArg(args[1])
	if code != types.E_NONE {
		return types.Fail(code)
	}
	if salt == "" {
		return types.Fail(types.E_INVARG)
	}
	out, err := crypt.Crypt(password, salt)
	// glibc reports a rejected salt as a hash starting with '*'
	if err != nil || strings.HasPrefix(out, "*") {
		return types.Fail(types.E_INVARG)
	}
	return types.Ok(types.NewStr(out))
}

func registerCrypt(r *Registry) {
	r.Register("crypt", sig(types.Str, types.Str, types.Str), hostCrypt)
}
