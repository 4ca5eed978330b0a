//go:build cgo && !windows

package builtins

import (
	"strings"
	"testing"

	"stackc/types"
)

func TestCryptRoundTrip(t *testing.T) {
	r := NewRegistry()
	cryptID, ok := r.GetID("crypt")
	if !ok {
		t.Fatal("crypt not registered")
	}
	checkID, _ := r.GetID("cryptcheck")

	for _, salt := range []string{"$5$saltsalt$", "$6$saltsalt$"} {
		t.Run(salt, func(t *testing.T) {
			h := r.CallByID(cryptID, []types.Value{types.NewStr("secret"), types.NewStr(salt)})
			if h.IsError() {
				t.Fatalf("crypt error %s", h.Error)
			}
			hash := h.Val.(types.StrValue).Value()
			if !strings.HasPrefix(hash, salt) {
				t.Fatalf("crypt = %q, want prefix %q", hash, salt)
			}

			again := r.CallByID(cryptID, []types.Value{types.NewStr("secret"), types.NewStr(hash)})
			if again.IsError() || !again.Val.Equal(h.Val) {
				t.Errorf("rehash with the stored hash as salt = %v, want %s", again.Val, hash)
			}

			for pw, want := range map[string]bool{"secret": true, "Secret": false} {
				got := r.CallByID(checkID, []types.Value{types.NewStr(hash), types.NewStr(pw)})
				if got.IsError() || !got.Val.Equal(types.NewBool(want)) {
					t.Errorf("cryptcheck(%q) = %v, want %v", pw, got.Val, want)
				}
			}
		})
	}

	if got := r.CallByID(cryptID, []types.Value{types.NewStr("x"), types.NewStr("")}); got.Error != types.E_INVARG {
		t.Errorf("empty salt error = %s, want E_INVARG", got.Error)
	}
}
