package builtins

import (
	"testing"

	"stackc/types"
)

func TestCryptCheckRejects(t *testing.T) {
	r := NewRegistry()
	id, ok := r.GetID("cryptcheck")
	if !ok {
		t.Fatal("cryptcheck not registered")
	}

	tests := []struct {
		name     string
		args     []types.Value
		want     types.Value
		wantCode types.ErrorCode
	}{
		{"not a hash", []types.Value{types.NewStr("plain"), types.NewStr("plain")}, types.False, types.E_NONE},
		{"unknown scheme", []types.Value{types.NewStr("$zz$salt$hash"), types.NewStr("pw")}, types.False, types.E_NONE},
		{"null hash", []types.Value{types.Null, types.NewStr("pw")}, nil, types.E_NULLREF},
		{"int password", []types.Value{types.NewStr("$6$x$y"), types.NewInt(1)}, nil, types.E_TYPE},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := r.CallByID(id, tt.args)
			if got.Error != tt.wantCode {
				t.Fatalf("error = %s, want %s", got.Error, tt.wantCode)
			}
			if tt.want != nil && !got.Val.Equal(tt.want) {
				t.Errorf("got %s, want %s", got.Val, tt.want)
			}
		})
	}
}
