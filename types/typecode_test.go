package types

import "testing"

func TestTypeCodes(t *testing.T) {
	tests := []struct {
		code TypeCode
		val  int
		name string
	}{
		{TYPE_INT, 0, "INT"},
		{TYPE_UINT, 1, "UINT"},
		{TYPE_FLOAT, 2, "FLOAT"},
		{TYPE_BOOL, 3, "BOOL"},
		{TYPE_STR, 4, "STR"},
		{TYPE_NULL, 5, "NULL"},
		{TYPE_OPTIONAL, 6, "OPTIONAL"},
		{TYPE_STRUCT, 7, "STRUCT"},
		{TYPE_OBJECT, 8, "OBJECT"},
		{TYPE_ARRAY, 9, "ARRAY"},
		{TYPE_CLOSURE, 10, "CLOSURE"},
		{TYPE_ERR, 11, "ERR"},
		{TYPE_ADDRESS, 12, "ADDRESS"},
	}

	for _, tt := range tests {
		if int(tt.code) != tt.val {
			t.Errorf("Type code %s should be %d, got %d", tt.name, tt.val, int(tt.code))
		}
		if tt.code.String() != tt.name {
			t.Errorf("Type code %d should stringify to %s, got %s", tt.val, tt.name, tt.code.String())
		}
	}
}
