package types

// TypeCode tags the runtime representation of a value
type TypeCode int

const (
	TYPE_INT      TypeCode = 0
	TYPE_UINT     TypeCode = 1
	TYPE_FLOAT    TypeCode = 2
	TYPE_BOOL     TypeCode = 3
	TYPE_STR      TypeCode = 4
	TYPE_NULL     TypeCode = 5
	TYPE_OPTIONAL TypeCode = 6
	TYPE_STRUCT   TypeCode = 7
	TYPE_OBJECT   TypeCode = 8
	TYPE_ARRAY    TypeCode = 9
	TYPE_CLOSURE  TypeCode = 10
	TYPE_ERR      TypeCode = 11
	TYPE_ADDRESS  TypeCode = 12
)

// String returns the string representation of the type code
func (t TypeCode) String() string {
	switch t {
	case TYPE_INT:
		return "INT"
	case TYPE_UINT:
		return "UINT"
	case TYPE_FLOAT:
		return "FLOAT"
	case TYPE_BOOL:
		return "BOOL"
	case TYPE_STR:
		return "STR"
	case TYPE_NULL:
		return "NULL"
	case TYPE_OPTIONAL:
		return "OPTIONAL"
	case TYPE_STRUCT:
		return "STRUCT"
	case TYPE_OBJECT:
		return "OBJECT"
	case TYPE_ARRAY:
		return "ARRAY"
	case TYPE_CLOSURE:
		return "CLOSURE"
	case TYPE_ERR:
		return "ERR"
	case TYPE_ADDRESS:
		return "ADDRESS"
	default:
		return "UNKNOWN"
	}
}
