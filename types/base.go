package types

// ErrorCode identifies a runtime fault or a user-raised error kind
type ErrorCode int

const (
	E_NONE    ErrorCode = 0
	E_TYPE    ErrorCode = 1
	E_DIV     ErrorCode = 2
	E_NULLREF ErrorCode = 3
	E_RANGE   ErrorCode = 4
	E_ARGS    ErrorCode = 5
	E_ABSENT  ErrorCode = 6
	E_INVARG  ErrorCode = 7
	E_CAST    ErrorCode = 8
	E_USER    ErrorCode = 9
	E_MAXREC  ErrorCode = 10
)

var errorNames = []string{
	E_NONE:    "E_NONE",
	E_TYPE:    "E_TYPE",
	E_DIV:     "E_DIV",
	E_NULLREF: "E_NULLREF",
	E_RANGE:   "E_RANGE",
	E_ARGS:    "E_ARGS",
	E_ABSENT:  "E_ABSENT",
	E_INVARG:  "E_INVARG",
	E_CAST:    "E_CAST",
	E_USER:    "E_USER",
	E_MAXREC:  "E_MAXREC",
}

// String returns the symbolic name for an error code
func (e ErrorCode) String() string {
	if e >= 0 && int(e) < len(errorNames) {
		return errorNames[e]
	}
	return "E_UNKNOWN"
}

// Message returns a human-readable message for an error code
func (e ErrorCode) Message() string {
	switch e {
	case E_NONE:
		return "No error"
	case E_TYPE:
		return "Type mismatch"
	case E_DIV:
		return "Division by zero"
	case E_NULLREF:
		return "Null reference"
	case E_RANGE:
		return "Index out of range"
	case E_ARGS:
		return "Incorrect number of arguments"
	case E_ABSENT:
		return "Optional value is absent"
	case E_INVARG:
		return "Invalid argument"
	case E_CAST:
		return "Invalid conversion"
	case E_USER:
		return "User error"
	case E_MAXREC:
		return "Tick limit exceeded"
	default:
		return "Unknown error"
	}
}

// ErrorFromString converts a string like "E_NULLREF" to an ErrorCode
func ErrorFromString(s string) (ErrorCode, bool) {
	for i, name := range errorNames {
		if name == s {
			return ErrorCode(i), true
		}
	}
	return E_NONE, false
}

// Value is the interface every runtime value implements
type Value interface {
	Type() TypeCode
	String() string   // Literal representation
	Equal(Value) bool // Deep equality for value kinds, identity for references
	Truthy() bool     // Only true booleans are truthy
}
