package types

// ErrValue represents an error value: a code plus an optional message
type ErrValue struct {
	code ErrorCode
	msg  string
}

// NewErr creates a new error value
func NewErr(code ErrorCode) ErrValue {
	return ErrValue{code: code}
}

// NewErrMsg creates a new error value carrying a message
func NewErrMsg(code ErrorCode, msg string) ErrValue {
	return ErrValue{code: code, msg: msg}
}

// String returns the symbolic representation
func (e ErrValue) String() string {
	if e.msg == "" {
		return e.code.String()
	}
	return e.code.String() + "(" + e.msg + ")"
}

// Type returns the type code for errors
func (e ErrValue) Type() TypeCode {
	return TYPE_ERR
}

// Truthy reports false; only booleans drive branches
func (e ErrValue) Truthy() bool {
	return false
}

// Equal compares codes; messages are informational
func (e ErrValue) Equal(other Value) bool {
	if o, ok := other.(ErrValue); ok {
		return e.code == o.code
	}
	return false
}

// Code returns the error code
func (e ErrValue) Code() ErrorCode {
	return e.code
}

// Message returns the carried message, falling back to the code's message
func (e ErrValue) Message() string {
	if e.msg == "" {
		return e.code.Message()
	}
	return e.msg
}
