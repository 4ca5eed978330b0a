package types

// Result is the outcome of a primitive operation: a value or an error code
type Result struct {
	Val   Value
	Error ErrorCode
}

// Ok creates a Result for normal completion with a value
func Ok(v Value) Result {
	return Result{Val: v}
}

// Fail creates a Result for a fault
func Fail(e ErrorCode) Result {
	return Result{Error: e}
}

// IsError returns true if this result carries a fault
func (r Result) IsError() bool {
	return r.Error != E_NONE
}
