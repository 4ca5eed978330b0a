package trace

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/oklog/ulid/v2"

	"stackc/types"
)

// Tracer provides compile and execution tracing for debugging. It also
// serves as a debug-info sink for the compiler.
type Tracer struct {
	enabled bool
	filters []string
	writer  io.Writer
	mu      sync.Mutex
}

// Global tracer instance
var globalTracer *Tracer

// New creates a tracer; filters are glob patterns on unit names
func New(enabled bool, filters []string, writer io.Writer) *Tracer {
	if writer == nil {
		writer = os.Stderr
	}
	return &Tracer{
		enabled: enabled,
		filters: filters,
		writer:  writer,
	}
}

// Init initializes the global tracer
func Init(enabled bool, filters []string, writer io.Writer) {
	globalTracer = New(enabled, filters, writer)
}

// Global returns the global tracer, or nil before Init
func Global() *Tracer {
	return globalTracer
}

// IsEnabled returns whether tracing is enabled
func IsEnabled() bool {
	if globalTracer == nil {
		return false
	}
	return globalTracer.enabled
}

// matchesFilter checks if a unit name matches any of the filter patterns
func (t *Tracer) matchesFilter(unit string) bool {
	if len(t.filters) == 0 {
		return true // No filters = trace everything
	}

	for _, pattern := range t.filters {
		if matched, _ := filepath.Match(pattern, unit); matched {
			return true
		}
	}
	return false
}

func (t *Tracer) printf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.writer, "[TRACE] "+format+"\n", args...)
}

// SequencePoint logs the code offset emitted for a source position
func (t *Tracer) SequencePoint(unit string, id ulid.ULID, line, column, ip int) {
	if t == nil || !t.enabled || !t.matchesFilter(unit) {
		return
	}
	t.printf("SEQ %s@%s %d:%d ip=%d", unit, id, line, column, ip)
}

// UnitCompiled logs a finished unit
func (t *Tracer) UnitCompiled(unit string, id ulid.ULID, codeLen int, fingerprint string) {
	if t == nil || !t.enabled || !t.matchesFilter(unit) {
		return
	}
	if len(fingerprint) > 16 {
		fingerprint = fingerprint[:16]
	}
	t.printf("UNIT %s@%s code=%d fp=%s", unit, id, codeLen, fingerprint)
}

// Call logs a unit invocation
func (t *Tracer) Call(unit string, args []types.Value) {
	if t == nil || !t.enabled || !t.matchesFilter(unit) {
		return
	}

	argStrs := make([]string, len(args))
	for i, arg := range args {
		argStrs[i] = arg.String()
	}
	t.printf("CALL %s args=[%s]", unit, strings.Join(argStrs, ", "))
}

// Return logs a unit's return value
func (t *Tracer) Return(unit string, result types.Value) {
	if t == nil || !t.enabled || !t.matchesFilter(unit) {
		return
	}

	resultStr := "void"
	if result != nil {
		resultStr = result.String()
	}
	t.printf("RETURN %s => %s", unit, resultStr)
}

// Exception logs an error raised in a unit
func (t *Tracer) Exception(unit string, err types.ErrorCode, msg string) {
	if t == nil || !t.enabled || !t.matchesFilter(unit) {
		return
	}
	if msg != "" {
		t.printf("EXCEPTION %s %s: %s", unit, err, msg)
		return
	}
	t.printf("EXCEPTION %s %s", unit, err)
}

// Global convenience functions

// Call logs a unit invocation using the global tracer
func Call(unit string, args []types.Value) {
	if globalTracer != nil {
		globalTracer.Call(unit, args)
	}
}

// Return logs a unit return using the global tracer
func Return(unit string, result types.Value) {
	if globalTracer != nil {
		globalTracer.Return(unit, result)
	}
}

// Exception logs an error using the global tracer
func Exception(unit string, err types.ErrorCode, msg string) {
	if globalTracer != nil {
		globalTracer.Exception(unit, err, msg)
	}
}
