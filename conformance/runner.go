package conformance

import (
	"errors"
	"fmt"
	"strings"

	"stackc/builtins"
	"stackc/compiler"
	"stackc/treefile"
	"stackc/types"
	"stackc/vm"
)

// TestResult represents the outcome of running a single test
type TestResult struct {
	Test       LoadedTest
	Passed     bool
	Skipped    bool
	SkipReason string
	Error      error
}

// Runner executes conformance tests
type Runner struct {
	host  *builtins.Registry
	types map[*TestSuite]*treefile.Types // Decoded once per suite
}

// NewRunner creates a runner with the default host registry
func NewRunner() *Runner {
	return NewRunnerWithHost(builtins.NewRegistry())
}

// NewRunnerWithHost creates a runner resolving calls against host
func NewRunnerWithHost(host *builtins.Registry) *Runner {
	return &Runner{host: host, types: make(map[*TestSuite]*treefile.Types)}
}

func (r *Runner) suiteTypes(s *TestSuite) (*treefile.Types, error) {
	if ts, ok := r.types[s]; ok {
		return ts, nil
	}
	var n = &s.Types
	if n.Kind == 0 {
		n = nil
	}
	ts, err := treefile.DecodeTypes(n)
	if err != nil {
		return nil, err
	}
	r.types[s] = ts
	return ts, nil
}

func (r *Runner) options(test LoadedTest) (compiler.Options, error) {
	suite, err := compiler.ParseOptions(test.Suite.Options)
	if err != nil {
		return 0, err
	}
	own, err := compiler.ParseOptions(test.Test.Options)
	if err != nil {
		return 0, err
	}
	return suite | own, nil
}

func failed(test LoadedTest, format string, args ...any) TestResult {
	return TestResult{Test: test, Error: fmt.Errorf(format, args...)}
}

// Run executes a single test case
func (r *Runner) Run(test LoadedTest) TestResult {
	// Check if test should be skipped
	if skipped, reason := test.Test.IsSkipped(); skipped {
		return TestResult{
			Test:       test,
			Skipped:    true,
			SkipReason: reason,
		}
	}

	ts, err := r.suiteTypes(test.Suite)
	if err != nil {
		return failed(test, "suite types: %w", err)
	}
	opts, err := r.options(test)
	if err != nil {
		return failed(test, "options: %w", err)
	}
	if test.Test.Tree.Kind == 0 {
		return TestResult{Test: test, Skipped: true, SkipReason: "no tree"}
	}
	root, err := treefile.DecodeLambda(&test.Test.Tree, ts, r.host)
	if err != nil {
		return failed(test, "tree: %w", err)
	}

	c := compiler.New(opts)
	c.Host = r.host
	unit, err := c.Compile(root)
	expect := test.Test.Expect

	// Compile-time expectations
	switch {
	case expect.Malformed != "":
		var mte *compiler.MalformedTreeError
		if !errors.As(err, &mte) {
			return failed(test, "expected a malformed tree error mentioning %q, got %v", expect.Malformed, err)
		}
		if !strings.Contains(mte.Error(), expect.Malformed) {
			return failed(test, "expected malformed tree error mentioning %q, got %q", expect.Malformed, mte.Error())
		}
		return TestResult{Test: test, Passed: true}
	case expect.ClosureRequired != "":
		var cre *compiler.ClosureRequiredError
		if !errors.As(err, &cre) {
			return failed(test, "expected a closure required error, got %v", err)
		}
		if cre.Var.Name != expect.ClosureRequired {
			return failed(test, "closure required for %s, want %s", cre.Var.Name, expect.ClosureRequired)
		}
		return TestResult{Test: test, Passed: true}
	}
	if err != nil {
		return failed(test, "compile: %w", err)
	}

	if len(test.Test.Args) != len(root.Params) {
		return failed(test, "%d args for %d parameters", len(test.Test.Args), len(root.Params))
	}
	args := make([]types.Value, len(root.Params))
	for i, p := range root.Params {
		v, err := treefile.DecodeValue(&test.Test.Args[i], p.Type)
		if err != nil {
			return failed(test, "arg %s: %w", p.Name, err)
		}
		args[i] = v
	}

	got, err := unit.Call(args...)
	passed, err := r.checkExpectation(test.Test, root.Result(), got, err)
	return TestResult{
		Test:   test,
		Passed: passed,
		Error:  err,
	}
}

// RunAll executes all loaded tests
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, test := range tests {
		results[i] = r.Run(test)
	}
	return results
}

// SummaryStats computes statistics from test results
type SummaryStats struct {
	Total   int
	Passed  int
	Failed  int
	Skipped int
}

// ComputeStats generates statistics from test results
func ComputeStats(results []TestResult) SummaryStats {
	stats := SummaryStats{Total: len(results)}
	for _, r := range results {
		if r.Skipped {
			stats.Skipped++
		} else if r.Passed {
			stats.Passed++
		} else {
			stats.Failed++
		}
	}
	return stats
}

// FormatStats returns a human-readable summary
func FormatStats(stats SummaryStats) string {
	return fmt.Sprintf("%d passed, %d failed, %d skipped (%d total)",
		stats.Passed, stats.Failed, stats.Skipped, stats.Total)
}

// checkExpectation checks if the result matches the expected outcome
func (r *Runner) checkExpectation(test TestCase, result *types.Type, got types.Value, callErr error) (bool, error) {
	expect := test.Expect

	// Check for expected error
	if expect.Error != "" {
		expectedErr, ok := types.ErrorFromString(expect.Error)
		if !ok {
			return false, fmt.Errorf("unknown error code: %s", expect.Error)
		}

		var fault vm.Fault
		if !errors.As(callErr, &fault) {
			if callErr != nil {
				return false, fmt.Errorf("expected error %s, got %v", expect.Error, callErr)
			}
			return false, fmt.Errorf("expected error %s, got value: %v", expect.Error, got)
		}
		if fault.Code != expectedErr {
			return false, fmt.Errorf("expected error %s, got %s", expect.Error, fault.Code)
		}
		return true, nil
	}

	// Check for normal result
	if callErr != nil {
		return false, fmt.Errorf("unexpected error: %v", callErr)
	}

	checked := false
	if expect.Type != "" {
		if result.String() != expect.Type {
			return false, fmt.Errorf("expected type %s, got %s", expect.Type, result)
		}
		checked = true
	}

	if expect.HasValue() {
		want, err := treefile.DecodeValue(&expect.Value, result)
		if err != nil {
			return false, fmt.Errorf("failed to convert expected value: %w", err)
		}
		if got == nil {
			return false, fmt.Errorf("expected %v, got nil", want)
		}
		if !sameValue(got, want) {
			return false, fmt.Errorf("expected %v, got %v", want, got)
		}
		checked = true
	}

	if !checked {
		return false, fmt.Errorf("no expectation specified")
	}
	return true, nil
}

// sameValue compares arrays and objects by content; the runtime compares
// them by identity
func sameValue(a, b types.Value) bool {
	switch x := a.(type) {
	case *types.ArrayValue:
		y, ok := b.(*types.ArrayValue)
		if !ok || len(x.Elements()) != len(y.Elements()) {
			return false
		}
		for i, v := range x.Elements() {
			if !sameValue(v, y.Elements()[i]) {
				return false
			}
		}
		return true
	case *types.ObjectValue:
		y, ok := b.(*types.ObjectValue)
		if !ok || x.Class() != y.Class() {
			return false
		}
		for i := range x.Class().Fields {
			if !sameValue(x.Field(i), y.Field(i)) {
				return false
			}
		}
		return true
	}
	return a.Equal(b)
}
