package conformance

import (
	"gopkg.in/yaml.v3"
)

// TestSuite represents a complete YAML test file
type TestSuite struct {
	Name        string     `yaml:"name"`
	Description string     `yaml:"description,omitempty"`
	Options     string     `yaml:"options,omitempty"` // Compile options for every test, e.g. "CheckNullReferences|UseTernaryLogic"
	Types       yaml.Node  `yaml:"types,omitempty"`   // Struct and class declarations shared by the tests
	Tests       []TestCase `yaml:"tests"`
}

// TestCase represents a single test within a suite
type TestCase struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description,omitempty"`
	Skip        interface{} `yaml:"skip,omitempty"`    // bool or string
	Options     string      `yaml:"options,omitempty"` // Added to the suite options
	Tree        yaml.Node   `yaml:"tree"`              // Root lambda
	Args        []yaml.Node `yaml:"args,omitempty"`    // Decoded against the lambda's parameter types
	Expect      Expectation `yaml:"expect"`
}

// Expectation defines what result is expected from a test
type Expectation struct {
	Value           yaml.Node `yaml:"value,omitempty"`            // exact match, decoded against the result type
	Error           string    `yaml:"error,omitempty"`            // E_DIV, E_NULLREF, etc.
	Type            string    `yaml:"type,omitempty"`             // static result type, e.g. int?
	Malformed       string    `yaml:"malformed,omitempty"`        // fragment of the compile error
	ClosureRequired string    `yaml:"closure_required,omitempty"` // captured variable named in the error
}

// HasValue reports whether the test expects a normal result
func (e *Expectation) HasValue() bool {
	return e.Value.Kind != 0
}

// IsSkipped returns true if this test should be skipped
func (tc *TestCase) IsSkipped() (bool, string) {
	if tc.Skip == nil {
		return false, ""
	}

	switch v := tc.Skip.(type) {
	case bool:
		if v {
			return true, "skipped"
		}
		return false, ""
	case string:
		return true, v
	default:
		return false, ""
	}
}
