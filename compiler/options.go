package compiler

import (
	"fmt"
	"strings"

	"github.com/xyproto/env/v2"
)

// Options selects the runtime behavior compiled into a unit
type Options uint32

const (
	// CheckNullReferences turns null dereferences along a path into the
	// path's default value instead of an E_NULLREF fault
	CheckNullReferences Options = 1 << iota
	// CheckArrayIndexes turns out of range reads into the default value
	// instead of an E_RANGE fault
	CheckArrayIndexes
	// ExtendOnAssign creates missing objects and grows short arrays
	// along the left-hand path of an assignment
	ExtendOnAssign
	// UseTernaryLogic evaluates && || over bool? with Kleene logic and
	// treats an absent condition as false
	UseTernaryLogic
	// ForbidClosures rejects trees that need an environment record
	ForbidClosures

	// All is the strict combination used by the mutator layer
	All = CheckNullReferences | CheckArrayIndexes | ExtendOnAssign | UseTernaryLogic
)

var optionNames = []struct {
	name string
	opt  Options
}{
	{"CheckNullReferences", CheckNullReferences},
	{"CheckArrayIndexes", CheckArrayIndexes},
	{"ExtendOnAssign", ExtendOnAssign},
	{"UseTernaryLogic", UseTernaryLogic},
	{"ForbidClosures", ForbidClosures},
}

// Has reports whether every flag of o2 is set
func (o Options) Has(o2 Options) bool {
	return o&o2 == o2
}

func (o Options) String() string {
	if o == 0 {
		return "None"
	}
	var parts []string
	rest := o
	if o.Has(All) {
		parts = append(parts, "All")
		rest &^= All
	}
	for _, n := range optionNames {
		if rest&n.opt != 0 {
			parts = append(parts, n.name)
			rest &^= n.opt
		}
	}
	if rest != 0 {
		parts = append(parts, fmt.Sprintf("0x%x", uint32(rest)))
	}
	return strings.Join(parts, "|")
}

// ParseOptions parses flag names separated by '|' or ','. Names are
// case-insensitive; "All" and "None" are accepted.
func ParseOptions(s string) (Options, error) {
	var o Options
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '|' || r == ','
	}) {
		name := strings.TrimSpace(part)
		switch {
		case name == "":
			continue
		case strings.EqualFold(name, "All"):
			o |= All
			continue
		case strings.EqualFold(name, "None"):
			continue
		}
		found := false
		for _, n := range optionNames {
			if strings.EqualFold(name, n.name) {
				o |= n.opt
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown compiler option %q", name)
		}
	}
	return o, nil
}

// OptionsFromEnv reads STACKC_OPTIONS, falling back to def when the
// variable is unset or empty
func OptionsFromEnv(def Options) (Options, error) {
	s := env.Str("STACKC_OPTIONS", "")
	if s == "" {
		return def, nil
	}
	return ParseOptions(s)
}
