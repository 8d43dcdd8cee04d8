// Package checks implements the checks observing the symbolic execution of
// JavaScript functions.
package checks

import (
	"fmt"
	"sort"

	"github.com/benbjohnson/jslee"
)

// Check names.
const (
	NullDereferenceName   = "null-dereference"
	ConstantConditionName = "constant-condition"
	NaNCoercionName       = "nan-coercion"
)

var registry = map[string]func(sink jslee.IssueSink) jslee.Check{
	NullDereferenceName:   func(sink jslee.IssueSink) jslee.Check { return NewNullDereference(sink) },
	ConstantConditionName: func(sink jslee.IssueSink) jslee.Check { return NewConstantCondition(sink) },
	NaNCoercionName:       func(sink jslee.IssueSink) jslee.Check { return NewNaNCoercion(sink) },
}

// Names returns the names of all checks in sorted order.
func Names() []string {
	a := make([]string, 0, len(registry))
	for name := range registry {
		a = append(a, name)
	}
	sort.Strings(a)
	return a
}

// Validate returns an error if any name is not a known check.
func Validate(names []string) error {
	for _, name := range names {
		if _, ok := registry[name]; !ok {
			return fmt.Errorf("checks: unknown check: %q", name)
		}
	}
	return nil
}

// New returns a new instance of every check except the disabled ones.
func New(sink jslee.IssueSink, disabled ...string) []jslee.Check {
	skip := make(map[string]struct{}, len(disabled))
	for _, name := range disabled {
		skip[name] = struct{}{}
	}

	var a []jslee.Check
	for _, name := range Names() {
		if _, ok := skip[name]; ok {
			continue
		}
		a = append(a, registry[name](sink))
	}
	return a
}

// Factory returns a CheckFactory creating the enabled checks.
func Factory(disabled ...string) jslee.CheckFactory {
	return func(sink jslee.IssueSink) []jslee.Check {
		return New(sink, disabled...)
	}
}
