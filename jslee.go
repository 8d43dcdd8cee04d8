// Package jslee implements a symbolic execution engine for JavaScript
// functions.
//
// The engine walks the control flow graph of a single function, threading a
// set of immutable ProgramStates through each block. Every state tracks an
// approximate Constraint for each SymbolicValue it references. Branches fork
// states by refining the tested value, and states that cannot satisfy a
// refinement are dropped. Checks observe the states to report likely defects.
package jslee

import (
	"errors"
	"fmt"
)

// Default exploration bounds.
const (
	DefaultMaxStates      = 10000
	DefaultMaxBlockVisits = 1000
)

var (
	ErrNoStateAvailable = errors.New("jslee: no state available")

	// ErrExecutionLimit is returned when exploration of a function stops
	// because a bound was reached. It is never fatal to the overall run.
	ErrExecutionLimit = errors.New("jslee: execution limit reached")
	ErrMaxStates      = fmt.Errorf("%w: too many states", ErrExecutionLimit)
	ErrMaxBlockVisits = fmt.Errorf("%w: too many visits of a block", ErrExecutionLimit)
)

// assert panics if condition is false.
func assert(condition bool, format string, args ...interface{}) {
	if !condition {
		panic(fmt.Sprintf("assert: "+format, args...))
	}
}
