package jslee

import (
	"fmt"
	"sort"
	"sync"
)

// Check represents an analysis observing the states of a symbolic execution.
// A check is stateful and must only be used for one file at a time.
type Check interface {
	// Name returns the identifier of the check, e.g. "null-dereference".
	Name() string

	StartOfExecution(fn *Function)

	// BeforeBlockElement is called with each state reaching an element.
	BeforeBlockElement(s *ProgramState, element *Node)

	// AfterBlockElement is called with each state produced by an element.
	AfterBlockElement(s *ProgramState, element *Node)

	// ConditionBranches is called when a state reaches a branch. A nil state
	// means the corresponding branch cannot be taken from that state.
	ConditionBranches(condition *Node, truthy, falsy *ProgramState)

	// EndOfExecution is only called when fn was fully explored.
	EndOfExecution(fn *Function)
}

// BaseCheck implements every Check hook as a no-op.
type BaseCheck struct{}

func (BaseCheck) StartOfExecution(fn *Function)                                   {}
func (BaseCheck) BeforeBlockElement(s *ProgramState, element *Node)               {}
func (BaseCheck) AfterBlockElement(s *ProgramState, element *Node)                {}
func (BaseCheck) ConditionBranches(condition *Node, truthy, falsy *ProgramState) {}
func (BaseCheck) EndOfExecution(fn *Function)                                     {}

// Issue represents a defect reported by a check.
type Issue struct {
	Check   string
	Message string
	Pos     Position
}

// String returns the issue formatted as "pos: message (check)".
func (i Issue) String() string {
	return fmt.Sprintf("%s: %s (%s)", i.Pos, i.Message, i.Check)
}

// IssueSink receives issues from checks.
type IssueSink interface {
	Report(issue Issue)
}

// CheckFactory returns a new set of checks reporting to sink.
type CheckFactory func(sink IssueSink) []Check

// IssueList is an IssueSink collecting issues in memory.
type IssueList struct {
	mu     sync.Mutex
	issues []Issue
}

// Report appends issue to the list.
func (l *IssueList) Report(issue Issue) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.issues = append(l.issues, issue)
}

// Issues returns the reported issues sorted by position.
func (l *IssueList) Issues() []Issue {
	l.mu.Lock()
	defer l.mu.Unlock()

	a := make([]Issue, len(l.issues))
	copy(a, l.issues)
	SortIssues(a)
	return a
}

// SortIssues sorts issues by file, line, column & check name.
func SortIssues(a []Issue) {
	sort.SliceStable(a, func(i, j int) bool {
		x, y := a[i].Pos, a[j].Pos
		if x.Filename != y.Filename {
			return x.Filename < y.Filename
		} else if x.Line != y.Line {
			return x.Line < y.Line
		} else if x.Column != y.Column {
			return x.Column < y.Column
		}
		return a[i].Check < a[j].Check
	})
}
