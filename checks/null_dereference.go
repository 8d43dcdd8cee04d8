package checks

import (
	"fmt"

	"github.com/benbjohnson/jslee"
)

// NullDereference reports property accesses on values which can only be null
// or undefined.
type NullDereference struct {
	jslee.BaseCheck
	sink     jslee.IssueSink
	reported map[*jslee.Node]struct{}
}

// NewNullDereference returns a new instance of NullDereference.
func NewNullDereference(sink jslee.IssueSink) *NullDereference {
	return &NullDereference{
		sink:     sink,
		reported: make(map[*jslee.Node]struct{}),
	}
}

// Name returns the check name.
func (c *NullDereference) Name() string { return NullDereferenceName }

// BeforeBlockElement reports el if it dereferences a nullish object.
func (c *NullDereference) BeforeBlockElement(s *jslee.ProgramState, el *jslee.Node) {
	member := dereference(el)
	if member == nil || len(member.Children) == 0 {
		return
	} else if _, ok := c.reported[el]; ok {
		return
	}

	// Operands of the element are on the stack, object first.
	n := len(el.Children)
	if n == 0 || s.StackSize() < n {
		return
	}
	object := s.PeekStack(n - 1)

	constraint := s.Constraint(object)
	if !constraint.IsStricterOrEqualTo(jslee.NULL_OR_UNDEFINED) {
		return
	}

	what := "null or undefined"
	switch constraint {
	case jslee.NULL:
		what = "null"
	case jslee.UNDEFINED:
		what = "undefined"
	}

	c.reported[el] = struct{}{}
	c.sink.Report(jslee.Issue{
		Check:   NullDereferenceName,
		Message: fmt.Sprintf("TypeError can be thrown as %q might be %s here.", member.Children[0].String(), what),
		Pos:     member.Pos,
	})
}

// dereference returns the member expression dereferenced by el, if any.
// Optional chains never throw and are ignored.
func dereference(el *jslee.Node) *jslee.Node {
	var member *jslee.Node
	switch el.Kind {
	case jslee.KindMember:
		member = el
	case jslee.KindAssignment, jslee.KindUpdate:
		if el.Target != nil && el.Target.Kind == jslee.KindMember {
			member = el.Target
		}
	}
	if member == nil || member.Optional {
		return nil
	}
	return member
}
