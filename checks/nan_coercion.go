package checks

import (
	"github.com/benbjohnson/jslee"
)

// NaNCoercion reports arithmetic which can only result in NaN, typically
// because an operand is undefined.
type NaNCoercion struct {
	jslee.BaseCheck
	sink     jslee.IssueSink
	reported map[*jslee.Node]struct{}
}

// NewNaNCoercion returns a new instance of NaNCoercion.
func NewNaNCoercion(sink jslee.IssueSink) *NaNCoercion {
	return &NaNCoercion{
		sink:     sink,
		reported: make(map[*jslee.Node]struct{}),
	}
}

// Name returns the check name.
func (c *NaNCoercion) Name() string { return NaNCoercionName }

// AfterBlockElement reports el if its result is always NaN.
func (c *NaNCoercion) AfterBlockElement(s *jslee.ProgramState, el *jslee.Node) {
	if _, ok := c.reported[el]; ok {
		return
	}

	v := arithmeticResult(s, el)
	if v == nil || s.Constraint(v) != jslee.NAN || hasNaNOperand(el) {
		return
	}

	c.reported[el] = struct{}{}
	c.sink.Report(jslee.Issue{
		Check:   NaNCoercionName,
		Message: "This arithmetic expression always evaluates to NaN.",
		Pos:     el.Pos,
	})
}

// arithmeticResult returns the value computed by an arithmetic element.
func arithmeticResult(s *jslee.ProgramState, el *jslee.Node) jslee.Value {
	switch el.Kind {
	case jslee.KindBinary:
		if op, ok := jslee.ParseBinaryOp(el.Op); !ok || (op != jslee.ADD && !op.IsArithmetic()) {
			return nil
		}
	case jslee.KindAssignment:
		if el.Op == "=" {
			return nil
		} else if op, ok := jslee.ParseBinaryOp(el.Op); !ok || (op != jslee.ADD && !op.IsArithmetic()) {
			return nil
		}
	case jslee.KindUpdate:
		if !el.Prefix {
			if el.Target.Kind != jslee.KindIdentifier || el.Target.Symbol == nil || !el.Target.Symbol.Tracked {
				return nil
			}
			return s.Binding(el.Target.Symbol)
		}
	default:
		return nil
	}

	if s.StackSize() == 0 {
		return nil
	}
	return s.PeekStack(0)
}

// hasNaNOperand returns true if the expression refers to NaN explicitly.
func hasNaNOperand(el *jslee.Node) bool {
	var found bool
	jslee.Walk(el, func(n *jslee.Node) bool {
		if n.Kind == jslee.KindIdentifier && n.Symbol == nil && n.Value == "NaN" {
			found = true
		}
		return !found
	})
	return found
}
