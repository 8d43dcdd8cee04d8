package jslee

import (
	"fmt"
)

// ProgramPoint represents the transfer function of a single CFG element. It
// maps a state to the states following the element. An empty result means the
// element cannot complete from the given state.
type ProgramPoint interface {
	Execute(s *ProgramState) []*ProgramState
}

// programPointFunc implements ProgramPoint with a function.
type programPointFunc func(s *ProgramState) []*ProgramState

func (fn programPointFunc) Execute(s *ProgramState) []*ProgramState { return fn(s) }

// programPoints are tried in order when creating a ProgramPoint.
// The first entry originating from a node is used.
var programPoints = []struct {
	originatesFrom func(n *Node) bool
	new            func(n *Node) ProgramPoint
}{
	{isKind(KindNullLiteral), newNullPoint},
	{isTemplateWithSubstitutions, newTemplatePoint},
	{isKind(KindNumberLiteral, KindStringLiteral, KindTemplateLiteral, KindBooleanLiteral, KindRegexLiteral), newLiteralPoint},
	{isKind(KindIdentifier), newIdentifierPoint},
	{isKind(KindThis), newThisPoint},
	{isKind(KindBinary), newBinaryPoint},
	{isKind(KindUnary), newUnaryPoint},
	{isKind(KindUpdate), newUpdatePoint},
	{isKind(KindAssignment), newAssignmentPoint},
	{isKind(KindMember), newMemberPoint},
	{isKind(KindCall), newCallPoint},
	{isKind(KindNew), newNewPoint},
	{isKind(KindObject), newObjectPoint("object", OTHER_OBJECT)},
	{isKind(KindArray), newObjectPoint("array", ARRAY)},
	{isKind(KindFunction, KindClass), newFunctionPoint},
	{isKind(KindSequence), newSequencePoint},
	{isKind(KindSpread, KindAwait, KindYield, KindOtherExpression), newOpaquePoint},
	{isKind(KindConditional, KindLogical), newBranchMarkerPoint},
	{isKind(KindVariableDeclarator), newDeclaratorPoint},
	{isKind(KindExpressionStatement, KindReturn, KindThrow), newPopPoint},
	{isKind(KindForEachHead), newForEachHeadPoint},
	{isKind(KindCatchParameter), newCatchParameterPoint},
}

// NewProgramPoint returns the transfer function for an element of fn.
// Elements without an effect on the state pass it through unchanged.
// Panics if the node kind is not a known kind.
func NewProgramPoint(n *Node, fn *Function) ProgramPoint {
	if !n.Kind.IsValid() {
		panic(fmt.Sprintf("jslee.NewProgramPoint: unexpected node kind %s in %s at %s", n.Kind, fn, n.Pos))
	}
	for _, pp := range programPoints {
		if pp.originatesFrom(n) {
			return pp.new(n)
		}
	}
	return programPointFunc(passThrough)
}

func isKind(kinds ...Kind) func(n *Node) bool {
	return func(n *Node) bool {
		for _, k := range kinds {
			if n.Kind == k {
				return true
			}
		}
		return false
	}
}

func isTemplateWithSubstitutions(n *Node) bool {
	return n.Kind == KindTemplateLiteral && len(n.Children) > 0
}

func passThrough(s *ProgramState) []*ProgramState {
	return []*ProgramState{s}
}

func newNullPoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		return []*ProgramState{s.PushToStack(NullValue)}
	})
}

func newLiteralPoint(n *Node) ProgramPoint {
	v := NewLiteralValue(n)
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		return []*ProgramState{s.PushToStack(v)}
	})
}

func newTemplatePoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, _ = s.PopStack(len(n.Children))
		return []*ProgramState{s.PushToStack(NewSymbolicValue("", STRING_PRIMITIVE))}
	})
}

// newIdentifierPoint pushes the value bound to the identifier. Each read of an
// untracked identifier yields a fresh value.
func newIdentifierPoint(n *Node) ProgramPoint {
	if n.Symbol == nil {
		var v Value
		switch n.Value {
		case "undefined":
			v = UndefinedValue
		case "NaN", "Infinity":
			v = NewNumberLiteralValue(n.Value)
		}
		if v != nil {
			return programPointFunc(func(s *ProgramState) []*ProgramState {
				return []*ProgramState{s.PushToStack(v)}
			})
		}
	}

	return programPointFunc(func(s *ProgramState) []*ProgramState {
		v := s.Binding(n.Symbol)
		if v == UnknownValue {
			v = NewSymbolicValue(n.Value, ANY_VALUE)
		}
		return []*ProgramState{s.PushToStack(v)}
	})
}

func newThisPoint(n *Node) ProgramPoint {
	v := NewObjectValue("this", OBJECT)
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		return []*ProgramState{s.PushToStack(v)}
	})
}

func newBinaryPoint(n *Node) ProgramPoint {
	if op, ok := ParseRelationOp(n.Op); ok {
		tag, i, isTypeOf := typeOfTag(n)
		isTypeOf = isTypeOf && op.IsEquality()
		return programPointFunc(func(s *ProgramState) []*ProgramState {
			s, operands := s.PopStack(2)
			if isTypeOf {
				if u, ok := operands[i].(*UnaryValue); ok && u.Op == TYPEOF {
					return []*ProgramState{s.PushToStack(NewTypeOfComparisonValue(op, u.Operand, tag))}
				}
			}
			return []*ProgramState{s.PushToStack(NewRelationalValue(op, operands[0], operands[1]))}
		})
	}

	op, ok := ParseBinaryOp(n.Op)
	assert(ok, "unexpected binary operator %q at %s", n.Op, n.Pos)
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, operands := s.PopStack(2)
		return []*ProgramState{s.PushToStack(NewBinaryValue(op, operands[0], operands[1]))}
	})
}

// typeOfTag returns the tag of a comparison between a typeof expression and
// a string literal, along with the index of the typeof operand. Either
// operand order is accepted.
func typeOfTag(n *Node) (tag string, index int, ok bool) {
	if len(n.Children) != 2 {
		return "", 0, false
	}
	for i, child := range n.Children {
		other := n.Children[1-i]
		if child.Kind == KindUnary && child.Op == "typeof" && other.Kind == KindStringLiteral {
			return other.Value, i, true
		}
	}
	return "", 0, false
}

func newUnaryPoint(n *Node) ProgramPoint {
	switch n.Op {
	case "-":
		return programPointFunc(func(s *ProgramState) []*ProgramState {
			s, operands := s.PopStack(1)
			return []*ProgramState{s.PushToStack(Negate(s, operands[0]))}
		})
	case "void":
		return programPointFunc(func(s *ProgramState) []*ProgramState {
			s, _ = s.PopStack(1)
			return []*ProgramState{s.PushToStack(UndefinedValue)}
		})
	}

	op, ok := ParseUnaryOp(n.Op)
	assert(ok, "unexpected unary operator %q at %s", n.Op, n.Pos)
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, operands := s.PopStack(1)
		return []*ProgramState{s.PushToStack(NewUnaryValue(op, operands[0]))}
	})
}

// newUpdatePoint handles `++` & `--`. A prefix update results in the new
// value while a postfix update results in the previous value. Identifier
// targets are rebound to the new value.
func newUpdatePoint(n *Node) ProgramPoint {
	increment := n.Op == "++"
	assert(increment || n.Op == "--", "unexpected update operator %q at %s", n.Op, n.Pos)

	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, operands := s.PopStack(len(n.Children))

		var prev Value
		switch n.Target.Kind {
		case KindIdentifier:
			prev = operands[0]
		case KindMember:
			var ok bool
			if s, ok = constrainObject(s, n.Target, operands[0]); !ok {
				return nil
			}
			prev = NewSymbolicValue("", ANY_VALUE)
		default:
			prev = NewSymbolicValue("", ANY_VALUE)
		}

		next := NewIncDecValue(prev, increment)
		if n.Target.Kind == KindIdentifier {
			s = s.Assignment(n.Target.Symbol, next)
		}
		if n.Prefix {
			return []*ProgramState{s.PushToStack(next)}
		}
		return []*ProgramState{s.PushToStack(prev)}
	})
}

// newAssignmentPoint handles simple & compound assignments. The assigned
// value is pushed as the result of the expression.
func newAssignmentPoint(n *Node) ProgramPoint {
	var op BinaryOp
	var logical, compound bool
	switch n.Op {
	case "=":
	case "&&=", "||=", "??=":
		logical = true
	default:
		var ok bool
		op, ok = ParseBinaryOp(n.Op)
		assert(ok, "unexpected assignment operator %q at %s", n.Op, n.Pos)
		compound = true
	}

	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, operands := s.PopStack(len(n.Children))
		rhs := operands[len(operands)-1]

		var cur Value
		switch n.Target.Kind {
		case KindIdentifier:
			if len(operands) > 1 {
				cur = operands[0]
			}
		case KindMember:
			var ok bool
			if s, ok = constrainObject(s, n.Target, operands[0]); !ok {
				return nil
			}
		}
		if cur == nil {
			cur = NewSymbolicValue("", ANY_VALUE)
		}

		result := rhs
		if compound {
			result = NewBinaryValue(op, cur, rhs)
		} else if logical {
			result = NewSymbolicValue("", s.Constraint(cur).Or(s.Constraint(rhs)))
		}

		if n.Target.Kind == KindIdentifier {
			s = s.Assignment(n.Target.Symbol, result)
		}
		return []*ProgramState{s.PushToStack(result)}
	})
}

// constrainObject requires the object of a non-optional member access to be
// neither null nor undefined.
func constrainObject(s *ProgramState, member *Node, object Value) (*ProgramState, bool) {
	if member.Optional {
		return s, true
	}
	return s.Constrain(object, NOT_NULLY)
}

// newMemberPoint handles property reads. The object must not be nullish and
// the property is read as a fresh value.
func newMemberPoint(n *Node) ProgramPoint {
	c := ANY_VALUE
	if n.Value == "length" && !n.Computed {
		c = ZERO | POSITIVE_NUMBER_PRIMITIVE
	}

	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, operands := s.PopStack(len(n.Children))
		s, ok := constrainObject(s, n, operands[0])
		if !ok {
			return nil
		}
		return []*ProgramState{s.PushToStack(NewSymbolicValue("", c))}
	})
}

func newCallPoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, _ = s.PopStack(len(n.Children))
		return []*ProgramState{s.PushToStack(NewSymbolicValue("", ANY_VALUE))}
	})
}

// constructorConstraints maps built-in constructors to the objects they create.
var constructorConstraints = map[string]Constraint{
	"Array":    ARRAY,
	"Boolean":  BOOLEAN_OBJECT,
	"Date":     DATE,
	"Function": FUNCTION,
	"Number":   NUMBER_OBJECT,
	"RegExp":   REGEXP,
	"String":   STRING_OBJECT,
}

func newNewPoint(n *Node) ProgramPoint {
	kind, c := "object", OTHER_OBJECT
	if len(n.Children) > 0 && n.Children[0].Kind == KindIdentifier && n.Children[0].Symbol == nil {
		if other, ok := constructorConstraints[n.Children[0].Value]; ok {
			kind, c = n.Children[0].Value, other
		}
	}

	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, _ = s.PopStack(len(n.Children))
		return []*ProgramState{s.PushToStack(NewObjectValue(kind, c))}
	})
}

func newObjectPoint(kind string, c Constraint) func(n *Node) ProgramPoint {
	return func(n *Node) ProgramPoint {
		return programPointFunc(func(s *ProgramState) []*ProgramState {
			s, _ = s.PopStack(len(n.Children))
			return []*ProgramState{s.PushToStack(NewObjectValue(kind, c))}
		})
	}
}

func newFunctionPoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, _ = s.PopStack(len(n.Children))
		return []*ProgramState{s.PushToStack(NewFunctionValue(n.Value))}
	})
}

func newSequencePoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, operands := s.PopStack(len(n.Children))
		if len(operands) == 0 {
			return []*ProgramState{s.PushToStack(UndefinedValue)}
		}
		return []*ProgramState{s.PushToStack(operands[len(operands)-1])}
	})
}

// newOpaquePoint handles expressions whose result is not modeled.
func newOpaquePoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, _ = s.PopStack(len(n.Children))
		return []*ProgramState{s.PushToStack(NewSymbolicValue("", ANY_VALUE))}
	})
}

// newBranchMarkerPoint panics. Conditional & logical expressions are
// represented by CFG branches and never executed as elements.
func newBranchMarkerPoint(n *Node) ProgramPoint {
	panic(fmt.Sprintf("jslee.NewProgramPoint: %s executed as an element at %s", n.Kind, n.Pos))
}

// newDeclaratorPoint binds the initializer to the declared symbol. A let or
// const without initializer is bound to undefined. A var without initializer
// keeps its current value.
func newDeclaratorPoint(n *Node) ProgramPoint {
	sym := n.Symbol
	if sym == nil && n.Target != nil {
		sym = n.Target.Symbol
	}

	if len(n.Children) == 0 {
		if n.Declaration == "var" {
			return programPointFunc(passThrough)
		}
		return programPointFunc(func(s *ProgramState) []*ProgramState {
			return []*ProgramState{s.Assignment(sym, UndefinedValue)}
		})
	}

	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, operands := s.PopStack(1)
		return []*ProgramState{s.Assignment(sym, operands[0])}
	})
}

func newPopPoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, _ = s.PopStack(len(n.Children))
		return []*ProgramState{s}
	})
}

// newForEachHeadPoint binds a fresh value to the loop variable and pushes
// whether another iteration happens.
func newForEachHeadPoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		s, _ = s.PopStack(len(n.Children))
		if n.Target != nil && n.Target.Kind == KindIdentifier && n.Target.Symbol != nil {
			s, _ = s.NewSymbolicValue(n.Target.Symbol, ANY_VALUE)
		}
		return []*ProgramState{s.PushToStack(NewSymbolicValue("", BOOLEAN_PRIMITIVE))}
	})
}

func newCatchParameterPoint(n *Node) ProgramPoint {
	return programPointFunc(func(s *ProgramState) []*ProgramState {
		if n.Symbol != nil {
			s, _ = s.NewSymbolicValue(n.Symbol, ANY_VALUE)
		}
		return []*ProgramState{s}
	})
}
