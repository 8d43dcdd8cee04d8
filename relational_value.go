package jslee

import (
	"fmt"
)

// RelationalValue represents the boolean result of comparing two values.
type RelationalValue struct {
	id          int
	Op          RelationOp
	Left, Right Value
}

// NewRelationalValue returns a new comparison value.
func NewRelationalValue(op RelationOp, left, right Value) *RelationalValue {
	assert(op.IsValid(), "invalid relation op: %d", op)
	return &RelationalValue{id: nextValueID(), Op: op, Left: left, Right: right}
}

func (v *RelationalValue) ID() int           { return v.id }
func (v *RelationalValue) Operands() []Value { return []Value{v.Left, v.Right} }

func (v *RelationalValue) String() string {
	return fmt.Sprintf("(%s %s %s)", v.Left, v.Op, v.Right)
}

// Relation returns the relation which holds when the value is truthy.
func (v *RelationalValue) Relation() Relation {
	return Relation{Op: v.Op, Left: v.Left, Right: v.Right}
}

// BaseConstraint returns TRUE or FALSE when the operand constraints or the
// relations known in s decide the comparison. Otherwise BOOLEAN_PRIMITIVE.
func (v *RelationalValue) BaseConstraint(s *ProgramState) Constraint {
	if c := v.constantOutcome(s.Constraint(v.Left), s.Constraint(v.Right)); c != BOOLEAN_PRIMITIVE {
		return c
	}

	r := v.Relation()
	if r.IsUnknown() {
		return BOOLEAN_PRIMITIVE
	}
	for _, known := range s.Relations() {
		if known.Implies(r) {
			return TRUE
		} else if !known.IsCompatibleWith(r) {
			return FALSE
		}
	}
	if r.IsContradiction() {
		return FALSE
	}
	return BOOLEAN_PRIMITIVE
}

// constantOutcome decides the comparison from the operand constraints alone.
func (v *RelationalValue) constantOutcome(left, right Constraint) Constraint {
	switch v.Op {
	case SEQ, SNE:
		eq := BOOLEAN_PRIMITIVE
		if left.IsSingleValue() && left == right {
			eq = TRUE
		} else if left.IsIncompatibleWith(right) || left == NAN || right == NAN {
			eq = FALSE
		}
		if v.Op == SNE {
			return negateBoolean(eq)
		}
		return eq

	case EQ, NE:
		eq := BOOLEAN_PRIMITIVE
		if left.IsStricterOrEqualTo(NULL_OR_UNDEFINED) && right.IsStricterOrEqualTo(NULL_OR_UNDEFINED) {
			eq = TRUE
		} else if (left.IsStricterOrEqualTo(NULL_OR_UNDEFINED) && right.IsStricterOrEqualTo(NOT_NULLY)) ||
			(left.IsStricterOrEqualTo(NOT_NULLY) && right.IsStricterOrEqualTo(NULL_OR_UNDEFINED)) {
			eq = FALSE
		}
		if v.Op == NE {
			return negateBoolean(eq)
		}
		return eq

	default:
		if left == NAN || right == NAN {
			return FALSE
		}
		return BOOLEAN_PRIMITIVE
	}
}

func negateBoolean(c Constraint) Constraint {
	switch c {
	case TRUE:
		return FALSE
	case FALSE:
		return TRUE
	}
	return c
}

func (v *RelationalValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainValue(s, v, c)
}

// ConstrainDependencies narrows the operands when the comparison is known to
// be truthy or falsy and records the corresponding relation.
//
// Strict equality transfers a single value constraint from one operand to the
// other. Loose equality only narrows against null and undefined.
func (v *RelationalValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	var truthy bool
	switch {
	case c.IsStricterOrEqualTo(TRUTHY):
		truthy = true
	case c.IsStricterOrEqualTo(FALSY):
		truthy = false
	default:
		return s, true
	}

	op := v.Op
	if !truthy {
		op = op.Not()
	}

	var ok bool
	switch op {
	case SEQ, SNE:
		if s, ok = v.constrainStrict(s, v.Left, v.Right, op == SEQ); !ok {
			return nil, false
		} else if s, ok = v.constrainStrict(s, v.Right, v.Left, op == SEQ); !ok {
			return nil, false
		}
	case EQ, NE:
		if s, ok = v.constrainLoose(s, v.Left, v.Right, op == EQ); !ok {
			return nil, false
		} else if s, ok = v.constrainLoose(s, v.Right, v.Left, op == EQ); !ok {
			return nil, false
		}
	}

	return s.AddRelation(Relation{Op: op, Left: v.Left, Right: v.Right})
}

// constrainStrict narrows target when other is a single value.
func (v *RelationalValue) constrainStrict(s *ProgramState, target, other Value, equal bool) (*ProgramState, bool) {
	c := s.Constraint(other)
	if !c.IsSingleValue() {
		return s, true
	} else if equal {
		return s.Constrain(target, c)
	}
	return s.Constrain(target, strictNot(c))
}

// constrainLoose narrows target when other is null or undefined.
func (v *RelationalValue) constrainLoose(s *ProgramState, target, other Value, equal bool) (*ProgramState, bool) {
	c := s.Constraint(other)
	if c != NULL && c != UNDEFINED && c != NULL_OR_UNDEFINED {
		return s, true
	} else if equal {
		return s.Constrain(target, NULL_OR_UNDEFINED)
	}
	return s.Constrain(target, NOT_NULLY)
}

// TypeOfComparisonValue represents `typeof x === "tag"` and its variants.
type TypeOfComparisonValue struct {
	id      int
	Op      RelationOp
	Operand Value
	Tag     string
}

// NewTypeOfComparisonValue returns a new typeof comparison. Returns nil if the
// operator is not an equality operator.
func NewTypeOfComparisonValue(op RelationOp, operand Value, tag string) *TypeOfComparisonValue {
	if !op.IsEquality() {
		return nil
	}
	return &TypeOfComparisonValue{id: nextValueID(), Op: op, Operand: operand, Tag: tag}
}

func (v *TypeOfComparisonValue) ID() int           { return v.id }
func (v *TypeOfComparisonValue) Operands() []Value { return []Value{v.Operand} }

func (v *TypeOfComparisonValue) String() string {
	return fmt.Sprintf("(typeof %s %s %q)", v.Operand, v.Op, v.Tag)
}

// equal returns true if the value is truthy when the tag matches.
func (v *TypeOfComparisonValue) equal() bool {
	return v.Op == EQ || v.Op == SEQ
}

func (v *TypeOfComparisonValue) BaseConstraint(s *ProgramState) Constraint {
	tc, ok := TypeOfConstraint(v.Tag)
	if !ok {
		if v.equal() {
			return FALSE
		}
		return TRUE
	}

	operand := s.Constraint(v.Operand)
	match := BOOLEAN_PRIMITIVE
	if operand.IsStricterOrEqualTo(tc) {
		match = TRUE
	} else if operand.IsIncompatibleWith(tc) {
		match = FALSE
	}
	if !v.equal() {
		return negateBoolean(match)
	}
	return match
}

func (v *TypeOfComparisonValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainValue(s, v, c)
}

func (v *TypeOfComparisonValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	tc, ok := TypeOfConstraint(v.Tag)
	if !ok {
		return s, true
	}

	var match bool
	switch {
	case c.IsStricterOrEqualTo(TRUTHY):
		match = v.equal()
	case c.IsStricterOrEqualTo(FALSY):
		match = !v.equal()
	default:
		return s, true
	}

	if match {
		return s.Constrain(v.Operand, tc)
	}
	return s.Constrain(v.Operand, tc.Not())
}
