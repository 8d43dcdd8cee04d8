package jslee

import (
	"fmt"
)

// RelationOp represents a comparison operator retained between two values.
type RelationOp int

// Relation operators.
const (
	relation_op_begin = RelationOp(iota)
	LT
	LE
	GT
	GE
	EQ
	NE
	SEQ
	SNE
	relation_op_end
)

var relationOps = [...]string{
	LT:  "<",
	LE:  "<=",
	GT:  ">",
	GE:  ">=",
	EQ:  "==",
	NE:  "!=",
	SEQ: "===",
	SNE: "!==",
}

// String returns the JavaScript operator.
func (op RelationOp) String() string {
	if op >= 0 && op < RelationOp(len(relationOps)) && relationOps[op] != "" {
		return relationOps[op]
	}
	return fmt.Sprintf("RelationOp<%d>", op)
}

// IsValid returns true if op is a known relation operator.
func (op RelationOp) IsValid() bool {
	return op > relation_op_begin && op < relation_op_end
}

// IsEquality returns true for ==, !=, === and !==.
func (op RelationOp) IsEquality() bool {
	return op >= EQ && op <= SNE
}

// Not returns the operator which holds exactly when op does not.
func (op RelationOp) Not() RelationOp {
	switch op {
	case LT:
		return GE
	case LE:
		return GT
	case GT:
		return LE
	case GE:
		return LT
	case EQ:
		return NE
	case NE:
		return EQ
	case SEQ:
		return SNE
	case SNE:
		return SEQ
	default:
		panic(fmt.Sprintf("jslee.RelationOp.Not: invalid op: %s", op))
	}
}

// Converse returns the operator which holds when the operands are swapped.
func (op RelationOp) Converse() RelationOp {
	switch op {
	case LT:
		return GT
	case LE:
		return GE
	case GT:
		return LT
	case GE:
		return LE
	case EQ, NE, SEQ, SNE:
		return op
	default:
		panic(fmt.Sprintf("jslee.RelationOp.Converse: invalid op: %s", op))
	}
}

// ParseRelationOp returns the relation operator for a JavaScript operator.
func ParseRelationOp(s string) (RelationOp, bool) {
	for op, str := range relationOps {
		if str != "" && str == s {
			return RelationOp(op), true
		}
	}
	return 0, false
}

// incompatibleOps lists, for a pair of relations over the same operands in
// the same orientation, the operators that cannot hold together.
var incompatibleOps = map[RelationOp][]RelationOp{
	LT:  {GT, GE, EQ, SEQ},
	LE:  {GT},
	GT:  {LT, LE, EQ, SEQ},
	GE:  {LT},
	EQ:  {LT, GT, NE},
	NE:  {EQ, SEQ},
	SEQ: {LT, GT, SNE, NE},
	SNE: {SEQ},
}

// Relation represents a known comparison between two values.
type Relation struct {
	Op    RelationOp
	Left  Value
	Right Value
}

// NewRelation returns a new relation. Panics if op is invalid.
func NewRelation(op RelationOp, left, right Value) Relation {
	assert(op.IsValid(), "invalid relation op: %d", op)
	return Relation{Op: op, Left: left, Right: right}
}

// Not returns the negation of the relation.
func (r Relation) Not() Relation {
	return Relation{Op: r.Op.Not(), Left: r.Left, Right: r.Right}
}

// Converse returns the equivalent relation with its operands swapped.
func (r Relation) Converse() Relation {
	return Relation{Op: r.Op.Converse(), Left: r.Right, Right: r.Left}
}

// Equal returns true if r and other are the same relation in the same
// orientation.
func (r Relation) Equal(other Relation) bool {
	return r.Op == other.Op && r.Left.ID() == other.Left.ID() && r.Right.ID() == other.Right.ID()
}

// IsContradiction returns true if the relation cannot hold by itself.
// A value is never strictly lower or greater than itself. UnknownValue stands
// for any number of distinct values so it never contradicts itself.
func (r Relation) IsContradiction() bool {
	if r.IsUnknown() {
		return false
	}
	return r.Left.ID() == r.Right.ID() && (r.Op == LT || r.Op == GT)
}

// IsUnknown returns true if either side of the relation is UnknownValue.
func (r Relation) IsUnknown() bool {
	return r.Left == UnknownValue || r.Right == UnknownValue
}

// IsCompatibleWith returns false if r and other cannot hold together.
// Relations over different operands are always compatible.
func (r Relation) IsCompatibleWith(other Relation) bool {
	if r.IsContradiction() || other.IsContradiction() {
		return false
	}

	switch {
	case r.Left.ID() == other.Left.ID() && r.Right.ID() == other.Right.ID():
	case r.Left.ID() == other.Right.ID() && r.Right.ID() == other.Left.ID():
		other = other.Converse()
	default:
		return true
	}

	for _, op := range incompatibleOps[r.Op] {
		if op == other.Op {
			return false
		}
	}
	return true
}

// Implies returns true if r holding guarantees that other holds.
func (r Relation) Implies(other Relation) bool {
	if r.Equal(other) || r.Equal(other.Converse()) {
		return true
	}
	return sameOperands(r, other) && !r.IsCompatibleWith(other.Not())
}

// String returns a string representation of the relation.
func (r Relation) String() string {
	return fmt.Sprintf("%s %s %s", r.Left, r.Op, r.Right)
}

// sameOperands returns true if both relations compare the same two values.
func sameOperands(a, b Relation) bool {
	return (a.Left.ID() == b.Left.ID() && a.Right.ID() == b.Right.ID()) ||
		(a.Left.ID() == b.Right.ID() && a.Right.ID() == b.Left.ID())
}

// relationKey orders relations within a ProgramState.
type relationKey struct {
	op          RelationOp
	left, right int
}

func (r Relation) key() relationKey {
	return relationKey{op: r.Op, left: r.Left.ID(), right: r.Right.ID()}
}

// relationKeyComparer compares relationKey values.
type relationKeyComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not a relationKey.
func (c *relationKeyComparer) Compare(a, b interface{}) int {
	x, y := a.(relationKey), b.(relationKey)
	if x.left != y.left {
		return compareInts(x.left, y.left)
	} else if x.right != y.right {
		return compareInts(x.right, y.right)
	}
	return compareInts(int(x.op), int(y.op))
}

func compareInts(a, b int) int {
	if a < b {
		return -1
	} else if a > b {
		return 1
	}
	return 0
}
