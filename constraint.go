package jslee

import (
	"math/bits"
	"strings"
)

// Constraint represents an approximation of the runtime values an expression
// may take. It is a set over disjoint atoms of the JavaScript value universe
// so unions, intersections and complements are exact bit operations.
type Constraint uint32

// Constraint atoms. Every runtime value belongs to exactly one atom.
const (
	NULL Constraint = 1 << iota
	UNDEFINED
	TRUE
	FALSE
	ZERO
	POSITIVE_NUMBER_PRIMITIVE
	NEGATIVE_NUMBER_PRIMITIVE
	NAN
	EMPTY_STRING_PRIMITIVE
	TRUTHY_STRING_PRIMITIVE
	SYMBOL
	FUNCTION
	ARRAY
	DATE
	REGEXP
	OTHER_OBJECT
	NUMBER_OBJECT
	STRING_OBJECT
	BOOLEAN_OBJECT

	atom_end
)

// Named unions of atoms.
const (
	NO_POSSIBLE_VALUE Constraint = 0
	ANY_VALUE                    = atom_end - 1

	NULL_OR_UNDEFINED = NULL | UNDEFINED
	NOT_NULLY         = ANY_VALUE &^ NULL_OR_UNDEFINED

	BOOLEAN_PRIMITIVE = TRUE | FALSE
	ANY_BOOLEAN       = BOOLEAN_PRIMITIVE | BOOLEAN_OBJECT

	TRUTHY_NUMBER_PRIMITIVE = POSITIVE_NUMBER_PRIMITIVE | NEGATIVE_NUMBER_PRIMITIVE
	FALSY_NUMBER_PRIMITIVE  = ZERO | NAN
	NUMBER_PRIMITIVE        = TRUTHY_NUMBER_PRIMITIVE | FALSY_NUMBER_PRIMITIVE
	ANY_NUMBER              = NUMBER_PRIMITIVE | NUMBER_OBJECT

	STRING_PRIMITIVE = EMPTY_STRING_PRIMITIVE | TRUTHY_STRING_PRIMITIVE
	ANY_STRING       = STRING_PRIMITIVE | STRING_OBJECT

	OBJECT = FUNCTION | ARRAY | DATE | REGEXP | OTHER_OBJECT | NUMBER_OBJECT | STRING_OBJECT | BOOLEAN_OBJECT

	FALSY  = NULL | UNDEFINED | FALSE | ZERO | NAN | EMPTY_STRING_PRIMITIVE
	TRUTHY = ANY_VALUE &^ FALSY
)

var atomNames = [...]string{
	"NULL",
	"UNDEFINED",
	"TRUE",
	"FALSE",
	"ZERO",
	"POSITIVE_NUMBER_PRIMITIVE",
	"NEGATIVE_NUMBER_PRIMITIVE",
	"NAN",
	"EMPTY_STRING_PRIMITIVE",
	"TRUTHY_STRING_PRIMITIVE",
	"SYMBOL",
	"FUNCTION",
	"ARRAY",
	"DATE",
	"REGEXP",
	"OTHER_OBJECT",
	"NUMBER_OBJECT",
	"STRING_OBJECT",
	"BOOLEAN_OBJECT",
}

type namedConstraint struct {
	c    Constraint
	name string
}

// exactNames are only used when a constraint matches the union exactly.
var exactNames = []namedConstraint{
	{NO_POSSIBLE_VALUE, "NO_POSSIBLE_VALUE"},
	{ANY_VALUE, "ANY_VALUE"},
	{NOT_NULLY, "NOT_NULLY"},
	{TRUTHY, "TRUTHY"},
	{FALSY, "FALSY"},
}

// groupNames are extracted greedily, largest first, when rendering a union.
var groupNames = []namedConstraint{
	{OBJECT, "OBJECT"},
	{ANY_NUMBER, "ANY_NUMBER"},
	{NUMBER_PRIMITIVE, "NUMBER_PRIMITIVE"},
	{TRUTHY_NUMBER_PRIMITIVE, "TRUTHY_NUMBER_PRIMITIVE"},
	{FALSY_NUMBER_PRIMITIVE, "FALSY_NUMBER_PRIMITIVE"},
	{ANY_STRING, "ANY_STRING"},
	{STRING_PRIMITIVE, "STRING_PRIMITIVE"},
	{ANY_BOOLEAN, "ANY_BOOLEAN"},
	{BOOLEAN_PRIMITIVE, "BOOLEAN_PRIMITIVE"},
	{NULL_OR_UNDEFINED, "NULL_OR_UNDEFINED"},
}

// Or returns the union of c and other. Precision is lost, never feasibility.
func (c Constraint) Or(other Constraint) Constraint { return c | other }

// And returns the intersection of c and other. An empty result means the two
// facts cannot hold at the same time.
func (c Constraint) And(other Constraint) Constraint { return c & other }

// Not returns the complement of c within ANY_VALUE.
func (c Constraint) Not() Constraint { return ANY_VALUE &^ c }

// IsNone returns true if no runtime value satisfies c.
func (c Constraint) IsNone() bool { return c&ANY_VALUE == 0 }

// IsIncompatibleWith returns true if no value can satisfy both constraints.
func (c Constraint) IsIncompatibleWith(other Constraint) bool { return c&other == 0 }

// IsStricterOrEqualTo returns true if every value satisfying c satisfies other.
func (c Constraint) IsStricterOrEqualTo(other Constraint) bool {
	return c != 0 && c&^other == 0
}

// IsSingleValue returns true if c describes exactly one runtime value.
// Only these constraints can be transferred or negated through strict equality.
func (c Constraint) IsSingleValue() bool {
	switch c {
	case NULL, UNDEFINED, TRUE, FALSE, ZERO, EMPTY_STRING_PRIMITIVE:
		return true
	default:
		return false
	}
}

// Truthiness returns TRUTHY or FALSY if c determines the truthiness of its
// values. Otherwise returns ANY_VALUE.
func (c Constraint) Truthiness() Constraint {
	if c.IsStricterOrEqualTo(TRUTHY) {
		return TRUTHY
	} else if c.IsStricterOrEqualTo(FALSY) {
		return FALSY
	}
	return ANY_VALUE
}

// String returns the string representation of the constraint.
func (c Constraint) String() string {
	c &= ANY_VALUE
	for _, n := range exactNames {
		if n.c == c {
			return n.name
		}
	}

	var names []string
	for _, n := range groupNames {
		if c&n.c == n.c {
			names = append(names, n.name)
			c &^= n.c
		}
	}
	for c != 0 {
		i := bits.TrailingZeros32(uint32(c))
		names = append(names, atomNames[i])
		c &^= 1 << uint(i)
	}
	return strings.Join(names, "|")
}

// strictNot returns the constraint of all values other than the single value
// described by c. Panics if c is not a single value.
func strictNot(c Constraint) Constraint {
	assert(c.IsSingleValue(), "strict negation of non-singleton constraint: %s", c)
	return c.Not()
}

// numberLike are the constraints converted by ToNumber without a chance of
// string concatenation when used with the plus operator.
const numberLike = ANY_NUMBER | ANY_BOOLEAN | NULL_OR_UNDEFINED

// PlusConstraint returns the constraint of `a + b`.
func PlusConstraint(a, b Constraint) Constraint {
	if a.IsStricterOrEqualTo(ANY_STRING) || b.IsStricterOrEqualTo(ANY_STRING) {
		return STRING_PRIMITIVE
	} else if a == UNDEFINED || b == UNDEFINED {
		return NAN
	} else if a.IsStricterOrEqualTo(numberLike) && b.IsStricterOrEqualTo(numberLike) {
		return NUMBER_PRIMITIVE
	}
	return NUMBER_PRIMITIVE | STRING_PRIMITIVE
}

// ArithmeticConstraint returns the constraint of `a - b`, `a * b`, `a / b`,
// `a % b` and `a ** b`.
func ArithmeticConstraint(a, b Constraint) Constraint {
	if a == UNDEFINED || b == UNDEFINED {
		return NAN
	}
	return NUMBER_PRIMITIVE
}

// BitwiseConstraint returns the constraint of `a & b`, `a | b`, `a ^ b` and
// the shift operators. Operands go through ToInt32 so undefined becomes 0
// rather than NaN.
func BitwiseConstraint(a, b Constraint) Constraint {
	return NUMBER_PRIMITIVE
}

// UnaryPlusConstraint returns the constraint of `+a`.
func UnaryPlusConstraint(a Constraint) Constraint {
	if a.IsStricterOrEqualTo(NUMBER_PRIMITIVE) {
		return a
	}
	return NUMBER_PRIMITIVE
}

// UnaryMinusConstraint returns the constraint of `-a`.
func UnaryMinusConstraint(a Constraint) Constraint {
	if !a.IsStricterOrEqualTo(NUMBER_PRIMITIVE) {
		return NUMBER_PRIMITIVE
	}
	return flipSign(a)
}

// flipSign swaps the positive & negative atoms of c.
func flipSign(c Constraint) Constraint {
	other := c &^ TRUTHY_NUMBER_PRIMITIVE
	if c&POSITIVE_NUMBER_PRIMITIVE != 0 {
		other |= NEGATIVE_NUMBER_PRIMITIVE
	}
	if c&NEGATIVE_NUMBER_PRIMITIVE != 0 {
		other |= POSITIVE_NUMBER_PRIMITIVE
	}
	return other
}

// IncDecConstraint returns the constraint of a value after `++` (increment)
// or `--` is applied to a value constrained by c.
func IncDecConstraint(c Constraint, increment bool) Constraint {
	var table map[Constraint]Constraint
	if increment {
		table = incrementTable
	} else {
		table = decrementTable
	}

	var result Constraint
	for rest := c & ANY_VALUE; rest != 0; {
		atom := Constraint(1) << uint(bits.TrailingZeros32(uint32(rest)))
		rest &^= atom
		if other, ok := table[atom]; ok {
			result |= other
		} else {
			result |= NUMBER_PRIMITIVE
		}
	}
	return result
}

var incrementTable = map[Constraint]Constraint{
	NULL:                      POSITIVE_NUMBER_PRIMITIVE,
	UNDEFINED:                 NAN,
	TRUE:                      POSITIVE_NUMBER_PRIMITIVE,
	FALSE:                     POSITIVE_NUMBER_PRIMITIVE,
	ZERO:                      POSITIVE_NUMBER_PRIMITIVE,
	POSITIVE_NUMBER_PRIMITIVE: POSITIVE_NUMBER_PRIMITIVE,
	NEGATIVE_NUMBER_PRIMITIVE: NEGATIVE_NUMBER_PRIMITIVE | ZERO,
	NAN:                       NAN,
}

var decrementTable = map[Constraint]Constraint{
	NULL:                      NEGATIVE_NUMBER_PRIMITIVE,
	UNDEFINED:                 NAN,
	TRUE:                      ZERO,
	FALSE:                     NEGATIVE_NUMBER_PRIMITIVE,
	ZERO:                      NEGATIVE_NUMBER_PRIMITIVE,
	POSITIVE_NUMBER_PRIMITIVE: POSITIVE_NUMBER_PRIMITIVE | ZERO,
	NEGATIVE_NUMBER_PRIMITIVE: NEGATIVE_NUMBER_PRIMITIVE,
	NAN:                       NAN,
}

// TypeOfConstraint returns the constraint of values whose `typeof` is tag.
// Returns false for an unrecognized tag.
func TypeOfConstraint(tag string) (Constraint, bool) {
	switch tag {
	case "undefined":
		return UNDEFINED, true
	case "boolean":
		return BOOLEAN_PRIMITIVE, true
	case "number":
		return NUMBER_PRIMITIVE, true
	case "string":
		return STRING_PRIMITIVE, true
	case "symbol":
		return SYMBOL, true
	case "function":
		return FUNCTION, true
	case "object":
		return NULL | (OBJECT &^ FUNCTION), true
	default:
		return NO_POSSIBLE_VALUE, false
	}
}
