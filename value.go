package jslee

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"sync/atomic"
)

// Value represents an unevaluated runtime value. Values are immutable and
// compared by identity. Any refinement of a value lives in a ProgramState.
type Value interface {
	// ID returns the unique identity of the value.
	ID() int

	String() string

	// BaseConstraint returns the intrinsic constraint of the value, ignoring
	// refinements recorded in s for the value itself.
	BaseConstraint(s *ProgramState) Constraint

	// Constrain refines the value with c. Returns false if no state can
	// satisfy the refinement.
	Constrain(s *ProgramState, c Constraint) (*ProgramState, bool)

	// ConstrainDependencies propagates a refinement of the value onto the
	// values it derives from.
	ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool)

	// Operands returns the values this value derives from.
	Operands() []Value
}

var valueIDSeq int64

// nextValueID returns the next process-wide value identity.
func nextValueID() int {
	return int(atomic.AddInt64(&valueIDSeq, 1))
}

// constrainValue records c on v and propagates it to v's dependencies.
func constrainValue(s *ProgramState, v Value, c Constraint) (*ProgramState, bool) {
	cur := s.Constraint(v)
	next := cur.And(c)
	if next.IsNone() {
		return nil, false
	} else if next == cur {
		return s, true
	}
	return v.ConstrainDependencies(s.withConstraint(v, next), next)
}

// constrainFixed accepts refinements compatible with c as no-ops.
func constrainFixed(s *ProgramState, c, other Constraint) (*ProgramState, bool) {
	if c.IsIncompatibleWith(other) {
		return nil, false
	}
	return s, true
}

// singleton represents a value with one fixed constraint and no identity of
// its own beyond the process.
type singleton struct {
	id         int
	name       string
	constraint Constraint
}

var (
	// NullValue represents the JavaScript null.
	NullValue Value = &singleton{id: nextValueID(), name: "NULL", constraint: NULL}

	// UndefinedValue represents the JavaScript undefined.
	UndefinedValue Value = &singleton{id: nextValueID(), name: "UNDEFINED", constraint: UNDEFINED}

	// UnknownValue represents a value that is not tracked. It accepts every
	// refinement without recording it.
	UnknownValue Value = &unknown{id: nextValueID()}
)

func (v *singleton) ID() int                                   { return v.id }
func (v *singleton) String() string                            { return v.name }
func (v *singleton) BaseConstraint(s *ProgramState) Constraint { return v.constraint }
func (v *singleton) Operands() []Value                         { return nil }

func (v *singleton) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainFixed(s, v.constraint, c)
}

func (v *singleton) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

type unknown struct {
	id int
}

func (v *unknown) ID() int                                   { return v.id }
func (v *unknown) String() string                            { return "UNKNOWN" }
func (v *unknown) BaseConstraint(s *ProgramState) Constraint { return ANY_VALUE }
func (v *unknown) Operands() []Value                         { return nil }

func (v *unknown) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

func (v *unknown) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

// LiteralValue represents a literal constant of the source.
type LiteralValue struct {
	id         int
	lexeme     string
	constraint Constraint
}

// NewLiteralValue returns a literal value for a literal node.
// Panics if the node is not a literal.
func NewLiteralValue(n *Node) *LiteralValue {
	switch n.Kind {
	case KindNumberLiteral:
		return NewNumberLiteralValue(n.Value)
	case KindStringLiteral, KindTemplateLiteral:
		c := TRUTHY_STRING_PRIMITIVE
		if n.Value == "" {
			c = EMPTY_STRING_PRIMITIVE
		}
		return &LiteralValue{id: nextValueID(), lexeme: strconv.Quote(n.Value), constraint: c}
	case KindBooleanLiteral:
		switch n.Value {
		case "true":
			return &LiteralValue{id: nextValueID(), lexeme: n.Value, constraint: TRUE}
		case "false":
			return &LiteralValue{id: nextValueID(), lexeme: n.Value, constraint: FALSE}
		}
	case KindRegexLiteral:
		return &LiteralValue{id: nextValueID(), lexeme: n.Value, constraint: REGEXP}
	}
	panic(fmt.Sprintf("jslee.NewLiteralValue: unexpected literal: kind=%s value=%q", n.Kind, n.Value))
}

// NewNumberLiteralValue returns a literal value for a numeric lexeme.
func NewNumberLiteralValue(lexeme string) *LiteralValue {
	return &LiteralValue{id: nextValueID(), lexeme: lexeme, constraint: numberLiteralConstraint(lexeme)}
}

// numberLiteralConstraint returns ZERO, NAN or POSITIVE_NUMBER_PRIMITIVE for
// a numeric lexeme. Lexemes that cannot be parsed are considered non-zero.
func numberLiteralConstraint(lexeme string) Constraint {
	switch lexeme {
	case "NaN":
		return NAN
	case "Infinity":
		return POSITIVE_NUMBER_PRIMITIVE
	}

	s := strings.ToLower(strings.ReplaceAll(lexeme, "_", ""))
	s = strings.TrimSuffix(s, "n")

	var f float64
	if len(s) > 2 && s[0] == '0' && strings.ContainsRune("xob", rune(s[1])) {
		base := map[byte]int{'x': 16, 'o': 8, 'b': 2}[s[1]]
		u, err := strconv.ParseUint(s[2:], base, 64)
		if err != nil {
			return POSITIVE_NUMBER_PRIMITIVE
		}
		f = float64(u)
	} else {
		var err error
		if f, err = strconv.ParseFloat(s, 64); err != nil && !math.IsInf(f, 0) {
			return POSITIVE_NUMBER_PRIMITIVE
		}
	}

	if f == 0 {
		return ZERO
	}
	return POSITIVE_NUMBER_PRIMITIVE
}

func (v *LiteralValue) ID() int                                   { return v.id }
func (v *LiteralValue) String() string                            { return v.lexeme }
func (v *LiteralValue) BaseConstraint(s *ProgramState) Constraint { return v.constraint }
func (v *LiteralValue) Operands() []Value                         { return nil }

func (v *LiteralValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainFixed(s, v.constraint, c)
}

func (v *LiteralValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

// SymbolicValue represents a value about which nothing is known beyond its
// base constraint: a parameter, a call result or a property read.
type SymbolicValue struct {
	id         int
	name       string
	constraint Constraint
}

// NewSymbolicValue returns a fresh value with the given base constraint.
func NewSymbolicValue(name string, c Constraint) *SymbolicValue {
	return &SymbolicValue{id: nextValueID(), name: name, constraint: c}
}

func (v *SymbolicValue) ID() int                                   { return v.id }
func (v *SymbolicValue) BaseConstraint(s *ProgramState) Constraint { return v.constraint }
func (v *SymbolicValue) Operands() []Value                         { return nil }

func (v *SymbolicValue) String() string {
	if v.name == "" {
		return fmt.Sprintf("SV_%d", v.id)
	}
	return fmt.Sprintf("SV_%d(%s)", v.id, v.name)
}

func (v *SymbolicValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainValue(s, v, c)
}

func (v *SymbolicValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

// ObjectValue represents a freshly created object: a literal, an instance
// created with new, or this.
type ObjectValue struct {
	id         int
	kind       string
	constraint Constraint
}

// NewObjectValue returns a new object value. Panics if c allows primitives.
func NewObjectValue(kind string, c Constraint) *ObjectValue {
	assert(c.IsStricterOrEqualTo(OBJECT), "object value with non-object constraint: %s", c)
	return &ObjectValue{id: nextValueID(), kind: kind, constraint: c}
}

func (v *ObjectValue) ID() int                                   { return v.id }
func (v *ObjectValue) String() string                            { return fmt.Sprintf("%s_%d", v.kind, v.id) }
func (v *ObjectValue) BaseConstraint(s *ProgramState) Constraint { return v.constraint }
func (v *ObjectValue) Operands() []Value                         { return nil }

func (v *ObjectValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainValue(s, v, c)
}

func (v *ObjectValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

// FunctionValue represents a function declared or expressed in the source.
type FunctionValue struct {
	id   int
	name string
}

// NewFunctionValue returns a new function value.
func NewFunctionValue(name string) *FunctionValue {
	return &FunctionValue{id: nextValueID(), name: name}
}

func (v *FunctionValue) ID() int                                   { return v.id }
func (v *FunctionValue) BaseConstraint(s *ProgramState) Constraint { return FUNCTION }
func (v *FunctionValue) Operands() []Value                         { return nil }

func (v *FunctionValue) String() string {
	if v.name == "" {
		return fmt.Sprintf("function_%d", v.id)
	}
	return fmt.Sprintf("function_%d(%s)", v.id, v.name)
}

func (v *FunctionValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainFixed(s, FUNCTION, c)
}

func (v *FunctionValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

// BinaryOp represents an arithmetic, bitwise or membership operator.
type BinaryOp int

// Binary operators.
const (
	plus_op_begin = BinaryOp(iota)
	ADD
	plus_op_end

	arithmetic_op_begin
	SUB
	MUL
	DIV
	REM
	EXP
	arithmetic_op_end

	bitwise_op_begin
	BITAND
	BITOR
	BITXOR
	SHL
	SHR
	USHR
	bitwise_op_end

	boolean_op_begin
	IN
	INSTANCEOF
	boolean_op_end
)

var binaryOps = [...]string{
	ADD:        "+",
	SUB:        "-",
	MUL:        "*",
	DIV:        "/",
	REM:        "%",
	EXP:        "**",
	BITAND:     "&",
	BITOR:      "|",
	BITXOR:     "^",
	SHL:        "<<",
	SHR:        ">>",
	USHR:       ">>>",
	IN:         "in",
	INSTANCEOF: "instanceof",
}

// String returns the JavaScript operator.
func (op BinaryOp) String() string {
	if op >= 0 && op < BinaryOp(len(binaryOps)) && binaryOps[op] != "" {
		return binaryOps[op]
	}
	return fmt.Sprintf("BinaryOp<%d>", op)
}

// IsArithmetic returns true if op converts its operands with ToNumber.
func (op BinaryOp) IsArithmetic() bool {
	return op > arithmetic_op_begin && op < arithmetic_op_end
}

// IsBitwise returns true if op converts its operands with ToInt32.
func (op BinaryOp) IsBitwise() bool {
	return op > bitwise_op_begin && op < bitwise_op_end
}

// ParseBinaryOp returns the binary operator for a JavaScript operator.
// Compound assignment operators are accepted, e.g. "+=".
func ParseBinaryOp(s string) (BinaryOp, bool) {
	if len(s) > 1 {
		s = strings.TrimSuffix(s, "=")
	}
	for op, str := range binaryOps {
		if str != "" && str == s {
			return BinaryOp(op), true
		}
	}
	return 0, false
}

// BinaryValue represents the result of a binary operator.
type BinaryValue struct {
	id          int
	Op          BinaryOp
	Left, Right Value
}

// NewBinaryValue returns a new binary value.
func NewBinaryValue(op BinaryOp, left, right Value) *BinaryValue {
	return &BinaryValue{id: nextValueID(), Op: op, Left: left, Right: right}
}

func (v *BinaryValue) ID() int           { return v.id }
func (v *BinaryValue) Operands() []Value { return []Value{v.Left, v.Right} }

func (v *BinaryValue) String() string {
	return fmt.Sprintf("(%s %s %s)", v.Left, v.Op, v.Right)
}

func (v *BinaryValue) BaseConstraint(s *ProgramState) Constraint {
	left, right := s.Constraint(v.Left), s.Constraint(v.Right)
	switch {
	case v.Op == ADD:
		return PlusConstraint(left, right)
	case v.Op.IsArithmetic():
		return ArithmeticConstraint(left, right)
	case v.Op.IsBitwise():
		return BitwiseConstraint(left, right)
	case v.Op == IN, v.Op == INSTANCEOF:
		return BOOLEAN_PRIMITIVE
	default:
		panic(fmt.Sprintf("jslee.BinaryValue: unexpected op: %s", v.Op))
	}
}

func (v *BinaryValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainValue(s, v, c)
}

func (v *BinaryValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}

// UnaryOp represents a unary operator.
type UnaryOp int

// Unary operators.
const (
	unary_op_begin = UnaryOp(iota)
	POS
	NEG
	NOT
	BITNOT
	TYPEOF
	VOID
	DELETE
	unary_op_end
)

var unaryOps = [...]string{
	POS:    "+",
	NEG:    "-",
	NOT:    "!",
	BITNOT: "~",
	TYPEOF: "typeof",
	VOID:   "void",
	DELETE: "delete",
}

// String returns the JavaScript operator.
func (op UnaryOp) String() string {
	if op >= 0 && op < UnaryOp(len(unaryOps)) && unaryOps[op] != "" {
		return unaryOps[op]
	}
	return fmt.Sprintf("UnaryOp<%d>", op)
}

// ParseUnaryOp returns the unary operator for a JavaScript operator.
func ParseUnaryOp(s string) (UnaryOp, bool) {
	for op, str := range unaryOps {
		if str != "" && str == s {
			return UnaryOp(op), true
		}
	}
	return 0, false
}

// UnaryValue represents the result of a unary operator.
type UnaryValue struct {
	id      int
	Op      UnaryOp
	Operand Value
}

// NewUnaryValue returns a new unary value.
func NewUnaryValue(op UnaryOp, operand Value) *UnaryValue {
	return &UnaryValue{id: nextValueID(), Op: op, Operand: operand}
}

// Negate returns the value of -v. Negating a negation of a number returns
// the original number.
func Negate(s *ProgramState, v Value) Value {
	if u, ok := v.(*UnaryValue); ok && u.Op == NEG && s.Constraint(u.Operand).IsStricterOrEqualTo(NUMBER_PRIMITIVE) {
		return u.Operand
	}
	return NewUnaryValue(NEG, v)
}

func (v *UnaryValue) ID() int           { return v.id }
func (v *UnaryValue) Operands() []Value { return []Value{v.Operand} }

func (v *UnaryValue) String() string {
	if len(v.Op.String()) > 1 {
		return fmt.Sprintf("%s %s", v.Op, v.Operand)
	}
	return v.Op.String() + v.Operand.String()
}

func (v *UnaryValue) BaseConstraint(s *ProgramState) Constraint {
	operand := s.Constraint(v.Operand)
	switch v.Op {
	case POS:
		return UnaryPlusConstraint(operand)
	case NEG:
		return UnaryMinusConstraint(operand)
	case NOT:
		switch operand.Truthiness() {
		case TRUTHY:
			return FALSE
		case FALSY:
			return TRUE
		}
		return BOOLEAN_PRIMITIVE
	case BITNOT:
		return NUMBER_PRIMITIVE
	case TYPEOF:
		return TRUTHY_STRING_PRIMITIVE
	case VOID:
		return UNDEFINED
	case DELETE:
		return BOOLEAN_PRIMITIVE
	default:
		panic(fmt.Sprintf("jslee.UnaryValue: unexpected op: %s", v.Op))
	}
}

func (v *UnaryValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainValue(s, v, c)
}

func (v *UnaryValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	switch v.Op {
	case NOT:
		if c.IsStricterOrEqualTo(TRUTHY) {
			return s.Constrain(v.Operand, FALSY)
		} else if c.IsStricterOrEqualTo(FALSY) {
			return s.Constrain(v.Operand, TRUTHY)
		}
	case POS:
		if s.Constraint(v.Operand).IsStricterOrEqualTo(NUMBER_PRIMITIVE) {
			return s.Constrain(v.Operand, c.And(NUMBER_PRIMITIVE))
		}
	case NEG:
		if s.Constraint(v.Operand).IsStricterOrEqualTo(NUMBER_PRIMITIVE) {
			return s.Constrain(v.Operand, flipSign(c.And(NUMBER_PRIMITIVE)))
		}
	}
	return s, true
}

// IncDecValue represents the value of its operand after `++` or `--`.
type IncDecValue struct {
	id        int
	Operand   Value
	Increment bool
}

// NewIncDecValue returns a new increment or decrement value.
func NewIncDecValue(operand Value, increment bool) *IncDecValue {
	return &IncDecValue{id: nextValueID(), Operand: operand, Increment: increment}
}

func (v *IncDecValue) ID() int           { return v.id }
func (v *IncDecValue) Operands() []Value { return []Value{v.Operand} }

func (v *IncDecValue) String() string {
	if v.Increment {
		return fmt.Sprintf("(%s + 1)", v.Operand)
	}
	return fmt.Sprintf("(%s - 1)", v.Operand)
}

func (v *IncDecValue) BaseConstraint(s *ProgramState) Constraint {
	return IncDecConstraint(s.Constraint(v.Operand), v.Increment)
}

func (v *IncDecValue) Constrain(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return constrainValue(s, v, c)
}

func (v *IncDecValue) ConstrainDependencies(s *ProgramState, c Constraint) (*ProgramState, bool) {
	return s, true
}
