package jslee

import (
	"fmt"
	"strings"
)

// Kind identifies the category of a Node. ProgramPoints are selected by kind.
type Kind int

// Node kinds.
const (
	kind_begin = Kind(iota)

	expr_kind_begin
	KindNumberLiteral
	KindStringLiteral
	KindTemplateLiteral
	KindBooleanLiteral
	KindNullLiteral
	KindRegexLiteral
	KindIdentifier
	KindThis
	KindBinary
	KindUnary
	KindUpdate
	KindAssignment
	KindMember
	KindCall
	KindNew
	KindObject
	KindArray
	KindFunction
	KindClass
	KindSequence
	KindConditional
	KindLogical
	KindSpread
	KindAwait
	KindYield
	KindOtherExpression
	expr_kind_end

	stmt_kind_begin
	KindExpressionStatement
	KindVariableDeclarator
	KindReturn
	KindThrow
	KindForEachHead
	KindCatchParameter
	KindEmpty
	stmt_kind_end

	kind_end
)

var kindNames = [...]string{
	KindNumberLiteral:       "NumberLiteral",
	KindStringLiteral:       "StringLiteral",
	KindTemplateLiteral:     "TemplateLiteral",
	KindBooleanLiteral:      "BooleanLiteral",
	KindNullLiteral:         "NullLiteral",
	KindRegexLiteral:        "RegexLiteral",
	KindIdentifier:          "Identifier",
	KindThis:                "This",
	KindBinary:              "Binary",
	KindUnary:               "Unary",
	KindUpdate:              "Update",
	KindAssignment:          "Assignment",
	KindMember:              "Member",
	KindCall:                "Call",
	KindNew:                 "New",
	KindObject:              "Object",
	KindArray:               "Array",
	KindFunction:            "Function",
	KindClass:               "Class",
	KindSequence:            "Sequence",
	KindConditional:         "Conditional",
	KindLogical:             "Logical",
	KindSpread:              "Spread",
	KindAwait:               "Await",
	KindYield:               "Yield",
	KindOtherExpression:     "OtherExpression",
	KindExpressionStatement: "ExpressionStatement",
	KindVariableDeclarator:  "VariableDeclarator",
	KindReturn:              "Return",
	KindThrow:               "Throw",
	KindForEachHead:         "ForEachHead",
	KindCatchParameter:      "CatchParameter",
	KindEmpty:               "Empty",
}

// String returns the name of the kind.
func (k Kind) String() string {
	if k >= 0 && k < Kind(len(kindNames)) && kindNames[k] != "" {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind<%d>", k)
}

// IsExpression returns true if k is an expression kind.
func (k Kind) IsExpression() bool {
	return k > expr_kind_begin && k < expr_kind_end
}

// IsStatement returns true if k is a statement-level element kind.
func (k Kind) IsStatement() bool {
	return k > stmt_kind_begin && k < stmt_kind_end
}

// IsValid returns true if k is a known kind.
func (k Kind) IsValid() bool {
	return k.IsExpression() || k.IsStatement()
}

// Position represents a location in a source file.
type Position struct {
	Filename string
	Line     int // 1-based
	Column   int // 1-based
}

// IsValid returns true if the position has a line number.
func (p Position) IsValid() bool { return p.Line > 0 }

// String returns the position formatted as "file:line:column".
func (p Position) String() string {
	s := p.Filename
	if p.IsValid() {
		if s != "" {
			s += ":"
		}
		s += fmt.Sprintf("%d:%d", p.Line, p.Column)
	}
	if s == "" {
		s = "-"
	}
	return s
}

// Node represents an element of a function body.
//
// Children hold the operands that are evaluated, in order, before the node
// itself. Within a CFG block they appear as earlier elements and their values
// are on top of the stack when the node executes. Target holds an
// assignment, update or declaration target that is not evaluated as an
// operand.
type Node struct {
	Kind Kind

	Op          string // operator for Binary, Unary, Update, Assignment & Logical
	Value       string // lexical form of literals & identifier names
	Prefix      bool   // prefix update expression
	Optional    bool   // optional chaining member access or call
	Computed    bool   // computed member access, o[k]
	Declaration string // "var", "let" or "const" for declarators

	Symbol   *Symbol // resolved symbol for identifiers & declaration targets
	Children []*Node
	Target   *Node

	Pos Position
}

// String returns a compact source-like rendering of the node.
func (n *Node) String() string {
	if n == nil {
		return "<nil>"
	}
	switch n.Kind {
	case KindNumberLiteral, KindBooleanLiteral, KindRegexLiteral, KindIdentifier:
		return n.Value
	case KindStringLiteral:
		return fmt.Sprintf("%q", n.Value)
	case KindTemplateLiteral:
		return "`" + n.Value + "`"
	case KindNullLiteral:
		return "null"
	case KindThis:
		return "this"
	case KindBinary, KindLogical:
		if len(n.Children) == 2 {
			return fmt.Sprintf("%s %s %s", n.Children[0], n.Op, n.Children[1])
		}
	case KindUnary:
		if len(n.Children) == 1 {
			if len(n.Op) > 1 {
				return fmt.Sprintf("%s %s", n.Op, n.Children[0])
			}
			return n.Op + n.Children[0].String()
		}
	case KindUpdate:
		if n.Prefix {
			return n.Op + n.Target.String()
		}
		return n.Target.String() + n.Op
	case KindAssignment:
		if len(n.Children) > 0 {
			return fmt.Sprintf("%s %s %s", n.Target, n.Op, n.Children[len(n.Children)-1])
		}
	case KindMember:
		if len(n.Children) == 0 {
			break
		}
		sep := "."
		if n.Optional {
			sep = "?."
		}
		if n.Computed && len(n.Children) == 2 {
			return fmt.Sprintf("%s%s[%s]", n.Children[0], strings.TrimSuffix(sep, "."), n.Children[1])
		}
		return n.Children[0].String() + sep + n.Value
	case KindCall, KindNew:
		if len(n.Children) == 0 {
			break
		}
		args := make([]string, 0, len(n.Children)-1)
		for _, arg := range n.Children[1:] {
			args = append(args, arg.String())
		}
		s := fmt.Sprintf("%s(%s)", n.Children[0], strings.Join(args, ", "))
		if n.Kind == KindNew {
			s = "new " + s
		}
		return s
	case KindFunction:
		return "function " + n.Value
	case KindVariableDeclarator:
		if n.Target != nil {
			return n.Declaration + " " + n.Target.String()
		}
	case KindReturn:
		if len(n.Children) == 1 {
			return "return " + n.Children[0].String()
		}
		return "return"
	case KindThrow:
		if len(n.Children) == 1 {
			return "throw " + n.Children[0].String()
		}
	}
	return n.Kind.String()
}

// Walk calls fn for n and each of its children & target, depth-first.
// Children are not visited if fn returns false.
func Walk(n *Node, fn func(*Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for _, child := range n.Children {
		Walk(child, fn)
	}
	Walk(n.Target, fn)
}

// Symbol represents a resolved variable.
type Symbol struct {
	ID   int
	Name string

	// Tracked is true for local variables & parameters whose value is fully
	// determined by the function being executed. Untracked symbols are
	// always read as UNKNOWN and writes to them are ignored.
	Tracked bool
}

// String returns the symbol name.
func (s *Symbol) String() string {
	if s == nil {
		return "<nil>"
	}
	return s.Name
}

// NewNumberLiteral returns a number literal node.
func NewNumberLiteral(value string) *Node {
	return &Node{Kind: KindNumberLiteral, Value: value}
}

// NewStringLiteral returns a string literal node with the unquoted value.
func NewStringLiteral(value string) *Node {
	return &Node{Kind: KindStringLiteral, Value: value}
}

// NewBooleanLiteral returns a boolean literal node.
func NewBooleanLiteral(value bool) *Node {
	if value {
		return &Node{Kind: KindBooleanLiteral, Value: "true"}
	}
	return &Node{Kind: KindBooleanLiteral, Value: "false"}
}

// NewNullLiteral returns a null literal node.
func NewNullLiteral() *Node {
	return &Node{Kind: KindNullLiteral, Value: "null"}
}

// NewIdentifier returns an identifier node referencing sym.
func NewIdentifier(sym *Symbol) *Node {
	return &Node{Kind: KindIdentifier, Value: sym.Name, Symbol: sym}
}

// NewUndefined returns a reference to the global undefined.
func NewUndefined() *Node {
	return &Node{Kind: KindIdentifier, Value: "undefined"}
}

// NewBinary returns a binary expression node.
func NewBinary(op string, lhs, rhs *Node) *Node {
	return &Node{Kind: KindBinary, Op: op, Children: []*Node{lhs, rhs}}
}

// NewUnary returns a unary expression node.
func NewUnary(op string, operand *Node) *Node {
	return &Node{Kind: KindUnary, Op: op, Children: []*Node{operand}}
}

// NewUpdate returns an increment or decrement of target.
// The target is read through the operand, which must be evaluated first.
func NewUpdate(op string, prefix bool, target *Node) *Node {
	n := &Node{Kind: KindUpdate, Op: op, Prefix: prefix, Target: target}
	if target.Kind == KindIdentifier {
		n.Children = []*Node{target}
	} else if target.Kind == KindMember {
		n.Children = append(n.Children, target.Children...)
	}
	return n
}

// NewAssignment returns an assignment of rhs to target. For compound
// assignments to an identifier, the current value of the identifier is
// evaluated before rhs.
func NewAssignment(op string, target, rhs *Node) *Node {
	n := &Node{Kind: KindAssignment, Op: op, Target: target}
	switch target.Kind {
	case KindIdentifier:
		if op != "=" {
			n.Children = append(n.Children, target)
		}
	case KindMember:
		n.Children = append(n.Children, target.Children...)
	}
	n.Children = append(n.Children, rhs)
	return n
}

// NewMember returns a property access node.
func NewMember(object *Node, property string) *Node {
	return &Node{Kind: KindMember, Value: property, Children: []*Node{object}}
}

// NewCall returns a call node.
func NewCall(callee *Node, args ...*Node) *Node {
	return &Node{Kind: KindCall, Children: append([]*Node{callee}, args...)}
}

// NewExpressionStatement returns a statement discarding the value of expr.
func NewExpressionStatement(expr *Node) *Node {
	return &Node{Kind: KindExpressionStatement, Children: []*Node{expr}}
}

// NewVariableDeclarator returns a declaration of sym, optionally initialized.
func NewVariableDeclarator(decl string, sym *Symbol, init *Node) *Node {
	n := &Node{Kind: KindVariableDeclarator, Declaration: decl, Target: NewIdentifier(sym), Symbol: sym}
	if init != nil {
		n.Children = []*Node{init}
	}
	return n
}

// NewReturn returns a return statement node.
func NewReturn(expr *Node) *Node {
	n := &Node{Kind: KindReturn}
	if expr != nil {
		n.Children = []*Node{expr}
	}
	return n
}

// Flatten returns n and its operands in evaluation order, operands first.
// Conditional & logical expressions are not flattened since they require
// their own blocks.
func Flatten(n *Node) []*Node {
	var a []*Node
	var visit func(*Node)
	visit = func(n *Node) {
		for _, child := range n.Children {
			visit(child)
		}
		a = append(a, n)
	}
	visit(n)
	return a
}
