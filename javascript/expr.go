package javascript

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/benbjohnson/jslee"
)

// expr emits the elements evaluating n and returns the node whose value is
// left on top of the stack. Logical & conditional expressions span several
// blocks and their nodes are not elements.
func (b *builder) expr(n *sitter.Node) *jslee.Node {
	switch n.Type() {
	case "parenthesized_expression":
		return b.expr(firstNamedChild(n))

	case "number":
		return b.literal(n, jslee.KindNumberLiteral, b.p.content(n))
	case "string":
		return b.literal(n, jslee.KindStringLiteral, unquote(b.p.content(n)))
	case "regex":
		return b.literal(n, jslee.KindRegexLiteral, b.p.content(n))
	case "true", "false":
		return b.literal(n, jslee.KindBooleanLiteral, n.Type())
	case "null":
		return b.literal(n, jslee.KindNullLiteral, "null")
	case "undefined":
		return b.literal(n, jslee.KindIdentifier, "undefined")
	case "this":
		return b.emit(b.node(n, jslee.KindThis))

	case "template_string":
		var subs []*jslee.Node
		for _, child := range namedChildren(n) {
			if child.Type() == "template_substitution" {
				subs = append(subs, b.expr(firstNamedChild(child)))
			}
		}
		t := b.node(n, jslee.KindTemplateLiteral, subs...)
		t.Value = unquote(b.p.content(n))
		return b.emit(t)

	case "identifier":
		return b.emit(b.identifier(n))
	case "binary_expression":
		return b.binary(n)
	case "unary_expression":
		op := b.p.content(n.ChildByFieldName("operator"))
		u := jslee.NewUnary(op, b.expr(n.ChildByFieldName("argument")))
		u.Pos = b.p.pos(n)
		return b.emit(u)
	case "update_expression":
		return b.update(n)
	case "assignment_expression", "augmented_assignment_expression":
		return b.assignment(n)
	case "member_expression", "subscript_expression":
		return b.emit(b.member(n))
	case "call_expression":
		return b.call(n)
	case "new_expression":
		return b.newExpr(n)
	case "ternary_expression":
		return b.conditional(n)

	case "sequence_expression":
		var exprs []*jslee.Node
		for _, child := range namedChildren(n) {
			exprs = append(exprs, b.expr(child))
		}
		return b.emit(b.node(n, jslee.KindSequence, exprs...))

	case "object":
		return b.object(n)
	case "array":
		var elems []*jslee.Node
		for _, child := range namedChildren(n) {
			elems = append(elems, b.expr(child))
		}
		return b.emit(b.node(n, jslee.KindArray, elems...))

	case "function_expression", "function", "generator_function", "arrow_function":
		return b.functionExpr(n, "")
	case "class":
		return b.classExpr(n, "")

	case "spread_element":
		return b.emit(b.node(n, jslee.KindSpread, b.expr(firstNamedChild(n))))
	case "await_expression":
		return b.emit(b.node(n, jslee.KindAwait, b.expr(firstNamedChild(n))))
	case "yield_expression":
		y := b.node(n, jslee.KindYield)
		if arg := firstNamedChild(n); arg != nil {
			y.Children = []*jslee.Node{b.expr(arg)}
		}
		return b.emit(y)

	default:
		other := b.node(n, jslee.KindOtherExpression)
		other.Value = n.Type()
		return b.emit(other)
	}
}

// exprNamed evaluates n, naming anonymous functions & classes after the
// variable they initialize.
func (b *builder) exprNamed(n *sitter.Node, name string) *jslee.Node {
	switch n.Type() {
	case "function_expression", "function", "generator_function", "arrow_function":
		return b.functionExpr(n, name)
	case "class":
		return b.classExpr(n, name)
	default:
		return b.expr(n)
	}
}

func (b *builder) literal(n *sitter.Node, kind jslee.Kind, value string) *jslee.Node {
	lit := b.node(n, kind)
	lit.Value = value
	return b.emit(lit)
}

// identifier returns an unemitted reference to the identifier n.
func (b *builder) identifier(n *sitter.Node) *jslee.Node {
	name := b.p.content(n)
	id := b.node(n, jslee.KindIdentifier)
	id.Value = name
	id.Symbol = b.resolve(name)
	return id
}

func (b *builder) binary(n *sitter.Node) *jslee.Node {
	op := b.p.content(n.ChildByFieldName("operator"))
	switch op {
	case "&&", "||", "??":
		return b.logical(n, op)
	}

	lhs := b.expr(n.ChildByFieldName("left"))
	rhs := b.expr(n.ChildByFieldName("right"))
	bin := jslee.NewBinary(op, lhs, rhs)
	bin.Pos = b.p.pos(n)
	return b.emit(bin)
}

// logical translates a short-circuit expression used as a value. The block
// evaluating the left operand branches on it & keeps it as the result on
// the short-circuit edge.
func (b *builder) logical(n *sitter.Node, op string) *jslee.Node {
	lhs := b.expr(n.ChildByFieldName("left"))

	node := b.node(n, jslee.KindLogical, lhs)
	node.Op = op

	rhsBlk, join := b.newBlock(), b.newBlock()
	if op == "&&" {
		b.branch(node, rhsBlk, join)
	} else {
		b.branch(node, join, rhsBlk)
	}

	b.current = rhsBlk
	rhs := b.expr(n.ChildByFieldName("right"))
	b.jump(join)
	b.current = join

	node.Children = append(node.Children, rhs)
	return node
}

// conditional translates a ternary expression used as a value.
func (b *builder) conditional(n *sitter.Node) *jslee.Node {
	then, els, join := b.newBlock(), b.newBlock(), b.newBlock()
	b.cond(n.ChildByFieldName("condition"), then, els)

	b.current = then
	consequence := b.expr(n.ChildByFieldName("consequence"))
	b.jump(join)

	b.current = els
	alternative := b.expr(n.ChildByFieldName("alternative"))
	b.jump(join)

	b.current = join
	return b.node(n, jslee.KindConditional, consequence, alternative)
}

// cond translates n in a condition context, jumping to t when n is truthy
// and to f otherwise. Short-circuit operators & ternaries jump directly
// instead of producing a value.
func (b *builder) cond(n *sitter.Node, t, f *jslee.Block) {
	switch n.Type() {
	case "parenthesized_expression":
		b.cond(firstNamedChild(n), t, f)
		return

	case "ternary_expression":
		then, els := b.newBlock(), b.newBlock()
		b.cond(n.ChildByFieldName("condition"), then, els)
		b.current = then
		b.cond(n.ChildByFieldName("consequence"), t, f)
		b.current = els
		b.cond(n.ChildByFieldName("alternative"), t, f)
		return

	case "binary_expression":
		left, right := n.ChildByFieldName("left"), n.ChildByFieldName("right")
		switch b.p.content(n.ChildByFieldName("operator")) {
		case "&&":
			mid := b.newBlock()
			b.cond(left, mid, f)
			b.current = mid
			b.cond(right, t, f)
			return

		case "||":
			mid := b.newBlock()
			b.cond(left, t, mid)
			b.current = mid
			b.cond(right, t, f)
			return

		case "??":
			// A non-nullish left operand is kept & tested, otherwise the
			// right operand is tested.
			lhs := b.expr(left)
			node := b.node(n, jslee.KindLogical, lhs)
			node.Op = "??"

			test, rhsBlk := b.newBlock(), b.newBlock()
			b.branch(node, test, rhsBlk)

			b.current = test
			b.branch(lhs, t, f)

			b.current = rhsBlk
			b.cond(right, t, f)
			return
		}
	}

	b.branch(b.expr(n), t, f)
}

// member returns an unemitted property access with its operands emitted.
func (b *builder) member(n *sitter.Node) *jslee.Node {
	m := b.node(n, jslee.KindMember, b.expr(n.ChildByFieldName("object")))
	m.Optional = hasChild(n, "optional_chain")

	if n.Type() == "subscript_expression" {
		m.Computed = true
		m.Children = append(m.Children, b.expr(n.ChildByFieldName("index")))
		return m
	}
	if prop := n.ChildByFieldName("property"); prop != nil {
		m.Value = b.p.content(prop)
	}
	return m
}

// target returns the unemitted target of an assignment or update. The
// operands of a member target are emitted. An identifier is emitted too
// when its current value is read. Returns nil for destructuring patterns.
func (b *builder) target(n *sitter.Node, read bool) *jslee.Node {
	switch n.Type() {
	case "parenthesized_expression":
		return b.target(firstNamedChild(n), read)
	case "identifier":
		id := b.identifier(n)
		if read {
			b.emit(id)
		}
		return id
	case "member_expression", "subscript_expression":
		return b.member(n)
	default:
		return nil
	}
}

func (b *builder) update(n *sitter.Node) *jslee.Node {
	op := b.p.content(n.ChildByFieldName("operator"))
	prefix := n.Child(0).Type() == op

	target := b.target(n.ChildByFieldName("argument"), true)
	if target == nil {
		other := b.node(n, jslee.KindOtherExpression)
		other.Value = n.Type()
		return b.emit(other)
	}
	u := jslee.NewUpdate(op, prefix, target)
	u.Pos = b.p.pos(n)
	return b.emit(u)
}

func (b *builder) assignment(n *sitter.Node) *jslee.Node {
	op := "="
	if n.Type() == "augmented_assignment_expression" {
		op = b.p.content(n.ChildByFieldName("operator"))
	}

	left := n.ChildByFieldName("left")
	target := b.target(left, op != "=")
	if target == nil {
		// Destructuring leaves the right operand as the value.
		v := b.expr(n.ChildByFieldName("right"))
		b.bindUnknown(patternNames(left))
		return v
	}

	name := ""
	if target.Kind == jslee.KindIdentifier {
		name = target.Value
	}
	assign := jslee.NewAssignment(op, target, b.exprNamed(n.ChildByFieldName("right"), name))
	assign.Pos = b.p.pos(n)
	return b.emit(assign)
}

func (b *builder) call(n *sitter.Node) *jslee.Node {
	c := b.node(n, jslee.KindCall, b.expr(n.ChildByFieldName("function")))
	c.Optional = hasChild(n, "optional_chain")

	if args := n.ChildByFieldName("arguments"); args != nil {
		if args.Type() == "arguments" {
			for _, arg := range namedChildren(args) {
				c.Children = append(c.Children, b.expr(arg))
			}
		} else {
			// Tagged template.
			c.Children = append(c.Children, b.expr(args))
		}
	}
	return b.emit(c)
}

func (b *builder) newExpr(n *sitter.Node) *jslee.Node {
	c := b.node(n, jslee.KindNew, b.expr(n.ChildByFieldName("constructor")))
	if args := n.ChildByFieldName("arguments"); args != nil {
		for _, arg := range namedChildren(args) {
			c.Children = append(c.Children, b.expr(arg))
		}
	}
	return b.emit(c)
}

func (b *builder) object(n *sitter.Node) *jslee.Node {
	var props []*jslee.Node
	for _, child := range namedChildren(n) {
		switch child.Type() {
		case "pair":
			key := child.ChildByFieldName("key")
			name := b.p.content(key)
			if key.Type() == "computed_property_name" {
				props = append(props, b.expr(firstNamedChild(key)))
				name = ""
			}
			props = append(props, b.exprNamed(child.ChildByFieldName("value"), unquote(name)))
		case "shorthand_property_identifier":
			props = append(props, b.emit(b.identifier(child)))
		case "spread_element":
			props = append(props, b.expr(child))
		case "method_definition":
			b.p.function(b.scope, child, b.p.content(child.ChildByFieldName("name")))
		}
	}
	return b.emit(b.node(n, jslee.KindObject, props...))
}

// functionExpr translates a nested function & emits its value.
func (b *builder) functionExpr(n *sitter.Node, name string) *jslee.Node {
	if id := n.ChildByFieldName("name"); id != nil {
		name = b.p.content(id)
	}
	b.p.function(b.scope, n, name)

	fn := b.node(n, jslee.KindFunction)
	fn.Value = name
	return b.emit(fn)
}

// classExpr translates the methods of a class & emits its value.
func (b *builder) classExpr(n *sitter.Node, name string) *jslee.Node {
	if id := n.ChildByFieldName("name"); id != nil {
		name = b.p.content(id)
	}
	for _, member := range namedChildren(n.ChildByFieldName("body")) {
		if member.Type() != "method_definition" {
			continue
		}
		method := b.p.content(member.ChildByFieldName("name"))
		if name != "" {
			method = name + "." + method
		}
		b.p.function(b.scope, member, method)
	}

	class := b.node(n, jslee.KindClass)
	class.Value = name
	return b.emit(class)
}
