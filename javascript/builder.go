package javascript

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/benbjohnson/jslee"
)

// builder translates the body of a single function into its control flow
// graph. Expressions are emitted in evaluation order into the current block.
type builder struct {
	p  *fileParser
	fn *jslee.Function

	fnScope *scope
	scope   *scope

	// Block receiving elements. Nil after a jump until a new block starts.
	current *jslee.Block

	targets  []jumpTarget
	handlers []*jslee.Block // innermost last
}

// jumpTarget represents a statement that break or continue may exit.
type jumpTarget struct {
	labels []string
	brk    *jslee.Block
	cont   *jslee.Block // nil unless a loop

	// True for loops & switch statements, which an unlabeled break exits.
	breakable bool
}

func (p *fileParser) newBuilder(fn *jslee.Function, parent *scope) *builder {
	b := &builder{p: p, fn: fn, current: fn.Entry}
	b.fnScope = newScope(parent, fn)
	b.scope = b.fnScope
	return b
}

// program translates the top-level script.
func (p *fileParser) program(root *sitter.Node) {
	fn := jslee.NewFunction(ProgramName)
	fn.Pos = p.pos(root)
	p.file.Functions = append(p.file.Functions, fn)

	b := p.newBuilder(fn, nil)
	b.body(namedChildren(root))
	b.finish()
}

// function translates a function, method or arrow function declared within
// parent. The function is added to the file before the functions it contains.
func (p *fileParser) function(parent *scope, n *sitter.Node, name string) *jslee.Function {
	fn := jslee.NewFunction(name)
	fn.Pos = p.pos(n)
	p.file.Functions = append(p.file.Functions, fn)

	b := p.newBuilder(fn, parent)
	b.params(n)

	body := n.ChildByFieldName("body")
	switch {
	case body == nil:
	case body.Type() == "statement_block":
		b.body(namedChildren(body))
	default:
		v := b.expr(body)
		b.emit(b.node(body, jslee.KindReturn, v))
		b.jump(fn.Exit)
	}
	b.finish()
	return fn
}

// params declares the parameters of the function n.
func (b *builder) params(n *sitter.Node) {
	ids := patternNames(n.ChildByFieldName("parameters"))
	if param := n.ChildByFieldName("parameter"); param != nil {
		ids = patternNames(param)
	}
	for _, id := range ids {
		name := b.p.content(id)
		sym := b.p.newSymbol(name)
		b.fnScope.symbols[name] = sym
		b.fn.Params = append(b.fn.Params, sym)
	}
}

// body translates the statements of a function body. Var declarations and
// function declarations are hoisted first.
func (b *builder) body(stmts []*sitter.Node) {
	for _, stmt := range stmts {
		b.hoist(stmt)
	}
	b.declareBlock(b.fnScope, stmts)

	for _, stmt := range stmts {
		if decl := declarationOf(stmt); isFunctionDeclaration(decl) {
			name := b.p.content(decl.ChildByFieldName("name"))
			nested := b.p.function(b.scope, decl, name)
			nested.Symbol = b.fnScope.symbols[name]
			b.fn.Functions = append(b.fn.Functions, nested)
		}
	}
	b.statements(stmts)
}

// finish links the last block to the exit & drops unreachable blocks.
func (b *builder) finish() {
	b.jump(b.fn.Exit)
	prune(b.fn)
}

// block translates a statement block in its own lexical scope. Function
// declarations are bound at the start of the block.
func (b *builder) block(stmts []*sitter.Node) {
	b.pushScope()
	defer b.popScope()

	b.declareBlock(b.scope, stmts)
	for _, stmt := range stmts {
		if decl := declarationOf(stmt); isFunctionDeclaration(decl) {
			name := b.p.content(decl.ChildByFieldName("name"))
			init := b.functionExpr(decl, name)
			b.declarator(decl, "let", b.scope.symbols[name], init)
		}
	}
	b.statements(stmts)
}

func (b *builder) pushScope() { b.scope = newScope(b.scope, b.fn) }
func (b *builder) popScope()  { b.scope = b.scope.parent }

// newBlock returns a new empty block of the function.
func (b *builder) newBlock() *jslee.Block {
	return b.fn.NewBlock()
}

// ensure returns the current block, starting an unreachable block if the
// previous statement jumped away.
func (b *builder) ensure() *jslee.Block {
	if b.current == nil {
		b.current = b.newBlock()
	}
	return b.current
}

// emit appends n to the elements of the current block.
func (b *builder) emit(n *jslee.Node) *jslee.Node {
	blk := b.ensure()
	blk.Elements = append(blk.Elements, n)
	return n
}

// jump links the current block to to and ends it.
func (b *builder) jump(to *jslee.Block) {
	if b.current != nil {
		b.current.AddSucc(to, jslee.EdgeDefault)
	}
	b.current = nil
}

// branch ends the current block with a test of v.
func (b *builder) branch(v *jslee.Node, t, f *jslee.Block) {
	blk := b.ensure()
	blk.Branch = v
	blk.AddSucc(t, jslee.EdgeTrue)
	blk.AddSucc(f, jslee.EdgeFalse)
	b.current = nil
}

// handler returns the block receiving exceptions thrown from the current block.
func (b *builder) handler() *jslee.Block {
	if len(b.handlers) == 0 {
		return b.fn.Exit
	}
	return b.handlers[len(b.handlers)-1]
}

// node returns a node of the given kind positioned at n.
func (b *builder) node(n *sitter.Node, kind jslee.Kind, children ...*jslee.Node) *jslee.Node {
	return &jslee.Node{Kind: kind, Children: children, Pos: b.p.pos(n)}
}

func (b *builder) statements(stmts []*sitter.Node) {
	for _, stmt := range stmts {
		b.statement(stmt)
	}
}

func (b *builder) statement(n *sitter.Node) {
	if n == nil {
		return
	}

	switch n.Type() {
	case "expression_statement":
		if expr := firstNamedChild(n); expr != nil {
			b.emit(b.node(n, jslee.KindExpressionStatement, b.expr(expr)))
		}
	case "variable_declaration", "lexical_declaration":
		b.declaration(n)
	case "statement_block":
		b.block(namedChildren(n))
	case "if_statement":
		b.ifStatement(n)
	case "while_statement", "do_statement", "for_statement", "for_in_statement":
		b.loop(n, nil)
	case "labeled_statement":
		b.labeled(n, nil)
	case "break_statement":
		b.breakStatement(n)
	case "continue_statement":
		b.continueStatement(n)
	case "return_statement":
		var v *jslee.Node
		if arg := firstNamedChild(n); arg != nil {
			v = b.expr(arg)
		}
		ret := jslee.NewReturn(v)
		ret.Pos = b.p.pos(n)
		b.emit(ret)
		b.jump(b.fn.Exit)
	case "throw_statement":
		b.emit(b.node(n, jslee.KindThrow, b.expr(firstNamedChild(n))))
		b.ensure().AddSucc(b.handler(), jslee.EdgeException)
		b.current = nil
	case "try_statement":
		b.tryStatement(n)
	case "switch_statement":
		b.switchStatement(n, nil)
	case "class_declaration":
		name := b.p.content(n.ChildByFieldName("name"))
		init := b.classExpr(n, name)
		b.declarator(n, "let", b.resolve(name), init)
	case "export_statement":
		if decl := n.ChildByFieldName("declaration"); decl != nil {
			b.statement(decl)
		} else if value := n.ChildByFieldName("value"); value != nil {
			b.emit(b.node(n, jslee.KindExpressionStatement, b.expr(value)))
		}
	case "function_declaration", "generator_function_declaration":
		// Bound at the start of the enclosing function or block.
	}
}

// declarator emits a declaration of sym initialized by init, if set.
func (b *builder) declarator(n *sitter.Node, decl string, sym *jslee.Symbol, init *jslee.Node) {
	if sym == nil {
		if init != nil {
			b.emit(b.node(n, jslee.KindExpressionStatement, init))
		}
		return
	}
	d := jslee.NewVariableDeclarator(decl, sym, init)
	d.Pos = b.p.pos(n)
	d.Target.Pos = d.Pos
	b.emit(d)
}

func (b *builder) declaration(n *sitter.Node) {
	decl := "var"
	if n.Type() == "lexical_declaration" {
		decl = n.Child(0).Type()
		if kind := n.ChildByFieldName("kind"); kind != nil {
			decl = b.p.content(kind)
		}
	}

	for _, d := range namedChildren(n) {
		if d.Type() != "variable_declarator" {
			continue
		}
		name, value := d.ChildByFieldName("name"), d.ChildByFieldName("value")

		if name.Type() == "identifier" {
			var init *jslee.Node
			if value != nil {
				init = b.exprNamed(value, b.p.content(name))
			}
			b.declarator(d, decl, b.resolve(b.p.content(name)), init)
			continue
		}

		// Destructured names are bound to unknown values.
		if value != nil {
			b.emit(b.node(d, jslee.KindExpressionStatement, b.expr(value)))
		}
		b.bindUnknown(patternNames(name))
	}
}

// bindUnknown assigns a fresh unknown value to each identifier.
func (b *builder) bindUnknown(ids []*sitter.Node) {
	for _, id := range ids {
		target := b.identifier(id)
		if target.Symbol == nil {
			continue
		}
		v := b.emit(b.node(id, jslee.KindOtherExpression))
		assign := jslee.NewAssignment("=", target, v)
		assign.Pos = target.Pos
		b.emit(assign)
		b.emit(b.node(id, jslee.KindExpressionStatement, assign))
	}
}

func (b *builder) ifStatement(n *sitter.Node) {
	then, join := b.newBlock(), b.newBlock()
	els := join

	alt := n.ChildByFieldName("alternative")
	if alt != nil {
		els = b.newBlock()
	}

	b.cond(n.ChildByFieldName("condition"), then, els)

	b.current = then
	b.statement(n.ChildByFieldName("consequence"))
	b.jump(join)

	if alt != nil {
		if alt.Type() == "else_clause" {
			alt = firstNamedChild(alt)
		}
		b.current = els
		b.statement(alt)
		b.jump(join)
	}
	b.current = join
}

func (b *builder) labeled(n *sitter.Node, labels []string) {
	labels = append(labels, b.p.content(n.ChildByFieldName("label")))

	body := n.ChildByFieldName("body")
	switch body.Type() {
	case "while_statement", "do_statement", "for_statement", "for_in_statement":
		b.loop(body, labels)
	case "labeled_statement":
		b.labeled(body, labels)
	case "switch_statement":
		b.switchStatement(body, labels)
	default:
		after := b.newBlock()
		b.targets = append(b.targets, jumpTarget{labels: labels, brk: after})
		b.statement(body)
		b.targets = b.targets[:len(b.targets)-1]
		b.jump(after)
		b.current = after
	}
}

// findTarget returns the innermost target matching label. Loops match
// continue statements only.
func (b *builder) findTarget(label string, loop bool) *jumpTarget {
	for i := len(b.targets) - 1; i >= 0; i-- {
		t := &b.targets[i]
		if loop && t.cont == nil {
			continue
		}
		if label == "" && t.breakable {
			return t
		}
		for _, l := range t.labels {
			if l == label && label != "" {
				return t
			}
		}
	}
	return nil
}

func (b *builder) breakStatement(n *sitter.Node) {
	var label string
	if l := n.ChildByFieldName("label"); l != nil {
		label = b.p.content(l)
	}
	if t := b.findTarget(label, false); t != nil {
		b.jump(t.brk)
	}
	b.current = nil
}

func (b *builder) continueStatement(n *sitter.Node) {
	var label string
	if l := n.ChildByFieldName("label"); l != nil {
		label = b.p.content(l)
	}
	if t := b.findTarget(label, true); t != nil {
		b.jump(t.cont)
	}
	b.current = nil
}

func (b *builder) pushLoop(labels []string, brk, cont *jslee.Block) {
	b.targets = append(b.targets, jumpTarget{labels: labels, brk: brk, cont: cont, breakable: true})
}

func (b *builder) popTarget() {
	b.targets = b.targets[:len(b.targets)-1]
}

func (b *builder) loop(n *sitter.Node, labels []string) {
	switch n.Type() {
	case "while_statement":
		head, body, exit := b.newBlock(), b.newBlock(), b.newBlock()
		b.jump(head)
		b.current = head
		b.cond(n.ChildByFieldName("condition"), body, exit)

		b.pushLoop(labels, exit, head)
		b.current = body
		b.statement(n.ChildByFieldName("body"))
		b.jump(head)
		b.popTarget()
		b.current = exit

	case "do_statement":
		body, test, exit := b.newBlock(), b.newBlock(), b.newBlock()
		b.jump(body)

		b.pushLoop(labels, exit, test)
		b.current = body
		b.statement(n.ChildByFieldName("body"))
		b.jump(test)
		b.popTarget()

		b.current = test
		b.cond(n.ChildByFieldName("condition"), body, exit)
		b.current = exit

	case "for_statement":
		b.forStatement(n, labels)

	case "for_in_statement":
		b.forInStatement(n, labels)
	}
}

func (b *builder) forStatement(n *sitter.Node, labels []string) {
	b.pushScope()
	defer b.popScope()

	switch init := n.ChildByFieldName("initializer"); {
	case init == nil, init.Type() == "empty_statement", init.Type() == ";":
	case init.Type() == "lexical_declaration", init.Type() == "variable_declaration":
		b.declareBlock(b.scope, []*sitter.Node{init})
		b.declaration(init)
	case init.Type() == "expression_statement":
		b.statement(init)
	default:
		b.emit(b.node(init, jslee.KindExpressionStatement, b.expr(init)))
	}

	head, body, update, exit := b.newBlock(), b.newBlock(), b.newBlock(), b.newBlock()
	b.jump(head)
	b.current = head

	cond := n.ChildByFieldName("condition")
	if cond != nil && cond.Type() == "expression_statement" {
		cond = firstNamedChild(cond)
	}
	if cond == nil || cond.Type() == "empty_statement" || cond.Type() == ";" {
		b.jump(body)
	} else {
		b.cond(cond, body, exit)
	}

	b.pushLoop(labels, exit, update)
	b.current = body
	b.statement(n.ChildByFieldName("body"))
	b.jump(update)
	b.popTarget()

	b.current = update
	if incr := n.ChildByFieldName("increment"); incr != nil {
		b.emit(b.node(incr, jslee.KindExpressionStatement, b.expr(incr)))
	}
	b.jump(head)
	b.current = exit
}

// forInStatement translates for-in & for-of loops. The loop head binds the
// next element to the target or exits the loop.
func (b *builder) forInStatement(n *sitter.Node, labels []string) {
	b.pushScope()
	defer b.popScope()

	left := n.ChildByFieldName("left")
	if kind := n.ChildByFieldName("kind"); kind != nil && b.p.content(kind) != "var" {
		for _, id := range patternNames(left) {
			b.declare(b.scope, b.p.content(id))
		}
	}

	right := n.ChildByFieldName("right")
	b.emit(b.node(right, jslee.KindExpressionStatement, b.expr(right)))

	head, body, exit := b.newBlock(), b.newBlock(), b.newBlock()
	b.jump(head)
	b.current = head

	h := b.node(n, jslee.KindForEachHead)
	h.Value = "in"
	if hasChild(n, "of") {
		h.Value = "of"
	}
	if left.Type() == "identifier" {
		h.Target = b.identifier(left)
		h.Symbol = h.Target.Symbol
	}
	b.emit(h)
	b.branch(h, body, exit)

	b.pushLoop(labels, exit, head)
	b.current = body
	if left.Type() != "identifier" {
		b.bindUnknown(patternNames(left))
	}
	b.statement(n.ChildByFieldName("body"))
	b.jump(head)
	b.popTarget()
	b.current = exit
}

// tryStatement links every block of the protected body to the catch clause,
// or to the finally clause when there is no catch clause. The finally
// clause is only entered through its normal & exceptional predecessors and
// always continues after the statement.
func (b *builder) tryStatement(n *sitter.Node) {
	handler, finalizer := n.ChildByFieldName("handler"), n.ChildByFieldName("finalizer")

	after := b.newBlock()
	next := after
	var catchBlk, finallyBlk *jslee.Block
	if finalizer != nil {
		finallyBlk = b.newBlock()
		next = finallyBlk
	}
	if handler != nil {
		catchBlk = b.newBlock()
	}
	target := catchBlk
	if target == nil {
		target = finallyBlk
	}

	start := b.newBlock()
	b.jump(start)
	b.current = start
	b.protect(start.ID, target, func() { b.statement(n.ChildByFieldName("body")) })
	b.jump(next)

	if handler != nil {
		b.current = catchBlk
		translate := func() {
			b.pushScope()
			defer b.popScope()

			if param := handler.ChildByFieldName("parameter"); param != nil {
				for _, id := range patternNames(param) {
					b.declare(b.scope, b.p.content(id))
				}
				if param.Type() == "identifier" {
					p := b.node(param, jslee.KindCatchParameter)
					p.Target = b.identifier(param)
					p.Symbol = p.Target.Symbol
					b.emit(p)
				} else {
					b.bindUnknown(patternNames(param))
				}
			}
			b.statement(handler.ChildByFieldName("body"))
		}

		if finallyBlk != nil {
			first := len(b.fn.Blocks)
			b.protect(first, finallyBlk, translate)
			if catchBlk.Succ(jslee.EdgeException) == nil {
				catchBlk.AddSucc(finallyBlk, jslee.EdgeException)
			}
		} else {
			translate()
		}
		b.jump(next)
	}

	if finalizer != nil {
		b.current = finallyBlk
		b.statement(finalizer.ChildByFieldName("body"))
		b.jump(after)
	}
	b.current = after
}

// protect translates fn with exceptions flowing to target and links each
// block created from the given block ID onwards to target.
func (b *builder) protect(first int, target *jslee.Block, fn func()) {
	b.handlers = append(b.handlers, target)
	fn()
	b.handlers = b.handlers[:len(b.handlers)-1]

	for _, blk := range b.fn.Blocks {
		if blk.ID < first || blk == target {
			continue
		}
		if blk.Succ(jslee.EdgeException) == nil {
			blk.AddSucc(target, jslee.EdgeException)
		}
	}
}

// switchStatement tests each case in order. Case values are evaluated but
// not compared with the discriminant, so every case can be entered.
func (b *builder) switchStatement(n *sitter.Node, labels []string) {
	value := n.ChildByFieldName("value")
	b.emit(b.node(value, jslee.KindExpressionStatement, b.expr(value)))

	var cases []*sitter.Node
	for _, c := range namedChildren(n.ChildByFieldName("body")) {
		if c.Type() == "switch_case" || c.Type() == "switch_default" {
			cases = append(cases, c)
		}
	}

	b.pushScope()
	defer b.popScope()

	bodies := make([][]*sitter.Node, len(cases))
	blocks := make([]*jslee.Block, len(cases))
	for i, c := range cases {
		bodies[i] = namedChildren(c)
		if c.Type() == "switch_case" {
			bodies[i] = bodies[i][1:]
		}
		blocks[i] = b.newBlock()
		b.declareBlock(b.scope, bodies[i])
	}
	exit := b.newBlock()

	dflt := -1
	for i, c := range cases {
		if c.Type() == "switch_default" {
			dflt = i
			continue
		}
		test := c.ChildByFieldName("value")
		b.emit(b.node(test, jslee.KindExpressionStatement, b.expr(test)))

		next := b.newBlock()
		b.branch(b.emit(b.node(test, jslee.KindOtherExpression)), blocks[i], next)
		b.current = next
	}
	if dflt >= 0 {
		b.jump(blocks[dflt])
	} else {
		b.jump(exit)
	}

	b.targets = append(b.targets, jumpTarget{labels: labels, brk: exit, breakable: true})
	for i := range cases {
		b.jump(blocks[i])
		b.current = blocks[i]
		b.statements(bodies[i])
	}
	b.jump(exit)
	b.popTarget()
	b.current = exit
}

// declarationOf returns the declaration exported by stmt, or stmt itself.
func declarationOf(stmt *sitter.Node) *sitter.Node {
	if stmt.Type() == "export_statement" {
		if decl := stmt.ChildByFieldName("declaration"); decl != nil {
			return decl
		}
	}
	return stmt
}

func isFunctionDeclaration(n *sitter.Node) bool {
	switch n.Type() {
	case "function_declaration", "generator_function_declaration":
		return n.ChildByFieldName("name") != nil
	default:
		return false
	}
}
