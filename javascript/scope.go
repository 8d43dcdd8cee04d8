package javascript

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/benbjohnson/jslee"
)

// scope maps names to symbols for a function body or a block.
type scope struct {
	parent  *scope
	fn      *jslee.Function
	symbols map[string]*jslee.Symbol
}

func newScope(parent *scope, fn *jslee.Function) *scope {
	return &scope{parent: parent, fn: fn, symbols: make(map[string]*jslee.Symbol)}
}

// lookup returns the symbol for name and the scope declaring it.
func (s *scope) lookup(name string) (*jslee.Symbol, *scope) {
	for ; s != nil; s = s.parent {
		if sym := s.symbols[name]; sym != nil {
			return sym, s
		}
	}
	return nil, nil
}

// declare adds a local symbol for name unless the scope already declares it.
func (b *builder) declare(s *scope, name string) *jslee.Symbol {
	if sym := s.symbols[name]; sym != nil {
		return sym
	}
	sym := b.p.newSymbol(name)
	s.symbols[name] = sym
	b.fn.Locals = append(b.fn.Locals, sym)
	return sym
}

// resolve returns the symbol referenced by name from the current scope.
// Symbols declared by an enclosing function are captured and no longer
// tracked. Returns nil for globals.
func (b *builder) resolve(name string) *jslee.Symbol {
	sym, declaring := b.scope.lookup(name)
	if sym == nil {
		return nil
	}
	if declaring.fn != b.fn {
		sym.Tracked = false
	}
	return sym
}

// patternNames returns the identifiers bound by a declaration target.
func patternNames(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	switch n.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		return []*sitter.Node{n}
	case "assignment_pattern", "object_assignment_pattern":
		return patternNames(n.ChildByFieldName("left"))
	case "pair_pattern":
		return patternNames(n.ChildByFieldName("value"))
	case "rest_pattern":
		return patternNames(firstNamedChild(n))
	case "object_pattern", "array_pattern", "formal_parameters":
		var a []*sitter.Node
		for _, child := range namedChildren(n) {
			a = append(a, patternNames(child)...)
		}
		return a
	default:
		return nil
	}
}

// hoist declares the var declarations of a function body in the function
// scope. Nested functions & classes are not visited.
func (b *builder) hoist(n *sitter.Node) {
	if n == nil {
		return
	}
	switch n.Type() {
	case "function_declaration", "generator_function_declaration",
		"function_expression", "function", "generator_function", "arrow_function",
		"class_declaration", "class", "method_definition":
		return
	case "variable_declaration":
		for _, decl := range namedChildren(n) {
			if decl.Type() != "variable_declarator" {
				continue
			}
			for _, id := range patternNames(decl.ChildByFieldName("name")) {
				b.declare(b.fnScope, b.p.content(id))
			}
			b.hoist(decl.ChildByFieldName("value"))
		}
		return
	case "for_in_statement":
		if kind := n.ChildByFieldName("kind"); kind != nil && b.p.content(kind) == "var" {
			for _, id := range patternNames(n.ChildByFieldName("left")) {
				b.declare(b.fnScope, b.p.content(id))
			}
		}
	}
	for _, child := range namedChildren(n) {
		b.hoist(child)
	}
}

// declareBlock declares the lexical declarations & function declarations
// directly contained in a list of statements.
func (b *builder) declareBlock(s *scope, stmts []*sitter.Node) {
	for _, stmt := range stmts {
		if stmt.Type() == "export_statement" {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				stmt = decl
			}
		}

		switch stmt.Type() {
		case "lexical_declaration":
			for _, decl := range namedChildren(stmt) {
				if decl.Type() == "variable_declarator" {
					for _, id := range patternNames(decl.ChildByFieldName("name")) {
						b.declare(s, b.p.content(id))
					}
				}
			}
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if name := stmt.ChildByFieldName("name"); name != nil {
				b.declare(s, b.p.content(name))
			}
		}
	}
}
