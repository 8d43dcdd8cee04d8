// Package javascript builds the functions & control flow graphs executed by
// jslee from JavaScript source, using the tree-sitter JavaScript grammar.
package javascript

import (
	"context"
	"strings"

	"github.com/benbjohnson/jslee"
	"github.com/pkg/errors"
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"golang.org/x/tools/container/intsets"
)

// ErrSyntax is returned when the source cannot be parsed.
var ErrSyntax = errors.New("syntax error")

// ProgramName is the name of the function representing the top-level script.
const ProgramName = "<program>"

// Parse parses src and returns the functions it declares. The top-level
// script is returned as the first function.
func Parse(ctx context.Context, src []byte, filename string) (*jslee.File, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())

	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, errors.Wrapf(err, "parse %s", filename)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		pos := position(filename, firstError(root))
		return nil, errors.Wrapf(ErrSyntax, "%s", pos)
	}

	p := &fileParser{
		src:  src,
		file: &jslee.File{Filename: filename},
	}
	p.program(root)
	return p.file, nil
}

// fileParser holds the state shared by the functions of a file.
type fileParser struct {
	src  []byte
	file *jslee.File

	symbolSeq int
}

// newSymbol returns a new tracked symbol with a file-unique ID.
func (p *fileParser) newSymbol(name string) *jslee.Symbol {
	p.symbolSeq++
	return &jslee.Symbol{ID: p.symbolSeq, Name: name, Tracked: true}
}

func (p *fileParser) content(n *sitter.Node) string {
	return n.Content(p.src)
}

func (p *fileParser) pos(n *sitter.Node) jslee.Position {
	return position(p.file.Filename, n)
}

func position(filename string, n *sitter.Node) jslee.Position {
	if n == nil {
		return jslee.Position{Filename: filename}
	}
	pt := n.StartPoint()
	return jslee.Position{Filename: filename, Line: int(pt.Row) + 1, Column: int(pt.Column) + 1}
}

// firstError returns the first error or missing node in source order.
func firstError(n *sitter.Node) *sitter.Node {
	if n.Type() == "ERROR" || n.IsMissing() {
		return n
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child.HasError() || child.IsMissing() {
			return firstError(child)
		}
	}
	return n
}

// namedChildren returns the named children of n, excluding comments.
func namedChildren(n *sitter.Node) []*sitter.Node {
	if n == nil {
		return nil
	}
	var a []*sitter.Node
	for i := 0; i < int(n.NamedChildCount()); i++ {
		if child := n.NamedChild(i); child.Type() != "comment" {
			a = append(a, child)
		}
	}
	return a
}

// firstNamedChild returns the first named child of n other than a comment.
func firstNamedChild(n *sitter.Node) *sitter.Node {
	if a := namedChildren(n); len(a) > 0 {
		return a[0]
	}
	return nil
}

// hasChild returns true if n has an anonymous or named child of the given type.
func hasChild(n *sitter.Node, typ string) bool {
	for i := 0; i < int(n.ChildCount()); i++ {
		if n.Child(i).Type() == typ {
			return true
		}
	}
	return false
}

// unquote removes the delimiters of a string or template literal.
func unquote(s string) string {
	if len(s) >= 2 && strings.ContainsAny(s[:1], "'\"`") {
		return s[1 : len(s)-1]
	}
	return s
}

// prune removes the blocks that cannot be reached from the entry of fn.
// The exit block is always kept.
func prune(fn *jslee.Function) {
	var reached intsets.Sparse
	var visit func(b *jslee.Block)
	visit = func(b *jslee.Block) {
		if !reached.Insert(b.ID) {
			return
		}
		for _, e := range b.Succs {
			visit(e.To)
		}
	}
	visit(fn.Entry)
	reached.Insert(fn.Exit.ID)

	blocks := fn.Blocks[:0]
	for _, b := range fn.Blocks {
		if !reached.Has(b.ID) {
			continue
		}
		preds := b.Preds[:0]
		for _, pred := range b.Preds {
			if reached.Has(pred.ID) {
				preds = append(preds, pred)
			}
		}
		b.Preds = preds
		blocks = append(blocks, b)
	}
	fn.Blocks = blocks
}
