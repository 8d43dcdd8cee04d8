package jslee

import (
	"bytes"
	"fmt"
)

// EdgeKind describes the condition under which a CFG edge is taken.
type EdgeKind int

const (
	EdgeDefault EdgeKind = iota
	EdgeTrue
	EdgeFalse
	EdgeException
)

// String returns the name of the edge kind.
func (k EdgeKind) String() string {
	switch k {
	case EdgeDefault:
		return "default"
	case EdgeTrue:
		return "true"
	case EdgeFalse:
		return "false"
	case EdgeException:
		return "exception"
	default:
		return fmt.Sprintf("EdgeKind<%d>", k)
	}
}

// Edge represents a transition between two blocks.
type Edge struct {
	To   *Block
	Kind EdgeKind
}

// Block represents a basic block of a function's control flow graph.
//
// Elements are executed in order. If Branch is set, the value on top of the
// stack at the end of the block is tested and the true & false edges are
// followed when the value can be truthy and falsy, respectively.
type Block struct {
	ID       int
	Elements []*Node
	Branch   *Node
	Succs    []Edge
	Preds    []*Block
}

// AddSucc links b to to with the given edge kind.
func (b *Block) AddSucc(to *Block, kind EdgeKind) {
	b.Succs = append(b.Succs, Edge{To: to, Kind: kind})
	to.Preds = append(to.Preds, b)
}

// Succ returns the first successor with the given edge kind, if any.
func (b *Block) Succ(kind EdgeKind) *Block {
	for _, e := range b.Succs {
		if e.Kind == kind {
			return e.To
		}
	}
	return nil
}

// String returns a short description of the block.
func (b *Block) String() string {
	return fmt.Sprintf("block#%d", b.ID)
}

// Function represents a single function to be executed: its symbols and its
// control flow graph. The top-level script is represented as a function too.
type Function struct {
	Name string

	// Symbol bound by a function declaration. Nil for expressions.
	Symbol *Symbol

	Params []*Symbol
	Locals []*Symbol // hoisted var, let & const declarations

	// Nested function declarations, hoisted to the start of the function.
	Functions []*Function

	Entry  *Block
	Exit   *Block
	Blocks []*Block

	Pos Position
}

// NewFunction returns a function with empty entry & exit blocks.
func NewFunction(name string) *Function {
	fn := &Function{Name: name}
	fn.Entry = fn.NewBlock()
	fn.Exit = fn.NewBlock()
	return fn
}

// NewBlock adds a new empty block to the function.
func (fn *Function) NewBlock() *Block {
	b := &Block{ID: len(fn.Blocks)}
	fn.Blocks = append(fn.Blocks, b)
	return b
}

// String returns the function name.
func (fn *Function) String() string {
	if fn.Name == "" {
		return "<anonymous>"
	}
	return fn.Name
}

// Dump returns a human readable representation of the control flow graph.
func (fn *Function) Dump() string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "FUNCTION %s (entry=%d exit=%d)\n", fn, fn.Entry.ID, fn.Exit.ID)
	for _, b := range fn.Blocks {
		fmt.Fprintf(&buf, "== BLOCK #%d\n", b.ID)
		for i, el := range b.Elements {
			fmt.Fprintf(&buf, "%d. %s: %s\n", i, el.Kind, el)
		}
		if b.Branch != nil {
			fmt.Fprintf(&buf, "branch: %s\n", b.Branch)
		}
		for _, e := range b.Succs {
			fmt.Fprintf(&buf, "-> #%d (%s)\n", e.To.ID, e.Kind)
		}
	}
	return buf.String()
}

// File represents a parsed source file.
type File struct {
	Filename string

	// Functions in source order. The top-level script comes first.
	Functions []*Function
}
