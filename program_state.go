package jslee

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/benbjohnson/immutable"
	"github.com/cespare/xxhash/v2"
)

// ProgramState represents an immutable snapshot of an execution path: the
// evaluation stack, the values bound to tracked symbols, the constraints
// learned on values and the relations learned between them.
//
// Every mutator returns a new state and leaves the receiver unchanged so
// states can be shared freely between forked paths.
type ProgramState struct {
	stack       *immutable.List      // Value
	bindings    *immutable.SortedMap // symbol ID -> binding
	constraints *immutable.SortedMap // value ID -> constraintEntry
	relations   *immutable.SortedMap // relationKey -> Relation
}

type binding struct {
	symbol *Symbol
	value  Value
}

type constraintEntry struct {
	value      Value
	constraint Constraint
}

// NewProgramState returns an empty program state.
func NewProgramState() *ProgramState {
	return &ProgramState{
		stack:       immutable.NewList(),
		bindings:    immutable.NewSortedMap(&intComparer{}),
		constraints: immutable.NewSortedMap(&intComparer{}),
		relations:   immutable.NewSortedMap(&relationKeyComparer{}),
	}
}

func (s *ProgramState) clone() *ProgramState {
	other := *s
	return &other
}

// StackSize returns the number of values on the stack.
func (s *ProgramState) StackSize() int { return s.stack.Len() }

// PushToStack returns a new state with v pushed on the stack.
func (s *ProgramState) PushToStack(v Value) *ProgramState {
	assert(v != nil, "push of nil value")
	other := s.clone()
	other.stack = s.stack.Append(v)
	return other
}

// PeekStack returns the value n positions below the top of the stack.
// PeekStack(0) returns the top. Panics if the stack is too small.
func (s *ProgramState) PeekStack(n int) Value {
	size := s.stack.Len()
	assert(n >= 0 && n < size, "peek of %d values on stack of size %d", n+1, size)
	return s.stack.Get(size - 1 - n).(Value)
}

// PopStack returns a new state with n values removed from the top of the
// stack and the removed values in push order. Panics if the stack is too small.
func (s *ProgramState) PopStack(n int) (*ProgramState, []Value) {
	size := s.stack.Len()
	assert(n >= 0 && n <= size, "pop of %d values on stack of size %d", n, size)
	if n == 0 {
		return s, nil
	}

	values := make([]Value, n)
	for i := range values {
		values[i] = s.stack.Get(size - n + i).(Value)
	}

	other := s.clone()
	if n == size {
		other.stack = immutable.NewList()
	} else {
		other.stack = s.stack.Slice(0, size-n)
	}
	return other, values
}

// ClearStack returns a new state with an empty stack.
func (s *ProgramState) ClearStack() *ProgramState {
	if s.stack.Len() == 0 {
		return s
	}
	other := s.clone()
	other.stack = immutable.NewList()
	return other
}

// Assignment returns a new state with v bound to sym.
// Assignments to untracked symbols are ignored.
func (s *ProgramState) Assignment(sym *Symbol, v Value) *ProgramState {
	assert(v != nil, "assignment of nil value to %s", sym)
	if sym == nil || !sym.Tracked {
		return s
	}
	other := s.clone()
	other.bindings = s.bindings.Set(sym.ID, binding{symbol: sym, value: v})
	return other
}

// AssignStackTop returns a new state with the top of the stack bound to sym.
func (s *ProgramState) AssignStackTop(sym *Symbol) *ProgramState {
	return s.Assignment(sym, s.PeekStack(0))
}

// Binding returns the value bound to sym. Returns UnknownValue if sym is
// untracked or unbound.
func (s *ProgramState) Binding(sym *Symbol) Value {
	if sym == nil || !sym.Tracked {
		return UnknownValue
	}
	if b, ok := s.bindings.Get(sym.ID); ok {
		return b.(binding).value
	}
	return UnknownValue
}

// NewSymbolicValue returns a new state with a fresh value bound to sym.
func (s *ProgramState) NewSymbolicValue(sym *Symbol, c Constraint) (*ProgramState, Value) {
	v := NewSymbolicValue(sym.Name, c)
	return s.Assignment(sym, v), v
}

// Constraint returns the constraint of v: its base constraint intersected with
// any refinement recorded in the state.
func (s *ProgramState) Constraint(v Value) Constraint {
	c := v.BaseConstraint(s)
	if e, ok := s.constraints.Get(v.ID()); ok {
		c = c.And(e.(constraintEntry).constraint)
	}
	return c
}

// Constrain refines v with c and propagates the refinement to the values v
// derives from. Returns false if no state can satisfy the refinement.
func (s *ProgramState) Constrain(v Value, c Constraint) (*ProgramState, bool) {
	return v.Constrain(s, c)
}

// withConstraint returns a new state with c recorded for v.
func (s *ProgramState) withConstraint(v Value, c Constraint) *ProgramState {
	assert(!c.IsNone(), "recording empty constraint on %s", v)
	other := s.clone()
	other.constraints = s.constraints.Set(v.ID(), constraintEntry{value: v, constraint: c})
	return other
}

// AddRelation returns a new state with r recorded. Returns false if r
// contradicts itself or a relation already known. Relations over
// UnknownValue are not recorded.
func (s *ProgramState) AddRelation(r Relation) (*ProgramState, bool) {
	if r.IsUnknown() {
		return s, true
	} else if r.IsContradiction() {
		return nil, false
	}
	if _, ok := s.relations.Get(r.key()); ok {
		return s, true
	}

	itr := s.relations.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		if !v.(Relation).IsCompatibleWith(r) {
			return nil, false
		}
	}

	other := s.clone()
	other.relations = s.relations.Set(r.key(), r)
	return other, true
}

// Relations returns the relations known in the state.
func (s *ProgramState) Relations() []Relation {
	a := make([]Relation, 0, s.relations.Len())
	itr := s.relations.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v.(Relation))
	}
	return a
}

// roots returns the values on the stack, bottom first, followed by the bound
// values in symbol order.
func (s *ProgramState) roots() []Value {
	a := make([]Value, 0, s.stack.Len()+s.bindings.Len())
	itr := s.stack.Iterator()
	for !itr.Done() {
		_, v := itr.Next()
		a = append(a, v.(Value))
	}

	bitr := s.bindings.Iterator()
	for !bitr.Done() {
		_, b := bitr.Next()
		a = append(a, b.(binding).value)
	}
	return a
}

// Values returns every value reachable from the stack and the bindings,
// including the values they derive from.
func (s *ProgramState) Values() []Value {
	var a []Value
	seen := make(map[int]struct{})
	var visit func(Value)
	visit = func(v Value) {
		if _, ok := seen[v.ID()]; ok {
			return
		}
		seen[v.ID()] = struct{}{}
		a = append(a, v)
		for _, operand := range v.Operands() {
			visit(operand)
		}
	}
	for _, v := range s.roots() {
		visit(v)
	}
	return a
}

// Collect returns a new state without the constraints and relations on
// values that are no longer reachable.
func (s *ProgramState) Collect() *ProgramState {
	live := make(map[int]struct{})
	for _, v := range s.Values() {
		live[v.ID()] = struct{}{}
	}

	other := s.clone()
	itr := s.constraints.Iterator()
	for !itr.Done() {
		k, _ := itr.Next()
		if _, ok := live[k.(int)]; !ok {
			other.constraints = other.constraints.Delete(k)
		}
	}

	ritr := s.relations.Iterator()
	for !ritr.Done() {
		k, v := ritr.Next()
		r := v.(Relation)
		_, lok := live[r.Left.ID()]
		_, rok := live[r.Right.ID()]
		if !lok || !rok {
			other.relations = other.relations.Delete(k)
		}
	}
	return other
}

// Equal returns true if s and other are equivalent. States are equivalent when
// their stacks and bindings hold values of the same kind and constraint, with
// the same aliasing and the same relations between them. Value identities are
// not compared so that paths around a loop converge.
func (s *ProgramState) Equal(other *ProgramState) bool {
	return bytes.Equal(s.encode(), other.encode())
}

// Hash returns a hash of the canonical encoding used by Equal.
func (s *ProgramState) Hash() uint64 {
	return xxhash.Sum64(s.encode())
}

// encode returns the canonical encoding of the state.
func (s *ProgramState) encode() []byte {
	roots := s.roots()

	// Assign canonical indices in order of first appearance.
	index := make(map[int]int, len(roots))
	var distinct []Value
	for _, v := range roots {
		if _, ok := index[v.ID()]; !ok {
			index[v.ID()] = len(distinct)
			distinct = append(distinct, v)
		}
	}
	indexOf := func(v Value) int64 {
		if i, ok := index[v.ID()]; ok {
			return int64(i)
		}
		return -1
	}

	buf := make([]byte, 0, 64)
	buf = binary.AppendUvarint(buf, uint64(s.stack.Len()))
	for _, v := range roots {
		buf = binary.AppendVarint(buf, indexOf(v))
	}

	bitr := s.bindings.Iterator()
	for !bitr.Done() {
		k, _ := bitr.Next()
		buf = binary.AppendVarint(buf, int64(k.(int)))
	}

	for _, v := range distinct {
		buf = append(buf, valueKind(v)...)
		buf = append(buf, 0)
		buf = binary.AppendUvarint(buf, uint64(s.Constraint(v)))
		for _, operand := range v.Operands() {
			buf = binary.AppendVarint(buf, indexOf(operand))
		}
	}

	type encodedRelation struct{ op, left, right int64 }
	var relations []encodedRelation
	for _, r := range s.Relations() {
		left, right := indexOf(r.Left), indexOf(r.Right)
		if left >= 0 && right >= 0 {
			relations = append(relations, encodedRelation{int64(r.Op), left, right})
		}
	}
	sort.Slice(relations, func(i, j int) bool {
		a, b := relations[i], relations[j]
		if a.left != b.left {
			return a.left < b.left
		} else if a.right != b.right {
			return a.right < b.right
		}
		return a.op < b.op
	})
	for _, r := range relations {
		buf = binary.AppendVarint(buf, r.op)
		buf = binary.AppendVarint(buf, r.left)
		buf = binary.AppendVarint(buf, r.right)
	}
	return buf
}

// valueKind returns a tag identifying how a value reacts to refinements.
// Values with a fixed constraint and no dependencies share the same tag.
func valueKind(v Value) string {
	switch v := v.(type) {
	case *unknown:
		return "U"
	case *BinaryValue:
		return "B" + v.Op.String()
	case *UnaryValue:
		return "u" + v.Op.String()
	case *IncDecValue:
		if v.Increment {
			return "I++"
		}
		return "I--"
	case *RelationalValue:
		return "R" + v.Op.String()
	case *TypeOfComparisonValue:
		return "T" + v.Op.String() + v.Tag
	default:
		return "S"
	}
}

// Dump returns a human readable representation of the state.
func (s *ProgramState) Dump() string {
	var buf bytes.Buffer

	fmt.Fprintln(&buf, "PROGRAM STATE")
	fmt.Fprintln(&buf, "=============")

	fmt.Fprintln(&buf, "== STACK")
	for i := 0; i < s.stack.Len(); i++ {
		v := s.PeekStack(i)
		fmt.Fprintf(&buf, "%d. %s (%s)\n", i, v, s.Constraint(v))
	}
	fmt.Fprintln(&buf, "")

	fmt.Fprintln(&buf, "== BINDINGS")
	bitr := s.bindings.Iterator()
	for !bitr.Done() {
		_, b := bitr.Next()
		fmt.Fprintf(&buf, "%s = %s (%s)\n", b.(binding).symbol, b.(binding).value, s.Constraint(b.(binding).value))
	}
	fmt.Fprintln(&buf, "")

	fmt.Fprintln(&buf, "== CONSTRAINTS")
	citr := s.constraints.Iterator()
	for !citr.Done() {
		_, e := citr.Next()
		fmt.Fprintf(&buf, "%s: %s\n", e.(constraintEntry).value, e.(constraintEntry).constraint)
	}
	fmt.Fprintln(&buf, "")

	fmt.Fprintln(&buf, "== RELATIONS")
	for i, r := range s.Relations() {
		fmt.Fprintf(&buf, "%d. %s\n", i, r)
	}
	return buf.String()
}

// intComparer compares int keys.
type intComparer struct{}

// Compare returns -1 if a is less than b, returns 1 if a is greater than b, and
// returns 0 if a is equal to b. Panic if a or b is not an int.
func (c *intComparer) Compare(a, b interface{}) int {
	return compareInts(a.(int), b.(int))
}
