package jslee

import (
	"fmt"
	"math/rand"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/tools/container/intsets"
)

// Executor symbolically executes a single function. It explores the blocks of
// the function's CFG with a set of program states, forking at branches and
// dropping states that cannot satisfy a branch.
type Executor struct {
	fn     *Function
	checks []Check
	result *Result

	points map[*Node]ProgramPoint
	seen   map[*Block]*stateSet
	visits map[*Block]int

	// Maximum number of block states explored before execution stops.
	MaxStates int

	// Maximum number of times a single block is explored.
	MaxBlockVisits int

	// Strategy used to choose the next block state to explore.
	Searcher Searcher

	Logger *zap.Logger
}

// Option configures an Executor.
type Option func(e *Executor)

// WithMaxStates sets the maximum number of explored block states.
func WithMaxStates(n int) Option {
	return func(e *Executor) { e.MaxStates = n }
}

// WithMaxBlockVisits sets the maximum number of visits of a single block.
func WithMaxBlockVisits(n int) Option {
	return func(e *Executor) { e.MaxBlockVisits = n }
}

// WithSearcher sets the exploration strategy.
func WithSearcher(s Searcher) Option {
	return func(e *Executor) { e.Searcher = s }
}

// WithChecks adds checks observing the execution.
func WithChecks(checks ...Check) Option {
	return func(e *Executor) { e.checks = append(e.checks, checks...) }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Executor) { e.Logger = logger }
}

// NewExecutor returns a new instance of Executor for fn.
func NewExecutor(fn *Function, opts ...Option) *Executor {
	e := &Executor{
		fn:     fn,
		result: &Result{Function: fn},
		points: make(map[*Node]ProgramPoint),
		seen:   make(map[*Block]*stateSet),
		visits: make(map[*Block]int),

		MaxStates:      DefaultMaxStates,
		MaxBlockVisits: DefaultMaxBlockVisits,
		Searcher:       NewDFSSearcher(),
		Logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}

	// Add entry state to searcher.
	e.Searcher.AddState(&BlockState{Block: fn.Entry, State: e.InitialState()})

	return e
}

// Function returns the function being executed.
func (e *Executor) Function() *Function { return e.fn }

// InitialState returns the state at the entry of the function. Local
// variables are undefined, parameters are unknown and nested function
// declarations are bound to function values.
func (e *Executor) InitialState() *ProgramState {
	s := NewProgramState()
	for _, sym := range e.fn.Locals {
		s = s.Assignment(sym, UndefinedValue)
	}
	for _, sym := range e.fn.Params {
		s, _ = s.NewSymbolicValue(sym, ANY_VALUE)
	}
	for _, nested := range e.fn.Functions {
		if nested.Symbol != nil {
			s = s.Assignment(nested.Symbol, NewFunctionValue(nested.Name))
		}
	}
	return s
}

// Execute explores the function until no block state remains. Returns an
// error wrapping ErrExecutionLimit if a bound is reached. In that case the
// EndOfExecution hooks are not called.
func (e *Executor) Execute() (*Result, error) {
	e.Logger.Debug("[exec] begin", zap.Stringer("function", e.fn), zap.Stringer("pos", e.fn.Pos))

	for _, c := range e.checks {
		e.dispatch(c, "StartOfExecution", func() { c.StartOfExecution(e.fn) })
	}

	for {
		if _, err := e.ExecuteNextState(); err == ErrNoStateAvailable {
			break
		} else if err != nil {
			e.Logger.Warn("[exec] abort",
				zap.Stringer("function", e.fn),
				zap.Stringer("pos", e.fn.Pos),
				zap.Int("steps", e.result.Steps),
				zap.Error(err),
			)
			return e.result, err
		}
	}

	for _, c := range e.checks {
		e.dispatch(c, "EndOfExecution", func() { c.EndOfExecution(e.fn) })
	}

	e.Logger.Debug("[exec] end",
		zap.Stringer("function", e.fn),
		zap.Int("steps", e.result.Steps),
		zap.Int("end_states", len(e.result.EndStates)),
	)
	return e.result, nil
}

// ExecuteNextState executes the next available block state. This can be
// called continually until ErrNoStateAvailable is returned.
func (e *Executor) ExecuteNextState() (*BlockState, error) {
	item := e.Searcher.SelectState()
	if item == nil {
		return nil, ErrNoStateAvailable
	}
	return item, e.executeBlock(item)
}

func (e *Executor) executeBlock(item *BlockState) error {
	block, state := item.Block, item.State.Collect()

	// Skip states already explored from this block.
	set := e.seen[block]
	if set == nil {
		set = newStateSet()
		e.seen[block] = set
	}
	if !set.add(state) {
		e.Logger.Debug("[state] skip: already seen", zap.Int("block", block.ID))
		return nil
	}

	if e.visits[block]++; e.visits[block] > e.MaxBlockVisits {
		return ErrMaxBlockVisits
	} else if e.result.Steps++; e.result.Steps > e.MaxStates {
		return ErrMaxStates
	}
	e.result.Reached.Insert(block.ID)

	e.Logger.Debug("[state] begin", zap.Int("block", block.ID), zap.Int("stack", state.StackSize()))

	states := []*ProgramState{state}
	for _, el := range block.Elements {
		pp := e.point(el)

		var next []*ProgramState
		for _, s := range states {
			for _, c := range e.checks {
				e.dispatch(c, "BeforeBlockElement", func() { c.BeforeBlockElement(s, el) })
			}

			for _, succ := range pp.Execute(s) {
				for _, c := range e.checks {
					e.dispatch(c, "AfterBlockElement", func() { c.AfterBlockElement(succ, el) })
				}
				next = append(next, succ)
			}
		}

		if states = next; len(states) == 0 {
			e.Logger.Debug("[state] no successor", zap.Int("block", block.ID), zap.Stringer("element", el))
			return nil
		}
	}

	for _, s := range states {
		e.executeSuccs(block, s)
	}
	return nil
}

// executeSuccs adds the states following block to the searcher.
func (e *Executor) executeSuccs(block *Block, s *ProgramState) {
	for _, edge := range block.Succs {
		if edge.Kind == EdgeException {
			e.addState(edge.To, s.ClearStack())
		}
	}

	if block.Branch != nil {
		e.executeBranch(block, s)
		return
	}

	for _, edge := range block.Succs {
		if edge.Kind == EdgeDefault {
			e.addState(edge.To, s)
		}
	}

	if block == e.fn.Exit {
		e.result.EndStates = append(e.result.EndStates, s)
	}
}

// executeBranch forks s by constraining the tested value on each edge.
// The tested value is popped unless the branch short-circuits a logical
// expression, in which case it is the value of the expression.
func (e *Executor) executeBranch(block *Block, s *ProgramState) {
	cond := block.Branch
	v := s.PeekStack(0)

	truthyConstraint, falsyConstraint := TRUTHY, FALSY
	popTruthy, popFalsy := true, true
	if cond.Kind == KindLogical {
		switch cond.Op {
		case "&&":
			popFalsy = false
		case "||":
			popTruthy = false
		case "??":
			truthyConstraint, falsyConstraint = NOT_NULLY, NULL_OR_UNDEFINED
			popTruthy = false
		}
	}

	truthy, ok := s.Constrain(v, truthyConstraint)
	if !ok {
		truthy = nil
	}
	falsy, ok := s.Constrain(v, falsyConstraint)
	if !ok {
		falsy = nil
	}

	for _, c := range e.checks {
		e.dispatch(c, "ConditionBranches", func() { c.ConditionBranches(cond, truthy, falsy) })
	}

	if truthy != nil {
		e.Logger.Debug("[fork] condition true", zap.Int("block", block.ID), zap.Stringer("condition", cond))
		if popTruthy {
			truthy, _ = truthy.PopStack(1)
		}
		e.addSuccs(block, EdgeTrue, truthy)
	}
	if falsy != nil {
		e.Logger.Debug("[fork] condition false", zap.Int("block", block.ID), zap.Stringer("condition", cond))
		if popFalsy {
			falsy, _ = falsy.PopStack(1)
		}
		e.addSuccs(block, EdgeFalse, falsy)
	}
}

func (e *Executor) addSuccs(block *Block, kind EdgeKind, s *ProgramState) {
	for _, edge := range block.Succs {
		if edge.Kind == kind {
			e.addState(edge.To, s)
		}
	}
}

func (e *Executor) addState(block *Block, s *ProgramState) {
	e.Searcher.AddState(&BlockState{Block: block, State: s})
}

// point returns the cached program point for an element.
func (e *Executor) point(n *Node) ProgramPoint {
	pp := e.points[n]
	if pp == nil {
		pp = NewProgramPoint(n, e.fn)
		e.points[n] = pp
	}
	return pp
}

// dispatch calls a check hook. A panic in the hook is logged and does not
// affect other checks or the execution.
func (e *Executor) dispatch(c Check, hook string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			e.Logger.Warn("[check] panic",
				zap.String("check", c.Name()),
				zap.String("hook", hook),
				zap.Stringer("function", e.fn),
				zap.Any("reason", r),
			)
		}
	}()
	fn()
}

// Result represents the outcome of the execution of a function.
type Result struct {
	Function *Function

	// Number of block states explored.
	Steps int

	// IDs of the blocks reached by at least one state.
	Reached intsets.Sparse

	// States reaching the exit block.
	EndStates []*ProgramState
}

// stateSet holds the states seen at a block, bucketed by hash.
type stateSet struct {
	buckets map[uint64][]*ProgramState
}

func newStateSet() *stateSet {
	return &stateSet{buckets: make(map[uint64][]*ProgramState)}
}

// add inserts s into the set. Returns false if an equal state already exists.
func (set *stateSet) add(s *ProgramState) bool {
	h := s.Hash()
	for _, other := range set.buckets[h] {
		if other.Equal(s) {
			return false
		}
	}
	set.buckets[h] = append(set.buckets[h], s)
	return true
}

// BlockState represents a state waiting to be executed from the start of a block.
type BlockState struct {
	Block *Block
	State *ProgramState
}

// Searcher orders the block states waiting to be executed.
type Searcher interface {
	// SelectState removes and returns the next block state to execute.
	// Returns nil when no state is pending.
	SelectState() *BlockState

	// AddState queues a block state produced by a branch or a fall-through edge.
	AddState(state *BlockState)
}

// NewSearcher returns a searcher by name: "dfs", "bfs" or "random". A comma
// separated list of names returns a MultiSearcher alternating between them.
func NewSearcher(name string, seed int64) (Searcher, error) {
	if names := strings.Split(name, ","); len(names) > 1 {
		searchers := make([]Searcher, len(names))
		for i := range names {
			s, err := NewSearcher(names[i], seed)
			if err != nil {
				return nil, err
			}
			searchers[i] = s
		}
		return NewMultiSearcher(searchers...), nil
	}

	switch strings.TrimSpace(name) {
	case "", "dfs":
		return NewDFSSearcher(), nil
	case "bfs":
		return NewBFSSearcher(), nil
	case "random":
		return NewRandomSearcher(rand.New(rand.NewSource(seed))), nil
	default:
		return nil, fmt.Errorf("jslee: unknown searcher: %q", name)
	}
}

var _ Searcher = (*MultiSearcher)(nil)

// MultiSearcher represents a Searcher that chooses a searcher round-robin.
// States are shared so a state is only selected once.
type MultiSearcher struct {
	searchers []Searcher
	index     int
	selected  map[*BlockState]struct{}
	pending   int
}

// NewMultiSearcher returns a new instance of MultiSearcher.
func NewMultiSearcher(searchers ...Searcher) *MultiSearcher {
	return &MultiSearcher{searchers: searchers, selected: make(map[*BlockState]struct{})}
}

// SelectState returns the next state to explore from the next searcher.
// States already selected through another searcher are skipped.
func (s *MultiSearcher) SelectState() *BlockState {
	for s.pending > 0 {
		searcher := s.searchers[s.index]
		if s.index++; s.index >= len(s.searchers) {
			s.index = 0
		}

		state := searcher.SelectState()
		if state == nil {
			continue
		} else if _, ok := s.selected[state]; ok {
			continue
		}
		s.selected[state] = struct{}{}
		s.pending--
		return state
	}
	return nil
}

// AddState adds a new state to the searcher.
func (s *MultiSearcher) AddState(state *BlockState) {
	s.pending++
	for _, searcher := range s.searchers {
		searcher.AddState(state)
	}
}

// blockStates is the list of pending block states kept by the searchers.
type blockStates []*BlockState

func (a *blockStates) push(state *BlockState) {
	*a = append(*a, state)
}

// take removes and returns the state at index i.
func (a *blockStates) take(i int) *BlockState {
	states := *a
	state := states[i]
	copy(states[i:], states[i+1:])
	states[len(states)-1] = nil
	*a = states[:len(states)-1]
	return state
}

// DFSSearcher executes the most recently queued state first. A path is
// followed to the exit block before its sibling branches are explored.
type DFSSearcher struct {
	states blockStates
}

// NewDFSSearcher returns a new instance of DFSSearcher.
func NewDFSSearcher() *DFSSearcher {
	return &DFSSearcher{}
}

func (s *DFSSearcher) SelectState() *BlockState {
	if len(s.states) == 0 {
		return nil
	}
	return s.states.take(len(s.states) - 1)
}

func (s *DFSSearcher) AddState(state *BlockState) { s.states.push(state) }

// BFSSearcher executes states in the order they were queued so that every
// path advances one block at a time.
type BFSSearcher struct {
	states blockStates
}

// NewBFSSearcher returns a new instance of BFSSearcher.
func NewBFSSearcher() *BFSSearcher {
	return &BFSSearcher{}
}

func (s *BFSSearcher) SelectState() *BlockState {
	if len(s.states) == 0 {
		return nil
	}
	return s.states.take(0)
}

func (s *BFSSearcher) AddState(state *BlockState) { s.states.push(state) }

// RandomSearcher executes a pending state chosen at random. The order is
// reproducible for a given source.
type RandomSearcher struct {
	states blockStates
	rand   *rand.Rand
}

// NewRandomSearcher returns a new instance of RandomSearcher.
func NewRandomSearcher(rand *rand.Rand) *RandomSearcher {
	return &RandomSearcher{rand: rand}
}

func (s *RandomSearcher) SelectState() *BlockState {
	if len(s.states) == 0 {
		return nil
	}
	return s.states.take(s.rand.Intn(len(s.states)))
}

func (s *RandomSearcher) AddState(state *BlockState) { s.states.push(state) }
