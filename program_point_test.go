package jslee_test

import (
	"testing"

	"github.com/benbjohnson/jslee"
)

// MustExecutePoint executes a single element and returns the successor states.
func MustExecutePoint(tb testing.TB, s *jslee.ProgramState, n *jslee.Node) []*jslee.ProgramState {
	tb.Helper()
	return jslee.NewProgramPoint(n, jslee.NewFunction("f")).Execute(s)
}

// MustExecuteNodes executes the flattened elements of n and returns the single
// resulting state. Fatal if an element does not have exactly one successor.
func MustExecuteNodes(tb testing.TB, s *jslee.ProgramState, n *jslee.Node) *jslee.ProgramState {
	tb.Helper()
	for _, el := range jslee.Flatten(n) {
		states := MustExecutePoint(tb, s, el)
		if len(states) != 1 {
			tb.Fatalf("unexpected successor count for %s: %d", el, len(states))
		}
		s = states[0]
	}
	return s
}

func TestProgramPoint_Member(t *testing.T) {
	x := &jslee.Symbol{ID: 1, Name: "x", Tracked: true}

	t.Run("NullOrUndefined", func(t *testing.T) {
		s, _ := jslee.NewProgramState().NewSymbolicValue(x, jslee.NULL_OR_UNDEFINED)
		s = MustExecuteNodes(t, s, jslee.NewIdentifier(x))
		if states := MustExecutePoint(t, s, jslee.NewMember(jslee.NewIdentifier(x), "foo")); len(states) != 0 {
			t.Fatalf("expected no successor, got %d", len(states))
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		s, v := jslee.NewProgramState().NewSymbolicValue(x, jslee.ANY_VALUE)
		s = MustExecuteNodes(t, s, jslee.NewMember(jslee.NewIdentifier(x), "foo"))
		if c := s.Constraint(v); c != jslee.NOT_NULLY {
			t.Fatalf("expected object to be constrained, got %s", c)
		} else if n := s.StackSize(); n != 1 {
			t.Fatalf("unexpected stack size: %d", n)
		}
	})

	t.Run("Length", func(t *testing.T) {
		s, _ := jslee.NewProgramState().NewSymbolicValue(x, jslee.STRING_PRIMITIVE)
		s = MustExecuteNodes(t, s, jslee.NewMember(jslee.NewIdentifier(x), "length"))
		if c := s.Constraint(s.PeekStack(0)); c != jslee.ZERO|jslee.POSITIVE_NUMBER_PRIMITIVE {
			t.Fatalf("unexpected constraint: %s", c)
		}
	})

	t.Run("Optional", func(t *testing.T) {
		s, _ := jslee.NewProgramState().NewSymbolicValue(x, jslee.NULL)
		member := jslee.NewMember(jslee.NewIdentifier(x), "foo")
		member.Optional = true
		s = MustExecuteNodes(t, s, member)
		if n := s.StackSize(); n != 1 {
			t.Fatalf("unexpected stack size: %d", n)
		}
	})
}

func TestProgramPoint_Binary(t *testing.T) {
	a := &jslee.Symbol{ID: 1, Name: "a", Tracked: true}

	t.Run("UndefinedPlusNumber", func(t *testing.T) {
		s := jslee.NewProgramState().Assignment(a, jslee.UndefinedValue)
		s = MustExecuteNodes(t, s, jslee.NewBinary("+", jslee.NewIdentifier(a), jslee.NewNumberLiteral("3")))
		if c := s.Constraint(s.PeekStack(0)); c != jslee.NAN {
			t.Fatalf("unexpected constraint: %s", c)
		}
	})

	t.Run("Relational", func(t *testing.T) {
		s, v := jslee.NewProgramState().NewSymbolicValue(a, jslee.ANY_VALUE)
		s = MustExecuteNodes(t, s, jslee.NewBinary("===", jslee.NewIdentifier(a), jslee.NewNullLiteral()))
		if _, ok := s.PeekStack(0).(*jslee.RelationalValue); !ok {
			t.Fatalf("unexpected value: %T", s.PeekStack(0))
		}

		s = MustConstrain(t, s, s.PeekStack(0), jslee.TRUTHY)
		if c := s.Constraint(v); c != jslee.NULL {
			t.Fatalf("unexpected constraint: %s", c)
		}
	})

	t.Run("TypeOf", func(t *testing.T) {
		s, v := jslee.NewProgramState().NewSymbolicValue(a, jslee.ANY_VALUE)
		s = MustExecuteNodes(t, s, jslee.NewBinary("===", jslee.NewUnary("typeof", jslee.NewIdentifier(a)), jslee.NewStringLiteral("function")))
		if _, ok := s.PeekStack(0).(*jslee.TypeOfComparisonValue); !ok {
			t.Fatalf("unexpected value: %T", s.PeekStack(0))
		}

		s = MustConstrain(t, s, s.PeekStack(0), jslee.FALSY)
		if c := s.Constraint(v); c != jslee.FUNCTION.Not() {
			t.Fatalf("unexpected constraint: %s", c)
		}
	})

	t.Run("TypeOfRight", func(t *testing.T) {
		s, v := jslee.NewProgramState().NewSymbolicValue(a, jslee.ANY_VALUE)
		s = MustExecuteNodes(t, s, jslee.NewBinary("==", jslee.NewStringLiteral("string"), jslee.NewUnary("typeof", jslee.NewIdentifier(a))))
		if _, ok := s.PeekStack(0).(*jslee.TypeOfComparisonValue); !ok {
			t.Fatalf("unexpected value: %T", s.PeekStack(0))
		}

		s = MustConstrain(t, s, s.PeekStack(0), jslee.TRUTHY)
		if c := s.Constraint(v); c != jslee.STRING_PRIMITIVE {
			t.Fatalf("unexpected constraint: %s", c)
		}
	})

	t.Run("TypeOfOrdering", func(t *testing.T) {
		s, _ := jslee.NewProgramState().NewSymbolicValue(a, jslee.ANY_VALUE)
		s = MustExecuteNodes(t, s, jslee.NewBinary("<", jslee.NewUnary("typeof", jslee.NewIdentifier(a)), jslee.NewStringLiteral("s")))
		if _, ok := s.PeekStack(0).(*jslee.RelationalValue); !ok {
			t.Fatalf("unexpected value: %T", s.PeekStack(0))
		}
	})
}

func TestProgramPoint_Update(t *testing.T) {
	i := &jslee.Symbol{ID: 1, Name: "i", Tracked: true}

	t.Run("Postfix", func(t *testing.T) {
		s := jslee.NewProgramState().Assignment(i, jslee.NewNumberLiteralValue("0"))
		s = MustExecuteNodes(t, s, jslee.NewUpdate("++", false, jslee.NewIdentifier(i)))
		if c := s.Constraint(s.PeekStack(0)); c != jslee.ZERO {
			t.Fatalf("unexpected result: %s", c)
		} else if c := s.Constraint(s.Binding(i)); c != jslee.POSITIVE_NUMBER_PRIMITIVE {
			t.Fatalf("unexpected binding: %s", c)
		}
	})

	t.Run("Prefix", func(t *testing.T) {
		s := jslee.NewProgramState().Assignment(i, jslee.NewNumberLiteralValue("0"))
		s = MustExecuteNodes(t, s, jslee.NewUpdate("--", true, jslee.NewIdentifier(i)))
		if c := s.Constraint(s.PeekStack(0)); c != jslee.NEGATIVE_NUMBER_PRIMITIVE {
			t.Fatalf("unexpected result: %s", c)
		} else if s.PeekStack(0) != s.Binding(i) {
			t.Fatal("expected result to be bound")
		}
	})
}

func TestProgramPoint_Assignment(t *testing.T) {
	x := &jslee.Symbol{ID: 1, Name: "x", Tracked: true}

	t.Run("Simple", func(t *testing.T) {
		s := MustExecuteNodes(t, jslee.NewProgramState(), jslee.NewAssignment("=", jslee.NewIdentifier(x), jslee.NewNullLiteral()))
		if s.Binding(x) != jslee.NullValue {
			t.Fatalf("unexpected binding: %s", s.Binding(x))
		} else if s.PeekStack(0) != jslee.NullValue {
			t.Fatalf("unexpected result: %s", s.PeekStack(0))
		}
	})

	t.Run("Compound", func(t *testing.T) {
		s := jslee.NewProgramState().Assignment(x, jslee.UndefinedValue)
		s = MustExecuteNodes(t, s, jslee.NewAssignment("*=", jslee.NewIdentifier(x), jslee.NewNumberLiteral("2")))
		if c := s.Constraint(s.Binding(x)); c != jslee.NAN {
			t.Fatalf("unexpected binding: %s", c)
		}
	})

	t.Run("MemberOfNull", func(t *testing.T) {
		s := jslee.NewProgramState().Assignment(x, jslee.NullValue)
		n := jslee.NewAssignment("=", jslee.NewMember(jslee.NewIdentifier(x), "foo"), jslee.NewNumberLiteral("1"))
		s = MustExecuteNodes(t, s, n.Children[0])
		s = MustExecuteNodes(t, s, n.Children[1])
		if states := MustExecutePoint(t, s, n); len(states) != 0 {
			t.Fatalf("expected no successor, got %d", len(states))
		}
	})
}

func TestProgramPoint_Declarator(t *testing.T) {
	x := &jslee.Symbol{ID: 1, Name: "x", Tracked: true}
	v := jslee.NewSymbolicValue("v", jslee.TRUE)

	t.Run("Var", func(t *testing.T) {
		s := jslee.NewProgramState().Assignment(x, v)
		s = MustExecuteNodes(t, s, jslee.NewVariableDeclarator("var", x, nil))
		if s.Binding(x) != v {
			t.Fatalf("expected var to keep its value: %s", s.Binding(x))
		}
	})

	t.Run("Let", func(t *testing.T) {
		s := jslee.NewProgramState().Assignment(x, v)
		s = MustExecuteNodes(t, s, jslee.NewVariableDeclarator("let", x, nil))
		if s.Binding(x) != jslee.UndefinedValue {
			t.Fatalf("unexpected binding: %s", s.Binding(x))
		}
	})

	t.Run("Initializer", func(t *testing.T) {
		s := MustExecuteNodes(t, jslee.NewProgramState(), jslee.NewVariableDeclarator("const", x, jslee.NewStringLiteral("")))
		if c := s.Constraint(s.Binding(x)); c != jslee.EMPTY_STRING_PRIMITIVE {
			t.Fatalf("unexpected binding: %s", c)
		} else if n := s.StackSize(); n != 0 {
			t.Fatalf("unexpected stack size: %d", n)
		}
	})
}

func TestProgramPoint_Identifier(t *testing.T) {
	g := &jslee.Symbol{ID: 1, Name: "g"}

	for _, tt := range []struct {
		n   *jslee.Node
		exp jslee.Constraint
	}{
		{jslee.NewUndefined(), jslee.UNDEFINED},
		{&jslee.Node{Kind: jslee.KindIdentifier, Value: "NaN"}, jslee.NAN},
		{&jslee.Node{Kind: jslee.KindIdentifier, Value: "window"}, jslee.ANY_VALUE},
		{jslee.NewIdentifier(g), jslee.ANY_VALUE},
	} {
		s := MustExecuteNodes(t, jslee.NewProgramState(), tt.n)
		if c := s.Constraint(s.PeekStack(0)); c != tt.exp {
			t.Fatalf("unexpected constraint for %s: %s", tt.n, c)
		}
	}
}

// Each read of an untracked identifier is a distinct value.
func TestProgramPoint_UntrackedIdentifier(t *testing.T) {
	g := &jslee.Symbol{ID: 1, Name: "g"}

	s := jslee.NewProgramState()
	s = MustExecuteNodes(t, s, jslee.NewIdentifier(g))
	s = MustExecuteNodes(t, s, jslee.NewIdentifier(g))
	if a, b := s.PeekStack(0), s.PeekStack(1); a.ID() == b.ID() {
		t.Fatalf("expected distinct values: %s", a)
	}

	s = MustExecuteNodes(t, jslee.NewProgramState(), jslee.NewBinary("<", jslee.NewIdentifier(g), jslee.NewIdentifier(g)))
	for _, c := range []jslee.Constraint{jslee.TRUTHY, jslee.FALSY} {
		if _, ok := s.Constrain(s.PeekStack(0), c); !ok {
			t.Fatalf("expected %s branch to be feasible", c)
		}
	}
}

func TestProgramPoint_Statement(t *testing.T) {
	s := MustExecuteNodes(t, jslee.NewProgramState(), jslee.NewExpressionStatement(jslee.NewCall(&jslee.Node{Kind: jslee.KindIdentifier, Value: "f"})))
	if n := s.StackSize(); n != 0 {
		t.Fatalf("unexpected stack size: %d", n)
	}

	s = MustExecuteNodes(t, jslee.NewProgramState(), jslee.NewReturn(jslee.NewNullLiteral()))
	if n := s.StackSize(); n != 0 {
		t.Fatalf("unexpected stack size: %d", n)
	}
}

func TestNewProgramPoint(t *testing.T) {
	t.Run("ErrInvalidKind", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic")
			}
		}()
		jslee.NewProgramPoint(&jslee.Node{}, jslee.NewFunction("f"))
	})

	t.Run("ErrLogicalElement", func(t *testing.T) {
		defer func() {
			if r := recover(); r == nil {
				t.Fatal("expected panic")
			}
		}()
		jslee.NewProgramPoint(&jslee.Node{Kind: jslee.KindLogical, Op: "&&"}, jslee.NewFunction("f"))
	})
}
