package jslee_test

import (
	"testing"

	"github.com/benbjohnson/jslee"
)

// MustConstrain constrains v in s. Fatal if the constraint is infeasible.
func MustConstrain(tb testing.TB, s *jslee.ProgramState, v jslee.Value, c jslee.Constraint) *jslee.ProgramState {
	tb.Helper()
	other, ok := s.Constrain(v, c)
	if !ok {
		tb.Fatalf("unexpected infeasible constraint: %s on %s", c, v)
	}
	return other
}

func TestValue_Constrain(t *testing.T) {
	t.Run("Infeasible", func(t *testing.T) {
		s := jslee.NewProgramState()
		v := jslee.NewSymbolicValue("x", jslee.BOOLEAN_PRIMITIVE)
		s = MustConstrain(t, s, v, jslee.TRUE)
		if _, ok := s.Constrain(v, jslee.FALSE); ok {
			t.Fatal("expected TRUE then FALSE to be infeasible")
		}
		if _, ok := jslee.NewProgramState().Constrain(jslee.NullValue, jslee.TRUTHY); ok {
			t.Fatal("expected truthy null to be infeasible")
		}
	})

	t.Run("Unchanged", func(t *testing.T) {
		s := jslee.NewProgramState()
		v := jslee.NewSymbolicValue("x", jslee.NULL)
		if other := MustConstrain(t, s, v, jslee.FALSY); other != s {
			t.Fatal("expected same state")
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		s := jslee.NewProgramState()
		s = MustConstrain(t, s, jslee.UnknownValue, jslee.NULL)
		if got, exp := s.Constraint(jslee.UnknownValue), jslee.ANY_VALUE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("Literal", func(t *testing.T) {
		for lexeme, exp := range map[string]jslee.Constraint{
			"0": jslee.ZERO, "0.0": jslee.ZERO, "0x0": jslee.ZERO, "1e3": jslee.POSITIVE_NUMBER_PRIMITIVE,
			"0xFF": jslee.POSITIVE_NUMBER_PRIMITIVE, "1_000": jslee.POSITIVE_NUMBER_PRIMITIVE,
			"10n": jslee.POSITIVE_NUMBER_PRIMITIVE, "NaN": jslee.NAN,
		} {
			v := jslee.NewNumberLiteralValue(lexeme)
			if got := v.BaseConstraint(jslee.NewProgramState()); got != exp {
				t.Fatalf("constraint(%s)=%s, expected %s", lexeme, got, exp)
			}
		}

		if got, exp := jslee.NewLiteralValue(jslee.NewStringLiteral("")).BaseConstraint(nil), jslee.EMPTY_STRING_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
		if _, ok := jslee.NewProgramState().Constrain(jslee.NewNumberLiteralValue("0"), jslee.TRUTHY); ok {
			t.Fatal("expected truthy zero to be infeasible")
		}
	})
}

func TestRelationalValue(t *testing.T) {
	t.Run("StrictEqualityPropagation", func(t *testing.T) {
		s := jslee.NewProgramState()
		x := jslee.NewSymbolicValue("x", jslee.ANY_VALUE)
		empty := jslee.NewLiteralValue(jslee.NewStringLiteral(""))
		v := jslee.NewRelationalValue(jslee.SEQ, x, empty)

		if got, exp := MustConstrain(t, s, v, jslee.TRUTHY).Constraint(x), jslee.EMPTY_STRING_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
		if got, exp := MustConstrain(t, s, v, jslee.FALSY).Constraint(x), jslee.ANY_VALUE&^jslee.EMPTY_STRING_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("SymbolicEmptyString", func(t *testing.T) {
		s := jslee.NewProgramState()
		a := jslee.NewSymbolicValue("a", jslee.ANY_VALUE)
		b := jslee.NewSymbolicValue("b", jslee.EMPTY_STRING_PRIMITIVE)
		v := jslee.NewRelationalValue(jslee.SEQ, a, b)

		if got, exp := MustConstrain(t, s, v, jslee.TRUTHY).Constraint(a), jslee.EMPTY_STRING_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := MustConstrain(t, s, v, jslee.FALSY).Constraint(a), jslee.EMPTY_STRING_PRIMITIVE.Not(); got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	// Only strict equality transfers a single value to a non-singleton operand.
	t.Run("NonSingletonOperand", func(t *testing.T) {
		s := jslee.NewProgramState()
		a := jslee.NewSymbolicValue("a", jslee.EMPTY_STRING_PRIMITIVE)
		b := jslee.NewSymbolicValue("b", jslee.ANY_VALUE)

		for _, c := range []jslee.Constraint{jslee.TRUTHY, jslee.FALSY} {
			if got := MustConstrain(t, s, jslee.NewRelationalValue(jslee.EQ, a, b), c).Constraint(b); got != jslee.ANY_VALUE {
				t.Fatalf("unexpected loose narrowing on %s: %s", c, got)
			}
		}
		if got, exp := MustConstrain(t, s, jslee.NewRelationalValue(jslee.SEQ, a, b), jslee.TRUTHY).Constraint(b), jslee.EMPTY_STRING_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	// Loose equality narrows against null & undefined only. Strict equality
	// narrows to the exact value.
	t.Run("LooseStrictAsymmetry", func(t *testing.T) {
		s := jslee.NewProgramState()
		x := jslee.NewSymbolicValue("x", jslee.ANY_VALUE)

		loose := jslee.NewRelationalValue(jslee.EQ, x, jslee.NullValue)
		if got, exp := MustConstrain(t, s, loose, jslee.TRUTHY).Constraint(x), jslee.NULL_OR_UNDEFINED; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
		if got, exp := MustConstrain(t, s, loose, jslee.FALSY).Constraint(x), jslee.NOT_NULLY; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}

		strict := jslee.NewRelationalValue(jslee.SEQ, x, jslee.NullValue)
		if got, exp := MustConstrain(t, s, strict, jslee.TRUTHY).Constraint(x), jslee.NULL; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}

		zero := jslee.NewRelationalValue(jslee.EQ, x, jslee.NewNumberLiteralValue("0"))
		if got, exp := MustConstrain(t, s, zero, jslee.TRUTHY).Constraint(x), jslee.ANY_VALUE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("ConstantOutcome", func(t *testing.T) {
		s := jslee.NewProgramState()
		if got, exp := jslee.NewRelationalValue(jslee.SEQ, jslee.NullValue, jslee.UndefinedValue).BaseConstraint(s), jslee.FALSE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.NewRelationalValue(jslee.EQ, jslee.NullValue, jslee.UndefinedValue).BaseConstraint(s), jslee.TRUE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.NewRelationalValue(jslee.LT, jslee.NewNumberLiteralValue("NaN"), jslee.NewSymbolicValue("", jslee.ANY_VALUE)).BaseConstraint(s), jslee.FALSE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("KnownRelation", func(t *testing.T) {
		s := jslee.NewProgramState()
		a := jslee.NewSymbolicValue("a", jslee.ANY_VALUE)
		b := jslee.NewSymbolicValue("b", jslee.ANY_VALUE)
		s = MustConstrain(t, s, jslee.NewRelationalValue(jslee.LT, a, b), jslee.TRUTHY)

		if got, exp := s.Constraint(jslee.NewRelationalValue(jslee.GT, b, a)), jslee.TRUE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := s.Constraint(jslee.NewRelationalValue(jslee.GE, a, b)), jslee.FALSE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
		if _, ok := s.Constrain(jslee.NewRelationalValue(jslee.LT, b, a), jslee.TRUTHY); ok {
			t.Fatal("expected b < a to be infeasible")
		}
	})
}

func TestTypeOfComparisonValue(t *testing.T) {
	s := jslee.NewProgramState()
	x := jslee.NewSymbolicValue("x", jslee.ANY_VALUE)
	v := jslee.NewTypeOfComparisonValue(jslee.SEQ, x, "string")

	if got, exp := MustConstrain(t, s, v, jslee.TRUTHY).Constraint(x), jslee.STRING_PRIMITIVE; got != exp {
		t.Fatalf("unexpected constraint: %s", got)
	}
	if got, exp := MustConstrain(t, s, v, jslee.FALSY).Constraint(x), jslee.STRING_PRIMITIVE.Not(); got != exp {
		t.Fatalf("unexpected constraint: %s", got)
	}
	if jslee.NewTypeOfComparisonValue(jslee.LT, x, "string") != nil {
		t.Fatal("expected nil for ordering comparison")
	}
	if got, exp := jslee.NewTypeOfComparisonValue(jslee.SEQ, x, "nope").BaseConstraint(s), jslee.FALSE; got != exp {
		t.Fatalf("unexpected constraint: %s", got)
	}
}

func TestUnaryValue(t *testing.T) {
	t.Run("Not", func(t *testing.T) {
		s := jslee.NewProgramState()
		x := jslee.NewSymbolicValue("x", jslee.ANY_VALUE)
		v := jslee.NewUnaryValue(jslee.NOT, x)
		if got, exp := MustConstrain(t, s, v, jslee.TRUTHY).Constraint(x), jslee.FALSY; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
		if got, exp := v.BaseConstraint(MustConstrain(t, s, x, jslee.OBJECT)), jslee.FALSE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("Negate", func(t *testing.T) {
		s := jslee.NewProgramState()
		x := jslee.NewSymbolicValue("x", jslee.POSITIVE_NUMBER_PRIMITIVE)
		neg := jslee.Negate(s, x)
		if got, exp := s.Constraint(neg), jslee.NEGATIVE_NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if jslee.Negate(s, neg) != x {
			t.Fatal("expected double negation to return the operand")
		}
	})

	t.Run("TypeOf", func(t *testing.T) {
		v := jslee.NewUnaryValue(jslee.TYPEOF, jslee.UnknownValue)
		if got, exp := v.BaseConstraint(jslee.NewProgramState()), jslee.TRUTHY_STRING_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})
}

func TestBinaryValue(t *testing.T) {
	s := jslee.NewProgramState()
	undef := jslee.UndefinedValue
	three := jslee.NewNumberLiteralValue("3")

	if got, exp := jslee.NewBinaryValue(jslee.ADD, undef, three).BaseConstraint(s), jslee.NAN; got != exp {
		t.Fatalf("unexpected constraint: %s", got)
	} else if got, exp := jslee.NewBinaryValue(jslee.BITOR, undef, three).BaseConstraint(s), jslee.NUMBER_PRIMITIVE; got != exp {
		t.Fatalf("unexpected constraint: %s", got)
	} else if got, exp := jslee.NewBinaryValue(jslee.MUL, undef, three).BaseConstraint(s), jslee.NAN; got != exp {
		t.Fatalf("unexpected constraint: %s", got)
	}

	if op, ok := jslee.ParseBinaryOp(">>>="); !ok || op != jslee.USHR {
		t.Fatalf("unexpected op: %s", op)
	} else if op, ok := jslee.ParseBinaryOp("**"); !ok || op != jslee.EXP {
		t.Fatalf("unexpected op: %s", op)
	}
}

func TestIncDecValue(t *testing.T) {
	s := jslee.NewProgramState()
	v := jslee.NewIncDecValue(jslee.NewNumberLiteralValue("0"), true)
	if got, exp := v.BaseConstraint(s), jslee.POSITIVE_NUMBER_PRIMITIVE; got != exp {
		t.Fatalf("unexpected constraint: %s", got)
	}
}
