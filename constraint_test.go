package jslee_test

import (
	"testing"

	"github.com/benbjohnson/jslee"
)

func TestConstraint(t *testing.T) {
	t.Run("Laws", func(t *testing.T) {
		all := []jslee.Constraint{
			jslee.NULL, jslee.UNDEFINED, jslee.NAN, jslee.ZERO, jslee.TRUE, jslee.FUNCTION,
			jslee.TRUTHY, jslee.FALSY, jslee.NUMBER_PRIMITIVE, jslee.ANY_STRING, jslee.ANY_VALUE,
		}
		for _, a := range all {
			if a.Or(a) != a {
				t.Fatalf("expected %s | %s == %s", a, a, a)
			} else if a.Or(jslee.ANY_VALUE) != jslee.ANY_VALUE {
				t.Fatalf("expected %s | ANY_VALUE == ANY_VALUE", a)
			}
			for _, b := range all {
				if a.Or(b) != b.Or(a) {
					t.Fatalf("expected %s | %s to commute", a, b)
				}
			}
			if a.IsSingleValue() && a.Not().Not() != a {
				t.Fatalf("expected double negation of %s", a)
			}
		}
	})

	t.Run("Or", func(t *testing.T) {
		if got, exp := jslee.NULL.Or(jslee.UNDEFINED), jslee.NULL_OR_UNDEFINED; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("And", func(t *testing.T) {
		if got := jslee.TRUTHY.And(jslee.FALSY); !got.IsNone() {
			t.Fatalf("expected no possible value: %s", got)
		} else if got, exp := jslee.FALSY.And(jslee.NUMBER_PRIMITIVE), jslee.FALSY_NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("Not", func(t *testing.T) {
		if got, exp := jslee.NOT_NULLY.Not(), jslee.NULL_OR_UNDEFINED; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.ANY_VALUE.Not(), jslee.NO_POSSIBLE_VALUE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.TRUTHY.Not(), jslee.FALSY; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("IsStricterOrEqualTo", func(t *testing.T) {
		if !jslee.NULL.IsStricterOrEqualTo(jslee.FALSY) {
			t.Fatal("expected NULL <= FALSY")
		} else if jslee.NULL_OR_UNDEFINED.IsStricterOrEqualTo(jslee.NULL) {
			t.Fatal("expected NULL_OR_UNDEFINED > NULL")
		} else if jslee.NO_POSSIBLE_VALUE.IsStricterOrEqualTo(jslee.ANY_VALUE) {
			t.Fatal("expected empty constraint to be unrelated")
		}
	})

	t.Run("IsIncompatibleWith", func(t *testing.T) {
		if !jslee.TRUE.IsIncompatibleWith(jslee.FALSE) {
			t.Fatal("expected TRUE & FALSE to be incompatible")
		} else if jslee.BOOLEAN_PRIMITIVE.IsIncompatibleWith(jslee.FALSY) {
			t.Fatal("expected BOOLEAN_PRIMITIVE & FALSY to be compatible")
		}
	})

	t.Run("IsSingleValue", func(t *testing.T) {
		for _, c := range []jslee.Constraint{jslee.NULL, jslee.UNDEFINED, jslee.TRUE, jslee.FALSE, jslee.ZERO, jslee.EMPTY_STRING_PRIMITIVE} {
			if !c.IsSingleValue() {
				t.Fatalf("expected single value: %s", c)
			}
		}
		for _, c := range []jslee.Constraint{jslee.NAN, jslee.POSITIVE_NUMBER_PRIMITIVE, jslee.OTHER_OBJECT, jslee.NULL_OR_UNDEFINED} {
			if c.IsSingleValue() {
				t.Fatalf("unexpected single value: %s", c)
			}
		}
	})

	t.Run("Truthiness", func(t *testing.T) {
		if got, exp := jslee.OBJECT.Truthiness(), jslee.TRUTHY; got != exp {
			t.Fatalf("unexpected truthiness: %s", got)
		} else if got, exp := jslee.FALSY_NUMBER_PRIMITIVE.Truthiness(), jslee.FALSY; got != exp {
			t.Fatalf("unexpected truthiness: %s", got)
		} else if got, exp := jslee.NUMBER_PRIMITIVE.Truthiness(), jslee.ANY_VALUE; got != exp {
			t.Fatalf("unexpected truthiness: %s", got)
		}
	})

	t.Run("String", func(t *testing.T) {
		for _, tt := range []struct {
			c   jslee.Constraint
			exp string
		}{
			{jslee.NO_POSSIBLE_VALUE, "NO_POSSIBLE_VALUE"},
			{jslee.ANY_VALUE, "ANY_VALUE"},
			{jslee.TRUTHY, "TRUTHY"},
			{jslee.NULL_OR_UNDEFINED, "NULL_OR_UNDEFINED"},
			{jslee.NULL | jslee.TRUE, "NULL|TRUE"},
			{jslee.NUMBER_PRIMITIVE | jslee.TRUTHY_STRING_PRIMITIVE, "NUMBER_PRIMITIVE|TRUTHY_STRING_PRIMITIVE"},
			{jslee.OBJECT | jslee.UNDEFINED, "OBJECT|UNDEFINED"},
		} {
			if got := tt.c.String(); got != tt.exp {
				t.Fatalf("String(%d)=%s, expected %s", tt.c, got, tt.exp)
			}
		}
	})
}

func TestPlusConstraint(t *testing.T) {
	for _, tt := range []struct {
		a, b jslee.Constraint
		exp  jslee.Constraint
	}{
		{jslee.UNDEFINED, jslee.ZERO, jslee.NAN},
		{jslee.POSITIVE_NUMBER_PRIMITIVE, jslee.UNDEFINED, jslee.NAN},
		{jslee.STRING_PRIMITIVE, jslee.UNDEFINED, jslee.STRING_PRIMITIVE},
		{jslee.OTHER_OBJECT, jslee.TRUTHY_STRING_PRIMITIVE, jslee.STRING_PRIMITIVE},
		{jslee.NUMBER_PRIMITIVE, jslee.BOOLEAN_PRIMITIVE, jslee.NUMBER_PRIMITIVE},
		{jslee.NULL, jslee.ZERO, jslee.NUMBER_PRIMITIVE},
		{jslee.OTHER_OBJECT, jslee.NUMBER_PRIMITIVE, jslee.NUMBER_PRIMITIVE | jslee.STRING_PRIMITIVE},
		{jslee.ANY_VALUE, jslee.ANY_VALUE, jslee.NUMBER_PRIMITIVE | jslee.STRING_PRIMITIVE},
		{jslee.TRUTHY_STRING_PRIMITIVE, jslee.EMPTY_STRING_PRIMITIVE, jslee.STRING_PRIMITIVE},
		{jslee.ANY_NUMBER, jslee.UNDEFINED, jslee.NAN},
		{jslee.UNDEFINED, jslee.UNDEFINED, jslee.NAN},
		{jslee.UNDEFINED, jslee.STRING_PRIMITIVE, jslee.STRING_PRIMITIVE},
	} {
		if got := jslee.PlusConstraint(tt.a, tt.b); got != tt.exp {
			t.Fatalf("%s + %s = %s, expected %s", tt.a, tt.b, got, tt.exp)
		}
	}
}

func TestArithmeticConstraint(t *testing.T) {
	t.Run("Undefined", func(t *testing.T) {
		if got, exp := jslee.ArithmeticConstraint(jslee.UNDEFINED, jslee.ZERO), jslee.NAN; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	// Bitwise operators convert undefined to 0 rather than NaN.
	t.Run("Bitwise", func(t *testing.T) {
		if got, exp := jslee.BitwiseConstraint(jslee.UNDEFINED, jslee.ZERO), jslee.NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.BitwiseConstraint(jslee.UNDEFINED, jslee.NUMBER_PRIMITIVE), jslee.NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.ArithmeticConstraint(jslee.UNDEFINED, jslee.NUMBER_PRIMITIVE), jslee.NAN; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("UnaryMinus", func(t *testing.T) {
		if got, exp := jslee.UnaryMinusConstraint(jslee.POSITIVE_NUMBER_PRIMITIVE), jslee.NEGATIVE_NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.UnaryMinusConstraint(jslee.ZERO|jslee.POSITIVE_NUMBER_PRIMITIVE), jslee.ZERO|jslee.NEGATIVE_NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.UnaryMinusConstraint(jslee.ANY_VALUE), jslee.NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})

	t.Run("UnaryPlus", func(t *testing.T) {
		if got, exp := jslee.UnaryPlusConstraint(jslee.NAN), jslee.NAN; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		} else if got, exp := jslee.UnaryPlusConstraint(jslee.STRING_PRIMITIVE), jslee.NUMBER_PRIMITIVE; got != exp {
			t.Fatalf("unexpected constraint: %s", got)
		}
	})
}

func TestIncDecConstraint(t *testing.T) {
	for _, tt := range []struct {
		c         jslee.Constraint
		increment bool
		exp       jslee.Constraint
	}{
		{jslee.ZERO, true, jslee.POSITIVE_NUMBER_PRIMITIVE},
		{jslee.NEGATIVE_NUMBER_PRIMITIVE, true, jslee.NEGATIVE_NUMBER_PRIMITIVE | jslee.ZERO},
		{jslee.UNDEFINED, true, jslee.NAN},
		{jslee.NULL, true, jslee.POSITIVE_NUMBER_PRIMITIVE},
		{jslee.OTHER_OBJECT, true, jslee.NUMBER_PRIMITIVE},
		{jslee.TRUE, false, jslee.ZERO},
		{jslee.POSITIVE_NUMBER_PRIMITIVE, false, jslee.POSITIVE_NUMBER_PRIMITIVE | jslee.ZERO},
		{jslee.ZERO | jslee.UNDEFINED, false, jslee.NEGATIVE_NUMBER_PRIMITIVE | jslee.NAN},
	} {
		if got := jslee.IncDecConstraint(tt.c, tt.increment); got != tt.exp {
			t.Fatalf("IncDec(%s, %v)=%s, expected %s", tt.c, tt.increment, got, tt.exp)
		}
	}
}

func TestTypeOfConstraint(t *testing.T) {
	if c, ok := jslee.TypeOfConstraint("object"); !ok {
		t.Fatal("expected known tag")
	} else if exp := jslee.NULL | (jslee.OBJECT &^ jslee.FUNCTION); c != exp {
		t.Fatalf("unexpected constraint: %s", c)
	}

	if c, ok := jslee.TypeOfConstraint("function"); !ok || c != jslee.FUNCTION {
		t.Fatalf("unexpected constraint: %s", c)
	}

	if _, ok := jslee.TypeOfConstraint("bigint"); ok {
		t.Fatal("expected unknown tag")
	}
}
