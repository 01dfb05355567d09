package runtime

import (
	"testing"

	"github.com/go-scm/go-scm/internal/sym"
)

func TestEnvironmentScoping(t *testing.T) {
	in := sym.New()
	x := in.Intern("x")
	root := NewEnvironment()
	root.Define(x, NewExactInt(1))

	child := NewEnclosedEnvironment(root)
	if v, ok := child.Get(x); !ok || v.(*Number).Int.Int64() != 1 {
		t.Fatalf("expected child to see outer binding, got %#v, %v", v, ok)
	}

	child.Define(x, NewExactInt(2))
	if v, _ := child.Get(x); v.(*Number).Int.Int64() != 2 {
		t.Fatalf("expected shadowing define in child scope")
	}
	if v, _ := root.Get(x); v.(*Number).Int.Int64() != 1 {
		t.Fatalf("expected outer binding untouched by shadowing define")
	}

	if !child.Set(x, NewExactInt(3)) {
		t.Fatalf("expected Set to find the local binding")
	}

	y := in.Intern("y")
	if child.Set(y, NewExactInt(9)) {
		t.Fatalf("expected Set on unbound variable to report false")
	}
}

func TestNumberTowerArithmetic(t *testing.T) {
	one := NewExactInt(1)
	half, _ := Div(one, NewExactInt(2))
	if half.Kind != KindRational {
		t.Fatalf("expected 1/2 to be rational, got kind %v", half.Kind)
	}
	sum := Add(half, half)
	if sum.Kind != KindInteger || sum.Int.Int64() != 1 {
		t.Fatalf("expected 1/2+1/2 to normalize to exact integer 1, got %#v", sum)
	}

	mixedSum := Add(NewExactInt(1), NewInexactReal(0.5))
	if mixedSum.Exact {
		t.Fatalf("expected exact+inexact to be inexact")
	}
	if mixedSum.AsFloat64() != 1.5 {
		t.Fatalf("expected 1.5, got %v", mixedSum.AsFloat64())
	}

	if _, err := Div(one, NewExactInt(0)); err == nil {
		t.Fatalf("expected division by exact zero to error")
	}
}

func TestNumberComparison(t *testing.T) {
	a := NewExactInt(3)
	b := NewInexactReal(3.0)
	if !NumEqual(a, b) {
		t.Fatalf("expected 3 = 3.0")
	}
	if Cmp(NewExactInt(1), NewExactInt(2)) >= 0 {
		t.Fatalf("expected 1 < 2")
	}
}

func TestSuggestUnbound(t *testing.T) {
	in := sym.New()
	root := NewEnvironment()
	root.Define(in.Intern("display"), NewExactInt(0))
	root.Define(in.Intern("car"), NewExactInt(0))
	child := NewEnclosedEnvironment(root)
	child.Define(in.Intern("length"), NewExactInt(0))

	if got := SuggestUnbound(in, child, "dispaly"); got != "display" {
		t.Fatalf("expected suggestion %q, got %q", "display", got)
	}
	if got := SuggestUnbound(in, child, "lenght"); got != "length" {
		t.Fatalf("expected suggestion %q, got %q", "length", got)
	}
	if got := SuggestUnbound(in, child, "zzzzzzzzzz"); got != "" {
		t.Fatalf("expected no suggestion for an unrelated name, got %q", got)
	}
	if got := SuggestUnbound(nil, child, "display"); got != "" {
		t.Fatalf("expected no suggestion with a nil interner, got %q", got)
	}
}

func TestIsTruthy(t *testing.T) {
	if IsTruthy(Boolean(false)) {
		t.Fatalf("#f must be falsy")
	}
	if !IsTruthy(Boolean(true)) {
		t.Fatalf("#t must be truthy")
	}
	if !IsTruthy(Null{}) {
		t.Fatalf("everything except #f is truthy, including '()")
	}
}
