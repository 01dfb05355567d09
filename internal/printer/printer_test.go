package printer_test

import (
	"math/big"
	"testing"

	"github.com/go-scm/go-scm/internal/printer"
	"github.com/go-scm/go-scm/internal/runtime"
)

func TestWriteStringRoundTripShapes(t *testing.T) {
	list := runtime.SliceToList([]runtime.Value{
		runtime.NewExactInt(1),
		runtime.NewExactInt(2),
		runtime.NewExactInt(3),
	})
	if got, want := printer.WriteString(list), "(1 2 3)"; got != want {
		t.Errorf("WriteString(list) = %q, want %q", got, want)
	}

	str := &runtime.String{Runes: []rune("hi\n\"there\"")}
	if got, want := printer.WriteString(str), `"hi\n\"there\""`; got != want {
		t.Errorf("WriteString(string) = %q, want %q", got, want)
	}
	if got, want := printer.DisplayString(str), `hi`+"\n"+`"there"`; got != want {
		t.Errorf("DisplayString(string) = %q, want %q", got, want)
	}

	if got, want := printer.WriteString(runtime.Boolean(true)), "#t"; got != want {
		t.Errorf("WriteString(#t) = %q, want %q", got, want)
	}
	if got, want := printer.WriteString(runtime.Null{}), "()"; got != want {
		t.Errorf("WriteString(null) = %q, want %q", got, want)
	}
}

func TestWriteCyclicPairUsesDatumLabels(t *testing.T) {
	p := &runtime.Pair{Car: runtime.NewExactInt(1)}
	p.Cdr = p // a cyclic list: #0=(1 . #0#) referring back to itself

	out := printer.WriteString(p)
	if out == "" {
		t.Fatal("expected non-empty output for cyclic pair")
	}
	if !containsDatumLabel(out) {
		t.Errorf("WriteString(cyclic pair) = %q, want a #N= / #N# datum label", out)
	}
}

func containsDatumLabel(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] == '#' && i+1 < len(s) && s[i+1] >= '0' && s[i+1] <= '9' {
			return true
		}
	}
	return false
}

func TestFormatNumberCanonicalForms(t *testing.T) {
	cases := []struct {
		name string
		n *runtime.Number
		want string
	}{
		{"exact-int", runtime.NewExactInt(42), "42"},
		{"exact-rational", runtime.NewExactRat(big.NewRat(1, 3)), "1/3"},
		{"inexact-real", runtime.NewInexactReal(2), "2."},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := printer.FormatNumber(tc.n); got != tc.want {
				t.Errorf("FormatNumber(%s) = %q, want %q", tc.name, got, tc.want)
			}
		})
	}
}
