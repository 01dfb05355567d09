package reader

import (
	"math/big"
	"testing"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

func readOne(t *testing.T, src string) ast.Datum {
	t.Helper()
	in := sym.New()
	forms, errs := NewBuilder(src, in).Build().ReadAll()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors for %q: %v", src, errs)
	}
	if len(forms) != 1 {
		t.Fatalf("expected exactly one form, got %d for %q", len(forms), src)
	}
	return forms[0]
}

func TestReadAtoms(t *testing.T) {
	if d := readOne(t, "42"); d.(ast.DInt).Value.Cmp(big.NewInt(42)) != 0 {
		t.Errorf("expected 42, got %#v", d)
	}
	if d := readOne(t, "#t"); !d.(ast.DBool).Value {
		t.Errorf("expected #t")
	}
	if d := readOne(t, `"hi"`); d.(ast.DString).Value != "hi" {
		t.Errorf("expected string hi")
	}
	if d := readOne(t, "foo"); d.(ast.DSymbol).Name != "foo" {
		t.Errorf("expected symbol foo")
	}
}

func TestReadList(t *testing.T) {
	d := readOne(t, "(1 2 3)")
	pair, ok := d.(*ast.DPair)
	if !ok {
		t.Fatalf("expected *DPair, got %T", d)
	}
	if pair.Car.(ast.DInt).Value.Int64() != 1 {
		t.Errorf("expected first element 1")
	}
}

func TestReadDottedPair(t *testing.T) {
	d := readOne(t, "(1 . 2)")
	pair := d.(*ast.DPair)
	if pair.Car.(ast.DInt).Value.Int64() != 1 {
		t.Fatalf("bad car")
	}
	if pair.Cdr.(ast.DInt).Value.Int64() != 2 {
		t.Fatalf("bad cdr, got %#v", pair.Cdr)
	}
}

func TestQuoteShorthand(t *testing.T) {
	d := readOne(t, "'x")
	pair := d.(*ast.DPair)
	if pair.Car.(ast.DSymbol).Name != "quote" {
		t.Fatalf("expected quote, got %#v", pair.Car)
	}
}

func TestVectorAndBytevector(t *testing.T) {
	v := readOne(t, "#(1 2 3)").(*ast.DVector)
	if len(v.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(v.Items))
	}
	bv := readOne(t, "#u8(1 2 255)").(ast.DBytevector)
	if len(bv.Bytes) != 3 || bv.Bytes[2] != 255 {
		t.Fatalf("unexpected bytevector %#v", bv)
	}
}

func TestDatumLabelCycle(t *testing.T) {
	d := readOne(t, "#1=(a . #1#)")
	pair := d.(*ast.DPair)
	if pair.Cdr.(*ast.DPair) != pair {
		t.Fatalf("expected cyclic structure, Cdr should point back to the same pair")
	}
}

func TestNumberTower(t *testing.T) {
	tests := []struct {
		src string
		kind string
	}{
		{"1/2", "rat"},
		{"1.5", "real"},
		{"#xFF", "int"},
		{"3+4i", "complex"},
		{"#e1.5", "rat"},
	}
	for _, tt := range tests {
		d := readOne(t, tt.src)
		switch tt.kind {
		case "rat":
			if _, ok := d.(ast.DRat); !ok {
				t.Errorf("%s: expected DRat, got %T", tt.src, d)
			}
		case "real":
			if _, ok := d.(ast.DReal); !ok {
				t.Errorf("%s: expected DReal, got %T", tt.src, d)
			}
		case "int":
			n, ok := d.(ast.DInt)
			if !ok || n.Value.Int64() != 255 {
				t.Errorf("%s: expected DInt(255), got %#v", tt.src, d)
			}
		case "complex":
			if _, ok := d.(ast.DComplex); !ok {
				t.Errorf("%s: expected DComplex, got %T", tt.src, d)
			}
		}
	}
}

func TestDatumComment(t *testing.T) {
	in := sym.New()
	forms, errs := NewBuilder("(a #;(b c) d)", in).Build().ReadAll()
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}
	items := flattenProperList(t, forms[0])
	if len(items) != 2 {
		t.Fatalf("expected 2 items after datum comment elided middle form, got %d", len(items))
	}
}

func TestUnbalancedParenRecovers(t *testing.T) {
	in := sym.New()
	forms, errs := NewBuilder("(a b\n(c d", in).Build().ReadAll()
	if len(errs) == 0 {
		t.Fatalf("expected a read error for unterminated list")
	}
	_ = forms
}

func flattenProperList(t *testing.T, d ast.Datum) []ast.Datum {
	t.Helper()
	var out []ast.Datum
	for {
		switch v := d.(type) {
		case ast.DNull:
			return out
		case *ast.DPair:
			out = append(out, v.Car)
			d = v.Cdr
		default:
			t.Fatalf("improper list encountered: %#v", d)
			return nil
		}
	}
}
