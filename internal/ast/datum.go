// Package ast defines the abstract syntax tree produced by the reader and
// the generic S-expression data representation shared by quoted data and
// datum labels.
//
// Every node is wrapped in a (node, span) pair so diagnostics can always
// point at the source text that produced it.
package ast

import (
	"math/big"

	"github.com/go-scm/go-scm/internal/lexer"
	"github.com/go-scm/go-scm/internal/sym"
)

// Datum is the generic, unevaluated S-expression tree: what `read` produces
// before any special-form or macro recognition happens. Quoted data
// (`quote`, vector literals, the operands of `quasiquote`) stay at this
// level forever; everything else is classified into an Expr by the macro
// expander's special-form recognition pass.
type Datum interface {
	datumNode()
}

type DBool struct{ Value bool }
type DChar struct{ Value rune }
type DString struct{ Value string }
type DSymbol struct {
	ID sym.ID
	Name string
}

// DInt, DRat, DReal, DComplex mirror the numeric tower's exactness lattice;
// the reader parses the literal text once and stores the parsed form so
// neither the macro expander nor the evaluator re-parses numeric text.
type DInt struct {
	Value *big.Int
	Exact bool // always true for DInt; kept for uniform inexact-int literals like #i3
}
type DRat struct {
	Value *big.Rat
}
type DReal struct{ Value float64 }
type DComplex struct{ Real, Imag float64 }

// DNull is the empty list `()`.
type DNull struct{}

// DPair is a cons cell in quoted/literal data.
type DPair struct{ Car, Cdr Datum }

// DVector is a vector literal `#(...)`.
type DVector struct{ Items []Datum }

// DBytevector is a bytevector literal `#u8(...)`.
type DBytevector struct{ Bytes []byte }

// DLabelRef is an as-yet-unresolved `#N#` reference, resolved by the reader
// before the top-level Read call returns; it never escapes the reader into
// later stages except as part of a cyclic structure, where the Datum graph
// itself becomes cyclic via DPair/DVector containing a reference back to an
// ancestor — DLabelRef itself is only an intermediate placeholder during
// construction.
type DLabelRef struct{ Label int }

func (DBool) datumNode() {}
func (DChar) datumNode() {}
func (DString) datumNode() {}
func (DSymbol) datumNode() {}
func (DInt) datumNode() {}
func (DRat) datumNode() {}
func (DReal) datumNode() {}
func (DComplex) datumNode() {}
func (DNull) datumNode() {}
func (*DPair) datumNode() {}
func (*DVector) datumNode() {}
func (DBytevector) datumNode() {}
func (DLabelRef) datumNode() {}

// DatumList builds a proper list Datum from items, terminated by DNull.
func DatumList(items ...Datum) Datum {
	return DatumListDotted(items, DNull{})
}

// DatumListDotted builds a (possibly improper, if tail != DNull{}) list.
func DatumListDotted(items []Datum, tail Datum) Datum {
	result := tail
	for i := len(items) - 1; i >= 0; i-- {
		result = &DPair{Car: items[i], Cdr: result}
	}
	return result
}

// Position is re-exported for convenience so callers of this package don't
// need to import internal/lexer solely for the type name.
type Position = lexer.Position

// Span is re-exported for the same reason.
type Span = lexer.Span
