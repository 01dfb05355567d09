package runtime

import (
	"math"
	"math/big"
)

// NumberKind places a Number on the numeric lattice Integer ⊑ Rational ⊑
// Real ⊑ Complex. Exactness is tracked
// separately (Exact), since an integer or rational can be asked to behave
// inexactly (`exact->inexact`) without changing its lattice position's
// conceptual kind until it's actually converted.
type NumberKind int

const (
	KindInteger NumberKind = iota
	KindRational
	KindReal
	KindComplex
)

// Number is the single runtime representation for everything on the tower.
// Only one of Int/Rat/Real/Complex is meaningful, selected by Kind; Exact is
// always false when Kind is Complex.
type Number struct {
	Kind NumberKind
	Exact bool
	Int *big.Int
	Rat *big.Rat
	Real float64
	Complex complex128
}

func NewExactInt(i int64) *Number {
	return &Number{Kind: KindInteger, Exact: true, Int: big.NewInt(i)}
}

func NewExactBigInt(i *big.Int) *Number {
	return &Number{Kind: KindInteger, Exact: true, Int: i}
}

func NewExactRat(r *big.Rat) *Number {
	if r.IsInt() {
		return NewExactBigInt(new(big.Int).Set(r.Num()))
	}
	return &Number{Kind: KindRational, Exact: true, Rat: r}
}

func NewInexactReal(f float64) *Number {
	return &Number{Kind: KindReal, Exact: false, Real: f}
}

func NewComplex(c complex128) *Number {
	if imag(c) == 0 {
		return NewInexactReal(real(c))
	}
	return &Number{Kind: KindComplex, Exact: false, Complex: c}
}

// AsFloat64 widens any tower member to an inexact real, losing the
// imaginary part's presence check (callers must guard IsComplex first if
// that matters).
func (n *Number) AsFloat64() float64 {
	switch n.Kind {
	case KindInteger:
		f := new(big.Float).SetInt(n.Int)
		v, _ := f.Float64()
		return v
	case KindRational:
		v, _ := n.Rat.Float64()
		return v
	case KindReal:
		return n.Real
	case KindComplex:
		return real(n.Complex)
	}
	return math.NaN()
}

func (n *Number) AsComplex128() complex128 {
	if n.Kind == KindComplex {
		return n.Complex
	}
	return complex(n.AsFloat64(), 0)
}

func (n *Number) IsComplex() bool { return n.Kind == KindComplex }
func (n *Number) IsReal() bool { return n.Kind != KindComplex }
func (n *Number) IsRational() bool {
	return n.Kind == KindInteger || n.Kind == KindRational || (n.Kind == KindReal && !math.IsInf(n.Real, 0) && !math.IsNaN(n.Real))
}
func (n *Number) IsInteger() bool {
	switch n.Kind {
	case KindInteger:
		return true
	case KindReal:
		return !math.IsInf(n.Real, 0) && !math.IsNaN(n.Real) && n.Real == math.Trunc(n.Real)
	default:
		return false
	}
}

// AsRat returns an exact rational view of n, widening an integer and
// converting a finite real via big.Rat.SetFloat64. Panics if n is complex —
// callers must check IsReal first, matching how internal/builtins guards
// arguments before arithmetic that requires a real.
func (n *Number) AsRat() *big.Rat {
	switch n.Kind {
	case KindInteger:
		return new(big.Rat).SetInt(n.Int)
	case KindRational:
		return n.Rat
	case KindReal:
		r := new(big.Rat).SetFloat64(n.Real)
		if r == nil {
			return new(big.Rat)
		}
		return r
	default:
		panic("runtime: AsRat on a complex number")
	}
}

// exactnessOf/kindOf helpers for binary-operator result promotion: the
// tower rule is "the result is exact iff every operand is exact" and
// "the result's kind is the highest kind among the operands".
func promote(a, b *Number) NumberKind {
	if a.Kind > b.Kind {
		return a.Kind
	}
	return b.Kind
}

func bothExact(a, b *Number) bool { return a.Exact && b.Exact }

// Add, Sub, Mul, Quo implement the four basic arithmetic operators across
// the tower, promoting to the wider operand's kind and falling back to
// inexact arithmetic once either operand is Real or Complex.
func Add(a, b *Number) *Number { return binOp(a, b, addInt, addRat, func(x, y float64) float64 { return x + y }, func(x, y complex128) complex128 { return x + y }) }
func Sub(a, b *Number) *Number { return binOp(a, b, subInt, subRat, func(x, y float64) float64 { return x - y }, func(x, y complex128) complex128 { return x - y }) }
func Mul(a, b *Number) *Number { return binOp(a, b, mulInt, mulRat, func(x, y float64) float64 { return x * y }, func(x, y complex128) complex128 { return x * y }) }

func addInt(a, b *big.Int) *big.Int { return new(big.Int).Add(a, b) }
func subInt(a, b *big.Int) *big.Int { return new(big.Int).Sub(a, b) }
func mulInt(a, b *big.Int) *big.Int { return new(big.Int).Mul(a, b) }
func addRat(a, b *big.Rat) *big.Rat { return new(big.Rat).Add(a, b) }
func subRat(a, b *big.Rat) *big.Rat { return new(big.Rat).Sub(a, b) }
func mulRat(a, b *big.Rat) *big.Rat { return new(big.Rat).Mul(a, b) }

func binOp(a, b *Number, intOp func(x, y *big.Int) *big.Int, ratOp func(x, y *big.Rat) *big.Rat, realOp func(x, y float64) float64, cplxOp func(x, y complex128) complex128) *Number {
	kind := promote(a, b)
	exact := bothExact(a, b)
	switch {
	case kind == KindComplex:
		return NewComplex(cplxOp(a.AsComplex128(), b.AsComplex128()))
	case kind == KindReal && !exact:
		return NewInexactReal(realOp(a.AsFloat64(), b.AsFloat64()))
	case kind == KindInteger:
		return NewExactBigInt(intOp(a.Int, b.Int))
	default:
		r := ratOp(a.AsRat(), b.AsRat())
		if exact {
			return NewExactRat(r)
		}
		f, _ := r.Float64()
		return NewInexactReal(f)
	}
}

// Div implements `/`; unlike the other three operators it can produce a
// rational from two integers (3/4 stays exact) and must guard division by
// exact zero.
func Div(a, b *Number) (*Number, error) {
	if a.Kind == KindComplex || b.Kind == KindComplex {
		bc := b.AsComplex128()
		if bc == 0 {
			return nil, errDivByZero
		}
		return NewComplex(a.AsComplex128() / bc), nil
	}
	exact := bothExact(a, b)
	if exact {
		if b.Kind == KindInteger && b.Int.Sign() == 0 {
			return nil, errDivByZero
		}
		br := b.AsRat()
		if br.Sign() == 0 {
			return nil, errDivByZero
		}
		r := new(big.Rat).Quo(a.AsRat(), br)
		return NewExactRat(r), nil
	}
	bf := b.AsFloat64()
	return NewInexactReal(a.AsFloat64() / bf), nil
}

// Cmp orders two real numbers (-1/0/1); callers must ensure neither is
// complex (R7RS complex numbers support only `=`, never `<`). NaN is
// unordered: Cmp reports 2, a value no caller should treat as equal
// is false" — comparison
// predicates built on Cmp must check for this sentinel explicitly rather
// than relying on < / > / == chains that would silently call NaN equal to
// itself).
func Cmp(a, b *Number) int {
	if a.Exact && b.Exact {
		return a.AsRat().Cmp(b.AsRat())
	}
	af, bf := a.AsFloat64(), b.AsFloat64()
	if math.IsNaN(af) || math.IsNaN(bf) {
		return 2
	}
	switch {
	case af < bf:
		return -1
	case af > bf:
		return 1
	default:
		return 0
	}
}

// NumEqual implements `=`, which compares across the whole tower including
// complex numbers, unlike Cmp.
func NumEqual(a, b *Number) bool {
	if a.Kind == KindComplex || b.Kind == KindComplex {
		return a.AsComplex128() == b.AsComplex128()
	}
	return Cmp(a, b) == 0
}

type divByZeroError struct{}

func (divByZeroError) Error() string { return "division by zero" }

var errDivByZero = divByZeroError{}

// ErrDivByZero is the sentinel internal/builtins and internal/eval match on
// to raise the right condition type.
var ErrDivByZero error = errDivByZero
