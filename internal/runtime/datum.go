package runtime

import (
	"math/big"

	"github.com/go-scm/go-scm/internal/ast"
)

// FromDatum converts a reader-produced Datum (quoted data, a self-evaluating
// literal, or a case/quasiquote fragment) into a runtime Value, preserving
// any shared or cyclic structure a datum label created.
func FromDatum(d ast.Datum) Value {
	return fromDatum(d, make(map[ast.Datum]Value))
}

func fromDatum(d ast.Datum, seen map[ast.Datum]Value) Value {
	switch v := d.(type) {
	case ast.DBool:
		return Boolean(v.Value)
	case ast.DChar:
		return Char(v.Value)
	case ast.DString:
		return &String{Runes: []rune(v.Value)}
	case ast.DSymbol:
		return Symbol{ID: v.ID, Name: v.Name}
	case ast.DInt:
		return NewExactBigInt(new(big.Int).Set(v.Value))
	case ast.DRat:
		return NewExactRat(new(big.Rat).Set(v.Value))
	case ast.DReal:
		return NewInexactReal(v.Value)
	case ast.DComplex:
		return NewComplex(complex(v.Real, v.Imag))
	case ast.DNull:
		return Null{}
	case *ast.DPair:
		if existing, ok := seen[d]; ok {
			return existing
		}
		p := &Pair{}
		seen[d] = p
		p.Car = fromDatum(v.Car, seen)
		p.Cdr = fromDatum(v.Cdr, seen)
		return p
	case *ast.DVector:
		if existing, ok := seen[d]; ok {
			return existing
		}
		vec := &Vector{Items: make([]Value, len(v.Items))}
		seen[d] = vec
		for i, it := range v.Items {
			vec.Items[i] = fromDatum(it, seen)
		}
		return vec
	case ast.DBytevector:
		b := make([]byte, len(v.Bytes))
		copy(b, v.Bytes)
		return &Bytevector{Bytes: b}
	default:
		return Unspecified{}
	}
}

// ListToSlice flattens a proper list Value into a Go slice, reporting
// whether the list was proper (nil-terminated).
func ListToSlice(v Value) ([]Value, bool) {
	var out []Value
	for {
		switch x := v.(type) {
		case Null:
			return out, true
		case *Pair:
			out = append(out, x.Car)
			v = x.Cdr
		default:
			return out, false
		}
	}
}

// SliceToList builds a proper list Value from a Go slice.
func SliceToList(vs []Value) Value {
	return listFromSlice(vs)
}

func listFromSlice(vs []Value) Value {
	var result Value = Null{}
	for i := len(vs) - 1; i >= 0; i-- {
		result = &Pair{Car: vs[i], Cdr: result}
	}
	return result
}
