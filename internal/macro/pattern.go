// Package macro implements syntax-rules pattern matching and hygienic
// expansion, plus the special-form recognition pass that turns a
// reader-produced Datum into a classified ast.Expr. A compiled macro's
// pattern, template, and definition environment are kept together as a
// Transformer, with the definition environment shared through a
// *SyntaxEnv pointer chain mirroring internal/runtime.Environment's
// shape.
package macro

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

// MatchValue is either a single matched Datum (pattern variable matched
// once) or a []MatchValue (pattern variable under one or more ellipses).
type MatchValue interface{}

// Bindings maps pattern variable symbol IDs to what they matched.
type Bindings map[sym.ID]MatchValue

// matchPattern attempts to match input against pattern, given the set of
// literal identifiers that must match themselves rather than bind.
func matchPattern(pattern, input ast.Datum, literals map[sym.ID]bool, ellipsis string, in *sym.Interner) (Bindings, bool) {
	b := Bindings{}
	if matchInto(pattern, input, literals, ellipsis, in, b) {
		return b, true
	}
	return nil, false
}

func matchInto(pattern, input ast.Datum, literals map[sym.ID]bool, ellipsis string, in *sym.Interner, b Bindings) bool {
	switch p := pattern.(type) {
	case ast.DSymbol:
		if p.Name == "_" {
			return true
		}
		if literals[p.ID] {
			s, ok := input.(ast.DSymbol)
			return ok && s.Name == p.Name
		}
		b[p.ID] = input
		return true
	case ast.DNull:
		_, ok := input.(ast.DNull)
		return ok
	case *ast.DPair:
		return matchList(p, input, literals, ellipsis, in, b)
	case *ast.DVector:
		iv, ok := input.(*ast.DVector)
		if !ok {
			return false
		}
		return matchSeq(p.Items, iv.Items, literals, ellipsis, in, b)
	default:
		return datumEqual(pattern, input)
	}
}

// matchList handles proper/improper list patterns including a single
// ellipsis-repeated subpattern at any position in the head sequence.
func matchList(pattern *ast.DPair, input ast.Datum, literals map[sym.ID]bool, ellipsis string, in *sym.Interner, b Bindings) bool {
	pitems, ptail := flatten(pattern)
	iitems, itail := flatten(input)

	ellipsisAt := -1
	for i := range pitems {
		if i+1 < len(pitems) {
			if s, ok := pitems[i+1].(ast.DSymbol); ok && s.Name == ellipsis {
				ellipsisAt = i
				break
			}
		}
	}

	if ellipsisAt == -1 {
		if len(pitems) != len(iitems) {
			return false
		}
		for i := range pitems {
			if !matchInto(pitems[i], iitems[i], literals, ellipsis, in, b) {
				return false
			}
		}
		return matchInto(ptail, itail, literals, ellipsis, in, b)
	}

	before := pitems[:ellipsisAt]
	repeated := pitems[ellipsisAt]
	after := pitems[ellipsisAt+2:]

	if len(iitems) < len(before)+len(after) {
		return false
	}
	for i, p := range before {
		if !matchInto(p, iitems[i], literals, ellipsis, in, b) {
			return false
		}
	}
	nRepeat := len(iitems) - len(before) - len(after)
	vars := patternVars(repeated, literals)
	groups := make(map[sym.ID][]MatchValue, len(vars))
	for _, v := range vars {
		groups[v] = []MatchValue{}
	}
	for i := 0; i < nRepeat; i++ {
		sub := Bindings{}
		if !matchInto(repeated, iitems[len(before)+i], literals, ellipsis, in, sub) {
			return false
		}
		for _, v := range vars {
			groups[v] = append(groups[v], sub[v])
		}
	}
	for _, v := range vars {
		b[v] = groups[v]
	}
	for i, p := range after {
		if !matchInto(p, iitems[len(before)+nRepeat+i], literals, ellipsis, in, b) {
			return false
		}
	}
	return matchInto(ptail, itail, literals, ellipsis, in, b)
}

func matchSeq(pitems, iitems []ast.Datum, literals map[sym.ID]bool, ellipsis string, in *sym.Interner, b Bindings) bool {
	if len(pitems) != len(iitems) {
		return false
	}
	for i := range pitems {
		if !matchInto(pitems[i], iitems[i], literals, ellipsis, in, b) {
			return false
		}
	}
	return true
}

// patternVars collects every non-literal identifier bound by pattern
// (recursively), used to know which bindings an ellipsis group produces.
func patternVars(pattern ast.Datum, literals map[sym.ID]bool) []sym.ID {
	var out []sym.ID
	var walk func(ast.Datum)
	walk = func(d ast.Datum) {
		switch v := d.(type) {
		case ast.DSymbol:
			if v.Name != "_" && v.Name != "..." && !literals[v.ID] {
				out = append(out, v.ID)
			}
		case *ast.DPair:
			walk(v.Car)
			walk(v.Cdr)
		case *ast.DVector:
			for _, it := range v.Items {
				walk(it)
			}
		}
	}
	walk(pattern)
	return out
}

// flatten decomposes a (possibly improper) list Datum into its elements and
// final tail (DNull{} for a proper list). Non-pair/non-null data (an atom
// used as a whole pattern) returns itself as the tail with no elements.
func flatten(d ast.Datum) ([]ast.Datum, ast.Datum) {
	var items []ast.Datum
	for {
		switch v := d.(type) {
		case *ast.DPair:
			items = append(items, v.Car)
			d = v.Cdr
		default:
			return items, d
		}
	}
}

func datumEqual(a, b ast.Datum) bool {
	switch av := a.(type) {
	case ast.DBool:
		bv, ok := b.(ast.DBool)
		return ok && av.Value == bv.Value
	case ast.DChar:
		bv, ok := b.(ast.DChar)
		return ok && av.Value == bv.Value
	case ast.DString:
		bv, ok := b.(ast.DString)
		return ok && av.Value == bv.Value
	case ast.DInt:
		bv, ok := b.(ast.DInt)
		return ok && av.Value.Cmp(bv.Value) == 0
	case ast.DRat:
		bv, ok := b.(ast.DRat)
		return ok && av.Value.Cmp(bv.Value) == 0
	case ast.DReal:
		bv, ok := b.(ast.DReal)
		return ok && av.Value == bv.Value
	case ast.DNull:
		_, ok := b.(ast.DNull)
		return ok
	default:
		return false
	}
}
