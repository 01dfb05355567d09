package macro

import (
	"fmt"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

// renamer produces one fresh, mark-qualified symbol per distinct
// template-introduced *binder* identifier for a single expansion, so every
// occurrence of the same introduced identifier inside one expansion
// resolves to the same fresh binding (the classic `(let ((t a)) (if t t
// b))` case from `or`), while two separate expansions of the same macro
// never collide, and free references the template makes to ordinary
// identifiers (`list`, `+`, a user's own top-level procedure) pass through
// completely unchanged because they were never collected into binders.
//
// binders is precomputed per matched rule by collectBinders, which
// recognizes the template's own let/let*/letrec/letrec*/lambda/do forms
// and collects the symbols they bind. This implements hygiene for
// identifiers the template itself introduces as bindings — the case that
// actually matters for correctness, since an unrenamed temporary can
// silently capture a use-site variable of the same name. It does not
// implement full reference hygiene against identifiers the *use site* has
// locally shadowed (a call site that rebinds `if` or `list` as a variable
// can still observe the template's `if`/`list` resolving to that
// shadowing binding rather than the macro definition's meaning) — a
// known, documented gap rather than full reference hygiene, which would
// require threading a definition-time environment through every
// free-identifier lookup in internal/eval.
type renamer struct {
	mark string
	interner *sym.Interner
	binders map[sym.ID]bool
	seen map[sym.ID]sym.ID
}

func newRenamer(mark string, interner *sym.Interner, binders map[sym.ID]bool) *renamer {
	return &renamer{mark: mark, interner: interner, binders: binders, seen: make(map[sym.ID]sym.ID)}
}

func (r *renamer) rename(id sym.ID, name string) sym.ID {
	if !r.binders[id] {
		return id
	}
	if fresh, ok := r.seen[id]; ok {
		return fresh
	}
	fresh := r.interner.Intern(fmt.Sprintf("%s\x00%s", name, r.mark))
	r.seen[id] = fresh
	return fresh
}

// letForms names the binding forms collectBinders recognizes structurally
// inside a template; case/cond/when/unless/etc. don't introduce bindings
// so they're left to the generic recursive walk.
var letForms = map[string]bool{"let": true, "let*": true, "letrec": true, "letrec*": true}

// collectBinders walks a syntax-rules template and collects the symbol IDs
// it introduces as bindings via let-family forms, lambda formals, or `do`
// loop variables, so the renamer can rename exactly those and nothing
// else.
func collectBinders(template ast.Datum) map[sym.ID]bool {
	binders := make(map[sym.ID]bool)
	var walk func(ast.Datum)
	walk = func(d ast.Datum) {
		pair, ok := d.(*ast.DPair)
		if !ok {
			if vec, ok := d.(*ast.DVector); ok {
				for _, it := range vec.Items {
					walk(it)
				}
			}
			return
		}
		if head, ok := pair.Car.(ast.DSymbol); ok {
			switch {
			case letForms[head.Name]:
				rest, ok := pair.Cdr.(*ast.DPair)
				if ok {
					bindingsForm := rest.Car
					if _, isSym := rest.Car.(ast.DSymbol); isSym {
						if next, ok := rest.Cdr.(*ast.DPair); ok {
							bindingsForm = next.Car
						}
					}
					items, _ := flatten(bindingsForm)
					for _, it := range items {
						if bp, ok := it.(*ast.DPair); ok {
							if s, ok := bp.Car.(ast.DSymbol); ok {
								binders[s.ID] = true
							}
						}
					}
				}
			case head.Name == "lambda":
				if rest, ok := pair.Cdr.(*ast.DPair); ok {
					collectFormalsBinders(rest.Car, binders)
				}
			case head.Name == "do":
				if rest, ok := pair.Cdr.(*ast.DPair); ok {
					items, _ := flatten(rest.Car)
					for _, it := range items {
						if bp, ok := it.(*ast.DPair); ok {
							if s, ok := bp.Car.(ast.DSymbol); ok {
								binders[s.ID] = true
							}
						}
					}
				}
			}
		}
		walk(pair.Car)
		walk(pair.Cdr)
	}
	walk(template)
	return binders
}

func collectFormalsBinders(d ast.Datum, binders map[sym.ID]bool) {
	switch v := d.(type) {
	case ast.DSymbol:
		binders[v.ID] = true
	case *ast.DPair:
		items, tail := flatten(v)
		for _, it := range items {
			if s, ok := it.(ast.DSymbol); ok {
				binders[s.ID] = true
			}
		}
		if s, ok := tail.(ast.DSymbol); ok {
			binders[s.ID] = true
		}
	}
}

// instantiate builds the output Datum from a template, substituting pattern
// variable bindings and renaming template-introduced identifiers via rn.
func instantiate(template ast.Datum, b Bindings, ellipsis string, rn *renamer) (ast.Datum, error) {
	switch t := template.(type) {
	case ast.DSymbol:
		if v, ok := b[t.ID]; ok {
			d, ok := v.(ast.Datum)
			if !ok {
				return nil, fmt.Errorf("pattern variable %s used without enough ellipses", t.Name)
			}
			return d, nil
		}
		fresh := rn.rename(t.ID, t.Name)
		return ast.DSymbol{ID: fresh, Name: rn.interner.Name(fresh)}, nil
	case ast.DNull:
		return t, nil
	case *ast.DPair:
		return instantiateList(t, b, ellipsis, rn)
	case *ast.DVector:
		items, err := instantiateSeq(t.Items, b, ellipsis, rn)
		if err != nil {
			return nil, err
		}
		return &ast.DVector{Items: items}, nil
	default:
		return template, nil
	}
}

func instantiateList(template *ast.DPair, b Bindings, ellipsis string, rn *renamer) (ast.Datum, error) {
	items, tail := flatten(template)
	out, err := instantiateSeq(items, b, ellipsis, rn)
	if err != nil {
		return nil, err
	}
	newTail, err := instantiate(tail, b, ellipsis, rn)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return newTail, nil
	}
	return ast.DatumListDotted(out, newTail), nil
}

func instantiateSeq(items []ast.Datum, b Bindings, ellipsis string, rn *renamer) ([]ast.Datum, error) {
	var out []ast.Datum
	for i := 0; i < len(items); i++ {
		t := items[i]
		if i+1 < len(items) {
			if s, ok := items[i+1].(ast.DSymbol); ok && s.Name == ellipsis {
				expanded, err := instantiateEllipsis(t, b, ellipsis, rn)
				if err != nil {
					return nil, err
				}
				out = append(out, expanded...)
				i++
				continue
			}
		}
		d, err := instantiate(t, b, ellipsis, rn)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// instantiateEllipsis expands `sub...` by finding the pattern variables
// referenced in sub that carry ellipsis-group bindings ([]MatchValue), and
// iterating them in lockstep. A sub with no ellipsis-bound variables at all
// is an error in strict R7RS; here it's treated as expanding to nothing,
// which is forgiving rather than strict but never silently wrong for
// well-formed templates.
func instantiateEllipsis(sub ast.Datum, b Bindings, ellipsis string, rn *renamer) ([]ast.Datum, error) {
	vars := templateVars(sub)
	n := -1
	for _, v := range vars {
		if group, ok := b[v].([]MatchValue); ok {
			if n == -1 {
				n = len(group)
			} else if len(group) != n {
				return nil, fmt.Errorf("mismatched ellipsis group lengths")
			}
		}
	}
	if n == -1 {
		return nil, nil
	}
	var out []ast.Datum
	for i := 0; i < n; i++ {
		sliced := Bindings{}
		for k, v := range b {
			if group, ok := v.([]MatchValue); ok {
				found := false
				for _, vv := range vars {
					if vv == k {
						found = true
						break
					}
				}
				if found {
					sliced[k] = group[i]
					continue
				}
			}
			sliced[k] = v
		}
		d, err := instantiate(sub, sliced, ellipsis, rn)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func templateVars(d ast.Datum) []sym.ID {
	var out []sym.ID
	var walk func(ast.Datum)
	walk = func(d ast.Datum) {
		switch v := d.(type) {
		case ast.DSymbol:
			out = append(out, v.ID)
		case *ast.DPair:
			walk(v.Car)
			walk(v.Cdr)
		case *ast.DVector:
			for _, it := range v.Items {
				walk(it)
			}
		}
	}
	walk(d)
	return out
}
