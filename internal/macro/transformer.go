package macro

import (
	"fmt"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

// Transformer is a compiled syntax-rules macro: its pattern/template rules
// plus the lexical environment (DefEnv) it was defined in, for hygienic
// expansion.
type Transformer struct {
	Name     string
	Literals map[sym.ID]bool
	Ellipsis string
	Rules    []ast.SyntaxRule
	DefEnv   *SyntaxEnv
}

// NewTransformer compiles an ast.SyntaxRules payload (as produced by
// parsing a `(syntax-rules (lits...) (pattern template)...)` form) into a
// Transformer.
func NewTransformer(name string, sr ast.SyntaxRules, defEnv *SyntaxEnv) *Transformer {
	lits := make(map[sym.ID]bool, len(sr.Literals))
	for _, id := range sr.Literals {
		lits[id] = true
	}
	ellipsis := sr.Ellipsis
	if ellipsis == "" {
		ellipsis = "..."
	}
	return &Transformer{Name: name, Literals: lits, Ellipsis: ellipsis, Rules: sr.Rules, DefEnv: defEnv}
}

// Expand matches call against each rule in order and instantiates the first
// one that matches, renaming the template's own introduced binders with a
// mark unique to this expansion.
func (tr *Transformer) Expand(call ast.Datum, interner *sym.Interner, mark string) (ast.Datum, error) {
	for _, rule := range tr.Rules {
		b, ok := matchPattern(rule.Pattern, call, tr.Literals, tr.Ellipsis, interner)
		if !ok {
			continue
		}
		binders := collectBinders(rule.Template)
		for lit := range tr.Literals {
			delete(binders, lit)
		}
		rn := newRenamer(mark, interner, binders)
		return instantiate(rule.Template, b, tr.Ellipsis, rn)
	}
	return nil, fmt.Errorf("no matching syntax-rules clause for macro %s", tr.Name)
}
