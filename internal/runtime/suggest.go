package runtime

import (
	"github.com/xrash/smetrics"

	"github.com/go-scm/go-scm/internal/sym"
)

// suggestThreshold is the minimum Jaro-Winkler similarity a candidate name
// needs before it is worth surfacing in an unbound-variable message,
// matching the cutoff and common-prefix boost cobra's own "did you mean"
// command-suggestion feature uses.
const suggestThreshold = 0.7
const suggestPrefixSize = 4

// SuggestUnbound walks env's lexical chain looking for the bound identifier
// whose spelling is closest to name, for use in an unbound-variable
// condition's message. It returns "" if nothing clears suggestThreshold.
//
// This is a diagnostic nicety, not part of evaluation semantics: a typo'd
// reference like `(dispaly x)` still raises unbound-variable as always,
// just with a more useful message attached.
func SuggestUnbound(interner *sym.Interner, env *Environment, name string) string {
	if interner == nil || env == nil || name == "" {
		return ""
	}
	best := ""
	bestScore := suggestThreshold
	for e := env; e != nil; e = e.Outer() {
		e.Range(func(id sym.ID, _ Value) bool {
			candidate := interner.Name(id)
			if candidate == name {
				return true
			}
			score := smetrics.JaroWinkler(name, candidate, 0.7, suggestPrefixSize)
			if score > bestScore {
				bestScore = score
				best = candidate
			}
			return true
		})
	}
	return best
}
