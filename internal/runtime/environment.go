// Package runtime holds the evaluator's data world: the Value tagged
// union, lexically-scoped Environments with mutable cells, and the
// numeric tower. internal/eval operates on these types; nothing here
// knows about Expr or the trampoline.
//
// Environment is a chained-scope shape (store + outer pointer, Get walks
// the chain, Define writes locally, Set walks to find the owning scope),
// keyed on sym.ID rather than a string map, since identifiers here are
// interned integers and R7RS identifiers are case-sensitive.
package runtime

import "github.com/go-scm/go-scm/internal/sym"

// Environment is a chain of lexical scopes. Each binding is a *cell so that
// closures sharing an Environment observe set! through the same storage
// rather than a copy.
type Environment struct {
	vars map[sym.ID]*cell
	outer *Environment
}

type cell struct {
	value Value
}

// NewEnvironment creates a root environment with no enclosing scope.
func NewEnvironment() *Environment {
	return &Environment{vars: make(map[sym.ID]*cell, 8)}
}

// NewEnclosedEnvironment creates a child scope of outer.
func NewEnclosedEnvironment(outer *Environment) *Environment {
	return &Environment{vars: make(map[sym.ID]*cell, 4), outer: outer}
}

// Outer returns the enclosing scope, or nil at the root.
func (e *Environment) Outer() *Environment { return e.outer }

// Get looks up id, searching outward through enclosing scopes.
func (e *Environment) Get(id sym.ID) (Value, bool) {
	for env := e; env != nil; env = env.outer {
		if c, ok := env.vars[id]; ok {
			return c.value, true
		}
	}
	return nil, false
}

// GetLocal looks up id only in this scope, without searching outward.
func (e *Environment) GetLocal(id sym.ID) (Value, bool) {
	if c, ok := e.vars[id]; ok {
		return c.value, true
	}
	return nil, false
}

// Define binds id to val in this scope, shadowing any outer binding and
// overwriting a prior local one.
func (e *Environment) Define(id sym.ID, val Value) {
	if c, ok := e.vars[id]; ok {
		c.value = val
		return
	}
	e.vars[id] = &cell{value: val}
}

// Set mutates an existing binding, searching outward for the scope that
// owns id. Reports false if id is unbound anywhere in the chain — callers
// surface that as an unbound-variable condition.
func (e *Environment) Set(id sym.ID, val Value) bool {
	for env := e; env != nil; env = env.outer {
		if c, ok := env.vars[id]; ok {
			c.value = val
			return true
		}
	}
	return false
}

// Has reports whether id is bound anywhere in the chain.
func (e *Environment) Has(id sym.ID) bool {
	_, ok := e.Get(id)
	return ok
}

// Range iterates over bindings local to this scope only, in unspecified
// order; used by internal/module to collect a module's exports and by
// SuggestUnbound to gather candidate names.
func (e *Environment) Range(f func(id sym.ID, v Value) bool) {
	for id, c := range e.vars {
		if !f(id, c.value) {
			return
		}
	}
}
