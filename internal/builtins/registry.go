// Package builtins is the primitive procedure table: every R7RS-small
// procedure not expressible as a special form. A Registry of named entries
// grouped by Category is populated once at package init by one registerX
// function per category file, dispatched from RegisterAll; Install then
// binds every entry into an environment.
package builtins

import (
	"sort"
	"sync"

	"github.com/go-scm/go-scm/internal/runtime"
)

// Category groups related procedures for documentation/introspection.
type Category string

const (
	CategoryEquivalence Category = "equivalence"
	CategoryNumeric     Category = "numeric"
	CategoryPair        Category = "pair"
	CategorySymbol      Category = "symbol"
	CategoryChar        Category = "char"
	CategoryString      Category = "string"
	CategoryVector      Category = "vector"
	CategoryBytevector  Category = "bytevector"
	CategoryControl     Category = "control"
	CategoryError       Category = "error"
	CategoryIO          Category = "io"
)

// Entry holds one registered primitive plus its documentation metadata.
type Entry struct {
	Name      string
	Primitive *runtime.Primitive
	Category  Category
}

// Registry collects every primitive procedure this interpreter provides. It
// is populated once by RegisterAll and then only read, so the mutex guards
// against a host embedding goscm across multiple evaluator instances built
// concurrently.
type Registry struct {
	mu sync.RWMutex
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry, 256)}
}

func (r *Registry) register(name string, category Category, minArgs, maxArgs int, fn func([]runtime.Value) (runtime.Value, error)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[name] = &Entry{
		Name: name,
		Category: category,
		Primitive: &runtime.Primitive{
			Name: name,
			MinArgs: minArgs,
			MaxArgs: maxArgs,
			Fn: fn,
		},
	}
}

// Alias registers name as another name for an already-registered entry.
func (r *Registry) Alias(name, existing string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.entries[existing]; ok {
		r.entries[name] = e
	}
}

// Lookup finds a registered primitive by name.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Names returns every registered procedure name, sorted, for
// introspection/documentation tooling.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entries))
	for n := range r.entries {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Each calls f once per registered entry, in unspecified order.
func (r *Registry) Each(f func(*Entry)) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, e := range r.entries {
		f(e)
	}
}

// DefaultRegistry is populated once on package init with every standard
// procedure this interpreter provides.
var DefaultRegistry *Registry

func init() {
	DefaultRegistry = NewRegistry()
	RegisterAll(DefaultRegistry)
}

// RegisterAll wires every category's procedures into r. Split out from
// init so a host can fill a registry of its own; pkg/goscm's WithRegistry
// binds such a registry's entries on top of the default library.
func RegisterAll(r *Registry) {
	registerEquivalence(r)
	registerNumeric(r)
	registerPairs(r)
	registerSymbols(r)
	registerChars(r)
	registerStrings(r)
	registerVectors(r)
	registerBytevectors(r)
	registerControl(r)
	registerErrors(r)
	registerIO(r)
	registerConcurrency(r)
}
