package builtins

import (
	"strconv"

	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

// Install interns every registered procedure's name through interner and
// defines it in env, giving a fresh global environment the full standard
// library in one call. internal/eval's stepApplying special-cases
// call/cc, apply, and force by Primitive.Name (see evaluator.go), so those
// three must be present under exactly those names for the trampoline to
// recognize them; Install registers them here like any other primitive.
func Install(interner *sym.Interner, env *runtime.Environment) {
	DefaultRegistry.Each(func(e *Entry) {
		id := interner.Intern(e.Name)
		env.Define(id, e.Primitive)
	})
	for _, alias := range []string{"call-with-current-continuation"} {
		id := interner.Intern(alias)
		env.Define(id, &runtime.Primitive{Name: "call/cc", MinArgs: 1, MaxArgs: 1})
	}
	env.Define(interner.Intern("current-output-port"), CurrentOutputPort)
	env.Define(interner.Intern("current-input-port"), CurrentInputPort)
	env.Define(interner.Intern("current-error-port"), CurrentOutputPort)
	installInternerBound(interner, env)
}

// installInternerBound defines the handful of procedures that must mint or
// look up symbols through this particular engine's interner
// (string->symbol, gensym) and so cannot live in the stateless
// DefaultRegistry, which is shared process-wide across every engine
// instance.
func installInternerBound(interner *sym.Interner, env *runtime.Environment) {
	gensymCounter := 0
	env.Define(interner.Intern("string->symbol"), &runtime.Primitive{
		Name: "string->symbol", MinArgs: 1, MaxArgs: 1,
		Fn: func(a []runtime.Value) (runtime.Value, error) {
			s, ok := a[0].(*runtime.String)
			if !ok {
				return nil, runtime.NewError("type-error", "string->symbol: not a string", a[0])
			}
			name := string(s.Runes)
			id := interner.Intern(name)
			return runtime.Symbol{ID: id, Name: name}, nil
		},
	})
	env.Define(interner.Intern("gensym"), &runtime.Primitive{
		Name: "gensym", MinArgs: 0, MaxArgs: 1,
		Fn: func(a []runtime.Value) (runtime.Value, error) {
			prefix := "g"
			if len(a) == 1 {
				if s, ok := a[0].(*runtime.String); ok {
					prefix = string(s.Runes)
				}
			}
			gensymCounter++
			name := prefix + strconv.Itoa(gensymCounter)
			id := interner.Intern(name)
			return runtime.Symbol{ID: id, Name: name}, nil
		},
	})
}
