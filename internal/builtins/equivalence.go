package builtins

import "github.com/go-scm/go-scm/internal/runtime"

func registerEquivalence(r *Registry) {
	r.register("eq?", CategoryEquivalence, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(runtime.Eq(a[0], a[1])), nil
	})
	r.register("eqv?", CategoryEquivalence, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(runtime.Eqv(a[0], a[1])), nil
	})
	r.register("equal?", CategoryEquivalence, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(runtime.Equal(a[0], a[1])), nil
	})
	r.register("not", CategoryEquivalence, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		return runtime.Boolean(!runtime.IsTruthy(a[0])), nil
	})
	r.register("boolean?", CategoryEquivalence, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(runtime.Boolean)
		return runtime.Boolean(ok), nil
	})
	r.register("boolean=?", CategoryEquivalence, 2, -1, func(a []runtime.Value) (runtime.Value, error) {
		first, ok := a[0].(runtime.Boolean)
		if !ok {
			return nil, runtime.NewError("type-error", "boolean=?: not a boolean", a[0])
		}
		for _, v := range a[1:] {
			b, ok := v.(runtime.Boolean)
			if !ok {
				return nil, runtime.NewError("type-error", "boolean=?: not a boolean", v)
			}
			if b != first {
				return runtime.Boolean(false), nil
			}
		}
		return runtime.Boolean(true), nil
	})
}
