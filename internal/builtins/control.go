package builtins

import "github.com/go-scm/go-scm/internal/runtime"

// registerControl wires the handful of procedures internal/eval's
// stepApplying already special-cases by name (call/cc, apply, force) plus
// the ordinary procedures the expander leaves as applications rather than
// special forms: values, raise, raise-continuable, and the procedure
// predicates and parameter-object constructor.
func registerControl(r *Registry) {
	// call/cc, apply, and force are dispatched inside internal/eval because
	// only the evaluator can re-enter the trampoline to invoke a procedure
	// argument; these entries exist purely to bind the names (see
	// internal/eval/evaluator.go's stepApplying).
	r.register("call/cc", CategoryControl, 1, 1, nil)
	r.register("apply", CategoryControl, 2, -1, nil)
	r.register("force", CategoryControl, 1, 1, nil)

	r.register("values", CategoryControl, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		if len(a) == 1 {
			return a[0], nil
		}
		items := make([]runtime.Value, len(a))
		copy(items, a)
		return &runtime.Values{Items: items}, nil
	})

	r.register("raise", CategoryControl, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		return nil, runtime.Raise(a[0])
	})
	r.register("raise-continuable", CategoryControl, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		return nil, runtime.RaiseContinuable(a[0])
	})

	r.register("procedure?", CategoryControl, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		switch a[0].(type) {
		case *runtime.Primitive, *runtime.Closure, *runtime.Continuation, *runtime.CaseLambdaProc, *runtime.Parameter:
			return runtime.Boolean(true), nil
		default:
			return runtime.Boolean(false), nil
		}
	})

	// make-parameter needs to apply its optional converter to the initial
	// value, which (like map/for-each) requires re-entering the evaluator;
	// the real implementation lives in internal/eval/higher_order.go.
	r.register("make-parameter", CategoryControl, 1, 2, nil)
}
