package builtins

import "github.com/go-scm/go-scm/internal/runtime"

// registerErrors covers the condition-inspection procedures. raise,
// raise-continuable, guard, and with-exception-handler are handled
// elsewhere: the first two are ordinary applications of the "raise" and
// "raise-continuable" builtins registered in control.go, the latter two are
// dedicated AST special forms (internal/macro/expander.go), since both need
// to install a handler around evaluation of their body rather than just
// produce a value.
func registerErrors(r *Registry) {
	r.register("error", CategoryError, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
		msg, err := asString(a[0], "error")
		if err != nil {
			return nil, err
		}
		irritants := make([]runtime.Value, len(a)-1)
		copy(irritants, a[1:])
		return nil, runtime.Raise(runtime.NewError("user-error", string(msg.Runes), irritants...))
	})
	r.register("error-object?", CategoryError, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.ErrorObject)
		return runtime.Boolean(ok), nil
	})
	r.register("error-object-message", CategoryError, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		eo, ok := a[0].(*runtime.ErrorObject)
		if !ok {
			return nil, runtime.NewError("type-error", "error-object-message: not an error object", a[0])
		}
		return &runtime.String{Runes: []rune(eo.Message)}, nil
	})
	r.register("error-object-irritants", CategoryError, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		eo, ok := a[0].(*runtime.ErrorObject)
		if !ok {
			return nil, runtime.NewError("type-error", "error-object-irritants: not an error object", a[0])
		}
		return runtime.SliceToList(eo.Irritants), nil
	})
	r.register("read-error?", CategoryError, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		eo, ok := a[0].(*runtime.ErrorObject)
		return runtime.Boolean(ok && eo.Kind == "read-error"), nil
	})
	r.register("file-error?", CategoryError, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		eo, ok := a[0].(*runtime.ErrorObject)
		return runtime.Boolean(ok && eo.Kind == "file-error"), nil
	})
}
