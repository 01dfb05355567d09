package builtins

import "github.com/go-scm/go-scm/internal/runtime"

func registerSymbols(r *Registry) {
	r.register("symbol?", CategorySymbol, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(runtime.Symbol)
		return runtime.Boolean(ok), nil
	})
	r.register("symbol->string", CategorySymbol, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, ok := a[0].(runtime.Symbol)
		if !ok {
			return nil, runtime.NewError("type-error", "symbol->string: not a symbol", a[0])
		}
		return &runtime.String{Runes: []rune(s.Name)}, nil
	})
	r.register("symbol=?", CategorySymbol, 2, -1, func(a []runtime.Value) (runtime.Value, error) {
		first, ok := a[0].(runtime.Symbol)
		if !ok {
			return nil, runtime.NewError("type-error", "symbol=?: not a symbol", a[0])
		}
		for _, v := range a[1:] {
			s, ok := v.(runtime.Symbol)
			if !ok || s.ID != first.ID {
				return runtime.Boolean(false), nil
			}
		}
		return runtime.Boolean(true), nil
	})
}
