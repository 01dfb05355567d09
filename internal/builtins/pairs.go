package builtins

import "github.com/go-scm/go-scm/internal/runtime"

func asPair(v runtime.Value, who string) (*runtime.Pair, error) {
	p, ok := v.(*runtime.Pair)
	if !ok {
		return nil, runtime.NewError("type-error", who+": not a pair", v)
	}
	return p, nil
}

func registerPairs(r *Registry) {
	r.register("cons", CategoryPair, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		return &runtime.Pair{Car: a[0], Cdr: a[1]}, nil
	})
	r.register("car", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, err := asPair(a[0], "car")
		if err != nil {
			return nil, err
		}
		return p.Car, nil
	})
	r.register("cdr", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		p, err := asPair(a[0], "cdr")
		if err != nil {
			return nil, err
		}
		return p.Cdr, nil
	})
	r.register("set-car!", CategoryPair, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		p, err := asPair(a[0], "set-car!")
		if err != nil {
			return nil, err
		}
		p.Car = a[1]
		return runtime.Unspecified{}, nil
	})
	r.register("set-cdr!", CategoryPair, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		p, err := asPair(a[0], "set-cdr!")
		if err != nil {
			return nil, err
		}
		p.Cdr = a[1]
		return runtime.Unspecified{}, nil
	})

	// caar/cadr/... through the four-deep combinations R7RS requires.
	for _, combo := range []string{
		"aa", "ad", "da", "dd",
		"aaa", "aad", "ada", "add", "daa", "dad", "dda", "ddd",
		"aaaa", "aaad", "aada", "aadd", "adaa", "adad", "adda", "addd",
		"daaa", "daad", "dada", "dadd", "ddaa", "ddad", "ddda", "dddd",
	} {
		ops := combo
		name := "c" + combo + "r"
		r.register(name, CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
			v := a[0]
			for i := len(ops) - 1; i >= 0; i-- {
				p, err := asPair(v, name)
				if err != nil {
					return nil, err
				}
				if ops[i] == 'a' {
					v = p.Car
				} else {
					v = p.Cdr
				}
			}
			return v, nil
		})
	}

	r.register("pair?", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.Pair)
		return runtime.Boolean(ok), nil
	})
	r.register("null?", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(runtime.Null)
		return runtime.Boolean(ok), nil
	})
	r.register("list?", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, proper := runtime.ListToSlice(a[0])
		return runtime.Boolean(proper), nil
	})
	r.register("list", CategoryPair, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		return runtime.SliceToList(a), nil
	})
	r.register("make-list", CategoryPair, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "make-list")
		if err != nil {
			return nil, err
		}
		var fill runtime.Value = runtime.Unspecified{}
		if len(a) == 2 {
			fill = a[1]
		}
		count := int(n.Int.Int64())
		items := make([]runtime.Value, count)
		for i := range items {
			items[i] = fill
		}
		return runtime.SliceToList(items), nil
	})
	r.register("length", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, proper := runtime.ListToSlice(a[0])
		if !proper {
			return nil, runtime.NewError("type-error", "length: not a proper list", a[0])
		}
		return runtime.NewExactInt(int64(len(s))), nil
	})
	r.register("append", CategoryPair, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		if len(a) == 0 {
			return runtime.Null{}, nil
		}
		var items []runtime.Value
		for _, l := range a[:len(a)-1] {
			s, proper := runtime.ListToSlice(l)
			if !proper {
				return nil, runtime.NewError("type-error", "append: not a proper list", l)
			}
			items = append(items, s...)
		}
		result := a[len(a)-1]
		for i := len(items) - 1; i >= 0; i-- {
			result = &runtime.Pair{Car: items[i], Cdr: result}
		}
		return result, nil
	})
	r.register("reverse", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, proper := runtime.ListToSlice(a[0])
		if !proper {
			return nil, runtime.NewError("type-error", "reverse: not a proper list", a[0])
		}
		out := make([]runtime.Value, len(s))
		for i, v := range s {
			out[len(s)-1-i] = v
		}
		return runtime.SliceToList(out), nil
	})
	r.register("list-tail", CategoryPair, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[1], "list-tail")
		if err != nil {
			return nil, err
		}
		v := a[0]
		for i := int64(0); i < n.Int.Int64(); i++ {
			p, err := asPair(v, "list-tail")
			if err != nil {
				return nil, err
			}
			v = p.Cdr
		}
		return v, nil
	})
	r.register("list-ref", CategoryPair, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[1], "list-ref")
		if err != nil {
			return nil, err
		}
		v := a[0]
		for i := int64(0); i < n.Int.Int64(); i++ {
			p, err := asPair(v, "list-ref")
			if err != nil {
				return nil, err
			}
			v = p.Cdr
		}
		p, err := asPair(v, "list-ref")
		if err != nil {
			return nil, err
		}
		return p.Car, nil
	})
	r.register("list-set!", CategoryPair, 3, 3, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[1], "list-set!")
		if err != nil {
			return nil, err
		}
		v := a[0]
		for i := int64(0); i < n.Int.Int64(); i++ {
			p, err := asPair(v, "list-set!")
			if err != nil {
				return nil, err
			}
			v = p.Cdr
		}
		p, err := asPair(v, "list-set!")
		if err != nil {
			return nil, err
		}
		p.Car = a[2]
		return runtime.Unspecified{}, nil
	})
	r.register("list-copy", CategoryPair, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, proper := runtime.ListToSlice(a[0])
		if !proper {
			return a[0], nil
		}
		return runtime.SliceToList(s), nil
	})

	memberBy := func(name string, eq func(a, b runtime.Value) bool) {
		r.register(name, CategoryPair, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
			obj, v := a[0], a[1]
			for {
				p, ok := v.(*runtime.Pair)
				if !ok {
					return runtime.Boolean(false), nil
				}
				if eq(obj, p.Car) {
					return p, nil
				}
				v = p.Cdr
			}
		})
	}
	memberBy("memq", runtime.Eq)
	memberBy("memv", runtime.Eqv)
	memberBy("member", runtime.Equal)

	assocBy := func(name string, eq func(a, b runtime.Value) bool) {
		r.register(name, CategoryPair, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
			obj, v := a[0], a[1]
			for {
				p, ok := v.(*runtime.Pair)
				if !ok {
					return runtime.Boolean(false), nil
				}
				entry, ok := p.Car.(*runtime.Pair)
				if ok && eq(obj, entry.Car) {
					return entry, nil
				}
				v = p.Cdr
			}
		})
	}
	assocBy("assq", runtime.Eq)
	assocBy("assv", runtime.Eqv)
	assocBy("assoc", runtime.Equal)

	// map/for-each apply a procedure argument themselves, so they are
	// registered here only to make them visible/bound; internal/eval
	// recognizes these two names and supplies the real implementation
	// (see internal/eval/higher_order.go), the same split used for
	// call/cc, apply, and force.
	r.register("map", CategoryPair, 2, -1, nil)
	r.register("for-each", CategoryPair, 2, -1, nil)
}
