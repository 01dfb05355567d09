package builtins

import "github.com/go-scm/go-scm/internal/runtime"

func asVector(v runtime.Value, who string) (*runtime.Vector, error) {
	vec, ok := v.(*runtime.Vector)
	if !ok {
		return nil, runtime.NewError("type-error", who+": not a vector", v)
	}
	return vec, nil
}

func registerVectors(r *Registry) {
	r.register("vector?", CategoryVector, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.Vector)
		return runtime.Boolean(ok), nil
	})
	r.register("make-vector", CategoryVector, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "make-vector")
		if err != nil {
			return nil, err
		}
		var fill runtime.Value = runtime.Unspecified{}
		if len(a) == 2 {
			fill = a[1]
		}
		items := make([]runtime.Value, n.Int.Int64())
		for i := range items {
			items[i] = fill
		}
		return &runtime.Vector{Items: items}, nil
	})
	r.register("vector", CategoryVector, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		items := make([]runtime.Value, len(a))
		copy(items, a)
		return &runtime.Vector{Items: items}, nil
	})
	r.register("vector-length", CategoryVector, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		v, err := asVector(a[0], "vector-length")
		if err != nil {
			return nil, err
		}
		return runtime.NewExactInt(int64(len(v.Items))), nil
	})
	r.register("vector-ref", CategoryVector, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		v, err := asVector(a[0], "vector-ref")
		if err != nil {
			return nil, err
		}
		n, err := asNumber(a[1], "vector-ref")
		if err != nil {
			return nil, err
		}
		i := n.Int.Int64()
		if i < 0 || i >= int64(len(v.Items)) {
			return nil, runtime.NewError("index-out-of-range", "vector-ref: index out of range", a[1])
		}
		return v.Items[i], nil
	})
	r.register("vector-set!", CategoryVector, 3, 3, func(a []runtime.Value) (runtime.Value, error) {
		v, err := asVector(a[0], "vector-set!")
		if err != nil {
			return nil, err
		}
		n, err := asNumber(a[1], "vector-set!")
		if err != nil {
			return nil, err
		}
		i := n.Int.Int64()
		if i < 0 || i >= int64(len(v.Items)) {
			return nil, runtime.NewError("index-out-of-range", "vector-set!: index out of range", a[1])
		}
		v.Items[i] = a[2]
		return runtime.Unspecified{}, nil
	})
	r.register("vector->list", CategoryVector, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		v, err := asVector(a[0], "vector->list")
		if err != nil {
			return nil, err
		}
		items, err := valueSliceBounds(v.Items, a[1:], "vector->list")
		if err != nil {
			return nil, err
		}
		return runtime.SliceToList(items), nil
	})
	r.register("list->vector", CategoryVector, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		items, proper := runtime.ListToSlice(a[0])
		if !proper {
			return nil, runtime.NewError("type-error", "list->vector: not a proper list", a[0])
		}
		out := make([]runtime.Value, len(items))
		copy(out, items)
		return &runtime.Vector{Items: out}, nil
	})
	r.register("vector-fill!", CategoryVector, 2, 4, func(a []runtime.Value) (runtime.Value, error) {
		v, err := asVector(a[0], "vector-fill!")
		if err != nil {
			return nil, err
		}
		start, end := int64(0), int64(len(v.Items))
		if len(a) >= 3 {
			n, err := asNumber(a[2], "vector-fill!")
			if err != nil {
				return nil, err
			}
			start = n.Int.Int64()
		}
		if len(a) == 4 {
			n, err := asNumber(a[3], "vector-fill!")
			if err != nil {
				return nil, err
			}
			end = n.Int.Int64()
		}
		for i := start; i < end; i++ {
			v.Items[i] = a[1]
		}
		return runtime.Unspecified{}, nil
	})
	r.register("vector-copy", CategoryVector, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		v, err := asVector(a[0], "vector-copy")
		if err != nil {
			return nil, err
		}
		items, err := valueSliceBounds(v.Items, a[1:], "vector-copy")
		if err != nil {
			return nil, err
		}
		out := make([]runtime.Value, len(items))
		copy(out, items)
		return &runtime.Vector{Items: out}, nil
	})
	r.register("vector-copy!", CategoryVector, 3, 5, func(a []runtime.Value) (runtime.Value, error) {
		to, err := asVector(a[0], "vector-copy!")
		if err != nil {
			return nil, err
		}
		at, err := asNumber(a[1], "vector-copy!")
		if err != nil {
			return nil, err
		}
		from, err := asVector(a[2], "vector-copy!")
		if err != nil {
			return nil, err
		}
		items, err := valueSliceBounds(from.Items, a[3:], "vector-copy!")
		if err != nil {
			return nil, err
		}
		copy(to.Items[at.Int.Int64():], items)
		return runtime.Unspecified{}, nil
	})
	r.register("vector-append", CategoryVector, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		var out []runtime.Value
		for _, v := range a {
			vec, err := asVector(v, "vector-append")
			if err != nil {
				return nil, err
			}
			out = append(out, vec.Items...)
		}
		return &runtime.Vector{Items: out}, nil
	})
	r.register("vector->string", CategoryVector, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		v, err := asVector(a[0], "vector->string")
		if err != nil {
			return nil, err
		}
		items, err := valueSliceBounds(v.Items, a[1:], "vector->string")
		if err != nil {
			return nil, err
		}
		runes := make([]rune, len(items))
		for i, it := range items {
			c, ok := it.(runtime.Char)
			if !ok {
				return nil, runtime.NewError("type-error", "vector->string: not a character", it)
			}
			runes[i] = rune(c)
		}
		return &runtime.String{Runes: runes}, nil
	})
	r.register("string->vector", CategoryVector, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string->vector")
		if err != nil {
			return nil, err
		}
		runes, err := sliceBounds(s.Runes, a[1:], "string->vector")
		if err != nil {
			return nil, err
		}
		items := make([]runtime.Value, len(runes))
		for i, c := range runes {
			items[i] = runtime.Char(c)
		}
		return &runtime.Vector{Items: items}, nil
	})

	// vector-map/vector-for-each apply a procedure argument themselves;
	// internal/eval supplies the real implementation, same split as
	// map/for-each.
	r.register("vector-map", CategoryVector, 2, -1, nil)
	r.register("vector-for-each", CategoryVector, 2, -1, nil)
}

func valueSliceBounds(items []runtime.Value, boundArgs []runtime.Value, who string) ([]runtime.Value, error) {
	start, end := int64(0), int64(len(items))
	if len(boundArgs) >= 1 {
		n, err := asNumber(boundArgs[0], who)
		if err != nil {
			return nil, err
		}
		start = n.Int.Int64()
	}
	if len(boundArgs) >= 2 {
		n, err := asNumber(boundArgs[1], who)
		if err != nil {
			return nil, err
		}
		end = n.Int.Int64()
	}
	if start < 0 || end > int64(len(items)) || start > end {
		return nil, runtime.NewError("index-out-of-range", who+": index out of range")
	}
	return items[start:end], nil
}
