package builtins

import "github.com/go-scm/go-scm/internal/runtime"

func asBytevector(v runtime.Value, who string) (*runtime.Bytevector, error) {
	b, ok := v.(*runtime.Bytevector)
	if !ok {
		return nil, runtime.NewError("type-error", who+": not a bytevector", v)
	}
	return b, nil
}

func registerBytevectors(r *Registry) {
	r.register("bytevector?", CategoryBytevector, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.Bytevector)
		return runtime.Boolean(ok), nil
	})
	r.register("make-bytevector", CategoryBytevector, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "make-bytevector")
		if err != nil {
			return nil, err
		}
		fill := byte(0)
		if len(a) == 2 {
			fn, err := asNumber(a[1], "make-bytevector")
			if err != nil {
				return nil, err
			}
			fill = byte(fn.Int.Int64())
		}
		bytes := make([]byte, n.Int.Int64())
		for i := range bytes {
			bytes[i] = fill
		}
		return &runtime.Bytevector{Bytes: bytes}, nil
	})
	r.register("bytevector", CategoryBytevector, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		bytes := make([]byte, len(a))
		for i, v := range a {
			n, err := asNumber(v, "bytevector")
			if err != nil {
				return nil, err
			}
			bytes[i] = byte(n.Int.Int64())
		}
		return &runtime.Bytevector{Bytes: bytes}, nil
	})
	r.register("bytevector-length", CategoryBytevector, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		b, err := asBytevector(a[0], "bytevector-length")
		if err != nil {
			return nil, err
		}
		return runtime.NewExactInt(int64(len(b.Bytes))), nil
	})
	r.register("bytevector-u8-ref", CategoryBytevector, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		b, err := asBytevector(a[0], "bytevector-u8-ref")
		if err != nil {
			return nil, err
		}
		n, err := asNumber(a[1], "bytevector-u8-ref")
		if err != nil {
			return nil, err
		}
		i := n.Int.Int64()
		if i < 0 || i >= int64(len(b.Bytes)) {
			return nil, runtime.NewError("index-out-of-range", "bytevector-u8-ref: index out of range", a[1])
		}
		return runtime.NewExactInt(int64(b.Bytes[i])), nil
	})
	r.register("bytevector-u8-set!", CategoryBytevector, 3, 3, func(a []runtime.Value) (runtime.Value, error) {
		b, err := asBytevector(a[0], "bytevector-u8-set!")
		if err != nil {
			return nil, err
		}
		n, err := asNumber(a[1], "bytevector-u8-set!")
		if err != nil {
			return nil, err
		}
		v, err := asNumber(a[2], "bytevector-u8-set!")
		if err != nil {
			return nil, err
		}
		i := n.Int.Int64()
		if i < 0 || i >= int64(len(b.Bytes)) {
			return nil, runtime.NewError("index-out-of-range", "bytevector-u8-set!: index out of range", a[1])
		}
		b.Bytes[i] = byte(v.Int.Int64())
		return runtime.Unspecified{}, nil
	})
	r.register("bytevector-copy", CategoryBytevector, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		b, err := asBytevector(a[0], "bytevector-copy")
		if err != nil {
			return nil, err
		}
		start, end := int64(0), int64(len(b.Bytes))
		if len(a) >= 2 {
			n, err := asNumber(a[1], "bytevector-copy")
			if err != nil {
				return nil, err
			}
			start = n.Int.Int64()
		}
		if len(a) == 3 {
			n, err := asNumber(a[2], "bytevector-copy")
			if err != nil {
				return nil, err
			}
			end = n.Int.Int64()
		}
		if start < 0 || end > int64(len(b.Bytes)) || start > end {
			return nil, runtime.NewError("index-out-of-range", "bytevector-copy: index out of range")
		}
		out := make([]byte, end-start)
		copy(out, b.Bytes[start:end])
		return &runtime.Bytevector{Bytes: out}, nil
	})
	r.register("bytevector-copy!", CategoryBytevector, 3, 5, func(a []runtime.Value) (runtime.Value, error) {
		to, err := asBytevector(a[0], "bytevector-copy!")
		if err != nil {
			return nil, err
		}
		at, err := asNumber(a[1], "bytevector-copy!")
		if err != nil {
			return nil, err
		}
		from, err := asBytevector(a[2], "bytevector-copy!")
		if err != nil {
			return nil, err
		}
		start, end := int64(0), int64(len(from.Bytes))
		if len(a) >= 4 {
			n, err := asNumber(a[3], "bytevector-copy!")
			if err != nil {
				return nil, err
			}
			start = n.Int.Int64()
		}
		if len(a) == 5 {
			n, err := asNumber(a[4], "bytevector-copy!")
			if err != nil {
				return nil, err
			}
			end = n.Int.Int64()
		}
		copy(to.Bytes[at.Int.Int64():], from.Bytes[start:end])
		return runtime.Unspecified{}, nil
	})
	r.register("bytevector-append", CategoryBytevector, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		var out []byte
		for _, v := range a {
			b, err := asBytevector(v, "bytevector-append")
			if err != nil {
				return nil, err
			}
			out = append(out, b.Bytes...)
		}
		return &runtime.Bytevector{Bytes: out}, nil
	})
	r.register("utf8->string", CategoryBytevector, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		b, err := asBytevector(a[0], "utf8->string")
		if err != nil {
			return nil, err
		}
		start, end := int64(0), int64(len(b.Bytes))
		if len(a) >= 2 {
			n, err := asNumber(a[1], "utf8->string")
			if err != nil {
				return nil, err
			}
			start = n.Int.Int64()
		}
		if len(a) == 3 {
			n, err := asNumber(a[2], "utf8->string")
			if err != nil {
				return nil, err
			}
			end = n.Int.Int64()
		}
		return &runtime.String{Runes: []rune(string(b.Bytes[start:end]))}, nil
	})
	r.register("string->utf8", CategoryBytevector, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string->utf8")
		if err != nil {
			return nil, err
		}
		runes, err := sliceBounds(s.Runes, a[1:], "string->utf8")
		if err != nil {
			return nil, err
		}
		return &runtime.Bytevector{Bytes: []byte(string(runes))}, nil
	})
}
