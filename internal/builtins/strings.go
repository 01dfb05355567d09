package builtins

import (
	"strings"
	"unicode"

	"github.com/go-scm/go-scm/internal/runtime"
)

func asString(v runtime.Value, who string) (*runtime.String, error) {
	s, ok := v.(*runtime.String)
	if !ok {
		return nil, runtime.NewError("type-error", who+": not a string", v)
	}
	return s, nil
}

func registerStrings(r *Registry) {
	r.register("string?", CategoryString, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.String)
		return runtime.Boolean(ok), nil
	})
	r.register("make-string", CategoryString, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "make-string")
		if err != nil {
			return nil, err
		}
		fill := ' '
		if len(a) == 2 {
			c, err := asChar(a[1], "make-string")
			if err != nil {
				return nil, err
			}
			fill = rune(c)
		}
		runes := make([]rune, n.Int.Int64())
		for i := range runes {
			runes[i] = fill
		}
		return &runtime.String{Runes: runes}, nil
	})
	r.register("string", CategoryString, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		runes := make([]rune, len(a))
		for i, v := range a {
			c, err := asChar(v, "string")
			if err != nil {
				return nil, err
			}
			runes[i] = rune(c)
		}
		return &runtime.String{Runes: runes}, nil
	})
	r.register("string-length", CategoryString, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-length")
		if err != nil {
			return nil, err
		}
		return runtime.NewExactInt(int64(len(s.Runes))), nil
	})
	r.register("string-ref", CategoryString, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-ref")
		if err != nil {
			return nil, err
		}
		n, err := asNumber(a[1], "string-ref")
		if err != nil {
			return nil, err
		}
		i := n.Int.Int64()
		if i < 0 || i >= int64(len(s.Runes)) {
			return nil, runtime.NewError("index-out-of-range", "string-ref: index out of range", a[1])
		}
		return runtime.Char(s.Runes[i]), nil
	})
	r.register("string-set!", CategoryString, 3, 3, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-set!")
		if err != nil {
			return nil, err
		}
		n, err := asNumber(a[1], "string-set!")
		if err != nil {
			return nil, err
		}
		c, err := asChar(a[2], "string-set!")
		if err != nil {
			return nil, err
		}
		i := n.Int.Int64()
		if i < 0 || i >= int64(len(s.Runes)) {
			return nil, runtime.NewError("index-out-of-range", "string-set!: index out of range", a[1])
		}
		s.Runes[i] = rune(c)
		return runtime.Unspecified{}, nil
	})

	cmp := func(name string, accept func(c int) bool, foldCase bool) {
		r.register(name, CategoryString, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
			strs := make([]string, len(a))
			for i, v := range a {
				s, err := asString(v, name)
				if err != nil {
					return nil, err
				}
				str := string(s.Runes)
				if foldCase {
					str = strings.ToLower(str)
				}
				strs[i] = str
			}
			for i := 0; i+1 < len(strs); i++ {
				if !accept(strings.Compare(strs[i], strs[i+1])) {
					return runtime.Boolean(false), nil
				}
			}
			return runtime.Boolean(true), nil
		})
	}
	cmp("string=?", func(c int) bool { return c == 0 }, false)
	cmp("string<?", func(c int) bool { return c < 0 }, false)
	cmp("string>?", func(c int) bool { return c > 0 }, false)
	cmp("string<=?", func(c int) bool { return c <= 0 }, false)
	cmp("string>=?", func(c int) bool { return c >= 0 }, false)
	cmp("string-ci=?", func(c int) bool { return c == 0 }, true)
	cmp("string-ci<?", func(c int) bool { return c < 0 }, true)
	cmp("string-ci>?", func(c int) bool { return c > 0 }, true)
	cmp("string-ci<=?", func(c int) bool { return c <= 0 }, true)
	cmp("string-ci>=?", func(c int) bool { return c >= 0 }, true)

	r.register("substring", CategoryString, 2, 3, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "substring")
		if err != nil {
			return nil, err
		}
		start, err := asNumber(a[1], "substring")
		if err != nil {
			return nil, err
		}
		end := int64(len(s.Runes))
		if len(a) == 3 {
			n, err := asNumber(a[2], "substring")
			if err != nil {
				return nil, err
			}
			end = n.Int.Int64()
		}
		lo := start.Int.Int64()
		if lo < 0 || end > int64(len(s.Runes)) || lo > end {
			return nil, runtime.NewError("index-out-of-range", "substring: index out of range")
		}
		out := make([]rune, end-lo)
		copy(out, s.Runes[lo:end])
		return &runtime.String{Runes: out}, nil
	})
	r.register("string-append", CategoryString, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		var out []rune
		for _, v := range a {
			s, err := asString(v, "string-append")
			if err != nil {
				return nil, err
			}
			out = append(out, s.Runes...)
		}
		return &runtime.String{Runes: out}, nil
	})
	r.register("string->list", CategoryString, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string->list")
		if err != nil {
			return nil, err
		}
		runes, err := sliceBounds(s.Runes, a[1:], "string->list")
		if err != nil {
			return nil, err
		}
		items := make([]runtime.Value, len(runes))
		for i, c := range runes {
			items[i] = runtime.Char(c)
		}
		return runtime.SliceToList(items), nil
	})
	r.register("list->string", CategoryString, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		items, proper := runtime.ListToSlice(a[0])
		if !proper {
			return nil, runtime.NewError("type-error", "list->string: not a proper list", a[0])
		}
		runes := make([]rune, len(items))
		for i, v := range items {
			c, err := asChar(v, "list->string")
			if err != nil {
				return nil, err
			}
			runes[i] = rune(c)
		}
		return &runtime.String{Runes: runes}, nil
	})
	r.register("string-copy", CategoryString, 1, 3, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-copy")
		if err != nil {
			return nil, err
		}
		runes, err := sliceBounds(s.Runes, a[1:], "string-copy")
		if err != nil {
			return nil, err
		}
		out := make([]rune, len(runes))
		copy(out, runes)
		return &runtime.String{Runes: out}, nil
	})
	r.register("string-copy!", CategoryString, 3, 5, func(a []runtime.Value) (runtime.Value, error) {
		to, err := asString(a[0], "string-copy!")
		if err != nil {
			return nil, err
		}
		at, err := asNumber(a[1], "string-copy!")
		if err != nil {
			return nil, err
		}
		from, err := asString(a[2], "string-copy!")
		if err != nil {
			return nil, err
		}
		runes, err := sliceBounds(from.Runes, a[3:], "string-copy!")
		if err != nil {
			return nil, err
		}
		copy(to.Runes[at.Int.Int64():], runes)
		return runtime.Unspecified{}, nil
	})
	r.register("string-fill!", CategoryString, 2, 4, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-fill!")
		if err != nil {
			return nil, err
		}
		c, err := asChar(a[1], "string-fill!")
		if err != nil {
			return nil, err
		}
		start, end := int64(0), int64(len(s.Runes))
		if len(a) >= 3 {
			n, err := asNumber(a[2], "string-fill!")
			if err != nil {
				return nil, err
			}
			start = n.Int.Int64()
		}
		if len(a) == 4 {
			n, err := asNumber(a[3], "string-fill!")
			if err != nil {
				return nil, err
			}
			end = n.Int.Int64()
		}
		for i := start; i < end; i++ {
			s.Runes[i] = rune(c)
		}
		return runtime.Unspecified{}, nil
	})
	r.register("string-upcase", CategoryString, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-upcase")
		if err != nil {
			return nil, err
		}
		return &runtime.String{Runes: []rune(strings.ToUpper(string(s.Runes)))}, nil
	})
	r.register("string-downcase", CategoryString, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-downcase")
		if err != nil {
			return nil, err
		}
		return &runtime.String{Runes: []rune(strings.ToLower(string(s.Runes)))}, nil
	})
	r.register("string-reverse", CategoryString, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-reverse")
		if err != nil {
			return nil, err
		}
		out := make([]rune, len(s.Runes))
		for i, c := range s.Runes {
			out[len(out)-1-i] = c
		}
		return &runtime.String{Runes: out}, nil
	})
	r.register("string-contains?", CategoryString, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-contains?")
		if err != nil {
			return nil, err
		}
		needle, err := asString(a[1], "string-contains?")
		if err != nil {
			return nil, err
		}
		return runtime.Boolean(strings.Contains(string(s.Runes), string(needle.Runes))), nil
	})
	r.register("string-index", CategoryString, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-index")
		if err != nil {
			return nil, err
		}
		c, err := asChar(a[1], "string-index")
		if err != nil {
			return nil, err
		}
		for i, r := range s.Runes {
			if r == rune(c) {
				return runtime.NewExactInt(int64(i)), nil
			}
		}
		return runtime.Boolean(false), nil
	})
	r.register("string-split", CategoryString, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-split")
		if err != nil {
			return nil, err
		}
		sep, err := asString(a[1], "string-split")
		if err != nil {
			return nil, err
		}
		parts := strings.Split(string(s.Runes), string(sep.Runes))
		items := make([]runtime.Value, len(parts))
		for i, p := range parts {
			items[i] = &runtime.String{Runes: []rune(p)}
		}
		return runtime.SliceToList(items), nil
	})
	r.register("string-trim", CategoryString, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		s, err := asString(a[0], "string-trim")
		if err != nil {
			return nil, err
		}
		return &runtime.String{Runes: []rune(strings.TrimFunc(string(s.Runes), unicode.IsSpace))}, nil
	})
	// string-map/string-for-each apply a procedure argument themselves;
	// internal/eval supplies the real implementation (see
	// internal/eval/higher_order.go), the same split used for map/for-each.
	r.register("string-map", CategoryString, 2, -1, nil)
	r.register("string-for-each", CategoryString, 2, -1, nil)
}

// sliceBounds applies an optional (start [end]) pair of numeric args to a
// rune slice, the shared bounds-checking shape string->list/string-copy/
// string-copy! all need.
func sliceBounds(runes []rune, boundArgs []runtime.Value, who string) ([]rune, error) {
	start, end := int64(0), int64(len(runes))
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
	if start < 0 || end > int64(len(runes)) || start > end {
		return nil, runtime.NewError("index-out-of-range", who+": index out of range")
	}
	return runes[start:end], nil
}
