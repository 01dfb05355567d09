package builtins

import (
	"unicode"

	"github.com/go-scm/go-scm/internal/runtime"
)

func asChar(v runtime.Value, who string) (runtime.Char, error) {
	c, ok := v.(runtime.Char)
	if !ok {
		return 0, runtime.NewError("type-error", who+": not a character", v)
	}
	return c, nil
}

func registerChars(r *Registry) {
	r.register("char?", CategoryChar, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(runtime.Char)
		return runtime.Boolean(ok), nil
	})
	r.register("char->integer", CategoryChar, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		c, err := asChar(a[0], "char->integer")
		if err != nil {
			return nil, err
		}
		return runtime.NewExactInt(int64(c)), nil
	})
	r.register("integer->char", CategoryChar, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "integer->char")
		if err != nil {
			return nil, err
		}
		return runtime.Char(rune(n.Int.Int64())), nil
	})

	cmp := func(name string, accept func(a, b rune) bool, foldCase bool) {
		r.register(name, CategoryChar, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
			chars := make([]rune, len(a))
			for i, v := range a {
				c, err := asChar(v, name)
				if err != nil {
					return nil, err
				}
				r := rune(c)
				if foldCase {
					r = unicode.ToLower(r)
				}
				chars[i] = r
			}
			for i := 0; i+1 < len(chars); i++ {
				if !accept(chars[i], chars[i+1]) {
					return runtime.Boolean(false), nil
				}
			}
			return runtime.Boolean(true), nil
		})
	}
	cmp("char=?", func(a, b rune) bool { return a == b }, false)
	cmp("char<?", func(a, b rune) bool { return a < b }, false)
	cmp("char>?", func(a, b rune) bool { return a > b }, false)
	cmp("char<=?", func(a, b rune) bool { return a <= b }, false)
	cmp("char>=?", func(a, b rune) bool { return a >= b }, false)
	cmp("char-ci=?", func(a, b rune) bool { return a == b }, true)
	cmp("char-ci<?", func(a, b rune) bool { return a < b }, true)
	cmp("char-ci>?", func(a, b rune) bool { return a > b }, true)
	cmp("char-ci<=?", func(a, b rune) bool { return a <= b }, true)
	cmp("char-ci>=?", func(a, b rune) bool { return a >= b }, true)

	pred := func(name string, f func(rune) bool) {
		r.register(name, CategoryChar, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
			c, err := asChar(a[0], name)
			if err != nil {
				return nil, err
			}
			return runtime.Boolean(f(rune(c))), nil
		})
	}
	pred("char-alphabetic?", unicode.IsLetter)
	pred("char-numeric?", unicode.IsDigit)
	pred("char-whitespace?", unicode.IsSpace)
	pred("char-upper-case?", unicode.IsUpper)
	pred("char-lower-case?", unicode.IsLower)

	r.register("digit-value", CategoryChar, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		c, err := asChar(a[0], "digit-value")
		if err != nil {
			return nil, err
		}
		if unicode.IsDigit(rune(c)) {
			return runtime.NewExactInt(int64(rune(c) - '0')), nil
		}
		return runtime.Boolean(false), nil
	})
	r.register("char-upcase", CategoryChar, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		c, err := asChar(a[0], "char-upcase")
		if err != nil {
			return nil, err
		}
		return runtime.Char(unicode.ToUpper(rune(c))), nil
	})
	r.register("char-downcase", CategoryChar, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		c, err := asChar(a[0], "char-downcase")
		if err != nil {
			return nil, err
		}
		return runtime.Char(unicode.ToLower(rune(c))), nil
	})
}
