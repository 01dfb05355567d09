package builtins

import (
	"math"
	"math/big"
	"strconv"

	"github.com/go-scm/go-scm/internal/runtime"
)

func asNumber(v runtime.Value, who string) (*runtime.Number, error) {
	n, ok := v.(*runtime.Number)
	if !ok {
		return nil, runtime.NewError("type-error", who+": not a number", v)
	}
	return n, nil
}

func registerNumeric(r *Registry) {
	r.register("+", CategoryNumeric, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		acc := runtime.NewExactInt(0)
		for _, v := range a {
			n, err := asNumber(v, "+")
			if err != nil {
				return nil, err
			}
			acc = runtime.Add(acc, n)
		}
		return acc, nil
	})
	r.register("*", CategoryNumeric, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		acc := runtime.NewExactInt(1)
		for _, v := range a {
			n, err := asNumber(v, "*")
			if err != nil {
				return nil, err
			}
			acc = runtime.Mul(acc, n)
		}
		return acc, nil
	})
	r.register("-", CategoryNumeric, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
		first, err := asNumber(a[0], "-")
		if err != nil {
			return nil, err
		}
		if len(a) == 1 {
			return runtime.Sub(runtime.NewExactInt(0), first), nil
		}
		acc := first
		for _, v := range a[1:] {
			n, err := asNumber(v, "-")
			if err != nil {
				return nil, err
			}
			acc = runtime.Sub(acc, n)
		}
		return acc, nil
	})
	r.register("/", CategoryNumeric, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
		first, err := asNumber(a[0], "/")
		if err != nil {
			return nil, err
		}
		if len(a) == 1 {
			return divNumbers(runtime.NewExactInt(1), first)
		}
		acc := first
		for _, v := range a[1:] {
			n, err := asNumber(v, "/")
			if err != nil {
				return nil, err
			}
			acc, err = divNumbers(acc, n)
			if err != nil {
				return nil, err
			}
		}
		return acc, nil
	})

	registerComparisons(r)
	registerIntegerDivision(r)
	registerPredicatesNumeric(r)
	registerTranscendental(r)
	registerConversions(r)
}

func divNumbers(a, b *runtime.Number) (runtime.Value, error) {
	v, err := runtime.Div(a, b)
	if err != nil {
		return nil, runtime.NewError("numeric-error", err.Error())
	}
	return v, nil
}

func registerComparisons(r *Registry) {
	cmp := func(name string, accept func(c int) bool) {
		r.register(name, CategoryNumeric, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
			nums := make([]*runtime.Number, len(a))
			for i, v := range a {
				n, err := asNumber(v, name)
				if err != nil {
					return nil, err
				}
				nums[i] = n
			}
			for i := 0; i+1 < len(nums); i++ {
				if nums[i].IsComplex() || nums[i+1].IsComplex() {
					return nil, runtime.NewError("type-error", name+": complex numbers are unordered")
				}
				c := runtime.Cmp(nums[i], nums[i+1])
				if !accept(c) {
					return runtime.Boolean(false), nil
				}
			}
			return runtime.Boolean(true), nil
		})
	}
	cmp("<", func(c int) bool { return c == -1 })
	cmp(">", func(c int) bool { return c == 1 })
	cmp("<=", func(c int) bool { return c == -1 || c == 0 })
	cmp(">=", func(c int) bool { return c == 1 || c == 0 })

	r.register("=", CategoryNumeric, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
		nums := make([]*runtime.Number, len(a))
		for i, v := range a {
			n, err := asNumber(v, "=")
			if err != nil {
				return nil, err
			}
			nums[i] = n
		}
		for i := 0; i+1 < len(nums); i++ {
			if !runtime.NumEqual(nums[i], nums[i+1]) {
				return runtime.Boolean(false), nil
			}
		}
		return runtime.Boolean(true), nil
	})

	minmax := func(name string, want int) {
		r.register(name, CategoryNumeric, 1, -1, func(a []runtime.Value) (runtime.Value, error) {
			best, err := asNumber(a[0], name)
			if err != nil {
				return nil, err
			}
			inexact := !best.Exact
			for _, v := range a[1:] {
				n, err := asNumber(v, name)
				if err != nil {
					return nil, err
				}
				if !n.Exact {
					inexact = true
				}
				if runtime.Cmp(n, best) == want {
					best = n
				}
			}
			if inexact && best.Exact {
				return runtime.NewInexactReal(best.AsFloat64()), nil
			}
			return best, nil
		})
	}
	minmax("min", -1)
	minmax("max", 1)
}

func registerIntegerDivision(r *Registry) {
	intArgs := func(who string, a []runtime.Value) (*big.Int, *big.Int, bool, error) {
		x, err := asNumber(a[0], who)
		if err != nil {
			return nil, nil, false, err
		}
		y, err := asNumber(a[1], who)
		if err != nil {
			return nil, nil, false, err
		}
		if !x.IsInteger() || !y.IsInteger() {
			return nil, nil, false, runtime.NewError("type-error", who+": not an integer")
		}
		exact := x.Exact && y.Exact
		xi := new(big.Int).Set(x.AsRat().Num())
		yi := new(big.Int).Set(y.AsRat().Num())
		if x.Kind != runtime.KindInteger {
			xi, _ = big.NewFloat(x.AsFloat64()).Int(nil)
		}
		if y.Kind != runtime.KindInteger {
			yi, _ = big.NewFloat(y.AsFloat64()).Int(nil)
		}
		if yi.Sign() == 0 {
			return nil, nil, false, runtime.NewError("numeric-error", who+": division by zero")
		}
		return xi, yi, exact, nil
	}
	wrap := func(i *big.Int, exact bool) runtime.Value {
		if exact {
			return runtime.NewExactBigInt(i)
		}
		f := new(big.Float).SetInt(i)
		v, _ := f.Float64()
		return runtime.NewInexactReal(v)
	}

	r.register("quotient", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("quotient", a)
		if err != nil {
			return nil, err
		}
		q := new(big.Int).Quo(x, y)
		return wrap(q, exact), nil
	})
	r.register("remainder", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("remainder", a)
		if err != nil {
			return nil, err
		}
		rem := new(big.Int).Rem(x, y)
		return wrap(rem, exact), nil
	})
	r.register("modulo", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("modulo", a)
		if err != nil {
			return nil, err
		}
		m := new(big.Int).Mod(x, y)
		if m.Sign() != 0 && y.Sign() < 0 {
			m.Add(m, y)
		}
		return wrap(m, exact), nil
	})
	r.register("floor/", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("floor/", a)
		if err != nil {
			return nil, err
		}
		q, m := new(big.Int).DivMod(x, y, new(big.Int))
		if y.Sign() < 0 && m.Sign() != 0 {
			q.Add(q, big.NewInt(1))
			m.Sub(m, y)
		}
		return &runtime.Values{Items: []runtime.Value{wrap(q, exact), wrap(m, exact)}}, nil
	})
	r.register("truncate/", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("truncate/", a)
		if err != nil {
			return nil, err
		}
		q := new(big.Int).Quo(x, y)
		m := new(big.Int).Rem(x, y)
		return &runtime.Values{Items: []runtime.Value{wrap(q, exact), wrap(m, exact)}}, nil
	})
	r.register("floor-quotient", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("floor-quotient", a)
		if err != nil {
			return nil, err
		}
		q, m := new(big.Int).DivMod(x, y, new(big.Int))
		if y.Sign() < 0 && m.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
		return wrap(q, exact), nil
	})
	r.register("floor-remainder", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("floor-remainder", a)
		if err != nil {
			return nil, err
		}
		m := new(big.Int).Mod(x, y)
		if m.Sign() != 0 && y.Sign() < 0 {
			m.Add(m, y)
		}
		return wrap(m, exact), nil
	})
	r.register("truncate-quotient", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("truncate-quotient", a)
		if err != nil {
			return nil, err
		}
		return wrap(new(big.Int).Quo(x, y), exact), nil
	})
	r.register("truncate-remainder", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		x, y, exact, err := intArgs("truncate-remainder", a)
		if err != nil {
			return nil, err
		}
		return wrap(new(big.Int).Rem(x, y), exact), nil
	})
	r.register("gcd", CategoryNumeric, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		acc := big.NewInt(0)
		for _, v := range a {
			n, err := asNumber(v, "gcd")
			if err != nil {
				return nil, err
			}
			i, _ := new(big.Float).SetFloat64(n.AsFloat64()).Int(nil)
			if n.Kind == runtime.KindInteger {
				i = n.Int
			}
			acc = new(big.Int).GCD(nil, nil, acc, new(big.Int).Abs(i))
		}
		return runtime.NewExactBigInt(acc), nil
	})
	r.register("lcm", CategoryNumeric, 0, -1, func(a []runtime.Value) (runtime.Value, error) {
		acc := big.NewInt(1)
		for _, v := range a {
			n, err := asNumber(v, "lcm")
			if err != nil {
				return nil, err
			}
			i := n.Int
			if n.Kind != runtime.KindInteger {
				i, _ = new(big.Float).SetFloat64(n.AsFloat64()).Int(nil)
			}
			i = new(big.Int).Abs(i)
			if i.Sign() == 0 {
				return runtime.NewExactInt(0), nil
			}
			g := new(big.Int).GCD(nil, nil, acc, i)
			acc = new(big.Int).Div(new(big.Int).Mul(acc, i), g)
		}
		return runtime.NewExactBigInt(acc), nil
	})
}

func registerPredicatesNumeric(r *Registry) {
	pred := func(name string, f func(*runtime.Number) bool) {
		r.register(name, CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
			n, ok := a[0].(*runtime.Number)
			if !ok {
				return runtime.Boolean(false), nil
			}
			return runtime.Boolean(f(n)), nil
		})
	}
	r.register("number?", CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		_, ok := a[0].(*runtime.Number)
		return runtime.Boolean(ok), nil
	})
	pred("complex?", func(*runtime.Number) bool { return true })
	pred("real?", func(n *runtime.Number) bool { return n.IsReal() })
	pred("rational?", func(n *runtime.Number) bool { return n.IsRational() })
	pred("integer?", func(n *runtime.Number) bool { return n.IsInteger() })
	pred("exact?", func(n *runtime.Number) bool { return n.Exact })
	pred("inexact?", func(n *runtime.Number) bool { return !n.Exact })
	pred("exact-integer?", func(n *runtime.Number) bool { return n.Exact && n.Kind == runtime.KindInteger })
	pred("exact-rational?", func(n *runtime.Number) bool { return n.Exact })
	pred("nan?", func(n *runtime.Number) bool { return !n.IsComplex() && math.IsNaN(n.AsFloat64()) })
	pred("infinite?", func(n *runtime.Number) bool { return !n.IsComplex() && math.IsInf(n.AsFloat64(), 0) })
	pred("finite?", func(n *runtime.Number) bool {
		return n.IsComplex() || (!math.IsNaN(n.AsFloat64()) && !math.IsInf(n.AsFloat64(), 0))
	})
	pred("zero?", func(n *runtime.Number) bool {
		if n.IsComplex() {
			return n.AsComplex128() == 0
		}
		return runtime.Cmp(n, runtime.NewExactInt(0)) == 0
	})
	pred("positive?", func(n *runtime.Number) bool { return runtime.Cmp(n, runtime.NewExactInt(0)) == 1 })
	pred("negative?", func(n *runtime.Number) bool { return runtime.Cmp(n, runtime.NewExactInt(0)) == -1 })
	pred("odd?", func(n *runtime.Number) bool {
		i, _ := new(big.Float).SetFloat64(n.AsFloat64()).Int(nil)
		if n.Kind == runtime.KindInteger {
			i = n.Int
		}
		return i.Bit(0) == 1
	})
	pred("even?", func(n *runtime.Number) bool {
		i, _ := new(big.Float).SetFloat64(n.AsFloat64()).Int(nil)
		if n.Kind == runtime.KindInteger {
			i = n.Int
		}
		return i.Bit(0) == 0
	})
}

func registerTranscendental(r *Registry) {
	unary := func(name string, f func(float64) float64) {
		r.register(name, CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
			n, err := asNumber(a[0], name)
			if err != nil {
				return nil, err
			}
			return runtime.NewInexactReal(f(n.AsFloat64())), nil
		})
	}
	unary("sin", math.Sin)
	unary("cos", math.Cos)
	unary("tan", math.Tan)
	unary("asin", math.Asin)
	unary("acos", math.Acos)
	unary("exp", math.Exp)

	r.register("log", CategoryNumeric, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "log")
		if err != nil {
			return nil, err
		}
		if len(a) == 2 {
			base, err := asNumber(a[1], "log")
			if err != nil {
				return nil, err
			}
			return runtime.NewInexactReal(math.Log(n.AsFloat64()) / math.Log(base.AsFloat64())), nil
		}
		return runtime.NewInexactReal(math.Log(n.AsFloat64())), nil
	})
	r.register("atan", CategoryNumeric, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		y, err := asNumber(a[0], "atan")
		if err != nil {
			return nil, err
		}
		if len(a) == 2 {
			x, err := asNumber(a[1], "atan")
			if err != nil {
				return nil, err
			}
			return runtime.NewInexactReal(math.Atan2(y.AsFloat64(), x.AsFloat64())), nil
		}
		return runtime.NewInexactReal(math.Atan(y.AsFloat64())), nil
	})

	roundOp := func(name string, f func(float64) float64, intF func(*big.Rat) *big.Int) {
		r.register(name, CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
			n, err := asNumber(a[0], name)
			if err != nil {
				return nil, err
			}
			if n.Kind == runtime.KindInteger {
				return n, nil
			}
			if n.Exact {
				return runtime.NewExactBigInt(intF(n.AsRat())), nil
			}
			return runtime.NewInexactReal(f(n.AsFloat64())), nil
		})
	}
	roundOp("floor", math.Floor, func(rat *big.Rat) *big.Int {
		q := new(big.Int)
		m := new(big.Int)
		q.DivMod(rat.Num(), rat.Denom(), m)
		return q
	})
	roundOp("ceiling", math.Ceil, func(rat *big.Rat) *big.Int {
		q := new(big.Int)
		m := new(big.Int)
		q.DivMod(rat.Num(), rat.Denom(), m)
		if m.Sign() != 0 {
			q.Add(q, big.NewInt(1))
		}
		return q
	})
	roundOp("truncate", math.Trunc, func(rat *big.Rat) *big.Int {
		return new(big.Int).Quo(rat.Num(), rat.Denom())
	})
	roundOp("round", math.RoundToEven, func(rat *big.Rat) *big.Int {
		f, _ := rat.Float64()
		return big.NewInt(int64(math.RoundToEven(f)))
	})

	r.register("abs", CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "abs")
		if err != nil {
			return nil, err
		}
		if runtime.Cmp(n, runtime.NewExactInt(0)) != -1 {
			return n, nil
		}
		return runtime.Sub(runtime.NewExactInt(0), n), nil
	})
	r.register("square", CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "square")
		if err != nil {
			return nil, err
		}
		return runtime.Mul(n, n), nil
	})
	r.register("sqrt", CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "sqrt")
		if err != nil {
			return nil, err
		}
		if n.Exact && n.Kind == runtime.KindInteger && n.Int.Sign() >= 0 {
			root := new(big.Int).Sqrt(n.Int)
			if new(big.Int).Mul(root, root).Cmp(n.Int) == 0 {
				return runtime.NewExactBigInt(root), nil
			}
		}
		f := n.AsFloat64()
		if f < 0 {
			return runtime.NewComplex(complex(0, math.Sqrt(-f))), nil
		}
		return runtime.NewInexactReal(math.Sqrt(f)), nil
	})
	r.register("exact-integer-sqrt", CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "exact-integer-sqrt")
		if err != nil {
			return nil, err
		}
		root := new(big.Int).Sqrt(n.Int)
		rem := new(big.Int).Sub(n.Int, new(big.Int).Mul(root, root))
		return &runtime.Values{Items: []runtime.Value{runtime.NewExactBigInt(root), runtime.NewExactBigInt(rem)}}, nil
	})
	r.register("expt", CategoryNumeric, 2, 2, func(a []runtime.Value) (runtime.Value, error) {
		base, err := asNumber(a[0], "expt")
		if err != nil {
			return nil, err
		}
		exp, err := asNumber(a[1], "expt")
		if err != nil {
			return nil, err
		}
		if base.Exact && exp.Exact && exp.Kind == runtime.KindInteger {
			if exp.Int.Sign() >= 0 && exp.Int.IsInt64() {
				result := runtime.NewExactInt(1)
				for i := int64(0); i < exp.Int.Int64(); i++ {
					result = runtime.Mul(result, base)
				}
				return result, nil
			}
			if exp.Int.IsInt64() {
				result := runtime.NewExactInt(1)
				for i := int64(0); i < -exp.Int.Int64(); i++ {
					result = runtime.Mul(result, base)
				}
				return divNumbers(runtime.NewExactInt(1), result)
			}
		}
		return runtime.NewInexactReal(math.Pow(base.AsFloat64(), exp.AsFloat64())), nil
	})
	r.register("numerator", CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "numerator")
		if err != nil {
			return nil, err
		}
		if !n.Exact {
			rat := new(big.Rat).SetFloat64(n.AsFloat64())
			f := new(big.Float).SetInt(rat.Num())
			v, _ := f.Float64()
			return runtime.NewInexactReal(v), nil
		}
		return runtime.NewExactBigInt(new(big.Int).Set(n.AsRat().Num())), nil
	})
	r.register("denominator", CategoryNumeric, 1, 1, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "denominator")
		if err != nil {
			return nil, err
		}
		if !n.Exact {
			rat := new(big.Rat).SetFloat64(n.AsFloat64())
			f := new(big.Float).SetInt(rat.Denom())
			v, _ := f.Float64()
			return runtime.NewInexactReal(v), nil
		}
		return runtime.NewExactBigInt(new(big.Int).Set(n.AsRat().Denom())), nil
	})
}

func registerConversions(r *Registry) {
	r.register("exact", CategoryNumeric, 1, 1, toExact)
	r.register("inexact->exact", CategoryNumeric, 1, 1, toExact)
	r.register("inexact", CategoryNumeric, 1, 1, toInexact)
	r.register("exact->inexact", CategoryNumeric, 1, 1, toInexact)

	r.register("number->string", CategoryNumeric, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		n, err := asNumber(a[0], "number->string")
		if err != nil {
			return nil, err
		}
		radix := 10
		if len(a) == 2 {
			rn, err := asNumber(a[1], "number->string")
			if err != nil {
				return nil, err
			}
			radix = int(rn.Int.Int64())
		}
		var s string
		if n.Exact && n.Kind == runtime.KindInteger {
			s = n.Int.Text(radix)
		} else if n.Exact && n.Kind == runtime.KindRational {
			s = n.Rat.Num().Text(radix) + "/" + n.Rat.Denom().Text(radix)
		} else {
			s = strconv.FormatFloat(n.AsFloat64(), 'g', -1, 64)
		}
		return &runtime.String{Runes: []rune(s)}, nil
	})
	r.register("string->number", CategoryNumeric, 1, 2, func(a []runtime.Value) (runtime.Value, error) {
		s, ok := a[0].(*runtime.String)
		if !ok {
			return nil, runtime.NewError("type-error", "string->number: not a string", a[0])
		}
		radix := 10
		if len(a) == 2 {
			rn, err := asNumber(a[1], "string->number")
			if err != nil {
				return nil, err
			}
			radix = int(rn.Int.Int64())
		}
		text := string(s.Runes)
		if i, ok := new(big.Int).SetString(text, radix); ok {
			return runtime.NewExactBigInt(i), nil
		}
		if f, err := strconv.ParseFloat(text, 64); err == nil {
			return runtime.NewInexactReal(f), nil
		}
		if rat, ok := new(big.Rat).SetString(text); ok {
			return runtime.NewExactRat(rat), nil
		}
		return runtime.Boolean(false), nil
	})
}

func toExact(a []runtime.Value) (runtime.Value, error) {
	n, err := asNumber(a[0], "exact")
	if err != nil {
		return nil, err
	}
	if n.Exact {
		return n, nil
	}
	return runtime.NewExactRat(new(big.Rat).SetFloat64(n.AsFloat64())), nil
}

func toInexact(a []runtime.Value) (runtime.Value, error) {
	n, err := asNumber(a[0], "inexact")
	if err != nil {
		return nil, err
	}
	if !n.Exact {
		return n, nil
	}
	if n.IsComplex() {
		return n, nil
	}
	return runtime.NewInexactReal(n.AsFloat64()), nil
}
