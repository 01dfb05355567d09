// Package ffi is a foreign-function bridge: a registered host procedure
// is callable as `(name arg...)` → value, and the evaluator treats a
// registered FFI handle as a primitive procedure with a declared arity.
// Only the invocation contract is in scope — how a host embeds Go
// functions and gets runtime.Value arguments/results coerced at the
// boundary, using github.com/spf13/cast for the loose host-value coercion
// a dynamically-typed Lisp calling into statically-typed Go functions
// needs.
package ffi

import (
	"github.com/spf13/cast"

	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

// HostFunc is a registered host-language procedure: it receives already
// Go-coerced arguments and returns a Go value (or error) that Register
// coerces back into a runtime.Value.
type HostFunc func(args []interface{}) (interface{}, error)

// Arity bounds a HostFunc's argument count, mirroring
// runtime.Primitive.MinArgs/MaxArgs.
type Arity struct {
	Min, Max int // Max < 0 means variadic
}

// Bridge holds every registered host procedure for one engine instance.
// Unlike internal/builtins.Registry (populated once, shared process-wide),
// a Bridge is created per embedding host, since the set of FFI handles is
// an embedding-specific detail rather than part of the standard library.
type Bridge struct {
	handles map[string]registered
}

type registered struct {
	fn    HostFunc
	arity Arity
}

func NewBridge() *Bridge { return &Bridge{handles: make(map[string]registered)} }

// Register binds name to fn with the given arity. Re-registering a name
// overwrites the previous binding.
func (b *Bridge) Register(name string, arity Arity, fn HostFunc) {
	b.handles[name] = registered{fn: fn, arity: arity}
}

// Install defines every registered handle in env as a runtime.Primitive,
// interning each name through interner — the same two-argument shape
// internal/builtins.Install uses, so a host can call both against the same
// environment in either order.
func (b *Bridge) Install(interner *sym.Interner, env *runtime.Environment) {
	for name, h := range b.handles {
		h := h
		env.Define(interner.Intern(name), &runtime.Primitive{
			Name: name, MinArgs: h.arity.Min, MaxArgs: h.arity.Max,
			Fn: func(args []runtime.Value) (runtime.Value, error) {
				hostArgs := make([]interface{}, len(args))
				for i, a := range args {
					hostArgs[i] = ToHost(a)
				}
				result, err := h.fn(hostArgs)
				if err != nil {
					return nil, runtime.NewError("type-error", "ffi call to "+name+" failed: "+err.Error())
				}
				return FromHost(result)
			},
		})
	}
}

// ToHost coerces a runtime.Value down to a plain Go value a HostFunc can
// consume directly (numbers as float64, strings as string, booleans as
// bool, lists as []interface{}), using cast for any further narrowing the
// host function itself wants to do (cast.ToInt, cast.ToString,...).
func ToHost(v runtime.Value) interface{} {
	switch x := v.(type) {
	case runtime.Boolean:
		return bool(x)
	case runtime.Char:
		return string(rune(x))
	case *runtime.String:
		return string(x.Runes)
	case runtime.Symbol:
		return x.Name
	case *runtime.Number:
		if x.Exact && x.Kind == runtime.KindInteger && x.Int.IsInt64() {
			return x.Int.Int64()
		}
		return x.AsFloat64()
	case runtime.Null:
		return nil
	case *runtime.Pair:
		items, proper := runtime.ListToSlice(v)
		if !proper {
			return nil
		}
		out := make([]interface{}, len(items))
		for i, item := range items {
			out[i] = ToHost(item)
		}
		return out
	case *runtime.Vector:
		out := make([]interface{}, len(x.Items))
		for i, item := range x.Items {
			out[i] = ToHost(item)
		}
		return out
	default:
		return v
	}
}

// FromHost coerces a plain Go value returned by a HostFunc back into a
// runtime.Value, using cast to normalize whatever numeric/string shape the
// host function happened to return.
func FromHost(v interface{}) (runtime.Value, error) {
	switch x := v.(type) {
	case nil:
		return runtime.Unspecified{}, nil
	case runtime.Value:
		return x, nil
	case bool:
		return runtime.Boolean(x), nil
	case string:
		return &runtime.String{Runes: []rune(x)}, nil
	case []interface{}:
		items := make([]runtime.Value, len(x))
		for i, item := range x {
			rv, err := FromHost(item)
			if err != nil {
				return nil, err
			}
			items[i] = rv
		}
		return runtime.SliceToList(items), nil
	case int, int64, int32, uint, uint64, uint32:
		return runtime.NewExactInt(cast.ToInt64(x)), nil
	case float32, float64:
		return runtime.NewInexactReal(cast.ToFloat64(x)), nil
	default:
		// Fall back to a string coercion rather than failing outright — an
		// FFI boundary that can't represent an exotic Go type exactly still
		// shouldn't abort the whole call.
		return &runtime.String{Runes: []rune(cast.ToString(x))}, nil
	}
}
