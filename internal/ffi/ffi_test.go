package ffi_test

import (
	"errors"
	"testing"

	"github.com/go-scm/go-scm/internal/ffi"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

func TestBridgeRoundTripsThroughHostFunc(t *testing.T) {
	interner := sym.New()
	env := runtime.NewEnvironment()

	b := ffi.NewBridge()
	b.Register("host-add", ffi.Arity{Min: 2, Max: 2}, func(args []interface{}) (interface{}, error) {
		a, aok := args[0].(int64)
		c, cok := args[1].(int64)
		if !aok || !cok {
			return nil, errors.New("host-add: expected two integers")
		}
		return a + c, nil
	})
	b.Install(interner, env)

	proc, ok := env.Get(interner.Intern("host-add"))
	if !ok {
		t.Fatal("host-add not defined after Install")
	}
	prim, ok := proc.(*runtime.Primitive)
	if !ok {
		t.Fatalf("host-add bound to %T, want *runtime.Primitive", proc)
	}

	result, err := prim.Fn([]runtime.Value{runtime.NewExactInt(2), runtime.NewExactInt(3)})
	if err != nil {
		t.Fatalf("Fn: %v", err)
	}
	n, ok := result.(*runtime.Number)
	if !ok || !n.Exact || n.Int.Int64() != 5 {
		t.Errorf("host-add(2, 3) = %v, want exact 5", result)
	}
}

func TestToHostCoercesCoreTypes(t *testing.T) {
	if got := ffi.ToHost(runtime.NewExactInt(7)); got != int64(7) {
		t.Errorf("ToHost(exact 7) = %v (%T), want int64(7)", got, got)
	}
	if got := ffi.ToHost(runtime.NewInexactReal(1.5)); got != 1.5 {
		t.Errorf("ToHost(inexact 1.5) = %v, want 1.5", got)
	}
	if got := ffi.ToHost(&runtime.String{Runes: []rune("hi")}); got != "hi" {
		t.Errorf("ToHost(string) = %v, want \"hi\"", got)
	}
	if got := ffi.ToHost(runtime.Boolean(true)); got != true {
		t.Errorf("ToHost(#t) = %v, want true", got)
	}

	list := runtime.SliceToList([]runtime.Value{runtime.NewExactInt(1), runtime.NewExactInt(2)})
	got, ok := ffi.ToHost(list).([]interface{})
	if !ok || len(got) != 2 || got[0] != int64(1) || got[1] != int64(2) {
		t.Errorf("ToHost(list) = %v, want []interface{}{1, 2}", got)
	}
}

func TestFromHostCoercesBack(t *testing.T) {
	v, err := ffi.FromHost(int64(9))
	if err != nil {
		t.Fatalf("FromHost(int64): %v", err)
	}
	n, ok := v.(*runtime.Number)
	if !ok || !n.Exact || n.Int.Int64() != 9 {
		t.Errorf("FromHost(int64(9)) = %v, want exact 9", v)
	}

	v, err = ffi.FromHost([]interface{}{"a", "b"})
	if err != nil {
		t.Fatalf("FromHost(slice): %v", err)
	}
	items, proper := runtime.ListToSlice(v)
	if !proper || len(items) != 2 {
		t.Fatalf("FromHost(slice) = %v, want a proper 2-element list", v)
	}
	if s, ok := items[0].(*runtime.String); !ok || string(s.Runes) != "a" {
		t.Errorf("FromHost(slice)[0] = %v, want string \"a\"", items[0])
	}

	v, err = ffi.FromHost(nil)
	if err != nil {
		t.Fatalf("FromHost(nil): %v", err)
	}
	if _, ok := v.(runtime.Unspecified); !ok {
		t.Errorf("FromHost(nil) = %T, want runtime.Unspecified", v)
	}
}
