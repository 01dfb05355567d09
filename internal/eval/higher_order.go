package eval

import (
	"github.com/go-scm/go-scm/internal/builtins"
	"github.com/go-scm/go-scm/internal/runtime"
)

// stepHigherOrder implements the handful of standard procedures that must
// apply a procedure argument themselves (map, for-each, and their
// vector/string-shaped cousins): ordinary Go-function primitives in
// internal/builtins only ever see already-evaluated runtime.Values and have
// no way to invoke another procedure, so — exactly like call/cc, apply, and
// force above — these are dispatched here by name instead of through
// Primitive.Fn, using applySync to re-enter the trampoline for each element.
func (e *Evaluator) stepHigherOrder(name string, args []runtime.Value, k *Cont) (state, error) {
	switch name {
	case "map":
		return e.stepMap(args, k, false)
	case "for-each":
		return e.stepMap(args, k, true)
	case "vector-map":
		return e.stepVectorMap(args, k, false)
	case "vector-for-each":
		return e.stepVectorMap(args, k, true)
	case "string-map":
		return e.stepStringMap(args, k, false)
	case "string-for-each":
		return e.stepStringMap(args, k, true)
	}
	return state{}, runtime.Raise(runtime.NewError("internal-error", "unknown higher-order primitive "+name))
}

// stepMakeParameter builds a fresh parameter object, passing the initial
// value through the converter exactly as parameterize does on rebind
//, which is why this lives beside the other
// procedures that need e.applySync rather than as a plain Primitive.Fn.
func (e *Evaluator) stepMakeParameter(args []runtime.Value, k *Cont) (state, error) {
	if len(args) < 1 || len(args) > 2 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "make-parameter expects 1 or 2 arguments"))
	}
	init := args[0]
	var converter runtime.Value
	if len(args) == 2 {
		converter = args[1]
		converted, err := e.applySync(converter, []runtime.Value{init})
		if err != nil {
			return state{}, wrapSignal(err)
		}
		init = converted
	}
	return returning(&runtime.Parameter{Stack: []runtime.Value{init}, Converter: converter}, k), nil
}

// stepCallWithOutputString implements (call-with-output-string proc):
// applies proc to a fresh string output port, then returns what was written
// to it — needs applySync for the same reason make-parameter's converter
// call does.
func (e *Evaluator) stepCallWithOutputString(args []runtime.Value, k *Cont) (state, error) {
	if len(args) != 1 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "call-with-output-string expects exactly one argument"))
	}
	port := builtins.NewStringOutputPort()
	if _, err := e.applySync(args[0], []runtime.Value{port}); err != nil {
		return state{}, wrapSignal(err)
	}
	return returning(&runtime.String{Runes: []rune(builtins.StringOutputPortContents(port))}, k), nil
}

// stepWithOutputToString implements (with-output-to-string thunk): rebinds
// current-output-port to a fresh string port for the dynamic extent of
// thunk, following the same parameter-stack push/pop discipline
// parameterize uses, then returns what was
// written.
func (e *Evaluator) stepWithOutputToString(args []runtime.Value, k *Cont) (state, error) {
	if len(args) != 1 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "with-output-to-string expects exactly one argument"))
	}
	port := builtins.NewStringOutputPort()
	builtins.CurrentOutputPort.Stack = append(builtins.CurrentOutputPort.Stack, port)
	_, err := e.applySync(args[0], nil)
	s := builtins.CurrentOutputPort.Stack
	builtins.CurrentOutputPort.Stack = s[:len(s)-1]
	if err != nil {
		return state{}, wrapSignal(err)
	}
	return returning(&runtime.String{Runes: []rune(builtins.StringOutputPortContents(port))}, k), nil
}

func (e *Evaluator) stepMap(args []runtime.Value, k *Cont, discard bool) (state, error) {
	if len(args) < 2 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "map/for-each require a procedure and at least one list"))
	}
	proc := args[0]
	lists := args[1:]
	slices := make([][]runtime.Value, len(lists))
	length := -1
	for i, l := range lists {
		s, proper := runtime.ListToSlice(l)
		if !proper {
			return state{}, runtime.Raise(runtime.NewError("type-error", "map/for-each: argument is not a proper list"))
		}
		slices[i] = s
		if length == -1 || len(s) < length {
			length = len(s)
		}
	}
	var result []runtime.Value
	if !discard {
		result = make([]runtime.Value, 0, length)
	}
	for i := 0; i < length; i++ {
		callArgs := make([]runtime.Value, len(lists))
		for j := range lists {
			callArgs[j] = slices[j][i]
		}
		v, err := e.applySync(proc, callArgs)
		if err != nil {
			return state{}, wrapSignal(err)
		}
		if !discard {
			result = append(result, v)
		}
	}
	if discard {
		return returning(runtime.Unspecified{}, k), nil
	}
	return returning(runtime.SliceToList(result), k), nil
}

func (e *Evaluator) stepVectorMap(args []runtime.Value, k *Cont, discard bool) (state, error) {
	if len(args) < 2 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "vector-map/vector-for-each require a procedure and at least one vector"))
	}
	proc := args[0]
	vecs := make([]*runtime.Vector, len(args)-1)
	length := -1
	for i, v := range args[1:] {
		vec, ok := v.(*runtime.Vector)
		if !ok {
			return state{}, runtime.Raise(runtime.NewError("type-error", "vector-map/vector-for-each: not a vector", v))
		}
		vecs[i] = vec
		if length == -1 || len(vec.Items) < length {
			length = len(vec.Items)
		}
	}
	var result []runtime.Value
	if !discard {
		result = make([]runtime.Value, length)
	}
	for i := 0; i < length; i++ {
		callArgs := make([]runtime.Value, len(vecs))
		for j, vec := range vecs {
			callArgs[j] = vec.Items[i]
		}
		v, err := e.applySync(proc, callArgs)
		if err != nil {
			return state{}, wrapSignal(err)
		}
		if !discard {
			result[i] = v
		}
	}
	if discard {
		return returning(runtime.Unspecified{}, k), nil
	}
	return returning(&runtime.Vector{Items: result}, k), nil
}

func (e *Evaluator) stepStringMap(args []runtime.Value, k *Cont, discard bool) (state, error) {
	if len(args) < 2 {
		return state{}, runtime.Raise(runtime.NewError("arity-error", "string-map/string-for-each require a procedure and at least one string"))
	}
	proc := args[0]
	strs := make([]*runtime.String, len(args)-1)
	length := -1
	for i, v := range args[1:] {
		s, ok := v.(*runtime.String)
		if !ok {
			return state{}, runtime.Raise(runtime.NewError("type-error", "string-map/string-for-each: not a string", v))
		}
		strs[i] = s
		if length == -1 || len(s.Runes) < length {
			length = len(s.Runes)
		}
	}
	var result []rune
	if !discard {
		result = make([]rune, length)
	}
	for i := 0; i < length; i++ {
		callArgs := make([]runtime.Value, len(strs))
		for j, s := range strs {
			callArgs[j] = runtime.Char(s.Runes[i])
		}
		v, err := e.applySync(proc, callArgs)
		if err != nil {
			return state{}, wrapSignal(err)
		}
		if !discard {
			c, ok := v.(runtime.Char)
			if !ok {
				return state{}, runtime.Raise(runtime.NewError("type-error", "string-map: procedure did not return a character", v))
			}
			result[i] = rune(c)
		}
	}
	if discard {
		return returning(runtime.Unspecified{}, k), nil
	}
	return returning(&runtime.String{Runes: result}, k), nil
}
