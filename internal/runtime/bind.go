package runtime

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

// FormalsAccepts reports whether a formals list can be invoked with n
// positional arguments, used by case-lambda clause selection.
func FormalsAccepts(f ast.Formals, n int) bool {
	switch f.Kind {
	case ast.FormalsFixed:
		return n == len(f.Fixed)
	case ast.FormalsVariable:
		return true
	case ast.FormalsMixed, ast.FormalsKeyword:
		return n >= len(f.Fixed)
	default:
		return false
	}
}

// BindFormals extends outer with a fresh frame binding f's parameters to
// args, implementing formal-argument matching for all four lambda-list
// shapes. evalDefault evaluates a keyword parameter's default expression
// (in the newly built environment, at application time) when the caller
// omits that keyword; it is supplied by internal/eval, since
// internal/runtime cannot import the evaluator without an import cycle.
func BindFormals(f ast.Formals, args []Value, outer *Environment, evalDefault func(expr ast.Expr, env *Environment) (Value, error)) (*Environment, error) {
	env := NewEnclosedEnvironment(outer)
	switch f.Kind {
	case ast.FormalsFixed:
		if len(args) != len(f.Fixed) {
			return nil, NewError("arity-error", "wrong number of arguments", NewExactInt(int64(len(f.Fixed))), NewExactInt(int64(len(args))))
		}
		for i, id := range f.Fixed {
			env.Define(id, args[i])
		}
	case ast.FormalsVariable:
		env.Define(f.Rest, listFromSlice(args))
	case ast.FormalsMixed:
		if len(args) < len(f.Fixed) {
			return nil, NewError("arity-error", "too few arguments", NewExactInt(int64(len(f.Fixed))), NewExactInt(int64(len(args))))
		}
		for i, id := range f.Fixed {
			env.Define(id, args[i])
		}
		env.Define(f.Rest, listFromSlice(args[len(f.Fixed):]))
	case ast.FormalsKeyword:
		if len(args) < len(f.Fixed) {
			return nil, NewError("arity-error", "too few arguments", NewExactInt(int64(len(f.Fixed))), NewExactInt(int64(len(args))))
		}
		for i, id := range f.Fixed {
			env.Define(id, args[i])
		}
		rest := args[len(f.Fixed):]
		if len(rest)%2 != 0 {
			return nil, NewError("arity-error", "keyword arguments must come in keyword/value pairs")
		}
		byID := make(map[sym.ID]int, len(f.Keywords))
		for i, kp := range f.Keywords {
			byID[kp.ID] = i
		}
		seen := make([]bool, len(f.Keywords))
		for i := 0; i < len(rest); i += 2 {
			kwSym, ok := rest[i].(Symbol)
			if !ok {
				return nil, NewError("type-error", "expected a keyword argument name")
			}
			ki, ok := byID[kwSym.ID]
			if !ok {
				return nil, NewError("unknown-keyword", "unknown keyword argument", rest[i])
			}
			seen[ki] = true
			env.Define(kwSym.ID, rest[i+1])
		}
		for i, kp := range f.Keywords {
			if seen[i] {
				continue
			}
			if kp.Default == nil {
				env.Define(kp.ID, Unspecified{})
				continue
			}
			val, err := evalDefault(kp.Default, env)
			if err != nil {
				return nil, err
			}
			env.Define(kp.ID, val)
		}
	}
	return env, nil
}
