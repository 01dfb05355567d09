package eval

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/runtime"
)

// stepDefineRecordType installs a new record type's descriptor plus its
// constructor, predicate, and per-field accessor/mutator procedures into
// env: a type descriptor value plus a family of closures over it, with no
// method table or inheritance to resolve.
func (e *Evaluator) stepDefineRecordType(n *ast.DefineRecordType, env *runtime.Environment, k *Cont) (state, error) {
	fieldNames := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		fieldNames[i] = f.Name
	}
	rt := &runtime.RecordType{Name: n.TypeName, Fields: fieldNames}
	env.Define(n.TypeID, rt)

	nFields := len(n.Fields)
	ctorFields := n.ConstructorFields
	ctorName := n.ConstructorName
	typeName := n.TypeName
	env.Define(n.ConstructorID, &runtime.Primitive{
		Name: ctorName, MinArgs: len(ctorFields), MaxArgs: len(ctorFields),
		Fn: func(args []runtime.Value) (runtime.Value, error) {
			values := make([]runtime.Value, nFields)
			for i := range values {
				values[i] = runtime.Unspecified{}
			}
			for i, fieldIdx := range ctorFields {
				values[fieldIdx] = args[i]
			}
			return &runtime.Record{Type: rt, Values: values}, nil
		},
	})

	env.Define(n.PredicateID, &runtime.Primitive{
		Name: n.PredicateName, MinArgs: 1, MaxArgs: 1,
		Fn: func(args []runtime.Value) (runtime.Value, error) {
			rec, ok := args[0].(*runtime.Record)
			return runtime.Boolean(ok && rec.Type == rt), nil
		},
	})

	for i, f := range n.Fields {
		idx := i
		env.Define(f.AccessorID, &runtime.Primitive{
			Name: f.AccessorName, MinArgs: 1, MaxArgs: 1,
			Fn: func(args []runtime.Value) (runtime.Value, error) {
				rec, ok := args[0].(*runtime.Record)
				if !ok || rec.Type != rt {
					return nil, runtime.NewError("type-error", "not a "+typeName, args[0])
				}
				return rec.Values[idx], nil
			},
		})
		if f.HasMutator {
			env.Define(f.MutatorID, &runtime.Primitive{
				Name: f.MutatorName, MinArgs: 2, MaxArgs: 2,
				Fn: func(args []runtime.Value) (runtime.Value, error) {
					rec, ok := args[0].(*runtime.Record)
					if !ok || rec.Type != rt {
						return nil, runtime.NewError("type-error", "not a "+typeName, args[0])
					}
					rec.Values[idx] = args[1]
					return runtime.Unspecified{}, nil
				},
			})
		}
	}

	return returning(runtime.Unspecified{}, k), nil
}
