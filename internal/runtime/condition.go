package runtime

import (
	"fmt"
	"strings"
)

// ErrorObject is the runtime representation of a raised condition. Every condition the evaluator itself raises
// (unbound-variable, arity-error, type-error,...) and every condition a
// user raises with `(error message irritant...)` share this one shape, so
// `guard` and `with-exception-handler` can inspect any of them uniformly
// through `error-object?`/`error-object-message`/`error-object-irritants`
// without a type switch per error kind.
type ErrorObject struct {
	Kind string
	Message string
	Irritants []Value
}

func (*ErrorObject) valueNode() {}

// Error implements the Go error interface so internal packages can return
// *ErrorObject directly wherever they would otherwise return a plain error,
// and internal/eval's raise protocol never has to re-box it.
func (e *ErrorObject) Error() string {
	if len(e.Irritants) == 0 {
		return e.Message
	}
	parts := make([]string, len(e.Irritants))
	for i, v := range e.Irritants {
		parts[i] = briefString(v)
	}
	return e.Message + ": " + strings.Join(parts, " ")
}

// NewError constructs a condition of the given kind.
func NewError(kind, message string, irritants ...Value) *ErrorObject {
	return &ErrorObject{Kind: kind, Message: message, Irritants: irritants}
}

// RaiseSignal is the control-flow value carried by a raised condition as it
// walks the continuation chain looking for a handler. Builtins
// implementing `raise`, `raise-continuable`, and any primitive that
// signals a condition (arity, type, unbound-variable, ...) return this
// from their Fn exactly like any other Go error; internal/eval recognizes
// it with a type switch and performs the walk instead of treating it as a
// fatal host error. It lives in this package (rather than internal/eval)
// so internal/builtins can construct one without importing the evaluator.
type RaiseSignal struct {
	Value Value
	Continuable bool
}

func (r *RaiseSignal) Error() string {
	if eo, ok := r.Value.(*ErrorObject); ok {
		return eo.Error()
	}
	return "unhandled condition: " + briefString(r.Value)
}

// Raise builds a non-continuable RaiseSignal, the shape `(raise obj)`
// produces.
func Raise(v Value) *RaiseSignal { return &RaiseSignal{Value: v} }

// RaiseContinuable builds the `(raise-continuable obj)` shape: a handler
// that returns normally hands its return value back to the call site.
func RaiseContinuable(v Value) *RaiseSignal { return &RaiseSignal{Value: v, Continuable: true} }

// briefString is a minimal, non-round-tripping stringification used only for
// Go-level diagnostics (e.g. an uncaught condition's Error() text);
// internal/printer owns the real read/write-compatible representation.
func briefString(v Value) string {
	switch x := v.(type) {
	case *String:
		return string(x.Runes)
	case Symbol:
		return x.Name
	case Boolean:
		if x {
			return "#t"
		}
		return "#f"
	case *Number:
		return fmt.Sprintf("%v", x.AsFloat64())
	case Null:
		return "()"
	default:
		return "#<value>"
	}
}
