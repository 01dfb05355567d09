package runtime

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

// Value is the runtime tagged union, collapsed to a single marker method
// rather than layering NumericValue/ComparableValue/OrderableValue/...
// on top: a Lisp value universe is small, and every numeric/comparison
// operation already dispatches through internal/builtins via an explicit
// type switch, so one marker interface plus concrete types is enough —
// extra interface layers would add indirection with no caller that needs
// it.
type Value interface {
	valueNode()
}

// Undefined is the value of a variable that has been declared (e.g. by
// letrec, or a forward reference inside a mutually-recursive internal
// define) but not yet assigned. Referencing it is an error.
type Undefined struct{}

// Unspecified is returned by operations R7RS leaves the result of
// unspecified (set!, vector-set!, the value of an empty `(begin)`,...).
type Unspecified struct{}

// EOFObject is returned by read operations at end of input.
type EOFObject struct{}

type Boolean bool

type Char rune

// String is a mutable character sequence (R7RS strings support
// string-set!); *String gives every binding that shares a string object
// the mutation, matching pair/vector reference semantics.
type String struct{ Runes []rune }

type Symbol struct {
	ID sym.ID
	Name string
}

// Null is the empty list.
type Null struct{}

// Pair is a mutable cons cell (set-car!/set-cdr!).
type Pair struct {
	Car, Cdr Value
}

// Vector is a mutable fixed-length sequence.
type Vector struct{ Items []Value }

// Bytevector is a mutable sequence of bytes.
type Bytevector struct{ Bytes []byte }

// Values wraps zero-or-many results from `values`; call-with-values and the
// trampoline's CaptureValues frame unpack it. A single value is never
// wrapped — Values only appears when produced by an explicit `(values...)`
// with a count other than one, so ordinary single-valued contexts never
// have to unwrap anything.
type Values struct{ Items []Value }

// Promise is a memoized, possibly not-yet-forced computation.
type PromiseState int

const (
	PromiseDelayed PromiseState = iota
	PromiseForcing
	PromiseForced
)

type Promise struct {
	State PromiseState
	// Thunk is set to nil once the promise is Forced.
	Thunk Value // a zero-argument Procedure
	Result Value
}

// Parameter is an R7RS parameter object: a cell with a dynamic-extent stack
// of values pushed/popped by `parameterize`, plus an optional converter
// procedure applied to new values.
type Parameter struct {
	Stack []Value
	Converter Value // Procedure or nil
}

// RecordType is the runtime descriptor created by define-record-type.
type RecordType struct {
	Name string
	Fields []string
}

// Record is an instance of a RecordType.
type Record struct {
	Type *RecordType
	Values []Value
}

// Port is a minimal input/output port.
type PortDirection int

const (
	PortInput PortDirection = iota
	PortOutput
)

type Port struct {
	Direction PortDirection
	Closed bool
	// Sink/Source back the port; string ports use a *strings.Builder or
	// *strings.Reader, file ports an *os.File — internal/builtins owns the
	// concrete wiring so this package stays I/O-backend agnostic.
	Sink interface{ WriteString(string) (int, error) }
	Source interface{ ReadRune() (rune, int, error) }
}

// Continuation is a captured first-class continuation : the frame list to reinstall on invocation,
// opaque to this package (internal/eval defines the concrete frame type and
// stores it behind this interface{} to avoid an import cycle, since
// Continuation is a Value but its payload is an eval-package type).
type Continuation struct {
	Frames interface{}
	// WindStack is the dynamic-wind stack captured at call/cc time, used to
	// compute the before/after thunks to run on a non-local jump.
	WindStack interface{}
}

// Primitive is a built-in procedure implemented in Go.
type Primitive struct {
	Name string
	Fn func(args []Value) (Value, error)
	// MinArgs/MaxArgs bound arity; MaxArgs < 0 means variadic.
	MinArgs, MaxArgs int
}

// Closure is a user-defined procedure: a lambda paired with the environment
// it closed over.
type Closure struct {
	Name string
	Formals ast.Formals
	Body []ast.Expr
	Env *Environment
}

// CaseLambdaProc is a case-lambda value: the first clause whose formals
// accept the call's argument count is applied.
type CaseLambdaProc struct {
	Name string
	Clauses []ast.CaseLambdaClause
	Env *Environment
}

func (Undefined) valueNode() {}
func (Unspecified) valueNode() {}
func (EOFObject) valueNode() {}
func (Boolean) valueNode() {}
func (Char) valueNode() {}
func (*String) valueNode() {}
func (Symbol) valueNode() {}
func (Null) valueNode() {}
func (*Pair) valueNode() {}
func (*Vector) valueNode() {}
func (*Bytevector) valueNode() {}
func (*Values) valueNode() {}
func (*Promise) valueNode() {}
func (*Parameter) valueNode() {}
func (*RecordType) valueNode() {}
func (*Record) valueNode() {}
func (*Port) valueNode() {}
func (*Continuation) valueNode() {}
func (*Primitive) valueNode() {}
func (*Closure) valueNode() {}
func (*CaseLambdaProc) valueNode() {}
func (*Number) valueNode() {}

// IsTruthy implements R7RS's "everything except #f is true" rule.
func IsTruthy(v Value) bool {
	b, ok := v.(Boolean)
	return !ok || bool(b)
}
