package ast

import "github.com/go-scm/go-scm/internal/sym"

// FormalsKind distinguishes the four lambda-list shapes.
type FormalsKind int

const (
	FormalsFixed FormalsKind = iota
	FormalsVariable
	FormalsMixed
	FormalsKeyword
)

// KeywordParam is one `#!key`-style parameter with an optional default,
// evaluated in the enclosing environment at application time if the
// argument is omitted.
type KeywordParam struct {
	ID sym.ID
	Name string
	Default Expr // nil if no default
}

// Formals is a lambda list, kept as a single struct with a Kind
// discriminant rather than four separate Go types, because the evaluator's
// argument-matching code dispatches on Kind once and then shares the
// positional-binding logic across Mixed/Keyword.
type Formals struct {
	Kind FormalsKind
	Fixed []sym.ID // positional parameter names, in order
	FixedStr []string
	Rest sym.ID // valid when Kind is Variable or Mixed; holds the rest-list name
	RestStr string
	RestSet bool
	Keywords []KeywordParam // valid when Kind is Keyword
}

// Lambda is an unnamed closure expression.
type Lambda struct {
	base
	Formals Formals
	Body []Expr
	Name string // best-effort name for stack traces, set by `define`
}

func (Lambda) exprNode() {}

// CaseLambdaClause is one arity-dispatched clause of `case-lambda`.
type CaseLambdaClause struct {
	Formals Formals
	Body []Expr
}

type CaseLambda struct {
	base
	Clauses []CaseLambdaClause
}

func (CaseLambda) exprNode() {}

// If is `(if test consequent [alternative])`.
type If struct {
	base
	Test Expr
	Consequent Expr
	Alternative Expr // nil if omitted
}

func (If) exprNode() {}

// Begin is a sequence; only the last expression is in tail position.
type Begin struct {
	base
	Body []Expr
}

func (Begin) exprNode() {}

// Define binds a variable or, in procedure-definition shorthand
// `(define (f . formals) body...)`, a named lambda.
type Define struct {
	base
	ID sym.ID
	Name string
	Value Expr
}

func (Define) exprNode() {}

// SetVar is `(set! var expr)`.
type SetVar struct {
	base
	ID sym.ID
	Name string
	Value Expr
}

func (SetVar) exprNode() {}

// Binding is one `(name init)` pair shared by let/let*/letrec/letrec*.
type Binding struct {
	ID sym.ID
	Name string
	Init Expr
}

type LetKind int

const (
	LetPlain LetKind = iota
	LetStar
	LetRec
	LetRecStar
)

type Let struct {
	base
	Kind LetKind
	Bindings []Binding
	Body []Expr
	Name string // non-empty for named let
	NameID sym.ID // valid when Name != ""
}

func (Let) exprNode() {}

// LetValues is `(let-values (((formals) producer)...) body...)`, also used
// for `let*-values` via the Star flag.
type LetValuesBinding struct {
	Formals Formals
	Init Expr
}

type LetValues struct {
	base
	Star bool
	Bindings []LetValuesBinding
	Body []Expr
}

func (LetValues) exprNode() {}

// CondClause is one clause of `cond`: `(test expr...)`, the arrow form
// `(test => receiver)`, or the `else` clause (Test == nil).
type CondClause struct {
	Test Expr // nil means `else`
	Arrow Expr // non-nil for the `=>` form
	Body []Expr
}

type Cond struct {
	base
	Clauses []CondClause
}

func (Cond) exprNode() {}

// CaseClause is one clause of `case`: a set of literal datums to compare the
// key against (by `eqv?`), or the `else` clause (Datums == nil).
type CaseClause struct {
	Datums []Datum
	Arrow Expr // non-nil for the `=>` form
	Body []Expr
}

type Case struct {
	base
	Key Expr
	Clauses []CaseClause
}

func (Case) exprNode() {}

type When struct {
	base
	Test Expr
	Body []Expr
}

func (When) exprNode() {}

type Unless struct {
	base
	Test Expr
	Body []Expr
}

func (Unless) exprNode() {}

type And struct {
	base
	Tests []Expr
}

func (And) exprNode() {}

type Or struct {
	base
	Tests []Expr
}

func (Or) exprNode() {}

// Delay wraps a thunk expression to build a Promise lazily. MakePromise wraps an already-evaluated expression as
// an eager promise (R7RS `make-promise` semantics expressed as syntax here
// so the evaluator can specialize to an Eager-state promise directly).
type Delay struct {
	base
	Expr Expr
}

func (Delay) exprNode() {}

type MakePromise struct {
	base
	Expr Expr
}

func (MakePromise) exprNode() {}

type CallWithValues struct {
	base
	Producer Expr
	Consumer Expr
}

func (CallWithValues) exprNode() {}

type DynamicWind struct {
	base
	Before Expr
	Thunk Expr
	After Expr
}

func (DynamicWind) exprNode() {}

// ParameterBinding is one `(parameter-expr value-expr)` pair in
// `parameterize`.
type ParameterBinding struct {
	Parameter Expr
	Value Expr
}

type Parameterize struct {
	base
	Bindings []ParameterBinding
	Body []Expr
}

func (Parameterize) exprNode() {}

// GuardClause mirrors CondClause but binds the raised condition to a
// variable for the clause bodies.
type GuardClause struct {
	Test Expr // nil means `else`
	Arrow Expr
	Body []Expr
}

type Guard struct {
	base
	Var sym.ID
	VarName string
	Clauses []GuardClause
	Body []Expr
}

func (Guard) exprNode() {}

type WithExceptionHandler struct {
	base
	Handler Expr
	Thunk Expr
}

func (WithExceptionHandler) exprNode() {}

// --- Macros ---

// SyntaxRule is one raw Datum-shaped pattern/template pair of a
// `syntax-rules` transformer; internal/macro compiles them.
type SyntaxRule struct {
	Pattern Datum
	Template Datum
}

type SyntaxRules struct {
	Ellipsis string // default "...", may be rebound (R7RS custom ellipsis)
	Literals []sym.ID
	Rules []SyntaxRule
}

type DefineSyntax struct {
	base
	ID sym.ID
	Name string
	Rules SyntaxRules
}

func (DefineSyntax) exprNode() {}

type SyntaxBinding struct {
	ID sym.ID
	Name string
	Rules SyntaxRules
}

type LetSyntaxKind int

const (
	LetSyntaxPlain LetSyntaxKind = iota
	LetRecSyntax
)

type LetSyntax struct {
	base
	Kind LetSyntaxKind
	Bindings []SyntaxBinding
	Body []Expr
}

func (LetSyntax) exprNode() {}

// --- define-record-type ---

// RecordField is one field spec of a define-record-type: its name, the
// accessor procedure it's bound to, and an optional mutator (HasMutator
// false when the field has no mutator).
type RecordField struct {
	Name string
	AccessorID sym.ID
	AccessorName string
	MutatorID sym.ID
	MutatorName string
	HasMutator bool
}

// DefineRecordType is R7RS's `(define-record-type <name> (ctor field...)
// pred (field accessor [mutator])...)`. It is evaluated (rather than
// macro-expanded into existing forms) because it introduces a genuinely new
// runtime.Value kind (records) that only internal/eval/internal/runtime can
// construct.
type DefineRecordType struct {
	base
	TypeID sym.ID
	TypeName string
	ConstructorID sym.ID
	ConstructorName string
	// ConstructorFields holds the index into Fields of each constructor
	// positional argument, in order (R7RS allows the constructor to name
	// only a subset of fields, in any order).
	ConstructorFields []int
	PredicateID sym.ID
	PredicateName string
	Fields []RecordField
}

func (DefineRecordType) exprNode() {}

// `do` has no dedicated node: internal/macro desugars it directly into a
// named Let.

