package ast

import "github.com/go-scm/go-scm/internal/sym"

// Expr is the AST sum type produced once special-form recognition and macro
// expansion have settled what a parenthesized form means. Every concrete
// type below carries its own Span; ExprSpan extracts it uniformly.
type Expr interface {
	exprNode()
	ExprSpan() Span
}

// base embeds the span every node carries and is itself embedded by every
// concrete Expr, so the embedder gets ExprSpan for free.
type base struct{ Span Span }

func (b base) ExprSpan() Span { return b.Span }

// Literal is a self-evaluating datum: boolean, character, string, number,
// or the empty list.
type Literal struct {
	base
	Value Datum
}

// Variable is a reference to a bound identifier.
type Variable struct {
	base
	ID sym.ID
	Name string
}

// Application is an uncommitted parenthesized form `(op arg...)` as produced
// directly by the reader. Special-form recognition and macro expansion
// rewrite Applications whose operator names a
// syntactic keyword into the specific node types below; an Application that
// survives expansion unchanged is a procedure call.
type Application struct {
	base
	Operator Expr
	Args []Expr
}

// Quote holds a datum that is never evaluated.
type Quote struct {
	base
	Datum Datum
}

// QuasiquoteExpr is quoted data with Unquote/UnquoteSplicing escapes still
// to be spliced in at evaluation time. Unlike Quote, its payload is built
// from Expr (the escaped sub-expressions must be evaluated), so it is its
// own small tree rather than a plain Datum.
type QuasiquoteExpr struct {
	base
	Template QQTemplate
	Depth int // nesting depth, incremented by nested quasiquote
}

// QQTemplate is quasiquote template data: either a literal Datum fragment,
// an escaped expression, or a nested list/vector of templates.
type QQTemplate interface{ qqNode() }

type QQLiteral struct{ Value Datum }
type QQUnquote struct{ Expr Expr }
type QQUnquoteSplicing struct{ Expr Expr }
type QQList struct {
	Items []QQTemplate
	Tail QQTemplate // nil means proper list
}
type QQVector struct{ Items []QQTemplate }
type QQNested struct{ Inner *QuasiquoteExpr } // nested quasiquote, depth+1

func (QQLiteral) qqNode() {}
func (QQUnquote) qqNode() {}
func (QQUnquoteSplicing) qqNode() {}
func (QQList) qqNode() {}
func (QQVector) qqNode() {}
func (QQNested) qqNode() {}

func (Literal) exprNode() {}
func (Variable) exprNode() {}
func (Application) exprNode() {}
func (Quote) exprNode() {}
func (QuasiquoteExpr) exprNode() {}
