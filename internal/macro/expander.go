package macro

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

// Expander turns reader-produced Datum values into classified ast.Expr
// trees. It owns special-form recognition, which internal/reader
// deliberately withholds: a parenthesized form is only ever an
// Application, If, Lambda, etc. once this package has looked at its
// operator position and decided what it is. A fresh uuid-derived mark is
// minted for every macro expansion step, for hygienic renaming.
type Expander struct {
	interner *sym.Interner
	keywords map[string]bool
}

// NewExpander creates an Expander using interner for any fresh identifiers
// hygiene renaming needs to mint.
func NewExpander(interner *sym.Interner) *Expander {
	e := &Expander{interner: interner, keywords: make(map[string]bool, len(specialFormNames))}
	for _, k := range specialFormNames {
		e.keywords[k] = true
	}
	return e
}

var specialFormNames = []string{
	"quote", "quasiquote", "unquote", "unquote-splicing",
	"if", "begin", "lambda", "case-lambda", "define", "set!",
	"let", "let*", "letrec", "letrec*", "let-values", "let*-values",
	"cond", "case", "when", "unless", "and", "or", "do",
	"delay", "delay-force", "make-promise",
	"call-with-values", "dynamic-wind", "parameterize",
	"guard", "with-exception-handler", "raise", "raise-continuable",
	"define-syntax", "let-syntax", "letrec-syntax", "syntax-rules",
	"define-record-type",
	"else", "=>",
}

// Expand classifies and lowers a single top-level or nested Datum into an
// Expr, expanding any macro uses it contains to a fixed point.
func (e *Expander) Expand(d ast.Datum, env *SyntaxEnv) (ast.Expr, error) {
	switch v := d.(type) {
	case ast.DSymbol:
		return &ast.Variable{ID: v.ID, Name: v.Name}, nil
	case ast.DNull:
		return &ast.Literal{Value: d}, nil
	case *ast.DPair:
		return e.expandForm(v, env)
	default:
		return &ast.Literal{Value: d}, nil
	}
}

func (e *Expander) expandForm(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	head, ok := form.Car.(ast.DSymbol)
	if !ok {
		return e.expandApplication(form, env)
	}

	if tr, ok := env.Lookup(head.ID); ok {
		mark := uuid.NewString()
		expanded, err := tr.Expand(form, e.interner, mark)
		if err != nil {
			return nil, err
		}
		return e.Expand(expanded, env)
	}

	switch head.Name {
	case "quote":
		arg, err := nthArg(form, 0, "quote")
		if err != nil {
			return nil, err
		}
		return &ast.Quote{Datum: arg}, nil
	case "quasiquote":
		arg, err := nthArg(form, 0, "quasiquote")
		if err != nil {
			return nil, err
		}
		tmpl, err := e.expandQQ(arg, env, 1)
		if err != nil {
			return nil, err
		}
		return &ast.QuasiquoteExpr{Template: tmpl, Depth: 1}, nil
	case "if":
		return e.expandIf(form, env)
	case "begin":
		items, _ := properItems(form.Cdr)
		body, err := e.expandAll(items, env)
		if err != nil {
			return nil, err
		}
		return &ast.Begin{Body: body}, nil
	case "lambda":
		return e.expandLambda(form, env)
	case "case-lambda":
		return e.expandCaseLambda(form, env)
	case "define":
		return e.expandDefine(form, env)
	case "set!":
		return e.expandSet(form, env)
	case "let":
		return e.expandLet(form, env, ast.LetPlain)
	case "let*":
		return e.expandLet(form, env, ast.LetStar)
	case "letrec":
		return e.expandLet(form, env, ast.LetRec)
	case "letrec*":
		return e.expandLet(form, env, ast.LetRecStar)
	case "let-values":
		return e.expandLetValues(form, env, false)
	case "let*-values":
		return e.expandLetValues(form, env, true)
	case "cond":
		return e.expandCond(form, env)
	case "case":
		return e.expandCase(form, env)
	case "when":
		return e.expandWhenUnless(form, env, false)
	case "unless":
		return e.expandWhenUnless(form, env, true)
	case "and":
		items, _ := properItems(form.Cdr)
		tests, err := e.expandAll(items, env)
		if err != nil {
			return nil, err
		}
		return &ast.And{Tests: tests}, nil
	case "or":
		items, _ := properItems(form.Cdr)
		tests, err := e.expandAll(items, env)
		if err != nil {
			return nil, err
		}
		return &ast.Or{Tests: tests}, nil
	case "delay":
		arg, err := nthArg(form, 0, "delay")
		if err != nil {
			return nil, err
		}
		ex, err := e.Expand(arg, env)
		if err != nil {
			return nil, err
		}
		return &ast.Delay{Expr: ex}, nil
	case "make-promise":
		arg, err := nthArg(form, 0, "make-promise")
		if err != nil {
			return nil, err
		}
		ex, err := e.Expand(arg, env)
		if err != nil {
			return nil, err
		}
		return &ast.MakePromise{Expr: ex}, nil
	case "call-with-values":
		return e.expandTwoArgForm(form, env, func(p, c ast.Expr) ast.Expr {
			return &ast.CallWithValues{Producer: p, Consumer: c}
		})
	case "dynamic-wind":
		items, _ := properItems(form.Cdr)
		if len(items) != 3 {
			return nil, fmt.Errorf("dynamic-wind requires exactly 3 arguments")
		}
		exprs, err := e.expandAll(items, env)
		if err != nil {
			return nil, err
		}
		return &ast.DynamicWind{Before: exprs[0], Thunk: exprs[1], After: exprs[2]}, nil
	case "parameterize":
		return e.expandParameterize(form, env)
	case "guard":
		return e.expandGuard(form, env)
	case "with-exception-handler":
		return e.expandTwoArgForm(form, env, func(h, t ast.Expr) ast.Expr {
			return &ast.WithExceptionHandler{Handler: h, Thunk: t}
		})
	case "do":
		return e.expandDo(form, env)
	case "define-record-type":
		return e.expandDefineRecordType(form, env)
	case "define-syntax":
		return e.expandDefineSyntax(form, env)
	case "let-syntax":
		return e.expandLetSyntax(form, env, ast.LetSyntaxPlain)
	case "letrec-syntax":
		return e.expandLetSyntax(form, env, ast.LetRecSyntax)
	default:
		return e.expandApplication(form, env)
	}
}

func (e *Expander) expandApplication(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	op, err := e.Expand(form.Car, env)
	if err != nil {
		return nil, err
	}
	items, tail := properItems(form.Cdr)
	if _, ok := tail.(ast.DNull); !ok {
		return nil, fmt.Errorf("improper argument list in application")
	}
	args, err := e.expandAll(items, env)
	if err != nil {
		return nil, err
	}
	return &ast.Application{Operator: op, Args: args}, nil
}

func (e *Expander) expandAll(items []ast.Datum, env *SyntaxEnv) ([]ast.Expr, error) {
	out := make([]ast.Expr, 0, len(items))
	for _, it := range items {
		ex, err := e.Expand(it, env)
		if err != nil {
			return nil, err
		}
		out = append(out, ex)
	}
	return out, nil
}

func (e *Expander) expandTwoArgForm(form *ast.DPair, env *SyntaxEnv, build func(a, b ast.Expr) ast.Expr) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	if len(items) != 2 {
		return nil, fmt.Errorf("%s requires exactly 2 arguments", form.Car.(ast.DSymbol).Name)
	}
	exprs, err := e.expandAll(items, env)
	if err != nil {
		return nil, err
	}
	return build(exprs[0], exprs[1]), nil
}

func (e *Expander) expandIf(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	if len(items) < 2 || len(items) > 3 {
		return nil, fmt.Errorf("if requires 2 or 3 operands")
	}
	exprs, err := e.expandAll(items, env)
	if err != nil {
		return nil, err
	}
	node := &ast.If{Test: exprs[0], Consequent: exprs[1]}
	if len(exprs) == 3 {
		node.Alternative = exprs[2]
	}
	return node, nil
}

// nthArg extracts argument i (0-based) of a form, erroring with name if the
// form doesn't have exactly that many positional arguments available.
func nthArg(form *ast.DPair, i int, name string) (ast.Datum, error) {
	items, _ := properItems(form.Cdr)
	if i >= len(items) {
		return nil, fmt.Errorf("%s: missing operand", name)
	}
	return items[i], nil
}

// properItems decomposes a list Datum into its elements and final tail,
// same as flatten but exported under a name meaningful at this layer.
func properItems(d ast.Datum) ([]ast.Datum, ast.Datum) {
	var items []ast.Datum
	for {
		switch v := d.(type) {
		case *ast.DPair:
			items = append(items, v.Car)
			d = v.Cdr
		default:
			return items, d
		}
	}
}
