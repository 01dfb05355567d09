package macro

import (
	"testing"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/reader"
	"github.com/go-scm/go-scm/internal/sym"
)

func readOne(t *testing.T, in *sym.Interner, src string) ast.Datum {
	t.Helper()
	datums, errs := reader.NewBuilder(src, in).Build().ReadAll()
	if len(errs) != 0 {
		t.Fatalf("unexpected read errors for %q: %v", src, errs)
	}
	if len(datums) != 1 {
		t.Fatalf("expected exactly one form in %q, got %d", src, len(datums))
	}
	return datums[0]
}

func TestExpandIfAndApplication(t *testing.T) {
	in := sym.New()
	d := readOne(t, in, "(if (foo) 1 2)")
	exp := NewExpander(in)
	node, err := exp.Expand(d, NewSyntaxEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	ifExpr, ok := node.(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If, got %T", node)
	}
	if _, ok := ifExpr.Test.(*ast.Application); !ok {
		t.Fatalf("expected Application test, got %T", ifExpr.Test)
	}
	if ifExpr.Alternative == nil {
		t.Fatalf("expected alternative to be present")
	}
}

func TestExpandLambdaAndDefine(t *testing.T) {
	in := sym.New()
	d := readOne(t, in, "(define (add a b) (+ a b))")
	exp := NewExpander(in)
	node, err := exp.Expand(d, NewSyntaxEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	def, ok := node.(*ast.Define)
	if !ok {
		t.Fatalf("expected *ast.Define, got %T", node)
	}
	lam, ok := def.Value.(*ast.Lambda)
	if !ok {
		t.Fatalf("expected *ast.Lambda value, got %T", def.Value)
	}
	if lam.Name != "add" {
		t.Fatalf("expected lambda name add, got %q", lam.Name)
	}
	if len(lam.Formals.FixedStr) != 2 {
		t.Fatalf("expected 2 fixed formals, got %d", len(lam.Formals.FixedStr))
	}
}

func TestNamedLet(t *testing.T) {
	in := sym.New()
	d := readOne(t, in, "(let loop ((i 0)) (if (< i 10) (loop (+ i 1)) i))")
	exp := NewExpander(in)
	node, err := exp.Expand(d, NewSyntaxEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	let, ok := node.(*ast.Let)
	if !ok {
		t.Fatalf("expected *ast.Let, got %T", node)
	}
	if let.Name != "loop" {
		t.Fatalf("expected named let name loop, got %q", let.Name)
	}
	if len(let.Bindings) != 1 || let.Bindings[0].Name != "i" {
		t.Fatalf("unexpected bindings: %+v", let.Bindings)
	}
}

func TestOrMacroHygiene(t *testing.T) {
	in := sym.New()
	defSrc := "(define-syntax my-or (syntax-rules () ((_ a b) (let ((t a)) (if t t b)))))"
	defD := readOne(t, in, defSrc)
	exp := NewExpander(in)
	env := NewSyntaxEnv()
	if _, err := exp.Expand(defD, env); err != nil {
		t.Fatalf("unexpected error defining macro: %v", err)
	}

	useSrc := "(my-or t 2)"
	useD := readOne(t, in, useSrc)
	node, err := exp.Expand(useD, env)
	if err != nil {
		t.Fatalf("unexpected error expanding macro use: %v", err)
	}
	let, ok := node.(*ast.Let)
	if !ok {
		t.Fatalf("expected *ast.Let from or-expansion, got %T", node)
	}
	if len(let.Bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(let.Bindings))
	}
	tempName := let.Bindings[0].Name
	if tempName == "t" {
		t.Fatalf("macro-introduced temporary was not renamed away from the use-site variable t")
	}
	initVar, ok := let.Bindings[0].Init.(*ast.Variable)
	if !ok || initVar.Name != "t" {
		t.Fatalf("binding init should reference the use-site variable t unchanged, got %+v", let.Bindings[0].Init)
	}

	ifExpr, ok := let.Body[0].(*ast.If)
	if !ok {
		t.Fatalf("expected *ast.If body, got %T", let.Body[0])
	}
	testVar, ok := ifExpr.Test.(*ast.Variable)
	if !ok || testVar.Name != tempName {
		t.Fatalf("if test should reference the renamed temporary, got %+v", ifExpr.Test)
	}
	consVar, ok := ifExpr.Consequent.(*ast.Variable)
	if !ok || consVar.Name != tempName {
		t.Fatalf("if consequent should reference the renamed temporary, got %+v", ifExpr.Consequent)
	}
	altLit, ok := ifExpr.Alternative.(*ast.Literal)
	if !ok {
		t.Fatalf("if alternative should be the literal operand b, got %+v", ifExpr.Alternative)
	}
	altInt, ok := altLit.Value.(ast.DInt)
	if !ok || altInt.Value.Int64() != 2 {
		t.Fatalf("if alternative should be the literal 2, got %+v", altLit.Value)
	}
}

func TestCondClausesAndElse(t *testing.T) {
	in := sym.New()
	d := readOne(t, in, "(cond ((< x 0) 'neg) ((= x 0) 'zero) (else 'pos))")
	exp := NewExpander(in)
	node, err := exp.Expand(d, NewSyntaxEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	cond, ok := node.(*ast.Cond)
	if !ok {
		t.Fatalf("expected *ast.Cond, got %T", node)
	}
	if len(cond.Clauses) != 3 {
		t.Fatalf("expected 3 clauses, got %d", len(cond.Clauses))
	}
	if cond.Clauses[2].Test != nil {
		t.Fatalf("expected else clause to have a nil Test")
	}
}

func TestQuasiquoteUnquoteSplicing(t *testing.T) {
	in := sym.New()
	d := readOne(t, in, "`(1,(+ 1 1),@(list 3 4))")
	exp := NewExpander(in)
	node, err := exp.Expand(d, NewSyntaxEnv())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	qq, ok := node.(*ast.QuasiquoteExpr)
	if !ok {
		t.Fatalf("expected *ast.QuasiquoteExpr, got %T", node)
	}
	qlist, ok := qq.Template.(ast.QQList)
	if !ok {
		t.Fatalf("expected ast.QQList template, got %T", qq.Template)
	}
	if len(qlist.Items) != 3 {
		t.Fatalf("expected 3 template items, got %d", len(qlist.Items))
	}
	if _, ok := qlist.Items[1].(ast.QQUnquote); !ok {
		t.Fatalf("expected second item to be QQUnquote, got %T", qlist.Items[1])
	}
	if _, ok := qlist.Items[2].(ast.QQUnquoteSplicing); !ok {
		t.Fatalf("expected third item to be QQUnquoteSplicing, got %T", qlist.Items[2])
	}
}

func TestEllipsisMacro(t *testing.T) {
	in := sym.New()
	defSrc := "(define-syntax my-list (syntax-rules () ((_ a ...) (list a ...))))"
	defD := readOne(t, in, defSrc)
	exp := NewExpander(in)
	env := NewSyntaxEnv()
	if _, err := exp.Expand(defD, env); err != nil {
		t.Fatalf("unexpected error defining macro: %v", err)
	}
	useD := readOne(t, in, "(my-list 1 2 3)")
	node, err := exp.Expand(useD, env)
	if err != nil {
		t.Fatalf("unexpected error expanding macro use: %v", err)
	}
	app, ok := node.(*ast.Application)
	if !ok {
		t.Fatalf("expected *ast.Application, got %T", node)
	}
	if len(app.Args) != 3 {
		t.Fatalf("expected 3 arguments after ellipsis expansion, got %d", len(app.Args))
	}
}
