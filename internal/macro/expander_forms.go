package macro

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/sym"
)

func (e *Expander) expandBody(d ast.Datum, env *SyntaxEnv) ([]ast.Expr, error) {
	items, tail := properItems(d)
	if _, ok := tail.(ast.DNull); !ok {
		return nil, fmt.Errorf("improper body form")
	}
	return e.expandAll(items, env)
}

// parseFormals interprets a lambda-list Datum as one of four shapes:
// Fixed `(a b c)`, Variable `args`, Mixed `(a b . rest)`, or Keyword
// `(a b #!key (c 1) d)`.
func parseFormals(d ast.Datum) (ast.Formals, error) {
	if sym, ok := d.(ast.DSymbol); ok {
		return ast.Formals{Kind: ast.FormalsVariable, Rest: sym.ID, RestStr: sym.Name, RestSet: true}, nil
	}
	if _, ok := d.(ast.DNull); ok {
		return ast.Formals{Kind: ast.FormalsFixed}, nil
	}
	pair, ok := d.(*ast.DPair)
	if !ok {
		return ast.Formals{}, fmt.Errorf("malformed formals list")
	}
	items, tail := flatten(pair)

	keyAt := -1
	for i, it := range items {
		if s, ok := it.(ast.DSymbol); ok && s.Name == "#!key" {
			keyAt = i
			break
		}
	}
	if keyAt != -1 {
		f := ast.Formals{Kind: ast.FormalsKeyword}
		for _, it := range items[:keyAt] {
			s, ok := it.(ast.DSymbol)
			if !ok {
				return ast.Formals{}, fmt.Errorf("malformed fixed parameter before #!key")
			}
			f.Fixed = append(f.Fixed, s.ID)
			f.FixedStr = append(f.FixedStr, s.Name)
		}
		for _, it := range items[keyAt+1:] {
			switch kv := it.(type) {
			case ast.DSymbol:
				f.Keywords = append(f.Keywords, ast.KeywordParam{ID: kv.ID, Name: kv.Name})
			case *ast.DPair:
				nameItems, _ := flatten(kv)
				if len(nameItems) != 2 {
					return ast.Formals{}, fmt.Errorf("malformed keyword parameter default")
				}
				ns, ok := nameItems[0].(ast.DSymbol)
				if !ok {
					return ast.Formals{}, fmt.Errorf("keyword parameter name must be an identifier")
				}
				f.Keywords = append(f.Keywords, ast.KeywordParam{ID: ns.ID, Name: ns.Name, Default: &ast.Literal{Value: nameItems[1]}})
			default:
				return ast.Formals{}, fmt.Errorf("malformed keyword parameter")
			}
		}
		return f, nil
	}

	f := ast.Formals{Kind: ast.FormalsFixed}
	for _, it := range items {
		s, ok := it.(ast.DSymbol)
		if !ok {
			return ast.Formals{}, fmt.Errorf("formal parameter must be an identifier")
		}
		f.Fixed = append(f.Fixed, s.ID)
		f.FixedStr = append(f.FixedStr, s.Name)
	}
	switch t := tail.(type) {
	case ast.DNull:
		return f, nil
	case ast.DSymbol:
		f.Kind = ast.FormalsMixed
		f.Rest = t.ID
		f.RestStr = t.Name
		f.RestSet = true
		return f, nil
	default:
		return ast.Formals{}, fmt.Errorf("malformed formals tail")
	}
}

func (e *Expander) expandLambda(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("lambda requires a formals list and a body")
	}
	formals, err := parseFormals(rest.Car)
	if err != nil {
		return nil, fmt.Errorf("lambda: %w", err)
	}
	body, err := e.expandBody(rest.Cdr, env)
	if err != nil {
		return nil, err
	}
	return &ast.Lambda{Formals: formals, Body: body}, nil
}

func (e *Expander) expandCaseLambda(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	clauses := make([]ast.CaseLambdaClause, 0, len(items))
	for _, it := range items {
		clausePair, ok := it.(*ast.DPair)
		if !ok {
			return nil, fmt.Errorf("case-lambda clause must be a list")
		}
		formals, err := parseFormals(clausePair.Car)
		if err != nil {
			return nil, fmt.Errorf("case-lambda: %w", err)
		}
		body, err := e.expandBody(clausePair.Cdr, env)
		if err != nil {
			return nil, err
		}
		clauses = append(clauses, ast.CaseLambdaClause{Formals: formals, Body: body})
	}
	return &ast.CaseLambda{Clauses: clauses}, nil
}

func (e *Expander) expandDefine(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("define requires a target and a value")
	}
	switch target := rest.Car.(type) {
	case ast.DSymbol:
		items, _ := properItems(rest.Cdr)
		if len(items) == 0 {
			return nil, fmt.Errorf("define %s: missing value", target.Name)
		}
		valExpr, err := e.Expand(items[0], env)
		if err != nil {
			return nil, err
		}
		if lam, ok := valExpr.(*ast.Lambda); ok {
			lam.Name = target.Name
		}
		return &ast.Define{ID: target.ID, Name: target.Name, Value: valExpr}, nil
	case *ast.DPair:
		nameSym, ok := target.Car.(ast.DSymbol)
		if !ok {
			return nil, fmt.Errorf("define: procedure name must be an identifier")
		}
		formals, err := parseFormals(target.Cdr)
		if err != nil {
			return nil, fmt.Errorf("define %s: %w", nameSym.Name, err)
		}
		body, err := e.expandBody(rest.Cdr, env)
		if err != nil {
			return nil, err
		}
		return &ast.Define{ID: nameSym.ID, Name: nameSym.Name, Value: &ast.Lambda{Formals: formals, Body: body, Name: nameSym.Name}}, nil
	default:
		return nil, fmt.Errorf("define: malformed target")
	}
}

func (e *Expander) expandSet(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	if len(items) != 2 {
		return nil, fmt.Errorf("set! requires exactly a variable and a value")
	}
	s, ok := items[0].(ast.DSymbol)
	if !ok {
		return nil, fmt.Errorf("set!: target must be an identifier")
	}
	val, err := e.Expand(items[1], env)
	if err != nil {
		return nil, err
	}
	return &ast.SetVar{ID: s.ID, Name: s.Name, Value: val}, nil
}

func (e *Expander) parseBindingPair(d ast.Datum) (sym.ID, string, ast.Datum, error) {
	pair, ok := d.(*ast.DPair)
	if !ok {
		return 0, "", nil, fmt.Errorf("malformed binding")
	}
	s, ok := pair.Car.(ast.DSymbol)
	if !ok {
		return 0, "", nil, fmt.Errorf("binding name must be an identifier")
	}
	items, _ := properItems(pair.Cdr)
	if len(items) > 1 {
		return 0, "", nil, fmt.Errorf("binding %s: too many operands", s.Name)
	}
	var init ast.Datum = ast.DNull{}
	if len(items) == 1 {
		init = items[0]
	}
	return s.ID, s.Name, init, nil
}

func (e *Expander) expandLet(form *ast.DPair, env *SyntaxEnv, kind ast.LetKind) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("let requires bindings and a body")
	}

	name := ""
	var nameID sym.ID
	if kind == ast.LetPlain {
		if s, ok := rest.Car.(ast.DSymbol); ok {
			name = s.Name
			nameID = s.ID
			rest, ok = rest.Cdr.(*ast.DPair)
			if !ok {
				return nil, fmt.Errorf("named let requires bindings and a body")
			}
		}
	}

	bindingItems, _ := properItems(rest.Car)
	bindings := make([]ast.Binding, 0, len(bindingItems))
	for _, bd := range bindingItems {
		id, bname, initD, err := e.parseBindingPair(bd)
		if err != nil {
			return nil, fmt.Errorf("let: %w", err)
		}
		initExpr, err := e.Expand(initD, env)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ast.Binding{ID: id, Name: bname, Init: initExpr})
	}

	body, err := e.expandBody(rest.Cdr, env)
	if err != nil {
		return nil, err
	}
	return &ast.Let{Kind: kind, Bindings: bindings, Body: body, Name: name, NameID: nameID}, nil
}

func (e *Expander) expandLetValues(form *ast.DPair, env *SyntaxEnv, star bool) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("let-values requires bindings and a body")
	}
	bindingItems, _ := properItems(rest.Car)
	bindings := make([]ast.LetValuesBinding, 0, len(bindingItems))
	for _, bd := range bindingItems {
		pair, ok := bd.(*ast.DPair)
		if !ok {
			return nil, fmt.Errorf("let-values: malformed binding")
		}
		formals, err := parseFormals(pair.Car)
		if err != nil {
			return nil, fmt.Errorf("let-values: %w", err)
		}
		items, _ := properItems(pair.Cdr)
		if len(items) != 1 {
			return nil, fmt.Errorf("let-values: binding must have exactly one producer")
		}
		init, err := e.Expand(items[0], env)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ast.LetValuesBinding{Formals: formals, Init: init})
	}
	body, err := e.expandBody(rest.Cdr, env)
	if err != nil {
		return nil, err
	}
	return &ast.LetValues{Star: star, Bindings: bindings, Body: body}, nil
}

func (e *Expander) expandCond(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	clauses := make([]ast.CondClause, 0, len(items))
	for _, it := range items {
		clausePair, ok := it.(*ast.DPair)
		if !ok {
			return nil, fmt.Errorf("cond clause must be a list")
		}
		clauseItems, _ := properItems(clausePair)
		var clause ast.CondClause
		if s, ok := clauseItems[0].(ast.DSymbol); ok && s.Name == "else" {
			body, err := e.expandAll(clauseItems[1:], env)
			if err != nil {
				return nil, err
			}
			clause = ast.CondClause{Body: body}
		} else {
			test, err := e.Expand(clauseItems[0], env)
			if err != nil {
				return nil, err
			}
			clause.Test = test
			if len(clauseItems) >= 2 {
				if s, ok := clauseItems[1].(ast.DSymbol); ok && s.Name == "=>" {
					if len(clauseItems) != 3 {
						return nil, fmt.Errorf("cond: malformed => clause")
					}
					arrow, err := e.Expand(clauseItems[2], env)
					if err != nil {
						return nil, err
					}
					clause.Arrow = arrow
				} else {
					body, err := e.expandAll(clauseItems[1:], env)
					if err != nil {
						return nil, err
					}
					clause.Body = body
				}
			}
		}
		clauses = append(clauses, clause)
	}
	return &ast.Cond{Clauses: clauses}, nil
}

func (e *Expander) expandCase(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("case requires a key and clauses")
	}
	key, err := e.Expand(rest.Car, env)
	if err != nil {
		return nil, err
	}
	items, _ := properItems(rest.Cdr)
	clauses := make([]ast.CaseClause, 0, len(items))
	for _, it := range items {
		clausePair, ok := it.(*ast.DPair)
		if !ok {
			return nil, fmt.Errorf("case clause must be a list")
		}
		clauseItems, _ := properItems(clausePair)
		var clause ast.CaseClause
		if s, ok := clauseItems[0].(ast.DSymbol); ok && s.Name == "else" {
			clause.Datums = nil
		} else {
			datums, _ := properItems(clauseItems[0])
			clause.Datums = datums
		}
		if len(clauseItems) >= 2 {
			if s, ok := clauseItems[1].(ast.DSymbol); ok && s.Name == "=>" {
				if len(clauseItems) != 3 {
					return nil, fmt.Errorf("case: malformed => clause")
				}
				arrow, err := e.Expand(clauseItems[2], env)
				if err != nil {
					return nil, err
				}
				clause.Arrow = arrow
			} else {
				body, err := e.expandAll(clauseItems[1:], env)
				if err != nil {
					return nil, err
				}
				clause.Body = body
			}
		}
		clauses = append(clauses, clause)
	}
	return &ast.Case{Key: key, Clauses: clauses}, nil
}

func (e *Expander) expandWhenUnless(form *ast.DPair, env *SyntaxEnv, unless bool) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("when/unless requires a test and a body")
	}
	test, err := e.Expand(rest.Car, env)
	if err != nil {
		return nil, err
	}
	body, err := e.expandBody(rest.Cdr, env)
	if err != nil {
		return nil, err
	}
	if unless {
		return &ast.Unless{Test: test, Body: body}, nil
	}
	return &ast.When{Test: test, Body: body}, nil
}

func (e *Expander) expandParameterize(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("parameterize requires bindings and a body")
	}
	bindingItems, _ := properItems(rest.Car)
	bindings := make([]ast.ParameterBinding, 0, len(bindingItems))
	for _, bd := range bindingItems {
		items, _ := properItems(bd)
		if len(items) != 2 {
			return nil, fmt.Errorf("parameterize: malformed binding")
		}
		param, err := e.Expand(items[0], env)
		if err != nil {
			return nil, err
		}
		val, err := e.Expand(items[1], env)
		if err != nil {
			return nil, err
		}
		bindings = append(bindings, ast.ParameterBinding{Parameter: param, Value: val})
	}
	body, err := e.expandBody(rest.Cdr, env)
	if err != nil {
		return nil, err
	}
	return &ast.Parameterize{Bindings: bindings, Body: body}, nil
}

func (e *Expander) expandGuard(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("guard requires a clause spec and a body")
	}
	spec, ok := rest.Car.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("guard: malformed condition variable/clauses")
	}
	varSym, ok := spec.Car.(ast.DSymbol)
	if !ok {
		return nil, fmt.Errorf("guard: condition variable must be an identifier")
	}
	clauseItems, _ := properItems(spec.Cdr)
	clauses := make([]ast.GuardClause, 0, len(clauseItems))
	for _, it := range clauseItems {
		clausePair, ok := it.(*ast.DPair)
		if !ok {
			return nil, fmt.Errorf("guard clause must be a list")
		}
		items, _ := properItems(clausePair)
		var clause ast.GuardClause
		if s, ok := items[0].(ast.DSymbol); ok && s.Name == "else" {
			body, err := e.expandAll(items[1:], env)
			if err != nil {
				return nil, err
			}
			clause.Body = body
		} else {
			test, err := e.Expand(items[0], env)
			if err != nil {
				return nil, err
			}
			clause.Test = test
			if len(items) >= 2 {
				if s, ok := items[1].(ast.DSymbol); ok && s.Name == "=>" {
					arrow, err := e.Expand(items[2], env)
					if err != nil {
						return nil, err
					}
					clause.Arrow = arrow
				} else {
					body, err := e.expandAll(items[1:], env)
					if err != nil {
						return nil, err
					}
					clause.Body = body
				}
			}
		}
		clauses = append(clauses, clause)
	}
	body, err := e.expandBody(rest.Cdr, env)
	if err != nil {
		return nil, err
	}
	return &ast.Guard{Var: varSym.ID, VarName: varSym.Name, Clauses: clauses, Body: body}, nil
}

func parseSyntaxRules(d ast.Datum) (ast.SyntaxRules, error) {
	pair, ok := d.(*ast.DPair)
	if !ok {
		return ast.SyntaxRules{}, fmt.Errorf("expected a syntax-rules form")
	}
	head, ok := pair.Car.(ast.DSymbol)
	if !ok || head.Name != "syntax-rules" {
		return ast.SyntaxRules{}, fmt.Errorf("only syntax-rules transformers are supported")
	}
	items, _ := properItems(pair.Cdr)
	if len(items) < 1 {
		return ast.SyntaxRules{}, fmt.Errorf("malformed syntax-rules form")
	}

	ellipsis := "..."
	idx := 0
	if s, ok := items[0].(ast.DSymbol); ok {
		ellipsis = s.Name
		idx = 1
	}
	if idx >= len(items) {
		return ast.SyntaxRules{}, fmt.Errorf("malformed syntax-rules form")
	}
	litItems, _ := properItems(items[idx])
	literals := make([]sym.ID, 0, len(litItems))
	for _, l := range litItems {
		s, ok := l.(ast.DSymbol)
		if !ok {
			return ast.SyntaxRules{}, fmt.Errorf("syntax-rules literal must be an identifier")
		}
		literals = append(literals, s.ID)
	}

	var rules []ast.SyntaxRule
	for _, r := range items[idx+1:] {
		rp, ok := r.(*ast.DPair)
		if !ok {
			return ast.SyntaxRules{}, fmt.Errorf("malformed syntax-rules clause")
		}
		clauseItems, _ := properItems(rp)
		if len(clauseItems) != 2 {
			return ast.SyntaxRules{}, fmt.Errorf("syntax-rules clause must have exactly a pattern and a template")
		}
		rules = append(rules, ast.SyntaxRule{Pattern: clauseItems[0], Template: clauseItems[1]})
	}
	return ast.SyntaxRules{Ellipsis: ellipsis, Literals: literals, Rules: rules}, nil
}

func (e *Expander) expandDefineSyntax(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	if len(items) != 2 {
		return nil, fmt.Errorf("define-syntax requires exactly a keyword and a transformer")
	}
	nameSym, ok := items[0].(ast.DSymbol)
	if !ok {
		return nil, fmt.Errorf("define-syntax: keyword must be an identifier")
	}
	rules, err := parseSyntaxRules(items[1])
	if err != nil {
		return nil, fmt.Errorf("define-syntax %s: %w", nameSym.Name, err)
	}
	env.Define(nameSym.ID, NewTransformer(nameSym.Name, rules, env))
	return &ast.DefineSyntax{ID: nameSym.ID, Name: nameSym.Name, Rules: rules}, nil
}

func (e *Expander) expandLetSyntax(form *ast.DPair, env *SyntaxEnv, kind ast.LetSyntaxKind) (ast.Expr, error) {
	rest, ok := form.Cdr.(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("let-syntax requires bindings and a body")
	}
	inner := NewEnclosedSyntaxEnv(env)
	defEnv := env
	if kind == ast.LetRecSyntax {
		defEnv = inner
	}

	bindingItems, _ := properItems(rest.Car)
	bindings := make([]ast.SyntaxBinding, 0, len(bindingItems))
	for _, bd := range bindingItems {
		pair, ok := bd.(*ast.DPair)
		if !ok {
			return nil, fmt.Errorf("let-syntax: malformed binding")
		}
		items, _ := properItems(pair)
		if len(items) != 2 {
			return nil, fmt.Errorf("let-syntax: malformed binding")
		}
		nameSym, ok := items[0].(ast.DSymbol)
		if !ok {
			return nil, fmt.Errorf("let-syntax: keyword must be an identifier")
		}
		rules, err := parseSyntaxRules(items[1])
		if err != nil {
			return nil, fmt.Errorf("let-syntax %s: %w", nameSym.Name, err)
		}
		inner.Define(nameSym.ID, NewTransformer(nameSym.Name, rules, defEnv))
		bindings = append(bindings, ast.SyntaxBinding{ID: nameSym.ID, Name: nameSym.Name, Rules: rules})
	}

	body, err := e.expandBody(rest.Cdr, inner)
	if err != nil {
		return nil, err
	}
	return &ast.LetSyntax{Kind: kind, Bindings: bindings, Body: body}, nil
}

// expandDo desugars `(do ((var init step)...) (test result...)
// command...)` into a named let: a self-recursive tail call matches R7RS
// `do`'s iteration semantics exactly, so no dedicated AST node or evaluator
// case is needed.
func (e *Expander) expandDo(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	if len(items) < 2 {
		return nil, fmt.Errorf("do requires bindings and a test clause")
	}

	type doBinding struct {
		id sym.ID
		name string
		init ast.Datum
		step ast.Datum // nil means unchanged across iterations
	}
	bindingItems, _ := properItems(items[0])
	bindings := make([]doBinding, 0, len(bindingItems))
	for _, bd := range bindingItems {
		parts, _ := properItems(bd)
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("do: malformed binding")
		}
		s, ok := parts[0].(ast.DSymbol)
		if !ok {
			return nil, fmt.Errorf("do: binding name must be an identifier")
		}
		b := doBinding{id: s.ID, name: s.Name, init: parts[1]}
		if len(parts) == 3 {
			b.step = parts[2]
		}
		bindings = append(bindings, b)
	}

	testClause, _ := properItems(items[1])
	if len(testClause) < 1 {
		return nil, fmt.Errorf("do: missing test expression")
	}
	testD := testClause[0]
	resultD := testClause[1:]
	commandsD := items[2:]

	loopName := "do-loop-" + uuid.NewString()
	loopID := e.interner.Intern(loopName)

	letBindings := make([]ast.Binding, len(bindings))
	for i, b := range bindings {
		initExpr, err := e.Expand(b.init, env)
		if err != nil {
			return nil, err
		}
		letBindings[i] = ast.Binding{ID: b.id, Name: b.name, Init: initExpr}
	}

	testExpr, err := e.Expand(testD, env)
	if err != nil {
		return nil, err
	}
	resultExprs, err := e.expandAll(resultD, env)
	if err != nil {
		return nil, err
	}
	commandExprs, err := e.expandAll(commandsD, env)
	if err != nil {
		return nil, err
	}

	stepArgs := make([]ast.Expr, len(bindings))
	for i, b := range bindings {
		if b.step != nil {
			se, err := e.Expand(b.step, env)
			if err != nil {
				return nil, err
			}
			stepArgs[i] = se
		} else {
			stepArgs[i] = &ast.Variable{ID: b.id, Name: b.name}
		}
	}
	loopCall := &ast.Application{Operator: &ast.Variable{ID: loopID, Name: loopName}, Args: stepArgs}

	loopBody := append(append([]ast.Expr{}, commandExprs...), loopCall)

	ifNode := &ast.If{
		Test: testExpr,
		Consequent: &ast.Begin{Body: resultExprs},
		Alternative: &ast.Begin{Body: loopBody},
	}

	return &ast.Let{Kind: ast.LetPlain, Bindings: letBindings, Body: []ast.Expr{ifNode}, Name: loopName, NameID: loopID}, nil
}

// expandDefineRecordType parses R7RS `define-record-type` into a dedicated
// AST node (see ast.DefineRecordType's doc comment for why this one
// keyword gets a real node instead of a rewrite): `(define-record-type
// <name> (ctor field...) pred (field accessor [mutator])...)`.
func (e *Expander) expandDefineRecordType(form *ast.DPair, env *SyntaxEnv) (ast.Expr, error) {
	items, _ := properItems(form.Cdr)
	if len(items) < 3 {
		return nil, fmt.Errorf("define-record-type requires a type name, constructor spec, and predicate")
	}

	var typeSym ast.DSymbol
	switch t := items[0].(type) {
	case ast.DSymbol:
		typeSym = t
	case *ast.DPair:
		s, ok := t.Car.(ast.DSymbol)
		if !ok {
			return nil, fmt.Errorf("define-record-type: malformed type name")
		}
		typeSym = s
	default:
		return nil, fmt.Errorf("define-record-type: malformed type name")
	}

	ctorForm, ok := items[1].(*ast.DPair)
	if !ok {
		return nil, fmt.Errorf("define-record-type: malformed constructor spec")
	}
	ctorNameSym, ok := ctorForm.Car.(ast.DSymbol)
	if !ok {
		return nil, fmt.Errorf("define-record-type: constructor name must be an identifier")
	}
	ctorFieldItems, _ := properItems(ctorForm.Cdr)
	ctorFieldNames := make([]string, len(ctorFieldItems))
	for i, it := range ctorFieldItems {
		s, ok := it.(ast.DSymbol)
		if !ok {
			return nil, fmt.Errorf("define-record-type: constructor field must be an identifier")
		}
		ctorFieldNames[i] = s.Name
	}

	predSym, ok := items[2].(ast.DSymbol)
	if !ok {
		return nil, fmt.Errorf("define-record-type: predicate name must be an identifier")
	}

	var fields []ast.RecordField
	fieldIndex := make(map[string]int)
	for _, fd := range items[3:] {
		parts, _ := properItems(fd)
		if len(parts) < 2 {
			return nil, fmt.Errorf("define-record-type: malformed field spec")
		}
		nameSym, ok := parts[0].(ast.DSymbol)
		if !ok {
			return nil, fmt.Errorf("define-record-type: field name must be an identifier")
		}
		accSym, ok := parts[1].(ast.DSymbol)
		if !ok {
			return nil, fmt.Errorf("define-record-type: accessor name must be an identifier")
		}
		rf := ast.RecordField{Name: nameSym.Name, AccessorID: accSym.ID, AccessorName: accSym.Name}
		if len(parts) >= 3 {
			mutSym, ok := parts[2].(ast.DSymbol)
			if !ok {
				return nil, fmt.Errorf("define-record-type: mutator name must be an identifier")
			}
			rf.MutatorID = mutSym.ID
			rf.MutatorName = mutSym.Name
			rf.HasMutator = true
		}
		fieldIndex[nameSym.Name] = len(fields)
		fields = append(fields, rf)
	}

	ctorFields := make([]int, len(ctorFieldNames))
	for i, name := range ctorFieldNames {
		idx, ok := fieldIndex[name]
		if !ok {
			return nil, fmt.Errorf("define-record-type: constructor field %q not declared", name)
		}
		ctorFields[i] = idx
	}

	return &ast.DefineRecordType{
		TypeID: typeSym.ID,
		TypeName: typeSym.Name,
		ConstructorID: ctorNameSym.ID,
		ConstructorName: ctorNameSym.Name,
		ConstructorFields: ctorFields,
		PredicateID: predSym.ID,
		PredicateName: predSym.Name,
		Fields: fields,
	}, nil
}

func (e *Expander) expandQQ(d ast.Datum, env *SyntaxEnv, depth int) (ast.QQTemplate, error) {
	pair, ok := d.(*ast.DPair)
	if !ok {
		if vec, ok := d.(*ast.DVector); ok {
			items := make([]ast.QQTemplate, 0, len(vec.Items))
			for _, it := range vec.Items {
				t, err := e.expandQQ(it, env, depth)
				if err != nil {
					return nil, err
				}
				items = append(items, t)
			}
			return ast.QQVector{Items: items}, nil
		}
		return ast.QQLiteral{Value: d}, nil
	}

	if head, ok := pair.Car.(ast.DSymbol); ok {
		items, _ := properItems(pair.Cdr)
		switch head.Name {
		case "unquote":
			if len(items) != 1 {
				return nil, fmt.Errorf("malformed unquote")
			}
			if depth == 1 {
				ex, err := e.Expand(items[0], env)
				if err != nil {
					return nil, err
				}
				return ast.QQUnquote{Expr: ex}, nil
			}
			inner, err := e.expandQQ(items[0], env, depth-1)
			if err != nil {
				return nil, err
			}
			return ast.QQList{Items: []ast.QQTemplate{ast.QQLiteral{Value: ast.DSymbol{ID: head.ID, Name: head.Name}}, inner}}, nil
		case "unquote-splicing":
			if len(items) != 1 {
				return nil, fmt.Errorf("malformed unquote-splicing")
			}
			if depth == 1 {
				ex, err := e.Expand(items[0], env)
				if err != nil {
					return nil, err
				}
				return ast.QQUnquoteSplicing{Expr: ex}, nil
			}
			inner, err := e.expandQQ(items[0], env, depth-1)
			if err != nil {
				return nil, err
			}
			return ast.QQList{Items: []ast.QQTemplate{ast.QQLiteral{Value: ast.DSymbol{ID: head.ID, Name: head.Name}}, inner}}, nil
		case "quasiquote":
			if len(items) != 1 {
				return nil, fmt.Errorf("malformed quasiquote")
			}
			innerTmpl, err := e.expandQQ(items[0], env, depth+1)
			if err != nil {
				return nil, err
			}
			return ast.QQNested{Inner: &ast.QuasiquoteExpr{Template: innerTmpl, Depth: depth + 1}}, nil
		}
	}

	elems, tail := flatten(pair)
	qitems := make([]ast.QQTemplate, 0, len(elems))
	for _, it := range elems {
		t, err := e.expandQQ(it, env, depth)
		if err != nil {
			return nil, err
		}
		qitems = append(qitems, t)
	}
	var qtail ast.QQTemplate
	if _, ok := tail.(ast.DNull); !ok {
		t, err := e.expandQQ(tail, env, depth)
		if err != nil {
			return nil, err
		}
		qtail = t
	}
	return ast.QQList{Items: qitems, Tail: qtail}, nil
}
