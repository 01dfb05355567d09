package reader

import (
	"github.com/go-scm/go-scm/internal/ast"
	"github.com/go-scm/go-scm/internal/lexer"
	"github.com/go-scm/go-scm/internal/sym"
)

// Reader consumes a token stream and produces Datum values, one per
// top-level form, resolving datum labels as it goes.
type Reader struct {
	l *lexer.Lexer
	interner *sym.Interner
	cfg Config
	errors []*ReadError
	labels map[int]ast.Datum
	depth int
}

func newReader(src string, interner *sym.Interner, cfg Config) *Reader {
	return &Reader{
		l: lexer.New(src),
		interner: interner,
		cfg: cfg,
		labels: make(map[int]ast.Datum),
	}
}

// Errors returns every read error accumulated so far.
func (r *Reader) Errors() []*ReadError { return r.errors }

// ReadAll reads every top-level datum in the source, recovering after each
// error so a single malformed form doesn't abort the whole file.
func (r *Reader) ReadAll() ([]ast.Datum, []*ReadError) {
	var forms []ast.Datum
	for {
		if r.l.Peek(0).Type == lexer.EOF {
			break
		}
		if len(r.errors) >= r.cfg.MaxErrors {
			break
		}
		d, err := r.ReadDatum()
		if err != nil {
			r.synchronize()
			continue
		}
		forms = append(forms, d)
	}
	r.errors = append(r.errors, lexErrorsAsReadErrors(r.l.Errors())...)
	return forms, r.errors
}

func lexErrorsAsReadErrors(lexErrs []lexer.LexerError) []*ReadError {
	out := make([]*ReadError, 0, len(lexErrs))
	for _, e := range lexErrs {
		out = append(out, &ReadError{Kind: ErrKindSyntax, Message: e.Message, Pos: e.Pos})
	}
	return out
}

// ReadDatum reads one complete datum, transparently skipping any number of
// leading `#;` datum comments.
func (r *Reader) ReadDatum() (ast.Datum, error) {
	for {
		tok := r.l.NextToken()
		if tok.Type == lexer.DatumComment {
			if _, err := r.ReadDatum(); err != nil {
				return nil, err
			}
			continue
		}
		return r.fromToken(tok)
	}
}

func (r *Reader) fromToken(tok lexer.Token) (ast.Datum, error) {
	switch tok.Type {
	case lexer.EOF:
		return nil, r.errorf(tok.Span.Start, ErrKindMissing, "unexpected end of input")
	case lexer.LeftParen:
		return r.readList(lexer.RightParen)
	case lexer.LeftBracket:
		return r.readList(lexer.RightBracket)
	case lexer.VectorStart:
		return r.readVector()
	case lexer.BytevectorStart:
		return r.readBytevector()
	case lexer.Quote:
		return r.readShorthand("quote")
	case lexer.Quasiquote:
		return r.readShorthand("quasiquote")
	case lexer.Unquote:
		return r.readShorthand("unquote")
	case lexer.UnquoteSplicing:
		return r.readShorthand("unquote-splicing")
	case lexer.Boolean:
		return ast.DBool{Value: tok.Literal == "#t" || tok.Literal == "#true"}, nil
	case lexer.Integer, lexer.Rational, lexer.Real, lexer.Complex:
		return r.parseNumberTok(tok)
	case lexer.String:
		return ast.DString{Value: tok.Literal}, nil
	case lexer.Character:
		rs := []rune(tok.Literal)
		if len(rs) == 0 {
			return nil, r.errorf(tok.Span.Start, ErrKindInvalid, "empty character literal")
		}
		return ast.DChar{Value: rs[0]}, nil
	case lexer.Identifier:
		return ast.DSymbol{ID: r.interner.Intern(tok.Literal), Name: tok.Literal}, nil
	case lexer.DatumLabelDef:
		return r.readLabeledDatum(tok)
	case lexer.DatumLabelRef:
		return r.readLabelRef(tok)
	case lexer.RightParen, lexer.RightBracket:
		return nil, r.errorf(tok.Span.Start, ErrKindUnexpected, "unexpected %s", tok.Type)
	case lexer.Dot:
		return nil, r.errorf(tok.Span.Start, ErrKindUnexpected, "unexpected \".\" outside a list")
	default:
		return nil, r.errorf(tok.Span.Start, ErrKindSyntax, "unexpected token %s %q", tok.Type, tok.Literal)
	}
}

// parseNumberTok parses a number token's literal, recording a ReadError
// (and returning it) on failure rather than propagating a bare error that
// wouldn't show up in Errors().
func (r *Reader) parseNumberTok(tok lexer.Token) (ast.Datum, error) {
	d, err := parseNumber(tok.Type, tok.Literal)
	if err != nil {
		re := err.(*ReadError)
		re.Pos = tok.Span.Start
		r.errors = append(r.errors, re)
		return nil, re
	}
	return d, nil
}

func (r *Reader) readShorthand(name string) (ast.Datum, error) {
	d, err := r.ReadDatum()
	if err != nil {
		return nil, err
	}
	sym := ast.DSymbol{ID: r.interner.Intern(name), Name: name}
	return ast.DatumList(sym, d), nil
}

func closerName(closer lexer.TokenType) string {
	if closer == lexer.RightBracket {
		return "]"
	}
	return ")"
}

func (r *Reader) readList(closer lexer.TokenType) (ast.Datum, error) {
	items, tail, err := r.readListBody(closer)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return ast.DNull{}, nil
	}
	return ast.DatumListDotted(items, tail), nil
}

// readListBody reads elements up to (and consuming) the closing delimiter,
// handling an optional dotted tail. It is shared by readList and the
// label-preallocating path in readLabeledDatum.
func (r *Reader) readListBody(closer lexer.TokenType) ([]ast.Datum, ast.Datum, error) {
	r.depth++
	defer func() { r.depth-- }()
	if r.depth > r.cfg.MaxNestingDepth {
		return nil, nil, r.errorf(r.l.Peek(0).Span.Start, ErrKindInvalid, "list nesting exceeds %d", r.cfg.MaxNestingDepth)
	}

	var items []ast.Datum
	tail := ast.Datum(ast.DNull{})
	for {
		peek := r.l.Peek(0)
		switch peek.Type {
		case closer:
			r.l.NextToken()
			return items, tail, nil
		case lexer.EOF:
			return nil, nil, r.errorf(peek.Span.Start, ErrKindMissing, "unexpected end of input, expected %s", closerName(closer))
		case lexer.Dot:
			r.l.NextToken()
			d, err := r.ReadDatum()
			if err != nil {
				return nil, nil, err
			}
			tail = d
			end := r.l.NextToken()
			if end.Type != closer {
				return nil, nil, r.errorf(end.Span.Start, ErrKindMissing, "expected %s after dotted tail, got %s", closerName(closer), end.Type)
			}
			return items, tail, nil
		default:
			d, err := r.ReadDatum()
			if err != nil {
				return nil, nil, err
			}
			items = append(items, d)
		}
	}
}

func (r *Reader) readVector() (ast.Datum, error) {
	var items []ast.Datum
	for {
		peek := r.l.Peek(0)
		if peek.Type == lexer.RightParen {
			r.l.NextToken()
			break
		}
		if peek.Type == lexer.EOF {
			return nil, r.errorf(peek.Span.Start, ErrKindMissing, "unexpected end of input, expected ) to close vector")
		}
		d, err := r.ReadDatum()
		if err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return &ast.DVector{Items: items}, nil
}

func (r *Reader) readBytevector() (ast.Datum, error) {
	var bytes []byte
	for {
		peek := r.l.Peek(0)
		if peek.Type == lexer.RightParen {
			r.l.NextToken()
			break
		}
		if peek.Type == lexer.EOF {
			return nil, r.errorf(peek.Span.Start, ErrKindMissing, "unexpected end of input, expected ) to close bytevector")
		}
		tok := r.l.NextToken()
		if tok.Type != lexer.Integer {
			return nil, r.errorf(tok.Span.Start, ErrKindInvalid, "bytevector element must be an exact integer 0-255, got %s", tok.Type)
		}
		d, err := r.parseNumberTok(tok)
		if err != nil {
			return nil, err
		}
		n, ok := d.(ast.DInt)
		if !ok || !n.Value.IsInt64() || n.Value.Sign() < 0 || n.Value.Int64() > 255 {
			return nil, r.errorf(tok.Span.Start, ErrKindInvalid, "bytevector element out of range 0-255: %s", tok.Literal)
		}
		bytes = append(bytes, byte(n.Value.Int64()))
	}
	return ast.DBytevector{Bytes: bytes}, nil
}

// readLabeledDatum handles `#N=datum`. When the labeled datum is itself a
// list or vector, the container is allocated before its contents are read
// so that a `#N#` reference appearing inside its own definition (the
// standard way to build a cyclic structure, e.g. `#1=(a . #1#)`) resolves
// to the very pointer being constructed.
func (r *Reader) readLabeledDatum(tok lexer.Token) (ast.Datum, error) {
	label, ok := parseLabelNumber(tok.Literal)
	if !ok {
		return nil, r.errorf(tok.Span.Start, ErrKindInvalid, "malformed datum label #%s=", tok.Literal)
	}

	next := r.l.Peek(0)
	switch next.Type {
	case lexer.LeftParen, lexer.LeftBracket:
		r.l.NextToken()
		placeholder := &ast.DPair{}
		r.labels[label] = placeholder
		items, tail, err := r.readListBody(closerFor(next.Type))
		if err != nil {
			return nil, err
		}
		if len(items) == 0 {
			r.labels[label] = ast.DNull{}
			return ast.DNull{}, nil
		}
		built := ast.DatumListDotted(items, tail).(*ast.DPair)
		*placeholder = *built
		return placeholder, nil
	case lexer.VectorStart:
		r.l.NextToken()
		placeholder := &ast.DVector{}
		r.labels[label] = placeholder
		d, err := r.readVector()
		if err != nil {
			return nil, err
		}
		placeholder.Items = d.(*ast.DVector).Items
		return placeholder, nil
	default:
		d, err := r.ReadDatum()
		if err != nil {
			return nil, err
		}
		r.labels[label] = d
		return d, nil
	}
}

func (r *Reader) readLabelRef(tok lexer.Token) (ast.Datum, error) {
	label, ok := parseLabelNumber(tok.Literal)
	if !ok {
		return nil, r.errorf(tok.Span.Start, ErrKindInvalid, "malformed datum label reference #%s#", tok.Literal)
	}
	d, ok := r.labels[label]
	if !ok {
		return nil, r.errorf(tok.Span.Start, ErrKindInvalid, "reference to undefined datum label #%d#", label)
	}
	return d, nil
}

func closerFor(open lexer.TokenType) lexer.TokenType {
	if open == lexer.LeftBracket {
		return lexer.RightBracket
	}
	return lexer.RightParen
}

func parseLabelNumber(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, false
		}
		n = n*10 + int(c-'0')
	}
	return n, true
}
