package lexer

import "testing"

func TestNextTokenBasics(t *testing.T) {
	input := `(define x (+ 1 2))`

	tests := []struct {
		expectedType TokenType
		expectedLiteral string
	}{
		{LeftParen, "("},
		{Identifier, "define"},
		{Identifier, "x"},
		{LeftParen, "("},
		{Identifier, "+"},
		{Integer, "1"},
		{Integer, "2"},
		{RightParen, ")"},
		{RightParen, ")"},
		{EOF, ""},
	}

	l := New(input)
	for i, tt := range tests {
		tok := l.NextToken()
		if tok.Type != tt.expectedType {
			t.Fatalf("tests[%d] - tokentype wrong. expected=%s, got=%s (literal=%q)",
				i, tt.expectedType, tok.Type, tok.Literal)
		}
		if tok.Literal != tt.expectedLiteral {
			t.Fatalf("tests[%d] - literal wrong. expected=%q, got=%q", i, tt.expectedLiteral, tok.Literal)
		}
	}
}

func TestQuotationShorthands(t *testing.T) {
	tests := []struct {
		input string
		types []TokenType
	}{
		{"'x", []TokenType{Quote, Identifier, EOF}},
		{"`x", []TokenType{Quasiquote, Identifier, EOF}},
		{",x", []TokenType{Unquote, Identifier, EOF}},
		{",@x", []TokenType{UnquoteSplicing, Identifier, EOF}},
	}
	for _, tt := range tests {
		l := New(tt.input)
		for i, want := range tt.types {
			got := l.NextToken().Type
			if got != want {
				t.Fatalf("%s: token %d: expected %s, got %s", tt.input, i, want, got)
			}
		}
	}
}

func TestNumberClassification(t *testing.T) {
	tests := []struct {
		input string
		want TokenType
	}{
		{"123", Integer},
		{"-123", Integer},
		{"+123", Integer},
		{"1/2", Rational},
		{"1.5", Real},
		{".5", Real},
		{"1e3", Real},
		{"3+4i", Complex},
		{"+i", Complex},
		{"#xFF", Integer},
		{"#b1010", Integer},
		{"#e1.5", Real},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != tt.want {
			t.Errorf("%q: expected %s, got %s", tt.input, tt.want, tok.Type)
		}
	}
}

func TestPeculiarIdentifiers(t *testing.T) {
	for _, lit := range []string{"+", "-", "...", "->x"} {
		l := New(lit)
		tok := l.NextToken()
		if tok.Type != Identifier || tok.Literal != lit {
			t.Errorf("%q: expected identifier %q, got %s %q", lit, lit, tok.Type, tok.Literal)
		}
	}
}

func TestStringEscapes(t *testing.T) {
	l := New(`"a\nb\t\"c\""`)
	tok := l.NextToken()
	want := "a\nb\t\"c\""
	if tok.Type != String || tok.Literal != want {
		t.Fatalf("expected %q, got %s %q", want, tok.Type, tok.Literal)
	}
}

func TestCharLiterals(t *testing.T) {
	tests := []struct {
		input string
		want string
	}{
		{`#\a`, "a"},
		{`#\space`, " "},
		{`#\newline`, "\n"},
		{`#\x41`, "A"},
	}
	for _, tt := range tests {
		l := New(tt.input)
		tok := l.NextToken()
		if tok.Type != Character || tok.Literal != tt.want {
			t.Errorf("%s: expected %q, got %s %q", tt.input, tt.want, tok.Type, tok.Literal)
		}
	}
}

func TestBooleans(t *testing.T) {
	for _, lit := range []string{"#t", "#true", "#f", "#false"} {
		l := New(lit)
		tok := l.NextToken()
		if tok.Type != Boolean {
			t.Errorf("%q: expected Boolean, got %s", lit, tok.Type)
		}
	}
}

func TestCommentsSkipped(t *testing.T) {
	input := "; line comment\n#| block #| nested |# comment |#\n(foo) #;(ignored) bar"
	l := New(input)
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	want := []TokenType{LeftParen, Identifier, RightParen, DatumComment, LeftParen, Identifier, RightParen, Identifier, EOF}
	if len(types) != len(want) {
		t.Fatalf("expected %d tokens, got %d: %v", len(want), len(types), types)
	}
	for i := range want {
		if types[i] != want[i] {
			t.Errorf("token %d: expected %s, got %s", i, want[i], types[i])
		}
	}
}

func TestUnterminatedStringIsError(t *testing.T) {
	l := New(`"abc`)
	l.NextToken()
	if len(l.Errors()) == 0 {
		t.Fatal("expected a lex error for unterminated string")
	}
}

func TestDatumLabels(t *testing.T) {
	l := New("#1=(a . #1#)")
	var types []TokenType
	for {
		tok := l.NextToken()
		types = append(types, tok.Type)
		if tok.Type == EOF {
			break
		}
	}
	want := []TokenType{DatumLabelDef, LeftParen, Identifier, Dot, DatumLabelRef, RightParen, EOF}
	if len(types) != len(want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
}

func TestBOMStripped(t *testing.T) {
	l := New("\xEF\xBB\xBF(foo)")
	tok := l.NextToken()
	if tok.Type != LeftParen {
		t.Fatalf("expected leading BOM to be stripped, got %s", tok.Type)
	}
}

func TestPeekDoesNotConsume(t *testing.T) {
	l := New("(foo bar)")
	first := l.Peek(0)
	if first.Type != LeftParen {
		t.Fatalf("expected peek to see (, got %s", first.Type)
	}
	second := l.Peek(1)
	if second.Type != Identifier || second.Literal != "foo" {
		t.Fatalf("expected peek(1) foo, got %s %q", second.Type, second.Literal)
	}
	got := l.NextToken()
	if got.Type != LeftParen {
		t.Fatalf("expected NextToken to still return (, got %s", got.Type)
	}
}

func TestSaveRestoreState(t *testing.T) {
	l := New("(a b c)")
	l.NextToken() // (
	state := l.SaveState()
	a := l.NextToken()
	l.RestoreState(state)
	a2 := l.NextToken()
	if a.Literal != a2.Literal {
		t.Fatalf("expected restored state to re-read %q, got %q", a.Literal, a2.Literal)
	}
}
