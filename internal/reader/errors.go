package reader

import (
	"fmt"

	"github.com/go-scm/go-scm/internal/lexer"
)

// ErrorKind categorizes a read error: syntax/unexpected/missing/invalid,
// covering what an S-expression reader can actually produce (there is no
// "ambiguous" category — reading never backtracks between competing
// grammar productions).
type ErrorKind string

const (
	ErrKindSyntax     ErrorKind = "syntax"
	ErrKindUnexpected ErrorKind = "unexpected"
	ErrKindMissing    ErrorKind = "missing"
	ErrKindInvalid    ErrorKind = "invalid"
)

// ReadError is one failure encountered while reading, with enough context
// to render a caret-pointed diagnostic via internal/errors.
type ReadError struct {
	Kind    ErrorKind
	Message string
	Pos     lexer.Position
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("%s at %d:%d: %s", e.Kind, e.Pos.Line, e.Pos.Column, e.Message)
}

func (r *Reader) errorf(pos lexer.Position, kind ErrorKind, format string, args ...any) *ReadError {
	e := &ReadError{Kind: kind, Message: fmt.Sprintf(format, args...), Pos: pos}
	r.errors = append(r.errors, e)
	return e
}

// synchronize discards tokens until it reaches a plausible restart point —
// a closing delimiter at or below the depth the error was raised at, or
// EOF. This is panic-mode error recovery, simplified because an
// S-expression grammar has exactly one family of recovery points (balanced
// delimiters) instead of statement/declaration/block-closer sets.
func (r *Reader) synchronize() {
	if !r.cfg.AggressiveRecovery {
		return
	}
	depth := 0
	for {
		tok := r.l.Peek(0)
		switch tok.Type {
		case lexer.EOF:
			return
		case lexer.LeftParen, lexer.LeftBracket, lexer.VectorStart, lexer.BytevectorStart:
			depth++
		case lexer.RightParen, lexer.RightBracket:
			if depth == 0 {
				r.l.NextToken()
				return
			}
			depth--
		}
		r.l.NextToken()
	}
}
