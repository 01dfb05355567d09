// Package reader turns a token stream into the generic S-expression Datum
// tree. It resolves datum labels into cyclic
// structures where needed, but never classifies a parenthesized form into a
// specific special form — that recognition happens in internal/macro, which
// consumes the Datum tree this package produces.
package reader

import "github.com/go-scm/go-scm/internal/sym"

// Config holds reader tuning knobs, separated from Reader state so a
// caller can configure a Builder before any Reader exists. The defaults
// are max_errors 10, aggressive_recovery true, max_nesting_depth 100.
type Config struct {
	MaxErrors          int
	MaxNestingDepth    int
	AggressiveRecovery bool
}

// DefaultConfig returns the tuning defaults used when none are supplied.
func DefaultConfig() Config {
	return Config{
		MaxErrors:          10,
		MaxNestingDepth:    100,
		AggressiveRecovery: true,
	}
}

// Builder provides a fluent API for constructing a Reader.
type Builder struct {
	src      string
	interner *sym.Interner
	cfg      Config
}

// NewBuilder creates a Builder with default configuration over src, interning
// symbols into interner.
func NewBuilder(src string, interner *sym.Interner) *Builder {
	return &Builder{src: src, interner: interner, cfg: DefaultConfig()}
}

// WithConfig replaces the entire configuration at once.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.cfg = cfg
	return b
}

// WithMaxErrors caps how many errors are collected before Read stops.
func (b *Builder) WithMaxErrors(n int) *Builder {
	b.cfg.MaxErrors = n
	return b
}

// WithMaxNestingDepth caps list/vector nesting to guard against stack
// overflow on pathological input.
func (b *Builder) WithMaxNestingDepth(n int) *Builder {
	b.cfg.MaxNestingDepth = n
	return b
}

// WithAggressiveRecovery toggles panic-mode synchronization after an error.
func (b *Builder) WithAggressiveRecovery(on bool) *Builder {
	b.cfg.AggressiveRecovery = on
	return b
}

// Build constructs the Reader.
func (b *Builder) Build() *Reader {
	return newReader(b.src, b.interner, b.cfg)
}
