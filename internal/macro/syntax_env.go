package macro

import "github.com/go-scm/go-scm/internal/sym"

// SyntaxEnv is a chain of scopes binding identifiers to macro transformers,
// paired 1:1 with the variable Environment chain built during expansion.
type SyntaxEnv struct {
	macros map[sym.ID]*Transformer
	outer  *SyntaxEnv
}

func NewSyntaxEnv() *SyntaxEnv {
	return &SyntaxEnv{macros: make(map[sym.ID]*Transformer)}
}

func NewEnclosedSyntaxEnv(outer *SyntaxEnv) *SyntaxEnv {
	return &SyntaxEnv{macros: make(map[sym.ID]*Transformer), outer: outer}
}

func (s *SyntaxEnv) Define(id sym.ID, tr *Transformer) {
	s.macros[id] = tr
}

func (s *SyntaxEnv) Lookup(id sym.ID) (*Transformer, bool) {
	for env := s; env != nil; env = env.outer {
		if tr, ok := env.macros[id]; ok {
			return tr, true
		}
	}
	return nil, false
}
