package module_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-scm/go-scm/internal/builtins"
	"github.com/go-scm/go-scm/internal/module"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/internal/sym"
)

func TestLoadResolvesExportsAndCaches(t *testing.T) {
	dir := t.TempDir()
	src := `
(define (square x) (* x x))
(define secret 1)
(export square)
`
	if err := os.WriteFile(filepath.Join(dir, "mathlib.scm"), []byte(src), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	interner := sym.New()
	base := runtime.NewEnvironment()
	builtins.Install(interner, base)

	loader := module.NewLoader(interner, []string{dir})
	defer loader.Close()

	exports, err := loader.Load("mathlib", base)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	squareID := interner.Intern("square")
	proc, ok := exports[squareID]
	if !ok {
		t.Fatal("exports missing \"square\"")
	}
	closure, ok := proc.(*runtime.Closure)
	if !ok {
		t.Fatalf("square bound to %T, want *runtime.Closure", proc)
	}
	_ = closure

	if _, ok := exports[interner.Intern("secret")]; ok {
		t.Error("exports contains unexported \"secret\"")
	}

	exports2, err := loader.Load("mathlib", base)
	if err != nil {
		t.Fatalf("second Load: %v", err)
	}
	if len(exports2) != len(exports) {
		t.Errorf("cached Load returned a different export set")
	}
}

func TestLoadReportsModuleNotFound(t *testing.T) {
	interner := sym.New()
	base := runtime.NewEnvironment()
	builtins.Install(interner, base)

	loader := module.NewLoader(interner, []string{t.TempDir()})
	defer loader.Close()

	if _, err := loader.Load("nope", base); err == nil {
		t.Error("Load(\"nope\") = nil error, want module-not-found")
	}
}
