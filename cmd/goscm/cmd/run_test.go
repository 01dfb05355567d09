package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/go-scm/go-scm/pkg/goscm"
)

// TestEvalSourceExitCodeMapping checks that evalSource classifies each
// failure kind into the right process exit code.
func TestEvalSourceExitCodeMapping(t *testing.T) {
	cases := []struct {
		name     string
		src      string
		wantCode int
	}{
		{"success", `(+ 1 2)`, 0},
		{"syntax-error", `(+ 1 2`, 2},
		{"uncaught-condition", `(error "boom")`, 1},
		{"unbound-variable", `(this-does-not-exist)`, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine, err := goscm.New()
			if err != nil {
				t.Fatalf("goscm.New: %v", err)
			}
			gotErr := evalSource(engine, tc.src, "<test>")
			if tc.wantCode == 0 {
				if gotErr != nil {
					t.Fatalf("evalSource(%q) = %v, want nil", tc.src, gotErr)
				}
				return
			}
			ee, ok := gotErr.(*exitError)
			if !ok {
				t.Fatalf("evalSource(%q) returned %T, want *exitError", tc.src, gotErr)
			}
			if ee.code != tc.wantCode {
				t.Errorf("evalSource(%q) exit code = %d, want %d", tc.src, ee.code, tc.wantCode)
			}
		})
	}
}

func TestRunMainExecutesScriptFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "prog.scm")
	if err := os.WriteFile(path, []byte(`(display "ok")`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	prevEval, prevLoad := evalExpr, loadFiles
	evalExpr, loadFiles = "", nil
	defer func() { evalExpr, loadFiles = prevEval, prevLoad }()

	if err := runMain(rootCmd, []string{path}); err != nil {
		t.Fatalf("runMain(%s) = %v, want nil", path, err)
	}
}

func TestRunMainRejectsNoInput(t *testing.T) {
	prevEval, prevLoad := evalExpr, loadFiles
	evalExpr, loadFiles = "", nil
	defer func() { evalExpr, loadFiles = prevEval, prevLoad }()

	err := runMain(rootCmd, nil)
	ee, ok := err.(*exitError)
	if !ok || ee.code != 3 {
		t.Errorf("runMain(no args) = %v, want exit code 3 (bad invocation)", err)
	}
}
