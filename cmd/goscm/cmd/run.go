package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/go-scm/go-scm/internal/errors"
	"github.com/go-scm/go-scm/internal/reader"
	"github.com/go-scm/go-scm/internal/runtime"
	"github.com/go-scm/go-scm/pkg/goscm"
)

var (
	evalExpr  string
	loadFiles []string
)

func init() {
	rootCmd.Args = cobra.MaximumNArgs(1)
	rootCmd.RunE = runMain

	rootCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate expr instead of reading a script")
	rootCmd.Flags().StringArrayVar(&loadFiles, "load", nil, "evaluate file before the main script or expression; may be repeated")
}

// runMain builds an engine, runs every --load file in order, then runs the
// main program (an --eval expression, a single positional script file, or
// "-" for standard input), translating failures into process exit codes.
// There is no separate type-checking or AST-dump phase: this is a single
// read → expand → evaluate pipeline throughout.
func runMain(_ *cobra.Command, args []string) error {
	verbose, _ := rootCmd.PersistentFlags().GetBool("verbose")

	var searchPaths []string
	if len(args) == 1 && args[0] != "-" {
		searchPaths = append(searchPaths, filepath.Dir(args[0]))
	}

	engine, err := goscm.New(goscm.WithSearchPaths(searchPaths...))
	if err != nil {
		return exitCode(3, fmt.Errorf("failed to initialize engine: %w", err))
	}

	for _, path := range loadFiles {
		if verbose {
			fmt.Fprintf(os.Stderr, "loading %s\n", path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return exitCode(3, fmt.Errorf("failed to read %s: %w", path, err))
		}
		if err := evalSource(engine, string(src), path); err != nil {
			return err
		}
	}

	switch {
	case evalExpr != "":
		return evalSource(engine, evalExpr, "")
	case len(args) == 1 && args[0] == "-":
		src, err := io.ReadAll(os.Stdin)
		if err != nil {
			return exitCode(3, fmt.Errorf("failed to read standard input: %w", err))
		}
		return evalSource(engine, string(src), "<stdin>")
	case len(args) == 1:
		src, err := os.ReadFile(args[0])
		if err != nil {
			return exitCode(3, fmt.Errorf("failed to read %s: %w", args[0], err))
		}
		return evalSource(engine, string(src), args[0])
	case len(loadFiles) > 0:
		// --load with nothing else to run is a legitimate preload-only
		// invocation (e.g. warming a module cache); nothing left to do.
		return nil
	default:
		return exitCode(3, fmt.Errorf("no input: provide a script file, \"-\" for standard input, or --eval"))
	}
}

// evalSource runs one unit of source through the engine and maps any
// failure to a process exit code: a reader-stage failure is 2 (syntax/lex
// error), an unhandled Scheme condition is 1 (uncaught user condition),
// anything else (I/O, cancellation) falls back to 3. filename labels the
// source for a reader-stage failure's diagnostic (empty for an --eval
// expression, which has no backing file).
func evalSource(engine *goscm.Engine, src, filename string) error {
	_, err := engine.Eval(src)
	if err == nil {
		return nil
	}
	if rerr, ok := err.(*reader.ReadError); ok {
		ce := errors.NewCompilerError(rerr.Pos, fmt.Sprintf("%s: %s", rerr.Kind, rerr.Message), src, filename)
		return exitCode(2, fmt.Errorf("%s", ce.FormatWithContext(2, false)))
	}
	if sig, ok := err.(*runtime.RaiseSignal); ok {
		return exitCode(1, sig)
	}
	return exitCode(3, err)
}
