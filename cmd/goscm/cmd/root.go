package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information, set by build flags.
var (
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var rootCmd = &cobra.Command{
	Use:   "goscm",
	Short: "An R7RS-small Scheme interpreter",
	Long: `goscm is a tree-walking interpreter for the R7RS-small subset of
Scheme: a trampolined evaluator with proper tail calls, first-class
continuations, a hygienic macro expander, and the full numeric tower.

Run a script, evaluate an inline expression with --eval, or pipe a
program on standard input with "-".`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
}

// exitError carries a specific process exit code (0 success, 1 uncaught
// user condition, 2 syntax/lex error, 3 bad invocation) through cobra's
// plain-error RunE contract.
type exitError struct {
	code int
	err error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// Execute runs the root command and returns its process exit code,
// printing any error to stderr first.
func Execute() int {
	err := rootCmd.Execute()
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	if ee, ok := err.(*exitError); ok {
		return ee.code
	}
	return 3
}
