// Command goscm is a CLI front end for an R7RS-small Scheme interpreter.
// It accepts --eval "expr", --load file, - (read from standard input), or
// a positional script path.
package main

import (
	"os"

	"github.com/go-scm/go-scm/cmd/goscm/cmd"
)

func main() {
	os.Exit(cmd.Execute())
}
