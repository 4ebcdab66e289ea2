// Command crisp is a standalone CLI exercising every stage of the Crisp
// behavior-tree compiler pipeline: lexing, parsing, formatting,
// macro/decorator expansion, IR lowering and optimization, S-expression
// serialization, and interpretation.
package main

import (
	"os"

	"github.com/crisp-lang/crisp/cmd/crisp/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
