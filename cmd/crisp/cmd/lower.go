package cmd

import (
	"fmt"

	"github.com/crisp-lang/crisp/internal/serialize"
	"github.com/spf13/cobra"
)

var lowerCmd = &cobra.Command{
	Use:   "lower [file]",
	Short: "Lower Crisp source to unoptimized IR",
	Long: `Run lexing, parsing, macro/decorator expansion, name resolution and
AST->IR lowering, then print each resulting tree as canonical S-expression
text (spec.md's IR serialization form) before the optimizer runs.

Reads from the named file, or from stdin if no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLower,
}

func init() {
	rootCmd.AddCommand(lowerCmd)
}

func runLower(_ *cobra.Command, args []string) error {
	src, filename, err := readSource(args)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	trees, bag := lowerToIR(src)
	hasErrors := printDiagnostics(bag, src)
	if hasErrors || trees == nil {
		return fmt.Errorf("lowering failed")
	}

	for i, t := range trees {
		if i > 0 {
			fmt.Println()
		}
		fmt.Println(serialize.Serialize(t))
	}
	return nil
}
