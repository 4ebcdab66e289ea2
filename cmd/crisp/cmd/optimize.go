package cmd

import (
	"fmt"

	"github.com/crisp-lang/crisp/internal/serialize"
	"github.com/spf13/cobra"
)

var optimizeShowDiff bool

var optimizeCmd = &cobra.Command{
	Use:   "optimize [file]",
	Short: "Lower Crisp source to optimized IR",
	Long: `Run the full AST->IR pipeline followed by the IR optimizer's constant
folding, dead-node elimination, single-child collapse and convert fusion
passes, then print each resulting tree as canonical S-expression text.

Reads from the named file, or from stdin if no file is given. --diff prints
the unoptimized and optimized forms side by side, separated by a marker
line, so the effect of the optimizer on a given tree is visible.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().BoolVar(&optimizeShowDiff, "diff", false, "also print the unoptimized form for comparison")
}

func runOptimize(_ *cobra.Command, args []string) error {
	src, filename, err := readSource(args)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	trees, bag := lowerToIR(src)
	hasErrors := printDiagnostics(bag, src)
	if hasErrors || trees == nil {
		return fmt.Errorf("lowering failed")
	}

	optimized := optimizeAll(trees)

	for i, t := range optimized {
		if i > 0 {
			fmt.Println()
		}
		if optimizeShowDiff {
			fmt.Println("; unoptimized")
			fmt.Println(serialize.Serialize(trees[i]))
			fmt.Println("; optimized")
		}
		fmt.Println(serialize.Serialize(t))
	}
	return nil
}
