package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version   = "0.1.0-dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	jsonOutput bool
	jsonQuery  string
)

var rootCmd = &cobra.Command{
	Use:   "crisp",
	Short: "Crisp behavior-tree compiler and interpreter",
	Long: `crisp is a compiler and runtime for the Crisp behavior-tree language.

Crisp programs declare (tree ...) forms built from selectors, sequences,
decorators (invert, repeat, timeout, cooldown, reactive) and leaf
conditions/actions dispatched against a host game object. This tool runs
every stage of the pipeline standalone: lexing, parsing, formatting,
macro/decorator expansion, IR lowering and optimization, S-expression
serialization, and interpretation.`,
	Version: Version,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.SetVersionTemplate(fmt.Sprintf(`{{with .Name}}{{printf "%%s " .}}{{end}}{{printf "version %%s" .Version}}
Commit: %s
Built:  %s
`, GitCommit, BuildDate))

	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "emit diagnostics as a JSON document instead of text")
	rootCmd.PersistentFlags().StringVar(&jsonQuery, "json-query", "", "gjson path to extract from the --json diagnostics document")
}

func exitWithError(msg string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+msg+"\n", args...)
	os.Exit(1)
}
