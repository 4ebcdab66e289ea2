package cmd

import (
	"fmt"

	"github.com/crisp-lang/crisp/internal/lexer"
	"github.com/crisp-lang/crisp/internal/token"
	"github.com/spf13/cobra"
)

var (
	lexShowPos    bool
	lexOnlyErrors bool
)

var lexCmd = &cobra.Command{
	Use:   "lex [file]",
	Short: "Tokenize a Crisp source file",
	Long: `Tokenize a Crisp program and print the resulting tokens.

Reads from the named file, or from stdin if no file is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLex,
}

func init() {
	rootCmd.AddCommand(lexCmd)

	lexCmd.Flags().BoolVar(&lexShowPos, "show-pos", false, "show each token's byte span")
	lexCmd.Flags().BoolVar(&lexOnlyErrors, "only-errors", false, "show only illegal tokens")
}

func runLex(_ *cobra.Command, args []string) error {
	src, filename, err := readSource(args)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", filename, err)
	}

	toks := lexer.Lex(src)
	errCount := 0
	for _, tok := range toks {
		if lexOnlyErrors && tok.Kind != token.Illegal {
			continue
		}
		if tok.Kind == token.Illegal {
			errCount++
		}
		printToken(tok)
	}

	if errCount > 0 {
		return fmt.Errorf("found %d illegal token(s)", errCount)
	}
	return nil
}

func printToken(tok token.Token) {
	out := fmt.Sprintf("[%-14s] %q", tok.Kind.String(), tok.Text)
	if lexShowPos {
		out += " " + tok.Span.String()
	}
	fmt.Println(out)
}
