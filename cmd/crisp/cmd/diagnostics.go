package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/crisp-lang/crisp/internal/diag"
)

// printDiagnostics renders bag's diagnostics either as diag.Render's
// caret-annotated text on stderr (the default) or, with --json, as a JSON
// document on stdout — optionally narrowed by --json-query before printing.
// It reports whether bag contained any error-severity diagnostic.
func printDiagnostics(bag *diag.Bag, source string) bool {
	if bag == nil || bag.Len() == 0 {
		return false
	}
	if jsonOutput {
		doc, err := bag.ToJSON()
		if err != nil {
			exitWithError("failed to render diagnostics as JSON: %v", err)
		}
		if jsonQuery != "" {
			fmt.Println(diag.Query(doc, jsonQuery))
		} else {
			fmt.Println(doc)
		}
	} else {
		for _, d := range bag.SortedByLocation() {
			fmt.Fprintln(os.Stderr, diag.Render(d, source, true))
		}
	}
	return bag.HasErrors()
}

func readSource(args []string) (src, filename string, err error) {
	if len(args) == 0 {
		data, readErr := readStdin()
		return data, "<stdin>", readErr
	}
	filename = args[0]
	data, readErr := os.ReadFile(filename)
	return string(data), filename, readErr
}

func readStdin() (string, error) {
	data, err := io.ReadAll(os.Stdin)
	return string(data), err
}
