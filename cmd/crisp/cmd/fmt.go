package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/crisp-lang/crisp/internal/cst"
	"github.com/crisp-lang/crisp/internal/format"
	"github.com/spf13/cobra"
)

var (
	fmtWrite      bool
	fmtList       bool
	fmtDiff       bool
	fmtRecursive  bool
	fmtConfigPath string
	fmtMaxWidth   int
	fmtIndent     int
)

var fmtCmd = &cobra.Command{
	Use:   "fmt [files or directories...]",
	Short: "Format Crisp source files",
	Long: `Format Crisp source files using the CST-driven pretty printer.

By default fmt formats the files named on the command line and writes the
result to standard output. If no path is provided, it reads from standard
input.

  crisp fmt file.crisp          format to stdout
  crisp fmt -w file.crisp       overwrite the file with formatted output
  crisp fmt -l -r src/          list files that need formatting
  crisp fmt -d file.crisp       show a diff of the changes`,
	RunE: runFmt,
}

func init() {
	rootCmd.AddCommand(fmtCmd)

	fmtCmd.Flags().BoolVarP(&fmtWrite, "write", "w", false, "write result to (source) file instead of stdout")
	fmtCmd.Flags().BoolVarP(&fmtList, "list", "l", false, "list files whose formatting differs")
	fmtCmd.Flags().BoolVarP(&fmtDiff, "diff", "d", false, "display diffs instead of rewriting files")
	fmtCmd.Flags().BoolVarP(&fmtRecursive, "recursive", "r", false, "process directories recursively")
	fmtCmd.Flags().StringVar(&fmtConfigPath, "config", "", "path to a .crisp-fmt.yaml formatter config")
	fmtCmd.Flags().IntVar(&fmtMaxWidth, "max-width", 0, "override the formatter's column budget (0: use config/default)")
	fmtCmd.Flags().IntVar(&fmtIndent, "indent", 0, "override the formatter's indent width (0: use config/default)")
}

func loadFmtConfig() (format.Config, error) {
	cfg := format.DefaultConfig()
	if fmtConfigPath != "" {
		f, err := os.Open(fmtConfigPath)
		if err != nil {
			return cfg, fmt.Errorf("opening formatter config: %w", err)
		}
		defer f.Close()
		cfg, err = format.LoadConfig(f)
		if err != nil {
			return cfg, err
		}
	}
	if fmtMaxWidth > 0 {
		cfg.MaxWidth = fmtMaxWidth
	}
	if fmtIndent > 0 {
		cfg.Indent = fmtIndent
	}
	return cfg, nil
}

func runFmt(_ *cobra.Command, args []string) error {
	if fmtWrite && fmtList {
		return fmt.Errorf("cannot use -w and -l together")
	}
	if fmtWrite && fmtDiff {
		return fmt.Errorf("cannot use -w and -d together")
	}

	cfg, err := loadFmtConfig()
	if err != nil {
		return err
	}

	if len(args) == 0 {
		return formatStdin(cfg)
	}

	hasErrors := false
	for _, path := range args {
		if err := processPath(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error processing %s: %v\n", path, err)
			hasErrors = true
		}
	}
	if hasErrors {
		return fmt.Errorf("formatting failed for one or more files")
	}
	return nil
}

func processPath(path string, cfg format.Config) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if info.IsDir() {
		if fmtRecursive {
			return processDirectory(path, cfg)
		}
		return fmt.Errorf("%s is a directory (use -r to process recursively)", path)
	}
	return formatFile(path, cfg)
}

func processDirectory(dir string, cfg format.Config) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".crisp") {
			return nil
		}
		if err := formatFile(path, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error formatting %s: %v\n", path, err)
		}
		return nil
	})
}

func formatStdin(cfg format.Config) error {
	src, err := readStdin()
	if err != nil {
		return fmt.Errorf("error reading stdin: %w", err)
	}
	formatted, err := formatSource(src, cfg)
	if err != nil {
		return err
	}
	fmt.Print(formatted)
	return nil
}

func formatFile(filename string, cfg format.Config) error {
	src, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("error reading file: %w", err)
	}
	original := string(src)

	formatted, err := formatSource(original, cfg)
	if err != nil {
		return err
	}
	changed := original != formatted

	switch {
	case fmtList:
		if changed {
			fmt.Println(filename)
		}
	case fmtDiff:
		if changed {
			fmt.Printf("--- %s (original)\n+++ %s (formatted)\n", filename, filename)
			showDiff(original, formatted)
		}
	case fmtWrite:
		if changed {
			if err := os.WriteFile(filename, []byte(formatted), 0644); err != nil {
				return fmt.Errorf("error writing file: %w", err)
			}
		}
	default:
		fmt.Print(formatted)
	}
	return nil
}

func formatSource(source string, cfg format.Config) (string, error) {
	prog, bag := cst.Parse(source)
	if bag.HasErrors() {
		var sb strings.Builder
		sb.WriteString("parse errors:\n")
		for _, d := range bag.SortedByLocation() {
			sb.WriteString("  " + d.Message + "\n")
		}
		return "", fmt.Errorf("%s", sb.String())
	}
	return format.Format(prog, cfg), nil
}

func showDiff(original, formatted string) {
	origLines := strings.Split(original, "\n")
	fmtLines := strings.Split(formatted, "\n")

	maxLines := len(origLines)
	if len(fmtLines) > maxLines {
		maxLines = len(fmtLines)
	}
	for i := 0; i < maxLines; i++ {
		var origLine, fmtLine string
		if i < len(origLines) {
			origLine = origLines[i]
		}
		if i < len(fmtLines) {
			fmtLine = fmtLines[i]
		}
		if origLine != fmtLine {
			if origLine != "" {
				fmt.Printf("- %s\n", origLine)
			}
			if fmtLine != "" {
				fmt.Printf("+ %s\n", fmtLine)
			}
		}
	}
}
