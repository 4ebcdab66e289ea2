package format

import (
	"strings"
	"testing"

	"github.com/crisp-lang/crisp/internal/cst"
)

func parseOneTree(t *testing.T, src string) *cst.Node {
	t.Helper()
	prog, bag := cst.Parse(src)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", bag.All())
	}
	for _, e := range prog.Elements {
		if e.Child != nil {
			return e.Child
		}
	}
	t.Fatalf("no top-level form in %q", src)
	return nil
}

// A form that fits the width budget renders flat, on one line.
func TestFormatFitsOnOneLine(t *testing.T) {
	n := parseOneTree(t, `(tree T (select (.A) (.B)))`)
	out := FormatNode(n, DefaultConfig())
	if strings.Contains(out, "\n") {
		t.Fatalf("expected a single line, got:\n%s", out)
	}
	if out != `(tree T (select (.A) (.B)))` {
		t.Fatalf("unexpected flat rendering: %q", out)
	}
}

// spec.md scenario 8: a narrow width budget forces the SimpleCombat tree
// to break across multiple indented lines with Lisp-style stacked parens.
func TestFormatBreaksAtNarrowWidth(t *testing.T) {
	n := parseOneTree(t, `(tree SimpleCombat (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`)
	cfg := DefaultConfig()
	cfg.MaxWidth = 35
	out := FormatNode(n, cfg)

	for _, line := range []string{
		`(tree SimpleCombat`,
		`(select`,
		`(seq`,
		`(check (< .Health 30))`,
		`(.Flee))`,
		`(.Patrol)))`,
	} {
		if !strings.Contains(out, line) {
			t.Fatalf("expected line %q in:\n%s", line, out)
		}
	}
	for _, rawLine := range strings.Split(out, "\n") {
		trimmed := strings.TrimLeft(rawLine, " ")
		if (len(rawLine)-len(trimmed))%2 != 0 {
			t.Fatalf("indentation not a multiple of 2 spaces: %q", rawLine)
		}
	}
}

// spec.md §8: format(format(s)) == format(s).
func TestFormatIsIdempotent(t *testing.T) {
	srcs := []string{
		`(tree SimpleCombat (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))`,
		`(tree T (parallel :n 2 (.A) (.B) (.C)))`,
		`(tree T (repeat 3 (invert (.Attack))))`,
		`(tree T (if (< .Health 10) (.Flee) (.Patrol)))`,
		`(tree T (timeout 5.5 (while (> .Ammo 0) (.Shoot))))`,
	}
	for _, cfg := range []Config{DefaultConfig(), {Indent: 2, MaxWidth: 20, AlignCloseParen: false, BlankLineBetweenTrees: true}, {Indent: 4, MaxWidth: 80, AlignCloseParen: true, BlankLineBetweenTrees: false}} {
		for _, src := range srcs {
			n := parseOneTree(t, src)
			once := FormatNode(n, cfg)
			reparsed := parseOneTree(t, once)
			twice := FormatNode(reparsed, cfg)
			if once != twice {
				t.Fatalf("not idempotent at %+v for %s:\nonce:\n%s\ntwice:\n%s", cfg, src, once, twice)
			}
		}
	}
}

// AlignCloseParen puts each closing paren on its own line at the opener's
// indent instead of stacking onto the last child's line.
func TestFormatAlignCloseParen(t *testing.T) {
	n := parseOneTree(t, `(tree T (select (.A) (.B)))`)
	cfg := DefaultConfig()
	cfg.MaxWidth = 5
	cfg.AlignCloseParen = true
	out := FormatNode(n, cfg)
	if strings.Contains(out, "(.A))") || strings.Contains(out, "(.B)))") {
		t.Fatalf("expected aligned closers, not stacked, got:\n%s", out)
	}
	lines := strings.Split(out, "\n")
	last := lines[len(lines)-1]
	if strings.TrimSpace(last) != ")" {
		t.Fatalf("expected final line to be a lone aligned close paren, got %q", last)
	}
}

// Leading line comments on a top-level form are preserved above it.
func TestFormatPreservesLeadingComments(t *testing.T) {
	src := ";; flees below 30 health\n(tree SimpleCombat (select (seq (check (< .Health 30)) (.Flee)) (.Patrol)))\n"
	prog, bag := cst.Parse(src)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", bag.All())
	}
	out := Format(prog, DefaultConfig())
	if !strings.HasPrefix(out, ";; flees below 30 health\n") {
		t.Fatalf("expected leading comment preserved, got:\n%s", out)
	}
}

// Multiple top-level trees get one blank line between them by default.
func TestFormatBlankLineBetweenTrees(t *testing.T) {
	src := `(tree A (.Attack)) (tree B (.Patrol))`
	prog, bag := cst.Parse(src)
	if bag.HasErrors() {
		t.Fatalf("unexpected parse diagnostics: %+v", bag.All())
	}
	out := Format(prog, DefaultConfig())
	if !strings.Contains(out, "(tree A (.Attack))\n\n(tree B (.Patrol))\n") {
		t.Fatalf("expected blank line between trees, got:\n%s", out)
	}
}

// The "<body>" decorator-parameter placeholder is not ordinary parens but
// still renders correctly via the generic Elements walk.
func TestFormatBodyPlaceholder(t *testing.T) {
	n := parseOneTree(t, `(defmacro M () (repeat 3 <body>))`)
	out := FormatNode(n, DefaultConfig())
	if !strings.Contains(out, "<body>") {
		t.Fatalf("expected <body> placeholder preserved verbatim, got:\n%s", out)
	}
}
